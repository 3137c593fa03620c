package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"res-patcher/internal/platform"
)

func TestParseFlagsBasic(t *testing.T) {
	args := []string{"-raise-min", "-auto-delete", "-min", "android=3, ios=1", "-platforms", "ios", "work"}
	cfg, err := parseFlags(args)
	if err != nil {
		t.Fatalf("parseFlags error: %v", err)
	}
	if cfg.root != "work" || !cfg.set["root"] {
		t.Fatalf("root got %q", cfg.root)
	}
	if !cfg.raiseMin || !cfg.autoDelete {
		t.Fatalf("bool flags not captured: %+v", cfg)
	}

	c, err := buildConfig(cfg)
	if err != nil {
		t.Fatalf("buildConfig error: %v", err)
	}
	if c.Root != "work" {
		t.Fatalf("Root got %q", c.Root)
	}
	if len(c.Platforms) != 1 || c.Platforms[0] != platform.IOS {
		t.Fatalf("platforms got %v", c.Platforms)
	}
	if c.MinVersion(platform.Android) != 3 || c.MinVersion(platform.IOS) != 1 {
		t.Fatalf("min versions not applied")
	}
	if !c.RaiseMinVersionOnPublish || !c.AutoDeleteSupersededDiffs {
		t.Fatalf("flags not applied: %+v", c)
	}
}

func TestParseFlagsRootTwice(t *testing.T) {
	if _, err := parseFlags([]string{"-root", "a", "b"}); err == nil {
		t.Fatalf("expected error for duplicate workspace")
	}
}

func TestParseFlagsExtraArgs(t *testing.T) {
	if _, err := parseFlags([]string{"a", "b"}); err == nil {
		t.Fatalf("expected error for extra positional args")
	}
}

func TestFlagsOverrideConfigFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "patcher.yaml")
	if err := os.WriteFile(p, []byte("autoDeleteSupersededDiffs: true\nstaging: incoming\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cli, err := parseFlags([]string{"-config", p, "-auto-delete=false"})
	if err != nil {
		t.Fatal(err)
	}
	c, err := buildConfig(cli)
	if err != nil {
		t.Fatalf("buildConfig error: %v", err)
	}
	if c.AutoDeleteSupersededDiffs {
		t.Fatalf("explicit flag should override file")
	}
	if c.StagingName != "incoming" {
		t.Fatalf("file value lost: %q", c.StagingName)
	}
}

func TestParseMinRejectsGarbage(t *testing.T) {
	for _, s := range []string{"android", "pc=1", "ios=x"} {
		if _, err := parseMin(s); err == nil {
			t.Fatalf("expected error for %q", s)
		}
	}
}

func TestInvalidConfigRejected(t *testing.T) {
	cli, err := parseFlags([]string{"-min", "ios=-2"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := buildConfig(cli); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestNewLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, false, true)
	log.Debug().Msg("hidden")
	log.Info().Msg("shown")
	if bytes.Contains(buf.Bytes(), []byte("hidden")) || !bytes.Contains(buf.Bytes(), []byte("shown")) {
		t.Fatalf("unexpected log output: %s", buf.String())
	}
}
