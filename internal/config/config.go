// Package config holds the immutable settings of one patch run and loads
// them from an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	yaml "gopkg.in/yaml.v2"

	"res-patcher/internal/manifest"
	"res-patcher/internal/patcherr"
	"res-patcher/internal/platform"
	"res-patcher/internal/record"
	"res-patcher/internal/versions"
	"res-patcher/internal/walkwalk"
)

// Config is built once per invocation and passed by value.
type Config struct {
	// Root is the workspace; all other directories are relative to it and
	// manifest paths are recorded relative to it.
	Root           string
	ResourcesDir   string
	DiffsDir       string
	VersionConfDir string
	ManifestName   string
	StagingName    string
	RecordName     string

	Platforms []platform.Platform
	// minVersion is the per-platform floor of the diff range.
	minVersion map[platform.Platform]int

	AutoDeleteSupersededDiffs bool
	RaiseMinVersionOnPublish  bool
	VerifySnapshots           bool
	Changelog                 bool
	FollowSymlinks            bool
	Exclude                   []string
	// ChangelogMaxEntries replaces changelogs over this many entries with a
	// placeholder. 0 means no limit.
	ChangelogMaxEntries int
}

// Default mirrors the classic layout: resources/, differences/, versionConf/.
func Default() Config {
	return Config{
		Root:           ".",
		ResourcesDir:   "resources",
		DiffsDir:       "differences",
		VersionConfDir: "versionConf",
		ManifestName:   manifest.FileName,
		StagingName:    versions.DefaultStaging,
		RecordName:     record.DefaultName,
		Platforms:      append([]platform.Platform{}, platform.All...),
		minVersion:     map[platform.Platform]int{},
		Exclude:        append([]string{}, walkwalk.DefaultExclude...),
	}
}

// MinVersion returns the diff range floor of p (0 when unset).
func (c Config) MinVersion(p platform.Platform) int {
	return c.minVersion[p]
}

// WithMinVersion returns a copy of c with p's floor set to v.
func (c Config) WithMinVersion(p platform.Platform, v int) Config {
	m := make(map[platform.Platform]int, len(c.minVersion)+1)
	for k, val := range c.minVersion {
		m[k] = val
	}
	m[p] = v
	c.minVersion = m
	return c
}

// ResourceRoot is <root>/<resources>/<platform>.
func (c Config) ResourceRoot(p platform.Platform) string {
	return filepath.Join(c.Root, c.ResourcesDir, p.Name())
}

// DiffDir is <root>/<differences>.
func (c Config) DiffDir() string {
	return filepath.Join(c.Root, c.DiffsDir)
}

// RecordPath is <root>/<versionConf>/<record>.<platform>.
func (c Config) RecordPath(p platform.Platform) string {
	return record.Path(filepath.Join(c.Root, c.VersionConfDir), c.RecordName, p)
}

// BuildOptions returns the manifest builder settings.
func (c Config) BuildOptions() manifest.BuildOptions {
	return manifest.BuildOptions{
		Base:           c.Root,
		FileName:       c.ManifestName,
		Exclude:        c.Exclude,
		FollowSymlinks: c.FollowSymlinks,
	}
}

// Validate reports every problem at once.
func (c Config) Validate() error {
	var msgs []string
	add := func(format string, args ...any) { msgs = append(msgs, fmt.Sprintf(format, args...)) }

	if strings.TrimSpace(c.Root) == "" {
		add("root must be non-empty")
	}
	for _, f := range []struct{ name, v string }{
		{"resources", c.ResourcesDir},
		{"differences", c.DiffsDir},
		{"versionConf", c.VersionConfDir},
		{"manifest", c.ManifestName},
		{"staging", c.StagingName},
		{"record", c.RecordName},
	} {
		if strings.TrimSpace(f.v) == "" {
			add("%s must be non-empty", f.name)
		}
	}
	if strings.ContainsAny(c.ManifestName, `/\`) {
		add("manifest must be a file name, got %q", c.ManifestName)
	}
	if strings.ContainsAny(c.StagingName, `/\`) {
		add("staging must be a directory name, got %q", c.StagingName)
	}
	if c.StagingName != "" && isDigits(c.StagingName) {
		add("staging %q would be taken for a version directory", c.StagingName)
	}
	if len(c.Platforms) == 0 {
		add("at least one platform is required")
	}
	for _, p := range c.Platforms {
		if !p.Valid() {
			add("invalid platform %d", int(p))
		}
	}
	for _, p := range platform.All {
		if v := c.minVersion[p]; v < 0 {
			add("minVersion.%s must be >= 0 (got %d)", p.Name(), v)
		}
	}
	if c.ChangelogMaxEntries < 0 {
		add("changelogMaxEntries must be >= 0 (got %d)", c.ChangelogMaxEntries)
	}
	if err := walkwalk.ValidatePatterns(c.Exclude); err != nil {
		add("%v", err)
	}
	if len(msgs) == 0 {
		return nil
	}
	return patcherr.New(patcherr.KindConfig, errors.New(strings.Join(msgs, "\n")))
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}

// fileConfig is the YAML shape. Pointers distinguish "unset" from zero values.
type fileConfig struct {
	Root                      *string        `yaml:"root"`
	Resources                 *string        `yaml:"resources"`
	Differences               *string        `yaml:"differences"`
	VersionConf               *string        `yaml:"versionConf"`
	Manifest                  *string        `yaml:"manifest"`
	Staging                   *string        `yaml:"staging"`
	Record                    *string        `yaml:"record"`
	Platforms                 []string       `yaml:"platforms"`
	MinVersion                map[string]int `yaml:"minVersion"`
	AutoDeleteSupersededDiffs *bool          `yaml:"autoDeleteSupersededDiffs"`
	RaiseMinVersionOnPublish  *bool          `yaml:"raiseMinVersionOnPublish"`
	VerifySnapshots           *bool          `yaml:"verifySnapshots"`
	Changelog                 *bool          `yaml:"changelog"`
	FollowSymlinks            *bool          `yaml:"followSymlinks"`
	Exclude                   []string       `yaml:"exclude"`
	ChangelogMaxEntries       *int           `yaml:"changelogMaxEntries"`
}

// Load applies the YAML file at path on top of base. A relative root in the
// file is resolved against the file's directory.
func Load(path string, base Config) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return base, patcherr.New(patcherr.KindConfig, err)
	}
	return Parse(b, filepath.Dir(path), base)
}

// Parse applies YAML data on top of base.
func Parse(data []byte, dir string, base Config) (Config, error) {
	var fc fileConfig
	if err := yaml.UnmarshalStrict(data, &fc); err != nil {
		return base, patcherr.New(patcherr.KindConfig, fmt.Errorf("parse config: %w", err))
	}
	c := base
	setStr := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	setBool := func(dst *bool, v *bool) {
		if v != nil {
			*dst = *v
		}
	}
	if fc.Root != nil {
		c.Root = *fc.Root
		if !filepath.IsAbs(c.Root) && dir != "" {
			c.Root = filepath.Join(dir, c.Root)
		}
	}
	setStr(&c.ResourcesDir, fc.Resources)
	setStr(&c.DiffsDir, fc.Differences)
	setStr(&c.VersionConfDir, fc.VersionConf)
	setStr(&c.ManifestName, fc.Manifest)
	setStr(&c.StagingName, fc.Staging)
	setStr(&c.RecordName, fc.Record)
	setBool(&c.AutoDeleteSupersededDiffs, fc.AutoDeleteSupersededDiffs)
	setBool(&c.RaiseMinVersionOnPublish, fc.RaiseMinVersionOnPublish)
	setBool(&c.VerifySnapshots, fc.VerifySnapshots)
	setBool(&c.Changelog, fc.Changelog)
	setBool(&c.FollowSymlinks, fc.FollowSymlinks)
	if fc.ChangelogMaxEntries != nil {
		c.ChangelogMaxEntries = *fc.ChangelogMaxEntries
	}
	if fc.Exclude != nil {
		c.Exclude = append([]string{}, fc.Exclude...)
	}
	if fc.Platforms != nil {
		ps, err := platform.ParseList(strings.Join(fc.Platforms, ","))
		if err != nil {
			return base, patcherr.New(patcherr.KindConfig, err)
		}
		c.Platforms = ps
	}
	for name, v := range fc.MinVersion {
		p, err := platform.Parse(name)
		if err != nil {
			return base, patcherr.New(patcherr.KindConfig, fmt.Errorf("minVersion: %w", err))
		}
		c = c.WithMinVersion(p, v)
	}
	return c, nil
}
