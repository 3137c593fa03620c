// Package main provides the res-patcher CLI. It promotes the staging
// directory of every platform into a new resource version, makes sure every
// version has a manifest, regenerates the cumulative diff files and bumps the
// version records.
//
// Usage:
//
//	res-patcher [flags] [workspace]
//
// The workspace holds resources/, differences/ and versionConf/. Settings
// come from defaults, then the optional -config YAML file, then flags.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"res-patcher/internal/config"
	"res-patcher/internal/orchestrator"
	"res-patcher/internal/platform"
)

// Config holds the raw command line.
type Config struct {
	configPath string
	root       string
	platforms  string
	minVersion string
	staging    string
	exclude    string
	reportPath string
	raiseMin   bool
	autoDelete bool
	verify     bool
	changelog  bool
	verbose    bool
	logJSON    bool

	// set records which flags were given explicitly.
	set map[string]bool
}

// splitCSV converts a comma-separated list into a slice of trimmed, non-empty parts.
func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	out := make([]string, 0, 8)
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseFlags(args []string) (Config, error) {
	var cfg Config
	fs := flag.NewFlagSet("res-patcher", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.configPath, "config", "", "YAML config file (optional)")
	fs.StringVar(&cfg.root, "root", "", "workspace root (default \".\"; also accepted as positional arg)")
	fs.StringVar(&cfg.platforms, "platforms", "", "comma-separated platforms to process (android,ios)")
	fs.StringVar(&cfg.minVersion, "min", "", "per-platform diff floor, e.g. android=3,ios=2")
	fs.StringVar(&cfg.staging, "staging", "", "staging directory name (default \"temp\")")
	fs.StringVar(&cfg.exclude, "exclude", "", "comma-separated glob patterns excluded from manifests")
	fs.StringVar(&cfg.reportPath, "report", "", "write a JSON run report to this path")
	fs.BoolVar(&cfg.raiseMin, "raise-min", false, "also set minResVersion to the new version")
	fs.BoolVar(&cfg.autoDelete, "auto-delete", false, "delete superseded diff files")
	fs.BoolVar(&cfg.verify, "verify", false, "report resources republished without changes")
	fs.BoolVar(&cfg.changelog, "changelog", false, "print what changed in refreshed diff files")
	fs.BoolVar(&cfg.verbose, "v", false, "debug logging")
	fs.BoolVar(&cfg.logJSON, "log-json", false, "log JSON lines instead of console output")

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	cfg.set = make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { cfg.set[f.Name] = true })

	switch fs.NArg() {
	case 0:
	case 1:
		if cfg.root != "" {
			return cfg, errors.New("workspace given both as -root and positional argument")
		}
		cfg.root = fs.Arg(0)
		cfg.set["root"] = true
	default:
		return cfg, fmt.Errorf("unexpected arguments: %v", fs.Args()[1:])
	}
	return cfg, nil
}

// parseMin parses "android=3,ios=2".
func parseMin(s string) (map[platform.Platform]int, error) {
	out := make(map[platform.Platform]int)
	for _, part := range splitCSV(s) {
		name, val, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("-min: expected platform=version, got %q", part)
		}
		p, err := platform.Parse(name)
		if err != nil {
			return nil, fmt.Errorf("-min: %w", err)
		}
		v, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return nil, fmt.Errorf("-min %s: %w", name, err)
		}
		out[p] = v
	}
	return out, nil
}

// buildConfig layers defaults, the config file and explicit flags.
func buildConfig(cli Config) (config.Config, error) {
	c := config.Default()
	if cli.configPath != "" {
		var err error
		if c, err = config.Load(cli.configPath, c); err != nil {
			return c, err
		}
	}
	if cli.set["root"] {
		c.Root = filepath.Clean(cli.root)
	}
	if cli.set["platforms"] {
		ps, err := platform.ParseList(cli.platforms)
		if err != nil {
			return c, err
		}
		c.Platforms = ps
	}
	if cli.set["min"] {
		mins, err := parseMin(cli.minVersion)
		if err != nil {
			return c, err
		}
		for _, p := range platform.All {
			if v, ok := mins[p]; ok {
				c = c.WithMinVersion(p, v)
			}
		}
	}
	if cli.set["staging"] {
		c.StagingName = cli.staging
	}
	if cli.set["exclude"] {
		c.Exclude = splitCSV(cli.exclude)
	}
	if cli.set["raise-min"] {
		c.RaiseMinVersionOnPublish = cli.raiseMin
	}
	if cli.set["auto-delete"] {
		c.AutoDeleteSupersededDiffs = cli.autoDelete
	}
	if cli.set["verify"] {
		c.VerifySnapshots = cli.verify
	}
	if cli.set["changelog"] {
		c.Changelog = cli.changelog
	}
	return c, c.Validate()
}

func newLogger(w io.Writer, verbose, asJSON bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	if !asJSON {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage:\n  %s [flags] [workspace]\n\nFlags:\n", filepath.Base(os.Args[0]))
	fmt.Fprintln(os.Stderr, "  -config, -root, -platforms, -min, -staging, -exclude, -report,")
	fmt.Fprintln(os.Stderr, "  -raise-min, -auto-delete, -verify, -changelog, -v, -log-json")
}

func main() {
	cli, err := parseFlags(os.Args[1:])
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "ERROR:", err)
		}
		usage()
		os.Exit(2)
	}
	log := newLogger(os.Stderr, cli.verbose, cli.logJSON)

	cfg, err := buildConfig(cli)
	if err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		os.Exit(2)
	}

	rep := orchestrator.Run(cfg, log)

	if cli.reportPath != "" {
		if err := orchestrator.WriteReport(cli.reportPath, rep); err != nil {
			log.Error().Err(err).Str("report", cli.reportPath).Msg("writing report")
		}
	}
	for _, pr := range rep.Platforms {
		if cfg.Changelog {
			for _, d := range pr.Diffs {
				if d.Changelog != "" {
					fmt.Print(d.Changelog)
				}
			}
		}
		if pr.Err() != nil {
			fmt.Printf("%s: failed (%v)\n", pr.Platform, pr.Err())
			continue
		}
		fmt.Printf("%s: latest=%d promoted=%t diffs=%d record=%t\n",
			pr.Platform, pr.Latest, pr.Promoted, len(pr.Diffs), pr.RecordUpdated)
	}
	if len(rep.Platforms) > 0 && rep.Failed() == len(rep.Platforms) {
		os.Exit(1)
	}
}
