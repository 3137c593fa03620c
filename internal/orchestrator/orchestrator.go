// Package orchestrator runs the patch pipeline for every configured
// platform: promote staging, ensure manifests, generate diff files, update
// the version record. Platforms are independent; one failing never stops the
// others.
package orchestrator

import (
	"fmt"

	"github.com/rs/zerolog"

	"res-patcher/internal/config"
	"res-patcher/internal/patch"
	"res-patcher/internal/patcherr"
	"res-patcher/internal/platform"
	"res-patcher/internal/record"
	"res-patcher/internal/versions"
)

// PlatformResult is the outcome for one platform.
type PlatformResult struct {
	Platform       platform.Platform  `json:"platform"`
	Skipped        bool               `json:"skipped,omitempty"`
	Promoted       bool               `json:"promoted"`
	Latest         int                `json:"latest"`
	ManifestsBuilt []int              `json:"manifestsBuilt,omitempty"`
	Diffs          []patch.FileResult `json:"diffs,omitempty"`
	Findings       []patch.Finding    `json:"findings,omitempty"`
	RecordUpdated  bool               `json:"recordUpdated"`
	RecordError    string             `json:"recordError,omitempty"`
	Error          string             `json:"error,omitempty"`
	ErrorKind      patcherr.Kind      `json:"errorKind,omitempty"`

	err error
}

// Err returns the error that stopped the platform, if any.
func (r PlatformResult) Err() error { return r.err }

// Report collects the results of one run.
type Report struct {
	Platforms []PlatformResult `json:"platforms"`
}

// Failed counts platforms whose pipeline stopped with an error.
func (r Report) Failed() int {
	n := 0
	for _, p := range r.Platforms {
		if p.err != nil {
			n++
		}
	}
	return n
}

// Run processes every platform of cfg in order.
func Run(cfg config.Config, log zerolog.Logger) Report {
	var rep Report
	for _, p := range cfg.Platforms {
		res := runPlatform(cfg, p, log.With().Str("platform", p.Name()).Logger())
		rep.Platforms = append(rep.Platforms, res)
	}
	return rep
}

func runPlatform(cfg config.Config, p platform.Platform, log zerolog.Logger) (res PlatformResult) {
	res.Platform = p
	defer func() {
		if res.err != nil {
			res.Error = res.err.Error()
			res.ErrorKind = patcherr.KindOf(res.err)
			log.Error().Err(res.err).Msg("platform failed")
			return
		}
		log.Info().
			Int("latest", res.Latest).
			Bool("promoted", res.Promoted).
			Int("diffs", len(res.Diffs)).
			Bool("recordUpdated", res.RecordUpdated).
			Msg("hotfix patch generated")
	}()

	vd := versions.Dir{
		Root:    cfg.ResourceRoot(p),
		Staging: cfg.StagingName,
		Build:   cfg.BuildOptions(),
		Log:     log,
	}
	if err := vd.CheckRoot(); err != nil {
		res.Skipped = true
		res.err = err
		return res
	}

	latest, promoted, err := vd.Promote()
	if err != nil {
		res.err = fmt.Errorf("promote: %w", err)
		return res
	}
	res.Latest, res.Promoted = latest, promoted

	built, err := vd.EnsureManifests()
	res.ManifestsBuilt = built
	if err != nil {
		res.err = err
		return res
	}

	eng := &patch.Engine{
		Platform:   p,
		Versions:   vd,
		DiffDir:    cfg.DiffDir(),
		Manifest:   cfg.BuildOptions(),
		MinVersion: cfg.MinVersion(p),
		AutoDelete: cfg.AutoDeleteSupersededDiffs,
		Changelog:  cfg.Changelog,
		Promoted:   promoted,
		Log:        log,

		ChangelogMaxEntries: cfg.ChangelogMaxEntries,
	}
	gen, err := eng.Generate(latest)
	res.Diffs = gen.Files
	if err != nil {
		res.err = err
		return res
	}

	if cfg.VerifySnapshots {
		vs, err := vd.List()
		if err == nil {
			res.Findings, err = eng.Verify(vs)
		}
		if err != nil {
			log.Warn().Err(err).Msg("snapshot verification incomplete")
		}
	}

	// The record update is not transactional with the diff files: a
	// failure here leaves the generated files in place.
	path := cfg.RecordPath(p)
	if err := record.Update(path, latest, cfg.RaiseMinVersionOnPublish); err != nil {
		res.RecordError = err.Error()
		if patcherr.Is(err, patcherr.KindMissingVersionRecord) {
			log.Warn().Str("record", path).Msg("version record missing, not updated")
		} else {
			log.Warn().Err(err).Str("record", path).Msg("version record not updated")
		}
		return res
	}
	res.RecordUpdated = true
	return res
}
