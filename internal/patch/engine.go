// Package patch generates cumulative diff files: for every start version of a
// platform, the set of resources a client on that version must fetch to reach
// the latest version.
//
// Version directories are expected to hold only resources that are new or
// changed at that version. The engine trusts this; Verify reports entries that
// break it.
package patch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"res-patcher/internal/changelog"
	"res-patcher/internal/manifest"
	"res-patcher/internal/patcherr"
	"res-patcher/internal/platform"
	"res-patcher/internal/validate"
)

// Mode tells how a diff file came to be.
type Mode string

const (
	// ModeCurrent: the diff file already targeted the latest version.
	ModeCurrent Mode = "current"
	// ModeIncremental: prior diff file overlaid with the latest manifest.
	ModeIncremental Mode = "incremental"
	// ModeFull: every version manifest in range was walked.
	ModeFull Mode = "full"
	// ModeFallback: the prior diff file was corrupt, so a full walk was done.
	ModeFallback Mode = "fallback"
)

// VersionSource resolves version directories of one platform.
type VersionSource interface {
	Path(v int) string
}

// Engine builds the diff files of one platform.
type Engine struct {
	Platform platform.Platform
	Versions VersionSource
	// DiffDir holds diff_<platform>_<from>_<to>.json files.
	DiffDir string
	// Manifest names the per-version manifest file.
	Manifest manifest.BuildOptions
	// MinVersion is the lowest start version that gets a diff file.
	MinVersion int
	// AutoDelete removes superseded diff files once the new one is written.
	AutoDelete bool
	// Changelog renders a unified diff against the superseded file.
	Changelog bool
	// ChangelogMaxEntries caps the entries rendered per changelog; 0 is no limit.
	ChangelogMaxEntries int
	// Promoted is set when latest was created in this run. Diff files already
	// targeting latest then predate it and are rebuilt.
	Promoted bool
	Log      zerolog.Logger

	manifests map[int]*manifest.List
}

// FileResult describes one generated diff file.
type FileResult struct {
	From       int      `json:"from"`
	To         int      `json:"to"`
	Path       string   `json:"path"`
	Mode       Mode     `json:"mode"`
	Entries    int      `json:"entries"`
	Superseded []string `json:"superseded,omitempty"`
	Changelog  string   `json:"changelog,omitempty"`
}

// Result is the outcome of Generate.
type Result struct {
	Latest int          `json:"latest"`
	Files  []FileResult `json:"files"`
}

// Path returns the diff file path for (from, to).
func (e *Engine) Path(from, to int) string {
	return filepath.Join(e.DiffDir, FileName(e.Platform, from, to))
}

// Generate ensures a diff file (from, latest) exists for every from in
// [MinVersion, latest). Any failure aborts the remaining start versions since
// later files would be built on the same broken input.
func (e *Engine) Generate(latest int) (Result, error) {
	res := Result{Latest: latest}
	e.manifests = make(map[int]*manifest.List)
	if err := os.MkdirAll(e.DiffDir, 0o755); err != nil {
		return res, err
	}
	start := e.MinVersion
	if start < 0 {
		start = 0
	}
	for from := start; from < latest; from++ {
		fr, err := e.generateOne(from, latest)
		if err != nil {
			return res, fmt.Errorf("diff %d->%d: %w", from, latest, err)
		}
		res.Files = append(res.Files, fr)
	}
	e.Log.Info().
		Str("platform", e.Platform.Name()).
		Int("latest", latest).
		Int("files", len(res.Files)).
		Msg("diff files generated")
	return res, nil
}

func (e *Engine) generateOne(from, latest int) (FileResult, error) {
	fr := FileResult{From: from, To: latest, Path: e.Path(from, latest)}
	log := e.Log.With().Int("from", from).Int("to", latest).Logger()

	cur, err := loadChecked(fr.Path)
	switch {
	case err != nil:
		log.Warn().Err(err).Msg("existing diff file unusable, rebuilding")
	case cur != nil && e.Promoted:
		log.Warn().Msg("diff file predates promoted version, rebuilding")
	case cur != nil:
		ok, err := e.fresh(cur, latest)
		if err != nil {
			return fr, err
		}
		if ok {
			fr.Mode = ModeCurrent
			fr.Entries = cur.Len()
			log.Debug().Msg("diff file up to date")
			return e.finish(fr, log)
		}
		log.Warn().Msg("diff file lacks entries of the latest manifest, rebuilding")
	}

	var (
		u     *union
		prior *manifest.List
	)
	priorPath := e.Path(from, latest-1)
	if latest-1 > from {
		var err error
		prior, err = loadChecked(priorPath)
		if err != nil {
			log.Warn().Err(err).Str("prior", priorPath).Msg("prior diff file corrupt, recomputing from manifests")
			fr.Mode = ModeFallback
			prior = nil
		}
	}

	if prior != nil {
		top, err := e.manifest(latest)
		if err != nil {
			return fr, err
		}
		u = newUnion()
		u.apply(prior, 0)
		u.apply(top, latest)
		for _, te := range top.List {
			log.Debug().Object("entry", te).Msg("entry overlaid")
		}
		fr.Mode = ModeIncremental
	} else {
		var err error
		if u, err = e.walk(from, latest); err != nil {
			return fr, err
		}
		if fr.Mode == "" {
			fr.Mode = ModeFull
		}
	}

	out := u.list()
	if err := manifest.Save(fr.Path, out); err != nil {
		return fr, err
	}
	fr.Entries = out.Len()
	log.Debug().Str("mode", string(fr.Mode)).Int("entries", fr.Entries).Msg("diff file written")

	if e.Changelog && prior != nil {
		body, _ := changelog.Unified(filepath.Base(priorPath), filepath.Base(fr.Path), prior, out, changelog.Options{MaxEntries: e.ChangelogMaxEntries})
		fr.Changelog = body
		added, replaced, dropped := changelog.Summary(prior, out)
		log.Info().Int("added", added).Int("replaced", replaced).Int("dropped", dropped).Msg("diff file refreshed")
	}
	return e.finish(fr, log)
}

// fresh reports whether cur carries every entry of the latest manifest
// unchanged. A file that does not is left over from an earlier publication.
func (e *Engine) fresh(cur *manifest.List, latest int) (bool, error) {
	top, err := e.manifest(latest)
	if err != nil {
		return false, err
	}
	have := cur.ByName()
	for _, te := range top.List {
		if got, ok := have[te.Name]; !ok || got != te {
			return false, nil
		}
	}
	return true, nil
}

// finish deletes superseded diff files of fr.From. It only runs after the
// diff file targeting the latest version is on disk.
func (e *Engine) finish(fr FileResult, log zerolog.Logger) (FileResult, error) {
	if !e.AutoDelete {
		return fr, nil
	}
	stale, err := e.stale(fr.From, fr.To)
	if err != nil {
		return fr, err
	}
	for _, p := range stale {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fr, fmt.Errorf("remove superseded %s: %w", p, err)
		}
		log.Debug().Str("file", p).Msg("superseded diff file removed")
		fr.Superseded = append(fr.Superseded, filepath.Base(p))
	}
	return fr, nil
}

// stale lists diff files of (platform, from) that do not target latest.
func (e *Engine) stale(from, latest int) ([]string, error) {
	entries, err := os.ReadDir(e.DiffDir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, de := range entries {
		if de.IsDir() {
			continue
		}
		p, f, to, ok := ParseFileName(de.Name())
		if !ok || p != e.Platform || f != from || to == latest {
			continue
		}
		out = append(out, filepath.Join(e.DiffDir, de.Name()))
	}
	return out, nil
}

// walk overlays the manifests of versions from+1..latest in ascending order.
// Numbers without a directory are gaps and are skipped.
func (e *Engine) walk(from, latest int) (*union, error) {
	u := newUnion()
	for v := from + 1; v <= latest; v++ {
		info, err := os.Stat(e.Versions.Path(v))
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				e.Log.Debug().Int("version", v).Msg("version gap skipped")
				continue
			}
			return nil, err
		}
		if !info.IsDir() {
			continue
		}
		l, err := e.manifest(v)
		if err != nil {
			return nil, err
		}
		u.apply(l, v)
	}
	return u, nil
}

// manifest loads (once per Generate) and validates the manifest of version v.
func (e *Engine) manifest(v int) (*manifest.List, error) {
	if l, ok := e.manifests[v]; ok {
		return l, nil
	}
	p := e.Manifest.PathIn(e.Versions.Path(v))
	l, err := loadChecked(p)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, patcherr.Newf(patcherr.KindCorruptManifest, "version %d has no manifest at %s", v, p)
	}
	if e.manifests != nil {
		e.manifests[v] = l
	}
	return l, nil
}

// loadChecked loads a list and validates it. A missing file is (nil, nil).
func loadChecked(p string) (*manifest.List, error) {
	l, err := manifest.Load(p)
	if err != nil || l == nil {
		return l, err
	}
	if err := validate.List(l); err != nil {
		return nil, patcherr.New(patcherr.KindCorruptManifest, fmt.Errorf("%s: %w", p, err))
	}
	return l, nil
}
