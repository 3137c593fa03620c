package manifest

import (
	"path/filepath"

	"github.com/rs/zerolog"

	"res-patcher/internal/patcherr"
	"res-patcher/internal/walkwalk"
)

// BuildOptions controls how a version directory is scanned.
type BuildOptions struct {
	// Base is the workspace root; entry paths are relative to it.
	Base string
	// FileName overrides the manifest file name (default FileName).
	FileName string
	// Exclude holds doublestar patterns relative to the version directory.
	// Nil means walkwalk.DefaultExclude.
	Exclude []string
	// FollowSymlinks includes symlinked regular files.
	FollowSymlinks bool
}

func (o BuildOptions) fileName() string {
	if o.FileName == "" {
		return FileName
	}
	return o.FileName
}

// PathIn returns the manifest path of a version directory.
func (o BuildOptions) PathIn(dir string) string {
	return filepath.Join(dir, o.fileName())
}

// Scan lists the resources of dir without persisting anything.
// Two files sharing a base name are rejected since names key the list.
func Scan(dir string, opts BuildOptions) (*List, error) {
	exclude := opts.Exclude
	if exclude == nil {
		exclude = walkwalk.DefaultExclude
	}
	files, err := walkwalk.CollectFiles(dir, walkwalk.Options{
		Base:           opts.Base,
		Exclude:        exclude,
		Skip:           []string{opts.fileName()},
		FollowSymlinks: opts.FollowSymlinks,
	})
	if err != nil {
		return nil, err
	}
	l := &List{List: make([]Entry, 0, len(files))}
	seen := make(map[string]string, len(files))
	for _, f := range files {
		if prev, dup := seen[f.Name]; dup {
			return nil, patcherr.Newf(patcherr.KindDuplicateResource,
				"%s: name %q used by both %s and %s", dir, f.Name, prev, f.RelPath)
		}
		seen[f.Name] = f.RelPath
		l.List = append(l.List, Entry{
			Name:   f.Name,
			Path:   f.RelPath,
			Size:   f.Size,
			Digest: f.MD5Hex,
		})
	}
	l.Sort()
	return l, nil
}

// Build scans dir and persists its manifest, replacing any existing one.
// Nothing is written when the scan fails.
func Build(dir string, opts BuildOptions) (*List, error) {
	l, err := Scan(dir, opts)
	if err != nil {
		return nil, err
	}
	if err := Save(opts.PathIn(dir), l); err != nil {
		return nil, err
	}
	return l, nil
}

// Ensure builds the manifest of dir unless one already exists. Version
// directories are immutable once built, so an existing manifest is never
// recomputed. It reports whether a new manifest was written.
func Ensure(dir string, opts BuildOptions, log zerolog.Logger) (bool, error) {
	path := opts.PathIn(dir)
	if Exists(path) {
		log.Debug().Str("manifest", path).Msg("manifest present, skipping scan")
		return false, nil
	}
	l, err := Build(dir, opts)
	if err != nil {
		return false, err
	}
	log.Info().Str("manifest", path).Int("entries", l.Len()).Msg("manifest built")
	return true, nil
}
