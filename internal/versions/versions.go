// Package versions manages the integer-numbered version directories of one
// platform's resource root and promotes the staging directory into the next
// version.
package versions

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/rs/zerolog"

	"res-patcher/internal/manifest"
	"res-patcher/internal/patcherr"
)

// DefaultStaging is the directory a build drops new resources into.
const DefaultStaging = "temp"

// Dir manages the version directories below Root.
type Dir struct {
	Root    string
	Staging string
	Build   manifest.BuildOptions
	Log     zerolog.Logger
}

// parseVersion accepts only plain decimal digits, so "temp", "-1" or "+2" are
// not versions. A digit-only name that is not the canonical spelling of its
// number ("007") is an error, since Path would resolve it elsewhere.
func parseVersion(name string) (int, bool, error) {
	if name == "" {
		return 0, false, nil
	}
	for i := 0; i < len(name); i++ {
		if name[i] < '0' || name[i] > '9' {
			return 0, false, nil
		}
	}
	v, err := strconv.Atoi(name)
	if err != nil {
		return 0, false, nil
	}
	if canon := strconv.Itoa(v); canon != name {
		return 0, false, patcherr.Newf(patcherr.KindConfig, "version directory %q has leading zeros, rename it to %q", name, canon)
	}
	return v, true, nil
}

// CheckRoot fails with KindMissingRoot when the resource root is absent.
func (d Dir) CheckRoot() error {
	info, err := os.Stat(d.Root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return patcherr.New(patcherr.KindMissingRoot, fmt.Errorf("resource root %s: %w", d.Root, err))
		}
		return err
	}
	if !info.IsDir() {
		return patcherr.Newf(patcherr.KindMissingRoot, "resource root %s is not a directory", d.Root)
	}
	return nil
}

// List returns the version numbers present below Root in ascending order.
// An absent root yields an empty list.
func (d Dir) List() ([]int, error) {
	entries, err := os.ReadDir(d.Root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var out []int
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		v, ok, err := parseVersion(e.Name())
		if err != nil {
			return nil, fmt.Errorf("%s: %w", d.Root, err)
		}
		if ok {
			out = append(out, v)
		}
	}
	sort.Ints(out)
	return out, nil
}

// Latest returns the highest version number, or 0 when there is none.
func (d Dir) Latest() (int, error) {
	vs, err := d.List()
	if err != nil {
		return 0, err
	}
	if len(vs) == 0 {
		if _, statErr := os.Stat(d.Root); errors.Is(statErr, os.ErrNotExist) {
			d.Log.Warn().Str("root", d.Root).Msg("resource root does not exist")
		}
		return 0, nil
	}
	return vs[len(vs)-1], nil
}

// Path returns the directory of version v.
func (d Dir) Path(v int) string {
	return filepath.Join(d.Root, strconv.Itoa(v))
}

func (d Dir) stagingPath() string {
	name := d.Staging
	if name == "" {
		name = DefaultStaging
	}
	return filepath.Join(d.Root, name)
}

// Promote renames the staging directory to latest+1 and builds its manifest.
// It returns the resulting latest version and whether a promotion happened.
// Without a staging directory the latest version is unchanged.
func (d Dir) Promote() (int, bool, error) {
	latest, err := d.Latest()
	if err != nil {
		return 0, false, err
	}
	staging := d.stagingPath()
	info, err := os.Stat(staging)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			d.Log.Debug().Str("staging", staging).Int("latest", latest).Msg("no staging directory")
			return latest, false, nil
		}
		return 0, false, err
	}
	if !info.IsDir() {
		return 0, false, fmt.Errorf("staging %s is not a directory", staging)
	}
	next := latest + 1
	target := d.Path(next)
	if err := os.Rename(staging, target); err != nil {
		return 0, false, fmt.Errorf("promote %s: %w", staging, err)
	}
	d.Log.Info().Str("from", staging).Int("version", next).Msg("staging promoted")
	if _, err := manifest.Build(target, d.Build); err != nil {
		return next, true, fmt.Errorf("manifest for version %d: %w", next, err)
	}
	return next, true, nil
}

// EnsureManifests builds the manifest of every version directory that lacks
// one, in ascending order, and returns the versions that were built.
func (d Dir) EnsureManifests() ([]int, error) {
	vs, err := d.List()
	if err != nil {
		return nil, err
	}
	var built []int
	for _, v := range vs {
		ok, err := manifest.Ensure(d.Path(v), d.Build, d.Log)
		if err != nil {
			return built, fmt.Errorf("manifest for version %d: %w", v, err)
		}
		if ok {
			built = append(built, v)
		}
	}
	return built, nil
}
