// Package walkwalk provides a deterministic, filterable filesystem walker
// used by the manifest builder to gather resource files of a version directory.
package walkwalk

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"res-patcher/internal/patcherr"
)

// DefaultExclude matches files that never ship to clients: metadata (including
// manifests themselves), executables and filesystem droppings.
var DefaultExclude = []string{"**/*.json", "**/*.exe", "**/.DS_Store", "**/.DS_store"}

// FileInfo is a minimal, deterministic descriptor of a collected file.
type FileInfo struct {
	Name    string // base name
	RelPath string // path relative to the workspace root, forward slashes
	Size    int64  // size in bytes
	MD5Hex  string // lowercase hex md5 of the full contents
	DirRel  string // path relative to the scanned directory, forward slashes
}

// Options controls a walk.
type Options struct {
	// Base is the directory RelPath is computed against. Empty means dir itself.
	Base string
	// Exclude holds doublestar patterns matched against the path relative to
	// the scanned directory.
	Exclude []string
	// Skip lists exact base names that are always excluded (e.g. the manifest).
	Skip []string
	// FollowSymlinks includes symlinked regular files. Symlinked directories
	// are never descended into.
	FollowSymlinks bool
}

type walkState struct {
	opts  Options
	root  string
	base  string
	skip  map[string]struct{}
	files []FileInfo
}

// ValidatePatterns checks exclusion patterns for syntax errors.
func ValidatePatterns(patterns []string) error {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid exclude pattern %q", p)
		}
	}
	return nil
}

// CollectFiles walks dir and returns every included regular file, sorted by
// RelPath. Unlike a best-effort scan, any file that cannot be read fails the
// whole walk: a partial listing is never returned.
func CollectFiles(dir string, opts Options) ([]FileInfo, error) {
	if err := ValidatePatterns(opts.Exclude); err != nil {
		return nil, patcherr.New(patcherr.KindConfig, err)
	}
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	base := root
	if opts.Base != "" {
		if base, err = filepath.Abs(opts.Base); err != nil {
			return nil, err
		}
	}
	state := &walkState{opts: opts, root: root, base: base, skip: make(map[string]struct{}, len(opts.Skip))}
	for _, s := range opts.Skip {
		state.skip[s] = struct{}{}
	}
	if err := filepath.WalkDir(root, state.visit); err != nil {
		return nil, err
	}
	sort.Slice(state.files, func(i, j int) bool { return state.files[i].RelPath < state.files[j].RelPath })
	return state.files, nil
}

func (ws *walkState) visit(p string, d fs.DirEntry, err error) error {
	if err != nil {
		return patcherr.New(patcherr.KindUnreadableResource, fmt.Errorf("walk %s: %w", p, err))
	}
	if p == ws.root {
		return nil
	}
	rel, ok := relative(ws.root, p)
	if !ok {
		return nil
	}
	if d.IsDir() {
		return nil
	}
	if ws.shouldSkip(rel) {
		return nil
	}
	return ws.handleFile(p, rel, d)
}

func relative(root, p string) (string, bool) {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if strings.HasPrefix(rel, "../") || rel == ".." {
		return "", false
	}
	return rel, true
}

func (ws *walkState) shouldSkip(rel string) bool {
	if _, bad := ws.skip[path.Base(rel)]; bad {
		return true
	}
	for _, pat := range ws.opts.Exclude {
		if ok, _ := doublestar.Match(pat, rel); ok {
			return true
		}
	}
	return false
}

func (ws *walkState) handleFile(p, rel string, d fs.DirEntry) error {
	if isSymlink(d) && !ws.opts.FollowSymlinks {
		return nil
	}
	info, err := os.Stat(p)
	if err != nil {
		return patcherr.New(patcherr.KindUnreadableResource, fmt.Errorf("stat %s: %w", rel, err))
	}
	if !info.Mode().IsRegular() {
		return nil
	}
	sumHex, size, err := md5File(p)
	if err != nil {
		return patcherr.New(patcherr.KindUnreadableResource, fmt.Errorf("hash %s: %w", rel, err))
	}
	relBase, ok := relative(ws.base, p)
	if !ok {
		relBase = filepath.ToSlash(p)
	}
	ws.files = append(ws.files, FileInfo{
		Name:    d.Name(),
		RelPath: relBase,
		Size:    size,
		MD5Hex:  sumHex,
		DirRel:  rel,
	})
	return nil
}

// isSymlink reports whether the DirEntry is a symlink.
func isSymlink(d fs.DirEntry) bool {
	return d.Type()&fs.ModeSymlink != 0
}

// md5File streams the file at path through md5 and returns the hex digest and
// the number of bytes hashed.
func md5File(p string) (string, int64, error) {
	f, err := os.Open(p)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()
	h := md5.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}
