// Package atomicfile replaces files through a temporary sibling and a rename,
// so readers see either the old content or the new one, never a mix.
package atomicfile

import (
	"io"
	"os"
	"path/filepath"
)

// Write creates the parent directory of path if needed, lets fill write the
// new content to a temporary sibling, syncs it and renames it over path.
// On any error the temporary file is removed and path is untouched.
func Write(path string, perm os.FileMode, fill func(w io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, f, err := createTempFile(dir, filepath.Base(path), perm)
	if err != nil {
		return err
	}
	if err := fill(f); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp) // best-effort cleanup
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// PermOf returns the permission bits of the file at path, or def when it
// cannot be stat'ed.
func PermOf(path string, def os.FileMode) os.FileMode {
	info, err := os.Stat(path)
	if err != nil {
		return def
	}
	return info.Mode().Perm()
}

// createTempFile creates ".tmp-<base>-*" in dir and returns its path and handle.
// Caller is responsible for closing it.
func createTempFile(dir, base string, perm os.FileMode) (string, *os.File, error) {
	f, err := os.CreateTemp(dir, ".tmp-"+base+"-")
	if err != nil {
		return "", nil, err
	}
	// CreateTemp uses 0600.
	if err := f.Chmod(perm); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", nil, err
	}
	return f.Name(), f, nil
}
