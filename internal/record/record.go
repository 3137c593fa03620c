// Package record updates the per-platform version record that tells clients
// which resource version to fetch and which is the oldest still patched.
//
// The record is an arbitrary JSON object; only resVersion and minResVersion
// are ever rewritten, every other field is carried over value for value
// (whitespace is compacted and keys come out sorted).
package record

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"res-patcher/internal/atomicfile"
	"res-patcher/internal/patcherr"
	"res-patcher/internal/platform"
)

const (
	ResVersionKey    = "resVersion"
	MinResVersionKey = "minResVersion"
	// DefaultName is the record file prefix: <dir>/version.<platform>.
	DefaultName = "version"
)

// Path returns <dir>/<name>.<platform>.
func Path(dir, name string, p platform.Platform) string {
	if name == "" {
		name = DefaultName
	}
	return filepath.Join(dir, name+"."+p.Name())
}

// Record holds the two fields the patcher manages.
// A field absent from the file is reported as -1.
type Record struct {
	ResVersion    int
	MinResVersion int
}

func read(path string) (map[string]json.RawMessage, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, patcherr.New(patcherr.KindMissingVersionRecord, fmt.Errorf("version record %s: %w", path, err))
		}
		return nil, err
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(b, &obj); err != nil {
		return nil, fmt.Errorf("decode version record %s: %w", path, err)
	}
	if obj == nil {
		return nil, fmt.Errorf("decode version record %s: not a JSON object", path)
	}
	return obj, nil
}

// versionValue accepts both numbers and numeric strings; older tools wrote
// the version as a string.
func versionValue(raw json.RawMessage) (int, error) {
	s := strings.TrimSpace(string(raw))
	if unq, err := strconv.Unquote(s); err == nil {
		s = unq
	}
	return strconv.Atoi(s)
}

// Read returns the managed fields of the record at path.
func Read(path string) (Record, error) {
	obj, err := read(path)
	if err != nil {
		return Record{}, err
	}
	rec := Record{ResVersion: -1, MinResVersion: -1}
	if raw, ok := obj[ResVersionKey]; ok {
		if rec.ResVersion, err = versionValue(raw); err != nil {
			return Record{}, fmt.Errorf("%s: %s: %w", path, ResVersionKey, err)
		}
	}
	if raw, ok := obj[MinResVersionKey]; ok {
		if rec.MinResVersion, err = versionValue(raw); err != nil {
			return Record{}, fmt.Errorf("%s: %s: %w", path, MinResVersionKey, err)
		}
	}
	return rec, nil
}

// Update sets resVersion to version and, when raiseMin is set, minResVersion
// too. A missing record fails with KindMissingVersionRecord and nothing is
// created.
func Update(path string, version int, raiseMin bool) error {
	obj, err := read(path)
	if err != nil {
		return err
	}
	val := json.RawMessage(strconv.Itoa(version))
	obj[ResVersionKey] = val
	if raiseMin {
		obj[MinResVersionKey] = val
	}
	return atomicfile.Write(path, atomicfile.PermOf(path, 0o644), func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		return enc.Encode(obj)
	})
}
