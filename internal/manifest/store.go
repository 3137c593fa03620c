package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"res-patcher/internal/atomicfile"
	"res-patcher/internal/patcherr"
)

// Load reads a list from path.
// If the file does not exist, it returns (nil, nil) so callers can treat it as
// "not built yet". A file that exists but cannot be decoded is reported as
// KindCorruptManifest; it is never replaced by an empty list.
func Load(path string) (*List, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var l List
	dec := json.NewDecoder(bytes.NewReader(b))
	if err := dec.Decode(&l); err != nil {
		return nil, patcherr.New(patcherr.KindCorruptManifest, fmt.Errorf("decode %s: %w", path, err))
	}
	if l.List == nil {
		return nil, patcherr.Newf(patcherr.KindCorruptManifest, "decode %s: missing \"list\" field", path)
	}
	return &l, nil
}

// Exists reports whether a regular file is present at path.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// Save writes l atomically to path, sorted by name, so readers never observe
// a partially-written list.
func Save(path string, l *List) error {
	out := List{List: append([]Entry{}, l.List...)}
	out.Sort()

	return atomicfile.Write(path, 0o644, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	})
}
