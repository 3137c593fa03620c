// Package manifest defines resource entries and the manifest/diff-file record
// that lists them, together with its on-disk store and the builder that scans
// a version directory.
package manifest

import (
	"sort"

	"github.com/rs/zerolog"
)

// FileName is the manifest file kept inside every version directory.
const FileName = "resfilelist.json"

// Entry identifies one resource file revision.
// Name is the unique key within a list, Path is forward-slash separated and
// relative to the workspace root, Digest is the lowercase hex md5 of the content.
type Entry struct {
	Name   string `json:"name"`
	Path   string `json:"path"`
	Size   int64  `json:"size"`
	Digest string `json:"digest"`
}

// MarshalZerologObject lets entries be logged as structured objects.
func (e Entry) MarshalZerologObject(ev *zerolog.Event) {
	ev.Str("name", e.Name).Str("path", e.Path).Int64("size", e.Size).Str("digest", e.Digest)
}

// List is the persisted shape shared by manifests and diff files.
type List struct {
	List []Entry `json:"list"`
}

// Sort orders entries by name, then path, for deterministic output.
func (l *List) Sort() {
	sort.Slice(l.List, func(i, j int) bool {
		if l.List[i].Name == l.List[j].Name {
			return l.List[i].Path < l.List[j].Path
		}
		return l.List[i].Name < l.List[j].Name
	})
}

// ByName indexes the entries by name. Later duplicates overwrite earlier ones.
func (l *List) ByName() map[string]Entry {
	if l == nil {
		return map[string]Entry{}
	}
	m := make(map[string]Entry, len(l.List))
	for _, e := range l.List {
		m[e.Name] = e
	}
	return m
}

// Len returns the number of entries; a nil list is empty.
func (l *List) Len() int {
	if l == nil {
		return 0
	}
	return len(l.List)
}
