// Package changelog renders what changed between two resource lists (for
// example a superseded diff file and its replacement) as a classic unified
// diff, using github.com/pmezard/go-difflib/difflib.
//
// Each entry becomes one line "<name> <digest> <size> <path>", sorted by name,
// so a replaced resource shows up as a -/+ pair and a new one as a + line.
package changelog

import (
	"fmt"
	"sort"
	"strings"

	difflib "github.com/pmezard/go-difflib/difflib"

	"res-patcher/internal/manifest"
)

// Options controls changelog rendering.
type Options struct {
	// Context is the number of unchanged lines around each hunk.
	// If 0, default to 2.
	Context int
	// MaxEntries is a guardrail on input size (old+new entries). When
	// exceeded a placeholder is returned and oversize=true. 0 means no limit.
	MaxEntries int
}

// Lines renders a list as sorted changelog lines, each ending in "\n".
func Lines(l *manifest.List) []string {
	if l == nil {
		return []string{}
	}
	out := make([]string, 0, len(l.List))
	for _, e := range l.List {
		out = append(out, fmt.Sprintf("%s %s %d %s\n", e.Name, e.Digest, e.Size, e.Path))
	}
	sort.Strings(out)
	return out
}

// Unified produces a unified diff for a↦b. It returns "" when both lists
// render identically, and reports oversize when the guardrail kicked in.
func Unified(aName, bName string, a, b *manifest.List, opt Options) (body string, oversize bool) {
	if opt.MaxEntries > 0 && a.Len()+b.Len() > opt.MaxEntries {
		return omitted(aName, bName), true
	}
	ctx := opt.Context
	if ctx <= 0 {
		ctx = 2
	}
	u := difflib.UnifiedDiff{
		A:        Lines(a),
		B:        Lines(b),
		FromFile: aName,
		ToFile:   bName,
		Context:  ctx,
	}
	s, err := difflib.GetUnifiedDiffString(u)
	if err != nil {
		return omitted(aName, bName), false
	}
	return s, false
}

// Summary counts added and replaced names between a and b. Names only in a
// are counted as dropped; a cumulative diff file never drops names, so a
// non-zero value points at a broken predecessor.
func Summary(a, b *manifest.List) (added, replaced, dropped int) {
	before := a.ByName()
	after := b.ByName()
	for name, e := range after {
		prev, ok := before[name]
		switch {
		case !ok:
			added++
		case prev != e:
			replaced++
		}
	}
	for name := range before {
		if _, ok := after[name]; !ok {
			dropped++
		}
	}
	return added, replaced, dropped
}

func omitted(aName, bName string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "--- %s\n+++ %s\n@@\n# changelog omitted (oversize)\n", aName, bName)
	return sb.String()
}
