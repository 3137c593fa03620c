package changelog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"res-patcher/internal/manifest"
)

const (
	d1 = "0cc175b9c0f1b6a831c399e269772661"
	d2 = "92eb5ffee6ae2fec3ad71c777531578f"
	d3 = "4a8a08f09d37b73795649038408b5f33"
)

func list(es ...manifest.Entry) *manifest.List { return &manifest.List{List: es} }

func TestUnifiedShowsReplacedAndAdded(t *testing.T) {
	prev := list(
		manifest.Entry{Name: "a.png", Path: "r/1/a.png", Size: 1, Digest: d1},
		manifest.Entry{Name: "b.png", Path: "r/2/b.png", Size: 1, Digest: d2},
	)
	next := list(
		manifest.Entry{Name: "a.png", Path: "r/3/a.png", Size: 1, Digest: d3},
		manifest.Entry{Name: "b.png", Path: "r/2/b.png", Size: 1, Digest: d2},
		manifest.Entry{Name: "c.png", Path: "r/3/c.png", Size: 1, Digest: d1},
	)
	body, oversize := Unified("diff_android_1_2.json", "diff_android_1_3.json", prev, next, Options{})
	assert.False(t, oversize)
	assert.True(t, strings.HasPrefix(body, "--- diff_android_1_2.json\n+++ diff_android_1_3.json\n"), body)
	assert.Contains(t, body, "-a.png "+d1+" 1 r/1/a.png\n")
	assert.Contains(t, body, "+a.png "+d3+" 1 r/3/a.png\n")
	assert.Contains(t, body, "+c.png "+d1+" 1 r/3/c.png\n")
	assert.Contains(t, body, " b.png ")

	added, replaced, dropped := Summary(prev, next)
	assert.Equal(t, 1, added)
	assert.Equal(t, 1, replaced)
	assert.Equal(t, 0, dropped)
}

func TestUnifiedIdentical(t *testing.T) {
	l := list(manifest.Entry{Name: "a.png", Path: "r/1/a.png", Size: 1, Digest: d1})
	body, _ := Unified("a", "b", l, l, Options{})
	assert.Equal(t, "", body)
}

func TestUnifiedOversize(t *testing.T) {
	l := list(manifest.Entry{Name: "a.png"}, manifest.Entry{Name: "b.png"})
	body, oversize := Unified("a", "b", l, nil, Options{MaxEntries: 1})
	assert.True(t, oversize)
	assert.Contains(t, body, "omitted")
}
