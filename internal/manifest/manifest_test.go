package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"res-patcher/internal/patcherr"
)

func writeFile(t *testing.T, p, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func TestBuildWritesSortedManifest(t *testing.T) {
	ws := t.TempDir()
	dir := filepath.Join(ws, "resources", "ios", "2")
	writeFile(t, filepath.Join(dir, "z.bundle"), "zz")
	writeFile(t, filepath.Join(dir, "sub", "a.png"), "a")

	l, err := Build(dir, BuildOptions{Base: ws})
	require.NoError(t, err)
	require.Equal(t, 2, l.Len())
	assert.Equal(t, "a.png", l.List[0].Name)
	assert.Equal(t, "resources/ios/2/sub/a.png", l.List[0].Path)
	assert.Equal(t, "0cc175b9c0f1b6a831c399e269772661", l.List[0].Digest)
	assert.Equal(t, int64(1), l.List[0].Size)

	loaded, err := Load(filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.Equal(t, l.List, loaded.List)
}

func TestEnsureIsIdempotent(t *testing.T) {
	ws := t.TempDir()
	dir := filepath.Join(ws, "1")
	writeFile(t, filepath.Join(dir, "a.png"), "a")
	opts := BuildOptions{Base: ws}

	built, err := Ensure(dir, opts, zerolog.Nop())
	require.NoError(t, err)
	assert.True(t, built)
	first, err := os.ReadFile(opts.PathIn(dir))
	require.NoError(t, err)

	// New files in an already built version are not picked up: the
	// manifest is not recomputed.
	writeFile(t, filepath.Join(dir, "late.png"), "late")
	built, err = Ensure(dir, opts, zerolog.Nop())
	require.NoError(t, err)
	assert.False(t, built)
	second, err := os.ReadFile(opts.PathIn(dir))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestBuildIsDeterministic(t *testing.T) {
	ws := t.TempDir()
	dir := filepath.Join(ws, "1")
	writeFile(t, filepath.Join(dir, "b.png"), "b")
	writeFile(t, filepath.Join(dir, "a.png"), "a")
	opts := BuildOptions{Base: ws}

	_, err := Build(dir, opts)
	require.NoError(t, err)
	first, err := os.ReadFile(opts.PathIn(dir))
	require.NoError(t, err)
	_, err = Build(dir, opts)
	require.NoError(t, err)
	second, err := os.ReadFile(opts.PathIn(dir))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestBuildRejectsDuplicateNames(t *testing.T) {
	ws := t.TempDir()
	dir := filepath.Join(ws, "1")
	writeFile(t, filepath.Join(dir, "x", "a.png"), "1")
	writeFile(t, filepath.Join(dir, "y", "a.png"), "2")

	_, err := Build(dir, BuildOptions{Base: ws})
	require.Error(t, err)
	assert.True(t, patcherr.Is(err, patcherr.KindDuplicateResource))
	assert.False(t, Exists(filepath.Join(dir, FileName)), "no partial manifest")
}

func TestBuildUnreadableWritesNothing(t *testing.T) {
	ws := t.TempDir()
	dir := filepath.Join(ws, "resources", "ios", "1")
	writeFile(t, filepath.Join(dir, "a.png"), "a")
	require.NoError(t, os.Symlink(filepath.Join(dir, "gone.png"), filepath.Join(dir, "b.png")))

	_, err := Build(dir, BuildOptions{Base: ws, FollowSymlinks: true})
	require.Error(t, err)
	assert.True(t, patcherr.Is(err, patcherr.KindUnreadableResource))
	assert.NoFileExists(t, filepath.Join(dir, FileName))
}

func TestLoadMissingAndCorrupt(t *testing.T) {
	dir := t.TempDir()
	l, err := Load(filepath.Join(dir, "none.json"))
	require.NoError(t, err)
	assert.Nil(t, l)

	bad := filepath.Join(dir, "bad.json")
	writeFile(t, bad, "{\"list\": [")
	_, err = Load(bad)
	assert.True(t, patcherr.Is(err, patcherr.KindCorruptManifest))

	nolist := filepath.Join(dir, "nolist.json")
	writeFile(t, nolist, "{}")
	_, err = Load(nolist)
	assert.True(t, patcherr.Is(err, patcherr.KindCorruptManifest))
}

func TestSaveEmptyListWritesArray(t *testing.T) {
	p := filepath.Join(t.TempDir(), "diff.json")
	require.NoError(t, Save(p, &List{}))
	b, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"list": []}`, string(b))
}
