package versions

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"res-patcher/internal/manifest"
	"res-patcher/internal/patcherr"
)

func newDir(t *testing.T) (Dir, string) {
	t.Helper()
	ws := t.TempDir()
	root := filepath.Join(ws, "resources", "android")
	return Dir{
		Root:  root,
		Build: manifest.BuildOptions{Base: ws},
		Log:   zerolog.Nop(),
	}, ws
}

func mkdir(t *testing.T, p string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(p, 0o755))
}

func writeFile(t *testing.T, p, content string) {
	t.Helper()
	mkdir(t, filepath.Dir(p))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func TestLatestIgnoresNonNumeric(t *testing.T) {
	d, _ := newDir(t)
	for _, n := range []string{"1", "2", "10", "temp", "-3", "v4"} {
		mkdir(t, filepath.Join(d.Root, n))
	}
	writeFile(t, filepath.Join(d.Root, "99"), "a file, not a version")

	vs, err := d.List()
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 10}, vs)

	latest, err := d.Latest()
	require.NoError(t, err)
	assert.Equal(t, 10, latest)
}

func TestListRejectsLeadingZeros(t *testing.T) {
	d, _ := newDir(t)
	mkdir(t, filepath.Join(d.Root, "0"))
	mkdir(t, filepath.Join(d.Root, "007"))

	_, err := d.List()
	require.Error(t, err)
	assert.True(t, patcherr.Is(err, patcherr.KindConfig))
	assert.Contains(t, err.Error(), `rename it to "7"`)

	_, err = d.EnsureManifests()
	assert.True(t, patcherr.Is(err, patcherr.KindConfig))
}

func TestLatestMissingRoot(t *testing.T) {
	d, _ := newDir(t)
	latest, err := d.Latest()
	require.NoError(t, err)
	assert.Equal(t, 0, latest)

	err = d.CheckRoot()
	assert.True(t, patcherr.Is(err, patcherr.KindMissingRoot))
}

func TestPromoteStaging(t *testing.T) {
	d, _ := newDir(t)
	mkdir(t, filepath.Join(d.Root, "1"))
	mkdir(t, filepath.Join(d.Root, "2"))
	writeFile(t, filepath.Join(d.Root, DefaultStaging, "c.png"), "c")

	latest, promoted, err := d.Promote()
	require.NoError(t, err)
	assert.True(t, promoted)
	assert.Equal(t, 3, latest)

	_, err = os.Stat(filepath.Join(d.Root, DefaultStaging))
	assert.True(t, os.IsNotExist(err))

	l, err := manifest.Load(filepath.Join(d.Path(3), manifest.FileName))
	require.NoError(t, err)
	require.Equal(t, 1, l.Len())
	assert.Equal(t, "resources/android/3/c.png", l.List[0].Path)

	again, err := d.Latest()
	require.NoError(t, err)
	assert.Equal(t, 3, again)
}

func TestPromoteWithoutStaging(t *testing.T) {
	d, _ := newDir(t)
	mkdir(t, filepath.Join(d.Root, "4"))

	latest, promoted, err := d.Promote()
	require.NoError(t, err)
	assert.False(t, promoted)
	assert.Equal(t, 4, latest)
	assert.False(t, manifest.Exists(filepath.Join(d.Path(4), manifest.FileName)))
}

func TestPromoteIntoEmptyRoot(t *testing.T) {
	d, _ := newDir(t)
	d.Staging = "incoming"
	writeFile(t, filepath.Join(d.Root, "incoming", "a.png"), "a")

	latest, promoted, err := d.Promote()
	require.NoError(t, err)
	assert.True(t, promoted)
	assert.Equal(t, 1, latest)
}

func TestEnsureManifests(t *testing.T) {
	d, _ := newDir(t)
	writeFile(t, filepath.Join(d.Root, "1", "a.png"), "a")
	writeFile(t, filepath.Join(d.Root, "2", "b.png"), "b")
	_, err := manifest.Build(d.Path(1), d.Build)
	require.NoError(t, err)

	built, err := d.EnsureManifests()
	require.NoError(t, err)
	assert.Equal(t, []int{2}, built)

	built, err = d.EnsureManifests()
	require.NoError(t, err)
	assert.Empty(t, built)
}
