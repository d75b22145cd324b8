package safeio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeFSAllowsAbsoluteUnderRoot(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(p, []byte("hello"), 0o644))

	fs, err := NewSafeFS(dir)
	require.NoError(t, err)

	b, err := fs.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(b))
}

func TestSafeFSRejectsTraversal(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewSafeFS(filepath.Join(dir))
	require.NoError(t, err)

	_, err = fs.ReadFile("../etc/passwd")
	assert.True(t, errors.Is(err, ErrOutsideRoot), "got %v", err)

	err = fs.WriteFile(filepath.Join(filepath.Dir(fs.Root()), "escape.txt"), []byte("x"))
	assert.True(t, errors.Is(err, ErrOutsideRoot), "got %v", err)
}

func TestSafeFSWriteCreatesParents(t *testing.T) {
	fs, err := NewSafeFS(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, fs.WriteFile("docs/components/Button.md", nil))
	assert.True(t, fs.Exists("docs/components"))

	size, err := fs.Size("docs/components/Button.md")
	require.NoError(t, err)
	assert.Zero(t, size)

	require.NoError(t, fs.WriteFile("docs/components/Button.md", []byte("# Button")))
	size, err = fs.Size("docs/components/Button.md")
	require.NoError(t, err)
	assert.EqualValues(t, 8, size)
}

func TestSafeFSReadDirSplitsAndSorts(t *testing.T) {
	fs, err := NewSafeFS(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, fs.MkdirAll("src/zeta"))
	require.NoError(t, fs.MkdirAll("src/alpha"))
	require.NoError(t, fs.WriteFile("src/b.ts", nil))
	require.NoError(t, fs.WriteFile("src/a.vue", nil))

	dirs, files, err := fs.ReadDir("src")
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "zeta"}, dirs)
	assert.Equal(t, []string{"a.vue", "b.ts"}, files)
}

func TestSafeFSExistsOutsideRootIsFalse(t *testing.T) {
	fs, err := NewSafeFS(t.TempDir())
	require.NoError(t, err)
	assert.False(t, fs.Exists("../"))
	assert.False(t, fs.Exists("missing.txt"))
}
