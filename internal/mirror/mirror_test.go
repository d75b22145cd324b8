package mirror

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"componentgen/internal/pathmap"
	"componentgen/internal/safeio"
	"componentgen/internal/scan"
)

// countingFS records every mutation that reaches the filesystem.
type countingFS struct {
	safeio.FS
	writes []string
}

func (c *countingFS) MkdirAll(path string) error {
	c.writes = append(c.writes, "mkdir "+path)
	return c.FS.MkdirAll(path)
}

func (c *countingFS) WriteFile(path string, data []byte) error {
	c.writes = append(c.writes, "write "+path)
	return c.FS.WriteFile(path, data)
}

func write(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func setup(t *testing.T) (string, *countingFS, *Mirror, *pathmap.Mapper) {
	t.Helper()
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	write(t, root, "src/index.ts", "export {}")
	write(t, root, "src/components/Button.vue", "<template/>")
	write(t, root, "src/components/Icon.vue", "<template/>")
	write(t, root, "src/utils/useHeap.ts", "export const x = 1")

	base, err := safeio.NewSafeFS(root)
	require.NoError(t, err)
	fs := &countingFS{FS: base}
	m := New(fs, scan.NewWalker(base, scan.Options{}), nil)
	return root, fs, m, pathmap.NewMapper(filepath.Join(root, "src"), "Q")
}

func TestRun_MirrorsEveryEntry(t *testing.T) {
	root, _, m, mapper := setup(t)

	stats, err := m.Run(context.Background(), mapper.SourceRoot,
		ForTarget(mapper, pathmap.DocTarget), ForTarget(mapper, pathmap.DisplayTarget))
	require.NoError(t, err)

	for _, rel := range []string{"docs/index.md", "docs/components/Button.md", "docs/components/Icon.md", "docs/utils/useHeap.md"} {
		info, err := os.Stat(filepath.Join(root, rel))
		require.NoError(t, err, rel)
		assert.Zero(t, info.Size(), rel)
	}
	for _, rel := range []string{"display/index.vue", "display/components/Button.vue", "display/utils/useHeap.vue"} {
		_, err := os.Stat(filepath.Join(root, rel))
		require.NoError(t, err, rel)
	}
	assert.Equal(t, Stats{DirsCreated: 3, FilesCreated: 4}, *stats["docs"])
	assert.Equal(t, Stats{DirsCreated: 3, FilesCreated: 4}, *stats["display"])
}

func TestRun_IsIdempotent(t *testing.T) {
	_, fs, m, mapper := setup(t)
	doc := ForTarget(mapper, pathmap.DocTarget)

	_, err := m.Run(context.Background(), mapper.SourceRoot, doc)
	require.NoError(t, err)
	first := len(fs.writes)
	require.NotZero(t, first)

	stats, err := m.Run(context.Background(), mapper.SourceRoot, doc)
	require.NoError(t, err)
	assert.Len(t, fs.writes, first, "second run must not write")
	assert.Zero(t, stats["docs"].Writes())
	assert.Equal(t, 7, stats["docs"].Existing)
}

func TestRun_KeepsExistingContent(t *testing.T) {
	root, _, m, mapper := setup(t)
	write(t, root, "docs/components/Button.md", "# Button\n")

	_, err := m.Run(context.Background(), mapper.SourceRoot, ForTarget(mapper, pathmap.DocTarget))
	require.NoError(t, err)

	b, err := os.ReadFile(filepath.Join(root, "docs/components/Button.md"))
	require.NoError(t, err)
	assert.Equal(t, "# Button\n", string(b))
}

func TestPlan_DoesNotWrite(t *testing.T) {
	root, fs, m, mapper := setup(t)
	write(t, root, "docs/components/Button.md", "# Button\n")

	plan, err := m.Plan(context.Background(), mapper.SourceRoot, ForTarget(mapper, pathmap.DocTarget))
	require.NoError(t, err)
	assert.Empty(t, fs.writes)

	var targets []string
	for _, e := range plan.Missing {
		rel, err := filepath.Rel(root, e.Target)
		require.NoError(t, err)
		targets = append(targets, filepath.ToSlash(rel))
	}
	assert.Equal(t, []string{
		"docs/index.md",
		"docs/components/Icon.md",
		"docs/utils",
		"docs/utils/useHeap.md",
	}, targets)

	var buf bytes.Buffer
	require.NoError(t, plan.Render(&buf))
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "docs"), out)
	assert.Contains(t, out, "Icon.md (new)")
	assert.Contains(t, out, "Button.md")
	assert.NotContains(t, out, "Button.md (new)")
}
