package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"componentgen/internal/pathmap"
	"componentgen/internal/safeio"
	"componentgen/internal/scan"
)

func build(t *testing.T, files map[string]string) []Entry {
	t.Helper()
	root := t.TempDir()
	for rel, body := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	}
	fsys, err := safeio.NewSafeFS(root)
	require.NoError(t, err)
	m := pathmap.NewMapper(filepath.Join(fsys.Root(), "src"), "Q")
	entries, err := Build(context.Background(), scan.NewWalker(fsys, scan.Options{}), fsys, m)
	require.NoError(t, err)
	return entries
}

func TestBuild(t *testing.T) {
	entries := build(t, map[string]string{
		"src/components/basic/QButton.vue": "x",
		"src/components/basic/QAvatar.vue": "x",
		"src/utils/useHeap.ts":             "x",
		"src/types/vite-env.d.ts":          "x",
		"src/style/common.css":             "x",
		"src/main.ts":                      "x",
		"docs/components/basic/QButton.md": "# Button",
		"docs/utils/useHeap.md":            "",
	})

	require.Len(t, entries, 4)
	assert.Equal(t, Entry{
		Category:    "components/basic",
		Name:        "QAvatar",
		DisplayName: "Avatar",
		SourcePath:  "/src/components/basic/QAvatar.vue",
		DocPath:     "/docs/components/basic/QAvatar.md",
		DisplayPath: "/display/components/basic/QAvatar.vue",
	}, entries[0])
	assert.Equal(t, "QButton", entries[1].Name)
	assert.True(t, entries[1].HasDoc)

	assert.Equal(t, OtherCategory, entries[2].Category)
	assert.Equal(t, "main", entries[2].DisplayName)

	heap := entries[3]
	assert.Equal(t, "utils", heap.Category)
	assert.Equal(t, "/display/utils/useHeap.vue", heap.DisplayPath)
	assert.False(t, heap.HasDoc, "empty doc is still pending")
}

func TestSidebar(t *testing.T) {
	entries := []Entry{
		{Category: "utils", Name: "useHeap", DocPath: "/docs/utils/useHeap.md", HasDoc: true},
		{Category: "components/basic", Name: "QButton", DocPath: "/docs/components/basic/QButton.md", HasDoc: true},
		{Category: "components/basic", Name: "QAvatar", DocPath: "/docs/components/basic/QAvatar.md", HasDoc: true},
		{Category: "events", Name: "useDrag", DocPath: "/docs/events/useDrag.md"},
	}
	got := Sidebar(entries, map[string]string{"utils": "Utilities"})
	assert.Equal(t, []Group{
		{Text: "components/basic", Items: []Item{
			{Text: "QAvatar", Link: "/components/basic/QAvatar"},
			{Text: "QButton", Link: "/components/basic/QButton"},
		}},
		{Text: "Utilities", Items: []Item{{Text: "useHeap", Link: "/utils/useHeap"}}},
	}, got)
}
