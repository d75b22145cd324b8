package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"componentgen/internal/logx"
	"componentgen/internal/safeio"
	"componentgen/internal/scan"
)

func TestWatcher_DebouncesMatchingChanges(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "components"), 0o755))
	fsys, err := safeio.NewSafeFS(root)
	require.NoError(t, err)

	got := make(chan []string, 4)
	cfg := Config{
		Root:     fsys.Root(),
		Patterns: []string{"**/*.vue"},
		Debounce: 200 * time.Millisecond,
		OnChange: func(ctx context.Context, changed []string) error {
			got <- changed
			return nil
		},
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w, err := New(ctx, cfg, scan.NewWalker(fsys, scan.Options{}), logx.Discard())
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	dir := filepath.Join(fsys.Root(), "components")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "A.vue"), []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "B.vue"), []byte("b"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "style.css"), []byte("c"), 0o644))

	select {
	case changed := <-got:
		assert.Equal(t, []string{"components/A.vue", "components/B.vue"}, changed)
	case <-time.After(3 * time.Second):
		t.Fatal("no callback")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return")
	}
	assert.Error(t, w.Run(context.Background()), "second Run is rejected")
}

func TestNew_InvalidPattern(t *testing.T) {
	fsys, err := safeio.NewSafeFS(t.TempDir())
	require.NoError(t, err)
	_, err = New(context.Background(), Config{Root: fsys.Root(), Patterns: []string{"[abc"}},
		scan.NewWalker(fsys, scan.Options{}), logx.Discard())
	assert.Error(t, err)
}
