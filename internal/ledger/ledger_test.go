package ledger

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileLedger_AppendAndFilter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "runs.jsonl")
	l := NewFile(path)
	ctx := context.Background()

	require.NoError(t, l.Record(ctx, Entry{RunID: "r1", Path: "docs/a.md", Status: StatusGenerated, Bytes: 10}))
	require.NoError(t, l.Record(ctx, Entry{RunID: "r2", Path: "docs/b.md", Status: StatusFailed, Error: "boom"}))
	require.NoError(t, l.Record(ctx, Entry{RunID: "r1", Path: "docs/c.md", Status: StatusSkipped}))

	all, err := l.Entries("")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	r1, err := l.Entries("r1")
	require.NoError(t, err)
	require.Len(t, r1, 2)
	assert.Equal(t, "docs/a.md", r1[0].Path)
	assert.Equal(t, StatusSkipped, r1[1].Status)
	assert.False(t, r1[0].At.IsZero())
}

func TestFileLedger_ConcurrentRecords(t *testing.T) {
	l := NewFile(filepath.Join(t.TempDir(), "runs.jsonl"))
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, l.Record(context.Background(), Entry{RunID: "r", Path: "p", Status: StatusGenerated}))
		}()
	}
	wg.Wait()
	got, err := l.Entries("r")
	require.NoError(t, err)
	assert.Len(t, got, 20)
}

func TestFileLedger_MissingFile(t *testing.T) {
	got, err := NewFile(filepath.Join(t.TempDir(), "none.jsonl")).Entries("")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestOpen(t *testing.T) {
	l, err := Open("", "")
	require.NoError(t, err)
	assert.IsType(t, Nop{}, l)

	l, err = Open("  ", filepath.Join(t.TempDir(), "x.jsonl"))
	require.NoError(t, err)
	assert.IsType(t, &FileLedger{}, l)
}

func TestPostgresLedger(t *testing.T) {
	dsn := os.Getenv("COMPONENTGEN_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("COMPONENTGEN_TEST_PG_DSN not set")
	}
	l, err := NewPostgres(dsn)
	require.NoError(t, err)
	defer l.Close()

	ctx := context.Background()
	run := "test-" + t.Name()
	require.NoError(t, l.Record(ctx, Entry{RunID: run, Path: "docs/a.md", Status: StatusGenerated, Bytes: 3}))
	got, err := l.Entries(ctx, run)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, StatusGenerated, got[len(got)-1].Status)
}
