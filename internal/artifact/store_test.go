package artifact

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"componentgen/internal/safeio"
)

func TestFileStore_Put(t *testing.T) {
	root := t.TempDir()
	fsys, err := safeio.NewSafeFS(root)
	require.NoError(t, err)
	s := NewFileStore(fsys, "out")

	require.NoError(t, s.Put(context.Background(), "/src/index.ts", []byte("export {}")))
	b, err := os.ReadFile(filepath.Join(root, "out", "src", "index.ts"))
	require.NoError(t, err)
	assert.Equal(t, "export {}", string(b))

	assert.Error(t, s.Put(context.Background(), "../escape.ts", nil))
	assert.Error(t, s.Put(context.Background(), "  ", nil))
}

func TestMulti_FansOutAndStops(t *testing.T) {
	a, b := recording{}, recording{}
	m := Multi(a, nil, b)
	require.NoError(t, m.Put(context.Background(), "global.d.ts", []byte("x")))
	assert.Equal(t, "x", a["global.d.ts"])
	assert.Equal(t, "x", b["global.d.ts"])

	boom := errors.New("boom")
	c := recording{}
	err := Multi(failing{boom}, c).Put(context.Background(), "a", nil)
	assert.True(t, errors.Is(err, boom))
	assert.Empty(t, c)
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "text/plain; charset=utf-8", contentType("src/index.ts"))
	assert.Equal(t, "text/markdown; charset=utf-8", contentType("docs/A.md"))
	assert.Equal(t, "application/json", contentType("docs/catalog.json"))
}

func TestNewS3Store_Validation(t *testing.T) {
	_, err := NewS3Store(S3Config{}, "run")
	assert.Error(t, err)
	_, err = NewS3Store(S3Config{Endpoint: "localhost:9000", Bucket: "b"}, "run")
	assert.Error(t, err)
	_, err = NewS3Store(S3Config{Endpoint: "localhost:9000", Bucket: "b", AccessKey: "a", SecretKey: "s"}, "")
	assert.Error(t, err)
	s, err := NewS3Store(S3Config{Endpoint: "localhost:9000", Bucket: "b", AccessKey: "a", SecretKey: "s"}, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "run-1/src/index.ts", s.objectKey("src/index.ts"))
}

type failing struct{ err error }

func (f failing) Put(context.Context, string, []byte) error { return f.err }

type recording map[string]string

func (r recording) Put(_ context.Context, p string, content []byte) error {
	r[p] = string(content)
	return nil
}
