package registry

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"componentgen/internal/pathmap"
	"componentgen/internal/safeio"
	"componentgen/internal/scan"
)

func write(t *testing.T, root, rel string) {
	t.Helper()
	p := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte("<template/>"), 0o644))
}

func collect(t *testing.T, root, scanRel string) ([]Record, error) {
	t.Helper()
	fs, err := safeio.NewSafeFS(root)
	require.NoError(t, err)
	w := scan.NewWalker(fs, scan.Options{})
	m := pathmap.NewMapper(filepath.Join(root, "src"), "Q")
	return Collect(context.Background(), w, filepath.Join(root, scanRel), scan.Extensions(".vue"), m)
}

func TestCollect_TraversalOrder(t *testing.T) {
	root := t.TempDir()
	write(t, root, "src/components/Icon.vue")
	write(t, root, "src/components/Button.vue")
	write(t, root, "src/components/form/Text.vue")
	write(t, root, "src/components/index.ts")
	write(t, root, "src/components/Avatar.vue")

	got, err := collect(t, root, "src/components")
	require.NoError(t, err)
	assert.Equal(t, []Record{
		{Identifier: "QAvatar", SourceRelativePath: "components/Avatar.vue", ImportPath: "./components/Avatar.vue"},
		{Identifier: "QButton", SourceRelativePath: "components/Button.vue", ImportPath: "./components/Button.vue"},
		{Identifier: "QIcon", SourceRelativePath: "components/Icon.vue", ImportPath: "./components/Icon.vue"},
		{Identifier: "QText", SourceRelativePath: "components/form/Text.vue", ImportPath: "./components/form/Text.vue"},
	}, got)
	assert.Equal(t, []string{"QAvatar", "QButton", "QIcon", "QText"}, Identifiers(got))
}

func TestCollect_IndexIsNotSpecialCased(t *testing.T) {
	root := t.TempDir()
	write(t, root, "src/components/index.vue")

	got, err := collect(t, root, "src")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Qindex", got[0].Identifier)
}

func TestCollect_DuplicateIdentifier(t *testing.T) {
	root := t.TempDir()
	write(t, root, "src/components/Button.vue")
	write(t, root, "src/components/form/Button.vue")

	got, err := collect(t, root, "src")
	assert.Nil(t, got)
	var de *DuplicateComponentError
	require.True(t, errors.As(err, &de), "got %v", err)
	assert.Equal(t, "QButton", de.Identifier)
	assert.Equal(t, "components/Button.vue", de.First)
	assert.Equal(t, "components/form/Button.vue", de.Second)
}

func TestCollect_InvalidName(t *testing.T) {
	root := t.TempDir()
	write(t, root, "src/components/.vue")

	_, err := collect(t, root, "src")
	var ne *pathmap.InvalidNameError
	require.True(t, errors.As(err, &ne), "got %v", err)
}
