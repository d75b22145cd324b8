package pathmap

import (
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToIdentifier(t *testing.T) {
	cases := map[string]string{
		"Button.vue":            "QButton",
		"index.vue":             "Qindex",
		"CarouselItem.vue":      "QCarouselItem",
		"components/Button.vue": "QButton",
		"Makefile":              "QMakefile",
	}
	for in, want := range cases {
		got, err := ToIdentifier("Q", in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestToIdentifierRejectsEmptyStem(t *testing.T) {
	for _, in := range []string{".vue", "", "  .vue"} {
		_, err := ToIdentifier("Q", in)
		var ne *InvalidNameError
		require.True(t, errors.As(err, &ne), "input %q: %v", in, err)
	}
}

func TestToIdentifierRejectsNonIdentifiers(t *testing.T) {
	for _, in := range []string{"my-button.vue", "Button.test.vue", "my button.vue", "{x}.vue"} {
		_, err := ToIdentifier("Q", in)
		var ne *InvalidNameError
		require.True(t, errors.As(err, &ne), "input %q: %v", in, err)
	}
	_, err := ToIdentifier("", "1Button.vue")
	assert.Error(t, err, "identifiers cannot start with a digit")
	got, err := ToIdentifier("Q", "q_$Button.vue")
	require.NoError(t, err)
	assert.Equal(t, "Qq_$Button", got)
}

func TestRebaseIsSegmentBased(t *testing.T) {
	assert.Equal(t,
		filepath.FromSlash("proj/docs/components/src/Button.vue"),
		Rebase("proj/src/components/src/Button.vue", "src", "docs"))
	assert.Equal(t,
		filepath.FromSlash("proj/srcs/Button.vue"),
		Rebase("proj/srcs/Button.vue", "src", "docs"), "substring match must not rebase")
	assert.Equal(t,
		filepath.FromSlash("/a/docs/b"),
		Rebase("/a/src/b", "src", "docs"))
}

func TestMapperImportPath(t *testing.T) {
	m := NewMapper(filepath.FromSlash("/work/lib/src"), "Q")

	got, err := m.ImportPath(filepath.FromSlash("/work/lib/src/components/Button.vue"))
	require.NoError(t, err)
	assert.Equal(t, "./components/Button.vue", got)

	got, err = m.ImportPath(filepath.FromSlash("/work/lib/src/components/form/Text.vue"))
	require.NoError(t, err)
	assert.Equal(t, "./components/form/Text.vue", got)
}

func TestMapperImportPathFromNestedScanRoot(t *testing.T) {
	m := &Mapper{SourceRoot: filepath.FromSlash("/work/lib/src/components"), Anchor: "src", Prefix: "Q"}

	got, err := m.ImportPath(filepath.FromSlash("/work/lib/src/components/layout/Card.vue"))
	require.NoError(t, err)
	assert.Equal(t, "./components/layout/Card.vue", got)
}

func TestMapperImportPathErrors(t *testing.T) {
	m := NewMapper(filepath.FromSlash("/work/lib/src"), "Q")
	_, err := m.ImportPath(filepath.FromSlash("/work/other/Button.vue"))
	var pe *PathDerivationError
	require.True(t, errors.As(err, &pe), "got %v", err)

	m = &Mapper{SourceRoot: filepath.FromSlash("/work/lib/src"), Anchor: "source", Prefix: "Q"}
	_, err = m.ImportPath(filepath.FromSlash("/work/lib/src/Button.vue"))
	require.True(t, IsPathError(err), "got %v", err)
}

func TestMapperMirrorOnlyRebasesRootSegment(t *testing.T) {
	m := NewMapper(filepath.FromSlash("/home/src/lib/src"), "Q")

	got := m.Mirror(filepath.FromSlash("/home/src/lib/src/components/Button.vue"), DocTarget, false)
	assert.Equal(t, filepath.FromSlash("/home/src/lib/docs/components/Button.md"), got)

	got = m.Mirror(filepath.FromSlash("/home/src/lib/src/utils/useHeap.ts"), DisplayTarget, false)
	assert.Equal(t, filepath.FromSlash("/home/src/lib/display/utils/useHeap.vue"), got)

	got = m.Mirror(filepath.FromSlash("/home/src/lib/src/components"), DocTarget, true)
	assert.Equal(t, filepath.FromSlash("/home/src/lib/docs/components"), got)

	assert.Equal(t, filepath.FromSlash("/home/src/lib/docs"), m.TargetRoot(DocTarget))
}

func TestReplaceExt(t *testing.T) {
	assert.Equal(t, "a/b.md", ReplaceExt("a/b.vue", ".md"))
	assert.Equal(t, "a/types.d.md", ReplaceExt("a/types.d.ts", ".md"))
	assert.Equal(t, "a/LICENSE.md", ReplaceExt("a/LICENSE", ".md"))
}
