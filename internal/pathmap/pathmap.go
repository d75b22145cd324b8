// Package pathmap translates source-tree paths into component identifiers,
// barrel import paths and mirrored target-tree paths.
//
// Rebasing works on parsed path segments rather than substrings, so a
// directory elsewhere in the path that happens to share the root label is
// never rewritten.
package pathmap

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/cockroachdb/errors"
)

// DefaultPrefix is prepended to every component identifier.
const DefaultPrefix = "Q"

// InvalidNameError reports a file base name that yields no identifier.
type InvalidNameError struct {
	Name   string
	Reason string
}

func (e *InvalidNameError) Error() string {
	return "pathmap: invalid component name " + quote(e.Name) + ": " + e.Reason
}

// PathDerivationError reports a path that does not match the expected tree shape.
type PathDerivationError struct {
	Path   string
	Root   string
	Reason string
}

func (e *PathDerivationError) Error() string {
	return "pathmap: cannot derive import path for " + quote(e.Path) + " (root " + quote(e.Root) + "): " + e.Reason
}

func quote(s string) string { return "\"" + s + "\"" }

// Target describes one mirrored tree.
type Target struct {
	// Name is used in logs ("docs", "display").
	Name string
	// Label replaces the source root label ("src" -> "docs").
	Label string
	// Ext replaces the extension of mirrored files (".md").
	Ext string
}

var (
	DocTarget     = Target{Name: "docs", Label: "docs", Ext: ".md"}
	DisplayTarget = Target{Name: "display", Label: "display", Ext: ".vue"}
)

// Stem strips the final extension from a base name.
func Stem(baseName string) string {
	base := filepath.Base(filepath.ToSlash(baseName))
	if base == "." || base == "/" {
		return ""
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ToIdentifier prepends prefix to the extension-stripped base name.
// "Button.vue" -> "QButton"; "index.vue" -> "Qindex".
func ToIdentifier(prefix, baseName string) (string, error) {
	stem := Stem(baseName)
	if strings.TrimSpace(stem) == "" {
		return "", &InvalidNameError{Name: baseName, Reason: "empty after stripping extension"}
	}
	id := prefix + stem
	if !identifierRe.MatchString(id) {
		return "", &InvalidNameError{Name: baseName, Reason: quote(id) + " is not a valid TypeScript identifier"}
	}
	return id, nil
}

var identifierRe = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// ReplaceExt swaps the final extension of p for ext, appending when p has none.
func ReplaceExt(p, ext string) string {
	return strings.TrimSuffix(p, filepath.Ext(p)) + ext
}

// Rebase replaces the first path segment exactly equal to fromLabel with
// toLabel. Paths without such a segment are returned unchanged.
func Rebase(path, fromLabel, toLabel string) string {
	segs := splitSegments(path)
	for i, s := range segs {
		if s == fromLabel {
			segs[i] = toLabel
			return joinSegments(path, segs)
		}
	}
	return path
}

// Mapper binds the path transforms to one configured source root.
type Mapper struct {
	// SourceRoot is the root of the source tree (e.g. /proj/src).
	SourceRoot string
	// Anchor is the root marker segment import paths are computed from.
	// Defaults to the base name of SourceRoot.
	Anchor string
	// Prefix is prepended to identifiers.
	Prefix string
}

// NewMapper returns a Mapper anchored at the base name of sourceRoot.
func NewMapper(sourceRoot, prefix string) *Mapper {
	root := filepath.Clean(sourceRoot)
	return &Mapper{SourceRoot: root, Anchor: filepath.Base(root), Prefix: prefix}
}

// Label returns the source root label used for mirroring.
func (m *Mapper) Label() string {
	return filepath.Base(filepath.Clean(m.SourceRoot))
}

// Identifier derives the component identifier for a file base name.
func (m *Mapper) Identifier(baseName string) (string, error) {
	return ToIdentifier(m.Prefix, baseName)
}

// Rel returns path relative to the source root with forward slashes.
func (m *Mapper) Rel(path string) (string, error) {
	rel, err := filepath.Rel(filepath.Clean(m.SourceRoot), filepath.Clean(path))
	if err != nil {
		return "", &PathDerivationError{Path: path, Root: m.SourceRoot, Reason: err.Error()}
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", &PathDerivationError{Path: path, Root: m.SourceRoot, Reason: "not a descendant of the source root"}
	}
	return rel, nil
}

// ImportPath computes the barrel import path of absFile: the path below the
// anchor segment, "/"-separated and prefixed with ".".
// /proj/src/components/Button.vue -> ./components/Button.vue
func (m *Mapper) ImportPath(absFile string) (string, error) {
	if _, err := m.Rel(absFile); err != nil {
		return "", err
	}
	anchor := m.Anchor
	if anchor == "" {
		anchor = m.Label()
	}
	rootSegs := splitSegments(m.SourceRoot)
	idx := -1
	for i := len(rootSegs) - 1; i >= 0; i-- {
		if rootSegs[i] == anchor {
			idx = i
			break
		}
	}
	if idx < 0 {
		return "", &PathDerivationError{Path: absFile, Root: m.SourceRoot, Reason: "anchor segment " + quote(anchor) + " not found"}
	}
	fileSegs := splitSegments(absFile)
	if len(fileSegs) <= idx+1 {
		return "", &PathDerivationError{Path: absFile, Root: m.SourceRoot, Reason: "path ends at the anchor"}
	}
	return "./" + strings.Join(fileSegs[idx+1:], "/"), nil
}

// TargetRoot returns the root directory of a mirrored tree: the sibling of
// the source root named by the target label.
func (m *Mapper) TargetRoot(t Target) string {
	return filepath.Join(filepath.Dir(filepath.Clean(m.SourceRoot)), t.Label)
}

// Mirror maps a source path into target t. Only the source root's own
// segment is rebased; files get their extension replaced by t.Ext.
func (m *Mapper) Mirror(path string, t Target, isDir bool) string {
	rootSegs := splitSegments(m.SourceRoot)
	segs := splitSegments(path)
	pos := len(rootSegs) - 1
	if pos >= 0 && pos < len(segs) && hasSegPrefix(segs, rootSegs) {
		segs[pos] = t.Label
		path = joinSegments(path, segs)
	} else {
		path = Rebase(path, m.Label(), t.Label)
	}
	if isDir || t.Ext == "" {
		return path
	}
	return ReplaceExt(path, t.Ext)
}

func hasSegPrefix(segs, prefix []string) bool {
	if len(prefix) > len(segs) {
		return false
	}
	for i := range prefix {
		if segs[i] != prefix[i] {
			return false
		}
	}
	return true
}

func splitSegments(p string) []string {
	p = filepath.ToSlash(filepath.Clean(p))
	if p == "/" {
		return []string{""}
	}
	return strings.Split(p, "/")
}

func joinSegments(orig string, segs []string) string {
	out := strings.Join(segs, "/")
	if out == "" && strings.HasPrefix(filepath.ToSlash(orig), "/") {
		out = "/"
	}
	return filepath.FromSlash(out)
}

// IsPathError reports whether err is a structural path derivation failure.
func IsPathError(err error) bool {
	var pe *PathDerivationError
	return errors.As(err, &pe)
}
