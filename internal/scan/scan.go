package scan

import (
	"context"
	"path/filepath"
	"strings"

	"componentgen/internal/safeio"
)

// Visit carries per-entry metadata to visit callbacks.
type Visit struct {
	// Absolute filesystem path.
	Path string
	// Root-relative path using forward slashes ("components/Button.vue");
	// "." for the root itself.
	Rel string
	// Base name of the entry.
	Name string
	// True when the entry is a directory.
	IsDir bool
	// Lowercased extension (".vue"); empty for dirs or no-ext files.
	Ext string
}

// VisitFunc is invoked for every visited entry. A non-nil error aborts the walk
// and is returned from Walk unchanged.
type VisitFunc func(v Visit) error

// Options tunes a walk. The zero value visits everything.
type Options struct {
	// IgnoreDirs lists directory base names that are not descended into.
	IgnoreDirs []string
}

// TraversalError wraps a listing failure. It aborts the walk; entries already
// delivered to the callback stay delivered.
type TraversalError struct {
	Path string
	Err  error
}

func (e *TraversalError) Error() string { return "scan: list " + e.Path + ": " + e.Err.Error() }
func (e *TraversalError) Unwrap() error { return e.Err }

// Walker traverses a directory tree depth-first through an FS capability.
type Walker struct {
	FS   safeio.FS
	Opts Options
}

// NewWalker returns a Walker over fsys.
func NewWalker(fsys safeio.FS, opts Options) *Walker {
	return &Walker{FS: fsys, Opts: opts}
}

// Walk visits root and everything below it. Each directory is reported before
// its own files, and its files before its subdirectories; entries inside a
// directory come in name order.
func (w *Walker) Walk(ctx context.Context, root string, visit VisitFunc) error {
	root = filepath.Clean(root)
	ignore := make(map[string]bool, len(w.Opts.IgnoreDirs))
	for _, d := range w.Opts.IgnoreDirs {
		if d = strings.TrimSpace(d); d != "" {
			ignore[d] = true
		}
	}
	return w.walkDir(ctx, root, root, ignore, visit)
}

func (w *Walker) walkDir(ctx context.Context, root, dir string, ignore map[string]bool, visit VisitFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := visit(newVisit(root, dir, true)); err != nil {
		return err
	}
	dirs, files, err := w.FS.ReadDir(dir)
	if err != nil {
		return &TraversalError{Path: dir, Err: err}
	}
	for _, name := range files {
		if err := visit(newVisit(root, filepath.Join(dir, name), false)); err != nil {
			return err
		}
	}
	for _, name := range dirs {
		if ignore[name] {
			continue
		}
		if err := w.walkDir(ctx, root, filepath.Join(dir, name), ignore, visit); err != nil {
			return err
		}
	}
	return nil
}

func newVisit(root, path string, isDir bool) Visit {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	v := Visit{
		Path:  path,
		Rel:   filepath.ToSlash(rel),
		Name:  filepath.Base(path),
		IsDir: isDir,
	}
	if !isDir {
		v.Ext = strings.ToLower(filepath.Ext(v.Name))
	}
	return v
}

// Files returns the absolute paths of all files under root in walk order.
func (w *Walker) Files(ctx context.Context, root string) ([]string, error) {
	var out []string
	err := w.Walk(ctx, root, func(v Visit) error {
		if !v.IsDir {
			out = append(out, v.Path)
		}
		return nil
	})
	return out, err
}
