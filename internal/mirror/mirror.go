// Package mirror materializes empty skeletons of a source tree inside one or
// more target trees. Mirroring only adds missing entries; existing files are
// never opened, so running it again on an unchanged source writes nothing.
package mirror

import (
	"context"

	"github.com/charmbracelet/log"

	"componentgen/internal/pathmap"
	"componentgen/internal/safeio"
	"componentgen/internal/scan"
)

type walker interface {
	Walk(ctx context.Context, root string, visit scan.VisitFunc) error
}

// Transform maps a source path into one target tree.
type Transform struct {
	Name string
	Map  func(path string, isDir bool) string
}

// ForTarget builds the Transform for a pathmap target.
func ForTarget(m *pathmap.Mapper, t pathmap.Target) Transform {
	return Transform{
		Name: t.Name,
		Map: func(path string, isDir bool) string {
			return m.Mirror(path, t, isDir)
		},
	}
}

// Stats counts the side effects of one mirror run for one target.
type Stats struct {
	DirsCreated  int
	FilesCreated int
	Existing     int
}

// Writes returns the number of filesystem mutations performed.
func (s Stats) Writes() int { return s.DirsCreated + s.FilesCreated }

// Mirror walks a source tree and creates the missing target entries.
type Mirror struct {
	FS     safeio.FS
	Walker walker
	Log    *log.Logger
}

// New returns a Mirror. A nil logger discards output.
func New(fsys safeio.FS, w walker, logger *log.Logger) *Mirror {
	return &Mirror{FS: fsys, Walker: w, Log: logger}
}

// Run mirrors root into every target in a single walk. The returned map is
// keyed by Transform.Name. Listing and filesystem failures abort the run.
func (m *Mirror) Run(ctx context.Context, root string, targets ...Transform) (map[string]*Stats, error) {
	stats := make(map[string]*Stats, len(targets))
	for _, t := range targets {
		stats[t.Name] = &Stats{}
	}
	err := m.Walker.Walk(ctx, root, func(v scan.Visit) error {
		for _, t := range targets {
			if err := m.apply(t, v, stats[t.Name]); err != nil {
				return err
			}
		}
		return nil
	})
	for _, t := range targets {
		s := stats[t.Name]
		m.logf("mirror %s: %d dirs, %d files created, %d existing", t.Name, s.DirsCreated, s.FilesCreated, s.Existing)
	}
	return stats, err
}

func (m *Mirror) apply(t Transform, v scan.Visit, s *Stats) error {
	dst := t.Map(v.Path, v.IsDir)
	if m.FS.Exists(dst) {
		s.Existing++
		return nil
	}
	if v.IsDir {
		if err := m.FS.MkdirAll(dst); err != nil {
			return &WriteError{Path: dst, Err: err}
		}
		s.DirsCreated++
		return nil
	}
	if err := m.FS.WriteFile(dst, nil); err != nil {
		return &WriteError{Path: dst, Err: err}
	}
	s.FilesCreated++
	return nil
}

func (m *Mirror) logf(format string, args ...any) {
	if m.Log != nil {
		m.Log.Infof(format, args...)
	}
}

// WriteError reports a failed directory or placeholder creation.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string { return "mirror: create " + e.Path + ": " + e.Err.Error() }
func (e *WriteError) Unwrap() error { return e.Err }
