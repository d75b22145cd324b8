// Package artifact publishes generated files (barrel, type declarations,
// catalog) to one or more destinations.
package artifact

import (
	"context"
	"path"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"

	"componentgen/internal/safeio"
)

// Store receives generated artifacts keyed by a slash-separated path.
type Store interface {
	Put(ctx context.Context, path string, content []byte) error
}

func cleanKey(p string) (string, error) {
	p = strings.TrimLeft(strings.TrimSpace(p), "/")
	if p == "" {
		return "", errors.New("artifact: path is required")
	}
	p = path.Clean(p)
	if p == ".." || strings.HasPrefix(p, "../") {
		return "", errors.Newf("artifact: path %q escapes the store", p)
	}
	return p, nil
}

// FileStore writes artifacts below a directory through a rooted filesystem.
type FileStore struct {
	FS  safeio.FS
	Dir string
}

func NewFileStore(fsys safeio.FS, dir string) *FileStore {
	return &FileStore{FS: fsys, Dir: dir}
}

func (s *FileStore) Put(ctx context.Context, p string, content []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key, err := cleanKey(p)
	if err != nil {
		return err
	}
	full := filepath.Join(s.Dir, filepath.FromSlash(key))
	return errors.Wrapf(s.FS.WriteFile(full, content), "artifact: write %s", full)
}

// Multi fans a Put out to every store in order and stops at the first error.
func Multi(stores ...Store) Store {
	var flat []Store
	for _, s := range stores {
		if s != nil {
			flat = append(flat, s)
		}
	}
	return multi(flat)
}

type multi []Store

func (m multi) Put(ctx context.Context, p string, content []byte) error {
	for _, s := range m {
		if err := s.Put(ctx, p, content); err != nil {
			return err
		}
	}
	return nil
}
