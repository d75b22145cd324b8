package safeio

import (
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
)

// FS is the narrow filesystem capability used by the walker, the mirror and
// the doc pipeline. Paths may be absolute (under the root) or root-relative.
type FS interface {
	Exists(path string) bool
	Size(path string) (int64, error)
	MkdirAll(path string) error
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte) error
	ReadDir(path string) (dirs, files []string, err error)
}

// ErrOutsideRoot is returned for any path that resolves outside the root.
var ErrOutsideRoot = errors.New("safeio: path resolves outside root")

// SafeFS provides filesystem helpers that resolve paths relative to a fixed root.
type SafeFS struct {
	absRoot string // absolute root with symlinks resolved
}

var _ FS = (*SafeFS)(nil)

// NewSafeFS locks all future operations to the given root directory.
// The root path is resolved to an absolute, symlink-free directory.
func NewSafeFS(root string) (*SafeFS, error) {
	if root == "" {
		return nil, errors.New("safeio: empty root")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrap(err, "safeio: resolve root")
	}
	abs, err = filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, errors.Wrap(err, "safeio: resolve root")
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, errors.Wrap(err, "safeio: stat root")
	}
	if !info.IsDir() {
		return nil, errors.Newf("safeio: root %s is not a directory", abs)
	}
	return &SafeFS{absRoot: abs}, nil
}

// Root returns the absolute root directory bound to this SafeFS.
func (s *SafeFS) Root() string {
	if s == nil {
		return ""
	}
	return s.absRoot
}

// Exists reports whether path names an existing file or directory under the root.
func (s *SafeFS) Exists(path string) bool {
	p, err := s.resolve(path)
	if err != nil {
		return false
	}
	_, err = os.Stat(p)
	return err == nil
}

// Size returns the size of a regular file.
func (s *SafeFS) Size(path string) (int64, error) {
	p, err := s.resolve(path)
	if err != nil {
		return 0, err
	}
	info, err := os.Stat(p)
	if err != nil {
		return 0, err
	}
	if info.IsDir() {
		return 0, errors.Newf("safeio: %s is a directory", path)
	}
	return info.Size(), nil
}

// Stat returns metadata for a file or directory under the root.
func (s *SafeFS) Stat(path string) (fs.FileInfo, error) {
	p, err := s.resolve(path)
	if err != nil {
		return nil, err
	}
	return os.Stat(p)
}

// MkdirAll creates path and any missing parents. Existing directories are a no-op.
func (s *SafeFS) MkdirAll(path string) error {
	p, err := s.resolve(path)
	if err != nil {
		return err
	}
	return os.MkdirAll(p, 0o755)
}

// ReadFile reads a file relative to the root.
func (s *SafeFS) ReadFile(path string) ([]byte, error) {
	p, err := s.resolve(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(p)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, errors.Newf("safeio: %s is a directory", path)
	}
	return os.ReadFile(p)
}

// WriteFile creates or truncates path with data. Missing parents are created.
func (s *SafeFS) WriteFile(path string, data []byte) error {
	p, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	return os.WriteFile(p, data, 0o644)
}

// ReadDir lists the names of subdirectories and files of a directory, each in
// lexical order.
func (s *SafeFS) ReadDir(path string) ([]string, []string, error) {
	dir, err := s.resolve(path)
	if err != nil {
		return nil, nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, err
	}
	var dirs, files []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, e.Name())
			continue
		}
		files = append(files, e.Name())
	}
	sort.Strings(dirs)
	sort.Strings(files)
	return dirs, files, nil
}

// Open implements the fs.FS interface (names use "/" separators).
func (s *SafeFS) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, fs.ErrInvalid
	}
	p, err := s.resolve(filepath.FromSlash(name))
	if err != nil {
		return nil, err
	}
	return os.Open(p)
}

// resolve maps userPath to an absolute path under the root. The deepest
// existing ancestor is symlink-resolved so paths that do not exist yet can
// still be checked before they are created.
func (s *SafeFS) resolve(userPath string) (string, error) {
	if s == nil {
		return "", errors.New("safeio: filesystem not configured")
	}
	if userPath == "" {
		return "", errors.New("safeio: empty path")
	}
	clean := filepath.Clean(userPath)
	if clean == "." {
		return s.absRoot, nil
	}

	isAbs := filepath.IsAbs(clean) || (runtime.GOOS == "windows" && filepath.VolumeName(clean) != "")
	if !isAbs {
		if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
			return "", errors.Wrapf(ErrOutsideRoot, "path traversal in %s", userPath)
		}
	}

	joined := clean
	if !isAbs {
		joined = filepath.Join(s.absRoot, clean)
	}

	resolved, err := evalExisting(joined)
	if err != nil {
		return "", err
	}
	if !hasPathPrefix(resolved, s.absRoot) {
		return "", errors.Wrapf(ErrOutsideRoot, "root=%s path=%s", s.absRoot, resolved)
	}
	return resolved, nil
}

// evalExisting resolves symlinks in the longest existing prefix of p and
// re-appends the missing tail.
func evalExisting(p string) (string, error) {
	var tail []string
	cur := p
	for {
		resolved, err := filepath.EvalSymlinks(cur)
		if err == nil {
			for i := len(tail) - 1; i >= 0; i-- {
				resolved = filepath.Join(resolved, tail[i])
			}
			return resolved, nil
		}
		if !os.IsNotExist(err) {
			return "", err
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return p, nil
		}
		tail = append(tail, filepath.Base(cur))
		cur = parent
	}
}

func hasPathPrefix(path, root string) bool {
	path = filepath.Clean(path)
	root = filepath.Clean(root)
	if runtime.GOOS == "windows" {
		path = strings.ToLower(path)
		root = strings.ToLower(root)
	}
	if len(root) == 0 {
		return true
	}
	if path == root {
		return true
	}
	sep := string(os.PathSeparator)
	if !strings.HasSuffix(root, sep) {
		root += sep
	}
	if !strings.HasSuffix(path, sep) {
		path += sep
	}
	return strings.HasPrefix(path, root)
}
