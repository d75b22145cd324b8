package scan

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/cockroachdb/errors"
)

// Matcher selects files by their root-relative path.
type Matcher func(rel string) bool

// Globs builds a Matcher from doublestar include and exclude patterns
// ("**/*.vue", "**/*.d.ts"). A path matches when any include matches and no
// exclude does. An empty include list matches every path.
func Globs(include, exclude []string) (Matcher, error) {
	for _, p := range append(append([]string(nil), include...), exclude...) {
		if !doublestar.ValidatePattern(p) {
			return nil, errors.Newf("scan: invalid glob pattern %q", p)
		}
	}
	inc := append([]string(nil), include...)
	exc := append([]string(nil), exclude...)
	return func(rel string) bool {
		rel = filepath.ToSlash(rel)
		for _, p := range exc {
			if ok, _ := doublestar.Match(p, rel); ok {
				return false
			}
		}
		if len(inc) == 0 {
			return true
		}
		for _, p := range inc {
			if ok, _ := doublestar.Match(p, rel); ok {
				return true
			}
		}
		return false
	}, nil
}

// Extensions builds a Matcher accepting files whose extension is one of exts.
// Extensions are case-insensitive and may be given with or without a leading dot.
func Extensions(exts ...string) Matcher {
	allowed := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		allowed[ext] = struct{}{}
	}
	return func(rel string) bool {
		_, ok := allowed[strings.ToLower(filepath.Ext(rel))]
		return ok
	}
}
