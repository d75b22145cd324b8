// Package watch reruns generation when source files change.
//
// Events are filtered by doublestar patterns and coalesced: the callback
// fires once per quiet period with every path changed during it.
package watch

import (
	"context"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"

	"componentgen/internal/scan"
)

const defaultDebounce = 300 * time.Millisecond

// ignored paths never trigger a callback.
var defaultIgnores = []string{
	"**/.git/**",
	"**/node_modules/**",
	"**/*.swp",
	"**/*~",
	"**/.DS_Store",
}

type dirWalker interface {
	Walk(ctx context.Context, root string, visit scan.VisitFunc) error
}

type Config struct {
	// Root is the watched directory (the source root).
	Root     string
	Patterns []string
	Ignore   []string
	Debounce time.Duration
	// OnChange receives root-relative, sorted paths.
	OnChange func(ctx context.Context, changed []string) error
}

type Watcher struct {
	cfg     Config
	fsw     *fsnotify.Watcher
	match   scan.Matcher
	ignore  scan.Matcher
	log     *log.Logger
	started atomic.Bool
}

// New registers every directory under cfg.Root that the walker reports.
func New(ctx context.Context, cfg Config, w dirWalker, logger *log.Logger) (*Watcher, error) {
	if cfg.Debounce <= 0 {
		cfg.Debounce = defaultDebounce
	}
	if logger == nil {
		logger = log.Default()
	}
	match, err := scan.Globs(cfg.Patterns, nil)
	if err != nil {
		return nil, errors.Wrap(err, "watch: patterns")
	}
	ignore, err := scan.Globs(append(slices.Clone(defaultIgnores), cfg.Ignore...), nil)
	if err != nil {
		return nil, errors.Wrap(err, "watch: ignore patterns")
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "watch: create fsnotify watcher")
	}
	wt := &Watcher{cfg: cfg, fsw: fsw, match: match, ignore: ignore, log: logger}

	err = w.Walk(ctx, cfg.Root, func(v scan.Visit) error {
		if !v.IsDir || wt.ignore(v.Rel+"/") {
			return nil
		}
		return errors.Wrapf(fsw.Add(v.Path), "watch: add %s", v.Path)
	})
	if err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return wt, nil
}

// Run blocks until ctx is cancelled. A callback still running when the
// debounce fires again defers the new batch instead of overlapping.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return errors.New("watch: Run called more than once")
	}
	defer w.fsw.Close()

	var (
		mu      sync.Mutex
		pending = map[string]struct{}{}
		timer   *time.Timer
		running atomic.Bool
	)
	fire := func() {
		if ctx.Err() != nil {
			return
		}
		if !running.CompareAndSwap(false, true) {
			mu.Lock()
			timer.Reset(w.cfg.Debounce)
			mu.Unlock()
			return
		}
		defer running.Store(false)

		mu.Lock()
		changed := slices.Sorted(maps.Keys(pending))
		clear(pending)
		mu.Unlock()
		if len(changed) == 0 || w.cfg.OnChange == nil {
			return
		}
		w.log.Info("change detected", "files", len(changed))
		if err := w.cfg.OnChange(ctx, changed); err != nil {
			w.log.Error("regeneration failed", "err", err)
		}
	}
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watch: event channel closed")
			}
			rel, err := filepath.Rel(w.cfg.Root, evt.Name)
			if err != nil {
				continue
			}
			rel = filepath.ToSlash(rel)
			if w.ignore(rel) {
				continue
			}
			if evt.Has(fsnotify.Create) {
				w.addDir(evt.Name, rel)
			}
			if !w.match(rel) {
				continue
			}
			w.log.Debug("fs event", "op", evt.Op.String(), "path", rel)
			mu.Lock()
			pending[rel] = struct{}{}
			if timer == nil {
				timer = time.AfterFunc(w.cfg.Debounce, fire)
			} else {
				timer.Reset(w.cfg.Debounce)
			}
			mu.Unlock()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watch: error channel closed")
			}
			w.log.Warn("fsnotify error", "err", err)
		}
	}
}

func (w *Watcher) addDir(path, rel string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() || w.ignore(rel+"/") {
		return
	}
	if err := w.fsw.Add(path); err != nil {
		w.log.Warn("watch new dir", "path", path, "err", err)
	}
}
