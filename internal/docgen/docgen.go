// Package docgen produces one documentation page per source module through a
// generative text provider.
//
// Every doc file is either pending (absent or empty) or done (non-empty).
// A run only touches pending files, so an interrupted run resumes where it
// stopped and a finished run is a no-op.
package docgen

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"componentgen/internal/ledger"
	"componentgen/internal/llm"
	"componentgen/internal/llmclient"
	"componentgen/internal/pathmap"
	"componentgen/internal/safeio"
	"componentgen/internal/scan"
)

// DefaultTimeout bounds one provider call.
const DefaultTimeout = 2 * time.Minute

// ErrEmptyOutput marks a provider reply with no text. The doc file stays pending.
var ErrEmptyOutput = errors.New("docgen: provider returned empty output")

// ErrDocCollision marks a source whose doc path was already claimed by
// another source in the same run, e.g. Button.vue and Button.ts.
var ErrDocCollision = errors.New("docgen: doc path shared with another source")

// GenerationError is a failure isolated to one doc file.
type GenerationError struct {
	Source string
	Doc    string
	Err    error
}

func (e *GenerationError) Error() string {
	return "docgen: generate " + e.Doc + " from " + e.Source + ": " + e.Err.Error()
}
func (e *GenerationError) Unwrap() error { return e.Err }

// Report summarizes one run. Paths are doc paths, sorted.
type Report struct {
	Generated []string
	Skipped   []string
	Failed    []*GenerationError
}

// Err returns nil when no file failed.
func (r *Report) Err() error {
	if len(r.Failed) == 0 {
		return nil
	}
	return errors.Newf("docgen: %d of %d files failed", len(r.Failed),
		len(r.Failed)+len(r.Generated)+len(r.Skipped))
}

type streamer interface {
	Stream(ctx context.Context, root string, filesOnly bool) (<-chan scan.Visit, <-chan error)
}

// Pipeline walks a source tree and fills the pending doc files.
type Pipeline struct {
	FS       safeio.FS
	Walker   streamer
	Provider llmclient.Completer
	Mapper   *pathmap.Mapper
	Target   pathmap.Target

	SystemPrompt string
	Example      string
	// Match selects documentable modules by walk-relative path.
	Match scan.Matcher
	// Timeout bounds each provider call; zero disables it.
	Timeout time.Duration
	// Concurrency is the number of files processed at once; below 2 the run
	// is sequential.
	Concurrency int

	Ledger ledger.Ledger
	RunID  string
	Log    *log.Logger

	locks pathLocks
}

// New returns a sequential Pipeline for .vue and .ts modules writing into
// the doc tree.
func New(fsys safeio.FS, w streamer, provider llmclient.Completer, m *pathmap.Mapper) *Pipeline {
	return &Pipeline{
		FS:       fsys,
		Walker:   w,
		Provider: provider,
		Mapper:   m,
		Target:   pathmap.DocTarget,
		Match:    scan.Extensions(".vue", ".ts"),
		Timeout:  DefaultTimeout,
		Ledger:   ledger.Nop{},
	}
}

// Run processes every matching file under root. Per-file failures are
// collected in the report; only traversal errors and cancellation are
// returned as errors.
func (p *Pipeline) Run(ctx context.Context, root string) (*Report, error) {
	files, walkErr := p.Walker.Stream(ctx, root, true)

	var (
		g       errgroup.Group
		mu      sync.Mutex
		report  = &Report{}
		claimed = map[string]string{}
	)
	g.SetLimit(max(1, p.Concurrency))
	for v := range files {
		if p.Match != nil && !p.Match(v.Rel) {
			continue
		}
		src := v.Path
		doc := p.Mapper.Mirror(src, p.Target, false)
		if first, ok := claimed[doc]; ok {
			ge := &GenerationError{Source: src, Doc: doc, Err: errors.Wrapf(ErrDocCollision, "first claimed by %s", first)}
			p.logger().Warn("doc path collision", "doc", doc, "src", src, "first", first)
			p.record(ctx, doc, ledger.StatusFailed, ge, 0)
			mu.Lock()
			report.Failed = append(report.Failed, ge)
			mu.Unlock()
			continue
		}
		claimed[doc] = src
		g.Go(func() error {
			doc, status, err := p.Process(ctx, src)
			mu.Lock()
			defer mu.Unlock()
			switch status {
			case ledger.StatusGenerated:
				report.Generated = append(report.Generated, doc)
			case ledger.StatusSkipped:
				report.Skipped = append(report.Skipped, doc)
			default:
				var ge *GenerationError
				if !errors.As(err, &ge) {
					ge = &GenerationError{Source: src, Doc: doc, Err: err}
				}
				report.Failed = append(report.Failed, ge)
			}
			return nil
		})
	}
	err := <-walkErr
	_ = g.Wait()

	sort.Strings(report.Generated)
	sort.Strings(report.Skipped)
	sort.Slice(report.Failed, func(i, j int) bool { return report.Failed[i].Doc < report.Failed[j].Doc })
	p.logger().Info("docs finished", "generated", len(report.Generated), "skipped", len(report.Skipped), "failed", len(report.Failed))

	if err != nil {
		return report, err
	}
	return report, ctx.Err()
}

// Process moves one source file from pending to done. It returns the doc
// path and the outcome; err is a *GenerationError when status is failed.
func (p *Pipeline) Process(ctx context.Context, src string) (string, ledger.Status, error) {
	doc := p.Mapper.Mirror(src, p.Target, false)
	unlock := p.locks.lock(doc)
	defer unlock()

	if size, err := p.FS.Size(doc); err == nil && size > 0 {
		p.logger().Debug("doc exists, skipping", "doc", doc)
		p.record(ctx, doc, ledger.StatusSkipped, nil, 0)
		return doc, ledger.StatusSkipped, nil
	}

	n, err := p.generate(ctx, src, doc)
	if err != nil {
		ge := &GenerationError{Source: src, Doc: doc, Err: err}
		p.logger().Error("doc generation failed", "src", src, "err", err)
		p.record(ctx, doc, ledger.StatusFailed, ge, 0)
		return doc, ledger.StatusFailed, ge
	}
	p.logger().Info("doc generated", "doc", doc, "size", humanize.Bytes(uint64(n)))
	p.record(ctx, doc, ledger.StatusGenerated, nil, n)
	return doc, ledger.StatusGenerated, nil
}

func (p *Pipeline) generate(ctx context.Context, src, doc string) (int, error) {
	if !p.FS.Exists(doc) {
		if err := p.FS.WriteFile(doc, nil); err != nil {
			return 0, errors.Wrap(err, "create placeholder")
		}
	}
	content, err := p.FS.ReadFile(src)
	if err != nil {
		return 0, errors.Wrap(err, "read source")
	}

	callCtx := llm.WithFile(ctx, p.relName(src))
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(callCtx, p.Timeout)
		defer cancel()
	}
	out, err := p.Provider.Complete(callCtx, p.SystemPrompt, Instruction(string(content), p.Example))
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return 0, errors.Wrapf(err, "provider timed out after %s", p.Timeout)
		}
		return 0, err
	}
	if strings.TrimSpace(out) == "" {
		return 0, ErrEmptyOutput
	}
	if err := p.FS.WriteFile(doc, []byte(out)); err != nil {
		return 0, errors.Wrap(err, "write doc")
	}
	return len(out), nil
}

func (p *Pipeline) relName(src string) string {
	if rel, err := p.Mapper.Rel(src); err == nil {
		return rel
	}
	return src
}

func (p *Pipeline) record(ctx context.Context, doc string, status ledger.Status, cause error, n int) {
	if p.Ledger == nil {
		return
	}
	e := ledger.Entry{RunID: p.RunID, Path: doc, Status: status, Bytes: n}
	if cause != nil {
		e.Error = cause.Error()
	}
	// The ledger must not turn an isolated failure into a fatal one.
	if err := p.Ledger.Record(context.WithoutCancel(ctx), e); err != nil {
		p.logger().Warn("ledger record failed", "doc", doc, "err", err)
	}
}

var discard = log.New(io.Discard)

func (p *Pipeline) logger() *log.Logger {
	if p.Log == nil {
		return discard
	}
	return p.Log
}

// pathLocks hands out one mutex per doc path.
type pathLocks struct {
	mu sync.Mutex
	m  map[string]*pathLock
}

type pathLock struct {
	sync.Mutex
	refs int
}

func (l *pathLocks) lock(key string) func() {
	l.mu.Lock()
	if l.m == nil {
		l.m = make(map[string]*pathLock)
	}
	e := l.m[key]
	if e == nil {
		e = &pathLock{}
		l.m[key] = e
	}
	e.refs++
	l.mu.Unlock()

	e.Lock()
	return func() {
		e.Unlock()
		l.mu.Lock()
		if e.refs--; e.refs == 0 {
			delete(l.m, key)
		}
		l.mu.Unlock()
	}
}
