// Package runner wires configuration into the generation steps and runs them
// in dependency order.
package runner

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"componentgen/internal/artifact"
	"componentgen/internal/config"
	"componentgen/internal/ledger"
	"componentgen/internal/llm"
	"componentgen/internal/llmclient"
	"componentgen/internal/logx"
	"componentgen/internal/pathmap"
	"componentgen/internal/safeio"
	"componentgen/internal/scan"
)

// Project is one configured component library checkout.
type Project struct {
	Cfg    *config.Config
	FS     *safeio.SafeFS
	Walker *scan.Walker
	Mapper *pathmap.Mapper
	Log    *log.Logger
	RunID  string

	// Out receives dry-run plans and previews.
	Out    io.Writer
	DryRun bool
	// Strict makes per-file doc failures fail the docs step.
	Strict bool

	// Provider overrides the configured provider when set.
	Provider llmclient.Completer
	// Store overrides the configured artifact destinations when set.
	Store    artifact.Store
	Ledger   ledger.Ledger
}

// Open resolves cfg into a Project rooted at cfg.Root. cfg.Root is replaced
// by its resolved form.
func Open(cfg *config.Config, logger *log.Logger) (*Project, error) {
	if logger == nil {
		logger = logx.Discard()
	}
	fsys, err := safeio.NewSafeFS(cfg.Root)
	if err != nil {
		return nil, errors.WithHint(err, "--root must point at the component library checkout")
	}
	cfg.Root = fsys.Root()
	source := cfg.Abs(cfg.Source)
	if !fsys.Exists(source) {
		return nil, errors.WithHintf(errors.Newf("runner: source root %s does not exist", source),
			"set source in %s", config.FileName)
	}
	return &Project{
		Cfg:    cfg,
		FS:     fsys,
		Walker: scan.NewWalker(fsys, scan.Options{IgnoreDirs: cfg.IgnoreDirs}),
		Mapper: pathmap.NewMapper(source, cfg.Prefix),
		Log:    logger,
		RunID:  uuid.NewString(),
		Out:    os.Stdout,
	}, nil
}

// Close releases the provider and the ledger.
func (p *Project) Close() error {
	var errs []error
	if p.Provider != nil {
		errs = append(errs, p.Provider.Close())
	}
	if p.Ledger != nil {
		errs = append(errs, p.Ledger.Close())
	}
	return errors.Join(errs...)
}

func (p *Project) store() (artifact.Store, error) {
	if p.Store != nil {
		return p.Store, nil
	}
	if p.DryRun {
		p.Store = &previewStore{out: p.Out}
		return p.Store, nil
	}
	stores := []artifact.Store{artifact.NewFileStore(p.FS, p.Cfg.Artifacts.Dir)}
	if s3 := p.Cfg.Artifacts.S3; s3.Enabled {
		remote, err := artifact.NewS3Store(artifact.S3Config{
			Endpoint:  s3.Endpoint,
			Region:    s3.Region,
			AccessKey: s3.AccessKey,
			SecretKey: s3.SecretKey,
			Bucket:    s3.Bucket,
			UseSSL:    s3.UseSSL,
		}, p.RunID)
		if err != nil {
			return nil, err
		}
		stores = append(stores, remote)
	}
	p.Store = artifact.Multi(stores...)
	return p.Store, nil
}

func (p *Project) provider(ctx context.Context) (llmclient.Completer, error) {
	if p.Provider != nil {
		return p.Provider, nil
	}
	d := p.Cfg.Docs
	inner, err := llm.NewProvider(ctx, llmclient.Spec{
		Provider: d.Provider,
		Model:    d.Model,
		APIKey:   d.APIKey,
		BaseURL:  d.BaseURL,
	})
	if err != nil {
		return nil, err
	}
	p.Provider = wrapProvider(inner, d, logx.Component(p.Log, "provider"))
	return p.Provider, nil
}

// wrapProvider puts retries outermost so every attempt is logged and waits
// for a rate limit token.
func wrapProvider(inner llmclient.Completer, d config.DocsConfig, logger *log.Logger) llmclient.Completer {
	return llm.Wrap(inner,
		llm.Retry(d.Retries, d.RetryBase),
		llm.WithLogging(logger),
		llm.RateLimit(d.RateLimit, d.Burst),
	)
}

func (p *Project) ledger() (ledger.Ledger, error) {
	if p.Ledger != nil {
		return p.Ledger, nil
	}
	if p.DryRun {
		p.Ledger = ledger.Nop{}
		return p.Ledger, nil
	}
	l, err := ledger.Open(p.Cfg.Ledger.DSN, p.Cfg.Abs(p.Cfg.Ledger.Path))
	if err != nil {
		return nil, err
	}
	p.Ledger = l
	return l, nil
}

// readOptional returns the content of a project file, or fallback when path
// is empty.
func (p *Project) readOptional(path, fallback string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return fallback, nil
	}
	b, err := p.FS.ReadFile(p.Cfg.Abs(path))
	if err != nil {
		return "", errors.Wrapf(err, "runner: read %s", path)
	}
	return string(b), nil
}

// previewStore prints artifacts instead of writing them.
type previewStore struct {
	out io.Writer
}

func (s *previewStore) Put(_ context.Context, path string, content []byte) error {
	_, err := io.WriteString(s.out, "==> "+path+"\n"+string(content)+"\n")
	return err
}
