package main

import (
	"context"

	"github.com/cockroachdb/errors"

	"componentgen/internal/devserver"
	"componentgen/internal/logx"
	"componentgen/internal/runner"
	"componentgen/internal/watch"
)

type MirrorCmd struct {
	DryRun bool `help:"Print the skeleton tree without writing." name:"dry-run"`
}

func (c *MirrorCmd) Run(app *App) error {
	return runSteps(app, func(p *runner.Project) { p.DryRun = c.DryRun }, "mirror")
}

type ManifestCmd struct {
	DryRun bool `help:"Print both artifacts without writing." name:"dry-run"`
}

func (c *ManifestCmd) Run(app *App) error {
	return runSteps(app, func(p *runner.Project) { p.DryRun = c.DryRun }, "manifest")
}

type DocsCmd struct {
	Strict      bool   `help:"Exit non-zero when any file fails."`
	Concurrency int    `help:"Files generated at once (overrides config)."`
	Provider    string `help:"Provider name (overrides config)."`
	DryRun      bool   `help:"List pending docs without calling the provider." name:"dry-run"`
}

func (c *DocsCmd) Run(app *App) error {
	return runSteps(app, func(p *runner.Project) {
		p.Strict = c.Strict
		p.DryRun = c.DryRun
		if c.Concurrency > 0 {
			p.Cfg.Docs.Concurrency = c.Concurrency
		}
		if c.Provider != "" {
			p.Cfg.Docs.Provider = c.Provider
		}
	}, "docs")
}

type CatalogCmd struct{}

func (c *CatalogCmd) Run(app *App) error {
	return runSteps(app, nil, "catalog")
}

type AllCmd struct {
	Strict bool `help:"Exit non-zero when any doc fails."`
}

func (c *AllCmd) Run(app *App) error {
	return runSteps(app, func(p *runner.Project) { p.Strict = c.Strict }, "all")
}

type ServeCmd struct {
	Addr string `help:"Listen address (overrides config)."`
}

func (c *ServeCmd) Run(app *App) error {
	p, err := app.Project()
	if err != nil {
		return err
	}
	defer p.Close()

	sc := p.Cfg.Serve
	if c.Addr != "" {
		sc.Addr = c.Addr
	}
	srv, err := devserver.New(p.FS, p.Walker, p.Mapper, devserver.Options{
		AllowOrigin: sc.AllowOrigin,
		CacheSize:   sc.CacheSize,
		Titles:      p.Cfg.Catalog.Titles,
	}, logx.Component(app.Log, "serve"))
	if err != nil {
		return err
	}
	return srv.Serve(app.Ctx, sc.Addr)
}

type WatchCmd struct {
	Docs bool `help:"Also generate docs for changed files."`
}

func (c *WatchCmd) Run(app *App) error {
	p, err := app.Project()
	if err != nil {
		return err
	}
	defer p.Close()

	steps := []string{"mirror", "manifest"}
	if c.Docs || p.Cfg.Watch.Docs {
		steps = append(steps, "docs")
	}
	if err := p.Run(app.Ctx, steps...); err != nil {
		return err
	}

	// The barrel lives in the watched tree; rewriting it must not retrigger.
	var ignore []string
	if rel, err := p.Mapper.Rel(p.Cfg.Abs(p.Cfg.Manifest.Barrel)); err == nil {
		ignore = append(ignore, rel)
	}
	w, err := watch.New(app.Ctx, watch.Config{
		Root:     p.Mapper.SourceRoot,
		Patterns: p.Cfg.Watch.Patterns,
		Ignore:   ignore,
		Debounce: p.Cfg.Watch.Debounce,
		OnChange: func(ctx context.Context, changed []string) error {
			app.Log.Debug("rebuilding", "changed", changed)
			return p.Run(ctx, steps...)
		},
	}, p.Walker, logx.Component(app.Log, "watch"))
	if err != nil {
		return err
	}
	app.Log.Info("watching", "root", p.Mapper.SourceRoot, "steps", steps)
	return w.Run(app.Ctx)
}

func runSteps(app *App, configure func(*runner.Project), steps ...string) (err error) {
	p, err := app.Project()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := p.Close(); cerr != nil && err == nil {
			err = errors.Wrap(cerr, "close project")
		}
	}()
	if configure != nil {
		configure(p)
	}
	return p.Run(app.Ctx, steps...)
}
