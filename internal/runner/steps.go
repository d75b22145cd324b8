package runner

import (
	"context"
	"encoding/json"
	"path"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"

	"componentgen/internal/catalog"
	"componentgen/internal/docgen"
	"componentgen/internal/logx"
	"componentgen/internal/manifest"
	"componentgen/internal/mirror"
	"componentgen/internal/pathmap"
	"componentgen/internal/registry"
	"componentgen/internal/scan"
)

// Step is one named unit of work. Requires lists steps that must run first.
type Step struct {
	Name     string
	Requires []string
	Run      func(ctx context.Context, p *Project) error
}

// Steps is the step table, keyed by name.
var Steps = map[string]Step{
	"mirror": {
		Name: "mirror",
		Run:  func(ctx context.Context, p *Project) error { return p.Mirror(ctx) },
	},
	"manifest": {
		Name: "manifest",
		Run:  func(ctx context.Context, p *Project) error { return p.Manifest(ctx) },
	},
	"docs": {
		Name:     "docs",
		Requires: []string{"mirror"},
		Run:      func(ctx context.Context, p *Project) error { return p.Docs(ctx) },
	},
	"catalog": {
		Name:     "catalog",
		Requires: []string{"mirror"},
		Run:      func(ctx context.Context, p *Project) error { return p.Catalog(ctx) },
	},
	"all": {
		Name:     "all",
		Requires: []string{"mirror", "manifest", "docs", "catalog"},
		Run:      func(context.Context, *Project) error { return nil },
	},
}

// Run executes the named steps and their requirements. Each step runs at most
// once per call.
func (p *Project) Run(ctx context.Context, names ...string) error {
	done := map[string]bool{}
	for _, name := range names {
		if err := p.ensure(ctx, name, done, map[string]bool{}); err != nil {
			return err
		}
	}
	return nil
}

func (p *Project) ensure(ctx context.Context, name string, done, visiting map[string]bool) error {
	key := strings.ToLower(strings.TrimSpace(name))
	step, ok := Steps[key]
	if !ok {
		return errors.WithHintf(errors.Newf("runner: unknown step %q", name),
			"known steps: %s", strings.Join(StepNames(), ", "))
	}
	if done[key] {
		return nil
	}
	if visiting[key] {
		return errors.Newf("runner: cyclic step dependency detected at %s", key)
	}
	visiting[key] = true
	defer delete(visiting, key)
	for _, r := range step.Requires {
		if err := p.ensure(ctx, r, done, visiting); err != nil {
			return err
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	p.Log.Debug("step start", "step", key, "run", p.RunID)
	if err := step.Run(ctx, p); err != nil {
		return errors.Wrapf(err, "step %s", key)
	}
	done[key] = true
	return nil
}

// StepNames returns the known step names in sorted order.
func StepNames() []string {
	names := make([]string, 0, len(Steps))
	for n := range Steps {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

func (p *Project) targets() ([]pathmap.Target, error) {
	var out []pathmap.Target
	for _, name := range p.Cfg.Mirror.Targets {
		switch name {
		case pathmap.DocTarget.Name:
			out = append(out, pathmap.DocTarget)
		case pathmap.DisplayTarget.Name:
			out = append(out, pathmap.DisplayTarget)
		default:
			return nil, errors.Newf("runner: unknown mirror target %q", name)
		}
	}
	return out, nil
}

// Mirror creates the missing doc and display skeletons. A dry run prints the
// plan for each target instead.
func (p *Project) Mirror(ctx context.Context) error {
	targets, err := p.targets()
	if err != nil {
		return err
	}
	mr := mirror.New(p.FS, p.Walker, logx.Component(p.Log, "mirror"))
	root := p.Mapper.SourceRoot
	if p.DryRun {
		for _, t := range targets {
			plan, err := mr.Plan(ctx, root, mirror.ForTarget(p.Mapper, t))
			if err != nil {
				return err
			}
			if err := plan.Render(p.Out); err != nil {
				return errors.Wrap(err, "runner: render plan")
			}
		}
		return nil
	}
	transforms := make([]mirror.Transform, 0, len(targets))
	for _, t := range targets {
		transforms = append(transforms, mirror.ForTarget(p.Mapper, t))
	}
	stats, err := mr.Run(ctx, root, transforms...)
	if err != nil {
		return err
	}
	for _, t := range targets {
		s := stats[t.Name]
		p.Log.Info("mirrored", "target", t.Name, "dirs", s.DirsCreated, "files", s.FilesCreated, "existing", s.Existing)
	}
	return nil
}

// Manifest regenerates the barrel module and the type declaration. Both are
// rendered before either is written.
func (p *Project) Manifest(ctx context.Context) error {
	mc := p.Cfg.Manifest
	match, err := scan.Globs(mc.Include, mc.Exclude)
	if err != nil {
		return err
	}
	records, err := registry.Collect(ctx, p.Walker, p.Cfg.Abs(mc.ComponentsDir), match, p.Mapper)
	if err != nil {
		return err
	}

	syn := manifest.New(p.Cfg.Prefix)
	syn.PluginName = mc.PluginName
	syn.DistTypesPath = mc.DistTypesPath
	syn.HostModule = mc.HostModule
	syn.RequireComponents = mc.RequireComponents
	if syn.Header, err = p.readOptional(mc.HeaderFile, syn.Header); err != nil {
		return err
	}

	barrel, err := syn.RenderBarrel(records)
	if err != nil {
		return err
	}
	types, err := syn.RenderTypeDeclaration(records)
	if err != nil {
		return err
	}

	store, err := p.store()
	if err != nil {
		return err
	}
	if err := store.Put(ctx, mc.Barrel, []byte(barrel)); err != nil {
		return err
	}
	if err := store.Put(ctx, mc.Types, []byte(types)); err != nil {
		return err
	}
	p.Log.Info("manifest written", "components", len(records), "barrel", mc.Barrel, "types", mc.Types)
	return nil
}

// Docs fills pending doc files through the configured provider. Per-file
// failures are reported; they fail the step only in strict mode.
func (p *Project) Docs(ctx context.Context) error {
	dc := p.Cfg.Docs
	if p.DryRun {
		return p.pendingDocs(ctx)
	}
	provider, err := p.provider(ctx)
	if err != nil {
		return err
	}
	l, err := p.ledger()
	if err != nil {
		return err
	}
	match, err := scan.Globs(dc.Include, dc.Exclude)
	if err != nil {
		return err
	}

	pl := docgen.New(p.FS, p.Walker, provider, p.Mapper)
	pl.Match = match
	pl.Timeout = dc.Timeout
	pl.Concurrency = dc.Concurrency
	pl.Ledger = l
	pl.RunID = p.RunID
	pl.Log = logx.Component(p.Log, "docs")
	if pl.SystemPrompt, err = p.readOptional(dc.SystemPromptFile, docgen.DefaultSystemPrompt); err != nil {
		return err
	}
	if pl.Example, err = p.readOptional(dc.ExampleFile, docgen.DefaultExample); err != nil {
		return err
	}

	report, err := pl.Run(ctx, p.Mapper.SourceRoot)
	if err != nil {
		return err
	}
	for _, f := range report.Failed {
		p.Log.Warn("doc failed", "source", f.Source, "err", f.Err)
	}
	if p.Strict {
		return report.Err()
	}
	return nil
}

// pendingDocs lists the sources whose doc file is missing or empty.
func (p *Project) pendingDocs(ctx context.Context) error {
	match, err := scan.Globs(p.Cfg.Docs.Include, p.Cfg.Docs.Exclude)
	if err != nil {
		return err
	}
	return p.Walker.Walk(ctx, p.Mapper.SourceRoot, func(v scan.Visit) error {
		if v.IsDir || !match(v.Rel) {
			return nil
		}
		doc := p.Mapper.Mirror(v.Path, pathmap.DocTarget, false)
		if n, err := p.FS.Size(doc); err == nil && n > 0 {
			return nil
		}
		_, err := p.Out.Write([]byte("pending " + v.Rel + "\n"))
		return err
	})
}

// Catalog writes the component catalog and the sidebar derived from it.
func (p *Project) Catalog(ctx context.Context) error {
	entries, err := catalog.Build(ctx, p.Walker, p.FS, p.Mapper)
	if err != nil {
		return err
	}
	store, err := p.store()
	if err != nil {
		return err
	}
	out := p.Cfg.Catalog.Output
	if err := putJSON(ctx, store, out, entries); err != nil {
		return err
	}
	sidebar := path.Join(path.Dir(out), "sidebar.json")
	if err := putJSON(ctx, store, sidebar, catalog.Sidebar(entries, p.Cfg.Catalog.Titles)); err != nil {
		return err
	}
	p.Log.Info("catalog written", "entries", len(entries), "output", out)
	return nil
}

type putter interface {
	Put(ctx context.Context, path string, content []byte) error
}

func putJSON(ctx context.Context, s putter, p string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "runner: encode %s", p)
	}
	return s.Put(ctx, p, append(b, '\n'))
}
