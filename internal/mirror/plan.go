package mirror

import (
	"context"
	"io"
	"path/filepath"

	"github.com/ddddddO/gtree"

	"componentgen/internal/scan"
)

// Entry is one target path a mirror run would create.
type Entry struct {
	Source string
	Target string
	IsDir  bool
}

// Plan is the dry-run result for one target.
type Plan struct {
	Target  string
	Root    string
	Missing []Entry
	// rels holds the source-relative path of every entry in walk order,
	// including existing ones, so the rendered tree keeps its shape.
	rels []planRel
}

type planRel struct {
	rel     string
	name    string
	missing bool
}

// Plan reports which entries Run would create for t without writing anything.
func (m *Mirror) Plan(ctx context.Context, root string, t Transform) (*Plan, error) {
	p := &Plan{Target: t.Name, Root: t.Map(root, true)}
	err := m.Walker.Walk(ctx, root, func(v scan.Visit) error {
		dst := t.Map(v.Path, v.IsDir)
		missing := !m.FS.Exists(dst)
		if missing {
			p.Missing = append(p.Missing, Entry{Source: v.Path, Target: dst, IsDir: v.IsDir})
		}
		p.rels = append(p.rels, planRel{rel: v.Rel, name: filepath.Base(dst), missing: missing})
		return nil
	})
	return p, err
}

// Render writes the target tree as an ASCII tree; entries that would be
// created are suffixed with " (new)".
func (p *Plan) Render(w io.Writer) error {
	root := gtree.NewRoot(filepath.Base(p.Root))
	nodes := map[string]*gtree.Node{".": root}
	for _, r := range p.rels {
		if r.rel == "." {
			continue
		}
		parent, ok := nodes[filepath.ToSlash(filepath.Dir(r.rel))]
		if !ok {
			parent = root
		}
		label := r.name
		if r.missing {
			label += " (new)"
		}
		nodes[r.rel] = parent.Add(label)
	}
	return gtree.OutputFromRoot(w, root)
}
