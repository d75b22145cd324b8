// Package catalog lists the documentable modules of a source tree with the
// paths the docs site and the display pages use for them.
package catalog

import (
	"context"
	"path"
	"sort"
	"strings"

	"componentgen/internal/pathmap"
	"componentgen/internal/safeio"
	"componentgen/internal/scan"
)

// OtherCategory holds modules that sit directly in the source root.
const OtherCategory = "other"

// Entry describes one module. Paths are site-absolute ("/src/components/QButton.vue").
type Entry struct {
	Category    string `json:"category"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	SourcePath  string `json:"sourcePath"`
	DocPath     string `json:"docPath"`
	DisplayPath string `json:"displayPath"`
	HasDoc      bool   `json:"hasDoc"`
}

type walker interface {
	Walk(ctx context.Context, root string, visit scan.VisitFunc) error
}

// Build walks the source root of m and returns every .vue and .ts module
// except type declarations, sorted by category then display name.
func Build(ctx context.Context, w walker, fsys safeio.FS, m *pathmap.Mapper) ([]Entry, error) {
	var out []Entry
	err := w.Walk(ctx, m.SourceRoot, func(v scan.Visit) error {
		if v.IsDir || strings.HasSuffix(v.Name, ".d.ts") {
			return nil
		}
		if v.Ext != ".vue" && v.Ext != ".ts" {
			return nil
		}
		out = append(out, entryFor(v, fsys, m))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return lessFold(out[i].DisplayName, out[j].DisplayName)
	})
	return out, nil
}

func entryFor(v scan.Visit, fsys safeio.FS, m *pathmap.Mapper) Entry {
	name := pathmap.Stem(v.Name)
	display := name
	if m.Prefix != "" && strings.HasPrefix(name, m.Prefix) && len(name) > len(m.Prefix) {
		display = strings.TrimPrefix(name, m.Prefix)
	}
	category := path.Dir(v.Rel)
	if category == "." {
		category = OtherCategory
	}
	e := Entry{
		Category:    category,
		Name:        name,
		DisplayName: display,
		SourcePath:  "/" + path.Join(m.Label(), v.Rel),
		DocPath:     "/" + path.Join(pathmap.DocTarget.Label, pathmap.ReplaceExt(v.Rel, pathmap.DocTarget.Ext)),
		DisplayPath: "/" + path.Join(pathmap.DisplayTarget.Label, pathmap.ReplaceExt(v.Rel, pathmap.DisplayTarget.Ext)),
	}
	if size, err := fsys.Size(m.Mirror(v.Path, pathmap.DocTarget, false)); err == nil && size > 0 {
		e.HasDoc = true
	}
	return e
}

func lessFold(a, b string) bool {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	if la != lb {
		return la < lb
	}
	return a < b
}

// Item is one sidebar link.
type Item struct {
	Text string `json:"text"`
	Link string `json:"link"`
}

// Group is one titled sidebar section.
type Group struct {
	Text  string `json:"text"`
	Items []Item `json:"items"`
}

// Sidebar groups the documented entries by category. Group titles come from
// titles when present and default to the category. Groups follow category
// order; items are sorted by label.
func Sidebar(entries []Entry, titles map[string]string) []Group {
	byCat := map[string][]Item{}
	var cats []string
	for _, e := range entries {
		if !e.HasDoc {
			continue
		}
		if _, ok := byCat[e.Category]; !ok {
			cats = append(cats, e.Category)
		}
		link := strings.TrimSuffix(e.DocPath, path.Ext(e.DocPath))
		link = strings.TrimPrefix(link, "/"+pathmap.DocTarget.Label)
		byCat[e.Category] = append(byCat[e.Category], Item{Text: e.Name, Link: link})
	}
	sort.Strings(cats)

	out := make([]Group, 0, len(cats))
	for _, c := range cats {
		items := byCat[c]
		sort.SliceStable(items, func(i, j int) bool { return lessFold(items[i].Text, items[j].Text) })
		title := c
		if t, ok := titles[c]; ok && strings.TrimSpace(t) != "" {
			title = t
		}
		out = append(out, Group{Text: title, Items: items})
	}
	return out
}
