// Package registry discovers component modules and records them in
// traversal order. The order is part of the contract: it becomes the
// declaration order of every generated manifest.
package registry

import (
	"context"
	"fmt"

	"componentgen/internal/pathmap"
	"componentgen/internal/scan"
)

// Record is one discovered component.
type Record struct {
	Identifier         string `json:"identifier"`
	SourceRelativePath string `json:"source_relative_path"`
	ImportPath         string `json:"import_path"`
}

// DuplicateComponentError reports two files that map to one identifier.
type DuplicateComponentError struct {
	Identifier string
	First      string
	Second     string
}

func (e *DuplicateComponentError) Error() string {
	return fmt.Sprintf("registry: duplicate component %s: %s and %s", e.Identifier, e.First, e.Second)
}

type walker interface {
	Walk(ctx context.Context, root string, visit scan.VisitFunc) error
}

// Collect walks root and returns one Record per file accepted by match, in
// traversal order. Identifier collisions, invalid names and path derivation
// failures abort the collection.
func Collect(ctx context.Context, w walker, root string, match scan.Matcher, m *pathmap.Mapper) ([]Record, error) {
	var (
		records []Record
		seen    = map[string]string{}
	)
	err := w.Walk(ctx, root, func(v scan.Visit) error {
		if v.IsDir || !match(v.Rel) {
			return nil
		}
		id, err := m.Identifier(v.Name)
		if err != nil {
			return err
		}
		rel, err := m.Rel(v.Path)
		if err != nil {
			return err
		}
		if first, dup := seen[id]; dup {
			return &DuplicateComponentError{Identifier: id, First: first, Second: rel}
		}
		imp, err := m.ImportPath(v.Path)
		if err != nil {
			return err
		}
		seen[id] = rel
		records = append(records, Record{Identifier: id, SourceRelativePath: rel, ImportPath: imp})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Identifiers returns the identifiers of records in order.
func Identifiers(records []Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Identifier
	}
	return out
}
