// Package ledger records the per-file outcome of doc generation runs.
package ledger

import (
	"context"
	"strings"
	"time"
)

type Status string

const (
	StatusGenerated Status = "generated"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// Entry is one doc file outcome within a run.
type Entry struct {
	RunID  string    `json:"run_id"`
	Path   string    `json:"path"`
	Status Status    `json:"status"`
	Error  string    `json:"error,omitempty"`
	Bytes  int       `json:"bytes"`
	At     time.Time `json:"at"`
}

// Ledger persists entries. Implementations are safe for concurrent use.
type Ledger interface {
	Record(ctx context.Context, e Entry) error
	Close() error
}

// Nop discards every entry.
type Nop struct{}

func (Nop) Record(context.Context, Entry) error { return nil }
func (Nop) Close() error                        { return nil }

// Open picks the Postgres ledger when dsn is set, the JSONL file ledger when
// path is set, and Nop otherwise.
func Open(dsn, path string) (Ledger, error) {
	if dsn = strings.TrimSpace(dsn); dsn != "" {
		return NewPostgres(dsn)
	}
	if path = strings.TrimSpace(path); path != "" {
		return NewFile(path), nil
	}
	return Nop{}, nil
}

func normalize(e Entry) Entry {
	e.RunID = strings.TrimSpace(e.RunID)
	e.Path = strings.TrimSpace(e.Path)
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	return e
}
