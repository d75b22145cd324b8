package ledger

import (
	"context"
	"database/sql"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresLedger stores entries in the doc_runs table.
type PostgresLedger struct {
	db *sql.DB

	schemaOnce sync.Once
	schemaErr  error
}

func NewPostgres(dsn string) (*PostgresLedger, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, errors.Wrap(err, "ledger: open postgres")
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.WithHint(errors.Wrap(err, "ledger: ping postgres"), "check COMPONENTGEN_LEDGER_DSN")
	}
	return &PostgresLedger{db: db}, nil
}

func (l *PostgresLedger) ensureSchema(ctx context.Context) error {
	l.schemaOnce.Do(func() {
		_, l.schemaErr = l.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS doc_runs (
  id SERIAL PRIMARY KEY,
  run_id TEXT NOT NULL,
  path TEXT NOT NULL,
  status TEXT NOT NULL,
  error TEXT NOT NULL DEFAULT '',
  bytes INTEGER NOT NULL DEFAULT 0,
  created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_doc_runs_run_id ON doc_runs (run_id);
`)
	})
	return l.schemaErr
}

func (l *PostgresLedger) Record(ctx context.Context, e Entry) error {
	if err := l.ensureSchema(ctx); err != nil {
		return errors.Wrap(err, "ledger: ensure schema")
	}
	n := normalize(e)
	_, err := l.db.ExecContext(ctx, `
INSERT INTO doc_runs (run_id, path, status, error, bytes, created_at)
VALUES ($1,$2,$3,$4,$5,$6)`,
		n.RunID, n.Path, string(n.Status), n.Error, n.Bytes, n.At)
	return errors.Wrap(err, "ledger: insert")
}

// Entries lists the entries of one run in insertion order.
func (l *PostgresLedger) Entries(ctx context.Context, runID string) ([]Entry, error) {
	if err := l.ensureSchema(ctx); err != nil {
		return nil, err
	}
	rows, err := l.db.QueryContext(ctx, `SELECT run_id, path, status, error, bytes, created_at
FROM doc_runs WHERE run_id = $1 ORDER BY id`, strings.TrimSpace(runID))
	if err != nil {
		return nil, errors.Wrap(err, "ledger: query")
	}
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		var e Entry
		var status string
		if err := rows.Scan(&e.RunID, &e.Path, &status, &e.Error, &e.Bytes, &e.At); err != nil {
			return nil, errors.Wrap(err, "ledger: scan")
		}
		e.Status = Status(status)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (l *PostgresLedger) Close() error { return l.db.Close() }
