package ledger

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/cockroachdb/errors"
)

// FileLedger appends entries as JSON lines.
type FileLedger struct {
	path string
	mu   sync.Mutex
}

func NewFile(path string) *FileLedger {
	return &FileLedger{path: path}
}

func (l *FileLedger) Record(ctx context.Context, e Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b, err := json.Marshal(normalize(e))
	if err != nil {
		return errors.Wrap(err, "ledger: encode entry")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return errors.Wrap(err, "ledger: create dir")
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrapf(err, "ledger: open %s", l.path)
	}
	if _, err := f.Write(append(b, '\n')); err != nil {
		_ = f.Close()
		return errors.Wrapf(err, "ledger: append %s", l.path)
	}
	return f.Close()
}

func (l *FileLedger) Close() error { return nil }

// Entries reads back every entry, optionally filtered by run.
func (l *FileLedger) Entries(runID string) ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	f, err := os.Open(l.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "ledger: open %s", l.path)
	}
	defer f.Close()

	var out []Entry
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		if len(sc.Bytes()) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			return nil, errors.Wrap(err, "ledger: decode entry")
		}
		if runID == "" || e.RunID == runID {
			out = append(out, e)
		}
	}
	return out, sc.Err()
}
