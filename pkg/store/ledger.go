// CLAUDE:SUMMARY Append-only cleaning ledger: entry schema, JSON-file backend with serialized read-modify-write.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/hazyhaar/aadhaar-pulse/pkg/geo"
)

// SampleLimit caps the corrections kept per ledger entry.
const SampleLimit = 100

// Entry is one cleaning run in the ledger.
type Entry struct {
	RunID             string           `json:"run_id,omitempty"`
	Dataset           string           `json:"dataset"`
	Timestamp         string           `json:"timestamp"`
	RowsProcessed     int              `json:"rows_processed"`
	CorrectionsCount  int              `json:"corrections_count"`
	CorrectionsSample []geo.Correction `json:"corrections_sample"`
}

// Sample returns the first SampleLimit corrections.
func Sample(c []geo.Correction) []geo.Correction {
	if len(c) > SampleLimit {
		c = c[:SampleLimit]
	}
	out := make([]geo.Correction, len(c))
	copy(out, c)
	return out
}

// Ledger is the append-only history of cleaning runs. Append is serialized
// by every implementation.
type Ledger interface {
	Append(ctx context.Context, e Entry) error
	Entries(ctx context.Context) ([]Entry, error)
	Close() error
}

// JSONLedger keeps the ledger as a JSON array in one file. A missing, empty
// or unparseable file reads as an empty ledger.
type JSONLedger struct {
	mu     sync.Mutex
	path   string
	logger *slog.Logger
}

// NewJSONLedger returns a ledger backed by the file at path.
func NewJSONLedger(path string, logger *slog.Logger) (*JSONLedger, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create ledger dir: %w", err)
	}
	return &JSONLedger{path: path, logger: logger}, nil
}

// Append reads the ledger, appends e and rewrites it atomically, all under
// the ledger lock.
func (l *JSONLedger) Append(ctx context.Context, e Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	entries := l.readLocked()
	entries = append(entries, e)

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal ledger: %w", err)
	}
	return writeAtomic(l.path, func(f *os.File) error {
		_, err := f.Write(data)
		return err
	})
}

func (l *JSONLedger) Entries(ctx context.Context) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.readLocked(), nil
}

func (l *JSONLedger) Close() error { return nil }

func (l *JSONLedger) readLocked() []Entry {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			l.logger.Warn("ledger unreadable, treating as empty", "path", l.path, "error", err)
		}
		return []Entry{}
	}
	if strings.TrimSpace(string(data)) == "" {
		return []Entry{}
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		l.logger.Warn("ledger corrupted, treating as empty", "path", l.path, "error", err)
		return []Entry{}
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries
}

// OpenLedger opens the ledger backend named by driver. The json driver
// defaults its path to <dir>/cleaning_log.json when dsn is empty.
func OpenLedger(driver, dsn, dir string, logger *slog.Logger) (Ledger, error) {
	switch driver {
	case "", "json":
		if dsn == "" {
			dsn = filepath.Join(dir, "cleaning_log.json")
		}
		return NewJSONLedger(dsn, logger)
	case "sqlite", "postgres":
		if driver == "sqlite" {
			if dsn == "" {
				dsn = filepath.Join(dir, "cleaning_log.db")
			}
			if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
				return nil, fmt.Errorf("create ledger dir: %w", err)
			}
		}
		return OpenSQLLedger(driver, dsn, logger)
	default:
		return nil, fmt.Errorf("unsupported ledger driver %q", driver)
	}
}
