package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/hazyhaar/aadhaar-pulse/pkg/geo"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// SQLLedger stores the ledger in a cleaning_log table. Each Append is a
// single INSERT, so concurrent writers never lose an entry.
type SQLLedger struct {
	db     *sql.DB
	driver string
	logger *slog.Logger
}

// OpenSQLLedger opens (or creates) the ledger table. driver is "sqlite"
// (dsn is a file path) or "postgres" (dsn is a lib/pq connection string).
func OpenSQLLedger(driver, dsn string, logger *slog.Logger) (*SQLLedger, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var ddl string
	switch driver {
	case "sqlite":
		dsn += "?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)"
		ddl = `CREATE TABLE IF NOT EXISTS cleaning_log (
			id                 INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id             TEXT NOT NULL DEFAULT '',
			dataset            TEXT NOT NULL,
			ts                 TEXT NOT NULL,
			rows_processed     INTEGER NOT NULL,
			corrections_count  INTEGER NOT NULL,
			corrections_sample TEXT NOT NULL DEFAULT '[]'
		)`
	case "postgres":
		ddl = `CREATE TABLE IF NOT EXISTS cleaning_log (
			id                 BIGSERIAL PRIMARY KEY,
			run_id             TEXT NOT NULL DEFAULT '',
			dataset            TEXT NOT NULL,
			ts                 TEXT NOT NULL,
			rows_processed     INTEGER NOT NULL,
			corrections_count  INTEGER NOT NULL,
			corrections_sample TEXT NOT NULL DEFAULT '[]'
		)`
	default:
		return nil, fmt.Errorf("unsupported ledger driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open ledger db: %w", err)
	}
	if driver == "sqlite" {
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec(ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("create cleaning_log table: %w", err)
	}
	return &SQLLedger{db: db, driver: driver, logger: logger}, nil
}

// Close closes the database connection.
func (l *SQLLedger) Close() error {
	return l.db.Close()
}

func (l *SQLLedger) Append(ctx context.Context, e Entry) error {
	sample := e.CorrectionsSample
	if sample == nil {
		sample = []geo.Correction{}
	}
	data, err := json.Marshal(sample)
	if err != nil {
		return fmt.Errorf("marshal corrections sample: %w", err)
	}

	q := l.rebind(`INSERT INTO cleaning_log
		(run_id, dataset, ts, rows_processed, corrections_count, corrections_sample)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if _, err := l.db.ExecContext(ctx, q, e.RunID, e.Dataset, e.Timestamp,
		e.RowsProcessed, e.CorrectionsCount, string(data)); err != nil {
		return fmt.Errorf("append ledger entry for %s: %w", e.Dataset, err)
	}
	return nil
}

// Entries returns every run in insertion order. A corrupted sample column
// reads as an empty sample.
func (l *SQLLedger) Entries(ctx context.Context) ([]Entry, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT run_id, dataset, ts, rows_processed,
		corrections_count, corrections_sample FROM cleaning_log ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list ledger: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		var sample string
		if err := rows.Scan(&e.RunID, &e.Dataset, &e.Timestamp, &e.RowsProcessed,
			&e.CorrectionsCount, &sample); err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		if err := json.Unmarshal([]byte(sample), &e.CorrectionsSample); err != nil {
			l.logger.Warn("ledger sample corrupted, treating as empty", "run_id", e.RunID, "error", err)
			e.CorrectionsSample = []geo.Correction{}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// rebind rewrites ? placeholders to $n for postgres.
func (l *SQLLedger) rebind(q string) string {
	if l.driver != "postgres" {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
