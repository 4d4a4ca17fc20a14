// Package export persists run results: a SQLite report of the final state,
// the populated log table rows and timing records, and atomic file output.
package export

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/agentic-research/proflow/internal/runner"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	pipeline TEXT NOT NULL,
	created INTEGER NOT NULL,
	clock TEXT NOT NULL,
	state JSON
);

CREATE TABLE IF NOT EXISTS log_rows (
	run_id TEXT NOT NULL,
	row INTEGER NOT NULL,
	record JSON NOT NULL,
	PRIMARY KEY (run_id, row)
) WITHOUT ROWID;

CREATE TABLE IF NOT EXISTS timings (
	run_id TEXT NOT NULL,
	seq INTEGER NOT NULL,
	process TEXT NOT NULL,
	grp TEXT,
	row INTEGER NOT NULL,
	input_ns INTEGER NOT NULL,
	call_ns INTEGER NOT NULL,
	output_ns INTEGER NOT NULL,
	total_ns INTEGER NOT NULL,
	PRIMARY KEY (run_id, seq)
) WITHOUT ROWID;
`

// SQLiteExporter writes run reports into a SQLite database. Each report is
// written in a single transaction.
type SQLiteExporter struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteExporter opens (or creates) the report database at dbPath.
func NewSQLiteExporter(dbPath string) (*SQLiteExporter, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteExporter{db: db, now: time.Now}, nil
}

// Close closes the database.
func (e *SQLiteExporter) Close() error { return e.db.Close() }

// WriteRun records the runner's current session under a new run id and
// returns it. Only populated log rows are written.
func (e *SQLiteExporter) WriteRun(pipeline string, r *runner.Runner) (string, error) {
	id := uuid.NewString()
	state, err := json.Marshal(r.State())
	if err != nil {
		return "", fmt.Errorf("encode state: %w", err)
	}

	tx, err := e.db.Begin()
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback() }() // no-op after commit

	if _, err := tx.Exec(`INSERT INTO runs (id, pipeline, created, clock, state) VALUES (?, ?, ?, ?, ?)`,
		id, pipeline, e.now().Unix(), r.Clock().String(), string(state)); err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	logs := r.LogTable()
	for _, row := range logs.Populated() {
		rec, err := json.Marshal(logs.Row(row))
		if err != nil {
			return "", fmt.Errorf("encode log row %d: %w", row, err)
		}
		if _, err := tx.Exec(`INSERT INTO log_rows (run_id, row, record) VALUES (?, ?, ?)`,
			id, row, string(rec)); err != nil {
			return "", fmt.Errorf("insert log row %d: %w", row, err)
		}
	}

	for i, t := range r.Timings() {
		if _, err := tx.Exec(`INSERT INTO timings
			(run_id, seq, process, grp, row, input_ns, call_ns, output_ns, total_ns)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, i, t.ID, t.Group, t.Row,
			t.Input.Nanoseconds(), t.Call.Nanoseconds(), t.Output.Nanoseconds(), t.Total.Nanoseconds()); err != nil {
			return "", fmt.Errorf("insert timing %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit run %s: %w", id, err)
	}
	return id, nil
}
