// =============================================================================
// Timesheet & Invoice Merger - Run Journal
// =============================================================================
//
// SQLite history of runs and per-client outcomes.
//
// TABLES:
//   runs            one row per run
//   client_results  one row per client of a run
//
// =============================================================================

// Package journal keeps a local SQLite history of runs and per-client outcomes
// so operators can see what earlier runs did without digging through logs.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/himalkarki2074-stack/Timesheets-and-Invoice-merger/internal/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id       TEXT PRIMARY KEY,
	week         TEXT NOT NULL,
	started_at   INTEGER NOT NULL,
	ended_at     INTEGER NOT NULL,
	dry_run      INTEGER NOT NULL DEFAULT 0,
	processed    INTEGER NOT NULL DEFAULT 0,
	merged       INTEGER NOT NULL DEFAULT 0,
	warnings     INTEGER NOT NULL DEFAULT 0,
	errors       INTEGER NOT NULL DEFAULT 0,
	outcome      TEXT NOT NULL,
	missing      TEXT NOT NULL DEFAULT '',
	ledger_error TEXT NOT NULL DEFAULT '',
	log_file     TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS client_results (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id       TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
	client       TEXT NOT NULL,
	state        TEXT NOT NULL,
	week_path    TEXT NOT NULL DEFAULT '',
	output_path  TEXT NOT NULL DEFAULT '',
	pages        INTEGER NOT NULL DEFAULT 0,
	ledger_row   INTEGER NOT NULL DEFAULT 0,
	warnings     INTEGER NOT NULL DEFAULT 0,
	errors       INTEGER NOT NULL DEFAULT 0,
	failed_files TEXT NOT NULL DEFAULT '',
	message      TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at DESC);
CREATE INDEX IF NOT EXISTS idx_client_results_run ON client_results(run_id);
`

// =============================================================================
// STORE
// =============================================================================

// Store is an open run journal.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the journal database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("mkdir journal: %w", err)
	}
	return open(path, "PRAGMA journal_mode=WAL", "PRAGMA synchronous=NORMAL")
}

// OpenMemory opens a private in-memory journal.
func OpenMemory() (*Store, error) {
	return open(":memory:")
}

func open(path string, pragmas ...string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	// An in-memory database exists per connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas = append([]string{"PRAGMA foreign_keys=ON", "PRAGMA busy_timeout=5000"}, pragmas...)
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("journal %s: %w", p, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply journal schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// =============================================================================
// RECORDING
// =============================================================================

// Record stores a finished run and its client outcomes in one transaction.
func (s *Store) Record(ctx context.Context, sum types.RunSummary) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	ledgerErr := ""
	if sum.LedgerSaveErr != nil {
		ledgerErr = sum.LedgerSaveErr.Error()
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (run_id, week, started_at, ended_at, dry_run,
			processed, merged, warnings, errors, outcome, missing, ledger_error, log_file)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sum.RunID, sum.Week, sum.StartTime.UnixMilli(), sum.EndTime.UnixMilli(), boolInt(sum.DryRun),
		sum.Processed, sum.Merged, sum.Warnings, sum.Errors, string(sum.Outcome()),
		strings.Join(sum.Missing, "\n"), ledgerErr, sum.LogFile)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", sum.RunID, err)
	}

	for _, c := range sum.Clients {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO client_results (run_id, client, state, week_path, output_path,
				pages, ledger_row, warnings, errors, failed_files, message)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			sum.RunID, c.Client, string(c.State), c.WeekPath, c.OutputPath,
			c.Pages, c.LedgerRow, c.Warnings, c.Errors, strings.Join(c.FailedFiles, "\n"), c.Message)
		if err != nil {
			return fmt.Errorf("insert client %s: %w", c.Client, err)
		}
	}

	return tx.Commit()
}

// =============================================================================
// QUERIES
// =============================================================================

// Run is a journal row.
type Run struct {
	RunID       string
	Week        string
	StartTime   time.Time
	EndTime     time.Time
	DryRun      bool
	Processed   int
	Merged      int
	Warnings    int
	Errors      int
	Outcome     types.Outcome
	Missing     []string
	LedgerError string
	LogFile     string
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, week, started_at, ended_at, dry_run, processed, merged,
			warnings, errors, outcome, missing, ledger_error, log_file
		FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			r             Run
			start, end    int64
			dry           int
			outcome, miss string
		)
		if err := rows.Scan(&r.RunID, &r.Week, &start, &end, &dry, &r.Processed, &r.Merged,
			&r.Warnings, &r.Errors, &outcome, &miss, &r.LedgerError, &r.LogFile); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartTime = time.UnixMilli(start)
		r.EndTime = time.UnixMilli(end)
		r.DryRun = dry != 0
		r.Outcome = types.Outcome(outcome)
		if miss != "" {
			r.Missing = strings.Split(miss, "\n")
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Clients returns the per-client outcomes recorded for runID in run order.
func (s *Store) Clients(ctx context.Context, runID string) ([]types.ClientOutcome, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT client, state, week_path, output_path, pages, ledger_row,
			warnings, errors, failed_files, message
		FROM client_results WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query client results: %w", err)
	}
	defer rows.Close()

	var out []types.ClientOutcome
	for rows.Next() {
		var (
			c            types.ClientOutcome
			state, files string
		)
		if err := rows.Scan(&c.Client, &state, &c.WeekPath, &c.OutputPath, &c.Pages, &c.LedgerRow,
			&c.Warnings, &c.Errors, &files, &c.Message); err != nil {
			return nil, fmt.Errorf("scan client result: %w", err)
		}
		c.State = types.ClientState(state)
		if files != "" {
			c.FailedFiles = strings.Split(files, "\n")
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
