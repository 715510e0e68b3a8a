package store

import (
	"context"
	"database/sql"
	"strings"
)

// schema contains the DDL for the run history tables.
// Each statement uses IF NOT EXISTS for idempotency.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		id               TEXT PRIMARY KEY,
		algorithm        TEXT NOT NULL,
		trace_name       TEXT NOT NULL DEFAULT '',
		time_unit_ns     INTEGER NOT NULL,
		context_switches INTEGER NOT NULL DEFAULT 0,
		process_count    INTEGER NOT NULL DEFAULT 0,
		success          INTEGER NOT NULL DEFAULT 0,
		deadline         INTEGER NOT NULL DEFAULT 0,
		cancelled        INTEGER NOT NULL DEFAULT 0,
		aborted          INTEGER NOT NULL DEFAULT 0,
		started_at       TEXT NOT NULL,
		completed_at     TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS process_results (
		run_id           TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		seq              INTEGER NOT NULL,
		name             TEXT NOT NULL,
		deadline         INTEGER NOT NULL,
		start_time       INTEGER NOT NULL,
		burst_time       INTEGER NOT NULL,
		state            TEXT NOT NULL,
		dispatched       INTEGER NOT NULL DEFAULT 0,
		real_start_ns    INTEGER NOT NULL DEFAULT 0,
		real_end_ns      INTEGER NOT NULL DEFAULT 0,
		current_burst_ns INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (run_id, seq)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_runs_algorithm ON runs(algorithm)`,
	`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)`,
	// Report grouping
	`CREATE INDEX IF NOT EXISTS idx_runs_alg_count ON runs(algorithm, process_count)`,
}

// alterStatements are column additions that need special handling since
// SQLite doesn't support IF NOT EXISTS for ALTER TABLE ADD COLUMN.
var alterStatements = []struct {
	table    string
	column   string
	alterSQL string
	indexSQL string // Optional index to create after column is added
}{
	{
		table:    "process_results",
		column:   "visits",
		alterSQL: "ALTER TABLE process_results ADD COLUMN visits INTEGER NOT NULL DEFAULT 0",
		indexSQL: "CREATE INDEX IF NOT EXISTS idx_process_results_state ON process_results(state)",
	},
}

// migrate executes all schema DDL statements, alter migrations, and post-migration indexes.
func migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}

	for _, alter := range alterStatements {
		if err := addColumnIfNotExists(ctx, db, alter.table, alter.column, alter.alterSQL); err != nil {
			return err
		}
		if alter.indexSQL != "" {
			if _, err := db.ExecContext(ctx, alter.indexSQL); err != nil {
				return err
			}
		}
	}
	return nil
}

// addColumnIfNotExists adds a column to a table if it doesn't already exist.
func addColumnIfNotExists(ctx context.Context, db *sql.DB, table, column, alterSQL string) error {
	exists, err := columnExists(ctx, db, table, column)
	if err != nil || exists {
		return err
	}
	_, err = db.ExecContext(ctx, alterSQL)
	return err
}

func columnExists(ctx context.Context, db *sql.DB, table, column string) (bool, error) {
	rows, err := db.QueryContext(ctx, "PRAGMA table_info("+table+")")
	if err != nil {
		return false, err
	}
	defer rows.Close()

	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dfltValue *string
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			return false, err
		}
		if strings.EqualFold(name, column) {
			return true, nil
		}
	}
	return false, rows.Err()
}
