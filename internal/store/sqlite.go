package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/me/cpusched/pkg/model"

	_ "modernc.org/sqlite"
)

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and returns a Store.
// Use ":memory:" for an in-memory database (useful in tests).
func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	// Every connection to ":memory:" is a separate database.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma wal: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		logger: logger.With("component", "store"),
	}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Migrate creates all required tables and indexes.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	s.logger.Debug("sql", "op", "migrate")
	return migrate(ctx, s.db)
}

// SaveRun stores a run and its per-process results in one transaction.
func (s *SQLiteStore) SaveRun(ctx context.Context, res *model.RunResult) error {
	s.logger.Debug("sql", "op", "insert", "table", "runs", "id", res.ID, "processes", len(res.Processes))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	c := res.Counts()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, algorithm, trace_name, time_unit_ns, context_switches, process_count,
		                   success, deadline, cancelled, aborted, started_at, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.ID, string(res.Algorithm), res.TraceName, int64(res.TimeUnit), res.ContextSwitches, len(res.Processes),
		c.Success, c.Deadline, c.Cancelled, boolToInt(res.Aborted),
		res.StartedAt.UTC().Format(timeLayout), res.CompletedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO process_results (run_id, seq, name, deadline, start_time, burst_time, state,
		                              dispatched, visits, real_start_ns, real_end_ns, current_burst_ns)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare process insert: %w", err)
	}
	defer stmt.Close()

	for i, p := range res.Processes {
		if _, err := stmt.ExecContext(ctx,
			res.ID, i, p.Name, p.Deadline, p.StartTime, p.BurstTime, string(p.State),
			boolToInt(p.Dispatched), p.Visits, int64(p.RealStart), int64(p.RealEnd), int64(p.CurrentBurst),
		); err != nil {
			return fmt.Errorf("insert process %s: %w", p.Name, err)
		}
	}
	return tx.Commit()
}

// GetRun loads a run with its process results in trace order.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*model.RunResult, error) {
	s.logger.Debug("sql", "op", "select", "table", "runs", "id", id)

	row := s.db.QueryRowContext(ctx,
		`SELECT id, algorithm, trace_name, time_unit_ns, context_switches, aborted, started_at, completed_at
		 FROM runs WHERE id = ?`, id)
	res, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	procs, err := s.processResults(ctx, id)
	if err != nil {
		return nil, err
	}
	res.Processes = procs
	return res, nil
}

// ListRuns returns a page of run summaries, newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context, opts model.ListOptions) ([]*model.RunSummary, int, error) {
	s.logger.Debug("sql", "op", "list", "table", "runs", "limit", opts.Limit, "offset", opts.Offset)
	opts.Clamp()

	whereSQL := ""
	var args []any
	if opts.Algorithm != "" {
		whereSQL = " WHERE algorithm = ?"
		args = append(args, opts.Algorithm)
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`+whereSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, algorithm, trace_name, context_switches, process_count, success, deadline, cancelled, started_at, completed_at
		 FROM runs`+whereSQL+` ORDER BY started_at DESC LIMIT ? OFFSET ?`,
		append(args, opts.Limit, opts.Offset)...,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var runs []*model.RunSummary
	for rows.Next() {
		var r model.RunSummary
		var alg, startedAt, completedAt string
		if err := rows.Scan(&r.ID, &alg, &r.TraceName, &r.ContextSwitches, &r.ProcessCount,
			&r.Counts.Success, &r.Counts.Deadline, &r.Counts.Cancelled, &startedAt, &completedAt); err != nil {
			return nil, 0, err
		}
		r.Algorithm = model.Algorithm(alg)
		r.Counts.Total = r.ProcessCount
		r.StartedAt, _ = time.Parse(timeLayout, startedAt)
		r.CompletedAt, _ = time.Parse(timeLayout, completedAt)
		runs = append(runs, &r)
	}
	return runs, total, rows.Err()
}

// LoadRuns returns complete runs for the report, oldest first.
func (s *SQLiteStore) LoadRuns(ctx context.Context, alg model.Algorithm) ([]*model.RunResult, error) {
	s.logger.Debug("sql", "op", "load", "table", "runs", "algorithm", string(alg))

	query := `SELECT id, algorithm, trace_name, time_unit_ns, context_switches, aborted, started_at, completed_at FROM runs`
	var args []any
	if alg != "" {
		query += ` WHERE algorithm = ?`
		args = append(args, string(alg))
	}
	query += ` ORDER BY started_at ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	var runs []*model.RunResult
	for rows.Next() {
		res, err := scanRun(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		runs = append(runs, res)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	// Release the connection before issuing the per-run queries.
	rows.Close()

	for _, res := range runs {
		if res.Processes, err = s.processResults(ctx, res.ID); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

// DeleteRun removes a run and its process results.
func (s *SQLiteStore) DeleteRun(ctx context.Context, id string) error {
	s.logger.Debug("sql", "op", "delete", "table", "runs", "id", id)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	// foreign_keys is per connection, so do not rely on the cascade.
	if _, err := tx.ExecContext(ctx, `DELETE FROM process_results WHERE run_id = ?`, id); err != nil {
		return err
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.NewNotFoundError("run", id)
	}
	return tx.Commit()
}

func (s *SQLiteStore) processResults(ctx context.Context, runID string) ([]model.ProcessResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, deadline, start_time, burst_time, state, dispatched, visits, real_start_ns, real_end_ns, current_burst_ns
		 FROM process_results WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ProcessResult
	for rows.Next() {
		var p model.ProcessResult
		var state string
		var dispatched int
		var realStart, realEnd, burst int64
		if err := rows.Scan(&p.Name, &p.Deadline, &p.StartTime, &p.BurstTime, &state, &dispatched,
			&p.Visits, &realStart, &realEnd, &burst); err != nil {
			return nil, err
		}
		p.State = model.ProcessState(state)
		p.Dispatched = dispatched != 0
		p.RealStart = time.Duration(realStart)
		p.RealEnd = time.Duration(realEnd)
		p.CurrentBurst = time.Duration(burst)
		out = append(out, p)
	}
	return out, rows.Err()
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (*model.RunResult, error) {
	var res model.RunResult
	var alg, startedAt, completedAt string
	var unit int64
	var aborted int
	if err := sc.Scan(&res.ID, &alg, &res.TraceName, &unit, &res.ContextSwitches, &aborted, &startedAt, &completedAt); err != nil {
		return nil, err
	}
	res.Algorithm = model.Algorithm(alg)
	res.TimeUnit = time.Duration(unit)
	res.Aborted = aborted != 0
	res.StartedAt, _ = time.Parse(timeLayout, startedAt)
	res.CompletedAt, _ = time.Parse(timeLayout, completedAt)
	return &res, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
