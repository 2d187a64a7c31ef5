package history

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	ferrors "git.home.luguber.info/inful/solveplot/internal/foundation/errors"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens (creating if needed) the history database.
// Use ":memory:" for an in-memory database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// a single connection keeps ":memory:" databases shared across calls
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at INTEGER NOT NULL,
		ended_at INTEGER NOT NULL,
		outcome TEXT NOT NULL,
		failed_stage TEXT NOT NULL DEFAULT '',
		row_count INTEGER NOT NULL DEFAULT 0,
		column_names TEXT NOT NULL DEFAULT '',
		revision TEXT NOT NULL DEFAULT '',
		error TEXT NOT NULL DEFAULT ''
	);
	CREATE TABLE IF NOT EXISTS stages (
		run_id TEXT NOT NULL REFERENCES runs(id),
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		result TEXT NOT NULL,
		duration_ms INTEGER NOT NULL,
		PRIMARY KEY (run_id, position)
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record stores run and its stages in one transaction.
func (s *SQLiteStore) Record(ctx context.Context, run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, ended_at, outcome, failed_stage, row_count, column_names, revision, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Start.UnixMilli(), run.End.UnixMilli(), run.Outcome, run.FailedStage,
		run.Rows, strings.Join(run.Columns, "\x1f"), run.Revision, run.Error,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	for i, st := range run.Stages {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO stages (run_id, position, name, result, duration_ms) VALUES (?, ?, ?, ?, ?)",
			run.ID, i, st.Name, st.Result, st.Duration.Milliseconds(),
		)
		if err != nil {
			return fmt.Errorf("insert stage: %w", err)
		}
	}
	return tx.Commit()
}

// Recent returns up to limit runs, newest first, without stages.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, ended_at, outcome, failed_stage, row_count, column_names, revision, error
		 FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return runs, nil
}

// Get returns the run with id, including its stages.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT id, started_at, ended_at, outcome, failed_stage, row_count, column_names, revision, error
		 FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, ferrors.NotFoundError("run not found").WithContext("run_id", id).Build()
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT name, result, duration_ms FROM stages WHERE run_id = ? ORDER BY position", id)
	if err != nil {
		return nil, fmt.Errorf("query stages: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var st StageRecord
		var ms int64
		if err := rows.Scan(&st.Name, &st.Result, &ms); err != nil {
			return nil, fmt.Errorf("scan stage: %w", err)
		}
		st.Duration = time.Duration(ms) * time.Millisecond
		run.Stages = append(run.Stages, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return run, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (*Run, error) {
	var r Run
	var started, ended int64
	var columns string
	err := sc.Scan(&r.ID, &started, &ended, &r.Outcome, &r.FailedStage, &r.Rows, &columns, &r.Revision, &r.Error)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}
	r.Start = time.UnixMilli(started)
	r.End = time.UnixMilli(ended)
	if columns != "" {
		r.Columns = strings.Split(columns, "\x1f")
	}
	return &r, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
