// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package ledger keeps a SQLite history of processed batch files. It is
// informational only: whether a batch is skipped is decided by the presence
// of its output file.
package ledger

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is bumped whenever schema.sql changes. Older ledgers must be
// deleted; they hold history only.
const schemaVersion = 1

// ErrSchemaMismatch indicates a ledger written by an incompatible version.
var ErrSchemaMismatch = errors.New("ledger schema version mismatch")

// Status of a recorded batch.
type Status string

const (
	StatusDone    Status = "done"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Entry is one processed batch.
type Entry struct {
	ID          int64
	RunID       string
	Stage       string
	ReviewType  string
	BatchIndex  int
	InputPath   string
	OutputPath  string
	ReviewCount int
	Status      Status
	Error       string
	Duration    time.Duration
	FinishedAt  time.Time
}

// Filter narrows History. Zero fields match everything.
type Filter struct {
	RunID      string
	Stage      string
	ReviewType string
	Limit      int
}

// Ledger is a handle on the history database.
type Ledger struct {
	db    *sql.DB
	path  string
	runID string
}

// Open creates or opens the ledger at path and starts a new run.
func Open(ctx context.Context, path string) (*Ledger, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create ledger dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	l := &Ledger{db: db, path: path, runID: uuid.NewString()}
	if err := l.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return l, nil
}

// Path returns the database file location.
func (l *Ledger) Path() string {
	return l.path
}

// RunID identifies the entries written through this handle.
func (l *Ledger) RunID() string {
	return l.runID
}

// Close closes the database.
func (l *Ledger) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}

// Record stores one batch outcome under the current run. A nil ledger
// records nothing.
func (l *Ledger) Record(ctx context.Context, e Entry) error {
	if l == nil {
		return nil
	}
	if e.RunID == "" {
		e.RunID = l.runID
	}
	if e.FinishedAt.IsZero() {
		e.FinishedAt = time.Now()
	}
	if e.Status == "" {
		e.Status = StatusDone
	}

	_, err := l.db.ExecContext(ctx,
		`INSERT INTO batches (
            run_id, stage, review_type, batch_index, input_path, output_path,
            review_count, status, error, duration_ms, finished_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.RunID,
		e.Stage,
		e.ReviewType,
		e.BatchIndex,
		e.InputPath,
		e.OutputPath,
		e.ReviewCount,
		string(e.Status),
		nullableString(e.Error),
		e.Duration.Milliseconds(),
		e.FinishedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record batch %s/%d: %w", e.Stage, e.BatchIndex, err)
	}
	return nil
}

// History returns recorded batches, newest first.
func (l *Ledger) History(ctx context.Context, f Filter) ([]Entry, error) {
	var (
		clauses []string
		args    []interface{}
	)
	if f.RunID != "" {
		clauses = append(clauses, "run_id = ?")
		args = append(args, f.RunID)
	}
	if f.Stage != "" {
		clauses = append(clauses, "stage = ?")
		args = append(args, f.Stage)
	}
	if f.ReviewType != "" {
		clauses = append(clauses, "review_type = ?")
		args = append(args, f.ReviewType)
	}

	query := `SELECT id, run_id, stage, review_type, batch_index, input_path, output_path,
        review_count, status, error, duration_ms, finished_at FROM batches`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY id DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e          Entry
			status     string
			errText    sql.NullString
			durationMs int64
			finishedAt string
		)
		if err := rows.Scan(&e.ID, &e.RunID, &e.Stage, &e.ReviewType, &e.BatchIndex,
			&e.InputPath, &e.OutputPath, &e.ReviewCount, &status, &errText,
			&durationMs, &finishedAt); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		e.Status = Status(status)
		e.Error = errText.String
		e.Duration = time.Duration(durationMs) * time.Millisecond
		if ts, err := time.Parse(time.RFC3339Nano, finishedAt); err == nil {
			e.FinishedAt = ts
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (l *Ledger) initSchema(ctx context.Context) error {
	var tableExists int
	err := l.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return l.createSchema(ctx)
	}

	var version int
	if err := l.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: %s has version %d, expected %d (delete it to start a new history)",
			ErrSchemaMismatch, l.path, version, schemaVersion)
	}
	return nil
}

func (l *Ledger) createSchema(ctx context.Context) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
