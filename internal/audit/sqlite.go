// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/rigrun-ide/internal/catalog"
	"github.com/jeranaias/rigrun-ide/internal/compliance"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS audit_entries (
	seq                 INTEGER PRIMARY KEY AUTOINCREMENT,
	id                  TEXT NOT NULL UNIQUE,
	ts                  TEXT NOT NULL,
	task_category       TEXT NOT NULL,
	model_type          TEXT NOT NULL,
	model_id            TEXT NOT NULL,
	data_classification TEXT NOT NULL,
	target_environment  TEXT NOT NULL,
	reason              TEXT NOT NULL,
	approved            INTEGER NOT NULL,
	forced              TEXT NOT NULL DEFAULT '',
	fallback            INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_audit_ts ON audit_entries(ts);

-- Entries are append-only.
CREATE TRIGGER IF NOT EXISTS audit_no_update BEFORE UPDATE ON audit_entries
BEGIN SELECT RAISE(ABORT, 'audit entries are append-only'); END;

CREATE TRIGGER IF NOT EXISTS audit_no_delete BEFORE DELETE ON audit_entries
BEGIN SELECT RAISE(ABORT, 'audit entries are append-only'); END;
`

// SQLiteSink stores entries in a local SQLite database.
type SQLiteSink struct {
	db   *sql.DB
	path string
}

// NewSQLiteSink opens (or creates) the database at path.
func NewSQLiteSink(path string) (*SQLiteSink, error) {
	if path == "" {
		return nil, errors.New("sqlite sink: path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create audit directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}
	// One writer keeps inserts serialised without SQLITE_BUSY retries.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %q: %w", p, err)
		}
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create audit schema: %w", err)
	}

	return &SQLiteSink{db: db, path: path}, nil
}

// Path returns the database file.
func (s *SQLiteSink) Path() string {
	return s.path
}

// Append implements Sink with a single INSERT.
func (s *SQLiteSink) Append(ctx context.Context, e Entry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_entries
			(id, ts, task_category, model_type, model_id, data_classification,
			 target_environment, reason, approved, forced, fallback)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID,
		e.Timestamp.UTC().Format(time.RFC3339Nano),
		e.TaskCategory.String(),
		e.ModelType.String(),
		e.ModelID,
		e.DataClassification.String(),
		e.TargetEnvironment.String(),
		e.Reason,
		boolToInt(e.Approved),
		e.Forced,
		boolToInt(e.Fallback),
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}
	return nil
}

// Recent implements Reader.
func (s *SQLiteSink) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, ts, task_category, model_type, model_id, data_classification,
		       target_environment, reason, approved, forced, fallback
		FROM audit_entries
		ORDER BY seq DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return entries, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Count returns the number of stored entries.
func (s *SQLiteSink) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM audit_entries").Scan(&n)
	return n, err
}

// Close closes the database.
func (s *SQLiteSink) Close() error {
	return s.db.Close()
}

func scanEntry(rows *sql.Rows) (Entry, error) {
	var (
		e                       Entry
		ts, category, modelType string
		classification, env     string
		approved, fallback      int
	)
	if err := rows.Scan(&e.ID, &ts, &category, &modelType, &e.ModelID, &classification,
		&env, &e.Reason, &approved, &e.Forced, &fallback); err != nil {
		return e, fmt.Errorf("failed to scan audit entry: %w", err)
	}

	var err error
	if e.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
		return e, fmt.Errorf("audit entry %s: bad timestamp: %w", e.ID, err)
	}
	if e.TaskCategory, err = compliance.ParseTaskCategory(category); err != nil {
		return e, fmt.Errorf("audit entry %s: %w", e.ID, err)
	}
	if e.ModelType, err = catalog.ParseModelType(modelType); err != nil {
		return e, fmt.Errorf("audit entry %s: %w", e.ID, err)
	}
	if e.DataClassification, err = compliance.ParseDataClassification(classification); err != nil {
		return e, fmt.Errorf("audit entry %s: %w", e.ID, err)
	}
	if e.TargetEnvironment, err = compliance.ParseTargetEnvironment(env); err != nil {
		return e, fmt.Errorf("audit entry %s: %w", e.ID, err)
	}
	e.Approved = approved != 0
	e.Fallback = fallback != 0
	return e, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
