// Package history keeps a local record of run attempts.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/msccatools/msccat-client/internal/models"
	"github.com/msccatools/msccat-client/internal/run"
)

const driverName = "sqlite"

// Entry is one recorded run attempt.
type Entry struct {
	ID         int64
	StartedAt  time.Time
	FinishedAt time.Time
	URL        string
	JobID      string
	Final      string
	Indicator  string
	Message    string
	Lines      int
	Params     models.AnalysisParameters
}

// Duration returns how long the attempt took.
func (e Entry) Duration() time.Duration {
	return e.FinishedAt.Sub(e.StartedAt)
}

// NewEntry builds an Entry from a finished run.
func NewEntry(out *run.Outcome) Entry {
	return Entry{
		StartedAt:  out.StartedAt,
		FinishedAt: out.FinishedAt,
		URL:        out.Params.URL,
		JobID:      out.JobID,
		Final:      out.Final.String(),
		Indicator:  string(out.Indicator),
		Message:    out.Message,
		Lines:      len(out.Lines),
		Params:     out.Params,
	}
}

// Store records run attempts.
type Store interface {
	Record(ctx context.Context, e Entry) (int64, error)
	// List returns up to limit entries, newest first. limit <= 0 means all.
	List(ctx context.Context, limit int) ([]Entry, error)
	Clear(ctx context.Context) error
	Close() error
}

// SQLStore is a Store backed by a SQLite file.
type SQLStore struct {
	db *sql.DB
}

var _ Store = (*SQLStore)(nil)

// Open opens or creates the history database at path and migrates it.
func Open(path string) (*SQLStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database at %q: %w", path, err)
	}
	// A single connection avoids "database is locked" errors.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to open history database at %q: %w", path, err)
	}
	if err := migrateDB(db, -1); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLStore{db: db}, nil
}

func (s *SQLStore) Record(ctx context.Context, e Entry) (int64, error) {
	params, err := json.Marshal(e.Params)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal run parameters: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO msccat_runs (started_at, finished_at, url, job_id, final_state, indicator, message, line_count, params)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		formatTime(e.StartedAt), formatTime(e.FinishedAt), e.URL, e.JobID,
		e.Final, e.Indicator, e.Message, e.Lines, string(params),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to record run: %w", err)
	}
	return res.LastInsertId()
}

func (s *SQLStore) List(ctx context.Context, limit int) ([]Entry, error) {
	query := `SELECT run_id, started_at, finished_at, url, job_id, final_state, indicator, message, line_count, params
		FROM msccat_runs ORDER BY run_id DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var (
			e                 Entry
			started, finished string
			jobID, msg, prm   sql.NullString
		)
		if err := rows.Scan(&e.ID, &started, &finished, &e.URL, &jobID, &e.Final, &e.Indicator, &msg, &e.Lines, &prm); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		e.StartedAt = parseTime(started)
		e.FinishedAt = parseTime(finished)
		e.JobID = jobID.String
		e.Message = msg.String
		if prm.Valid && prm.String != "" {
			if err := json.Unmarshal([]byte(prm.String), &e.Params); err != nil {
				return nil, fmt.Errorf("failed to decode parameters of run %d: %w", e.ID, err)
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *SQLStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM msccat_runs`); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// NopStore discards records. It is used when history is disabled.
type NopStore struct{}

var _ Store = NopStore{}

func (NopStore) Record(context.Context, Entry) (int64, error) { return 0, nil }
func (NopStore) List(context.Context, int) ([]Entry, error)   { return nil, nil }
func (NopStore) Clear(context.Context) error                  { return nil }
func (NopStore) Close() error                                 { return nil }
