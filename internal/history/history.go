// Package history keeps a local SQLite record of parsed upload logs.
package history

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/gyeh/testnetstats/internal/model"
)

// DB wraps the SQLite history database.
type DB struct {
	conn *sql.DB
}

// Run is one recorded parse of a log file.
type Run struct {
	RunID            string
	LogPath          string
	LogSHA256        string
	PaymentType      model.PaymentType
	RecordedAt       time.Time
	Attempts         int64
	Successful       int64
	TotalSizeKB      int64
	TotalSeconds     float64
	TotalChunks      int64
	SuccessfulChunks int64
}

// NewRun fills the run totals from attempts.
func NewRun(runID, logPath, sha string, pt model.PaymentType, attempts []model.UploadAttempt) *Run {
	r := &Run{
		RunID:       runID,
		LogPath:     logPath,
		LogSHA256:   sha,
		PaymentType: pt,
		RecordedAt:  time.Now().UTC(),
		Attempts:    int64(len(attempts)),
	}
	for _, a := range attempts {
		if a.Success {
			r.Successful++
		}
		r.TotalSizeKB += a.SizeKB
		r.TotalSeconds += a.DurationSeconds
		if a.TotalChunks != nil {
			r.TotalChunks += *a.TotalChunks
		}
		if a.SuccessfulChunks != nil {
			r.SuccessfulChunks += *a.SuccessfulChunks
		}
	}
	return r
}

// Open opens or creates the history database at path.
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &DB{conn: conn}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// RecordRun stores a run and its attempts in one transaction.
func (db *DB) RecordRun(run *Run, attempts []model.UploadAttempt) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO runs (run_id, log_path, log_sha256, payment_type, recorded_at,
			attempts, successful, total_size_kb, total_seconds, total_chunks, successful_chunks)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.LogPath, run.LogSHA256, string(run.PaymentType),
		run.RecordedAt.Format(time.RFC3339), run.Attempts, run.Successful,
		run.TotalSizeKB, run.TotalSeconds, run.TotalChunks, run.SuccessfulChunks,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO attempts (run_id, seq, file_name, size_kb, success, address,
			duration_seconds, start_time, total_chunks, successful_chunks)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare attempt insert: %w", err)
	}
	defer stmt.Close()

	for i, a := range attempts {
		if _, err := stmt.Exec(
			run.RunID, i+1, a.FileName, a.SizeKB, a.Success, a.Address,
			a.DurationSeconds, a.StartTime, a.TotalChunks, a.SuccessfulChunks,
		); err != nil {
			return fmt.Errorf("failed to insert attempt %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// ListRuns returns recorded runs, newest first. limit <= 0 returns all.
func (db *DB) ListRuns(limit int) ([]*Run, error) {
	query := `SELECT run_id, log_path, log_sha256, payment_type, recorded_at, attempts,
		successful, total_size_kb, total_seconds, total_chunks, successful_chunks
		FROM runs ORDER BY recorded_at DESC, rowid DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var r Run
		var pt, recordedAt string
		if err := rows.Scan(&r.RunID, &r.LogPath, &r.LogSHA256, &pt, &recordedAt, &r.Attempts,
			&r.Successful, &r.TotalSizeKB, &r.TotalSeconds, &r.TotalChunks, &r.SuccessfulChunks); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.PaymentType = model.PaymentType(pt)
		r.RecordedAt, _ = time.Parse(time.RFC3339, recordedAt)
		runs = append(runs, &r)
	}
	return runs, rows.Err()
}

// Attempts returns the attempts recorded for a run in log order.
func (db *DB) Attempts(runID string) ([]model.UploadAttempt, error) {
	rows, err := db.conn.Query(`
		SELECT file_name, size_kb, success, address, duration_seconds, start_time,
			total_chunks, successful_chunks
		FROM attempts WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query attempts: %w", err)
	}
	defer rows.Close()

	var attempts []model.UploadAttempt
	for rows.Next() {
		var a model.UploadAttempt
		if err := rows.Scan(&a.FileName, &a.SizeKB, &a.Success, &a.Address, &a.DurationSeconds,
			&a.StartTime, &a.TotalChunks, &a.SuccessfulChunks); err != nil {
			return nil, fmt.Errorf("failed to scan attempt: %w", err)
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}
