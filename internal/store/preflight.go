package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/gyeh/testnetstats/internal/manifest"
	"github.com/gyeh/testnetstats/internal/model"
	embedsql "github.com/gyeh/testnetstats/internal/sql"
	"github.com/gyeh/testnetstats/internal/uploadlog"
)

// PreflightResult holds the context resolved before any attempt is staged.
type PreflightResult struct {
	// LogPath is the path passed to Preflight, stored as-is.
	LogPath string
	// LogSHA256 is the hex-encoded SHA-256 digest of the log file.
	LogSHA256 string
	// LogSize is the file size in bytes.
	LogSize int64
	// PaymentType selects the extractor variant used by Stage.
	PaymentType model.PaymentType
	// RunID identifies the run row. A fresh UUID for new logs, the existing
	// run's ID when the same log and payment type were registered before.
	RunID uuid.UUID
	// Log is the fully read log, reused by Stage.
	Log *uploadlog.Log
	// AlreadyLoaded is true when the run is already in status "loaded" and
	// force mode is off.
	AlreadyLoaded bool
}

// Preflight reads and hashes the log and registers its run.
func Preflight(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger, logPath string, mode model.PaymentType, force bool) (*PreflightResult, error) {
	start := time.Now()

	l, err := uploadlog.ReadLog(logPath)
	if err != nil {
		return nil, fmt.Errorf("preflight read: %w", err)
	}

	sha, err := manifest.FileHash(logPath)
	if err != nil {
		return nil, fmt.Errorf("preflight hash: %w", err)
	}

	stat, err := os.Stat(logPath)
	if err != nil {
		return nil, fmt.Errorf("preflight stat: %w", err)
	}

	log.Info().
		Str("file", filepath.Base(logPath)).
		Str("sha256", sha).
		Int("lines", len(l.Lines)).
		Dur("duration", time.Since(start)).
		Msg("preflight complete")

	runID, alreadyLoaded, err := registerRun(ctx, pool, uuid.New(), logPath, sha, stat.Size(), mode, force)
	if err != nil {
		return nil, fmt.Errorf("preflight register run: %w", err)
	}

	return &PreflightResult{
		LogPath:       logPath,
		LogSHA256:     sha,
		LogSize:       stat.Size(),
		PaymentType:   mode,
		RunID:         runID,
		Log:           l,
		AlreadyLoaded: alreadyLoaded,
	}, nil
}

func registerRun(ctx context.Context, pool *pgxpool.Pool, newID uuid.UUID, logPath, sha string, size int64, mode model.PaymentType, force bool) (uuid.UUID, bool, error) {
	var runID uuid.UUID
	err := pool.QueryRow(ctx, embedsql.RegisterRun,
		newID, filepath.Base(logPath), sha, size, string(mode),
	).Scan(&runID)

	if errors.Is(err, pgx.ErrNoRows) {
		// Already registered (ON CONFLICT DO NOTHING returned no rows)
		var status string
		if err2 := pool.QueryRow(ctx, embedsql.LookupRun, sha, string(mode)).Scan(&runID, &status); err2 != nil {
			return uuid.Nil, false, fmt.Errorf("lookup existing run: %w", err2)
		}

		if !force && status == "loaded" {
			return runID, true, nil
		}

		// Reset for reload
		if _, err3 := pool.Exec(ctx, embedsql.DeleteRunAttempts, runID); err3 != nil {
			return uuid.Nil, false, fmt.Errorf("delete previous attempts: %w", err3)
		}
		if err3 := UpdateStatus(ctx, pool, runID, "pending"); err3 != nil {
			return uuid.Nil, false, fmt.Errorf("reset run status: %w", err3)
		}
		return runID, false, nil
	}
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("register run: %w", err)
	}

	return runID, false, nil
}
