package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	embedsql "github.com/gyeh/testnetstats/internal/sql"
)

// Finalize checks the staged row count, records the run totals and marks the
// run loaded.
func Finalize(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger, runID uuid.UUID, sr *StageResult) (time.Duration, error) {
	start := time.Now()

	stored, err := CountAttempts(ctx, pool, runID)
	if err != nil {
		return 0, fmt.Errorf("count attempts: %w", err)
	}
	if stored != sr.RowsStaged {
		return 0, fmt.Errorf("staged %d attempts but %d stored", sr.RowsStaged, stored)
	}

	s := sr.Summary
	if _, err := pool.Exec(ctx, embedsql.FinalizeRun,
		runID, s.Attempts, s.Successful, s.Failed, s.TotalChunks, s.SuccessfulChunks,
	); err != nil {
		return 0, fmt.Errorf("finalize run: %w", err)
	}
	log.Info().Str("run_id", runID.String()).Int64("attempts", stored).Msg("run loaded")

	return time.Since(start), nil
}
