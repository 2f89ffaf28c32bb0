package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	embedsql "github.com/gyeh/testnetstats/internal/sql"
)

// Cleanup deletes the attempts staged for a run.
func Cleanup(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger, runID uuid.UUID) error {
	tag, err := pool.Exec(ctx, embedsql.DeleteRunAttempts, runID)
	if err != nil {
		return fmt.Errorf("delete run attempts: %w", err)
	}
	log.Info().Int64("deleted", tag.RowsAffected()).Msg("run attempts cleaned up")
	return nil
}
