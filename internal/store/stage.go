package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/gyeh/testnetstats/internal/db"
	"github.com/gyeh/testnetstats/internal/model"
	"github.com/gyeh/testnetstats/internal/report"
	embedsql "github.com/gyeh/testnetstats/internal/sql"
)

const stageBufferSize = 256

// StageResult holds metrics from the staging phase.
type StageResult struct {
	Boundaries    int
	RowsStaged    int64
	Summary       report.Summary
	DurationParse time.Duration
	Duration      time.Duration
}

// Stage extracts attempts from the preflighted log and COPY-loads them into
// upload.attempts via a channel-backed CopyFromSource.
func Stage(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger, pf *PreflightResult) (*StageResult, error) {
	start := time.Now()

	ch := make(chan *model.StagedAttempt, stageBufferSize)
	errCh := make(chan error, 1)

	var attempts []model.UploadAttempt
	var parseDur time.Duration

	// Producer goroutine: scan log windows → push to channel
	go func() {
		defer close(ch)
		parseStart := time.Now()

		var seq int64
		for a := range pf.Log.Attempts(pf.PaymentType) {
			seq++
			attempts = append(attempts, a)
			select {
			case ch <- &model.StagedAttempt{RunID: pf.RunID, Seq: seq, Attempt: a}:
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			}
		}
		parseDur = time.Since(parseStart)
		errCh <- nil
	}()

	// Consumer: COPY from channel into upload.attempts
	source := db.NewChannelSource(ch)
	rowsStaged, err := pool.CopyFrom(ctx,
		pgx.Identifier{"upload", "attempts"},
		model.AttemptColumns(),
		source,
	)
	if err != nil {
		// Unblock the producer before waiting on it.
		for range ch {
		}
	}

	// Wait for producer to finish
	prodErr := <-errCh
	if prodErr != nil {
		return nil, fmt.Errorf("stage producer: %w", prodErr)
	}
	if err != nil {
		return nil, fmt.Errorf("stage copy: %w", err)
	}

	boundaries := pf.Log.Boundaries()
	dur := time.Since(start)
	log.Info().
		Int("boundaries", boundaries).
		Int("attempts", len(attempts)).
		Int64("rows_staged", rowsStaged).
		Str("duration", dur.String()).
		Msg("staging complete")
	if dropped := boundaries - len(attempts); dropped > 0 {
		log.Debug().Int("dropped", dropped).Msg("windows without a complete attempt")
	}

	return &StageResult{
		Boundaries:    boundaries,
		RowsStaged:    rowsStaged,
		Summary:       report.Summarize(attempts),
		DurationParse: parseDur,
		Duration:      dur,
	}, nil
}

// UpdateStatus updates the run status.
func UpdateStatus(ctx context.Context, pool *pgxpool.Pool, runID uuid.UUID, status string) error {
	_, err := pool.Exec(ctx, embedsql.UpdateRunStatus, runID, status)
	return err
}

// CountAttempts returns the number of attempts stored for a run.
func CountAttempts(ctx context.Context, pool *pgxpool.Pool, runID uuid.UUID) (int64, error) {
	var n int64
	err := pool.QueryRow(ctx, embedsql.CountRunAttempts, runID).Scan(&n)
	return n, err
}
