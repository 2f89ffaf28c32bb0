// Package store loads parsed upload attempts into Postgres.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/gyeh/testnetstats/internal/config"
	"github.com/gyeh/testnetstats/internal/model"
)

// PipelineError wraps an error with the phase where it occurred.
type PipelineError struct {
	Phase string
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s: %s", e.Phase, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// Run executes the load pipeline for one log file: preflight → stage →
// finalize. A log already loaded for the same payment type is skipped unless
// cfg.Force is set.
func Run(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger, cfg *config.Config) (*model.LoadSummary, error) {
	totalStart := time.Now()

	mode, err := cfg.Payment()
	if err != nil {
		return nil, &PipelineError{Phase: "preflight", Err: err}
	}

	// Phase 1: Preflight
	log.Info().Str("file", cfg.LogPath).Msg("starting preflight")
	pf, err := Preflight(ctx, pool, log, cfg.LogPath, mode, cfg.Force)
	if err != nil {
		return nil, &PipelineError{Phase: "preflight", Err: err}
	}

	if pf.AlreadyLoaded {
		log.Info().
			Str("run_id", pf.RunID.String()).
			Str("sha256", pf.LogSHA256).
			Msg("log already loaded, skipping (use --force to reload)")
		return &model.LoadSummary{
			LogPath:       pf.LogPath,
			LogSHA256:     pf.LogSHA256,
			PaymentType:   mode,
			RunID:         pf.RunID.String(),
			AlreadyLoaded: true,
			DurationTotal: time.Since(totalStart),
		}, nil
	}

	// Phase 2: Stage
	log.Info().Msg("starting staging")
	if err := UpdateStatus(ctx, pool, pf.RunID, "staging"); err != nil {
		return nil, &PipelineError{Phase: "stage", Err: err}
	}

	stageResult, err := Stage(ctx, pool, log, pf)
	if err != nil {
		fail(ctx, pool, log, pf)
		return nil, &PipelineError{Phase: "stage", Err: err}
	}

	// Phase 3: Finalize
	log.Info().Msg("finalizing")
	finalizeDur, err := Finalize(ctx, pool, log, pf.RunID, stageResult)
	if err != nil {
		fail(ctx, pool, log, pf)
		return nil, &PipelineError{Phase: "finalize", Err: err}
	}

	summary := &model.LoadSummary{
		LogPath:          pf.LogPath,
		LogSHA256:        pf.LogSHA256,
		PaymentType:      mode,
		RunID:            pf.RunID.String(),
		Attempts:         int64(stageResult.Summary.Attempts),
		Successful:       int64(stageResult.Summary.Successful),
		Failed:           int64(stageResult.Summary.Failed),
		RowsStaged:       stageResult.RowsStaged,
		DurationParse:    stageResult.DurationParse,
		DurationCopy:     stageResult.Duration,
		DurationFinalize: finalizeDur,
		DurationTotal:    time.Since(totalStart),
	}

	log.Info().
		Int64("attempts", summary.Attempts).
		Int64("successful", summary.Successful).
		Int64("rows_staged", summary.RowsStaged).
		Str("total_duration", summary.DurationTotal.String()).
		Msg("load pipeline complete")

	return summary, nil
}

// fail marks the run failed and drops any rows it staged.
func fail(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger, pf *PreflightResult) {
	if err := UpdateStatus(ctx, pool, pf.RunID, "failed"); err != nil {
		log.Warn().Err(err).Msg("mark run failed")
	}
	if err := Cleanup(ctx, pool, log, pf.RunID); err != nil {
		log.Warn().Err(err).Msg("cleanup of failed run failed (non-fatal)")
	}
}
