package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/gyeh/testnetstats/internal/db"
	"github.com/gyeh/testnetstats/internal/exitcode"
	"github.com/gyeh/testnetstats/internal/history"
	"github.com/gyeh/testnetstats/internal/manifest"
	"github.com/gyeh/testnetstats/internal/model"
	"github.com/gyeh/testnetstats/internal/parquetio"
	"github.com/gyeh/testnetstats/internal/report"
	"github.com/gyeh/testnetstats/internal/store"
	"github.com/gyeh/testnetstats/internal/uploadlog"
)

var uploadsCmd = &cobra.Command{
	Use:   "uploads <log-file>",
	Short: "Parse upload attempts from a client service log",
	Args:  cobra.ExactArgs(1),
	RunE:  runUploads,
}

func init() {
	f := uploadsCmd.Flags()
	f.StringVar(&cfg.PaymentType, "payment-type", "", "Payment type used by the client: single-node or merkle (required)")
	f.StringVar(&cfg.ParquetOut, "parquet-out", "", "Also write the attempts to this Parquet file")
	f.StringVar(&cfg.SQLitePath, "sqlite", "", "Also record the run in this SQLite history database")
	f.BoolVar(&cfg.Force, "force", false, "Reload into Postgres even if the log was already loaded")
	rootCmd.AddCommand(uploadsCmd)
}

func runUploads(cmd *cobra.Command, args []string) error {
	log := newLogger()
	cfg.LogPath = args[0]

	if err := cfg.ValidateUploads(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}
	mode, _ := cfg.Payment()

	if _, err := os.Stat(cfg.LogPath); err != nil {
		log.Error().Str("path", cfg.LogPath).Msg("log file not found")
		os.Exit(exitcode.ReadError)
	}

	fmt.Printf("Parsing log file: %s\n", cfg.LogPath)
	fmt.Printf("Payment type: %s\n", mode)

	l, err := uploadlog.ReadLog(cfg.LogPath)
	if err != nil {
		log.Error().Err(err).Msg("failed to read log file")
		os.Exit(exitcode.ReadError)
	}
	attempts := slices.Collect(l.Attempts(mode))
	log.Debug().
		Int("lines", len(l.Lines)).
		Int("boundaries", l.Boundaries()).
		Int("attempts", len(attempts)).
		Msg("log scanned")

	if len(attempts) == 0 {
		fmt.Println("No upload attempts found in log file.")
		return nil
	}

	report.PrintSuccessful(os.Stdout, attempts)
	report.PrintAttempts(os.Stdout, attempts)

	runID := uuid.New().String()

	if cfg.ParquetOut != "" {
		if err := parquetio.WriteAttempts(cfg.ParquetOut, runID, mode, attempts); err != nil {
			log.Error().Err(err).Str("path", cfg.ParquetOut).Msg("parquet export failed")
			os.Exit(exitcode.ExportError)
		}
		log.Info().Str("path", cfg.ParquetOut).Int("rows", len(attempts)).Msg("attempts exported")
	}

	if cfg.SQLitePath != "" {
		if err := recordHistory(runID, mode, attempts); err != nil {
			log.Error().Err(err).Str("path", cfg.SQLitePath).Msg("history record failed")
			os.Exit(exitcode.StoreError)
		}
		log.Info().Str("path", cfg.SQLitePath).Str("run_id", runID).Msg("run recorded")
	}

	if cfg.DSN != "" {
		loadPostgres()
	}
	return nil
}

func recordHistory(runID string, mode model.PaymentType, attempts []model.UploadAttempt) error {
	sha, err := manifest.FileHash(cfg.LogPath)
	if err != nil {
		return err
	}
	hdb, err := history.Open(cfg.SQLitePath)
	if err != nil {
		return err
	}
	defer hdb.Close()
	return hdb.RecordRun(history.NewRun(runID, cfg.LogPath, sha, mode, attempts), attempts)
}

func loadPostgres() {
	log := newLogger()
	ctx := context.Background()

	pool, err := db.NewPool(ctx, cfg.DSN)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		os.Exit(exitcode.DBConnError)
	}
	defer pool.Close()

	summary, err := store.Run(ctx, pool, log, &cfg)
	if err != nil {
		var pe *store.PipelineError
		if errors.As(err, &pe) {
			log.Error().Err(pe.Err).Str("phase", pe.Phase).Msg("load failed")
		} else {
			log.Error().Err(err).Msg("load failed")
		}
		pool.Close()
		os.Exit(exitcode.StoreError)
	}

	if summary.AlreadyLoaded {
		fmt.Printf("Log already loaded as run %s (use --force to reload)\n", summary.RunID)
		return
	}
	fmt.Printf("Load complete: run %s, %d attempts stored (%.1fs)\n",
		summary.RunID, summary.RowsStaged, summary.DurationTotal.Seconds())
}
