package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/gyeh/testnetstats/internal/exitcode"
	"github.com/gyeh/testnetstats/internal/history"
	"github.com/gyeh/testnetstats/internal/report"
)

var (
	historyLimit int
	historyRun   string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List upload log runs recorded in a SQLite history database",
	RunE:  runHistory,
}

func init() {
	f := historyCmd.Flags()
	f.StringVar(&cfg.SQLitePath, "sqlite", "", "SQLite history database (required)")
	f.IntVar(&historyLimit, "limit", 20, "Maximum runs to list (0 for all)")
	f.StringVar(&historyRun, "run", "", "Print the attempts of this run instead of the run list")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	log := newLogger()

	if cfg.SQLitePath == "" {
		log.Error().Msg("--sqlite or sqlite_path in the config file is required")
		os.Exit(exitcode.UsageError)
	}
	if _, err := os.Stat(cfg.SQLitePath); err != nil {
		log.Error().Str("path", cfg.SQLitePath).Msg("history database not found")
		os.Exit(exitcode.ReadError)
	}

	hdb, err := history.Open(cfg.SQLitePath)
	if err != nil {
		log.Error().Err(err).Msg("failed to open history database")
		os.Exit(exitcode.StoreError)
	}
	defer hdb.Close()

	if historyRun != "" {
		attempts, err := hdb.Attempts(historyRun)
		if err != nil {
			log.Error().Err(err).Msg("failed to load run")
			hdb.Close()
			os.Exit(exitcode.StoreError)
		}
		if len(attempts) == 0 {
			fmt.Printf("No attempts recorded for run %s.\n", historyRun)
			return nil
		}
		report.PrintAttempts(os.Stdout, attempts)
		return nil
	}

	runs, err := hdb.ListRuns(historyLimit)
	if err != nil {
		log.Error().Err(err).Msg("failed to list runs")
		hdb.Close()
		os.Exit(exitcode.StoreError)
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	fmt.Printf("%-36s %-12s %-14s %-24s %-9s %-10s %s\n",
		"Run", "Payment", "Recorded", "Log", "Attempts", "Data", "Chunks")
	for _, r := range runs {
		chunks := "N/A"
		if r.TotalChunks > 0 {
			chunks = fmt.Sprintf("%d/%d", r.SuccessfulChunks, r.TotalChunks)
		}
		fmt.Printf("%-36s %-12s %-14s %-24s %-9s %-10s %s\n",
			r.RunID,
			r.PaymentType,
			humanize.Time(r.RecordedAt),
			report.DisplayName(filepath.ToSlash(r.LogPath)),
			fmt.Sprintf("%d/%d", r.Successful, r.Attempts),
			humanize.IBytes(uint64(r.TotalSizeKB)*1024),
			chunks,
		)
	}
	return nil
}
