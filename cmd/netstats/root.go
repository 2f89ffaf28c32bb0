package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/gyeh/testnetstats/internal/config"
	"github.com/gyeh/testnetstats/internal/exitcode"
	"github.com/gyeh/testnetstats/internal/logging"
)

var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "netstats",
	Short: "Testnet upload log and scan result statistics",
	Long: "Extracts upload attempts from client service logs, aggregates the CSV " +
		"artifacts of network scan and repair runs, and loads parsed runs into Parquet, SQLite or Postgres.",
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfg.ConfigPath, "config", "", "Optional YAML config file")
	pf.StringVar(&cfg.DSN, "dsn", os.Getenv("NETSTATS_DB_URL"), "Postgres connection string (or set NETSTATS_DB_URL)")
	pf.StringVar(&cfg.LogFormat, "log-format", "", "Log format: text or json (default text)")
	pf.StringVar(&cfg.LogLevel, "log-level", "", "Log level: debug, info, warn, error (default info)")
}

func loadConfig(cmd *cobra.Command, args []string) error {
	cfg.SerializationErrorPrefixSet = cmd.Flags().Changed("skip-prefix")
	if cfg.ConfigPath != "" {
		if err := cfg.LoadFromFile(cfg.ConfigPath); err != nil {
			log := logging.Setup(cfg.LogFormat, cfg.LogLevel)
			log.Error().Err(err).Msg("config load failed")
			os.Exit(exitcode.UsageError)
		}
	}
	cfg.ApplyDefaults()
	return nil
}

func newLogger() zerolog.Logger {
	return logging.Setup(cfg.LogFormat, cfg.LogLevel)
}
