package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gyeh/testnetstats/internal/exitcode"
	"github.com/gyeh/testnetstats/internal/reorg"
)

var logsDir string

var reorganiseCmd = &cobra.Command{
	Use:   "reorganise-logs <environment>",
	Short: "Flatten <host>/tmp/<dynamic>/ log directories fetched from a testnet",
	Args:  cobra.ExactArgs(1),
	RunE:  runReorganise,
}

func init() {
	reorganiseCmd.Flags().StringVar(&logsDir, "logs-dir", "logs", "Directory holding one log directory per environment")
	rootCmd.AddCommand(reorganiseCmd)
}

func runReorganise(cmd *cobra.Command, args []string) error {
	log := newLogger()
	root := filepath.Join(logsDir, args[0])

	res, err := reorg.Flatten(log, root)
	if err != nil {
		log.Error().Err(err).Str("root", root).Msg("reorganise failed")
		if res == nil {
			os.Exit(exitcode.ReadError)
		}
		os.Exit(exitcode.WriteError)
	}
	fmt.Printf("Reorganised %d directories (%d entries moved) under %s\n", res.Flattened, res.Moved, root)
	return nil
}
