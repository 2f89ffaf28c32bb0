package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gyeh/testnetstats/internal/exitcode"
	"github.com/gyeh/testnetstats/internal/model"
	"github.com/gyeh/testnetstats/internal/parquetio"
	"github.com/gyeh/testnetstats/internal/report"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file.parquet>",
	Short: "Print the attempts stored in an exported Parquet file",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	log := newLogger()

	rows, err := parquetio.ReadAll(args[0])
	if err != nil {
		log.Error().Err(err).Str("file", args[0]).Msg("failed to read parquet file")
		os.Exit(exitcode.ReadError)
	}
	if len(rows) == 0 {
		fmt.Println("No upload attempts found in parquet file.")
		return nil
	}

	fmt.Printf("Run: %s\n", rows[0].RunID)
	fmt.Printf("Payment type: %s\n", rows[0].PaymentType)

	attempts := make([]model.UploadAttempt, len(rows))
	for i := range rows {
		attempts[i] = rows[i].Attempt()
	}
	report.PrintAttempts(os.Stdout, attempts)
	return nil
}
