package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/gyeh/testnetstats/internal/exitcode"
	"github.com/gyeh/testnetstats/internal/manifest"
)

var manifestQuiet bool

var manifestCmd = &cobra.Command{
	Use:   "manifest <directory> [output]",
	Short: "Write a CSV manifest (path, SHA-256, size) of every file in a directory",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runManifest,
}

func init() {
	manifestCmd.Flags().BoolVarP(&manifestQuiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.AddCommand(manifestCmd)
}

func runManifest(cmd *cobra.Command, args []string) error {
	log := newLogger()
	dir := args[0]
	out := manifest.DefaultOutput(dir)
	if len(args) == 2 {
		out = args[1]
	}

	if !manifestQuiet {
		fmt.Printf("Scanning directory: %s\n", dir)
	}
	entries, err := manifest.Build(log, dir)
	if err != nil {
		log.Error().Err(err).Msg("manifest scan failed")
		os.Exit(exitcode.ReadError)
	}

	if err := manifest.Write(out, entries); err != nil {
		log.Error().Err(err).Str("output", out).Msg("error writing manifest file")
		os.Exit(exitcode.WriteError)
	}

	if !manifestQuiet {
		total := manifest.TotalSize(entries)
		fmt.Println("\nManifest generated successfully!")
		fmt.Printf("Output file: %s\n", out)
		fmt.Printf("Total files: %d\n", len(entries))
		fmt.Printf("Total size: %s bytes (%s)\n", humanize.Comma(total), humanize.IBytes(uint64(total)))
	}
	return nil
}
