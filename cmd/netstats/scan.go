package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gyeh/testnetstats/internal/config"
	"github.com/gyeh/testnetstats/internal/exitcode"
	"github.com/gyeh/testnetstats/internal/model"
	"github.com/gyeh/testnetstats/internal/scan"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Aggregate network scan and repair CSV results",
}

func init() {
	scanCmd.PersistentFlags().StringVar(&cfg.TestnetPath, "path", "", "Testnet results directory holding one subdirectory per host (required)")
	_ = scanCmd.MarkPersistentFlagRequired("path")

	combine := &cobra.Command{
		Use:   "combine-badlist",
		Short: "Combine every host's chunk_badlist.csv into one file",
		RunE:  runCombineBadlist,
	}
	combine.Flags().StringVar(&cfg.OutputPath, "output-path", "", "Path of the combined CSV (required)")
	_ = combine.MarkFlagRequired("output-path")

	printErrors := &cobra.Command{
		Use:   "print-errors",
		Short: "Print the errors of failed repair rows",
		RunE:  runPrintErrors,
	}
	printErrors.Flags().StringVar(&cfg.SerializationErrorPrefix, "skip-prefix", "",
		fmt.Sprintf("Hide errors starting with this prefix (default %q)", config.DefaultSerializationErrorPrefix))

	scanCmd.AddCommand(
		&cobra.Command{Use: "whitelist-count", Short: "Count chunk_whitelist.csv entries per host", RunE: runWhitelistCount},
		&cobra.Command{Use: "badlist-count", Short: "Count chunk_badlist.csv entries per host", RunE: runBadlistCount},
		&cobra.Command{Use: "repair-count", Short: "Count repair CSV entries by upload status", RunE: runRepairCount},
		&cobra.Command{Use: "summary", Short: "Per-host whitelist, badlist and repair totals", RunE: runScanSummary},
		&cobra.Command{Use: "lost-chunks", Short: "Badlist entries not covered by the latest repair runs", RunE: runLostChunks},
		combine,
		printErrors,
	)
	rootCmd.AddCommand(scanCmd)
}

func validateTestnet() {
	if err := cfg.ValidateTestnet(); err != nil {
		log := newLogger()
		log.Error().Err(err).Msg("invalid testnet path")
		os.Exit(exitcode.ReadError)
	}
}

func runWhitelistCount(cmd *cobra.Command, args []string) error {
	return runEntryCount("whitelist", scan.WhitelistFile)
}

func runBadlistCount(cmd *cobra.Command, args []string) error {
	return runEntryCount("badlist", scan.BadlistFile)
}

func runEntryCount(label, name string) error {
	validateTestnet()
	fmt.Printf("Analyzing %s entries in %s...\n\n", label, cfg.TestnetPath)

	files, total := scan.CountEntries(newLogger(), cfg.TestnetPath, name)
	for _, f := range files {
		fmt.Printf("  %s: %d entries\n", f.Host, f.Count)
	}
	fmt.Printf("\nTotal %s entries: %d\n", label, total)
	return nil
}

func runRepairCount(cmd *cobra.Command, args []string) error {
	validateTestnet()
	fmt.Printf("Analyzing repair entries in %s...\n\n", cfg.TestnetPath)

	files, total := scan.CountRepairEntries(newLogger(), cfg.TestnetPath)
	for _, f := range files {
		fmt.Printf("  %s/%s: %d entries (success: %d, failed: %d, paid: %d)\n",
			f.Host, f.Name, f.Counts.Total(), f.Counts.Success, f.Counts.Failed, f.Counts.Paid)
	}
	fmt.Println()
	fmt.Printf("Total repair entries: %d\n", total.Total())
	fmt.Printf("  Success: %d\n", total.Success)
	fmt.Printf("  Failed: %d\n", total.Failed)
	fmt.Printf("  Paid: %d\n", total.Paid)
	return nil
}

func runScanSummary(cmd *cobra.Command, args []string) error {
	validateTestnet()

	hosts, err := scan.HostSummaries(newLogger(), cfg.TestnetPath)
	if err != nil {
		log := newLogger()
		log.Error().Err(err).Msg("summary failed")
		os.Exit(exitcode.ReadError)
	}
	if len(hosts) == 0 {
		fmt.Println("No hosts found")
		return nil
	}

	printHostSummary(os.Stdout, hosts)
	return nil
}

// printHostSummary writes one line per host followed by the totals block.
func printHostSummary(w io.Writer, hosts []model.HostMetrics) {
	var total model.HostMetrics
	for _, h := range hosts {
		fmt.Fprintf(w, "%s:\n", h.Host)
		fmt.Fprintf(w, "  white list: %d; bad list: %d; repair success: %d; repair failed: %d; repair paid: %d\n",
			h.Whitelist, h.Badlist, h.Repair.Success, h.Repair.Failed, h.Repair.Paid)
		total.Whitelist += h.Whitelist
		total.Badlist += h.Badlist
		total.Repair.Add(h.Repair)
	}

	fmt.Fprintln(w, strings.Repeat("=", 50))
	fmt.Fprintln(w, "TOTALS:")
	fmt.Fprintf(w, "  white list: %d\n", total.Whitelist)
	fmt.Fprintf(w, "  bad list: %d\n", total.Badlist)
	fmt.Fprintf(w, "  repair success: %d\n", total.Repair.Success)
	fmt.Fprintf(w, "  repair failed: %d\n", total.Repair.Failed)
	fmt.Fprintf(w, "  repair paid: %d\n", total.Repair.Paid)
	fmt.Fprintf(w, "  total repair entries: %d\n", total.Repair.Total())
}

func runLostChunks(cmd *cobra.Command, args []string) error {
	validateTestnet()
	fmt.Printf("Calculating lost chunks in %s...\n\n", cfg.TestnetPath)

	res, err := scan.CalculateLostChunks(newLogger(), cfg.TestnetPath)
	if err != nil {
		log := newLogger()
		log.Error().Err(err).Msg("lost chunk calculation failed")
		os.Exit(exitcode.ReadError)
	}
	for _, f := range res.Files {
		if f.Kind == "" {
			fmt.Printf("  %s/%s: %d entries\n", f.Host, f.Name, f.Count)
			continue
		}
		fmt.Printf("  %s/%s: %d entries (latest %s)\n", f.Host, f.Name, f.Count, f.Kind)
	}

	fmt.Println()
	fmt.Println(strings.Repeat("=", 50))
	fmt.Println("CALCULATION:")
	fmt.Printf("  Total badlist entries: %d\n", res.Badlist)
	fmt.Printf("  Total latest initial_repair entries: %d\n", res.InitialRepair)
	fmt.Printf("  Total latest network_scan_repair entries: %d\n", res.NetworkScanRepair)
	fmt.Println()
	fmt.Printf("Lost chunks: %d - (%d + %d) = %d\n", res.Badlist, res.InitialRepair, res.NetworkScanRepair, res.Lost())
	return nil
}

func runCombineBadlist(cmd *cobra.Command, args []string) error {
	validateTestnet()
	log := newLogger()
	fmt.Printf("Combining badlist files in %s...\n\n", cfg.TestnetPath)

	rows, err := scan.CombineBadlist(log, cfg.TestnetPath, cfg.OutputPath)
	if err != nil {
		log.Error().Err(err).Str("output", cfg.OutputPath).Msg("combine failed")
		os.Exit(exitcode.WriteError)
	}
	fmt.Printf("\nSuccessfully wrote %d rows to %s\n", rows, cfg.OutputPath)
	return nil
}

func runPrintErrors(cmd *cobra.Command, args []string) error {
	validateTestnet()
	fmt.Printf("Analyzing repair errors in %s...\n\n", cfg.TestnetPath)

	errs, _ := scan.RepairErrors(newLogger(), cfg.TestnetPath, cfg.SerializationErrorPrefix)
	for _, e := range errs {
		fmt.Printf("%s/%s: %s\n\n", e.Host, e.Name, e.Message)
	}
	fmt.Printf("\nTotal non-serialization errors: %d\n", len(errs))
	return nil
}
