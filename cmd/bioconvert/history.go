package main

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/bioconvert/internal/state"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent conversion runs",
	Long: `Show conversions recorded in the run history database.

  bioconvert history --limit 20
  bioconvert history --status failed
  bioconvert history --purge 720h`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "Number of runs to show")
	historyCmd.Flags().String("status", "", "Only show runs with this status (done, failed)")
	historyCmd.Flags().Duration("purge", 0, "Delete runs older than this duration instead of listing")
}

func runHistory(cmd *cobra.Command, args []string) error {
	path := cfg.History.Path
	if path == "" {
		path = state.HistoryDBPath()
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Println("No runs recorded yet.")
		return nil
	}

	db, err := state.OpenHistory(path)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer db.Close()

	if purge, _ := cmd.Flags().GetDuration("purge"); purge > 0 {
		n, err := db.PurgeOldRuns(purge)
		if err != nil {
			return err
		}
		printStatus("✓", fmt.Sprintf("purged %d runs older than %s", n, purge), color.FgGreen)
		return nil
	}

	limit, _ := cmd.Flags().GetInt("limit")
	status, _ := cmd.Flags().GetString("status")
	switch state.RunStatus(status) {
	case "", state.RunDone, state.RunFailed:
	default:
		return fmt.Errorf("unknown status %q (want done or failed)", status)
	}

	runs, err := db.ListRuns(limit, state.RunStatus(status))
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No matching runs.")
		return nil
	}

	for _, r := range runs {
		symbol, attr := "✓", color.FgGreen
		if r.Status == state.RunFailed {
			symbol, attr = "✗", color.FgRed
		}
		line := fmt.Sprintf("%-14s %-12s %s -> %s  (%s, %s)",
			r.Conversion, r.Method, r.Infile, r.Outfile,
			humanize.Time(r.StartedAt), r.Duration.Round(time.Millisecond))
		printStatus(symbol, line, attr)
		if r.Error != "" {
			fmt.Printf("    %s\n", r.Error)
		}
	}
	return nil
}
