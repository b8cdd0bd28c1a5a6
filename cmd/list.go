package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pitchside/go-pitch-events/internal/storage"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored runs",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	runs, err := db.ListRuns()
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Fprintln(os.Stdout, "No runs stored yet. Run 'pitchevents analyze <tracking.csv> --store' to add one.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-10s  %-20s  %-20s  %6s  %6s  %5s  %5s\n",
		"RUN", "SOURCE", "CREATED", "EVENTS", "PASSES", "SHOTS", "GOALS")
	fmt.Fprintf(os.Stdout, "%-10s  %-20s  %-20s  %6s  %6s  %5s  %5s\n",
		"──────────", "────────────────────", "────────────────────", "──────", "──────", "─────", "─────")
	for _, r := range runs {
		fmt.Fprintf(os.Stdout, "%-10s  %-20s  %-20s  %6d  %6d  %5d  %5d\n",
			r.ID[:8], filepath.Base(r.SourcePath), r.CreatedAt,
			r.EventsTotal, r.Passes, r.Shots, r.Goals)
	}
	return nil
}
