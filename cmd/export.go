package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pitchside/go-pitch-events/internal/export"
	"github.com/pitchside/go-pitch-events/internal/storage"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export <run-prefix>",
	Short: "Export a stored run's events as CSV",
	Long: `Writes the merged event table of a stored run as CSV. The output is
re-importable: 'pitchevents reconcile' and 'analyze --markers' accept it as
a manual-marker set, and the round trip is lossless.`,
	Args: cobra.ExactArgs(1),
	RunE: runExportCmd,
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output file path (default: stdout)")
}

func runExportCmd(cmd *cobra.Command, args []string) error {
	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	run, err := db.GetRunByPrefix(args[0])
	if err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("no stored run matches prefix %q", args[0])
	}

	events, err := db.LoadEvents(run.ID)
	if err != nil {
		return fmt.Errorf("load events: %w", err)
	}

	if exportOut == "" {
		return export.WriteCSV(os.Stdout, events)
	}
	if err := export.WriteFile(exportOut, events); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Wrote %d events from run %s to %s\n", len(events), run.ID[:8], exportOut)
	return nil
}
