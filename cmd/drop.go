package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pitchside/go-pitch-events/internal/storage"
)

var dropCmd = &cobra.Command{
	Use:   "drop <run-prefix>",
	Short: "Delete a stored run",
	Args:  cobra.ExactArgs(1),
	RunE:  runDrop,
}

func runDrop(cmd *cobra.Command, args []string) error {
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

	if err := db.DeleteRun(run.ID); err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	fmt.Fprintf(os.Stdout, "Dropped run %s (%d events).\n", run.ID[:8], run.EventsTotal)
	return nil
}
