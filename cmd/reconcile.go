package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pitchside/go-pitch-events/internal/export"
	"github.com/pitchside/go-pitch-events/internal/reconcile"
	"github.com/pitchside/go-pitch-events/internal/report"
)

var (
	reconcileWindow int
	reconcileOut    string
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile <detected.csv> <markers.csv>",
	Short: "Merge detected events with manual ground-truth markers",
	Long: `Matches each manual marker against detected events of the same type
within the frame window. The marker wins on a match, absorbing measured
metadata from the detected event; everything unmatched passes through.`,
	Args: cobra.ExactArgs(2),
	RunE: runReconcile,
}

func init() {
	reconcileCmd.Flags().IntVar(&reconcileWindow, "window", -1, "match window in frames (default from params)")
	reconcileCmd.Flags().StringVar(&reconcileOut, "out", "", "output CSV path (default: stdout table)")
}

func runReconcile(cmd *cobra.Command, args []string) error {
	params, err := loadParams()
	if err != nil {
		return err
	}
	window := params.MatchWindowFrames
	if reconcileWindow >= 0 {
		window = reconcileWindow
	}

	df, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open detected events: %w", err)
	}
	detected, skippedD, err := export.ReadEvents(df)
	df.Close()
	if err != nil {
		return fmt.Errorf("read detected events: %w", err)
	}

	markers, skippedM, err := export.ReadMarkers(args[1])
	if err != nil {
		return fmt.Errorf("read markers: %w", err)
	}
	if skipped := skippedD + skippedM; skipped > 0 {
		fmt.Fprintf(os.Stderr, "Notice: %d malformed event rows skipped\n", skipped)
	}

	merged := reconcile.Merge(detected, markers, window)

	if reconcileOut != "" {
		if err := export.WriteFile(reconcileOut, merged); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Wrote %d merged events to %s\n", len(merged), reconcileOut)
		return nil
	}
	fmt.Fprintf(os.Stdout, "\n%d detected + %d manual -> %d merged\n\n", len(detected), len(markers), len(merged))
	report.PrintEventTable(os.Stdout, merged)
	return nil
}
