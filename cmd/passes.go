package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pitchside/go-pitch-events/internal/dataset"
	"github.com/pitchside/go-pitch-events/internal/passes"
	"github.com/pitchside/go-pitch-events/internal/possession"
	"github.com/pitchside/go-pitch-events/internal/report"
)

var passesFPS float64

var passesCmd = &cobra.Command{
	Use:   "passes <tracking.csv>",
	Short: "Detect passes and print completion accuracy",
	Args:  cobra.ExactArgs(1),
	RunE:  runPasses,
}

func init() {
	passesCmd.Flags().Float64Var(&passesFPS, "fps", 0, "override configured frames per second")
}

func runPasses(cmd *cobra.Command, args []string) error {
	params, err := loadParams()
	if err != nil {
		return err
	}
	if passesFPS > 0 {
		params.FPS = passesFPS
	}
	if err := params.Validate(); err != nil {
		return err
	}

	ds, err := dataset.Load(args[0], params.DatasetOptions())
	if err != nil {
		return fmt.Errorf("load tracking data: %w", err)
	}
	if !ds.HasBall() {
		return fmt.Errorf("dataset has no ball detections; pass detection needs a ball track")
	}

	intervals := possession.Assign(ds, params.Possession())
	res := passes.Detect(ds, intervals, params.Passes())

	fmt.Fprintf(os.Stdout, "\n%d possession intervals, %d pass events\n\n", len(intervals), len(res.Events))
	report.PrintEventTable(os.Stdout, res.Events)
	fmt.Fprintln(os.Stdout)
	report.PrintAccuracyTable(os.Stdout, res.Players, res.Teams)
	return nil
}
