package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pitchside/go-pitch-events/internal/dataset"
	"github.com/pitchside/go-pitch-events/internal/report"
	"github.com/pitchside/go-pitch-events/internal/zones"
)

var (
	zonesSpec string
	zonesFPS  float64
)

var zonesCmd = &cobra.Command{
	Use:   "zones <tracking.csv>",
	Short: "Aggregate per-player dwell time in field zones",
	Args:  cobra.ExactArgs(1),
	RunE:  runZones,
}

func init() {
	zonesCmd.Flags().StringVar(&zonesSpec, "zones", "", `zone spec "name:minx,maxx,miny,maxy;..." (default longitudinal thirds)`)
	zonesCmd.Flags().Float64Var(&zonesFPS, "fps", 0, "override configured frames per second")
}

func runZones(cmd *cobra.Command, args []string) error {
	params, err := loadParams()
	if err != nil {
		return err
	}
	if zonesFPS > 0 {
		params.FPS = zonesFPS
	}
	if err := params.Validate(); err != nil {
		return err
	}

	var zs []zones.Zone
	if zonesSpec != "" {
		zs, err = zones.Parse(zonesSpec)
		if err != nil {
			return fmt.Errorf("parse zones: %w", err)
		}
	}

	ds, err := dataset.Load(args[0], params.DatasetOptions())
	if err != nil {
		return fmt.Errorf("load tracking data: %w", err)
	}

	events := zones.Analyze(ds, zs)
	fmt.Fprintln(os.Stdout)
	report.PrintZoneTable(os.Stdout, events)
	return nil
}
