package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pitchside/go-pitch-events/internal/dataset"
	"github.com/pitchside/go-pitch-events/internal/engine"
	"github.com/pitchside/go-pitch-events/internal/export"
	"github.com/pitchside/go-pitch-events/internal/model"
	"github.com/pitchside/go-pitch-events/internal/pitch"
	"github.com/pitchside/go-pitch-events/internal/report"
	"github.com/pitchside/go-pitch-events/internal/storage"
	"github.com/pitchside/go-pitch-events/internal/zones"
)

var (
	analyzeGoals        string
	analyzeMarkers      string
	analyzeZones        string
	analyzeFPS          float64
	analyzeDefaultGoals bool
	analyzeStore        bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <tracking.csv>",
	Short: "Run the full detection pipeline over a tracking export",
	Long: `Loads a tracking CSV, assigns ball possession, detects passes,
interceptions, shots, goals, and zone dwell, reconciles the result against
manual markers if supplied, and prints the merged event tables.

With --store the run is persisted; re-analyzing the same file replaces the
stored run rather than duplicating it.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeGoals, "goals", "", "goal-area designation JSON file")
	analyzeCmd.Flags().StringVar(&analyzeMarkers, "markers", "", "manual event-marker CSV file")
	analyzeCmd.Flags().StringVar(&analyzeZones, "zones", "", `zone spec "name:minx,maxx,miny,maxy;..." (default longitudinal thirds)`)
	analyzeCmd.Flags().Float64Var(&analyzeFPS, "fps", 0, "override configured frames per second")
	analyzeCmd.Flags().BoolVar(&analyzeDefaultGoals, "default-goals", false, "use heuristic goal corridors when no --goals file is given")
	analyzeCmd.Flags().BoolVar(&analyzeStore, "store", false, "persist the run to the database")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	params, err := loadParams()
	if err != nil {
		return err
	}
	if analyzeFPS > 0 {
		params.FPS = analyzeFPS
	}
	if analyzeDefaultGoals {
		params.UseDefaultGoalAreas = true
	}

	in, err := gatherInputs(args[0], params.DatasetOptions())
	if err != nil {
		return err
	}

	res, err := engine.Run(*in, params)
	if err != nil {
		return err
	}
	printResult(in.Dataset, res)

	if !analyzeStore {
		return nil
	}
	return storeRun(in.Dataset, res)
}

// gatherInputs loads the dataset plus the optional goal-area, marker, and
// zone inputs shared by analyze and the single-detector commands.
func gatherInputs(trackingPath string, opts dataset.Options) (*engine.Inputs, error) {
	ds, err := dataset.Load(trackingPath, opts)
	if err != nil {
		return nil, fmt.Errorf("load tracking data: %w", err)
	}

	in := &engine.Inputs{Dataset: ds}

	if analyzeGoals != "" {
		areas, notices, err := pitch.LoadGoalAreas(analyzeGoals)
		if err != nil {
			return nil, err
		}
		for _, n := range notices {
			fmt.Fprintf(os.Stderr, "Notice: %s\n", n)
		}
		in.GoalAreas = areas
	}
	if analyzeMarkers != "" {
		markers, skipped, err := export.ReadMarkers(analyzeMarkers)
		if err != nil {
			return nil, fmt.Errorf("load markers: %w", err)
		}
		if skipped > 0 {
			fmt.Fprintf(os.Stderr, "Notice: %d malformed marker rows skipped\n", skipped)
		}
		in.Markers = markers
	}
	if analyzeZones != "" {
		zs, err := zones.Parse(analyzeZones)
		if err != nil {
			return nil, fmt.Errorf("parse zones: %w", err)
		}
		in.Zones = zs
	}
	return in, nil
}

func printResult(ds *dataset.Dataset, res *engine.Result) {
	source := ds.SourcePath()
	if source == "" {
		source = "(in-memory)"
	} else {
		source = filepath.Base(source)
	}
	report.PrintRunSummary(os.Stdout, source, ds.FPS(), res.Counts, res.SkippedRows, res.Notices)
	report.PrintEventTable(os.Stdout, res.Events)
	fmt.Fprintln(os.Stdout)
	report.PrintAccuracyTable(os.Stdout, res.PlayerAccuracy, res.TeamAccuracy)
	fmt.Fprintln(os.Stdout)
	report.PrintZoneTable(os.Stdout, res.Events)
}

func storeRun(ds *dataset.Dataset, res *engine.Result) error {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return fmt.Errorf("create db dir: %w", err)
	}
	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	if prev, err := db.FindRunBySourceHash(ds.SourceHash()); err != nil {
		return fmt.Errorf("check existing run: %w", err)
	} else if prev != nil {
		if err := db.DeleteRun(prev.ID); err != nil {
			return fmt.Errorf("replace run %s: %w", prev.ID[:8], err)
		}
		fmt.Fprintf(os.Stdout, "Replacing stored run %s for the same source.\n", prev.ID[:8])
	}

	run := storage.RunSummary{
		ID:            uuid.NewString(),
		SourceHash:    ds.SourceHash(),
		SourcePath:    ds.SourcePath(),
		CreatedAt:     time.Now().UTC().Format(time.RFC3339),
		FPS:           ds.FPS(),
		EventsTotal:   len(res.Events),
		Passes:        res.Counts[model.EventPass],
		Interceptions: res.Counts[model.EventInterception],
		Shots:         res.Counts[model.EventShot],
		Goals:         res.Counts[model.EventGoal],
		ZoneDwells:    res.Counts[model.EventZoneDwell],
		SkippedRows:   res.SkippedRows,
		Notices:       strings.Join(res.Notices, "\n"),
	}
	if err := db.InsertRun(run); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	if err := db.InsertEvents(run.ID, res.Events); err != nil {
		return fmt.Errorf("insert events: %w", err)
	}
	acc := append(append([]model.AccuracyMetrics{}, res.PlayerAccuracy...), res.TeamAccuracy...)
	if err := db.InsertAccuracy(run.ID, acc); err != nil {
		return fmt.Errorf("insert accuracy: %w", err)
	}
	fmt.Fprintf(os.Stdout, "Stored run %s (%d events).\n", run.ID[:8], run.EventsTotal)
	return nil
}
