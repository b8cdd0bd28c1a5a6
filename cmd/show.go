package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pitchside/go-pitch-events/internal/model"
	"github.com/pitchside/go-pitch-events/internal/report"
	"github.com/pitchside/go-pitch-events/internal/storage"
)

var showCmd = &cobra.Command{
	Use:   "show <run-prefix>",
	Short: "Show a stored run's event and accuracy tables",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
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
	acc, err := db.LoadAccuracy(run.ID)
	if err != nil {
		return fmt.Errorf("load accuracy: %w", err)
	}
	var players, teams []model.AccuracyMetrics
	for _, m := range acc {
		if m.Scope == model.ScopeTeam {
			teams = append(teams, m)
		} else {
			players = append(players, m)
		}
	}

	counts := make(map[model.EventType]int)
	for _, ev := range events {
		counts[ev.Type]++
	}
	var notices []string
	if run.Notices != "" {
		notices = strings.Split(run.Notices, "\n")
	}

	report.PrintRunSummary(os.Stdout, filepath.Base(run.SourcePath), run.FPS, counts, run.SkippedRows, notices)
	report.PrintEventTable(os.Stdout, events)
	fmt.Fprintln(os.Stdout)
	report.PrintAccuracyTable(os.Stdout, players, teams)
	fmt.Fprintln(os.Stdout)
	report.PrintZoneTable(os.Stdout, events)
	return nil
}
