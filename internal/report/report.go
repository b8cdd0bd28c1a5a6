package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/pitchside/go-pitch-events/internal/model"
)

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignRight},
		},
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
		},
	}))
}

// PrintRunSummary prints a one-line run header plus any degraded-mode
// notices.
func PrintRunSummary(w io.Writer, source string, fps float64, counts map[model.EventType]int, skippedRows int, notices []string) {
	fmt.Fprintf(w, "\nSource: %s  |  FPS: %g  |  Passes: %d  |  Interceptions: %d  |  Shots: %d  |  Goals: %d  |  Zones: %d\n",
		source, fps,
		counts[model.EventPass], counts[model.EventInterception],
		counts[model.EventShot], counts[model.EventGoal], counts[model.EventZoneDwell])
	if skippedRows > 0 {
		fmt.Fprintf(w, "Skipped rows: %d\n", skippedRows)
	}
	for _, n := range notices {
		fmt.Fprintf(w, "Notice: %s\n", n)
	}
	fmt.Fprintln(w)
}

// PrintEventTable prints the merged event table, zone summaries excluded
// (they get their own table).
func PrintEventTable(w io.Writer, events []model.Event) {
	table := newTable(w)
	table.Header("FRAME", "TIME", "TYPE", "PLAYER", "TEAM", "CONF", "SRC", "DETAIL")

	for _, ev := range events {
		if ev.Type == model.EventZoneDwell {
			continue
		}
		src := "auto"
		if ev.Manual {
			src = "manual"
		}
		table.Append(
			strconv.Itoa(ev.FrameNum),
			fmt.Sprintf("%.2fs", ev.Timestamp),
			string(ev.Type),
			playerCell(ev),
			ev.Team,
			fmt.Sprintf("%.2f", ev.Confidence),
			src,
			detailCell(ev),
		)
	}
	table.Render()
}

// PrintAccuracyTable prints pass completion accuracy, players first, then
// team rows.
func PrintAccuracyTable(w io.Writer, players, teams []model.AccuracyMetrics) {
	table := newTable(w)
	table.Header("SCOPE", "WHO", "OK", "INC", "INT", "COMPLETION")

	rows := append(append([]model.AccuracyMetrics{}, players...), teams...)
	for _, m := range rows {
		table.Append(
			string(m.Scope),
			m.Label,
			strconv.Itoa(m.Successful),
			strconv.Itoa(m.Incomplete),
			strconv.Itoa(m.Intercepted),
			fmt.Sprintf("%.0f%%", m.CompletionRate()*100),
		)
	}
	table.Render()
}

// PrintZoneTable prints per-player zone dwell times.
func PrintZoneTable(w io.Writer, events []model.Event) {
	table := newTable(w)
	table.Header("PLAYER", "TEAM", "ZONE", "DWELL", "FRAMES")

	for _, ev := range events {
		if ev.Type != model.EventZoneDwell {
			continue
		}
		dwell := "—"
		if v, ok := ev.MetaFloat(model.MetaDwellS); ok {
			dwell = fmt.Sprintf("%.1fs", v)
		}
		table.Append(
			playerCell(ev),
			ev.Team,
			ev.Metadata[model.MetaZone],
			dwell,
			ev.Metadata[model.MetaDwellFrames],
		)
	}
	table.Render()
}

func playerCell(ev model.Event) string {
	if ev.PlayerName != "" {
		return ev.PlayerName
	}
	if ev.PlayerID == model.NoPlayer {
		return "—"
	}
	return fmt.Sprintf("#%d", ev.PlayerID)
}

// detailCell condenses the interesting metadata per event kind.
func detailCell(ev model.Event) string {
	var parts []string
	switch ev.Type {
	case model.EventPass:
		if ev.Metadata[model.MetaOutcome] == model.OutcomeIncomplete {
			parts = append(parts, "incomplete")
		} else if rcv := ev.Metadata[model.MetaReceiverName]; rcv != "" {
			parts = append(parts, "to "+rcv)
		} else if id := ev.Metadata[model.MetaReceiverID]; id != "" {
			parts = append(parts, "to #"+id)
		}
		if v, ok := ev.MetaFloat(model.MetaPassDistanceM); ok {
			parts = append(parts, fmt.Sprintf("%.1fm", v))
		}
		if v, ok := ev.MetaFloat(model.MetaBallSpeedMPS); ok {
			parts = append(parts, fmt.Sprintf("%.1fm/s", v))
		}
	case model.EventInterception:
		if rcv := ev.Metadata[model.MetaReceiverName]; rcv != "" {
			parts = append(parts, "by "+rcv)
		} else if id := ev.Metadata[model.MetaReceiverID]; id != "" {
			parts = append(parts, "by #"+id)
		}
		if v, ok := ev.MetaFloat(model.MetaBallSpeedMPS); ok {
			parts = append(parts, fmt.Sprintf("%.1fm/s", v))
		}
	case model.EventShot:
		if area := ev.Metadata[model.MetaGoalArea]; area != "" {
			parts = append(parts, "at "+area)
		}
		if v, ok := ev.MetaFloat(model.MetaBallSpeedMPS); ok {
			parts = append(parts, fmt.Sprintf("%.1fm/s", v))
		}
	case model.EventGoal:
		if area := ev.Metadata[model.MetaGoalArea]; area != "" {
			parts = append(parts, area)
		}
		if v, ok := ev.MetaFloat(model.MetaTimeInGoalS); ok {
			parts = append(parts, fmt.Sprintf("%.1fs in goal", v))
		}
	}
	if len(parts) == 0 {
		return "—"
	}
	return strings.Join(parts, "  ")
}
