package export

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/pitchside/go-pitch-events/internal/model"
)

func sampleEvents() []model.Event {
	pass := model.Event{
		Type:       model.EventPass,
		FrameNum:   100,
		Timestamp:  100.0 / 30.0,
		Confidence: 0.93,
		PlayerID:   1,
		PlayerName: "Ana López",
		Team:       "home",
		StartPos:   &model.Vec2{X: 0.123456789, Y: 34},
		EndPos:     &model.Vec2{X: 10, Y: 34.5},
	}
	pass.SetMeta(model.MetaOutcome, model.OutcomeComplete)
	pass.SetMetaFloat(model.MetaPassDistanceM, 10.0000001)
	pass.SetMeta(model.MetaReceiverID, "2")

	goal := model.Event{
		Type:       model.EventGoal,
		FrameNum:   500,
		Timestamp:  500.0 / 30.0,
		Confidence: 1,
		PlayerID:   model.NoPlayer,
		Manual:     true,
	}
	goal.SetMeta(model.MetaGoalArea, "east_goal")

	return []model.Event{pass, goal}
}

func TestRoundTrip(t *testing.T) {
	events := sampleEvents()

	var buf bytes.Buffer
	if err := WriteCSV(&buf, events); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	got, skipped, err := ReadEvents(&buf)
	if err != nil {
		t.Fatalf("ReadEvents: %v", err)
	}
	if skipped != 0 {
		t.Errorf("expected no skipped rows, got %d", skipped)
	}
	if !reflect.DeepEqual(events, got) {
		t.Errorf("round trip not lossless:\nwrote %+v\nread  %+v", events, got)
	}
}

func TestMetadataWithDelimiters(t *testing.T) {
	ev := model.Event{Type: model.EventPass, FrameNum: 1, Confidence: 1, PlayerID: 3}
	ev.SetMeta("note", "a=b;c, with spaces")

	var buf bytes.Buffer
	if err := WriteCSV(&buf, []model.Event{ev}); err != nil {
		t.Fatal(err)
	}
	got, _, err := ReadEvents(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if got[0].Metadata["note"] != "a=b;c, with spaces" {
		t.Errorf("metadata value mangled: %q", got[0].Metadata["note"])
	}
}

func TestReadEventsMissingColumns(t *testing.T) {
	_, _, err := ReadEvents(strings.NewReader("frame,player_id\n1,2\n"))
	if err == nil {
		t.Fatal("expected error for missing event_type column")
	}
	var de *model.DataError
	if !errors.As(err, &de) {
		t.Fatalf("expected DataError, got %T", err)
	}
	if len(de.Fields) != 1 || de.Fields[0] != "event_type" {
		t.Errorf("unexpected missing fields: %v", de.Fields)
	}
}

func TestReadEventsSkipsBadRows(t *testing.T) {
	csv := `frame,event_type
100,pass
oops,pass
100,moonwalk
200,goal
`
	events, skipped, err := ReadEvents(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("ReadEvents: %v", err)
	}
	if skipped != 2 {
		t.Errorf("expected 2 skipped rows, got %d", skipped)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].PlayerID != model.NoPlayer {
		t.Errorf("missing player_id should default to unattributed, got %d", events[0].PlayerID)
	}
	if events[0].Confidence != 1.0 {
		t.Errorf("missing confidence should default to 1.0, got %g", events[0].Confidence)
	}
}

func TestReadMarkersForcesManual(t *testing.T) {
	path := filepath.Join(t.TempDir(), "markers.csv")
	csv := `frame,event_type,player_id,is_manual
500,goal,7,false
510,shot,7,
`
	if err := os.WriteFile(path, []byte(csv), 0o644); err != nil {
		t.Fatal(err)
	}

	events, skipped, err := ReadMarkers(path)
	if err != nil {
		t.Fatalf("ReadMarkers: %v", err)
	}
	if skipped != 0 {
		t.Errorf("expected no skipped rows, got %d", skipped)
	}
	for _, ev := range events {
		if !ev.Manual {
			t.Errorf("marker not forced manual: %+v", ev)
		}
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	if err := WriteFile(path, sampleEvents()); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if len(lines) != 3 {
		t.Errorf("expected header plus 2 rows, got %d lines", len(lines))
	}
	if lines[0] != strings.Join(Header, ",") {
		t.Errorf("unexpected header line: %q", lines[0])
	}
}
