package dataset

import (
	"errors"
	"strings"
	"testing"

	"github.com/pitchside/go-pitch-events/internal/model"
)

var testOpts = Options{FPS: 30, FieldLength: 105, FieldWidth: 68}

func parse(t *testing.T, csv string) *Dataset {
	t.Helper()
	ds, err := Parse(strings.NewReader(csv), testOpts)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return ds
}

func TestParseBasic(t *testing.T) {
	ds := parse(t, `frame,track_id,x,y,team,name,confidence
0,1,10.0,20.0,home,Alice,0.9
0,2,30.0,40.0,away,Bob,0.8
0,ball,11.0,20.0,,,0.7
1,1,10.5,20.0,home,Alice,0.9
`)

	if ds.NumFrames() != 2 {
		t.Fatalf("expected 2 frames, got %d", ds.NumFrames())
	}
	fr, ok := ds.FrameAt(0)
	if !ok {
		t.Fatal("expected frame 0")
	}
	if len(fr.Players) != 2 {
		t.Errorf("expected 2 players in frame 0, got %d", len(fr.Players))
	}
	if fr.Ball == nil || fr.Ball.Pos.X != 11.0 {
		t.Errorf("unexpected ball in frame 0: %+v", fr.Ball)
	}
	if fr.Ball.Confidence != 0.7 {
		t.Errorf("expected ball confidence 0.7, got %g", fr.Ball.Confidence)
	}
	if got := fr.Players[1].Name; got != "Alice" {
		t.Errorf("expected player 1 name Alice, got %q", got)
	}

	fr1, _ := ds.FrameAt(1)
	if fr1.Ball != nil {
		t.Error("frame 1 has no ball row, expected nil ball")
	}
	if want := 1.0 / 30.0; fr1.Timestamp != want {
		t.Errorf("expected timestamp %g, got %g", want, fr1.Timestamp)
	}
	if !ds.HasBall() {
		t.Error("dataset has a ball detection, HasBall should be true")
	}
}

func TestParseMissingColumnsFailsWithDataError(t *testing.T) {
	_, err := Parse(strings.NewReader("frame,x,y\n0,1.0,2.0\n"), testOpts)
	if err == nil {
		t.Fatal("expected error for missing track_id column")
	}
	var de *model.DataError
	if !errors.As(err, &de) {
		t.Fatalf("expected DataError, got %T: %v", err, err)
	}
	if len(de.Fields) != 1 || de.Fields[0] != "track_id" {
		t.Errorf("expected offending field [track_id], got %v", de.Fields)
	}
}

func TestParseDedupLastWriteWins(t *testing.T) {
	ds := parse(t, `frame,track_id,x,y
5,1,1.0,1.0
5,1,2.0,2.0
5,ball,0.0,0.0
5,ball,9.0,9.0
`)
	fr, _ := ds.FrameAt(5)
	if fr.Players[1].Pos.X != 2.0 {
		t.Errorf("expected last player row to win, got x=%g", fr.Players[1].Pos.X)
	}
	if fr.Ball.Pos.X != 9.0 {
		t.Errorf("expected last ball row to win, got x=%g", fr.Ball.Pos.X)
	}
}

func TestParseSkipsMalformedRows(t *testing.T) {
	ds := parse(t, `frame,track_id,x,y
0,1,1.0,1.0
bogus,1,1.0,1.0
1,1,not-a-number,1.0
2,not-an-id,1.0,1.0
3,1,1.0,1.0
`)
	if ds.SkippedRows() != 3 {
		t.Errorf("expected 3 skipped rows, got %d", ds.SkippedRows())
	}
	if ds.NumFrames() != 2 {
		t.Errorf("expected 2 frames, got %d", ds.NumFrames())
	}
}

func TestParseMissingConfidenceDefaultsToOne(t *testing.T) {
	ds := parse(t, "frame,track_id,x,y\n0,1,1.0,2.0\n")
	fr, _ := ds.FrameAt(0)
	if fr.Players[1].Confidence != 1.0 {
		t.Errorf("expected default confidence 1.0, got %g", fr.Players[1].Confidence)
	}
}

func TestFramesInRange(t *testing.T) {
	ds := parse(t, `frame,track_id,x,y
0,1,1,1
2,1,1,1
4,1,1,1
6,1,1,1
`)
	got := ds.FramesInRange(2, 4)
	if len(got) != 2 || got[0].Num != 2 || got[1].Num != 4 {
		t.Errorf("unexpected range result: %+v", got)
	}
	if got := ds.FramesInRange(7, 10); len(got) != 0 {
		t.Errorf("expected empty range, got %d frames", len(got))
	}
	if got := ds.FramesInRange(4, 2); len(got) != 0 {
		t.Errorf("expected empty inverted range, got %d frames", len(got))
	}
}

func TestParseRejectsNonPositiveFPS(t *testing.T) {
	_, err := Parse(strings.NewReader("frame,track_id,x,y\n"), Options{FPS: 0})
	if err == nil {
		t.Fatal("expected error for fps=0")
	}
}

func TestNewSortsAndStampsFrames(t *testing.T) {
	ds, err := New([]model.Frame{
		{Num: 10, Players: map[int]model.PlayerObs{}},
		{Num: 5, Ball: &model.Ball{Pos: model.Vec2{X: 1}, Confidence: 1}},
	}, testOpts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	frames := ds.Frames()
	if frames[0].Num != 5 || frames[1].Num != 10 {
		t.Errorf("frames not sorted: %d, %d", frames[0].Num, frames[1].Num)
	}
	if want := 5.0 / 30.0; frames[0].Timestamp != want {
		t.Errorf("expected timestamp %g, got %g", want, frames[0].Timestamp)
	}
	if !ds.HasBall() {
		t.Error("expected HasBall after New with a ball frame")
	}
}
