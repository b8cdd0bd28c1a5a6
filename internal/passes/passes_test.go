package passes

import (
	"math"
	"testing"

	"github.com/pitchside/go-pitch-events/internal/dataset"
	"github.com/pitchside/go-pitch-events/internal/model"
)

var testParams = Params{
	MinPassDistanceM:        5,
	MinBallSpeedMPS:         3,
	ReceiverLookaheadFrames: 90,
}

func ballFrames(t *testing.T, positions map[int]model.Vec2) *dataset.Dataset {
	t.Helper()
	frames := make([]model.Frame, 0, len(positions))
	for num, pos := range positions {
		frames = append(frames, model.Frame{
			Num:  num,
			Ball: &model.Ball{Pos: pos, Confidence: 1},
		})
	}
	ds, err := dataset.New(frames, dataset.Options{FPS: 30, FieldLength: 105, FieldWidth: 68})
	if err != nil {
		t.Fatalf("dataset.New: %v", err)
	}
	return ds
}

func interval(player int, team string, start, end int) model.PossessionInterval {
	return model.PossessionInterval{PlayerID: player, Team: team, StartFrame: start, EndFrame: end}
}

func TestDetectSuccessfulPass(t *testing.T) {
	ds := ballFrames(t, map[int]model.Vec2{
		100: {X: 0, Y: 0},
		110: {X: 10, Y: 0},
	})
	intervals := []model.PossessionInterval{
		interval(1, "home", 90, 100),
		interval(2, "home", 110, 200),
	}

	res := Detect(ds, intervals, testParams)

	var pass model.Event
	found := 0
	for _, ev := range res.Events {
		if ev.Type == model.EventPass && ev.Metadata[model.MetaOutcome] == model.OutcomeComplete {
			pass = ev
			found++
		}
	}
	if found != 1 {
		t.Fatalf("expected exactly 1 completed pass, got %d: %+v", found, res.Events)
	}

	if pass.PlayerID != 1 || pass.Team != "home" || pass.FrameNum != 100 {
		t.Errorf("unexpected pass attribution: %+v", pass)
	}
	if got, ok := pass.MetaFloat(model.MetaPassDistanceM); !ok || math.Abs(got-10) > 1e-9 {
		t.Errorf("expected pass_distance_m 10, got %g", got)
	}
	// 10 m over 10 frames at 30 fps is a third of a second: 30 m/s.
	if got, ok := pass.MetaFloat(model.MetaBallSpeedMPS); !ok || math.Abs(got-30) > 1e-9 {
		t.Errorf("expected ball_speed_mps 30, got %g", got)
	}
	if pass.Metadata[model.MetaReceiverID] != "2" {
		t.Errorf("expected receiver_id 2, got %q", pass.Metadata[model.MetaReceiverID])
	}
	if pass.Confidence <= 0 || pass.Confidence > 1 {
		t.Errorf("confidence out of range: %g", pass.Confidence)
	}
	if pass.StartPos == nil || pass.EndPos == nil || pass.EndPos.X != 10 {
		t.Errorf("unexpected positions: start=%+v end=%+v", pass.StartPos, pass.EndPos)
	}
}

func TestDetectInterception(t *testing.T) {
	ds := ballFrames(t, map[int]model.Vec2{
		100: {X: 0, Y: 0},
		110: {X: 10, Y: 0},
	})
	intervals := []model.PossessionInterval{
		interval(1, "home", 90, 100),
		interval(5, "away", 110, 200),
	}

	res := Detect(ds, intervals, testParams)

	found := 0
	for _, ev := range res.Events {
		if ev.Type != model.EventInterception {
			continue
		}
		found++
		if ev.PlayerID != 1 || ev.Team != "home" {
			t.Errorf("interception must be attributed to the passer: %+v", ev)
		}
		if ev.Metadata[model.MetaReceiverID] != "5" {
			t.Errorf("expected receiver_id 5, got %q", ev.Metadata[model.MetaReceiverID])
		}
		if _, ok := ev.Metadata[model.MetaOutcome]; ok {
			t.Error("interceptions carry no outcome key")
		}
	}
	if found != 1 {
		t.Fatalf("expected 1 interception, got %d", found)
	}
}

func TestDetectIncompleteWhenNoReceiver(t *testing.T) {
	ds := ballFrames(t, map[int]model.Vec2{
		100: {X: 0, Y: 0},
		120: {X: 15, Y: 0},
	})
	intervals := []model.PossessionInterval{interval(1, "home", 90, 100)}

	res := Detect(ds, intervals, testParams)

	if len(res.Events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(res.Events))
	}
	ev := res.Events[0]
	if ev.Type != model.EventPass || ev.Metadata[model.MetaOutcome] != model.OutcomeIncomplete {
		t.Fatalf("expected incomplete pass, got %+v", ev)
	}
	if ev.EndPos == nil || ev.EndPos.X != 15 {
		t.Errorf("end position should be the last ball fix in the lookahead: %+v", ev.EndPos)
	}
	if got, ok := ev.MetaFloat(model.MetaPassDistanceM); !ok || math.Abs(got-15) > 1e-9 {
		t.Errorf("expected pass_distance_m 15, got %g", got)
	}
}

func TestDetectIncompleteWhenReceiverTooLate(t *testing.T) {
	ds := ballFrames(t, map[int]model.Vec2{
		100: {X: 0, Y: 0},
		300: {X: 10, Y: 0},
	})
	intervals := []model.PossessionInterval{
		interval(1, "home", 90, 100),
		interval(2, "home", 300, 400), // 200 frames later, past the lookahead
	}

	res := Detect(ds, intervals, testParams)

	if res.Events[0].Metadata[model.MetaOutcome] != model.OutcomeIncomplete {
		t.Errorf("expected incomplete pass past lookahead, got %+v", res.Events[0])
	}
}

func TestDetectRejectsDribblingNoise(t *testing.T) {
	// 1 m transition, below the distance filter.
	ds := ballFrames(t, map[int]model.Vec2{
		100: {X: 0, Y: 0},
		110: {X: 1, Y: 0},
	})
	intervals := []model.PossessionInterval{
		interval(1, "home", 90, 100),
		interval(2, "home", 110, 200),
	}

	res := Detect(ds, intervals, testParams)

	for _, ev := range res.Events {
		if ev.FrameNum == 100 {
			t.Errorf("short transition must not yield an event: %+v", ev)
		}
	}
	for _, m := range res.Teams {
		if m.Attempts() != 1 { // only the trailing incomplete from interval 2
			t.Errorf("rejected transitions must not count as attempts: %+v", m)
		}
	}
}

func TestDetectSkipsSamePlayerRegain(t *testing.T) {
	ds := ballFrames(t, map[int]model.Vec2{
		100: {X: 0, Y: 0},
		110: {X: 10, Y: 0},
	})
	intervals := []model.PossessionInterval{
		interval(1, "home", 90, 100),
		interval(1, "home", 110, 200),
	}

	res := Detect(ds, intervals, testParams)

	for _, ev := range res.Events {
		if ev.FrameNum == 100 {
			t.Errorf("same-player regain must not yield an event: %+v", ev)
		}
	}
}

func TestAccuracyTotals(t *testing.T) {
	// Player 1: one completed pass and one interception. Player 2: one
	// completed pass. Player 3: one trailing incomplete.
	ds := ballFrames(t, map[int]model.Vec2{
		100: {X: 0, Y: 0},
		110: {X: 10, Y: 0},
		200: {X: 10, Y: 0},
		210: {X: 20, Y: 0},
		250: {X: 20, Y: 0},
		260: {X: 30, Y: 0},
	})
	intervals := []model.PossessionInterval{
		interval(1, "home", 90, 100),
		interval(2, "home", 110, 200),
		interval(1, "home", 210, 250),
		interval(3, "away", 260, 300),
	}

	res := Detect(ds, intervals, testParams)

	players := make(map[string]model.AccuracyMetrics)
	for _, m := range res.Players {
		players[m.Key] = m
	}
	p1 := players["1"]
	if p1.Successful != 1 || p1.Intercepted != 1 || p1.Incomplete != 0 {
		t.Errorf("unexpected player 1 metrics: %+v", p1)
	}
	if rate := p1.CompletionRate(); math.Abs(rate-0.5) > 1e-9 {
		t.Errorf("expected completion rate 0.5, got %g", rate)
	}

	for _, m := range append(res.Players, res.Teams...) {
		if r := m.CompletionRate(); r < 0 || r > 1 {
			t.Errorf("completion rate out of range for %s: %g", m.Key, r)
		}
	}
}

func TestCompletionRateZeroAttempts(t *testing.T) {
	m := model.AccuracyMetrics{}
	if got := m.CompletionRate(); got != 0 {
		t.Errorf("expected 0 for no attempts, got %g", got)
	}
}

func TestConfidencePlausibilityDecay(t *testing.T) {
	full := confidenceFor([]float64{1}, 30)
	mid := confidenceFor([]float64{1}, 55)
	zero := confidenceFor([]float64{1}, 80)

	if full != 1.0 {
		t.Errorf("expected full confidence at plausible speed, got %g", full)
	}
	if !(mid < full && mid > zero) {
		t.Errorf("confidence must decay with speed: %g, %g, %g", full, mid, zero)
	}
	if want := detectionWeight; math.Abs(zero-want) > 1e-9 {
		t.Errorf("past hard cap only detection remains: got %g, want %g", zero, want)
	}
}

func TestComputeAccuracyFromMergedEvents(t *testing.T) {
	events := []model.Event{
		{Type: model.EventPass, PlayerID: 1, Team: "home",
			Metadata: map[string]string{model.MetaOutcome: model.OutcomeComplete}},
		{Type: model.EventPass, PlayerID: 1, Team: "home", Manual: true,
			Metadata: map[string]string{model.MetaOutcome: model.OutcomeIncomplete}},
		{Type: model.EventInterception, PlayerID: 2, Team: "away"},
		{Type: model.EventShot, PlayerID: 1, Team: "home"}, // ignored
	}

	players, teams := ComputeAccuracy(events)

	if len(players) != 2 {
		t.Fatalf("expected 2 player rows, got %d", len(players))
	}
	if p := players[0]; p.Key != "1" || p.Successful != 1 || p.Incomplete != 1 {
		t.Errorf("unexpected player 1 row: %+v", p)
	}
	if p := players[1]; p.Key != "2" || p.Intercepted != 1 {
		t.Errorf("unexpected player 2 row: %+v", p)
	}
	if len(teams) != 2 || teams[0].Key != "away" || teams[1].Key != "home" {
		t.Errorf("unexpected team rows: %+v", teams)
	}
}
