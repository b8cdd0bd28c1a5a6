package engine

import (
	"strings"
	"testing"

	"github.com/pitchside/go-pitch-events/internal/config"
	"github.com/pitchside/go-pitch-events/internal/dataset"
	"github.com/pitchside/go-pitch-events/internal/model"
)

// matchFrames synthesizes a short sequence: player 1 carries the ball, plays
// a long pass to player 2, who holds it to the end.
func matchFrames() []model.Frame {
	var frames []model.Frame
	addFrame := func(num int, ballX float64, p1X, p2X float64) {
		frames = append(frames, model.Frame{
			Num:  num,
			Ball: &model.Ball{Pos: model.Vec2{X: ballX, Y: 34}, Confidence: 1},
			Players: map[int]model.PlayerObs{
				1: {TrackID: 1, Pos: model.Vec2{X: p1X, Y: 34}, Confidence: 1, Team: "home", Name: "Ana"},
				2: {TrackID: 2, Pos: model.Vec2{X: p2X, Y: 34}, Confidence: 1, Team: "home", Name: "Bea"},
			},
		})
	}

	// Player 1 holds the ball at x=20 for 30 frames.
	for i := 0; i < 30; i++ {
		addFrame(i, 20, 20.5, 50.5)
	}
	// The ball travels 30 m in a second, 1 m per frame at 30 fps.
	for i := 0; i < 30; i++ {
		addFrame(30+i, 21+float64(i), 20.5, 50.5)
	}
	// Player 2 holds the ball to the end.
	for i := 0; i < 30; i++ {
		addFrame(60+i, 50, 20.5, 50.5)
	}
	return frames
}

func newDataset(t *testing.T, frames []model.Frame) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.New(frames, dataset.Options{FPS: 30, FieldLength: 105, FieldWidth: 68})
	if err != nil {
		t.Fatalf("dataset.New: %v", err)
	}
	return ds
}

func TestRunFullPipeline(t *testing.T) {
	ds := newDataset(t, matchFrames())
	p := config.Defaults()

	res, err := Run(Inputs{Dataset: ds}, p)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(res.Intervals) < 2 {
		t.Fatalf("expected at least 2 possession intervals, got %+v", res.Intervals)
	}
	completed := 0
	for _, ev := range res.Events {
		if ev.Type == model.EventPass && ev.Metadata[model.MetaOutcome] == model.OutcomeComplete {
			completed++
			if ev.PlayerID != 1 || ev.Metadata[model.MetaReceiverID] != "2" {
				t.Errorf("unexpected pass attribution: %+v", ev)
			}
		}
	}
	if completed != 1 {
		t.Errorf("expected exactly one completed pass, got %d in %+v", completed, res.Events)
	}
	if res.Counts[model.EventZoneDwell] == 0 {
		t.Errorf("expected zone dwell events, got counts %+v", res.Counts)
	}

	// No goal geometry and UseDefaultGoalAreas off: shots skipped, noticed.
	if res.Counts[model.EventShot] != 0 || res.Counts[model.EventGoal] != 0 {
		t.Errorf("expected no shot/goal events without geometry, got %+v", res.Counts)
	}
	if !hasNoticeContaining(res.Notices, "shot and goal detection skipped") {
		t.Errorf("expected a skip notice, got %v", res.Notices)
	}

	if len(res.PlayerAccuracy) == 0 || len(res.TeamAccuracy) == 0 {
		t.Error("expected accuracy rollups for the merged events")
	}

	for i := 1; i < len(res.Events); i++ {
		if res.Events[i-1].FrameNum > res.Events[i].FrameNum {
			t.Fatal("merged events not sorted by frame")
		}
	}
}

func TestRunDefaultGoalCorridors(t *testing.T) {
	ds := newDataset(t, matchFrames())
	p := config.Defaults()
	p.UseDefaultGoalAreas = true

	res, err := Run(Inputs{Dataset: ds}, p)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !hasNoticeContaining(res.Notices, "default goal corridors") {
		t.Errorf("expected a default-corridor notice, got %v", res.Notices)
	}
}

func TestRunWithoutBallDegrades(t *testing.T) {
	var frames []model.Frame
	for i := 0; i < 20; i++ {
		frames = append(frames, model.Frame{
			Num: i,
			Players: map[int]model.PlayerObs{
				1: {TrackID: 1, Pos: model.Vec2{X: 20, Y: 34}, Confidence: 1, Team: "home"},
			},
		})
	}
	ds := newDataset(t, frames)

	res, err := Run(Inputs{Dataset: ds}, config.Defaults())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(res.Intervals) != 0 {
		t.Errorf("no ball means no possession, got %+v", res.Intervals)
	}
	if res.Counts[model.EventPass] != 0 || res.Counts[model.EventShot] != 0 {
		t.Errorf("ball-dependent detectors must be skipped, got %+v", res.Counts)
	}
	if res.Counts[model.EventZoneDwell] == 0 {
		t.Error("zone analysis must still run without a ball")
	}
	if !hasNoticeContaining(res.Notices, "no ball detections") {
		t.Errorf("expected a degraded-mode notice, got %v", res.Notices)
	}
}

func TestRunReconcilesMarkers(t *testing.T) {
	ds := newDataset(t, matchFrames())
	p := config.Defaults()

	marker := model.Event{
		Type:     model.EventGoal,
		FrameNum: 55,
		PlayerID: 2,
		Team:     "home",
		Manual:   true,
	}

	res, err := Run(Inputs{Dataset: ds, Markers: []model.Event{marker}}, p)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.Counts[model.EventGoal] != 1 {
		t.Fatalf("unmatched marker must pass through, got %+v", res.Counts)
	}
	found := false
	for _, ev := range res.Events {
		if ev.Type == model.EventGoal && ev.Manual && ev.FrameNum == 55 {
			found = true
		}
	}
	if !found {
		t.Errorf("marker missing from merged events: %+v", res.Events)
	}
}

func TestRunRejectsInvalidParams(t *testing.T) {
	p := config.Defaults()
	p.FPS = 0
	if _, err := Run(Inputs{Dataset: nil}, p); err == nil {
		t.Error("expected validation error before any detection")
	}
}

func TestRunNilDataset(t *testing.T) {
	if _, err := Run(Inputs{}, config.Defaults()); err == nil {
		t.Error("expected error for nil dataset")
	}
}

func hasNoticeContaining(notices []string, substr string) bool {
	for _, n := range notices {
		if strings.Contains(n, substr) {
			return true
		}
	}
	return false
}
