// Package config defines the immutable detection-parameter set and loads
// it from defaults, an optional YAML file, and environment variables.
package config

import (
	"fmt"

	"github.com/pitchside/go-pitch-events/internal/dataset"
	"github.com/pitchside/go-pitch-events/internal/passes"
	"github.com/pitchside/go-pitch-events/internal/possession"
	"github.com/pitchside/go-pitch-events/internal/shots"
)

// Params is the one-shot parameter struct handed to every detector call.
// There is no ambient mutable settings object: a Params value is built
// once per run, validated, and never written again.
type Params struct {
	// Recording parameters.
	FPS          float64 `koanf:"fps"`
	FieldLengthM float64 `koanf:"field_length_m"`
	FieldWidthM  float64 `koanf:"field_width_m"`

	// Possession assignment.
	PossessionThresholdM float64 `koanf:"possession_threshold_m"`
	MinDwellFrames       int     `koanf:"min_dwell_frames"`
	GapToleranceFrames   int     `koanf:"gap_tolerance_frames"`

	// Pass detection.
	MinPassDistanceM        float64 `koanf:"min_pass_distance_m"`
	MinBallSpeedMPS         float64 `koanf:"min_ball_speed_mps"`
	ReceiverLookaheadFrames int     `koanf:"receiver_lookahead_frames"`

	// Shot and goal detection.
	ShotSpeedThresholdMPS  float64 `koanf:"shot_speed_threshold_mps"`
	ShotLookaheadDistanceM float64 `koanf:"shot_lookahead_distance_m"`
	ShooterLookbackFrames  int     `koanf:"shooter_lookback_frames"`
	MinTimeInGoalS         float64 `koanf:"min_time_in_goal_s"`
	ScorerLookbackFrames   int     `koanf:"scorer_lookback_frames"`

	// UseDefaultGoalAreas falls back to heuristic corridors at each end of
	// the field when no designation file is supplied; when false the shot
	// and goal detectors are skipped with a notice instead.
	UseDefaultGoalAreas bool `koanf:"use_default_goal_areas"`

	// Reconciliation.
	MatchWindowFrames int `koanf:"match_window_frames"`
}

// Defaults returns the baseline Params for a standard 105x68m field
// recorded at 30fps.
func Defaults() *Params {
	return &Params{
		FPS:          30,
		FieldLengthM: 105,
		FieldWidthM:  68,

		PossessionThresholdM: 1.5,
		MinDwellFrames:       3,
		GapToleranceFrames:   5,

		MinPassDistanceM:        2.0,
		MinBallSpeedMPS:         2.0,
		ReceiverLookaheadFrames: 90,

		ShotSpeedThresholdMPS:  8.0,
		ShotLookaheadDistanceM: 25,
		ShooterLookbackFrames:  75,
		MinTimeInGoalS:         0.3,
		ScorerLookbackFrames:   150,

		MatchWindowFrames: 5,
	}
}

// Validate rejects out-of-range thresholds before any detection runs.
func (p *Params) Validate() error {
	checks := []struct {
		bad  bool
		what string
	}{
		{p.FPS <= 0, "fps must be positive"},
		{p.FieldLengthM <= 0, "field_length_m must be positive"},
		{p.FieldWidthM <= 0, "field_width_m must be positive"},
		{p.PossessionThresholdM <= 0, "possession_threshold_m must be positive"},
		{p.MinDwellFrames < 1, "min_dwell_frames must be at least 1"},
		{p.GapToleranceFrames < 0, "gap_tolerance_frames must not be negative"},
		{p.MinPassDistanceM < 0, "min_pass_distance_m must not be negative"},
		{p.MinBallSpeedMPS < 0, "min_ball_speed_mps must not be negative"},
		{p.ReceiverLookaheadFrames < 1, "receiver_lookahead_frames must be at least 1"},
		{p.ShotSpeedThresholdMPS <= 0, "shot_speed_threshold_mps must be positive"},
		{p.ShotLookaheadDistanceM <= 0, "shot_lookahead_distance_m must be positive"},
		{p.ShooterLookbackFrames < 0, "shooter_lookback_frames must not be negative"},
		{p.MinTimeInGoalS < 0, "min_time_in_goal_s must not be negative"},
		{p.ScorerLookbackFrames < 0, "scorer_lookback_frames must not be negative"},
		{p.MatchWindowFrames < 0, "match_window_frames must not be negative"},
	}
	for _, c := range checks {
		if c.bad {
			return fmt.Errorf("%w: %s", ErrInvalidParams, c.what)
		}
	}
	return nil
}

// DatasetOptions derives the loader options from the run parameters.
func (p *Params) DatasetOptions() dataset.Options {
	return dataset.Options{FPS: p.FPS, FieldLength: p.FieldLengthM, FieldWidth: p.FieldWidthM}
}

func (p *Params) Possession() possession.Params {
	return possession.Params{
		ThresholdM:         p.PossessionThresholdM,
		MinDwellFrames:     p.MinDwellFrames,
		GapToleranceFrames: p.GapToleranceFrames,
	}
}

func (p *Params) Passes() passes.Params {
	return passes.Params{
		MinPassDistanceM:        p.MinPassDistanceM,
		MinBallSpeedMPS:         p.MinBallSpeedMPS,
		ReceiverLookaheadFrames: p.ReceiverLookaheadFrames,
	}
}

func (p *Params) Shots() shots.Params {
	return shots.Params{
		ShotSpeedThresholdMPS: p.ShotSpeedThresholdMPS,
		LookaheadDistanceM:    p.ShotLookaheadDistanceM,
		ShooterLookbackFrames: p.ShooterLookbackFrames,
		MinTimeInGoalS:        p.MinTimeInGoalS,
		ScorerLookbackFrames:  p.ScorerLookbackFrames,
	}
}
