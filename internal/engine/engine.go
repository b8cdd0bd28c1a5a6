// Package engine runs the full detection pipeline over one loaded dataset:
// possession, then passes, shots/goals, and zones in parallel, then
// reconciliation against manual markers.
package engine

import (
	"fmt"
	"sync"

	"github.com/pitchside/go-pitch-events/internal/config"
	"github.com/pitchside/go-pitch-events/internal/dataset"
	"github.com/pitchside/go-pitch-events/internal/model"
	"github.com/pitchside/go-pitch-events/internal/passes"
	"github.com/pitchside/go-pitch-events/internal/pitch"
	"github.com/pitchside/go-pitch-events/internal/possession"
	"github.com/pitchside/go-pitch-events/internal/reconcile"
	"github.com/pitchside/go-pitch-events/internal/shots"
	"github.com/pitchside/go-pitch-events/internal/zones"
)

// Inputs are the read-only inputs of one engine run. Everything here is
// owned by the run and never mutated.
type Inputs struct {
	Dataset   *dataset.Dataset
	GoalAreas []pitch.GoalArea
	Zones     []zones.Zone     // nil means default thirds
	Markers   []model.Event    // manual ground truth, may be empty
}

// Result is the complete output of a run.
type Result struct {
	Events []model.Event // merged with markers, sorted

	Intervals []model.PossessionInterval

	PlayerAccuracy []model.AccuracyMetrics
	TeamAccuracy   []model.AccuracyMetrics

	Counts      map[model.EventType]int
	Notices     []string
	SkippedRows int
}

// Run executes one batch computation. Parameters are validated before any
// detection; degraded inputs (no ball, no goal geometry) disable only the
// detectors that need them and leave a notice in the result.
func Run(in Inputs, p *config.Params) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if in.Dataset == nil {
		return nil, fmt.Errorf("engine: nil dataset")
	}
	ds := in.Dataset

	res := &Result{
		Counts:      make(map[model.EventType]int),
		SkippedRows: ds.SkippedRows(),
	}
	if res.SkippedRows > 0 {
		res.Notices = append(res.Notices, fmt.Sprintf("%d malformed tracking rows skipped", res.SkippedRows))
	}

	areas := in.GoalAreas
	ballDependent := ds.HasBall()
	if !ballDependent {
		res.Notices = append(res.Notices, "no ball detections in dataset; possession, pass, shot, and goal detection skipped")
	} else if len(areas) == 0 {
		if p.UseDefaultGoalAreas {
			areas = pitch.DefaultGoalAreas(ds.FieldLength(), ds.FieldWidth())
			res.Notices = append(res.Notices, "no goal geometry supplied; using default goal corridors")
		} else {
			res.Notices = append(res.Notices, "no goal geometry supplied; shot and goal detection skipped")
		}
	}

	if ballDependent {
		res.Intervals = possession.Assign(ds, p.Possession())
	}

	// The three detector groups share only the read-only dataset and
	// interval slice, so they can run unsynchronized.
	var (
		wg         sync.WaitGroup
		passResult passes.Result
		shotEvents []model.Event
		goalEvents []model.Event
		zoneEvents []model.Event
	)
	if ballDependent {
		wg.Add(1)
		go func() {
			defer wg.Done()
			passResult = passes.Detect(ds, res.Intervals, p.Passes())
		}()
		if len(areas) > 0 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				shotEvents = shots.DetectShots(ds, res.Intervals, areas, p.Shots())
				goalEvents = shots.DetectGoals(ds, res.Intervals, shotEvents, areas, p.Shots())
			}()
		}
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		zoneEvents = zones.Analyze(ds, in.Zones)
	}()
	wg.Wait()

	detected := make([]model.Event, 0,
		len(passResult.Events)+len(shotEvents)+len(goalEvents)+len(zoneEvents))
	detected = append(detected, passResult.Events...)
	detected = append(detected, shotEvents...)
	detected = append(detected, goalEvents...)
	detected = append(detected, zoneEvents...)

	res.Events = reconcile.Merge(detected, in.Markers, p.MatchWindowFrames)
	for _, ev := range res.Events {
		res.Counts[ev.Type]++
	}

	// Accuracy reflects the merged event set so manual corrections count.
	res.PlayerAccuracy, res.TeamAccuracy = passes.ComputeAccuracy(res.Events)
	return res, nil
}
