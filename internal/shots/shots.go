// Package shots derives shot and goal events from ball kinematics against
// goal-area geometry.
package shots

import (
	"math"

	"github.com/pitchside/go-pitch-events/internal/dataset"
	"github.com/pitchside/go-pitch-events/internal/model"
	"github.com/pitchside/go-pitch-events/internal/pitch"
)

// Params tune shot and goal detection. Validated by config.Params.
type Params struct {
	// ShotSpeedThresholdMPS is the minimum instantaneous ball speed for a
	// frame to open or extend a shot window.
	ShotSpeedThresholdMPS float64

	// LookaheadDistanceM bounds how far the ball trajectory is extrapolated
	// when testing goal-area intersection.
	LookaheadDistanceM float64

	// ShooterLookbackFrames bounds the search for the possession interval
	// that attributes the shooter.
	ShooterLookbackFrames int

	// MinTimeInGoalS is the continuous containment time required before a
	// goal is reported.
	MinTimeInGoalS float64

	// ScorerLookbackFrames bounds the search for the shot (or possessor)
	// that attributes the scorer.
	ScorerLookbackFrames int
}

// Confidence weighting: 0.5·detection + 0.25·speed + 0.25·alignment, each
// in [0,1]. detection is the mean ball confidence over the window (non-
// decreasing in each sample); speed saturates at twice the shot threshold
// (non-decreasing); alignment is the cosine between the ball velocity and
// the direction to the goal centroid, floored at 0 (non-decreasing).
const (
	wDetection = 0.5
	wSpeed     = 0.25
	wAlignment = 0.25
)

// ballStep is one ball displacement between two adjacent frames.
type ballStep struct {
	frameNum int // frame the step starts at
	pos      model.Vec2
	dir      model.Vec2 // displacement to the next ball frame
	speed    float64    // m/s over the step
	conf     float64    // ball confidence at frameNum
}

func ballSteps(ds *dataset.Dataset) []ballStep {
	frames := ds.Frames()
	var steps []ballStep
	var prev *model.Frame
	for i := range frames {
		fr := &frames[i]
		if fr.Ball == nil {
			prev = nil
			continue
		}
		if prev != nil {
			dt := fr.Timestamp - prev.Timestamp
			dir := model.Vec2{X: fr.Ball.Pos.X - prev.Ball.Pos.X, Y: fr.Ball.Pos.Y - prev.Ball.Pos.Y}
			speed := 0.0
			if dt > 0 {
				speed = math.Hypot(dir.X, dir.Y) / dt
			}
			steps = append(steps, ballStep{
				frameNum: prev.Num,
				pos:      prev.Ball.Pos,
				dir:      dir,
				speed:    speed,
				conf:     prev.Ball.Confidence,
			})
		}
		prev = fr
	}
	return steps
}

// DetectShots scans the ball track for windows where the speed clears the
// threshold and the extrapolated trajectory hits a goal area within the
// lookahead distance. One event is emitted per window, at its first frame;
// the shooter is the most recent possessor within the lookback, else the
// event is reported unattributed.
func DetectShots(ds *dataset.Dataset, intervals []model.PossessionInterval, areas []pitch.GoalArea, p Params) []model.Event {
	if len(areas) == 0 {
		return nil
	}
	steps := ballSteps(ds)

	type window struct {
		start, end int // step indices
		area       *pitch.GoalArea
	}
	var windows []window
	for i := range steps {
		st := &steps[i]
		if st.speed < p.ShotSpeedThresholdMPS {
			continue
		}
		area := targetArea(areas, st.pos, st.dir, p.LookaheadDistanceM)
		if area == nil {
			continue
		}
		if n := len(windows); n > 0 && windows[n-1].end == i-1 && windows[n-1].area == area {
			windows[n-1].end = i
			continue
		}
		windows = append(windows, window{start: i, end: i, area: area})
	}

	var events []model.Event
	for _, w := range windows {
		first := steps[w.start]
		last := steps[w.end]

		det, maxSpeed := 0.0, 0.0
		for i := w.start; i <= w.end; i++ {
			det += steps[i].conf
			if steps[i].speed > maxSpeed {
				maxSpeed = steps[i].speed
			}
		}
		det /= float64(w.end - w.start + 1)

		ev := model.Event{
			Type:       model.EventShot,
			FrameNum:   first.frameNum,
			Timestamp:  ds.Timestamp(first.frameNum),
			Confidence: confidenceFor(det, maxSpeed, p.ShotSpeedThresholdMPS, first.pos, first.dir, w.area),
			PlayerID:   model.NoPlayer,
			StartPos:   &model.Vec2{X: first.pos.X, Y: first.pos.Y},
			EndPos:     &model.Vec2{X: last.pos.X + last.dir.X, Y: last.pos.Y + last.dir.Y},
		}
		if iv := possessorBefore(intervals, first.frameNum, p.ShooterLookbackFrames); iv != nil {
			ev.PlayerID = iv.PlayerID
			ev.PlayerName = iv.PlayerName
			ev.Team = iv.Team
		}
		ev.SetMetaFloat(model.MetaBallSpeedMPS, maxSpeed)
		ev.SetMeta(model.MetaGoalArea, w.area.Name)
		events = append(events, ev)
	}
	return events
}

// DetectGoals requires the ball to sit inside a goal area continuously for
// at least MinTimeInGoalS. A frame with the ball outside, or with no ball
// detection at all, breaks the run. The scorer is the shooter of the most
// recent shot event within the lookback window, else the most recent
// possessor; with neither, the goal is reported unattributed.
func DetectGoals(ds *dataset.Dataset, intervals []model.PossessionInterval, shotEvents []model.Event, areas []pitch.GoalArea, p Params) []model.Event {
	if len(areas) == 0 {
		return nil
	}
	frames := ds.Frames()
	var events []model.Event

	for ai := range areas {
		area := &areas[ai]
		runStart := -1 // index into frames
		var confSum float64
		var confN int

		flush := func(endIdx int) {
			defer func() { runStart = -1; confSum, confN = 0, 0 }()
			if runStart < 0 {
				return
			}
			entry := frames[runStart].Num
			exit := frames[endIdx].Num
			dwell := (float64(exit-entry) + 1) / ds.FPS()
			if dwell < p.MinTimeInGoalS {
				return
			}

			entrySpeed, entryDir := entryKinematics(ds, runStart)
			ev := model.Event{
				Type:       model.EventGoal,
				FrameNum:   entry,
				Timestamp:  ds.Timestamp(entry),
				Confidence: confidenceFor(confSum/float64(confN), entrySpeed, p.ShotSpeedThresholdMPS, frames[runStart].Ball.Pos, entryDir, area),
				PlayerID:   model.NoPlayer,
				StartPos:   &model.Vec2{X: frames[runStart].Ball.Pos.X, Y: frames[runStart].Ball.Pos.Y},
			}
			ev.SetMeta(model.MetaGoalArea, area.Name)
			ev.SetMetaFloat(model.MetaTimeInGoalS, dwell)

			if shot := recentShot(shotEvents, entry, p.ScorerLookbackFrames); shot != nil {
				ev.PlayerID = shot.PlayerID
				ev.PlayerName = shot.PlayerName
				ev.Team = shot.Team
				if v, ok := shot.MetaFloat(model.MetaBallSpeedMPS); ok {
					ev.SetMetaFloat(model.MetaBallSpeedMPS, v)
				}
			} else if iv := possessorBefore(intervals, entry, p.ScorerLookbackFrames); iv != nil {
				ev.PlayerID = iv.PlayerID
				ev.PlayerName = iv.PlayerName
				ev.Team = iv.Team
			}
			events = append(events, ev)
		}

		for i := range frames {
			fr := &frames[i]
			if fr.Ball != nil && area.Contains(fr.Ball.Pos) {
				if runStart < 0 {
					runStart = i
				}
				confSum += fr.Ball.Confidence
				confN++
				continue
			}
			if runStart >= 0 {
				flush(i - 1)
			}
		}
		if runStart >= 0 {
			flush(len(frames) - 1)
		}
	}

	model.SortEvents(events)
	return events
}

// entryKinematics derives the ball speed and direction going into the
// containment run from the previous ball frame, if one exists.
func entryKinematics(ds *dataset.Dataset, entryIdx int) (float64, model.Vec2) {
	frames := ds.Frames()
	cur := frames[entryIdx]
	for i := entryIdx - 1; i >= 0; i-- {
		if frames[i].Ball == nil {
			break
		}
		dt := cur.Timestamp - frames[i].Timestamp
		dir := model.Vec2{X: cur.Ball.Pos.X - frames[i].Ball.Pos.X, Y: cur.Ball.Pos.Y - frames[i].Ball.Pos.Y}
		if dt <= 0 {
			break
		}
		return math.Hypot(dir.X, dir.Y) / dt, dir
	}
	return 0, model.Vec2{}
}

func targetArea(areas []pitch.GoalArea, pos, dir model.Vec2, lookahead float64) *pitch.GoalArea {
	for i := range areas {
		if areas[i].RayIntersects(pos, dir, lookahead) {
			return &areas[i]
		}
	}
	return nil
}

// possessorBefore returns the last interval starting at or before frameNum
// whose end is within lookback frames of it.
func possessorBefore(intervals []model.PossessionInterval, frameNum, lookback int) *model.PossessionInterval {
	for i := len(intervals) - 1; i >= 0; i-- {
		iv := &intervals[i]
		if iv.StartFrame > frameNum {
			continue
		}
		if frameNum-iv.EndFrame > lookback {
			return nil
		}
		return iv
	}
	return nil
}

// recentShot returns the latest shot event within lookback frames before
// frameNum that carries a player attribution.
func recentShot(shotEvents []model.Event, frameNum, lookback int) *model.Event {
	var best *model.Event
	for i := range shotEvents {
		ev := &shotEvents[i]
		if ev.Type != model.EventShot || ev.FrameNum > frameNum || frameNum-ev.FrameNum > lookback {
			continue
		}
		if ev.PlayerID == model.NoPlayer {
			continue
		}
		if best == nil || ev.FrameNum > best.FrameNum {
			best = ev
		}
	}
	return best
}

func confidenceFor(det, speed, speedThreshold float64, pos, dir model.Vec2, area *pitch.GoalArea) float64 {
	speedF := 1.0
	if sat := 2 * speedThreshold; sat > 0 && speed < sat {
		speedF = speed / sat
	}

	align := 0.0
	c := area.Centroid()
	toGoal := model.Vec2{X: c.X - pos.X, Y: c.Y - pos.Y}
	ld, lg := math.Hypot(dir.X, dir.Y), math.Hypot(toGoal.X, toGoal.Y)
	if ld > 0 && lg > 0 {
		align = (dir.X*toGoal.X + dir.Y*toGoal.Y) / (ld * lg)
		if align < 0 {
			align = 0
		}
	}

	v := wDetection*det + wSpeed*speedF + wAlignment*align
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
