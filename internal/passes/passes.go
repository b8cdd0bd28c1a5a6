// Package passes derives pass and interception events from possession
// interval transitions and rolls up completion accuracy.
package passes

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/pitchside/go-pitch-events/internal/dataset"
	"github.com/pitchside/go-pitch-events/internal/model"
)

// Params tune pass detection. Validated by config.Params before use.
type Params struct {
	// MinPassDistanceM rejects short transitions as dribbling noise.
	MinPassDistanceM float64

	// MinBallSpeedMPS rejects slow transitions as dribbling noise.
	MinBallSpeedMPS float64

	// ReceiverLookaheadFrames bounds the wait for a new possessor after a
	// possession ends; past it the pass is incomplete.
	ReceiverLookaheadFrames int
}

// Confidence weighting. Confidence is 0.6·detection + 0.4·plausibility,
// clamped to [0,1]: detection is the mean of the ball/player confidences at
// the transition endpoints (non-decreasing in each), plausibility is 1.0 up
// to softMaxSpeedMPS and falls linearly to 0 at hardMaxSpeedMPS
// (non-increasing in speed).
const (
	detectionWeight    = 0.6
	plausibilityWeight = 0.4
	softMaxSpeedMPS    = 40.0
	hardMaxSpeedMPS    = 70.0
)

// Result carries the detected events plus per-player and per-team accuracy.
type Result struct {
	Events  []model.Event
	Players []model.AccuracyMetrics
	Teams   []model.AccuracyMetrics
}

// Detect walks adjacent possession-interval pairs. A transition between
// different players within the lookahead window becomes a pass (same team)
// or interception (different team) once it clears the distance and speed
// filters; a possession with no successor inside the window becomes an
// incomplete pass referencing only the passer.
func Detect(ds *dataset.Dataset, intervals []model.PossessionInterval, p Params) Result {
	var res Result

	playerAcc := make(map[int]*model.AccuracyMetrics)
	teamAcc := make(map[string]*model.AccuracyMetrics)
	account := func(iv model.PossessionInterval, bump func(*model.AccuracyMetrics)) {
		pa := playerAcc[iv.PlayerID]
		if pa == nil {
			pa = &model.AccuracyMetrics{
				Scope: model.ScopePlayer,
				Key:   strconv.Itoa(iv.PlayerID),
				Label: playerLabel(iv),
			}
			playerAcc[iv.PlayerID] = pa
		}
		bump(pa)
		ta := teamAcc[iv.Team]
		if ta == nil {
			ta = &model.AccuracyMetrics{Scope: model.ScopeTeam, Key: iv.Team, Label: iv.Team}
			teamAcc[iv.Team] = ta
		}
		bump(ta)
	}

	for i, a := range intervals {
		f1 := a.EndFrame

		var next *model.PossessionInterval
		if i+1 < len(intervals) {
			next = &intervals[i+1]
		}

		if next == nil || next.StartFrame-f1 > p.ReceiverLookaheadFrames {
			ev := incompleteEvent(ds, a, p)
			res.Events = append(res.Events, ev)
			account(a, func(m *model.AccuracyMetrics) { m.Incomplete++ })
			continue
		}
		if next.PlayerID == a.PlayerID {
			// Same player regained the ball: not a transition.
			continue
		}

		f2 := next.StartFrame
		start, startConf := ballOrPlayerPos(ds, f1, a.PlayerID)
		end, endConf := ballOrPlayerPos(ds, f2, next.PlayerID)

		dist := euclid(start, end)
		speed := dist / (float64(f2-f1) / ds.FPS())
		if dist < p.MinPassDistanceM || speed < p.MinBallSpeedMPS {
			continue // dribbling noise, not a pass attempt
		}

		typ := model.EventPass
		if a.Team != next.Team {
			typ = model.EventInterception
		}

		ev := model.Event{
			Type:       typ,
			FrameNum:   f1,
			Timestamp:  ds.Timestamp(f1),
			Confidence: confidenceFor([]float64{startConf, endConf}, speed),
			PlayerID:   a.PlayerID,
			PlayerName: a.PlayerName,
			Team:       a.Team,
			StartPos:   &start,
			EndPos:     &end,
		}
		ev.SetMetaFloat(model.MetaPassDistanceM, dist)
		ev.SetMetaFloat(model.MetaBallSpeedMPS, speed)
		ev.SetMeta(model.MetaReceiverID, strconv.Itoa(next.PlayerID))
		if next.PlayerName != "" {
			ev.SetMeta(model.MetaReceiverName, next.PlayerName)
		}
		if typ == model.EventPass {
			ev.SetMeta(model.MetaOutcome, model.OutcomeComplete)
			account(a, func(m *model.AccuracyMetrics) { m.Successful++ })
		} else {
			account(a, func(m *model.AccuracyMetrics) { m.Intercepted++ })
		}
		res.Events = append(res.Events, ev)
	}

	res.Players = sortedMetrics(playerAcc)
	res.Teams = sortedTeamMetrics(teamAcc)
	return res
}

// incompleteEvent builds the pass event for a possession with no receiver:
// the end position is the last known ball position inside the lookahead.
func incompleteEvent(ds *dataset.Dataset, a model.PossessionInterval, p Params) model.Event {
	f1 := a.EndFrame
	start, startConf := ballOrPlayerPos(ds, f1, a.PlayerID)

	ev := model.Event{
		Type:       model.EventPass,
		FrameNum:   f1,
		Timestamp:  ds.Timestamp(f1),
		Confidence: confidenceFor([]float64{startConf}, 0),
		PlayerID:   a.PlayerID,
		PlayerName: a.PlayerName,
		Team:       a.Team,
		StartPos:   &start,
	}
	ev.SetMeta(model.MetaOutcome, model.OutcomeIncomplete)

	for _, fr := range ds.FramesInRange(f1+1, f1+p.ReceiverLookaheadFrames) {
		if fr.Ball != nil {
			end := fr.Ball.Pos
			ev.EndPos = &end
		}
	}
	if ev.EndPos != nil {
		ev.SetMetaFloat(model.MetaPassDistanceM, euclid(start, *ev.EndPos))
	}
	return ev
}

// ComputeAccuracy recomputes accuracy metrics from an event slice, e.g.
// after reconciliation. Only pass and interception events contribute.
func ComputeAccuracy(events []model.Event) (players, teams []model.AccuracyMetrics) {
	playerAcc := make(map[int]*model.AccuracyMetrics)
	teamAcc := make(map[string]*model.AccuracyMetrics)
	for _, ev := range events {
		if ev.Type != model.EventPass && ev.Type != model.EventInterception {
			continue
		}
		pa := playerAcc[ev.PlayerID]
		if pa == nil {
			label := ev.PlayerName
			if label == "" {
				label = fmt.Sprintf("player %d", ev.PlayerID)
			}
			pa = &model.AccuracyMetrics{Scope: model.ScopePlayer, Key: strconv.Itoa(ev.PlayerID), Label: label}
			playerAcc[ev.PlayerID] = pa
		}
		ta := teamAcc[ev.Team]
		if ta == nil {
			ta = &model.AccuracyMetrics{Scope: model.ScopeTeam, Key: ev.Team, Label: ev.Team}
			teamAcc[ev.Team] = ta
		}
		switch {
		case ev.Type == model.EventInterception:
			pa.Intercepted++
			ta.Intercepted++
		case ev.Metadata[model.MetaOutcome] == model.OutcomeIncomplete:
			pa.Incomplete++
			ta.Incomplete++
		default:
			pa.Successful++
			ta.Successful++
		}
	}
	return sortedMetrics(playerAcc), sortedTeamMetrics(teamAcc)
}

func playerLabel(iv model.PossessionInterval) string {
	if iv.PlayerName != "" {
		return iv.PlayerName
	}
	return fmt.Sprintf("player %d", iv.PlayerID)
}

// ballOrPlayerPos prefers the ball detection at the frame and falls back to
// the player's own position when the ball track dropped out.
func ballOrPlayerPos(ds *dataset.Dataset, frameNum, playerID int) (model.Vec2, float64) {
	fr, ok := ds.FrameAt(frameNum)
	if !ok {
		return model.Vec2{}, 1.0
	}
	if fr.Ball != nil {
		return fr.Ball.Pos, fr.Ball.Confidence
	}
	if obs, ok := fr.Players[playerID]; ok {
		return obs.Pos, obs.Confidence
	}
	return model.Vec2{}, 1.0
}

func confidenceFor(detConfs []float64, speed float64) float64 {
	det := 0.0
	for _, c := range detConfs {
		det += c
	}
	if len(detConfs) > 0 {
		det /= float64(len(detConfs))
	}
	plaus := 1.0
	switch {
	case speed >= hardMaxSpeedMPS:
		plaus = 0
	case speed > softMaxSpeedMPS:
		plaus = (hardMaxSpeedMPS - speed) / (hardMaxSpeedMPS - softMaxSpeedMPS)
	}
	c := detectionWeight*det + plausibilityWeight*plaus
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

func euclid(a, b model.Vec2) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

func sortedMetrics(m map[int]*model.AccuracyMetrics) []model.AccuracyMetrics {
	ids := make([]int, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]model.AccuracyMetrics, 0, len(ids))
	for _, id := range ids {
		out = append(out, *m[id])
	}
	return out
}

func sortedTeamMetrics(m map[string]*model.AccuracyMetrics) []model.AccuracyMetrics {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]model.AccuracyMetrics, 0, len(keys))
	for _, k := range keys {
		out = append(out, *m[k])
	}
	return out
}
