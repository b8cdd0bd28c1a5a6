// Package possession resolves, per frame, which player controls the ball
// and folds the per-frame assignments into possession intervals.
package possession

import (
	"github.com/pitchside/go-pitch-events/internal/dataset"
	"github.com/pitchside/go-pitch-events/internal/model"
)

// Params tune the assigner. Zero values are not defaulted here; callers go
// through config.Params which validates them.
type Params struct {
	// ThresholdM is the maximum ball-to-player distance for possession.
	// Boundary inclusive: a ball exactly at ThresholdM qualifies.
	ThresholdM float64

	// MinDwellFrames is the hysteresis window: a new possessor must hold
	// the nearest-qualifying position for this many consecutive frames
	// before the change is committed.
	MinDwellFrames int

	// GapToleranceFrames absorbs short runs of unqualified frames into the
	// surrounding interval instead of splitting it.
	GapToleranceFrames int
}

// Assign computes ordered, non-overlapping possession intervals for the
// dataset. Frames with no ball or no qualifying player carry no possessor;
// a challenger only takes over once it survives the hysteresis window. On
// commit the change applies from the streak's first frame, so the new
// interval starts where the ball actually arrived; frames before the
// streak stay with the previous possessor.
func Assign(ds *dataset.Dataset, p Params) []model.PossessionInterval {
	frames := ds.Frames()
	if len(frames) == 0 {
		return nil
	}

	assigned := make([]int, len(frames))

	committed := model.NoPlayer
	challenger := model.NoPlayer
	streak := 0
	var streakIdx []int

	for i, fr := range frames {
		cand, ok := candidateAt(&fr, p.ThresholdM)
		if !ok {
			challenger, streak, streakIdx = model.NoPlayer, 0, nil
			assigned[i] = model.NoPlayer
			continue
		}
		if cand == committed {
			challenger, streak, streakIdx = model.NoPlayer, 0, nil
			assigned[i] = committed
			continue
		}

		if cand == challenger {
			streak++
		} else {
			challenger, streak = cand, 1
			streakIdx = streakIdx[:0]
		}
		streakIdx = append(streakIdx, i)

		if streak >= p.MinDwellFrames {
			for _, j := range streakIdx {
				assigned[j] = cand
			}
			committed = cand
			challenger, streak, streakIdx = model.NoPlayer, 0, nil
			continue
		}
		assigned[i] = committed
	}

	return buildIntervals(frames, assigned, p.GapToleranceFrames)
}

// candidateAt returns the nearest player within the threshold of the
// frame's ball. Equal distances break toward the lower track id so the
// result does not depend on map iteration order.
func candidateAt(fr *model.Frame, thresholdM float64) (int, bool) {
	if fr.Ball == nil {
		return model.NoPlayer, false
	}
	t2 := thresholdM * thresholdM
	best := model.NoPlayer
	bestD2 := 0.0
	for id, obs := range fr.Players {
		dx := obs.Pos.X - fr.Ball.Pos.X
		dy := obs.Pos.Y - fr.Ball.Pos.Y
		d2 := dx*dx + dy*dy
		if d2 > t2 {
			continue
		}
		if best == model.NoPlayer || d2 < bestD2 || (d2 == bestD2 && id < best) {
			best, bestD2 = id, d2
		}
	}
	return best, best != model.NoPlayer
}

type run struct {
	player   int
	startIdx int
	endIdx   int
}

func buildIntervals(frames []model.Frame, assigned []int, gapTolerance int) []model.PossessionInterval {
	var runs []run
	for i, pl := range assigned {
		if pl == model.NoPlayer {
			continue
		}
		if n := len(runs); n > 0 && runs[n-1].player == pl && runs[n-1].endIdx == i-1 {
			runs[n-1].endIdx = i
			continue
		}
		runs = append(runs, run{player: pl, startIdx: i, endIdx: i})
	}

	// Absorb short unassigned gaps between runs of the same player.
	var merged []run
	for _, r := range runs {
		if n := len(merged); n > 0 && merged[n-1].player == r.player {
			gap := frames[r.startIdx].Num - frames[merged[n-1].endIdx].Num - 1
			if gap <= gapTolerance {
				merged[n-1].endIdx = r.endIdx
				continue
			}
		}
		merged = append(merged, r)
	}

	intervals := make([]model.PossessionInterval, 0, len(merged))
	for _, r := range merged {
		iv := model.PossessionInterval{
			PlayerID:   r.player,
			StartFrame: frames[r.startIdx].Num,
			EndFrame:   frames[r.endIdx].Num,
		}
		for i := r.startIdx; i <= r.endIdx; i++ {
			if obs, ok := frames[i].Players[r.player]; ok {
				if iv.Team == "" {
					iv.Team = obs.Team
				}
				if iv.PlayerName == "" {
					iv.PlayerName = obs.Name
				}
				if iv.Team != "" && iv.PlayerName != "" {
					break
				}
			}
		}
		intervals = append(intervals, iv)
	}
	return intervals
}
