// Package reconcile merges manually placed ground-truth markers with
// automatically detected events. Manual markers win on conflict.
package reconcile

import (
	"github.com/pitchside/go-pitch-events/internal/model"
)

// Merge matches each manual marker against detected events of the same
// type within ±windowFrames of its frame. A matched marker stays in the
// output (absorbing metadata keys it lacks from the detected event) and
// the detected event is dropped so the occurrence is reported once.
// Unmatched events on either side pass through unchanged. The result is
// the union, sorted by frame then type; re-merging a merged result with no
// new detections is a no-op.
func Merge(detected, manual []model.Event, windowFrames int) []model.Event {
	consumed := make([]bool, len(detected))

	out := make([]model.Event, 0, len(detected)+len(manual))
	for _, m := range manual {
		best := -1
		bestDelta := 0
		for i, d := range detected {
			if consumed[i] || d.Type != m.Type {
				continue
			}
			delta := d.FrameNum - m.FrameNum
			if delta < 0 {
				delta = -delta
			}
			if delta > windowFrames {
				continue
			}
			// Nearest wins; on a tie, the earlier detected event.
			if best == -1 || delta < bestDelta ||
				(delta == bestDelta && detected[i].FrameNum < detected[best].FrameNum) {
				best, bestDelta = i, delta
			}
		}
		if best >= 0 {
			consumed[best] = true
			m = absorb(m, detected[best])
		}
		out = append(out, m)
	}
	for i, d := range detected {
		if !consumed[i] {
			out = append(out, d)
		}
	}

	model.SortEvents(out)
	return out
}

// absorb copies metadata keys the marker lacks (measured speeds and
// distances, typically) from the matched detected event. The marker's own
// fields are never overwritten.
func absorb(marker, det model.Event) model.Event {
	merged := marker
	merged.Metadata = marker.CloneMetadata()
	for k, v := range det.Metadata {
		if _, ok := merged.Metadata[k]; !ok {
			merged.SetMeta(k, v)
		}
	}
	if merged.StartPos == nil && det.StartPos != nil {
		p := *det.StartPos
		merged.StartPos = &p
	}
	if merged.EndPos == nil && det.EndPos != nil {
		p := *det.EndPos
		merged.EndPos = &p
	}
	return merged
}
