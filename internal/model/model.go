package model

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// NoPlayer marks an event that could not be attributed to a track.
const NoPlayer = -1

// Vec2 is a 2D field-relative position in meters.
type Vec2 struct{ X, Y float64 }

// EventType is the closed set of event kinds the engine emits.
type EventType string

const (
	EventPass         EventType = "pass"
	EventInterception EventType = "interception"
	EventShot         EventType = "shot"
	EventGoal         EventType = "goal"
	EventZoneDwell    EventType = "zone_dwell"
)

// ParseEventType maps a string to an EventType, rejecting unknown kinds.
func ParseEventType(s string) (EventType, bool) {
	switch EventType(strings.ToLower(strings.TrimSpace(s))) {
	case EventPass:
		return EventPass, true
	case EventInterception:
		return EventInterception, true
	case EventShot:
		return EventShot, true
	case EventGoal:
		return EventGoal, true
	case EventZoneDwell:
		return EventZoneDwell, true
	}
	return "", false
}

// Metadata keys shared between detectors, export, and reconciliation.
const (
	MetaOutcome       = "outcome" // "complete" or "incomplete", on pass events
	MetaReceiverID    = "receiver_id"
	MetaReceiverName  = "receiver_name"
	MetaPassDistanceM = "pass_distance_m"
	MetaBallSpeedMPS  = "ball_speed_mps"
	MetaGoalArea      = "goal_area"
	MetaTimeInGoalS   = "time_in_goal_s"
	MetaZone          = "zone"
	MetaDwellS        = "dwell_s"
	MetaDwellFrames   = "dwell_frames"
)

const (
	OutcomeComplete   = "complete"
	OutcomeIncomplete = "incomplete"
)

// ---- Raw frame data produced by the loader ----

// Ball is a per-frame ball detection.
type Ball struct {
	Pos        Vec2
	Confidence float64
}

// PlayerObs is one player's observation in a single frame.
type PlayerObs struct {
	TrackID    int
	Pos        Vec2
	Confidence float64
	Team       string
	Name       string
}

// Frame is one tick of tracking data. Ball is nil when the frame has no
// ball detection.
type Frame struct {
	Num       int
	Timestamp float64
	Ball      *Ball
	Players   map[int]PlayerObs
}

// PossessionInterval is a contiguous run of frames in which one player is
// the committed possessor of the ball. Frames are inclusive on both ends.
type PossessionInterval struct {
	PlayerID   int
	PlayerName string
	Team       string
	StartFrame int
	EndFrame   int
}

// ---- Detected events ----

// Event is an immutable detection result. PlayerID is NoPlayer when the
// event could not be attributed. Metadata values are strings; floats go
// through SetMetaFloat/MetaFloat so export round-trips exactly.
type Event struct {
	Type       EventType
	FrameNum   int
	Timestamp  float64
	Confidence float64
	PlayerID   int
	PlayerName string
	Team       string
	StartPos   *Vec2
	EndPos     *Vec2
	Manual     bool
	Metadata   map[string]string
}

// SetMeta stores a string metadata value, allocating the map on first use.
func (e *Event) SetMeta(key, val string) {
	if e.Metadata == nil {
		e.Metadata = make(map[string]string)
	}
	e.Metadata[key] = val
}

// SetMetaFloat stores a float with shortest round-trip formatting.
func (e *Event) SetMetaFloat(key string, val float64) {
	e.SetMeta(key, strconv.FormatFloat(val, 'g', -1, 64))
}

// MetaFloat parses a float metadata value. Returns false when the key is
// absent or not numeric.
func (e *Event) MetaFloat(key string) (float64, bool) {
	s, ok := e.Metadata[key]
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// CloneMetadata returns a copy of the metadata map, nil-safe.
func (e *Event) CloneMetadata() map[string]string {
	if e.Metadata == nil {
		return nil
	}
	out := make(map[string]string, len(e.Metadata))
	for k, v := range e.Metadata {
		out[k] = v
	}
	return out
}

// SortEvents orders events by frame, then type, then player, for
// deterministic output.
func SortEvents(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].FrameNum != events[j].FrameNum {
			return events[i].FrameNum < events[j].FrameNum
		}
		if events[i].Type != events[j].Type {
			return events[i].Type < events[j].Type
		}
		return events[i].PlayerID < events[j].PlayerID
	})
}

// ---- Aggregated metrics ----

// AccuracyScope distinguishes per-player from per-team accuracy rows.
type AccuracyScope string

const (
	ScopePlayer AccuracyScope = "player"
	ScopeTeam   AccuracyScope = "team"
)

// AccuracyMetrics aggregates pass outcomes for one player or team.
type AccuracyMetrics struct {
	Scope AccuracyScope
	Key   string // track id or team label
	Label string // display name

	Successful  int
	Incomplete  int
	Intercepted int
}

func (m *AccuracyMetrics) Attempts() int {
	return m.Successful + m.Incomplete + m.Intercepted
}

// CompletionRate is successful/attempts, 0 when nothing was attempted.
func (m *AccuracyMetrics) CompletionRate() float64 {
	if m.Attempts() == 0 {
		return 0
	}
	return float64(m.Successful) / float64(m.Attempts())
}

// ---- Errors ----

// DataError reports missing or malformed required fields in an input file.
// It fails the whole load; per-row problems are skipped and counted instead.
type DataError struct {
	Fields []string
	Msg    string
}

func (e *DataError) Error() string {
	if len(e.Fields) == 0 {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Msg, strings.Join(e.Fields, ", "))
}
