// Package dataset loads frame-by-frame tracking exports into an immutable
// in-memory Dataset consumed by the detectors.
package dataset

import (
	"bytes"
	"crypto/sha256"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/pitchside/go-pitch-events/internal/model"
)

// ballTrackID is the track_id literal marking a row as the frame's ball
// detection.
const ballTrackID = "ball"

// Options carry the per-run dataset parameters that do not live in the file.
type Options struct {
	FPS         float64
	FieldLength float64 // meters, x axis
	FieldWidth  float64 // meters, y axis
}

// Dataset is an ordered, immutable sequence of frames plus recording
// metadata. It is owned by a single engine run and never mutated after Load.
type Dataset struct {
	frames []model.Frame
	index  map[int]int // frame num -> position in frames

	fps         float64
	fieldLength float64
	fieldWidth  float64

	sourcePath string
	sourceHash string

	skippedRows int
	hasBall     bool
}

// Load reads a tracking CSV from path. Required columns: frame, track_id,
// x, y. Optional: team, name, confidence. A row with track_id "ball" is the
// frame's ball detection. Duplicate (frame, track) rows are last-write-wins;
// malformed rows are skipped and counted. A missing required column fails
// the load with a DataError naming it.
func Load(path string, opts Options) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open tracking data: %w", err)
	}
	defer f.Close()

	raw, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read tracking data: %w", err)
	}
	ds, err := Parse(bytes.NewReader(raw), opts)
	if err != nil {
		return nil, err
	}
	ds.sourcePath = path
	ds.sourceHash = fmt.Sprintf("%x", sha256.Sum256(raw))
	return ds, nil
}

// Parse decodes tracking CSV rows from r. See Load for the format.
func Parse(r io.Reader, opts Options) (*Dataset, error) {
	if opts.FPS <= 0 {
		return nil, fmt.Errorf("fps must be positive, got %g", opts.FPS)
	}

	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, &model.DataError{Msg: "tracking data has no header row"}
	}
	cols := headerIndex(header)

	var missing []string
	for _, req := range []string{"frame", "track_id", "x", "y"} {
		if _, ok := cols[req]; !ok {
			missing = append(missing, req)
		}
	}
	if len(missing) > 0 {
		return nil, &model.DataError{Fields: missing, Msg: "tracking data missing required columns"}
	}

	ds := &Dataset{
		index:       make(map[int]int),
		fps:         opts.FPS,
		fieldLength: opts.FieldLength,
		fieldWidth:  opts.FieldWidth,
	}

	type frameAccum struct {
		ball    *model.Ball
		players map[int]model.PlayerObs
	}
	accum := make(map[int]*frameAccum)

	field := func(rec []string, name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[idx])
	}

	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Ragged or unquotable row: skip it, keep the run alive.
			ds.skippedRows++
			continue
		}

		frameNum, err := strconv.Atoi(field(rec, "frame"))
		if err != nil || frameNum < 0 {
			ds.skippedRows++
			continue
		}
		x, errX := strconv.ParseFloat(field(rec, "x"), 64)
		y, errY := strconv.ParseFloat(field(rec, "y"), 64)
		if errX != nil || errY != nil {
			ds.skippedRows++
			continue
		}

		conf := 1.0
		if s := field(rec, "confidence"); s != "" {
			if v, err := strconv.ParseFloat(s, 64); err == nil {
				conf = clamp01(v)
			}
		}

		trackField := field(rec, "track_id")
		isBall := strings.EqualFold(trackField, ballTrackID)
		trackID := 0
		if !isBall {
			trackID, err = strconv.Atoi(trackField)
			if err != nil {
				ds.skippedRows++
				continue
			}
		}

		fa := accum[frameNum]
		if fa == nil {
			fa = &frameAccum{players: make(map[int]model.PlayerObs)}
			accum[frameNum] = fa
		}
		if isBall {
			fa.ball = &model.Ball{Pos: model.Vec2{X: x, Y: y}, Confidence: conf}
			ds.hasBall = true
			continue
		}
		fa.players[trackID] = model.PlayerObs{
			TrackID:    trackID,
			Pos:        model.Vec2{X: x, Y: y},
			Confidence: conf,
			Team:       field(rec, "team"),
			Name:       field(rec, "name"),
		}
	}

	nums := make([]int, 0, len(accum))
	for n := range accum {
		nums = append(nums, n)
	}
	sort.Ints(nums)

	ds.frames = make([]model.Frame, 0, len(nums))
	for i, n := range nums {
		fa := accum[n]
		ds.frames = append(ds.frames, model.Frame{
			Num:       n,
			Timestamp: float64(n) / opts.FPS,
			Ball:      fa.ball,
			Players:   fa.players,
		})
		ds.index[n] = i
	}
	return ds, nil
}

// New builds a Dataset from already-constructed frames. Frames are sorted
// by number and deduplicated last-write-wins; timestamps are recomputed
// from fps.
func New(frames []model.Frame, opts Options) (*Dataset, error) {
	if opts.FPS <= 0 {
		return nil, fmt.Errorf("fps must be positive, got %g", opts.FPS)
	}
	byNum := make(map[int]model.Frame, len(frames))
	for _, fr := range frames {
		byNum[fr.Num] = fr
	}
	nums := make([]int, 0, len(byNum))
	for n := range byNum {
		nums = append(nums, n)
	}
	sort.Ints(nums)

	ds := &Dataset{
		index:       make(map[int]int, len(nums)),
		fps:         opts.FPS,
		fieldLength: opts.FieldLength,
		fieldWidth:  opts.FieldWidth,
	}
	for i, n := range nums {
		fr := byNum[n]
		fr.Timestamp = float64(n) / opts.FPS
		if fr.Ball != nil {
			ds.hasBall = true
		}
		ds.frames = append(ds.frames, fr)
		ds.index[n] = i
	}
	return ds, nil
}

func (d *Dataset) FPS() float64         { return d.fps }
func (d *Dataset) FieldLength() float64 { return d.fieldLength }
func (d *Dataset) FieldWidth() float64  { return d.fieldWidth }
func (d *Dataset) SourcePath() string   { return d.sourcePath }
func (d *Dataset) SourceHash() string   { return d.sourceHash }
func (d *Dataset) SkippedRows() int     { return d.skippedRows }

// HasBall reports whether any frame carries a ball detection. When false,
// ball-dependent detectors run degraded (skipped with a notice).
func (d *Dataset) HasBall() bool { return d.hasBall }

// Frames returns the full ordered frame slice. Callers must not mutate it.
func (d *Dataset) Frames() []model.Frame { return d.frames }

func (d *Dataset) NumFrames() int { return len(d.frames) }

// FrameAt returns the frame with the given number, if present.
func (d *Dataset) FrameAt(n int) (*model.Frame, bool) {
	i, ok := d.index[n]
	if !ok {
		return nil, false
	}
	return &d.frames[i], true
}

// BallAt returns the ball detection at frame n, or nil.
func (d *Dataset) BallAt(n int) *model.Ball {
	fr, ok := d.FrameAt(n)
	if !ok {
		return nil
	}
	return fr.Ball
}

// FramesInRange returns the frames with numbers in [a, b], inclusive.
func (d *Dataset) FramesInRange(a, b int) []model.Frame {
	if b < a || len(d.frames) == 0 {
		return nil
	}
	lo := sort.Search(len(d.frames), func(i int) bool { return d.frames[i].Num >= a })
	hi := sort.Search(len(d.frames), func(i int) bool { return d.frames[i].Num > b })
	return d.frames[lo:hi]
}

// Timestamp converts a frame number to seconds.
func (d *Dataset) Timestamp(frameNum int) float64 {
	return float64(frameNum) / d.fps
}

func headerIndex(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return cols
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
