// Package export writes the merged event table as CSV and reads it back,
// losslessly, so an exported run can return as a manual-marker set.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pitchside/go-pitch-events/internal/model"
)

// Header is the flattened event schema. Metadata is a single column of
// ;-joined key=value pairs with keys sorted and both sides query-escaped.
var Header = []string{
	"frame", "event_type", "player_id", "player_name", "team",
	"timestamp", "confidence", "is_manual",
	"start_x", "start_y", "end_x", "end_y", "metadata",
}

// WriteCSV writes events to w in a form ReadEvents restores exactly.
func WriteCSV(w io.Writer, events []model.Event) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, ev := range events {
		rec := []string{
			strconv.Itoa(ev.FrameNum),
			string(ev.Type),
			strconv.Itoa(ev.PlayerID),
			ev.PlayerName,
			ev.Team,
			formatFloat(ev.Timestamp),
			formatFloat(ev.Confidence),
			strconv.FormatBool(ev.Manual),
			posX(ev.StartPos), posY(ev.StartPos),
			posX(ev.EndPos), posY(ev.EndPos),
			model.EncodeMetadata(ev.Metadata),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write event row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes events to path, creating or truncating it.
func WriteFile(path string, events []model.Event) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	if err := WriteCSV(f, events); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadEvents parses an event CSV. Rows with an unknown event type or an
// unparsable frame number are skipped and counted, not fatal; a missing
// frame or event_type column fails the read with a DataError.
func ReadEvents(r io.Reader) ([]model.Event, int, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, 0, &model.DataError{Msg: "event data has no header row"}
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	var missing []string
	for _, req := range []string{"frame", "event_type"} {
		if _, ok := cols[req]; !ok {
			missing = append(missing, req)
		}
	}
	if len(missing) > 0 {
		return nil, 0, &model.DataError{Fields: missing, Msg: "event data missing required columns"}
	}

	field := func(rec []string, name string) (string, bool) {
		idx, ok := cols[name]
		if !ok || idx >= len(rec) {
			return "", false
		}
		return strings.TrimSpace(rec[idx]), true
	}

	var events []model.Event
	skipped := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			skipped++
			continue
		}

		frameStr, _ := field(rec, "frame")
		frameNum, err := strconv.Atoi(frameStr)
		if err != nil {
			skipped++
			continue
		}
		typStr, _ := field(rec, "event_type")
		typ, ok := model.ParseEventType(typStr)
		if !ok {
			skipped++
			continue
		}

		ev := model.Event{Type: typ, FrameNum: frameNum, PlayerID: model.NoPlayer, Confidence: 1.0}
		if s, ok := field(rec, "player_id"); ok && s != "" {
			if id, err := strconv.Atoi(s); err == nil {
				ev.PlayerID = id
			}
		}
		ev.PlayerName, _ = field(rec, "player_name")
		ev.Team, _ = field(rec, "team")
		if s, ok := field(rec, "timestamp"); ok && s != "" {
			if v, err := strconv.ParseFloat(s, 64); err == nil {
				ev.Timestamp = v
			}
		}
		if s, ok := field(rec, "confidence"); ok && s != "" {
			if v, err := strconv.ParseFloat(s, 64); err == nil {
				ev.Confidence = v
			}
		}
		if s, ok := field(rec, "is_manual"); ok && s != "" {
			ev.Manual = strings.EqualFold(s, "true")
		}
		sx, _ := field(rec, "start_x")
		sy, _ := field(rec, "start_y")
		ev.StartPos = parsePos(sx, sy)
		ex, _ := field(rec, "end_x")
		ey, _ := field(rec, "end_y")
		ev.EndPos = parsePos(ex, ey)
		if s, ok := field(rec, "metadata"); ok && s != "" {
			ev.Metadata = model.DecodeMetadata(s)
		}
		events = append(events, ev)
	}
	return events, skipped, nil
}

// ReadMarkers loads an event CSV as a ground-truth marker set: every row
// comes back with is_manual=true and a confidence of 1.0 unless the file
// says otherwise.
func ReadMarkers(path string) ([]model.Event, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open markers: %w", err)
	}
	defer f.Close()

	events, skipped, err := ReadEvents(f)
	if err != nil {
		return nil, skipped, err
	}
	for i := range events {
		events[i].Manual = true
	}
	return events, skipped, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func posX(p *model.Vec2) string {
	if p == nil {
		return ""
	}
	return formatFloat(p.X)
}

func posY(p *model.Vec2) string {
	if p == nil {
		return ""
	}
	return formatFloat(p.Y)
}

func parsePos(xs, ys string) *model.Vec2 {
	if xs == "" || ys == "" {
		return nil
	}
	x, errX := strconv.ParseFloat(xs, 64)
	y, errY := strconv.ParseFloat(ys, 64)
	if errX != nil || errY != nil {
		return nil
	}
	return &model.Vec2{X: x, Y: y}
}

