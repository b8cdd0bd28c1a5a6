// Package zones aggregates per-player dwell time in axis-aligned field
// zones and reports it as summary zone_dwell events.
package zones

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/pitchside/go-pitch-events/internal/dataset"
	"github.com/pitchside/go-pitch-events/internal/model"
)

// Zone is an axis-aligned region in normalized field coordinates: bounds
// are fractions of field length (x) and width (y).
type Zone struct {
	Name string
	MinX, MaxX float64
	MinY, MaxY float64
}

// Contains tests a normalized position. Lower bounds are inclusive; upper
// bounds are exclusive except at 1.0 so the far line is not lost.
func (z Zone) Contains(nx, ny float64) bool {
	inX := nx >= z.MinX && (nx < z.MaxX || (z.MaxX == 1 && nx == 1))
	inY := ny >= z.MinY && (ny < z.MaxY || (z.MaxY == 1 && ny == 1))
	return inX && inY
}

// DefaultThirds partitions the field into three equal longitudinal thirds.
func DefaultThirds() []Zone {
	return []Zone{
		{Name: "defensive_third", MinX: 0, MaxX: 1.0 / 3, MinY: 0, MaxY: 1},
		{Name: "middle_third", MinX: 1.0 / 3, MaxX: 2.0 / 3, MinY: 0, MaxY: 1},
		{Name: "attacking_third", MinX: 2.0 / 3, MaxX: 1, MinY: 0, MaxY: 1},
	}
}

// Parse decodes a zone spec of the form
// "name:minx,maxx,miny,maxy;name:..." with fractional bounds.
func Parse(spec string) ([]Zone, error) {
	var out []Zone
	for _, part := range strings.Split(spec, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, bounds, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("zone %q: want name:minx,maxx,miny,maxy", part)
		}
		vals := strings.Split(bounds, ",")
		if len(vals) != 4 {
			return nil, fmt.Errorf("zone %q: want 4 bounds, got %d", name, len(vals))
		}
		var f [4]float64
		for i, v := range vals {
			parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return nil, fmt.Errorf("zone %q bound %d: %w", name, i, err)
			}
			f[i] = parsed
		}
		z := Zone{Name: strings.TrimSpace(name), MinX: f[0], MaxX: f[1], MinY: f[2], MaxY: f[3]}
		if z.MinX >= z.MaxX || z.MinY >= z.MaxY {
			return nil, fmt.Errorf("zone %q: empty bounds", z.Name)
		}
		out = append(out, z)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("zone spec %q: no zones", spec)
	}
	return out, nil
}

// Analyze counts, for every frame and player, which zone the player stands
// in, then converts frame counts to seconds. One zone_dwell event is
// emitted per distinct non-zero (player, zone) pair, stamped with the first
// frame the player was seen in the zone; the totals live in metadata. This
// is a summary pass, not a point-in-time detection.
func Analyze(ds *dataset.Dataset, zs []Zone) []model.Event {
	if len(zs) == 0 {
		zs = DefaultThirds()
	}
	length, width := ds.FieldLength(), ds.FieldWidth()

	type cell struct {
		frames     int
		firstFrame int
		team       string
		name       string
	}
	type key struct {
		playerID int
		zoneIdx  int
	}
	cells := make(map[key]*cell)

	for _, fr := range ds.Frames() {
		for id, obs := range fr.Players {
			nx := clampFrac(obs.Pos.X / length)
			ny := clampFrac(obs.Pos.Y / width)
			for zi, z := range zs {
				if !z.Contains(nx, ny) {
					continue
				}
				k := key{id, zi}
				c := cells[k]
				if c == nil {
					c = &cell{firstFrame: fr.Num, team: obs.Team, name: obs.Name}
					cells[k] = c
				}
				c.frames++
			}
		}
	}

	keys := make([]key, 0, len(cells))
	for k := range cells {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].playerID != keys[j].playerID {
			return keys[i].playerID < keys[j].playerID
		}
		return keys[i].zoneIdx < keys[j].zoneIdx
	})

	events := make([]model.Event, 0, len(keys))
	for _, k := range keys {
		c := cells[k]
		ev := model.Event{
			Type:       model.EventZoneDwell,
			FrameNum:   c.firstFrame,
			Timestamp:  ds.Timestamp(c.firstFrame),
			Confidence: 1.0,
			PlayerID:   k.playerID,
			PlayerName: c.name,
			Team:       c.team,
		}
		ev.SetMeta(model.MetaZone, zs[k.zoneIdx].Name)
		ev.SetMetaFloat(model.MetaDwellS, float64(c.frames)/ds.FPS())
		ev.SetMeta(model.MetaDwellFrames, strconv.Itoa(c.frames))
		events = append(events, ev)
	}
	return events
}

func clampFrac(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
