// Package pitch holds field geometry: goal-area polygons and the small set
// of 2D predicates the shot and goal detectors need.
package pitch

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/pitchside/go-pitch-events/internal/model"
)

// GoalArea is a named polygon in field coordinates, tagged with the side or
// team defending it. Read-only input produced by the designation tool.
type GoalArea struct {
	Name   string
	Team   string
	Points []model.Vec2
}

// goalAreaFile is the on-disk JSON schema:
// [{"name":"east_goal","team":"home","points":[[x,y],...]}, ...]
type goalAreaFile struct {
	Name   string       `json:"name"`
	Team   string       `json:"team"`
	Points [][2]float64 `json:"points"`
}

// LoadGoalAreas reads a goal-area designation file. Polygons with fewer
// than three points are skipped with a notice, never fatal.
func LoadGoalAreas(path string) ([]GoalArea, []string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read goal areas: %w", err)
	}
	var recs []goalAreaFile
	if err := json.Unmarshal(raw, &recs); err != nil {
		return nil, nil, fmt.Errorf("parse goal areas: %w", err)
	}

	var areas []GoalArea
	var notices []string
	for i, rec := range recs {
		if len(rec.Points) < 3 {
			notices = append(notices, fmt.Sprintf("goal area %q (#%d) has %d points, skipped", rec.Name, i, len(rec.Points)))
			continue
		}
		ga := GoalArea{Name: rec.Name, Team: rec.Team}
		for _, p := range rec.Points {
			ga.Points = append(ga.Points, model.Vec2{X: p[0], Y: p[1]})
		}
		areas = append(areas, ga)
	}
	return areas, notices, nil
}

// Goal mouth is 7.32m wide; the default corridors pad it and extend a few
// meters past each goal line.
const (
	goalMouthWidthM    = 7.32
	corridorPaddingM   = 1.5
	corridorDepthM     = 2.5
	corridorIntrusionM = 0.5
)

// DefaultGoalAreas returns a heuristic corridor at each end of the field
// for runs without a designation file. Assumes field coordinates with x in
// [0, fieldLength] and y in [0, fieldWidth].
func DefaultGoalAreas(fieldLength, fieldWidth float64) []GoalArea {
	half := goalMouthWidthM/2 + corridorPaddingM
	yLo := fieldWidth/2 - half
	yHi := fieldWidth/2 + half
	rect := func(name string, xLo, xHi float64) GoalArea {
		return GoalArea{
			Name: name,
			Points: []model.Vec2{
				{X: xLo, Y: yLo}, {X: xHi, Y: yLo},
				{X: xHi, Y: yHi}, {X: xLo, Y: yHi},
			},
		}
	}
	return []GoalArea{
		rect("west_goal", -corridorDepthM, corridorIntrusionM),
		rect("east_goal", fieldLength-corridorIntrusionM, fieldLength+corridorDepthM),
	}
}

// Contains reports whether p is inside the polygon (even-odd rule).
func (g *GoalArea) Contains(p model.Vec2) bool {
	inside := false
	n := len(g.Points)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := g.Points[i], g.Points[j]
		if (a.Y > p.Y) != (b.Y > p.Y) &&
			p.X < (b.X-a.X)*(p.Y-a.Y)/(b.Y-a.Y)+a.X {
			inside = !inside
		}
	}
	return inside
}

// Centroid returns the vertex mean, used for directional alignment.
func (g *GoalArea) Centroid() model.Vec2 {
	var c model.Vec2
	for _, p := range g.Points {
		c.X += p.X
		c.Y += p.Y
	}
	n := float64(len(g.Points))
	c.X /= n
	c.Y /= n
	return c
}

// RayIntersects reports whether the ray from origin along dir hits the
// polygon within maxDist. dir need not be normalized; a zero dir never
// intersects. Origins already inside count as a hit.
func (g *GoalArea) RayIntersects(origin, dir model.Vec2, maxDist float64) bool {
	norm := dir.X*dir.X + dir.Y*dir.Y
	if norm == 0 {
		return false
	}
	if g.Contains(origin) {
		return true
	}
	scale := maxDist / math.Sqrt(norm)
	end := model.Vec2{X: origin.X + dir.X*scale, Y: origin.Y + dir.Y*scale}
	n := len(g.Points)
	for i := 0; i < n; i++ {
		if segmentsCross(origin, end, g.Points[i], g.Points[(i+1)%n]) {
			return true
		}
	}
	return false
}

// segmentsCross is the standard orientation test for proper and collinear
// touching intersections.
func segmentsCross(p1, p2, q1, q2 model.Vec2) bool {
	d1 := cross(q1, q2, p1)
	d2 := cross(q1, q2, p2)
	d3 := cross(p1, p2, q1)
	d4 := cross(p1, p2, q2)
	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	return (d1 == 0 && onSegment(q1, q2, p1)) ||
		(d2 == 0 && onSegment(q1, q2, p2)) ||
		(d3 == 0 && onSegment(p1, p2, q1)) ||
		(d4 == 0 && onSegment(p1, p2, q2))
}

func cross(a, b, c model.Vec2) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

func onSegment(a, b, p model.Vec2) bool {
	return min(a.X, b.X) <= p.X && p.X <= max(a.X, b.X) &&
		min(a.Y, b.Y) <= p.Y && p.Y <= max(a.Y, b.Y)
}
