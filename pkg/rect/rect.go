package rect

import (
	"log/slog"
	"math"

	"github.com/lehigh-university-libraries/cadfeat/pkg/config"
	"github.com/lehigh-university-libraries/cadfeat/pkg/geom"
)

// Find returns every rectangle drawn in the line work: closed 4-vertex polylines first, in
// input order, then loops of four axis-aligned segments in discovery order.
func Find(lines []geom.LineEntity, cfg config.Config) []geom.Rectangle {
	// Step 1: single polylines closing on themselves
	rects := Polylines(lines, cfg.RectEpsilon)

	// Step 2: four independent segments sharing endpoints
	loops := Segments(lines, cfg.AxisEpsilon, cfg.KeyPrecision)

	slog.Debug("Found rectangles", "lines", len(lines), "polylines", len(rects), "segment_loops", len(loops))
	return append(rects, loops...)
}

// Polylines accepts every line whose vertices, once a repeated closing vertex is dropped,
// are exactly four points equidistant from their centroid within eps
func Polylines(lines []geom.LineEntity, eps float64) []geom.Rectangle {
	var rects []geom.Rectangle
	for _, l := range lines {
		points := l.Points
		if len(points) == 0 {
			continue
		}
		if len(points) > 1 && points[0] == points[len(points)-1] {
			points = points[:len(points)-1]
		}
		if len(points) != 4 || !isRectangle(points, eps) {
			continue
		}

		env := l.Envelope
		if env.IsZero() {
			env = geom.EnvelopeOf(points)
		}
		rects = append(rects, geom.Rectangle{Envelope: env, Entities: []string{l.ID}})
	}
	return rects
}

func isRectangle(points []geom.Point, eps float64) bool {
	var cx, cy float64
	for _, p := range points {
		cx += p.X
		cy += p.Y
	}
	center := geom.Point{X: cx / 4, Y: cy / 4}

	dist := center.DistanceTo(points[0])
	if dist <= eps {
		return false
	}
	for _, p := range points[1:] {
		if math.Abs(center.DistanceTo(p)-dist) >= eps {
			return false
		}
	}
	return true
}
