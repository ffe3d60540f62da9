package elevation

import (
	"log/slog"
	"math"

	"github.com/lehigh-university-libraries/cadfeat/pkg/config"
	"github.com/lehigh-university-libraries/cadfeat/pkg/geom"
)

// Sides holds the 2-point lines of a region split by shape
type Sides struct {
	Left  []geom.LineEntity // "\" descending left to right
	Right []geom.LineEntity // "/"
	Other []geom.LineEntity // horizontal or vertical, pole candidates
}

// Classify sorts 2-point lines into left sides, right sides and the rest. A line whose
// width or height is within eps of zero goes to Other.
func Classify(lines []geom.LineEntity, eps float64) Sides {
	var s Sides
	for _, l := range lines {
		if !l.IsSegment() {
			continue
		}
		if l.Envelope.IsZero() {
			l.Envelope = geom.EnvelopeOf(l.Points)
		}
		if l.Envelope.Width() <= eps || l.Envelope.Height() <= eps {
			s.Other = append(s.Other, l)
			continue
		}

		dx := sign(l.Points[0].X - l.Points[1].X)
		dy := sign(l.Points[0].Y - l.Points[1].Y)
		if dx == 0 || dy == 0 {
			continue
		}
		if dx*dy < 0 {
			s.Left = append(s.Left, l)
		} else {
			s.Right = append(s.Right, l)
		}
	}
	return s
}

func sign(v float64) int {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	}
	return 0
}

// Detect finds the elevation flags of one region and attaches their labels.
//
// A flag is a left side and a right side meeting at the bottom, with a pole lying along
// their top. Each line takes part in at most one flag. Flags whose pole has no numeric
// label above it are still returned with a nil Label.
func Detect(texts []geom.TextEntity, lines []geom.LineEntity, cfg config.Config) []geom.ElevationMarker {
	eps := cfg.PoleEpsilon
	sides := Classify(lines, eps)

	// lines are consumed by envelope so that duplicated strokes are consumed together
	consumed := make(map[geom.Envelope]bool)
	var markers []geom.ElevationMarker

	for _, left := range sides.Left {
		for _, right := range sides.Right {
			if consumed[left.Envelope] || consumed[right.Envelope] {
				continue
			}
			if !paired(left.Envelope, right.Envelope, eps) {
				continue
			}
			for _, pole := range sides.Other {
				if consumed[pole.Envelope] || pole.ID == left.ID || pole.ID == right.ID {
					continue
				}
				if !isPole(pole.Envelope, left.Envelope, right.Envelope, eps, cfg.PoleWidthEpsilon) {
					continue
				}
				markers = append(markers, geom.ElevationMarker{Left: left, Right: right, Pole: pole})
				consumed[left.Envelope] = true
				consumed[right.Envelope] = true
				consumed[pole.Envelope] = true
				break
			}
		}
	}

	labels := Labels(texts)
	for i := range markers {
		label := labelAbove(markers[i].Pole.Envelope, labels, cfg.LabelExpand)
		if label == nil {
			continue
		}
		markers[i].Label = label
		markers[i].Value, _ = ParseLabel(label.Text)
	}

	slog.Debug("Detected elevation markers",
		"left", len(sides.Left),
		"right", len(sides.Right),
		"other", len(sides.Other),
		"markers", len(markers),
		"labels", len(labels))
	return markers
}

// paired reports whether a left and a right side share their vertical extent and meet
// where the left side ends
func paired(left, right geom.Envelope, eps float64) bool {
	return math.Abs(left.MinY-right.MinY) < eps &&
		math.Abs(left.MaxY-right.MaxY) < eps &&
		math.Abs(left.MaxX-right.MinX) < eps
}

func isPole(p, left, right geom.Envelope, eps, minWidth float64) bool {
	if p.Height() >= eps || p.Width() < minWidth {
		return false
	}
	top := math.Abs(p.MaxY-left.MaxY) < eps

	switch {
	// flush with the left side's top-left corner, running past the right side
	case math.Abs(p.MinX-left.MinX) < eps && top && p.MaxX-right.MaxX >= eps:
		return true
	// flush with the right side's top-right corner, running past the left side
	case math.Abs(p.MaxX-right.MaxX) < eps && math.Abs(p.MaxY-right.MaxY) < eps && left.MinX-p.MinX > eps:
		return true
	// starts between the sides and runs out to the right
	case top && math.Abs(p.MinX-left.MinX) >= eps && p.MinX > left.MinX && p.MinX < right.MaxX && p.MaxX > right.MaxX:
		return true
	// ends between the sides and runs out to the left
	case top && math.Abs(p.MaxX-right.MaxX) >= eps && p.MaxX > left.MinX && p.MaxX < right.MaxX && p.MinX < left.MinX:
		return true
	}
	return false
}

// labelAbove returns the lowest label sitting above the pole and within its width grown by
// expand on both sides
func labelAbove(pole geom.Envelope, labels []geom.TextEntity, expand float64) *geom.TextEntity {
	grow := pole.Width() * (expand - 1)
	minx, maxx := pole.MinX-grow, pole.MaxX+grow

	var best *geom.TextEntity
	for i := range labels {
		l := labels[i].Envelope
		if l.MinY <= pole.MaxY || l.MinX <= minx || l.MaxX >= maxx {
			continue
		}
		if best == nil || l.MinY < best.Envelope.MinY {
			label := labels[i]
			best = &label
		}
	}
	return best
}
