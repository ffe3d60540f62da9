package rect

import (
	"math"
	"strconv"

	"github.com/lehigh-university-libraries/cadfeat/pkg/geom"
)

type segment struct {
	id         string
	horizontal bool
	start      string
	end        string
	startPoint geom.Point
	endPoint   geom.Point
}

// other returns the endpoint key opposite to pt
func (s *segment) other(pt string) string {
	if s.start == pt {
		return s.end
	}
	return s.start
}

func (s *segment) pointAt(key string) geom.Point {
	if s.start == key {
		return s.startPoint
	}
	return s.endPoint
}

// graph links axis-aligned segments through their rounded endpoints
type graph struct {
	segments []*segment
	byID     map[string]*segment
	byPoint  map[string][]string
}

func pointKey(p geom.Point, precision int) string {
	return formatCoord(p.X, precision) + "," + formatCoord(p.Y, precision)
}

func formatCoord(v float64, precision int) string {
	scale := math.Pow(10, float64(precision))
	v = math.Round(v*scale) / scale
	if v == 0 {
		v = 0 // drop the sign of negative zero
	}
	return strconv.FormatFloat(v, 'f', precision, 64)
}

func newGraph(lines []geom.LineEntity, eps float64, precision int) *graph {
	g := &graph{
		byID:    make(map[string]*segment),
		byPoint: make(map[string][]string),
	}
	for _, l := range lines {
		if !l.IsSegment() {
			continue
		}
		a, b := l.Points[0], l.Points[1]
		vertical := math.Abs(a.X-b.X) <= eps
		horizontal := math.Abs(a.Y-b.Y) <= eps
		if vertical && horizontal {
			continue
		}
		if !vertical && !horizontal {
			continue
		}
		if _, dup := g.byID[l.ID]; dup {
			continue
		}

		s := &segment{
			id:         l.ID,
			horizontal: horizontal,
			start:      pointKey(a, precision),
			end:        pointKey(b, precision),
			startPoint: a,
			endPoint:   b,
		}
		g.segments = append(g.segments, s)
		g.byID[s.id] = s
		g.byPoint[s.start] = append(g.byPoint[s.start], s.id)
		if s.end != s.start {
			g.byPoint[s.end] = append(g.byPoint[s.end], s.id)
		}
	}
	return g
}

// next picks the segment continuing the walk at pt. Segments already on the path are
// skipped, except the walk's first segment which is how a loop closes. A candidate sharing
// the current id's 3-character prefix (same allocation block) wins over the first one.
func (g *graph) next(cur *segment, pt string, path []*segment, wantHorizontal bool) *segment {
	var first, sameBlock *segment
	prefix := idPrefix(cur.id)
	for _, id := range g.byPoint[pt] {
		if id == cur.id || onPath(id, path[1:]) {
			continue
		}
		if first == nil {
			first = g.byID[id]
		}
		if idPrefix(id) == prefix {
			sameBlock = g.byID[id]
			break
		}
	}

	found := first
	if sameBlock != nil {
		found = sameBlock
	}
	if found == nil || found.horizontal != wantHorizontal {
		return nil
	}
	return found
}

func idPrefix(id string) string {
	if len(id) < 3 {
		return id
	}
	return id[:3]
}

func onPath(id string, path []*segment) bool {
	for _, s := range path {
		if s.id == id {
			return true
		}
	}
	return false
}

// Segments finds rectangles made of four independent horizontal and vertical segments.
//
// Each vertical segment not already part of a found rectangle seeds a walk from its start
// point, alternating horizontal and vertical segments through shared endpoints. When the
// fourth hop lands back on the seed at its other endpoint the four segments form a
// rectangle spanning the seed's start point and the far end of the second hop. Walks that
// fail to close are dropped. Consumed segments never seed another walk.
func Segments(lines []geom.LineEntity, eps float64, precision int) []geom.Rectangle {
	g := newGraph(lines, eps, precision)
	consumed := make(map[string]bool)

	var rects []geom.Rectangle
	for _, seed := range g.segments {
		if seed.horizontal || consumed[seed.id] {
			continue
		}

		path := []*segment{seed}
		cur, pt := seed, seed.start
		closed := false
		var corner geom.Point
		for hop := 0; hop < 4; hop++ {
			wantHorizontal := hop%2 == 0
			nxt := g.next(cur, pt, path, wantHorizontal)
			if nxt == nil {
				break
			}
			if hop == 3 {
				// back on the seed, arriving at the end the walk did not leave from
				closed = nxt == seed && pt == seed.end
				break
			}
			path = append(path, nxt)
			cur, pt = nxt, nxt.other(pt)
			if hop == 1 {
				// far end of the second hop, diagonal to the seed's start
				corner = nxt.pointAt(pt)
			}
		}
		if !closed {
			continue
		}

		ids := make([]string, len(path))
		for i, s := range path {
			consumed[s.id] = true
			ids[i] = s.id
		}
		rects = append(rects, geom.Rectangle{
			Envelope: geom.NewEnvelope(seed.startPoint.X, seed.startPoint.Y, corner.X, corner.Y),
			Entities: ids,
		})
	}
	return rects
}
