package submap

import (
	"log/slog"

	"github.com/lehigh-university-libraries/cadfeat/pkg/geom"
)

// Resolve returns the rectangles strictly contained by exactly level other rectangles.
// Level 0 gives the outermost frames. Rectangles sharing an envelope are reported once,
// the first occurrence winning. A level deeper than any nesting yields no submaps.
func Resolve(rects []geom.Rectangle, level int) []geom.Submap {
	var submaps []geom.Submap
	seen := make(map[geom.Envelope]bool)

	for i, r := range rects {
		depth := 0
		for j, other := range rects {
			if i == j || !other.Envelope.Contains(r.Envelope) {
				continue
			}
			depth++
			if depth > level {
				break
			}
		}
		if depth != level || seen[r.Envelope] {
			continue
		}
		seen[r.Envelope] = true
		submaps = append(submaps, geom.Submap{Rectangle: r, Depth: depth})
	}

	slog.Debug("Resolved submaps", "rectangles", len(rects), "level", level, "submaps", len(submaps))
	return submaps
}

// Inside returns the texts lying strictly within env
func Inside(texts []geom.TextEntity, env geom.Envelope) []geom.TextEntity {
	var out []geom.TextEntity
	for _, t := range texts {
		if env.Contains(t.Envelope) {
			out = append(out, t)
		}
	}
	return out
}
