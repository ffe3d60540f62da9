package submap

import (
	"regexp"
	"strings"

	"github.com/lehigh-university-libraries/cadfeat/pkg/geom"
)

// KeyTexts returns the view titles of a sheet: texts containing one of keys that have a
// drawing scale label (e.g. "1:100") next to them. The scale label must lie strictly
// inside [minx, miny-2h, maxx+3w, maxy+2h] of the title, and each scale label is claimed
// by the first title that finds it.
func KeyTexts(texts []geom.TextEntity, keys []string, scale *regexp.Regexp) []geom.TextEntity {
	var titles, scales []geom.TextEntity
	for _, t := range texts {
		if !t.HasText() {
			continue
		}
		if containsAny(t.Text, keys) {
			titles = append(titles, t)
		}
		if scale.MatchString(strings.TrimSpace(t.Text)) {
			scales = append(scales, t)
		}
	}

	claimed := make([]bool, len(scales))
	var found []geom.TextEntity
	for _, title := range titles {
		w, h := title.Envelope.Width(), title.Envelope.Height()
		box := geom.NewEnvelope(
			title.Envelope.MinX,
			title.Envelope.MinY-2*h,
			title.Envelope.MaxX+3*w,
			title.Envelope.MaxY+2*h,
		)
		for i, s := range scales {
			if claimed[i] || !box.Contains(s.Envelope) {
				continue
			}
			claimed[i] = true
			found = append(found, title)
			break
		}
	}
	return found
}

func containsAny(text string, keys []string) bool {
	for _, k := range keys {
		if k != "" && strings.Contains(text, k) {
			return true
		}
	}
	return false
}

// Containing returns the innermost rectangles framing the given texts. Every rectangle that
// strictly contains one of the texts is a candidate; candidates containing another
// candidate are dropped and duplicates are reported once.
func Containing(texts []geom.TextEntity, rects []geom.Rectangle) []geom.Rectangle {
	var candidates []geom.Rectangle
	for _, t := range texts {
		for _, r := range rects {
			if r.Envelope.Contains(t.Envelope) {
				candidates = append(candidates, r)
			}
		}
	}

	var out []geom.Rectangle
	seen := make(map[geom.Envelope]bool)
	for i, c := range candidates {
		parent := false
		for j, other := range candidates {
			if i != j && c.Envelope.Contains(other.Envelope) {
				parent = true
				break
			}
		}
		if parent || seen[c.Envelope] {
			continue
		}
		seen[c.Envelope] = true
		out = append(out, c)
	}
	return out
}
