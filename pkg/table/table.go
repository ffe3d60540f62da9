package table

import (
	"log/slog"
	"math"
	"strings"

	"github.com/lehigh-university-libraries/cadfeat/pkg/config"
	"github.com/lehigh-university-libraries/cadfeat/pkg/geom"
	"github.com/lehigh-university-libraries/cadfeat/pkg/rect"
)

// FindTitle returns the first text containing title
func FindTitle(texts []geom.TextEntity, title string) (geom.TextEntity, bool) {
	if title == "" {
		return geom.TextEntity{}, false
	}
	for _, t := range texts {
		if strings.Contains(t.Text, title) {
			return t, true
		}
	}
	return geom.TextEntity{}, false
}

// Locate returns the frame of the table drawn under a title: the rectangle nearest below
// the title that starts at (or within TitleAlignTolerance left of) the title's left edge
// and no further right than its right edge. Only lines lying entirely below the title are
// considered. Ties on height go to the rectangle found first.
func Locate(title geom.TextEntity, lines []geom.LineEntity, cfg config.Config) (geom.Envelope, bool) {
	t := title.Envelope

	var below []geom.LineEntity
	for _, l := range lines {
		if l.Envelope.MaxY < t.MinY {
			below = append(below, l)
		}
	}

	var best geom.Envelope
	found := false
	for _, r := range rect.Find(below, cfg) {
		e := r.Envelope
		aligned := e.MinX >= t.MinX || math.Abs(e.MinX-t.MinX) <= cfg.TitleAlignTolerance
		if !aligned || e.MinX > t.MaxX || e.MaxY > t.MinY {
			continue
		}
		if !found || e.MaxY > best.MaxY {
			best, found = e, true
		}
	}

	slog.Debug("Located table under title", "title", title.Text, "lines", len(below), "found", found)
	return best, found
}
