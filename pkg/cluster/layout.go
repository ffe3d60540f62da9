package cluster

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/lehigh-university-libraries/cadfeat/pkg/geom"
)

var blankPattern = regexp.MustCompile(`_{2,}`)

// HasBlank reports whether text carries a fill-in marker (two or more underscores)
func HasBlank(text string) bool {
	return blankPattern.MatchString(text)
}

// FillBlanks replaces each fill-in marker in order with the next value.
// Markers left over once values run out are kept as they are.
func FillBlanks(text string, values []string) string {
	if text == "" || !HasBlank(text) {
		return text
	}
	next := 0
	return blankPattern.ReplaceAllStringFunc(text, func(marker string) string {
		if next >= len(values) {
			return marker
		}
		v := values[next]
		next++
		return v
	})
}

type sortKey struct {
	top  float64
	left float64
	low  float64
}

// Rows orders labels for reading: top to bottom in row bands, left to right inside a row.
// A label joins the current row when its bottom or top lies within tolerance of the row
// anchor's bottom. Drawing y grows upwards.
func Rows(c Cluster, tolerance float64) [][]geom.TextEntity {
	if len(c) == 0 {
		return nil
	}

	keys := make([]sortKey, len(c))
	order := make([]int, len(c))
	for i, t := range c {
		keys[i] = sortKey{top: -t.Envelope.MaxY, left: t.Envelope.MinX, low: t.Envelope.MinY}
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ka, kb := keys[order[a]], keys[order[b]]
		if ka.top != kb.top {
			return ka.top < kb.top
		}
		if ka.left != kb.left {
			return ka.left < kb.left
		}
		return ka.low < kb.low
	})

	var rows [][]geom.TextEntity
	var row []geom.TextEntity
	var anchor geom.Envelope
	for _, idx := range order {
		t := c[idx]
		if len(row) > 0 && !bandOverlap(anchor, t.Envelope, tolerance) {
			rows = append(rows, row)
			row = nil
		}
		if len(row) == 0 {
			anchor = t.Envelope
		}
		row = append(row, t)
	}
	rows = append(rows, row)

	for _, r := range rows {
		sort.SliceStable(r, func(a, b int) bool {
			return r[a].Envelope.MinX < r[b].Envelope.MinX
		})
	}
	return rows
}

// bandOverlap reports whether b sits on the same text row as the row anchor a
func bandOverlap(a, b geom.Envelope, tolerance float64) bool {
	return math.Abs(a.MinY-b.MinY) <= tolerance ||
		math.Abs(a.MaxY-b.MinY) <= tolerance ||
		math.Abs(a.MinY-b.MaxY) <= tolerance
}

// Layout flattens Rows into a single reading-ordered slice
func Layout(c Cluster, tolerance float64) Cluster {
	var out Cluster
	for _, row := range Rows(c, tolerance) {
		out = append(out, row...)
	}
	return out
}

// ResolveBlanks fills every fill-in marker with the labels written over it. A label is a
// value for a marker when it lies within the marker's horizontal span and at least
// overlap of its height falls inside the marker's vertical span. Values are consumed
// left to right and removed from the returned cluster.
func ResolveBlanks(c Cluster, overlap float64) Cluster {
	consumed := make([]bool, len(c))
	var markers []int
	for i, t := range c {
		if HasBlank(t.Text) {
			markers = append(markers, i)
			consumed[i] = true
		}
	}
	if len(markers) == 0 {
		return c
	}

	out := make(Cluster, 0, len(c))
	for _, mi := range markers {
		marker := c[mi]
		var values []geom.TextEntity
		for j, p := range c {
			if consumed[j] || !writtenOver(marker.Envelope, p.Envelope, overlap) {
				continue
			}
			consumed[j] = true
			values = append(values, p)
		}
		sort.SliceStable(values, func(a, b int) bool {
			return values[a].Envelope.MaxX < values[b].Envelope.MaxX
		})
		texts := make([]string, len(values))
		for k, v := range values {
			texts[k] = v.Text
		}
		marker.Text = FillBlanks(marker.Text, texts)
		out = append(out, marker)
	}

	for j, t := range c {
		if !consumed[j] {
			out = append(out, t)
		}
	}
	return out
}

func writtenOver(marker, value geom.Envelope, ratio float64) bool {
	if value.MinX < marker.MinX || value.MaxX > marker.MaxX {
		return false
	}
	h := value.Height()
	if h == 0 {
		return value.MinY >= marker.MinY && value.MinY <= marker.MaxY
	}
	shared := math.Min(marker.MaxY, value.MaxY) - math.Max(marker.MinY, value.MinY)
	return shared > 0 && shared/h >= ratio
}

// Text renders a cluster as plain text: blanks are filled, labels are laid out in reading
// order, labels on one row are concatenated and rows are separated by newlines.
func Text(c Cluster, tolerance, overlap float64) string {
	if len(c) == 0 {
		return ""
	}
	rows := Rows(ResolveBlanks(c, overlap), tolerance)
	lines := make([]string, len(rows))
	for i, row := range rows {
		var b strings.Builder
		for _, t := range row {
			b.WriteString(t.Text)
		}
		lines[i] = b.String()
	}
	return strings.Join(lines, "\n")
}
