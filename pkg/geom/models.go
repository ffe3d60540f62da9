package geom

import (
	"math"
	"strings"
)

// Point is a position in drawing units
type Point struct {
	X float64
	Y float64
}

// DistanceTo returns the Euclidean distance between two points
func (p Point) DistanceTo(o Point) float64 {
	return math.Hypot(p.X-o.X, p.Y-o.Y)
}

// Envelope is an axis-aligned bounding box. Construct it with NewEnvelope so that
// MinX <= MaxX and MinY <= MaxY always hold.
type Envelope struct {
	MinX float64
	MinY float64
	MaxX float64
	MaxY float64
}

// NewEnvelope builds an envelope from two opposite corners given in any order
func NewEnvelope(x1, y1, x2, y2 float64) Envelope {
	return Envelope{
		MinX: math.Min(x1, x2),
		MinY: math.Min(y1, y2),
		MaxX: math.Max(x1, x2),
		MaxY: math.Max(y1, y2),
	}
}

// EnvelopeOf returns the envelope of a point sequence
func EnvelopeOf(points []Point) Envelope {
	if len(points) == 0 {
		return Envelope{}
	}
	e := Envelope{MinX: points[0].X, MinY: points[0].Y, MaxX: points[0].X, MaxY: points[0].Y}
	for _, p := range points[1:] {
		e.MinX = math.Min(e.MinX, p.X)
		e.MinY = math.Min(e.MinY, p.Y)
		e.MaxX = math.Max(e.MaxX, p.X)
		e.MaxY = math.Max(e.MaxY, p.Y)
	}
	return e
}

// BoundsOf returns the smallest envelope covering every given envelope
func BoundsOf(envs ...Envelope) Envelope {
	if len(envs) == 0 {
		return Envelope{}
	}
	res := envs[0]
	for _, e := range envs[1:] {
		res = res.Union(e)
	}
	return res
}

// Contains reports whether o lies strictly inside e. Shared edges do not count.
func (e Envelope) Contains(o Envelope) bool {
	return e.MinX < o.MinX && e.MaxX > o.MaxX && e.MinY < o.MinY && e.MaxY > o.MaxY
}

// Equal reports exact coordinate equality
func (e Envelope) Equal(o Envelope) bool {
	return e == o
}

// IsZero reports whether the envelope was never set
func (e Envelope) IsZero() bool {
	return e == Envelope{}
}

func (e Envelope) Width() float64 {
	return e.MaxX - e.MinX
}

func (e Envelope) Height() float64 {
	return e.MaxY - e.MinY
}

func (e Envelope) Center() Point {
	return Point{X: (e.MinX + e.MaxX) / 2, Y: (e.MinY + e.MaxY) / 2}
}

// Scale grows (p > 1) or shrinks (p < 1) the envelope about its center
func (e Envelope) Scale(p float64) Envelope {
	dw := e.Width() * (p - 1) / 2
	dh := e.Height() * (p - 1) / 2
	return NewEnvelope(e.MinX-dw, e.MinY-dh, e.MaxX+dw, e.MaxY+dh)
}

// Union returns the envelope covering both e and o
func (e Envelope) Union(o Envelope) Envelope {
	return Envelope{
		MinX: math.Min(e.MinX, o.MinX),
		MinY: math.Min(e.MinY, o.MinY),
		MaxX: math.Max(e.MaxX, o.MaxX),
		MaxY: math.Max(e.MaxY, o.MaxY),
	}
}

// BoxDistance returns the minimum distance between the two rectangles. Along an axis
// where the intervals overlap the separation on that axis is zero, so two boxes that
// touch or intersect are at distance 0.
func (e Envelope) BoxDistance(o Envelope) float64 {
	dx := math.Max(0, math.Max(o.MinX-e.MaxX, e.MinX-o.MaxX))
	dy := math.Max(0, math.Max(o.MinY-e.MaxY, e.MinY-o.MaxY))
	return math.Hypot(dx, dy)
}

// String formats the envelope as "minx,miny,maxx,maxy"
func (e Envelope) String() string {
	return strings.Join([]string{
		formatFloat(e.MinX), formatFloat(e.MinY), formatFloat(e.MaxX), formatFloat(e.MaxY),
	}, ",")
}

// Entity is one vector entity read from a drawing. The set of implementations is closed:
// only LineEntity and TextEntity satisfy it.
type Entity interface {
	Bounds() Envelope
	entity()
}

// LineEntity is a segment (2 points) or a polyline (closed ones carry 4 or 5 points)
type LineEntity struct {
	ID       string   `json:"id" yaml:"id"`
	Type     string   `json:"type,omitempty" yaml:"type,omitempty"`
	Points   Path     `json:"points" yaml:"points"`
	Envelope Envelope `json:"bounds" yaml:"bounds"`
}

func (l LineEntity) Bounds() Envelope { return l.Envelope }
func (LineEntity) entity()            {}

// IsSegment reports whether the line has exactly two points
func (l LineEntity) IsSegment() bool {
	return len(l.Points) == 2
}

// TextEntity is a single text label
type TextEntity struct {
	ID       string   `json:"id" yaml:"id"`
	Type     string   `json:"type,omitempty" yaml:"type,omitempty"`
	Envelope Envelope `json:"bounds" yaml:"bounds"`
	Text     string   `json:"text" yaml:"text"`
}

func (t TextEntity) Bounds() Envelope { return t.Envelope }
func (TextEntity) entity()            {}

// HasText reports whether the label carries any non-blank text
func (t TextEntity) HasText() bool {
	return strings.TrimSpace(t.Text) != ""
}

// Split separates a mixed entity list into lines and texts, keeping input order
func Split(entities []Entity) ([]LineEntity, []TextEntity) {
	var lines []LineEntity
	var texts []TextEntity
	for _, e := range entities {
		switch v := e.(type) {
		case LineEntity:
			lines = append(lines, v)
		case *LineEntity:
			lines = append(lines, *v)
		case TextEntity:
			texts = append(texts, v)
		case *TextEntity:
			texts = append(texts, *v)
		}
	}
	return lines, texts
}

// Rectangle is a closed rectangular region found in the line work
type Rectangle struct {
	Envelope Envelope `json:"bounds" yaml:"bounds"`
	Entities []string `json:"entities" yaml:"entities"`
}

// Submap is a rectangle annotated with how many other candidates strictly contain it
type Submap struct {
	Rectangle `yaml:",inline"`
	Depth     int `json:"depth" yaml:"depth"`
}

// ElevationMarker is one elevation flag: two diagonal sides under a horizontal pole,
// with the numeric label found above the pole
type ElevationMarker struct {
	Left  LineEntity  `json:"left" yaml:"left"`
	Right LineEntity  `json:"right" yaml:"right"`
	Pole  LineEntity  `json:"pole" yaml:"pole"`
	Label *TextEntity `json:"label,omitempty" yaml:"label,omitempty"`
	Value float64     `json:"value" yaml:"value"`
}
