package geom

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	yaml "go.yaml.in/yaml/v3"
)

// Path is an ordered point sequence. Its text form is "x1,y1;x2,y2;..."
type Path []Point

// ParsePath parses the "x1,y1;x2,y2" form used by CAD map services
func ParsePath(s string) (Path, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ";")
	path := make(Path, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		xy := strings.Split(part, ",")
		if len(xy) < 2 {
			return nil, fmt.Errorf("invalid point %q", part)
		}
		x, err := strconv.ParseFloat(strings.TrimSpace(xy[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid x in point %q: %w", part, err)
		}
		y, err := strconv.ParseFloat(strings.TrimSpace(xy[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid y in point %q: %w", part, err)
		}
		path = append(path, Point{X: x, Y: y})
	}
	return path, nil
}

func (p Path) String() string {
	parts := make([]string, len(p))
	for i, pt := range p {
		parts[i] = formatFloat(pt.X) + "," + formatFloat(pt.Y)
	}
	return strings.Join(parts, ";")
}

func (p Path) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Path) UnmarshalText(b []byte) error {
	parsed, err := ParsePath(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// LineString converts the path for geometry export
func (p Path) LineString() orb.LineString {
	ls := make(orb.LineString, len(p))
	for i, pt := range p {
		ls[i] = orb.Point{pt.X, pt.Y}
	}
	return ls
}

// ParseEnvelope accepts "[minx,miny,maxx,maxy]" or the same list without brackets.
// Corners given in the wrong order are normalized.
func ParseEnvelope(s string) (Envelope, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return Envelope{}, fmt.Errorf("envelope needs 4 coordinates, got %d in %q", len(parts), s)
	}
	var v [4]float64
	for i, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return Envelope{}, fmt.Errorf("invalid envelope coordinate %q: %w", part, err)
		}
		v[i] = f
	}
	return NewEnvelope(v[0], v[1], v[2], v[3]), nil
}

func envelopeFromSlice(v []float64) (Envelope, error) {
	if len(v) != 4 {
		return Envelope{}, fmt.Errorf("envelope needs 4 coordinates, got %d", len(v))
	}
	return NewEnvelope(v[0], v[1], v[2], v[3]), nil
}

func (e Envelope) slice() []float64 {
	return []float64{e.MinX, e.MinY, e.MaxX, e.MaxY}
}

func (e Envelope) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.slice())
}

func (e *Envelope) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		if strings.TrimSpace(s) == "" {
			// null or "" leaves the envelope unset
			*e = Envelope{}
			return nil
		}
		parsed, err := ParseEnvelope(s)
		if err != nil {
			return err
		}
		*e = parsed
		return nil
	}
	var v []float64
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("envelope must be [minx,miny,maxx,maxy]: %w", err)
	}
	parsed, err := envelopeFromSlice(v)
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}

func (e Envelope) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
	for _, f := range e.slice() {
		node.Content = append(node.Content, &yaml.Node{
			Kind:  yaml.ScalarNode,
			Value: formatFloat(f),
		})
	}
	return node, nil
}

func (e *Envelope) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		parsed, err := ParseEnvelope(value.Value)
		if err != nil {
			return err
		}
		*e = parsed
		return nil
	}
	var v []float64
	if err := value.Decode(&v); err != nil {
		return fmt.Errorf("envelope must be [minx,miny,maxx,maxy]: %w", err)
	}
	parsed, err := envelopeFromSlice(v)
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}

// Bound converts the envelope for geometry export
func (e Envelope) Bound() orb.Bound {
	return orb.Bound{Min: orb.Point{e.MinX, e.MinY}, Max: orb.Point{e.MaxX, e.MaxY}}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
