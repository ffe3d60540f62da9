package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/paulmach/orb/geojson"
	yaml "go.yaml.in/yaml/v3"

	"github.com/lehigh-university-libraries/cadfeat/pkg/cluster"
	"github.com/lehigh-university-libraries/cadfeat/pkg/facade"
	"github.com/lehigh-university-libraries/cadfeat/pkg/geom"
)

// Output formats understood by Write
const (
	FormatYAML    = "yaml"
	FormatJSON    = "json"
	FormatGeoJSON = "geojson"
)

// Formats lists the accepted output formats
var Formats = []string{FormatYAML, FormatJSON, FormatGeoJSON}

// Result collects whatever features one command produced
type Result struct {
	Clusters   []cluster.Cluster `json:"clusters,omitempty" yaml:"clusters,omitempty"`
	Rectangles []geom.Rectangle  `json:"rectangles,omitempty" yaml:"rectangles,omitempty"`
	Submaps    []geom.Submap     `json:"submaps,omitempty" yaml:"submaps,omitempty"`
	Table      *Table            `json:"table,omitempty" yaml:"table,omitempty"`
	Facades    []facade.Context  `json:"facades,omitempty" yaml:"facades,omitempty"`
	Heights    *facade.Summary   `json:"heights,omitempty" yaml:"heights,omitempty"`
}

// Table is a located table frame with the text drawn inside it
type Table struct {
	Title    string        `json:"title" yaml:"title"`
	Envelope geom.Envelope `json:"bounds" yaml:"bounds"`
	Text     string        `json:"text,omitempty" yaml:"text,omitempty"`
}

// FeatureCollection renders the result as GeoJSON in drawing coordinates: frames and
// cluster extents become polygons, elevation poles become line strings
func (r Result) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for i, c := range r.Clusters {
		f := geojson.NewFeature(c.Bounds().Bound().ToPolygon())
		f.Properties["kind"] = "cluster"
		f.Properties["index"] = i
		f.Properties["size"] = len(c)
		texts := make([]string, len(c))
		for k, t := range c {
			texts[k] = t.Text
		}
		f.Properties["text"] = strings.Join(texts, " ")
		fc.Append(f)
	}

	for _, rect := range r.Rectangles {
		fc.Append(frameFeature("rectangle", rect))
	}

	for _, s := range r.Submaps {
		f := frameFeature("submap", s.Rectangle)
		f.Properties["depth"] = s.Depth
		fc.Append(f)
	}

	if r.Table != nil {
		f := geojson.NewFeature(r.Table.Envelope.Bound().ToPolygon())
		f.Properties["kind"] = "table"
		f.Properties["title"] = r.Table.Title
		fc.Append(f)
	}

	for _, c := range r.Facades {
		fc.Append(frameFeature("facade", c.Submap))
		for _, m := range c.Markers {
			f := geojson.NewFeature(m.Pole.Points.LineString())
			f.Properties["kind"] = "elevation"
			f.Properties["value"] = m.Value
			if m.Label != nil {
				f.Properties["label"] = m.Label.Text
			}
			fc.Append(f)
		}
	}

	return fc
}

func frameFeature(kind string, r geom.Rectangle) *geojson.Feature {
	f := geojson.NewFeature(r.Envelope.Bound().ToPolygon())
	f.Properties["kind"] = kind
	f.Properties["entities"] = r.Entities
	return f
}

// Write encodes v to w in the given format. GeoJSON needs a Result.
func Write(w io.Writer, format string, v interface{}) error {
	switch strings.ToLower(format) {
	case "", FormatYAML, "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode json: %w", err)
		}
		return nil
	case FormatGeoJSON:
		var fc *geojson.FeatureCollection
		switch r := v.(type) {
		case Result:
			fc = r.FeatureCollection()
		case *Result:
			fc = r.FeatureCollection()
		case *geojson.FeatureCollection:
			fc = r
		default:
			return fmt.Errorf("geojson output is not supported for %T", v)
		}
		data, err := fc.MarshalJSON()
		if err != nil {
			return fmt.Errorf("failed to encode geojson: %w", err)
		}
		_, err = w.Write(append(data, '\n'))
		return err
	}
	return fmt.Errorf("unsupported output format: %s (supported: %s)", format, strings.Join(Formats, ", "))
}
