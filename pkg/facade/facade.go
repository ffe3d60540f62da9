package facade

import (
	"log/slog"

	"github.com/lehigh-university-libraries/cadfeat/pkg/config"
	"github.com/lehigh-university-libraries/cadfeat/pkg/elevation"
	"github.com/lehigh-university-libraries/cadfeat/pkg/geom"
	"github.com/lehigh-university-libraries/cadfeat/pkg/rect"
	"github.com/lehigh-university-libraries/cadfeat/pkg/submap"
)

// Context is one elevation or section view of a sheet with everything drawn inside it
type Context struct {
	Submap  geom.Rectangle         `json:"submap" yaml:"submap"`
	Texts   []geom.TextEntity      `json:"-" yaml:"-"`
	Lines   []geom.LineEntity      `json:"-" yaml:"-"`
	Markers []geom.ElevationMarker `json:"markers" yaml:"markers"`
	Lanes   []elevation.Lane       `json:"lanes" yaml:"lanes"`
}

// Build finds the elevation and section views of a sheet and reads their elevation markers.
//
// Views are located through their titles (texts holding one of cfg.FacadeKeys with a scale
// label beside them): each view is the innermost rectangle framing a title. Only 2-point
// lines of cfg.ElevationLineType take part in marker detection; lines without a type are
// accepted.
func Build(texts []geom.TextEntity, lines []geom.LineEntity, cfg config.Config) ([]Context, error) {
	scale, err := cfg.ScaleRegexp()
	if err != nil {
		return nil, err
	}

	// Step 1: view titles
	titles := submap.KeyTexts(texts, cfg.FacadeKeys, scale)
	if len(titles) == 0 {
		slog.Debug("No view titles found", "keys", cfg.FacadeKeys)
		return nil, nil
	}

	// Step 2: frames around the titles
	frames := submap.Containing(titles, rect.Find(lines, cfg))

	// Step 3: markers and lanes per frame
	contexts := make([]Context, 0, len(frames))
	for _, frame := range frames {
		c := Context{
			Submap: frame,
			Texts:  submap.Inside(texts, frame.Envelope),
			Lines:  markerLines(lines, frame.Envelope, cfg.ElevationLineType),
		}
		c.Markers = elevation.Detect(c.Texts, c.Lines, cfg)
		c.Lanes = elevation.GroupByLane(c.Markers)
		contexts = append(contexts, c)

		slog.Debug("Read view", "frame", frame.Envelope.String(), "texts", len(c.Texts), "lines", len(c.Lines), "markers", len(c.Markers), "lanes", len(c.Lanes))
	}

	slog.Info("Facade views processed", "titles", len(titles), "views", len(contexts))
	return contexts, nil
}

func markerLines(lines []geom.LineEntity, frame geom.Envelope, lineType string) []geom.LineEntity {
	var out []geom.LineEntity
	for _, l := range lines {
		if !l.IsSegment() || !frame.Contains(l.Envelope) {
			continue
		}
		if lineType != "" && l.Type != "" && l.Type != lineType {
			continue
		}
		out = append(out, l)
	}
	return out
}

// Summary holds the heights read off every view. A nil field means no view carried enough
// markers to tell.
type Summary struct {
	BuildingHeight      *float64 `json:"building_height,omitempty" yaml:"building_height,omitempty"`
	StandardFloorHeight *float64 `json:"standard_floor_height,omitempty" yaml:"standard_floor_height,omitempty"`
	Lanes               int      `json:"lanes" yaml:"lanes"`
}

// Heights aggregates building height and standard floor height over the lanes of all views
func Heights(contexts []Context, belowGrade bool) Summary {
	var lanes []elevation.Lane
	for _, c := range contexts {
		lanes = append(lanes, c.Lanes...)
	}

	s := Summary{Lanes: len(lanes)}
	if h, ok := elevation.BuildingHeight(lanes, belowGrade); ok {
		s.BuildingHeight = &h
	}
	if h, ok := elevation.StandardFloorHeight(lanes, belowGrade); ok {
		s.StandardFloorHeight = &h
	}
	return s
}
