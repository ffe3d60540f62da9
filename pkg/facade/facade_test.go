package facade

import (
	"fmt"
	"testing"

	"github.com/lehigh-university-libraries/cadfeat/pkg/config"
	"github.com/lehigh-university-libraries/cadfeat/pkg/geom"
	"github.com/ridge/must/v2"
)

func entity(id, kind, points string) geom.LineEntity {
	path := must.OK1(geom.ParsePath(points))
	return geom.LineEntity{ID: id, Type: kind, Points: path, Envelope: geom.EnvelopeOf(path)}
}

func sheet() ([]geom.TextEntity, []geom.LineEntity) {
	lines := []geom.LineEntity{
		entity("outer", "AcDbPolyline", "-100,-100;2000,-100;2000,2000;-100,2000;-100,-100"),
		entity("south", "AcDbPolyline", "0,0;1000,0;1000,1000;0,1000;0,0"),
		entity("plan", "AcDbPolyline", "1100,0;1900,0;1900,1000;1100,1000"),
	}
	texts := []geom.TextEntity{
		{ID: "title", Text: "南立面图", Envelope: geom.NewEnvelope(100, 50, 200, 70)},
		{ID: "scale", Text: "1:100", Envelope: geom.NewEnvelope(220, 52, 260, 68)},
		{ID: "plan-title", Text: "一层平面图", Envelope: geom.NewEnvelope(1200, 50, 1300, 70)},
		{ID: "plan-scale", Text: "1:100", Envelope: geom.NewEnvelope(1320, 52, 1360, 68)},
	}

	for _, m := range []struct {
		value string
		y     float64
	}{
		{"12.50", 400},
		{"9.30", 300},
		{"6.00", 200},
	} {
		p := func(px, py float64) string { return fmt.Sprintf("%g,%g", 400+px, m.y+py) }
		lines = append(lines,
			entity(m.value+"-left", "AcDbLine", p(0, 10)+";"+p(5, 0)),
			entity(m.value+"-right", "AcDbLine", p(5, 0)+";"+p(10, 10)),
			entity(m.value+"-pole", "AcDbLine", p(0, 10)+";"+p(30, 10)),
		)
		texts = append(texts, geom.TextEntity{
			ID:       "label-" + m.value,
			Text:     m.value,
			Envelope: geom.NewEnvelope(402, m.y+11, 420, m.y+15),
		})
	}
	return texts, lines
}

func TestBuild(t *testing.T) {
	texts, lines := sheet()

	contexts, err := Build(texts, lines, config.Default())
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if len(contexts) != 1 {
		t.Fatalf("Expected 1 view, got %d", len(contexts))
	}

	c := contexts[0]
	if c.Submap.Entities[0] != "south" {
		t.Errorf("view frame = %v, want south", c.Submap.Entities)
	}
	if len(c.Texts) != 5 {
		t.Errorf("Expected 5 texts in view, got %d", len(c.Texts))
	}
	if len(c.Lines) != 9 {
		t.Errorf("Expected 9 marker lines in view, got %d", len(c.Lines))
	}
	if len(c.Markers) != 3 {
		t.Errorf("Expected 3 markers, got %d", len(c.Markers))
	}
	if len(c.Lanes) != 1 || len(c.Lanes[0].Values) != 3 {
		t.Fatalf("Expected 1 lane of 3 markers, got %v", c.Lanes)
	}
}

func TestBuildFiltersLineType(t *testing.T) {
	texts, lines := sheet()
	cfg := config.Default()
	cfg.ElevationLineType = "AcDbPolyline"

	contexts, err := Build(texts, lines, cfg)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if len(contexts) != 1 || len(contexts[0].Markers) != 0 {
		t.Errorf("Expected a view without markers, got %v", contexts)
	}
}

func TestBuildErrors(t *testing.T) {
	cfg := config.Default()
	cfg.ScalePattern = "("
	if _, err := Build(nil, nil, cfg); err == nil {
		t.Error("Expected error for invalid scale pattern")
	}

	contexts, err := Build(nil, nil, config.Default())
	if err != nil || len(contexts) != 0 {
		t.Errorf("Build(empty) = %v, %v", contexts, err)
	}
}

func TestHeights(t *testing.T) {
	texts, lines := sheet()
	contexts := must.OK1(Build(texts, lines, config.Default()))

	tests := []struct {
		name       string
		belowGrade bool
		building   float64
		floor      float64
	}{
		{"above grade", false, 12.5, 3.2},
		{"below grade", true, 6.0, 3.2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Heights(contexts, tt.belowGrade)
			if s.Lanes != 1 {
				t.Errorf("Lanes = %d, want 1", s.Lanes)
			}
			if s.BuildingHeight == nil || *s.BuildingHeight != tt.building {
				t.Errorf("BuildingHeight = %v, want %v", s.BuildingHeight, tt.building)
			}
			if s.StandardFloorHeight == nil || *s.StandardFloorHeight != tt.floor {
				t.Errorf("StandardFloorHeight = %v, want %v", s.StandardFloorHeight, tt.floor)
			}
		})
	}

	if s := Heights(nil, false); s.BuildingHeight != nil || s.StandardFloorHeight != nil {
		t.Errorf("Expected empty summary, got %+v", s)
	}
}
