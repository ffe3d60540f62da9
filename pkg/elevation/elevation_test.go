package elevation

import (
	"fmt"
	"math"
	"testing"

	"github.com/lehigh-university-libraries/cadfeat/pkg/config"
	"github.com/lehigh-university-libraries/cadfeat/pkg/geom"
	"github.com/ridge/must/v2"
)

func seg(id, points string) geom.LineEntity {
	path := must.OK1(geom.ParsePath(points))
	return geom.LineEntity{ID: id, Type: "AcDbLine", Points: path, Envelope: geom.EnvelopeOf(path)}
}

// flag draws a marker whose apex sits at (x+5, y): sides 10 high, pole running right to x+30
func flag(prefix string, x, y float64) []geom.LineEntity {
	p := func(px, py float64) string { return fmt.Sprintf("%g,%g", x+px, y+py) }
	return []geom.LineEntity{
		seg(prefix+"-left", p(0, 10)+";"+p(5, 0)),
		seg(prefix+"-right", p(5, 0)+";"+p(10, 10)),
		seg(prefix+"-pole", p(0, 10)+";"+p(30, 10)),
	}
}

func label(id, text string, x, y float64) geom.TextEntity {
	return geom.TextEntity{ID: id, Text: text, Envelope: geom.NewEnvelope(x+2, y+11, x+20, y+15)}
}

func TestClassify(t *testing.T) {
	lines := []geom.LineEntity{
		seg("left", "0,10;5,0"),
		seg("left-reversed", "5,0;0,10"),
		seg("right", "5,0;10,10"),
		seg("horizontal", "0,10;30,10"),
		seg("vertical", "0,0;0,10"),
		seg("polyline", "0,0;1,1;2,0"),
	}
	s := Classify(lines, 1e-4)
	if len(s.Left) != 2 || len(s.Right) != 1 || len(s.Other) != 2 {
		t.Errorf("Classify() = %d left, %d right, %d other", len(s.Left), len(s.Right), len(s.Other))
	}
}

func TestIsPole(t *testing.T) {
	left := geom.NewEnvelope(0, 0, 5, 10)
	right := geom.NewEnvelope(5, 0, 10, 10)

	tests := []struct {
		name     string
		pole     geom.Envelope
		expected bool
	}{
		{"from top-left past the right side", geom.NewEnvelope(0, 10, 30, 10), true},
		{"from top-right past the left side", geom.NewEnvelope(-20, 10, 10, 10), true},
		{"starting between the sides", geom.NewEnvelope(3, 10, 30, 10), true},
		{"ending between the sides", geom.NewEnvelope(-20, 10, 7, 10), true},
		{"exactly spanning the sides", geom.NewEnvelope(0, 10, 10, 10), false},
		{"below the top", geom.NewEnvelope(0, 5, 30, 5), false},
		{"not flat", geom.NewEnvelope(0, 10, 30, 11), false},
		{"zero width", geom.NewEnvelope(0, 10, 0, 10), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isPole(tt.pole, left, right, 1e-4, 1e-4); got != tt.expected {
				t.Errorf("isPole(%v) = %v, want %v", tt.pole, got, tt.expected)
			}
		})
	}
}

func TestParseLabel(t *testing.T) {
	tests := []struct {
		text    string
		value   float64
		ok      bool
		isLabel bool
	}{
		{"12.50", 12.5, true, true},
		{"-3.200", -3.2, true, true},
		{"+1.5", 1.5, true, true},
		{".5", 0.5, true, true},
		{"%%p0.000", 0, true, true},
		{"%%P-3.200", -3.2, true, true},
		{"１２．５０", 12.5, true, true},
		{" 9.30 ", 9.3, true, true},
		{"12", 12, true, false},
		{"1.2.3", 0, false, false},
		{"标高", 0, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			v, ok := ParseLabel(tt.text)
			if ok != tt.ok || math.Abs(v-tt.value) > 1e-9 {
				t.Errorf("ParseLabel(%q) = %v, %v; want %v, %v", tt.text, v, ok, tt.value, tt.ok)
			}
			if got := IsLabel(tt.text); got != tt.isLabel {
				t.Errorf("IsLabel(%q) = %v, want %v", tt.text, got, tt.isLabel)
			}
		})
	}
}

func TestDetect(t *testing.T) {
	var lines []geom.LineEntity
	lines = append(lines, flag("a", 0, 0)...)
	lines = append(lines, flag("b", 500, 0)...)
	// a stray diagonal that pairs with nothing
	lines = append(lines, seg("stray", "1000,0;1010,40"))

	texts := []geom.TextEntity{
		label("la", "12.50", 0, 0),
		label("far", "99.00", 0, 300),
		{ID: "note", Text: "屋面", Envelope: geom.NewEnvelope(2, 11, 20, 15)},
	}

	markers := Detect(texts, lines, config.Default())
	if len(markers) != 2 {
		t.Fatalf("Expected 2 markers, got %d", len(markers))
	}

	a := markers[0]
	if a.Left.ID != "a-left" || a.Right.ID != "a-right" || a.Pole.ID != "a-pole" {
		t.Errorf("marker a = %s %s %s", a.Left.ID, a.Right.ID, a.Pole.ID)
	}
	if a.Label == nil || a.Label.ID != "la" {
		t.Fatalf("marker a label = %v, want la", a.Label)
	}
	if a.Value != 12.5 {
		t.Errorf("marker a value = %v, want 12.5", a.Value)
	}

	b := markers[1]
	if b.Label != nil || b.Value != 0 {
		t.Errorf("marker b should have no label, got %v %v", b.Label, b.Value)
	}
}

func TestDetectUsesLinesOnce(t *testing.T) {
	lines := flag("a", 0, 0)
	// a second pole on the same sides must not produce a second marker
	lines = append(lines, seg("a-pole2", "3,10;40,10"))

	markers := Detect(nil, lines, config.Default())
	if len(markers) != 1 {
		t.Fatalf("Expected 1 marker, got %d", len(markers))
	}
	if markers[0].Pole.ID != "a-pole" {
		t.Errorf("pole = %s, want a-pole", markers[0].Pole.ID)
	}
}

func TestGroupByLane(t *testing.T) {
	var lines []geom.LineEntity
	var texts []geom.TextEntity
	for _, f := range []struct {
		value string
		y     float64
	}{
		{"6.00", 0},
		{"12.50", 200},
		{"9.30", 100},
	} {
		lines = append(lines, flag(f.value, 0, f.y)...)
		texts = append(texts, label("label-"+f.value, f.value, 0, f.y))
	}
	// a lone marker in another lane
	lines = append(lines, flag("lone", 800, 0)...)
	texts = append(texts, label("label-lone", "3.00", 800, 0))

	markers := Detect(texts, lines, config.Default())
	if len(markers) != 4 {
		t.Fatalf("Expected 4 markers, got %d", len(markers))
	}

	lanes := GroupByLane(markers)
	if len(lanes) != 1 {
		t.Fatalf("Expected 1 lane, got %d", len(lanes))
	}
	lane := lanes[0]

	wantValues := []float64{12.5, 9.3, 6.0}
	wantDiffs := []float64{3.2, 3.3}
	if len(lane.Values) != len(wantValues) || len(lane.Diffs) != len(wantDiffs) {
		t.Fatalf("lane = values %v diffs %v", lane.Values, lane.Diffs)
	}
	for i := range wantValues {
		if math.Abs(lane.Values[i]-wantValues[i]) > 1e-9 {
			t.Errorf("Values[%d] = %v, want %v", i, lane.Values[i], wantValues[i])
		}
	}
	for i := range wantDiffs {
		if math.Abs(lane.Diffs[i]-wantDiffs[i]) > 1e-9 {
			t.Errorf("Diffs[%d] = %v, want %v", i, lane.Diffs[i], wantDiffs[i])
		}
	}
	if lane.Markers[0].Label.Text != "12.50" {
		t.Errorf("first marker label = %q", lane.Markers[0].Label.Text)
	}
}

func TestGroupByLaneSkipsUnlabelledAndRepeatedPoles(t *testing.T) {
	pole := func(minx, y float64) geom.LineEntity {
		return geom.LineEntity{Envelope: geom.NewEnvelope(minx, y, minx+30, y)}
	}
	text := &geom.TextEntity{Text: "1.00"}
	markers := []geom.ElevationMarker{
		{Pole: pole(0, 0), Label: text, Value: 1},
		{Pole: pole(0, 0), Label: text, Value: 1},
		{Pole: pole(0, 100)},
		{Pole: pole(5, 200), Label: text, Value: 4},
	}

	lanes := GroupByLane(markers)
	if len(lanes) != 1 {
		t.Fatalf("Expected 1 lane, got %d", len(lanes))
	}
	if len(lanes[0].Markers) != 2 {
		t.Errorf("Expected 2 markers in lane, got %d", len(lanes[0].Markers))
	}
	if lanes[0].Values[0] != 4 || lanes[0].Diffs[0] != 3 {
		t.Errorf("lane = values %v diffs %v", lanes[0].Values, lanes[0].Diffs)
	}
}

func TestHeights(t *testing.T) {
	lanes := []Lane{
		{Values: []float64{12.5, 9.3, 6.0, 2.7}, Diffs: []float64{3.2, 3.3, 3.3}},
		{Values: []float64{15.8, 12.5}, Diffs: []float64{3.3}},
	}

	if h, ok := BuildingHeight(lanes, false); !ok || h != 15.8 {
		t.Errorf("BuildingHeight() = %v, %v", h, ok)
	}
	if h, ok := StandardFloorHeight(lanes, false); !ok || h != 3.3 {
		t.Errorf("StandardFloorHeight() = %v, %v", h, ok)
	}

	below := []Lane{{Values: []float64{-0.45, -3.6, -6.9}, Diffs: []float64{3.15, 3.3}}}
	if h, ok := BuildingHeight(below, true); !ok || h != 6.9 {
		t.Errorf("BuildingHeight(below) = %v, %v", h, ok)
	}
	if h, ok := StandardFloorHeight(below, true); !ok || h != 3.15 {
		t.Errorf("StandardFloorHeight(below) = %v, %v", h, ok)
	}

	tie := []Lane{{Values: []float64{6.5, 3.3, 0, 0}, Diffs: []float64{3.2, 3.3, 0}}}
	if h, ok := StandardFloorHeight(tie, false); !ok || h != 3.2 {
		t.Errorf("StandardFloorHeight(tie) = %v, %v", h, ok)
	}

	if _, ok := BuildingHeight(nil, false); ok {
		t.Error("Expected no building height without lanes")
	}
	if _, ok := StandardFloorHeight([]Lane{{Diffs: []float64{0}}}, false); ok {
		t.Error("Expected no floor height when every diff is zero")
	}
}
