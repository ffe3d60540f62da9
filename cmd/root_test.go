package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ridge/must/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/lehigh-university-libraries/cadfeat/pkg/export"
	"github.com/lehigh-university-libraries/cadfeat/pkg/geom"
	"github.com/lehigh-university-libraries/cadfeat/pkg/localfile"
)

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// run executes the root command with args and returns what it printed
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(func() { resetFlags(RootCmd) })

	var out bytes.Buffer
	RootCmd.SetOut(&out)
	RootCmd.SetErr(io.Discard)
	RootCmd.SetArgs(append(args, "--log-level", "ERROR"))
	err := RootCmd.Execute()
	return out.String(), err
}

func line(id, kind, points string) localfile.Record {
	path := must.OK1(geom.ParsePath(points))
	return localfile.Record{Kind: "line", ID: id, Type: kind, Points: path, Bounds: geom.EnvelopeOf(path)}
}

func text(id, s string, x1, y1, x2, y2 float64) localfile.Record {
	return localfile.Record{Kind: "text", ID: id, Type: "AcDbText", Text: s, Bounds: geom.NewEnvelope(x1, y1, x2, y2)}
}

// dump writes records as a JSON entity dump and returns its path
func dump(t *testing.T, records []localfile.Record) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sheet.json")
	data := must.OK1(json.Marshal(records))
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write dump: %v", err)
	}
	return path
}

// facadeSheet is a south facade frame with three elevation markers on one lane, next to a
// plan frame, both inside an outer border
func facadeSheet() []localfile.Record {
	records := []localfile.Record{
		line("outer", "AcDbPolyline", "-100,-100;2000,-100;2000,2000;-100,2000;-100,-100"),
		line("south", "AcDbPolyline", "0,0;1000,0;1000,1000;0,1000;0,0"),
		line("plan", "AcDbPolyline", "1100,0;1900,0;1900,1000;1100,1000"),
		text("title", "南立面图", 100, 50, 200, 70),
		text("scale", "1:100", 220, 52, 260, 68),
		text("plan-title", "一层平面图", 1200, 50, 1300, 70),
		text("plan-scale", "1:100", 1320, 52, 1360, 68),
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
		records = append(records,
			line(m.value+"-left", "AcDbLine", p(0, 10)+";"+p(5, 0)),
			line(m.value+"-right", "AcDbLine", p(5, 0)+";"+p(10, 10)),
			line(m.value+"-pole", "AcDbLine", p(0, 10)+";"+p(30, 10)),
			text("label-"+m.value, m.value, 402, m.y+11, 420, m.y+15),
		)
	}
	return records
}

func TestRootErrors(t *testing.T) {
	path := dump(t, facadeSheet())

	tests := []struct {
		name          string
		args          []string
		errorContains string
	}{
		{"unknown source", []string{"submaps", "--source", "dwg", "--input", path}, `unknown source "dwg", use one of: file, vjmap`},
		{"file source without input", []string{"submaps", "--source", "file"}, "input path is required"},
		{"unsupported format", []string{"submaps", "--input", path, "--format", "csv"}, "unsupported output format"},
		{"missing config file", []string{"submaps", "--input", path, "--config", filepath.Join(t.TempDir(), "missing.yaml")}, "failed to read config file"},
		{"negative level", []string{"submaps", "--input", path, "--level=-1"}, "level must not be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.errorContains) {
				t.Errorf("Expected error containing '%s', got: %v", tt.errorContains, err)
			}
		})
	}
}

func TestOutputFile(t *testing.T) {
	path := dump(t, facadeSheet())
	outPath := filepath.Join(t.TempDir(), "submaps.geojson")

	out, err := run(t, "submaps", "--input", path, "--format", "geojson", "--output", outPath)
	if err != nil {
		t.Fatalf("submaps error: %v", err)
	}
	if out != "" {
		t.Errorf("Expected nothing on stdout, got %q", out)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}
	if !strings.Contains(string(data), `"type":"FeatureCollection"`) {
		t.Errorf("Expected a feature collection, got %s", data)
	}
}

func TestConfigFile(t *testing.T) {
	path := dump(t, facadeSheet())
	cfgPath := filepath.Join(t.TempDir(), "cadfeat.yaml")
	if err := os.WriteFile(cfgPath, []byte("level: 1\n"), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	out, err := run(t, "submaps", "--input", path, "--config", cfgPath, "--format", "json")
	if err != nil {
		t.Fatalf("submaps error: %v", err)
	}
	var result export.Result
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("Failed to decode output: %v\n%s", err, out)
	}
	if len(result.Submaps) != 2 {
		t.Errorf("Expected 2 submaps at level 1 from the config file, got %v", result.Submaps)
	}
}
