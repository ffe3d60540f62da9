package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"

	yaml "go.yaml.in/yaml/v3"
)

// Config holds every tolerance and threshold used by the detectors. All distances are in
// the drawing's own units, so values tuned for one unit system do not carry over to another.
type Config struct {
	// text clustering
	ClusterRadius float64 `yaml:"cluster_radius"`
	MinTextRunes  int     `yaml:"min_text_runes"`
	RowTolerance  float64 `yaml:"row_tolerance"`
	BlankOverlap  float64 `yaml:"blank_overlap"`

	// rectangles and submaps
	RectEpsilon  float64 `yaml:"rect_epsilon"`
	AxisEpsilon  float64 `yaml:"axis_epsilon"`
	KeyPrecision int     `yaml:"key_precision"`
	Level        int     `yaml:"level"`

	// elevation markers
	LabelExpand       float64 `yaml:"label_expand"`
	PoleEpsilon       float64 `yaml:"pole_epsilon"`
	PoleWidthEpsilon  float64 `yaml:"pole_width_epsilon"`
	ElevationLineType string  `yaml:"elevation_line_type"`

	// facade frames
	FacadeKeys   []string `yaml:"facade_keys"`
	ScalePattern string   `yaml:"scale_pattern"`

	// title-below table
	TitleAlignTolerance float64 `yaml:"title_align_tolerance"`
}

// Default returns the tolerances the detectors were calibrated with on drawings
// served in native CAD units
func Default() Config {
	return Config{
		ClusterRadius:       2000,
		MinTextRunes:        0,
		RowTolerance:        200,
		BlankOverlap:        0.5,
		RectEpsilon:         1e-6,
		AxisEpsilon:         1e-8,
		KeyPrecision:        6,
		Level:               0,
		LabelExpand:         1.25,
		PoleEpsilon:         1e-4,
		PoleWidthEpsilon:    1e-4,
		ElevationLineType:   "AcDbLine",
		FacadeKeys:          []string{"立面", "剖面"},
		ScalePattern:        `^1:[0-9]{2,4}$`,
		TitleAlignTolerance: 10000,
	}
}

// Load reads a YAML file over the defaults. Keys missing from the file keep their default.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return cfg, cfg.Validate()
}

// FromEnv applies CADFEAT_* environment overrides
func (c Config) FromEnv() (Config, error) {
	floats := map[string]*float64{
		"CADFEAT_CLUSTER_RADIUS":        &c.ClusterRadius,
		"CADFEAT_ROW_TOLERANCE":         &c.RowTolerance,
		"CADFEAT_LABEL_EXPAND":          &c.LabelExpand,
		"CADFEAT_TITLE_ALIGN_TOLERANCE": &c.TitleAlignTolerance,
		"CADFEAT_RECT_EPSILON":          &c.RectEpsilon,
		"CADFEAT_POLE_EPSILON":          &c.PoleEpsilon,
	}
	for name, dst := range floats {
		v := os.Getenv(name)
		if v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return c, fmt.Errorf("environment variable %s must be a number, got: %s", name, v)
		}
		*dst = f
	}

	if v := os.Getenv("CADFEAT_LEVEL"); v != "" {
		level, err := strconv.Atoi(v)
		if err != nil {
			return c, fmt.Errorf("environment variable CADFEAT_LEVEL must be an integer, got: %s", v)
		}
		c.Level = level
	}

	return c, c.Validate()
}

// Validate rejects tolerances no detector can work with
func (c Config) Validate() error {
	if c.ClusterRadius <= 0 {
		return fmt.Errorf("cluster_radius must be positive, got %v", c.ClusterRadius)
	}
	if c.RowTolerance < 0 {
		return fmt.Errorf("row_tolerance must not be negative, got %v", c.RowTolerance)
	}
	if c.BlankOverlap < 0 || c.BlankOverlap > 1 {
		return fmt.Errorf("blank_overlap must be within [0,1], got %v", c.BlankOverlap)
	}
	if c.RectEpsilon <= 0 || c.AxisEpsilon < 0 || c.PoleEpsilon <= 0 || c.PoleWidthEpsilon <= 0 {
		return fmt.Errorf("epsilons must be positive")
	}
	if c.KeyPrecision < 0 {
		return fmt.Errorf("key_precision must not be negative, got %d", c.KeyPrecision)
	}
	if c.Level < 0 {
		return fmt.Errorf("level must not be negative, got %d", c.Level)
	}
	if c.LabelExpand < 1 {
		return fmt.Errorf("label_expand must be at least 1, got %v", c.LabelExpand)
	}
	if c.TitleAlignTolerance < 0 {
		return fmt.Errorf("title_align_tolerance must not be negative, got %v", c.TitleAlignTolerance)
	}
	if _, err := c.ScaleRegexp(); err != nil {
		return err
	}
	return nil
}

// ScaleRegexp compiles ScalePattern
func (c Config) ScaleRegexp() (*regexp.Regexp, error) {
	re, err := regexp.Compile(c.ScalePattern)
	if err != nil {
		return nil, fmt.Errorf("invalid scale_pattern: %w", err)
	}
	return re, nil
}
