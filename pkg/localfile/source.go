package localfile

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	yaml "go.yaml.in/yaml/v3"

	"github.com/lehigh-university-libraries/cadfeat/pkg/geom"
	"github.com/lehigh-university-libraries/cadfeat/pkg/sources"
)

// Source reads entities from a JSON or YAML dump on disk
type Source struct{}

// New creates a new local file source
func New() *Source {
	return &Source{}
}

// Name returns the source name
func (s *Source) Name() string {
	return "file"
}

// ValidateConfig validates the local file configuration
func (s *Source) ValidateConfig(config sources.Config) error {
	if config.Path == "" {
		return fmt.Errorf("input path is required for the file source")
	}
	switch strings.ToLower(filepath.Ext(config.Path)) {
	case ".json", ".yaml", ".yml":
		return nil
	}
	return fmt.Errorf("unsupported input file %s: expected .json, .yaml or .yml", config.Path)
}

// Record is one entity in a dump. Kind is "line" or "text"; when empty it is taken from
// the CAD type, then from whether the record carries text.
type Record struct {
	Kind   string        `json:"kind,omitempty" yaml:"kind,omitempty"`
	ID     string        `json:"id" yaml:"id"`
	Type   string        `json:"type,omitempty" yaml:"type,omitempty"`
	Bounds geom.Envelope `json:"bounds" yaml:"bounds"`
	Points geom.Path     `json:"points,omitempty" yaml:"points,omitempty"`
	Text   string        `json:"text,omitempty" yaml:"text,omitempty"`
}

// Fetch loads every entity of the dump
func (s *Source) Fetch(ctx context.Context, config sources.Config) ([]geom.Entity, error) {
	if err := s.ValidateConfig(config); err != nil {
		return nil, err
	}
	config = config.WithDefaults()

	data, err := os.ReadFile(config.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input file: %w", err)
	}

	var records []Record
	if strings.EqualFold(filepath.Ext(config.Path), ".json") {
		err = json.Unmarshal(data, &records)
	} else {
		err = yaml.Unmarshal(data, &records)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse input file %s: %w", config.Path, err)
	}

	entities := make([]geom.Entity, 0, len(records))
	for i, r := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		e, err := r.entity(config)
		if err != nil {
			return nil, fmt.Errorf("record %d in %s: %w", i, config.Path, err)
		}
		entities = append(entities, e)
	}

	slog.Info("Loaded entities from file", "path", config.Path, "entities", len(entities))
	return entities, nil
}

func (r Record) entity(config sources.Config) (geom.Entity, error) {
	kind := strings.ToLower(r.Kind)
	if kind == "" {
		switch {
		case r.Type != "" && config.IsTextType(r.Type):
			kind = "text"
		case r.Type == "" && r.Text != "":
			kind = "text"
		default:
			kind = "line"
		}
	}

	switch kind {
	case "text":
		return geom.TextEntity{ID: r.ID, Type: r.Type, Envelope: r.Bounds, Text: r.Text}, nil
	case "line", "polyline":
		env := r.Bounds
		if env.IsZero() {
			env = geom.EnvelopeOf(r.Points)
		}
		return geom.LineEntity{ID: r.ID, Type: r.Type, Points: r.Points, Envelope: env}, nil
	}
	return nil, fmt.Errorf("unknown entity kind %q", r.Kind)
}
