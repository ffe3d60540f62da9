package sources

import (
	"context"
	"time"

	"github.com/lehigh-university-libraries/cadfeat/pkg/geom"
)

// Retry policy used when a Config leaves it unset
const (
	DefaultRetries       = 4
	DefaultRetryInterval = 2 * time.Second
)

// Default CAD entity type names queried from a drawing
var (
	DefaultTextTypes = []string{"AcDbText", "AcDbMText", "AcDbAttributeDefinition", "AcDbAttribute"}
	DefaultLineTypes = []string{"AcDbLine", "AcDbPolyline", "AcDb2dPolyline", "AcDb3dPolyline"}
)

// Config represents the configuration for a source
type Config struct {
	Source   string
	MapID    string
	Version  string
	Path     string
	BaseURL  string
	PageSize int
	Timeout  time.Duration

	// Retries is how often a failed request is repeated, RetryInterval the wait in between
	Retries       uint64
	RetryInterval time.Duration

	// CAD entity type names to fetch; text types become TextEntity, the rest LineEntity
	TextTypes []string
	LineTypes []string
}

// WithDefaults fills unset fields
func (c Config) WithDefaults() Config {
	if c.Version == "" {
		c.Version = "v1"
	}
	if c.PageSize <= 0 {
		c.PageSize = 50000
	}
	if c.Timeout <= 0 {
		c.Timeout = 120 * time.Second
	}
	if c.Retries == 0 {
		c.Retries = DefaultRetries
	}
	if c.RetryInterval <= 0 {
		c.RetryInterval = DefaultRetryInterval
	}
	if len(c.TextTypes) == 0 {
		c.TextTypes = DefaultTextTypes
	}
	if len(c.LineTypes) == 0 {
		c.LineTypes = DefaultLineTypes
	}
	return c
}

// Source interface that all vector-entity sources must implement
type Source interface {
	// Fetch returns the text and line entities of one drawing
	Fetch(ctx context.Context, config Config) ([]geom.Entity, error)
	// Name returns the source's name
	Name() string
	// ValidateConfig validates the source-specific configuration
	ValidateConfig(config Config) error
}

// IsTextType reports whether typeName is one of the configured text types
func (c Config) IsTextType(typeName string) bool {
	for _, t := range c.TextTypes {
		if t == typeName {
			return true
		}
	}
	return false
}

// TruncateBody truncates a response body to a maximum length for error messages.
// Default maxLen is 500 if not specified.
func TruncateBody(body []byte, maxLen ...int) string {
	limit := 500
	if len(maxLen) > 0 && maxLen[0] > 0 {
		limit = maxLen[0]
	}
	s := string(body)
	if len(s) > limit {
		return s[:limit] + "... (truncated)"
	}
	return s
}
