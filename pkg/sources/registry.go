package sources

import (
	"fmt"
	"sort"
	"strings"
)

// Registry manages all available sources
type Registry struct {
	sources map[string]Source
}

// NewRegistry creates a new source registry
func NewRegistry() *Registry {
	return &Registry{
		sources: make(map[string]Source),
	}
}

// Register adds a source to the registry
func (r *Registry) Register(source Source) {
	r.sources[strings.ToLower(source.Name())] = source
}

// Get retrieves a source by name
func (r *Registry) Get(name string) (Source, error) {
	source, exists := r.sources[strings.ToLower(name)]
	if !exists {
		return nil, fmt.Errorf("source %s not found (available: %s)", name, strings.Join(r.List(), ", "))
	}
	return source, nil
}

// List returns all available source names, sorted
func (r *Registry) List() []string {
	var names []string
	for name := range r.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has checks if a source is registered
func (r *Registry) Has(name string) bool {
	_, exists := r.sources[strings.ToLower(name)]
	return exists
}
