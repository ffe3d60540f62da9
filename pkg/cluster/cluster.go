package cluster

import (
	"log/slog"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/lehigh-university-libraries/cadfeat/pkg/geom"
	"github.com/tidwall/rtree"
)

// Cluster is a group of text labels lying close to each other
type Cluster []geom.TextEntity

// Options tunes which labels take part in clustering
type Options struct {
	MinTextRunes int
}

// Option is a function that configures Options
type Option func(*Options)

// WithMinTextRunes drops labels whose trimmed text has n runes or fewer
func WithMinTextRunes(n int) Option {
	return func(opts *Options) {
		opts.MinTextRunes = n
	}
}

func applyOptions(opts ...Option) *Options {
	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// Partition splits texts into proximity clusters.
//
// Centers are indexed in an R-tree; each unvisited label in input order seeds a cluster,
// the index returns every center within 2*radius of the seed's center, and a candidate
// joins when the gap between its box and the seed's box is at most radius. The pass is
// single and non-transitive: a label close to a member but farther than radius from the
// seed starts or joins another cluster. Every kept label ends up in exactly one cluster.
func Partition(texts []geom.TextEntity, radius float64, opts ...Option) []Cluster {
	options := applyOptions(opts...)

	items := make([]geom.TextEntity, 0, len(texts))
	for _, t := range texts {
		if !t.HasText() || t.Envelope.IsZero() {
			continue
		}
		if options.MinTextRunes > 0 && utf8.RuneCountInString(strings.TrimSpace(t.Text)) <= options.MinTextRunes {
			continue
		}
		items = append(items, t)
	}
	if len(items) == 0 {
		return nil
	}

	var tr rtree.RTreeG[int]
	centers := make([]geom.Point, len(items))
	for i, item := range items {
		c := item.Envelope.Center()
		centers[i] = c
		tr.Insert([2]float64{c.X, c.Y}, [2]float64{c.X, c.Y}, i)
	}

	reach := 2 * radius
	visited := make([]bool, len(items))
	var clusters []Cluster

	for i := range items {
		if visited[i] {
			continue
		}
		seed := centers[i]

		var candidates []int
		tr.Search(
			[2]float64{seed.X - reach, seed.Y - reach},
			[2]float64{seed.X + reach, seed.Y + reach},
			func(_, _ [2]float64, j int) bool {
				if seed.DistanceTo(centers[j]) <= reach {
					candidates = append(candidates, j)
				}
				return true
			},
		)
		sort.Ints(candidates)

		var members Cluster
		for _, j := range candidates {
			if visited[j] {
				continue
			}
			if items[i].Envelope.BoxDistance(items[j].Envelope) <= radius {
				members = append(members, items[j])
				visited[j] = true
			}
		}
		clusters = append(clusters, members)
	}

	slog.Debug("Clustered text labels", "labels", len(items), "clusters", len(clusters), "radius", radius)
	return clusters
}

// Bounds returns the envelope covering every member
func (c Cluster) Bounds() geom.Envelope {
	envs := make([]geom.Envelope, len(c))
	for i, t := range c {
		envs[i] = t.Envelope
	}
	return geom.BoundsOf(envs...)
}

// Contains reports whether any member's text contains key
func (c Cluster) Contains(key string) bool {
	for _, t := range c {
		if strings.Contains(t.Text, key) {
			return true
		}
	}
	return false
}

// Search returns the clusters holding key. An empty key matches every cluster.
func Search(clusters []Cluster, key string) []Cluster {
	var found []Cluster
	for _, c := range clusters {
		if key == "" || c.Contains(key) {
			found = append(found, c)
		}
	}
	return found
}
