package vjmap

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/lehigh-university-libraries/cadfeat/internal/utils"
	"github.com/lehigh-university-libraries/cadfeat/pkg/geom"
	"github.com/lehigh-university-libraries/cadfeat/pkg/sources"
)

// Source reads drawing entities from a vjmap CAD map service
type Source struct {
	backoffDuration time.Duration
}

// New creates a new vjmap source
func New() *Source {
	return &Source{}
}

// WithBackoff sets the wait between retried requests, overriding Config.RetryInterval
func (s *Source) WithBackoff(d time.Duration) *Source {
	s.backoffDuration = d
	return s
}

// Name returns the source name
func (s *Source) Name() string {
	return "vjmap"
}

// ValidateConfig validates the vjmap configuration
func (s *Source) ValidateConfig(config sources.Config) error {
	if os.Getenv("VJMAP_ACCESS_TOKEN") == "" {
		return fmt.Errorf("VJMAP_ACCESS_TOKEN environment variable not set")
	}
	if config.BaseURL == "" && os.Getenv("VJMAP_SERVICEURL") == "" {
		return fmt.Errorf("VJMAP_SERVICEURL environment variable not set")
	}
	if config.MapID == "" {
		return fmt.Errorf("map id is required for the vjmap source")
	}
	return nil
}

type client struct {
	http     *http.Client
	baseURL  string
	token    string
	mapID    string
	version  string
	retries  uint64
	interval time.Duration
}

// item is one entity as returned by queryFeatures
type item struct {
	ObjectID string        `json:"objectid"`
	Name     string        `json:"name"`
	Bounds   geom.Envelope `json:"bounds"`
	Points   geom.Path     `json:"points"`
	Text     string        `json:"text"`
}

type queryRequest struct {
	QueryType      string `json:"querytype"`
	Condition      string `json:"condition"`
	Fields         string `json:"fields"`
	BeginPos       int    `json:"beginpos"`
	Limit          int    `json:"limit"`
	MaxReturnCount int    `json:"maxReturnCount"`
	LayerName      string `json:"layername"`
	Geom           bool   `json:"geom"`
	IncludeGeom    bool   `json:"includegeom"`
	RealGeom       bool   `json:"realgeom"`
}

type queryResponse struct {
	RecordCount int    `json:"recordCount"`
	Result      []item `json:"result"`
	Error       string `json:"error"`
}

// Fetch queries every text and line entity of the map, page by page. Access tokens are
// masked in returned errors.
func (s *Source) Fetch(ctx context.Context, config sources.Config) ([]geom.Entity, error) {
	entities, err := s.fetch(ctx, config)
	if err != nil {
		return nil, utils.MaskSensitiveError(err)
	}
	return entities, nil
}

func (s *Source) fetch(ctx context.Context, config sources.Config) ([]geom.Entity, error) {
	config = config.WithDefaults()
	if err := s.ValidateConfig(config); err != nil {
		return nil, err
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = os.Getenv("VJMAP_SERVICEURL")
	}
	interval := config.RetryInterval
	if s.backoffDuration > 0 {
		interval = s.backoffDuration
	}
	c := &client{
		http:     &http.Client{Timeout: config.Timeout},
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		token:    os.Getenv("VJMAP_ACCESS_TOKEN"),
		mapID:    config.MapID,
		version:  config.Version,
		retries:  config.Retries,
		interval: interval,
	}

	// Step 1: entity type ids of this map
	typeNames, err := c.entityTypes(ctx)
	if err != nil {
		return nil, err
	}
	condition, err := typeCondition(typeNames, append(append([]string{}, config.TextTypes...), config.LineTypes...))
	if err != nil {
		return nil, err
	}

	// Step 2: style layer to query against
	layer, err := c.styleName(ctx)
	if err != nil {
		return nil, err
	}

	// Step 3: page through the entities
	items, err := c.query(ctx, condition, layer, config.PageSize)
	if err != nil {
		return nil, err
	}

	entities := make([]geom.Entity, 0, len(items))
	texts := 0
	for _, it := range items {
		typeName := typeNames[it.Name]
		if config.IsTextType(typeName) {
			entities = append(entities, geom.TextEntity{ID: it.ObjectID, Type: typeName, Envelope: it.Bounds, Text: it.Text})
			texts++
			continue
		}
		env := it.Bounds
		if env.IsZero() {
			env = geom.EnvelopeOf(it.Points)
		}
		entities = append(entities, geom.LineEntity{ID: it.ObjectID, Type: typeName, Points: it.Points, Envelope: env})
	}

	slog.Info("Fetched map entities", "map_id", config.MapID, "texts", texts, "lines", len(entities)-texts)
	return entities, nil
}

// typeCondition builds the queryFeatures condition selecting the wanted entity types
func typeCondition(typeNames map[string]string, wanted []string) (string, error) {
	var ids []string
	for id, name := range typeNames {
		for _, w := range wanted {
			if name == w {
				ids = append(ids, id)
				break
			}
		}
	}
	if len(ids) == 0 {
		return "", fmt.Errorf("map has none of the entity types %s", strings.Join(wanted, ", "))
	}
	sort.Strings(ids)

	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("name='%s'", id)
	}
	return strings.Join(parts, " or "), nil
}

func (c *client) entityTypes(ctx context.Context) (map[string]string, error) {
	var resp struct {
		EntTypeIDMap map[string]string `json:"entTypeIdMap"`
		Error        string            `json:"error"`
	}
	endpoint := fmt.Sprintf("/map/cmd/constData/%s/%s", url.PathEscape(c.mapID), url.PathEscape(c.version))
	if err := c.do(ctx, http.MethodGet, endpoint, nil, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to read map constants: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("failed to read map constants: %s", resp.Error)
	}
	return resp.EntTypeIDMap, nil
}

func (c *client) styleName(ctx context.Context) (string, error) {
	var resp struct {
		StyleName string `json:"stylename"`
		Error     string `json:"error"`
	}
	endpoint := fmt.Sprintf("/map/cmd/createMapStyle/%s/%s", url.PathEscape(c.mapID), url.PathEscape(c.version))
	query := url.Values{"geom": {"true"}, "token": {c.token}}
	if err := c.do(ctx, http.MethodGet, endpoint, query, nil, &resp); err != nil {
		return "", fmt.Errorf("failed to create map style: %w", err)
	}
	if resp.StyleName == "" {
		return "", fmt.Errorf("map style has no layer name: %s", resp.Error)
	}
	return resp.StyleName, nil
}

func (c *client) query(ctx context.Context, condition, layer string, pageSize int) ([]item, error) {
	endpoint := fmt.Sprintf("/map/cmd/queryFeatures/%s/%s", url.PathEscape(c.mapID), url.PathEscape(c.version))
	req := queryRequest{
		QueryType:      "condition",
		Condition:      condition,
		Fields:         "objectid,points,bounds,name,text",
		Limit:          pageSize,
		MaxReturnCount: pageSize,
		LayerName:      layer,
		Geom:           true,
		IncludeGeom:    true,
		RealGeom:       true,
	}

	var items []item
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var resp queryResponse
		if err := c.do(ctx, http.MethodPost, endpoint, nil, req, &resp); err != nil {
			return nil, fmt.Errorf("failed to query features at %d: %w", req.BeginPos, err)
		}
		if resp.Error != "" {
			return nil, fmt.Errorf("failed to query features at %d: %s", req.BeginPos, resp.Error)
		}
		if len(resp.Result) == 0 {
			break
		}

		items = append(items, resp.Result...)
		slog.Debug("Fetched feature page", "begin", req.BeginPos, "page", len(resp.Result), "total", len(items), "record_count", resp.RecordCount)
		if len(items) >= resp.RecordCount {
			break
		}
		req.BeginPos += pageSize
	}
	return items, nil
}

// do sends one request, retrying transport failures and 5xx responses
func (c *client) do(ctx context.Context, method, endpoint string, query url.Values, body, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	target := c.baseURL + endpoint
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(c.interval), c.retries), ctx)
	data, err := backoff.RetryWithData(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(payload))
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		req.Header.Set("token", c.token)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return nil, fmt.Errorf("vjmap API error: %d - %s", resp.StatusCode, sources.TruncateBody(data))
		}
		if resp.StatusCode != http.StatusOK {
			return nil, backoff.Permanent(fmt.Errorf("vjmap API error: %d - %s", resp.StatusCode, sources.TruncateBody(data)))
		}
		return data, nil
	}, policy)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
