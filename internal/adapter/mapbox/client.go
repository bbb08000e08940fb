// Package mapbox resolves city names through the Mapbox forward geocoding API.
package mapbox

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/couchcryptid/rainfall-outlook/internal/domain"
	"github.com/couchcryptid/rainfall-outlook/internal/observability"
)

// DefaultBaseURL is the public Mapbox places endpoint.
const DefaultBaseURL = "https://api.mapbox.com/geocoding/v5/mapbox.places"

const service = "geocode"

// Client implements domain.Geocoder.
type Client struct {
	token   string
	baseURL string
	http    *http.Client
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewClient creates a Mapbox geocoder against DefaultBaseURL.
func NewClient(token string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		token:   token,
		baseURL: DefaultBaseURL,
		http:    &http.Client{Timeout: timeout},
		metrics: metrics,
		logger:  logger,
	}
}

// Geocode returns the coordinates of the first city-level match for query.
// No match wraps domain.ErrGeocodeNotFound.
func (c *Client) Geocode(ctx context.Context, query string) (domain.GeoCoordinate, error) {
	start := time.Now()
	places, err := c.search(ctx, query)
	if err != nil {
		c.metrics.ObserveUpstream(service, "error", time.Since(start).Seconds())
		return domain.GeoCoordinate{}, err
	}

	p, ok := firstLocated(places)
	if !ok {
		c.metrics.ObserveUpstream(service, "empty", time.Since(start).Seconds())
		return domain.GeoCoordinate{}, fmt.Errorf("mapbox geocode %q: %w", query, domain.ErrGeocodeNotFound)
	}
	c.metrics.ObserveUpstream(service, "success", time.Since(start).Seconds())

	c.logger.Debug("geocode resolved", "query", query, "place_name", p.PlaceName, "relevance", p.Relevance)
	return p.coordinate(), nil
}

func (c *Client) search(ctx context.Context, query string) ([]place, error) {
	params := url.Values{}
	params.Set("access_token", c.token)
	params.Set("limit", "1")
	params.Set("types", "place,locality")
	params.Set("autocomplete", "false")
	endpoint := fmt.Sprintf("%s/%s.json?%s", c.baseURL, url.PathEscape(query), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build mapbox request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mapbox request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("mapbox returned status %d: %s", resp.StatusCode, snippet)
	}

	var body featureCollection
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode mapbox response: %w", err)
	}
	return body.Features, nil
}

func firstLocated(places []place) (place, bool) {
	for _, p := range places {
		if len(p.Center) == 2 {
			return p, true
		}
	}
	return place{}, false
}

type featureCollection struct {
	Features []place `json:"features"`
}

type place struct {
	PlaceName string    `json:"place_name"`
	Relevance float64   `json:"relevance"`
	Center    []float64 `json:"center"` // lon, lat
}

func (p place) coordinate() domain.GeoCoordinate {
	return domain.GeoCoordinate{Latitude: p.Center[1], Longitude: p.Center[0]}
}
