package openweather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/rainfall-outlook/internal/domain"
	"github.com/couchcryptid/rainfall-outlook/internal/observability"
)

// msToKmh converts OpenWeather's metric wind speed (m/s) to km/h.
const msToKmh = 3.6

// Client implements domain.Geocoder and domain.ConditionsSource using the
// OpenWeather Geocoding and Current Weather APIs.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an OpenWeather client.
func NewClient(apiKey, baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		metrics: metrics,
		logger:  logger,
	}
}

// Geocode resolves a place name to the coordinates of its first match.
func (c *Client) Geocode(ctx context.Context, query string) (domain.GeoCoordinate, error) {
	params := url.Values{
		"q":     {query},
		"limit": {"1"},
		"appid": {c.apiKey},
	}

	start := time.Now()
	var places []place
	if err := c.getJSON(ctx, "/geo/1.0/direct", params, "geocode", &places); err != nil {
		c.observe("geocode", "error", start)
		return domain.GeoCoordinate{}, err
	}

	if len(places) == 0 {
		c.observe("geocode", "empty", start)
		return domain.GeoCoordinate{}, fmt.Errorf("openweather geocode %q: %w", query, domain.ErrGeocodeNotFound)
	}
	c.observe("geocode", "success", start)

	p := places[0]
	c.logger.Debug("geocode resolved", "query", query, "name", p.Name, "state", p.State, "country", p.Country)
	return domain.GeoCoordinate{Latitude: p.Lat, Longitude: p.Lon}, nil
}

// CurrentConditions fetches instantaneous weather at coord in metric units.
func (c *Client) CurrentConditions(ctx context.Context, coord domain.GeoCoordinate) (domain.CurrentConditions, error) {
	params := url.Values{
		"lat":   {strconv.FormatFloat(coord.Latitude, 'f', 6, 64)},
		"lon":   {strconv.FormatFloat(coord.Longitude, 'f', 6, 64)},
		"units": {"metric"},
		"appid": {c.apiKey},
	}

	start := time.Now()
	var resp currentWeather
	if err := c.getJSON(ctx, "/data/2.5/weather", params, "conditions", &resp); err != nil {
		c.observe("conditions", "error", start)
		return domain.CurrentConditions{}, err
	}
	cond, err := resp.toDomain()
	if err != nil {
		c.observe("conditions", "error", start)
		return domain.CurrentConditions{}, err
	}
	c.observe("conditions", "success", start)
	return cond, nil
}

func (c *Client) observe(service, outcome string, start time.Time) {
	c.metrics.ObserveUpstream(service, outcome, time.Since(start).Seconds())
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, service string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", service, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("openweather API error: status %d: %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s response: %w", service, err)
	}
	return nil
}

// OpenWeather API response types.

type place struct {
	Name    string  `json:"name"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Country string  `json:"country"`
	State   string  `json:"state"`
}

type currentWeather struct {
	Name string `json:"name"`
	Main *struct {
		Temp     *float64 `json:"temp"`
		Humidity *float64 `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"` // m/s with units=metric
	} `json:"wind"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
}

var errMissingMain = errors.New("response has no temperature or humidity")

func (w currentWeather) toDomain() (domain.CurrentConditions, error) {
	if w.Main == nil || w.Main.Temp == nil || w.Main.Humidity == nil {
		return domain.CurrentConditions{}, fmt.Errorf("decode conditions response: %w", errMissingMain)
	}

	cond := domain.CurrentConditions{
		LocationName: w.Name,
		TemperatureC: *w.Main.Temp,
		HumidityPct:  int(math.Round(*w.Main.Humidity)),
		WindSpeedKmh: w.Wind.Speed * msToKmh,
		Condition:    domain.ConditionOther,
	}
	if len(w.Weather) > 0 {
		cond.Condition = domain.ParseConditionCode(w.Weather[0].Main)
		cond.Description = w.Weather[0].Description
	}
	return cond, nil
}
