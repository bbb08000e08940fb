package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/rainfall-outlook/internal/domain"
	"github.com/couchcryptid/rainfall-outlook/internal/observability"
)

const service = "precipitation"

// Client implements domain.PrecipitationSource using the Open-Meteo forecast API.
// Open-Meteo needs no credentials.
type Client struct {
	httpClient *http.Client
	baseURL    string
	days       int
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an Open-Meteo client requesting a forecast window of days.
func NewClient(baseURL string, days int, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		days:    days,
		metrics: metrics,
		logger:  logger,
	}
}

// DailyPrecipitation fetches the daily precipitation sums at coord, one entry
// per forecast day in chronological order.
func (c *Client) DailyPrecipitation(ctx context.Context, coord domain.GeoCoordinate) (domain.PrecipitationSeries, error) {
	start := time.Now()
	series, err := c.fetch(ctx, coord)
	outcome := "success"
	switch {
	case err != nil:
		outcome = "error"
	case len(series) == 0:
		outcome = "empty"
	}
	c.metrics.ObserveUpstream(service, outcome, time.Since(start).Seconds())
	return series, err
}

func (c *Client) fetch(ctx context.Context, coord domain.GeoCoordinate) (domain.PrecipitationSeries, error) {
	params := url.Values{
		"latitude":      {strconv.FormatFloat(coord.Latitude, 'f', 4, 64)},
		"longitude":     {strconv.FormatFloat(coord.Longitude, 'f', 4, 64)},
		"daily":         {"precipitation_sum"},
		"timezone":      {"auto"},
		"forecast_days": {strconv.Itoa(c.days)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/forecast?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", service, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("open-meteo API error: status %d: %s", resp.StatusCode, body)
	}

	var fc forecast
	if err := json.NewDecoder(resp.Body).Decode(&fc); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", service, err)
	}
	return c.toSeries(fc)
}

func (c *Client) toSeries(fc forecast) (domain.PrecipitationSeries, error) {
	dates := make([]time.Time, len(fc.Daily.Time))
	for i, s := range fc.Daily.Time {
		d, err := time.Parse(time.DateOnly, s)
		if err != nil {
			return nil, fmt.Errorf("decode %s response: daily.time[%d]: %w", service, i, err)
		}
		dates[i] = d
	}

	// A null daily sum means nothing was reported for that day.
	amounts := make([]float64, len(fc.Daily.PrecipitationSum))
	for i, v := range fc.Daily.PrecipitationSum {
		if v != nil {
			amounts[i] = *v
		}
	}

	series, truncated := domain.ZipPrecipitation(dates, amounts)
	if truncated {
		c.logger.Warn("precipitation series length mismatch, truncating",
			"dates", len(dates),
			"amounts", len(amounts),
			"kept", len(series),
		)
	}
	return series, nil
}

// Open-Meteo API response types.

type forecast struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timezone  string  `json:"timezone"`
	Daily     struct {
		Time             []string   `json:"time"`
		PrecipitationSum []*float64 `json:"precipitation_sum"`
	} `json:"daily"`
}
