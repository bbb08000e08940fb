package openmeteo

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/couchcryptid/rainfall-outlook/internal/domain"
	"github.com/couchcryptid/rainfall-outlook/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    baseURL,
		days:       7,
		metrics:    observability.NewMetricsForTesting(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func serve(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

var pune = domain.GeoCoordinate{Latitude: 18.5204, Longitude: 73.8567}

func TestClient_DailyPrecipitation_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/v1/forecast", r.URL.Path)
		assert.Equal(t, "18.5204", q.Get("latitude"))
		assert.Equal(t, "73.8567", q.Get("longitude"))
		assert.Equal(t, "precipitation_sum", q.Get("daily"))
		assert.Equal(t, "auto", q.Get("timezone"))
		assert.Equal(t, "7", q.Get("forecast_days"))

		_, _ = w.Write([]byte(`{
			"latitude": 18.5, "longitude": 73.875, "timezone": "Asia/Kolkata",
			"daily": {
				"time": ["2024-06-01", "2024-06-02", "2024-06-03"],
				"precipitation_sum": [5.0, 10.0, 8.0]
			}
		}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	series, err := c.DailyPrecipitation(context.Background(), pune)
	require.NoError(t, err)

	require.Len(t, series, 3)
	assert.Equal(t, time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC), series[0].Date)
	assert.InDelta(t, 5.0, series[0].PrecipitationMm, 0.0001)
	assert.Equal(t, time.Date(2024, time.June, 3, 0, 0, 0, 0, time.UTC), series[2].Date)
	assert.InDelta(t, 8.0, series[2].PrecipitationMm, 0.0001)
	assert.InDelta(t, 1.0, testutil.ToFloat64(c.metrics.UpstreamRequests.WithLabelValues(service, "success")), 0.0001)
}

func TestClient_DailyPrecipitation_NullAmountIsZero(t *testing.T) {
	srv := serve(t, `{"daily":{"time":["2024-06-01","2024-06-02"],"precipitation_sum":[null,2.5]}}`)

	series, err := testClient(srv.URL).DailyPrecipitation(context.Background(), pune)
	require.NoError(t, err)
	require.Len(t, series, 2)
	assert.Zero(t, series[0].PrecipitationMm)
	assert.InDelta(t, 2.5, series[1].PrecipitationMm, 0.0001)
}

func TestClient_DailyPrecipitation_LengthMismatchTruncates(t *testing.T) {
	srv := serve(t, `{"daily":{"time":["2024-06-01","2024-06-02","2024-06-03"],"precipitation_sum":[1.0,2.0]}}`)

	var logs bytes.Buffer
	c := testClient(srv.URL)
	c.logger = slog.New(slog.NewTextHandler(&logs, nil))

	series, err := c.DailyPrecipitation(context.Background(), pune)
	require.NoError(t, err)
	assert.Len(t, series, 2)
	assert.Contains(t, logs.String(), "length mismatch")
}

func TestClient_DailyPrecipitation_EmptyDaily(t *testing.T) {
	srv := serve(t, `{"daily":{"time":[],"precipitation_sum":[]}}`)

	c := testClient(srv.URL)
	series, err := c.DailyPrecipitation(context.Background(), pune)
	require.NoError(t, err)
	assert.Empty(t, series)
	assert.InDelta(t, 1.0, testutil.ToFloat64(c.metrics.UpstreamRequests.WithLabelValues(service, "empty")), 0.0001)
}

func TestClient_DailyPrecipitation_BadDate(t *testing.T) {
	srv := serve(t, `{"daily":{"time":["June 1st"],"precipitation_sum":[1.0]}}`)

	_, err := testClient(srv.URL).DailyPrecipitation(context.Background(), pune)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "daily.time[0]")
}

func TestClient_DailyPrecipitation_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":true,"reason":"Latitude must be in range of -90 to 90°."}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.DailyPrecipitation(context.Background(), pune)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.InDelta(t, 1.0, testutil.ToFloat64(c.metrics.UpstreamRequests.WithLabelValues(service, "error")), 0.0001)
}

func TestClient_DailyPrecipitation_ContextCancelled(t *testing.T) {
	srv := serve(t, `{"daily":{"time":[],"precipitation_sum":[]}}`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testClient(srv.URL).DailyPrecipitation(ctx, pune)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
