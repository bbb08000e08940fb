package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Geocoding providers.
const (
	GeocoderOpenWeather = "openweather"
	GeocoderMapbox      = "mapbox"
)

// Trigger modes.
const (
	TriggerSubmit = "submit"
	TriggerChange = "change"
)

// Config holds all dashboard settings, populated from environment variables.
type Config struct {
	OpenWeatherAPIKey  string
	OpenWeatherBaseURL string
	OpenMeteoBaseURL   string
	ForecastDays       int

	// Geocoding provider and Mapbox credentials.
	Geocoder    string
	MapboxToken string

	UpstreamTimeout time.Duration
	UpstreamRPS     float64
	UpstreamBurst   int

	TriggerMode   string
	QueryDebounce time.Duration
	RunTimeout    time.Duration

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Outcome publishing; disabled when KafkaBrokers is empty.
	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	upstreamTimeout, err := parseDuration("UPSTREAM_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	if upstreamTimeout <= 0 {
		return nil, errors.New("invalid UPSTREAM_TIMEOUT: must be positive")
	}

	debounce, err := parseDuration("QUERY_DEBOUNCE", "0s")
	if err != nil {
		return nil, err
	}

	runTimeout, err := parseDuration("RUN_TIMEOUT", "0s")
	if err != nil {
		return nil, err
	}

	forecastDays, err := parseInt("FORECAST_DAYS", 7)
	if err != nil {
		return nil, err
	}
	if forecastDays < 1 || forecastDays > 16 {
		return nil, fmt.Errorf("invalid FORECAST_DAYS: %d (must be 1-16)", forecastDays)
	}

	rps, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("UPSTREAM_RPS", "5"), 64)
	if err != nil || rps < 0 {
		return nil, errors.New("invalid UPSTREAM_RPS")
	}

	burst, err := parseInt("UPSTREAM_BURST", 5)
	if err != nil {
		return nil, err
	}
	if burst < 1 {
		return nil, errors.New("invalid UPSTREAM_BURST: must be at least 1")
	}

	cfg := &Config{
		OpenWeatherAPIKey:  os.Getenv("OPENWEATHER_API_KEY"),
		OpenWeatherBaseURL: strings.TrimRight(sharedcfg.EnvOrDefault("OPENWEATHER_BASE_URL", "https://api.openweathermap.org"), "/"),
		OpenMeteoBaseURL:   strings.TrimRight(sharedcfg.EnvOrDefault("OPENMETEO_BASE_URL", "https://api.open-meteo.com"), "/"),
		ForecastDays:       forecastDays,

		Geocoder:    strings.ToLower(sharedcfg.EnvOrDefault("GEOCODER", GeocoderOpenWeather)),
		MapboxToken: os.Getenv("MAPBOX_TOKEN"),

		UpstreamTimeout: upstreamTimeout,
		UpstreamRPS:     rps,
		UpstreamBurst:   burst,

		TriggerMode:   strings.ToLower(sharedcfg.EnvOrDefault("TRIGGER_MODE", TriggerSubmit)),
		QueryDebounce: debounce,
		RunTimeout:    runTimeout,

		HTTPAddr:        os.Getenv("HTTP_ADDR"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		KafkaBrokers: parseBrokers(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_OUTLOOK_TOPIC", "rainfall-outlooks"),
	}

	if cfg.OpenWeatherAPIKey == "" {
		return nil, errors.New("OPENWEATHER_API_KEY is required")
	}
	switch cfg.Geocoder {
	case GeocoderOpenWeather:
	case GeocoderMapbox:
		if cfg.MapboxToken == "" {
			return nil, errors.New("GEOCODER is mapbox but MAPBOX_TOKEN is not set")
		}
	default:
		return nil, fmt.Errorf("invalid GEOCODER: %q (want %s or %s)", cfg.Geocoder, GeocoderOpenWeather, GeocoderMapbox)
	}
	if err := ValidateTriggerMode(cfg.TriggerMode); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ValidateTriggerMode rejects anything but submit or change.
func ValidateTriggerMode(mode string) error {
	if mode != TriggerSubmit && mode != TriggerChange {
		return fmt.Errorf("invalid TRIGGER_MODE: %q (want %s or %s)", mode, TriggerSubmit, TriggerChange)
	}
	return nil
}

// KafkaEnabled reports whether outcome publishing is configured.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func parseBrokers(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return sharedcfg.ParseBrokers(s)
}

func parseDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, fallback))
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseInt(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
