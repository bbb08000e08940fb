package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	httpadapter "github.com/couchcryptid/rainfall-outlook/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/rainfall-outlook/internal/adapter/kafka"
	"github.com/couchcryptid/rainfall-outlook/internal/adapter/mapbox"
	"github.com/couchcryptid/rainfall-outlook/internal/adapter/openmeteo"
	"github.com/couchcryptid/rainfall-outlook/internal/adapter/openweather"
	"github.com/couchcryptid/rainfall-outlook/internal/adapter/ratelimit"
	"github.com/couchcryptid/rainfall-outlook/internal/config"
	"github.com/couchcryptid/rainfall-outlook/internal/domain"
	"github.com/couchcryptid/rainfall-outlook/internal/observability"
	"github.com/couchcryptid/rainfall-outlook/internal/pipeline"
)

// errSearchFailed signals a failed one-shot search; the renderer has already
// reported the reason.
var errSearchFailed = errors.New("search failed")

type globalOptions struct {
	envFile string
	trigger string
	output  string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errSearchFailed) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:           "outlook",
		Short:         "Rainfall outlook and farming guidance for a city",
		Long:          "Geocodes a city, fetches current conditions and the daily rainfall forecast, and derives farming advisories.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	root.PersistentFlags().StringVar(&opts.trigger, "trigger", "", "run trigger: submit or change (overrides TRIGGER_MODE)")
	root.PersistentFlags().StringVarP(&opts.output, "output", "o", outputText, "output format (text, json)")

	root.AddCommand(newWatchCmd(opts), newGetCmd(opts))
	return root
}

func newWatchCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Interactive dashboard: read city names from stdin and render every state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := newRenderer(cmd.OutOrStdout(), opts.output)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			a.controller.Subscribe(r.Render)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a.startServer()
			if opts.output == outputText {
				fmt.Fprintln(cmd.OutOrStdout(), "Enter a city name (Ctrl-D to quit):")
			}
			a.watch(ctx, cmd.InOrStdin(), r)
			a.shutdown()
			return nil
		},
	}
}

func newGetCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <city>",
		Short: "Fetch the outlook for one city and exit",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := newRenderer(cmd.OutOrStdout(), opts.output)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer a.shutdown()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := a.controller.Submit(ctx, strings.Join(args, " ")); err != nil {
				r.RenderError(err)
				return errSearchFailed
			}
			a.controller.Wait()

			state := a.controller.State()
			r.Render(state)
			if state.Phase() != domain.PhaseReady {
				return errSearchFailed
			}
			return nil
		},
	}
}

// loadConfig reads the optional dotenv file, then the environment.
func loadConfig(opts *globalOptions) (*config.Config, error) {
	if opts.envFile != "" {
		if err := godotenv.Load(opts.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", opts.envFile, err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if opts.trigger != "" {
		if err := config.ValidateTriggerMode(opts.trigger); err != nil {
			return nil, err
		}
		cfg.TriggerMode = opts.trigger
	}
	return cfg, nil
}

// app holds the wired components of one dashboard session.
type app struct {
	cfg        *config.Config
	logger     *slog.Logger
	trigger    pipeline.TriggerPolicy
	controller *pipeline.Controller
	server     *httpadapter.Server
	publisher  *kafkaadapter.Publisher
}

func newApp(cfg *config.Config) (*app, error) {
	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	trigger, err := pipeline.ParseTriggerPolicy(cfg.TriggerMode)
	if err != nil {
		return nil, err
	}

	weather := openweather.NewClient(cfg.OpenWeatherAPIKey, cfg.OpenWeatherBaseURL, cfg.UpstreamTimeout, metrics, logger)
	precipitation := openmeteo.NewClient(cfg.OpenMeteoBaseURL, cfg.ForecastDays, cfg.UpstreamTimeout, metrics, logger)

	var geocoder domain.Geocoder = weather
	if cfg.Geocoder == config.GeocoderMapbox {
		geocoder = mapbox.NewClient(cfg.MapboxToken, cfg.UpstreamTimeout, metrics, logger)
		logger.Info("mapbox geocoding enabled")
	}

	limiter := ratelimit.NewLimiter(cfg.UpstreamRPS, cfg.UpstreamBurst)
	if limiter == nil {
		logger.Info("upstream rate limiting disabled")
	}

	runner := pipeline.NewRunner(
		ratelimit.NewGeocoder(geocoder, limiter),
		ratelimit.NewConditionsSource(weather, limiter),
		ratelimit.NewPrecipitationSource(precipitation, limiter),
		logger,
	)
	controller := pipeline.NewController(runner, pipeline.Options{
		Trigger:    trigger,
		Debounce:   cfg.QueryDebounce,
		RunTimeout: cfg.RunTimeout,
	}, logger, metrics)

	a := &app{
		cfg:        cfg,
		logger:     logger,
		trigger:    trigger,
		controller: controller,
	}

	if cfg.KafkaEnabled() {
		a.publisher = kafkaadapter.NewPublisher(cfg, logger)
		controller.Subscribe(a.publisher.Observe)
		logger.Info("outcome publishing enabled", "topic", cfg.KafkaTopic, "brokers", cfg.KafkaBrokers)
	}
	if cfg.HTTPAddr != "" {
		a.server = httpadapter.NewServer(cfg.HTTPAddr, controller, logger)
	}

	logger.Info("dashboard configured",
		"geocoder", cfg.Geocoder,
		"trigger", trigger,
		"forecast_days", cfg.ForecastDays,
	)
	return a, nil
}

func (a *app) startServer() {
	if a.server == nil {
		return
	}
	go func() {
		if err := a.server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("http server error", "error", err)
		}
	}()
}

// watch feeds stdin lines to the controller until EOF or ctx is done.
func (a *app) watch(ctx context.Context, in io.Reader, r *renderer) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			a.logger.Error("read input", "error", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("shutting down", "reason", ctx.Err())
			return
		case line, ok := <-lines:
			if !ok {
				// Let a scheduled or running search finish when input is piped.
				a.controller.Wait()
				return
			}
			if a.trigger == pipeline.TriggerOnChange {
				a.controller.QueryChanged(ctx, line)
				continue
			}
			if err := a.controller.Submit(ctx, line); err != nil {
				r.RenderError(err)
			}
		}
	}
}

func (a *app) shutdown() {
	a.controller.Close()

	if a.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancel()
		if err := a.server.Shutdown(ctx); err != nil {
			a.logger.Error("http server shutdown error", "error", err)
		}
	}
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Error("kafka publisher close error", "error", err)
		}
	}
	a.logger.Info("shutdown complete")
}
