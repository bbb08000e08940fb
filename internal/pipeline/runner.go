package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/rainfall-outlook/internal/domain"
)

// Runner executes one search end to end: geocode, fetch both forecast legs,
// build the view model.
type Runner struct {
	resolver *Resolver
	fetcher  *Fetcher
	logger   *slog.Logger
}

// NewRunner wires a Runner from the three upstream sources.
func NewRunner(geocoder domain.Geocoder, conditions domain.ConditionsSource, precipitation domain.PrecipitationSource, logger *slog.Logger) *Runner {
	return &Runner{
		resolver: NewResolver(geocoder, logger),
		fetcher:  NewFetcher(conditions, precipitation, logger),
		logger:   logger,
	}
}

// Run resolves query and returns its view model. Errors are *domain.Error.
func (r *Runner) Run(ctx context.Context, query string) (domain.ForecastViewModel, error) {
	coord, err := r.resolver.Resolve(ctx, query)
	if err != nil {
		return domain.ForecastViewModel{}, err
	}

	current, series, err := r.fetcher.Fetch(ctx, coord)
	if err != nil {
		return domain.ForecastViewModel{}, err
	}

	r.logger.Debug("forecast fetched", "query", query, "days", len(series), "condition", current.Condition)
	return domain.BuildViewModel(current, series), nil
}
