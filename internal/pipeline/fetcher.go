package pipeline

import (
	"context"
	"log/slog"
	"sync"

	"github.com/couchcryptid/rainfall-outlook/internal/domain"
)

// Fetcher retrieves both forecast legs for a coordinate.
type Fetcher struct {
	conditions    domain.ConditionsSource
	precipitation domain.PrecipitationSource
	logger        *slog.Logger
}

// NewFetcher creates a Fetcher over the two upstream sources.
func NewFetcher(conditions domain.ConditionsSource, precipitation domain.PrecipitationSource, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		conditions:    conditions,
		precipitation: precipitation,
		logger:        logger,
	}
}

// Fetch issues the conditions and precipitation requests concurrently and
// waits for both. The first leg to fail cancels the other, and the returned
// *domain.Error names that leg. No partial result is returned.
func (f *Fetcher) Fetch(ctx context.Context, coord domain.GeoCoordinate) (domain.CurrentConditions, domain.PrecipitationSeries, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg      sync.WaitGroup
		once    sync.Once
		failure *domain.Error
		current domain.CurrentConditions
		series  domain.PrecipitationSeries
	)

	fail := func(leg domain.Leg, err error) {
		once.Do(func() {
			failure = domain.NewLegError(leg, err)
			cancel()
		})
	}

	wg.Add(2)
	go func() {
		defer wg.Done()
		c, err := f.conditions.CurrentConditions(ctx, coord)
		if err != nil {
			fail(domain.LegConditions, err)
			return
		}
		current = c
	}()
	go func() {
		defer wg.Done()
		s, err := f.precipitation.DailyPrecipitation(ctx, coord)
		if err != nil {
			fail(domain.LegPrecipitation, err)
			return
		}
		series = s
	}()
	wg.Wait()

	if failure != nil {
		f.logger.Warn("forecast leg failed", "leg", failure.Leg, "error", failure.Err)
		return domain.CurrentConditions{}, nil, failure
	}
	return current, series, nil
}
