// Package ratelimit wraps upstream sources with a shared token-bucket limiter
// so a burst of searches cannot exceed the providers' request quotas.
package ratelimit

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/couchcryptid/rainfall-outlook/internal/domain"
)

// NewLimiter returns a limiter allowing rps requests per second with the given
// burst, or nil when rps is zero (limiting disabled).
func NewLimiter(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

func wait(ctx context.Context, limiter *rate.Limiter) error {
	if limiter == nil {
		return nil
	}
	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait canceled: %w", err)
	}
	return nil
}

// Geocoder wraps a domain.Geocoder with rate limiting.
type Geocoder struct {
	inner   domain.Geocoder
	limiter *rate.Limiter
}

// NewGeocoder creates a rate limited geocoder. A nil limiter passes calls straight through.
func NewGeocoder(inner domain.Geocoder, limiter *rate.Limiter) *Geocoder {
	return &Geocoder{inner: inner, limiter: limiter}
}

func (g *Geocoder) Geocode(ctx context.Context, query string) (domain.GeoCoordinate, error) {
	if err := wait(ctx, g.limiter); err != nil {
		return domain.GeoCoordinate{}, err
	}
	return g.inner.Geocode(ctx, query)
}

// ConditionsSource wraps a domain.ConditionsSource with rate limiting.
type ConditionsSource struct {
	inner   domain.ConditionsSource
	limiter *rate.Limiter
}

// NewConditionsSource creates a rate limited conditions source.
func NewConditionsSource(inner domain.ConditionsSource, limiter *rate.Limiter) *ConditionsSource {
	return &ConditionsSource{inner: inner, limiter: limiter}
}

func (s *ConditionsSource) CurrentConditions(ctx context.Context, coord domain.GeoCoordinate) (domain.CurrentConditions, error) {
	if err := wait(ctx, s.limiter); err != nil {
		return domain.CurrentConditions{}, err
	}
	return s.inner.CurrentConditions(ctx, coord)
}

// PrecipitationSource wraps a domain.PrecipitationSource with rate limiting.
type PrecipitationSource struct {
	inner   domain.PrecipitationSource
	limiter *rate.Limiter
}

// NewPrecipitationSource creates a rate limited precipitation source.
func NewPrecipitationSource(inner domain.PrecipitationSource, limiter *rate.Limiter) *PrecipitationSource {
	return &PrecipitationSource{inner: inner, limiter: limiter}
}

func (s *PrecipitationSource) DailyPrecipitation(ctx context.Context, coord domain.GeoCoordinate) (domain.PrecipitationSeries, error) {
	if err := wait(ctx, s.limiter); err != nil {
		return nil, err
	}
	return s.inner.DailyPrecipitation(ctx, coord)
}
