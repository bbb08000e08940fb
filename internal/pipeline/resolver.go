package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/couchcryptid/rainfall-outlook/internal/domain"
)

// Resolver turns a search query into coordinates and classifies geocoding
// failures into domain error kinds.
type Resolver struct {
	geocoder domain.Geocoder
	logger   *slog.Logger
}

// NewResolver creates a Resolver backed by geocoder.
func NewResolver(geocoder domain.Geocoder, logger *slog.Logger) *Resolver {
	return &Resolver{geocoder: geocoder, logger: logger}
}

// Resolve geocodes query. Blank input is rejected without calling the geocoder.
func (r *Resolver) Resolve(ctx context.Context, query string) (domain.GeoCoordinate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return domain.GeoCoordinate{}, domain.NewError(domain.KindEmptyQuery, "", nil)
	}

	coord, err := r.geocoder.Geocode(ctx, query)
	if err != nil {
		if errors.Is(err, domain.ErrGeocodeNotFound) {
			return domain.GeoCoordinate{}, domain.NewError(domain.KindGeocodeNotFound, query, err)
		}
		r.logger.Warn("geocoding failed", "query", query, "error", err)
		return domain.GeoCoordinate{}, domain.NewError(domain.KindNetwork, query, err)
	}
	return coord, nil
}
