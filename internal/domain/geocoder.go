package domain

import "context"

// Geocoder resolves a free-text place name to coordinates.
type Geocoder interface {
	// Geocode returns the best match for query, or an error wrapping
	// ErrGeocodeNotFound when the provider has no match.
	Geocode(ctx context.Context, query string) (GeoCoordinate, error)
}

// ConditionsSource fetches instantaneous weather at a coordinate.
type ConditionsSource interface {
	CurrentConditions(ctx context.Context, coord GeoCoordinate) (CurrentConditions, error)
}

// PrecipitationSource fetches a daily precipitation series at a coordinate.
type PrecipitationSource interface {
	DailyPrecipitation(ctx context.Context, coord GeoCoordinate) (PrecipitationSeries, error)
}
