// Package domain models the rainfall outlook: the view model a dashboard
// renders, the request lifecycle state and the error kinds a search can end in.
//
// # Data Sources
//
// Three upstream services feed one search:
//
//	Geocoding       free-text place name → latitude/longitude, first match only.
//	Current weather instantaneous conditions at a coordinate, metric units.
//	Daily forecast  per-day precipitation totals at a coordinate.
//
// The adapters under internal/adapter decode each service into the types of
// this package, so nothing outside an adapter handles raw upstream JSON.
//
// # Units
//
//	Temperature: degrees Celsius.
//	Wind speed:  kilometres per hour. OpenWeather reports m/s in metric mode;
//	             the adapter multiplies by 3.6.
//	Rainfall:    millimetres per calendar day. A missing daily value is 0 mm.
//
// # Condition Codes
//
// Upstream condition groups are folded onto a closed set:
//
//	Clear, Clouds, Drizzle, Mist, Rain, Snow, Other
//
// "Fog" and "Haze" fold into Mist, "Thunderstorm" into Rain. Anything else is
// Other; an unknown group is never an error.
//
// # Advisories
//
// Farming guidance is derived from the arithmetic mean of the precipitation
// series:
//
//	mean <  0.5 mm        irrigation
//	0.5 ≤ mean < 15 mm    soil preparation
//	15 ≤ mean ≤ 30 mm     planting favourable
//	mean > 30 mm          delay for waterlogging
//
// An empty series yields no rainfall advisory. Wind strictly above 20 km/h adds
// a wind advisory regardless of rainfall band. See [ForecastViewModel.Advisories].
//
// # Request Lifecycle
//
// [RequestState] is a tagged variant over idle, loading, ready and failed.
// Only its constructors can build one, so a ready payload and a failure can
// never coexist. Runs are numbered; the controller in internal/pipeline drops
// any outcome whose run number is no longer the latest.
package domain
