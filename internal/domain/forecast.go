package domain

import (
	"encoding/json"
	"time"
)

// GeoCoordinate is a WGS-84 latitude/longitude pair resolved from a search.
type GeoCoordinate struct {
	Latitude  float64
	Longitude float64
}

// CurrentConditions describes the weather at the searched location right now.
type CurrentConditions struct {
	LocationName string        `json:"location_name"`
	TemperatureC float64       `json:"temperature_c"`
	HumidityPct  int           `json:"humidity_pct"`
	WindSpeedKmh float64       `json:"wind_speed_kmh"`
	Condition    ConditionCode `json:"condition"`
	Description  string        `json:"description"`
}

// PrecipitationDay is one calendar day of forecast rainfall.
type PrecipitationDay struct {
	Date            time.Time `json:"date"`
	PrecipitationMm float64   `json:"precipitation_mm"`
}

// MarshalJSON renders the date as YYYY-MM-DD.
func (d PrecipitationDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Date            string  `json:"date"`
		PrecipitationMm float64 `json:"precipitation_mm"`
	}{
		Date:            d.Date.Format(time.DateOnly),
		PrecipitationMm: d.PrecipitationMm,
	})
}

// PrecipitationSeries is a chronologically ordered run of daily rainfall totals.
type PrecipitationSeries []PrecipitationDay

// ZipPrecipitation pairs dates with amounts index by index. When the two
// sequences differ in length only the common prefix is kept and truncated
// reports true.
func ZipPrecipitation(dates []time.Time, amounts []float64) (series PrecipitationSeries, truncated bool) {
	n := min(len(dates), len(amounts))
	series = make(PrecipitationSeries, n)
	for i := range n {
		series[i] = PrecipitationDay{Date: dates[i], PrecipitationMm: amounts[i]}
	}
	return series, len(dates) != len(amounts)
}

// Total returns the summed rainfall of the series.
func (s PrecipitationSeries) Total() float64 {
	var sum float64
	for _, d := range s {
		sum += d.PrecipitationMm
	}
	return sum
}

// Mean returns the average daily rainfall and false for an empty series.
func (s PrecipitationSeries) Mean() (float64, bool) {
	if len(s) == 0 {
		return 0, false
	}
	return s.Total() / float64(len(s)), true
}

// ForecastViewModel is everything the presentation layer renders for a
// successful search.
type ForecastViewModel struct {
	Current       CurrentConditions
	Precipitation PrecipitationSeries
}

// BuildViewModel combines the two forecast legs into a view model. It copies
// the series so later changes to the caller's slice are not observed.
func BuildViewModel(current CurrentConditions, series PrecipitationSeries) ForecastViewModel {
	days := make(PrecipitationSeries, len(series))
	copy(days, series)
	return ForecastViewModel{
		Current:       current,
		Precipitation: days,
	}
}

// MeanPrecipitation returns the mean daily rainfall, false when there are no days.
func (vm ForecastViewModel) MeanPrecipitation() (float64, bool) {
	return vm.Precipitation.Mean()
}

// MarshalJSON includes the derived advisories next to the raw fields.
func (vm ForecastViewModel) MarshalJSON() ([]byte, error) {
	type view struct {
		Current       CurrentConditions   `json:"current"`
		Precipitation PrecipitationSeries `json:"precipitation"`
		Advisories    []string            `json:"advisories"`
	}
	days := vm.Precipitation
	if days == nil {
		days = PrecipitationSeries{}
	}
	return json.Marshal(view{
		Current:       vm.Current,
		Precipitation: days,
		Advisories:    vm.Advisories(),
	})
}
