package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func seriesOf(amounts ...float64) PrecipitationSeries {
	start := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	s := make(PrecipitationSeries, len(amounts))
	for i, mm := range amounts {
		s[i] = PrecipitationDay{Date: start.AddDate(0, 0, i), PrecipitationMm: mm}
	}
	return s
}

func TestDeriveAdvisories_RainfallBands(t *testing.T) {
	cases := []struct {
		name    string
		amounts []float64
		want    string
	}{
		{name: "dry", amounts: []float64{0, 0, 0}, want: AdviceIrrigate},
		{name: "light", amounts: []float64{5, 10, 8}, want: AdvicePrepareSoil},
		{name: "steady", amounts: []float64{20, 25, 18}, want: AdvicePlant},
		{name: "heavy", amounts: []float64{40, 35, 50}, want: AdviceWaterlogging},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := DeriveAdvisories(seriesOf(tc.amounts...), 5)
			assert.Equal(t, []string{tc.want}, got)
		})
	}
}

func TestDeriveAdvisories_BandEdges(t *testing.T) {
	assert.Equal(t, []string{AdviceIrrigate}, DeriveAdvisories(seriesOf(0.49), 0))
	assert.Equal(t, []string{AdvicePrepareSoil}, DeriveAdvisories(seriesOf(0.5), 0))
	assert.Equal(t, []string{AdvicePlant}, DeriveAdvisories(seriesOf(15), 0))
	assert.Equal(t, []string{AdvicePlant}, DeriveAdvisories(seriesOf(30), 0))
	assert.Equal(t, []string{AdviceWaterlogging}, DeriveAdvisories(seriesOf(30.01), 0))
}

func TestDeriveAdvisories_WindIsIndependent(t *testing.T) {
	got := DeriveAdvisories(seriesOf(20, 25, 18), 25)
	assert.Equal(t, []string{AdvicePlant, AdviceWind}, got)

	// 20 km/h is not strictly above the limit.
	got = DeriveAdvisories(seriesOf(0, 0, 0), 20)
	assert.Equal(t, []string{AdviceIrrigate}, got)
}

func TestDeriveAdvisories_EmptySeries(t *testing.T) {
	assert.Empty(t, DeriveAdvisories(nil, 3))
	assert.Equal(t, []string{AdviceWind}, DeriveAdvisories(PrecipitationSeries{}, 25))
}

func TestForecastViewModel_AdvisoriesArePure(t *testing.T) {
	vm := BuildViewModel(CurrentConditions{WindSpeedKmh: 30}, seriesOf(40, 35, 50))

	first := vm.Advisories()
	second := vm.Advisories()
	assert.Equal(t, first, second)
	assert.Equal(t, []string{AdviceWaterlogging, AdviceWind}, first)

	mean, ok := vm.MeanPrecipitation()
	assert.True(t, ok)
	assert.InDelta(t, 41.67, mean, 0.01)
}
