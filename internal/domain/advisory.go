package domain

// Advisory texts, one per rainfall band plus the wind advisory.
const (
	AdviceIrrigate     = "Very little rain expected: plan irrigation for sown fields."
	AdvicePrepareSoil  = "Light to moderate rain expected: a good window for soil preparation and tilling."
	AdvicePlant        = "Steady rain expected: conditions favour planting and transplanting."
	AdviceWaterlogging = "Heavy rain expected: delay sowing and clear drainage to avoid waterlogging."
	AdviceWind         = "Strong winds expected: postpone spraying and secure young plants."
)

// Band limits in millimetres per day and km/h.
const (
	irrigationCeilingMm = 0.5
	soilPrepCeilingMm   = 15
	plantingCeilingMm   = 30
	windLimitKmh        = 20
)

// Advisories derives farming guidance from the view model. At most one
// rainfall advisory is returned, followed by the wind advisory when it applies.
func (vm ForecastViewModel) Advisories() []string {
	return DeriveAdvisories(vm.Precipitation, vm.Current.WindSpeedKmh)
}

// DeriveAdvisories is the pure form of [ForecastViewModel.Advisories].
func DeriveAdvisories(series PrecipitationSeries, windSpeedKmh float64) []string {
	advice := make([]string, 0, 2)
	if mean, ok := series.Mean(); ok {
		advice = append(advice, rainfallAdvice(mean))
	}
	if windSpeedKmh > windLimitKmh {
		advice = append(advice, AdviceWind)
	}
	return advice
}

func rainfallAdvice(meanMm float64) string {
	switch {
	case meanMm < irrigationCeilingMm:
		return AdviceIrrigate
	case meanMm < soilPrepCeilingMm:
		return AdvicePrepareSoil
	case meanMm <= plantingCeilingMm:
		return AdvicePlant
	default:
		return AdviceWaterlogging
	}
}
