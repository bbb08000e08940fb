package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"
	"sync"

	"github.com/couchcryptid/rainfall-outlook/internal/domain"
)

const (
	outputText = "text"
	outputJSON = "json"

	barWidth = 24
)

var conditionIcons = map[domain.ConditionCode]string{
	domain.ConditionClear:   "☀️",
	domain.ConditionClouds:  "☁️",
	domain.ConditionDrizzle: "🌦️",
	domain.ConditionMist:    "🌫️",
	domain.ConditionRain:    "🌧️",
	domain.ConditionSnow:    "❄️",
	domain.ConditionOther:   "🌡️",
}

func conditionIcon(c domain.ConditionCode) string {
	if icon, ok := conditionIcons[c]; ok {
		return icon
	}
	return conditionIcons[domain.ConditionOther]
}

// renderer writes request states to a terminal. It is safe for concurrent use
// because states arrive from run goroutines while the prompt loop also writes.
type renderer struct {
	mu     sync.Mutex
	w      io.Writer
	format string
}

func newRenderer(w io.Writer, format string) (*renderer, error) {
	switch format {
	case outputText, outputJSON:
	default:
		return nil, fmt.Errorf("unknown output format %q (want text or json)", format)
	}
	return &renderer{w: w, format: format}, nil
}

// Render draws s. Idle states draw nothing.
func (r *renderer) Render(s domain.RequestState) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.format == outputJSON {
		r.renderJSON(s)
		return
	}

	switch s.Phase() {
	case domain.PhaseIdle:
	case domain.PhaseLoading:
		fmt.Fprintf(r.w, "Fetching the outlook for %s...\n", s.Query())
	case domain.PhaseFailed:
		fmt.Fprintf(r.w, "✗ %s\n", s.Err().Error())
	case domain.PhaseReady:
		vm, _ := s.Forecast()
		r.renderForecast(vm)
	}
}

// RenderError reports an input error that never reached the controller.
func (r *renderer) RenderError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.format == outputJSON {
		json.NewEncoder(r.w).Encode(map[string]string{"error": err.Error()}) //nolint:errcheck // terminal output
		return
	}
	fmt.Fprintf(r.w, "✗ %s\n", err.Error())
}

func (r *renderer) renderJSON(s domain.RequestState) {
	if s.Phase() == domain.PhaseIdle {
		return
	}
	json.NewEncoder(r.w).Encode(s) //nolint:errcheck // terminal output
}

func (r *renderer) renderForecast(vm domain.ForecastViewModel) {
	cur := vm.Current
	fmt.Fprintf(r.w, "\n%s  %s, %s\n", conditionIcon(cur.Condition), cur.LocationName, cur.Description)
	fmt.Fprintln(r.w, strings.Repeat("=", 48))
	fmt.Fprintf(r.w, "Temperature: %.1f°C   Humidity: %d%%   Wind: %.1f km/h\n",
		cur.TemperatureC, cur.HumidityPct, cur.WindSpeedKmh)

	fmt.Fprintln(r.w, "\nDaily rainfall (mm)")
	if len(vm.Precipitation) == 0 {
		fmt.Fprintln(r.w, "  no forecast days returned")
	}
	peak := 0.0
	for _, d := range vm.Precipitation {
		peak = math.Max(peak, d.PrecipitationMm)
	}
	for _, d := range vm.Precipitation {
		fmt.Fprintf(r.w, "  %s %6.1f %s\n", d.Date.Format("Mon 02 Jan"), d.PrecipitationMm, bar(d.PrecipitationMm, peak))
	}
	if mean, ok := vm.MeanPrecipitation(); ok {
		fmt.Fprintf(r.w, "  mean %.1f mm/day, total %.1f mm\n", mean, vm.Precipitation.Total())
	}

	if advice := vm.Advisories(); len(advice) > 0 {
		fmt.Fprintln(r.w, "\nAdvisories")
		for _, a := range advice {
			fmt.Fprintf(r.w, "  • %s\n", a)
		}
	}
	fmt.Fprintln(r.w)
}

func bar(v, peak float64) string {
	if peak <= 0 || v <= 0 {
		return ""
	}
	n := int(math.Round(v / peak * barWidth))
	return strings.Repeat("█", max(n, 1))
}
