package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the outlook pipeline.
type Metrics struct {
	RunsStarted prometheus.Counter
	RunOutcomes *prometheus.CounterVec // labels: outcome={ready,failed,superseded}
	RunDuration prometheus.Histogram

	// Upstream HTTP metrics.
	UpstreamRequests *prometheus.CounterVec   // labels: service={geocode,conditions,precipitation}, outcome={success,error,empty}
	UpstreamDuration *prometheus.HistogramVec // labels: service

	StatePhase *prometheus.GaugeVec // labels: phase; 1 for the current phase
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := NewMetricsForTesting()
	prometheus.MustRegister(
		m.RunsStarted,
		m.RunOutcomes,
		m.RunDuration,
		m.UpstreamRequests,
		m.UpstreamDuration,
		m.StatePhase,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		RunsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rainfall_outlook",
			Name:      "runs_started_total",
			Help:      "Total search runs started.",
		}),
		RunOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rainfall_outlook",
			Name:      "run_outcomes_total",
			Help:      "Search runs by outcome.",
		}, []string{"outcome"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "rainfall_outlook",
			Name:      "run_duration_seconds",
			Help:      "Duration of a search run from submit to terminal state.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rainfall_outlook",
			Name:      "upstream_requests_total",
			Help:      "Upstream API requests by service and outcome.",
		}, []string{"service", "outcome"}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "rainfall_outlook",
			Name:      "upstream_duration_seconds",
			Help:      "Upstream API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"service"}),
		StatePhase: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "rainfall_outlook",
			Name:      "state_phase",
			Help:      "1 for the request phase currently published, 0 for the others.",
		}, []string{"phase"}),
	}
}

// ObserveUpstream records one upstream call.
func (m *Metrics) ObserveUpstream(service, outcome string, seconds float64) {
	m.UpstreamRequests.WithLabelValues(service, outcome).Inc()
	m.UpstreamDuration.WithLabelValues(service).Observe(seconds)
}

// SetPhase marks phase as current in the StatePhase gauge.
func (m *Metrics) SetPhase(phase string) {
	for _, p := range []string{"idle", "loading", "ready", "failed"} {
		v := 0.0
		if p == phase {
			v = 1
		}
		m.StatePhase.WithLabelValues(p).Set(v)
	}
}
