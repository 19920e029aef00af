package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for dataset fetches and view state.
type Metrics struct {
	Fetches        *prometheus.CounterVec   // labels: kind, outcome={success,error,timeout}
	FetchDuration  *prometheus.HistogramVec // labels: kind
	Points         *prometheus.GaugeVec     // labels: kind
	SkippedRecords *prometheus.CounterVec   // labels: kind
	StaleResponses *prometheus.CounterVec   // labels: kind
	Renders        *prometheus.CounterVec   // labels: kind
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.Fetches,
		m.FetchDuration,
		m.Points,
		m.SkippedRecords,
		m.StaleResponses,
		m.Renders,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics so tests can build as
// many controllers as they like without "already registered" panics.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		Fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hazard_map",
			Name:      "fetches_total",
			Help:      "Dataset fetches by kind and outcome.",
		}, []string{"kind", "outcome"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "hazard_map",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of a provider fetch including normalization.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"kind"}),
		Points: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "hazard_map",
			Name:      "points",
			Help:      "Points currently held for each dataset kind.",
		}, []string{"kind"}),
		SkippedRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hazard_map",
			Name:      "skipped_records_total",
			Help:      "Provider records dropped by per-record validation.",
		}, []string{"kind"}),
		StaleResponses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hazard_map",
			Name:      "stale_responses_total",
			Help:      "Fetch results discarded because a newer fetch was started.",
		}, []string{"kind"}),
		Renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hazard_map",
			Name:      "renders_total",
			Help:      "Marker layer renders by kind.",
		}, []string{"kind"}),
	}
}
