// Package metrics provides observability for the resolve module.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the resolve module's Prometheus metrics. Methods are nil-safe
// so tests can pass a nil receiver.
type Metrics struct {
	Outcomes        *prometheus.CounterVec
	ResolveLatency  prometheus.Histogram
	CandidatesFound prometheus.Histogram
}

// New creates and registers all resolve metrics.
func New() *Metrics {
	return &Metrics{
		Outcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "trapper_resolve_outcomes_total",
			Help: "Resolution outcomes by terminal outcome and source system",
		}, []string{"outcome", "source"}),

		ResolveLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "trapper_resolve_duration_seconds",
			Help:    "Duration of full resolution including gate, scoring, and persistence",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),

		CandidatesFound: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "trapper_resolve_candidates",
			Help:    "Number of scored candidates per resolution that reached the scorer",
			Buckets: []float64{0, 1, 2, 3, 5, 10, 25},
		}),
	}
}

// IncrementOutcome records a terminal outcome.
func (m *Metrics) IncrementOutcome(outcome, source string) {
	if m != nil {
		m.Outcomes.WithLabelValues(outcome, source).Inc()
	}
}

// ObserveResolveLatency records the total resolution duration.
func (m *Metrics) ObserveResolveLatency(d time.Duration) {
	if m != nil {
		m.ResolveLatency.Observe(d.Seconds())
	}
}

// ObserveCandidates records how many candidates the scorer produced.
func (m *Metrics) ObserveCandidates(n int) {
	if m != nil {
		m.CandidatesFound.Observe(float64(n))
	}
}
