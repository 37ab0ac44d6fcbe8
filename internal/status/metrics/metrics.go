// Package metrics provides observability for the status module.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the status module's Prometheus metrics. Methods are nil-safe
// so tests can pass a nil receiver.
type Metrics struct {
	PlacesEvaluated  prometheus.Counter
	Transitions      *prometheus.CounterVec
	PropagateLatency prometheus.Histogram
}

// New creates and registers all status metrics.
func New() *Metrics {
	return &Metrics{
		PlacesEvaluated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "trapper_status_places_evaluated_total",
			Help: "Places evaluated by the status propagator",
		}),

		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "trapper_status_transitions_total",
			Help: "Status state transitions by condition and resulting state",
		}, []string{"condition", "state"}),

		PropagateLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "trapper_status_propagate_duration_seconds",
			Help:    "Duration of full propagator runs",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
		}),
	}
}

// IncrementPlacesEvaluated counts one evaluated place.
func (m *Metrics) IncrementPlacesEvaluated() {
	if m != nil {
		m.PlacesEvaluated.Inc()
	}
}

// IncrementTransition records a state transition.
func (m *Metrics) IncrementTransition(condition, state string) {
	if m != nil {
		m.Transitions.WithLabelValues(condition, state).Inc()
	}
}

// ObservePropagateLatency records the total run duration.
func (m *Metrics) ObservePropagateLatency(d time.Duration) {
	if m != nil {
		m.PropagateLatency.Observe(d.Seconds())
	}
}
