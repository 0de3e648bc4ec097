package pace

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/streampace/metric"
)

// Metrics holds Prometheus metrics for pacing stage operations.
type Metrics struct {
	emitted *prometheus.CounterVec // By stage
	dropped *prometheus.CounterVec // By stage
	sleeps  *prometheus.HistogramVec
}

// NewMetrics creates and registers pacing metrics with the provided
// registry. A nil registry disables instrumentation.
func NewMetrics(registry *metric.MetricsRegistry) (*Metrics, error) {
	if registry == nil {
		return nil, nil // Metrics disabled
	}

	m := &Metrics{
		emitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "streampace",
			Subsystem: "pace",
			Name:      "emitted_total",
			Help:      "Total number of elements released downstream",
		}, []string{"stage"}),

		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "streampace",
			Subsystem: "pace",
			Name:      "dropped_total",
			Help:      "Total number of expired elements discarded",
		}, []string{"stage"}),

		sleeps: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "streampace",
			Subsystem: "pace",
			Name:      "sleep_duration_seconds",
			Help:      "Scheduled wait before each release (zero when the deadline already passed)",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 30, 120},
		}, []string{"stage"}),
	}

	if err := registry.RegisterCounterVec("pace", "emitted", m.emitted); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounterVec("pace", "dropped", m.dropped); err != nil {
		return nil, err
	}
	if err := registry.RegisterHistogramVec("pace", "sleep_duration", m.sleeps); err != nil {
		return nil, err
	}

	return m, nil
}

// recordEmit records one element released downstream.
func (m *Metrics) recordEmit(stage string) {
	if m == nil {
		return
	}
	m.emitted.WithLabelValues(stage).Inc()
}

// recordDrop records one expired element discarded.
func (m *Metrics) recordDrop(stage string) {
	if m == nil {
		return
	}
	m.dropped.WithLabelValues(stage).Inc()
}

// recordSleep records the scheduled wait before a release.
func (m *Metrics) recordSleep(stage string, remaining time.Duration) {
	if m == nil {
		return
	}
	if remaining < 0 {
		remaining = 0
	}
	m.sleeps.WithLabelValues(stage).Observe(remaining.Seconds())
}
