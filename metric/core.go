package metric

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains all platform-level metrics (not stage-specific)
type Metrics struct {
	// Service metrics
	ServiceStatus    *prometheus.GaugeVec
	ElementsReceived *prometheus.CounterVec
	ElementsEmitted  *prometheus.CounterVec
	ErrorsTotal      *prometheus.CounterVec

	// NATS metrics
	NATSConnected  prometheus.Gauge
	NATSReconnects prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all platform metrics
func NewMetrics() *Metrics {
	return &Metrics{
		ServiceStatus: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "streampace",
				Subsystem: "service",
				Name:      "status",
				Help:      "Service status (0=stopped, 1=starting, 2=running, 3=stopping, 4=failed)",
			},
			[]string{"service"},
		),

		ElementsReceived: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "streampace",
				Subsystem: "elements",
				Name:      "received_total",
				Help:      "Total number of elements received from sources",
			},
			[]string{"service"},
		),

		ElementsEmitted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "streampace",
				Subsystem: "elements",
				Name:      "emitted_total",
				Help:      "Total number of elements delivered to sinks",
			},
			[]string{"service", "sink"},
		),

		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "streampace",
				Subsystem: "errors",
				Name:      "total",
				Help:      "Total number of errors",
			},
			[]string{"service", "type"},
		),

		NATSConnected: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "streampace",
				Subsystem: "nats",
				Name:      "connected",
				Help:      "NATS connection status (0=disconnected, 1=connected)",
			},
		),

		NATSReconnects: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "streampace",
				Subsystem: "nats",
				Name:      "reconnects_total",
				Help:      "Total number of NATS reconnections",
			},
		),
	}
}

// collectors returns every core metric for bulk registration.
func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.ServiceStatus,
		m.ElementsReceived,
		m.ElementsEmitted,
		m.ErrorsTotal,
		m.NATSConnected,
		m.NATSReconnects,
	}
}
