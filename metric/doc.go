// Package metric provides Prometheus metrics infrastructure for StreamPace:
// a private registry carrying the core platform metrics, per-service
// registration of domain metrics, and an HTTP server exposing /metrics and
// /health.
//
// Core platform metrics cover service status, element throughput, error
// counts, and NATS connection health. Packages with domain-specific metrics
// (pace, output/natspub, output/websocket) register their collectors through
// the MetricsRegistrar interface so the whole process scrapes from a single
// endpoint.
package metric
