// Package natsclient provides a managed NATS connection for replay sinks:
// connection lifecycle with automatic reconnection, status tracking wired
// into Prometheus, and publish helpers for both core NATS and JetStream.
//
// The client is deliberately publish-oriented. Replay pushes paced elements
// out to subjects; nothing in this module consumes from NATS.
package natsclient
