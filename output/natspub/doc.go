// Package natspub provides the NATS sink: paced events are marshalled to the
// canonical wire format and published to a configured subject.
//
// Core NATS publish is fire-and-forget and suits live replay where a slow
// consumer should not stall the pacing clock. JetStream mode publishes with
// acknowledgement into a stream so replayed traffic survives consumer
// downtime; when a stream name is configured the sink creates or binds the
// stream during Initialize.
package natspub
