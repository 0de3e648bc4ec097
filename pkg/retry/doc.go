// Package retry provides exponential backoff retry for operations against
// external systems, classification-aware: errors classified as invalid or
// fatal by the errors package fail immediately, only transient failures are
// retried.
//
// Jitter is added by default so many instances recovering from the same
// broker outage do not reconnect in lockstep.
package retry
