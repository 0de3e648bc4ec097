// Package testutil provides test doubles for the pacing core: a virtual
// clock that records every sleep without real waiting, a fixed-sequence
// random source, and channel-free stream endpoints backed by slices.
//
// Nothing in this package touches the network or the real clock, so tests
// built on it are fully deterministic.
package testutil
