// Package stream defines the pull-based contracts that pacing stages are
// written against, and the channel plumbing that chains stages into a
// pipeline.
//
// A stage is a function over two endpoints: a Receiver it pulls upstream
// elements from, and an Emitter it forwards elements to. Both operations are
// suspension points: Recv blocks until upstream produces or ends, and Emit
// blocks until downstream accepts. Stages run synchronously and preserve
// arrival order; any concurrency comes from the pipeline runner placing each
// stage on its own goroutine with a channel between neighbours.
//
// Stages carry a completion value so that stages with different result types
// can still be sequenced: DropResult erases the value, Then runs two stages
// back to back over the same endpoints.
package stream
