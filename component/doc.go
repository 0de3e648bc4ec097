// Package component defines the lifecycle and discovery contracts shared by
// every replay component: sources, sinks, and the replayer service itself.
//
// Components follow the unified lifecycle pattern:
//
//	Initialize() error                  // setup/create only, no context
//	Start(ctx context.Context) error    // start with context passed through
//	Stop(timeout time.Duration) error   // graceful shutdown with deadline
//
// Components never store the context they are started with; the owner of the
// component creates a child context per component and cancels it to force
// individual shutdown.
//
// Dependencies carries the process-wide collaborators (NATS client, metrics
// registry, logger) into component constructors, so components stay
// constructible in isolation for tests.
package component
