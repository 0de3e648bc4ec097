// Package replayer wires a recorded-event source through a pacing stage and
// fans the paced events out to the configured sinks.
//
// # Modes
//
// The pacing stage is selected by configuration:
//
//	timecat   release each event at the absolute time it carries
//	relative  release each event at session start plus its recorded offset
//	steady    release events at a fixed rate, ignoring recorded times
//	poisson   release events at Poisson arrival times at a mean rate
//	schedule  release events against an explicit list of offsets
//
// Recordings usually carry timestamps from the past, so timecat mode with
// rebasing enabled rewrites each event's time to session start plus its
// recorded offset before pacing. Without rebasing, past deadlines release
// immediately, which is the right behavior when replaying into a window that
// overlaps the recording.
//
// Skip-expired mode prepends a stage that discards events whose rebased time
// has already passed before normal pacing takes over. The handoff consumes
// one fresh event without emitting it.
//
// Each replay session gets a UUID so log lines and downstream consumers can
// correlate one run's traffic.
package replayer
