// Package streampace provides composable stream stages that release buffered
// elements according to time, plus a replay service that drives recorded
// streams through those stages at realistic pacing.
//
// # Architecture
//
// StreamPace is organized in two layers:
//
// Layer 1 - Pacing Core (no I/O, fully deterministic under test):
//   - clock: wall-clock retrieval, deadline sleeps, seconds/duration conversion
//   - random: uniform sources and the exponential inter-arrival sampler
//   - stream: pull-based receive/emit contracts and stage composition
//   - pace: the stage family (TimeCat, SteadyCat, PoissonCat, CatAtTimes, ...)
//
// Layer 2 - Replay Surface (the host application around the core):
//   - input/jsonl: recorded event sources
//   - output/natspub, output/websocket: paced event sinks
//   - replayer: wires source -> pacing stage -> sinks with full lifecycle
//
//	┌─────────────────────────────────────┐
//	│           Replayer                  │  Session lifecycle
//	│  (configure, start, stop, monitor)  │  Stage selection
//	└─────────────────────────────────────┘
//	           ↓ drives
//	┌─────────────────────────────────────┐
//	│         Pacing Stages               │  TimeCat, SteadyCat,
//	│   (sleep until deadline, emit)      │  PoissonCat, CatAtTimes
//	└─────────────────────────────────────┘
//	           ↓ deliver via
//	┌─────────────────────────────────────┐
//	│      NATS / WebSocket Sinks         │  Subjects, streams,
//	│     (publish paced elements)        │  connected clients
//	└─────────────────────────────────────┘
//
// All stages are pull-based filters: each receives one element from
// upstream, optionally sleeps until a deadline, then forwards the element
// downstream (or drops it). Stages preserve arrival order and introduce no
// parallelism of their own; they compose sequentially inside a single
// pipeline activation.
//
// StreamPace MUST NOT contain:
//   - Hard real-time guarantees (sleeps are best-effort and may overrun)
//   - Multi-stream synchronization
//   - Domain-specific event schemas (recordings are opaque JSON)
package streampace
