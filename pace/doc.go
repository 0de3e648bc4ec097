// Package pace provides the time-pacing stage family: stream stages that
// release previously-buffered elements according to wall-clock time.
//
// # Stage Family
//
// Elements can be paced three ways:
//
//   - By timing the elements carry themselves: TimeCat sleeps until each
//     element's own absolute deadline, RelativeTimeCat until an offset from
//     the moment the stage started. DropExpired and DropRelativeExpired
//     discard elements whose time has already passed.
//   - By caller-supplied synthetic timing, independent of element content:
//     SteadyCat emits at a fixed rate, PoissonCat and GenPoissonCat at
//     randomized Poisson-process arrival times.
//   - By an explicit schedule: CatAtTimes consumes a list of absolute
//     deadlines one-for-one against incoming elements, CatAtRelativeTimes a
//     list of offsets from stage start. An exhausted schedule degrades to an
//     unconditional passthrough.
//
// # Quick Start
//
// Replay a recorded stream at its original timing:
//
//	events := recording.Source()           // elements implement pace.TimedEvent
//	stage := pace.TimeCat[recording.Event]()
//	err := stream.Run(ctx, events, sink, stage)
//
// Throttle a firehose to ten elements per second:
//
//	stage := pace.SteadyCat[Sample](10)
//
// Deterministic Poisson pacing for load tests:
//
//	src := random.NewPCG(seed, 0)
//	stage := pace.GenPoissonCat[Sample](src, 50)
//
// # Timing Contract
//
// Deadlines already in the past sleep for zero time; the element is emitted
// immediately. Stages assume ascending timing across the input and do not
// reorder: an out-of-order element simply sleeps until a time that has
// already passed and is emitted as soon as it is received.
//
// SteadyCat and the Poisson stages accumulate deadlines by addition rather
// than re-measuring the clock, so scheduling error never compounds across
// emissions. GenPoissonCat precomputes deadlines in batches of one hundred
// and seeds each new batch from the last deadline of the previous one,
// keeping the arrival process statistically continuous across batch
// boundaries.
//
// # Sharp Edge: DropExpired
//
// DropExpired and DropRelativeExpired consume the first element that is NOT
// expired and return without emitting it: exactly one fresh element is lost
// when the stage hands off. Compose with stream.Then when the remainder of
// the stream should continue through another stage, and account for the
// consumed element.
//
// # Determinism and Testing
//
// Every stage takes its clock through WithClock and the Poisson stages take
// an explicit random source, so the full family runs deterministically under
// testutil.FakeClock with no real sleeping.
package pace
