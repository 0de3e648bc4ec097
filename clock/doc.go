// Package clock provides wall-clock retrieval and deadline sleeps behind an
// interface, enabling both real and fake implementations for deterministic
// testing of time-paced stages.
//
// The Clock interface is intentionally small: Now and SleepUntil are the only
// two operations the pacing core needs. SleepUntil treats any deadline that is
// not strictly in the future as an immediate no-op, and aborts early when the
// supplied context is cancelled.
//
// The package also carries the seconds/duration conversions used throughout
// the pacing core. Conversions truncate below one microsecond, matching the
// resolution limit of the underlying sleep.
package clock
