// Package timestamp provides standardized Unix timestamp handling for
// recorded events.
//
// This package uses int64 microseconds as the canonical timestamp format,
// matching the sub-microsecond truncation applied by the pacing core when
// converting seconds to sleep durations. All timestamps are microseconds
// since Unix epoch (UTC).
//
// Zero Value Semantics:
//   - A timestamp value of 0 means "not set" or "unknown"
//   - Functions handle zero values gracefully, returning appropriate defaults
package timestamp

import (
	"strconv"
	"time"
)

// Heuristic thresholds for interpreting bare numbers: values above each
// bound are assumed to already be in the finer unit.
const (
	maxSeconds = int64(1e11) // ~year 5138 in seconds
	maxMillis  = int64(1e14) // same bound in milliseconds
)

// Now returns the current time as Unix microseconds.
func Now() int64 {
	return time.Now().UnixMicro()
}

// ToUnixMicros converts a time.Time to Unix microseconds.
func ToUnixMicros(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMicro()
}

// FromUnixMicros converts Unix microseconds to time.Time.
// Returns zero time if the timestamp is 0.
func FromUnixMicros(us int64) time.Time {
	if us == 0 {
		return time.Time{}
	}
	return time.UnixMicro(us)
}

// Format converts Unix microseconds to an RFC3339Nano string for display.
// Returns empty string if the timestamp is 0.
func Format(us int64) string {
	if us == 0 {
		return ""
	}
	return time.UnixMicro(us).UTC().Format(time.RFC3339Nano)
}

// Parse converts various timestamp representations to Unix microseconds.
// Supports:
//   - int64/float64 (heuristically seconds, milliseconds, or microseconds)
//   - string (RFC3339/RFC3339Nano or a bare Unix number)
//   - time.Time
//   - nil/zero values (returns 0)
//
// Returns 0 for invalid input or parsing errors.
func Parse(input any) int64 {
	if input == nil {
		return 0
	}

	switch v := input.(type) {
	case int64:
		return fromNumber(v)

	case float64:
		if v == 0 {
			return 0
		}
		if int64(v) > maxMillis {
			return int64(v)
		}
		if int64(v) > maxSeconds {
			return int64(v * 1000)
		}
		return int64(v * 1e6)

	case int:
		return fromNumber(int64(v))

	case string:
		if v == "" {
			return 0
		}
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return ToUnixMicros(t)
		}
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return fromNumber(n)
		}
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return Parse(f)
		}
		return 0

	case time.Time:
		return ToUnixMicros(v)

	default:
		return 0
	}
}

// fromNumber interprets a bare integer as seconds, milliseconds, or
// microseconds depending on magnitude.
func fromNumber(v int64) int64 {
	switch {
	case v == 0:
		return 0
	case v > maxMillis:
		return v
	case v > maxSeconds:
		return v * 1000
	default:
		return v * 1e6
	}
}

// IsZero checks if a timestamp is unset (zero).
func IsZero(us int64) bool {
	return us == 0
}

// Add adds a duration to a timestamp and returns the new timestamp.
// Returns 0 if the input timestamp is zero.
func Add(us int64, d time.Duration) int64 {
	if us == 0 {
		return 0
	}
	return time.UnixMicro(us).Add(d).UnixMicro()
}

// Between returns the duration between two timestamps.
// Returns 0 if either timestamp is zero.
func Between(start, end int64) time.Duration {
	if start == 0 || end == 0 {
		return 0
	}
	return time.UnixMicro(end).Sub(time.UnixMicro(start))
}
