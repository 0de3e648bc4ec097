// Package jsonl provides the recorded-event source: a component that reads a
// JSONL recording and yields events one at a time as the pipeline pulls.
//
// # Recording Format
//
// One JSON object per line:
//
//	{"t": "2025-04-01T10:00:00.5Z", "data": {"sensor_id": "temp-001", "value": 23.5}}
//	{"t": 1743501601250000, "data": {"sensor_id": "temp-001", "value": 23.7}}
//
// The timestamp accepts RFC3339 strings or bare Unix numbers (seconds,
// milliseconds, or microseconds). The payload is opaque and passed through
// untouched.
//
// The source computes each event's offset in seconds from the first event of
// the recording, so downstream stages can pace either by the recorded
// absolute times (TimeCat) or by position within the recording
// (RelativeTimeCat), typically after shifting via the replayer's time-base
// rewrite.
//
// Blank lines are skipped. A malformed line is an invalid-data error; the
// source surfaces it rather than silently dropping recorded traffic.
package jsonl
