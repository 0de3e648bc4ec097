// Package event defines the recorded element replayed through the pacing
// stages. An Event carries the instant it was originally observed plus an
// opaque JSON payload; the recording's schema is the producer's business.
package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/c360/streampace/errors"
	"github.com/c360/streampace/pkg/timestamp"
)

// Event is one recorded element. It satisfies both pacing capability
// contracts: TimeOf for absolute-time replay and TMinusSec for replay
// relative to the start of the session.
type Event struct {
	// At is the instant the event was originally observed.
	At time.Time

	// Data is the recorded payload, passed through untouched.
	Data json.RawMessage

	// Offset is the event's position in seconds relative to the first event
	// of the recording. Sources populate it while reading.
	Offset float64
}

// TimeOf returns the absolute deadline carried by the event.
func (e *Event) TimeOf() time.Time {
	return e.At
}

// TMinusSec returns the event's offset in seconds from the recording start.
func (e *Event) TMinusSec() float64 {
	return e.Offset
}

// wireEvent is the JSONL line format. The timestamp accepts RFC3339 strings
// or bare Unix numbers (seconds, milliseconds, or microseconds).
type wireEvent struct {
	T    any             `json:"t"`
	Data json.RawMessage `json:"data"`
}

// UnmarshalJSON decodes one recorded line.
func (e *Event) UnmarshalJSON(b []byte) error {
	var w wireEvent
	if err := json.Unmarshal(b, &w); err != nil {
		return errors.WrapInvalid(err, "Event", "UnmarshalJSON", "decode line")
	}

	us := timestamp.Parse(w.T)
	if timestamp.IsZero(us) {
		return errors.WrapInvalid(
			fmt.Errorf("unrecognized timestamp %v: %w", w.T, errors.ErrParsingFailed),
			"Event", "UnmarshalJSON", "parse timestamp")
	}

	e.At = timestamp.FromUnixMicros(us)
	e.Data = w.Data
	return nil
}

// MarshalJSON encodes the event with a microsecond Unix timestamp, the
// canonical wire format for republished events.
func (e *Event) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireEvent{
		T:    timestamp.ToUnixMicros(e.At),
		Data: e.Data,
	})
}
