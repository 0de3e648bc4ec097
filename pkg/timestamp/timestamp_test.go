package timestamp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestToFromUnixMicros(t *testing.T) {
	at := time.Date(2025, 1, 15, 12, 30, 45, 123456000, time.UTC)
	us := ToUnixMicros(at)
	assert.Equal(t, at.UnixMicro(), us)
	assert.True(t, FromUnixMicros(us).Equal(at))
}

func TestZeroValues(t *testing.T) {
	assert.Equal(t, int64(0), ToUnixMicros(time.Time{}))
	assert.True(t, FromUnixMicros(0).IsZero())
	assert.Equal(t, "", Format(0))
	assert.True(t, IsZero(0))
	assert.False(t, IsZero(1))
	assert.Equal(t, int64(0), Add(0, time.Hour))
	assert.Equal(t, time.Duration(0), Between(0, 12345))
}

func TestParse_Strings(t *testing.T) {
	us := Parse("2025-01-15T12:30:45.123456Z")
	assert.Equal(t, int64(1736944245123456), us)

	// Plain RFC3339 without fractional seconds
	assert.NotZero(t, Parse("2025-01-15T12:30:45Z"))

	// Garbage
	assert.Equal(t, int64(0), Parse("not a time"))
	assert.Equal(t, int64(0), Parse(""))
}

func TestParse_NumberHeuristics(t *testing.T) {
	const sec = int64(1736944245)

	assert.Equal(t, sec*1e6, Parse(sec))            // seconds
	assert.Equal(t, sec*1e6+123000, Parse(sec*1000+123))  // milliseconds
	assert.Equal(t, sec*1e6+123456, Parse(sec*1e6+123456)) // microseconds

	assert.Equal(t, sec*1e6, Parse("1736944245"))
	assert.Equal(t, int64(0), Parse(nil))
	assert.Equal(t, int64(0), Parse(struct{}{}))
}

func TestParse_TimeValue(t *testing.T) {
	at := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, at.UnixMicro(), Parse(at))
}

func TestAddBetween(t *testing.T) {
	start := ToUnixMicros(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	end := Add(start, 90*time.Second)

	assert.Equal(t, 90*time.Second, Between(start, end))
	assert.Equal(t, -90*time.Second, Between(end, start))
}

func TestFormat_RoundTrip(t *testing.T) {
	us := int64(1736944245123456)
	assert.Equal(t, us, Parse(Format(us)))
}
