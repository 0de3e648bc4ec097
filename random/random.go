package random

import (
	"crypto/rand"
	"encoding/binary"
	"math"
	randv2 "math/rand/v2"
	"time"

	"github.com/c360/streampace/clock"
)

// Source yields uniform values in [0,1). Sources are not safe for concurrent
// use; each stage activation owns its source exclusively.
type Source interface {
	Float64() float64
}

type pcgSource struct {
	rng *randv2.Rand
}

func (s *pcgSource) Float64() float64 {
	return s.rng.Float64()
}

// NewPCG returns a deterministic source seeded from the two given values.
// Two sources built from the same seeds yield identical sequences.
func NewPCG(seed1, seed2 uint64) Source {
	return &pcgSource{rng: randv2.New(randv2.NewPCG(seed1, seed2))}
}

// New returns a source seeded non-deterministically from the operating
// system. Falls back to the current time if the system entropy source is
// unavailable.
func New() Source {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		now := uint64(time.Now().UnixNano())
		return NewPCG(now, now^0x9e3779b97f4a7c15)
	}
	return NewPCG(binary.LittleEndian.Uint64(buf[:8]), binary.LittleEndian.Uint64(buf[8:]))
}

// ExpDelay maps a uniform value u in [0,1) to the inter-arrival delay of a
// Poisson process with the given rate (arrivals per second), via the inverse
// CDF of the exponential distribution: -ln(1-u)/rate.
func ExpDelay(u, rate float64) time.Duration {
	return clock.Duration(-math.Log(1-u) / rate)
}
