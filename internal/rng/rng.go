// Package rng provides the deterministic pseudo-random stream that drives all
// simulation output. A Stream is a Park–Miller linear-congruential generator
// seeded from a (site, UTC date) key, so every consumer that is handed the
// same stream in the same order reproduces identical output.
//
// One Stream is created per generation run and passed explicitly to every
// function that needs randomness. Nothing in this repository uses math/rand
// or any other implicit source.
package rng

import (
	"fmt"
	"hash/fnv"
	"math"
	"time"
)

const (
	modulus    = 2147483647 // 2^31 - 1, prime
	multiplier = 16807      // Park–Miller minimal standard
)

// Stream is a seeded Park–Miller pseudo-random stream. Not safe for
// concurrent use; concurrent generation runs each get their own Stream.
type Stream struct {
	state int64
}

// New creates a Stream from a raw seed. Seeds are folded into the valid
// state range [1, modulus-1]; a zero seed maps to a fixed non-zero state.
func New(seed int64) *Stream {
	s := seed % modulus
	if s < 0 {
		s += modulus
	}
	if s == 0 {
		s = 1
	}
	return &Stream{state: s}
}

// NewKeyed creates a Stream seeded from an arbitrary string key via FNV-1a.
func NewKeyed(key string) *Stream {
	h := fnv.New32a()
	h.Write([]byte(key)) //nolint:errcheck // fnv never fails
	return New(int64(h.Sum32()))
}

// NewDaily creates the canonical per-run stream: seeded from
// "<site_id>,<UTC date>" so output is stable within a calendar day.
func NewDaily(siteID string, t time.Time) *Stream {
	return NewKeyed(fmt.Sprintf("%s,%s", siteID, t.UTC().Format("2006-01-02")))
}

// Float64 returns the next value in (0, 1).
func (s *Stream) Float64() float64 {
	s.state = s.state * multiplier % modulus
	return float64(s.state) / float64(modulus)
}

// Uniform returns a value uniformly distributed in [min, max).
func (s *Stream) Uniform(min, max float64) float64 {
	return min + s.Float64()*(max-min)
}

// UniformInt returns an integer uniformly distributed in [min, max], inclusive.
func (s *Stream) UniformInt(min, max int) int {
	if max <= min {
		return min
	}
	return min + int(s.Float64()*float64(max-min+1))
}

// Normal returns a normally distributed value via the Box–Muller transform.
func (s *Stream) Normal(mean, std float64) float64 {
	u1 := s.Float64()
	u2 := s.Float64()
	z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
	return mean + std*z
}

// Poisson returns a Poisson-distributed count using Knuth's multiplicative
// algorithm. Adequate for the small lambdas used here (< 5).
func (s *Stream) Poisson(lambda float64) int {
	if lambda <= 0 {
		return 0
	}
	limit := math.Exp(-lambda)
	k := 0
	p := 1.0
	for {
		p *= s.Float64()
		if p <= limit {
			return k
		}
		k++
	}
}

// Choice returns a uniformly selected element of items.
// Panics on an empty slice, matching the contract of callers that always
// supply fixed non-empty candidate sets.
func Choice[T any](s *Stream, items []T) T {
	return items[s.UniformInt(0, len(items)-1)]
}
