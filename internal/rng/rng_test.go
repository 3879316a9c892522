package rng

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFoldsSeedIntoValidRange(t *testing.T) {
	tests := []struct {
		name string
		seed int64
	}{
		{name: "zero", seed: 0},
		{name: "negative", seed: -42},
		{name: "modulus multiple", seed: modulus * 3},
		{name: "large", seed: 1<<62 + 12345},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(tt.seed)
			assert.GreaterOrEqual(t, s.state, int64(1))
			assert.LessOrEqual(t, s.state, int64(modulus-1))
		})
	}
}

func TestStreamIsDeterministic(t *testing.T) {
	a := New(12345)
	b := New(12345)
	for i := 0; i < 100; i++ {
		require.Equal(t, a.Float64(), b.Float64(), "draw %d diverged", i)
	}
}

func TestDifferentSeedsDiverge(t *testing.T) {
	a := New(12345)
	b := New(54321)
	assert.NotEqual(t, a.Float64(), b.Float64())
}

func TestFloat64StaysInOpenUnitInterval(t *testing.T) {
	s := New(7)
	for i := 0; i < 10000; i++ {
		v := s.Float64()
		assert.Greater(t, v, 0.0)
		assert.Less(t, v, 1.0)
	}
}

func TestUniformRange(t *testing.T) {
	s := New(99)
	for i := 0; i < 1000; i++ {
		v := s.Uniform(-120, 120)
		assert.GreaterOrEqual(t, v, -120.0)
		assert.Less(t, v, 120.0)
	}
}

func TestUniformIntInclusive(t *testing.T) {
	s := New(3)
	seen := map[int]bool{}
	for i := 0; i < 1000; i++ {
		v := s.UniformInt(2, 5)
		require.GreaterOrEqual(t, v, 2)
		require.LessOrEqual(t, v, 5)
		seen[v] = true
	}
	// All four values should appear over 1000 draws.
	assert.Len(t, seen, 4)
}

func TestUniformIntDegenerateRange(t *testing.T) {
	s := New(3)
	assert.Equal(t, 5, s.UniformInt(5, 5))
	assert.Equal(t, 5, s.UniformInt(5, 2))
}

func TestNormalMomentsRoughlyMatch(t *testing.T) {
	s := New(2024)
	const n = 20000
	var sum, sumSq float64
	for i := 0; i < n; i++ {
		v := s.Normal(10, 3)
		sum += v
		sumSq += v * v
	}
	mean := sum / n
	variance := sumSq/n - mean*mean

	assert.InDelta(t, 10.0, mean, 0.1)
	assert.InDelta(t, 9.0, variance, 0.5)
}

func TestPoissonMeanRoughlyMatchesLambda(t *testing.T) {
	s := New(555)
	const n = 20000
	lambda := 1.4
	total := 0
	for i := 0; i < n; i++ {
		total += s.Poisson(lambda)
	}
	assert.InDelta(t, lambda, float64(total)/n, 0.05)
}

func TestPoissonZeroLambda(t *testing.T) {
	s := New(555)
	assert.Zero(t, s.Poisson(0))
	assert.Zero(t, s.Poisson(-1))
}

func TestChoiceCoversAllItems(t *testing.T) {
	s := New(11)
	items := []string{"circular", "linear", "cluster"}
	seen := map[string]bool{}
	for i := 0; i < 300; i++ {
		seen[Choice(s, items)] = true
	}
	assert.Len(t, seen, len(items))
}

func TestNewDailyStableWithinCalendarDay(t *testing.T) {
	morning := time.Date(2024, 6, 1, 0, 30, 0, 0, time.UTC)
	evening := time.Date(2024, 6, 1, 23, 45, 0, 0, time.UTC)
	nextDay := time.Date(2024, 6, 2, 0, 15, 0, 0, time.UTC)

	a := NewDaily("mia-s", morning)
	b := NewDaily("mia-s", evening)
	c := NewDaily("mia-s", nextDay)
	d := NewDaily("ord-s", morning)

	assert.Equal(t, a.Float64(), b.Float64(), "same site and day should match")
	assert.NotEqual(t, NewDaily("mia-s", morning).Float64(), c.Float64(), "different day should diverge")
	assert.NotEqual(t, NewDaily("mia-s", morning).Float64(), d.Float64(), "different site should diverge")
}

func TestNewDailyUsesUTCDate(t *testing.T) {
	est := time.FixedZone("EST", -5*3600)
	// 23:00 EST on May 31 is already June 1 in UTC.
	local := time.Date(2024, 5, 31, 23, 0, 0, 0, est)
	utc := time.Date(2024, 6, 1, 4, 0, 0, 0, time.UTC)

	assert.Equal(t, NewDaily("mia-s", local).Float64(), NewDaily("mia-s", utc).Float64())
}

func TestNewKeyedMatchesKnownSeedPath(t *testing.T) {
	// Same key always yields the same stream.
	assert.Equal(t, NewKeyed("mia-s,2024-06-01").Float64(), NewKeyed("mia-s,2024-06-01").Float64())
	assert.NotEqual(t, NewKeyed("mia-s,2024-06-01").Float64(), NewKeyed("mia-s,2024-06-02").Float64())
}
