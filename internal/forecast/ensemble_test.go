package forecast

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/storm-radar-sim/internal/domain"
	"github.com/couchcryptid/storm-radar-sim/internal/rng"
)

func blobGrid(cx, cy int, amp float64) domain.Grid {
	g := domain.NewReflectivityGrid()
	for iy := 0; iy < domain.GridSize; iy++ {
		for ix := 0; ix < domain.GridSize; ix++ {
			dx := float64(ix - cx)
			dy := float64(iy - cy)
			v := domain.Baseline + amp*math.Exp(-(dx*dx+dy*dy)/50)
			if v > g[iy][ix] {
				g[iy][ix] = v
			}
		}
	}
	return g
}

func TestWrapIndex(t *testing.T) {
	assert.Equal(t, 0, wrapIndex(0))
	assert.Equal(t, 63, wrapIndex(-1))
	assert.Equal(t, 0, wrapIndex(64))
	assert.Equal(t, 1, wrapIndex(65))
	assert.Equal(t, 62, wrapIndex(-2))
}

func TestGrowthCeiling(t *testing.T) {
	assert.InDelta(t, 1.5, growthCeiling(0), 1e-9)
	assert.Greater(t, growthCeiling(60), growthCeiling(240))
	// Far leads bottom out at 1: no fabricated growth.
	assert.Equal(t, 1.0, growthCeiling(2000))
}

func TestEdgeDistance(t *testing.T) {
	assert.Equal(t, 0, edgeDistance(0, 30))
	assert.Equal(t, 0, edgeDistance(30, 63))
	assert.Equal(t, 3, edgeDistance(3, 30))
	assert.Equal(t, 31, edgeDistance(31, 32))
}

func TestApplyEnsembleZeroLevelHasNoSpread(t *testing.T) {
	g := blobGrid(32, 32, 60)

	res := applyEnsemble(&g, 0, 10, rng.New(1))

	for iy := 0; iy < domain.GridSize; iy++ {
		for ix := 0; ix < domain.GridSize; ix++ {
			require.InDelta(t, 0.0, res.Spread[iy][ix], 1e-6)
			require.InDelta(t, 0.0, res.Uncertainty[iy][ix], 1e-6)
		}
	}

	// All members are identical, so the mean is the input modulo the mass
	// decay constraint.
	wantPeak := domain.Baseline + 60*math.Exp(-0.0005*10)
	v, ix, iy := res.Mean.Max()
	assert.InDelta(t, wantPeak, v, 0.5)
	assert.Equal(t, 32, ix)
	assert.Equal(t, 32, iy)
}

func TestApplyEnsembleSpreadGrowsWithLevel(t *testing.T) {
	g := blobGrid(32, 32, 60)

	low := applyEnsemble(&g, 0.1, 60, rng.New(5))
	high := applyEnsemble(&g, 0.6, 60, rng.New(5))

	var lowSum, highSum float64
	for iy := 0; iy < domain.GridSize; iy++ {
		for ix := 0; ix < domain.GridSize; ix++ {
			lowSum += low.Spread[iy][ix]
			highSum += high.Spread[iy][ix]
		}
	}
	assert.Greater(t, highSum, lowSum)
}

func TestApplyEnsembleBaselineInputStaysBaseline(t *testing.T) {
	g := domain.NewReflectivityGrid()

	res := applyEnsemble(&g, 0.5, 240, rng.New(9))

	for iy := 0; iy < domain.GridSize; iy++ {
		for ix := 0; ix < domain.GridSize; ix++ {
			require.Equal(t, domain.Baseline, res.Mean[iy][ix])
			require.Zero(t, res.Spread[iy][ix])
		}
	}
}

func TestApplyConstraintsCapsGrowth(t *testing.T) {
	g := domain.NewReflectivityGrid()
	g[32][32] = domain.Baseline + 80

	// Input peak of 40: far leads allow no growth above it.
	applyConstraints(&g, 1500, 40)

	v, _, _ := g.Max()
	assert.LessOrEqual(t, v, domain.Baseline+40)
}

func TestApplyConstraintsEdgeDecay(t *testing.T) {
	g := domain.NewReflectivityGrid()
	for iy := 0; iy < domain.GridSize; iy++ {
		for ix := 0; ix < domain.GridSize; ix++ {
			g[iy][ix] = 120
		}
	}

	applyConstraints(&g, 60, 56)

	// Corner cells sit at distance zero and fall all the way to baseline.
	assert.Equal(t, domain.Baseline, g[0][0])
	assert.Equal(t, domain.Baseline, g[63][63])
	// Interior cells keep their (mass-scaled) value.
	assert.Greater(t, g[32][32], 110.0)
	// Cells inside the margin ramp between the two.
	assert.Greater(t, g[1][32], domain.Baseline)
	assert.Less(t, g[1][32], g[32][32])
}

func TestApplyConstraintsSmoothsLongLeads(t *testing.T) {
	short := blobGrid(32, 32, 60)
	long := short

	applyConstraints(&short, 60, 60)
	applyConstraints(&long, 600, 60)

	vShort, _, _ := short.Max()
	vLong, _, _ := long.Max()
	assert.Less(t, vLong, vShort, "long leads should flatten the peak")
}

func TestApplyConstraintsFlatFieldIsUntouched(t *testing.T) {
	g := domain.NewReflectivityGrid()
	applyConstraints(&g, 600, 0)

	for iy := 0; iy < domain.GridSize; iy++ {
		for ix := 0; ix < domain.GridSize; ix++ {
			require.Equal(t, domain.Baseline, g[iy][ix])
		}
	}
}

func TestPeakAnomaly(t *testing.T) {
	g := domain.NewReflectivityGrid()
	g[10][10] = 110

	v, anom := peakAnomaly(&g)
	assert.Equal(t, 110.0, v)
	assert.Equal(t, 110.0-domain.Baseline, anom)
}
