package flow

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/storm-radar-sim/internal/domain"
)

// addBlob max-composites a Gaussian return of the given amplitude onto g.
func addBlob(g *domain.Grid, cx, cy, sigma, amp float64) {
	for iy := 0; iy < domain.GridSize; iy++ {
		for ix := 0; ix < domain.GridSize; ix++ {
			dx := float64(ix) - cx
			dy := float64(iy) - cy
			v := domain.Baseline + amp*math.Exp(-(dx*dx+dy*dy)/(2*sigma*sigma))
			if v > g[iy][ix] {
				g[iy][ix] = v
			}
		}
	}
}

func TestEstimateZeroElapsedIsDegenerate(t *testing.T) {
	prev := domain.NewReflectivityGrid()
	next := domain.NewReflectivityGrid()
	addBlob(&prev, 32, 32, 4, 60)
	addBlob(&next, 35, 32, 4, 60)

	for _, elapsed := range []float64{0, -1} {
		field := Estimate(&prev, &next, elapsed)
		assert.Equal(t, domain.ZeroMotionField(), field)
	}
}

func TestEstimateFlatFramesYieldZeroMotion(t *testing.T) {
	prev := domain.NewReflectivityGrid()
	next := domain.NewReflectivityGrid()

	field := Estimate(&prev, &next, 0.5)

	for iy := 0; iy < domain.GridSize; iy++ {
		for ix := 0; ix < domain.GridSize; ix++ {
			require.Zero(t, field.U[iy][ix])
			require.Zero(t, field.V[iy][ix])
			require.Zero(t, field.Confidence[iy][ix])
		}
	}
}

func TestEstimateStationaryBlobHasZeroVelocityAtCore(t *testing.T) {
	prev := domain.NewReflectivityGrid()
	next := domain.NewReflectivityGrid()
	addBlob(&prev, 32, 32, 5, 70)
	addBlob(&next, 32, 32, 5, 70)

	field := Estimate(&prev, &next, 0.5)

	assert.InDelta(t, 0.0, field.U[32][32], 1e-9)
	assert.InDelta(t, 0.0, field.V[32][32], 1e-9)
	assert.Greater(t, field.Confidence[32][32], 0.5, "identical frames should match confidently")
}

func TestEstimateRecoversEastwardDisplacement(t *testing.T) {
	prev := domain.NewReflectivityGrid()
	next := domain.NewReflectivityGrid()
	addBlob(&prev, 30, 32, 5, 70)
	addBlob(&next, 32, 32, 5, 70)

	elapsed := 1.0 / 6 // 10 minutes
	field := Estimate(&prev, &next, elapsed)

	// Two cells eastward over 10 minutes.
	wantU := 2 * domain.CellKm / elapsed
	assert.InDelta(t, wantU, field.U[32][30], wantU*0.5, "U at the blob core")
	assert.InDelta(t, 0.0, field.V[32][30], wantU*0.25, "no meridional motion")
}

func TestEstimateRecoversNorthwardDisplacement(t *testing.T) {
	prev := domain.NewReflectivityGrid()
	next := domain.NewReflectivityGrid()
	addBlob(&prev, 32, 30, 5, 70)
	addBlob(&next, 32, 33, 5, 70)

	field := Estimate(&prev, &next, 0.25)

	// Row index grows northward, so a +3 row shift is positive V.
	assert.Greater(t, field.V[30][32], 0.0)
}

func TestEstimateIgnoresSubThresholdCells(t *testing.T) {
	prev := domain.NewReflectivityGrid()
	next := domain.NewReflectivityGrid()
	// Amplitude 4 keeps every cell below the precipitation threshold of 70.
	addBlob(&prev, 20, 20, 4, 4)
	addBlob(&next, 24, 20, 4, 4)

	field := Estimate(&prev, &next, 0.5)

	for iy := 0; iy < domain.GridSize; iy++ {
		for ix := 0; ix < domain.GridSize; ix++ {
			require.Zero(t, field.Confidence[iy][ix])
		}
	}
}

func TestDownsampleAverages(t *testing.T) {
	src := [][]float64{
		{1, 3, 5, 7},
		{1, 3, 5, 7},
		{2, 2, 10, 10},
		{2, 2, 10, 10},
	}

	dst := downsample(src)

	require.Len(t, dst, 2)
	assert.Equal(t, 2.0, dst[0][0])
	assert.Equal(t, 6.0, dst[0][1])
	assert.Equal(t, 2.0, dst[1][0])
	assert.Equal(t, 10.0, dst[1][1])
}

func TestSmoothInteriorPreservesUniformField(t *testing.T) {
	var g domain.Grid
	for iy := range g {
		for ix := range g[iy] {
			g[iy][ix] = 7
		}
	}

	smoothInterior(&g)

	for iy := range g {
		for ix := range g[iy] {
			require.Equal(t, 7.0, g[iy][ix])
		}
	}
}

func TestSmoothInteriorLeavesBordersUntouched(t *testing.T) {
	var g domain.Grid
	g[0][5] = 100
	g[5][0] = 50

	smoothInterior(&g)

	assert.Equal(t, 100.0, g[0][5])
	assert.Equal(t, 50.0, g[5][0])
}

func TestPatchSSDIdenticalWindowsIsZero(t *testing.T) {
	src := make([][]float64, 8)
	for iy := range src {
		src[iy] = make([]float64, 8)
		for ix := range src[iy] {
			src[iy][ix] = float64(iy*8 + ix)
		}
	}

	assert.Zero(t, patchSSD(src, src, 4, 4, 0, 0))
	assert.Greater(t, patchSSD(src, src, 4, 4, 2, 0), 0.0)
}
