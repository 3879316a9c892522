// Package flow estimates the apparent motion between two reflectivity frames
// by coarse-to-fine block matching over a box-downsampled pyramid. The
// result feeds semi-Lagrangian advection in the forecaster.
package flow

import (
	"math"

	"github.com/couchcryptid/storm-radar-sim/internal/domain"
)

const (
	pyramidLevels = 4

	// matchHalf gives the fixed odd SSD window (2*matchHalf+1 = 3).
	matchHalf = 1

	// baseSearchRadius is the per-level search bound in level cells; coarser
	// levels search wider in physical terms because their cells are larger.
	baseSearchRadius = 2

	// acceptConfidence is the minimum block-match confidence 1/(1+err/100)
	// for a displacement to be written into the field.
	acceptConfidence = 0.5
)

// Estimate computes the motion field carrying prev into next over
// elapsedHours. Velocities are km/h. Cells without a confident match keep
// zero velocity and zero confidence. A non-positive elapsed time yields the
// degenerate zero field.
func Estimate(prev, next *domain.Grid, elapsedHours float64) domain.MotionField {
	if elapsedHours <= 0 {
		return domain.ZeroMotionField()
	}

	prevPyr := buildPyramid(prev)
	nextPyr := buildPyramid(next)

	field := domain.ZeroMotionField()

	// Coarsest level first; finer levels overwrite with sharper estimates.
	for level := pyramidLevels - 1; level >= 0; level-- {
		matchLevel(prevPyr[level], nextPyr[level], level, elapsedHours, &field)
	}

	smoothInterior(&field.U)
	smoothInterior(&field.V)
	return field
}

// buildPyramid returns pyramidLevels grids, level 0 at full resolution, each
// subsequent level a 2×2 box-downsample of the previous.
func buildPyramid(g *domain.Grid) [][][]float64 {
	levels := make([][][]float64, pyramidLevels)

	full := make([][]float64, domain.GridSize)
	for iy := range full {
		full[iy] = make([]float64, domain.GridSize)
		copy(full[iy], g[iy][:])
	}
	levels[0] = full

	for l := 1; l < pyramidLevels; l++ {
		levels[l] = downsample(levels[l-1])
	}
	return levels
}

func downsample(src [][]float64) [][]float64 {
	n := len(src) / 2
	dst := make([][]float64, n)
	for iy := 0; iy < n; iy++ {
		dst[iy] = make([]float64, n)
		for ix := 0; ix < n; ix++ {
			dst[iy][ix] = (src[2*iy][2*ix] + src[2*iy][2*ix+1] +
				src[2*iy+1][2*ix] + src[2*iy+1][2*ix+1]) / 4
		}
	}
	return dst
}

// matchLevel runs block matching at one pyramid level and writes accepted
// displacements into the full-resolution field.
func matchLevel(prev, next [][]float64, level int, elapsedHours float64, field *domain.MotionField) {
	n := len(prev)
	scale := 1 << level
	radius := baseSearchRadius + level

	for iy := 0; iy < n; iy++ {
		for ix := 0; ix < n; ix++ {
			if prev[iy][ix] <= domain.PrecipThreshold {
				continue
			}

			bestErr := math.Inf(1)
			bestDX, bestDY := 0, 0
			for dy := -radius; dy <= radius; dy++ {
				for dx := -radius; dx <= radius; dx++ {
					err := patchSSD(prev, next, ix, iy, dx, dy)
					if err < bestErr {
						bestErr = err
						bestDX, bestDY = dx, dy
					}
				}
			}

			conf := 1 / (1 + bestErr/100)
			if conf <= acceptConfidence {
				continue
			}

			// Displacement in full-resolution cells, converted to km/h.
			u := float64(bestDX*scale) * domain.CellKm / elapsedHours
			v := float64(bestDY*scale) * domain.CellKm / elapsedHours
			writeBlock(field, ix*scale, iy*scale, scale, u, v, conf)
		}
	}
}

// patchSSD computes the mean squared difference of the 3×3 window around
// (ix, iy) in prev against the window displaced by (dx, dy) in next. Window
// coordinates are clamped at the level borders.
func patchSSD(prev, next [][]float64, ix, iy, dx, dy int) float64 {
	n := len(prev)
	var sum float64
	var count int
	for wy := -matchHalf; wy <= matchHalf; wy++ {
		for wx := -matchHalf; wx <= matchHalf; wx++ {
			py := clampTo(iy+wy, n)
			px := clampTo(ix+wx, n)
			ny := clampTo(iy+wy+dy, n)
			nx := clampTo(ix+wx+dx, n)
			d := prev[py][px] - next[ny][nx]
			sum += d * d
			count++
		}
	}
	return sum / float64(count)
}

func clampTo(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// writeBlock fills the full-resolution cells covered by one level cell.
func writeBlock(field *domain.MotionField, x0, y0, span int, u, v, conf float64) {
	for iy := y0; iy < y0+span && iy < domain.GridSize; iy++ {
		for ix := x0; ix < x0+span && ix < domain.GridSize; ix++ {
			field.U[iy][ix] = u
			field.V[iy][ix] = v
			field.Confidence[iy][ix] = conf
		}
	}
}

// smoothInterior applies one 3×3 weighted-average pass (center 4, edges 2,
// corners 1) over interior cells. Border cells are left untouched.
func smoothInterior(g *domain.Grid) {
	src := *g
	for iy := 1; iy < domain.GridSize-1; iy++ {
		for ix := 1; ix < domain.GridSize-1; ix++ {
			sum := 4*src[iy][ix] +
				2*(src[iy-1][ix]+src[iy+1][ix]+src[iy][ix-1]+src[iy][ix+1]) +
				src[iy-1][ix-1] + src[iy-1][ix+1] + src[iy+1][ix-1] + src[iy+1][ix+1]
			g[iy][ix] = sum / 16
		}
	}
}
