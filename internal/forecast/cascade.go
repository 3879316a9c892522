package forecast

import (
	"math"

	"github.com/couchcryptid/storm-radar-sim/internal/domain"
)

// cascadeLevels is the number of Gaussian-pyramid detail bands the advected
// field is decomposed into.
const cascadeLevels = 4

// cascadeDecayPerMin is the per-minute exponential decay of the finest
// detail band; each coarser band decays at half the rate of the one below.
const cascadeDecayPerMin = 0.004

// applyCascade decomposes the field into detail bands of increasing scale,
// decays each band exponentially in lead time (finer scales faster), and
// reconstructs. Small-scale structure therefore washes out first, the way
// real precipitation loses predictability.
func applyCascade(g *domain.Grid, leadMinutes int) {
	// Work on the anomaly above baseline.
	levels := make([]domain.Grid, cascadeLevels+1)
	for iy := range g {
		for ix := range g[iy] {
			levels[0][iy][ix] = g[iy][ix] - domain.Baseline
		}
	}

	// Gaussian pyramid without downsampling: each level is a further blur
	// of the previous, so band k = levels[k] − levels[k+1] captures
	// structure at scale 2^k cells.
	for k := 1; k <= cascadeLevels; k++ {
		levels[k] = levels[k-1]
		for pass := 0; pass < 1<<(k-1); pass++ {
			gaussianBlur(&levels[k])
		}
	}

	var out domain.Grid
	out = levels[cascadeLevels]
	for k := 0; k < cascadeLevels; k++ {
		rate := cascadeDecayPerMin / float64(int(1)<<k)
		keep := math.Exp(-rate * float64(leadMinutes))
		for iy := range out {
			for ix := range out[iy] {
				out[iy][ix] += (levels[k][iy][ix] - levels[k+1][iy][ix]) * keep
			}
		}
	}

	for iy := range g {
		for ix := range g[iy] {
			v := domain.Baseline + out[iy][ix]
			if v < domain.Baseline {
				v = domain.Baseline
			}
			g[iy][ix] = v
		}
	}
}

// gaussianBlur applies one separable 1-2-1 pass in place, clamping at the
// borders. Symmetric, so isolated maxima stay centered.
func gaussianBlur(g *domain.Grid) {
	var tmp domain.Grid
	for iy := 0; iy < domain.GridSize; iy++ {
		for ix := 0; ix < domain.GridSize; ix++ {
			l := domain.ClampIndex(ix - 1)
			r := domain.ClampIndex(ix + 1)
			tmp[iy][ix] = (g[iy][l] + 2*g[iy][ix] + g[iy][r]) / 4
		}
	}
	for iy := 0; iy < domain.GridSize; iy++ {
		u := domain.ClampIndex(iy - 1)
		d := domain.ClampIndex(iy + 1)
		for ix := 0; ix < domain.GridSize; ix++ {
			g[iy][ix] = (tmp[u][ix] + 2*tmp[iy][ix] + tmp[d][ix]) / 4
		}
	}
}
