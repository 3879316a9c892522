package forecast

import (
	"math"

	"github.com/couchcryptid/storm-radar-sim/internal/domain"
	"github.com/couchcryptid/storm-radar-sim/internal/rng"
)

// ensembleMembers is the fixed perturbation count per forecast step.
const ensembleMembers = 10

// ensembleResult holds the outputs of one ensemble pass.
type ensembleResult struct {
	Mean        domain.Grid
	Uncertainty domain.Grid
	Spread      domain.Grid
}

// applyEnsemble perturbs the candidate frame into a fixed ensemble, reduces
// it to per-cell mean and spread, and enforces the physical constraints on
// the mean. level is 1 − regime confidence: low-confidence steps get larger
// positional and intensity perturbations.
func applyEnsemble(g *domain.Grid, level float64, leadMinutes int, rs *rng.Stream) ensembleResult {
	var sum, sumSq domain.Grid

	for m := 0; m < ensembleMembers; m++ {
		shiftX := int(math.Round(rs.Normal(0, level*5)))
		shiftY := int(math.Round(rs.Normal(0, level*5)))
		scale := rs.Normal(1, level*0.3)
		if scale < 0 {
			scale = 0
		}

		for iy := 0; iy < domain.GridSize; iy++ {
			srcY := wrapIndex(iy - shiftY)
			for ix := 0; ix < domain.GridSize; ix++ {
				srcX := wrapIndex(ix - shiftX)
				v := domain.Baseline + (g[srcY][srcX]-domain.Baseline)*scale
				sum[iy][ix] += v
				sumSq[iy][ix] += v * v
			}
		}
	}

	var res ensembleResult
	for iy := 0; iy < domain.GridSize; iy++ {
		for ix := 0; ix < domain.GridSize; ix++ {
			mean := sum[iy][ix] / ensembleMembers
			variance := sumSq[iy][ix]/ensembleMembers - mean*mean
			if variance < 0 {
				variance = 0
			}
			std := math.Sqrt(variance)

			res.Mean[iy][ix] = mean
			res.Spread[iy][ix] = std
			res.Uncertainty[iy][ix] = math.Min(1, std/50)
		}
	}

	_, inputPeakAnom := peakAnomaly(g)
	applyConstraints(&res.Mean, leadMinutes, inputPeakAnom)
	return res
}

func wrapIndex(i int) int {
	i %= domain.GridSize
	if i < 0 {
		i += domain.GridSize
	}
	return i
}

func peakAnomaly(g *domain.Grid) (value float64, anomaly float64) {
	v, _, _ := g.Max()
	a := v - domain.Baseline
	if a < 0 {
		a = 0
	}
	return v, a
}

// applyConstraints enforces physical plausibility on the ensemble mean, in
// order: mass conservation with expected decay, a growth ceiling relative to
// the input peak, long-lead smoothing, and edge decay toward baseline.
func applyConstraints(g *domain.Grid, leadMinutes int, inputPeakAnom float64) {
	lead := float64(leadMinutes)

	// (a) Rescale total anomaly mass to its expected exponential decay.
	// Skipped at zero total to avoid dividing by nothing.
	if total := g.AnomalySum(); total > 0 {
		factor := math.Exp(-0.0005 * lead)
		scaleAnomaly(g, factor)
	}

	// (b) Cap cells at a lead-time-dependent multiple of the input peak, so
	// perturbation can never fabricate growth the input does not support.
	if inputPeakAnom > 0 {
		ceiling := inputPeakAnom * growthCeiling(lead)
		for iy := range g {
			for ix := range g[iy] {
				if a := g[iy][ix] - domain.Baseline; a > ceiling {
					g[iy][ix] = domain.Baseline + ceiling
				}
			}
		}
	}

	// (c) Extra smoothing past the nowcast window, wider at longer leads.
	if leadMinutes > nowcastLimitMin {
		passes := 1 + (leadMinutes-nowcastLimitMin)/240
		for p := 0; p < passes; p++ {
			gaussianBlur(g)
		}
	}

	// (d) Decay linearly toward baseline inside a lead-scaled margin at the
	// four domain edges.
	margin := 2 + leadMinutes/120
	if margin > 8 {
		margin = 8
	}
	for iy := 0; iy < domain.GridSize; iy++ {
		for ix := 0; ix < domain.GridSize; ix++ {
			d := edgeDistance(ix, iy)
			if d >= margin {
				continue
			}
			w := float64(d) / float64(margin)
			g[iy][ix] = domain.Baseline + (g[iy][ix]-domain.Baseline)*w
		}
	}

	g.Clamp()
}

// growthCeiling decays from 1.5 toward 1.0 so short leads tolerate modest
// intensification but long leads cannot exceed the input peak.
func growthCeiling(leadMinutes float64) float64 {
	c := 1.5 * math.Exp(-leadMinutes/720)
	if c < 1 {
		c = 1
	}
	return c
}

func scaleAnomaly(g *domain.Grid, factor float64) {
	for iy := range g {
		for ix := range g[iy] {
			g[iy][ix] = domain.Baseline + (g[iy][ix]-domain.Baseline)*factor
		}
	}
}

func edgeDistance(ix, iy int) int {
	d := ix
	if v := iy; v < d {
		d = v
	}
	if v := domain.GridSize - 1 - ix; v < d {
		d = v
	}
	if v := domain.GridSize - 1 - iy; v < d {
		d = v
	}
	return d
}
