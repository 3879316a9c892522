package forecast

import (
	"math"
	"time"

	"github.com/couchcryptid/storm-radar-sim/internal/domain"
	"github.com/couchcryptid/storm-radar-sim/internal/rng"
	"github.com/couchcryptid/storm-radar-sim/internal/synth"
)

// renderEvolved recomputes every tracked feature at the target time and
// renders the results onto a fresh grid. Evolution always starts from the
// base snapshot: each call constructs new Feature values, never mutating the
// tracked originals.
func renderEvolved(features []domain.Feature, ts time.Time, leadMin int) domain.Grid {
	grid := domain.NewReflectivityGrid()
	for _, f := range features {
		renderFeatureAt(&grid, evolveFeature(f, leadMin), ts)
	}
	return grid
}

// evolveFeature projects one feature leadMin minutes ahead: position
// advances along its velocity, intensity modulates by lifecycle stage.
func evolveFeature(f domain.Feature, leadMin int) domain.Feature {
	hours := float64(leadMin) / 60

	out := f
	out.XKm = f.XKm + f.UKmh*hours
	out.YKm = f.YKm + f.VKmh*hours

	anomaly := f.MaxIntensity - domain.Baseline
	switch f.Stage {
	case domain.StageDeveloping:
		// Growth toward ×1.5, capped.
		anomaly *= math.Min(1.5, 1+0.25*hours)
	case domain.StageMature:
		// Mild pulsing around the current intensity.
		anomaly *= 1 + 0.1*math.Sin(2*math.Pi*hours/3)
	case domain.StageDissipating:
		anomaly *= math.Exp(-0.3 * hours)
	}

	out.MaxIntensity = math.Min(domain.MaxIntensity, domain.Baseline+anomaly)
	return out
}

// decayLongTerm applies the model-regime fate to a feature: exponential
// intensity decay, linear size growth, forced dissipation.
func decayLongTerm(f domain.Feature, hours float64) domain.Feature {
	out := f
	out.XKm = f.XKm + f.UKmh*hours
	out.YKm = f.YKm + f.VKmh*hours
	out.MaxIntensity = domain.Baseline + (f.MaxIntensity-domain.Baseline)*math.Exp(-0.2*hours)
	out.SizeKm = f.SizeKm * (1 + 0.05*hours)
	out.Stage = domain.StageDissipating
	return out
}

// renderFeatureAt draws a projected feature at time t. The lifecycle window
// synthesized at extraction only spans the nowcast horizon, so the envelope is
// recentered on t before rendering; the projection's intensity trend is
// carried explicitly by evolveFeature and decayLongTerm, not by the envelope.
func renderFeatureAt(g *domain.Grid, f domain.Feature, t time.Time) {
	f.Birth = t.Add(-f.Peak.Sub(f.Birth))
	f.Death = t.Add(f.Death.Sub(f.Peak))
	f.Peak = t
	synth.RenderFeature(g, f, t)
}

// injectConvection stochastically initiates new convective cells. The count
// is Poisson in the profile instability scaled by the diurnal factor at the
// site, so afternoons at unstable sites pop the most new cells.
func injectConvection(g *domain.Grid, site domain.Site, profile domain.RegionProfile, ts time.Time, leadMin int, rs *rng.Stream) {
	instability := profile.Instability * diurnalFactor(ts, site.Latitude, site.Longitude)
	n := rs.Poisson(2 * instability)
	for i := 0; i < n; i++ {
		x := rs.Uniform(-120, 120)
		y := rs.Uniform(-120, 120)
		// Position uncertainty grows with lead time, so do the blobs.
		sigmaKm := rs.Uniform(5, 10) * (1 + float64(leadMin)/float64(blendedLimitMin))
		amp := rs.Uniform(10, 25)
		addBlob(g, x, y, sigmaKm, amp)
	}
}

// Favorable zones for climatological initiation, km east/north of the radar.
// Fixed set shared by all sites.
var climatologyZones = [][2]float64{
	{-60, -40},
	{50, 30},
	{0, 70},
	{-30, 60},
	{80, -20},
}

// addClimatology fabricates long-range cells in the favorable zones. The
// per-zone probability derives from a coarse synoptic classification of the
// history (mean positive-anomaly energy → active/quiet) and rises with lead.
func addClimatology(g *domain.Grid, history []domain.Frame, leadMin int, rs *rng.Stream) {
	var energy float64
	for i := range history {
		energy += history[i].Data.AnomalySum()
	}
	if len(history) > 0 {
		energy /= float64(len(history)) * domain.GridSize * domain.GridSize
	}

	base := 0.15
	if energy > 1.5 { // active synoptic pattern
		base = 0.4
	}
	prob := base * math.Min(1, float64(leadMin)/720)

	for _, zone := range climatologyZones {
		if rs.Float64() >= prob {
			continue
		}
		x := zone[0] + rs.Normal(0, 10)
		y := zone[1] + rs.Normal(0, 10)
		sigmaKm := rs.Uniform(10, 20)
		amp := rs.Uniform(75, 100) - domain.Baseline
		addBlob(g, x, y, sigmaKm, amp)
	}
}

// addBlob max-composites a circular Gaussian return centered at (x, y) km.
func addBlob(g *domain.Grid, xKm, yKm, sigmaKm, amp float64) {
	reach := int(sigmaKm*3/domain.CellKm) + 1
	cx := int(domain.KmToCell(xKm))
	cy := int(domain.KmToCell(yKm))
	for iy := domain.ClampIndex(cy - reach); iy <= domain.ClampIndex(cy+reach); iy++ {
		for ix := domain.ClampIndex(cx - reach); ix <= domain.ClampIndex(cx+reach); ix++ {
			dx := domain.CellToKm(ix) - xKm
			dy := domain.CellToKm(iy) - yKm
			v := domain.Baseline + amp*math.Exp(-(dx*dx+dy*dy)/(2*sigmaKm*sigmaKm))
			if v > g[iy][ix] {
				g[iy][ix] = v
			}
		}
	}
}
