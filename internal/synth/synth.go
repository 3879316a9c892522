// Package synth fabricates reflectivity frames. A frame is rendered from a
// handful of randomly instantiated features, each drawn from the site's
// region profile, plus a fixed ground-clutter block and some light
// background precipitation.
package synth

import (
	"fmt"
	"math"
	"time"

	"github.com/couchcryptid/storm-radar-sim/internal/domain"
	"github.com/couchcryptid/storm-radar-sim/internal/rng"
)

// Feature-count and placement bounds for one fabricated frame.
const (
	minFeatures = 2
	maxFeatures = 5

	// Feature centers stay inside ±120 km so footprints rarely fall
	// entirely off the 150 km domain.
	placementKm = 120
)

var archetypes = []domain.Structure{
	domain.StructureCircular,
	domain.StructureLinear,
	domain.StructureCluster,
	domain.StructureBanded,
	domain.StructureSupercell,
	domain.StructureSquallLine,
}

var stages = []domain.Stage{
	domain.StageDeveloping,
	domain.StageMature,
	domain.StageDissipating,
	domain.StageSteady,
}

// GenerateFrame synthesizes the grid valid at ts. All randomness comes from
// rs; calling twice with streams in the same state yields identical frames.
func GenerateFrame(ts time.Time, profile domain.RegionProfile, rs *rng.Stream) domain.Frame {
	grid := domain.NewReflectivityGrid()

	n := rs.UniformInt(minFeatures, maxFeatures)
	for i := 0; i < n; i++ {
		f := NewFeature(ts, profile, rs)
		RenderFeature(&grid, f, ts)
	}

	addGroundClutter(&grid)
	addLightPrecip(&grid, rs)
	grid.Clamp()

	return domain.Frame{Timestamp: ts, Data: grid, Quality: "good"}
}

// NewFeature instantiates one random feature from the profile's parameter
// ranges, alive around ts: born in the recent past, peaking and dying in the
// future.
func NewFeature(ts time.Time, profile domain.RegionProfile, rs *rng.Stream) domain.Feature {
	id := fmt.Sprintf("feat-%06x", rs.UniformInt(0, 0xffffff))

	structure := rng.Choice(rs, archetypes)
	x := rs.Uniform(-placementKm, placementKm)
	y := rs.Uniform(-placementKm, placementKm)
	size := rs.Uniform(8, 25)
	ecc := rs.Uniform(0.3, 0.9)
	orientation := rs.Uniform(0, math.Pi)
	maxIntensity := rs.Uniform(profile.IntensityMin, profile.IntensityMax)

	speed := rs.Uniform(profile.SpeedMinKmh, profile.SpeedMaxKmh)
	heading := rs.Uniform(profile.DirectionMinRad, profile.DirectionMaxRad)

	stage := rng.Choice(rs, stages)

	birth := ts.Add(-time.Duration(rs.Uniform(30, 120)) * time.Minute)
	peak := ts.Add(time.Duration(rs.Uniform(0, 60)) * time.Minute)
	death := peak.Add(time.Duration(rs.Uniform(60, 180)) * time.Minute)

	f := domain.Feature{
		ID:             id,
		XKm:            x,
		YKm:            y,
		SizeKm:         size,
		Eccentricity:   ecc,
		OrientationRad: orientation,
		UKmh:           speed * math.Sin(heading),
		VKmh:           speed * math.Cos(heading),
		MaxIntensity:   maxIntensity,
		Birth:          birth,
		Peak:           peak,
		Death:          death,
		Stage:          stage,
		Detail:         newDetail(structure, size, rs),

		GrowthRate:        growthRateFor(stage),
		AreaChangeRate:    areaRateFor(stage),
		ConvectiveDepthKm: (maxIntensity - domain.Baseline) / (domain.MaxIntensity - domain.Baseline) * 14,
	}
	if structure == domain.StructureSupercell {
		f.RotationRateRadH = rs.Uniform(0.2, 0.8)
	}
	f.CurrentIntensity = domain.Baseline + (maxIntensity-domain.Baseline)*f.LifecycleFactor(ts)
	return f
}

// newDetail draws the archetype-specific parameters.
func newDetail(s domain.Structure, sizeKm float64, rs *rng.Stream) domain.StructureDetail {
	switch s {
	case domain.StructureLinear:
		return domain.LinearDetail{LeadingEdgeBoost: rs.Uniform(1.2, 1.5)}
	case domain.StructureSquallLine:
		return domain.SquallLineDetail{LeadingEdgeBoost: rs.Uniform(1.3, 1.6)}
	case domain.StructureCluster:
		n := rs.UniformInt(3, 5)
		cells := make([]domain.SubCell, n)
		for i := range cells {
			cells[i] = domain.SubCell{
				DXKm:  rs.Uniform(-sizeKm, sizeKm),
				DYKm:  rs.Uniform(-sizeKm, sizeKm),
				Scale: rs.Uniform(0.5, 1.0),
			}
		}
		return domain.ClusterDetail{Cells: cells}
	case domain.StructureBanded:
		return domain.BandedDetail{RingSpacingKm: rs.Uniform(10, 25)}
	case domain.StructureSupercell:
		return domain.SupercellDetail{HookAngleRad: rs.Uniform(0, 2*math.Pi)}
	default:
		return domain.CircularDetail{}
	}
}

func growthRateFor(stage domain.Stage) float64 {
	switch stage {
	case domain.StageDeveloping:
		return 0.15
	case domain.StageDissipating:
		return -0.2
	default:
		return 0
	}
}

func areaRateFor(stage domain.Stage) float64 {
	switch stage {
	case domain.StageDeveloping:
		return 0.1
	case domain.StageDissipating:
		return 0.05 // dissipating cells spread as they weaken
	default:
		return 0
	}
}

// RenderFeature max-composites one feature onto the grid at render time t.
// A feature outside its [Birth, Death] window contributes nothing.
func RenderFeature(g *domain.Grid, f domain.Feature, t time.Time) {
	envelope := f.LifecycleFactor(t)
	if envelope <= 0 {
		return
	}
	amplitude := (f.MaxIntensity - domain.Baseline) * envelope
	if amplitude <= 0 {
		return
	}

	// Limit the scan to a bounding box around the footprint.
	reachKm := f.SizeKm * 4
	x0 := domain.ClampIndex(int(domain.KmToCell(f.XKm - reachKm)))
	x1 := domain.ClampIndex(int(domain.KmToCell(f.XKm+reachKm)) + 1)
	y0 := domain.ClampIndex(int(domain.KmToCell(f.YKm - reachKm)))
	y1 := domain.ClampIndex(int(domain.KmToCell(f.YKm+reachKm)) + 1)

	for iy := y0; iy <= y1; iy++ {
		for ix := x0; ix <= x1; ix++ {
			dx := domain.CellToKm(ix) - f.XKm
			dy := domain.CellToKm(iy) - f.YKm
			w := footprint(f, dx, dy)
			if w <= 0 {
				continue
			}
			v := domain.Baseline + amplitude*w
			if v > g[iy][ix] {
				g[iy][ix] = v
			}
		}
	}
}

// footprint evaluates the normalized archetype shape at an offset (dx, dy) km
// from the feature center. Edge boosts may push the result slightly above 1;
// the final grid clamp bounds the rendered value.
func footprint(f domain.Feature, dx, dy float64) float64 {
	switch d := f.Detail.(type) {
	case domain.LinearDetail:
		return bandFootprint(f, dx, dy, 2.5, d.LeadingEdgeBoost)
	case domain.SquallLineDetail:
		return bandFootprint(f, dx, dy, 3.5, d.LeadingEdgeBoost)
	case domain.ClusterDetail:
		return clusterFootprint(f, d, dx, dy)
	case domain.BandedDetail:
		return bandedFootprint(f, d, dx, dy)
	case domain.SupercellDetail:
		return supercellFootprint(f, d, dx, dy)
	default:
		return gaussianFootprint(f, dx, dy)
	}
}

// rotate transforms a domain offset into the feature's oriented frame.
func rotate(f domain.Feature, dx, dy float64) (along, across float64) {
	sin, cos := math.Sincos(f.OrientationRad)
	along = dx*cos + dy*sin
	across = -dx*sin + dy*cos
	return along, across
}

func gaussianFootprint(f domain.Feature, dx, dy float64) float64 {
	along, across := rotate(f, dx, dy)
	sigmaA := f.SizeKm
	sigmaC := f.SizeKm * (1 - 0.7*f.Eccentricity)
	return math.Exp(-0.5 * (along*along/(sigmaA*sigmaA) + across*across/(sigmaC*sigmaC)))
}

func bandFootprint(f domain.Feature, dx, dy, lengthFactor, edgeBoost float64) float64 {
	along, across := rotate(f, dx, dy)
	halfLen := f.SizeKm * lengthFactor
	width := f.SizeKm * 0.8
	if math.Abs(along) > halfLen {
		return 0
	}
	w := math.Exp(-(across/width)*(across/width)) * (1 - 0.3*math.Abs(along)/halfLen)
	if across > 0 {
		w *= edgeBoost
	}
	return w
}

func clusterFootprint(f domain.Feature, d domain.ClusterDetail, dx, dy float64) float64 {
	sigma := f.SizeKm * 0.45
	var best float64
	for _, cell := range d.Cells {
		cx := dx - cell.DXKm
		cy := dy - cell.DYKm
		w := cell.Scale * math.Exp(-(cx*cx+cy*cy)/(2*sigma*sigma))
		if w > best {
			best = w
		}
	}
	return best
}

func bandedFootprint(f domain.Feature, d domain.BandedDetail, dx, dy float64) float64 {
	r := math.Hypot(dx, dy)
	radial := math.Exp(-r * r / (2 * f.SizeKm * f.SizeKm))
	rings := 0.7 + 0.3*math.Cos(2*math.Pi*r/d.RingSpacingKm)
	return radial * rings
}

func supercellFootprint(f domain.Feature, d domain.SupercellDetail, dx, dy float64) float64 {
	r := math.Hypot(dx, dy)
	theta := math.Atan2(dy, dx)
	sigma := f.SizeKm

	w := math.Exp(-r * r / (2 * sigma * sigma))
	w *= 1 + 0.3*math.Sin(2*theta+r/sigma)
	if w < 0 {
		return 0
	}

	// Hook echo: boosted sector at mid radius.
	if r > 0.5*sigma && r < 1.5*sigma && angularDistance(theta, d.HookAngleRad) < 0.3 {
		w *= 1.4
	}
	return w
}

func angularDistance(a, b float64) float64 {
	d := math.Mod(a-b, 2*math.Pi)
	if d < -math.Pi {
		d += 2 * math.Pi
	} else if d > math.Pi {
		d -= 2 * math.Pi
	}
	return math.Abs(d)
}

// Fixed ground-clutter block: a permanent ridge return northeast of the
// radar, present in every frame.
const (
	clutterX0, clutterX1 = 50, 53
	clutterY0, clutterY1 = 44, 47
	clutterIntensity     = domain.Baseline + 6
)

func addGroundClutter(g *domain.Grid) {
	for iy := clutterY0; iy <= clutterY1; iy++ {
		for ix := clutterX0; ix <= clutterX1; ix++ {
			if clutterIntensity > g[iy][ix] {
				g[iy][ix] = clutterIntensity
			}
		}
	}
}

// addLightPrecip scatters a few weak circular returns so frames are never
// perfectly clean outside the main features.
func addLightPrecip(g *domain.Grid, rs *rng.Stream) {
	n := rs.UniformInt(2, 4)
	for i := 0; i < n; i++ {
		cx := float64(rs.UniformInt(5, domain.GridSize-6))
		cy := float64(rs.UniformInt(5, domain.GridSize-6))
		radius := rs.Uniform(2, 5)
		amp := rs.Uniform(4, 12)

		r := int(radius*2) + 1
		for iy := domain.ClampIndex(int(cy) - r); iy <= domain.ClampIndex(int(cy)+r); iy++ {
			for ix := domain.ClampIndex(int(cx) - r); ix <= domain.ClampIndex(int(cx)+r); ix++ {
				dx := float64(ix) - cx
				dy := float64(iy) - cy
				v := domain.Baseline + amp*math.Exp(-(dx*dx+dy*dy)/(2*radius*radius))
				if v > g[iy][ix] {
					g[iy][ix] = v
				}
			}
		}
	}
}
