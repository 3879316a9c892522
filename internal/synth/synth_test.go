package synth

import (
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/storm-radar-sim/internal/domain"
	"github.com/couchcryptid/storm-radar-sim/internal/rng"
)

var frameTime = time.Date(2024, 6, 1, 15, 0, 0, 0, time.UTC)

func TestGenerateFrameStaysInRange(t *testing.T) {
	for _, lat := range []float64{25.76, 41.88} {
		profile := domain.ProfileForLatitude(lat)
		frame := GenerateFrame(frameTime, profile, rng.NewDaily("range-test", frameTime))

		for iy := 0; iy < domain.GridSize; iy++ {
			for ix := 0; ix < domain.GridSize; ix++ {
				v := frame.Data[iy][ix]
				require.GreaterOrEqual(t, v, domain.Baseline, "cell (%d,%d)", iy, ix)
				require.LessOrEqual(t, v, domain.MaxIntensity, "cell (%d,%d)", iy, ix)
			}
		}
	}
}

func TestGenerateFrameIsDeterministic(t *testing.T) {
	profile := domain.ProfileForLatitude(25.76)

	a := GenerateFrame(frameTime, profile, rng.NewDaily("mia-s", frameTime))
	b := GenerateFrame(frameTime, profile, rng.NewDaily("mia-s", frameTime))

	if diff := cmp.Diff(a.Data, b.Data); diff != "" {
		t.Errorf("frames differ (-a +b):\n%s", diff)
	}
	assert.Equal(t, "good", a.Quality)
	assert.Equal(t, frameTime, a.Timestamp)
}

func TestGenerateFrameDiffersAcrossSites(t *testing.T) {
	profile := domain.ProfileForLatitude(25.76)

	a := GenerateFrame(frameTime, profile, rng.NewDaily("mia-s", frameTime))
	b := GenerateFrame(frameTime, profile, rng.NewDaily("ord-s", frameTime))

	assert.NotEqual(t, a.Data, b.Data)
}

func TestGenerateFrameHasPrecipitation(t *testing.T) {
	profile := domain.ProfileForLatitude(25.76)
	frame := GenerateFrame(frameTime, profile, rng.NewDaily("mia-s", frameTime))

	assert.Greater(t, frame.Data.AnomalySum(), 0.0, "frame should not be empty")
}

func TestGenerateFrameContainsGroundClutter(t *testing.T) {
	profile := domain.ProfileForLatitude(41.88)
	frame := GenerateFrame(frameTime, profile, rng.NewDaily("clutter", frameTime))

	for iy := clutterY0; iy <= clutterY1; iy++ {
		for ix := clutterX0; ix <= clutterX1; ix++ {
			assert.GreaterOrEqual(t, frame.Data[iy][ix], clutterIntensity)
		}
	}
}

func TestNewFeatureRespectsProfile(t *testing.T) {
	profile := domain.ProfileForLatitude(25.76)
	rs := rng.New(42)

	for i := 0; i < 50; i++ {
		f := NewFeature(frameTime, profile, rs)

		assert.GreaterOrEqual(t, f.MaxIntensity, profile.IntensityMin)
		assert.Less(t, f.MaxIntensity, profile.IntensityMax)

		assert.GreaterOrEqual(t, f.SizeKm, 8.0)
		assert.Less(t, f.SizeKm, 25.0)

		assert.GreaterOrEqual(t, f.XKm, -120.0)
		assert.Less(t, f.XKm, 120.0)
		assert.GreaterOrEqual(t, f.YKm, -120.0)
		assert.Less(t, f.YKm, 120.0)

		assert.True(t, f.Birth.Before(frameTime), "born in the past")
		assert.False(t, f.Peak.Before(frameTime), "peaks now or later")
		assert.True(t, f.Death.After(f.Peak), "dies after peaking")
	}
}

func TestNewFeatureSupercellRotates(t *testing.T) {
	profile := domain.ProfileForLatitude(25.76)
	rs := rng.New(7)

	var sawSupercell bool
	for i := 0; i < 200 && !sawSupercell; i++ {
		f := NewFeature(frameTime, profile, rs)
		if f.Structure() != domain.StructureSupercell {
			assert.Zero(t, f.RotationRateRadH)
			continue
		}
		sawSupercell = true
		assert.Greater(t, f.RotationRateRadH, 0.0)
		_, ok := f.Detail.(domain.SupercellDetail)
		assert.True(t, ok)
	}
	require.True(t, sawSupercell, "expected at least one supercell in 200 draws")
}

func TestRenderFeaturePeaksAtCenter(t *testing.T) {
	g := domain.NewReflectivityGrid()
	f := domain.Feature{
		ID:           "centered",
		SizeKm:       15,
		Eccentricity: 0,
		MaxIntensity: 130,
		Birth:        frameTime.Add(-time.Hour),
		Peak:         frameTime,
		Death:        frameTime.Add(time.Hour),
		Detail:       domain.CircularDetail{},
	}

	RenderFeature(&g, f, frameTime)

	v, ix, iy := g.Max()
	// At its peak the envelope is 1, so the center cell carries the full
	// intensity. The feature sits at the grid center between indices 31/32.
	assert.InDelta(t, 130.0, v, 1.0)
	assert.InDelta(t, 31.5, float64(ix), 1.0)
	assert.InDelta(t, 31.5, float64(iy), 1.0)
}

func TestRenderFeatureOutsideLifetimeIsNoop(t *testing.T) {
	g := domain.NewReflectivityGrid()
	f := domain.Feature{
		SizeKm:       15,
		MaxIntensity: 130,
		Birth:        frameTime.Add(time.Hour),
		Peak:         frameTime.Add(2 * time.Hour),
		Death:        frameTime.Add(3 * time.Hour),
		Detail:       domain.CircularDetail{},
	}

	RenderFeature(&g, f, frameTime)

	assert.Zero(t, g.AnomalySum())
}

func TestRenderFeatureMaxComposites(t *testing.T) {
	g := domain.NewReflectivityGrid()
	strong := domain.Feature{
		SizeKm:       12,
		MaxIntensity: 140,
		Birth:        frameTime.Add(-time.Hour),
		Peak:         frameTime,
		Death:        frameTime.Add(time.Hour),
		Detail:       domain.CircularDetail{},
	}
	weak := strong
	weak.MaxIntensity = 100

	RenderFeature(&g, strong, frameTime)
	before, _, _ := g.Max()
	RenderFeature(&g, weak, frameTime)
	after, _, _ := g.Max()

	assert.Equal(t, before, after, "weaker overlapping feature must not reduce the peak")
}

func TestBandFootprintLeadingEdgeBoost(t *testing.T) {
	f := domain.Feature{
		SizeKm: 10,
		Detail: domain.LinearDetail{LeadingEdgeBoost: 1.4},
	}

	leading := footprint(f, 0, 3)
	trailing := footprint(f, 0, -3)

	assert.Greater(t, leading, trailing)
}

func TestBandFootprintCutsOffBeyondLength(t *testing.T) {
	f := domain.Feature{
		SizeKm: 10,
		Detail: domain.SquallLineDetail{LeadingEdgeBoost: 1.5},
	}

	// Squall half-length is size*3.5 = 35 km along the band axis.
	assert.Greater(t, footprint(f, 30, 0), 0.0)
	assert.Zero(t, footprint(f, 40, 0))
}

func TestClusterFootprintTakesMaxOverCells(t *testing.T) {
	f := domain.Feature{
		SizeKm: 10,
		Detail: domain.ClusterDetail{Cells: []domain.SubCell{
			{DXKm: -8, DYKm: 0, Scale: 0.6},
			{DXKm: 8, DYKm: 0, Scale: 1.0},
		}},
	}

	atStrong := footprint(f, 8, 0)
	atWeak := footprint(f, -8, 0)

	assert.InDelta(t, 1.0, atStrong, 1e-9)
	assert.InDelta(t, 0.6, atWeak, 1e-3)
}

func TestBandedFootprintOscillates(t *testing.T) {
	f := domain.Feature{
		SizeKm: 20,
		Detail: domain.BandedDetail{RingSpacingKm: 10},
	}

	radial := func(r float64) float64 {
		return math.Exp(-r * r / (2 * f.SizeKm * f.SizeKm))
	}

	// The ring term peaks at full ring spacings and bottoms out between them.
	assert.InDelta(t, 1.0, footprint(f, 10, 0)/radial(10), 1e-9)
	assert.InDelta(t, 0.4, footprint(f, 5, 0)/radial(5), 1e-9)
}
