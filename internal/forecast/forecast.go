// Package forecast produces the multi-horizon precipitation forecast. Three
// lead-time regimes apply increasingly synthetic methods: pure advection of
// the latest frame (nowcast, ≤2 h), a blend of advection and explicit
// feature evolution (≤6 h), and climatological fabrication beyond that.
// Every step is finished by the ensemble/uncertainty module.
package forecast

import (
	"math"
	"time"

	"github.com/couchcryptid/storm-radar-sim/internal/domain"
	"github.com/couchcryptid/storm-radar-sim/internal/flow"
	"github.com/couchcryptid/storm-radar-sim/internal/rng"
	"github.com/couchcryptid/storm-radar-sim/internal/track"
)

// Regime boundaries in minutes of lead time.
const (
	nowcastLimitMin = 120
	blendedLimitMin = 360
)

// Regime names, used as metric labels and in validation output.
const (
	RegimeNowcast = "nowcast"
	RegimeBlended = "blended"
	RegimeModel   = "model"
)

// Regime reports which forecasting regime covers a lead time.
func Regime(leadMinutes int) string {
	switch {
	case leadMinutes <= nowcastLimitMin:
		return RegimeNowcast
	case leadMinutes <= blendedLimitMin:
		return RegimeBlended
	default:
		return RegimeModel
	}
}

// Params bounds the forecast horizon and step interval.
type Params struct {
	Horizon time.Duration
	Step    time.Duration
}

// DefaultParams is the production configuration: one hour at 10-minute steps.
var DefaultParams = Params{Horizon: time.Hour, Step: 10 * time.Minute}

// Predict generates the ordered sequence of prediction frames for every lead
// time up to the horizon. history holds the most recent frames, oldest
// first; at most the last five are used. The sequence is stateless: re-running
// with the same inputs and stream state reproduces it exactly.
func Predict(history []domain.Frame, site domain.Site, profile domain.RegionProfile, params Params, rs *rng.Stream) []domain.PredictionFrame {
	if len(history) == 0 {
		return nil
	}
	if len(history) > 5 {
		history = history[len(history)-5:]
	}

	base := history[len(history)-1]

	motion := domain.ZeroMotionField()
	if len(history) >= 2 {
		prev := history[len(history)-2]
		elapsed := base.Timestamp.Sub(prev.Timestamp).Hours()
		motion = flow.Estimate(&prev.Data, &base.Data, elapsed)
	}

	features := track.ExtractFeatures(base, &motion, rs)

	steps := int(params.Horizon / params.Step)
	frames := make([]domain.PredictionFrame, 0, steps)
	for i := 1; i <= steps; i++ {
		lead := time.Duration(i) * params.Step
		leadMin := int(lead / time.Minute)
		ts := base.Timestamp.Add(lead)

		var raw domain.Grid
		var confidence float64
		switch Regime(leadMin) {
		case RegimeNowcast:
			raw, confidence = nowcastStep(&base.Data, &motion, leadMin)
		case RegimeBlended:
			raw, confidence = blendedStep(&base.Data, &motion, features, site, profile, ts, leadMin, rs)
		default:
			raw, confidence = modelStep(history, features, site, ts, leadMin, rs)
		}

		result := applyEnsemble(&raw, 1-confidence, leadMin, rs)
		frames = append(frames, domain.PredictionFrame{
			LeadMinutes: leadMin,
			Timestamp:   ts,
			Data:        result.Mean,
			Uncertainty: result.Uncertainty,
			Spread:      result.Spread,
			Confidence:  confidence,
		})
	}
	return frames
}

// nowcastStep advects the base frame along the motion field and applies the
// cascade decay. Confidence falls linearly 1.0 → 0.9 across the window.
func nowcastStep(base *domain.Grid, motion *domain.MotionField, leadMin int) (domain.Grid, float64) {
	grid := advect(base, motion, leadMin)
	applyCascade(&grid, leadMin)
	confidence := 1.0 - 0.1*float64(leadMin)/nowcastLimitMin
	return grid, confidence
}

// blendedStep mixes the advected frame with explicitly evolved features,
// weight rising linearly 0 → 1 across the window, then injects new
// convective cells. Confidence falls linearly 0.9 → 0.6.
func blendedStep(base *domain.Grid, motion *domain.MotionField, features []domain.Feature, site domain.Site, profile domain.RegionProfile, ts time.Time, leadMin int, rs *rng.Stream) (domain.Grid, float64) {
	adv := advect(base, motion, leadMin)
	applyCascade(&adv, leadMin)

	evolved := renderEvolved(features, ts, leadMin)

	w := float64(leadMin-nowcastLimitMin) / float64(blendedLimitMin-nowcastLimitMin)
	var grid domain.Grid
	for iy := range grid {
		for ix := range grid[iy] {
			grid[iy][ix] = (1-w)*adv[iy][ix] + w*evolved[iy][ix]
		}
	}

	injectConvection(&grid, site, profile, ts, leadMin, rs)

	confidence := 0.9 - 0.3*w
	return grid, confidence
}

// modelStep fabricates the long-range field: decayed and spread existing
// features, climatological cells in favorable zones, and a whole-grid
// diurnal factor. Confidence declines toward a 0.2 floor.
func modelStep(history []domain.Frame, features []domain.Feature, site domain.Site, ts time.Time, leadMin int, rs *rng.Stream) (domain.Grid, float64) {
	grid := domain.NewReflectivityGrid()

	elapsedHours := float64(leadMin) / 60
	for _, f := range features {
		renderFeatureAt(&grid, decayLongTerm(f, elapsedHours), ts)
	}

	addClimatology(&grid, history, leadMin, rs)

	factor := 0.7 + 0.5*diurnalFactor(ts, site.Latitude, site.Longitude)
	for iy := range grid {
		for ix := range grid[iy] {
			grid[iy][ix] = domain.Baseline + (grid[iy][ix]-domain.Baseline)*factor
		}
	}

	confidence := 0.6 - 0.4*math.Min(1, float64(leadMin-blendedLimitMin)/1080)
	if confidence < 0.2 {
		confidence = 0.2
	}
	return grid, confidence
}

// advect moves the base field backward along the local motion vector
// (semi-Lagrangian: each target cell reads from where its air came from) and
// applies the exponential temporal decay.
func advect(base *domain.Grid, motion *domain.MotionField, leadMin int) domain.Grid {
	hours := float64(leadMin) / 60
	decay := math.Exp(-0.001 * float64(leadMin))

	var out domain.Grid
	for iy := 0; iy < domain.GridSize; iy++ {
		for ix := 0; ix < domain.GridSize; ix++ {
			srcX := float64(ix) - motion.U[iy][ix]*hours/domain.CellKm
			srcY := float64(iy) - motion.V[iy][ix]*hours/domain.CellKm
			v := base.Bilinear(srcX, srcY)
			out[iy][ix] = domain.Baseline + (v-domain.Baseline)*decay
		}
	}
	return out
}
