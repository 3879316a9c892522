// Package radar is the public entry point of the simulation core. The Engine
// fabricates a site's radar history, runs the forecaster over the most
// recent frames, and memoizes the assembled bundles per (site, lookback).
package radar

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/storm-radar-sim/internal/domain"
	"github.com/couchcryptid/storm-radar-sim/internal/forecast"
	"github.com/couchcryptid/storm-radar-sim/internal/observability"
	"github.com/couchcryptid/storm-radar-sim/internal/rng"
	"github.com/couchcryptid/storm-radar-sim/internal/synth"
)

// Boundary validation errors. The core itself cannot fail on well-formed
// input; malformed input is rejected here, once, and nowhere below.
var (
	ErrEmptySiteID     = errors.New("site id must not be empty")
	ErrInvalidLookback = errors.New("lookback hours must be positive")
)

const (
	// framesPerHour paces the fabricated history; maxHistoryFrames caps it
	// for long lookbacks.
	framesPerHour    = 12
	maxHistoryFrames = 20

	// forecastInputFrames is how many of the newest frames feed the forecaster.
	forecastInputFrames = 5
)

// Engine generates and memoizes radar bundles. Construct one per process
// with NewEngine; the zero value is not usable.
type Engine struct {
	clock   clockwork.Clock
	metrics *observability.Metrics
	logger  *slog.Logger
	cache   *bundleCache
}

// NewEngine creates an Engine. The clock determines both frame timestamps
// and the UTC calendar day that seeds the generation stream.
func NewEngine(clock clockwork.Clock, metrics *observability.Metrics, logger *slog.Logger) *Engine {
	return &Engine{
		clock:   clock,
		metrics: metrics,
		logger:  logger,
		cache:   newBundleCache(),
	}
}

// Generate returns the historical and prediction bundles for a site,
// fabricating them on first use and serving the memoized result afterwards.
// Identical (site id, UTC date, hoursBack) inputs produce identical output.
func (e *Engine) Generate(site domain.Site, hoursBack int) (domain.RadarBundle, error) {
	if site.ID == "" {
		return domain.RadarBundle{}, ErrEmptySiteID
	}
	if hoursBack <= 0 {
		return domain.RadarBundle{}, fmt.Errorf("%w: %d", ErrInvalidLookback, hoursBack)
	}

	key := fmt.Sprintf("%s|%d", site.ID, hoursBack)
	bundle, hit := e.cache.getOrCreate(key, func() domain.RadarBundle {
		return e.build(site, hoursBack)
	})
	if hit {
		e.metrics.CacheLookups.WithLabelValues("hit").Inc()
	} else {
		e.metrics.CacheLookups.WithLabelValues("miss").Inc()
	}
	return bundle, nil
}

// build runs one full generation: history, forecast, bundle assembly.
func (e *Engine) build(site domain.Site, hoursBack int) domain.RadarBundle {
	start := e.clock.Now()
	now := start.UTC()

	stream := rng.NewDaily(site.ID, now)
	profile := domain.ProfileForLatitude(site.Latitude)

	frames := e.buildHistory(site, profile, now, hoursBack, stream)

	recent := frames
	if len(recent) > forecastInputFrames {
		recent = recent[len(recent)-forecastInputFrames:]
	}

	steps := forecast.Predict(recent, site, profile, forecast.DefaultParams, stream)
	for _, s := range steps {
		e.metrics.ForecastSteps.WithLabelValues(forecast.Regime(s.LeadMinutes)).Inc()
	}
	e.metrics.ForecastDuration.Observe(e.clock.Since(start).Seconds())

	e.logger.Info("radar bundle generated",
		"site", site.ID,
		"region", string(profile.Type),
		"hours_back", hoursBack,
		"frames", len(frames),
		"forecast_steps", len(steps),
	)

	return domain.RadarBundle{
		Historical: assembleHistorical(site, frames),
		Prediction: assemblePrediction(site, now, steps),
		Steps:      steps,
	}
}

// buildHistory fabricates min(hoursBack×12, 20) frames evenly spaced across
// [now − hoursBack, now], ending exactly at now.
func (e *Engine) buildHistory(site domain.Site, profile domain.RegionProfile, now time.Time, hoursBack int, stream *rng.Stream) []domain.Frame {
	n := hoursBack * framesPerHour
	if n > maxHistoryFrames {
		n = maxHistoryFrames
	}

	span := time.Duration(hoursBack) * time.Hour
	step := span / time.Duration(n-1)
	first := now.Add(-span)

	frames := make([]domain.Frame, 0, n)
	for i := 0; i < n; i++ {
		ts := first.Add(time.Duration(i) * step)
		if i == n-1 {
			ts = now
		}
		frames = append(frames, synth.GenerateFrame(ts, profile, stream))
		e.metrics.FramesGenerated.Inc()
	}
	return frames
}

func assembleHistorical(site domain.Site, frames []domain.Frame) domain.HistoricalBundle {
	coords := domain.CoverageFor(site)

	out := make([]domain.HistoricalFrame, 0, len(frames))
	for i := range frames {
		out = append(out, domain.HistoricalFrame{
			Timestamp:      frames[i].Timestamp.Format(time.RFC3339),
			Data:           frames[i].Data.Rows(),
			Coordinates:    coords,
			IntensityRange: [2]float64{0, domain.MaxIntensity},
			DataQuality:    frames[i].Quality,
		})
	}

	return domain.HistoricalBundle{
		Success:     true,
		SiteInfo:    domain.InfoFor(site),
		Frames:      out,
		TotalFrames: len(out),
		TimeRange: domain.TimeRange{
			Start: frames[0].Timestamp.Format(time.RFC3339),
			End:   frames[len(frames)-1].Timestamp.Format(time.RFC3339),
		},
	}
}

func assemblePrediction(site domain.Site, now time.Time, steps []domain.PredictionFrame) domain.PredictionBundle {
	leads := make([][][][]float64, 0, len(steps))
	for i := range steps {
		rows := make([][][]float64, domain.GridSize)
		for iy := 0; iy < domain.GridSize; iy++ {
			cols := make([][]float64, domain.GridSize)
			for ix := 0; ix < domain.GridSize; ix++ {
				cols[ix] = []float64{steps[i].Data[iy][ix]}
			}
			rows[iy] = cols
		}
		leads = append(leads, rows)
	}

	return domain.PredictionBundle{
		Success:             true,
		SiteInfo:            domain.InfoFor(site),
		PredictionFrames:    leads,
		PredictionTimestamp: now.Format(time.RFC3339),
	}
}
