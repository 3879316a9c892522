// Command validate performs end-to-end integrity checks on generated radar
// bundles: reflectivity range, determinism, history pacing, forecast
// confidence behavior, and output shape. It regenerates bundles for every
// default site under a fixed clock and exits non-zero on any violation.
//
// Usage:
//
//	go run ./cmd/validate -hours 1 -at 2024-06-01T15:00:00Z
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/storm-radar-sim/internal/domain"
	"github.com/couchcryptid/storm-radar-sim/internal/forecast"
	"github.com/couchcryptid/storm-radar-sim/internal/observability"
	"github.com/couchcryptid/storm-radar-sim/internal/radar"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	hours := flag.Int("hours", 1, "lookback hours per bundle")
	at := flag.String("at", "2024-06-01T15:00:00Z", "fixed generation time (RFC3339)")
	flag.Parse()

	now, err := time.Parse(time.RFC3339, *at)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: invalid -at: %v\n", err)
		os.Exit(1)
	}

	if code := run(now, *hours); code != 0 {
		os.Exit(code)
	}
}

func run(now time.Time, hours int) int {
	fmt.Println("=== Radar Bundle Integrity Validation ===")
	fmt.Println()

	newEngine := func() *radar.Engine {
		return radar.NewEngine(
			clockwork.NewFakeClockAt(now),
			observability.NewMetricsForTesting(),
			slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})),
		)
	}

	var phases []*phase
	for _, site := range domain.DefaultSites {
		first, err := newEngine().Generate(site, hours)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: generate %s: %v\n", site.ID, err)
			return 1
		}
		second, err := newEngine().Generate(site, hours)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: regenerate %s: %v\n", site.ID, err)
			return 1
		}

		phases = append(phases,
			validateRange(site, first),
			validateHistory(site, first, now, hours),
			validateForecast(site, first),
			validateDeterminism(site, first, second),
		)
	}

	// ── Report results ──
	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-48s %s\n", p.name, status)
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Phase 1: Reflectivity Range ──
// Every cell of every frame, historical and predicted, stays in
// [Baseline, MaxIntensity].

func validateRange(site domain.Site, bundle domain.RadarBundle) *phase {
	p := &phase{name: site.ID + ": Reflectivity Range"}

	for i, f := range bundle.Historical.Frames {
		checkGridRange(p, fmt.Sprintf("historical frame %d", i), f.Data)
	}
	for _, s := range bundle.Steps {
		checkGridRange(p, fmt.Sprintf("forecast +%dmin", s.LeadMinutes), s.Data.Rows())
	}
	return p
}

func checkGridRange(p *phase, label string, rows [][]float64) {
	for iy, row := range rows {
		for ix, v := range row {
			if v < domain.Baseline || v > domain.MaxIntensity {
				p.errorf("%s: cell (%d,%d) = %g outside [%g, %g]",
					label, iy, ix, v, domain.Baseline, domain.MaxIntensity)
				return
			}
		}
	}
}

// ── Phase 2: History Pacing ──
// Frame count, ordering, and the window spanning exactly the lookback.

func validateHistory(site domain.Site, bundle domain.RadarBundle, now time.Time, hours int) *phase {
	p := &phase{name: site.ID + ": History Pacing"}

	wantFrames := hours * 12
	if wantFrames > 20 {
		wantFrames = 20
	}
	if bundle.Historical.TotalFrames != wantFrames {
		p.errorf("total_frames: expected %d, got %d", wantFrames, bundle.Historical.TotalFrames)
	}
	if len(bundle.Historical.Frames) != bundle.Historical.TotalFrames {
		p.errorf("frames length %d != total_frames %d", len(bundle.Historical.Frames), bundle.Historical.TotalFrames)
	}
	if len(bundle.Historical.Frames) == 0 {
		return p
	}

	wantStart := now.UTC().Add(-time.Duration(hours) * time.Hour).Format(time.RFC3339)
	wantEnd := now.UTC().Format(time.RFC3339)
	if bundle.Historical.TimeRange.Start != wantStart {
		p.errorf("time_range.start: expected %s, got %s", wantStart, bundle.Historical.TimeRange.Start)
	}
	if bundle.Historical.TimeRange.End != wantEnd {
		p.errorf("time_range.end: expected %s, got %s", wantEnd, bundle.Historical.TimeRange.End)
	}

	prev := ""
	for i, f := range bundle.Historical.Frames {
		if f.Timestamp <= prev {
			p.errorf("frame %d: timestamp %s not after %s", i, f.Timestamp, prev)
		}
		prev = f.Timestamp
	}
	return p
}

// ── Phase 3: Forecast Behavior ──
// Confidence decreases within each regime, spread is non-negative, and the
// prediction bundle shape matches the grid.

func validateForecast(site domain.Site, bundle domain.RadarBundle) *phase {
	p := &phase{name: site.ID + ": Forecast Behavior"}

	lastConf := map[string]float64{}
	for _, s := range bundle.Steps {
		regime := forecast.Regime(s.LeadMinutes)
		if prev, ok := lastConf[regime]; ok && s.Confidence > prev {
			p.errorf("+%dmin: confidence %g rose above %g within %s regime", s.LeadMinutes, s.Confidence, prev, regime)
		}
		lastConf[regime] = s.Confidence

		if s.Confidence < 0 || s.Confidence > 1 {
			p.errorf("+%dmin: confidence %g outside [0, 1]", s.LeadMinutes, s.Confidence)
		}

		for iy := 0; iy < domain.GridSize; iy++ {
			for ix := 0; ix < domain.GridSize; ix++ {
				if s.Spread[iy][ix] < 0 {
					p.errorf("+%dmin: negative spread at (%d,%d)", s.LeadMinutes, iy, ix)
					break
				}
			}
		}
	}

	if len(bundle.Prediction.PredictionFrames) != len(bundle.Steps) {
		p.errorf("prediction_frames length %d != steps %d", len(bundle.Prediction.PredictionFrames), len(bundle.Steps))
	}
	for i, lead := range bundle.Prediction.PredictionFrames {
		if len(lead) != domain.GridSize {
			p.errorf("prediction frame %d: %d rows, expected %d", i, len(lead), domain.GridSize)
			break
		}
		if len(lead[0]) != domain.GridSize || len(lead[0][0]) != 1 {
			p.errorf("prediction frame %d: unexpected inner shape", i)
			break
		}
	}
	return p
}

// ── Phase 4: Determinism ──
// Two fresh engines at the same clock time produce identical bundles.

func validateDeterminism(site domain.Site, first, second domain.RadarBundle) *phase {
	p := &phase{name: site.ID + ": Determinism"}

	if diff := cmp.Diff(first.Historical, second.Historical); diff != "" {
		p.errorf("historical bundles differ (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(first.Prediction, second.Prediction); diff != "" {
		p.errorf("prediction bundles differ (-first +second):\n%s", diff)
	}
	return p
}
