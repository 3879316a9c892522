// Command genfixtures generates radar bundle fixtures for test suites and
// downstream consumers. It runs the actual simulation engine under a fixed
// clock so the output is reproducible and matches real service behavior.
//
// Usage:
//
//	go run ./cmd/genfixtures \
//	  -out-dir data/fixtures \
//	  -hours 1 \
//	  -at 2024-06-01T15:00:00Z
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/storm-radar-sim/internal/domain"
	"github.com/couchcryptid/storm-radar-sim/internal/forecast"
	"github.com/couchcryptid/storm-radar-sim/internal/observability"
	"github.com/couchcryptid/storm-radar-sim/internal/radar"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	outDir := flag.String("out-dir", "", "output directory for bundle fixtures")
	hours := flag.Int("hours", 1, "lookback hours per bundle")
	at := flag.String("at", "2024-06-01T15:00:00Z", "fixed generation time (RFC3339)")
	flag.Parse()

	if *outDir == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out-dir")
	}

	now, err := time.Parse(time.RFC3339, *at)
	if err != nil {
		return fmt.Errorf("invalid -at: %w", err)
	}

	// Fixed clock for reproducible frames and seeds.
	clock := clockwork.NewFakeClockAt(now)
	engine := radar.NewEngine(clock, observability.NewMetricsForTesting(), slog.Default())

	for _, site := range domain.DefaultSites {
		bundle, err := engine.Generate(site, *hours)
		if err != nil {
			return fmt.Errorf("generate %s: %w", site.ID, err)
		}

		histPath := filepath.Join(*outDir, site.ID+"_historical.json")
		if err := writeJSON(histPath, bundle.Historical); err != nil {
			return fmt.Errorf("writing historical fixture: %w", err)
		}
		log.Printf("wrote %s", histPath)

		predPath := filepath.Join(*outDir, site.ID+"_prediction.json")
		if err := writeJSON(predPath, bundle.Prediction); err != nil {
			return fmt.Errorf("writing prediction fixture: %w", err)
		}
		log.Printf("wrote %s", predPath)

		printStats(site, bundle)
	}

	return nil
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

func printStats(site domain.Site, bundle domain.RadarBundle) {
	fmt.Printf("\n=== Stats for updating test assertions: %s ===\n", site.ID)
	fmt.Printf("Frames: %d\n", bundle.Historical.TotalFrames)
	fmt.Printf("Time range: %s .. %s\n", bundle.Historical.TimeRange.Start, bundle.Historical.TimeRange.End)

	var peak, total float64
	for _, f := range bundle.Historical.Frames {
		for _, row := range f.Data {
			for _, v := range row {
				total += v - domain.Baseline
				if v > peak {
					peak = v
				}
			}
		}
	}
	fmt.Printf("Peak intensity: %.1f\n", peak)
	fmt.Printf("Mean anomaly per frame: %.1f\n", total/float64(len(bundle.Historical.Frames)))

	fmt.Printf("Forecast steps: %d\n", len(bundle.Steps))
	for _, s := range bundle.Steps {
		fmt.Printf("  +%3dmin  regime=%-7s confidence=%.3f mean_spread=%.2f\n",
			s.LeadMinutes, forecast.Regime(s.LeadMinutes), s.Confidence, gridMean(s.Spread))
	}
}

func gridMean(g domain.Grid) float64 {
	var sum float64
	for iy := 0; iy < domain.GridSize; iy++ {
		for ix := 0; ix < domain.GridSize; ix++ {
			sum += g[iy][ix]
		}
	}
	return sum / float64(domain.GridSize*domain.GridSize)
}
