package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// simulation engine and the publish pipeline.
type Metrics struct {
	// Generation metrics.
	FramesGenerated  prometheus.Counter
	CacheLookups     *prometheus.CounterVec // labels: result={hit,miss}
	ForecastDuration prometheus.Histogram
	ForecastSteps    *prometheus.CounterVec // labels: regime={nowcast,blended,model}

	// Publish pipeline metrics.
	BundlesPublished prometheus.Counter
	PublishErrors    prometheus.Counter
	CycleDuration    prometheus.Histogram
	PipelineRunning  prometheus.Gauge
}

// NewMetrics creates and registers all metrics with the default Prometheus
// registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.FramesGenerated,
		m.CacheLookups,
		m.ForecastDuration,
		m.ForecastSteps,
		m.BundlesPublished,
		m.PublishErrors,
		m.CycleDuration,
		m.PipelineRunning,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		FramesGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "radar_sim",
			Name:      "frames_generated_total",
			Help:      "Total synthetic reflectivity frames rendered.",
		}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "radar_sim",
			Name:      "bundle_cache_lookups_total",
			Help:      "Bundle cache lookups by result.",
		}, []string{"result"}),
		ForecastDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "radar_sim",
			Name:      "forecast_duration_seconds",
			Help:      "Duration of one full generate-and-forecast run.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		ForecastSteps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "radar_sim",
			Name:      "forecast_steps_total",
			Help:      "Forecast steps produced, by regime.",
		}, []string{"regime"}),
		BundlesPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "radar_sim",
			Name:      "bundles_published_total",
			Help:      "Total bundles written to the sink topic.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "radar_sim",
			Name:      "publish_errors_total",
			Help:      "Total failed publish attempts.",
		}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "radar_sim",
			Name:      "publish_cycle_duration_seconds",
			Help:      "Duration of a complete generate-and-publish cycle over all sites.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "radar_sim",
			Name:      "pipeline_running",
			Help:      "1 when the publish loop is active, 0 when shut down.",
		}),
	}
}
