package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/storm-radar-sim/internal/domain"
	"github.com/couchcryptid/storm-radar-sim/internal/observability"
)

// Generator produces the radar bundle for a site over a lookback window.
type Generator interface {
	Generate(site domain.Site, hoursBack int) (domain.RadarBundle, error)
}

// Publisher delivers a generated bundle downstream.
type Publisher interface {
	Publish(ctx context.Context, site domain.Site, bundle domain.RadarBundle) error
}

// Pipeline orchestrates the generate-and-publish loop over the configured
// sites.
type Pipeline struct {
	generator Generator
	publisher Publisher
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool

	sites    []domain.Site
	lookback int
	interval time.Duration
}

// New creates a Pipeline with the given stages and observability.
func New(g Generator, p Publisher, logger *slog.Logger, metrics *observability.Metrics, sites []domain.Site, lookback int, interval time.Duration) *Pipeline {
	return &Pipeline{
		generator: g,
		publisher: p,
		logger:    logger,
		metrics:   metrics,
		sites:     sites,
		lookback:  lookback,
		interval:  interval,
	}
}

// CheckReadiness returns nil if the pipeline has published at least one
// bundle, or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not published any bundles yet")
	}
	return nil
}

// Run executes the publish loop until the context is cancelled. Each cycle
// generates and publishes one bundle per site, then sleeps for the configured
// interval.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started",
		"sites", len(p.sites),
		"lookback_hours", p.lookback,
		"interval", p.interval,
	)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	// Exponential backoff: start at 200ms, double each retry, cap at 5s.
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		default:
		}

		if !p.runCycle(ctx, &backoff, maxBackoff) {
			return nil
		}

		if !sleepWithContext(ctx, p.interval) {
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		}
	}
}

// runCycle generates and publishes one bundle per site. Returns false if the
// pipeline should stop.
func (p *Pipeline) runCycle(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	start := time.Now()
	published := 0

	for _, site := range p.sites {
		if ctx.Err() != nil {
			return false
		}

		bundle, err := p.generator.Generate(site, p.lookback)
		if err != nil {
			p.logger.Error("generate bundle failed", "error", err, "site", site.ID)
			p.metrics.PublishErrors.Inc()
			continue
		}

		if err := p.publisher.Publish(ctx, site, bundle); err != nil {
			if ctx.Err() != nil {
				return false
			}
			p.logger.Error("publish bundle failed", "error", err, "site", site.ID)
			p.metrics.PublishErrors.Inc()
			if !p.backoffOrStop(ctx, backoff, maxBackoff) {
				return false
			}
			continue
		}

		p.metrics.BundlesPublished.Inc()
		published++
		*backoff = 200 * time.Millisecond
	}

	if published > 0 {
		p.metrics.CycleDuration.Observe(time.Since(start).Seconds())
		p.ready.Store(true)
	}
	return true
}

// backoffOrStop checks for context cancellation, sleeps with the current
// backoff, and advances the backoff. Returns false if the pipeline should stop.
func (p *Pipeline) backoffOrStop(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if !sleepWithContext(ctx, *backoff) {
		return false
	}
	*backoff = nextBackoff(*backoff, maxBackoff)
	return true
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
