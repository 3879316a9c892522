package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"

	httpadapter "github.com/couchcryptid/storm-radar-sim/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/storm-radar-sim/internal/adapter/kafka"
	"github.com/couchcryptid/storm-radar-sim/internal/config"
	"github.com/couchcryptid/storm-radar-sim/internal/observability"
	"github.com/couchcryptid/storm-radar-sim/internal/pipeline"
	"github.com/couchcryptid/storm-radar-sim/internal/radar"
)

func main() {
	// Load .env for local development; environment always wins.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	engine := radar.NewEngine(clockwork.NewRealClock(), metrics, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)

	p := pipeline.New(engine, writer, logger, metrics, cfg.Sites, cfg.LookbackHours, cfg.PublishInterval)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, engine, cfg.Sites, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start publish pipeline.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	logger.Info("shutdown complete")
}
