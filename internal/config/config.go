package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/storm-radar-sim/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers   []string
	KafkaSinkTopic string
	HTTPAddr       string
	LogLevel       string
	LogFormat      string

	ShutdownTimeout time.Duration
	PublishInterval time.Duration

	// LookbackHours is the historical window generated per site each cycle.
	LookbackHours int

	// Sites to simulate. Defaults to domain.DefaultSites; override with a
	// RADAR_SITES JSON array.
	Sites []domain.Site
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	publishInterval, err := parseDuration("PUBLISH_INTERVAL", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	lookback, err := parseInt("LOOKBACK_HOURS", 1)
	if err != nil {
		return nil, err
	}

	sites, err := parseSites()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		KafkaBrokers:    splitBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSinkTopic:  envOrDefault("KAFKA_SINK_TOPIC", "radar-bundles"),
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		PublishInterval: publishInterval,
		LookbackHours:   lookback,
		Sites:           sites,
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required")
	}
	if cfg.LookbackHours <= 0 {
		return nil, errors.New("LOOKBACK_HOURS must be positive")
	}
	if cfg.PublishInterval <= 0 {
		return nil, errors.New("PUBLISH_INTERVAL must be positive")
	}
	for _, s := range cfg.Sites {
		if s.ID == "" {
			return nil, errors.New("RADAR_SITES entries must have an id")
		}
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitBrokers(s string) []string {
	parts := strings.Split(s, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}

func parseDuration(key string, def time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}

func parseInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return n, nil
}

func parseSites() ([]domain.Site, error) {
	s := os.Getenv("RADAR_SITES")
	if s == "" {
		return domain.DefaultSites, nil
	}
	var sites []domain.Site
	if err := json.Unmarshal([]byte(s), &sites); err != nil {
		return nil, fmt.Errorf("invalid RADAR_SITES: %w", err)
	}
	if len(sites) == 0 {
		return nil, errors.New("RADAR_SITES must not be empty")
	}
	return sites, nil
}
