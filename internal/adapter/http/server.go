package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/storm-radar-sim/internal/domain"
	"github.com/couchcryptid/storm-radar-sim/internal/radar"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// BundleSource generates the radar bundle for a site.
type BundleSource interface {
	Generate(site domain.Site, hoursBack int) (domain.RadarBundle, error)
}

// Server exposes health, readiness, metrics, and radar bundle HTTP endpoints.
type Server struct {
	httpServer *http.Server
	source     BundleSource
	sites      map[string]domain.Site
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, and
// per-site radar routes.
func NewServer(addr string, ready ReadinessChecker, source BundleSource, sites []domain.Site, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	siteIndex := make(map[string]domain.Site, len(sites))
	for _, s := range sites {
		siteIndex[s.ID] = s
	}

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		source: source,
		sites:  siteIndex,
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /radar/{site}/historical", s.handleHistorical)
	mux.HandleFunc("GET /radar/{site}/prediction", s.handlePrediction)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func (s *Server) handleHistorical(w http.ResponseWriter, r *http.Request) {
	bundle, ok := s.lookupBundle(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, bundle.Historical)
}

func (s *Server) handlePrediction(w http.ResponseWriter, r *http.Request) {
	bundle, ok := s.lookupBundle(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, bundle.Prediction)
}

// lookupBundle resolves the site and hours query and generates (or serves the
// memoized) bundle. Writes the error response itself and returns ok=false on
// failure.
func (s *Server) lookupBundle(w http.ResponseWriter, r *http.Request) (domain.RadarBundle, bool) {
	site, ok := s.sites[r.PathValue("site")]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "unknown site: " + r.PathValue("site"),
		})
		return domain.RadarBundle{}, false
	}

	hours := 1
	if q := r.URL.Query().Get("hours"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "invalid hours: " + q,
			})
			return domain.RadarBundle{}, false
		}
		hours = n
	}

	bundle, err := s.source.Generate(site, hours)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, radar.ErrEmptySiteID) || errors.Is(err, radar.ErrInvalidLookback) {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return domain.RadarBundle{}, false
	}
	return bundle, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
