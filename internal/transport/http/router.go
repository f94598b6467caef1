// Package http exposes the pipeline's result tables over a JSON API:
// gap lists, periodic counts, forecasts, plus health and metrics
// endpoints.
package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lendlib/internal/config"
	"lendlib/internal/middleware"
	"lendlib/internal/services"
)

// NewRouter builds the API router with the full middleware chain.
func NewRouter(logger *slog.Logger, cfg *config.Config, svc *services.ResultsService, reg *prometheus.Registry) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.StructuredLogger(logger))
	r.Use(middleware.NewMetrics(reg).Handler)
	r.Use(middleware.Recoverer(logger))

	if cfg.Server.RateLimit.Enabled {
		rl := middleware.NewRateLimiter(cfg.Server.RateLimit.RPS, cfg.Server.RateLimit.Burst, logger)
		r.Use(rl.Handler)
	}

	results := NewResultsHandler(logger, svc)
	health := NewHealthHandler(logger)

	r.Get("/healthz", health.Check)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/run", results.Run)
		r.Get("/gaps", results.Gaps)
		r.Get("/gaps/skipped", results.SkippedGaps)
		r.Get("/counts/weekly", results.WeeklyCounts)
		r.Get("/counts/logbook-weekly", results.WeeklyLogbookCounts)
		r.Get("/counts/yearly", results.YearlyCounts)
		r.Get("/forecasts", results.Forecasts)
	})

	return r
}
