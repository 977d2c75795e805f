package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kkalbot/kkalbot/internal/ledger"
	mw "github.com/kkalbot/kkalbot/internal/middleware"
)

// NewRouter wires the admin surface: health probes, Prometheus metrics and
// the ledger endpoints.
func NewRouter(store ledger.Store, h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(mw.SecurityHeaders)
	r.Use(mw.Metrics)

	// Liveness probe — always 200, no dependency checks
	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		JSON(w, http.StatusOK, map[string]string{"status": "alive"})
	})

	// Readiness probe — checks the ledger store
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := store.Ping(ctx); err != nil {
			JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "store": "unhealthy"})
			return
		}
		JSON(w, http.StatusOK, map[string]string{"status": "healthy", "store": "healthy"})
	})

	// Prometheus metrics
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/ledger/{key}", func(r chi.Router) {
		r.Get("/", h.GetStatus)
		r.Put("/limit", h.SetLimit)
		r.Post("/reset", h.ResetToday)
	})

	return r
}
