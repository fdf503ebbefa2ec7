package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hyperengineering/healthcache/internal/observability"
)

// NewRouter creates a new router with all routes configured
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware)
	r.Use(RecoveryMiddleware)

	if h.metrics {
		r.Handle("/metrics", observability.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", h.Health)

		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(h.apiKey))

			r.Get("/kinds", h.ListKinds)
			r.Get("/kinds/{kind}/latest", h.LatestPoint)
			r.Get("/nutrition/{nutrient}", h.DailyAggregate)
			r.Get("/categories", h.ListCategories)
			r.Get("/categories/{category}", h.Category)
			r.Get("/snapshot", h.Snapshot)

			r.Get("/sync/status", h.SyncStatus)
			r.Get("/sync/runs", h.ListSyncRuns)
			r.Get("/sync/runs/{id}", h.GetSyncRun)
			// Each trigger can pull the whole dataset.
			r.With(h.syncRate.Middleware).Post("/sync", h.TriggerSync)
		})
	})

	return r
}
