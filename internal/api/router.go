package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// Liveness probe (no auth, no JSON envelope)
	r.Get("/healthz", s.handleHealthz)

	// Prometheus exposition
	if s.prom != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.prom, promhttp.HandlerOpts{}))
	}

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health and system stats (no auth required for monitoring)
		r.Get("/health", s.handleHealth)
		r.Get("/system", s.handleSystem)

		// Device endpoints
		r.Route("/devices", func(r chi.Router) {
			r.Get("/", s.handleListDevices)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetDevice)
				r.Get("/state", s.handleGetDeviceState)
				r.Get("/history", s.handleGetDeviceHistory)

				// Mutating endpoints require the API key when configured.
				r.Group(func(r chi.Router) {
					r.Use(s.authMiddleware)

					r.Put("/settings", s.handleSetDeviceSettings)
					r.Post("/refresh", s.handleRefreshDevice)
					r.Post("/reboot", s.handleRebootDevice)
					r.Post("/factory_reset", s.handleFactoryReset)
				})
			})
		})
	})

	return r
}
