/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Request logging
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. Metrics:    Prometheus request counts and latency per route
  5. CORS:       Cross-origin requests for the dashboard frontend

ROUTE GROUPS:
  /api/health, /api/diagnostics, /api/controls   Status
  /api/dashboard, /api/aggregates/*              Aggregates
  /api/map                                       Choropleth
  /api/facts                                     Explore table
  /api/reload                                    Rebuild
  /metrics                                       Prometheus

SECURITY NOTE:
  No authentication middleware. The data is read-only; the only write is
  POST /api/reload, which re-reads the configured sources.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterOptions configures NewRouter.
type RouterOptions struct {
	AllowedOrigins []string
	// Quiet disables the request log line (tests).
	Quiet bool
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	if !opts.Quiet {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(h.metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)
		r.Get("/diagnostics", h.GetDiagnostics)
		r.Get("/controls", h.GetControls)
		r.Get("/dashboard", h.GetDashboard)

		r.Route("/aggregates", func(r chi.Router) {
			r.Get("/monthly", h.GetMonthly)
			r.Get("/reasons", h.GetReasons)
			r.Get("/delinquency", h.GetDelinquency)
			r.Get("/employment", h.GetEmployment)
			r.Get("/states", h.GetStates)
		})

		r.Get("/map", h.GetMap)
		r.Get("/facts", h.GetFacts)
		r.Post("/reload", h.ReloadBase)
	})

	r.Method(http.MethodGet, "/metrics", h.metrics.Handler())

	return r
}
