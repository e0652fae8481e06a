// Package server implements the HTTP transport layer for restorehq.
package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	restorehq "github.com/eugener/restorehq/internal"
	"github.com/eugener/restorehq/internal/area"
	"github.com/eugener/restorehq/internal/contact"
	"github.com/eugener/restorehq/internal/ratelimit"
	"github.com/eugener/restorehq/internal/search"
	"github.com/eugener/restorehq/internal/telemetry"
)

// ReadyChecker reports whether the system is ready to serve traffic.
type ReadyChecker func(ctx context.Context) error

// Searcher runs site search queries.
type Searcher interface {
	Search(ctx context.Context, query string, opts search.Options) ([]restorehq.SearchResult, bool, error)
}

// LeadValidator turns a submitted form into a Lead.
type LeadValidator interface {
	Validate(f contact.Form) (*restorehq.Lead, error)
}

// LeadQueue accepts leads for background delivery.
type LeadQueue interface {
	Enqueue(lead *restorehq.Lead) bool
}

// HealthChecker probes the external services.
type HealthChecker interface {
	Check(ctx context.Context) restorehq.HealthReport
}

// Deps holds all dependencies for the HTTP server.
type Deps struct {
	Areas          *area.Registry
	Search         Searcher
	Validator      LeadValidator
	Leads          LeadQueue
	RateLimiter    *ratelimit.Registry // nil = no rate limiting
	Health         HealthChecker       // nil = always healthy
	ReadyCheck     ReadyChecker        // nil = always ready (for tests)
	Metrics        *telemetry.Metrics  // nil = no metrics
	MetricsHandler http.Handler        // nil = no /metrics route
	TrustProxy     bool                // take client IP from X-Forwarded-For
}

// New creates an http.Handler with all routes and middleware wired.
func New(deps Deps) http.Handler {
	s := &server{deps: deps}

	r := chi.NewRouter()

	// Global middleware
	r.Use(s.recovery)
	r.Use(s.requestID)
	r.Use(s.clientIP)
	r.Use(s.logging)
	if deps.Metrics != nil {
		r.Use(metricsMiddleware(deps.Metrics))
	}

	// System endpoints
	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)
	r.Get("/api/health", s.handleHealth)
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	r.Route("/areas", func(r chi.Router) {
		r.Get("/", s.handleListAreas)
		r.Post("/", s.handleCreateArea)
		r.Get("/check/{postcode}", s.handleCheckPostcode)
		r.Get("/{id}", s.handleGetArea)
		r.Patch("/{id}", s.handleUpdateArea)
	})

	r.Get("/search", s.handleSearch)
	r.Post("/contact", s.handleContact)

	return r
}

type server struct {
	deps Deps
}
