// Package restorehq defines domain types and interfaces for the restorehq
// lead-generation backend.
// This package has no project imports -- it is the dependency root.
package restorehq

import (
	"context"
	"time"
)

// --- Service areas ---

// ServiceArea is a postcode the business services.
type ServiceArea struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Postcode  string    `json:"postcode"` // 4-digit numeric string, unique per registry
	Active    bool      `json:"active"`   // inactive areas are never "serviced"
	CreatedAt time.Time `json:"created_at"`
}

// --- Search ---

// SearchKind classifies a search result.
type SearchKind string

const (
	KindService SearchKind = "service"
	KindArea    SearchKind = "area"
	KindArticle SearchKind = "article"
)

// ValidKind reports whether k is a known result kind. The empty kind matches all.
func ValidKind(k SearchKind) bool {
	switch k {
	case "", KindService, KindArea, KindArticle:
		return true
	}
	return false
}

// SearchResult is a single site search hit.
type SearchResult struct {
	Kind    SearchKind `json:"kind"`
	Title   string     `json:"title"`
	URL     string     `json:"url"`
	Snippet string     `json:"snippet,omitempty"`
	Score   int        `json:"score"`
}

// Service is an entry in the restoration service catalogue.
type Service struct {
	Slug        string   `json:"slug"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords,omitempty"`
}

// Article is a static content page indexed for search.
type Article struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Summary string `json:"summary"`
}

// --- Leads ---

// Urgency describes how quickly a lead wants a callback.
type Urgency string

const (
	UrgencyStandard  Urgency = "standard"
	UrgencyEmergency Urgency = "emergency"
)

// Lead is a validated contact-form submission.
type Lead struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Postcode  string    `json:"postcode"`
	Service   string    `json:"service,omitempty"`
	Urgency   Urgency   `json:"urgency"`
	Message   string    `json:"message"`
	Serviced  bool      `json:"serviced"`
	SourceIP  string    `json:"-"`
	RequestID string    `json:"request_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Notifier delivers a lead to an external system (lead inbox, CRM).
type Notifier interface {
	// Name returns the notifier identifier (e.g. "leads", "crm").
	Name() string
	// Notify delivers the lead and returns the upstream reference, if any.
	Notify(ctx context.Context, lead *Lead) (string, error)
	// Ping verifies connectivity to the upstream.
	Ping(ctx context.Context) error
}

// --- Health ---

// HealthStatus is the coarse state of a dependency or of the whole system.
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusDegraded  HealthStatus = "degraded"
	StatusUnhealthy HealthStatus = "unhealthy"
)

// CheckResult is the outcome of probing one external service.
type CheckResult struct {
	Name      string       `json:"name"`
	Status    HealthStatus `json:"status"`
	LatencyMs int64        `json:"latency_ms"`
	Error     string       `json:"error,omitempty"`
	Breaker   string       `json:"breaker,omitempty"` // circuit breaker state, when known
}

// HealthReport aggregates CheckResults.
type HealthReport struct {
	Status    HealthStatus  `json:"status"`
	Checks    []CheckResult `json:"checks"`
	CheckedAt time.Time     `json:"checked_at"`
}

// --- Context keys ---

type contextKey int

const ctxKeyMeta contextKey = 0

// requestMeta bundles per-request values into a single context allocation.
type requestMeta struct {
	RequestID string
	ClientIP  string
}

func metaFromContext(ctx context.Context) *requestMeta {
	m, _ := ctx.Value(ctxKeyMeta).(*requestMeta)
	return m
}

// RequestIDFromContext extracts the request ID from context.
func RequestIDFromContext(ctx context.Context) string {
	if m := metaFromContext(ctx); m != nil {
		return m.RequestID
	}
	return ""
}

// ContextWithRequestID returns a context carrying the given request ID.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	if m := metaFromContext(ctx); m != nil {
		m.RequestID = id
		return ctx
	}
	return context.WithValue(ctx, ctxKeyMeta, &requestMeta{RequestID: id})
}

// ClientIPFromContext extracts the caller IP recorded by the server middleware.
func ClientIPFromContext(ctx context.Context) string {
	if m := metaFromContext(ctx); m != nil {
		return m.ClientIP
	}
	return ""
}

// ContextWithClientIP stores the caller IP in the existing requestMeta if present.
func ContextWithClientIP(ctx context.Context, ip string) context.Context {
	if m := metaFromContext(ctx); m != nil {
		m.ClientIP = ip
		return ctx
	}
	return context.WithValue(ctx, ctxKeyMeta, &requestMeta{ClientIP: ip})
}
