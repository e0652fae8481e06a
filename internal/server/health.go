package server

import (
	"net/http"

	restorehq "github.com/eugener/restorehq/internal"
)

// Pre-allocated response bodies and header value slices.
var (
	okBody       = []byte("ok")
	notReadyBody = []byte("not ready")
	plainCT      = []string{"text/plain"}
	noStore      = []string{"no-store"}
)

func (s *server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header()["Content-Type"] = plainCT
	w.WriteHeader(http.StatusOK)
	w.Write(okBody)
}

func (s *server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if s.deps.ReadyCheck != nil {
		if err := s.deps.ReadyCheck(r.Context()); err != nil {
			w.Header()["Content-Type"] = plainCT
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write(notReadyBody)
			return
		}
	}
	w.Header()["Content-Type"] = plainCT
	w.WriteHeader(http.StatusOK)
	w.Write(okBody)
}

// handleHealth reports the aggregated state of the external services.
// Unhealthy answers 503; healthy and degraded answer 200.
func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := restorehq.HealthReport{Status: restorehq.StatusHealthy, Checks: []restorehq.CheckResult{}}
	if s.deps.Health != nil {
		report = s.deps.Health.Check(r.Context())
	}
	status := http.StatusOK
	if report.Status == restorehq.StatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	w.Header()["Cache-Control"] = noStore
	writeJSON(w, status, report)
}
