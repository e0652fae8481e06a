package telemetry

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNewMetrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewPedanticRegistry()
	m := NewMetrics(reg)

	if m.RequestsTotal == nil {
		t.Error("RequestsTotal is nil")
	}
	if m.SearchCacheHits == nil {
		t.Error("SearchCacheHits is nil")
	}
	if m.LeadsReceived == nil {
		t.Error("LeadsReceived is nil")
	}
	if m.NotifyDuration == nil {
		t.Error("NotifyDuration is nil")
	}

	// Unlabelled collectors are exported immediately.
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if len(families) == 0 {
		t.Error("expected at least one metric family")
	}
}

func TestNewMetricsIncrement(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewPedanticRegistry()
	m := NewMetrics(reg)

	m.RequestsTotal.WithLabelValues("GET", "/areas/check/{postcode}", "200").Inc()
	m.PostcodeChecks.WithLabelValues("true").Inc()
	m.SearchCacheHits.Inc()
	m.SearchCacheMisses.Inc()
	m.LeadsReceived.WithLabelValues("emergency").Inc()
	m.ActiveRequests.Set(3)
	m.RequestDuration.WithLabelValues("GET", "/search").Observe(0.012)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather after increment: %v", err)
	}

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}

	want := []string{
		"restorehq_requests_total",
		"restorehq_postcode_checks_total",
		"restorehq_search_cache_hits_total",
		"restorehq_search_cache_misses_total",
		"restorehq_leads_received_total",
		"restorehq_active_requests",
		"restorehq_request_duration_seconds",
	}
	for _, name := range want {
		if !names[name] {
			t.Errorf("missing metric %q in gathered families", name)
		}
	}
}

// SetupTracing is not unit-tested because it requires a gRPC connection
// to an OTLP collector, which is integration-test territory.

func TestSampler(t *testing.T) {
	t.Parallel()
	tests := []struct {
		rate float64
		want string
	}{
		{1, "AlwaysOnSampler"},
		{2, "AlwaysOnSampler"},
		{0, "AlwaysOffSampler"},
		{-1, "AlwaysOffSampler"},
	}
	for _, tt := range tests {
		if got := Sampler(tt.rate).Description(); got != tt.want {
			t.Errorf("Sampler(%v) = %q, want %q", tt.rate, got, tt.want)
		}
	}
	if got := Sampler(0.5).Description(); got == "AlwaysOnSampler" || got == "AlwaysOffSampler" {
		t.Errorf("Sampler(0.5) = %q, want ratio-based", got)
	}
}
