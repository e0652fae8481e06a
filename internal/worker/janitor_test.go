package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/eugener/restorehq/internal/ratelimit"
)

type recordingEvictor struct {
	mu      sync.Mutex
	cutoffs []time.Time
}

func (e *recordingEvictor) EvictStale(cutoff time.Time) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cutoffs = append(e.cutoffs, cutoff)
	return 1
}

func (e *recordingEvictor) calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.cutoffs)
}

func TestJanitor_SweepCutoff(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	ev := &recordingEvictor{}
	j := NewJanitor(map[string]Evictor{"test": ev})
	j.now = func() time.Time { return now }

	j.sweep(context.Background())

	if ev.calls() != 1 {
		t.Fatalf("calls = %d, want 1", ev.calls())
	}
	if want := now.Add(-janitorIdleTTL); !ev.cutoffs[0].Equal(want) {
		t.Errorf("cutoff = %v, want %v", ev.cutoffs[0], want)
	}
}

func TestJanitor_RunTicks(t *testing.T) {
	t.Parallel()

	ev := &recordingEvictor{}
	j := NewJanitor(map[string]Evictor{"test": ev})
	j.interval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- j.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for ev.calls() < 2 {
		select {
		case <-deadline:
			t.Fatal("janitor did not sweep")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run() = %v, want nil", err)
	}
}

func TestJanitor_EvictsRateLimiters(t *testing.T) {
	t.Parallel()

	limits := ratelimit.NewRegistry(5)
	limits.Allow("198.51.100.1")

	j := NewJanitor(map[string]Evictor{"ratelimit": limits})
	// Sweep from an hour in the future: every bucket is idle.
	j.now = func() time.Time { return time.Now().Add(time.Hour) }
	j.sweep(context.Background())

	if limits.Len() != 0 {
		t.Errorf("limiters = %d, want 0", limits.Len())
	}
}
