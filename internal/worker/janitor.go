package worker

import (
	"context"
	"log/slog"
	"time"
)

const (
	janitorInterval = time.Minute
	janitorIdleTTL  = 10 * time.Minute
)

// Evictor drops entries unused since cutoff and returns how many it removed.
type Evictor interface {
	EvictStale(cutoff time.Time) int
}

// EvictorFunc adapts a plain function to Evictor.
type EvictorFunc func(cutoff time.Time) int

// EvictStale calls f(cutoff).
func (f EvictorFunc) EvictStale(cutoff time.Time) int { return f(cutoff) }

// Janitor periodically evicts idle per-client state, such as rate limit
// buckets for visitors who have gone away.
type Janitor struct {
	evictors map[string]Evictor
	interval time.Duration
	idleTTL  time.Duration
	now      func() time.Time
}

// NewJanitor creates a Janitor sweeping the named evictors.
func NewJanitor(evictors map[string]Evictor) *Janitor {
	return &Janitor{
		evictors: evictors,
		interval: janitorInterval,
		idleTTL:  janitorIdleTTL,
		now:      time.Now,
	}
}

// Name returns the worker identifier.
func (j *Janitor) Name() string { return "janitor" }

// Run sweeps on every tick until ctx is cancelled.
func (j *Janitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.sweep(ctx)
		case <-ctx.Done():
			return nil
		}
	}
}

func (j *Janitor) sweep(ctx context.Context) {
	cutoff := j.now().Add(-j.idleTTL)
	for name, e := range j.evictors {
		if n := e.EvictStale(cutoff); n > 0 {
			slog.LogAttrs(ctx, slog.LevelDebug, "evicted idle entries",
				slog.String("target", name),
				slog.Int("count", n),
			)
		}
	}
}
