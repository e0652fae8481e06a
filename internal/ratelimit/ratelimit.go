// Package ratelimit throttles form submissions per client with lazily
// refilled token buckets.
package ratelimit

import (
	"math"
	"sync"
	"time"
)

// Result is the outcome of a rate limit check.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// RetryAfterSeconds rounds RetryAfter up to whole seconds, as sent in the
// Retry-After header. It is at least 1 for a rejected request.
func (r Result) RetryAfterSeconds() int {
	if r.Allowed {
		return 0
	}
	return max(1, int(math.Ceil(r.RetryAfter.Seconds())))
}

// bucket refills on access; there is no background goroutine.
type bucket struct {
	tokens   float64
	lastFill time.Time
	lastUsed time.Time
}

// Registry holds one bucket per client. Every client gets the same
// per-minute budget.
type Registry struct {
	rpm  int
	rate float64 // tokens per second
	now  func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket
}

// NewRegistry returns a Registry allowing rpm requests per minute per
// client. rpm <= 0 disables limiting.
func NewRegistry(rpm int) *Registry {
	return &Registry{
		rpm:     rpm,
		rate:    float64(rpm) / 60.0,
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}
}

// Enabled reports whether limiting is active.
func (r *Registry) Enabled() bool { return r.rpm > 0 }

// Allow consumes one token from client's bucket.
func (r *Registry) Allow(client string) Result {
	if r.rpm <= 0 {
		return Result{Allowed: true}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	b, ok := r.buckets[client]
	if !ok {
		b = &bucket{tokens: float64(r.rpm), lastFill: now}
		r.buckets[client] = b
	}
	b.lastUsed = now

	if elapsed := now.Sub(b.lastFill).Seconds(); elapsed > 0 {
		b.tokens = min(float64(r.rpm), b.tokens+elapsed*r.rate)
		b.lastFill = now
	}

	if b.tokens >= 1 {
		b.tokens--
		return Result{Allowed: true, Limit: r.rpm, Remaining: int(b.tokens)}
	}
	deficit := 1 - b.tokens
	return Result{
		Allowed:    false,
		Limit:      r.rpm,
		RetryAfter: time.Duration(deficit / r.rate * float64(time.Second)),
	}
}

// Len returns the number of tracked clients.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.buckets)
}

// EvictStale removes buckets not used since cutoff.
func (r *Registry) EvictStale(cutoff time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	evicted := 0
	for k, b := range r.buckets {
		if b.lastUsed.Before(cutoff) {
			delete(r.buckets, k)
			evicted++
		}
	}
	return evicted
}
