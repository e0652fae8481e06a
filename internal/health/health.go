// Package health reports the state of the external services leads are
// delivered to.
package health

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	restorehq "github.com/eugener/restorehq/internal"
)

// DefaultTimeout bounds each probe.
const DefaultTimeout = 3 * time.Second

// Probe is an upstream that can be pinged.
type Probe interface {
	Name() string
	Ping(ctx context.Context) error
}

// breakerReporter is implemented by probes guarded by a circuit breaker.
type breakerReporter interface {
	BreakerState() string
}

// Checker probes every upstream concurrently.
type Checker struct {
	probes  []Probe
	timeout time.Duration
	now     func() time.Time
}

// NewChecker returns a Checker. timeout <= 0 uses DefaultTimeout.
func NewChecker(timeout time.Duration, probes ...Probe) *Checker {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Checker{probes: probes, timeout: timeout, now: time.Now}
}

// Check pings all probes and aggregates the results. Checks keep the
// order the probes were given in.
func (c *Checker) Check(ctx context.Context) restorehq.HealthReport {
	results := make([]restorehq.CheckResult, len(c.probes))

	var g errgroup.Group
	for i, p := range c.probes {
		g.Go(func() error {
			results[i] = c.probe(ctx, p)
			return nil
		})
	}
	_ = g.Wait() // probes never return errors

	return restorehq.HealthReport{
		Status:    Aggregate(results),
		Checks:    results,
		CheckedAt: c.now().UTC(),
	}
}

func (c *Checker) probe(ctx context.Context, p Probe) restorehq.CheckResult {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	err := p.Ping(ctx)
	res := restorehq.CheckResult{
		Name:      p.Name(),
		Status:    restorehq.StatusHealthy,
		LatencyMs: time.Since(start).Milliseconds(),
	}
	if err != nil {
		res.Status = restorehq.StatusUnhealthy
		res.Error = err.Error()
	}
	if br, ok := p.(breakerReporter); ok {
		res.Breaker = br.BreakerState()
	}
	return res
}

// Aggregate folds individual results into one status: all up is healthy,
// all down is unhealthy, anything in between is degraded. No checks at
// all counts as healthy.
func Aggregate(results []restorehq.CheckResult) restorehq.HealthStatus {
	down := 0
	for _, r := range results {
		if r.Status != restorehq.StatusHealthy {
			down++
		}
	}
	switch {
	case down == 0:
		return restorehq.StatusHealthy
	case down == len(results):
		return restorehq.StatusUnhealthy
	default:
		return restorehq.StatusDegraded
	}
}
