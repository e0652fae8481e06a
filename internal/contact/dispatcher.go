package contact

import (
	"context"
	"log/slog"
	"time"

	restorehq "github.com/eugener/restorehq/internal"
	"github.com/eugener/restorehq/internal/telemetry"
)

const (
	leadChanSize  = 256
	notifyTimeout = 10 * time.Second
	leadDrainTime = 30 * time.Second
)

// Dispatcher queues accepted leads and delivers each one to every notifier
// off the request path. Leads are dropped if the queue is full.
type Dispatcher struct {
	ch        chan *restorehq.Lead
	notifiers []restorehq.Notifier
	metrics   *telemetry.Metrics // nil = no metrics
}

// NewDispatcher creates a Dispatcher delivering to notifiers. metrics may be nil.
func NewDispatcher(metrics *telemetry.Metrics, notifiers ...restorehq.Notifier) *Dispatcher {
	return &Dispatcher{
		ch:        make(chan *restorehq.Lead, leadChanSize),
		notifiers: notifiers,
		metrics:   metrics,
	}
}

// Name returns the worker identifier.
func (d *Dispatcher) Name() string { return "lead_dispatcher" }

// Enqueue queues a lead for delivery. It never blocks and reports false
// when the lead was dropped.
func (d *Dispatcher) Enqueue(lead *restorehq.Lead) bool {
	select {
	case d.ch <- lead:
		if d.metrics != nil {
			d.metrics.LeadQueueLength.Set(float64(len(d.ch)))
		}
		return true
	default:
		// The lead is only recoverable from this log line.
		slog.Error("lead dropped, queue full",
			"lead_id", lead.ID,
			"email", lead.Email,
			"phone", lead.Phone,
			"postcode", lead.Postcode,
		)
		if d.metrics != nil {
			d.metrics.LeadsDropped.Inc()
		}
		return false
	}
}

// Run delivers leads until ctx is cancelled, then drains the queue.
// Cancelling ctx never aborts a delivery; each notifier call is bounded
// by its own timeout instead.
func (d *Dispatcher) Run(ctx context.Context) error {
	dctx := context.WithoutCancel(ctx)
	for {
		if ctx.Err() != nil {
			d.drain()
			return nil
		}
		select {
		case lead := <-d.ch:
			d.deliver(dctx, lead)
		case <-ctx.Done():
			d.drain()
			return nil
		}
	}
}

func (d *Dispatcher) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), leadDrainTime)
	defer cancel()

	for {
		select {
		case lead := <-d.ch:
			d.deliver(ctx, lead)
		default:
			return
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, lead *restorehq.Lead) {
	if d.metrics != nil {
		d.metrics.LeadQueueLength.Set(float64(len(d.ch)))
	}
	for _, n := range d.notifiers {
		nctx, cancel := context.WithTimeout(ctx, notifyTimeout)
		ref, err := n.Notify(nctx, lead)
		cancel()
		if err != nil {
			slog.LogAttrs(ctx, slog.LevelError, "lead notification failed",
				slog.String("notifier", n.Name()),
				slog.String("lead_id", lead.ID),
				slog.String("email", lead.Email),
				slog.String("error", err.Error()),
			)
			continue
		}
		slog.LogAttrs(ctx, slog.LevelInfo, "lead delivered",
			slog.String("notifier", n.Name()),
			slog.String("lead_id", lead.ID),
			slog.String("ref", ref),
		)
	}
}
