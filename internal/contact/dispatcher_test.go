package contact

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	restorehq "github.com/eugener/restorehq/internal"
	"github.com/eugener/restorehq/internal/telemetry"
	fakes "github.com/eugener/restorehq/internal/testutil"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for !cond() {
		select {
		case <-deadline:
			t.Fatal("condition not met before deadline")
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}
}

func TestDispatcher_DeliversToAllNotifiers(t *testing.T) {
	t.Parallel()
	inbox := &fakes.FakeNotifier{NotifierName: "leads"}
	crm := &fakes.FakeNotifier{
		NotifierName: "crm",
		NotifyFn: func(context.Context, *restorehq.Lead) (string, error) {
			return "", errors.New("crm down")
		},
	}
	d := NewDispatcher(nil, inbox, crm)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()

	if !d.Enqueue(&restorehq.Lead{ID: "l1"}) {
		t.Fatal("enqueue should succeed")
	}
	// A failing notifier does not stop delivery to the others.
	waitFor(t, func() bool { return len(inbox.Leads()) == 1 && len(crm.Leads()) == 1 })

	cancel()
	<-done
}

func TestDispatcher_DrainOnShutdown(t *testing.T) {
	t.Parallel()
	inbox := &fakes.FakeNotifier{NotifierName: "leads"}
	d := NewDispatcher(nil, inbox)

	// Queue before the worker starts, then cancel immediately.
	for _, id := range []string{"a", "b", "c"} {
		d.Enqueue(&restorehq.Lead{ID: id})
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := d.Run(ctx); err != nil {
		t.Fatal(err)
	}

	if got := len(inbox.Leads()); got != 3 {
		t.Errorf("delivered = %d, want 3", got)
	}
}

func TestDispatcher_DrainIgnoresShutdownCancellation(t *testing.T) {
	t.Parallel()
	for range 50 {
		var delivered atomic.Int32
		inbox := &fakes.FakeNotifier{
			NotifierName: "leads",
			NotifyFn: func(ctx context.Context, lead *restorehq.Lead) (string, error) {
				if err := ctx.Err(); err != nil {
					return "", err
				}
				delivered.Add(1)
				return "ref-" + lead.ID, nil
			},
		}
		d := NewDispatcher(nil, inbox)
		for _, id := range []string{"a", "b", "c"} {
			d.Enqueue(&restorehq.Lead{ID: id})
		}

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := d.Run(ctx); err != nil {
			t.Fatal(err)
		}
		if got := delivered.Load(); got != 3 {
			t.Fatalf("delivered = %d, want 3", got)
		}
	}
}

func TestDispatcher_InFlightLeadSurvivesShutdown(t *testing.T) {
	t.Parallel()
	started := make(chan struct{})
	release := make(chan struct{})
	var delivered atomic.Int32
	inbox := &fakes.FakeNotifier{
		NotifierName: "leads",
		NotifyFn: func(ctx context.Context, lead *restorehq.Lead) (string, error) {
			if lead.ID == "slow" {
				close(started)
				<-release
			}
			if err := ctx.Err(); err != nil {
				return "", err
			}
			delivered.Add(1)
			return "ref-" + lead.ID, nil
		},
	}
	crm := &fakes.FakeNotifier{
		NotifierName: "crm",
		NotifyFn: func(ctx context.Context, lead *restorehq.Lead) (string, error) {
			if err := ctx.Err(); err != nil {
				return "", err
			}
			delivered.Add(1)
			return "ref-" + lead.ID, nil
		},
	}
	d := NewDispatcher(nil, inbox, crm)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	d.Enqueue(&restorehq.Lead{ID: "slow"})
	<-started
	cancel()
	close(release)

	if err := <-done; err != nil {
		t.Fatal(err)
	}
	// Both notifiers must see the lead despite the cancellation mid-delivery.
	if got := delivered.Load(); got != 2 {
		t.Errorf("delivered = %d, want 2", got)
	}
}

func TestDispatcher_DropsWhenFull(t *testing.T) {
	t.Parallel()
	m := telemetry.NewMetrics(prometheus.NewRegistry())
	d := NewDispatcher(m)

	for i := range leadChanSize {
		if !d.Enqueue(&restorehq.Lead{ID: string(rune('a' + i%26))}) {
			t.Fatalf("enqueue %d should succeed", i)
		}
	}
	if d.Enqueue(&restorehq.Lead{ID: "overflow"}) {
		t.Error("enqueue on a full queue should report a drop")
	}
	if got := testutil.ToFloat64(m.LeadsDropped); got != 1 {
		t.Errorf("dropped = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.LeadQueueLength); got != leadChanSize {
		t.Errorf("queue length = %v, want %d", got, leadChanSize)
	}
}
