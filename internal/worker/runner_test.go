package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	restorehq "github.com/eugener/restorehq/internal"
	"github.com/eugener/restorehq/internal/contact"
	"github.com/eugener/restorehq/internal/ratelimit"
	fakes "github.com/eugener/restorehq/internal/testutil"
)

type fakeWorker struct {
	name  string
	runFn func(ctx context.Context) error
}

func (f *fakeWorker) Run(ctx context.Context) error {
	if f.runFn != nil {
		return f.runFn(ctx)
	}
	<-ctx.Done()
	return nil
}

// namedWorker reports its name; fakeWorker alone does not.
type namedWorker struct {
	fakeWorker
}

func (n *namedWorker) Name() string { return n.name }

func TestWorkerName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		w    Worker
		want string
	}{
		{"janitor", NewJanitor(nil), "janitor"},
		{"dispatcher", contact.NewDispatcher(nil), "lead_dispatcher"},
		{"named fake", &namedWorker{fakeWorker{name: "rollup"}}, "rollup"},
		{"anonymous", &fakeWorker{}, "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := workerName(tt.w); got != tt.want {
				t.Errorf("workerName = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRunner_DeliversQueuedLeadsOnShutdown(t *testing.T) {
	t.Parallel()

	inbox := &fakes.FakeNotifier{
		NotifierName: "leads",
		NotifyFn: func(ctx context.Context, lead *restorehq.Lead) (string, error) {
			if err := ctx.Err(); err != nil {
				return "", err
			}
			return "ref-" + lead.ID, nil
		},
	}
	dispatcher := contact.NewDispatcher(nil, inbox)
	janitor := NewJanitor(map[string]Evictor{"ratelimit": ratelimit.NewRegistry(5)})
	r := NewRunner(dispatcher, janitor)

	for _, id := range []string{"a", "b", "c"} {
		if !dispatcher.Enqueue(&restorehq.Lead{ID: id}) {
			t.Fatalf("enqueue %s failed", id)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop after cancel")
	}

	if got := len(inbox.Leads()); got != 3 {
		t.Errorf("delivered = %d, want 3", got)
	}
}

func TestRunner_WorkerErrorStopsOthers(t *testing.T) {
	t.Parallel()

	errBoom := errors.New("sweep store unavailable")
	failing := &namedWorker{fakeWorker{
		name:  "failing",
		runFn: func(context.Context) error { return errBoom },
	}}
	janitor := NewJanitor(map[string]Evictor{"ratelimit": ratelimit.NewRegistry(5)})
	r := NewRunner(janitor, contact.NewDispatcher(nil), failing)

	done := make(chan error, 1)
	go func() { done <- r.Run(t.Context()) }()
	select {
	case err := <-done:
		if !errors.Is(err, errBoom) {
			t.Errorf("err = %v, want %v", err, errBoom)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop after a worker failed")
	}
}
