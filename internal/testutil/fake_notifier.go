// Package testutil provides configurable test fakes for restorehq interfaces.
package testutil

import (
	"context"
	"sync"

	restorehq "github.com/eugener/restorehq/internal"
)

// FakeNotifier is a configurable restorehq.Notifier that records every lead
// it is asked to deliver.
type FakeNotifier struct {
	NotifierName string
	NotifyFn     func(ctx context.Context, lead *restorehq.Lead) (string, error)
	PingFn       func(ctx context.Context) error

	mu    sync.Mutex
	leads []*restorehq.Lead
}

// Name returns the configured notifier name.
func (f *FakeNotifier) Name() string { return f.NotifierName }

// Notify records the lead and delegates to NotifyFn, or returns "ref-<id>".
func (f *FakeNotifier) Notify(ctx context.Context, lead *restorehq.Lead) (string, error) {
	f.mu.Lock()
	f.leads = append(f.leads, lead)
	f.mu.Unlock()
	if f.NotifyFn != nil {
		return f.NotifyFn(ctx, lead)
	}
	return "ref-" + lead.ID, nil
}

// Ping delegates to PingFn or returns nil.
func (f *FakeNotifier) Ping(ctx context.Context) error {
	if f.PingFn != nil {
		return f.PingFn(ctx)
	}
	return nil
}

// Leads returns a snapshot of the leads received so far.
func (f *FakeNotifier) Leads() []*restorehq.Lead {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*restorehq.Lead, len(f.leads))
	copy(out, f.leads)
	return out
}
