package form

import (
	"context"
	"sync"
	"time"

	"github.com/wolfman30/leadform/internal/clock"
	"github.com/wolfman30/leadform/internal/leads"
)

// Future resolves once with the outcome of an asynchronous operation.
type Future struct {
	mu        sync.Mutex
	resolved  bool
	err       error
	callbacks []func(error)
	done      chan struct{}
}

// NewFuture returns an unresolved future and the function that resolves
// it. Only the first resolve call has an effect.
func NewFuture() (*Future, func(error)) {
	f := &Future{done: make(chan struct{})}
	return f, f.resolve
}

// Resolved returns an already resolved future.
func Resolved(err error) *Future {
	f, resolve := NewFuture()
	resolve(err)
	return f
}

func (f *Future) resolve(err error) {
	f.mu.Lock()
	if f.resolved {
		f.mu.Unlock()
		return
	}
	f.resolved = true
	f.err = err
	callbacks := f.callbacks
	f.callbacks = nil
	close(f.done)
	f.mu.Unlock()

	for _, cb := range callbacks {
		cb(err)
	}
}

// Then runs cb with the outcome. If the future already resolved, cb runs
// immediately on the caller's goroutine; otherwise on the resolver's.
func (f *Future) Then(cb func(error)) {
	f.mu.Lock()
	if !f.resolved {
		f.callbacks = append(f.callbacks, cb)
		f.mu.Unlock()
		return
	}
	err := f.err
	f.mu.Unlock()
	cb(err)
}

// Wait blocks until the future resolves or ctx is done.
func (f *Future) Wait(ctx context.Context) error {
	select {
	case <-f.done:
		return f.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Submitter delivers a captured lead somewhere.
type Submitter interface {
	Submit(ctx context.Context, rec leads.Record) *Future
}

// DefaultSubmitLatency is the simulated network delay.
const DefaultSubmitLatency = 1500 * time.Millisecond

// SimulatedSubmitter stands in for a network call: it always succeeds after
// a fixed delay.
type SimulatedSubmitter struct {
	Clock   clock.Clock
	Latency time.Duration
}

// NewSimulatedSubmitter creates a submitter resolving after latency.
func NewSimulatedSubmitter(c clock.Clock, latency time.Duration) *SimulatedSubmitter {
	if c == nil {
		c = clock.Real()
	}
	if latency <= 0 {
		latency = DefaultSubmitLatency
	}
	return &SimulatedSubmitter{Clock: c, Latency: latency}
}

// Submit resolves with nil once Latency has elapsed.
func (s *SimulatedSubmitter) Submit(_ context.Context, _ leads.Record) *Future {
	f, resolve := NewFuture()
	s.Clock.AfterFunc(s.Latency, func() { resolve(nil) })
	return f
}

// SubmitterFunc adapts a function to Submitter.
type SubmitterFunc func(ctx context.Context, rec leads.Record) *Future

func (fn SubmitterFunc) Submit(ctx context.Context, rec leads.Record) *Future {
	return fn(ctx, rec)
}
