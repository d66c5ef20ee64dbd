package form

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/leadform/internal/clock"
	"github.com/wolfman30/leadform/internal/leads"
)

func TestLoop_RunsPostsInOrder(t *testing.T) {
	loop := NewLoop(8)
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- loop.Run(ctx) }()

	var mu sync.Mutex
	var got []int
	done := make(chan struct{})
	for i := 0; i < 5; i++ {
		i := i
		loop.Post(func() {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
			if i == 4 {
				close(done)
			}
		})
	}
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("loop did not drain")
	}

	cancel()
	require.ErrorIs(t, <-errc, context.Canceled)
	<-loop.Done()

	mu.Lock()
	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
	mu.Unlock()

	// posting after stop must not block
	posted := make(chan struct{})
	go func() {
		loop.Post(func() { t.Error("ran after stop") })
		close(posted)
	}()
	select {
	case <-posted:
	case <-time.After(time.Second):
		t.Fatal("post blocked after stop")
	}
}

func TestFuture(t *testing.T) {
	f, resolve := NewFuture()
	var got []error
	f.Then(func(err error) { got = append(got, err) })
	assert.Empty(t, got)

	boom := errors.New("boom")
	resolve(boom)
	resolve(nil)
	assert.Equal(t, []error{boom}, got)

	f.Then(func(err error) { got = append(got, err) })
	assert.Equal(t, []error{boom, boom}, got)
	assert.ErrorIs(t, f.Wait(context.Background()), boom)
}

func TestFuture_WaitHonoursContext(t *testing.T) {
	f, _ := NewFuture()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, f.Wait(ctx), context.DeadlineExceeded)
}

func TestSimulatedSubmitter_ResolvesAfterLatency(t *testing.T) {
	c := clock.NewFake(testEpoch)
	s := NewSimulatedSubmitter(c, 0)
	assert.Equal(t, DefaultSubmitLatency, s.Latency)

	resolved := false
	s.Submit(context.Background(), leads.Record{}).Then(func(err error) {
		assert.NoError(t, err)
		resolved = true
	})
	c.Advance(DefaultSubmitLatency - time.Millisecond)
	assert.False(t, resolved)
	c.Advance(time.Millisecond)
	assert.True(t, resolved)
}

// The production wiring: a real loop, a real clock and a short latency.
func TestController_OnRealLoop(t *testing.T) {
	loop := NewLoop(16)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = loop.Run(ctx) }()

	view := newFakeView()
	view.fill("Jane", "Doe", "jane@example.com")
	h := newHarness(func(cfg *Config) {
		cfg.View = view
		cfg.Clock = clock.Real()
		cfg.Scheduler = loop
		cfg.Submitter = NewSimulatedSubmitter(clock.Real(), 5*time.Millisecond)
	})

	states := make(chan State, 1)
	loop.Post(func() { h.ctrl.HandleSubmit(&Event{Type: EventSubmit}) })
	require.Eventually(t, func() bool {
		loop.Post(func() {
			select {
			case states <- h.ctrl.State():
			default:
			}
		})
		select {
		case s := <-states:
			return s == StateSuccess
		case <-time.After(20 * time.Millisecond):
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
}
