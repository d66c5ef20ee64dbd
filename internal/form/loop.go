package form

import "context"

// Scheduler runs callbacks on the goroutine that owns controller state.
type Scheduler interface {
	Post(fn func())
}

// Inline runs posted callbacks immediately on the caller's goroutine.
// Useful when the caller already owns the controller, as tests do.
type Inline struct{}

func (Inline) Post(fn func()) { fn() }

// Loop is a single-goroutine event loop. All controller work, including
// timer continuations, is funnelled through Post so state needs no locks.
type Loop struct {
	queue chan func()
	done  chan struct{}
}

// NewLoop creates a loop with the given queue capacity.
func NewLoop(capacity int) *Loop {
	if capacity <= 0 {
		capacity = 64
	}
	return &Loop{
		queue: make(chan func(), capacity),
		done:  make(chan struct{}),
	}
}

// Post enqueues fn. Posts after the loop stopped are dropped.
func (l *Loop) Post(fn func()) {
	select {
	case <-l.done:
		return
	default:
	}
	select {
	case l.queue <- fn:
	case <-l.done:
	}
}

// Run processes callbacks until ctx is done. It must be called once.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-l.queue:
			fn()
		}
	}
}

// Done is closed once Run has returned.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}
