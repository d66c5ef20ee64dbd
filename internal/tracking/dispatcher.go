package tracking

import (
	"context"
	"time"

	"github.com/wolfman30/leadform/internal/leads"
	"github.com/wolfman30/leadform/pkg/logging"
)

// DefaultSendTimeout bounds one conversion fan-out.
const DefaultSendTimeout = 5 * time.Second

type trackJob struct {
	ctx context.Context
	rec leads.Record
}

// Dispatcher is a leads.Tracker that hands conversions to a background
// goroutine, so a slow sink never holds up the caller. Conversions arriving
// while the buffer is full are dropped and logged.
type Dispatcher struct {
	next    leads.Tracker
	jobs    chan trackJob
	timeout time.Duration
	logger  *logging.Logger
	done    chan struct{}
}

// NewDispatcher creates a dispatcher in front of next with the given buffer
// capacity. Run must be started for conversions to be delivered.
func NewDispatcher(next leads.Tracker, buffer int, timeout time.Duration, logger *logging.Logger) *Dispatcher {
	if buffer <= 0 {
		buffer = 128
	}
	if timeout <= 0 {
		timeout = DefaultSendTimeout
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Dispatcher{
		next:    next,
		jobs:    make(chan trackJob, buffer),
		timeout: timeout,
		logger:  logger.Component("tracking"),
		done:    make(chan struct{}),
	}
}

// Track enqueues the conversion and returns immediately. ctx contributes its
// values (trace span) but not its cancellation.
func (d *Dispatcher) Track(ctx context.Context, rec leads.Record) {
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case d.jobs <- trackJob{ctx: context.WithoutCancel(ctx), rec: rec}:
	default:
		d.logger.Warn("conversion dropped: dispatcher buffer full", "timestamp", rec.Timestamp)
	}
}

// Run delivers queued conversions until ctx is done, then flushes what is
// still buffered and returns ctx's error.
func (d *Dispatcher) Run(ctx context.Context) error {
	defer close(d.done)
	for {
		select {
		case job := <-d.jobs:
			d.deliver(job)
		case <-ctx.Done():
			for {
				select {
				case job := <-d.jobs:
					d.deliver(job)
				default:
					return ctx.Err()
				}
			}
		}
	}
}

// Done is closed once Run has returned.
func (d *Dispatcher) Done() <-chan struct{} {
	return d.done
}

func (d *Dispatcher) deliver(job trackJob) {
	ctx, cancel := context.WithTimeout(job.ctx, d.timeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("conversion tracker panicked", "timestamp", job.rec.Timestamp, "panic", r)
		}
	}()
	d.next.Track(ctx, job.rec)
}
