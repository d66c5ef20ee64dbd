// Package tracking emits conversion events for captured leads.
package tracking

import (
	"context"

	"github.com/wolfman30/leadform/internal/leads"
	"github.com/wolfman30/leadform/internal/observability/metrics"
	"github.com/wolfman30/leadform/pkg/logging"
)

// EventLeadGenerated is the event name of every conversion.
const EventLeadGenerated = "lead_generated"

// Conversion is the payload sent to every sink.
type Conversion struct {
	Event     string `json:"event"`
	Email     string `json:"email"`
	Company   string `json:"company"`
	Role      string `json:"role"`
	Timestamp string `json:"timestamp"`
}

// FromRecord builds the conversion for a captured lead.
func FromRecord(rec leads.Record) Conversion {
	return Conversion{
		Event:     EventLeadGenerated,
		Email:     rec.Email,
		Company:   rec.Company,
		Role:      rec.Role,
		Timestamp: rec.Timestamp,
	}
}

// Sink delivers conversions somewhere.
type Sink interface {
	Name() string
	Send(ctx context.Context, c Conversion) error
}

// Tracker fans a conversion out to its sinks. A failing sink is logged and
// does not stop the others.
type Tracker struct {
	sinks   []Sink
	logger  *logging.Logger
	metrics *metrics.FormMetrics
}

// NewTracker creates a tracker over sinks.
func NewTracker(logger *logging.Logger, m *metrics.FormMetrics, sinks ...Sink) *Tracker {
	if logger == nil {
		logger = logging.Default()
	}
	return &Tracker{sinks: sinks, logger: logger, metrics: m}
}

// Track implements leads.Tracker.
func (t *Tracker) Track(ctx context.Context, rec leads.Record) {
	conv := FromRecord(rec)
	for _, sink := range t.sinks {
		err := sink.Send(ctx, conv)
		t.metrics.ObserveConversion(sink.Name(), err == nil)
		if err != nil {
			t.logger.Error("conversion sink failed", "sink", sink.Name(), "error", err)
		}
	}
}

// SinkNames lists the configured sinks in fan-out order.
func (t *Tracker) SinkNames() []string {
	names := make([]string, 0, len(t.sinks))
	for _, sink := range t.sinks {
		names = append(names, sink.Name())
	}
	return names
}
