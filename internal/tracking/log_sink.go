package tracking

import (
	"context"

	"github.com/wolfman30/leadform/pkg/logging"
)

// LogSink writes conversions to the structured log. It is the default sink
// when no analytics backend is configured.
type LogSink struct {
	logger *logging.Logger
}

func NewLogSink(logger *logging.Logger) *LogSink {
	if logger == nil {
		logger = logging.Default()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Send(ctx context.Context, c Conversion) error {
	s.logger.InfoContext(ctx, "conversion tracked",
		"event", c.Event,
		"email", c.Email,
		"company", c.Company,
		"role", c.Role,
		"timestamp", c.Timestamp,
	)
	return nil
}
