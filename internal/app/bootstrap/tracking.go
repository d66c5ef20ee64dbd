package bootstrap

import (
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	appconfig "github.com/wolfman30/leadform/internal/config"
	"github.com/wolfman30/leadform/internal/observability/metrics"
	"github.com/wolfman30/leadform/internal/tracking"
	"github.com/wolfman30/leadform/pkg/logging"
)

// BuildTracker always logs conversions and also publishes them to SQS when
// CONVERSION_QUEUE_URL is set.
func BuildTracker(cfg *appconfig.Config, awsCfg aws.Config, logger *logging.Logger, m *metrics.FormMetrics) *tracking.Tracker {
	if logger == nil {
		logger = logging.Default()
	}
	sinks := []tracking.Sink{tracking.NewLogSink(logger)}
	if cfg != nil {
		if queueURL := strings.TrimSpace(cfg.ConversionQueueURL); queueURL != "" {
			sinks = append(sinks, tracking.NewSQSSink(sqs.NewFromConfig(awsCfg), queueURL))
			logger.Info("conversion tracking via sqs enabled", "queue_url", queueURL)
		}
	}
	return tracking.NewTracker(logger, m, sinks...)
}
