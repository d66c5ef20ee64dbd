package mainconfig

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"

	appconfig "github.com/wolfman30/leadform/internal/config"
)

// NeedsAWS reports whether the configured storage or tracking uses AWS.
func NeedsAWS(cfg *appconfig.Config) bool {
	switch cfg.StorageBackend {
	case appconfig.BackendS3, appconfig.BackendDynamo:
		return true
	}
	return strings.TrimSpace(cfg.ConversionQueueURL) != ""
}

// LoadAWSConfig centralizes AWS SDK initialization so the server and the
// migrate tool share the same LocalStack/production wiring. An endpoint
// override is applied to every service client built from the result.
func LoadAWSConfig(ctx context.Context, cfg *appconfig.Config) (aws.Config, error) {
	loaders := []func(*config.LoadOptions) error{config.WithRegion(cfg.AWSRegion)}
	if strings.TrimSpace(cfg.AWSAccessKeyID) != "" && strings.TrimSpace(cfg.AWSSecretAccessKey) != "" {
		loaders = append(loaders, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loaders...)
	if err != nil {
		return aws.Config{}, err
	}
	if endpoint := strings.TrimSpace(cfg.AWSEndpointOverride); endpoint != "" {
		awsCfg.BaseEndpoint = aws.String(endpoint)
	}
	return awsCfg, nil
}
