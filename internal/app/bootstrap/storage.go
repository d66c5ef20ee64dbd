package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"

	appconfig "github.com/wolfman30/leadform/internal/config"
	"github.com/wolfman30/leadform/internal/storage"
	"github.com/wolfman30/leadform/pkg/logging"
)

// RedisKeyPrefix namespaces lead keys in a shared Redis.
const RedisKeyPrefix = "leadform:"

// ErrUnknownBackend is returned for an unsupported STORAGE_BACKEND.
var ErrUnknownBackend = errors.New("bootstrap: unknown storage backend")

// Storage is a built backend plus its readiness check and cleanup.
type Storage struct {
	Backend storage.Backend
	Name    string
	Ready   func(ctx context.Context) error
	Close   func()
}

func noopReady(context.Context) error { return nil }
func noopClose()                      {}

// BuildStorage selects the backend named by cfg.StorageBackend. awsCfg is
// only consulted for the s3 and dynamodb backends.
func BuildStorage(ctx context.Context, cfg *appconfig.Config, awsCfg aws.Config, logger *logging.Logger) (*Storage, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	name := cfg.StorageBackend
	if name == "" {
		name = appconfig.BackendMemory
	}

	built := &Storage{Name: name, Ready: noopReady, Close: noopClose}
	switch name {
	case appconfig.BackendMemory:
		built.Backend = storage.NewMemoryBackend()

	case appconfig.BackendFile:
		backend, err := storage.NewFileBackend(cfg.FileStorageDir)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: file storage: %w", err)
		}
		built.Backend = backend

	case appconfig.BackendRedis:
		client := BuildRedisClient(ctx, cfg, logger, false)
		if client == nil {
			return nil, fmt.Errorf("bootstrap: redis storage requires REDIS_ADDR")
		}
		built.Backend = storage.NewRedisBackend(client, RedisKeyPrefix)
		built.Ready = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		built.Close = func() { _ = client.Close() }

	case appconfig.BackendPostgres:
		if strings.TrimSpace(cfg.DatabaseURL) == "" {
			return nil, fmt.Errorf("bootstrap: postgres storage requires DATABASE_URL")
		}
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: connect postgres: %w", err)
		}
		built.Backend = storage.NewPostgresBackend(pool)
		built.Ready = pool.Ping
		built.Close = pool.Close

	case appconfig.BackendS3:
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("bootstrap: s3 storage requires S3_BUCKET")
		}
		client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			// LocalStack and MinIO only serve path-style URLs
			o.UsePathStyle = cfg.AWSEndpointOverride != ""
		})
		bucket := cfg.S3Bucket
		built.Backend = storage.NewS3Backend(client, bucket, cfg.S3Prefix)
		built.Ready = func(ctx context.Context) error {
			_, err := client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)})
			return err
		}

	case appconfig.BackendDynamo:
		if strings.TrimSpace(cfg.DynamoTable) == "" {
			return nil, fmt.Errorf("bootstrap: dynamodb storage requires DYNAMO_TABLE")
		}
		client := dynamodb.NewFromConfig(awsCfg)
		table := cfg.DynamoTable
		built.Backend = storage.NewDynamoBackend(client, table)
		built.Ready = func(ctx context.Context) error {
			_, err := client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(table)})
			return err
		}

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
	}

	logger.Info("storage backend ready", "backend", name, "storage_key", cfg.StorageKey)
	return built, nil
}
