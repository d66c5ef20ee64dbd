package bootstrap

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appconfig "github.com/wolfman30/leadform/internal/config"
	"github.com/wolfman30/leadform/internal/leads"
	"github.com/wolfman30/leadform/internal/storage"
	"github.com/wolfman30/leadform/pkg/logging"
)

func testConfig(backend string) *appconfig.Config {
	return &appconfig.Config{
		StorageBackend: backend,
		StorageKey:     appconfig.DefaultStorageKey,
		AWSRegion:      "us-east-1",
	}
}

func TestBuildRedisClient_EmptyAddr(t *testing.T) {
	assert.Nil(t, BuildRedisClient(context.Background(), &appconfig.Config{}, nil, true))
}

func TestBuildRedisClient_VerifyFailsReturnsNil(t *testing.T) {
	cfg := &appconfig.Config{RedisAddr: "127.0.0.1:1"}
	assert.Nil(t, BuildRedisClient(context.Background(), cfg, logging.Default(), true))
}

func TestBuildStorage_Memory(t *testing.T) {
	built, err := BuildStorage(context.Background(), testConfig(""), aws.Config{}, nil)
	require.NoError(t, err)
	defer built.Close()

	assert.Equal(t, appconfig.BackendMemory, built.Name)
	assert.IsType(t, &storage.MemoryBackend{}, built.Backend)
	assert.NoError(t, built.Ready(context.Background()))
}

func TestBuildStorage_File(t *testing.T) {
	cfg := testConfig(appconfig.BackendFile)
	cfg.FileStorageDir = t.TempDir()

	built, err := BuildStorage(context.Background(), cfg, aws.Config{}, nil)
	require.NoError(t, err)

	store := leads.NewStore(built.Backend, cfg.StorageKey, logging.Default(), nil)
	require.NoError(t, store.Append(context.Background(), leads.Record{FirstName: "A", LastName: "B", Email: "a@b.co"}))
	assert.Equal(t, 1, store.Count(context.Background()))
}

func TestBuildStorage_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(appconfig.BackendRedis)
	cfg.RedisAddr = mr.Addr()

	built, err := BuildStorage(context.Background(), cfg, aws.Config{}, nil)
	require.NoError(t, err)
	defer built.Close()

	require.NoError(t, built.Ready(context.Background()))
	require.NoError(t, built.Backend.SetItem(context.Background(), cfg.StorageKey, "[]"))
	assert.True(t, mr.Exists(RedisKeyPrefix+cfg.StorageKey))
}

func TestBuildStorage_MissingSettings(t *testing.T) {
	cases := map[string]*appconfig.Config{
		"redis":    testConfig(appconfig.BackendRedis),
		"postgres": testConfig(appconfig.BackendPostgres),
		"s3":       testConfig(appconfig.BackendS3),
		"dynamodb": func() *appconfig.Config { c := testConfig(appconfig.BackendDynamo); c.DynamoTable = " "; return c }(),
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := BuildStorage(context.Background(), cfg, aws.Config{}, nil)
			assert.Error(t, err)
		})
	}
}

func TestBuildStorage_AWSBackends(t *testing.T) {
	awsCfg := aws.Config{Region: "us-east-1"}

	cfg := testConfig(appconfig.BackendS3)
	cfg.S3Bucket = "leads"
	cfg.S3Prefix = "form/"
	built, err := BuildStorage(context.Background(), cfg, awsCfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &storage.S3Backend{}, built.Backend)

	cfg = testConfig(appconfig.BackendDynamo)
	cfg.DynamoTable = "leadform_store"
	built, err = BuildStorage(context.Background(), cfg, awsCfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &storage.DynamoBackend{}, built.Backend)
}

func TestBuildStorage_Unknown(t *testing.T) {
	_, err := BuildStorage(context.Background(), testConfig("etcd"), aws.Config{}, nil)
	assert.True(t, errors.Is(err, ErrUnknownBackend))
}

func TestBuildTracker_Sinks(t *testing.T) {
	tracker := BuildTracker(&appconfig.Config{}, aws.Config{}, nil, nil)
	assert.Equal(t, []string{"log"}, tracker.SinkNames())

	tracker = BuildTracker(&appconfig.Config{ConversionQueueURL: "http://localhost:4566/000000000000/conversions"},
		aws.Config{Region: "us-east-1"}, nil, nil)
	assert.Equal(t, []string{"log", "sqs"}, tracker.SinkNames())
}
