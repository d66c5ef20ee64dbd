package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage backend names accepted by STORAGE_BACKEND.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendS3       = "s3"
	BackendDynamo   = "dynamodb"
)

// DefaultStorageKey is the single key under which captured leads are stored.
const DefaultStorageKey = "financial-prompts-leads"

// Config holds application configuration
type Config struct {
	Port               string
	Env                string
	LogLevel           string
	CORSAllowedOrigins []string
	AdminJWTSecret     string
	RateLimitPerSecond float64
	RateLimitBurst     int

	// Form behaviour
	SubmitLatency  time.Duration
	BannerTTL      time.Duration
	CTAFocusDelay  time.Duration
	RevealRatio    float64
	RequiredFields []string

	// Storage
	StorageBackend string
	StorageKey     string
	FileStorageDir string
	DatabaseURL    string
	RedisAddr      string
	RedisPassword  string
	RedisTLS       bool
	S3Bucket       string
	S3Prefix       string
	DynamoTable    string

	// AWS
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	// Conversion tracking
	ConversionQueueURL string
	TrackingBuffer     int
	TrackingTimeout    time.Duration
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8080"),
		Env:                getEnv("ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", nil),
		AdminJWTSecret:     getEnv("ADMIN_JWT_SECRET", ""),
		RateLimitPerSecond: getEnvAsFloat("RATE_LIMIT_PER_SECOND", 5),
		RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 10),

		SubmitLatency:  getEnvAsDuration("FORM_SUBMIT_LATENCY", 1500*time.Millisecond),
		BannerTTL:      getEnvAsDuration("FORM_BANNER_TTL", 5*time.Second),
		CTAFocusDelay:  getEnvAsDuration("FORM_CTA_FOCUS_DELAY", 800*time.Millisecond),
		RevealRatio:    getEnvAsFloat("FORM_REVEAL_RATIO", 0.1),
		RequiredFields: getEnvAsList("FORM_REQUIRED_FIELDS", []string{"firstName", "lastName", "email"}),

		StorageBackend: strings.ToLower(strings.TrimSpace(getEnv("STORAGE_BACKEND", BackendMemory))),
		StorageKey:     getEnv("LEADFORM_STORAGE_KEY", DefaultStorageKey),
		FileStorageDir: getEnv("FILE_STORAGE_DIR", "./data"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		RedisAddr:      getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisTLS:       getEnvAsBool("REDIS_TLS", false),
		S3Bucket:       getEnv("S3_BUCKET", ""),
		S3Prefix:       getEnv("S3_PREFIX", "leadform/"),
		DynamoTable:    getEnv("DYNAMO_TABLE", "leadform_store"),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		ConversionQueueURL: getEnv("CONVERSION_QUEUE_URL", ""),
		TrackingBuffer:     getEnvAsInt("TRACKING_BUFFER", 128),
		TrackingTimeout:    getEnvAsDuration("TRACKING_TIMEOUT", 5*time.Second),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma separated variable, dropping empty entries.
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
