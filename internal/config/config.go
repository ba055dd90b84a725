package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env      string
	HTTPPort string

	DatabaseURL string

	LogLevel  string
	LogFormat string

	// Scope locking for receipt-line writes. With Redis disabled the
	// lock is process-local, which is only safe for single-instance
	// deployments.
	RedisEnabled bool
	RedisAddr    string
	RedisDB      int
	ScopeLockTTL time.Duration

	// Raw-manifest archive (S3 compatible). Optional.
	ArchiveEnabled   bool
	ArchiveEndpoint  string
	ArchiveAccessKey string
	ArchiveSecretKey string
	ArchiveBucket    string
	ArchiveUseSSL    bool

	// Per-client-IP fixed windows of one minute. Ingest gets its own
	// budget because every request carries a whole manifest.
	APIRateLimitPerMin    int
	IngestRateLimitPerMin int

	OTELTracingEnabled       bool
	OTELMetricsEnabled       bool
	OTELExporterOTLPEndpoint string
	OTELExporterOTLPInsecure bool
	OTELServiceName          string
	OTELEnvironment          string
	OTELTraceSamplingRatio   float64
}

func Load() (*Config, error) {
	cfg := &Config{
		Env:         getEnv("APP_ENV", "development"),
		HTTPPort:    getEnv("HTTP_PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "json")),

		RedisEnabled: getEnvBool("REDIS_ENABLED", false),
		RedisAddr:    getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:      getEnvInt("REDIS_DB", 0),

		ArchiveEnabled:   getEnvBool("MANIFEST_ARCHIVE_ENABLED", false),
		ArchiveEndpoint:  os.Getenv("MANIFEST_ARCHIVE_ENDPOINT"),
		ArchiveAccessKey: os.Getenv("MANIFEST_ARCHIVE_ACCESS_KEY"),
		ArchiveSecretKey: os.Getenv("MANIFEST_ARCHIVE_SECRET_KEY"),
		ArchiveBucket:    getEnv("MANIFEST_ARCHIVE_BUCKET", "transfer-manifests"),
		ArchiveUseSSL:    getEnvBool("MANIFEST_ARCHIVE_USE_SSL", true),

		APIRateLimitPerMin:    getEnvInt("API_RATE_LIMIT_PER_MIN", 600),
		IngestRateLimitPerMin: getEnvInt("INGEST_RATE_LIMIT_PER_MIN", 60),

		OTELTracingEnabled:       getEnvBool("OTEL_TRACING_ENABLED", false),
		OTELMetricsEnabled:       getEnvBool("OTEL_METRICS_ENABLED", false),
		OTELExporterOTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://localhost:4318"),
		OTELExporterOTLPInsecure: getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", false),
		OTELServiceName:          getEnv("OTEL_SERVICE_NAME", "fastits"),
		OTELEnvironment:          getEnv("OTEL_ENVIRONMENT", "development"),
	}

	lockTTL, err := time.ParseDuration(getEnv("SCOPE_LOCK_TTL", "10s"))
	if err != nil {
		return nil, fmt.Errorf("parse SCOPE_LOCK_TTL: %w", err)
	}
	cfg.ScopeLockTTL = lockTTL

	ratio, err := strconv.ParseFloat(getEnv("OTEL_TRACE_SAMPLING_RATIO", "1.0"), 64)
	if err != nil {
		return nil, fmt.Errorf("parse OTEL_TRACE_SAMPLING_RATIO: %w", err)
	}
	cfg.OTELTraceSamplingRatio = ratio

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []string
	if c.DatabaseURL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}
	if c.RedisEnabled && c.RedisAddr == "" {
		errs = append(errs, "REDIS_ADDR is required when REDIS_ENABLED is set")
	}
	if c.ScopeLockTTL < time.Second || c.ScopeLockTTL > time.Minute {
		errs = append(errs, "SCOPE_LOCK_TTL must be between 1s and 1m")
	}
	if c.ArchiveEnabled {
		if c.ArchiveEndpoint == "" {
			errs = append(errs, "MANIFEST_ARCHIVE_ENDPOINT is required when archiving is enabled")
		}
		if c.ArchiveAccessKey == "" || c.ArchiveSecretKey == "" {
			errs = append(errs, "MANIFEST_ARCHIVE_ACCESS_KEY and MANIFEST_ARCHIVE_SECRET_KEY are required when archiving is enabled")
		}
		if c.ArchiveBucket == "" {
			errs = append(errs, "MANIFEST_ARCHIVE_BUCKET must not be empty")
		}
	}
	if c.APIRateLimitPerMin < 1 || c.IngestRateLimitPerMin < 1 {
		errs = append(errs, "rate limits must be positive")
	}
	if c.OTELTraceSamplingRatio < 0 || c.OTELTraceSamplingRatio > 1 {
		errs = append(errs, "OTEL_TRACE_SAMPLING_RATIO must be between 0 and 1")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func getEnv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
