// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers a YAML file and environment variables over the defaults.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Storage backend names.
const (
	BackendMemory = "memory"
	BackendS3     = "s3"
	BackendBadger = "badger"
	BackendRedis  = "redis"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// MetricsEnabled turns metric recording on or off.
	MetricsEnabled   bool   `koanf:"metrics_enabled"`
	MetricsNamespace string `koanf:"metrics_namespace"`
	MetricsSubsystem string `koanf:"metrics_subsystem"`
	// MetricsBuckets overrides the latency histogram buckets (milliseconds).
	// From the environment it is a comma separated list.
	MetricsBuckets []float64 `koanf:"metrics_buckets"`
	// MetricsConstLabels are attached to every metric, e.g. env or region.
	MetricsConstLabels map[string]string `koanf:"metrics_const_labels"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// StorageBackend selects the blob store: memory, s3, badger or redis.
	StorageBackend string `koanf:"storage_backend"`
	// StoreTimeout bounds every blob store call.
	StoreTimeout time.Duration `koanf:"store_timeout"`

	S3Bucket          string `koanf:"s3_bucket"`
	S3Region          string `koanf:"s3_region"`
	S3Endpoint        string `koanf:"s3_endpoint"`
	S3AccessKeyID     string `koanf:"s3_access_key_id"`
	S3SecretAccessKey string `koanf:"s3_secret_access_key"`
	S3PathStyle       bool   `koanf:"s3_path_style"`

	// BadgerDir is the database directory. Empty runs Badger in memory.
	BadgerDir string `koanf:"badger_dir"`

	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`

	// BreakerFailureThreshold is the number of consecutive storage failures
	// that open the circuit breaker.
	BreakerFailureThreshold uint32 `koanf:"breaker_failure_threshold"`
	// BreakerOpenTimeout is how long the breaker stays open before probing.
	BreakerOpenTimeout time.Duration `koanf:"breaker_open_timeout"`

	// ScoreTTL is the lifetime of a session score.
	ScoreTTL time.Duration `koanf:"score_ttl"`
	// HistoryMax bounds the per-user score history.
	HistoryMax int `koanf:"history_max"`
	// EntitlementValidity is the lifetime of a computed final score.
	EntitlementValidity time.Duration `koanf:"entitlement_validity"`

	// SweepInterval is the period of the expiry sweep. Zero disables it.
	SweepInterval time.Duration `koanf:"sweep_interval"`
	// SweepPageSize is the listing page size used by the sweep.
	SweepPageSize int `koanf:"sweep_page_size"`
	// SweepBudget is the soft time limit of one sweep.
	SweepBudget time.Duration `koanf:"sweep_budget"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:                "info",
		LogFormat:               "text",
		MetricsEnabled:          true,
		MetricsNamespace:        "aurum",
		MetricsSubsystem:        "scoring",
		Addr:                    ":9080",
		StorageBackend:          BackendMemory,
		StoreTimeout:            5 * time.Second,
		S3Region:                "auto",
		RedisAddr:               "localhost:6379",
		BreakerFailureThreshold: 5,
		BreakerOpenTimeout:      30 * time.Second,
		ScoreTTL:                24 * time.Hour,
		HistoryMax:              10,
		EntitlementValidity:     30 * 24 * time.Hour,
		SweepInterval:           time.Hour,
		SweepPageSize:           500,
		SweepBudget:             30 * time.Second,
	}
}

// Validate checks field ranges and backend requirements.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	switch strings.ToLower(c.StorageBackend) {
	case BackendMemory, BackendBadger:
	case BackendS3:
		if c.S3Bucket == "" {
			return fmt.Errorf("%w: s3_bucket is required for the s3 backend", ErrInvalidConfig)
		}
	case BackendRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("%w: redis_addr is required for the redis backend", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown storage_backend %q", ErrInvalidConfig, c.StorageBackend)
	}
	if c.ScoreTTL <= 0 {
		return fmt.Errorf("%w: score_ttl must be positive", ErrInvalidConfig)
	}
	if c.HistoryMax <= 0 {
		return fmt.Errorf("%w: history_max must be positive", ErrInvalidConfig)
	}
	if c.EntitlementValidity <= 0 {
		return fmt.Errorf("%w: entitlement_validity must be positive", ErrInvalidConfig)
	}
	if c.SweepInterval < 0 || c.SweepBudget < 0 || c.SweepPageSize <= 0 {
		return fmt.Errorf("%w: sweep settings out of range", ErrInvalidConfig)
	}
	if c.MetricsNamespace == "" {
		return fmt.Errorf("%w: metrics_namespace must not be empty", ErrInvalidConfig)
	}
	if c.StoreTimeout < 0 {
		return fmt.Errorf("%w: store_timeout must not be negative", ErrInvalidConfig)
	}
	return nil
}
