package config_test

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/arisium-chains/aurum-miniapp-prod-sub001/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load()

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldResemble, config.New())
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("AURUM_ADDR", ":8080")
			_ = os.Setenv("AURUM_SCORE_TTL", "2h")
			_ = os.Setenv("AURUM_HISTORY_MAX", "25")
			_ = os.Setenv("AURUM_STORAGE_BACKEND", "Badger")
			_ = os.Setenv("AURUM_S3_PATH_STYLE", "true")
			_ = os.Setenv("AURUM_BREAKER_FAILURE_THRESHOLD", "3")
			defer clearConfigEnvVars()

			cfg, err := config.Load()

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.ScoreTTL, convey.ShouldEqual, 2*time.Hour)
				convey.So(cfg.HistoryMax, convey.ShouldEqual, 25)
				convey.So(cfg.StorageBackend, convey.ShouldEqual, config.BackendBadger)
				convey.So(cfg.S3PathStyle, convey.ShouldBeTrue)
				convey.So(cfg.BreakerFailureThreshold, convey.ShouldEqual, 3)
			})
		})

		convey.Convey("When loading metrics settings", func() {
			yamlContent := `
metrics_subsystem: engine
metrics_const_labels:
  env: staging
  region: bkk
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("AURUM_CONFIG", tmpFile)
			_ = os.Setenv("AURUM_METRICS_ENABLED", "false")
			_ = os.Setenv("AURUM_METRICS_BUCKETS", "1,5,25")
			defer clearConfigEnvVars()

			cfg, err := config.Load()

			convey.Convey("Then file labels and env lists are decoded", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.MetricsEnabled, convey.ShouldBeFalse)
				convey.So(cfg.MetricsNamespace, convey.ShouldEqual, "aurum")
				convey.So(cfg.MetricsSubsystem, convey.ShouldEqual, "engine")
				convey.So(cfg.MetricsBuckets, convey.ShouldResemble, []float64{1, 5, 25})
				convey.So(cfg.MetricsConstLabels, convey.ShouldResemble, map[string]string{"env": "staging", "region": "bkk"})
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
# storage
addr: ":9090"
storage_backend: s3
s3_bucket: aurum-scores
s3_endpoint: "http://localhost:9000"
sweep_interval: 15m
sweep_page_size: 100
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("AURUM_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load()

			convey.Convey("Then it should load from YAML file and keep other defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.StorageBackend, convey.ShouldEqual, config.BackendS3)
				convey.So(cfg.S3Bucket, convey.ShouldEqual, "aurum-scores")
				convey.So(cfg.S3Endpoint, convey.ShouldEqual, "http://localhost:9000")
				convey.So(cfg.SweepInterval, convey.ShouldEqual, 15*time.Minute)
				convey.So(cfg.SweepPageSize, convey.ShouldEqual, 100)
				convey.So(cfg.ScoreTTL, convey.ShouldEqual, 24*time.Hour)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			yamlContent := `
addr: ":9090"
history_max: 5
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("AURUM_CONFIG", tmpFile)
			_ = os.Setenv("AURUM_ADDR", ":8080")
			defer clearConfigEnvVars()

			cfg, err := config.Load()

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.HistoryMax, convey.ShouldEqual, 5)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("AURUM_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load()

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("AURUM_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load()

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("AURUM_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load()

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid durations", func() {
			_ = os.Setenv("AURUM_SCORE_TTL", "soon")
			defer clearConfigEnvVars()

			cfg, err := config.Load()

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with an unknown backend", func() {
			_ = os.Setenv("AURUM_STORAGE_BACKEND", "dynamo")
			defer clearConfigEnvVars()

			cfg, err := config.Load()

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"AURUM_CONFIG",
		"AURUM_ADDR",
		"AURUM_SCORE_TTL",
		"AURUM_HISTORY_MAX",
		"AURUM_STORAGE_BACKEND",
		"AURUM_S3_PATH_STYLE",
		"AURUM_BREAKER_FAILURE_THRESHOLD",
		"AURUM_METRICS_ENABLED",
		"AURUM_METRICS_BUCKETS",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "aurum-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
