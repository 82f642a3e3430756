package main

import (
	"context"
	"fmt"

	"github.com/arisium-chains/aurum-miniapp-prod-sub001/internal/adapters/blobstore"
	"github.com/arisium-chains/aurum-miniapp-prod-sub001/internal/config"
	"github.com/arisium-chains/aurum-miniapp-prod-sub001/pkg/logger"
)

// newBackend opens the configured blob store behind a circuit breaker.
func newBackend(ctx context.Context, cfg *config.Config, log logger.Logger) (blobstore.Backend, error) {
	var raw blobstore.Backend
	switch cfg.StorageBackend {
	case config.BackendMemory:
		raw = blobstore.NewMemoryBackend()
	case config.BackendBadger:
		b, err := blobstore.OpenBadger(cfg.BadgerDir)
		if err != nil {
			return nil, err
		}
		raw = b
	case config.BackendRedis:
		b, err := blobstore.OpenRedis(ctx, blobstore.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		raw = b
	case config.BackendS3:
		client, err := blobstore.NewS3Client(ctx, blobstore.S3Config{
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			UsePathStyle:    cfg.S3PathStyle,
		})
		if err != nil {
			return nil, err
		}
		raw = blobstore.NewS3Backend(client, cfg.S3Bucket)
	default:
		return nil, fmt.Errorf("%w: unknown storage_backend %q", config.ErrInvalidConfig, cfg.StorageBackend)
	}

	log.Info(ctx, "blob store opened", logger.String("backend", cfg.StorageBackend))
	return blobstore.NewBreakerBackend(raw,
		blobstore.WithBreakerName(cfg.StorageBackend),
		blobstore.WithFailureThreshold(cfg.BreakerFailureThreshold),
		blobstore.WithOpenTimeout(cfg.BreakerOpenTimeout),
		blobstore.WithBreakerLogger(log.Named("breaker")),
	), nil
}
