package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/arisium-chains/aurum-miniapp-prod-sub001/pkg/logger"
	"github.com/arisium-chains/aurum-miniapp-prod-sub001/pkg/metrics"
	gobreaker "github.com/sony/gobreaker/v2"
)

// Default circuit breaker settings.
const (
	defaultFailureThreshold = 5
	defaultOpenTimeout      = 30 * time.Second
)

// BreakerOption applies a configuration option to a BreakerBackend.
type BreakerOption func(*breakerConfig)

type breakerConfig struct {
	name             string
	failureThreshold uint32
	openTimeout      time.Duration
	logger           logger.Logger
}

// WithBreakerName names the breaker in logs and metrics.
func WithBreakerName(name string) BreakerOption {
	return func(c *breakerConfig) {
		if name != "" {
			c.name = name
		}
	}
}

// WithFailureThreshold sets how many consecutive failures open the breaker.
func WithFailureThreshold(n uint32) BreakerOption {
	return func(c *breakerConfig) {
		if n > 0 {
			c.failureThreshold = n
		}
	}
}

// WithOpenTimeout sets how long the breaker stays open before probing.
func WithOpenTimeout(d time.Duration) BreakerOption {
	return func(c *breakerConfig) {
		if d > 0 {
			c.openTimeout = d
		}
	}
}

// WithBreakerLogger sets the logger used for state transitions.
func WithBreakerLogger(l logger.Logger) BreakerOption {
	return func(c *breakerConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// BreakerBackend guards a Backend with a circuit breaker. While open, calls
// fail fast with ErrUnavailable instead of waiting on a dead store.
// ErrNotFound and caller cancellations do not count as failures.
type BreakerBackend struct {
	next Backend
	cb   *gobreaker.CircuitBreaker[any]
}

// NewBreakerBackend wraps next.
func NewBreakerBackend(next Backend, opts ...BreakerOption) *BreakerBackend {
	cfg := breakerConfig{
		name:             "blobstore",
		failureThreshold: defaultFailureThreshold,
		openTimeout:      defaultOpenTimeout,
		logger:           logger.Nop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	settings := gobreaker.Settings{
		Name:        cfg.name,
		MaxRequests: 1,
		Timeout:     cfg.openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.failureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.UpdateBreakerState(name, int(to))
			cfg.logger.Warn(context.Background(), "blob store breaker state changed",
				logger.String("breaker", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()),
			)
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, context.Canceled)
		},
	}
	metrics.UpdateBreakerState(cfg.name, int(gobreaker.StateClosed))

	return &BreakerBackend{next: next, cb: gobreaker.NewCircuitBreaker[any](settings)}
}

// State returns the breaker state name (closed, half-open, open).
func (b *BreakerBackend) State() string {
	return b.cb.State().String()
}

func (b *BreakerBackend) execute(fn func() (any, error)) (any, error) {
	v, err := b.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return v, err
}

// Get implements Backend.
func (b *BreakerBackend) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := b.execute(func() (any, error) { return b.next.Get(ctx, key) })
	if err != nil {
		return nil, err
	}
	data, _ := v.([]byte)
	return data, nil
}

// Put implements Backend.
func (b *BreakerBackend) Put(ctx context.Context, key string, data []byte) error {
	_, err := b.execute(func() (any, error) { return nil, b.next.Put(ctx, key, data) })
	return err
}

// Delete implements Backend.
func (b *BreakerBackend) Delete(ctx context.Context, key string) error {
	_, err := b.execute(func() (any, error) { return nil, b.next.Delete(ctx, key) })
	return err
}

// List implements Backend.
func (b *BreakerBackend) List(ctx context.Context, in ListInput) (ListPage, error) {
	v, err := b.execute(func() (any, error) { return b.next.List(ctx, in) })
	if err != nil {
		return ListPage{}, err
	}
	page, _ := v.(ListPage)
	return page, nil
}

// Close closes the wrapped backend when it holds resources.
func (b *BreakerBackend) Close() error {
	if c, ok := b.next.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
