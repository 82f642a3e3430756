package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/arisium-chains/aurum-miniapp-prod-sub001/pkg/metrics"
	"github.com/goccy/go-json"
)

// DefaultTimeout bounds each backend call made through a Store.
const DefaultTimeout = 5 * time.Second

// Option applies a configuration option to the Store.
type Option func(*Store)

// WithTimeout sets the per-call timeout. Zero or negative disables it.
func WithTimeout(d time.Duration) Option {
	return func(s *Store) {
		s.timeout = d
	}
}

// Store is the JSON facade over a Backend used by the repositories.
type Store struct {
	backend Backend
	timeout time.Duration
}

// NewStore wraps backend with JSON encoding, timeouts and metrics.
func NewStore(backend Backend, opts ...Option) *Store {
	s := &Store{backend: backend, timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

func observe(op string, start time.Time, err error) {
	failed := err != nil && !errors.Is(err, ErrNotFound)
	metrics.RecordStorageOp(op, float64(time.Since(start).Microseconds())/1000, failed)
}

// GetJSON decodes the object at key into v. It reports false when the key
// does not exist and wraps ErrMalformed when the bytes are not valid JSON
// for v.
func (s *Store) GetJSON(ctx context.Context, key string, v any) (found bool, err error) {
	if key == "" {
		return false, ErrInvalidKey
	}
	start := time.Now()
	defer func() { observe("get", start, err) }()

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	data, err := s.backend.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return true, fmt.Errorf("decode %s: %w: %w", key, ErrMalformed, err)
	}
	return true, nil
}

// StoreJSON encodes v and writes it at key.
func (s *Store) StoreJSON(ctx context.Context, key string, v any) (err error) {
	if key == "" {
		return ErrInvalidKey
	}
	start := time.Now()
	defer func() { observe("put", start, err) }()

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.backend.Put(ctx, key, data); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Missing keys are not an error.
func (s *Store) Delete(ctx context.Context, key string) (err error) {
	if key == "" {
		return ErrInvalidKey
	}
	start := time.Now()
	defer func() { observe("delete", start, err) }()

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.backend.Delete(ctx, key); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// ListObjects returns one page of keys under in.Prefix.
func (s *Store) ListObjects(ctx context.Context, in ListInput) (page ListPage, err error) {
	start := time.Now()
	defer func() { observe("list", start, err) }()

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	page, err = s.backend.List(ctx, in)
	if err != nil {
		return ListPage{}, fmt.Errorf("list %s: %w", in.Prefix, err)
	}
	return page, nil
}

// Close releases the backend when it holds resources.
func (s *Store) Close() error {
	if c, ok := s.backend.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
