package blobstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const redisDialTimeout = 5 * time.Second

// RedisConfig configures a Redis connection.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RedisBackend stores objects as plain Redis strings. The list cursor is
// the SCAN cursor, so a page may be shorter than MaxKeys (even empty) while
// NextCursor is still set, and keys may repeat across pages.
type RedisBackend struct {
	rdb  goredis.Cmdable
	owns *goredis.Client
}

// NewRedisBackend wraps an existing client. The caller keeps ownership.
func NewRedisBackend(rdb goredis.Cmdable) *RedisBackend {
	return &RedisBackend{rdb: rdb}
}

// OpenRedis connects and pings the server. Close releases the connection.
func OpenRedis(ctx context.Context, cfg RedisConfig) (*RedisBackend, error) {
	if strings.TrimSpace(cfg.Addr) == "" {
		return nil, errors.New("missing redis addr")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: redisDialTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, redisDialTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisBackend{rdb: rdb, owns: rdb}, nil
}

// Get implements Backend.
func (r *RedisBackend) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := r.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return data, nil
}

// Put implements Backend.
func (r *RedisBackend) Put(ctx context.Context, key string, data []byte) error {
	if err := r.rdb.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete implements Backend.
func (r *RedisBackend) Delete(ctx context.Context, key string) error {
	if err := r.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// List implements Backend.
func (r *RedisBackend) List(ctx context.Context, in ListInput) (ListPage, error) {
	var cursor uint64
	if in.Cursor != "" {
		c, err := strconv.ParseUint(in.Cursor, 10, 64)
		if err != nil {
			return ListPage{}, fmt.Errorf("redis scan cursor %q: %w", in.Cursor, err)
		}
		cursor = c
	}

	keys, next, err := r.rdb.Scan(ctx, cursor, globPattern(in.Prefix), int64(in.limit())).Result()
	if err != nil {
		return ListPage{}, fmt.Errorf("redis scan: %w", err)
	}
	sort.Strings(keys)

	page := ListPage{Objects: make([]Object, 0, len(keys))}
	for _, k := range keys {
		page.Objects = append(page.Objects, Object{Key: k})
	}
	if next != 0 {
		page.NextCursor = strconv.FormatUint(next, 10)
	}
	return page, nil
}

// Close closes the connection when this backend opened it.
func (r *RedisBackend) Close() error {
	if r.owns == nil {
		return nil
	}
	return r.owns.Close()
}

// globPattern turns a literal prefix into a SCAN MATCH pattern.
func globPattern(prefix string) string {
	var b strings.Builder
	for _, c := range prefix {
		switch c {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(c)
	}
	b.WriteByte('*')
	return b.String()
}
