// Package statscache caches the read API's stats aggregations for a few
// minutes, in process or in Redis when several API workers share it.
package statscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"

	"github.com/couchcryptid/vn-hazard-radar/internal/observability"
)

// DefaultTTL is the lifetime of a cached aggregation.
const DefaultTTL = 3 * time.Minute

// Backend stores encoded values with an expiry.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
}

type item struct {
	val     []byte
	expires time.Time
}

// Memory is a process-wide Backend.
type Memory struct {
	mu    sync.Mutex
	clock clockwork.Clock
	items map[string]item
}

// NewMemory returns an empty Memory backend. A nil clock means real time.
func NewMemory(clock clockwork.Clock) *Memory {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Memory{clock: clock, items: make(map[string]item)}
}

// Get returns the value of key unless it expired.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[key]
	if !ok {
		return nil, false, nil
	}
	if !m.clock.Now().Before(it.expires) {
		delete(m.items, key)
		return nil, false, nil
	}
	return it.val, true, nil
}

// Set stores val under key for ttl.
func (m *Memory) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = item{val: val, expires: m.clock.Now().Add(ttl)}
	return nil
}

// Redis is a Backend shared by every API worker.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis connects to rawURL (redis://...) and pings it.
func NewRedis(ctx context.Context, rawURL string) (*Redis, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Redis{client: client, prefix: "disaster_news:stats:"}, nil
}

// Get returns the value of key.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

// Set stores val under key for ttl.
func (r *Redis) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	return r.client.Set(ctx, r.prefix+key, val, ttl).Err()
}

// Close closes the connection pool.
func (r *Redis) Close() error { return r.client.Close() }

// Cache is a read-through cache over a Backend. Backend failures are logged
// and the value is computed without caching.
type Cache struct {
	backend Backend
	ttl     time.Duration
	metrics *observability.Metrics
	logger  *slog.Logger
}

// New returns a Cache. A non-positive ttl means DefaultTTL.
func New(b Backend, ttl time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{backend: b, ttl: ttl, metrics: metrics, logger: logger}
}

// Get returns the cached value of key, computing and storing it on a miss.
func Get[T any](ctx context.Context, c *Cache, key string, compute func(context.Context) (T, error)) (T, error) {
	var zero T
	if b, ok, err := c.backend.Get(ctx, key); err != nil {
		c.logger.Warn("stats cache read failed", "key", key, "error", err)
	} else if ok {
		var v T
		if err := json.Unmarshal(b, &v); err == nil {
			c.metrics.StatsCache.WithLabelValues("hit").Inc()
			return v, nil
		}
	}
	c.metrics.StatsCache.WithLabelValues("miss").Inc()

	v, err := compute(ctx)
	if err != nil {
		return zero, err
	}
	b, err := json.Marshal(v)
	if err != nil {
		return zero, fmt.Errorf("encode %s: %w", key, err)
	}
	if err := c.backend.Set(ctx, key, b, c.ttl); err != nil {
		c.logger.Warn("stats cache write failed", "key", key, "error", err)
	}
	return v, nil
}
