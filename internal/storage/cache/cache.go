// Package cache provides a TTL read-through cache for committed configuration.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/allegro/bigcache/v3"
)

// Cache holds JSON-encoded values of type T keyed by string.
// Loads and writes are serialized so that a load never caches a value a
// concurrent write has already replaced.
type Cache[T any] struct {
	mu    sync.Mutex
	store *bigcache.BigCache
	ttl   time.Duration
}

// New creates a Cache whose entries expire after ttl.
func New[T any](ctx context.Context, ttl time.Duration) (*Cache[T], error) {
	if ttl <= 0 {
		return nil, fmt.Errorf("cache ttl must be positive, got %s", ttl)
	}
	config := bigcache.DefaultConfig(ttl)
	config.Shards = 16
	config.MaxEntriesInWindow = 1024
	config.Verbose = false

	store, err := bigcache.New(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}
	return &Cache[T]{store: store, ttl: ttl}, nil
}

// TTL returns the lifetime of cached entries.
func (c *Cache[T]) TTL() time.Duration {
	return c.ttl
}

// GetOrLoad returns the cached value for key, loading and caching it on a miss.
func (c *Cache[T]) GetOrLoad(ctx context.Context, key string, load func(ctx context.Context) (T, error)) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if value, ok := c.get(key); ok {
		return value, nil
	}

	value, err := load(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		slog.Warn("failed to encode cache entry", "key", key, "error", err)
		return value, nil
	}
	if err := c.store.Set(key, encoded); err != nil {
		slog.Warn("failed to store cache entry", "key", key, "error", err)
	}
	return value, nil
}

func (c *Cache[T]) get(key string) (T, bool) {
	var value T
	encoded, err := c.store.Get(key)
	if err != nil {
		if !errors.Is(err, bigcache.ErrEntryNotFound) {
			slog.Warn("failed to read cache entry", "key", key, "error", err)
		}
		return value, false
	}
	if err := json.Unmarshal(encoded, &value); err != nil {
		slog.Warn("failed to decode cache entry", "key", key, "error", err)
		_ = c.store.Delete(key)
		return value, false
	}
	return value, true
}

// Update runs write under the cache lock and invalidates key afterwards,
// whether or not write succeeded.
func (c *Cache[T]) Update(key string, write func() error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.invalidate(key)
	return write()
}

// Invalidate drops the cached value for key.
func (c *Cache[T]) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidate(key)
}

func (c *Cache[T]) invalidate(key string) {
	if err := c.store.Delete(key); err != nil && !errors.Is(err, bigcache.ErrEntryNotFound) {
		slog.Warn("failed to invalidate cache entry", "key", key, "error", err)
	}
}

// Len returns the number of cached entries.
func (c *Cache[T]) Len() int {
	return c.store.Len()
}

// Close releases the cache.
func (c *Cache[T]) Close() error {
	return c.store.Close()
}
