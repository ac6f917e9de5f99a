// Package cache memoizes pure pipeline steps by content-addressed keys.
package cache

import (
	"fmt"

	"github.com/dgraph-io/ristretto"
	"go.uber.org/zap"

	"github.com/KaramelBytes/telefilter/internal/metrics"
)

// Cache is a bounded, content-addressed store. Keys must be derived from the
// full input of the memoized function so entries can never go stale.
type Cache struct {
	name    string
	store   *ristretto.Cache
	log     *zap.Logger
	metrics *metrics.Metrics
}

// Config sizes a cache. MaxCost is in caller-defined units (bytes, rows).
type Config struct {
	Name    string
	MaxCost int64
	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

// New builds a cache. A nil logger disables logging; nil metrics disables counting.
func New(cfg Config) (*Cache, error) {
	maxCost := cfg.MaxCost
	if maxCost <= 0 {
		maxCost = 1 << 28
	}
	store, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e5,
		MaxCost:     maxCost,
		BufferItems: 64,
		// Costs are supplied by callers; keep ristretto's own bookkeeping out of the budget.
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("new %s cache: %w", cfg.Name, err)
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Cache{name: cfg.Name, store: store, log: log.With(zap.String("cache", cfg.Name)), metrics: cfg.Metrics}, nil
}

// Get returns the cached value for key.
func (c *Cache) Get(key string) (any, bool) {
	v, ok := c.store.Get(key)
	c.count(ok)
	if ok {
		c.log.Debug("cache hit", zap.String("key", short(key)))
	}
	return v, ok
}

// Set stores v and waits until it is visible to Get.
func (c *Cache) Set(key string, v any, cost int64) {
	if cost <= 0 {
		cost = 1
	}
	if c.store.Set(key, v, cost) {
		c.store.Wait()
	}
}

// Close releases the cache's background goroutines.
func (c *Cache) Close() { c.store.Close() }

func (c *Cache) count(hit bool) {
	if c.metrics == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	c.metrics.CacheLookups.WithLabelValues(c.name, result).Inc()
}

// Memo returns the cached result for key or computes, stores and returns it.
// Errors are never cached. cost sizes the stored value.
func Memo[T any](c *Cache, key string, cost func(T) int64, fn func() (T, error)) (T, error) {
	if v, ok := c.Get(key); ok {
		if t, ok := v.(T); ok {
			return t, nil
		}
	}
	c.log.Debug("cache miss", zap.String("key", short(key)))
	t, err := fn()
	if err != nil {
		return t, err
	}
	c.Set(key, t, cost(t))
	return t, nil
}

func short(key string) string {
	if len(key) > 12 {
		return key[:12]
	}
	return key
}
