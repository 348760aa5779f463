package oioproxy

import (
	"errors"
	"expvar"
	"sync"
	"time"
)

// CacheMetrics mirrors the teacher's DNS cache hit/miss/entries counters
// (cache.go's CacheMetrics), renamed from "DNS answers" to the address
// lists this proxy caches.
type CacheMetrics struct {
	hit     *expvar.Int
	miss    *expvar.Int
	entries *expvar.Int
}

func newCacheMetrics(id string) *CacheMetrics {
	return &CacheMetrics{
		hit:     getVarInt("cache", id, "hit"),
		miss:    getVarInt("cache", id, "miss"),
		entries: getVarInt("cache", id, "entries"),
	}
}

// CacheStats is the snapshot returned by Cache.Info (spec §3 "Cache
// statistics"): current count, configured max, configured TTL.
type CacheStats struct {
	Count int           `json:"count"`
	Max   int           `json:"max"`
	TTL   time.Duration `json:"ttl"`
}

// CacheBackend is the storage seam a Cache delegates to. memoryCacheBackend
// (the default) and RedisCacheBackend both implement it, mirroring the
// teacher's Cache/CacheBackend split across cache.go, cache-memory.go and
// cache-redis.go.
type CacheBackend interface {
	Get(key string) ([]string, bool)
	Put(key string, value []string, now time.Time)
	Expire(now time.Time, ttl time.Duration) int
	Purge(now time.Time, max int) int
	Flush()
	Decache(key string) bool
	Size() int
}

// Cache is the generic bounded TTL cache from spec §4.1: maps string
// keys to address lists, with independent size (max) and time (ttl)
// based eviction, all operations serialized behind a single writer lock
// (spec §4.1: "a single writer lock per cache is acceptable").
type Cache struct {
	id      string
	mu      sync.Mutex
	backend CacheBackend
	ttl     time.Duration
	max     int
	metrics *CacheMetrics
}

// NewCache returns a Cache identified by id (used in metric names),
// using backend for storage. A nil backend defaults to an in-memory
// insertion-ordered list bounded by max.
func NewCache(id string, ttl time.Duration, max int, backend CacheBackend) *Cache {
	if backend == nil {
		backend = newMemoryCacheBackend(max)
	}
	return &Cache{
		id:      id,
		backend: backend,
		ttl:     ttl,
		max:     max,
		metrics: newCacheMetrics(id),
	}
}

// Get returns a caller-owned copy of the cached address list for key, or
// (nil, false) on a miss (spec §4.1: "on hit returns a caller-owned deep
// copy").
func (c *Cache) Get(key string) ([]string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	value, ok := c.backend.Get(key)
	if !ok {
		c.metrics.miss.Add(1)
		cacheHitsTotal.WithLabelValues(c.id, "miss").Inc()
		return nil, false
	}
	c.metrics.hit.Add(1)
	cacheHitsTotal.WithLabelValues(c.id, "hit").Inc()
	out := make([]string, len(value))
	copy(out, value)
	return out, true
}

// Put inserts or replaces key, stamping its insertion clock as now, then
// evicts from the backend down to the configured max if exceeded
// (max <= 0 disables size-based eviction). Rejects an empty key (spec
// §4.1: "put... may reject if input is invalid (null key)").
func (c *Cache) Put(key string, value []string, now time.Time) error {
	if key == "" {
		return errors.New("oioproxy: empty cache key")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.backend.Put(key, value, now)
	if c.max > 0 {
		c.backend.Purge(now, c.max)
	}
	c.metrics.entries.Set(int64(c.backend.Size()))
	return nil
}

// Expire removes every entry with now-insertedAt >= ttl and returns the
// number evicted. A configured ttl <= 0 disables time-based expiry.
func (c *Cache) Expire(now time.Time) int {
	if c.ttl <= 0 {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	n := c.backend.Expire(now, c.ttl)
	c.metrics.entries.Set(int64(c.backend.Size()))
	return n
}

// Purge re-applies the size bound as a redundant pass (spec §4.1).
func (c *Cache) Purge(now time.Time) int {
	if c.max <= 0 {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	n := c.backend.Purge(now, c.max)
	c.metrics.entries.Set(int64(c.backend.Size()))
	return n
}

// Flush removes every entry.
func (c *Cache) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.backend.Flush()
	c.metrics.entries.Set(0)
}

// Decache removes one entry if present and reports whether it was.
func (c *Cache) Decache(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	ok := c.backend.Decache(key)
	c.metrics.entries.Set(int64(c.backend.Size()))
	return ok
}

// Info returns a snapshot of the cache's current statistics.
func (c *Cache) Info() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{Count: c.backend.Size(), Max: c.max, TTL: c.ttl}
}

// SetTTL and SetMax allow runtime tuning of a live cache via the
// /cache/set endpoints (spec §6). SetMax also hands the new bound to the
// backend at once, so a raised, lowered or disabled (<= 0) max governs
// the very next Put.
func (c *Cache) SetTTL(ttl time.Duration) {
	c.mu.Lock()
	c.ttl = ttl
	c.mu.Unlock()
}

func (c *Cache) SetMax(max int) {
	c.mu.Lock()
	c.max = max
	c.backend.Purge(time.Now(), max)
	c.mu.Unlock()
}
