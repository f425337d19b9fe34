package query

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Cache memoizes query results by key. Entries are never evicted or
// invalidated, so a cached result goes stale once the table changes.
// Safe for concurrent use.
type Cache[T any] struct {
	mu      sync.RWMutex
	entries map[string]T
	group   singleflight.Group

	hits   uint64
	misses uint64
}

// CacheStats reports cache usage.
type CacheStats struct {
	Entries int
	Hits    uint64
	Misses  uint64
}

// NewCache creates an empty cache.
func NewCache[T any]() *Cache[T] {
	return &Cache[T]{entries: make(map[string]T)}
}

// Get returns the value stored under key.
func (c *Cache[T]) Get(key string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[key]
	return v, ok
}

// Set stores v under key, replacing any previous value.
func (c *Cache[T]) Set(key string, v T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = v
}

// Len returns the number of entries.
func (c *Cache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns a snapshot of cache usage.
func (c *Cache[T]) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return CacheStats{Entries: len(c.entries), Hits: c.hits, Misses: c.misses}
}

func (c *Cache[T]) lookup(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return v, ok
}

// Key returns the cache key of q: the length-prefixed text followed by
// each argument rendered with its type, so "40" and 40 differ.
func Key(q Query) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d:%s", len(q.Text), q.Text)
	for _, a := range q.Args {
		fmt.Fprintf(&b, "\x00%T:%#v", a, a)
	}
	return b.String()
}

// Cached returns results from cache when present. On a miss it delegates,
// stores a successful result and returns it. Errors are not cached.
// Concurrent misses on one key share a single call to next.
func Cached[T any](cache *Cache[T], log *slog.Logger) Middleware[T] {
	return func(next Func[T]) Func[T] {
		return func(ctx context.Context, q Query) (T, error) {
			key := Key(q)
			if v, ok := cache.lookup(key); ok {
				log.InfoContext(ctx, "cache hit", slog.String("sql", q.Text))
				return v, nil
			}

			log.InfoContext(ctx, "cache miss", slog.String("sql", q.Text))
			v, err, _ := cache.group.Do(key, func() (any, error) {
				if v, ok := cache.Get(key); ok {
					return v, nil
				}
				v, err := next(ctx, q)
				if err != nil {
					return nil, err
				}
				cache.Set(key, v)
				return v, nil
			})
			if err != nil {
				var zero T
				return zero, err
			}
			out, _ := v.(T)
			return out, nil
		}
	}
}
