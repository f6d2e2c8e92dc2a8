// Package cache is a typed view over go-cache for short-lived local state.
package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Cache holds values of one type under string keys until they expire
type Cache[V any] interface {
	Get(key string) (V, bool)
	Set(key string, value V)
	// Add stores value only if key is absent or expired; it reports whether it did
	Add(key string, value V) bool
	Delete(key string)
	// DeleteIf removes key when its live value satisfies match
	DeleteIf(key string, match func(V) bool) bool
	Values() []V
	Clear()
}

// TTLCache implements Cache; every entry lives for the cache's TTL
type TTLCache[V any] struct {
	data *gocache.Cache
}

// New creates a cache whose entries expire after ttl
func New[V any](ttl time.Duration) *TTLCache[V] {
	return &TTLCache[V]{
		data: gocache.New(ttl, ttl*2),
	}
}

func (c *TTLCache[V]) Get(key string) (V, bool) {
	v, ok := c.data.Get(key)
	if !ok {
		var zero V
		return zero, false
	}
	return v.(V), true
}

func (c *TTLCache[V]) Set(key string, value V) {
	c.data.SetDefault(key, value)
}

func (c *TTLCache[V]) Add(key string, value V) bool {
	return c.data.Add(key, value, gocache.DefaultExpiration) == nil
}

func (c *TTLCache[V]) Delete(key string) {
	c.data.Delete(key)
}

func (c *TTLCache[V]) DeleteIf(key string, match func(V) bool) bool {
	v, ok := c.Get(key)
	if !ok || !match(v) {
		return false
	}
	c.data.Delete(key)
	return true
}

// Values returns every unexpired value in no particular order
func (c *TTLCache[V]) Values() []V {
	items := c.data.Items()
	out := make([]V, 0, len(items))
	for _, item := range items {
		out = append(out, item.Object.(V))
	}
	return out
}

func (c *TTLCache[V]) Clear() {
	c.data.Flush()
}
