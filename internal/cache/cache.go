// ABOUTME: Thread-safe TTL cache with size-bounded LRU eviction
// ABOUTME: Used by auth to keep parsed public keys between requests

package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// TTL maps keys to values that expire after a fixed duration. The zero
// value is not usable; call New.
type TTL[K comparable, V any] struct {
	lru *expirable.LRU[K, V]
}

// New creates a cache whose entries live for ttl, holding at most maxSize
// entries. maxSize <= 0 means 1.
func New[K comparable, V any](ttl time.Duration, maxSize int) *TTL[K, V] {
	if maxSize <= 0 {
		maxSize = 1
	}
	return &TTL[K, V]{lru: expirable.NewLRU[K, V](maxSize, nil, ttl)}
}

// Get returns the value for key if it is present and not expired. A hit
// marks the entry as recently used.
func (c *TTL[K, V]) Get(key K) (V, bool) {
	return c.lru.Get(key)
}

// Put stores value under key and restarts its TTL, evicting the least
// recently used entry if the cache is full.
func (c *TTL[K, V]) Put(key K, value V) {
	c.lru.Add(key, value)
}

// GetOrLoad returns the cached value for key, or calls load and caches its
// result. Errors are not cached. Concurrent misses may each call load.
func (c *TTL[K, V]) GetOrLoad(key K, load func(K) (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	v, err := load(key)
	if err != nil {
		return v, err
	}
	c.Put(key, v)
	return v, nil
}

// Len returns the number of entries, including expired ones not yet swept.
func (c *TTL[K, V]) Len() int {
	return c.lru.Len()
}
