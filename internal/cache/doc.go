// Package cache provides a small thread-safe, TTL-bounded, size-bounded
// cache on top of golang-lru's expirable LRU. Lookups never return expired
// entries; when full, the least recently used entry is evicted.
//
// The auth service uses it to avoid re-parsing stored public keys on every
// signed request.
package cache
