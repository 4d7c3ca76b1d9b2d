// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultMemoryCacheSize is used when no positive size is configured.
const DefaultMemoryCacheSize = 10000

// MemoryCache is a bounded in-memory LRU cache with per-entry expiry.
type MemoryCache struct {
	entries    *lru.Cache[string, memoryCacheEntry]
	defaultTTL time.Duration
	stopCh     chan struct{}
	closed     atomic.Bool

	hits   atomic.Int64
	misses atomic.Int64
	sets   atomic.Int64
}

type memoryCacheEntry struct {
	value     []byte
	expiresAt time.Time
}

func (e memoryCacheEntry) expired(now time.Time) bool {
	return now.After(e.expiresAt)
}

// MemoryCacheOptions configures the memory cache.
type MemoryCacheOptions struct {
	DefaultTTL time.Duration
	// MaxSize is the maximum number of entries; the least recently used
	// entry is evicted beyond it.
	MaxSize int
	// CleanupInterval enables periodic removal of expired entries (0 = off).
	CleanupInterval time.Duration
}

// NewMemoryCache creates a new memory cache with the given options.
func NewMemoryCache(opts MemoryCacheOptions) *MemoryCache {
	size := opts.MaxSize
	if size <= 0 {
		size = DefaultMemoryCacheSize
	}
	if opts.DefaultTTL <= 0 {
		opts.DefaultTTL = time.Hour
	}

	// lru.New only fails for a non-positive size
	entries, _ := lru.New[string, memoryCacheEntry](size)

	c := &MemoryCache{
		entries:    entries,
		defaultTTL: opts.DefaultTTL,
		stopCh:     make(chan struct{}),
	}

	if opts.CleanupInterval > 0 {
		go c.cleanupLoop(opts.CleanupInterval)
	}

	return c
}

// Get retrieves a value from the cache.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	if c.closed.Load() {
		return nil, ErrCacheClosed
	}

	entry, ok := c.entries.Get(key)
	if !ok || entry.expired(time.Now()) {
		if ok {
			c.entries.Remove(key)
		}
		c.misses.Add(1)
		return nil, ErrCacheMiss
	}

	c.hits.Add(1)
	return append([]byte(nil), entry.value...), nil
}

// Set stores a value in the cache with the specified TTL.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if c.closed.Load() {
		return ErrCacheClosed
	}

	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	c.entries.Add(key, memoryCacheEntry{
		value:     append([]byte(nil), value...),
		expiresAt: time.Now().Add(ttl),
	})
	c.sets.Add(1)
	return nil
}

// Delete removes a key from the cache.
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	if c.closed.Load() {
		return ErrCacheClosed
	}
	c.entries.Remove(key)
	return nil
}

// DeleteByPrefix removes all keys starting with the given prefix.
func (c *MemoryCache) DeleteByPrefix(_ context.Context, prefix string) error {
	if c.closed.Load() {
		return ErrCacheClosed
	}

	for _, key := range c.entries.Keys() {
		if strings.HasPrefix(key, prefix) {
			c.entries.Remove(key)
		}
	}
	return nil
}

// Clear removes all entries from the cache.
func (c *MemoryCache) Clear(_ context.Context) error {
	if c.closed.Load() {
		return ErrCacheClosed
	}
	c.entries.Purge()
	return nil
}

// Has checks if a key exists in the cache (and is not expired).
// It does not change the recency of the entry.
func (c *MemoryCache) Has(_ context.Context, key string) (bool, error) {
	if c.closed.Load() {
		return false, ErrCacheClosed
	}

	entry, ok := c.entries.Peek(key)
	if !ok {
		return false, nil
	}
	if entry.expired(time.Now()) {
		c.entries.Remove(key)
		return false, nil
	}
	return true, nil
}

// Close stops the cleanup goroutine and releases resources.
func (c *MemoryCache) Close() error {
	if c.closed.CompareAndSwap(false, true) {
		close(c.stopCh)
		c.entries.Purge()
	}
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (c *MemoryCache) Len() int {
	return c.entries.Len()
}

// Stats returns current cache statistics.
func (c *MemoryCache) Stats() Stats {
	hits := c.hits.Load()
	misses := c.misses.Load()

	return Stats{
		Hits:    hits,
		Misses:  misses,
		Sets:    c.sets.Load(),
		Items:   c.entries.Len(),
		HitRate: hitRate(hits, misses),
	}
}

// ResetStats resets the cache statistics.
func (c *MemoryCache) ResetStats() {
	c.hits.Store(0)
	c.misses.Store(0)
	c.sets.Store(0)
}

func (c *MemoryCache) removeExpired() {
	now := time.Now()
	for _, key := range c.entries.Keys() {
		if entry, ok := c.entries.Peek(key); ok && entry.expired(now) {
			c.entries.Remove(key)
		}
	}
}

func (c *MemoryCache) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.removeExpired()
		case <-c.stopCh:
			return
		}
	}
}

var (
	_ Cacher        = (*MemoryCache)(nil)
	_ StatsProvider = (*MemoryCache)(nil)
)
