// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"
)

func newTestMemoryCache(t *testing.T, opts MemoryCacheOptions) *MemoryCache {
	t.Helper()
	c := NewMemoryCache(opts)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestMemoryCache_BasicOperations(t *testing.T) {
	cache := newTestMemoryCache(t, MemoryCacheOptions{DefaultTTL: time.Hour, MaxSize: 100})
	ctx := context.Background()

	if err := cache.Set(ctx, "key1", []byte("value1"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	val, err := cache.Get(ctx, "key1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(val) != "value1" {
		t.Errorf("expected value1, got %s", string(val))
	}

	has, err := cache.Has(ctx, "key1")
	if err != nil {
		t.Fatalf("Has failed: %v", err)
	}
	if !has {
		t.Error("expected key1 to exist")
	}

	if err := cache.Delete(ctx, "key1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if _, err := cache.Get(ctx, "key1"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("expected ErrCacheMiss, got %v", err)
	}
}

func TestMemoryCache_Expiration(t *testing.T) {
	cache := newTestMemoryCache(t, MemoryCacheOptions{DefaultTTL: 30 * time.Millisecond})
	ctx := context.Background()

	_ = cache.Set(ctx, "short", []byte("v"), 0)
	_ = cache.Set(ctx, "long", []byte("v"), time.Hour)

	time.Sleep(60 * time.Millisecond)

	if _, err := cache.Get(ctx, "short"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("expected expired entry to miss, got %v", err)
	}
	if has, _ := cache.Has(ctx, "short"); has {
		t.Error("expired entry reported by Has")
	}
	if _, err := cache.Get(ctx, "long"); err != nil {
		t.Errorf("long TTL entry: %v", err)
	}
}

func TestMemoryCache_LRUEviction(t *testing.T) {
	cache := newTestMemoryCache(t, MemoryCacheOptions{DefaultTTL: time.Hour, MaxSize: 3})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_ = cache.Set(ctx, "k"+strconv.Itoa(i), []byte("v"), 0)
	}
	// touch k0 so k1 becomes least recently used
	if _, err := cache.Get(ctx, "k0"); err != nil {
		t.Fatalf("Get k0: %v", err)
	}
	_ = cache.Set(ctx, "k3", []byte("v"), 0)

	if cache.Len() != 3 {
		t.Errorf("Len() = %d, want 3", cache.Len())
	}
	if _, err := cache.Get(ctx, "k1"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("k1 should have been evicted, got %v", err)
	}
	for _, key := range []string{"k0", "k2", "k3"} {
		if _, err := cache.Get(ctx, key); err != nil {
			t.Errorf("Get %s: %v", key, err)
		}
	}
}

func TestMemoryCache_DeleteByPrefix(t *testing.T) {
	cache := newTestMemoryCache(t, MemoryCacheOptions{DefaultTTL: time.Hour})
	ctx := context.Background()

	for _, key := range []string{"menu:main:v1", "menu:main:v2", "menu:main-2:v1", "menus:public:page:1:20"} {
		_ = cache.Set(ctx, key, []byte("x"), 0)
	}

	if err := cache.DeleteByPrefix(ctx, "menu:main:v"); err != nil {
		t.Fatalf("DeleteByPrefix: %v", err)
	}

	for key, want := range map[string]bool{
		"menu:main:v1":           false,
		"menu:main:v2":           false,
		"menu:main-2:v1":         true,
		"menus:public:page:1:20": true,
	} {
		if has, _ := cache.Has(ctx, key); has != want {
			t.Errorf("Has(%q) = %v, want %v", key, has, want)
		}
	}
}

func TestMemoryCache_Clear(t *testing.T) {
	cache := newTestMemoryCache(t, MemoryCacheOptions{})
	ctx := context.Background()

	_ = cache.Set(ctx, "a", []byte("1"), 0)
	_ = cache.Set(ctx, "b", []byte("2"), 0)

	if err := cache.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if cache.Len() != 0 {
		t.Errorf("Len() after Clear = %d", cache.Len())
	}
}

func TestMemoryCache_Stats(t *testing.T) {
	cache := newTestMemoryCache(t, MemoryCacheOptions{})
	ctx := context.Background()

	_ = cache.Set(ctx, "a", []byte("1"), 0)
	_, _ = cache.Get(ctx, "a")
	_, _ = cache.Get(ctx, "a")
	_, _ = cache.Get(ctx, "missing")

	stats := cache.Stats()
	if stats.Hits != 2 || stats.Misses != 1 || stats.Sets != 1 || stats.Items != 1 {
		t.Errorf("Stats() = %+v", stats)
	}
	if stats.HitRate < 66 || stats.HitRate > 67 {
		t.Errorf("HitRate = %f, want ~66.7", stats.HitRate)
	}

	cache.ResetStats()
	if stats := cache.Stats(); stats.Hits != 0 || stats.Misses != 0 {
		t.Errorf("Stats() after reset = %+v", stats)
	}
}

func TestMemoryCache_ValueCopy(t *testing.T) {
	cache := newTestMemoryCache(t, MemoryCacheOptions{})
	ctx := context.Background()

	original := []byte("original")
	_ = cache.Set(ctx, "k", original, 0)
	original[0] = 'X'

	got, _ := cache.Get(ctx, "k")
	if string(got) != "original" {
		t.Errorf("stored value mutated through caller slice: %s", got)
	}
	got[0] = 'Y'

	again, _ := cache.Get(ctx, "k")
	if string(again) != "original" {
		t.Errorf("stored value mutated through returned slice: %s", again)
	}
}

func TestMemoryCache_ConcurrentAccess(t *testing.T) {
	cache := newTestMemoryCache(t, MemoryCacheOptions{MaxSize: 50})
	ctx := context.Background()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := "k" + strconv.Itoa((g*200+i)%75)
				_ = cache.Set(ctx, key, []byte("v"), 0)
				_, _ = cache.Get(ctx, key)
				if i%50 == 0 {
					_ = cache.DeleteByPrefix(ctx, "k1")
				}
			}
		}(g)
	}
	wg.Wait()

	if cache.Len() > 50 {
		t.Errorf("Len() = %d exceeds MaxSize", cache.Len())
	}
}

func TestMemoryCache_Close(t *testing.T) {
	cache := NewMemoryCache(MemoryCacheOptions{CleanupInterval: time.Millisecond})
	ctx := context.Background()

	if err := cache.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := cache.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	if err := cache.Set(ctx, "k", []byte("v"), 0); !errors.Is(err, ErrCacheClosed) {
		t.Errorf("Set after Close = %v, want ErrCacheClosed", err)
	}
	if _, err := cache.Get(ctx, "k"); !errors.Is(err, ErrCacheClosed) {
		t.Errorf("Get after Close = %v, want ErrCacheClosed", err)
	}
	if err := cache.DeleteByPrefix(ctx, "k"); !errors.Is(err, ErrCacheClosed) {
		t.Errorf("DeleteByPrefix after Close = %v, want ErrCacheClosed", err)
	}
}
