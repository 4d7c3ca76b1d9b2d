// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"
)

// Public cache lookup results
const (
	ResultHit   = "hit"
	ResultMiss  = "miss"
	ResultError = "error"
)

const (
	// Pointer keys live outside the menu: namespace so no slug can produce one.
	menuRefPrefix    = "menuref:"
	publicListPrefix = "menus:public:"
)

// Observer receives one result per public cache lookup.
type Observer interface {
	ObserveCacheLookup(result string)
}

// MenuLoader loads the public payload of a menu on a cache miss. found is
// false when no published menu matches the identifier.
type MenuLoader func(ctx context.Context) (payload []byte, cacheKey string, found bool, err error)

// CurrentKeyFunc returns the generation key a menu has now. found is false
// when the identifier no longer matches a published menu.
type CurrentKeyFunc func(ctx context.Context) (cacheKey string, found bool, err error)

// ListLoader loads one page of the public menu list on a cache miss.
type ListLoader func(ctx context.Context) ([]byte, error)

// PublicMenuCache caches public menu responses in a Cacher.
//
// A menu payload is stored under its generation key (menu:{slug}:v{n}) and
// each identifier it was requested by points at that key through
// menuref:{identifier}. Regenerating a menu changes its generation key, so
// invalidating the pointers is enough to stop serving the old payload.
//
// The cache fails open: backend errors are logged and treated as misses.
type PublicMenuCache struct {
	cache    Cacher
	ttl      time.Duration
	logger   *slog.Logger
	observer Observer
	group    singleflight.Group
}

// NewPublicMenuCache creates a public menu cache. observer may be nil.
func NewPublicMenuCache(c Cacher, ttl time.Duration, logger *slog.Logger, observer Observer) *PublicMenuCache {
	return &PublicMenuCache{
		cache:    c,
		ttl:      ttl,
		logger:   logger,
		observer: observer,
	}
}

// GetMenu returns the cached payload for identifier, calling load on a miss.
// Concurrent misses for one identifier share a single load, which is not
// cancelled when the caller that started it goes away.
//
// When current is not nil it is called after a pointer was stored, and the
// pointer is dropped again if the menu moved to another generation while it
// was loading.
func (p *PublicMenuCache) GetMenu(ctx context.Context, identifier string, load MenuLoader, current CurrentKeyFunc) ([]byte, bool, error) {
	if payload, ok := p.lookup(ctx, identifier); ok {
		p.observe(ResultHit)
		return payload, true, nil
	}
	p.observe(ResultMiss)

	type loaded struct {
		payload []byte
		found   bool
	}

	v, err, _ := p.group.Do(menuRefPrefix+identifier, func() (any, error) {
		ctx := context.WithoutCancel(ctx)
		payload, cacheKey, found, err := load(ctx)
		if err != nil || !found {
			return loaded{found: found}, err
		}
		if p.store(ctx, identifier, cacheKey, payload) && current != nil {
			p.verify(ctx, identifier, cacheKey, current)
		}
		return loaded{payload: payload, found: true}, nil
	})
	if err != nil {
		return nil, false, err
	}

	res := v.(loaded)
	return res.payload, res.found, nil
}

func (p *PublicMenuCache) lookup(ctx context.Context, identifier string) ([]byte, bool) {
	cacheKey, err := p.cache.Get(ctx, menuRefPrefix+identifier)
	if err != nil {
		p.logFailure("read menu pointer", identifier, err)
		return nil, false
	}

	payload, err := p.cache.Get(ctx, string(cacheKey))
	if err != nil {
		p.logFailure("read menu payload", identifier, err)
		return nil, false
	}
	return payload, true
}

// store writes the payload and the pointer to it and reports whether the
// pointer was written.
func (p *PublicMenuCache) store(ctx context.Context, identifier, cacheKey string, payload []byte) bool {
	if err := p.cache.Set(ctx, cacheKey, payload, p.ttl); err != nil {
		p.logFailure("write menu payload", identifier, err)
		return false
	}
	if err := p.cache.Set(ctx, menuRefPrefix+identifier, []byte(cacheKey), p.ttl); err != nil {
		p.logFailure("write menu pointer", identifier, err)
		return false
	}
	return true
}

// verify drops a freshly stored pointer unless stored is still the current
// generation of the menu.
func (p *PublicMenuCache) verify(ctx context.Context, identifier, stored string, current CurrentKeyFunc) {
	cacheKey, found, err := current(ctx)
	if err == nil && found && cacheKey == stored {
		return
	}
	if err != nil {
		p.logger.Warn("public menu cache check failed", "identifier", identifier, "error", err)
	}
	p.Forget(ctx, identifier)
}

// Forget drops the pointer of one identifier, so the next lookup reloads.
func (p *PublicMenuCache) Forget(ctx context.Context, identifier string) {
	p.deleteKey(ctx, menuRefPrefix+identifier)
}

// Invalidate drops the cached responses of a menu. Pass every slug the menu
// has been reachable by, so a renamed menu loses its old pointers too.
func (p *PublicMenuCache) Invalidate(ctx context.Context, id string, slugs ...string) {
	p.deleteKey(ctx, menuRefPrefix+id)
	for _, slug := range slugs {
		if slug == "" {
			continue
		}
		p.deleteKey(ctx, menuRefPrefix+slug)
		if err := p.cache.DeleteByPrefix(ctx, "menu:"+slug+":v"); err != nil {
			p.logFailure("delete menu generations", slug, err)
		}
	}
	p.InvalidateLists(ctx)
}

// GetList returns one cached page of the public menu list.
func (p *PublicMenuCache) GetList(ctx context.Context, page, perPage int, load ListLoader) ([]byte, error) {
	key := fmt.Sprintf("%spage:%d:%d", publicListPrefix, page, perPage)

	payload, err := p.cache.Get(ctx, key)
	if err == nil {
		p.observe(ResultHit)
		return payload, nil
	}
	p.logFailure("read menu list", key, err)
	p.observe(ResultMiss)

	v, err, _ := p.group.Do(key, func() (any, error) {
		ctx := context.WithoutCancel(ctx)
		payload, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if err := p.cache.Set(ctx, key, payload, p.ttl); err != nil {
			p.logFailure("write menu list", key, err)
		}
		return payload, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// InvalidateLists drops every cached page of the public menu list.
func (p *PublicMenuCache) InvalidateLists(ctx context.Context) {
	if err := p.cache.DeleteByPrefix(ctx, publicListPrefix); err != nil {
		p.logFailure("delete menu lists", publicListPrefix, err)
	}
}

func (p *PublicMenuCache) deleteKey(ctx context.Context, key string) {
	if err := p.cache.Delete(ctx, key); err != nil {
		p.logFailure("delete menu pointer", key, err)
	}
}

// logFailure records a swallowed backend error. Misses are expected and
// not logged.
func (p *PublicMenuCache) logFailure(op, key string, err error) {
	if errors.Is(err, ErrCacheMiss) {
		return
	}
	p.observe(ResultError)
	p.logger.Warn("public menu cache failure", "op", op, "key", key, "error", err)
}

func (p *PublicMenuCache) observe(result string) {
	if p.observer != nil {
		p.observer.ObserveCacheLookup(result)
	}
}
