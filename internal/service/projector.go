// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/olegiv/ocms-nav/internal/cache"
	"github.com/olegiv/ocms-nav/internal/metrics"
	"github.com/olegiv/ocms-nav/internal/model"
	"github.com/olegiv/ocms-nav/internal/store"
	"github.com/olegiv/ocms-nav/internal/tree"
	"github.com/olegiv/ocms-nav/internal/util"
)

// PublicMenu is the published form of a menu. Items holds the stored items
// cache verbatim and is omitted in list responses.
type PublicMenu struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Slug        string          `json:"slug"`
	Position    *string         `json:"position"`
	Description *string         `json:"description"`
	Version     int64           `json:"version"`
	CacheKey    string          `json:"cacheKey"`
	LastCached  *time.Time      `json:"lastCached"`
	Items       json.RawMessage `json:"items,omitempty"`
}

// PublicMenuPage is one page of the published menu list.
type PublicMenuPage struct {
	Menus []PublicMenu `json:"menus"`
	Total int64        `json:"total"`
}

// MenuTree is a menu together with its live item tree, unpublished items
// included.
type MenuTree struct {
	Menu  store.Menu
	Items []model.MenuNode
}

func toPublicMenu(m store.Menu, withItems bool) PublicMenu {
	pm := PublicMenu{
		ID:          m.ID,
		Name:        m.Name,
		Slug:        m.Slug,
		Position:    util.PtrFromNullString(m.Position),
		Description: util.PtrFromNullString(m.Description),
		Version:     m.Version,
		CacheKey:    m.CacheKey,
	}
	if m.LastCached.Valid {
		t := m.LastCached.Time
		pm.LastCached = &t
	}
	if withItems {
		pm.Items = json.RawMessage(m.ItemsCache)
		if len(pm.Items) == 0 {
			pm.Items = json.RawMessage("[]")
		}
	}
	return pm
}

// Projector keeps the items cache of each menu in step with its item rows
// and serves the read paths.
type Projector struct {
	db      *sql.DB
	queries *store.Queries
	public  *cache.PublicMenuCache
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// NewProjector creates a Projector. public and m may be nil.
func NewProjector(db *sql.DB, public *cache.PublicMenuCache, m *metrics.Metrics, logger *slog.Logger) *Projector {
	return &Projector{
		db:      db,
		queries: store.New(db),
		public:  public,
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
}

// RegenerateCache rebuilds the items cache of a menu from its published
// items and bumps its version. The read of the items and the cache write
// run in one transaction, so no reader sees a new version with old items.
func (p *Projector) RegenerateCache(ctx context.Context, menuID string) (store.Menu, error) {
	var menu store.Menu
	err := withTx(ctx, p.db, p.queries, func(q *store.Queries) error {
		var err error
		menu, err = p.regenerate(ctx, q, menuID)
		return err
	})
	if err != nil {
		p.logFailure(menuID, err)
		return store.Menu{}, err
	}

	p.invalidate(ctx, menu)
	return menu, nil
}

// regenerate runs the projection on q. Callers own the transaction, must
// call invalidate after it commits and logFailure after it rolls back.
func (p *Projector) regenerate(ctx context.Context, q *store.Queries, menuID string) (store.Menu, error) {
	start := time.Now()
	menu, err := p.project(ctx, q, menuID)
	p.metrics.ObserveRegeneration(time.Since(start), err)
	return menu, err
}

// logFailure reports a failed regeneration. It must not run inside the
// regeneration transaction: WARN records go to the event log on another
// connection and would block on its write lock.
func (p *Projector) logFailure(menuID string, err error) {
	if model.IsKind(err, model.KindNotFound) {
		return
	}
	p.logger.Warn("menu regeneration failed", "menu_id", menuID, "error", err)
}

func (p *Projector) project(ctx context.Context, q *store.Queries, menuID string) (store.Menu, error) {
	menu, err := q.GetMenuByID(ctx, menuID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Menu{}, model.NotFound("menu not found")
		}
		return store.Menu{}, fmt.Errorf("loading menu: %w", err)
	}

	items, err := q.ListMenuItems(ctx, menuID)
	if err != nil {
		return store.Menu{}, fmt.Errorf("loading menu items: %w", err)
	}

	data, err := json.Marshal(tree.Build(items, tree.Options{PublishedOnly: true}))
	if err != nil {
		return store.Menu{}, fmt.Errorf("encoding items cache: %w", err)
	}

	updated, err := q.UpdateMenuCache(ctx, store.UpdateMenuCacheParams{
		ID:             menuID,
		ItemsCache:     string(data),
		LastCached:     sql.NullTime{Time: p.now().UTC(), Valid: true},
		CachedRevision: menu.TreeRevision,
	})
	if err != nil {
		return store.Menu{}, fmt.Errorf("writing items cache: %w", err)
	}

	p.logger.Debug("menu cache regenerated",
		"menu_id", menuID, "version", updated.Version, "cache_key", updated.CacheKey, "items", len(items))
	return updated, nil
}

// invalidate drops the public responses of a menu. slugs lists former
// slugs the menu was reachable by.
func (p *Projector) invalidate(ctx context.Context, menu store.Menu, slugs ...string) {
	if p.public == nil {
		return
	}
	p.public.Invalidate(ctx, menu.ID, append([]string{menu.Slug}, slugs...)...)
}

func (p *Projector) invalidateLists(ctx context.Context) {
	if p.public == nil {
		return
	}
	p.public.InvalidateLists(ctx)
}

// GetPublicMenu returns a published menu by id or slug with its items
// cache, or nil when no published menu matches.
func (p *Projector) GetPublicMenu(ctx context.Context, identifier string) (*PublicMenu, error) {
	if p.public == nil {
		menu, found, err := p.loadPublicMenu(ctx, identifier)
		if err != nil || !found {
			return nil, err
		}
		pm := toPublicMenu(menu, true)
		return &pm, nil
	}

	load := func(ctx context.Context) ([]byte, string, bool, error) {
		menu, found, err := p.loadPublicMenu(ctx, identifier)
		if err != nil || !found {
			return nil, "", found, err
		}
		data, err := json.Marshal(toPublicMenu(menu, true))
		if err != nil {
			return nil, "", false, fmt.Errorf("encoding public menu: %w", err)
		}
		return data, menu.CacheKey, true, nil
	}
	current := func(ctx context.Context) (string, bool, error) {
		menu, found, err := p.loadPublicMenu(ctx, identifier)
		return menu.CacheKey, found, err
	}

	payload, found, err := p.public.GetMenu(ctx, identifier, load, current)
	if err != nil || !found {
		return nil, err
	}

	var pm PublicMenu
	decodeErr := json.Unmarshal(payload, &pm)
	if decodeErr == nil {
		return &pm, nil
	}

	// An unreadable entry is a miss: drop it and serve from the store.
	p.logger.Warn("discarding unreadable public menu cache entry", "identifier", identifier, "error", decodeErr)
	p.public.Forget(ctx, identifier)

	menu, found, err := p.loadPublicMenu(ctx, identifier)
	if err != nil || !found {
		return nil, err
	}
	pm = toPublicMenu(menu, true)
	return &pm, nil
}

func (p *Projector) loadPublicMenu(ctx context.Context, identifier string) (store.Menu, bool, error) {
	var (
		menu store.Menu
		err  error
	)
	if util.IsUUID(identifier) {
		menu, err = p.queries.GetPublishedMenuByID(ctx, identifier)
	} else {
		menu, err = p.queries.GetPublishedMenuBySlug(ctx, identifier)
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Menu{}, false, nil
		}
		return store.Menu{}, false, fmt.Errorf("loading published menu: %w", err)
	}
	return menu, true, nil
}

// GetMenu returns a menu by id or slug with its live item tree. It never
// reads the items cache.
func (p *Projector) GetMenu(ctx context.Context, identifier string) (*MenuTree, error) {
	menu, err := resolveMenu(ctx, p.queries, identifier)
	if err != nil {
		return nil, err
	}

	items, err := p.queries.ListMenuItems(ctx, menu.ID)
	if err != nil {
		return nil, fmt.Errorf("loading menu items: %w", err)
	}

	return &MenuTree{
		Menu:  menu,
		Items: tree.Build(items, tree.Options{}),
	}, nil
}

// ListPublicMenus returns one page of published menus, through the public
// response cache when one is configured.
func (p *Projector) ListPublicMenus(ctx context.Context, page, perPage int) (PublicMenuPage, error) {
	load := func(ctx context.Context) (PublicMenuPage, error) {
		menus, err := p.queries.ListPublishedMenus(ctx, store.ListPublishedMenusParams{
			Limit:  int64(perPage),
			Offset: int64((page - 1) * perPage),
		})
		if err != nil {
			return PublicMenuPage{}, fmt.Errorf("listing published menus: %w", err)
		}
		total, err := p.queries.CountPublishedMenus(ctx)
		if err != nil {
			return PublicMenuPage{}, fmt.Errorf("counting published menus: %w", err)
		}

		result := PublicMenuPage{Menus: make([]PublicMenu, 0, len(menus)), Total: total}
		for _, m := range menus {
			result.Menus = append(result.Menus, toPublicMenu(m, false))
		}
		return result, nil
	}

	if p.public == nil {
		return load(ctx)
	}

	payload, err := p.public.GetList(ctx, page, perPage, func(ctx context.Context) ([]byte, error) {
		result, err := load(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(result)
	})
	if err != nil {
		return PublicMenuPage{}, err
	}

	var result PublicMenuPage
	if err := json.Unmarshal(payload, &result); err != nil {
		return PublicMenuPage{}, fmt.Errorf("decoding public menu list: %w", err)
	}
	return result, nil
}

// resolveMenu finds a menu by id when identifier is a UUID and by slug
// otherwise.
func resolveMenu(ctx context.Context, q *store.Queries, identifier string) (store.Menu, error) {
	var (
		menu store.Menu
		err  error
	)
	if util.IsUUID(identifier) {
		menu, err = q.GetMenuByID(ctx, identifier)
	} else {
		menu, err = q.GetMenuBySlug(ctx, identifier)
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Menu{}, model.NotFound("menu not found")
		}
		return store.Menu{}, fmt.Errorf("loading menu: %w", err)
	}
	return menu, nil
}

// withTx runs fn on queries bound to a new transaction and commits when
// fn succeeds.
func withTx(ctx context.Context, db *sql.DB, q *store.Queries, fn func(*store.Queries) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(q.WithTx(tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
