// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service provides the menu business logic: durable menu and item
// mutations, cache projection and the audit trail.
package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/ocms-nav/internal/model"
	"github.com/olegiv/ocms-nav/internal/store"
	"github.com/olegiv/ocms-nav/internal/util"
)

// Mutation operations, used as metric labels.
const (
	OpCreateMenu   = "create_menu"
	OpUpdateMenu   = "update_menu"
	OpDeleteMenu   = "delete_menu"
	OpCreateItem   = "create_item"
	OpUpdateItem   = "update_item"
	OpDeleteItem   = "delete_item"
	OpReorderItems = "reorder_items"
	OpRegenerate   = "regenerate"
)

const (
	menuSlugFallback = "menu"
	itemSlugFallback = "item"
)

// CreateMenuInput holds the fields of a new menu.
type CreateMenuInput struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Slug        *string `json:"slug" validate:"omitempty,max=255"`
	Position    *string `json:"position" validate:"omitempty,max=50"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	IsPublished *bool   `json:"isPublished"`
}

// UpdateMenuInput holds a partial menu update. Absent fields are kept.
type UpdateMenuInput struct {
	Name        model.Optional[string] `json:"name" validate:"omitempty,max=255"`
	Slug        model.Optional[string] `json:"slug" validate:"omitempty,max=255"`
	Position    model.Optional[string] `json:"position" validate:"omitempty,max=50"`
	Description model.Optional[string] `json:"description" validate:"omitempty,max=1000"`
	IsPublished model.Optional[bool]   `json:"isPublished"`
}

// CreateItemInput holds the fields of a new menu item.
type CreateItemInput struct {
	Title       string          `json:"title" validate:"required,max=255"`
	Slug        *string         `json:"slug" validate:"omitempty,max=255"`
	Type        string          `json:"type" validate:"required"`
	Reference   *string         `json:"reference" validate:"omitempty,max=255"`
	URL         *string         `json:"url" validate:"omitempty,max=2048"`
	Icon        *string         `json:"icon" validate:"omitempty,max=100"`
	Target      *string         `json:"target"`
	CSSClass    *string         `json:"cssClass" validate:"omitempty,max=255"`
	ParentID    *string         `json:"parentId"`
	Order       *int64          `json:"order"`
	IsPublished *bool           `json:"isPublished"`
	Meta        json.RawMessage `json:"meta"`
}

// UpdateItemInput holds a partial item update. Absent fields are kept and
// null clears an optional field.
type UpdateItemInput struct {
	Title       model.Optional[string]          `json:"title" validate:"omitempty,max=255"`
	Slug        model.Optional[string]          `json:"slug" validate:"omitempty,max=255"`
	Type        model.Optional[string]          `json:"type"`
	Reference   model.Optional[string]          `json:"reference" validate:"omitempty,max=255"`
	URL         model.Optional[string]          `json:"url" validate:"omitempty,max=2048"`
	Icon        model.Optional[string]          `json:"icon" validate:"omitempty,max=100"`
	Target      model.Optional[string]          `json:"target"`
	CSSClass    model.Optional[string]          `json:"cssClass" validate:"omitempty,max=255"`
	ParentID    model.Optional[string]          `json:"parentId"`
	Order       model.Optional[int64]           `json:"order"`
	IsPublished model.Optional[bool]            `json:"isPublished"`
	Meta        model.Optional[json.RawMessage] `json:"meta"`
}

// ReorderEntry assigns a new order to one item.
type ReorderEntry struct {
	ID    string `json:"id" validate:"required"`
	Order int64  `json:"order"`
}

// ItemResult is an item mutation outcome: the item as written and the menu
// after its cache was regenerated.
type ItemResult struct {
	Item store.MenuItem
	Menu store.Menu
}

// MenuService implements menu and item mutations. Every committed item
// mutation regenerates the items cache of its menu.
type MenuService struct {
	db        *sql.DB
	queries   *store.Queries
	projector *Projector
	events    *EventService
	logger    *slog.Logger
	// atomic puts item writes and the regeneration in one transaction.
	atomic bool
	now    func() time.Time
}

// NewMenuService creates a new MenuService. events may be nil.
func NewMenuService(db *sql.DB, projector *Projector, events *EventService, logger *slog.Logger, atomicWrites bool) *MenuService {
	return &MenuService{
		db:        db,
		queries:   store.New(db),
		projector: projector,
		events:    events,
		logger:    logger,
		atomic:    atomicWrites,
		now:       time.Now,
	}
}

// CreateMenu creates an empty menu at version 1.
func (s *MenuService) CreateMenu(ctx context.Context, in CreateMenuInput) (store.Menu, error) {
	name := util.PurifyText(in.Name)
	if name == "" {
		return store.Menu{}, model.ValidationFailed("menu is invalid", map[string]string{"name": "is required"})
	}

	base := util.Slugify(name)
	if in.Slug != nil && strings.TrimSpace(*in.Slug) != "" {
		base = util.PurifySlug(*in.Slug)
	}

	slug, err := util.UniqueSlug(ctx, base, menuSlugFallback, menuSlugExists(s.queries, ""))
	if err != nil {
		return store.Menu{}, err
	}

	published := true
	if in.IsPublished != nil {
		published = *in.IsPublished
	}

	now := s.now().UTC()
	menu, err := s.queries.CreateMenu(ctx, store.CreateMenuParams{
		ID:          uuid.NewString(),
		Name:        name,
		Slug:        slug,
		Position:    util.NullStringFromPtr(optionalText(in.Position)),
		Description: util.NullStringFromPtr(optionalText(in.Description)),
		IsPublished: published,
		Version:     1,
		CacheKey:    model.CacheKey(slug, 1),
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return store.Menu{}, storeError("creating menu", err)
	}

	s.projector.invalidateLists(ctx)
	s.record(ctx, OpCreateMenu, "Menu created", map[string]any{"menu_id": menu.ID, "slug": menu.Slug})
	return menu, nil
}

// UpdateMenu applies a partial metadata update. Touching the name or the
// slug re-resolves the slug; a changed slug bumps the version. The items
// cache is not rebuilt.
func (s *MenuService) UpdateMenu(ctx context.Context, id string, in UpdateMenuInput) (store.Menu, error) {
	var before, updated store.Menu

	err := withTx(ctx, s.db, s.queries, func(q *store.Queries) error {
		var err error
		before, err = q.GetMenuByID(ctx, id)
		if err != nil {
			return notFound(err, "menu not found", "loading menu")
		}

		params := store.UpdateMenuParams{
			ID:          before.ID,
			Name:        before.Name,
			Slug:        before.Slug,
			Position:    before.Position,
			Description: before.Description,
			IsPublished: before.IsPublished,
			Version:     before.Version,
			UpdatedAt:   s.now().UTC(),
		}
		fields := map[string]string{}

		if in.Name.Set {
			params.Name = util.PurifyText(in.Name.Value)
			if in.Name.Null || params.Name == "" {
				fields["name"] = "is required"
			}
		}
		if in.IsPublished.Set {
			if in.IsPublished.Null {
				fields["isPublished"] = "must be a boolean"
			}
			params.IsPublished = in.IsPublished.Value
		}
		if len(fields) > 0 {
			return model.ValidationFailed("menu is invalid", fields)
		}

		if in.Position.Set {
			params.Position = util.NullStringFromPtr(optionalText(in.Position.Ptr()))
		}
		if in.Description.Set {
			params.Description = util.NullStringFromPtr(optionalText(in.Description.Ptr()))
		}

		if in.Name.Set || in.Slug.Set {
			base := util.Slugify(params.Name)
			if in.Slug.HasValue() && strings.TrimSpace(in.Slug.Value) != "" {
				base = util.PurifySlug(in.Slug.Value)
			}
			params.Slug, err = util.UniqueSlug(ctx, base, menuSlugFallback, menuSlugExists(q, before.ID))
			if err != nil {
				return err
			}
		}

		if params.Slug != before.Slug {
			params.Version = before.Version + 1
		}
		params.CacheKey = model.CacheKey(params.Slug, params.Version)

		updated, err = q.UpdateMenu(ctx, params)
		return storeError("updating menu", err)
	})
	if err != nil {
		return store.Menu{}, err
	}

	s.projector.invalidate(ctx, updated, before.Slug)
	s.record(ctx, OpUpdateMenu, "Menu updated", map[string]any{
		"menu_id": updated.ID, "slug": updated.Slug, "version": updated.Version,
	})
	return updated, nil
}

// DeleteMenu removes a menu and all of its items.
func (s *MenuService) DeleteMenu(ctx context.Context, id string) error {
	menu, err := s.queries.GetMenuByID(ctx, id)
	if err != nil {
		return notFound(err, "menu not found", "loading menu")
	}

	n, err := s.queries.DeleteMenu(ctx, id)
	if err != nil {
		return storeError("deleting menu", err)
	}
	if n == 0 {
		return model.NotFound("menu not found")
	}

	s.projector.invalidate(ctx, menu)
	s.record(ctx, OpDeleteMenu, "Menu deleted", map[string]any{"menu_id": menu.ID, "slug": menu.Slug})
	return nil
}

// ListMenus returns one page of all menus and the total count.
func (s *MenuService) ListMenus(ctx context.Context, page, perPage int) ([]store.Menu, int64, error) {
	menus, err := s.queries.ListMenus(ctx, store.ListMenusParams{
		Limit:  int64(perPage),
		Offset: int64((page - 1) * perPage),
	})
	if err != nil {
		return nil, 0, fmt.Errorf("listing menus: %w", err)
	}
	total, err := s.queries.CountMenus(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("counting menus: %w", err)
	}
	return menus, total, nil
}

// ListPublishedMenus returns one page of published menus.
func (s *MenuService) ListPublishedMenus(ctx context.Context, page, perPage int) (PublicMenuPage, error) {
	return s.projector.ListPublicMenus(ctx, page, perPage)
}

// AddItem creates an item in a menu and regenerates the menu cache.
func (s *MenuService) AddItem(ctx context.Context, menuID string, in CreateItemInput) (ItemResult, error) {
	var item store.MenuItem

	menu, err := s.mutateItems(ctx, menuID, OpCreateItem, func(q *store.Queries) error {
		if _, err := q.GetMenuByID(ctx, menuID); err != nil {
			return notFound(err, "menu not found", "loading menu")
		}

		title := util.PurifyText(in.Title)
		reference := optionalText(in.Reference)
		url := optionalText(in.URL)
		target := model.TargetSelf
		if in.Target != nil && *in.Target != "" {
			target = *in.Target
		}

		if title == "" {
			return model.ValidationFailed("menu item is invalid", map[string]string{"title": "is required"})
		}
		if err := model.ValidateItemContract(in.Type, reference, url, target); err != nil {
			return err
		}

		var parentID sql.NullString
		if p := optionalText(in.ParentID); p != nil {
			if err := validateParent(ctx, q, menuID, "", *p); err != nil {
				return err
			}
			parentID = sql.NullString{String: *p, Valid: true}
		}

		base := util.Slugify(title)
		if in.Slug != nil && strings.TrimSpace(*in.Slug) != "" {
			base = util.PurifySlug(*in.Slug)
		}
		slug, err := util.UniqueSlug(ctx, base, itemSlugFallback, itemSlugExists(q, ""))
		if err != nil {
			return err
		}

		var order int64
		if in.Order != nil {
			order = *in.Order
		} else {
			maxOrder, err := q.GetMaxMenuItemOrder(ctx, store.GetMaxMenuItemOrderParams{MenuID: menuID, ParentID: parentID})
			if err != nil {
				return fmt.Errorf("reading sibling order: %w", err)
			}
			order = maxOrder + 1
		}

		published := true
		if in.IsPublished != nil {
			published = *in.IsPublished
		}

		now := s.now().UTC()
		item, err = q.CreateMenuItem(ctx, store.CreateMenuItemParams{
			ID:          uuid.NewString(),
			MenuID:      menuID,
			ParentID:    parentID,
			Title:       title,
			Slug:        slug,
			Type:        in.Type,
			Reference:   util.NullStringFromPtr(reference),
			Url:         util.NullStringFromPtr(url),
			Icon:        util.NullStringFromPtr(optionalText(in.Icon)),
			Target:      target,
			CssClass:    util.NullStringFromPtr(optionalText(in.CSSClass)),
			SortOrder:   order,
			IsPublished: published,
			Meta:        util.NullJSON(in.Meta),
			CreatedAt:   now,
			UpdatedAt:   now,
		})
		return storeError("creating menu item", err)
	})

	return ItemResult{Item: item, Menu: menu}, err
}

// UpdateItem applies a partial update to an item of a menu and regenerates
// the menu cache.
func (s *MenuService) UpdateItem(ctx context.Context, menuID, itemID string, in UpdateItemInput) (ItemResult, error) {
	var item store.MenuItem

	menu, err := s.mutateItems(ctx, menuID, OpUpdateItem, func(q *store.Queries) error {
		current, err := getMenuItem(ctx, q, menuID, itemID)
		if err != nil {
			return err
		}

		params := store.UpdateMenuItemParams{
			ID:          current.ID,
			ParentID:    current.ParentID,
			Title:       current.Title,
			Slug:        current.Slug,
			Type:        current.Type,
			Reference:   current.Reference,
			Url:         current.Url,
			Icon:        current.Icon,
			Target:      current.Target,
			CssClass:    current.CssClass,
			SortOrder:   current.SortOrder,
			IsPublished: current.IsPublished,
			Meta:        current.Meta,
			UpdatedAt:   s.now().UTC(),
		}
		fields := map[string]string{}

		if in.Title.Set {
			params.Title = util.PurifyText(in.Title.Value)
			if in.Title.Null || params.Title == "" {
				fields["title"] = "is required"
			}
		}
		if in.Type.Set {
			params.Type = in.Type.Value
		}
		if in.Reference.Set {
			params.Reference = util.NullStringFromPtr(optionalText(in.Reference.Ptr()))
		}
		if in.URL.Set {
			params.Url = util.NullStringFromPtr(optionalText(in.URL.Ptr()))
		}
		if in.Icon.Set {
			params.Icon = util.NullStringFromPtr(optionalText(in.Icon.Ptr()))
		}
		if in.CSSClass.Set {
			params.CssClass = util.NullStringFromPtr(optionalText(in.CSSClass.Ptr()))
		}
		if in.Target.Set {
			params.Target = model.TargetSelf
			if in.Target.HasValue() && in.Target.Value != "" {
				params.Target = in.Target.Value
			}
		}
		if in.Order.Set {
			if in.Order.Null {
				fields["order"] = "must be an integer"
			}
			params.SortOrder = in.Order.Value
		}
		if in.IsPublished.Set {
			if in.IsPublished.Null {
				fields["isPublished"] = "must be a boolean"
			}
			params.IsPublished = in.IsPublished.Value
		}
		if in.Meta.Set {
			params.Meta = util.NullJSON(in.Meta.Value)
		}
		if len(fields) > 0 {
			return model.ValidationFailed("menu item is invalid", fields)
		}

		err = model.ValidateItemContract(params.Type,
			util.PtrFromNullString(params.Reference), util.PtrFromNullString(params.Url), params.Target)
		if err != nil {
			return err
		}

		if in.ParentID.Set {
			params.ParentID = sql.NullString{}
			if p := optionalText(in.ParentID.Ptr()); p != nil {
				if err := validateParent(ctx, q, menuID, current.ID, *p); err != nil {
					return err
				}
				params.ParentID = sql.NullString{String: *p, Valid: true}
			}
		}

		if in.Title.Set || in.Slug.Set {
			base := util.Slugify(params.Title)
			if in.Slug.HasValue() && strings.TrimSpace(in.Slug.Value) != "" {
				base = util.PurifySlug(in.Slug.Value)
			}
			params.Slug, err = util.UniqueSlug(ctx, base, itemSlugFallback, itemSlugExists(q, current.ID))
			if err != nil {
				return err
			}
		}

		item, err = q.UpdateMenuItem(ctx, params)
		return storeError("updating menu item", err)
	})

	return ItemResult{Item: item, Menu: menu}, err
}

// DeleteItem removes an item of a menu with all of its descendants and
// regenerates the menu cache.
func (s *MenuService) DeleteItem(ctx context.Context, menuID, itemID string) (store.Menu, error) {
	return s.mutateItems(ctx, menuID, OpDeleteItem, func(q *store.Queries) error {
		if _, err := getMenuItem(ctx, q, menuID, itemID); err != nil {
			return err
		}
		if _, err := q.DeleteMenuItem(ctx, itemID); err != nil {
			return fmt.Errorf("deleting menu item: %w", err)
		}
		return nil
	})
}

// ReorderItems assigns new orders to items of a menu. Every id must belong
// to the menu; otherwise nothing is applied.
func (s *MenuService) ReorderItems(ctx context.Context, menuID string, entries []ReorderEntry) (store.Menu, error) {
	if len(entries) == 0 {
		return store.Menu{}, model.ValidationFailed("reorder is invalid", map[string]string{"items": "must not be empty"})
	}

	return s.mutateItems(ctx, menuID, OpReorderItems, func(q *store.Queries) error {
		if _, err := q.GetMenuByID(ctx, menuID); err != nil {
			return notFound(err, "menu not found", "loading menu")
		}

		fields := map[string]string{}
		seen := make(map[string]bool, len(entries))
		for i, e := range entries {
			key := "items[" + strconv.Itoa(i) + "].id"
			if seen[e.ID] {
				fields[key] = "is listed more than once"
				continue
			}
			seen[e.ID] = true

			item, err := q.GetMenuItemByID(ctx, e.ID)
			if errors.Is(err, sql.ErrNoRows) || (err == nil && item.MenuID != menuID) {
				fields[key] = "is not an item of this menu"
				continue
			}
			if err != nil {
				return fmt.Errorf("loading menu item: %w", err)
			}
		}
		if len(fields) > 0 {
			return model.ValidationFailed("reorder is invalid", fields)
		}

		now := s.now().UTC()
		for _, e := range entries {
			if _, err := q.UpdateMenuItemOrder(ctx, store.UpdateMenuItemOrderParams{
				ID:        e.ID,
				SortOrder: e.Order,
				UpdatedAt: now,
			}); err != nil {
				return fmt.Errorf("updating item order: %w", err)
			}
		}
		return nil
	})
}

// RegenerateMenu forces a regeneration of the items cache of a menu.
func (s *MenuService) RegenerateMenu(ctx context.Context, menuID string) (store.Menu, error) {
	menu, err := s.projector.RegenerateCache(ctx, menuID)
	if err != nil {
		return store.Menu{}, err
	}
	s.record(ctx, OpRegenerate, "Menu cache regenerated", map[string]any{
		"menu_id": menu.ID, "version": menu.Version,
	})
	return menu, nil
}

// ReconcileStale regenerates every menu whose items cache lags behind its
// item tree, such as after a regeneration that failed once its item write
// had committed. It returns the number of menus regenerated.
func (s *MenuService) ReconcileStale(ctx context.Context) (int, error) {
	menus, err := s.queries.ListStaleMenus(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing stale menus: %w", err)
	}

	var (
		regenerated int
		errs        []error
	)
	for _, m := range menus {
		if _, err := s.projector.RegenerateCache(ctx, m.ID); err != nil {
			if model.IsKind(err, model.KindNotFound) {
				continue
			}
			errs = append(errs, fmt.Errorf("menu %s: %w", m.ID, err))
			continue
		}
		regenerated++
	}

	s.projector.metrics.AddReconciled(regenerated)
	if regenerated > 0 {
		s.logger.Info("stale menu caches regenerated", "count", regenerated)
	}
	return regenerated, errors.Join(errs...)
}

// mutateItems runs one item write for a menu and regenerates its cache.
//
// By default the write commits on its own and a failed regeneration is
// returned with the write already in place; the tree revision it bumped
// lets ReconcileStale repair the cache later. In atomic mode the write and
// the regeneration share a transaction.
func (s *MenuService) mutateItems(ctx context.Context, menuID, op string, write func(q *store.Queries) error) (store.Menu, error) {
	writeAndBump := func(q *store.Queries) error {
		if err := write(q); err != nil {
			return err
		}
		if err := q.BumpMenuTreeRevision(ctx, menuID); err != nil {
			return fmt.Errorf("bumping tree revision: %w", err)
		}
		return nil
	}

	if s.atomic {
		var (
			menu     store.Menu
			regenErr error
		)
		err := withTx(ctx, s.db, s.queries, func(q *store.Queries) error {
			if err := writeAndBump(q); err != nil {
				return err
			}
			menu, regenErr = s.projector.regenerate(ctx, q, menuID)
			return regenErr
		})
		if err != nil {
			if regenErr != nil {
				s.projector.logFailure(menuID, regenErr)
			}
			return store.Menu{}, err
		}
		s.projector.invalidate(ctx, menu)
		s.recordItemMutation(ctx, op, menu)
		return menu, nil
	}

	if err := withTx(ctx, s.db, s.queries, writeAndBump); err != nil {
		return store.Menu{}, err
	}

	menu, err := s.projector.RegenerateCache(ctx, menuID)
	if err != nil {
		return store.Menu{}, fmt.Errorf("regenerating menu cache: %w", err)
	}
	s.recordItemMutation(ctx, op, menu)
	return menu, nil
}

func (s *MenuService) recordItemMutation(ctx context.Context, op string, menu store.Menu) {
	s.record(ctx, op, "Menu items changed", map[string]any{
		"menu_id": menu.ID, "operation": op, "version": menu.Version,
	})
}

// record counts a committed mutation and writes it to the audit trail.
func (s *MenuService) record(ctx context.Context, op, message string, metadata map[string]any) {
	s.projector.metrics.ObserveMutation(op)
	if s.events != nil {
		_ = s.events.LogMenuEvent(ctx, message, metadata)
	}
}

func getMenuItem(ctx context.Context, q *store.Queries, menuID, itemID string) (store.MenuItem, error) {
	item, err := q.GetMenuItemByID(ctx, itemID)
	if err != nil {
		return store.MenuItem{}, notFound(err, "menu item not found", "loading menu item")
	}
	if item.MenuID != menuID {
		return store.MenuItem{}, model.NotFound("menu item not found")
	}
	return item, nil
}

// validateParent checks that parentID is an item of the same menu and, for
// an existing item, that it is neither the item itself nor below it.
func validateParent(ctx context.Context, q *store.Queries, menuID, itemID, parentID string) error {
	invalid := func(reason string) error {
		return model.ValidationFailed("menu item is invalid", map[string]string{"parentId": reason})
	}

	parent, err := q.GetMenuItemByID(ctx, parentID)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && parent.MenuID != menuID) {
		return invalid("must be an item of the same menu")
	}
	if err != nil {
		return fmt.Errorf("loading parent item: %w", err)
	}

	if itemID == "" {
		return nil
	}
	if parentID == itemID {
		return invalid("cannot be the item itself")
	}
	descendants, err := q.ListMenuItemDescendantIDs(ctx, itemID)
	if err != nil {
		return fmt.Errorf("loading item descendants: %w", err)
	}
	for _, id := range descendants {
		if id == parentID {
			return invalid("cannot be a descendant of the item")
		}
	}
	return nil
}

func menuSlugExists(q *store.Queries, excludeID string) util.SlugExistsFunc {
	return func(ctx context.Context, slug string) (bool, error) {
		var (
			n   int64
			err error
		)
		if excludeID == "" {
			n, err = q.MenuSlugExists(ctx, slug)
		} else {
			n, err = q.MenuSlugExistsExcluding(ctx, store.MenuSlugExistsExcludingParams{Slug: slug, ID: excludeID})
		}
		if err != nil {
			return false, fmt.Errorf("checking menu slug: %w", err)
		}
		return n != 0, nil
	}
}

func itemSlugExists(q *store.Queries, excludeID string) util.SlugExistsFunc {
	return func(ctx context.Context, slug string) (bool, error) {
		var (
			n   int64
			err error
		)
		if excludeID == "" {
			n, err = q.MenuItemSlugExists(ctx, slug)
		} else {
			n, err = q.MenuItemSlugExistsExcluding(ctx, store.MenuItemSlugExistsExcludingParams{Slug: slug, ID: excludeID})
		}
		if err != nil {
			return false, fmt.Errorf("checking menu item slug: %w", err)
		}
		return n != 0, nil
	}
}

// optionalText trims p and maps a blank value to nil.
func optionalText(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	if v == "" {
		return nil
	}
	return &v
}

func notFound(err error, message, op string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return model.NotFound(message)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// storeError wraps a write error. A unique constraint hit means a
// concurrent writer took the slug between the check and the insert.
func storeError(op string, err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return &model.Error{Kind: model.KindConflict, Message: "slug is already taken", Err: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}
