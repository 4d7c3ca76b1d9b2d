// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const menuColumns = `id, name, slug, position, description, is_published, version, cache_key,
	items_cache, last_cached, tree_revision, cached_revision, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMenu(row rowScanner) (Menu, error) {
	var i Menu
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Slug,
		&i.Position,
		&i.Description,
		&i.IsPublished,
		&i.Version,
		&i.CacheKey,
		&i.ItemsCache,
		&i.LastCached,
		&i.TreeRevision,
		&i.CachedRevision,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

func (q *Queries) queryMenus(ctx context.Context, query string, args ...any) ([]Menu, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Menu{}
	for rows.Next() {
		i, err := scanMenu(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createMenu = `INSERT INTO menus (
	id, name, slug, position, description, is_published, version, cache_key, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + menuColumns

// CreateMenuParams holds the columns written by CreateMenu.
type CreateMenuParams struct {
	ID          string
	Name        string
	Slug        string
	Position    sql.NullString
	Description sql.NullString
	IsPublished bool
	Version     int64
	CacheKey    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateMenu inserts a menu with an empty items cache.
func (q *Queries) CreateMenu(ctx context.Context, arg CreateMenuParams) (Menu, error) {
	row := q.db.QueryRowContext(ctx, createMenu,
		arg.ID,
		arg.Name,
		arg.Slug,
		arg.Position,
		arg.Description,
		arg.IsPublished,
		arg.Version,
		arg.CacheKey,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return scanMenu(row)
}

const getMenuByID = `SELECT ` + menuColumns + ` FROM menus WHERE id = ?`

func (q *Queries) GetMenuByID(ctx context.Context, id string) (Menu, error) {
	return scanMenu(q.db.QueryRowContext(ctx, getMenuByID, id))
}

const getMenuBySlug = `SELECT ` + menuColumns + ` FROM menus WHERE slug = ?`

func (q *Queries) GetMenuBySlug(ctx context.Context, slug string) (Menu, error) {
	return scanMenu(q.db.QueryRowContext(ctx, getMenuBySlug, slug))
}

const getPublishedMenuByID = `SELECT ` + menuColumns + ` FROM menus WHERE id = ? AND is_published = 1`

func (q *Queries) GetPublishedMenuByID(ctx context.Context, id string) (Menu, error) {
	return scanMenu(q.db.QueryRowContext(ctx, getPublishedMenuByID, id))
}

const getPublishedMenuBySlug = `SELECT ` + menuColumns + ` FROM menus WHERE slug = ? AND is_published = 1`

func (q *Queries) GetPublishedMenuBySlug(ctx context.Context, slug string) (Menu, error) {
	return scanMenu(q.db.QueryRowContext(ctx, getPublishedMenuBySlug, slug))
}

const menuSlugExists = `SELECT EXISTS(SELECT 1 FROM menus WHERE slug = ?)`

func (q *Queries) MenuSlugExists(ctx context.Context, slug string) (int64, error) {
	var exists int64
	err := q.db.QueryRowContext(ctx, menuSlugExists, slug).Scan(&exists)
	return exists, err
}

const menuSlugExistsExcluding = `SELECT EXISTS(SELECT 1 FROM menus WHERE slug = ? AND id <> ?)`

type MenuSlugExistsExcludingParams struct {
	Slug string
	ID   string
}

func (q *Queries) MenuSlugExistsExcluding(ctx context.Context, arg MenuSlugExistsExcludingParams) (int64, error) {
	var exists int64
	err := q.db.QueryRowContext(ctx, menuSlugExistsExcluding, arg.Slug, arg.ID).Scan(&exists)
	return exists, err
}

const updateMenu = `UPDATE menus SET
	name = ?, slug = ?, position = ?, description = ?, is_published = ?,
	version = ?, cache_key = ?, updated_at = ?
WHERE id = ?
RETURNING ` + menuColumns

// UpdateMenuParams holds the metadata columns written by UpdateMenu.
type UpdateMenuParams struct {
	ID          string
	Name        string
	Slug        string
	Position    sql.NullString
	Description sql.NullString
	IsPublished bool
	Version     int64
	CacheKey    string
	UpdatedAt   time.Time
}

func (q *Queries) UpdateMenu(ctx context.Context, arg UpdateMenuParams) (Menu, error) {
	row := q.db.QueryRowContext(ctx, updateMenu,
		arg.Name,
		arg.Slug,
		arg.Position,
		arg.Description,
		arg.IsPublished,
		arg.Version,
		arg.CacheKey,
		arg.UpdatedAt,
		arg.ID,
	)
	return scanMenu(row)
}

const deleteMenu = `DELETE FROM menus WHERE id = ?`

// DeleteMenu removes a menu; its items go with it through ON DELETE CASCADE.
// It returns the number of deleted menu rows.
func (q *Queries) DeleteMenu(ctx context.Context, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteMenu, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const listMenus = `SELECT ` + menuColumns + ` FROM menus ORDER BY name ASC, id ASC LIMIT ? OFFSET ?`

type ListMenusParams struct {
	Limit  int64
	Offset int64
}

func (q *Queries) ListMenus(ctx context.Context, arg ListMenusParams) ([]Menu, error) {
	return q.queryMenus(ctx, listMenus, arg.Limit, arg.Offset)
}

const countMenus = `SELECT COUNT(*) FROM menus`

func (q *Queries) CountMenus(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countMenus).Scan(&count)
	return count, err
}

const listPublishedMenus = `SELECT ` + menuColumns + ` FROM menus WHERE is_published = 1
ORDER BY name ASC, id ASC LIMIT ? OFFSET ?`

type ListPublishedMenusParams struct {
	Limit  int64
	Offset int64
}

func (q *Queries) ListPublishedMenus(ctx context.Context, arg ListPublishedMenusParams) ([]Menu, error) {
	return q.queryMenus(ctx, listPublishedMenus, arg.Limit, arg.Offset)
}

const countPublishedMenus = `SELECT COUNT(*) FROM menus WHERE is_published = 1`

func (q *Queries) CountPublishedMenus(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countPublishedMenus).Scan(&count)
	return count, err
}

// updateMenuCache writes the projection, the version bump and the derived
// cache key in one statement. SQLite evaluates every SET expression against
// the pre-update row, so version + 1 is the same value in both places.
const updateMenuCache = `UPDATE menus SET
	items_cache = ?,
	version = version + 1,
	cache_key = 'menu:' || slug || ':v' || (version + 1),
	last_cached = ?,
	cached_revision = ?
WHERE id = ?
RETURNING ` + menuColumns

// UpdateMenuCacheParams holds the projection written by UpdateMenuCache.
type UpdateMenuCacheParams struct {
	ID             string
	ItemsCache     string
	LastCached     sql.NullTime
	CachedRevision int64
}

func (q *Queries) UpdateMenuCache(ctx context.Context, arg UpdateMenuCacheParams) (Menu, error) {
	row := q.db.QueryRowContext(ctx, updateMenuCache,
		arg.ItemsCache,
		arg.LastCached,
		arg.CachedRevision,
		arg.ID,
	)
	return scanMenu(row)
}

const bumpMenuTreeRevision = `UPDATE menus SET tree_revision = tree_revision + 1 WHERE id = ?`

// BumpMenuTreeRevision records that the item tree of a menu changed.
func (q *Queries) BumpMenuTreeRevision(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, bumpMenuTreeRevision, id)
	return err
}

const listStaleMenus = `SELECT ` + menuColumns + ` FROM menus WHERE tree_revision <> cached_revision ORDER BY id`

// ListStaleMenus returns menus whose items cache lags behind their item tree.
func (q *Queries) ListStaleMenus(ctx context.Context) ([]Menu, error) {
	return q.queryMenus(ctx, listStaleMenus)
}
