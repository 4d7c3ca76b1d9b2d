// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const menuItemColumns = `id, menu_id, parent_id, title, slug, type, reference, url, icon, target,
	css_class, sort_order, is_published, meta, created_at, updated_at`

func scanMenuItem(row rowScanner) (MenuItem, error) {
	var i MenuItem
	err := row.Scan(
		&i.ID,
		&i.MenuID,
		&i.ParentID,
		&i.Title,
		&i.Slug,
		&i.Type,
		&i.Reference,
		&i.Url,
		&i.Icon,
		&i.Target,
		&i.CssClass,
		&i.SortOrder,
		&i.IsPublished,
		&i.Meta,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createMenuItem = `INSERT INTO menu_items (
	id, menu_id, parent_id, title, slug, type, reference, url, icon, target,
	css_class, sort_order, is_published, meta, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + menuItemColumns

// CreateMenuItemParams holds the columns written by CreateMenuItem.
type CreateMenuItemParams struct {
	ID          string
	MenuID      string
	ParentID    sql.NullString
	Title       string
	Slug        string
	Type        string
	Reference   sql.NullString
	Url         sql.NullString
	Icon        sql.NullString
	Target      string
	CssClass    sql.NullString
	SortOrder   int64
	IsPublished bool
	Meta        sql.NullString
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (q *Queries) CreateMenuItem(ctx context.Context, arg CreateMenuItemParams) (MenuItem, error) {
	row := q.db.QueryRowContext(ctx, createMenuItem,
		arg.ID,
		arg.MenuID,
		arg.ParentID,
		arg.Title,
		arg.Slug,
		arg.Type,
		arg.Reference,
		arg.Url,
		arg.Icon,
		arg.Target,
		arg.CssClass,
		arg.SortOrder,
		arg.IsPublished,
		arg.Meta,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return scanMenuItem(row)
}

const getMenuItemByID = `SELECT ` + menuItemColumns + ` FROM menu_items WHERE id = ?`

func (q *Queries) GetMenuItemByID(ctx context.Context, id string) (MenuItem, error) {
	return scanMenuItem(q.db.QueryRowContext(ctx, getMenuItemByID, id))
}

const updateMenuItem = `UPDATE menu_items SET
	parent_id = ?, title = ?, slug = ?, type = ?, reference = ?, url = ?, icon = ?,
	target = ?, css_class = ?, sort_order = ?, is_published = ?, meta = ?, updated_at = ?
WHERE id = ?
RETURNING ` + menuItemColumns

// UpdateMenuItemParams holds the columns written by UpdateMenuItem.
type UpdateMenuItemParams struct {
	ID          string
	ParentID    sql.NullString
	Title       string
	Slug        string
	Type        string
	Reference   sql.NullString
	Url         sql.NullString
	Icon        sql.NullString
	Target      string
	CssClass    sql.NullString
	SortOrder   int64
	IsPublished bool
	Meta        sql.NullString
	UpdatedAt   time.Time
}

func (q *Queries) UpdateMenuItem(ctx context.Context, arg UpdateMenuItemParams) (MenuItem, error) {
	row := q.db.QueryRowContext(ctx, updateMenuItem,
		arg.ParentID,
		arg.Title,
		arg.Slug,
		arg.Type,
		arg.Reference,
		arg.Url,
		arg.Icon,
		arg.Target,
		arg.CssClass,
		arg.SortOrder,
		arg.IsPublished,
		arg.Meta,
		arg.UpdatedAt,
		arg.ID,
	)
	return scanMenuItem(row)
}

const deleteMenuItem = `DELETE FROM menu_items WHERE id = ?`

// DeleteMenuItem removes an item; descendants go with it through ON DELETE CASCADE.
func (q *Queries) DeleteMenuItem(ctx context.Context, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteMenuItem, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// Items come back in sibling order with insertion order (rowid) breaking ties.
const listMenuItems = `SELECT ` + menuItemColumns + ` FROM menu_items
WHERE menu_id = ?
ORDER BY sort_order ASC, rowid ASC`

// ListMenuItems returns every item of a menu as a flat list.
func (q *Queries) ListMenuItems(ctx context.Context, menuID string) ([]MenuItem, error) {
	rows, err := q.db.QueryContext(ctx, listMenuItems, menuID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []MenuItem{}
	for rows.Next() {
		i, err := scanMenuItem(rows)
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

const countMenuItems = `SELECT COUNT(*) FROM menu_items WHERE menu_id = ?`

func (q *Queries) CountMenuItems(ctx context.Context, menuID string) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countMenuItems, menuID).Scan(&count)
	return count, err
}

const menuItemSlugExists = `SELECT EXISTS(SELECT 1 FROM menu_items WHERE slug = ?)`

func (q *Queries) MenuItemSlugExists(ctx context.Context, slug string) (int64, error) {
	var exists int64
	err := q.db.QueryRowContext(ctx, menuItemSlugExists, slug).Scan(&exists)
	return exists, err
}

const menuItemSlugExistsExcluding = `SELECT EXISTS(SELECT 1 FROM menu_items WHERE slug = ? AND id <> ?)`

type MenuItemSlugExistsExcludingParams struct {
	Slug string
	ID   string
}

func (q *Queries) MenuItemSlugExistsExcluding(ctx context.Context, arg MenuItemSlugExistsExcludingParams) (int64, error) {
	var exists int64
	err := q.db.QueryRowContext(ctx, menuItemSlugExistsExcluding, arg.Slug, arg.ID).Scan(&exists)
	return exists, err
}

// parent_id IS ? matches NULL for root items as well as a concrete parent.
const getMaxMenuItemOrder = `SELECT COALESCE(MAX(sort_order), -1) FROM menu_items
WHERE menu_id = ? AND parent_id IS ?`

type GetMaxMenuItemOrderParams struct {
	MenuID   string
	ParentID sql.NullString
}

// GetMaxMenuItemOrder returns the highest sibling order, or -1 for an empty group.
func (q *Queries) GetMaxMenuItemOrder(ctx context.Context, arg GetMaxMenuItemOrderParams) (int64, error) {
	var maxOrder int64
	err := q.db.QueryRowContext(ctx, getMaxMenuItemOrder, arg.MenuID, arg.ParentID).Scan(&maxOrder)
	return maxOrder, err
}

const updateMenuItemOrder = `UPDATE menu_items SET sort_order = ?, updated_at = ? WHERE id = ?`

type UpdateMenuItemOrderParams struct {
	ID        string
	SortOrder int64
	UpdatedAt time.Time
}

func (q *Queries) UpdateMenuItemOrder(ctx context.Context, arg UpdateMenuItemOrderParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateMenuItemOrder, arg.SortOrder, arg.UpdatedAt, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const listMenuItemDescendantIDs = `WITH RECURSIVE descendants(id) AS (
	SELECT id FROM menu_items WHERE parent_id = ?
	UNION ALL
	SELECT mi.id FROM menu_items mi JOIN descendants d ON mi.parent_id = d.id
)
SELECT id FROM descendants`

// ListMenuItemDescendantIDs returns the ids of every item below id, at any depth.
func (q *Queries) ListMenuItemDescendantIDs(ctx context.Context, id string) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listMenuItemDescendantIDs, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ids := []string{}
	for rows.Next() {
		var descendant string
		if err := rows.Scan(&descendant); err != nil {
			return nil, err
		}
		ids = append(ids, descendant)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}
