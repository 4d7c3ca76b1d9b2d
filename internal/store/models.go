// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"database/sql"
	"time"
)

// Menu is a row of the menus table.
type Menu struct {
	ID             string
	Name           string
	Slug           string
	Position       sql.NullString
	Description    sql.NullString
	IsPublished    bool
	Version        int64
	CacheKey       string
	ItemsCache     string
	LastCached     sql.NullTime
	TreeRevision   int64
	CachedRevision int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// MenuItem is a row of the menu_items table.
type MenuItem struct {
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

// ApiKey is a row of the api_keys table.
type ApiKey struct {
	ID          string
	Name        string
	KeyHash     string
	KeyPrefix   string
	Permissions string
	LastUsedAt  sql.NullTime
	ExpiresAt   sql.NullTime
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Event is a row of the events table.
type Event struct {
	ID        int64
	Level     string
	Category  string
	Message   string
	Metadata  string
	CreatedAt time.Time
}
