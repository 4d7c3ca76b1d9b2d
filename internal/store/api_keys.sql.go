// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const apiKeyColumns = `id, name, key_hash, key_prefix, permissions, last_used_at, expires_at,
	is_active, created_at, updated_at`

func scanAPIKey(row rowScanner) (ApiKey, error) {
	var i ApiKey
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.KeyHash,
		&i.KeyPrefix,
		&i.Permissions,
		&i.LastUsedAt,
		&i.ExpiresAt,
		&i.IsActive,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createAPIKey = `INSERT INTO api_keys (
	id, name, key_hash, key_prefix, permissions, expires_at, is_active, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + apiKeyColumns

type CreateAPIKeyParams struct {
	ID          string
	Name        string
	KeyHash     string
	KeyPrefix   string
	Permissions string
	ExpiresAt   sql.NullTime
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (q *Queries) CreateAPIKey(ctx context.Context, arg CreateAPIKeyParams) (ApiKey, error) {
	row := q.db.QueryRowContext(ctx, createAPIKey,
		arg.ID,
		arg.Name,
		arg.KeyHash,
		arg.KeyPrefix,
		arg.Permissions,
		arg.ExpiresAt,
		arg.IsActive,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return scanAPIKey(row)
}

const getAPIKeyByHash = `SELECT ` + apiKeyColumns + ` FROM api_keys WHERE key_hash = ?`

func (q *Queries) GetAPIKeyByHash(ctx context.Context, keyHash string) (ApiKey, error) {
	return scanAPIKey(q.db.QueryRowContext(ctx, getAPIKeyByHash, keyHash))
}

const updateAPIKeyLastUsed = `UPDATE api_keys SET last_used_at = ? WHERE id = ?`

type UpdateAPIKeyLastUsedParams struct {
	LastUsedAt sql.NullTime
	ID         string
}

func (q *Queries) UpdateAPIKeyLastUsed(ctx context.Context, arg UpdateAPIKeyLastUsedParams) error {
	_, err := q.db.ExecContext(ctx, updateAPIKeyLastUsed, arg.LastUsedAt, arg.ID)
	return err
}

const deactivateAPIKey = `UPDATE api_keys SET is_active = 0, updated_at = ? WHERE id = ?`

type DeactivateAPIKeyParams struct {
	UpdatedAt time.Time
	ID        string
}

func (q *Queries) DeactivateAPIKey(ctx context.Context, arg DeactivateAPIKeyParams) error {
	_, err := q.db.ExecContext(ctx, deactivateAPIKey, arg.UpdatedAt, arg.ID)
	return err
}
