// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/ocms-nav/internal/model"
)

// Bootstrap key settings
const (
	BootstrapKeyName = "bootstrap"
	MinAPIKeyLength  = 32
)

// SeedAPIKey makes sure an active key with every menu permission exists for
// rawKey. It is a no-op when the key is already stored.
func SeedAPIKey(ctx context.Context, db *sql.DB, rawKey string) error {
	if len(rawKey) < MinAPIKeyLength {
		return fmt.Errorf("bootstrap api key must be at least %d characters", MinAPIKeyLength)
	}

	queries := New(db)
	hash := model.HashAPIKey(rawKey)

	_, err := queries.GetAPIKeyByHash(ctx, hash)
	if err == nil {
		slog.Info("bootstrap api key already exists, skipping seed")
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("checking for bootstrap api key: %w", err)
	}

	now := time.Now()
	key, err := queries.CreateAPIKey(ctx, CreateAPIKeyParams{
		ID:          uuid.NewString(),
		Name:        BootstrapKeyName,
		KeyHash:     hash,
		KeyPrefix:   rawKey[:8],
		Permissions: model.PermissionsToJSON(model.AllPermissions()),
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return fmt.Errorf("creating bootstrap api key: %w", err)
	}

	slog.Info("created bootstrap api key",
		"id", key.ID,
		"prefix", key.KeyPrefix,
	)

	return nil
}

// CreateAPIKey generates and stores a new key with the given permissions.
// The raw key is returned once and never persisted.
func CreateAPIKey(ctx context.Context, db *sql.DB, name string, permissions []string) (string, ApiKey, error) {
	rawKey, prefix, err := model.GenerateAPIKey()
	if err != nil {
		return "", ApiKey{}, fmt.Errorf("generating api key: %w", err)
	}

	now := time.Now()
	key, err := New(db).CreateAPIKey(ctx, CreateAPIKeyParams{
		ID:          uuid.NewString(),
		Name:        name,
		KeyHash:     model.HashAPIKey(rawKey),
		KeyPrefix:   prefix,
		Permissions: model.PermissionsToJSON(permissions),
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return "", ApiKey{}, fmt.Errorf("creating api key: %w", err)
	}
	return rawKey, key, nil
}
