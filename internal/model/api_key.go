// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"slices"
)

// Menu API permissions
const (
	PermissionMenuRead   = "menu.read"
	PermissionMenuCreate = "menu.create"
	PermissionMenuUpdate = "menu.update"
	PermissionMenuDelete = "menu.delete"
)

// APIKeyPrefixLength is the number of leading key characters kept for display.
const APIKeyPrefixLength = 8

// AllPermissions returns all available API permissions.
func AllPermissions() []string {
	return []string{
		PermissionMenuRead,
		PermissionMenuCreate,
		PermissionMenuUpdate,
		PermissionMenuDelete,
	}
}

// IsValidPermission reports whether perm is a known API permission.
func IsValidPermission(perm string) bool {
	return slices.Contains(AllPermissions(), perm)
}

// GenerateAPIKey generates a new random API key.
// Returns the raw key (to show user once) and the key prefix.
func GenerateAPIKey() (rawKey string, prefix string, err error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", "", err
	}

	rawKey = base64.RawURLEncoding.EncodeToString(bytes)
	return rawKey, rawKey[:APIKeyPrefixLength], nil
}

// HashAPIKey creates a SHA-256 hash of the API key for storage.
func HashAPIKey(key string) string {
	hash := sha256.Sum256([]byte(key))
	return hex.EncodeToString(hash[:])
}

// ParsePermissions decodes a stored JSON permission list.
// Invalid input yields an empty list.
func ParsePermissions(raw string) []string {
	if raw == "" || raw == "[]" {
		return nil
	}
	var perms []string
	if err := json.Unmarshal([]byte(raw), &perms); err != nil {
		return nil
	}
	return perms
}

// PermissionsToJSON converts a slice of permissions to a JSON string.
func PermissionsToJSON(perms []string) string {
	if len(perms) == 0 {
		return "[]"
	}
	data, _ := json.Marshal(perms)
	return string(data)
}
