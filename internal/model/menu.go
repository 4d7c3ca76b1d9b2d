// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines domain models and types used throughout the application.
package model

import (
	"encoding/json"
	"slices"
	"strconv"
	"strings"
)

// MaxDepth is the number of tree levels (item, child, grandchild) that are
// projected into a menu cache. Deeper items may be stored but are never
// returned.
const MaxDepth = 3

// Item types
const (
	ItemTypePage         = "page"
	ItemTypePost         = "post"
	ItemTypeCategory     = "category"
	ItemTypeService      = "service"
	ItemTypeProject      = "project"
	ItemTypeCustomLink   = "custom-link"
	ItemTypeExternalLink = "external-link"
)

// ValidItemTypes contains every accepted item type.
var ValidItemTypes = []string{
	ItemTypePage,
	ItemTypePost,
	ItemTypeCategory,
	ItemTypeService,
	ItemTypeProject,
	ItemTypeCustomLink,
	ItemTypeExternalLink,
}

// Link target values
const (
	TargetSelf  = "_self"
	TargetBlank = "_blank"
)

// ValidTargets contains all valid link target values.
var ValidTargets = []string{TargetSelf, TargetBlank}

// entityPaths maps entity item types to the path prefix their reference is
// appended to.
var entityPaths = map[string]string{
	ItemTypePage:     "/",
	ItemTypePost:     "/blog/",
	ItemTypeCategory: "/category/",
	ItemTypeService:  "/services/",
	ItemTypeProject:  "/projects/",
}

// IsValidItemType checks if an item type is valid.
func IsValidItemType(t string) bool {
	return slices.Contains(ValidItemTypes, t)
}

// IsEntityType reports whether items of type t point at a content entity
// through their reference.
func IsEntityType(t string) bool {
	_, ok := entityPaths[t]
	return ok
}

// IsLinkType reports whether items of type t carry a literal url.
func IsLinkType(t string) bool {
	return t == ItemTypeCustomLink || t == ItemTypeExternalLink
}

// IsValidTarget checks if a target value is valid.
func IsValidTarget(target string) bool {
	return slices.Contains(ValidTargets, target)
}

// CacheKey returns the cache generation key for a menu slug and version.
func CacheKey(slug string, version int64) string {
	return "menu:" + slug + ":v" + strconv.FormatInt(version, 10)
}

// EffectiveURL returns the navigable URL of an item: its url when set,
// otherwise the per-type path built from its reference. Structural items
// with neither yield nil.
func EffectiveURL(itemType string, reference, url *string) *string {
	if url != nil && *url != "" {
		u := *url
		return &u
	}
	if reference == nil || *reference == "" {
		return nil
	}
	prefix, ok := entityPaths[itemType]
	if !ok {
		return nil
	}
	href := prefix + *reference
	return &href
}

// ValidateItemContract checks the type, reference, url and target rules of
// a menu item. It returns nil or a ValidationFailed error listing every
// offending field.
func ValidateItemContract(itemType string, reference, url *string, target string) error {
	fields := map[string]string{}

	switch {
	case !IsValidItemType(itemType):
		fields["type"] = "must be one of " + strings.Join(ValidItemTypes, ", ")
	case IsEntityType(itemType):
		if reference == nil || strings.TrimSpace(*reference) == "" {
			fields["reference"] = "is required for " + itemType + " items"
		}
	case IsLinkType(itemType):
		if url == nil || strings.TrimSpace(*url) == "" {
			fields["url"] = "is required for " + itemType + " items"
		} else if itemType == ItemTypeExternalLink && !isAbsoluteHTTPURL(*url) {
			fields["url"] = "must start with http:// or https://"
		}
	}

	if target != "" && !IsValidTarget(target) {
		fields["target"] = "must be one of " + strings.Join(ValidTargets, ", ")
	}

	if len(fields) > 0 {
		return ValidationFailed("menu item is invalid", fields)
	}
	return nil
}

func isAbsoluteHTTPURL(u string) bool {
	return strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://")
}

// MenuNode is one node of a projected menu tree. Its JSON form is the
// persisted shape of a menu items cache.
type MenuNode struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Slug        string          `json:"slug"`
	Type        string          `json:"type"`
	Reference   *string         `json:"reference"`
	URL         *string         `json:"url"`
	Href        *string         `json:"href"`
	Icon        *string         `json:"icon"`
	Target      string          `json:"target"`
	CSSClass    *string         `json:"cssClass"`
	Order       int64           `json:"order"`
	IsPublished bool            `json:"isPublished"`
	Meta        json.RawMessage `json:"meta"`
	Children    []MenuNode      `json:"children"`
}
