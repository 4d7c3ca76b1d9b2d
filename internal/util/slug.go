// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package util provides general-purpose utility functions including
// URL slug generation and validation with Unicode normalization support.
package util

import (
	"context"
	"html"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/olegiv/ocms-nav/internal/model"
)

// MaxSlugAttempts bounds the numeric suffixes tried by UniqueSlug.
const MaxSlugAttempts = 1000

var (
	// slugRegex matches runs of characters that are not lowercase letters or digits
	slugRegex = regexp.MustCompile(`[^a-z0-9]+`)

	// markupPolicy strips every tag from user supplied text.
	markupPolicy = bluemonday.StrictPolicy()
)

// Slugify converts a string to a URL-friendly slug.
// It lowercases, strips accents, transliterates non-Latin scripts, collapses
// whitespace and punctuation runs to single hyphens and trims edge hyphens.
func Slugify(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)

	result = unidecode.Unidecode(result)
	result = strings.ToLower(result)
	result = slugRegex.ReplaceAllString(result, "-")

	return strings.Trim(result, "-")
}

// PurifyText removes markup from s and trims surrounding whitespace.
func PurifyText(s string) string {
	return strings.TrimSpace(html.UnescapeString(markupPolicy.Sanitize(s)))
}

// PurifySlug turns a client supplied slug into a clean slug.
func PurifySlug(s string) string {
	return Slugify(PurifyText(s))
}

// IsValidSlug checks if a string is a valid slug format.
func IsValidSlug(s string) bool {
	if s == "" {
		return false
	}

	for _, r := range s {
		if !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-') {
			return false
		}
	}

	if s[0] == '-' || s[len(s)-1] == '-' {
		return false
	}

	return !strings.Contains(s, "--")
}

// SlugExistsFunc reports whether a slug is already taken.
type SlugExistsFunc func(ctx context.Context, slug string) (bool, error)

// UniqueSlug returns base, or base with the first free "-2", "-3", ...
// suffix. An empty base falls back to fallback. It fails with a Conflict
// error once MaxSlugAttempts candidates are taken.
func UniqueSlug(ctx context.Context, base, fallback string, exists SlugExistsFunc) (string, error) {
	if base == "" {
		base = fallback
	}

	candidate := base
	for attempt := 1; attempt <= MaxSlugAttempts; attempt++ {
		if attempt > 1 {
			candidate = base + "-" + strconv.Itoa(attempt)
		}
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}

	return "", model.Conflict("slug " + base + " could not be made unique")
}
