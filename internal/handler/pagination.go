// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
	"strconv"
)

// ParsePageParam reads the 1-based "page" query parameter. Missing or
// invalid values yield 1.
func ParsePageParam(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// ParsePerPageParam reads the "per_page" query parameter, falling back to
// defaultPerPage and capping at maxPerPage. "perPage" is accepted as well.
func ParsePerPageParam(r *http.Request, defaultPerPage, maxPerPage int) int {
	q := r.URL.Query()
	raw := q.Get("per_page")
	if raw == "" {
		raw = q.Get("perPage")
	}

	perPage, err := strconv.Atoi(raw)
	if err != nil || perPage < 1 {
		return defaultPerPage
	}
	if perPage > maxPerPage {
		return maxPerPage
	}
	return perPage
}

// CalculateTotalPages returns the number of pages needed for totalItems,
// never less than 1.
func CalculateTotalPages(totalItems, perPage int) int {
	if perPage <= 0 || totalItems <= 0 {
		return 1
	}
	return (totalItems + perPage - 1) / perPage
}
