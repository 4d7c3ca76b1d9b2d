// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"strconv"
)

// CacheControl sets Cache-Control on read responses. Anonymous requests see
// the published tree and may be cached by shared caches for maxAge seconds.
// Requests authenticated with an API key may see unpublished content and
// are never stored. Run it after OptionalAPIKeyAuth.
func CacheControl(maxAge int) func(http.Handler) http.Handler {
	public := "public, max-age=" + strconv.Itoa(maxAge)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch {
			case r.Method != http.MethodGet && r.Method != http.MethodHead:
				w.Header().Set("Cache-Control", "no-store")
			case GetAPIKey(r) != nil || maxAge <= 0:
				w.Header().Set("Cache-Control", "private, no-store")
			default:
				w.Header().Set("Cache-Control", public)
			}
			next.ServeHTTP(w, r)
		})
	}
}
