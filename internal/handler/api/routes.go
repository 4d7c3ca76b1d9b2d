// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/ocms-nav/internal/handler"
	"github.com/olegiv/ocms-nav/internal/middleware"
	"github.com/olegiv/ocms-nav/internal/model"
)

// RouteConfig holds the rate limits and cache policy of the API routes.
type RouteConfig struct {
	// KeyRate and KeyBurst limit requests per API key.
	KeyRate  float64
	KeyBurst int
	// PublicLimiter limits requests per client IP. Nil disables it.
	PublicLimiter *middleware.GlobalRateLimiter
	// PublicMaxAge is the Cache-Control max-age of anonymous reads.
	PublicMaxAge int
}

// Routes returns the /api/v1 router. db backs API key authentication.
func (h *Handler) Routes(db *sql.DB, cfg RouteConfig) http.Handler {
	r := chi.NewRouter()

	if cfg.PublicLimiter != nil {
		r.Use(cfg.PublicLimiter.Middleware())
	}
	keyLimit := middleware.APIRateLimit(cfg.KeyRate, cfg.KeyBurst)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		WriteNotFound(w, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed", nil)
	})

	r.Get("/status", h.Status)

	// Reads are public; a key holding menu.read widens them to drafts.
	r.Group(func(r chi.Router) {
		r.Use(middleware.OptionalAPIKeyAuth(db))
		r.Use(keyLimit)
		r.Use(middleware.CacheControl(cfg.PublicMaxAge))
		r.Get(handler.RouteMenus, h.ListMenus)
		r.Get(handler.RouteMenusIdentifier, h.GetMenu)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(db))
		r.Use(keyLimit)
		r.Use(middleware.CacheControl(0))

		r.Get("/auth", h.AuthInfo)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequirePermission(model.PermissionMenuCreate))
			r.Post(handler.RouteMenus, h.CreateMenu)
			r.Post(handler.RouteMenuItems, h.CreateItem)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequirePermission(model.PermissionMenuUpdate))
			r.Put(handler.RouteMenusID, h.UpdateMenu)
			r.Put(handler.RouteMenuItemsID, h.UpdateItem)
			r.Post(handler.RouteMenuReorder, h.ReorderItems)
			r.Post(handler.RouteMenuRegenerate, h.RegenerateMenu)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequirePermission(model.PermissionMenuDelete))
			r.Delete(handler.RouteMenusID, h.DeleteMenu)
			r.Delete(handler.RouteMenuItemsID, h.DeleteItem)
		})
	})

	return r
}
