// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler provides HTTP handlers shared by every surface of the
// service, plus the route and paging conventions of the REST API.
package handler

// Route pattern constants for chi router registration.
const (
	// RouteAPIv1 is the mount point of the REST API.
	RouteAPIv1 = "/api/v1"

	// RouteHealth is the health check route.
	RouteHealth = "/health"
	// RouteHealthLive is the liveness probe route.
	RouteHealthLive = "/health/live"
	// RouteHealthReady is the readiness probe route.
	RouteHealthReady = "/health/ready"
	// RouteMetrics serves Prometheus metrics.
	RouteMetrics = "/metrics"

	// RouteMenus is the menus collection route.
	RouteMenus = "/menus"
	// RouteMenusIdentifier addresses one menu by id or slug.
	RouteMenusIdentifier = "/menus/{identifier}"
	// RouteMenusID addresses one menu by id.
	RouteMenusID = "/menus/{id}"
	// RouteMenuItems is the items collection of a menu.
	RouteMenuItems = "/menus/{menuId}/items"
	// RouteMenuItemsID addresses one item of a menu.
	RouteMenuItemsID = "/menus/{menuId}/items/{itemId}"
	// RouteMenuReorder bulk reorders the items of a menu.
	RouteMenuReorder = "/menus/{menuId}/reorder"
	// RouteMenuRegenerate forces a cache regeneration.
	RouteMenuRegenerate = "/menus/{menuId}/regenerate"
)

// URL parameter names.
const (
	ParamIdentifier = "identifier"
	ParamID         = "id"
	ParamMenuID     = "menuId"
	ParamItemID     = "itemId"
)

// Pagination defaults for list endpoints.
const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)
