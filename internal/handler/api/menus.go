// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/ocms-nav/internal/handler"
	"github.com/olegiv/ocms-nav/internal/middleware"
	"github.com/olegiv/ocms-nav/internal/model"
	"github.com/olegiv/ocms-nav/internal/service"
	"github.com/olegiv/ocms-nav/internal/store"
	"github.com/olegiv/ocms-nav/internal/util"
)

// MenuResponse represents a menu in admin API responses.
type MenuResponse struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Position    *string    `json:"position"`
	Description *string    `json:"description"`
	IsPublished bool       `json:"isPublished"`
	Version     int64      `json:"version"`
	CacheKey    string     `json:"cacheKey"`
	LastCached  *time.Time `json:"lastCached"`
	// Stale is set while item changes are not yet projected into the cache.
	Stale     bool      `json:"stale"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Items     any       `json:"items,omitempty"`
}

// ItemResponse represents a menu item in admin API responses.
type ItemResponse struct {
	ID          string          `json:"id"`
	MenuID      string          `json:"menuId"`
	ParentID    *string         `json:"parentId"`
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
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// ItemMutationResponse is returned by item create and update: the item as
// written and the menu with its new version.
type ItemMutationResponse struct {
	Item ItemResponse `json:"item"`
	Menu MenuResponse `json:"menu"`
}

// ReorderRequest is the body of POST /menus/{menuId}/reorder.
type ReorderRequest struct {
	Items []service.ReorderEntry `json:"items" validate:"required,min=1,dive"`
}

func toMenuResponse(m store.Menu) MenuResponse {
	resp := MenuResponse{
		ID:          m.ID,
		Name:        m.Name,
		Slug:        m.Slug,
		Position:    util.PtrFromNullString(m.Position),
		Description: util.PtrFromNullString(m.Description),
		IsPublished: m.IsPublished,
		Version:     m.Version,
		CacheKey:    m.CacheKey,
		Stale:       m.TreeRevision != m.CachedRevision,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
	if m.LastCached.Valid {
		t := m.LastCached.Time
		resp.LastCached = &t
	}
	return resp
}

// cachedItems returns the stored items cache of m as raw JSON.
func cachedItems(m store.Menu) json.RawMessage {
	if m.ItemsCache == "" {
		return json.RawMessage("[]")
	}
	return json.RawMessage(m.ItemsCache)
}

func toItemResponse(item store.MenuItem) ItemResponse {
	reference := util.PtrFromNullString(item.Reference)
	url := util.PtrFromNullString(item.Url)

	return ItemResponse{
		ID:          item.ID,
		MenuID:      item.MenuID,
		ParentID:    util.PtrFromNullString(item.ParentID),
		Title:       item.Title,
		Slug:        item.Slug,
		Type:        item.Type,
		Reference:   reference,
		URL:         url,
		Href:        model.EffectiveURL(item.Type, reference, url),
		Icon:        util.PtrFromNullString(item.Icon),
		Target:      item.Target,
		CSSClass:    util.PtrFromNullString(item.CssClass),
		Order:       item.SortOrder,
		IsPublished: item.IsPublished,
		Meta:        util.RawJSON(item.Meta),
		CreatedAt:   item.CreatedAt,
		UpdatedAt:   item.UpdatedAt,
	}
}

func toItemMutationResponse(res service.ItemResult) ItemMutationResponse {
	return ItemMutationResponse{
		Item: toItemResponse(res.Item),
		Menu: toMenuResponse(res.Menu),
	}
}

func pageMeta(total int64, page, perPage int) *Meta {
	return &Meta{
		Total:   total,
		Page:    page,
		PerPage: perPage,
		Pages:   handler.CalculateTotalPages(int(total), perPage),
	}
}

// ListMenus handles GET /api/v1/menus.
// Keys holding menu.read see every menu; everyone else sees published menus.
func (h *Handler) ListMenus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page := handler.ParsePageParam(r)
	perPage := handler.ParsePerPageParam(r, handler.DefaultPerPage, handler.MaxPerPage)

	if !middleware.HasPermission(r, model.PermissionMenuRead) {
		result, err := h.menus.ListPublishedMenus(ctx, page, perPage)
		if err != nil {
			h.writeServiceError(w, r, err)
			return
		}
		WriteSuccess(w, result.Menus, pageMeta(result.Total, page, perPage))
		return
	}

	menus, total, err := h.menus.ListMenus(ctx, page, perPage)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	responses := make([]MenuResponse, 0, len(menus))
	for _, m := range menus {
		responses = append(responses, toMenuResponse(m))
	}
	WriteSuccess(w, responses, pageMeta(total, page, perPage))
}

// GetMenu handles GET /api/v1/menus/{identifier}.
// Keys holding menu.read get the live tree including unpublished items;
// everyone else gets the cached tree of a published menu.
func (h *Handler) GetMenu(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identifier := chi.URLParam(r, handler.ParamIdentifier)

	if !middleware.HasPermission(r, model.PermissionMenuRead) {
		menu, err := h.projector.GetPublicMenu(ctx, identifier)
		if err != nil {
			h.writeServiceError(w, r, err)
			return
		}
		if menu == nil {
			WriteNotFound(w, "Menu not found")
			return
		}
		WriteSuccess(w, menu, nil)
		return
	}

	result, err := h.projector.GetMenu(ctx, identifier)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	resp := toMenuResponse(result.Menu)
	items := result.Items
	if items == nil {
		items = []model.MenuNode{}
	}
	resp.Items = items
	WriteSuccess(w, resp, nil)
}

// CreateMenu handles POST /api/v1/menus.
// Requires menu.create permission.
func (h *Handler) CreateMenu(w http.ResponseWriter, r *http.Request) {
	var req service.CreateMenuInput
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validateRequest(req, "menu is invalid"); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	menu, err := h.menus.CreateMenu(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	resp := toMenuResponse(menu)
	resp.Items = cachedItems(menu)
	WriteCreated(w, resp)
}

// UpdateMenu handles PUT /api/v1/menus/{id}.
// Requires menu.update permission.
func (h *Handler) UpdateMenu(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateMenuInput
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validateRequest(req, "menu is invalid"); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	menu, err := h.menus.UpdateMenu(r.Context(), chi.URLParam(r, handler.ParamID), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, toMenuResponse(menu), nil)
}

// DeleteMenu handles DELETE /api/v1/menus/{id}.
// Requires menu.delete permission.
func (h *Handler) DeleteMenu(w http.ResponseWriter, r *http.Request) {
	if err := h.menus.DeleteMenu(r.Context(), chi.URLParam(r, handler.ParamID)); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateItem handles POST /api/v1/menus/{menuId}/items.
// Requires menu.create permission.
func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req service.CreateItemInput
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validateRequest(req, "menu item is invalid"); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	res, err := h.menus.AddItem(r.Context(), chi.URLParam(r, handler.ParamMenuID), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteCreated(w, toItemMutationResponse(res))
}

// UpdateItem handles PUT /api/v1/menus/{menuId}/items/{itemId}.
// Requires menu.update permission.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateItemInput
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validateRequest(req, "menu item is invalid"); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	res, err := h.menus.UpdateItem(r.Context(),
		chi.URLParam(r, handler.ParamMenuID),
		chi.URLParam(r, handler.ParamItemID),
		req,
	)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, toItemMutationResponse(res), nil)
}

// DeleteItem handles DELETE /api/v1/menus/{menuId}/items/{itemId}.
// Requires menu.delete permission. Responds with the menu so callers can
// pick up the new version.
func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	menu, err := h.menus.DeleteItem(r.Context(),
		chi.URLParam(r, handler.ParamMenuID),
		chi.URLParam(r, handler.ParamItemID),
	)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, toMenuResponse(menu), nil)
}

// ReorderItems handles POST /api/v1/menus/{menuId}/reorder.
// Requires menu.update permission.
func (h *Handler) ReorderItems(w http.ResponseWriter, r *http.Request) {
	var req ReorderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validateRequest(req, "reorder is invalid"); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	menu, err := h.menus.ReorderItems(r.Context(), chi.URLParam(r, handler.ParamMenuID), req.Items)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, toMenuResponse(menu), nil)
}

// RegenerateMenu handles POST /api/v1/menus/{menuId}/regenerate.
// Requires menu.update permission. Responds with the menu and its freshly
// projected items cache.
func (h *Handler) RegenerateMenu(w http.ResponseWriter, r *http.Request) {
	menu, err := h.menus.RegenerateMenu(r.Context(), chi.URLParam(r, handler.ParamMenuID))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	resp := toMenuResponse(menu)
	resp.Items = cachedItems(menu)
	WriteSuccess(w, resp, nil)
}
