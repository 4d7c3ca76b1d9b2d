// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/olegiv/ocms-nav/internal/metrics"
	"github.com/olegiv/ocms-nav/internal/model"
	"github.com/olegiv/ocms-nav/internal/service"
	"github.com/olegiv/ocms-nav/internal/store"
	"github.com/olegiv/ocms-nav/internal/testutil"
	"github.com/olegiv/ocms-nav/internal/version"
)

type testAPI struct {
	t        *testing.T
	router   http.Handler
	adminKey string
	readKey  string
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)

	logger := testutil.TestLoggerSilent()
	projector := service.NewProjector(db, nil, metrics.New(nil), logger)
	events := service.NewEventService(db, logger)
	menus := service.NewMenuService(db, projector, events, logger, false)
	h := NewHandler(menus, projector, logger, version.Info{Version: "v0.9.0"})

	ctx := context.Background()
	adminKey, _, err := store.CreateAPIKey(ctx, db, "admin", model.AllPermissions())
	if err != nil {
		t.Fatalf("CreateAPIKey: %v", err)
	}
	readKey, _, err := store.CreateAPIKey(ctx, db, "reader", []string{model.PermissionMenuRead})
	if err != nil {
		t.Fatalf("CreateAPIKey: %v", err)
	}

	return &testAPI{
		t:        t,
		router:   h.Routes(db, RouteConfig{KeyRate: 1000, KeyBurst: 1000, PublicMaxAge: 60}),
		adminKey: adminKey,
		readKey:  readKey,
	}
}

func (a *testAPI) do(method, path, key string, body any) *httptest.ResponseRecorder {
	a.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			a.t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

// decodeData unmarshals the data member of a success envelope into dst.
func decodeData(t *testing.T, w *httptest.ResponseRecorder, dst any) *Meta {
	t.Helper()
	var env struct {
		Data json.RawMessage `json:"data"`
		Meta *Meta           `json:"meta"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("failed to unmarshal response %q: %v", w.Body.String(), err)
	}
	if err := json.Unmarshal(env.Data, dst); err != nil {
		t.Fatalf("failed to unmarshal data %q: %v", env.Data, err)
	}
	return env.Meta
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status = %d; want %d (body: %s)", w.Code, want, w.Body.String())
	}
}

func (a *testAPI) createMenu(body map[string]any) MenuResponse {
	a.t.Helper()
	w := a.do(http.MethodPost, "/menus", a.adminKey, body)
	expectStatus(a.t, w, http.StatusCreated)
	var menu MenuResponse
	decodeData(a.t, w, &menu)
	return menu
}

func (a *testAPI) addItem(menuID string, body map[string]any) ItemMutationResponse {
	a.t.Helper()
	w := a.do(http.MethodPost, "/menus/"+menuID+"/items", a.adminKey, body)
	expectStatus(a.t, w, http.StatusCreated)
	var res ItemMutationResponse
	decodeData(a.t, w, &res)
	return res
}

type publicMenuBody struct {
	ID       string           `json:"id"`
	Slug     string           `json:"slug"`
	Version  int64            `json:"version"`
	CacheKey string           `json:"cacheKey"`
	Items    []model.MenuNode `json:"items"`
}

func TestStatusAndAuthInfo(t *testing.T) {
	a := newTestAPI(t)

	w := a.do(http.MethodGet, "/status", "", nil)
	expectStatus(t, w, http.StatusOK)
	var status StatusResponse
	decodeData(t, w, &status)
	if status.Status != "ok" || status.Version.Version != "v0.9.0" {
		t.Errorf("status = %+v", status)
	}

	w = a.do(http.MethodGet, "/auth", "", nil)
	expectStatus(t, w, http.StatusUnauthorized)

	w = a.do(http.MethodGet, "/auth", a.readKey, nil)
	expectStatus(t, w, http.StatusOK)
	var info AuthInfoResponse
	decodeData(t, w, &info)
	if info.Name != "reader" {
		t.Errorf("name = %q; want reader", info.Name)
	}
	if len(info.Permissions) != 1 || info.Permissions[0] != model.PermissionMenuRead {
		t.Errorf("permissions = %v", info.Permissions)
	}
	if got := w.Header().Get("Cache-Control"); got != "private, no-store" {
		t.Errorf("Cache-Control = %q", got)
	}
}

func TestEndToEndPublicMenu(t *testing.T) {
	a := newTestAPI(t)

	menu := a.createMenu(map[string]any{"name": "Main Menu"})
	if menu.Slug != "main-menu" || menu.Version != 1 {
		t.Fatalf("menu = %+v", menu)
	}

	home := a.addItem(menu.ID, map[string]any{"title": "Home", "type": "page", "reference": "home"})
	if home.Menu.Version != 2 {
		t.Errorf("version after first item = %d; want 2", home.Menu.Version)
	}
	if home.Item.Href == nil || *home.Item.Href != "/home" {
		t.Errorf("href = %v; want /home", home.Item.Href)
	}

	about := a.addItem(menu.ID, map[string]any{
		"title":    "About",
		"type":     "custom-link",
		"url":      "/about",
		"parentId": home.Item.ID,
	})
	if about.Menu.Version != 3 {
		t.Errorf("version after second item = %d; want 3", about.Menu.Version)
	}

	w := a.do(http.MethodGet, "/menus/main-menu", "", nil)
	expectStatus(t, w, http.StatusOK)
	if got := w.Header().Get("Cache-Control"); got != "public, max-age=60" {
		t.Errorf("Cache-Control = %q", got)
	}

	var pm publicMenuBody
	decodeData(t, w, &pm)
	if pm.Version != 3 || pm.CacheKey != "menu:main-menu:v3" {
		t.Errorf("public menu = %+v", pm)
	}
	if len(pm.Items) != 1 || pm.Items[0].Title != "Home" {
		t.Fatalf("items = %+v", pm.Items)
	}
	if len(pm.Items[0].Children) != 1 || pm.Items[0].Children[0].Title != "About" {
		t.Errorf("children = %+v", pm.Items[0].Children)
	}

	// The same menu resolves by ID.
	w = a.do(http.MethodGet, "/menus/"+menu.ID, "", nil)
	expectStatus(t, w, http.StatusOK)
	var byID publicMenuBody
	decodeData(t, w, &byID)
	if byID.Slug != "main-menu" {
		t.Errorf("slug = %q; want main-menu", byID.Slug)
	}
}

func TestMutationsRequirePermissions(t *testing.T) {
	a := newTestAPI(t)
	menu := a.createMenu(map[string]any{"name": "Main"})

	tests := []struct {
		name   string
		method string
		path   string
		key    string
		want   int
	}{
		{"create without key", http.MethodPost, "/menus", "", http.StatusUnauthorized},
		{"create with bad key", http.MethodPost, "/menus", "not-a-key", http.StatusUnauthorized},
		{"create read-only", http.MethodPost, "/menus", a.readKey, http.StatusForbidden},
		{"update read-only", http.MethodPut, "/menus/" + menu.ID, a.readKey, http.StatusForbidden},
		{"delete read-only", http.MethodDelete, "/menus/" + menu.ID, a.readKey, http.StatusForbidden},
		{"reorder without key", http.MethodPost, "/menus/" + menu.ID + "/reorder", "", http.StatusUnauthorized},
		{"regenerate read-only", http.MethodPost, "/menus/" + menu.ID + "/regenerate", a.readKey, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := a.do(tt.method, tt.path, tt.key, map[string]any{"name": "x"})
			expectStatus(t, w, tt.want)
		})
	}
}

func TestDraftsVisibleToReaders(t *testing.T) {
	a := newTestAPI(t)

	draft := a.createMenu(map[string]any{"name": "Draft", "isPublished": false})
	a.createMenu(map[string]any{"name": "Live"})
	a.addItem(draft.ID, map[string]any{
		"title":       "Hidden",
		"type":        "custom-link",
		"url":         "/hidden",
		"isPublished": false,
	})

	w := a.do(http.MethodGet, "/menus/draft", "", nil)
	expectStatus(t, w, http.StatusNotFound)

	w = a.do(http.MethodGet, "/menus/draft", a.readKey, nil)
	expectStatus(t, w, http.StatusOK)
	var admin struct {
		MenuResponse
		Items []model.MenuNode `json:"items"`
	}
	decodeData(t, w, &admin)
	if admin.IsPublished {
		t.Error("draft menu reported as published")
	}
	if len(admin.Items) != 1 || admin.Items[0].Title != "Hidden" {
		t.Errorf("items = %+v; want the unpublished item", admin.Items)
	}

	w = a.do(http.MethodGet, "/menus", "", nil)
	expectStatus(t, w, http.StatusOK)
	var public []map[string]any
	meta := decodeData(t, w, &public)
	if len(public) != 1 || meta == nil || meta.Total != 1 {
		t.Errorf("public list = %v, meta = %+v", public, meta)
	}

	w = a.do(http.MethodGet, "/menus?per_page=1", a.readKey, nil)
	expectStatus(t, w, http.StatusOK)
	var all []MenuResponse
	meta = decodeData(t, w, &all)
	if len(all) != 1 || meta.Total != 2 || meta.Pages != 2 {
		t.Errorf("admin list = %d menus, meta = %+v", len(all), meta)
	}
}

func TestValidationErrors(t *testing.T) {
	a := newTestAPI(t)
	menu := a.createMenu(map[string]any{"name": "Main"})

	tests := []struct {
		name      string
		path      string
		body      any
		wantField string
	}{
		{"menu without name", "/menus", map[string]any{}, "name"},
		{"item without title", "/menus/" + menu.ID + "/items", map[string]any{"type": "page", "reference": "x"}, "title"},
		{"unknown type", "/menus/" + menu.ID + "/items", map[string]any{"title": "x", "type": "widget"}, "type"},
		{"relative external link", "/menus/" + menu.ID + "/items", map[string]any{"title": "x", "type": "external-link", "url": "/x"}, "url"},
		{"page without reference", "/menus/" + menu.ID + "/items", map[string]any{"title": "x", "type": "page"}, "reference"},
		{"reorder without id", "/menus/" + menu.ID + "/reorder", map[string]any{"items": []map[string]any{{"order": 1}}}, "items[0].id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := a.do(http.MethodPost, tt.path, a.adminKey, tt.body)
			expectStatus(t, w, http.StatusUnprocessableEntity)
			resp := decodeError(t, w)
			if resp.Error.Code != string(model.KindValidationFailed) {
				t.Errorf("code = %q", resp.Error.Code)
			}
			if _, ok := resp.Error.Details[tt.wantField]; !ok {
				t.Errorf("details = %v; want field %q", resp.Error.Details, tt.wantField)
			}
		})
	}
}

func TestMalformedBody(t *testing.T) {
	a := newTestAPI(t)

	req := httptest.NewRequest(http.MethodPost, "/menus", bytes.NewBufferString("{"))
	req.Header.Set("Authorization", "Bearer "+a.adminKey)
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	expectStatus(t, w, http.StatusBadRequest)
	if resp := decodeError(t, w); resp.Error.Code != "bad_request" {
		t.Errorf("code = %q; want bad_request", resp.Error.Code)
	}
}

func TestUpdateMenu(t *testing.T) {
	a := newTestAPI(t)
	main := a.createMenu(map[string]any{"name": "Main"})
	a.createMenu(map[string]any{"name": "Footer"})

	w := a.do(http.MethodPut, "/menus/"+main.ID, a.adminKey, map[string]any{"slug": "footer"})
	expectStatus(t, w, http.StatusOK)
	var renamed MenuResponse
	decodeData(t, w, &renamed)
	if renamed.Slug != "footer-2" || renamed.Version != 2 || renamed.CacheKey != "menu:footer-2:v2" {
		t.Errorf("menu after slug collision = %+v", renamed)
	}

	w = a.do(http.MethodPut, "/menus/"+main.ID, a.adminKey, map[string]any{"position": "header"})
	expectStatus(t, w, http.StatusOK)
	var moved MenuResponse
	decodeData(t, w, &moved)
	if moved.Position == nil || *moved.Position != "header" {
		t.Errorf("position = %v; want header", moved.Position)
	}
	if moved.Version != 2 {
		t.Errorf("version = %d; a position change keeps the version", moved.Version)
	}

	w = a.do(http.MethodPut, "/menus/"+main.ID, a.adminKey, map[string]any{"name": nil})
	expectStatus(t, w, http.StatusUnprocessableEntity)

	w = a.do(http.MethodPut, "/menus/9b2f3c44-0000-4000-8000-000000000000", a.adminKey, map[string]any{"name": "x"})
	expectStatus(t, w, http.StatusNotFound)
}

func TestItemUpdateReorderAndRegenerate(t *testing.T) {
	a := newTestAPI(t)
	menu := a.createMenu(map[string]any{"name": "Main"})

	first := a.addItem(menu.ID, map[string]any{"title": "First", "type": "custom-link", "url": "/first"})
	second := a.addItem(menu.ID, map[string]any{"title": "Second", "type": "custom-link", "url": "/second"})

	w := a.do(http.MethodPut, "/menus/"+menu.ID+"/items/"+first.Item.ID, a.adminKey, map[string]any{"title": "Renamed"})
	expectStatus(t, w, http.StatusOK)
	var updated ItemMutationResponse
	decodeData(t, w, &updated)
	if updated.Item.Title != "Renamed" || updated.Menu.Version != 4 {
		t.Errorf("update = %+v (version %d)", updated.Item.Title, updated.Menu.Version)
	}

	w = a.do(http.MethodPost, "/menus/"+menu.ID+"/reorder", a.adminKey, map[string]any{
		"items": []map[string]any{
			{"id": second.Item.ID, "order": 0},
			{"id": first.Item.ID, "order": 1},
		},
	})
	expectStatus(t, w, http.StatusOK)

	w = a.do(http.MethodGet, "/menus/"+menu.Slug, "", nil)
	expectStatus(t, w, http.StatusOK)
	var pm publicMenuBody
	decodeData(t, w, &pm)
	if len(pm.Items) != 2 || pm.Items[0].Title != "Second" || pm.Items[1].Title != "Renamed" {
		t.Errorf("items after reorder = %+v", pm.Items)
	}

	w = a.do(http.MethodPost, "/menus/"+menu.ID+"/regenerate", a.adminKey, nil)
	expectStatus(t, w, http.StatusOK)
	var regen struct {
		MenuResponse
		Items []model.MenuNode `json:"items"`
	}
	decodeData(t, w, &regen)
	if regen.Version != pm.Version+1 {
		t.Errorf("version after regenerate = %d; want %d", regen.Version, pm.Version+1)
	}
	if len(regen.Items) != 2 || regen.Stale {
		t.Errorf("regenerated menu = %+v", regen)
	}

	w = a.do(http.MethodPut, "/menus/"+menu.ID+"/items/"+first.Item.ID, a.adminKey, map[string]any{"parentId": first.Item.ID})
	expectStatus(t, w, http.StatusUnprocessableEntity)
}

func TestDeleteItemAndMenu(t *testing.T) {
	a := newTestAPI(t)
	menu := a.createMenu(map[string]any{"name": "Main"})
	item := a.addItem(menu.ID, map[string]any{"title": "Home", "type": "custom-link", "url": "/"})

	w := a.do(http.MethodDelete, "/menus/"+menu.ID+"/items/"+item.Item.ID, a.adminKey, nil)
	expectStatus(t, w, http.StatusOK)
	var afterDelete MenuResponse
	decodeData(t, w, &afterDelete)
	if afterDelete.Version != item.Menu.Version+1 {
		t.Errorf("version = %d; want %d", afterDelete.Version, item.Menu.Version+1)
	}

	w = a.do(http.MethodDelete, "/menus/"+menu.ID+"/items/"+item.Item.ID, a.adminKey, nil)
	expectStatus(t, w, http.StatusNotFound)

	w = a.do(http.MethodDelete, "/menus/"+menu.ID, a.adminKey, nil)
	expectStatus(t, w, http.StatusNoContent)

	w = a.do(http.MethodGet, "/menus/main", "", nil)
	expectStatus(t, w, http.StatusNotFound)

	w = a.do(http.MethodGet, "/menus/main", a.readKey, nil)
	expectStatus(t, w, http.StatusNotFound)
}

func TestUnknownRoutes(t *testing.T) {
	a := newTestAPI(t)

	w := a.do(http.MethodGet, "/nope", "", nil)
	expectStatus(t, w, http.StatusNotFound)
	if resp := decodeError(t, w); resp.Error.Message != "Route not found" {
		t.Errorf("message = %q", resp.Error.Message)
	}

	w = a.do(http.MethodPatch, "/menus", a.adminKey, nil)
	expectStatus(t, w, http.StatusMethodNotAllowed)
}

func TestUpdateLengthLimits(t *testing.T) {
	a := newTestAPI(t)
	menu := a.createMenu(map[string]any{"name": "Main"})
	item := a.addItem(menu.ID, map[string]any{"title": "Home", "type": "custom-link", "url": "/"})
	itemPath := "/menus/" + menu.ID + "/items/" + item.Item.ID

	tests := []struct {
		name  string
		path  string
		body  map[string]any
		field string
	}{
		{"menu name", "/menus/" + menu.ID, map[string]any{"name": strings.Repeat("n", 256)}, "name"},
		{"menu position", "/menus/" + menu.ID, map[string]any{"position": strings.Repeat("p", 51)}, "position"},
		{"menu description", "/menus/" + menu.ID, map[string]any{"description": strings.Repeat("d", 1001)}, "description"},
		{"item title", itemPath, map[string]any{"title": strings.Repeat("t", 256)}, "title"},
		{"item url", itemPath, map[string]any{"url": "/" + strings.Repeat("u", 2048)}, "url"},
		{"item icon", itemPath, map[string]any{"icon": strings.Repeat("i", 101)}, "icon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := a.do(http.MethodPut, tt.path, a.adminKey, tt.body)
			expectStatus(t, w, http.StatusUnprocessableEntity)
			resp := decodeError(t, w)
			if !strings.HasPrefix(resp.Error.Details[tt.field], "must be at most") {
				t.Errorf("details = %v; want a length error on %s", resp.Error.Details, tt.field)
			}
		})
	}

	// Null and absent values are not length checked.
	w := a.do(http.MethodPut, itemPath, a.adminKey, map[string]any{"icon": nil})
	expectStatus(t, w, http.StatusOK)
}
