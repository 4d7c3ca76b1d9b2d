// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/olegiv/ocms-nav/internal/model"
	"github.com/olegiv/ocms-nav/internal/service"
	"github.com/olegiv/ocms-nav/internal/testutil"
)

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal error response %q: %v", w.Body.String(), err)
	}
	return resp
}

func TestWriteSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	WriteSuccess(w, map[string]string{"hello": "world"}, &Meta{Total: 3, Page: 1, PerPage: 2, Pages: 2})

	if w.Code != http.StatusOK {
		t.Errorf("status = %d; want %d", w.Code, http.StatusOK)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q; want application/json", ct)
	}

	var resp struct {
		Data map[string]string `json:"data"`
		Meta Meta              `json:"meta"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.Data["hello"] != "world" {
		t.Errorf("data = %v", resp.Data)
	}
	if resp.Meta.Pages != 2 || resp.Meta.PerPage != 2 {
		t.Errorf("meta = %+v", resp.Meta)
	}
}

func TestWriteCreatedOmitsMeta(t *testing.T) {
	w := httptest.NewRecorder()
	WriteCreated(w, "ok")

	if w.Code != http.StatusCreated {
		t.Errorf("status = %d; want %d", w.Code, http.StatusCreated)
	}
	if strings.Contains(w.Body.String(), "meta") {
		t.Errorf("body = %q; meta should be omitted", w.Body.String())
	}
}

func TestWriteServiceError(t *testing.T) {
	h := &Handler{logger: testutil.TestLoggerSilent()}

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantField  string
	}{
		{
			name:       "not found",
			err:        model.NotFound("menu not found"),
			wantStatus: http.StatusNotFound,
			wantCode:   string(model.KindNotFound),
		},
		{
			name:       "wrapped conflict",
			err:        errors.Join(errors.New("context"), model.Conflict("slug taken")),
			wantStatus: http.StatusConflict,
			wantCode:   string(model.KindConflict),
		},
		{
			name:       "validation",
			err:        model.ValidationFailed("invalid", map[string]string{"url": "is required"}),
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   string(model.KindValidationFailed),
			wantField:  "url",
		},
		{
			name:       "unexpected",
			err:        errors.New("disk on fire"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "internal_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.writeServiceError(w, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d; want %d", w.Code, tt.wantStatus)
			}
			resp := decodeError(t, w)
			if resp.Error.Code != tt.wantCode {
				t.Errorf("code = %q; want %q", resp.Error.Code, tt.wantCode)
			}
			if tt.wantField != "" {
				if _, ok := resp.Error.Details[tt.wantField]; !ok {
					t.Errorf("details = %v; want field %q", resp.Error.Details, tt.wantField)
				}
			}
			if tt.wantStatus == http.StatusInternalServerError && strings.Contains(w.Body.String(), "disk on fire") {
				t.Error("internal error details must not leak")
			}
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantOK     bool
		wantStatus int
	}{
		{"valid", `{"name":"Main"}`, true, http.StatusOK},
		{"empty", ``, false, http.StatusBadRequest},
		{"malformed", `{"name":`, false, http.StatusBadRequest},
		{"trailing value", `{"name":"a"}{"name":"b"}`, false, http.StatusBadRequest},
		{"too large", `{"name":"` + strings.Repeat("x", maxBodyBytes) + `"}`, false, http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))

			var dst service.CreateMenuInput
			ok := decodeJSON(w, r, &dst)
			if ok != tt.wantOK {
				t.Fatalf("decodeJSON() = %v; want %v", ok, tt.wantOK)
			}
			if !ok && w.Code != tt.wantStatus {
				t.Errorf("status = %d; want %d", w.Code, tt.wantStatus)
			}
			if ok && dst.Name != "Main" {
				t.Errorf("Name = %q; want Main", dst.Name)
			}
		})
	}
}

func TestValidateRequest(t *testing.T) {
	err := validateRequest(service.CreateMenuInput{}, "menu is invalid")
	var verr *model.Error
	if !errors.As(err, &verr) || verr.Kind != model.KindValidationFailed {
		t.Fatalf("err = %v; want validation failure", err)
	}
	if verr.Fields["name"] != "is required" {
		t.Errorf("fields = %v", verr.Fields)
	}

	long := strings.Repeat("x", 51)
	err = validateRequest(service.CreateMenuInput{Name: "Main", Position: &long}, "menu is invalid")
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v; want validation failure", err)
	}
	if verr.Fields["position"] != "must be at most 50 characters" {
		t.Errorf("fields = %v", verr.Fields)
	}

	if err := validateRequest(service.CreateMenuInput{Name: "Main"}, "menu is invalid"); err != nil {
		t.Errorf("valid request: %v", err)
	}
}

func TestValidateRequestOptionalFields(t *testing.T) {
	long := strings.Repeat("x", 256)

	err := validateRequest(service.UpdateMenuInput{Name: model.Some(long)}, "menu is invalid")
	var verr *model.Error
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v; want validation failure", err)
	}
	if verr.Fields["name"] != "must be at most 255 characters" {
		t.Errorf("fields = %v", verr.Fields)
	}

	err = validateRequest(service.UpdateItemInput{URL: model.Some(strings.Repeat("u", 2049))}, "menu item is invalid")
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v; want validation failure", err)
	}
	if _, ok := verr.Fields["url"]; !ok {
		t.Errorf("fields = %v; want url", verr.Fields)
	}

	valid := []any{
		service.UpdateMenuInput{},
		service.UpdateMenuInput{Name: model.Some("Main"), Position: model.Null[string]()},
		service.UpdateItemInput{Title: model.Some("Home"), Icon: model.Null[string](), Order: model.Some(int64(3))},
	}
	for _, req := range valid {
		if err := validateRequest(req, "invalid"); err != nil {
			t.Errorf("validateRequest(%+v) = %v", req, err)
		}
	}
}

func TestValidateRequestNestedPaths(t *testing.T) {
	err := validateRequest(ReorderRequest{Items: []service.ReorderEntry{{ID: "a"}, {Order: 1}}}, "reorder is invalid")
	var verr *model.Error
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v; want validation failure", err)
	}
	if _, ok := verr.Fields["items[1].id"]; !ok {
		t.Errorf("fields = %v; want items[1].id", verr.Fields)
	}

	err = validateRequest(ReorderRequest{}, "reorder is invalid")
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v; want validation failure", err)
	}
	if _, ok := verr.Fields["items"]; !ok {
		t.Errorf("fields = %v; want items", verr.Fields)
	}
}

func TestFieldPath(t *testing.T) {
	tests := map[string]string{
		"CreateMenuInput.name":       "name",
		"ReorderRequest.items[0].id": "items[0].id",
		"name":                       "name",
	}
	for in, want := range tests {
		if got := fieldPath(in); got != want {
			t.Errorf("fieldPath(%q) = %q; want %q", in, got, want)
		}
	}
}
