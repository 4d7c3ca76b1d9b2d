// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"
)

func strPtr(s string) *string { return &s }

func TestCacheKey(t *testing.T) {
	tests := []struct {
		slug    string
		version int64
		want    string
	}{
		{"main", 1, "menu:main:v1"},
		{"main-menu-2", 3, "menu:main-menu-2:v3"},
		{"footer", 120, "menu:footer:v120"},
	}

	for _, tt := range tests {
		if got := CacheKey(tt.slug, tt.version); got != tt.want {
			t.Errorf("CacheKey(%q, %d) = %q, want %q", tt.slug, tt.version, got, tt.want)
		}
	}
}

func TestEffectiveURL(t *testing.T) {
	tests := []struct {
		name      string
		itemType  string
		reference *string
		url       *string
		want      *string
	}{
		{"page", ItemTypePage, strPtr("about"), nil, strPtr("/about")},
		{"post", ItemTypePost, strPtr("hello"), nil, strPtr("/blog/hello")},
		{"category", ItemTypeCategory, strPtr("news"), nil, strPtr("/category/news")},
		{"service", ItemTypeService, strPtr("seo"), nil, strPtr("/services/seo")},
		{"project", ItemTypeProject, strPtr("shop"), nil, strPtr("/projects/shop")},
		{"url wins", ItemTypePage, strPtr("about"), strPtr("/custom"), strPtr("/custom")},
		{"custom link", ItemTypeCustomLink, nil, strPtr("/"), strPtr("/")},
		{"structural", ItemTypeCustomLink, nil, nil, nil},
		{"empty reference", ItemTypePage, strPtr(""), nil, nil},
		{"link type with reference only", ItemTypeExternalLink, strPtr("x"), nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EffectiveURL(tt.itemType, tt.reference, tt.url)
			switch {
			case tt.want == nil && got != nil:
				t.Errorf("EffectiveURL() = %q, want nil", *got)
			case tt.want != nil && got == nil:
				t.Errorf("EffectiveURL() = nil, want %q", *tt.want)
			case tt.want != nil && *got != *tt.want:
				t.Errorf("EffectiveURL() = %q, want %q", *got, *tt.want)
			}
		})
	}
}

func TestValidateItemContract(t *testing.T) {
	tests := []struct {
		name      string
		itemType  string
		reference *string
		url       *string
		target    string
		wantField string
	}{
		{"page without reference", ItemTypePage, nil, nil, "", "reference"},
		{"page with blank reference", ItemTypePage, strPtr("  "), nil, "", "reference"},
		{"page with reference", ItemTypePage, strPtr("about"), nil, "", ""},
		{"external relative url", ItemTypeExternalLink, nil, strPtr("/relative"), "", "url"},
		{"external https url", ItemTypeExternalLink, nil, strPtr("https://x.com"), "", ""},
		{"external http url", ItemTypeExternalLink, nil, strPtr("http://x.com"), "", ""},
		{"custom without url", ItemTypeCustomLink, nil, nil, "", "url"},
		{"custom relative url", ItemTypeCustomLink, nil, strPtr("/services"), "", ""},
		{"unknown type", "widget", nil, nil, "", "type"},
		{"bad target", ItemTypeCustomLink, nil, strPtr("/"), "_top", "target"},
		{"blank target", ItemTypeCustomLink, nil, strPtr("/"), TargetBlank, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateItemContract(tt.itemType, tt.reference, tt.url, tt.target)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("ValidateItemContract() error = %v, want nil", err)
				}
				return
			}

			var domainErr *Error
			if !errors.As(err, &domainErr) {
				t.Fatalf("ValidateItemContract() error = %v, want *Error", err)
			}
			if domainErr.Kind != KindValidationFailed {
				t.Errorf("Kind = %q, want %q", domainErr.Kind, KindValidationFailed)
			}
			if _, ok := domainErr.Fields[tt.wantField]; !ok {
				t.Errorf("Fields = %v, want key %q", domainErr.Fields, tt.wantField)
			}
		})
	}
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err  *Error
		want int
	}{
		{NotFound("menu not found"), http.StatusNotFound},
		{Conflict("slug taken"), http.StatusConflict},
		{ValidationFailed("bad", nil), http.StatusUnprocessableEntity},
		{Forbidden("no"), http.StatusForbidden},
		{&Error{Kind: "other"}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := tt.err.Status(); got != tt.want {
			t.Errorf("%s.Status() = %d, want %d", tt.err.Kind, got, tt.want)
		}
	}
}

func TestErrorWrapping(t *testing.T) {
	cause := errors.New("disk full")
	err := &Error{Kind: KindConflict, Message: "slug exhausted", Err: cause}

	if !errors.Is(err, cause) {
		t.Error("errors.Is should reach the wrapped cause")
	}
	if err.Error() != "slug exhausted: disk full" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !IsKind(err, KindConflict) {
		t.Error("IsKind(conflict) = false")
	}
	if IsKind(errors.New("plain"), KindConflict) {
		t.Error("IsKind on plain error = true")
	}
}

func TestMenuNodeJSON(t *testing.T) {
	node := MenuNode{
		ID:       "1",
		Title:    "Home",
		Slug:     "home",
		Type:     ItemTypeCustomLink,
		URL:      strPtr("/"),
		Href:     strPtr("/"),
		Target:   TargetSelf,
		Children: []MenuNode{},
	}

	data, err := json.Marshal(node)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	want := `{"id":"1","title":"Home","slug":"home","type":"custom-link","reference":null,"url":"/","href":"/","icon":null,"target":"_self","cssClass":null,"order":0,"isPublished":false,"meta":null,"children":[]}`
	if string(data) != want {
		t.Errorf("Marshal() =\n%s\nwant\n%s", data, want)
	}
}

func TestOptionalUnmarshal(t *testing.T) {
	var req struct {
		Parent Optional[string] `json:"parentId"`
		Icon   Optional[string] `json:"icon"`
		Order  Optional[int64]  `json:"order"`
	}

	if err := json.Unmarshal([]byte(`{"parentId":null,"order":4}`), &req); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if !req.Parent.Set || !req.Parent.Null {
		t.Errorf("Parent = %+v, want explicit null", req.Parent)
	}
	if req.Parent.Ptr() != nil {
		t.Error("Parent.Ptr() should be nil for null")
	}
	if req.Icon.Set {
		t.Errorf("Icon = %+v, want absent", req.Icon)
	}
	if !req.Order.HasValue() || req.Order.Value != 4 {
		t.Errorf("Order = %+v, want 4", req.Order)
	}
	if got := Some("x").Ptr(); got == nil || *got != "x" {
		t.Errorf("Some(x).Ptr() = %v", got)
	}
	if Null[string]().HasValue() {
		t.Error("Null().HasValue() = true")
	}
}
