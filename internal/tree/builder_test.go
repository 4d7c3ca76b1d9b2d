// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package tree

import (
	"database/sql"
	"encoding/json"
	"testing"

	"github.com/olegiv/ocms-nav/internal/model"
	"github.com/olegiv/ocms-nav/internal/store"
)

type itemOpt func(*store.MenuItem)

func parent(id string) itemOpt {
	return func(i *store.MenuItem) { i.ParentID = sql.NullString{String: id, Valid: true} }
}

func order(o int64) itemOpt {
	return func(i *store.MenuItem) { i.SortOrder = o }
}

func unpublished() itemOpt {
	return func(i *store.MenuItem) { i.IsPublished = false }
}

func item(id string, opts ...itemOpt) store.MenuItem {
	i := store.MenuItem{
		ID:          id,
		MenuID:      "menu",
		Title:       id,
		Slug:        id,
		Type:        model.ItemTypeCustomLink,
		Url:         sql.NullString{String: "/" + id, Valid: true},
		Target:      model.TargetSelf,
		IsPublished: true,
	}
	for _, opt := range opts {
		opt(&i)
	}
	return i
}

func ids(nodes []model.MenuNode) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.ID)
	}
	return out
}

func assertIDs(t *testing.T, label string, nodes []model.MenuNode, want ...string) {
	t.Helper()
	got := ids(nodes)
	if len(got) != len(want) {
		t.Fatalf("%s = %v, want %v", label, got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("%s = %v, want %v", label, got, want)
		}
	}
}

func TestBuildEmpty(t *testing.T) {
	nodes := Build(nil, Options{})
	if nodes == nil {
		t.Fatal("Build(nil) returned nil, want empty slice")
	}

	data, err := json.Marshal(nodes)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != "[]" {
		t.Errorf("Marshal(Build(nil)) = %s, want []", data)
	}
}

func TestBuildNesting(t *testing.T) {
	items := []store.MenuItem{
		item("home"),
		item("services", parent("home")),
		item("seo", parent("services")),
	}

	nodes := Build(items, Options{PublishedOnly: true})
	assertIDs(t, "roots", nodes, "home")
	assertIDs(t, "home.children", nodes[0].Children, "services")
	assertIDs(t, "services.children", nodes[0].Children[0].Children, "seo")

	leaf := nodes[0].Children[0].Children[0]
	if leaf.Children == nil || len(leaf.Children) != 0 {
		t.Errorf("leaf children = %v, want empty non-nil slice", leaf.Children)
	}
}

func TestBuildSiblingOrder(t *testing.T) {
	items := []store.MenuItem{
		item("a", order(0)),
		item("b", order(1)),
		item("c", order(2)),
	}

	assertIDs(t, "initial", Build(items, Options{}), "a", "b", "c")

	// reorder to c=0, a=1, b=2
	items[2].SortOrder = 0
	items[0].SortOrder = 1
	items[1].SortOrder = 2
	assertIDs(t, "reordered", Build(items, Options{}), "c", "a", "b")
}

func TestBuildOrderTiesKeepInputOrder(t *testing.T) {
	items := []store.MenuItem{
		item("first", order(5)),
		item("second", order(5)),
		item("zero", order(0)),
		item("third", order(5)),
	}

	assertIDs(t, "roots", Build(items, Options{}), "zero", "first", "second", "third")
}

func TestBuildOrderGapsTolerated(t *testing.T) {
	items := []store.MenuItem{
		item("late", order(100)),
		item("early", order(-3)),
		item("mid", order(7)),
	}

	assertIDs(t, "roots", Build(items, Options{}), "early", "mid", "late")
}

func TestBuildPublishedOnlyPrunesSubtree(t *testing.T) {
	items := []store.MenuItem{
		item("hidden", unpublished()),
		item("child", parent("hidden")),
		item("grandchild", parent("child")),
		item("visible"),
		item("draft", parent("visible"), unpublished()),
		item("kept", parent("visible")),
	}

	published := Build(items, Options{PublishedOnly: true})
	assertIDs(t, "published roots", published, "visible")
	assertIDs(t, "visible.children", published[0].Children, "kept")
	if Count(published) != 2 {
		t.Errorf("Count(published) = %d, want 2", Count(published))
	}

	all := Build(items, Options{})
	if Count(all) != len(items) {
		t.Errorf("Count(all) = %d, want %d", Count(all), len(items))
	}
	if all[0].IsPublished {
		t.Error("admin tree should expose isPublished=false")
	}
}

func TestBuildDepthCap(t *testing.T) {
	items := []store.MenuItem{
		item("l1"),
		item("l2", parent("l1")),
		item("l3", parent("l2")),
		item("l4", parent("l3")),
		item("l5", parent("l4")),
	}

	nodes := Build(items, Options{})
	l3 := nodes[0].Children[0].Children[0]
	if l3.ID != "l3" {
		t.Fatalf("third level = %q, want l3", l3.ID)
	}
	if len(l3.Children) != 0 {
		t.Errorf("l3.children = %v, want none beyond depth %d", ids(l3.Children), model.MaxDepth)
	}
	if Count(nodes) != model.MaxDepth {
		t.Errorf("Count() = %d, want %d", Count(nodes), model.MaxDepth)
	}

	deep := Build(items, Options{MaxDepth: 5})
	if Count(deep) != 5 {
		t.Errorf("Count(MaxDepth 5) = %d, want 5", Count(deep))
	}
}

func TestBuildDropsOrphans(t *testing.T) {
	items := []store.MenuItem{
		item("root"),
		item("orphan", parent("missing")),
	}

	assertIDs(t, "roots", Build(items, Options{}), "root")
}

func TestBuildIdempotent(t *testing.T) {
	items := []store.MenuItem{
		item("b", order(1)),
		item("a", order(0)),
		item("a1", parent("a"), order(3)),
		item("a0", parent("a"), order(3)),
	}
	items[1].Meta = sql.NullString{String: `{"badge":"new"}`, Valid: true}

	first, err := json.Marshal(Build(items, Options{PublishedOnly: true}))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := json.Marshal(Build(items, Options{PublishedOnly: true}))
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		if string(again) != string(first) {
			t.Fatalf("build %d differs:\n%s\n%s", i, again, first)
		}
	}
}

func TestBuildNodeFields(t *testing.T) {
	page := store.MenuItem{
		ID:          "p",
		Title:       "About",
		Slug:        "about",
		Type:        model.ItemTypePage,
		Reference:   sql.NullString{String: "about-us", Valid: true},
		Icon:        sql.NullString{String: "info", Valid: true},
		Target:      model.TargetBlank,
		CssClass:    sql.NullString{String: "nav-about", Valid: true},
		SortOrder:   4,
		IsPublished: true,
		Meta:        sql.NullString{String: `{"x":1}`, Valid: true},
	}

	nodes := Build([]store.MenuItem{page}, Options{})
	n := nodes[0]

	if n.Href == nil || *n.Href != "/about-us" {
		t.Errorf("Href = %v, want /about-us", n.Href)
	}
	if n.URL != nil {
		t.Errorf("URL = %q, want nil", *n.URL)
	}
	if n.Icon == nil || *n.Icon != "info" {
		t.Errorf("Icon = %v", n.Icon)
	}
	if n.CSSClass == nil || *n.CSSClass != "nav-about" {
		t.Errorf("CSSClass = %v", n.CSSClass)
	}
	if n.Target != model.TargetBlank || n.Order != 4 {
		t.Errorf("Target/Order = %q/%d", n.Target, n.Order)
	}
	if string(n.Meta) != `{"x":1}` {
		t.Errorf("Meta = %s", n.Meta)
	}
}
