// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package tree turns the flat item rows of one menu into the nested node
// tree stored in the menu items cache.
package tree

import (
	"sort"

	"github.com/olegiv/ocms-nav/internal/model"
	"github.com/olegiv/ocms-nav/internal/store"
	"github.com/olegiv/ocms-nav/internal/util"
)

// Options controls which items a build includes.
type Options struct {
	// PublishedOnly drops unpublished items together with their whole subtree.
	PublishedOnly bool
	// MaxDepth limits the number of levels. Zero means model.MaxDepth.
	MaxDepth int
}

// Build returns the ordered node tree for items, which must all belong to
// one menu. Siblings are ordered by their order value; items with equal
// order keep their relative input order. Items whose parent is not part of
// items are unreachable and left out.
//
// Build has no side effects: the same input always yields the same tree.
func Build(items []store.MenuItem, opts Options) []model.MenuNode {
	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = model.MaxDepth
	}

	byID := make(map[string]int, len(items))
	for i := range items {
		byID[items[i].ID] = i
	}

	// parent id -> child indexes, "" for roots
	children := make(map[string][]int, len(items))
	for i := range items {
		parent := ""
		if items[i].ParentID.Valid {
			parent = items[i].ParentID.String
			if _, ok := byID[parent]; !ok {
				continue
			}
		}
		children[parent] = append(children[parent], i)
	}

	for _, group := range children {
		sort.SliceStable(group, func(a, b int) bool {
			return items[group[a]].SortOrder < items[group[b]].SortOrder
		})
	}

	var build func(parent string, depth int) []model.MenuNode
	build = func(parent string, depth int) []model.MenuNode {
		nodes := make([]model.MenuNode, 0, len(children[parent]))
		if depth > maxDepth {
			return nodes
		}
		for _, idx := range children[parent] {
			item := items[idx]
			if opts.PublishedOnly && !item.IsPublished {
				continue
			}
			node := toNode(item)
			node.Children = build(item.ID, depth+1)
			nodes = append(nodes, node)
		}
		return nodes
	}

	return build("", 1)
}

func toNode(item store.MenuItem) model.MenuNode {
	reference := util.PtrFromNullString(item.Reference)
	url := util.PtrFromNullString(item.Url)

	return model.MenuNode{
		ID:          item.ID,
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
	}
}

// Count returns the number of nodes in a tree.
func Count(nodes []model.MenuNode) int {
	n := len(nodes)
	for _, node := range nodes {
		n += Count(node.Children)
	}
	return n
}
