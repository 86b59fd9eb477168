package syncengine

import (
	"context"
	"fmt"
	"sort"

	"github.com/hashicorp-forge/contentsync/pkg/content"
)

// memSource is an in-memory content.Source.
type memSource struct {
	apps       []*content.Application
	items      map[int64]*content.Item
	categories map[int64]content.CategoryTree
	routes     []content.MenuRoute
	itemsErr   error
}

func (m *memSource) Applications(ctx context.Context) ([]*content.Application, error) {
	return m.apps, nil
}

func (m *memSource) Application(ctx context.Context, id int64) (*content.Application, error) {
	for _, app := range m.apps {
		if app.ID == id {
			return app, nil
		}
	}
	return nil, fmt.Errorf("application %d not found", id)
}

func (m *memSource) Item(ctx context.Context, id int64) (*content.Item, error) {
	item, ok := m.items[id]
	if !ok {
		return nil, fmt.Errorf("item %d not found", id)
	}
	return item, nil
}

func (m *memSource) ItemsByIDs(ctx context.Context, ids []int64) ([]*content.Item, error) {
	var out []*content.Item
	for _, id := range ids {
		if item, ok := m.items[id]; ok {
			out = append(out, item)
		}
	}
	return out, nil
}

func (m *memSource) ItemsByType(ctx context.Context, applicationID int64, typeID string) ([]*content.Item, error) {
	if m.itemsErr != nil {
		return nil, m.itemsErr
	}
	var out []*content.Item
	for _, item := range m.items {
		if item.ApplicationID == applicationID && item.TypeID == typeID {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memSource) CategoryTree(ctx context.Context, applicationID int64) (content.CategoryTree, error) {
	return m.categories[applicationID], nil
}

func (m *memSource) MenuRoutes(ctx context.Context) ([]content.MenuRoute, error) {
	return m.routes, nil
}

func newItem(id int64, state content.PublishedState, appID int64, typeID string) *content.Item {
	return &content.Item{
		ID:            id,
		Name:          fmt.Sprintf("Item %d", id),
		State:         state,
		ApplicationID: appID,
		TypeID:        typeID,
		Elements:      []content.Element{content.NewItemName("name")},
	}
}

// testSource has two applications: "blog" (article, page) and "shop"
// (product). Only article and product are searchable.
func testSource() *memSource {
	items := map[int64]*content.Item{}
	for _, item := range []*content.Item{
		newItem(1, content.Published, 1, "article"),
		newItem(2, content.Unpublished, 1, "article"),
		newItem(3, content.Published, 1, "article"),
		newItem(4, content.Published, 1, "page"),
		newItem(5, content.Published, 2, "product"),
		newItem(6, content.Trashed, 2, "product"),
	} {
		items[item.ID] = item
	}

	return &memSource{
		apps: []*content.Application{
			{ID: 1, Name: "Blog", Group: "blog", Types: []content.Type{{Identifier: "article"}, {Identifier: "page"}}},
			{ID: 2, Name: "Shop", Group: "catalog", Types: []content.Type{{Identifier: "product"}}},
		},
		items: items,
		categories: map[int64]content.CategoryTree{
			1: {10: {ID: 10, ApplicationID: 1, Name: "News"}},
		},
		routes: []content.MenuRoute{
			{ID: 100, View: content.ViewFrontpage, TargetID: 1, Locale: "*"},
		},
	}
}

func testTypes() map[string]map[string]TypeConfig {
	return map[string]map[string]TypeConfig{
		"blog": {
			"article": {Index: "articles", Elements: []content.ElementConfig{{Element: "name", Alias: "title"}}},
			"page":    {Elements: []content.ElementConfig{{Element: "name"}}},
		},
		"catalog": {
			"product": {Index: "products", Elements: []content.ElementConfig{{Element: "name"}}},
		},
	}
}

var testLocales = []content.Locale{{Code: "en-GB", Short: "en"}}
