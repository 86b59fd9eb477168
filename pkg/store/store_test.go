package store

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hashicorp-forge/contentsync/pkg/content"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := Open(Config{Driver: DriverSQLite, DSN: ":memory:"}, nil)
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return New(db, nil)
}

func newFixtureStore(t *testing.T) *Store {
	t.Helper()

	s := newTestStore(t)
	f, err := os.Open("testdata/content.yaml")
	require.NoError(t, err)
	defer f.Close()

	res, err := ImportFixtures(context.Background(), s.DB(), f)
	require.NoError(t, err)
	assert.Equal(t, &ImportResult{Applications: 1, Categories: 3, Items: 2, MenuRoutes: 2}, res)
	return s
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(Config{Driver: "mysql"}, nil)
	assert.ErrorContains(t, err, "unsupported database driver")

	_, err = Open(Config{Driver: DriverSQLite}, nil)
	assert.ErrorContains(t, err, "requires a dsn")
}

func TestStore_Applications(t *testing.T) {
	s := newFixtureStore(t)
	ctx := context.Background()

	apps, err := s.Applications(ctx)
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, &content.Application{
		ID:    1,
		Name:  "Blog",
		Group: "blog",
		Types: []content.Type{
			{Identifier: "article", Name: "Article"},
			{Identifier: "page", Name: "Page"},
		},
	}, apps[0])

	app, err := s.Application(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, apps[0], app)

	_, err = s.Application(ctx, 9)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_Item(t *testing.T) {
	s := newFixtureStore(t)
	ctx := context.Background()

	item, err := s.Item(ctx, 1)
	require.NoError(t, err)

	assert.Equal(t, "Hello world", item.Name)
	assert.Equal(t, content.Published, item.State)
	assert.Equal(t, "article", item.TypeID)
	assert.Equal(t, int64(12), item.PrimaryCategoryID)
	assert.Equal(t, []int64{10, 12}, item.RelatedCategoryIDs)
	assert.Equal(t, []string{"go", "search"}, item.Tags)

	require.Len(t, item.Elements, 6)
	assert.Equal(t, content.NewItemName("name"), item.Elements[0])
	assert.Equal(t, content.NewText("body", false, "<p>Hello <b>world</b></p>"), item.Elements[1])
	assert.Equal(t, content.NewFile("cover", true, false, "images/hello.jpg"), item.Elements[2])
	assert.Equal(t, content.NewRelatedItems("related", 2), item.Elements[3])
	assert.Equal(t, content.NewOptionSet("colour", []content.Option{{Name: "Red", Value: "red"}}, "red"), item.Elements[4])

	raw, ok := item.Elements[5].(*content.Raw)
	require.True(t, ok)
	assert.Equal(t, content.ElementKind("rating"), raw.Kind)
	assert.EqualValues(t, 4, raw.Value)

	_, err = s.Item(ctx, 404)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_ItemQueries(t *testing.T) {
	s := newFixtureStore(t)
	ctx := context.Background()

	items, err := s.ItemsByType(ctx, 1, "article")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, int64(1), items[0].ID)
	assert.Equal(t, content.Unpublished, items[1].State)
	assert.Empty(t, items[1].Elements)

	items, err = s.ItemsByType(ctx, 1, "page")
	require.NoError(t, err)
	assert.Empty(t, items)

	items, err = s.ItemsByIDs(ctx, []int64{2, 404})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int64(2), items[0].ID)

	items, err = s.ItemsByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestStore_CategoryTree(t *testing.T) {
	s := newFixtureStore(t)

	tree, err := s.CategoryTree(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, tree, 3)

	assert.Empty(t, tree[10].Pathway)
	assert.Equal(t, []int64{10}, tree[11].Pathway)
	assert.Equal(t, []int64{10, 11}, tree[12].Pathway)

	assert.Equal(t, "Notizie", tree[10].LocalizedName("it-IT"))
	assert.Equal(t, "News", tree[10].LocalizedName("en-GB"))
	assert.Equal(t, "images/news.jpg", tree[10].TeaserImage)
	assert.Nil(t, tree[11].Names)

	empty, err := s.CategoryTree(context.Background(), 2)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestPathway_BrokenChains(t *testing.T) {
	tree := content.CategoryTree{
		1: {ID: 1, ParentID: 2},
		2: {ID: 2, ParentID: 1},
		3: {ID: 3, ParentID: 99},
	}

	path, complete := pathway(tree, tree[1])
	assert.False(t, complete)
	assert.Equal(t, []int64{2}, path)

	path, complete = pathway(tree, tree[3])
	assert.False(t, complete)
	assert.Empty(t, path)
}

func TestStore_MenuRoutes(t *testing.T) {
	s := newFixtureStore(t)

	routes, err := s.MenuRoutes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []content.MenuRoute{
		{
			ID:       100,
			View:     content.ViewFrontpage,
			TargetID: 1,
			Locale:   content.WildcardLocale,
			Link:     "index.php?option=com_zoo&view=frontpage&layout=frontpage",
			Path:     "blog",
		},
		{
			ID:       101,
			View:     content.ViewCategory,
			Layout:   "",
			TargetID: 10,
			Locale:   "en-GB",
			Link:     "index.php?option=com_zoo&view=category&layout=category&category_id=10",
			Path:     "blog/news",
		},
	}, routes)
}

func TestImportFixtures_Reimport(t *testing.T) {
	s := newFixtureStore(t)
	ctx := context.Background()

	update := `
items:
  - id: 1
    application_id: 1
    type: article
    name: Hello again
    state: archived
    categories: [11]
`
	res, err := ImportFixtures(ctx, s.DB(), strings.NewReader(update))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Items)

	item, err := s.Item(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Hello again", item.Name)
	assert.Equal(t, content.Archived, item.State)
	assert.Equal(t, []int64{11}, item.RelatedCategoryIDs)
	assert.Empty(t, item.Tags)
	assert.Empty(t, item.Elements)
}

func TestImportFixtures_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{
			name:    "unknown field",
			input:   "widgets: []\n",
			wantErr: "error parsing fixtures",
		},
		{
			name:    "application without group",
			input:   "applications:\n  - id: 3\n    name: Shop\n",
			wantErr: "needs an id and a group",
		},
		{
			name:    "unknown state",
			input:   "items:\n  - id: 5\n    state: deleted\n",
			wantErr: "unknown state",
		},
		{
			name:    "element without key",
			input:   "items:\n  - id: 5\n    elements:\n      - kind: text\n",
			wantErr: "has no key",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)
			_, err := ImportFixtures(context.Background(), s.DB(), strings.NewReader(tt.input))
			assert.ErrorContains(t, err, tt.wantErr)

			apps, err := s.Applications(context.Background())
			require.NoError(t, err)
			assert.Empty(t, apps)
		})
	}
}
