package syncengine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hashicorp-forge/contentsync/pkg/content"
	"github.com/hashicorp-forge/contentsync/pkg/search"
	"github.com/hashicorp-forge/contentsync/pkg/search/adapters/mock"
)

type transformerFunc func(ctx context.Context, item *content.Item) (search.Document, error)

func (f transformerFunc) Transform(ctx context.Context, item *content.Item) (search.Document, error) {
	return f(ctx, item)
}

// publishedOnly maps published items to a document holding their id.
var publishedOnly = transformerFunc(func(ctx context.Context, item *content.Item) (search.Document, error) {
	if !item.IsPublished() {
		return nil, nil
	}
	return search.Document{"id": item.ID, "name": item.Name}, nil
})

func newMockEngine(t *testing.T, provider *mock.Adapter, tr Transformer) *Engine {
	t.Helper()
	idx, err := provider.Index("articles")
	require.NoError(t, err)
	return NewEngine(idx, tr, nil)
}

func TestEngine_Unconfigured(t *testing.T) {
	ctx := context.Background()
	engine := NewEngine(nil, publishedOnly, nil)

	assert.False(t, engine.IsConfigured())
	assert.Equal(t, "", engine.Index())

	ok, err := engine.SyncOne(ctx, newItem(1, content.Published, 1, "article"))
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, engine.SyncBatch(ctx, []*content.Item{newItem(1, content.Published, 1, "article")}))
	assert.NoError(t, engine.DeleteBatch(ctx, []int64{1}))
	assert.NoError(t, engine.ClearAll(ctx))

	provider := mock.NewAdapter()
	idx, err := provider.Index("articles")
	require.NoError(t, err)
	assert.False(t, NewEngine(idx, nil, nil).IsConfigured(), "engine without transformer")

	assert.Empty(t, provider.Calls())
}

func TestEngine_SyncOne(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		state content.PublishedState
		want  mock.Call
	}{
		{name: "published upserts", state: content.Published, want: mock.Call{Op: "Upsert", Index: "articles", IDs: []string{"7"}}},
		{name: "unpublished deletes", state: content.Unpublished, want: mock.Call{Op: "Delete", Index: "articles", IDs: []string{"7"}}},
		{name: "archived deletes", state: content.Archived, want: mock.Call{Op: "Delete", Index: "articles", IDs: []string{"7"}}},
		{name: "trashed deletes", state: content.Trashed, want: mock.Call{Op: "Delete", Index: "articles", IDs: []string{"7"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := mock.NewAdapter()
			engine := newMockEngine(t, provider, publishedOnly)

			ok, err := engine.SyncOne(ctx, newItem(7, tt.state, 1, "article"))
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, []mock.Call{tt.want}, provider.Calls())
		})
	}
}

func TestEngine_SyncOneRemoteFailure(t *testing.T) {
	provider := mock.NewAdapter().WithFailure("Upsert", errors.New("rate limited"))
	engine := newMockEngine(t, provider, publishedOnly)

	ok, err := engine.SyncOne(context.Background(), newItem(1, content.Published, 1, "article"))
	assert.False(t, ok)
	assert.ErrorIs(t, err, search.ErrIndexingFailed)
}

func TestEngine_TransformFailure(t *testing.T) {
	provider := mock.NewAdapter()
	boom := errors.New("store unavailable")
	engine := newMockEngine(t, provider, transformerFunc(func(context.Context, *content.Item) (search.Document, error) {
		return nil, boom
	}))
	ctx := context.Background()

	ok, err := engine.SyncOne(ctx, newItem(1, content.Published, 1, "article"))
	assert.False(t, ok)
	assert.ErrorIs(t, err, boom)

	err = engine.SyncBatch(ctx, []*content.Item{newItem(1, content.Published, 1, "article")})
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, provider.Calls())
}

func TestEngine_SyncBatch(t *testing.T) {
	provider := mock.NewAdapter()
	engine := newMockEngine(t, provider, publishedOnly)

	items := []*content.Item{
		newItem(1, content.Unpublished, 1, "article"),
		newItem(2, content.Published, 1, "article"),
		newItem(3, content.Trashed, 1, "article"),
		newItem(4, content.Published, 1, "article"),
		newItem(5, content.Archived, 1, "article"),
		newItem(6, content.Published, 1, "article"),
	}

	require.NoError(t, engine.SyncBatch(context.Background(), items))

	assert.Equal(t, []mock.Call{
		{Op: "DeleteMany", Index: "articles", IDs: []string{"1", "3", "5"}},
		{Op: "UpsertMany", Index: "articles", IDs: []string{"2", "4", "6"}},
	}, provider.Calls())
}

func TestEngine_SyncBatchSingleKind(t *testing.T) {
	ctx := context.Background()

	provider := mock.NewAdapter()
	engine := newMockEngine(t, provider, publishedOnly)
	require.NoError(t, engine.SyncBatch(ctx, []*content.Item{newItem(1, content.Published, 1, "article")}))
	require.NoError(t, engine.SyncBatch(ctx, nil))
	assert.Equal(t, []mock.Call{{Op: "UpsertMany", Index: "articles", IDs: []string{"1"}}}, provider.Calls())
}

func TestEngine_DeleteBatchAndClear(t *testing.T) {
	ctx := context.Background()
	provider := mock.NewAdapter()
	engine := newMockEngine(t, provider, publishedOnly)

	require.NoError(t, engine.DeleteBatch(ctx, []int64{3, 4}))
	require.NoError(t, engine.DeleteBatch(ctx, nil))
	require.NoError(t, engine.ClearAll(ctx))

	assert.Equal(t, []mock.Call{
		{Op: "DeleteMany", Index: "articles", IDs: []string{"3", "4"}},
		{Op: "Clear", Index: "articles"},
	}, provider.Calls())
}

func TestEngine_ClearThenBatchRoundTrip(t *testing.T) {
	ctx := context.Background()
	source := testSource()
	provider := mock.NewAdapter()

	factory, err := NewFactory(ctx, FactoryConfig{
		Source:   source,
		Provider: provider,
		Types:    testTypes(),
		Locales:  testLocales,
	})
	require.NoError(t, err)

	engine, err := factory.ForType(source.apps[0], "article")
	require.NoError(t, err)
	require.True(t, engine.IsConfigured())

	// Stale document left from an earlier sync.
	stale := provider.Get("articles")
	require.NoError(t, stale.Upsert(ctx, search.Document{"id": int64(99)}))

	items, err := source.ItemsByType(ctx, 1, "article")
	require.NoError(t, err)

	require.NoError(t, engine.ClearAll(ctx))
	require.NoError(t, engine.SyncBatch(ctx, items))

	assert.Equal(t, []string{"1", "3"}, stale.IDs())

	// The stored documents are the transformer output.
	verify, err := factory.ForType(source.apps[0], "article")
	require.NoError(t, err)
	for _, item := range []*content.Item{source.items[1], source.items[3]} {
		want, err := verify.transformer.Transform(ctx, item)
		require.NoError(t, err)

		got, err := stale.Document(want.ID())
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	doc, err := stale.Document("1")
	require.NoError(t, err)
	assert.Equal(t, "Item 1", doc["title"])
	assert.Equal(t, map[string]any{
		"en-GB": map[string]string{"default": "/index.php?option=com_zoo&task=item&item_id=1&lang=en&Itemid=100"},
	}, doc["url"])
}
