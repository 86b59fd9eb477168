package bleve

import (
	"context"
	"errors"
	"testing"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	contentsearch "github.com/hashicorp-forge/contentsync/pkg/search"
)

func TestNewAdapter_RequiresPath(t *testing.T) {
	_, err := NewAdapter(&Config{})
	assert.Error(t, err)
}

func TestIndex_Lifecycle(t *testing.T) {
	ctx := context.Background()

	adapter, err := NewAdapter(&Config{IndexPath: t.TempDir()})
	require.NoError(t, err)
	defer adapter.Close()

	var _ contentsearch.Provider = adapter

	handle, err := adapter.Index("articles")
	require.NoError(t, err)
	idx := handle.(*index)

	again, err := adapter.Index("articles")
	require.NoError(t, err)
	assert.Same(t, idx, again.(*index), "indexes are opened once per name")

	err = idx.UpsertMany(ctx, []contentsearch.Document{
		{"id": int64(1), "name": "First", "url": map[string]any{"en-GB": "/en/first"}},
		{"id": int64(2), "name": "Second"},
		{"id": int64(3), "name": "Third", "category_ids": []int64{4, 5}},
	})
	require.NoError(t, err)

	n, err := idx.count()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), n)

	require.NoError(t, idx.DeleteMany(ctx, []string{"2", "99"}))
	n, err = idx.count()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), n)

	require.NoError(t, idx.Upsert(ctx, contentsearch.Document{"id": int64(1), "name": "First again"}))
	n, err = idx.count()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), n)

	require.NoError(t, idx.Clear(ctx))
	n, err = idx.count()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), n)

	require.NoError(t, adapter.Healthy(ctx))
}

func TestIndex_RejectsDocumentWithoutID(t *testing.T) {
	adapter, err := NewAdapter(&Config{IndexPath: t.TempDir()})
	require.NoError(t, err)
	defer adapter.Close()

	idx, err := adapter.Index("articles")
	require.NoError(t, err)

	err = idx.UpsertMany(context.Background(), []contentsearch.Document{{"name": "orphan"}})
	assert.ErrorIs(t, err, contentsearch.ErrIndexingFailed)
}

func TestIndex_RecoversFromFailedClear(t *testing.T) {
	ctx := context.Background()

	adapter, err := NewAdapter(&Config{IndexPath: t.TempDir()})
	require.NoError(t, err)
	defer adapter.Close()

	handle, err := adapter.Index("articles")
	require.NoError(t, err)
	idx := handle.(*index)
	require.NoError(t, idx.Upsert(ctx, contentsearch.Document{"id": int64(1), "name": "First"}))

	idx.create = func(string, mapping.IndexMapping) (bleve.Index, error) {
		return nil, errors.New("disk full")
	}
	assert.ErrorContains(t, idx.Clear(ctx), "disk full")

	err = idx.Upsert(ctx, contentsearch.Document{"id": int64(2), "name": "Second"})
	assert.ErrorIs(t, err, contentsearch.ErrBackendUnavailable)

	idx.create = bleve.New
	require.NoError(t, idx.Upsert(ctx, contentsearch.Document{"id": int64(2), "name": "Second"}))

	n, err := idx.count()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), n)
	require.NoError(t, adapter.Healthy(ctx))
}
