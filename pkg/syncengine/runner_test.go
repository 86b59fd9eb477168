package syncengine

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hashicorp-forge/contentsync/pkg/content"
	"github.com/hashicorp-forge/contentsync/pkg/search/adapters/mock"
)

type recordingProgress struct {
	events []string
}

func (p *recordingProgress) Start(target Target, total int) {
	p.events = append(p.events, fmt.Sprintf("start %s/%s %d", target.Application.Name, target.Type.Identifier, total))
}

func (p *recordingProgress) Step(target Target, item *content.Item, err error) {
	p.events = append(p.events, fmt.Sprintf("step %d %v", item.ID, err != nil))
}

func (p *recordingProgress) Done(target Target) {
	p.events = append(p.events, "done "+target.Index)
}

func newTestRunner(t *testing.T, source *memSource, provider *mock.Adapter, clear bool, progress Progress) *Runner {
	t.Helper()

	factory, err := NewFactory(context.Background(), FactoryConfig{
		Source:   source,
		Provider: provider,
		Types:    testTypes(),
		Locales:  testLocales,
	})
	require.NoError(t, err)

	return NewRunner(RunnerConfig{
		Factory:  factory,
		Source:   source,
		Clear:    clear,
		Progress: progress,
	})
}

func TestRunner_Run(t *testing.T) {
	tests := []struct {
		name        string
		filter      Filter
		wantCalls   []mock.Call
		wantSynced  int
		wantTargets int
		wantSkipped int
	}{
		{
			name:   "everything",
			filter: Filter{},
			wantCalls: []mock.Call{
				{Op: "Upsert", Index: "articles", IDs: []string{"1"}},
				{Op: "Delete", Index: "articles", IDs: []string{"2"}},
				{Op: "Upsert", Index: "articles", IDs: []string{"3"}},
				{Op: "Upsert", Index: "products", IDs: []string{"5"}},
				{Op: "Delete", Index: "products", IDs: []string{"6"}},
			},
			wantSynced:  5,
			wantTargets: 2,
			wantSkipped: 1,
		},
		{
			name:   "by application",
			filter: Filter{AppID: 2},
			wantCalls: []mock.Call{
				{Op: "Upsert", Index: "products", IDs: []string{"5"}},
				{Op: "Delete", Index: "products", IDs: []string{"6"}},
			},
			wantSynced:  2,
			wantTargets: 1,
		},
		{
			name:   "by type",
			filter: Filter{TypeID: "article"},
			wantCalls: []mock.Call{
				{Op: "Upsert", Index: "articles", IDs: []string{"1"}},
				{Op: "Delete", Index: "articles", IDs: []string{"2"}},
				{Op: "Upsert", Index: "articles", IDs: []string{"3"}},
			},
			wantSynced:  3,
			wantTargets: 1,
		},
		{
			name:   "by ids",
			filter: Filter{IDs: []int64{3, 4, 6, 404}},
			wantCalls: []mock.Call{
				{Op: "Upsert", Index: "articles", IDs: []string{"3"}},
				{Op: "Delete", Index: "products", IDs: []string{"6"}},
			},
			wantSynced:  2,
			wantTargets: 2,
			wantSkipped: 1,
		},
		{
			name:        "unconfigured type only",
			filter:      Filter{TypeID: "page"},
			wantSkipped: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := mock.NewAdapter()
			runner := newTestRunner(t, testSource(), provider, false, nil)

			res, err := runner.Run(context.Background(), tt.filter)
			require.NoError(t, err)

			if tt.wantCalls == nil {
				assert.Empty(t, provider.Calls())
			} else {
				assert.Equal(t, tt.wantCalls, provider.Calls())
			}
			assert.Equal(t, tt.wantSynced, res.Synced)
			assert.Equal(t, tt.wantTargets, res.Targets)
			assert.Equal(t, tt.wantSkipped, res.Skipped)
			assert.Zero(t, res.Failed)
			assert.NotEmpty(t, res.RunID)
		})
	}
}

func TestRunner_ContinuesAfterItemFailure(t *testing.T) {
	provider := mock.NewAdapter().WithFailure("Upsert", errors.New("quota exceeded"))
	progress := &recordingProgress{}
	runner := newTestRunner(t, testSource(), provider, false, progress)

	res, err := runner.Run(context.Background(), Filter{AppID: 1})
	require.Error(t, err)

	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	assert.Len(t, merr.Errors, 2)
	assert.Contains(t, err.Error(), "item 1")
	assert.Contains(t, err.Error(), "item 3")

	assert.Equal(t, 2, res.Failed)
	assert.Equal(t, 1, res.Synced)
	assert.Equal(t, []mock.Call{{Op: "Delete", Index: "articles", IDs: []string{"2"}}}, provider.Calls())
	assert.Equal(t, []string{
		"start Blog/article 3",
		"step 1 true",
		"step 2 false",
		"step 3 true",
		"done articles",
	}, progress.events)
}

func TestRunner_Clear(t *testing.T) {
	provider := mock.NewAdapter()
	runner := newTestRunner(t, testSource(), provider, true, nil)

	_, err := runner.Run(context.Background(), Filter{AppID: 2})
	require.NoError(t, err)

	calls := provider.Calls()
	require.NotEmpty(t, calls)
	assert.Equal(t, mock.Call{Op: "Clear", Index: "products"}, calls[0])
	assert.Equal(t, []string{"5"}, provider.Get("products").IDs())
}

func TestRunner_ClearSharedIndex(t *testing.T) {
	source := testSource()
	types := testTypes()
	types["blog"]["page"] = TypeConfig{Index: "articles", Elements: []content.ElementConfig{{Element: "name"}}}

	provider := mock.NewAdapter()
	factory, err := NewFactory(context.Background(), FactoryConfig{
		Source:   source,
		Provider: provider,
		Types:    types,
		Locales:  testLocales,
	})
	require.NoError(t, err)
	runner := NewRunner(RunnerConfig{Factory: factory, Source: source, Clear: true})

	res, err := runner.Run(context.Background(), Filter{AppID: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Targets)

	assert.Equal(t, []mock.Call{
		{Op: "Clear", Index: "articles"},
		{Op: "Upsert", Index: "articles", IDs: []string{"1"}},
		{Op: "Delete", Index: "articles", IDs: []string{"2"}},
		{Op: "Upsert", Index: "articles", IDs: []string{"3"}},
		{Op: "Upsert", Index: "articles", IDs: []string{"4"}},
	}, provider.Calls())
	assert.Equal(t, []string{"1", "3", "4"}, provider.Get("articles").IDs())
}

func TestRunner_ClearFailureSkipsIndex(t *testing.T) {
	provider := mock.NewAdapter().WithFailure("Clear", errors.New("forbidden"))
	runner := newTestRunner(t, testSource(), provider, true, nil)

	res, err := runner.Run(context.Background(), Filter{AppID: 2})
	assert.ErrorContains(t, err, `error clearing index "products"`)
	assert.Zero(t, res.Synced)
	assert.Empty(t, provider.Get("products").IDs())
}

func TestRunner_LoadErrors(t *testing.T) {
	t.Run("unknown application aborts", func(t *testing.T) {
		runner := newTestRunner(t, testSource(), mock.NewAdapter(), false, nil)
		_, err := runner.Run(context.Background(), Filter{AppID: 42})
		assert.Error(t, err)
	})

	t.Run("item loading is reported per type", func(t *testing.T) {
		source := testSource()
		source.itemsErr = errors.New("connection reset")
		runner := newTestRunner(t, source, mock.NewAdapter(), false, nil)

		res, err := runner.Run(context.Background(), Filter{})
		require.Error(t, err)

		var merr *multierror.Error
		require.ErrorAs(t, err, &merr)
		assert.Len(t, merr.Errors, 2)
		assert.Equal(t, 2, res.Targets)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		runner := newTestRunner(t, testSource(), mock.NewAdapter(), false, nil)
		_, err := runner.Run(ctx, Filter{})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestRunner_ClearIndexes(t *testing.T) {
	source := testSource()
	source.apps[0].Types = append(source.apps[0].Types, content.Type{Identifier: "news"})

	types := testTypes()
	types["blog"]["news"] = TypeConfig{Index: "articles", Elements: []content.ElementConfig{{Element: "name"}}}

	provider := mock.NewAdapter()
	factory, err := NewFactory(context.Background(), FactoryConfig{
		Source:   source,
		Provider: provider,
		Types:    types,
		Locales:  testLocales,
	})
	require.NoError(t, err)
	runner := NewRunner(RunnerConfig{Factory: factory, Source: source})

	cleared, err := runner.Clear(context.Background(), Filter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"articles", "products"}, cleared)
	assert.Equal(t, []mock.Call{
		{Op: "Clear", Index: "articles"},
		{Op: "Clear", Index: "products"},
	}, provider.Calls())

	provider = mock.NewAdapter().WithFailure("Clear", errors.New("forbidden"))
	factory, err = NewFactory(context.Background(), FactoryConfig{
		Source:   source,
		Provider: provider,
		Types:    types,
		Locales:  testLocales,
	})
	require.NoError(t, err)
	runner = NewRunner(RunnerConfig{Factory: factory, Source: source})

	cleared, err = runner.Clear(context.Background(), Filter{AppID: 2})
	assert.ErrorContains(t, err, `error clearing index "products"`)
	assert.Empty(t, cleared)
}
