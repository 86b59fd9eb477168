// Package syncengine keeps remote search indexes consistent with the content
// store.
package syncengine

import (
	"context"
	"strconv"

	"github.com/hashicorp/go-hclog"

	"github.com/hashicorp-forge/contentsync/pkg/content"
	"github.com/hashicorp-forge/contentsync/pkg/search"
)

// Transformer builds the search document of an item, or nil when the item
// must be removed from the index.
type Transformer interface {
	Transform(ctx context.Context, item *content.Item) (search.Document, error)
}

// Engine syncs the items of one content type into one index. An engine
// without an index is unconfigured: every operation returns without
// contacting the search backend.
type Engine struct {
	index       search.Index
	transformer Transformer
	log         hclog.Logger
}

// NewEngine creates an Engine. A nil index yields an unconfigured engine.
func NewEngine(index search.Index, transformer Transformer, log hclog.Logger) *Engine {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	if index != nil {
		log = log.With("index", index.Name())
	}
	return &Engine{
		index:       index,
		transformer: transformer,
		log:         log,
	}
}

// IsConfigured reports whether the engine has an index to write to.
func (e *Engine) IsConfigured() bool {
	return e.index != nil && e.index.Name() != "" && e.transformer != nil
}

// Index returns the name of the engine's index, or "" if unconfigured.
func (e *Engine) Index() string {
	if e.index == nil {
		return ""
	}
	return e.index.Name()
}

// SyncOne upserts the document of item, or deletes the item from the index
// when it has no document. It reports whether the index accepted the call.
func (e *Engine) SyncOne(ctx context.Context, item *content.Item) (bool, error) {
	if !e.IsConfigured() {
		return false, nil
	}

	doc, err := e.transformer.Transform(ctx, item)
	if err != nil {
		return false, err
	}

	id := strconv.FormatInt(item.ID, 10)
	if doc == nil {
		if err := e.index.Delete(ctx, id); err != nil {
			return false, err
		}
		e.log.Debug("deleted item", "item_id", item.ID)
		return true, nil
	}

	if err := e.index.Upsert(ctx, doc); err != nil {
		return false, err
	}
	e.log.Debug("indexed item", "item_id", item.ID)
	return true, nil
}

// SyncBatch partitions items into documents and deletions and writes them
// with at most one delete call and one upsert call, each in input order.
func (e *Engine) SyncBatch(ctx context.Context, items []*content.Item) error {
	if !e.IsConfigured() || len(items) == 0 {
		return nil
	}

	var (
		docs    []search.Document
		deletes []int64
	)
	for _, item := range items {
		doc, err := e.transformer.Transform(ctx, item)
		if err != nil {
			return err
		}
		if doc == nil {
			deletes = append(deletes, item.ID)
			continue
		}
		docs = append(docs, doc)
	}

	if len(deletes) > 0 {
		if err := e.index.DeleteMany(ctx, search.IDs(deletes)); err != nil {
			return err
		}
	}
	if len(docs) > 0 {
		if err := e.index.UpsertMany(ctx, docs); err != nil {
			return err
		}
	}

	e.log.Debug("synced batch", "indexed", len(docs), "deleted", len(deletes))
	return nil
}

// DeleteBatch removes items from the index by id.
func (e *Engine) DeleteBatch(ctx context.Context, ids []int64) error {
	if !e.IsConfigured() || len(ids) == 0 {
		return nil
	}

	if err := e.index.DeleteMany(ctx, search.IDs(ids)); err != nil {
		return err
	}
	e.log.Debug("deleted items", "count", len(ids))
	return nil
}

// ClearAll removes every document from the index.
func (e *Engine) ClearAll(ctx context.Context) error {
	if !e.IsConfigured() {
		return nil
	}

	if err := e.index.Clear(ctx); err != nil {
		return err
	}
	e.log.Info("cleared index")
	return nil
}
