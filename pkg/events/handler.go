package events

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/hashicorp-forge/contentsync/pkg/content"
	"github.com/hashicorp-forge/contentsync/pkg/syncengine"
)

// Handler applies one event to the search index.
type Handler interface {
	Handle(ctx context.Context, e Event) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, e Event) error

func (f HandlerFunc) Handle(ctx context.Context, e Event) error {
	return f(ctx, e)
}

// SyncHandler syncs the item named by each event. Every event gets a fresh
// engine, so menu and category changes are picked up between events.
type SyncHandler struct {
	factory *syncengine.Factory
	source  content.Source
	log     hclog.Logger
}

// NewSyncHandler creates a SyncHandler.
func NewSyncHandler(factory *syncengine.Factory, source content.Source, log hclog.Logger) *SyncHandler {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &SyncHandler{factory: factory, source: source, log: log}
}

// Handle implements Handler.
func (h *SyncHandler) Handle(ctx context.Context, e Event) error {
	switch e.EventType {
	case ItemSaved:
		return h.saved(ctx, e)
	case ItemDeleted:
		return h.deleted(ctx, e)
	default:
		return fmt.Errorf("unknown event type %q", e.EventType)
	}
}

func (h *SyncHandler) saved(ctx context.Context, e Event) error {
	item, err := h.source.Item(ctx, e.ItemID)
	if err != nil {
		return fmt.Errorf("error loading item %d: %w", e.ItemID, err)
	}

	engine, err := h.factory.ForItem(ctx, item)
	if err != nil {
		return err
	}
	if !engine.IsConfigured() {
		h.log.Debug("item type is not searchable", "item_id", item.ID, "type", item.TypeID)
		return nil
	}

	indexed, err := engine.SyncOne(ctx, item)
	if err != nil {
		return err
	}
	h.log.Info("synced item", "item_id", item.ID, "index", engine.Index(), "indexed", indexed)
	return nil
}

func (h *SyncHandler) deleted(ctx context.Context, e Event) error {
	engine, err := h.factory.ForApplicationType(ctx, e.ApplicationID, e.TypeID)
	if err != nil {
		return err
	}
	if !engine.IsConfigured() {
		return nil
	}

	if err := engine.DeleteBatch(ctx, []int64{e.ItemID}); err != nil {
		return err
	}
	h.log.Info("removed item", "item_id", e.ItemID, "index", engine.Index())
	return nil
}
