// Package events carries item change notifications from the CMS to the sync
// engine over Redpanda.
package events

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/hashicorp-forge/contentsync/pkg/content"
)

const (
	// ItemSaved is emitted after an item was created or updated.
	ItemSaved = "item.saved"

	// ItemDeleted is emitted after an item was removed.
	ItemDeleted = "item.deleted"
)

// DefaultTopic is the topic item events are published to.
const DefaultTopic = "contentsync.item-events"

// Event is an item change notification.
type Event struct {
	EventType     string    `json:"event_type"`
	ItemID        int64     `json:"item_id"`
	ApplicationID int64     `json:"application_id"`
	TypeID        string    `json:"type_id"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Saved returns an item.saved event for item.
func Saved(item *content.Item) Event {
	return Event{
		EventType:     ItemSaved,
		ItemID:        item.ID,
		ApplicationID: item.ApplicationID,
		TypeID:        item.TypeID,
		OccurredAt:    time.Now().UTC(),
	}
}

// Deleted returns an item.deleted event. The item no longer exists, so its
// application and type are passed explicitly.
func Deleted(itemID, applicationID int64, typeID string) Event {
	return Event{
		EventType:     ItemDeleted,
		ItemID:        itemID,
		ApplicationID: applicationID,
		TypeID:        typeID,
		OccurredAt:    time.Now().UTC(),
	}
}

// Validate checks the fields required to handle the event.
func (e Event) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.EventType, validation.Required, validation.In(ItemSaved, ItemDeleted)),
		validation.Field(&e.ItemID, validation.Required, validation.Min(int64(1))),
		validation.Field(&e.ApplicationID,
			validation.When(e.EventType == ItemDeleted, validation.Required)),
		validation.Field(&e.TypeID,
			validation.When(e.EventType == ItemDeleted, validation.Required)),
	)
}

// Key returns the record key. Events of one item share a partition.
func (e Event) Key() []byte {
	return []byte(strconv.FormatInt(e.ItemID, 10))
}

// Decode parses and validates an encoded event.
func Decode(b []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(b, &e); err != nil {
		return e, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	if err := e.Validate(); err != nil {
		return e, fmt.Errorf("invalid event: %w", err)
	}
	return e, nil
}
