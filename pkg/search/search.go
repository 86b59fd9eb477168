// Package search defines the outbound contract to a remote search index.
package search

import (
	"context"
	"errors"
	"fmt"
	"strconv"
)

// Sentinel errors returned (wrapped) by index adapters.
var (
	ErrNotFound           = errors.New("document not found in search index")
	ErrBackendUnavailable = errors.New("search backend unavailable")
	ErrIndexingFailed     = errors.New("failed to index document")
)

// ProviderType names a search backend.
type ProviderType string

const (
	ProviderTypeAlgolia     ProviderType = "algolia"
	ProviderTypeMeilisearch ProviderType = "meilisearch"
	ProviderTypeBleve       ProviderType = "bleve"
)

// Error is an error returned by a search operation.
type Error struct {
	Op  string
	Err error
	Msg string
}

func (e *Error) Error() string {
	if e.Err == nil {
		if e.Msg == "" {
			return e.Op + ": search operation failed"
		}
		return fmt.Sprintf("%s: %s", e.Op, e.Msg)
	}
	if e.Msg != "" {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Document is a search record. Every document carries an "id" field holding
// the content item id; the remaining fields are free-form.
type Document map[string]any

// IDField is the document key holding the record identity.
const IDField = "id"

// ID returns the document identity as a string, or "" if it is missing.
func (d Document) ID() string {
	switch v := d[IDField].(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatInt(int64(v), 10)
	}
	return ""
}

// Index is one named remote index.
type Index interface {
	// Name returns the remote index name.
	Name() string

	// Upsert creates or replaces a single document.
	Upsert(ctx context.Context, doc Document) error

	// UpsertMany creates or replaces documents, keyed by their id.
	UpsertMany(ctx context.Context, docs []Document) error

	// Delete removes a document by id.
	Delete(ctx context.Context, id string) error

	// DeleteMany removes documents by id. Missing ids are not an error.
	DeleteMany(ctx context.Context, ids []string) error

	// Clear removes every document in the index.
	Clear(ctx context.Context) error
}

// Provider hands out indexes of one backend.
type Provider interface {
	// Name returns the provider name.
	Name() string

	// Index returns a handle to the named index.
	Index(name string) (Index, error)

	// Healthy checks that the backend is reachable.
	Healthy(ctx context.Context) error
}

// IDs formats item ids as document identities.
func IDs(ids []int64) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = strconv.FormatInt(id, 10)
	}
	return out
}
