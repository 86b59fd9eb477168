// Package mock provides an in-memory search provider that records every
// call, for tests and dry runs.
package mock

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/hashicorp-forge/contentsync/pkg/search"
)

// Call is one recorded index operation.
type Call struct {
	Op    string
	Index string
	IDs   []string
}

// Adapter is a mock search provider.
type Adapter struct {
	mu      sync.Mutex
	indexes map[string]*Index
	calls   []Call
	failOps map[string]error
}

// NewAdapter creates a new mock provider.
func NewAdapter() *Adapter {
	return &Adapter{
		indexes: make(map[string]*Index),
		failOps: make(map[string]error),
	}
}

// WithFailure makes every call of op (e.g. "UpsertMany") return err.
func (a *Adapter) WithFailure(op string, err error) *Adapter {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.failOps[op] = err
	return a
}

// Name returns the provider name.
func (a *Adapter) Name() string {
	return "mock"
}

// Healthy always succeeds.
func (a *Adapter) Healthy(ctx context.Context) error {
	return nil
}

// Index returns the named in-memory index, creating it on first use.
func (a *Adapter) Index(name string) (search.Index, error) {
	return a.Get(name), nil
}

// Get returns the concrete in-memory index for name.
func (a *Adapter) Get(name string) *Index {
	a.mu.Lock()
	defer a.mu.Unlock()

	idx, ok := a.indexes[name]
	if !ok {
		idx = &Index{name: name, adapter: a, docs: make(map[string]search.Document)}
		a.indexes[name] = idx
	}
	return idx
}

// Calls returns the operations recorded across all indexes, in order.
func (a *Adapter) Calls() []Call {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Call, len(a.calls))
	copy(out, a.calls)
	return out
}

func (a *Adapter) record(op, index string, ids []string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err, ok := a.failOps[op]; ok {
		return &search.Error{Op: op, Err: search.ErrIndexingFailed, Msg: err.Error()}
	}
	a.calls = append(a.calls, Call{Op: op, Index: index, IDs: ids})
	return nil
}

// Index is an in-memory search index.
type Index struct {
	name    string
	adapter *Adapter

	mu   sync.Mutex
	docs map[string]search.Document
}

func (i *Index) Name() string {
	return i.name
}

func (i *Index) Upsert(ctx context.Context, doc search.Document) error {
	return i.write("Upsert", []search.Document{doc})
}

func (i *Index) UpsertMany(ctx context.Context, docs []search.Document) error {
	return i.write("UpsertMany", docs)
}

func (i *Index) write(op string, docs []search.Document) error {
	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		id := doc.ID()
		if id == "" {
			return &search.Error{Op: op, Err: search.ErrIndexingFailed, Msg: "document without id"}
		}
		ids = append(ids, id)
	}
	if err := i.adapter.record(op, i.name, ids); err != nil {
		return err
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	for n, doc := range docs {
		i.docs[ids[n]] = doc
	}
	return nil
}

func (i *Index) Delete(ctx context.Context, id string) error {
	return i.remove("Delete", []string{id})
}

func (i *Index) DeleteMany(ctx context.Context, ids []string) error {
	return i.remove("DeleteMany", ids)
}

func (i *Index) remove(op string, ids []string) error {
	if err := i.adapter.record(op, i.name, append([]string(nil), ids...)); err != nil {
		return err
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	for _, id := range ids {
		delete(i.docs, id)
	}
	return nil
}

func (i *Index) Clear(ctx context.Context) error {
	if err := i.adapter.record("Clear", i.name, nil); err != nil {
		return err
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	i.docs = make(map[string]search.Document)
	return nil
}

// Document returns the stored document with id.
func (i *Index) Document(id string) (search.Document, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	doc, ok := i.docs[id]
	if !ok {
		return nil, &search.Error{Op: "Document", Err: search.ErrNotFound, Msg: fmt.Sprintf("id %q", id)}
	}
	return doc, nil
}

// IDs returns the stored document ids, sorted.
func (i *Index) IDs() []string {
	i.mu.Lock()
	defer i.mu.Unlock()
	ids := make([]string, 0, len(i.docs))
	for id := range i.docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
