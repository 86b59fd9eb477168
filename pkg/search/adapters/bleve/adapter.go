// Package bleve implements the search index contract with embedded Bleve
// indexes, for offline use and local development.
package bleve

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/hashicorp/go-hclog"

	contentsearch "github.com/hashicorp-forge/contentsync/pkg/search"
)

// Config contains Bleve configuration.
type Config struct {
	IndexPath string // Base path for all indexes (e.g., "./data/indexes")

	Logger hclog.Logger
}

// Adapter implements search.Provider for Bleve (embedded full-text search).
type Adapter struct {
	basePath string
	log      hclog.Logger

	mu      sync.Mutex
	indexes map[string]*index
}

// NewAdapter creates a new Bleve search adapter.
func NewAdapter(cfg *Config) (*Adapter, error) {
	if cfg.IndexPath == "" {
		return nil, fmt.Errorf("bleve index path required")
	}

	// Create index directory
	if err := os.MkdirAll(cfg.IndexPath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}

	log := cfg.Logger
	if log == nil {
		log = hclog.NewNullLogger()
	}

	return &Adapter{
		basePath: cfg.IndexPath,
		log:      log.Named("bleve"),
		indexes:  make(map[string]*index),
	}, nil
}

// openOrCreateIndex opens an existing Bleve index or creates a new one.
func openOrCreateIndex(path string, indexMapping mapping.IndexMapping) (bleve.Index, error) {
	idx, err := bleve.Open(path)
	if err == bleve.ErrorIndexPathDoesNotExist {
		// Index doesn't exist, create it
		return bleve.New(path, indexMapping)
	}
	return idx, err
}

// createContentMapping creates the index mapping for content documents.
// Fields are mapped dynamically; id and category_ids are numeric.
func createContentMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()

	numericFieldMapping := bleve.NewNumericFieldMapping()

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("id", numericFieldMapping)
	docMapping.AddFieldMappingsAt("category_ids", numericFieldMapping)

	indexMapping.AddDocumentMapping("_default", docMapping)

	return indexMapping
}

// Name returns the provider name.
func (a *Adapter) Name() string {
	return string(contentsearch.ProviderTypeBleve)
}

// Healthy checks if every opened index is accessible.
func (a *Adapter) Healthy(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	for name, idx := range a.indexes {
		if _, err := idx.count(); err != nil {
			return &contentsearch.Error{
				Op:  "Healthy",
				Err: contentsearch.ErrBackendUnavailable,
				Msg: fmt.Sprintf("index %q: %v", name, err),
			}
		}
	}
	return nil
}

// Index opens or creates the named index under the base path.
func (a *Adapter) Index(name string) (contentsearch.Index, error) {
	if name == "" {
		return nil, fmt.Errorf("index name required")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if idx, ok := a.indexes[name]; ok {
		return idx, nil
	}

	path := filepath.Join(a.basePath, name+".bleve")
	bi, err := openOrCreateIndex(path, createContentMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to open index %q: %w", name, err)
	}

	idx := &index{
		name:   name,
		path:   path,
		index:  bi,
		create: bleve.New,
		log:    a.log.With("index", name),
	}
	a.indexes[name] = idx
	return idx, nil
}

// Close closes all Bleve indexes.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var firstErr error
	for name, idx := range a.indexes {
		if idx.index == nil {
			delete(a.indexes, name)
			continue
		}
		if err := idx.index.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close index %q: %w", name, err)
		}
		delete(a.indexes, name)
	}
	return firstErr
}

// index implements search.Index on one Bleve index.
type index struct {
	name string
	path string
	log  hclog.Logger

	mu sync.Mutex
	// index is nil after a failed Clear and is reopened on next use.
	index  bleve.Index
	create func(path string, m mapping.IndexMapping) (bleve.Index, error)
}

// open returns the underlying index, reopening it if a Clear left it
// closed. The caller holds i.mu.
func (i *index) open(op string) (bleve.Index, error) {
	if i.index != nil {
		return i.index, nil
	}

	bi, err := bleve.Open(i.path)
	if err == bleve.ErrorIndexPathDoesNotExist {
		bi, err = i.create(i.path, createContentMapping())
	}
	if err != nil {
		return nil, &contentsearch.Error{Op: op, Err: contentsearch.ErrBackendUnavailable, Msg: err.Error()}
	}
	i.log.Info("reopened index")
	i.index = bi
	return bi, nil
}

func (i *index) Name() string {
	return i.name
}

// Upsert adds or updates a document in the search index.
func (i *index) Upsert(ctx context.Context, doc contentsearch.Document) error {
	return i.UpsertMany(ctx, []contentsearch.Document{doc})
}

// UpsertMany adds or updates multiple documents.
func (i *index) UpsertMany(ctx context.Context, docs []contentsearch.Document) error {
	if len(docs) == 0 {
		return nil
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	bi, err := i.open("UpsertMany")
	if err != nil {
		return err
	}

	batch := bi.NewBatch()
	for _, doc := range docs {
		id := doc.ID()
		if id == "" {
			return &contentsearch.Error{
				Op:  "UpsertMany",
				Err: contentsearch.ErrIndexingFailed,
				Msg: "document without id",
			}
		}
		if err := batch.Index(id, map[string]any(doc)); err != nil {
			return fmt.Errorf("failed to add document to batch: %w", err)
		}
	}

	if err := bi.Batch(batch); err != nil {
		return &contentsearch.Error{Op: "UpsertMany", Err: contentsearch.ErrIndexingFailed, Msg: err.Error()}
	}
	i.log.Trace("indexed documents", "count", len(docs))
	return nil
}

// Delete removes a document from the search index.
func (i *index) Delete(ctx context.Context, id string) error {
	return i.DeleteMany(ctx, []string{id})
}

// DeleteMany removes multiple documents.
func (i *index) DeleteMany(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	bi, err := i.open("DeleteMany")
	if err != nil {
		return err
	}

	batch := bi.NewBatch()
	for _, id := range ids {
		batch.Delete(id)
	}

	if err := bi.Batch(batch); err != nil {
		return &contentsearch.Error{Op: "DeleteMany", Err: contentsearch.ErrIndexingFailed, Msg: err.Error()}
	}
	return nil
}

// Clear removes all documents from the index.
func (i *index) Clear(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	// Close and delete the index, then recreate it.
	if i.index != nil {
		if err := i.index.Close(); err != nil {
			return fmt.Errorf("failed to close index: %w", err)
		}
		i.index = nil
	}

	if err := os.RemoveAll(i.path); err != nil {
		return fmt.Errorf("failed to remove index: %w", err)
	}

	newIndex, err := i.create(i.path, createContentMapping())
	if err != nil {
		return fmt.Errorf("failed to recreate index: %w", err)
	}

	i.index = newIndex
	return nil
}

// count returns the number of stored documents.
func (i *index) count() (uint64, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	bi, err := i.open("Count")
	if err != nil {
		return 0, err
	}
	return bi.DocCount()
}
