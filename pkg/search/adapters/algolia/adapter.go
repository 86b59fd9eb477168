// Package algolia implements the search index contract against Algolia.
package algolia

import (
	"context"
	"fmt"

	"github.com/algolia/algoliasearch-client-go/v3/algolia/search"
	"github.com/hashicorp/go-hclog"

	contentsearch "github.com/hashicorp-forge/contentsync/pkg/search"
)

// objectIDField is the identity attribute Algolia requires on every record.
const objectIDField = "objectID"

// Config contains Algolia configuration.
type Config struct {
	AppID       string
	WriteAPIKey string

	// WaitForTasks blocks every write until Algolia reports the task
	// published.
	WaitForTasks bool

	Logger hclog.Logger
}

// Adapter implements search.Provider for Algolia.
type Adapter struct {
	client *search.Client
	cfg    *Config
	log    hclog.Logger
}

// NewAdapter creates a new Algolia adapter.
func NewAdapter(cfg *Config) (*Adapter, error) {
	if cfg == nil {
		return nil, fmt.Errorf("algolia config required")
	}
	if cfg.AppID == "" {
		return nil, fmt.Errorf("algolia app id required")
	}
	if cfg.WriteAPIKey == "" {
		return nil, fmt.Errorf("algolia write api key required")
	}

	log := cfg.Logger
	if log == nil {
		log = hclog.NewNullLogger()
	}

	return &Adapter{
		client: search.NewClient(cfg.AppID, cfg.WriteAPIKey),
		cfg:    cfg,
		log:    log.Named("algolia"),
	}, nil
}

// Name returns the provider name.
func (a *Adapter) Name() string {
	return string(contentsearch.ProviderTypeAlgolia)
}

// Healthy checks if Algolia is reachable with the configured credentials.
func (a *Adapter) Healthy(ctx context.Context) error {
	if _, err := a.client.ListIndices(ctx); err != nil {
		return &contentsearch.Error{
			Op:  "Healthy",
			Err: contentsearch.ErrBackendUnavailable,
			Msg: err.Error(),
		}
	}
	return nil
}

// Index returns a handle to the named Algolia index.
func (a *Adapter) Index(name string) (contentsearch.Index, error) {
	if name == "" {
		return nil, fmt.Errorf("index name required")
	}
	return &index{
		name:  name,
		index: a.client.InitIndex(name),
		wait:  a.cfg.WaitForTasks,
		log:   a.log.With("index", name),
	}, nil
}

// waiter is implemented by every Algolia write response. Algolia calls take
// the request context as one of their variadic options.
type waiter interface {
	Wait(opts ...interface{}) error
}

type index struct {
	name  string
	index *search.Index
	wait  bool
	log   hclog.Logger
}

func (i *index) Name() string {
	return i.name
}

func (i *index) Upsert(ctx context.Context, doc contentsearch.Document) error {
	res, err := i.index.SaveObject(toRecord(doc), ctx)
	return i.finish(ctx, "Upsert", res, err)
}

func (i *index) UpsertMany(ctx context.Context, docs []contentsearch.Document) error {
	if len(docs) == 0 {
		return nil
	}

	records := make([]map[string]any, 0, len(docs))
	for _, doc := range docs {
		records = append(records, toRecord(doc))
	}

	res, err := i.index.SaveObjects(records, ctx)
	if err == nil {
		i.log.Debug("saved objects", "count", len(records))
	}
	return i.finish(ctx, "UpsertMany", res, err)
}

func (i *index) Delete(ctx context.Context, id string) error {
	res, err := i.index.DeleteObject(id, ctx)
	return i.finish(ctx, "Delete", res, err)
}

func (i *index) DeleteMany(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	res, err := i.index.DeleteObjects(ids, ctx)
	if err == nil {
		i.log.Debug("deleted objects", "count", len(ids))
	}
	return i.finish(ctx, "DeleteMany", res, err)
}

func (i *index) Clear(ctx context.Context) error {
	res, err := i.index.ClearObjects(ctx)
	return i.finish(ctx, "Clear", res, err)
}

func (i *index) finish(ctx context.Context, op string, res waiter, err error) error {
	if err != nil {
		return &contentsearch.Error{
			Op:  op,
			Err: contentsearch.ErrIndexingFailed,
			Msg: fmt.Sprintf("index %q: %v", i.name, err),
		}
	}
	if !i.wait {
		return nil
	}
	if err := res.Wait(ctx); err != nil {
		return &contentsearch.Error{
			Op:  op,
			Err: contentsearch.ErrBackendUnavailable,
			Msg: fmt.Sprintf("index %q: waiting for task: %v", i.name, err),
		}
	}
	return nil
}

// toRecord copies doc and sets the Algolia object id from the document id.
func toRecord(doc contentsearch.Document) map[string]any {
	record := make(map[string]any, len(doc)+1)
	for k, v := range doc {
		record[k] = v
	}
	record[objectIDField] = doc.ID()
	return record
}
