// Package meilisearch implements the search index contract against
// Meilisearch.
package meilisearch

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/meilisearch/meilisearch-go"

	contentsearch "github.com/hashicorp-forge/contentsync/pkg/search"
)

// DefaultTaskInterval is the polling interval used while waiting for tasks.
const DefaultTaskInterval = 50 * time.Millisecond

// Config contains Meilisearch configuration.
type Config struct {
	Host   string
	APIKey string

	// TaskInterval overrides DefaultTaskInterval.
	TaskInterval time.Duration

	Logger hclog.Logger
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("meilisearch config required")
	}
	if c.Host == "" {
		return fmt.Errorf("meilisearch host required")
	}
	return nil
}

// Adapter implements search.Provider for Meilisearch.
type Adapter struct {
	client   meilisearch.ServiceManager
	interval time.Duration
	log      hclog.Logger
}

// NewAdapter creates a new Meilisearch adapter.
func NewAdapter(cfg *Config) (*Adapter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := cfg.Logger
	if log == nil {
		log = hclog.NewNullLogger()
	}
	interval := cfg.TaskInterval
	if interval <= 0 {
		interval = DefaultTaskInterval
	}

	return &Adapter{
		client:   meilisearch.New(cfg.Host, meilisearch.WithAPIKey(cfg.APIKey)),
		interval: interval,
		log:      log.Named("meilisearch"),
	}, nil
}

// Name returns the provider name.
func (a *Adapter) Name() string {
	return string(contentsearch.ProviderTypeMeilisearch)
}

// Healthy checks if Meilisearch is reachable.
func (a *Adapter) Healthy(ctx context.Context) error {
	if !a.client.IsHealthy() {
		return &contentsearch.Error{
			Op:  "Healthy",
			Err: contentsearch.ErrBackendUnavailable,
		}
	}
	return nil
}

// Index returns a handle to the named Meilisearch index.
func (a *Adapter) Index(name string) (contentsearch.Index, error) {
	if name == "" {
		return nil, fmt.Errorf("index name required")
	}
	return &index{
		name:     name,
		index:    a.client.Index(name),
		interval: a.interval,
		log:      a.log.With("index", name),
	}, nil
}

type index struct {
	name     string
	index    meilisearch.IndexManager
	interval time.Duration
	log      hclog.Logger
}

func (i *index) Name() string {
	return i.name
}

func (i *index) Upsert(ctx context.Context, doc contentsearch.Document) error {
	return i.UpsertMany(ctx, []contentsearch.Document{doc})
}

func (i *index) UpsertMany(ctx context.Context, docs []contentsearch.Document) error {
	if len(docs) == 0 {
		return nil
	}

	task, err := i.index.AddDocumentsWithContext(ctx, docs, contentsearch.IDField)
	if err != nil {
		return i.fail("UpsertMany", contentsearch.ErrIndexingFailed, err)
	}
	return i.wait(ctx, "UpsertMany", task)
}

func (i *index) Delete(ctx context.Context, id string) error {
	task, err := i.index.DeleteDocumentWithContext(ctx, id)
	if err != nil {
		return i.fail("Delete", contentsearch.ErrIndexingFailed, err)
	}
	return i.wait(ctx, "Delete", task)
}

func (i *index) DeleteMany(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	task, err := i.index.DeleteDocumentsWithContext(ctx, ids)
	if err != nil {
		return i.fail("DeleteMany", contentsearch.ErrIndexingFailed, err)
	}
	return i.wait(ctx, "DeleteMany", task)
}

func (i *index) Clear(ctx context.Context) error {
	task, err := i.index.DeleteAllDocumentsWithContext(ctx)
	if err != nil {
		return i.fail("Clear", contentsearch.ErrIndexingFailed, err)
	}
	return i.wait(ctx, "Clear", task)
}

func (i *index) wait(ctx context.Context, op string, task *meilisearch.TaskInfo) error {
	res, err := i.index.WaitForTaskWithContext(ctx, task.TaskUID, i.interval)
	if err != nil {
		return i.fail(op, contentsearch.ErrBackendUnavailable, err)
	}
	if res.Status == meilisearch.TaskStatusFailed {
		return &contentsearch.Error{
			Op:  op,
			Err: contentsearch.ErrIndexingFailed,
			Msg: fmt.Sprintf("index %q: task %d: %s", i.name, task.TaskUID, res.Error.Message),
		}
	}
	i.log.Trace("task finished", "op", op, "task_uid", task.TaskUID)
	return nil
}

func (i *index) fail(op string, sentinel, err error) error {
	return &contentsearch.Error{
		Op:  op,
		Err: sentinel,
		Msg: fmt.Sprintf("index %q: %v", i.name, err),
	}
}
