package syncengine

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"

	"github.com/hashicorp-forge/contentsync/pkg/content"
)

// Filter selects the items of a batch run. Zero fields match everything.
type Filter struct {
	AppID  int64
	TypeID string
	IDs    []int64
}

// Target is one application type visited by a run.
type Target struct {
	Application *content.Application
	Type        content.Type
	Index       string
}

// Progress observes a batch run.
type Progress interface {
	// Start is called before the items of target are synced.
	Start(target Target, total int)

	// Step is called after each item, with the sync error if any.
	Step(target Target, item *content.Item, err error)

	// Done is called when every item of target was visited.
	Done(target Target)
}

type nopProgress struct{}

func (nopProgress) Start(Target, int)                {}
func (nopProgress) Step(Target, *content.Item, error) {}
func (nopProgress) Done(Target)                      {}

// Result summarizes a batch run.
type Result struct {
	RunID string

	// Targets counts configured application types; Skipped counts
	// unconfigured ones.
	Targets int
	Skipped int

	Synced int
	Failed int
}

// RunnerConfig configures a Runner.
type RunnerConfig struct {
	Factory *Factory
	Source  content.Source

	// Clear wipes each configured index once before any item is synced.
	Clear bool

	Progress Progress
	Logger   hclog.Logger
}

// Runner syncs all items matching a filter, one application type at a time.
type Runner struct {
	factory  *Factory
	source   content.Source
	clear    bool
	progress Progress
	log      hclog.Logger
}

// NewRunner creates a Runner.
func NewRunner(cfg RunnerConfig) *Runner {
	r := &Runner{
		factory:  cfg.Factory,
		source:   cfg.Source,
		clear:    cfg.Clear,
		progress: cfg.Progress,
		log:      cfg.Logger,
	}
	if r.progress == nil {
		r.progress = nopProgress{}
	}
	if r.log == nil {
		r.log = hclog.NewNullLogger()
	}
	return r
}

// Run syncs every item matching filter. Item and per-type failures do not
// stop the run; they are returned together as a *multierror.Error once every
// item was visited. Failing to load applications aborts the run.
func (r *Runner) Run(ctx context.Context, filter Filter) (*Result, error) {
	res := &Result{RunID: uuid.NewString()}
	log := r.log.With("run_id", res.RunID)

	type job struct {
		engine *Engine
		target Target
	}
	var jobs []job
	err := r.eachTarget(ctx, filter, res, func(engine *Engine, target Target) {
		jobs = append(jobs, job{engine, target})
	})
	if err != nil {
		return res, err
	}

	// Each distinct index is cleared once, before any type is synced.
	var result *multierror.Error
	clearFailed := make(map[string]bool)
	if r.clear {
		seen := make(map[string]bool)
		for _, j := range jobs {
			if seen[j.target.Index] {
				continue
			}
			seen[j.target.Index] = true

			if err := j.engine.ClearAll(ctx); err != nil {
				result = multierror.Append(result, fmt.Errorf("error clearing index %q: %w", j.target.Index, err))
				clearFailed[j.target.Index] = true
				continue
			}
			log.Info("cleared index", "index", j.target.Index)
		}
	}

	for _, j := range jobs {
		if clearFailed[j.target.Index] {
			continue
		}
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := r.syncTarget(ctx, log, j.engine, j.target, filter, res); err != nil {
			result = multierror.Append(result, err)
		}
	}

	log.Info("sync finished",
		"targets", res.Targets,
		"skipped", res.Skipped,
		"synced", res.Synced,
		"failed", res.Failed,
	)
	return res, result.ErrorOrNil()
}

// Clear empties the indexes of every configured type matching filter. An
// index shared by several types is cleared once. filter.IDs is ignored.
func (r *Runner) Clear(ctx context.Context, filter Filter) ([]string, error) {
	res := &Result{RunID: uuid.NewString()}
	log := r.log.With("run_id", res.RunID)

	var (
		cleared []string
		result  *multierror.Error
	)
	seen := make(map[string]bool)
	err := r.eachTarget(ctx, filter, res, func(engine *Engine, target Target) {
		if seen[target.Index] {
			return
		}
		seen[target.Index] = true

		if err := engine.ClearAll(ctx); err != nil {
			result = multierror.Append(result, fmt.Errorf("error clearing index %q: %w", target.Index, err))
			return
		}
		log.Info("cleared index", "index", target.Index)
		cleared = append(cleared, target.Index)
	})
	if err != nil {
		return cleared, err
	}
	return cleared, result.ErrorOrNil()
}

// eachTarget calls fn for every configured application type matching
// filter, counting targets and skipped types in res.
func (r *Runner) eachTarget(ctx context.Context, filter Filter, res *Result, fn func(*Engine, Target)) error {
	apps, err := r.applications(ctx, filter)
	if err != nil {
		return err
	}

	for _, app := range apps {
		for _, typ := range app.Types {
			if filter.TypeID != "" && filter.TypeID != typ.Identifier {
				continue
			}
			if err := ctx.Err(); err != nil {
				return err
			}

			engine, err := r.factory.ForType(app, typ.Identifier)
			if err != nil {
				return err
			}
			if !engine.IsConfigured() {
				r.log.Debug("skipping unconfigured type", "application_id", app.ID, "type", typ.Identifier)
				res.Skipped++
				continue
			}
			res.Targets++

			fn(engine, Target{Application: app, Type: typ, Index: engine.Index()})
		}
	}
	return nil
}

func (r *Runner) applications(ctx context.Context, filter Filter) ([]*content.Application, error) {
	if filter.AppID != 0 {
		app, err := r.source.Application(ctx, filter.AppID)
		if err != nil {
			return nil, fmt.Errorf("error loading application %d: %w", filter.AppID, err)
		}
		return []*content.Application{app}, nil
	}

	apps, err := r.source.Applications(ctx)
	if err != nil {
		return nil, fmt.Errorf("error loading applications: %w", err)
	}
	return apps, nil
}

func (r *Runner) items(ctx context.Context, target Target, filter Filter) ([]*content.Item, error) {
	if len(filter.IDs) == 0 {
		return r.source.ItemsByType(ctx, target.Application.ID, target.Type.Identifier)
	}

	all, err := r.source.ItemsByIDs(ctx, filter.IDs)
	if err != nil {
		return nil, err
	}
	var items []*content.Item
	for _, item := range all {
		if item.ApplicationID == target.Application.ID && item.TypeID == target.Type.Identifier {
			items = append(items, item)
		}
	}
	return items, nil
}

// syncTarget syncs the items of one target. The returned error collects the
// target's item failures.
func (r *Runner) syncTarget(
	ctx context.Context, log hclog.Logger, engine *Engine, target Target, filter Filter, res *Result) error {
	log = log.With("application_id", target.Application.ID, "type", target.Type.Identifier, "index", target.Index)

	items, err := r.items(ctx, target, filter)
	if err != nil {
		return fmt.Errorf("error loading items of type %q in application %d: %w",
			target.Type.Identifier, target.Application.ID, err)
	}

	r.progress.Start(target, len(items))

	var result *multierror.Error
	for _, item := range items {
		if _, err := engine.SyncOne(ctx, item); err != nil {
			log.Error("error syncing item", "item_id", item.ID, "error", err)
			result = multierror.Append(result, fmt.Errorf("item %d: %w", item.ID, err))
			res.Failed++
			r.progress.Step(target, item, err)
			continue
		}
		res.Synced++
		r.progress.Step(target, item, nil)
	}

	r.progress.Done(target)
	return result.ErrorOrNil()
}
