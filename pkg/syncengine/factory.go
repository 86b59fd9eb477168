package syncengine

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/hashicorp-forge/contentsync/pkg/content"
	"github.com/hashicorp-forge/contentsync/pkg/routing"
	"github.com/hashicorp-forge/contentsync/pkg/search"
	"github.com/hashicorp-forge/contentsync/pkg/transform"
)

// FactoryConfig configures a Factory.
type FactoryConfig struct {
	Source content.Source

	// Provider hands out indexes; nil makes every engine unconfigured.
	Provider search.Provider

	// Types holds type configurations keyed by application group and type
	// identifier.
	Types map[string]map[string]TypeConfig

	Locales []content.Locale

	Router     routing.Router
	SEO        routing.SEO
	Thumbnails transform.Thumbnailer
	Hooks      transform.Hooks
	MaxDepth   int

	Logger hclog.Logger
}

// Factory builds engines bound to the index of one application type.
type Factory struct {
	cfg     FactoryConfig
	catalog *Catalog
	log     hclog.Logger
}

// NewFactory creates a Factory and registers the store's applications.
func NewFactory(ctx context.Context, cfg FactoryConfig) (*Factory, error) {
	if cfg.Source == nil {
		return nil, fmt.Errorf("content source required")
	}

	apps, err := cfg.Source.Applications(ctx)
	if err != nil {
		return nil, fmt.Errorf("error loading applications: %w", err)
	}

	log := cfg.Logger
	if log == nil {
		log = hclog.NewNullLogger()
	}

	return &Factory{
		cfg:     cfg,
		catalog: NewCatalog(cfg.Types, apps...),
		log:     log.Named("sync"),
	}, nil
}

// Catalog returns the factory's type catalog.
func (f *Factory) Catalog() *Catalog {
	return f.catalog
}

// ForType builds an engine for typeID of app. Each engine has its own menu
// and category caches. The engine is unconfigured when the type has no index
// or no provider is available.
func (f *Factory) ForType(app *content.Application, typeID string) (*Engine, error) {
	f.catalog.Register(app)

	log := f.log.With("application_id", app.ID, "type", typeID)

	tc, ok := f.catalog.TypeConfig(app, typeID)
	if !ok || tc.Index == "" || f.cfg.Provider == nil {
		return NewEngine(nil, nil, log), nil
	}

	idx, err := f.cfg.Provider.Index(tc.Index)
	if err != nil {
		return nil, fmt.Errorf("error opening index %q: %w", tc.Index, err)
	}

	resolver := routing.NewResolver(routing.Config{
		Routes:     f.cfg.Source,
		Categories: f.cfg.Source,
		Router:     f.cfg.Router,
		SEO:        f.cfg.SEO,
		Logger:     log.Named("routing"),
	})

	transformer := transform.New(transform.Config{
		Elements:   f.catalog,
		Items:      f.cfg.Source,
		Resolver:   resolver,
		Locales:    f.cfg.Locales,
		Thumbnails: f.cfg.Thumbnails,
		Hooks:      f.cfg.Hooks,
		MaxDepth:   f.cfg.MaxDepth,
		Logger:     log.Named("transform"),
	})

	return NewEngine(idx, transformer, log), nil
}

// ForItem builds the engine for the application and type of item.
func (f *Factory) ForItem(ctx context.Context, item *content.Item) (*Engine, error) {
	return f.ForApplicationType(ctx, item.ApplicationID, item.TypeID)
}

// ForApplicationType builds the engine for typeID of the application with the
// given id, loading the application when it is not registered yet.
func (f *Factory) ForApplicationType(ctx context.Context, applicationID int64, typeID string) (*Engine, error) {
	app, ok := f.catalog.Application(applicationID)
	if !ok {
		var err error
		app, err = f.cfg.Source.Application(ctx, applicationID)
		if err != nil {
			return nil, fmt.Errorf("error loading application %d: %w", applicationID, err)
		}
	}
	return f.ForType(app, typeID)
}
