package base

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/afero"
	"gorm.io/gorm"

	"github.com/hashicorp-forge/contentsync/internal/config"
	"github.com/hashicorp-forge/contentsync/pkg/media"
	"github.com/hashicorp-forge/contentsync/pkg/search"
	algoliaadapter "github.com/hashicorp-forge/contentsync/pkg/search/adapters/algolia"
	bleveadapter "github.com/hashicorp-forge/contentsync/pkg/search/adapters/bleve"
	meilisearchadapter "github.com/hashicorp-forge/contentsync/pkg/search/adapters/meilisearch"
	"github.com/hashicorp-forge/contentsync/pkg/store"
	"github.com/hashicorp-forge/contentsync/pkg/syncengine"
)

// Env is the runtime shared by the sync commands.
type Env struct {
	Config   *config.Config
	DB       *gorm.DB
	Store    *store.Store
	Provider search.Provider
	Factory  *syncengine.Factory

	closers []func() error
}

// Close releases the database connection and the search provider.
func (e *Env) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		_ = e.closers[i]()
	}
}

// LoadConfig loads the configuration file and applies its log level.
func (c *Command) LoadConfig(path string, verbose bool) (*config.Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config flag is required")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	level := hclog.LevelFromString(cfg.LogLevel)
	if verbose {
		level = hclog.Debug
	}
	c.Log.SetLevel(level)
	return cfg, nil
}

// OpenStore connects to the content database.
func (c *Command) OpenStore(cfg *config.Config) (*gorm.DB, *store.Store, error) {
	db, err := store.Open(cfg.StoreConfig(), c.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("error initializing database: %w", err)
	}
	return db, store.New(db, c.Log), nil
}

// NewEnv loads the configuration and wires the store, search provider and
// engine factory.
func (c *Command) NewEnv(ctx context.Context, configPath string, verbose bool) (*Env, error) {
	cfg, err := c.LoadConfig(configPath, verbose)
	if err != nil {
		return nil, err
	}

	env := &Env{Config: cfg}
	env.DB, env.Store, err = c.OpenStore(cfg)
	if err != nil {
		return nil, err
	}
	env.closers = append(env.closers, func() error {
		sqlDB, err := env.DB.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	})

	env.Provider, err = NewSearchProvider(cfg, c.Log)
	if err != nil {
		env.Close()
		return nil, fmt.Errorf("failed to initialize search provider: %w", err)
	}
	if closer, ok := env.Provider.(interface{ Close() error }); ok {
		env.closers = append(env.closers, closer.Close)
	}

	fc := syncengine.FactoryConfig{
		Source:   env.Store,
		Provider: env.Provider,
		Types:    cfg.Types(),
		Locales:  cfg.ContentLocales(),
		Router:   cfg.Router(),
		SEO:      cfg.SEORules(),
		MaxDepth: cfg.MaxDepth(),
		Logger:   c.Log,
	}
	if thumbs, ok := cfg.ThumbnailConfig(); ok {
		thumbs.Logger = c.Log.Named("media")
		fc.Thumbnails = media.NewThumbnailer(afero.NewOsFs(), thumbs)
	}

	env.Factory, err = syncengine.NewFactory(ctx, fc)
	if err != nil {
		env.Close()
		return nil, fmt.Errorf("error loading applications: %w", err)
	}
	return env, nil
}

// NewSearchProvider creates the search provider selected in the configuration.
func NewSearchProvider(cfg *config.Config, log hclog.Logger) (search.Provider, error) {
	providerName := cfg.Providers.Search
	log = log.Named("search")

	switch search.ProviderType(providerName) {
	case search.ProviderTypeAlgolia:
		provider, err := algoliaadapter.NewAdapter(&algoliaadapter.Config{
			AppID:        cfg.Algolia.AppID,
			WriteAPIKey:  cfg.Algolia.WriteAPIKey,
			WaitForTasks: cfg.Algolia.WaitForTasks,
			Logger:       log,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize algolia adapter: %w", err)
		}
		log.Debug("initialized search provider", "provider", providerName)
		return provider, nil

	case search.ProviderTypeMeilisearch:
		provider, err := meilisearchadapter.NewAdapter(&meilisearchadapter.Config{
			Host:         cfg.Meilisearch.Host,
			APIKey:       cfg.Meilisearch.APIKey,
			TaskInterval: cfg.Meilisearch.Interval(),
			Logger:       log,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize meilisearch adapter: %w", err)
		}
		log.Debug("initialized search provider", "provider", providerName)
		return provider, nil

	case search.ProviderTypeBleve:
		provider, err := bleveadapter.NewAdapter(&bleveadapter.Config{
			IndexPath: cfg.Bleve.IndexPath,
			Logger:    log,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize bleve adapter: %w", err)
		}
		log.Debug("initialized search provider", "provider", providerName)
		return provider, nil

	default:
		return nil, fmt.Errorf("unsupported search provider: %s (supported: algolia, meilisearch, bleve)", providerName)
	}
}
