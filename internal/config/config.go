// Package config loads the contentsync HCL configuration.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/hashicorp/hcl/v2/hclsimple"

	"github.com/hashicorp-forge/contentsync/pkg/content"
	"github.com/hashicorp-forge/contentsync/pkg/events"
	"github.com/hashicorp-forge/contentsync/pkg/media"
	"github.com/hashicorp-forge/contentsync/pkg/routing"
	"github.com/hashicorp-forge/contentsync/pkg/search"
	"github.com/hashicorp-forge/contentsync/pkg/store"
	"github.com/hashicorp-forge/contentsync/pkg/syncengine"
)

// Config is the root of the configuration file.
type Config struct {
	// LogLevel is the level of the CLI logger (trace, debug, info, warn, error).
	LogLevel string `hcl:"log_level,optional"`

	Providers   *Providers   `hcl:"providers,block"`
	Algolia     *Algolia     `hcl:"algolia,block"`
	Meilisearch *Meilisearch `hcl:"meilisearch,block"`
	Bleve       *Bleve       `hcl:"bleve,block"`
	Database    *Database    `hcl:"database,block"`
	Redpanda    *Redpanda    `hcl:"redpanda,block"`
	Site        *Site        `hcl:"site,block"`
	SEO         *SEO         `hcl:"seo,block"`
	Sync        *Sync        `hcl:"sync,block"`

	Locales      []Locale      `hcl:"locale,block"`
	Applications []Application `hcl:"application,block"`
}

// Providers selects the search backend.
type Providers struct {
	Search string `hcl:"search"`
}

// Algolia configures the Algolia provider.
type Algolia struct {
	AppID        string `hcl:"app_id,optional"`
	WriteAPIKey  string `hcl:"write_api_key,optional"`
	WaitForTasks bool   `hcl:"wait_for_tasks,optional"`
}

// Meilisearch configures the Meilisearch provider.
type Meilisearch struct {
	Host         string `hcl:"host"`
	APIKey       string `hcl:"api_key,optional"`
	TaskInterval string `hcl:"task_interval,optional"`
}

// Bleve configures the embedded Bleve provider.
type Bleve struct {
	IndexPath string `hcl:"index_path"`
}

// Database configures the content store.
type Database struct {
	Driver   string `hcl:"driver"`
	DSN      string `hcl:"dsn,optional"`
	Host     string `hcl:"host,optional"`
	Port     int    `hcl:"port,optional"`
	User     string `hcl:"user,optional"`
	Password string `hcl:"password,optional"`
	DBName   string `hcl:"dbname,optional"`
	SSLMode  string `hcl:"sslmode,optional"`
}

// Redpanda configures the item event stream.
type Redpanda struct {
	Brokers       []string `hcl:"brokers,optional"`
	Topic         string   `hcl:"topic,optional"`
	ConsumerGroup string   `hcl:"consumer_group,optional"`
}

// Site describes the public site the URLs and thumbnails are generated for.
type Site struct {
	BaseURL string `hcl:"base_url,optional"`

	// Root is the filesystem root that file element paths are relative to.
	// Thumbnails are disabled without it.
	Root string `hcl:"root,optional"`

	// SEF enables search engine friendly URLs.
	SEF bool `hcl:"sef,optional"`

	ThumbnailDir    string `hcl:"thumbnail_dir,optional"`
	ThumbnailWidth  int    `hcl:"thumbnail_width,optional"`
	ThumbnailHeight int    `hcl:"thumbnail_height,optional"`
}

// SEO mirrors the site's SEO URL rewrites.
type SEO struct {
	RemoveItem     bool `hcl:"remove_item,optional"`
	RemoveCategory bool `hcl:"remove_category,optional"`
}

// Sync tunes document building.
type Sync struct {
	MaxDepth int `hcl:"max_depth,optional"`
}

// Locale is a content locale.
type Locale struct {
	Code  string `hcl:"code,label"`
	SEF   string `hcl:"sef"`
	Title string `hcl:"title,optional"`
}

// Application maps an application group to searchable types.
type Application struct {
	Group string `hcl:"group,label"`
	Types []Type `hcl:"type,block"`
}

// Type binds a content type to a search index.
type Type struct {
	Identifier string    `hcl:"identifier,label"`
	Index      string    `hcl:"index,optional"`
	Elements   []Element `hcl:"element,block"`
}

// Element is an element mapping of a type.
type Element struct {
	Key       string `hcl:"key,label"`
	Alias     string `hcl:"alias,optional"`
	MaxLength int    `hcl:"max_length,optional"`
	Suffix    string `hcl:"suffix,optional"`
	Limit     int    `hcl:"limit,optional"`
}

// Load parses, completes and validates the configuration file at path.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("configuration file path is required")
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", path)
	}

	var cfg Config
	if err := hclsimple.DecodeFile(path, nil, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file: %w", err)
	}

	cfg.applyEnv(os.Getenv)
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// applyEnv overrides secrets and brokers from the environment.
func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv("ALGOLIA_APP_ID"); v != "" {
		if c.Algolia == nil {
			c.Algolia = &Algolia{}
		}
		c.Algolia.AppID = v
	}
	if v := getenv("ALGOLIA_WRITE_API_KEY"); v != "" {
		if c.Algolia == nil {
			c.Algolia = &Algolia{}
		}
		c.Algolia.WriteAPIKey = v
	}
	if v := getenv("MEILISEARCH_API_KEY"); v != "" && c.Meilisearch != nil {
		c.Meilisearch.APIKey = v
	}
	if v := getenv("REDPANDA_BROKERS"); v != "" {
		if c.Redpanda == nil {
			c.Redpanda = &Redpanda{}
		}
		c.Redpanda.Brokers = strings.Split(v, ",")
	}
}

func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Database == nil {
		c.Database = &Database{Driver: store.DriverSQLite, DSN: "contentsync.db"}
	}
	if c.Redpanda != nil {
		if len(c.Redpanda.Brokers) == 0 {
			c.Redpanda.Brokers = []string{"localhost:19092"}
		}
		if c.Redpanda.Topic == "" {
			c.Redpanda.Topic = events.DefaultTopic
		}
		if c.Redpanda.ConsumerGroup == "" {
			c.Redpanda.ConsumerGroup = events.DefaultConsumerGroup
		}
	}
	if c.Sync == nil {
		c.Sync = &Sync{}
	}
	if c.Sync.MaxDepth == 0 {
		c.Sync.MaxDepth = 1
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.LogLevel, validation.In("trace", "debug", "info", "warn", "error")),
		validation.Field(&c.Providers, validation.Required),
		validation.Field(&c.Algolia,
			validation.When(c.provider() == string(search.ProviderTypeAlgolia), validation.Required)),
		validation.Field(&c.Meilisearch,
			validation.When(c.provider() == string(search.ProviderTypeMeilisearch), validation.Required)),
		validation.Field(&c.Bleve,
			validation.When(c.provider() == string(search.ProviderTypeBleve), validation.Required)),
		validation.Field(&c.Database),
		validation.Field(&c.Sync),
		validation.Field(&c.Locales, validation.Required, validation.By(uniqueLocales)),
		validation.Field(&c.Applications),
	)
}

func (c *Config) provider() string {
	if c.Providers == nil {
		return ""
	}
	return c.Providers.Search
}

func (p Providers) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Search, validation.Required, validation.In(
			string(search.ProviderTypeAlgolia),
			string(search.ProviderTypeMeilisearch),
			string(search.ProviderTypeBleve),
		)),
	)
}

func (a Algolia) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.AppID, validation.Required),
		validation.Field(&a.WriteAPIKey, validation.Required),
	)
}

func (m Meilisearch) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Host, validation.Required),
		validation.Field(&m.TaskInterval, validation.By(duration)),
	)
}

func (b Bleve) Validate() error {
	return validation.ValidateStruct(&b,
		validation.Field(&b.IndexPath, validation.Required),
	)
}

func (d Database) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Driver, validation.Required, validation.In(store.DriverSQLite, store.DriverPostgres)),
		validation.Field(&d.DSN, validation.When(d.Driver == store.DriverSQLite, validation.Required)),
		validation.Field(&d.Host, validation.When(d.Driver == store.DriverPostgres && d.DSN == "", validation.Required)),
	)
}

func (s Sync) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.MaxDepth, validation.Min(0)),
	)
}

func (l Locale) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Code, validation.Required),
		validation.Field(&l.SEF, validation.Required),
	)
}

func (a Application) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.Group, validation.Required),
		validation.Field(&a.Types),
	)
}

func (t Type) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.Identifier, validation.Required),
		validation.Field(&t.Elements),
	)
}

func (e Element) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Key, validation.Required),
		validation.Field(&e.MaxLength, validation.Min(0)),
		validation.Field(&e.Limit, validation.Min(0)),
	)
}

func uniqueLocales(value interface{}) error {
	locales, _ := value.([]Locale)
	seen := make(map[string]bool, len(locales))
	for _, l := range locales {
		if seen[l.Code] {
			return fmt.Errorf("locale %q is declared twice", l.Code)
		}
		seen[l.Code] = true
	}
	return nil
}

func duration(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, err := time.ParseDuration(s); err != nil {
		return fmt.Errorf("must be a duration such as 100ms")
	}
	return nil
}

// ContentLocales returns the configured locales in declaration order.
func (c *Config) ContentLocales() []content.Locale {
	locales := make([]content.Locale, 0, len(c.Locales))
	for _, l := range c.Locales {
		locales = append(locales, content.Locale{Code: l.Code, Short: l.SEF, Title: l.Title})
	}
	return locales
}

// Types returns the sync configuration keyed by application group and type
// identifier.
func (c *Config) Types() map[string]map[string]syncengine.TypeConfig {
	types := make(map[string]map[string]syncengine.TypeConfig, len(c.Applications))
	for _, app := range c.Applications {
		if types[app.Group] == nil {
			types[app.Group] = make(map[string]syncengine.TypeConfig, len(app.Types))
		}
		for _, t := range app.Types {
			tc := syncengine.TypeConfig{Index: t.Index}
			for _, e := range t.Elements {
				tc.Elements = append(tc.Elements, content.ElementConfig{
					Element:   e.Key,
					Alias:     e.Alias,
					MaxLength: e.MaxLength,
					Suffix:    e.Suffix,
					Limit:     e.Limit,
				})
			}
			types[app.Group][t.Identifier] = tc
		}
	}
	return types
}

// SEORules returns the URL rewrites.
func (c *Config) SEORules() routing.SEO {
	if c.SEO == nil {
		return routing.SEO{}
	}
	return routing.SEO{RemoveItem: c.SEO.RemoveItem, RemoveCategory: c.SEO.RemoveCategory}
}

// Router returns the link router for the site.
func (c *Config) Router() routing.Router {
	if c.Site == nil {
		return routing.LinkRouter{}
	}
	if c.Site.SEF {
		return routing.SEFRouter{BaseURL: c.Site.BaseURL}
	}
	return routing.LinkRouter{BaseURL: c.Site.BaseURL}
}

// MaxDepth returns how deep related items are expanded.
func (c *Config) MaxDepth() int {
	return c.Sync.MaxDepth
}

// StoreConfig returns the content store connection settings.
func (c *Config) StoreConfig() store.Config {
	d := c.Database
	return store.Config{
		Driver:   d.Driver,
		DSN:      d.DSN,
		Host:     d.Host,
		Port:     d.Port,
		User:     d.User,
		Password: d.Password,
		DBName:   d.DBName,
		SSLMode:  d.SSLMode,
	}
}

// ThumbnailConfig returns the thumbnailer settings, or false when the site
// root is not configured.
func (c *Config) ThumbnailConfig() (media.Config, bool) {
	if c.Site == nil || c.Site.Root == "" {
		return media.Config{}, false
	}
	return media.Config{
		Root:     c.Site.Root,
		CacheDir: c.Site.ThumbnailDir,
		Width:    c.Site.ThumbnailWidth,
		Height:   c.Site.ThumbnailHeight,
	}, true
}

// Interval returns the task polling interval; zero selects
// the adapter default.
func (m *Meilisearch) Interval() time.Duration {
	d, _ := time.ParseDuration(m.TaskInterval)
	return d
}
