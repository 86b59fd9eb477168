package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hashicorp-forge/contentsync/pkg/content"
	"github.com/hashicorp-forge/contentsync/pkg/events"
	"github.com/hashicorp-forge/contentsync/pkg/media"
	"github.com/hashicorp-forge/contentsync/pkg/routing"
	"github.com/hashicorp-forge/contentsync/pkg/store"
	"github.com/hashicorp-forge/contentsync/pkg/syncengine"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.hcl")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const minimal = `
providers {
  search = "bleve"
}

bleve {
  index_path = "./data/indexes"
}

locale "en-GB" {
  sef = "en"
}
`

func TestLoad(t *testing.T) {
	cfg, err := Load("testdata/config.hcl")
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 100*time.Millisecond, cfg.Meilisearch.Interval())
	assert.Equal(t, []string{"redpanda:9092"}, cfg.Redpanda.Brokers)
	assert.Equal(t, events.DefaultTopic, cfg.Redpanda.Topic)
	assert.Equal(t, events.DefaultConsumerGroup, cfg.Redpanda.ConsumerGroup)

	assert.Equal(t, []content.Locale{
		{Code: "en-GB", Short: "en", Title: "English"},
		{Code: "it-IT", Short: "it"},
	}, cfg.ContentLocales())

	assert.Equal(t, map[string]map[string]syncengine.TypeConfig{
		"blog": {
			"article": {
				Index: "articles",
				Elements: []content.ElementConfig{
					{Element: "name", Alias: "title"},
					{Element: "body", MaxLength: 200, Suffix: "..."},
					{Element: "tags", Limit: 3},
				},
			},
			"page": {},
		},
	}, cfg.Types())

	assert.Equal(t, routing.SEFRouter{BaseURL: "https://www.example.com"}, cfg.Router())
	assert.Equal(t, routing.SEO{RemoveItem: true}, cfg.SEORules())
	assert.Equal(t, 2, cfg.MaxDepth())

	assert.Equal(t, store.Config{
		Driver: store.DriverPostgres,
		Host:   "localhost",
		Port:   5432,
		User:   "postgres",
		DBName: "cms",
	}, cfg.StoreConfig())

	thumbs, ok := cfg.ThumbnailConfig()
	require.True(t, ok)
	assert.Equal(t, media.Config{Root: "/var/www/site"}, thumbs)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimal))
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 1, cfg.MaxDepth())
	assert.Equal(t, store.Config{Driver: store.DriverSQLite, DSN: "contentsync.db"}, cfg.StoreConfig())
	assert.Equal(t, routing.LinkRouter{}, cfg.Router())
	assert.Equal(t, routing.SEO{}, cfg.SEORules())
	assert.Nil(t, cfg.Redpanda)
	assert.Empty(t, cfg.Types())

	_, ok := cfg.ThumbnailConfig()
	assert.False(t, ok)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "syntax",
			body:    `providers {`,
			wantErr: "failed to parse configuration file",
		},
		{
			name:    "missing providers",
			body:    `locale "en-GB" { sef = "en" }`,
			wantErr: "Providers: cannot be blank",
		},
		{
			name:    "unknown provider",
			body:    `providers { search = "solr" }` + "\n" + `locale "en-GB" { sef = "en" }`,
			wantErr: "must be a valid value",
		},
		{
			name:    "provider block missing",
			body:    `providers { search = "algolia" }` + "\n" + `locale "en-GB" { sef = "en" }`,
			wantErr: "Algolia: cannot be blank",
		},
		{
			name:    "no locales",
			body:    `providers { search = "bleve" }` + "\n" + `bleve { index_path = "x" }`,
			wantErr: "Locales: cannot be blank",
		},
		{
			name:    "duplicate locale",
			body:    minimal + `locale "en-GB" { sef = "gb" }`,
			wantErr: "declared twice",
		},
		{
			name:    "element limit",
			body: minimal + `
application "blog" {
  type "article" {
    element "tags" {
      limit = -1
    }
  }
}
`,
			wantErr: "Limit",
		},
		{
			name:    "bad task interval",
			body: `
providers {
  search = "meilisearch"
}

meilisearch {
  host          = "h"
  task_interval = "soon"
}

locale "en-GB" {
  sef = "en"
}
`,
			wantErr: "must be a duration",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.hcl"))
	assert.ErrorContains(t, err, "not found")
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"ALGOLIA_APP_ID":        "APP",
		"ALGOLIA_WRITE_API_KEY": "secret",
		"MEILISEARCH_API_KEY":   "meili",
		"REDPANDA_BROKERS":      "a:9092,b:9092",
	}

	cfg := &Config{Meilisearch: &Meilisearch{Host: "h"}}
	cfg.applyEnv(func(k string) string { return env[k] })

	assert.Equal(t, &Algolia{AppID: "APP", WriteAPIKey: "secret"}, cfg.Algolia)
	assert.Equal(t, "meili", cfg.Meilisearch.APIKey)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Redpanda.Brokers)
}
