// Package transform builds search documents from content items.
package transform

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/hashicorp-forge/contentsync/pkg/content"
	"github.com/hashicorp-forge/contentsync/pkg/search"
)

// DefaultMaxDepth is the related items depth that is fully transformed.
const DefaultMaxDepth = 1

// ElementSource returns the element configuration of a content type. An empty
// result means the type is not searchable.
type ElementSource interface {
	ElementConfigs(applicationID int64, typeID string) []content.ElementConfig
}

// ElementSourceFunc adapts a function to ElementSource.
type ElementSourceFunc func(applicationID int64, typeID string) []content.ElementConfig

// ElementConfigs calls f(applicationID, typeID).
func (f ElementSourceFunc) ElementConfigs(applicationID int64, typeID string) []content.ElementConfig {
	return f(applicationID, typeID)
}

// ItemSource loads related items.
type ItemSource interface {
	ItemsByIDs(ctx context.Context, ids []int64) ([]*content.Item, error)
}

// Resolver resolves public URLs and category trees.
type Resolver interface {
	ItemURLs(ctx context.Context, item *content.Item, locale content.Locale) (map[string]string, error)
	CategoryURL(ctx context.Context, category *content.Category, locale content.Locale) (string, error)
	Tree(ctx context.Context, applicationID int64) (content.CategoryTree, error)
}

// Thumbnailer returns the root-relative path of a resized image.
type Thumbnailer interface {
	Thumbnail(ctx context.Context, file string) (string, error)
}

// Hooks are optional extension points. A hook reporting ok replaces the
// value it is asked for.
type Hooks struct {
	// BeforeElement runs before an element is mapped.
	BeforeElement func(ctx context.Context, item *content.Item, el content.Element, cfg content.ElementConfig) (any, bool)

	// ElementFallback maps elements without a value of their own.
	ElementFallback func(ctx context.Context, item *content.Item, el content.Element) (any, bool)

	// DocumentOverride may replace a finished document. A nil result keeps
	// the original.
	DocumentOverride func(ctx context.Context, item *content.Item, doc search.Document) search.Document
}

// Config configures a Transformer.
type Config struct {
	Elements ElementSource
	Items    ItemSource
	Resolver Resolver

	// Locales are the configured content locales, in order.
	Locales []content.Locale

	// Thumbnails resizes image elements; nil keeps images as stored.
	Thumbnails Thumbnailer

	Hooks Hooks

	// MaxDepth bounds related item recursion; defaults to DefaultMaxDepth.
	MaxDepth int

	Logger hclog.Logger
}

// Transformer converts content items into search documents.
type Transformer struct {
	elements   ElementSource
	items      ItemSource
	resolver   Resolver
	locales    []content.Locale
	thumbnails Thumbnailer
	hooks      Hooks
	maxDepth   int
	log        hclog.Logger
}

// New creates a Transformer.
func New(cfg Config) *Transformer {
	t := &Transformer{
		elements:   cfg.Elements,
		items:      cfg.Items,
		resolver:   cfg.Resolver,
		locales:    cfg.Locales,
		thumbnails: cfg.Thumbnails,
		hooks:      cfg.Hooks,
		maxDepth:   cfg.MaxDepth,
		log:        cfg.Logger,
	}
	if t.maxDepth <= 0 {
		t.maxDepth = DefaultMaxDepth
	}
	if t.log == nil {
		t.log = hclog.NewNullLogger()
	}
	return t
}

// Transform returns the search document of item, or nil when the item must
// not be in the index: it is not published or its type has no element
// configuration.
func (t *Transformer) Transform(ctx context.Context, item *content.Item) (search.Document, error) {
	return t.transform(ctx, item, 0)
}

func (t *Transformer) transform(ctx context.Context, item *content.Item, depth int) (search.Document, error) {
	if item == nil || !item.IsPublished() {
		return nil, nil
	}

	configs := t.elements.ElementConfigs(item.ApplicationID, item.TypeID)
	if len(configs) == 0 {
		return nil, nil
	}

	tree, err := t.resolver.Tree(ctx, item.ApplicationID)
	if err != nil {
		return nil, err
	}

	doc := search.Document{
		search.IDField: item.ID,
		"category_ids": categoryIDs(item, tree),
	}

	urls := make(map[string]any, len(t.locales))
	for _, locale := range t.locales {
		u, err := t.resolver.ItemURLs(ctx, item, locale)
		if err != nil {
			return nil, fmt.Errorf("error resolving urls of item %d: %w", item.ID, err)
		}
		urls[locale.Code] = u
	}
	doc["url"] = urls

	for _, cfg := range configs {
		el, ok := item.Element(cfg.Element)
		if !ok {
			t.log.Trace("element not found", "item_id", item.ID, "element", cfg.Element)
			continue
		}

		v, keepNull, err := t.elementValue(ctx, item, tree, el, cfg, depth)
		if err != nil {
			return nil, fmt.Errorf("error mapping element %q of item %d: %w", cfg.Element, item.ID, err)
		}
		if isEmpty(v) && !keepNull {
			continue
		}
		set(doc, cfg.TargetKey(), v)
	}

	if t.hooks.DocumentOverride != nil {
		if override := t.hooks.DocumentOverride(ctx, item, doc); override != nil {
			return override, nil
		}
	}

	return doc, nil
}

// categoryIDs returns the related category ids followed by the ancestors of
// each, without duplicates or zero ids.
func categoryIDs(item *content.Item, tree content.CategoryTree) []int64 {
	seen := make(map[int64]bool)
	ids := make([]int64, 0, len(item.RelatedCategoryIDs))
	add := func(id int64) {
		if id == 0 || seen[id] {
			return
		}
		seen[id] = true
		ids = append(ids, id)
	}

	for _, id := range item.RelatedCategoryIDs {
		add(id)
	}
	for _, id := range item.RelatedCategoryIDs {
		if category, ok := tree[id]; ok {
			for _, ancestor := range category.Pathway {
				add(ancestor)
			}
		}
	}
	return ids
}

// set stores v under key. A dotted key "field.locale" is merged into the
// locale map of field.
func set(doc search.Document, key string, v any) {
	parent, locale, ok := strings.Cut(key, ".")
	if !ok {
		doc[key] = v
		return
	}

	m, ok := doc[parent].(map[string]any)
	if !ok {
		m = make(map[string]any)
		doc[parent] = m
	}
	m[locale] = v
}

func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return s == ""
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
