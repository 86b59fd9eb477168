package transform

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp-forge/contentsync/pkg/content"
	"github.com/hashicorp-forge/contentsync/pkg/search"
)

// elementValue maps one element. keepNull reports that an empty result must
// still be written to the document as null.
func (t *Transformer) elementValue(
	ctx context.Context,
	item *content.Item,
	tree content.CategoryTree,
	el content.Element,
	cfg content.ElementConfig,
	depth int,
) (v any, keepNull bool, err error) {
	if t.hooks.BeforeElement != nil {
		if v, ok := t.hooks.BeforeElement(ctx, item, el, cfg); ok && v != nil {
			return v, false, nil
		}
	}

	switch el := el.(type) {
	case *content.ItemName:
		return item.Name, false, nil

	case *content.PrimaryCategory:
		category, ok := tree[item.PrimaryCategoryID]
		if !ok {
			return nil, false, nil
		}
		doc, err := t.categoryDocument(ctx, tree, category, true)
		return doc, false, err

	case *content.Text:
		values := make([]string, 0, len(el.Values))
		for _, raw := range el.Values {
			if s := truncate(stripTags(raw), cfg.MaxLength, cfg.Suffix); s != "" {
				values = append(values, s)
			}
		}
		return collapse(values, el.Repeatable, cfg.Limit), false, nil

	case *content.ItemCategory:
		docs := make([]map[string]any, 0, len(item.RelatedCategoryIDs))
		for _, id := range item.RelatedCategoryIDs {
			category, ok := tree[id]
			if !ok {
				continue
			}
			doc, err := t.categoryDocument(ctx, tree, category, true)
			if err != nil {
				return nil, false, err
			}
			docs = append(docs, doc)
		}
		return docs, false, nil

	case *content.File:
		paths := t.filePaths(ctx, item, el)
		if len(paths) == 0 {
			return nil, true, nil
		}
		if el.Repeatable {
			return paths, true, nil
		}
		return paths[0], true, nil

	case *content.RelatedItems:
		docs, err := t.relatedItems(ctx, el, depth)
		return docs, false, err

	case *content.OptionSet:
		names := make([]string, 0, len(el.Selected))
		for _, option := range el.Options {
			for _, selected := range el.Selected {
				if option.Value == selected {
					names = append(names, option.Name)
					break
				}
			}
		}
		values := append([]string{}, el.Selected...)
		return map[string]any{"values": values, "names": names}, false, nil

	case *content.Repeatable:
		values := make([]string, 0, len(el.Values))
		for _, s := range el.Values {
			if s != "" {
				values = append(values, s)
			}
		}
		return collapse(values, el.Repeatable, cfg.Limit), false, nil

	case *content.ItemTag:
		return append([]string{}, item.Tags...), false, nil

	case *content.Raw:
		if !isEmpty(el.Value) {
			return el.Value, false, nil
		}
	}

	if t.hooks.ElementFallback != nil {
		if v, ok := t.hooks.ElementFallback(ctx, item, el); ok {
			return v, false, nil
		}
	}
	return nil, false, nil
}

// collapse returns the first value unless the element is repeatable and not
// limited to one value. A limit above one caps the list.
func collapse(values []string, repeatable bool, limit int) any {
	if repeatable && limit != 1 {
		if limit > 1 && len(values) > limit {
			values = values[:limit]
		}
		return values
	}
	if len(values) == 0 {
		return nil
	}
	return values[0]
}

// filePaths returns the site-absolute paths of el's files. Images are
// replaced by their thumbnails; an image that cannot be resized keeps its
// stored path.
func (t *Transformer) filePaths(ctx context.Context, item *content.Item, el *content.File) []string {
	paths := make([]string, 0, len(el.Files))
	for _, file := range el.Files {
		file = strings.TrimLeft(file, "/")
		if file == "" {
			continue
		}
		if el.Image && t.thumbnails != nil {
			thumb, err := t.thumbnails.Thumbnail(ctx, file)
			if err != nil {
				t.log.Warn("error creating thumbnail",
					"item_id", item.ID,
					"file", file,
					"error", err,
				)
			} else {
				file = thumb
			}
		}
		paths = append(paths, "/"+file)
	}
	return paths
}

// relatedItems maps the published related items of el. Below the maximum
// depth items are fully transformed and excluded items skipped; at the
// maximum depth only their ids are kept.
func (t *Transformer) relatedItems(ctx context.Context, el *content.RelatedItems, depth int) ([]search.Document, error) {
	if len(el.ItemIDs) == 0 || t.items == nil {
		return nil, nil
	}

	items, err := t.items.ItemsByIDs(ctx, el.ItemIDs)
	if err != nil {
		return nil, fmt.Errorf("error loading related items: %w", err)
	}

	// Keep the order the element lists the items in.
	byID := make(map[int64]*content.Item, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}

	docs := make([]search.Document, 0, len(items))
	for _, id := range el.ItemIDs {
		related, ok := byID[id]
		if !ok {
			continue
		}
		delete(byID, id)

		if !related.IsPublished() {
			continue
		}

		if depth+1 > t.maxDepth {
			docs = append(docs, search.Document{search.IDField: related.ID})
			continue
		}

		doc, err := t.transform(ctx, related, depth+1)
		if err != nil {
			return nil, err
		}
		if doc != nil {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

// categoryDocument describes category with its localized names and URLs.
// withPath adds the non-recursive documents of its ancestors, root first.
func (t *Transformer) categoryDocument(
	ctx context.Context, tree content.CategoryTree, category *content.Category, withPath bool) (map[string]any, error) {
	names := make(map[string]string, len(t.locales))
	urls := make(map[string]string, len(t.locales))
	for _, locale := range t.locales {
		names[locale.Code] = category.LocalizedName(locale.Code)

		u, err := t.resolver.CategoryURL(ctx, category, locale)
		if err != nil {
			return nil, fmt.Errorf("error resolving url of category %d: %w", category.ID, err)
		}
		urls[locale.Code] = u
	}

	var image any
	if category.TeaserImage != "" {
		image = "/" + strings.TrimLeft(category.TeaserImage, "/")
	}

	doc := map[string]any{
		"id":    category.ID,
		"name":  names,
		"url":   urls,
		"image": image,
	}

	if withPath {
		path := make([]map[string]any, 0, len(category.Pathway))
		for _, id := range category.Pathway {
			ancestor, ok := tree[id]
			if !ok {
				continue
			}
			ancestorDoc, err := t.categoryDocument(ctx, tree, ancestor, false)
			if err != nil {
				return nil, err
			}
			path = append(path, ancestorDoc)
		}
		doc["path"] = path
	}

	return doc, nil
}
