// Package content holds the read-only model of the CMS content store: items,
// their typed elements, categories, applications and menu routes.
package content

import "context"

// WildcardLocale matches any locale in menu routes.
const WildcardLocale = "*"

// PublishedState is the publication state of a content item.
type PublishedState int

const (
	Unpublished PublishedState = iota
	Published
	Archived
	Trashed
)

// String returns the state name.
func (s PublishedState) String() string {
	switch s {
	case Unpublished:
		return "unpublished"
	case Published:
		return "published"
	case Archived:
		return "archived"
	case Trashed:
		return "trashed"
	default:
		return "unknown"
	}
}

// ParsePublishedState parses a state name as produced by String.
func ParsePublishedState(s string) (PublishedState, bool) {
	switch s {
	case "unpublished":
		return Unpublished, true
	case "published":
		return Published, true
	case "archived":
		return Archived, true
	case "trashed":
		return Trashed, true
	}
	return Unpublished, false
}

// Item is one unit of structured content.
type Item struct {
	ID                 int64
	Name               string
	State              PublishedState
	ApplicationID      int64
	TypeID             string
	Elements           []Element
	RelatedCategoryIDs []int64
	PrimaryCategoryID  int64
	Tags               []string
}

// IsPublished reports whether the item is publicly visible.
func (i *Item) IsPublished() bool {
	return i.State == Published
}

// Element returns the element stored under key.
func (i *Item) Element(key string) (Element, bool) {
	for _, el := range i.Elements {
		if el.Key() == key {
			return el, true
		}
	}
	return nil, false
}

// Category is a node of an application's category tree.
type Category struct {
	ID            int64
	ApplicationID int64
	ParentID      int64
	Name          string

	// Names holds translated names keyed by locale code.
	Names map[string]string

	// Pathway lists ancestor ids, root first. The category itself is not
	// included.
	Pathway []int64

	TeaserImage string
}

// LocalizedName returns the translated name for locale, or the base name.
func (c *Category) LocalizedName(locale string) string {
	if name, ok := c.Names[locale]; ok && name != "" {
		return name
	}
	return c.Name
}

// CategoryTree maps category ids to categories of one application.
type CategoryTree map[int64]*Category

// Type is a content type of an application.
type Type struct {
	Identifier string
	Name       string
}

// Application groups items and categories; its Group selects the sync
// configuration.
type Application struct {
	ID    int64
	Name  string
	Group string
	Types []Type
}

// Locale is a configured content locale.
type Locale struct {
	// Code is the full locale code, e.g. "en-GB".
	Code string

	// Short is the URL language code, e.g. "en".
	Short string

	Title string
}

// Source is the read side of the content store.
type Source interface {
	Applications(ctx context.Context) ([]*Application, error)
	Application(ctx context.Context, id int64) (*Application, error)
	Item(ctx context.Context, id int64) (*Item, error)
	ItemsByIDs(ctx context.Context, ids []int64) ([]*Item, error)
	ItemsByType(ctx context.Context, applicationID int64, typeID string) ([]*Item, error)
	CategoryTree(ctx context.Context, applicationID int64) (CategoryTree, error)
	MenuRoutes(ctx context.Context) ([]MenuRoute, error)
}
