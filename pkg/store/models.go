package store

import (
	"fmt"

	"github.com/hashicorp-forge/contentsync/pkg/content"
)

func modelsToAutoMigrate() []interface{} {
	return []interface{}{
		&Application{},
		&ContentType{},
		&Category{},
		&Item{},
		&ItemCategory{},
		&ItemTag{},
		&MenuRoute{},
	}
}

// Application is a content application row.
type Application struct {
	ID   int64  `gorm:"primaryKey;autoIncrement:false"`
	Name string `gorm:"not null"`

	// Group selects the sync configuration of the application.
	Group string `gorm:"column:app_group;not null;index"`

	Types []ContentType `gorm:"foreignKey:ApplicationID"`
}

func (Application) TableName() string {
	return "applications"
}

// ContentType is a content type declared by an application.
type ContentType struct {
	ID            uint   `gorm:"primaryKey"`
	ApplicationID int64  `gorm:"not null;uniqueIndex:idx_content_types_app_identifier"`
	Identifier    string `gorm:"not null;uniqueIndex:idx_content_types_app_identifier"`
	Name          string
	Position      int
}

func (ContentType) TableName() string {
	return "content_types"
}

// Category is a category row. ParentID 0 marks a root category.
type Category struct {
	ID            int64 `gorm:"primaryKey;autoIncrement:false"`
	ApplicationID int64 `gorm:"not null;index"`
	ParentID      int64 `gorm:"not null;default:0"`
	Name          string
	TeaserImage   string

	// Translations maps locale codes to translated names.
	Translations JSON `gorm:"type:text"`
}

func (Category) TableName() string {
	return "categories"
}

// Item is a content item row. Elements holds the encoded element list, see
// EncodeElements.
type Item struct {
	ID                int64  `gorm:"primaryKey;autoIncrement:false"`
	ApplicationID     int64  `gorm:"not null;index:idx_items_app_type"`
	TypeIdentifier    string `gorm:"not null;index:idx_items_app_type"`
	Name              string
	State             string `gorm:"not null"`
	PrimaryCategoryID int64
	Elements          JSON `gorm:"type:text"`

	Categories []ItemCategory `gorm:"foreignKey:ItemID"`
	Tags       []ItemTag      `gorm:"foreignKey:ItemID"`
}

func (Item) TableName() string {
	return "items"
}

// ItemCategory relates an item to a category.
type ItemCategory struct {
	ItemID     int64 `gorm:"primaryKey;autoIncrement:false"`
	CategoryID int64 `gorm:"primaryKey;autoIncrement:false"`
}

func (ItemCategory) TableName() string {
	return "item_categories"
}

// ItemTag attaches a tag to an item.
type ItemTag struct {
	ItemID int64  `gorm:"primaryKey;autoIncrement:false"`
	Name   string `gorm:"primaryKey"`
}

func (ItemTag) TableName() string {
	return "item_tags"
}

// MenuRoute is a site menu entry pointing at content.
type MenuRoute struct {
	ID       int64  `gorm:"primaryKey;autoIncrement:false"`
	View     string `gorm:"not null"`
	Layout   string
	TargetID int64
	Locale   string `gorm:"not null;default:'*'"`
	Link     string
	Path     string
}

func (MenuRoute) TableName() string {
	return "menu_routes"
}

func (a *Application) toContent() *content.Application {
	app := &content.Application{
		ID:    a.ID,
		Name:  a.Name,
		Group: a.Group,
		Types: make([]content.Type, 0, len(a.Types)),
	}
	for _, t := range a.Types {
		app.Types = append(app.Types, content.Type{Identifier: t.Identifier, Name: t.Name})
	}
	return app
}

func (c *Category) toContent() (*content.Category, error) {
	cat := &content.Category{
		ID:            c.ID,
		ApplicationID: c.ApplicationID,
		ParentID:      c.ParentID,
		Name:          c.Name,
		TeaserImage:   c.TeaserImage,
	}
	if err := c.Translations.Unmarshal(&cat.Names); err != nil {
		return nil, fmt.Errorf("error decoding translations of category %d: %w", c.ID, err)
	}
	return cat, nil
}

func (i *Item) toContent() (*content.Item, error) {
	state, ok := content.ParsePublishedState(i.State)
	if !ok {
		return nil, fmt.Errorf("item %d has unknown state %q", i.ID, i.State)
	}

	elements, err := DecodeElements(i.Elements)
	if err != nil {
		return nil, fmt.Errorf("error decoding elements of item %d: %w", i.ID, err)
	}

	item := &content.Item{
		ID:                i.ID,
		Name:              i.Name,
		State:             state,
		ApplicationID:     i.ApplicationID,
		TypeID:            i.TypeIdentifier,
		Elements:          elements,
		PrimaryCategoryID: i.PrimaryCategoryID,
	}
	for _, c := range i.Categories {
		item.RelatedCategoryIDs = append(item.RelatedCategoryIDs, c.CategoryID)
	}
	for _, t := range i.Tags {
		item.Tags = append(item.Tags, t.Name)
	}
	return item, nil
}

func (r *MenuRoute) toContent() content.MenuRoute {
	locale := r.Locale
	if locale == "" {
		locale = content.WildcardLocale
	}
	return content.MenuRoute{
		ID:       r.ID,
		View:     content.View(r.View),
		Layout:   r.Layout,
		TargetID: r.TargetID,
		Locale:   locale,
		Link:     r.Link,
		Path:     r.Path,
	}
}
