// Package store implements the content source on top of a gorm database.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-hclog"
	"gorm.io/gorm"

	"github.com/hashicorp-forge/contentsync/pkg/content"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Store reads content from the database. It implements content.Source.
type Store struct {
	db  *gorm.DB
	log hclog.Logger
}

var _ content.Source = (*Store)(nil)

// New creates a Store.
func New(db *gorm.DB, log hclog.Logger) *Store {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Store{db: db, log: log.Named("store")}
}

// DB returns the underlying connection.
func (s *Store) DB() *gorm.DB {
	return s.db
}

func preloadTypes(db *gorm.DB) *gorm.DB {
	return db.Order("position, id")
}

// Applications returns all applications ordered by id.
func (s *Store) Applications(ctx context.Context) ([]*content.Application, error) {
	var rows []Application
	if err := s.db.WithContext(ctx).
		Preload("Types", preloadTypes).
		Order("id").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("error loading applications: %w", err)
	}

	apps := make([]*content.Application, 0, len(rows))
	for i := range rows {
		apps = append(apps, rows[i].toContent())
	}
	return apps, nil
}

// Application returns the application with id.
func (s *Store) Application(ctx context.Context, id int64) (*content.Application, error) {
	var row Application
	err := s.db.WithContext(ctx).
		Preload("Types", preloadTypes).
		First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("application %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("error loading application %d: %w", id, err)
	}
	return row.toContent(), nil
}

// items preloads item relations in a stable order: categories by id, tags by
// name.
func (s *Store) items(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Preload("Categories", func(db *gorm.DB) *gorm.DB { return db.Order("category_id") }).
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("name") })
}

// Item returns the item with id.
func (s *Store) Item(ctx context.Context, id int64) (*content.Item, error) {
	var row Item
	err := s.items(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("item %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("error loading item %d: %w", id, err)
	}
	return row.toContent()
}

// ItemsByIDs returns the existing items among ids, ordered by id.
func (s *Store) ItemsByIDs(ctx context.Context, ids []int64) ([]*content.Item, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var rows []Item
	if err := s.items(ctx).Where("id IN ?", ids).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("error loading items: %w", err)
	}
	return toContentItems(rows)
}

// ItemsByType returns the items of one type in an application, ordered by id.
func (s *Store) ItemsByType(ctx context.Context, applicationID int64, typeID string) ([]*content.Item, error) {
	var rows []Item
	if err := s.items(ctx).
		Where("application_id = ? AND type_identifier = ?", applicationID, typeID).
		Order("id").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("error loading items of type %q in application %d: %w", typeID, applicationID, err)
	}
	return toContentItems(rows)
}

func toContentItems(rows []Item) ([]*content.Item, error) {
	items := make([]*content.Item, 0, len(rows))
	for i := range rows {
		item, err := rows[i].toContent()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// CategoryTree returns every category of an application with its pathway.
func (s *Store) CategoryTree(ctx context.Context, applicationID int64) (content.CategoryTree, error) {
	var rows []Category
	if err := s.db.WithContext(ctx).
		Where("application_id = ?", applicationID).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("error loading categories of application %d: %w", applicationID, err)
	}

	tree := make(content.CategoryTree, len(rows))
	for i := range rows {
		cat, err := rows[i].toContent()
		if err != nil {
			return nil, err
		}
		tree[cat.ID] = cat
	}
	for _, cat := range tree {
		var complete bool
		cat.Pathway, complete = pathway(tree, cat)
		if !complete {
			s.log.Warn("category has a broken parent chain", "category_id", cat.ID)
		}
	}
	return tree, nil
}

// pathway walks the parent chain of cat, root first. The walk stops at a
// missing parent or a cycle, reported by complete == false.
func pathway(tree content.CategoryTree, cat *content.Category) (path []int64, complete bool) {
	seen := map[int64]bool{cat.ID: true}
	for parent := cat.ParentID; parent != 0; {
		p, ok := tree[parent]
		if !ok || seen[parent] {
			return path, false
		}
		seen[parent] = true
		path = append([]int64{parent}, path...)
		parent = p.ParentID
	}
	return path, true
}

// MenuRoutes returns all menu routes ordered by id.
func (s *Store) MenuRoutes(ctx context.Context) ([]content.MenuRoute, error) {
	var rows []MenuRoute
	if err := s.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("error loading menu routes: %w", err)
	}

	routes := make([]content.MenuRoute, 0, len(rows))
	for i := range rows {
		routes = append(routes, rows[i].toContent())
	}
	return routes, nil
}
