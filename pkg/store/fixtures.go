package store

import (
	"context"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hashicorp-forge/contentsync/pkg/content"
)

// Fixtures is a YAML content bundle.
type Fixtures struct {
	Applications []ApplicationFixture `yaml:"applications"`
	Categories   []CategoryFixture    `yaml:"categories"`
	Items        []ItemFixture        `yaml:"items"`
	MenuRoutes   []MenuRouteFixture   `yaml:"menu_routes"`
}

type ApplicationFixture struct {
	ID    int64  `yaml:"id"`
	Name  string `yaml:"name"`
	Group string `yaml:"group"`
	Types []struct {
		Identifier string `yaml:"identifier"`
		Name       string `yaml:"name"`
	} `yaml:"types"`
}

type CategoryFixture struct {
	ID            int64             `yaml:"id"`
	ApplicationID int64             `yaml:"application_id"`
	ParentID      int64             `yaml:"parent_id"`
	Name          string            `yaml:"name"`
	Names         map[string]string `yaml:"names"`
	TeaserImage   string            `yaml:"teaser_image"`
}

type ItemFixture struct {
	ID                int64           `yaml:"id"`
	ApplicationID     int64           `yaml:"application_id"`
	Type              string          `yaml:"type"`
	Name              string          `yaml:"name"`
	State             string          `yaml:"state"`
	PrimaryCategoryID int64           `yaml:"primary_category_id"`
	Categories        []int64         `yaml:"categories"`
	Tags              []string        `yaml:"tags"`
	Elements          []ElementRecord `yaml:"elements"`
}

type MenuRouteFixture struct {
	ID       int64  `yaml:"id"`
	View     string `yaml:"view"`
	Layout   string `yaml:"layout"`
	TargetID int64  `yaml:"target_id"`
	Locale   string `yaml:"locale"`
	Link     string `yaml:"link"`
	Path     string `yaml:"path"`
}

// ImportResult counts the imported rows.
type ImportResult struct {
	Applications int
	Categories   int
	Items        int
	MenuRoutes   int
}

// ImportFixtures reads a YAML bundle from r and upserts its rows in one
// transaction. Items replace their categories and tags.
func ImportFixtures(ctx context.Context, db *gorm.DB, r io.Reader) (*ImportResult, error) {
	var fx Fixtures
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&fx); err != nil {
		return nil, fmt.Errorf("error parsing fixtures: %w", err)
	}

	res := &ImportResult{}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, a := range fx.Applications {
			if a.ID == 0 || a.Group == "" {
				return fmt.Errorf("application %q needs an id and a group", a.Name)
			}
			if err := upsert(tx).Omit(clause.Associations).Create(&Application{
				ID: a.ID, Name: a.Name, Group: a.Group,
			}).Error; err != nil {
				return fmt.Errorf("error importing application %d: %w", a.ID, err)
			}
			if err := tx.Where("application_id = ?", a.ID).Delete(&ContentType{}).Error; err != nil {
				return err
			}
			for pos, t := range a.Types {
				if err := tx.Create(&ContentType{
					ApplicationID: a.ID, Identifier: t.Identifier, Name: t.Name, Position: pos,
				}).Error; err != nil {
					return fmt.Errorf("error importing type %q of application %d: %w", t.Identifier, a.ID, err)
				}
			}
			res.Applications++
		}

		for _, c := range fx.Categories {
			translations, err := MarshalJSONColumn(c.Names)
			if err != nil {
				return err
			}
			if err := upsert(tx).Create(&Category{
				ID:            c.ID,
				ApplicationID: c.ApplicationID,
				ParentID:      c.ParentID,
				Name:          c.Name,
				TeaserImage:   c.TeaserImage,
				Translations:  translations,
			}).Error; err != nil {
				return fmt.Errorf("error importing category %d: %w", c.ID, err)
			}
			res.Categories++
		}

		for _, i := range fx.Items {
			if err := importItem(tx, i); err != nil {
				return err
			}
			res.Items++
		}

		for _, m := range fx.MenuRoutes {
			locale := m.Locale
			if locale == "" {
				locale = content.WildcardLocale
			}
			if err := upsert(tx).Create(&MenuRoute{
				ID:       m.ID,
				View:     m.View,
				Layout:   m.Layout,
				TargetID: m.TargetID,
				Locale:   locale,
				Link:     m.Link,
				Path:     m.Path,
			}).Error; err != nil {
				return fmt.Errorf("error importing menu route %d: %w", m.ID, err)
			}
			res.MenuRoutes++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func upsert(tx *gorm.DB) *gorm.DB {
	return tx.Clauses(clause.OnConflict{UpdateAll: true})
}

func importItem(tx *gorm.DB, fx ItemFixture) error {
	state := fx.State
	if state == "" {
		state = content.Published.String()
	}
	if _, ok := content.ParsePublishedState(state); !ok {
		return fmt.Errorf("item %d has unknown state %q", fx.ID, fx.State)
	}

	// Decoding validates the element payloads before they are stored.
	elements, err := decodeRecords(fx.Elements)
	if err != nil {
		return fmt.Errorf("item %d: %w", fx.ID, err)
	}
	encoded, err := EncodeElements(elements)
	if err != nil {
		return fmt.Errorf("item %d: %w", fx.ID, err)
	}

	if err := upsert(tx).Omit(clause.Associations).Create(&Item{
		ID:                fx.ID,
		ApplicationID:     fx.ApplicationID,
		TypeIdentifier:    fx.Type,
		Name:              fx.Name,
		State:             state,
		PrimaryCategoryID: fx.PrimaryCategoryID,
		Elements:          encoded,
	}).Error; err != nil {
		return fmt.Errorf("error importing item %d: %w", fx.ID, err)
	}

	if err := tx.Where("item_id = ?", fx.ID).Delete(&ItemCategory{}).Error; err != nil {
		return err
	}
	if err := tx.Where("item_id = ?", fx.ID).Delete(&ItemTag{}).Error; err != nil {
		return err
	}
	for _, id := range fx.Categories {
		if err := tx.Create(&ItemCategory{ItemID: fx.ID, CategoryID: id}).Error; err != nil {
			return fmt.Errorf("error relating item %d to category %d: %w", fx.ID, id, err)
		}
	}
	for _, tag := range fx.Tags {
		if err := tx.Create(&ItemTag{ItemID: fx.ID, Name: tag}).Error; err != nil {
			return fmt.Errorf("error tagging item %d: %w", fx.ID, err)
		}
	}
	return nil
}
