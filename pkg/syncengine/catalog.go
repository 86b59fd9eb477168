package syncengine

import (
	"sync"

	"github.com/hashicorp-forge/contentsync/pkg/content"
)

// TypeConfig is the search configuration of one content type.
type TypeConfig struct {
	// Index is the remote index name.
	Index string

	// Elements lists the elements copied into documents, in order.
	Elements []content.ElementConfig
}

// Catalog resolves type configurations by application. Configurations are
// declared per application group and content type identifier.
type Catalog struct {
	groups map[string]map[string]TypeConfig

	mu   sync.RWMutex
	apps map[int64]*content.Application
}

// NewCatalog creates a Catalog from configurations keyed by application
// group and type identifier.
func NewCatalog(groups map[string]map[string]TypeConfig, apps ...*content.Application) *Catalog {
	c := &Catalog{
		groups: groups,
		apps:   make(map[int64]*content.Application),
	}
	for _, app := range apps {
		c.Register(app)
	}
	return c
}

// Register makes app known to the catalog.
func (c *Catalog) Register(app *content.Application) {
	if app == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.apps[app.ID] = app
}

// Application returns a registered application.
func (c *Catalog) Application(id int64) (*content.Application, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	app, ok := c.apps[id]
	return app, ok
}

// TypeConfig returns the configuration of typeID in app's group.
func (c *Catalog) TypeConfig(app *content.Application, typeID string) (TypeConfig, bool) {
	if app == nil {
		return TypeConfig{}, false
	}
	tc, ok := c.groups[app.Group][typeID]
	return tc, ok
}

// ElementConfigs returns the element configuration of a type. Unknown
// applications and types have none.
func (c *Catalog) ElementConfigs(applicationID int64, typeID string) []content.ElementConfig {
	app, ok := c.Application(applicationID)
	if !ok {
		return nil
	}
	tc, _ := c.TypeConfig(app, typeID)
	return tc.Elements
}
