// Package routing resolves public, per-locale URLs of content items and
// categories from the site's menu routes.
package routing

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/hashicorp-forge/contentsync/pkg/content"
)

const (
	linkOption = "com_zoo"
	linkBase   = "index.php?option=" + linkOption

	// DefaultVariant is the URL variant used when an item has a single
	// canonical URL, or for its primary category.
	DefaultVariant = "default"
)

// RouteSource supplies the site's menu routes.
type RouteSource interface {
	MenuRoutes(ctx context.Context) ([]content.MenuRoute, error)
}

// CategorySource supplies category trees by application.
type CategorySource interface {
	CategoryTree(ctx context.Context, applicationID int64) (content.CategoryTree, error)
}

// Config configures a Resolver.
type Config struct {
	// Index is a prebuilt menu index. When nil the index is built from Routes
	// on first use.
	Index  *MenuIndex
	Routes RouteSource

	Categories CategorySource

	// Router renders raw links; defaults to LinkRouter with no base URL.
	Router Router
	SEO    SEO

	Logger hclog.Logger
}

// Resolver resolves item and category URLs. The menu index and category trees
// it reads are cached for the lifetime of the resolver, so a new resolver is
// needed to observe menu changes.
type Resolver struct {
	routes     RouteSource
	categories CategorySource
	router     Router
	seo        SEO
	log        hclog.Logger

	once     sync.Once
	menu     *MenuIndex
	buildErr error

	mu    sync.Mutex
	trees map[int64]content.CategoryTree
}

// NewResolver creates a Resolver.
func NewResolver(cfg Config) *Resolver {
	r := &Resolver{
		routes:     cfg.Routes,
		categories: cfg.Categories,
		router:     cfg.Router,
		seo:        cfg.SEO,
		log:        cfg.Logger,
		trees:      make(map[int64]content.CategoryTree),
	}
	if r.router == nil {
		r.router = LinkRouter{}
	}
	if r.log == nil {
		r.log = hclog.NewNullLogger()
	}
	if cfg.Index != nil {
		r.menu = cfg.Index
		r.once.Do(func() {})
	}
	return r
}

// Menu returns the menu index, building it on first call. A build error is
// returned on every later call too.
func (r *Resolver) Menu(ctx context.Context) (*MenuIndex, error) {
	r.once.Do(func() {
		if r.routes == nil {
			r.menu = NewMenuIndex(nil)
			return
		}
		routes, err := r.routes.MenuRoutes(ctx)
		if err != nil {
			r.buildErr = fmt.Errorf("error loading menu routes: %w", err)
			return
		}
		r.menu = NewMenuIndex(routes)
		r.log.Debug("built menu index", "routes", r.menu.Len())
	})
	return r.menu, r.buildErr
}

// Tree returns the category tree of an application, reading it once.
func (r *Resolver) Tree(ctx context.Context, applicationID int64) (content.CategoryTree, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if tree, ok := r.trees[applicationID]; ok {
		return tree, nil
	}
	if r.categories == nil {
		return content.CategoryTree{}, nil
	}

	tree, err := r.categories.CategoryTree(ctx, applicationID)
	if err != nil {
		return nil, fmt.Errorf("error loading categories of application %d: %w", applicationID, err)
	}
	if tree == nil {
		tree = content.CategoryTree{}
	}
	r.trees[applicationID] = tree
	return tree, nil
}

// ItemURLs returns the URL variants of item in locale. A directly routed item
// has only the DefaultVariant. Otherwise there is one variant per related
// category keyed by category id, and the primary category's URL is mirrored
// under DefaultVariant.
func (r *Resolver) ItemURLs(
	ctx context.Context, item *content.Item, locale content.Locale) (map[string]string, error) {
	menu, err := r.Menu(ctx)
	if err != nil {
		return nil, err
	}

	if locale.Short == "" {
		return nil, fmt.Errorf("locale %q has no short code", locale.Code)
	}

	// Direct item route.
	if route, ok := menu.Find(Item, item.ID, locale.Code); ok {
		return map[string]string{
			DefaultVariant: r.itemURL(menu, withRoute(withLang(route.Link, locale.Short), route.ID)),
		}, nil
	}

	link := linkBase + "&task=item&item_id=" + strconv.FormatInt(item.ID, 10) + "&lang=" + locale.Short
	frontpage, hasFrontpage := menu.Find(Frontpage, item.ApplicationID, locale.Code)

	if len(item.RelatedCategoryIDs) == 0 {
		if hasFrontpage {
			link = withRoute(link, frontpage.ID)
		}
		return map[string]string{DefaultVariant: r.itemURL(menu, link)}, nil
	}

	tree, err := r.Tree(ctx, item.ApplicationID)
	if err != nil {
		return nil, err
	}

	urls := make(map[string]string, len(item.RelatedCategoryIDs)+1)
	for _, id := range item.RelatedCategoryIDs {
		category, ok := tree[id]
		if id == 0 || !ok {
			urls[DefaultVariant] = r.itemURL(menu, link)
			continue
		}

		categoryLink := link
		if route, ok := r.categoryContext(menu, category, locale.Code); ok {
			categoryLink = withRoute(categoryLink, route.ID)
		}

		u := r.itemURL(menu, categoryLink)
		urls[strconv.FormatInt(id, 10)] = u
		if id == item.PrimaryCategoryID {
			urls[DefaultVariant] = u
		}
	}

	return urls, nil
}

// CategoryURL returns the URL of category in locale.
func (r *Resolver) CategoryURL(
	ctx context.Context, category *content.Category, locale content.Locale) (string, error) {
	menu, err := r.Menu(ctx)
	if err != nil {
		return "", err
	}

	if locale.Short == "" {
		return "", fmt.Errorf("locale %q has no short code", locale.Code)
	}

	if route, ok := menu.Find(Category, category.ID, locale.Code); ok {
		return r.categoryURL(menu, withRoute(withLang(route.Link, locale.Short), route.ID)), nil
	}

	link := linkBase + "&task=category&category_id=" + strconv.FormatInt(category.ID, 10) + "&lang=" + locale.Short
	if route, ok := r.ancestorContext(menu, category, locale.Code); ok {
		link = withRoute(link, route.ID)
	}
	return r.categoryURL(menu, link), nil
}

// categoryContext picks the route an item link is rendered under for
// category: the category's own route, then the nearest routed ancestor, then
// the application frontpage.
func (r *Resolver) categoryContext(menu *MenuIndex, category *content.Category, locale string) (content.MenuRoute, bool) {
	if route, ok := menu.Find(Category, category.ID, locale); ok {
		return route, true
	}
	return r.ancestorContext(menu, category, locale)
}

// ancestorContext returns the route of the nearest routed ancestor of
// category, or the application frontpage.
func (r *Resolver) ancestorContext(menu *MenuIndex, category *content.Category, locale string) (content.MenuRoute, bool) {
	for i := len(category.Pathway) - 1; i >= 0; i-- {
		if route, ok := menu.Find(Category, category.Pathway[i], locale); ok {
			return route, true
		}
	}
	return menu.Find(Frontpage, category.ApplicationID, locale)
}

func (r *Resolver) itemURL(menu *MenuIndex, link string) string {
	return r.seo.ItemURL(r.router.Route(menu, link))
}

func (r *Resolver) categoryURL(menu *MenuIndex, link string) string {
	return r.seo.CategoryURL(r.router.Route(menu, link))
}

// withLang adds the language to a stored menu link unless it already names one.
func withLang(link, short string) string {
	if u, err := url.Parse(link); err == nil && u.Query().Has("lang") {
		return link
	}
	return link + "&lang=" + short
}

func withRoute(link string, routeID int64) string {
	return link + "&Itemid=" + strconv.FormatInt(routeID, 10)
}
