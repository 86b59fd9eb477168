package routing

import (
	"net/url"
	"path"
	"strconv"
	"strings"
)

// Router turns a raw CMS link into a public URL. The menu index is the one
// the link was resolved against.
type Router interface {
	Route(menu *MenuIndex, link string) string
}

// RouterFunc adapts a function to Router.
type RouterFunc func(menu *MenuIndex, link string) string

// Route calls f(menu, link).
func (f RouterFunc) Route(menu *MenuIndex, link string) string { return f(menu, link) }

// LinkRouter joins raw links onto the site base URL.
type LinkRouter struct {
	BaseURL string
}

// Route returns link resolved against the base URL.
func (r LinkRouter) Route(_ *MenuIndex, link string) string {
	return joinBase(r.BaseURL, link)
}

// SEFRouter renders component links as search engine friendly paths:
// "/<lang>/<menu path>/item/<id>" for items and
// "/<lang>/<menu path>/category/<id>" for categories. A link that points at a
// menu route without a task renders as the route's own path. Links it cannot
// parse fall back to LinkRouter.
type SEFRouter struct {
	BaseURL string
}

// Route returns the SEF URL of link.
func (r SEFRouter) Route(menu *MenuIndex, link string) string {
	u, err := url.Parse(link)
	if err != nil || u.Query().Get("option") != linkOption {
		return LinkRouter(r).Route(menu, link)
	}

	q := u.Query()
	segments := []string{q.Get("lang")}

	if id, err := strconv.ParseInt(q.Get("Itemid"), 10, 64); err == nil {
		if route, ok := menu.ByID(id); ok {
			segments = append(segments, route.Path)
		}
	}

	switch q.Get("task") {
	case "item":
		segments = append(segments, "item", q.Get("item_id"))
	case "category":
		segments = append(segments, "category", q.Get("category_id"))
	}

	var parts []string
	for _, s := range segments {
		if s = strings.Trim(s, "/"); s != "" {
			parts = append(parts, s)
		}
	}
	return joinBase(r.BaseURL, path.Join(parts...))
}

func joinBase(base, link string) string {
	if base == "" {
		return "/" + strings.TrimLeft(link, "/")
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(link, "/")
}

// SEO rewrites generated URLs the way the site's SEO extension does.
type SEO struct {
	// RemoveItem drops the "/item/" path infix from item URLs.
	RemoveItem bool

	// RemoveCategory drops the "/category/" path infix from category URLs.
	RemoveCategory bool
}

// ItemURL applies the item rewrite.
func (s SEO) ItemURL(u string) string {
	if !s.RemoveItem {
		return u
	}
	return strings.ReplaceAll(u, "/item/", "/")
}

// CategoryURL applies the category rewrite.
func (s SEO) CategoryURL(u string) string {
	if !s.RemoveCategory {
		return u
	}
	return strings.ReplaceAll(u, "/category/", "/")
}
