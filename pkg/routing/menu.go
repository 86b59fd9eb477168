package routing

import (
	"github.com/hashicorp-forge/contentsync/pkg/content"
)

// Bucket is a group of menu routes in a MenuIndex.
type Bucket int

const (
	Frontpage Bucket = iota
	Category
	Item
	Submission
	OtherSubmission
)

// String returns the bucket name.
func (b Bucket) String() string {
	switch b {
	case Frontpage:
		return "frontpage"
	case Category:
		return "category"
	case Item:
		return "item"
	case Submission:
		return "submission"
	case OtherSubmission:
		return "mysubmissions"
	default:
		return "unknown"
	}
}

// submissionLayout is the layout of routes rendering the public submission
// form; other submission layouts go to OtherSubmission.
const submissionLayout = "submission"

// MenuIndex is an immutable lookup of menu routes by bucket, target id and
// locale.
type MenuIndex struct {
	routes map[Bucket]map[int64]map[string]content.MenuRoute
	byID   map[int64]content.MenuRoute
	size   int
}

// NewMenuIndex builds an index from routes. Routes with an unknown view are
// ignored; a later route for the same bucket, target and locale replaces an
// earlier one.
func NewMenuIndex(routes []content.MenuRoute) *MenuIndex {
	m := &MenuIndex{
		routes: make(map[Bucket]map[int64]map[string]content.MenuRoute),
		byID:   make(map[int64]content.MenuRoute),
	}

	for _, r := range routes {
		bucket, ok := bucketFor(r)
		if !ok {
			continue
		}

		locale := r.Locale
		if locale == "" {
			locale = content.WildcardLocale
		}

		byTarget, ok := m.routes[bucket]
		if !ok {
			byTarget = make(map[int64]map[string]content.MenuRoute)
			m.routes[bucket] = byTarget
		}
		byLocale, ok := byTarget[r.TargetID]
		if !ok {
			byLocale = make(map[string]content.MenuRoute)
			byTarget[r.TargetID] = byLocale
		}
		if _, dup := byLocale[locale]; !dup {
			m.size++
		}
		byLocale[locale] = r
		m.byID[r.ID] = r
	}

	return m
}

func bucketFor(r content.MenuRoute) (Bucket, bool) {
	switch r.View {
	case content.ViewFrontpage:
		return Frontpage, true
	case content.ViewCategory:
		return Category, true
	case content.ViewItem:
		return Item, true
	case content.ViewSubmission:
		if r.Layout == submissionLayout {
			return Submission, true
		}
		return OtherSubmission, true
	}
	return 0, false
}

// Find returns the route for target in locale, falling back to the wildcard
// locale.
func (m *MenuIndex) Find(bucket Bucket, targetID int64, locale string) (content.MenuRoute, bool) {
	if m == nil {
		return content.MenuRoute{}, false
	}

	byLocale, ok := m.routes[bucket][targetID]
	if !ok {
		return content.MenuRoute{}, false
	}
	if r, ok := byLocale[locale]; ok {
		return r, true
	}
	r, ok := byLocale[content.WildcardLocale]
	return r, ok
}

// ByID returns the indexed route with the given route id.
func (m *MenuIndex) ByID(id int64) (content.MenuRoute, bool) {
	if m == nil {
		return content.MenuRoute{}, false
	}
	r, ok := m.byID[id]
	return r, ok
}

// Len returns the number of indexed routes.
func (m *MenuIndex) Len() int {
	if m == nil {
		return 0
	}
	return m.size
}
