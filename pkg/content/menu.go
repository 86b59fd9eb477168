package content

// View is the kind of page a menu route renders.
type View string

const (
	ViewFrontpage  View = "frontpage"
	ViewCategory   View = "category"
	ViewItem       View = "item"
	ViewSubmission View = "submission"
)

// MenuRoute is a published site navigation entry bound to content.
type MenuRoute struct {
	// ID is the route identifier appended to synthesised links.
	ID int64

	View   View
	Layout string

	// TargetID is the application id for frontpage routes, the category id
	// for category routes, the item id for item routes and the submission id
	// for submission routes.
	TargetID int64

	// Locale is a content locale code or WildcardLocale.
	Locale string

	// Link is the raw link the route points at.
	Link string

	// Path is the public path of the route, e.g. "blog/news".
	Path string
}
