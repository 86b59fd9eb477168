package content

// Element is one typed field of an item. The set of variants is closed: only
// types in this package implement it.
type Element interface {
	Key() string
	element()
}

// ElementKind names an element variant in storage.
type ElementKind string

const (
	KindItemName        ElementKind = "itemname"
	KindPrimaryCategory ElementKind = "itemprimarycategory"
	KindText            ElementKind = "text"
	KindTextarea        ElementKind = "textarea"
	KindItemCategory    ElementKind = "itemcategory"
	KindFile            ElementKind = "file"
	KindImage           ElementKind = "image"
	KindRelatedItems    ElementKind = "relateditems"
	KindOption          ElementKind = "option"
	KindRepeatable      ElementKind = "repeatable"
	KindItemTag         ElementKind = "itemtag"
)

type base struct {
	ElementKey string `mapstructure:"-"`
}

// Key returns the element key.
func (b base) Key() string { return b.ElementKey }

func (base) element() {}

// ItemName maps to the owning item's display name.
type ItemName struct{ base }

// PrimaryCategory maps to the owning item's primary category.
type PrimaryCategory struct{ base }

// Text holds rich text or textarea values.
type Text struct {
	base
	Values     []string `mapstructure:"values"`
	Repeatable bool     `mapstructure:"repeatable"`
}

// ItemCategory maps to all categories related to the owning item.
type ItemCategory struct{ base }

// File holds file paths relative to the site root. Image marks image
// elements, which are thumbnailed before indexing.
type File struct {
	base
	Files      []string `mapstructure:"files"`
	Image      bool     `mapstructure:"image"`
	Repeatable bool     `mapstructure:"repeatable"`
}

// RelatedItems references other items by id.
type RelatedItems struct {
	base
	ItemIDs []int64 `mapstructure:"item_ids"`
}

// Option is one choice of an option set.
type Option struct {
	Name  string `mapstructure:"name"`
	Value string `mapstructure:"value"`
}

// OptionSet holds the selected values out of the declared options.
type OptionSet struct {
	base
	Selected []string `mapstructure:"selected"`
	Options  []Option `mapstructure:"options"`
}

// Repeatable is a generic scalar element that may hold several values.
type Repeatable struct {
	base
	Values     []string `mapstructure:"values"`
	Repeatable bool     `mapstructure:"repeatable"`
}

// ItemTag maps to the owning item's tags.
type ItemTag struct{ base }

// Raw is any element kind without a dedicated mapping. Kind keeps the stored
// kind name for extension hooks.
type Raw struct {
	base
	Kind  ElementKind `mapstructure:"-"`
	Value any         `mapstructure:"value"`
}

// NewItemName returns an ItemName element.
func NewItemName(key string) *ItemName { return &ItemName{base{key}} }

// NewPrimaryCategory returns a PrimaryCategory element.
func NewPrimaryCategory(key string) *PrimaryCategory { return &PrimaryCategory{base{key}} }

// NewText returns a Text element.
func NewText(key string, repeatable bool, values ...string) *Text {
	return &Text{base: base{key}, Values: values, Repeatable: repeatable}
}

// NewItemCategory returns an ItemCategory element.
func NewItemCategory(key string) *ItemCategory { return &ItemCategory{base{key}} }

// NewFile returns a File element.
func NewFile(key string, image, repeatable bool, files ...string) *File {
	return &File{base: base{key}, Files: files, Image: image, Repeatable: repeatable}
}

// NewRelatedItems returns a RelatedItems element.
func NewRelatedItems(key string, ids ...int64) *RelatedItems {
	return &RelatedItems{base: base{key}, ItemIDs: ids}
}

// NewOptionSet returns an OptionSet element.
func NewOptionSet(key string, options []Option, selected ...string) *OptionSet {
	return &OptionSet{base: base{key}, Options: options, Selected: selected}
}

// NewRepeatable returns a Repeatable element.
func NewRepeatable(key string, repeatable bool, values ...string) *Repeatable {
	return &Repeatable{base: base{key}, Values: values, Repeatable: repeatable}
}

// NewItemTag returns an ItemTag element.
func NewItemTag(key string) *ItemTag { return &ItemTag{base{key}} }

// NewRaw returns a Raw element.
func NewRaw(key string, kind ElementKind, value any) *Raw {
	return &Raw{base: base{key}, Kind: kind, Value: value}
}

// ElementConfig declares how one element is copied into search documents.
type ElementConfig struct {
	// Element is the key of the source element.
	Element string

	// Alias renames the target field. A dotted alias such as "body.en-GB"
	// writes into the "en-GB" entry of the "body" field.
	Alias string

	// MaxLength truncates text values when positive; Suffix is appended to
	// truncated values.
	MaxLength int
	Suffix    string

	// Limit caps repeatable values. 1 collapses them to a single value.
	Limit int
}

// TargetKey returns the document field the element is written to.
func (c ElementConfig) TargetKey() string {
	if c.Alias != "" {
		return c.Alias
	}
	return c.Element
}
