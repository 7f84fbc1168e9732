package domain

import "time"

// ItemKind names an entity type that may appear inside a collection.
type ItemKind string

const (
	KindProduct    ItemKind = "product"
	KindCollection ItemKind = "collection"
)

// CatalogItem is the narrow read-only shape sections need from anything placed
// in a collection.
type CatalogItem interface {
	Kind() ItemKind
	DisplayTitle() string
	URLSlug() string
	PreviewImage() string
	ListPrice() (float64, bool)
}

// Product is a sellable item.
type Product struct {
	ID              string    `json:"id"`
	Slug            string    `json:"slug"`
	Title           string    `json:"title"`
	Excerpt         string    `json:"excerpt"`
	Description     string    `json:"description"`
	Price           float64   `json:"price"`
	Image           string    `json:"image"`
	MetaTitle       string    `json:"metaTitle"`
	MetaDescription string    `json:"metaDescription"`
	MetaKeywords    string    `json:"metaKeywords"`
	IsActive        bool      `json:"isActive"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func (p *Product) Kind() ItemKind             { return KindProduct }
func (p *Product) DisplayTitle() string       { return p.Title }
func (p *Product) URLSlug() string            { return p.Slug }
func (p *Product) PreviewImage() string       { return p.Image }
func (p *Product) ListPrice() (float64, bool) { return p.Price, true }

// ContextMap exposes the product to templates and the SEO cascade.
func (p *Product) ContextMap() map[string]any {
	m := map[string]any{
		"id":          p.ID,
		"slug":        p.Slug,
		"title":       p.Title,
		"excerpt":     p.Excerpt,
		"description": p.Description,
		"price":       p.Price,
		"image":       p.Image,
		"isActive":    p.IsActive,
	}
	setIfNotEmpty(m, "metaTitle", p.MetaTitle)
	setIfNotEmpty(m, "metaDescription", p.MetaDescription)
	setIfNotEmpty(m, "metaKeywords", p.MetaKeywords)
	return m
}

// Collection groups catalog items of any permitted kind.
type Collection struct {
	ID          string        `json:"id"`
	Slug        string        `json:"slug"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Image       string        `json:"image"`
	IsPublished bool          `json:"isPublished"`
	Items       []CatalogItem `json:"-"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

func (c *Collection) Kind() ItemKind             { return KindCollection }
func (c *Collection) DisplayTitle() string       { return c.Title }
func (c *Collection) URLSlug() string            { return c.Slug }
func (c *Collection) PreviewImage() string       { return c.Image }
func (c *Collection) ListPrice() (float64, bool) { return 0, false }

// ContextMap exposes the collection and its resolved items.
func (c *Collection) ContextMap() map[string]any {
	items := make([]any, 0, len(c.Items))
	for _, it := range c.Items {
		entry := map[string]any{
			"kind":    string(it.Kind()),
			"title":   it.DisplayTitle(),
			"slug":    it.URLSlug(),
			"preview": it.PreviewImage(),
		}
		if price, ok := it.ListPrice(); ok {
			entry["price"] = price
		}
		items = append(items, entry)
	}
	return map[string]any{
		"id":          c.ID,
		"slug":        c.Slug,
		"title":       c.Title,
		"description": c.Description,
		"preview":     c.Image,
		"isPublished": c.IsPublished,
		"items":       items,
	}
}

// CollectionItemRef is the stored association between a collection and an
// item of some kind.
type CollectionItemRef struct {
	CollectionID string   `json:"collectionId"`
	Kind         ItemKind `json:"kind"`
	ItemID       string   `json:"itemId"`
	Position     int      `json:"position"`
}

// CatalogStore reads and writes catalog entities.
type CatalogStore interface {
	CreateProduct(p *Product) error
	GetProduct(id string) (*Product, error)
	GetProductBySlug(slug string) (*Product, error)
	ListProducts(ids []string) ([]Product, error)

	CreateCollection(c *Collection) error
	GetCollection(id string) (*Collection, error)
	GetCollectionBySlug(slug string) (*Collection, error)
	ListCollections(ids []string) ([]Collection, error)

	AddCollectionItem(ref CollectionItemRef) error
	ListCollectionItems(collectionID string) ([]CollectionItemRef, error)
}

func setIfNotEmpty(m map[string]any, key, value string) {
	if value != "" {
		m[key] = value
	}
}
