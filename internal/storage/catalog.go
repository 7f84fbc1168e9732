package storage

import (
	"fmt"
	"strings"
	"time"

	"pagebuilder/internal/domain"
)

const productColumns = `id, slug, title, excerpt, description, price, image,
	meta_title, meta_description, meta_keywords, is_active, created_at, updated_at`

const collectionColumns = `id, slug, title, description, image, is_published, created_at, updated_at`

// CatalogStore implements domain.CatalogStore using SQLite.
type CatalogStore struct {
	db *DB
}

func NewCatalogStore(db *DB) *CatalogStore {
	return &CatalogStore{db: db}
}

var _ domain.CatalogStore = (*CatalogStore)(nil)

func scanProduct(scanner interface{ Scan(...any) error }) (*domain.Product, error) {
	var p domain.Product
	err := scanner.Scan(&p.ID, &p.Slug, &p.Title, &p.Excerpt, &p.Description, &p.Price, &p.Image,
		&p.MetaTitle, &p.MetaDescription, &p.MetaKeywords, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func scanCollection(scanner interface{ Scan(...any) error }) (*domain.Collection, error) {
	var c domain.Collection
	err := scanner.Scan(&c.ID, &c.Slug, &c.Title, &c.Description, &c.Image, &c.IsPublished, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ── Products ───────────────────────────────────────────────

func (s *CatalogStore) CreateProduct(p *domain.Product) error {
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	_, err := s.db.Conn().Exec(
		`INSERT INTO products (`+productColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Slug, p.Title, p.Excerpt, p.Description, p.Price, p.Image,
		p.MetaTitle, p.MetaDescription, p.MetaKeywords, p.IsActive, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (s *CatalogStore) GetProduct(id string) (*domain.Product, error) {
	p, err := scanProduct(s.db.Conn().QueryRow(`SELECT `+productColumns+` FROM products WHERE id = ?`, id))
	if err != nil {
		return nil, notFound("product", id, err)
	}
	return p, nil
}

func (s *CatalogStore) GetProductBySlug(slug string) (*domain.Product, error) {
	p, err := scanProduct(s.db.Conn().QueryRow(`SELECT `+productColumns+` FROM products WHERE slug = ?`, slug))
	if err != nil {
		return nil, notFound("product", slug, err)
	}
	return p, nil
}

// ListProducts returns the products with the given ids, in no particular order.
func (s *CatalogStore) ListProducts(ids []string) ([]domain.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.db.Conn().Query(
		`SELECT `+productColumns+` FROM products WHERE id IN (`+placeholders(len(ids))+`)`, toArgs(ids)...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

// ── Collections ────────────────────────────────────────────

func (s *CatalogStore) CreateCollection(c *domain.Collection) error {
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now
	_, err := s.db.Conn().Exec(
		`INSERT INTO collections (`+collectionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Slug, c.Title, c.Description, c.Image, c.IsPublished, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert collection: %w", err)
	}
	return nil
}

func (s *CatalogStore) GetCollection(id string) (*domain.Collection, error) {
	c, err := scanCollection(s.db.Conn().QueryRow(`SELECT `+collectionColumns+` FROM collections WHERE id = ?`, id))
	if err != nil {
		return nil, notFound("collection", id, err)
	}
	return c, nil
}

func (s *CatalogStore) GetCollectionBySlug(slug string) (*domain.Collection, error) {
	c, err := scanCollection(s.db.Conn().QueryRow(`SELECT `+collectionColumns+` FROM collections WHERE slug = ?`, slug))
	if err != nil {
		return nil, notFound("collection", slug, err)
	}
	return c, nil
}

func (s *CatalogStore) ListCollections(ids []string) ([]domain.Collection, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.db.Conn().Query(
		`SELECT `+collectionColumns+` FROM collections WHERE id IN (`+placeholders(len(ids))+`)`, toArgs(ids)...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var collections []domain.Collection
	for rows.Next() {
		c, err := scanCollection(rows)
		if err != nil {
			return nil, err
		}
		collections = append(collections, *c)
	}
	return collections, rows.Err()
}

// ── Collection items ───────────────────────────────────────

func (s *CatalogStore) AddCollectionItem(ref domain.CollectionItemRef) error {
	_, err := s.db.Conn().Exec(
		`INSERT INTO collection_items (collection_id, kind, item_id, position) VALUES (?, ?, ?, ?)
		 ON CONFLICT(collection_id, kind, item_id) DO UPDATE SET position = excluded.position`,
		ref.CollectionID, ref.Kind, ref.ItemID, ref.Position,
	)
	if err != nil {
		return fmt.Errorf("add collection item: %w", err)
	}
	return nil
}

func (s *CatalogStore) ListCollectionItems(collectionID string) ([]domain.CollectionItemRef, error) {
	rows, err := s.db.Conn().Query(
		`SELECT collection_id, kind, item_id, position FROM collection_items
		 WHERE collection_id = ? ORDER BY position ASC, item_id ASC`, collectionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refs []domain.CollectionItemRef
	for rows.Next() {
		var r domain.CollectionItemRef
		if err := rows.Scan(&r.CollectionID, &r.Kind, &r.ItemID, &r.Position); err != nil {
			return nil, err
		}
		refs = append(refs, r)
	}
	return refs, rows.Err()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func toArgs(ids []string) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
