package storage

import (
	"database/sql"
	"fmt"
	"time"

	"pagebuilder/internal/domain"
)

const pageColumns = `id, theme_id, slug, title, type, context_key, draft_body, published_body,
	is_published, published_at, created_at, updated_at`

// PageStore implements domain.PageStore using SQLite.
type PageStore struct {
	db *DB
}

func NewPageStore(db *DB) *PageStore {
	return &PageStore{db: db}
}

var _ domain.PageStore = (*PageStore)(nil)

func scanPage(scanner interface{ Scan(...any) error }) (*domain.Page, error) {
	var (
		p           domain.Page
		draft       string
		published   sql.NullString
		publishedAt sql.NullTime
	)
	err := scanner.Scan(&p.ID, &p.ThemeID, &p.Slug, &p.Title, &p.Type, &p.ContextKey,
		&draft, &published, &p.IsPublished, &publishedAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if p.DraftBody, err = decodeList(draft); err != nil {
		return nil, err
	}
	if p.PublishedBody, err = decodeNullableList(published); err != nil {
		return nil, err
	}
	if publishedAt.Valid {
		t := publishedAt.Time
		p.PublishedAt = &t
	}
	return &p, nil
}

func (s *PageStore) CreatePage(p *domain.Page) error {
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.Type == "" {
		p.Type = domain.PageTypeStatic
	}
	if p.DraftBody == nil {
		p.DraftBody = domain.SectionList{}
	}

	draft, err := encodeList(p.DraftBody)
	if err != nil {
		return err
	}
	published, err := encodeNullableList(p.PublishedBody)
	if err != nil {
		return err
	}
	_, err = s.db.Conn().Exec(
		`INSERT INTO pages (`+pageColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.ThemeID, p.Slug, p.Title, p.Type, p.ContextKey, draft, published,
		p.IsPublished, nullTime(p.PublishedAt), p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert page: %w", err)
	}
	return nil
}

func (s *PageStore) GetPage(id string) (*domain.Page, error) {
	p, err := scanPage(s.db.Conn().QueryRow(`SELECT `+pageColumns+` FROM pages WHERE id = ?`, id))
	if err != nil {
		return nil, notFound("page", id, err)
	}
	return p, nil
}

// FindPublished looks up the published page with slug in a theme.
func (s *PageStore) FindPublished(themeID, slug string, pageType domain.PageType) (*domain.Page, error) {
	p, err := scanPage(s.db.Conn().QueryRow(
		`SELECT `+pageColumns+` FROM pages WHERE theme_id = ? AND slug = ? AND type = ? AND is_published = 1`,
		themeID, slug, pageType,
	))
	if err != nil {
		return nil, notFound("page", slug, err)
	}
	return p, nil
}

func (s *PageStore) ListPages(themeID string) ([]domain.Page, error) {
	rows, err := s.db.Conn().Query(
		`SELECT `+pageColumns+` FROM pages WHERE theme_id = ? ORDER BY slug ASC`, themeID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pages []domain.Page
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, err
		}
		pages = append(pages, *p)
	}
	return pages, rows.Err()
}

func (s *PageStore) UpdatePage(p *domain.Page) error {
	p.UpdatedAt = time.Now()

	draft, err := encodeList(p.DraftBody)
	if err != nil {
		return err
	}
	published, err := encodeNullableList(p.PublishedBody)
	if err != nil {
		return err
	}
	res, err := s.db.Conn().Exec(
		`UPDATE pages SET slug = ?, title = ?, type = ?, context_key = ?, draft_body = ?, published_body = ?,
		 is_published = ?, published_at = ?, updated_at = ? WHERE id = ?`,
		p.Slug, p.Title, p.Type, p.ContextKey, draft, published,
		p.IsPublished, nullTime(p.PublishedAt), p.UpdatedAt, p.ID,
	)
	if err != nil {
		return fmt.Errorf("update page: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("page %s: %w", p.ID, domain.ErrNotFound)
	}
	return nil
}

func (s *PageStore) DeletePage(id string) error {
	_, err := s.db.Conn().Exec(`DELETE FROM pages WHERE id = ?`, id)
	return err
}

// PublishStates returns the publish fingerprint of every page keyed by id.
func (s *PageStore) PublishStates() (map[string]domain.PublishState, error) {
	rows, err := s.db.Conn().Query(
		`SELECT id, slug, is_published, COALESCE(CAST(published_at AS TEXT), '') FROM pages`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	states := make(map[string]domain.PublishState)
	for rows.Next() {
		var id string
		var st domain.PublishState
		if err := rows.Scan(&id, &st.Slug, &st.IsPublished, &st.PublishedAt); err != nil {
			return nil, err
		}
		states[id] = st
	}
	return states, rows.Err()
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
