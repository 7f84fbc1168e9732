package storage

import (
	"database/sql"
	"fmt"
	"time"

	"pagebuilder/internal/domain"
)

const themeColumns = `id, slug, name, header_draft, header_published, header_published_at,
	footer_draft, footer_published, footer_published_at, created_at, updated_at`

// ThemeStore implements domain.ThemeStore using SQLite.
type ThemeStore struct {
	db *DB
}

func NewThemeStore(db *DB) *ThemeStore {
	return &ThemeStore{db: db}
}

var _ domain.ThemeStore = (*ThemeStore)(nil)

type chromeColumns struct {
	draft       string
	published   sql.NullString
	publishedAt sql.NullTime
}

func (c chromeColumns) decode() (domain.SiteChromeConfig, error) {
	var cfg domain.SiteChromeConfig
	var err error
	if cfg.Draft, err = decodeList(c.draft); err != nil {
		return cfg, err
	}
	if cfg.Published, err = decodeNullableList(c.published); err != nil {
		return cfg, err
	}
	if c.publishedAt.Valid {
		t := c.publishedAt.Time
		cfg.PublishedAt = &t
	}
	return cfg, nil
}

func encodeChrome(cfg domain.SiteChromeConfig) (chromeColumns, error) {
	draft, err := encodeList(cfg.Draft)
	if err != nil {
		return chromeColumns{}, err
	}
	published, err := encodeNullableList(cfg.Published)
	if err != nil {
		return chromeColumns{}, err
	}
	return chromeColumns{draft: draft, published: published, publishedAt: nullTime(cfg.PublishedAt)}, nil
}

func scanTheme(scanner interface{ Scan(...any) error }) (*domain.Theme, error) {
	var (
		t              domain.Theme
		header, footer chromeColumns
	)
	err := scanner.Scan(&t.ID, &t.Slug, &t.Name,
		&header.draft, &header.published, &header.publishedAt,
		&footer.draft, &footer.published, &footer.publishedAt,
		&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if t.Header, err = header.decode(); err != nil {
		return nil, err
	}
	if t.Footer, err = footer.decode(); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *ThemeStore) CreateTheme(t *domain.Theme) error {
	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now

	header, err := encodeChrome(t.Header)
	if err != nil {
		return err
	}
	footer, err := encodeChrome(t.Footer)
	if err != nil {
		return err
	}
	_, err = s.db.Conn().Exec(
		`INSERT INTO themes (`+themeColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Slug, t.Name,
		header.draft, header.published, header.publishedAt,
		footer.draft, footer.published, footer.publishedAt,
		t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert theme: %w", err)
	}
	return nil
}

func (s *ThemeStore) GetTheme(id string) (*domain.Theme, error) {
	t, err := scanTheme(s.db.Conn().QueryRow(`SELECT `+themeColumns+` FROM themes WHERE id = ?`, id))
	if err != nil {
		return nil, notFound("theme", id, err)
	}
	return t, nil
}

func (s *ThemeStore) GetThemeBySlug(slug string) (*domain.Theme, error) {
	t, err := scanTheme(s.db.Conn().QueryRow(`SELECT `+themeColumns+` FROM themes WHERE slug = ?`, slug))
	if err != nil {
		return nil, notFound("theme", slug, err)
	}
	return t, nil
}

func (s *ThemeStore) ListThemes() ([]domain.Theme, error) {
	rows, err := s.db.Conn().Query(`SELECT ` + themeColumns + ` FROM themes ORDER BY slug ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var themes []domain.Theme
	for rows.Next() {
		t, err := scanTheme(rows)
		if err != nil {
			return nil, err
		}
		themes = append(themes, *t)
	}
	return themes, rows.Err()
}

func (s *ThemeStore) UpdateTheme(t *domain.Theme) error {
	t.UpdatedAt = time.Now()

	header, err := encodeChrome(t.Header)
	if err != nil {
		return err
	}
	footer, err := encodeChrome(t.Footer)
	if err != nil {
		return err
	}
	res, err := s.db.Conn().Exec(
		`UPDATE themes SET slug = ?, name = ?,
		 header_draft = ?, header_published = ?, header_published_at = ?,
		 footer_draft = ?, footer_published = ?, footer_published_at = ?,
		 updated_at = ? WHERE id = ?`,
		t.Slug, t.Name,
		header.draft, header.published, header.publishedAt,
		footer.draft, footer.published, footer.publishedAt,
		t.UpdatedAt, t.ID,
	)
	if err != nil {
		return fmt.Errorf("update theme: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("theme %s: %w", t.ID, domain.ErrNotFound)
	}
	return nil
}
