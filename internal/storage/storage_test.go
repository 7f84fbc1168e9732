package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pagebuilder/internal/domain"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "nested", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestTheme(t *testing.T, db *DB) *domain.Theme {
	t.Helper()
	theme := &domain.Theme{ID: "t1", Slug: "default", Name: "Default"}
	require.NoError(t, NewThemeStore(db).CreateTheme(theme))
	return theme
}

// TestNew_RunsMigrations verifies the tables exist after opening.
func TestNew_RunsMigrations(t *testing.T) {
	db := newTestDB(t)

	for _, table := range []string{"themes", "pages", "products", "collections", "collection_items", "approvals"} {
		var name string
		err := db.conn.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
	}
}

// TestNew_Reopen verifies migrations are idempotent.
func TestNew_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	db1, err := New(path)
	require.NoError(t, err)
	require.NoError(t, db1.Close())

	db2, err := New(path)
	require.NoError(t, err)
	require.NoError(t, db2.Close())
}

// ─────────────────────────────────────────────────────────────
// Pages
// ─────────────────────────────────────────────────────────────

func TestPageStore_RoundTripNeverPublished(t *testing.T) {
	db := newTestDB(t)
	theme := newTestTheme(t, db)
	store := NewPageStore(db)

	p := &domain.Page{
		ID:      "p1",
		ThemeID: theme.ID,
		Slug:    "home",
		Title:   "Home",
		PageConfig: domain.PageConfig{
			DraftBody: domain.SectionList{{ID: "s1", Key: "hero", Settings: map[string]any{"title": "Hi"}}},
		},
	}
	require.NoError(t, store.CreatePage(p))

	got, err := store.GetPage("p1")
	require.NoError(t, err)
	require.Equal(t, domain.PageTypeStatic, got.Type)
	require.Nil(t, got.PublishedBody, "never-published body must stay nil")
	require.Nil(t, got.PublishedAt)
	require.False(t, got.IsPublished)
	require.Equal(t, p.DraftBody, got.DraftBody)
}

func TestPageStore_PublishedRoundTripKeepsOrder(t *testing.T) {
	db := newTestDB(t)
	theme := newTestTheme(t, db)
	store := NewPageStore(db)

	p := &domain.Page{ID: "p1", ThemeID: theme.ID, Slug: "about"}
	require.NoError(t, store.CreatePage(p))

	p.DraftBody = domain.SectionList{
		{ID: "z", Key: "hero", Settings: map[string]any{}},
		{ID: "a", Key: "grid", Settings: map[string]any{"columns": float64(3)}},
		{ID: "m", Key: "form", Settings: map[string]any{}},
	}
	p.Publish(time.Now())
	require.NoError(t, store.UpdatePage(p))

	got, err := store.FindPublished(theme.ID, "about", domain.PageTypeStatic)
	require.NoError(t, err)
	require.Equal(t, []string{"z", "a", "m"}, got.PublishedBody.IDs())
	require.Equal(t, float64(3), got.PublishedBody[1].Settings["columns"])
	require.NotNil(t, got.PublishedAt)
	require.True(t, got.IsPublished)
}

func TestPageStore_FindPublishedSkipsDrafts(t *testing.T) {
	db := newTestDB(t)
	theme := newTestTheme(t, db)
	store := NewPageStore(db)
	require.NoError(t, store.CreatePage(&domain.Page{ID: "p1", ThemeID: theme.ID, Slug: "home"}))

	_, err := store.FindPublished(theme.ID, "home", domain.PageTypeStatic)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPageStore_GetMissing(t *testing.T) {
	db := newTestDB(t)
	_, err := NewPageStore(db).GetPage("nope")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPageStore_UpdateMissing(t *testing.T) {
	db := newTestDB(t)
	err := NewPageStore(db).UpdatePage(&domain.Page{ID: "nope"})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPageStore_PublishStates(t *testing.T) {
	db := newTestDB(t)
	theme := newTestTheme(t, db)
	store := NewPageStore(db)

	p := &domain.Page{ID: "p1", ThemeID: theme.ID, Slug: "home"}
	require.NoError(t, store.CreatePage(p))

	before, err := store.PublishStates()
	require.NoError(t, err)
	require.Equal(t, domain.PublishState{Slug: "home"}, before["p1"])

	p.Publish(time.Now())
	require.NoError(t, store.UpdatePage(p))

	after, err := store.PublishStates()
	require.NoError(t, err)
	require.True(t, after["p1"].IsPublished)
	require.NotEmpty(t, after["p1"].PublishedAt)
}

func TestPageStore_ListPages(t *testing.T) {
	db := newTestDB(t)
	theme := newTestTheme(t, db)
	store := NewPageStore(db)
	require.NoError(t, store.CreatePage(&domain.Page{ID: "p2", ThemeID: theme.ID, Slug: "contact"}))
	require.NoError(t, store.CreatePage(&domain.Page{ID: "p1", ThemeID: theme.ID, Slug: "about"}))

	pages, err := store.ListPages(theme.ID)
	require.NoError(t, err)
	require.Len(t, pages, 2)
	require.Equal(t, "about", pages[0].Slug)
}

// ─────────────────────────────────────────────────────────────
// Themes
// ─────────────────────────────────────────────────────────────

func TestThemeStore_ChromeRoundTrip(t *testing.T) {
	db := newTestDB(t)
	store := NewThemeStore(db)
	theme := newTestTheme(t, db)

	theme.Header.Draft = domain.SectionList{{ID: "h1", Key: "nav", Settings: map[string]any{"logo": "x.png"}}}
	theme.Header.Publish(time.Now())
	theme.Footer.Draft = domain.SectionList{{ID: "f1", Key: "copyright", Settings: map[string]any{}}}
	require.NoError(t, store.UpdateTheme(theme))

	got, err := store.GetThemeBySlug("default")
	require.NoError(t, err)
	require.Equal(t, theme.Header.Draft, got.Header.Published)
	require.NotNil(t, got.Header.PublishedAt)
	require.Nil(t, got.Footer.Published)
	require.Len(t, got.Footer.Draft, 1)
}

func TestThemeStore_Missing(t *testing.T) {
	db := newTestDB(t)
	_, err := NewThemeStore(db).GetTheme("nope")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

// ─────────────────────────────────────────────────────────────
// Catalog
// ─────────────────────────────────────────────────────────────

func TestCatalogStore_ProductsAndCollections(t *testing.T) {
	db := newTestDB(t)
	store := NewCatalogStore(db)

	require.NoError(t, store.CreateProduct(&domain.Product{ID: "pr1", Slug: "mug", Title: "Mug", Price: 12.5, IsActive: true}))
	require.NoError(t, store.CreateProduct(&domain.Product{ID: "pr2", Slug: "cap", Title: "Cap", Price: 20}))
	require.NoError(t, store.CreateCollection(&domain.Collection{ID: "c1", Slug: "summer", Title: "Summer", IsPublished: true}))

	require.NoError(t, store.AddCollectionItem(domain.CollectionItemRef{CollectionID: "c1", Kind: domain.KindProduct, ItemID: "pr2", Position: 1}))
	require.NoError(t, store.AddCollectionItem(domain.CollectionItemRef{CollectionID: "c1", Kind: domain.KindProduct, ItemID: "pr1", Position: 0}))

	p, err := store.GetProductBySlug("mug")
	require.NoError(t, err)
	require.Equal(t, 12.5, p.Price)
	require.True(t, p.IsActive)

	refs, err := store.ListCollectionItems("c1")
	require.NoError(t, err)
	require.Len(t, refs, 2)
	require.Equal(t, "pr1", refs[0].ItemID)

	products, err := store.ListProducts([]string{"pr1", "pr2"})
	require.NoError(t, err)
	require.Len(t, products, 2)

	_, err = store.GetCollectionBySlug("winter")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

// ─────────────────────────────────────────────────────────────
// Approvals
// ─────────────────────────────────────────────────────────────

func TestApprovalStore_Lifecycle(t *testing.T) {
	db := newTestDB(t)
	store := NewApprovalStore(db)

	require.NoError(t, store.CreateApproval(&domain.Approval{ID: "a1", Tool: "publish_page", Description: "Publish home"}))
	require.NoError(t, store.CreateApproval(&domain.Approval{ID: "a2", Tool: "publish_theme"}))

	pending, err := store.ListPendingApprovals()
	require.NoError(t, err)
	require.Len(t, pending, 2)
	require.Equal(t, "{}", pending[0].Metadata)

	require.NoError(t, store.ResolveApproval("a1", true))
	status, err := store.ApprovalStatus("a1")
	require.NoError(t, err)
	require.Equal(t, domain.ApprovalApproved, status)

	err = store.ResolveApproval("a1", false)
	require.ErrorIs(t, err, domain.ErrNotFound, "resolved approvals cannot change")

	pending, err = store.ListPendingApprovals()
	require.NoError(t, err)
	require.Len(t, pending, 1)

	require.NoError(t, store.DeleteApproval("a2"))
	_, err = store.ApprovalStatus("a2")
	require.ErrorIs(t, err, domain.ErrNotFound)
}
