package catalog_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagebuilder/internal/catalog"
	"pagebuilder/internal/datactx"
	"pagebuilder/internal/domain"
	"pagebuilder/internal/storage"
)

func seedCatalog(t *testing.T) *storage.CatalogStore {
	t.Helper()
	db, err := storage.New(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := storage.NewCatalogStore(db)
	require.NoError(t, store.CreateProduct(&domain.Product{ID: "p1", Slug: "mug", Title: "Mug", Price: 12, IsActive: true}))
	require.NoError(t, store.CreateProduct(&domain.Product{ID: "p2", Slug: "cap", Title: "Cap", Price: 20, IsActive: true}))
	require.NoError(t, store.CreateProduct(&domain.Product{ID: "p3", Slug: "bag", Title: "Bag", Price: 5, IsActive: true}))
	require.NoError(t, store.CreateCollection(&domain.Collection{ID: "c1", Slug: "summer", Title: "Summer", IsPublished: true}))
	require.NoError(t, store.CreateCollection(&domain.Collection{ID: "c2", Slug: "gifts", Title: "Gifts", IsPublished: true}))

	refs := []domain.CollectionItemRef{
		{CollectionID: "c1", Kind: domain.KindProduct, ItemID: "p1", Position: 0},
		{CollectionID: "c1", Kind: domain.KindCollection, ItemID: "c2", Position: 1},
		{CollectionID: "c1", Kind: domain.KindProduct, ItemID: "p2", Position: 2},
		{CollectionID: "c1", Kind: domain.KindProduct, ItemID: "p3", Position: 3},
		{CollectionID: "c1", Kind: domain.KindProduct, ItemID: "gone", Position: 4},
	}
	for _, r := range refs {
		require.NoError(t, store.AddCollectionItem(r))
	}
	return store
}

func newRegistry(t *testing.T, store domain.CatalogStore) *datactx.Registry {
	t.Helper()
	r := datactx.NewRegistry(nil)
	for _, def := range catalog.Contexts(store, catalog.DefaultKinds(store)) {
		require.NoError(t, r.Register(def))
	}
	return r
}

func titles(items []domain.CatalogItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.DisplayTitle()
	}
	return out
}

func TestKinds_ResolveKeepsOrderAndSkipsDangling(t *testing.T) {
	store := seedCatalog(t)
	refs, err := store.ListCollectionItems("c1")
	require.NoError(t, err)

	items, err := catalog.DefaultKinds(store).Resolve(refs)
	require.NoError(t, err)
	assert.Equal(t, []string{"Mug", "Gifts", "Cap", "Bag"}, titles(items))
	assert.Equal(t, domain.KindCollection, items[1].Kind())
}

func TestKinds_UnknownKindSkipped(t *testing.T) {
	items, err := catalog.NewKinds().Resolve([]domain.CollectionItemRef{{Kind: "bundle", ItemID: "x"}})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestProductContext(t *testing.T) {
	r := newRegistry(t, seedCatalog(t))

	got, err := r.Fetch(context.Background(), catalog.ProductContext, datactx.RequestParams{Identifier: "mug"})
	require.NoError(t, err)
	assert.Equal(t, "Mug", got.(*domain.Product).Title)

	_, err = r.Fetch(context.Background(), catalog.ProductContext, datactx.RequestParams{Identifier: "nope"})
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = r.Fetch(context.Background(), catalog.ProductContext, datactx.RequestParams{})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCollectionContext_FilterSortPaginate(t *testing.T) {
	r := newRegistry(t, seedCatalog(t))

	got, err := r.Fetch(context.Background(), catalog.CollectionContext, datactx.RequestParams{
		Identifier: "summer",
		Filters:    map[string]string{"kind": "product"},
		Sorts:      []string{"-price"},
		PerPage:    2,
		Page:       1,
	})
	require.NoError(t, err)
	c := got.(*domain.Collection)
	assert.Equal(t, []string{"Cap", "Mug"}, titles(c.Items))

	got, err = r.Fetch(context.Background(), catalog.CollectionContext, datactx.RequestParams{
		Identifier: "summer",
		Filters:    map[string]string{"kind": "product"},
		Sorts:      []string{"-price"},
		PerPage:    2,
		Page:       2,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Bag"}, titles(got.(*domain.Collection).Items))
}

func TestCollectionContext_ContextMapExposesItems(t *testing.T) {
	r := newRegistry(t, seedCatalog(t))
	got, err := r.Fetch(context.Background(), catalog.CollectionContext, datactx.RequestParams{Identifier: "summer"})
	require.NoError(t, err)

	m := got.(*domain.Collection).ContextMap()
	items := m["items"].([]any)
	require.Len(t, items, 4)
	first := items[0].(map[string]any)
	assert.Equal(t, "product", first["kind"])
	assert.Equal(t, 12.0, first["price"])
	_, hasPrice := items[1].(map[string]any)["price"]
	assert.False(t, hasPrice, "collections carry no price")
}
