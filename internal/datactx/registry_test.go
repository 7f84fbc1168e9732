package datactx_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagebuilder/internal/cache"
	"pagebuilder/internal/datactx"
	"pagebuilder/internal/domain"
)

type recordingFetcher struct {
	calls  int
	last   datactx.Params
	result any
	err    error
}

func (f *recordingFetcher) Fetch(_ context.Context, p datactx.Params) (any, error) {
	f.calls++
	f.last = p
	return f.result, f.err
}

func TestRegister_Validation(t *testing.T) {
	r := datactx.NewRegistry(nil)
	require.ErrorIs(t, r.Register(datactx.Definition{Fetcher: &recordingFetcher{}}), domain.ErrValidation)
	require.ErrorIs(t, r.Register(datactx.Definition{Key: "product"}), domain.ErrValidation)

	require.NoError(t, r.Register(datactx.Definition{Key: "product", Fetcher: &recordingFetcher{}}))
	def, ok := r.Get("product")
	require.True(t, ok)
	assert.Equal(t, datactx.DefaultIdentifierField, def.IdentifierField)
	assert.True(t, r.IsRegistered("product"))
	assert.False(t, r.IsRegistered("collection"))
}

func TestFetch_UnknownContext(t *testing.T) {
	_, err := datactx.NewRegistry(nil).Fetch(context.Background(), "nope", datactx.RequestParams{})
	require.ErrorIs(t, err, datactx.ErrUnknownContext)
}

func TestFetch_NilResultIsNotFound(t *testing.T) {
	var missing *domain.Product
	tests := []struct {
		name   string
		result any
	}{
		{"untyped nil", nil},
		{"typed nil pointer", missing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := datactx.NewRegistry(nil)
			require.NoError(t, r.Register(datactx.Definition{Key: "product", Fetcher: &recordingFetcher{result: tt.result}}))

			_, err := r.Fetch(context.Background(), "product", datactx.RequestParams{Identifier: "mug"})
			require.ErrorIs(t, err, domain.ErrNotFound)
		})
	}
}

func TestFetch_ReturnsResultUnmodified(t *testing.T) {
	p := &domain.Product{ID: "1", Slug: "mug"}
	r := datactx.NewRegistry(nil)
	require.NoError(t, r.Register(datactx.Definition{Key: "product", Fetcher: &recordingFetcher{result: p}}))

	got, err := r.Fetch(context.Background(), "product", datactx.RequestParams{Identifier: "mug"})
	require.NoError(t, err)
	require.Same(t, p, got)
}

func TestFetch_FetcherError(t *testing.T) {
	boom := errors.New("db down")
	r := datactx.NewRegistry(nil)
	require.NoError(t, r.Register(datactx.Definition{Key: "product", Fetcher: &recordingFetcher{err: boom}}))

	_, err := r.Fetch(context.Background(), "product", datactx.RequestParams{})
	require.ErrorIs(t, err, boom)
}

func TestBuildParams_Allowlists(t *testing.T) {
	def := datactx.Definition{
		Key:               "collection",
		AllowedFilters:    []string{"kind"},
		AllowedSorts:      []string{"price", "title"},
		PaginationEnabled: true,
		PerPage:           12,
		EagerLoad:         []string{"items"},
	}

	p := datactx.BuildParams(def, datactx.RequestParams{
		Identifier: "summer",
		Filters:    map[string]string{"kind": "product", "secret": "x"},
		Sorts:      []string{"-price", "created_at", "-", "title"},
		Page:       0,
	})

	assert.Equal(t, "summer", p.Identifier)
	assert.Equal(t, map[string]string{"kind": "product"}, p.Filters)
	assert.Equal(t, []string{"-price", "title"}, p.Sorts)
	assert.True(t, p.Pagination)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 12, p.PerPage)
	assert.Equal(t, []string{"items"}, p.EagerLoad)
}

func TestBuildParams_DefaultsEmpty(t *testing.T) {
	p := datactx.BuildParams(datactx.Definition{}, datactx.RequestParams{Sorts: []string{"price"}, PerPage: 500})
	assert.Empty(t, p.Sorts)
	assert.NotNil(t, p.Sorts)
	assert.False(t, p.Pagination)
	assert.Zero(t, p.PerPage)
}

func TestBuildParams_PerPageCapped(t *testing.T) {
	p := datactx.BuildParams(datactx.Definition{PaginationEnabled: true}, datactx.RequestParams{PerPage: 500, Page: 3})
	assert.Equal(t, datactx.MaxPerPage, p.PerPage)
	assert.Equal(t, 3, p.Page)
}

func TestFetch_CacheableContextHitsStore(t *testing.T) {
	store := cache.NewInMemoryStore("ctx", time.Minute, cache.DefaultCleanupInterval)
	f := &recordingFetcher{result: map[string]any{"title": "Mug"}}
	r := datactx.NewRegistry(store)
	require.NoError(t, r.Register(datactx.Definition{Key: "product", Fetcher: f, Cacheable: true}))

	for range 3 {
		_, err := r.Fetch(context.Background(), "product", datactx.RequestParams{Identifier: "mug"})
		require.NoError(t, err)
	}
	assert.Equal(t, 1, f.calls)

	_, err := r.Fetch(context.Background(), "product", datactx.RequestParams{Identifier: "cap"})
	require.NoError(t, err)
	assert.Equal(t, 2, f.calls, "different identifier must miss")
}

func TestFetch_NotCacheableAlwaysFetches(t *testing.T) {
	store := cache.NewInMemoryStore("ctx", time.Minute, cache.DefaultCleanupInterval)
	f := &recordingFetcher{result: map[string]any{"title": "Mug"}}
	r := datactx.NewRegistry(store)
	require.NoError(t, r.Register(datactx.Definition{Key: "product", Fetcher: f}))

	for range 2 {
		_, err := r.Fetch(context.Background(), "product", datactx.RequestParams{Identifier: "mug"})
		require.NoError(t, err)
	}
	assert.Equal(t, 2, f.calls)
}

func TestReplace(t *testing.T) {
	r := datactx.NewRegistry(nil)
	require.NoError(t, r.Register(datactx.Definition{Key: "old", Fetcher: &recordingFetcher{}}))
	require.NoError(t, r.Replace([]datactx.Definition{{Key: "new", Fetcher: &recordingFetcher{}}}))
	assert.Equal(t, []string{"new"}, r.Keys())
}
