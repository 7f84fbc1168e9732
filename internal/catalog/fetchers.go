package catalog

import (
	"context"
	"errors"
	"slices"
	"strings"

	"pagebuilder/internal/datactx"
	"pagebuilder/internal/domain"
)

const (
	ProductContext    = "product"
	CollectionContext = "collection"
)

// Contexts returns the built-in context definitions backed by the catalog.
func Contexts(store domain.CatalogStore, kinds *Kinds) []datactx.Definition {
	return []datactx.Definition{
		{
			Key:             ProductContext,
			Fetcher:         ProductFetcher(store),
			IdentifierField: "slug",
		},
		{
			Key:               CollectionContext,
			Fetcher:           CollectionFetcher(store, kinds),
			IdentifierField:   "slug",
			AllowedFilters:    []string{"kind"},
			AllowedSorts:      []string{"title", "price"},
			PaginationEnabled: true,
			PerPage:           24,
			EagerLoad:         []string{"items"},
		},
	}
}

// ProductFetcher looks a product up by slug.
func ProductFetcher(store domain.CatalogStore) datactx.Fetcher {
	return datactx.FetcherFunc(func(_ context.Context, p datactx.Params) (any, error) {
		if p.Identifier == "" {
			return nil, nil
		}
		product, err := store.GetProductBySlug(p.Identifier)
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return product, nil
	})
}

// CollectionFetcher looks a collection up by slug and, when eager loading is
// requested, resolves its items with the kind filter, sorts and paging
// applied.
func CollectionFetcher(store domain.CatalogStore, kinds *Kinds) datactx.Fetcher {
	return datactx.FetcherFunc(func(_ context.Context, p datactx.Params) (any, error) {
		if p.Identifier == "" {
			return nil, nil
		}
		c, err := store.GetCollectionBySlug(p.Identifier)
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		if !slices.Contains(p.EagerLoad, "items") {
			return c, nil
		}

		refs, err := store.ListCollectionItems(c.ID)
		if err != nil {
			return nil, err
		}
		if kind := p.Filters["kind"]; kind != "" {
			refs = slices.DeleteFunc(refs, func(r domain.CollectionItemRef) bool {
				return string(r.Kind) != kind
			})
		}
		items, err := kinds.Resolve(refs)
		if err != nil {
			return nil, err
		}
		sortItems(items, p.Sorts)
		c.Items = paginate(items, p)
		return c, nil
	})
}

func sortItems(items []domain.CatalogItem, sorts []string) {
	if len(sorts) == 0 {
		return
	}
	slices.SortStableFunc(items, func(a, b domain.CatalogItem) int {
		for _, s := range sorts {
			desc := strings.HasPrefix(s, "-")
			var c int
			switch strings.TrimPrefix(s, "-") {
			case "title":
				c = strings.Compare(a.DisplayTitle(), b.DisplayTitle())
			case "price":
				pa, _ := a.ListPrice()
				pb, _ := b.ListPrice()
				switch {
				case pa < pb:
					c = -1
				case pa > pb:
					c = 1
				}
			}
			if desc {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return 0
	})
}

func paginate(items []domain.CatalogItem, p datactx.Params) []domain.CatalogItem {
	if !p.Pagination || p.PerPage <= 0 {
		return items
	}
	start := (max(p.Page, 1) - 1) * p.PerPage
	if start >= len(items) {
		return []domain.CatalogItem{}
	}
	end := min(start+p.PerPage, len(items))
	return items[start:end]
}
