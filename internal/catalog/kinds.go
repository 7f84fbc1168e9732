// Package catalog serves products and collections to page contexts.
package catalog

import (
	"fmt"
	"sync"

	"pagebuilder/internal/domain"
	"pagebuilder/internal/log"
)

// KindLoader loads the items of one kind by id. Missing ids are omitted.
type KindLoader func(ids []string) ([]domain.CatalogItem, error)

// Kinds resolves collection item references of any registered kind.
type Kinds struct {
	mu      sync.RWMutex
	loaders map[domain.ItemKind]KindLoader
}

func NewKinds() *Kinds {
	return &Kinds{loaders: make(map[domain.ItemKind]KindLoader)}
}

// DefaultKinds registers product and collection loaders over store.
func DefaultKinds(store domain.CatalogStore) *Kinds {
	k := NewKinds()
	k.Register(domain.KindProduct, func(ids []string) ([]domain.CatalogItem, error) {
		products, err := store.ListProducts(ids)
		if err != nil {
			return nil, err
		}
		items := make([]domain.CatalogItem, len(products))
		for i := range products {
			items[i] = &products[i]
		}
		return items, nil
	})
	k.Register(domain.KindCollection, func(ids []string) ([]domain.CatalogItem, error) {
		collections, err := store.ListCollections(ids)
		if err != nil {
			return nil, err
		}
		items := make([]domain.CatalogItem, len(collections))
		for i := range collections {
			items[i] = &collections[i]
		}
		return items, nil
	})
	return k
}

func (k *Kinds) Register(kind domain.ItemKind, loader KindLoader) {
	k.mu.Lock()
	k.loaders[kind] = loader
	k.mu.Unlock()
}

// Resolve loads the items behind refs, one query per kind, and returns them
// in ref order. Unknown kinds and dangling refs are skipped.
func (k *Kinds) Resolve(refs []domain.CollectionItemRef) ([]domain.CatalogItem, error) {
	idsByKind := make(map[domain.ItemKind][]string)
	for _, ref := range refs {
		idsByKind[ref.Kind] = append(idsByKind[ref.Kind], ref.ItemID)
	}

	type itemKey struct {
		kind domain.ItemKind
		id   string
	}
	loaded := make(map[itemKey]domain.CatalogItem)

	k.mu.RLock()
	defer k.mu.RUnlock()
	for kind, ids := range idsByKind {
		loader, ok := k.loaders[kind]
		if !ok {
			log.Warn(log.CatContext, "unknown collection item kind", "kind", kind)
			continue
		}
		items, err := loader(ids)
		if err != nil {
			return nil, fmt.Errorf("load %s items: %w", kind, err)
		}
		for _, it := range items {
			loaded[itemKey{kind, itemID(it)}] = it
		}
	}

	out := make([]domain.CatalogItem, 0, len(refs))
	for _, ref := range refs {
		if it, ok := loaded[itemKey{ref.Kind, ref.ItemID}]; ok {
			out = append(out, it)
		}
	}
	return out, nil
}

func itemID(it domain.CatalogItem) string {
	switch v := it.(type) {
	case *domain.Product:
		return v.ID
	case *domain.Collection:
		return v.ID
	case interface{ ItemID() string }:
		return v.ItemID()
	}
	return it.URLSlug()
}
