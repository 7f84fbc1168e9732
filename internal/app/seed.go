package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"pagebuilder/internal/catalog"
	"pagebuilder/internal/domain"
	"pagebuilder/internal/log"
	"pagebuilder/internal/service"
)

// SeedResult reports what Seed created.
type SeedResult struct {
	Products    int      `json:"products"`
	Collections int      `json:"collections"`
	Pages       []string `json:"pages"`
}

type seedPage struct {
	slug       string
	title      string
	contextKey string
	sections   []seedSection
}

type seedSection struct {
	key      string
	settings map[string]any
}

var demoProducts = []domain.Product{
	{Slug: "enamel-mug", Title: "Enamel Mug", Excerpt: "Camp-ready steel mug", Price: 18, IsActive: true,
		Description: "<p>A speckled <strong>enamel</strong> mug that survives campfires.</p>", MetaKeywords: "mug, camping"},
	{Slug: "wool-blanket", Title: "Wool Blanket", Excerpt: "Heavy merino throw", Price: 129, IsActive: true,
		Description: "<p>Woven merino in three colours.</p>"},
	{Slug: "field-notebook", Title: "Field Notebook", Excerpt: "Waterproof pocket notebook", Price: 9.5, IsActive: true},
}

var demoPages = []seedPage{
	{slug: domain.HomeSlug, title: "Home", sections: []seedSection{
		{key: "hero", settings: map[string]any{"title": "Gear for slow weekends", "subtitle": "Small batch goods"}},
		{key: "rich-text", settings: map[string]any{"body": "Everything here is made to be used for years."}},
	}},
	{slug: catalog.ProductContext, title: "Product", contextKey: catalog.ProductContext, sections: []seedSection{
		{key: "product-info"},
	}},
	{slug: catalog.CollectionContext, title: "Collection", contextKey: catalog.CollectionContext, sections: []seedSection{
		{key: "collection-grid", settings: map[string]any{"columns": 3}},
	}},
}

// Seed creates demo catalog data and publishes a home, product and
// collection page in the active theme. Existing rows are left alone, so
// running it twice is harmless.
func (a *App) Seed(ctx context.Context) (*SeedResult, error) {
	res := &SeedResult{}

	var productIDs []string
	for _, p := range demoProducts {
		existing, err := a.catalog.GetProductBySlug(p.Slug)
		if err == nil {
			productIDs = append(productIDs, existing.ID)
			continue
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		p.ID = uuid.New().String()
		if err := a.catalog.CreateProduct(&p); err != nil {
			return nil, err
		}
		productIDs = append(productIDs, p.ID)
		res.Products++
	}

	if _, err := a.catalog.GetCollectionBySlug("essentials"); errors.Is(err, domain.ErrNotFound) {
		c := &domain.Collection{ID: uuid.New().String(), Slug: "essentials", Title: "Essentials", IsPublished: true}
		if err := a.catalog.CreateCollection(c); err != nil {
			return nil, err
		}
		for i, id := range productIDs {
			ref := domain.CollectionItemRef{CollectionID: c.ID, Kind: domain.KindProduct, ItemID: id, Position: i}
			if err := a.catalog.AddCollectionItem(ref); err != nil {
				return nil, err
			}
		}
		res.Collections++
	} else if err != nil {
		return nil, err
	}

	t, err := a.themeSvc.ActiveTheme(ctx)
	if err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}
	existing, err := a.pageSvc.ListPages(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	have := make(map[string]bool, len(existing))
	for _, p := range existing {
		have[p.Slug] = true
	}

	for _, sp := range demoPages {
		if have[sp.slug] {
			continue
		}
		body := domain.SectionList{}
		for _, s := range sp.sections {
			if !a.sections.Has(s.key) {
				log.Warn(log.CatTheme, "seed skips section missing from theme", "key", s.key, "page", sp.slug)
				continue
			}
			body, _ = body.Add(s.key, s.settings, domain.AppendPosition)
		}
		page, err := a.pageSvc.CreatePage(ctx, service.NewPage{
			ThemeID: t.ID, Slug: sp.slug, Title: sp.title, ContextKey: sp.contextKey, DraftBody: body,
		})
		if err != nil {
			return nil, err
		}
		if _, err := a.pageSvc.Publish(ctx, page.ID); err != nil {
			return nil, err
		}
		res.Pages = append(res.Pages, sp.slug)
	}
	return res, nil
}
