// Package render composes header, body and footer sections into a document.
package render

import (
	"context"
	"errors"
	"time"

	"pagebuilder/internal/cache"
	"pagebuilder/internal/domain"
	"pagebuilder/internal/log"
	"pagebuilder/internal/section"
)

// Fragment is the markup produced by one section instance.
type Fragment struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	HTML string `json:"html"`
}

// ComposedDocument is the engine output handed to the presentation layer.
type ComposedDocument struct {
	Page           *domain.Page  `json:"page"`
	Theme          *domain.Theme `json:"theme"`
	HeaderSections []Fragment    `json:"headerSections"`
	BodySections   []Fragment    `json:"bodySections"`
	FooterSections []Fragment    `json:"footerSections"`
	Context        any           `json:"context,omitempty"`
	SEO            SEO           `json:"seo"`
}

// Options controls a single render.
type Options struct {
	// UseCache serves chrome through the cache store.
	UseCache bool
	// Preview renders drafts instead of published content.
	Preview bool
}

// Engine renders pages and chrome through a section registry.
type Engine struct {
	sections  *section.Registry
	store     cache.Store
	chromeTTL time.Duration
	baseURL   string
}

// NewEngine creates an engine. store may be nil.
func NewEngine(sections *section.Registry, store cache.Store, chromeTTL time.Duration, baseURL string) *Engine {
	if chromeTTL <= 0 {
		chromeTTL = cache.ChromeTTL
	}
	return &Engine{
		sections:  sections,
		store:     store,
		chromeTTL: chromeTTL,
		baseURL:   baseURL,
	}
}

// RenderPage composes page inside theme with optional context data.
func (e *Engine) RenderPage(ctx context.Context, page *domain.Page, theme *domain.Theme, contextData any, opts Options) (*ComposedDocument, error) {
	if page == nil {
		return nil, errors.New("render page: nil page")
	}

	doc := &ComposedDocument{
		Page:         page,
		Theme:        theme,
		BodySections: e.RenderList(page.EffectiveBody(opts.Preview), contextData),
		Context:      contextData,
		SEO:          DeriveSEO(contextData, e.baseURL, page.Slug),
	}
	if theme != nil {
		doc.HeaderSections = e.RenderChrome(ctx, theme, domain.ChromeHeader, opts)
		doc.FooterSections = e.RenderChrome(ctx, theme, domain.ChromeFooter, opts)
	}
	if doc.HeaderSections == nil {
		doc.HeaderSections = []Fragment{}
	}
	if doc.FooterSections == nil {
		doc.FooterSections = []Fragment{}
	}
	return doc, nil
}

// RenderChrome renders one chrome slot. Chrome never sees page context, so
// the output depends only on the section list and can be content-addressed.
func (e *Engine) RenderChrome(ctx context.Context, theme *domain.Theme, slot domain.ChromeSlot, opts Options) []Fragment {
	list := theme.Chrome(slot).Effective(opts.Preview)
	if !opts.UseCache || e.store == nil {
		return e.RenderList(list, nil)
	}

	key, err := cache.ChromeKey(theme.ID, slot, list)
	if err != nil {
		log.Warn(log.CatRender, "chrome key failed, rendering directly", "theme", theme.ID, "slot", slot, "error", err)
		return e.RenderList(list, nil)
	}
	frags, _ := cache.Remember(ctx, e.store, key, e.chromeTTL, func(context.Context) ([]Fragment, error) {
		return e.RenderList(list, nil), nil
	})
	return frags
}

// RenderList renders list in order. Unregistered keys are skipped.
func (e *Engine) RenderList(list domain.SectionList, contextData any) []Fragment {
	out := make([]Fragment, 0, len(list))
	for _, inst := range list {
		html, ok := e.sections.Render(inst.Key, inst.Settings, contextData)
		if !ok {
			log.Warn(log.CatRender, "skipping section", "id", inst.ID, "key", inst.Key, "error", domain.ErrUnregisteredSection)
			continue
		}
		out = append(out, Fragment{ID: inst.ID, Key: inst.Key, HTML: html})
	}
	return out
}

// WarmChrome renders and stores the published chrome of theme.
func (e *Engine) WarmChrome(ctx context.Context, theme *domain.Theme) {
	for _, slot := range []domain.ChromeSlot{domain.ChromeHeader, domain.ChromeFooter} {
		e.RenderChrome(ctx, theme, slot, Options{UseCache: true})
	}
}
