package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pagebuilder/internal/cache"
	"pagebuilder/internal/datactx"
	"pagebuilder/internal/domain"
	"pagebuilder/internal/log"
	"pagebuilder/internal/render"
)

// ─────────────────────────────────────────────────────────────
// Catch-all Resolver: public route → rendered document
// ─────────────────────────────────────────────────────────────

// ResolveState is the outcome reached by a resolution.
type ResolveState int

const (
	StateResolving ResolveState = iota
	StateFound
	StateRendered
	StateNotFound
)

func (s ResolveState) String() string {
	switch s {
	case StateResolving:
		return "resolving"
	case StateFound:
		return "found"
	case StateRendered:
		return "rendered"
	case StateNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Resolution records how far a request got and what it produced.
type Resolution struct {
	State      ResolveState
	Slug       string
	Identifier string
	Page       *domain.Page
	Document   *render.ComposedDocument
}

// Resolver maps public paths to published pages and renders them.
type Resolver struct {
	pages    domain.PageStore
	themes   *ThemeService
	contexts *datactx.Registry
	engine   *render.Engine
	cache    cache.Store
	pageTTL  time.Duration
}

// NewResolver creates a Resolver. store may be nil.
func NewResolver(pages domain.PageStore, themes *ThemeService, contexts *datactx.Registry, engine *render.Engine, store cache.Store, pageTTL time.Duration) *Resolver {
	if pageTTL <= 0 {
		pageTTL = cache.PageTTL
	}
	return &Resolver{
		pages:    pages,
		themes:   themes,
		contexts: contexts,
		engine:   engine,
		cache:    store,
		pageTTL:  pageTTL,
	}
}

// ParsePath splits a request path into a page slug and an optional context
// identifier. The empty path is the home page. Paths with more than two
// segments do not resolve.
func ParsePath(path string) (slug, identifier string, ok bool) {
	path = strings.Trim(path, "/")
	if path == "" {
		return domain.HomeSlug, "", true
	}
	parts := strings.Split(path, "/")
	for _, p := range parts {
		if p == "" {
			return "", "", false
		}
	}
	switch len(parts) {
	case 1:
		return parts[0], "", true
	case 2:
		return parts[0], parts[1], true
	default:
		return "", "", false
	}
}

// Resolve renders the published page for path. Anything that cannot be
// served yields StateNotFound and an error wrapping domain.ErrNotFound.
func (r *Resolver) Resolve(ctx context.Context, path string, req datactx.RequestParams) (*Resolution, error) {
	res := &Resolution{State: StateResolving}

	slug, identifier, ok := ParsePath(path)
	if !ok {
		return notFound(res, fmt.Errorf("path %q: %w", path, domain.ErrNotFound))
	}
	res.Slug = slug
	if identifier != "" {
		req.Identifier = identifier
	}
	res.Identifier = req.Identifier

	theme, err := r.themes.ActiveTheme(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return notFound(res, err)
		}
		return res, err
	}

	page, err := r.lookup(ctx, theme.ID, slug)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return notFound(res, err)
		}
		return res, err
	}
	if identifier != "" && page.ContextKey == "" {
		return notFound(res, fmt.Errorf("page %s takes no identifier: %w", slug, domain.ErrNotFound))
	}
	res.State = StateFound
	res.Page = page

	var contextData any
	if page.ContextKey != "" {
		contextData, err = r.fetchContext(ctx, page.ContextKey, req)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return notFound(res, err)
			}
			return res, err
		}
	}

	doc, err := r.engine.RenderPage(ctx, page, theme, contextData, render.Options{UseCache: true})
	if err != nil {
		return res, err
	}
	res.State = StateRendered
	res.Document = doc
	return res, nil
}

// Preview renders the draft of a page regardless of its publish state.
// Missing context data renders as no context instead of failing.
func (r *Resolver) Preview(ctx context.Context, pageID string, req datactx.RequestParams) (*render.ComposedDocument, error) {
	page, err := r.pages.GetPage(pageID)
	if err != nil {
		return nil, err
	}
	theme, err := r.themes.GetTheme(ctx, page.ThemeID)
	if err != nil {
		return nil, fmt.Errorf("preview %s: %w", pageID, err)
	}

	var contextData any
	if page.ContextKey != "" && req.Identifier != "" {
		contextData, err = r.contexts.Fetch(ctx, page.ContextKey, req)
		if err != nil && !errors.Is(err, domain.ErrNotFound) && !errors.Is(err, datactx.ErrUnknownContext) {
			return nil, err
		}
	}
	return r.engine.RenderPage(ctx, page, theme, contextData, render.Options{Preview: true})
}

// lookup finds the published static page with slug in the given theme. Hits
// and misses are both cached; publishing, unpublishing or activating another
// theme drops them. Entries cached for a different theme read as a miss.
func (r *Resolver) lookup(ctx context.Context, themeID, slug string) (*domain.Page, error) {
	if missingIn, ok := cache.Peek[string](ctx, r.cache, cache.RouteKey(slug)); ok && missingIn == themeID {
		return nil, fmt.Errorf("page %s: %w", slug, domain.ErrNotFound)
	}
	if page, ok := cache.Peek[*domain.Page](ctx, r.cache, cache.PageKey(slug)); ok && page.ThemeID == themeID {
		// cached pages are shared between requests
		return page.Clone(), nil
	}

	// A publish that lands between the read and the write below bumps the
	// version; whatever this lookup stored is then dropped again.
	version, _ := cache.Peek[string](ctx, r.cache, cache.VersionKey(slug))
	page, err := r.pages.FindPublished(themeID, slug, domain.PageTypeStatic)
	if errors.Is(err, domain.ErrNotFound) {
		cache.Put(ctx, r.cache, cache.RouteKey(slug), themeID, r.pageTTL)
		r.dropIfChanged(ctx, slug, version, cache.RouteKey(slug))
	}
	if err != nil {
		return nil, err
	}
	cache.Put(ctx, r.cache, cache.PageKey(slug), page, r.pageTTL)
	r.dropIfChanged(ctx, slug, version, cache.PageKey(slug))
	return page.Clone(), nil
}

func (r *Resolver) dropIfChanged(ctx context.Context, slug, version, key string) {
	if current, _ := cache.Peek[string](ctx, r.cache, cache.VersionKey(slug)); current != version {
		log.Debug(log.CatCache, "page changed during lookup", "slug", slug)
		cache.Forget(ctx, r.cache, key)
	}
}

func (r *Resolver) fetchContext(ctx context.Context, key string, req datactx.RequestParams) (any, error) {
	data, err := r.contexts.Fetch(ctx, key, req)
	if errors.Is(err, datactx.ErrUnknownContext) {
		log.Warn(log.CatContext, "page declares unregistered context", "context", key)
		return nil, fmt.Errorf("context %s: %w", key, domain.ErrNotFound)
	}
	return data, err
}

func notFound(res *Resolution, err error) (*Resolution, error) {
	res.State = StateNotFound
	if !errors.Is(err, domain.ErrNotFound) {
		err = fmt.Errorf("%w: %w", domain.ErrNotFound, err)
	}
	return res, err
}
