// Package datactx binds live domain data to pages. A context key names a
// fetch contract; pages declare one and the resolver asks the registry for
// the data before composing the page.
package datactx

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"
	"sync"
	"time"

	"pagebuilder/internal/cache"
	"pagebuilder/internal/domain"
	"pagebuilder/internal/log"
)

// ErrUnknownContext means no definition is registered under a context key.
var ErrUnknownContext = errors.New("unknown context")

const (
	DefaultIdentifierField = "slug"
	DefaultPerPage         = 15
	MaxPerPage             = 100
	DefaultCacheTTL        = 10 * time.Minute
)

// Params is the normalized fetcher input.
type Params struct {
	Identifier string            `json:"identifier"`
	Filters    map[string]string `json:"filters"`
	Sorts      []string          `json:"sorts"`
	Pagination bool              `json:"pagination"`
	Page       int               `json:"page"`
	PerPage    int               `json:"perPage"`
	EagerLoad  []string          `json:"eagerLoad"`
}

// RequestParams is what a request supplies before allowlisting.
type RequestParams struct {
	Identifier string
	Filters    map[string]string
	Sorts      []string
	Page       int
	PerPage    int
}

// Fetcher loads domain data. A nil result with a nil error means no match.
type Fetcher interface {
	Fetch(ctx context.Context, params Params) (any, error)
}

// FetcherFunc adapts a plain function to Fetcher.
type FetcherFunc func(ctx context.Context, params Params) (any, error)

func (f FetcherFunc) Fetch(ctx context.Context, params Params) (any, error) {
	return f(ctx, params)
}

// Definition is a registered context.
type Definition struct {
	Key               string
	Fetcher           Fetcher
	IdentifierField   string
	Cacheable         bool
	CacheTTL          time.Duration
	AllowedFilters    []string
	AllowedSorts      []string
	PaginationEnabled bool
	PerPage           int
	EagerLoad         []string
}

func (d Definition) withDefaults() Definition {
	if d.IdentifierField == "" {
		d.IdentifierField = DefaultIdentifierField
	}
	if d.PerPage <= 0 {
		d.PerPage = DefaultPerPage
	}
	if d.Cacheable && d.CacheTTL <= 0 {
		d.CacheTTL = DefaultCacheTTL
	}
	return d
}

// ─────────────────────────────────────────────────────────────
// Registry
// ─────────────────────────────────────────────────────────────

// Registry maps context keys to definitions.
type Registry struct {
	mu    sync.RWMutex
	defs  map[string]Definition
	store cache.Store
}

// NewRegistry creates an empty registry. store may be nil, in which case
// cacheable contexts are fetched directly.
func NewRegistry(store cache.Store) *Registry {
	return &Registry{defs: make(map[string]Definition), store: store}
}

func (r *Registry) Register(def Definition) error {
	if def.Key == "" {
		return fmt.Errorf("register context: empty key: %w", domain.ErrValidation)
	}
	if def.Fetcher == nil {
		return fmt.Errorf("register context %s: no fetcher: %w", def.Key, domain.ErrValidation)
	}
	r.mu.Lock()
	r.defs[def.Key] = def.withDefaults()
	r.mu.Unlock()
	return nil
}

// Replace swaps every definition at once. Built-in contexts must be part of
// defs.
func (r *Registry) Replace(defs []Definition) error {
	next := make(map[string]Definition, len(defs))
	for _, def := range defs {
		if def.Key == "" || def.Fetcher == nil {
			return fmt.Errorf("replace contexts: invalid definition %q: %w", def.Key, domain.ErrValidation)
		}
		next[def.Key] = def.withDefaults()
	}
	r.mu.Lock()
	r.defs = next
	r.mu.Unlock()
	return nil
}

func (r *Registry) Get(key string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[key]
	return def, ok
}

// IsRegistered reports whether a page declaring key can be resolved at all.
func (r *Registry) IsRegistered(key string) bool {
	_, ok := r.Get(key)
	return ok
}

func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.defs))
}

// Fetch normalizes req against the definition for key and runs its fetcher.
// The result is returned unmodified. A nil result is reported as
// domain.ErrNotFound.
func (r *Registry) Fetch(ctx context.Context, key string, req RequestParams) (any, error) {
	def, ok := r.Get(key)
	if !ok {
		return nil, fmt.Errorf("context %s: %w", key, ErrUnknownContext)
	}
	params := BuildParams(def, req)

	fetch := func(ctx context.Context) (any, error) {
		result, err := def.Fetcher.Fetch(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("fetch context %s: %w", key, err)
		}
		if isNil(result) {
			return nil, fmt.Errorf("context %s %q: %w", key, params.Identifier, domain.ErrNotFound)
		}
		return result, nil
	}

	if !def.Cacheable || r.store == nil {
		return fetch(ctx)
	}
	cacheKey, err := cache.ContextKey(def.Key, params.Identifier, params)
	if err != nil {
		log.Warn(log.CatContext, "context cache key failed", "key", key, "error", err)
		return fetch(ctx)
	}
	return cache.Remember(ctx, r.store, cacheKey, def.CacheTTL, fetch)
}

// BuildParams restricts request input to what the definition allows.
// Filters and sorts outside the allowlists are dropped silently.
func BuildParams(def Definition, req RequestParams) Params {
	p := Params{
		Identifier: req.Identifier,
		Filters:    map[string]string{},
		Sorts:      []string{},
		Pagination: def.PaginationEnabled,
		EagerLoad:  slices.Clone(def.EagerLoad),
	}

	for name, value := range req.Filters {
		if slices.Contains(def.AllowedFilters, name) {
			p.Filters[name] = value
		}
	}
	for _, sort := range req.Sorts {
		field := strings.TrimPrefix(sort, "-")
		if field != "" && slices.Contains(def.AllowedSorts, field) {
			p.Sorts = append(p.Sorts, sort)
		}
	}

	if def.PaginationEnabled {
		p.Page = max(req.Page, 1)
		p.PerPage = def.PerPage
		if req.PerPage > 0 {
			p.PerPage = min(req.PerPage, MaxPerPage)
		}
	}
	return p
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
