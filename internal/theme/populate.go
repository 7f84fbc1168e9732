package theme

import (
	"fmt"
	"time"

	"pagebuilder/internal/datactx"
	"pagebuilder/internal/domain"
	"pagebuilder/internal/section"
)

// FetcherFactory builds the fetcher for a context bound to an external
// source table.
type FetcherFactory func(def ContextDef) (datactx.Fetcher, error)

// ContextDefinitions merges the built-in contexts with the ones declared in
// theme.yaml. A declaration with source "catalog" tunes the built-in with the
// same key; any other source goes through factory.
func (m *Manifest) ContextDefinitions(builtins []datactx.Definition, factory FetcherFactory) ([]datactx.Definition, error) {
	byKey := make(map[string]int, len(builtins))
	defs := make([]datactx.Definition, 0, len(builtins)+len(m.Theme.Contexts))
	for _, b := range builtins {
		byKey[b.Key] = len(defs)
		defs = append(defs, b)
	}

	for _, c := range m.Theme.Contexts {
		if c.Source == SourceCatalog {
			i, ok := byKey[c.Key]
			if !ok {
				return nil, fmt.Errorf("context %s: no built-in catalog context: %w", c.Key, domain.ErrValidation)
			}
			defs[i] = applyContextDef(defs[i], c)
			continue
		}

		if factory == nil {
			return nil, fmt.Errorf("context %s: no data sources configured: %w", c.Key, domain.ErrValidation)
		}
		fetcher, err := factory(c)
		if err != nil {
			return nil, fmt.Errorf("context %s: %w", c.Key, err)
		}
		def := applyContextDef(datactx.Definition{Key: c.Key, Fetcher: fetcher}, c)
		if i, ok := byKey[c.Key]; ok {
			defs[i] = def
			continue
		}
		byKey[c.Key] = len(defs)
		defs = append(defs, def)
	}
	return defs, nil
}

func applyContextDef(def datactx.Definition, c ContextDef) datactx.Definition {
	if c.Identifier != "" {
		def.IdentifierField = c.Identifier
	}
	def.Cacheable = def.Cacheable || c.Cacheable
	if c.CacheTTL != "" {
		// validated at load
		def.CacheTTL, _ = time.ParseDuration(c.CacheTTL)
	}
	if len(c.Filters) > 0 {
		def.AllowedFilters = c.Filters
	}
	if len(c.Sorts) > 0 {
		def.AllowedSorts = c.Sorts
	}
	if c.Pagination {
		def.PaginationEnabled = true
	}
	if c.PerPage > 0 {
		def.PerPage = c.PerPage
	}
	if len(c.EagerLoad) > 0 {
		def.EagerLoad = c.EagerLoad
	}
	return def
}

// Populate replaces the contents of both registries with the manifest's
// definitions. Nothing is replaced if the context definitions fail to build.
func (m *Manifest) Populate(sections *section.Registry, contexts *datactx.Registry, builtins []datactx.Definition, factory FetcherFactory) error {
	ctxDefs, err := m.ContextDefinitions(builtins, factory)
	if err != nil {
		return err
	}
	for _, def := range m.Sections {
		for _, key := range def.AllowedContexts {
			if !hasContext(ctxDefs, key) {
				return fmt.Errorf("section %s: unknown context %s: %w", def.Key, key, domain.ErrValidation)
			}
		}
	}
	if err := contexts.Replace(ctxDefs); err != nil {
		return err
	}
	return sections.Replace(m.Sections)
}

func hasContext(defs []datactx.Definition, key string) bool {
	for _, d := range defs {
		if d.Key == key {
			return true
		}
	}
	return false
}
