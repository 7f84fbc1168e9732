package app

import (
	"context"
	"fmt"

	"pagebuilder/internal/catalog"
	"pagebuilder/internal/datactx"
	"pagebuilder/internal/dbclient"
	"pagebuilder/internal/domain"
	"pagebuilder/internal/log"
	"pagebuilder/internal/service"
	"pagebuilder/internal/theme"
)

// loadTheme reads the theme directory, fills both registries and installs
// the theme row with its default chrome if it does not exist yet.
func (a *App) loadTheme(ctx context.Context) error {
	m, err := theme.LoadDir(a.cfg.Theme.Dir)
	if err != nil {
		return fmt.Errorf("load theme %s: %w", a.cfg.Theme.Dir, err)
	}
	if err := a.populate(m); err != nil {
		return fmt.Errorf("load theme %s: %w", a.cfg.Theme.Dir, err)
	}

	_, created, err := a.themeSvc.Install(ctx, m.Theme.Slug, m.Theme.Name,
		m.ChromeSeed(domain.ChromeHeader), m.ChromeSeed(domain.ChromeFooter))
	if err != nil {
		return fmt.Errorf("install theme %s: %w", m.Theme.Slug, err)
	}
	if created {
		log.Info(log.CatTheme, "installed theme", "slug", m.Theme.Slug)
	}

	a.mu.Lock()
	a.manifest = m
	a.mu.Unlock()
	log.Info(log.CatTheme, "theme loaded", "slug", m.Theme.Slug,
		"sections", len(m.Sections), "contexts", len(a.contexts.Keys()))
	return nil
}

func (a *App) populate(m *theme.Manifest) error {
	kinds := catalog.DefaultKinds(a.catalog)
	var factory theme.FetcherFactory
	if len(a.cfg.Sources) > 0 {
		factory = a.sourceFetcher
	}
	return m.Populate(a.sections, a.contexts, catalog.Contexts(a.catalog, kinds), factory)
}

// sourceFetcher binds a manifest context to a table of a configured source.
func (a *App) sourceFetcher(def theme.ContextDef) (datactx.Fetcher, error) {
	if _, ok := a.sources.Source(def.Source); !ok {
		return nil, fmt.Errorf("unknown source %q: %w", def.Source, domain.ErrValidation)
	}
	return dbclient.NewTableFetcher(a.sources, def.Source, def.Table, def.Identifier), nil
}

// ReloadTheme re-reads section and context definitions. Installed theme rows
// and their chrome are left alone. On error the previous definitions stay.
func (a *App) ReloadTheme(ctx context.Context) error {
	m, err := theme.LoadDir(a.cfg.Theme.Dir)
	if err != nil {
		return err
	}
	if err := a.populate(m); err != nil {
		return err
	}
	a.mu.Lock()
	a.manifest = m
	a.mu.Unlock()

	// rendered chrome depends on templates
	if err := a.cache.Flush(ctx); err != nil {
		log.Warn(log.CatCache, "flush after reload failed", "error", err)
	}
	a.emitter.Emit(ctx, service.EventSectionsReloaded, map[string]any{"sections": a.sections.Keys()})
	return nil
}

// Manifest returns the most recently loaded theme.
func (a *App) Manifest() *theme.Manifest {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.manifest
}

// watchTheme reloads the theme on every debounced change under the theme
// directory until ctx is done. onReload runs after each successful reload.
func (a *App) watchTheme(ctx context.Context, onReload func(*theme.Manifest)) error {
	w, err := theme.NewWatcher(theme.DefaultWatcherConfig(a.cfg.Theme.Dir))
	if err != nil {
		return err
	}
	changes, err := w.Start()
	if err != nil {
		return err
	}

	go func() {
		defer func() { _ = w.Stop() }()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-changes:
				if !ok {
					return
				}
				if err := a.ReloadTheme(ctx); err != nil {
					log.ErrorErr(log.CatTheme, "reload failed, keeping previous definitions", err)
					continue
				}
				log.Info(log.CatTheme, "theme reloaded", "sections", len(a.sections.Keys()))
				if onReload != nil {
					onReload(a.Manifest())
				}
			}
		}
	}()
	return nil
}
