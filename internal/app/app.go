// Package app wires storage, registries, services and transports together.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"pagebuilder/internal/cache"
	"pagebuilder/internal/config"
	"pagebuilder/internal/datactx"
	"pagebuilder/internal/dbclient"
	"pagebuilder/internal/domain"
	"pagebuilder/internal/log"
	"pagebuilder/internal/render"
	"pagebuilder/internal/secret"
	"pagebuilder/internal/section"
	"pagebuilder/internal/service"
	"pagebuilder/internal/storage"
	"pagebuilder/internal/theme"
)

// SecretPrefix prefixes environment variables holding source passwords.
const SecretPrefix = "PAGEBUILDER"

// App holds every long-lived component of a pagebuilder process.
type App struct {
	cfg config.Config

	db        *storage.DB
	pages     *storage.PageStore
	themes    *storage.ThemeStore
	catalog   *storage.CatalogStore
	approvals *storage.ApprovalStore

	cache    *cache.InMemoryStore
	sections *section.Registry
	contexts *datactx.Registry
	sources  *dbclient.Pool
	emitter  service.EventEmitter

	engine   *render.Engine
	pageSvc  *service.PageService
	themeSvc *service.ThemeService
	resolver *service.Resolver

	mu       sync.Mutex
	manifest *theme.Manifest
}

// New opens the database and builds every component from cfg. The theme at
// cfg.Theme.Dir is loaded and installed.
func New(ctx context.Context, cfg config.Config, emitter service.EventEmitter) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	// every event is logged; callers may listen too
	if emitter == nil {
		emitter = service.LogEmitter{}
	} else {
		emitter = service.FanOut{service.LogEmitter{}, emitter}
	}
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	db, err := storage.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	a := &App{
		cfg:       cfg,
		db:        db,
		pages:     storage.NewPageStore(db),
		themes:    storage.NewThemeStore(db),
		catalog:   storage.NewCatalogStore(db),
		approvals: storage.NewApprovalStore(db),
		cache:     cache.NewInMemoryStore("pagebuilder", cfg.Cache.PageTTL, cfg.Cache.CleanupInterval),
		sections:  section.NewRegistry(),
		sources:   dbclient.NewPool(secret.NewEnvStore(SecretPrefix)),
		emitter:   emitter,
	}
	a.contexts = datactx.NewRegistry(a.cache)
	for _, src := range cfg.Sources {
		a.sources.Add(dataSource(src), src.PasswordEnv)
	}

	a.engine = render.NewEngine(a.sections, a.cache, cfg.Cache.ChromeTTL, cfg.HTTP.BaseURL)
	a.pageSvc = service.NewPageService(a.pages, a.themes, a.sections, a.cache, emitter)
	a.themeSvc = service.NewThemeService(a.themes, a.sections, a.engine, a.cache, emitter, cfg.Theme.Active)
	a.resolver = service.NewResolver(a.pages, a.themeSvc, a.contexts, a.engine, a.cache, cfg.Cache.PageTTL)

	if err := a.loadTheme(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// Close releases external connections and the database.
func (a *App) Close() {
	if err := a.sources.Close(); err != nil {
		log.Warn(log.CatDB, "closing sources", "error", err)
	}
	if err := a.db.Close(); err != nil {
		log.Warn(log.CatDB, "closing database", "error", err)
	}
}

// Sections returns the section registry.
func (a *App) Sections() *section.Registry { return a.sections }

// Pages returns the page service.
func (a *App) Pages() *service.PageService { return a.pageSvc }

// Themes returns the theme service.
func (a *App) Themes() *service.ThemeService { return a.themeSvc }

// Contexts returns the context registry.
func (a *App) Contexts() *datactx.Registry { return a.contexts }

// PingSources tests every configured external source.
func (a *App) PingSources(ctx context.Context) map[string]error {
	return a.sources.Ping(ctx)
}

func dataSource(src config.SourceConfig) domain.DataSource {
	return domain.DataSource{
		Name:     src.Name,
		Driver:   domain.DatabaseDriver(src.Driver),
		Host:     src.Host,
		Port:     src.Port,
		Database: src.Database,
		Username: src.Username,
		SSLMode:  src.SSLMode,
		Extra:    src.Extra,
	}
}
