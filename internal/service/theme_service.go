package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"pagebuilder/internal/cache"
	"pagebuilder/internal/domain"
	"pagebuilder/internal/log"
	"pagebuilder/internal/render"
	"pagebuilder/internal/section"
)

// ─────────────────────────────────────────────────────────────
// Theme Service: site chrome editing and theme activation
// ─────────────────────────────────────────────────────────────

// ChromeDrafts carries replacement drafts. A nil list leaves that slot as is.
type ChromeDrafts struct {
	Header domain.SectionList `json:"headerDraft"`
	Footer domain.SectionList `json:"footerDraft"`
}

// ThemeService manages themes and their header and footer.
type ThemeService struct {
	themes   domain.ThemeStore
	sections *section.Registry
	engine   *render.Engine
	cache    cache.Store
	emitter  EventEmitter
	now      func() time.Time

	mu         sync.RWMutex
	activeSlug string
}

// NewThemeService creates a ThemeService serving activeSlug as the public
// theme. engine may be nil, in which case publishing does not warm the cache.
// store holds the page lookups dropped on activation and may be nil.
func NewThemeService(themes domain.ThemeStore, sections *section.Registry, engine *render.Engine, store cache.Store, emitter EventEmitter, activeSlug string) *ThemeService {
	return &ThemeService{
		themes:     themes,
		sections:   sections,
		engine:     engine,
		cache:      store,
		emitter:    emitter,
		now:        time.Now,
		activeSlug: activeSlug,
	}
}

// ActiveSlug returns the slug of the public theme.
func (s *ThemeService) ActiveSlug() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeSlug
}

// Activate switches the public theme until the process exits. Cached page
// lookups belong to the previous theme, so the cache is flushed.
func (s *ThemeService) Activate(ctx context.Context, slug string) (*domain.Theme, error) {
	t, err := s.themes.GetThemeBySlug(slug)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	prev := s.activeSlug
	s.activeSlug = slug
	s.mu.Unlock()
	if prev == slug {
		return t, nil
	}

	if s.cache != nil {
		if err := s.cache.Flush(ctx); err != nil {
			log.Warn(log.CatCache, "flush after activation failed", "error", err)
		}
	}
	log.Info(log.CatTheme, "theme activated", "slug", slug, "previous", prev)
	emit(ctx, s.emitter, EventThemeActivated, t)
	return t, nil
}

// ActiveTheme loads the public theme.
func (s *ThemeService) ActiveTheme(_ context.Context) (*domain.Theme, error) {
	t, err := s.themes.GetThemeBySlug(s.ActiveSlug())
	if err != nil {
		return nil, fmt.Errorf("active theme: %w", err)
	}
	return t, nil
}

func (s *ThemeService) GetTheme(_ context.Context, id string) (*domain.Theme, error) {
	return s.themes.GetTheme(id)
}

func (s *ThemeService) ListThemes(_ context.Context) ([]domain.Theme, error) {
	return s.themes.ListThemes()
}

// Install returns the theme with slug, creating it with the given chrome
// drafts when it does not exist yet. Existing themes are left untouched.
func (s *ThemeService) Install(_ context.Context, slug, name string, header, footer domain.SectionList) (*domain.Theme, bool, error) {
	t, err := s.themes.GetThemeBySlug(slug)
	if err == nil {
		return t, false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, false, err
	}

	t = &domain.Theme{
		ID:     uuid.New().String(),
		Slug:   slug,
		Name:   name,
		Header: domain.SiteChromeConfig{Draft: header.Normalize()},
		Footer: domain.SiteChromeConfig{Draft: footer.Normalize()},
	}
	if err := s.themes.CreateTheme(t); err != nil {
		return nil, false, fmt.Errorf("install theme %s: %w", slug, err)
	}
	log.Info(log.CatTheme, "theme installed", "slug", slug, "id", t.ID)
	return t, true, nil
}

// SaveChromeDrafts replaces the header and/or footer drafts. Like page
// drafts, validation problems are reported without blocking the save.
func (s *ThemeService) SaveChromeDrafts(ctx context.Context, id string, drafts ChromeDrafts) (*domain.Theme, ValidationReport, error) {
	report := ValidationReport{}
	t, err := s.mutate(ctx, id, func(t *domain.Theme) error {
		if drafts.Header != nil {
			t.Header.Draft = drafts.Header.Normalize()
			for k, v := range ValidateList(s.sections, t.Header.Draft) {
				report[k] = v
			}
		}
		if drafts.Footer != nil {
			t.Footer.Draft = drafts.Footer.Normalize()
			for k, v := range ValidateList(s.sections, t.Footer.Draft) {
				report[k] = v
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	if len(report) == 0 {
		report = nil
	}
	return t, report, nil
}

// PublishChrome publishes both chrome drafts and warms their cache entries.
// Chrome keys are content-addressed, so nothing needs invalidating.
func (s *ThemeService) PublishChrome(ctx context.Context, id string) (*domain.Theme, error) {
	t, err := s.mutate(ctx, id, func(t *domain.Theme) error {
		now := s.now()
		t.Header.Publish(now)
		t.Footer.Publish(now)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.engine != nil {
		s.engine.WarmChrome(ctx, t)
	}
	log.Info(log.CatTheme, "chrome published", "theme", t.ID)
	emit(ctx, s.emitter, EventThemePublished, map[string]string{"themeId": t.ID})
	return t, nil
}

// RevertChrome discards the draft of slot in favour of its published list.
func (s *ThemeService) RevertChrome(ctx context.Context, id string, slot domain.ChromeSlot) (*domain.Theme, error) {
	return s.mutate(ctx, id, func(t *domain.Theme) error {
		return t.Chrome(slot).RevertToPublished()
	})
}

func (s *ThemeService) mutate(ctx context.Context, id string, fn func(t *domain.Theme) error) (*domain.Theme, error) {
	t, err := s.themes.GetTheme(id)
	if err != nil {
		return nil, err
	}
	if err := fn(t); err != nil {
		return nil, err
	}
	if err := s.themes.UpdateTheme(t); err != nil {
		return nil, fmt.Errorf("save theme %s: %w", id, err)
	}
	emit(ctx, s.emitter, EventThemeUpdated, map[string]string{"themeId": t.ID})
	return t, nil
}
