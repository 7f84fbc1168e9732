package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"pagebuilder/internal/cache"
	"pagebuilder/internal/domain"
	"pagebuilder/internal/log"
	"pagebuilder/internal/section"
)

// ─────────────────────────────────────────────────────────────
// Page Service: draft editing and publishing
// ─────────────────────────────────────────────────────────────

// ValidationReport maps a section instance id to its field errors.
type ValidationReport map[string]map[string]string

// NewPage holds the fields accepted when creating a page.
type NewPage struct {
	ThemeID    string             `json:"themeId"`
	Slug       string             `json:"slug"`
	Title      string             `json:"title"`
	Type       domain.PageType    `json:"type"`
	ContextKey string             `json:"contextKey"`
	DraftBody  domain.SectionList `json:"draftBody"`
}

// EditorState is everything the editor needs to open a page.
type EditorState struct {
	Page              *domain.Page         `json:"page"`
	Theme             *domain.Theme        `json:"theme"`
	AvailableSections []section.Definition `json:"availableSections"`
}

// PageService manages page drafts and their publication.
type PageService struct {
	pages    domain.PageStore
	themes   domain.ThemeStore
	sections *section.Registry
	cache    cache.Store
	emitter  EventEmitter
	now      func() time.Time
}

// NewPageService creates a PageService. store may be nil.
func NewPageService(pages domain.PageStore, themes domain.ThemeStore, sections *section.Registry, store cache.Store, emitter EventEmitter) *PageService {
	return &PageService{
		pages:    pages,
		themes:   themes,
		sections: sections,
		cache:    store,
		emitter:  emitter,
		now:      time.Now,
	}
}

// CreatePage creates an unpublished page.
func (s *PageService) CreatePage(ctx context.Context, in NewPage) (*domain.Page, error) {
	slug := strings.Trim(strings.TrimSpace(in.Slug), "/")
	if slug == "" || strings.Contains(slug, "/") {
		return nil, fmt.Errorf("create page: invalid slug %q: %w", in.Slug, domain.ErrValidation)
	}
	if _, err := s.themes.GetTheme(in.ThemeID); err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}

	p := &domain.Page{
		ID:         uuid.New().String(),
		ThemeID:    in.ThemeID,
		Slug:       slug,
		Title:      in.Title,
		Type:       in.Type,
		ContextKey: in.ContextKey,
	}
	p.DraftBody = in.DraftBody.Normalize()
	if err := s.pages.CreatePage(p); err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	log.Info(log.CatDB, "page created", "id", p.ID, "slug", p.Slug)
	return p, nil
}

func (s *PageService) GetPage(_ context.Context, id string) (*domain.Page, error) {
	return s.pages.GetPage(id)
}

func (s *PageService) ListPages(_ context.Context, themeID string) ([]domain.Page, error) {
	return s.pages.ListPages(themeID)
}

// GetEditorState returns the page, its theme and the sections that may be
// placed on it.
func (s *PageService) GetEditorState(_ context.Context, id string) (*EditorState, error) {
	p, err := s.pages.GetPage(id)
	if err != nil {
		return nil, err
	}
	t, err := s.themes.GetTheme(p.ThemeID)
	if err != nil {
		return nil, fmt.Errorf("page %s theme: %w", id, err)
	}
	return &EditorState{
		Page:              p,
		Theme:             t,
		AvailableSections: s.sections.Available(p.ContextKey),
	}, nil
}

// SaveDraft replaces the draft body. Validation problems are reported but
// never block the save.
func (s *PageService) SaveDraft(ctx context.Context, id string, body domain.SectionList) (*domain.Page, ValidationReport, error) {
	var report ValidationReport
	p, err := s.mutate(ctx, id, func(p *domain.Page) error {
		p.DraftBody = body.Normalize()
		report = ValidateList(s.sections, p.DraftBody)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return p, report, nil
}

// AddSection inserts a new instance of key into the draft.
func (s *PageService) AddSection(ctx context.Context, id, key string, settings map[string]any, position int) (domain.SectionInstance, map[string]string, error) {
	if !s.sections.Has(key) {
		return domain.SectionInstance{}, nil, fmt.Errorf("add section %s: %w", key, domain.ErrUnregisteredSection)
	}
	var inst domain.SectionInstance
	_, err := s.mutate(ctx, id, func(p *domain.Page) error {
		inst = p.AddSection(key, settings, position)
		return nil
	})
	if err != nil {
		return domain.SectionInstance{}, nil, err
	}
	return inst, s.sections.Validate(key, inst.Settings), nil
}

// RemoveSection drops an instance from the draft.
func (s *PageService) RemoveSection(ctx context.Context, id, instanceID string) error {
	_, err := s.mutate(ctx, id, func(p *domain.Page) error {
		if _, ok := p.DraftBody.Find(instanceID); !ok {
			return fmt.Errorf("section %s: %w", instanceID, domain.ErrNotFound)
		}
		p.RemoveSection(instanceID)
		return nil
	})
	return err
}

// UpdateSection merges partial into an instance's settings and returns the
// validation result for the merged settings.
func (s *PageService) UpdateSection(ctx context.Context, id, instanceID string, partial map[string]any) (map[string]string, error) {
	var errs map[string]string
	_, err := s.mutate(ctx, id, func(p *domain.Page) error {
		if _, ok := p.DraftBody.Find(instanceID); !ok {
			return fmt.Errorf("section %s: %w", instanceID, domain.ErrNotFound)
		}
		p.UpdateSection(instanceID, partial)
		inst, _ := p.DraftBody.Find(instanceID)
		errs = s.sections.Validate(inst.Key, inst.Settings)
		return nil
	})
	return errs, err
}

// ReorderSections rebuilds the draft in the given order.
func (s *PageService) ReorderSections(ctx context.Context, id string, ids []string) (*domain.Page, error) {
	return s.mutate(ctx, id, func(p *domain.Page) error {
		p.ReorderSections(ids)
		return nil
	})
}

// Publish snapshots the draft and drops the cached lookups for the page.
func (s *PageService) Publish(ctx context.Context, id string) (*domain.Page, error) {
	p, err := s.mutate(ctx, id, func(p *domain.Page) error {
		p.Publish(s.now())
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, p.Slug)
	log.Info(log.CatRender, "page published", "id", p.ID, "slug", p.Slug, "sections", len(p.PublishedBody))
	emit(ctx, s.emitter, EventPagePublished, map[string]string{"pageId": p.ID, "slug": p.Slug})
	return p, nil
}

// Unpublish hides the page from public routes.
func (s *PageService) Unpublish(ctx context.Context, id string) (*domain.Page, error) {
	p, err := s.mutate(ctx, id, func(p *domain.Page) error {
		p.Unpublish()
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, p.Slug)
	emit(ctx, s.emitter, EventPageUnpublished, map[string]string{"pageId": p.ID, "slug": p.Slug})
	return p, nil
}

// Revert discards the draft in favour of the published body.
func (s *PageService) Revert(ctx context.Context, id string) (*domain.Page, error) {
	return s.mutate(ctx, id, func(p *domain.Page) error {
		return p.RevertToPublished()
	})
}

// DeletePage removes a page.
func (s *PageService) DeletePage(ctx context.Context, id string) error {
	p, err := s.pages.GetPage(id)
	if err != nil {
		return err
	}
	if err := s.pages.DeletePage(id); err != nil {
		return fmt.Errorf("delete page: %w", err)
	}
	s.invalidate(ctx, p.Slug)
	return nil
}

// Invalidate drops the cached lookups for slug. Used by the page watcher when
// another process changed publish state.
func (s *PageService) Invalidate(ctx context.Context, slug string) {
	s.invalidate(ctx, slug)
}

// invalidate bumps the slug version before dropping the lookups so a
// resolver that read the old row cannot keep it cached.
func (s *PageService) invalidate(ctx context.Context, slug string) {
	cache.Put(ctx, s.cache, cache.VersionKey(slug), uuid.New().String(), cache.PageTTL)
	cache.Forget(ctx, s.cache, cache.PageKey(slug), cache.RouteKey(slug))
}

// mutate loads a page, applies fn and saves it. Concurrent editors are not
// detected; the last save wins.
func (s *PageService) mutate(ctx context.Context, id string, fn func(p *domain.Page) error) (*domain.Page, error) {
	p, err := s.pages.GetPage(id)
	if err != nil {
		return nil, err
	}
	if err := fn(p); err != nil {
		return nil, err
	}
	if err := s.pages.UpdatePage(p); err != nil {
		return nil, fmt.Errorf("save page %s: %w", id, err)
	}
	emit(ctx, s.emitter, EventPageUpdated, map[string]string{"pageId": p.ID})
	return p, nil
}

// ValidateList validates every instance of list. Unregistered keys are
// reported under the "key" field. It returns nil when everything is valid.
func ValidateList(reg *section.Registry, list domain.SectionList) ValidationReport {
	report := ValidationReport{}
	for _, inst := range list {
		if !reg.Has(inst.Key) {
			report[inst.ID] = map[string]string{"key": fmt.Sprintf("%s is not a registered section", inst.Key)}
			continue
		}
		if errs := reg.Validate(inst.Key, inst.Settings); len(errs) > 0 {
			report[inst.ID] = errs
		}
	}
	if len(report) == 0 {
		return nil
	}
	return report
}
