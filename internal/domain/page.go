package domain

import "time"

// PageType distinguishes pages resolved by the public catch-all route from
// pages that only exist for the editor.
type PageType string

const (
	PageTypeStatic PageType = "static"
	PageTypeSystem PageType = "system"
)

// HomeSlug is served for the empty request path.
const HomeSlug = "home"

// PageConfig holds the draft and published versions of a page body.
// PublishedBody is nil until the first publish.
type PageConfig struct {
	DraftBody     SectionList `json:"draftBody"`
	PublishedBody SectionList `json:"publishedBody"`
	IsPublished   bool        `json:"isPublished"`
	PublishedAt   *time.Time  `json:"publishedAt"`
}

// AddSection inserts a new instance into the draft. Published is untouched.
func (c *PageConfig) AddSection(key string, settings map[string]any, position int) SectionInstance {
	var inst SectionInstance
	c.DraftBody, inst = c.DraftBody.Add(key, settings, position)
	return inst
}

// RemoveSection drops an instance from the draft.
func (c *PageConfig) RemoveSection(id string) {
	c.DraftBody = c.DraftBody.Remove(id)
}

// UpdateSection shallow-merges partial into an instance's draft settings.
func (c *PageConfig) UpdateSection(id string, partial map[string]any) {
	c.DraftBody = c.DraftBody.Update(id, partial)
}

// ReorderSections rebuilds the draft in the given order, dropping unlisted ids.
func (c *PageConfig) ReorderSections(ids []string) {
	c.DraftBody = c.DraftBody.Reorder(ids)
}

// Publish snapshots the draft into the published body.
func (c *PageConfig) Publish(now time.Time) {
	c.PublishedBody = c.DraftBody.Clone()
	if c.PublishedBody == nil {
		c.PublishedBody = SectionList{}
	}
	c.IsPublished = true
	c.PublishedAt = &now
}

// Unpublish hides the page from public callers. The published body is kept.
func (c *PageConfig) Unpublish() {
	c.IsPublished = false
}

// RevertToPublished replaces the draft with a copy of the published body.
func (c *PageConfig) RevertToPublished() error {
	if c.PublishedBody == nil {
		return ErrNeverPublished
	}
	c.DraftBody = c.PublishedBody.Clone()
	return nil
}

// EffectiveBody returns the list a caller should see. Preview callers get the
// draft; public callers always get the published body, which is nil before
// the first publish. Whether an unpublished page is reachable at all is
// decided by the page lookup, not here.
func (c *PageConfig) EffectiveBody(preview bool) SectionList {
	if preview {
		return c.DraftBody
	}
	return c.PublishedBody
}

// Page is a site page whose body is assembled from sections.
type Page struct {
	ID         string   `json:"id"`
	ThemeID    string   `json:"themeId"`
	Slug       string   `json:"slug"`
	Title      string   `json:"title"`
	Type       PageType `json:"type"`
	ContextKey string   `json:"contextKey"`
	PageConfig
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Clone returns a deep copy of the page.
func (p *Page) Clone() *Page {
	cp := *p
	cp.DraftBody = p.DraftBody.Clone()
	cp.PublishedBody = p.PublishedBody.Clone()
	if p.PublishedAt != nil {
		t := *p.PublishedAt
		cp.PublishedAt = &t
	}
	return &cp
}

// PublishState is the part of a page the publish watcher fingerprints.
type PublishState struct {
	Slug        string
	IsPublished bool
	PublishedAt string
}

// PageStore persists pages together with their configuration.
type PageStore interface {
	CreatePage(p *Page) error
	GetPage(id string) (*Page, error)
	FindPublished(themeID, slug string, pageType PageType) (*Page, error)
	ListPages(themeID string) ([]Page, error)
	UpdatePage(p *Page) error
	DeletePage(id string) error
	PublishStates() (map[string]PublishState, error)
}
