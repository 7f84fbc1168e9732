package domain

import (
	"fmt"
	"time"
)

// ChromeSlot names a site-wide chrome region.
type ChromeSlot string

const (
	ChromeHeader ChromeSlot = "header"
	ChromeFooter ChromeSlot = "footer"
)

// ParseChromeSlot validates a slot name coming from a request.
func ParseChromeSlot(s string) (ChromeSlot, error) {
	switch ChromeSlot(s) {
	case ChromeHeader, ChromeFooter:
		return ChromeSlot(s), nil
	default:
		return "", fmt.Errorf("unknown chrome slot %q", s)
	}
}

// SiteChromeConfig is the draft/published pair for one chrome slot.
type SiteChromeConfig struct {
	Draft       SectionList `json:"draft"`
	Published   SectionList `json:"published"`
	PublishedAt *time.Time  `json:"publishedAt"`
}

// Publish snapshots the draft.
func (c *SiteChromeConfig) Publish(now time.Time) {
	c.Published = c.Draft.Clone()
	if c.Published == nil {
		c.Published = SectionList{}
	}
	c.PublishedAt = &now
}

// RevertToPublished replaces the draft with a copy of the published list.
func (c *SiteChromeConfig) RevertToPublished() error {
	if c.Published == nil {
		return ErrNeverPublished
	}
	c.Draft = c.Published.Clone()
	return nil
}

// Effective returns the draft for preview callers and the published list
// otherwise.
func (c *SiteChromeConfig) Effective(preview bool) SectionList {
	if preview {
		return c.Draft
	}
	return c.Published
}

// Theme owns the site chrome and groups pages.
type Theme struct {
	ID        string           `json:"id"`
	Slug      string           `json:"slug"`
	Name      string           `json:"name"`
	Header    SiteChromeConfig `json:"header"`
	Footer    SiteChromeConfig `json:"footer"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// Chrome returns the config for slot.
func (t *Theme) Chrome(slot ChromeSlot) *SiteChromeConfig {
	if slot == ChromeFooter {
		return &t.Footer
	}
	return &t.Header
}

// ThemeStore persists themes and their chrome configuration.
type ThemeStore interface {
	CreateTheme(t *Theme) error
	GetTheme(id string) (*Theme, error)
	GetThemeBySlug(slug string) (*Theme, error)
	ListThemes() ([]Theme, error)
	UpdateTheme(t *Theme) error
}
