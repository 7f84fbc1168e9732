package render

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"

	"pagebuilder/internal/domain"
	"pagebuilder/internal/section"
)

const (
	DescriptionLimit = 160

	DefaultOGType = "website"
	DefaultRobots = "index, follow"
	NoIndexRobots = "noindex, nofollow"
)

// SEO is the metadata derived for a composed page. Empty fields are unset
// and left for the presentation layer to default.
type SEO struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Keywords    string `json:"keywords,omitempty"`
	Image       string `json:"image,omitempty"`
	Canonical   string `json:"canonical,omitempty"`
	OGType      string `json:"ogType,omitempty"`
	Robots      string `json:"robots,omitempty"`
}

// Map returns the set fields keyed by their JSON names.
func (s SEO) Map() map[string]string {
	m := make(map[string]string, 7)
	set := func(k, v string) {
		if v != "" {
			m[k] = v
		}
	}
	set("title", s.Title)
	set("description", s.Description)
	set("keywords", s.Keywords)
	set("image", s.Image)
	set("canonical", s.Canonical)
	set("ogType", s.OGType)
	set("robots", s.Robots)
	return m
}

// WithDefaults fills the fields the engine leaves unset.
func (s SEO) WithDefaults(page *domain.Page, theme *domain.Theme) SEO {
	if s.Title == "" && page != nil {
		s.Title = page.Title
	}
	if s.Title == "" && theme != nil {
		s.Title = theme.Name
	}
	if s.OGType == "" {
		s.OGType = DefaultOGType
	}
	if s.Robots == "" {
		s.Robots = DefaultRobots
	}
	return s
}

var stripPolicy = bluemonday.StrictPolicy()

// DeriveSEO applies the context cascade. Each field takes the first present
// candidate. A nil context yields an empty SEO.
func DeriveSEO(contextData any, baseURL, pageSlug string) SEO {
	fields := section.ContextFields(contextData)
	if fields == nil {
		return SEO{}
	}

	var seo SEO
	seo.Title = firstString(fields, "metaTitle", "title", "name")
	if desc := firstString(fields, "metaDescription", "excerpt", "description"); desc != "" {
		seo.Description = truncate(stripHTML(desc), DescriptionLimit)
	}
	seo.Keywords = keywords(fields["metaKeywords"])
	seo.Image = firstString(fields, "image", "preview", "featuredImage")

	if slug, ok := fields["slug"].(string); ok && slug != "" {
		seo.Canonical = canonical(baseURL, pageSlug, slug)
	}
	if price, ok := fields["price"]; ok && price != nil {
		seo.OGType = "product"
	}

	switch {
	case isFalse(fields["isPublished"]) || isFalse(fields["isActive"]):
		seo.Robots = NoIndexRobots
	default:
		seo.Robots, _ = fields["metaRobots"].(string)
	}
	return seo
}

func firstString(fields map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := fields[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func keywords(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []string:
		return strings.Join(t, ", ")
	case []any:
		parts := make([]string, 0, len(t))
		for _, p := range t {
			if s, ok := p.(string); ok && s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	}
	return ""
}

func isFalse(v any) bool {
	b, ok := v.(bool)
	return ok && !b
}

func canonical(baseURL, pageSlug, slug string) string {
	if pageSlug == "" {
		pageSlug = domain.HomeSlug
	}
	return strings.TrimRight(baseURL, "/") + "/" + pageSlug + "/" + slug
}

// stripHTML removes all markup and collapses whitespace.
func stripHTML(s string) string {
	text := html.UnescapeString(stripPolicy.Sanitize(s))
	return strings.Join(strings.Fields(text), " ")
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:limit]))
}
