package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"pagebuilder/internal/domain"
)

func TestDeriveSEO_TitlePrecedence(t *testing.T) {
	tests := []struct {
		name string
		ctx  map[string]any
		want string
	}{
		{"meta title wins", map[string]any{"metaTitle": "A", "title": "B"}, "A"},
		{"title", map[string]any{"title": "B", "name": "C"}, "B"},
		{"name", map[string]any{"name": "C"}, "C"},
		{"empty meta title skipped", map[string]any{"metaTitle": "", "title": "B"}, "B"},
		{"none", map[string]any{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveSEO(tt.ctx, "", "").Title)
		})
	}
}

func TestDeriveSEO_NilContext(t *testing.T) {
	assert.Equal(t, SEO{}, DeriveSEO(nil, "https://x", "home"))
}

func TestDeriveSEO_Description(t *testing.T) {
	seo := DeriveSEO(map[string]any{"excerpt": "<p>Short &amp; <b>sweet</b></p>", "description": "ignored"}, "", "")
	assert.Equal(t, "Short & sweet", seo.Description)

	long := "<div>" + strings.Repeat("a", 200) + "</div>"
	seo = DeriveSEO(map[string]any{"description": long}, "", "")
	assert.Len(t, []rune(seo.Description), DescriptionLimit)

	seo = DeriveSEO(map[string]any{"metaDescription": "Meta", "excerpt": "Ex"}, "", "")
	assert.Equal(t, "Meta", seo.Description)
}

func TestDeriveSEO_ImageKeywordsCanonical(t *testing.T) {
	seo := DeriveSEO(map[string]any{
		"preview":       "p.png",
		"featuredImage": "f.png",
		"metaKeywords":  []any{"mugs", "coffee"},
		"slug":          "mug",
	}, "https://shop.test/", "products")

	assert.Equal(t, "p.png", seo.Image)
	assert.Equal(t, "mugs, coffee", seo.Keywords)
	assert.Equal(t, "https://shop.test/products/mug", seo.Canonical)
	assert.Empty(t, seo.OGType)
}

func TestDeriveSEO_Robots(t *testing.T) {
	assert.Equal(t, NoIndexRobots, DeriveSEO(map[string]any{"isPublished": false, "metaRobots": "index"}, "", "").Robots)
	assert.Equal(t, NoIndexRobots, DeriveSEO(map[string]any{"isActive": false}, "", "").Robots)
	assert.Equal(t, "noarchive", DeriveSEO(map[string]any{"isActive": true, "metaRobots": "noarchive"}, "", "").Robots)
	assert.Empty(t, DeriveSEO(map[string]any{"isActive": true}, "", "").Robots)
}

func TestDeriveSEO_ProductOGType(t *testing.T) {
	seo := DeriveSEO(&domain.Product{Title: "Mug", Price: 0, IsActive: true}, "", "")
	assert.Equal(t, "product", seo.OGType, "a zero price is still defined")
}

func TestSEO_WithDefaultsAndMap(t *testing.T) {
	seo := SEO{}.WithDefaults(&domain.Page{Title: "About"}, &domain.Theme{Name: "Shop"})
	assert.Equal(t, "About", seo.Title)
	assert.Equal(t, DefaultOGType, seo.OGType)
	assert.Equal(t, DefaultRobots, seo.Robots)

	seo = SEO{}.WithDefaults(&domain.Page{}, &domain.Theme{Name: "Shop"})
	assert.Equal(t, "Shop", seo.Title)

	assert.Equal(t, map[string]string{"title": "A"}, SEO{Title: "A"}.Map())
}
