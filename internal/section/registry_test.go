package section_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagebuilder/internal/domain"
	"pagebuilder/internal/section"
)

func heroTemplate() section.Template {
	return section.TemplateFunc(func(s section.Settings, ctx *section.ContextView) (string, error) {
		out := fmt.Sprintf("<h1>%s</h1><p>%d</p>", s.String("title"), s.Int("height"))
		if ctx != nil {
			out += "<span>" + ctx.String("title") + "</span>"
		}
		return out, nil
	})
}

func newRegistry(t *testing.T) *section.Registry {
	t.Helper()
	r := section.NewRegistry()
	require.NoError(t, r.Register(section.Definition{
		Key:             "hero",
		Template:        heroTemplate(),
		DefaultSettings: map[string]any{"title": "Default", "height": 400},
		Schema: map[string]section.Field{
			"title":  {Type: section.FieldString, Required: true},
			"height": {Type: section.FieldNumber},
		},
	}))
	require.NoError(t, r.Register(section.Definition{
		Key:             "product-detail",
		Category:        "commerce",
		Template:        heroTemplate(),
		AllowedContexts: []string{"product", "product", "collection"},
	}))
	require.NoError(t, r.Register(section.Definition{Key: "placeholder"}))
	return r
}

func TestRegister_BackfillsOptionalFields(t *testing.T) {
	r := newRegistry(t)

	def, ok := r.Get("placeholder")
	require.True(t, ok)
	assert.Equal(t, "placeholder", def.Label)
	assert.Equal(t, section.DefaultIcon, def.Icon)
	assert.Equal(t, section.DefaultCategory, def.Category)
	assert.NotNil(t, def.Schema)
	assert.NotNil(t, def.DefaultSettings)

	pd, _ := r.Get("product-detail")
	assert.Equal(t, []string{"collection", "product"}, pd.AllowedContexts)
}

func TestRegister_EmptyKey(t *testing.T) {
	err := section.NewRegistry().Register(section.Definition{})
	require.True(t, errors.Is(err, domain.ErrValidation))
}

func TestRender_CallerSettingsWin(t *testing.T) {
	r := newRegistry(t)

	html, ok := r.Render("hero", map[string]any{"title": "Hi"}, nil)
	require.True(t, ok)
	assert.Equal(t, "<h1>Hi</h1><p>400</p>", html)

	html, ok = r.Render("hero", nil, nil)
	require.True(t, ok)
	assert.Equal(t, "<h1>Default</h1><p>400</p>", html)
}

func TestRender_WithContext(t *testing.T) {
	r := newRegistry(t)
	html, ok := r.Render("hero", map[string]any{"title": "Hi"}, map[string]any{"title": "Mug"})
	require.True(t, ok)
	assert.Contains(t, html, "<span>Mug</span>")
}

func TestRender_UnregisteredOrTemplateless(t *testing.T) {
	r := newRegistry(t)

	html, ok := r.Render("nope", nil, nil)
	assert.False(t, ok)
	assert.Empty(t, html)

	_, ok = r.Render("placeholder", nil, nil)
	assert.False(t, ok)
}

func TestRender_TemplateErrorIsSkipped(t *testing.T) {
	r := section.NewRegistry()
	require.NoError(t, r.Register(section.Definition{
		Key: "broken",
		Template: section.TemplateFunc(func(section.Settings, *section.ContextView) (string, error) {
			return "", errors.New("boom")
		}),
	}))
	_, ok := r.Render("broken", nil, nil)
	assert.False(t, ok)
}

func TestRender_Deterministic(t *testing.T) {
	r := newRegistry(t)
	settings := map[string]any{"title": "Same", "height": 10}
	a, _ := r.Render("hero", settings, map[string]any{"title": "x"})
	b, _ := r.Render("hero", settings, map[string]any{"title": "x"})
	assert.Equal(t, a, b)
}

func TestRender_DoesNotMutateDefaults(t *testing.T) {
	r := newRegistry(t)
	_, _ = r.Render("hero", map[string]any{"title": "Changed"}, nil)

	def, _ := r.Get("hero")
	assert.Equal(t, "Default", def.DefaultSettings["title"])
}

func TestValidate(t *testing.T) {
	r := newRegistry(t)

	tests := []struct {
		name     string
		settings map[string]any
		want     map[string]string
	}{
		{"valid", map[string]any{"title": "x", "height": 10}, map[string]string{}},
		{"missing required", map[string]any{"height": 10}, map[string]string{"title": "title is required"}},
		{"empty string is missing", map[string]any{"title": ""}, map[string]string{"title": "title is required"}},
		{"float", map[string]any{"title": "x", "height": 12.5}, map[string]string{}},
		{"numeric string", map[string]any{"title": "x", "height": "12.5"}, map[string]string{"height": "height must be a number"}},
		{"json number", map[string]any{"title": "x", "height": json.Number("12")}, map[string]string{}},
		{"wrong number", map[string]any{"title": "x", "height": "tall"}, map[string]string{"height": "height must be a number"}},
		{"unknown ignored", map[string]any{"title": "x", "extra": true}, map[string]string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Validate("hero", tt.settings))
		})
	}

	assert.Nil(t, r.Validate("nope", nil))
}

func TestValidateSettings_BooleanAndArray(t *testing.T) {
	schema := map[string]section.Field{
		"show":  {Type: section.FieldBoolean},
		"items": {Type: section.FieldArray},
	}
	errs := section.ValidateSettings(schema, map[string]any{"show": "yes", "items": "a"})
	assert.Equal(t, "show must be a boolean", errs["show"])
	assert.Equal(t, "items must be an array", errs["items"])

	errs = section.ValidateSettings(schema, map[string]any{"items": map[string]any{"a": 1}})
	assert.Equal(t, "items must be an array", errs["items"], "objects are not arrays")

	errs = section.ValidateSettings(schema, map[string]any{"show": false, "items": []any{"a"}})
	assert.Empty(t, errs)
}

func TestFilteredViews(t *testing.T) {
	r := newRegistry(t)

	assert.Equal(t, []string{"hero", "placeholder", "product-detail"}, r.Keys())

	forProduct := r.ForContext("product")
	require.Len(t, forProduct, 1)
	assert.Equal(t, "product-detail", forProduct[0].Key)

	available := r.Available("")
	assert.Len(t, available, 2, "context-bound sections are hidden on plain pages")
	assert.Len(t, r.Available("product"), 3)

	assert.Len(t, r.ByCategory("commerce"), 1)
	assert.Len(t, r.Categories()[section.DefaultCategory], 2)
}

func TestReplace(t *testing.T) {
	r := newRegistry(t)
	require.NoError(t, r.Replace([]section.Definition{{Key: "only"}}))
	assert.Equal(t, []string{"only"}, r.Keys())
	assert.False(t, r.Has("hero"))
}
