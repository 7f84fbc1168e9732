package theme

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagebuilder/internal/datactx"
	"pagebuilder/internal/domain"
	"pagebuilder/internal/render"
	"pagebuilder/internal/section"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"theme.yaml": {Data: []byte(`
slug: default
name: Default
contexts:
  - key: product
    source: catalog
    cacheable: true
    cache_ttl: 5m
  - key: post
    source: blog
    table: posts
    filters: [category]
    sorts: [views]
header:
  - key: nav
    settings:
      brand: Shop
footer:
  - key: nav
`)},
		"layout.html": {Data: []byte(`<html><head><title>{{.Title}}</title></head><body>{{range .Body}}{{.}}{{end}}</body></html>`)},
		"sections/hero/section.yaml": {Data: []byte(`
label: Hero
category: banners
defaults:
  title: Welcome
schema:
  title:
    type: string
    label: Title
    required: true
  count:
    type: number
`)},
		"sections/hero/template.html": {Data: []byte(`<h1>{{.Settings.String "title"}}</h1>`)},
		"sections/nav/section.yaml": {Data: []byte(`
key: nav
label: Navigation
template: shared/nav.html
`)},
		"shared/nav.html": {Data: []byte(`<nav>{{.Settings.String "brand"}}</nav>`)},
		"sections/product-info/section.yaml": {Data: []byte(`
label: Product info
contexts: [product]
`)},
		"sections/product-info/template.html": {Data: []byte(`{{with .Context}}<p>{{.String "title"}} {{money (.Get "price")}}</p>{{else}}<p>none</p>{{end}}`)},
	}
}

func staticFetcher(v any) datactx.Fetcher {
	return datactx.FetcherFunc(func(ctx context.Context, p datactx.Params) (any, error) { return v, nil })
}

func TestLoadManifest(t *testing.T) {
	m, err := LoadManifest(testFS())
	require.NoError(t, err)

	assert.Equal(t, "default", m.Theme.Slug)
	assert.NotNil(t, m.Layout)
	require.Len(t, m.Sections, 3)
	assert.Equal(t, "hero", m.Sections[0].Key)
	assert.Equal(t, "nav", m.Sections[1].Key)
	assert.Equal(t, "product-info", m.Sections[2].Key)

	hero := m.Sections[0]
	assert.Equal(t, "sections/hero/template.html", hero.TemplateRef)
	assert.Equal(t, "banners", hero.Category)
	assert.True(t, hero.Schema["title"].Required)
	assert.Equal(t, section.FieldNumber, hero.Schema["count"].Type)
	assert.Equal(t, "shared/nav.html", m.Sections[1].TemplateRef)
}

func TestLoadManifest_Errors(t *testing.T) {
	tests := []struct {
		name  string
		patch fstest.MapFS
	}{
		{"missing slug", fstest.MapFS{"theme.yaml": {Data: []byte("name: x")}}},
		{"missing template", fstest.MapFS{"sections/hero/template.html": nil}},
		{"bad template", fstest.MapFS{"sections/hero/template.html": {Data: []byte("{{.Settings")}}},
		{"table required", fstest.MapFS{"theme.yaml": {Data: []byte("slug: x\ncontexts:\n  - key: a\n    source: db\n")}}},
		{"bad ttl", fstest.MapFS{"theme.yaml": {Data: []byte("slug: x\ncontexts:\n  - key: a\n    source: catalog\n    cache_ttl: soon\n")}}},
		{"duplicate section", fstest.MapFS{"sections/other/section.yaml": {Data: []byte("key: hero\ntemplate: ../hero/template.html\n")}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := testFS()
			for k, v := range tt.patch {
				if v == nil {
					delete(fsys, k)
					continue
				}
				fsys[k] = v
			}
			_, err := LoadManifest(fsys)
			assert.Error(t, err)
		})
	}
}

func TestLoadManifest_NoSectionsDir(t *testing.T) {
	m, err := LoadManifest(fstest.MapFS{"theme.yaml": {Data: []byte("slug: bare")}})
	require.NoError(t, err)
	assert.Empty(t, m.Sections)
	assert.Nil(t, m.Layout)
	assert.Equal(t, "bare", m.Theme.Name)
}

func TestHTMLTemplate_RendersSettingsAndContext(t *testing.T) {
	m, err := LoadManifest(testFS())
	require.NoError(t, err)

	reg := section.NewRegistry()
	require.NoError(t, reg.Replace(m.Sections))

	html, ok := reg.Render("hero", nil, nil)
	require.True(t, ok)
	assert.Equal(t, "<h1>Welcome</h1>", html)

	html, ok = reg.Render("hero", map[string]any{"title": "<b>Sale</b>"}, nil)
	require.True(t, ok)
	assert.Equal(t, "<h1>&lt;b&gt;Sale&lt;/b&gt;</h1>", html)

	html, ok = reg.Render("product-info", nil, map[string]any{"title": "Mug", "price": 12.5})
	require.True(t, ok)
	assert.Equal(t, "<p>Mug 12.50</p>", html)

	html, ok = reg.Render("product-info", nil, nil)
	require.True(t, ok)
	assert.Equal(t, "<p>none</p>", html)
}

func TestRenderDocument(t *testing.T) {
	doc := &render.ComposedDocument{
		Page:         &domain.Page{ID: "p1", Title: "About"},
		BodySections: []render.Fragment{{ID: "a", Key: "hero", HTML: "<h1>Hi &amp; bye</h1>"}},
		SEO:          render.SEO{Description: "About us"},
	}

	m, err := LoadManifest(testFS())
	require.NoError(t, err)
	var b strings.Builder
	require.NoError(t, RenderDocument(&b, m.Layout, doc))
	assert.Equal(t, "<html><head><title>About</title></head><body><h1>Hi &amp; bye</h1></body></html>", b.String())

	b.Reset()
	require.NoError(t, RenderDocument(&b, nil, doc))
	out := b.String()
	assert.Contains(t, out, "<title>About</title>")
	assert.Contains(t, out, `<meta name="description" content="About us">`)
	assert.Contains(t, out, `<meta name="robots" content="index, follow">`)
	assert.NotContains(t, out, "canonical")
	assert.Contains(t, out, "<header></header>")
	assert.Contains(t, out, "<main><h1>Hi &amp; bye</h1></main>")
}

func TestChromeSeed(t *testing.T) {
	m, err := LoadManifest(testFS())
	require.NoError(t, err)

	header := m.ChromeSeed(domain.ChromeHeader)
	require.Len(t, header, 1)
	assert.Equal(t, "nav", header[0].Key)
	assert.Equal(t, "Shop", header[0].Settings["brand"])
	assert.NotEmpty(t, header[0].ID)

	footer := m.ChromeSeed(domain.ChromeFooter)
	require.Len(t, footer, 1)
	assert.NotEqual(t, header[0].ID, footer[0].ID)
}

func TestPopulate(t *testing.T) {
	m, err := LoadManifest(testFS())
	require.NoError(t, err)

	builtins := []datactx.Definition{
		{Key: "product", Fetcher: staticFetcher(map[string]any{"title": "Mug"})},
		{Key: "collection", Fetcher: staticFetcher(nil)},
	}
	var built []string
	factory := func(c ContextDef) (datactx.Fetcher, error) {
		built = append(built, c.Source+"."+c.Table)
		return staticFetcher(map[string]any{"items": []any{}}), nil
	}

	sections := section.NewRegistry()
	contexts := datactx.NewRegistry(nil)
	require.NoError(t, m.Populate(sections, contexts, builtins, factory))

	assert.Equal(t, []string{"blog.posts"}, built)
	assert.ElementsMatch(t, []string{"collection", "post", "product"}, contexts.Keys())
	assert.ElementsMatch(t, []string{"hero", "nav", "product-info"}, sections.Keys())

	product, ok := contexts.Get("product")
	require.True(t, ok)
	assert.True(t, product.Cacheable)
	assert.Equal(t, 5*time.Minute, product.CacheTTL)

	post, _ := contexts.Get("post")
	assert.Equal(t, []string{"category"}, post.AllowedFilters)
	assert.Equal(t, []string{"views"}, post.AllowedSorts)
}

func TestPopulate_UnknownCatalogContext(t *testing.T) {
	m := &Manifest{Theme: ThemeFile{Slug: "x", Contexts: []ContextDef{{Key: "order", Source: SourceCatalog}}}}
	err := m.Populate(section.NewRegistry(), datactx.NewRegistry(nil), nil, nil)
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestPopulate_SectionWithUnknownContextLeavesRegistriesAlone(t *testing.T) {
	sections := section.NewRegistry()
	require.NoError(t, sections.Register(section.Definition{Key: "keep", Template: section.TemplateFunc(func(section.Settings, *section.ContextView) (string, error) { return "", nil })}))

	m := &Manifest{
		Theme:    ThemeFile{Slug: "x"},
		Sections: []section.Definition{{Key: "orphan", AllowedContexts: []string{"order"}}},
	}
	err := m.Populate(sections, datactx.NewRegistry(nil), nil, nil)
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, []string{"keep"}, sections.Keys())
}

func TestIsRelevantEvent(t *testing.T) {
	assert.True(t, isRelevantEvent(fsnotify.Event{Name: "sections/hero/section.yaml", Op: fsnotify.Write}))
	assert.True(t, isRelevantEvent(fsnotify.Event{Name: "sections/hero/template.html", Op: fsnotify.Remove}))
	assert.False(t, isRelevantEvent(fsnotify.Event{Name: "sections/hero/notes.txt", Op: fsnotify.Write}))
	assert.False(t, isRelevantEvent(fsnotify.Event{Name: "theme.yaml", Op: fsnotify.Chmod}))
}

func TestWatcher_SignalsOnTemplateChange(t *testing.T) {
	dir := t.TempDir()
	sectionDir := filepath.Join(dir, "sections", "hero")
	require.NoError(t, os.MkdirAll(sectionDir, 0o755))
	tmpl := filepath.Join(sectionDir, "template.html")
	require.NoError(t, os.WriteFile(tmpl, []byte("a"), 0o644))

	w, err := NewWatcher(WatcherConfig{Dir: dir, DebounceDur: 50 * time.Millisecond})
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()

	onChange, err := w.Start()
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(tmpl, []byte{byte('b' + i)}, 0o644))
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case <-onChange:
	case <-time.After(time.Second):
		t.Fatal("expected notification but got timeout")
	}
}
