package app

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagebuilder/internal/config"
	"pagebuilder/internal/datactx"
	"pagebuilder/internal/domain"
	mcpserver "pagebuilder/internal/mcp"
	"pagebuilder/internal/service"
)

func newTestApp(t *testing.T) (*App, *service.MockEmitter) {
	t.Helper()
	cfg := config.Defaults()
	cfg.DataDir = t.TempDir()
	cfg.DBPath = filepath.Join(cfg.DataDir, "pagebuilder.db")
	cfg.Theme.Dir = filepath.Join("..", "..", "themes", "default")

	emitter := &service.MockEmitter{}
	a, err := New(context.Background(), cfg, emitter)
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a, emitter
}

// ─────────────────────────────────────────────────────────────
// Seed
// ─────────────────────────────────────────────────────────────

func TestNew_LoadsSampleTheme(t *testing.T) {
	a, _ := newTestApp(t)

	for _, key := range []string{"hero", "rich-text", "product-info", "collection-grid", "nav", "footer-links"} {
		assert.True(t, a.Sections().Has(key), "section %s", key)
	}
	assert.ElementsMatch(t, []string{"collection", "product"}, a.Contexts().Keys())

	th, err := a.Themes().ActiveTheme(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "default", th.Slug)
	assert.NotEmpty(t, th.Header.Draft, "header seeded from theme.yaml")
}

func TestSeed_PublishesRenderablePages(t *testing.T) {
	a, _ := newTestApp(t)
	ctx := context.Background()

	res, err := a.Seed(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Products)
	assert.Equal(t, 1, res.Collections)
	assert.ElementsMatch(t, []string{"home", "product", "collection"}, res.Pages)

	home, err := a.resolver.Resolve(ctx, "/", datactx.RequestParams{})
	require.NoError(t, err)
	assert.Equal(t, service.StateRendered, home.State)
	require.Len(t, home.Document.BodySections, 2)
	assert.Contains(t, home.Document.BodySections[0].HTML, "Gear for slow weekends")

	product, err := a.resolver.Resolve(ctx, "/product/enamel-mug", datactx.RequestParams{})
	require.NoError(t, err)
	require.Equal(t, service.StateRendered, product.State)
	assert.Contains(t, product.Document.BodySections[0].HTML, "Enamel Mug")

	missing, err := a.resolver.Resolve(ctx, "/product/no-such-thing", datactx.RequestParams{})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.Equal(t, service.StateNotFound, missing.State)
}

func TestSeed_Idempotent(t *testing.T) {
	a, _ := newTestApp(t)
	ctx := context.Background()

	_, err := a.Seed(ctx)
	require.NoError(t, err)
	res, err := a.Seed(ctx)
	require.NoError(t, err)
	assert.Zero(t, res.Products)
	assert.Zero(t, res.Collections)
	assert.Empty(t, res.Pages)
}

func TestReloadTheme_FlushesAndEmits(t *testing.T) {
	a, emitter := newTestApp(t)

	require.NoError(t, a.ReloadTheme(context.Background()))
	assert.Contains(t, emitter.Names(), service.EventSectionsReloaded)
	assert.NotNil(t, a.Manifest())
}

// ─────────────────────────────────────────────────────────────
// Page watcher
// ─────────────────────────────────────────────────────────────

func TestChangedSlugs(t *testing.T) {
	prev := map[string]domain.PublishState{
		"1": {Slug: "about", IsPublished: true, PublishedAt: "t1"},
		"2": {Slug: "old-name", IsPublished: true, PublishedAt: "t1"},
		"3": {Slug: "gone", IsPublished: true, PublishedAt: "t1"},
		"4": {Slug: "same", IsPublished: true, PublishedAt: "t1"},
	}
	next := map[string]domain.PublishState{
		"1": {Slug: "about", IsPublished: true, PublishedAt: "t2"},
		"2": {Slug: "new-name", IsPublished: true, PublishedAt: "t1"},
		"4": {Slug: "same", IsPublished: true, PublishedAt: "t1"},
		"5": {Slug: "fresh", IsPublished: true, PublishedAt: "t2"},
		"6": {Slug: "draft-only"},
	}

	got := changedSlugs(prev, next)
	sort.Strings(got)
	assert.Equal(t, []string{"about", "fresh", "gone", "new-name", "old-name"}, got)
}

type fakeStates struct {
	states map[string]domain.PublishState
}

func (f *fakeStates) PublishStates() (map[string]domain.PublishState, error) {
	out := make(map[string]domain.PublishState, len(f.states))
	for k, v := range f.states {
		out[k] = v
	}
	return out, nil
}

type fakePending struct {
	pending []domain.Approval
}

func (f *fakePending) ListPendingApprovals() ([]domain.Approval, error) {
	return f.pending, nil
}

func TestPageWatcher_Check(t *testing.T) {
	states := &fakeStates{states: map[string]domain.PublishState{
		"1": {Slug: "about", IsPublished: true, PublishedAt: "t1"},
	}}
	pending := &fakePending{}
	emitter := &service.MockEmitter{}
	var invalidated []string
	w := newPageWatcher(states, pending, func(_ context.Context, slug string) {
		invalidated = append(invalidated, slug)
	}, emitter, time.Hour)
	ctx := context.Background()

	// first poll only records the baseline
	w.check(ctx)
	assert.Empty(t, invalidated)

	states.states["1"] = domain.PublishState{Slug: "about", IsPublished: true, PublishedAt: "t2"}
	pending.pending = []domain.Approval{{ID: "ap-1", Tool: "publish_page", Status: domain.ApprovalPending}}
	w.check(ctx)
	assert.Equal(t, []string{"about"}, invalidated)
	assert.Equal(t, []string{mcpserver.EventApprovalRequired}, emitter.Names())

	// same approval is announced once
	w.check(ctx)
	assert.Len(t, emitter.Names(), 1)
	assert.Len(t, invalidated, 1)

	// a resolved approval that reappears is announced again
	pending.pending = nil
	w.check(ctx)
	pending.pending = []domain.Approval{{ID: "ap-1"}}
	w.check(ctx)
	assert.Len(t, emitter.Names(), 2)
}

func TestPageWatcher_StartStop(t *testing.T) {
	w := newPageWatcher(&fakeStates{}, nil, func(context.Context, string) {}, nil, 0)
	assert.Equal(t, 2*time.Second, w.interval)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)
	w.Stop()
}
