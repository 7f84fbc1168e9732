package app

import (
	"context"
	"sync"
	"time"

	"pagebuilder/internal/domain"
	"pagebuilder/internal/log"
	mcpserver "pagebuilder/internal/mcp"
	"pagebuilder/internal/service"
)

// publishSource is the part of the page store the watcher polls.
type publishSource interface {
	PublishStates() (map[string]domain.PublishState, error)
}

// pendingSource lists approvals waiting for a decision.
type pendingSource interface {
	ListPendingApprovals() ([]domain.Approval, error)
}

// pageWatcher polls the database for publish changes made by another
// process (e.g. the standalone MCP server) and drops the page lookups this
// process cached for the affected slugs. It also announces approval requests
// written by that process.
type pageWatcher struct {
	pages      publishSource
	approvals  pendingSource
	invalidate func(ctx context.Context, slug string)
	emitter    service.EventEmitter
	interval   time.Duration

	mu   sync.Mutex
	last map[string]domain.PublishState
	// Track emitted approval IDs to avoid re-emission
	emittedApprovals map[string]bool
	stopCh           chan struct{}
}

func newPageWatcher(pages publishSource, approvals pendingSource, invalidate func(context.Context, string), emitter service.EventEmitter, interval time.Duration) *pageWatcher {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &pageWatcher{
		pages:            pages,
		approvals:        approvals,
		invalidate:       invalidate,
		emitter:          emitter,
		interval:         interval,
		emittedApprovals: map[string]bool{},
	}
}

// Start begins the polling loop.
func (w *pageWatcher) Start(ctx context.Context) {
	w.stopCh = make(chan struct{})
	go w.pollLoop(ctx)
}

// Stop terminates the polling loop.
func (w *pageWatcher) Stop() {
	if w.stopCh != nil {
		close(w.stopCh)
	}
}

func (w *pageWatcher) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.check(ctx)
		case <-w.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (w *pageWatcher) check(ctx context.Context) {
	// ── Publish fingerprints ───────────────────────────
	states, err := w.pages.PublishStates()
	if err != nil {
		log.Warn(log.CatWatcher, "publish state poll failed", "error", err)
		return
	}

	w.mu.Lock()
	prev := w.last
	w.last = states
	w.mu.Unlock()

	if prev != nil {
		for _, slug := range changedSlugs(prev, states) {
			log.Debug(log.CatWatcher, "external publish change", "slug", slug)
			w.invalidate(ctx, slug)
		}
	}

	// ── Pending approvals (cross-process IPC) ──────────
	if w.approvals == nil || w.emitter == nil {
		return
	}
	pending, err := w.approvals.ListPendingApprovals()
	if err != nil {
		return
	}
	live := make(map[string]bool, len(pending))
	for _, ap := range pending {
		live[ap.ID] = true
		w.mu.Lock()
		alreadySent := w.emittedApprovals[ap.ID]
		w.emittedApprovals[ap.ID] = true
		w.mu.Unlock()
		if !alreadySent {
			w.emitter.Emit(ctx, mcpserver.EventApprovalRequired, ap)
		}
	}

	// Clean up tracking for resolved/deleted approvals
	w.mu.Lock()
	for id := range w.emittedApprovals {
		if !live[id] {
			delete(w.emittedApprovals, id)
		}
	}
	w.mu.Unlock()
}

// changedSlugs returns every slug whose publish state differs between the
// two snapshots, including the old and new slug of a renamed page.
func changedSlugs(prev, next map[string]domain.PublishState) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(slug string) {
		if !seen[slug] {
			seen[slug] = true
			out = append(out, slug)
		}
	}
	for id, old := range prev {
		cur, ok := next[id]
		if !ok {
			add(old.Slug)
			continue
		}
		if cur != old {
			add(old.Slug)
			add(cur.Slug)
		}
	}
	for id, cur := range next {
		if _, ok := prev[id]; !ok && cur.IsPublished {
			add(cur.Slug)
		}
	}
	return out
}
