package service

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"pagebuilder/internal/domain"
	"pagebuilder/internal/log"
	"pagebuilder/internal/render"
)

// ─────────────────────────────────────────────────────────────
// Chrome Warmer: keeps published headers and footers in cache
// ─────────────────────────────────────────────────────────────

const warmJob = "warm-chrome"

// Warmer re-renders the published chrome of every theme on a schedule so
// public requests after a cache expiry still hit a warm entry.
type Warmer struct {
	themes  domain.ThemeStore
	engine  *render.Engine
	running runningJobsGuard

	cronSched *cron.Cron
}

func NewWarmer(themes domain.ThemeStore, engine *render.Engine) *Warmer {
	return &Warmer{themes: themes, engine: engine}
}

// WarmAll warms every theme that has published chrome and returns how many
// themes were warmed.
func (w *Warmer) WarmAll(ctx context.Context) (int, error) {
	themes, err := w.themes.ListThemes()
	if err != nil {
		return 0, fmt.Errorf("warm chrome: %w", err)
	}
	n := 0
	for i := range themes {
		t := &themes[i]
		if t.Header.Published == nil && t.Footer.Published == nil {
			continue
		}
		w.engine.WarmChrome(ctx, t)
		n++
	}
	return n, nil
}

// Start schedules WarmAll with a standard five-field cron expression. An
// empty schedule disables warming.
func (w *Warmer) Start(ctx context.Context, schedule string) error {
	if schedule == "" {
		return nil
	}
	c := cron.New()
	_, err := c.AddFunc(schedule, func() { w.run(ctx) })
	if err != nil {
		return fmt.Errorf("warm schedule %q: %w", schedule, err)
	}
	c.Start()
	w.cronSched = c
	log.Info(log.CatCron, "chrome warmer scheduled", "schedule", schedule)
	return nil
}

func (w *Warmer) run(ctx context.Context) {
	if !w.running.TryLock(warmJob) {
		log.Debug(log.CatCron, "previous warm still running, skipping")
		return
	}
	defer w.running.Unlock(warmJob)

	n, err := w.WarmAll(ctx)
	if err != nil {
		log.ErrorErr(log.CatCron, "chrome warm failed", err)
		return
	}
	log.Debug(log.CatCron, "chrome warmed", "themes", n)
}

// Stop halts the schedule and waits for a running warm to finish or ctx to
// expire.
func (w *Warmer) Stop(ctx context.Context) {
	if w.cronSched != nil {
		stopped := w.cronSched.Stop()
		select {
		case <-stopped.Done():
		case <-ctx.Done():
		}
		w.cronSched = nil
	}
	w.running.WaitAll(ctx)
}
