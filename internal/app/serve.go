package app

import (
	"context"
	"fmt"
	"time"

	"pagebuilder/internal/httpapi"
	"pagebuilder/internal/log"
	mcpserver "pagebuilder/internal/mcp"
	"pagebuilder/internal/service"
	"pagebuilder/internal/theme"
)

// Serve runs the HTTP server, the chrome warmer and the watchers until ctx
// is done.
func (a *App) Serve(ctx context.Context) error {
	mcpSrv := a.newMCP(ctx)

	srv := httpapi.New(httpapi.Deps{
		Pages:     a.pageSvc,
		Themes:    a.themeSvc,
		Sections:  a.sections,
		Resolver:  a.resolver,
		Approvals: a.approvals,
		MCP:       mcpSrv.HTTPHandler(),
	})
	if m := a.Manifest(); m != nil {
		srv.SetLayout(m.Layout)
	}

	warmer := service.NewWarmer(a.themes, a.engine)
	if n, err := warmer.WarmAll(ctx); err != nil {
		log.Warn(log.CatCron, "initial warm failed", "error", err)
	} else {
		log.Info(log.CatCron, "chrome warmed", "themes", n)
	}
	if err := warmer.Start(ctx, a.cfg.Cache.WarmSchedule); err != nil {
		return fmt.Errorf("start warmer: %w", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		warmer.Stop(stopCtx)
	}()

	watcher := newPageWatcher(a.pages, a.approvals, a.pageSvc.Invalidate, a.emitter, a.cfg.Watcher.PollInterval)
	watcher.Start(ctx)
	defer watcher.Stop()

	if a.cfg.Theme.Watch {
		err := a.watchTheme(ctx, func(m *theme.Manifest) { srv.SetLayout(m.Layout) })
		if err != nil {
			return fmt.Errorf("watch theme: %w", err)
		}
		log.Info(log.CatWatcher, "watching theme", "dir", a.cfg.Theme.Dir)
	}

	return httpapi.ListenAndServe(ctx, a.cfg.HTTP.Addr, srv)
}

// ServeMCP runs the standalone MCP server on stdin/stdout. Approvals are
// written to the database so a running `serve` process can decide them.
func (a *App) ServeMCP(ctx context.Context) error {
	return a.newMCP(ctx).ServeStdio()
}

func (a *App) newMCP(ctx context.Context) *mcpserver.Server {
	approval := mcpserver.NewApprovalQueue(ctx, a.approvals, a.emitter, mcpserver.DefaultApprovalTimeout)
	return mcpserver.New(mcpserver.Deps{
		Emitter:  a.emitter,
		Pages:    a.pageSvc,
		Themes:   a.themeSvc,
		Sections: a.sections,
		Resolver: a.resolver,
		Approval: approval,
	})
}
