// Package httpapi serves the editor API and the public catch-all route.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"

	"pagebuilder/internal/domain"
	"pagebuilder/internal/log"
	"pagebuilder/internal/section"
	"pagebuilder/internal/service"
)

// Deps holds what the router needs from the app layer.
type Deps struct {
	Pages     *service.PageService
	Themes    *service.ThemeService
	Sections  *section.Registry
	Resolver  *service.Resolver
	Approvals domain.ApprovalStore
	// MCP, when set, is mounted at /mcp.
	MCP http.Handler
}

// Server is the HTTP surface of the page builder.
type Server struct {
	deps   Deps
	router chi.Router
	layout atomic.Pointer[template.Template]
}

// New builds the router.
func New(deps Deps) *Server {
	s := &Server{deps: deps}
	s.router = s.routes()
	return s
}

// SetLayout swaps the document shell used for HTML responses. Nil selects
// the built-in shell.
func (s *Server) SetLayout(layout *template.Template) {
	s.layout.Store(layout)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestLogger)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	r.Route("/api", func(api chi.Router) {
		api.Get("/sections", s.handleListSections)

		api.Route("/pages", func(pages chi.Router) {
			pages.Post("/", s.handleCreatePage)
			pages.Get("/{id}", s.handleGetPage)
			pages.Put("/{id}", s.handleSaveDraft)
			pages.Delete("/{id}", s.handleDeletePage)
			pages.Post("/{id}/publish", s.handlePublishPage)
			pages.Post("/{id}/unpublish", s.handleUnpublishPage)
			pages.Post("/{id}/revert", s.handleRevertPage)
		})

		api.Route("/themes", func(themes chi.Router) {
			themes.Get("/", s.handleListThemes)
			themes.Get("/{id}", s.handleGetTheme)
			themes.Put("/{id}", s.handleSaveChrome)
			themes.Post("/{id}/publish", s.handlePublishChrome)
			themes.Post("/{id}/activate", s.handleActivateTheme)
			themes.Post("/{id}/revert/{slot}", s.handleRevertChrome)
		})

		if s.deps.Approvals != nil {
			api.Get("/approvals", s.handleListApprovals)
			api.Post("/approvals/{id}/approve", s.handleResolveApproval(true))
			api.Post("/approvals/{id}/reject", s.handleResolveApproval(false))
		}
	})

	r.Get("/preview/{id}", s.handlePreview)

	if s.deps.MCP != nil {
		r.Handle("/mcp", s.deps.MCP)
	}

	r.Get("/*", s.handlePublic)
	return r
}

// ListenAndServe serves handler on addr until ctx is done.
func ListenAndServe(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info(log.CatHTTP, "listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}

// ── Helpers ────────────────────────────────────────────────

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Debug(log.CatHTTP, "request", "method", r.Method, "path", r.URL.Path,
			"status", rec.status, "duration", time.Since(start))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn(log.CatHTTP, "encode response failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, map[string]string{"error": code, "message": msg})
}

// writeDomainError maps the error taxonomy onto status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrUnregisteredSection):
		writeError(w, http.StatusBadRequest, "VALIDATION", err.Error())
	case errors.Is(err, domain.ErrNeverPublished):
		writeError(w, http.StatusConflict, "NEVER_PUBLISHED", err.Error())
	default:
		log.ErrorErr(log.CatHTTP, "request failed", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
	}
}

func readJSON(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(v)
}
