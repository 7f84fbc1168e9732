package httpapi

import (
	"bytes"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"pagebuilder/internal/datactx"
	"pagebuilder/internal/domain"
	"pagebuilder/internal/log"
	"pagebuilder/internal/render"
	"pagebuilder/internal/theme"
)

// ─────────────────────────────────────────────────────────────
// Public routes: catch-all resolution and draft preview
// ─────────────────────────────────────────────────────────────

func (s *Server) handlePublic(w http.ResponseWriter, r *http.Request) {
	res, err := s.deps.Resolver.Resolve(r.Context(), r.URL.Path, RequestParams(r.URL.Query()))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			log.Debug(log.CatHTTP, "no page", "path", r.URL.Path, "state", res.State)
			s.notFound(w, r)
			return
		}
		writeDomainError(w, err)
		return
	}
	s.writeDocument(w, r, res.Document)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	params := RequestParams(r.URL.Query())
	doc, err := s.deps.Resolver.Preview(r.Context(), chi.URLParam(r, "id"), params)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	s.writeDocument(w, r, doc)
}

func (s *Server) writeDocument(w http.ResponseWriter, r *http.Request, doc *render.ComposedDocument) {
	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, map[string]any{
			"page":           map[string]string{"id": doc.Page.ID, "slug": doc.Page.Slug, "title": doc.Page.Title},
			"headerSections": doc.HeaderSections,
			"bodySections":   doc.BodySections,
			"footerSections": doc.FooterSections,
			"context":        doc.Context,
			"seo":            doc.SEO.WithDefaults(doc.Page, doc.Theme).Map(),
		})
		return
	}

	var buf bytes.Buffer
	if err := theme.RenderDocument(&buf, s.layout.Load(), doc); err != nil {
		log.ErrorErr(log.CatRender, "layout failed", err, "page", doc.Page.ID)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	if wantsJSON(r) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "page not found")
		return
	}
	http.NotFound(w, r)
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

// RequestParams maps query parameters onto context fetch parameters:
// id, filter[x]=v, sort=a,b, page and per_page. A trailing path segment
// takes precedence over id. Unknown parameters are ignored;
// the context definition decides what is allowed.
func RequestParams(q url.Values) datactx.RequestParams {
	req := datactx.RequestParams{Identifier: q.Get("id")}
	for key, vals := range q {
		if len(vals) == 0 {
			continue
		}
		name, ok := strings.CutPrefix(key, "filter[")
		if !ok || !strings.HasSuffix(name, "]") {
			continue
		}
		if req.Filters == nil {
			req.Filters = make(map[string]string)
		}
		req.Filters[strings.TrimSuffix(name, "]")] = vals[0]
	}
	if sort := q.Get("sort"); sort != "" {
		for _, field := range strings.Split(sort, ",") {
			if field = strings.TrimSpace(field); field != "" {
				req.Sorts = append(req.Sorts, field)
			}
		}
	}
	req.Page, _ = strconv.Atoi(q.Get("page"))
	req.PerPage, _ = strconv.Atoi(q.Get("per_page"))
	return req
}
