package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"pagebuilder/internal/domain"
	"pagebuilder/internal/service"
)

// ─────────────────────────────────────────────────────────────
// Editor API: draft editing, publishing and approvals
// ─────────────────────────────────────────────────────────────

func (s *Server) handleListSections(w http.ResponseWriter, r *http.Request) {
	contextKey := r.URL.Query().Get("context")
	writeJSON(w, http.StatusOK, map[string]any{"sections": s.deps.Sections.Available(contextKey)})
}

// ── Pages ──────────────────────────────────────────────────

func (s *Server) handleCreatePage(w http.ResponseWriter, r *http.Request) {
	var req service.NewPage
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_JSON", err.Error())
		return
	}
	if req.ThemeID == "" {
		t, err := s.deps.Themes.ActiveTheme(r.Context())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		req.ThemeID = t.ID
	}
	page, err := s.deps.Pages.CreatePage(r.Context(), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, page)
}

func (s *Server) handleGetPage(w http.ResponseWriter, r *http.Request) {
	state, err := s.deps.Pages.GetEditorState(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"page":              state.Page,
		"theme":             state.Theme,
		"availableSections": state.AvailableSections,
	})
}

func (s *Server) handleSaveDraft(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DraftBody domain.SectionList `json:"draftBody"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_JSON", err.Error())
		return
	}
	if req.DraftBody == nil {
		req.DraftBody = domain.SectionList{}
	}
	page, report, err := s.deps.Pages.SaveDraft(r.Context(), chi.URLParam(r, "id"), req.DraftBody)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if report == nil {
		report = service.ValidationReport{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"page": page, "errors": report})
}

func (s *Server) handleDeletePage(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Pages.DeletePage(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePublishPage(w http.ResponseWriter, r *http.Request) {
	page, err := s.deps.Pages.Publish(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleUnpublishPage(w http.ResponseWriter, r *http.Request) {
	page, err := s.deps.Pages.Unpublish(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleRevertPage(w http.ResponseWriter, r *http.Request) {
	page, err := s.deps.Pages.Revert(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// ── Themes ─────────────────────────────────────────────────

func (s *Server) handleListThemes(w http.ResponseWriter, r *http.Request) {
	themes, err := s.deps.Themes.ListThemes(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"themes": themes, "active": s.deps.Themes.ActiveSlug()})
}

func (s *Server) handleGetTheme(w http.ResponseWriter, r *http.Request) {
	t, err := s.deps.Themes.GetTheme(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleActivateTheme(w http.ResponseWriter, r *http.Request) {
	t, err := s.deps.Themes.GetTheme(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if t, err = s.deps.Themes.Activate(r.Context(), t.Slug); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleSaveChrome(w http.ResponseWriter, r *http.Request) {
	var req service.ChromeDrafts
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_JSON", err.Error())
		return
	}
	t, report, err := s.deps.Themes.SaveChromeDrafts(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if report == nil {
		report = service.ValidationReport{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"theme": t, "errors": report})
}

func (s *Server) handlePublishChrome(w http.ResponseWriter, r *http.Request) {
	t, err := s.deps.Themes.PublishChrome(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleRevertChrome(w http.ResponseWriter, r *http.Request) {
	slot, err := domain.ParseChromeSlot(chi.URLParam(r, "slot"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}
	t, err := s.deps.Themes.RevertChrome(r.Context(), chi.URLParam(r, "id"), slot)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// ── Approvals ──────────────────────────────────────────────

func (s *Server) handleListApprovals(w http.ResponseWriter, r *http.Request) {
	pending, err := s.deps.Approvals.ListPendingApprovals()
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if pending == nil {
		pending = []domain.Approval{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"approvals": pending})
}

func (s *Server) handleResolveApproval(approved bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := s.deps.Approvals.ResolveApproval(id, approved); err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"id": id, "approved": approved})
	}
}
