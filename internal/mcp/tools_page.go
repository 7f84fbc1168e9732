package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"pagebuilder/internal/datactx"
	"pagebuilder/internal/domain"
	"pagebuilder/internal/render"
	"pagebuilder/internal/service"
)

func (s *Server) registerPageTools() {
	// ── list_pages ─────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_pages",
		mcp.WithDescription("List the pages of a theme (defaults to the active theme)"),
		mcp.WithString("themeId", mcp.Description("Theme ID")),
	), s.handleListPages)

	// ── create_page ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("create_page",
		mcp.WithDescription("Create an unpublished page in the active theme"),
		mcp.WithString("slug", mcp.Description("URL slug, e.g. about"), mcp.Required()),
		mcp.WithString("title", mcp.Description("Page title")),
		mcp.WithString("contextKey", mcp.Description("Context the page renders, e.g. product")),
	), s.handleCreatePage)

	// ── get_page ───────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("get_page",
		mcp.WithDescription("Get a page with its theme and the sections that may be placed on it"),
		mcp.WithString("pageId", mcp.Description("ID of the page"), mcp.Required()),
	), s.handleGetPage)

	// ── add_section ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("add_section",
		mcp.WithDescription("Insert a section into the page draft"),
		mcp.WithString("pageId", mcp.Description("ID of the page"), mcp.Required()),
		mcp.WithString("key", mcp.Description("Section key from list_sections"), mcp.Required()),
		mcp.WithObject("settings", mcp.Description("Initial settings")),
		mcp.WithNumber("position", mcp.Description("Zero-based insert position (default: append)")),
	), s.handleAddSection)

	// ── remove_section ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("remove_section",
		mcp.WithDescription("Remove a section instance from the page draft"),
		mcp.WithString("pageId", mcp.Description("ID of the page"), mcp.Required()),
		mcp.WithString("sectionId", mcp.Description("Section instance ID"), mcp.Required()),
	), s.handleRemoveSection)

	// ── update_section ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("update_section",
		mcp.WithDescription("Merge settings into a section instance of the page draft"),
		mcp.WithString("pageId", mcp.Description("ID of the page"), mcp.Required()),
		mcp.WithString("sectionId", mcp.Description("Section instance ID"), mcp.Required()),
		mcp.WithObject("settings", mcp.Description("Settings to merge"), mcp.Required()),
	), s.handleUpdateSection)

	// ── reorder_sections ───────────────────────────────
	s.mcp.AddTool(mcp.NewTool("reorder_sections",
		mcp.WithDescription("Reorder the page draft. Instances not listed are removed."),
		mcp.WithString("pageId", mcp.Description("ID of the page"), mcp.Required()),
		mcp.WithArray("sectionIds", mcp.Description("Instance IDs in the new order"), mcp.Required(),
			mcp.Items(map[string]any{"type": "string"})),
	), s.handleReorderSections)

	// ── save_draft ─────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("save_draft",
		mcp.WithDescription("Replace the whole page draft. Returns validation problems without rejecting the save."),
		mcp.WithString("pageId", mcp.Description("ID of the page"), mcp.Required()),
		mcp.WithArray("draftBody", mcp.Description("Ordered [{id,key,settings}] list"), mcp.Required()),
	), s.handleSaveDraft)

	// ── publish_page ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("publish_page",
		mcp.WithDescription("Publish the page draft (may require human approval)"),
		mcp.WithString("pageId", mcp.Description("ID of the page"), mcp.Required()),
		mcp.WithDestructiveHintAnnotation(true),
	), s.handlePublishPage)

	// ── unpublish_page ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("unpublish_page",
		mcp.WithDescription("Hide the page from public routes (may require human approval)"),
		mcp.WithString("pageId", mcp.Description("ID of the page"), mcp.Required()),
		mcp.WithDestructiveHintAnnotation(true),
	), s.handleUnpublishPage)

	// ── revert_page ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("revert_page",
		mcp.WithDescription("Discard the page draft and restore the published body"),
		mcp.WithString("pageId", mcp.Description("ID of the page"), mcp.Required()),
	), s.handleRevertPage)

	// ── render_preview ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("render_preview",
		mcp.WithDescription("Render the page draft with draft chrome and return the HTML fragments and SEO"),
		mcp.WithString("pageId", mcp.Description("ID of the page"), mcp.Required()),
		mcp.WithString("identifier", mcp.Description("Context identifier, e.g. a product slug")),
	), s.handleRenderPreview)
}

func (s *Server) handleListPages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	themeID := req.GetString("themeId", "")
	if themeID == "" {
		t, err := s.themes.ActiveTheme(ctx)
		if err != nil {
			return toolError(err)
		}
		themeID = t.ID
	}
	pages, err := s.pages.ListPages(ctx, themeID)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}

	type pageSummary struct {
		ID          string `json:"id"`
		Slug        string `json:"slug"`
		Title       string `json:"title"`
		ContextKey  string `json:"contextKey,omitempty"`
		IsPublished bool   `json:"isPublished"`
		Sections    int    `json:"draftSections"`
	}
	summaries := make([]pageSummary, len(pages))
	for i, p := range pages {
		summaries[i] = pageSummary{p.ID, p.Slug, p.Title, p.ContextKey, p.IsPublished, len(p.DraftBody)}
	}
	return jsonResult(summaries)
}

func (s *Server) handleCreatePage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	slug, err := requireString(args, "slug")
	if err != nil {
		return nil, err
	}
	t, err := s.themes.ActiveTheme(ctx)
	if err != nil {
		return toolError(err)
	}
	page, err := s.pages.CreatePage(ctx, service.NewPage{
		ThemeID:    t.ID,
		Slug:       slug,
		Title:      req.GetString("title", slug),
		ContextKey: req.GetString("contextKey", ""),
	})
	if err != nil {
		return toolError(err)
	}
	return jsonResult(page)
}

func (s *Server) handleGetPage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pageID, err := requireString(req.GetArguments(), "pageId")
	if err != nil {
		return nil, err
	}
	state, err := s.pages.GetEditorState(ctx, pageID)
	if err != nil {
		return toolError(err)
	}
	return jsonResult(map[string]any{
		"page":              state.Page,
		"theme":             map[string]string{"id": state.Theme.ID, "slug": state.Theme.Slug, "name": state.Theme.Name},
		"availableSections": summarizeSections(state.AvailableSections),
	})
}

func (s *Server) handleAddSection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	pageID, err := requireString(args, "pageId")
	if err != nil {
		return nil, err
	}
	key, err := requireString(args, "key")
	if err != nil {
		return nil, err
	}
	settings, err := settingsArg(args, "settings")
	if err != nil {
		return nil, err
	}

	inst, errs, err := s.pages.AddSection(ctx, pageID, key, settings, intArg(args, "position", domain.AppendPosition))
	if err != nil {
		return toolError(err)
	}
	s.emitPageChanged(ctx, pageID)
	return jsonResult(map[string]any{"section": inst, "errors": errs})
}

func (s *Server) handleRemoveSection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	pageID, err := requireString(args, "pageId")
	if err != nil {
		return nil, err
	}
	sectionID, err := requireString(args, "sectionId")
	if err != nil {
		return nil, err
	}
	if err := s.pages.RemoveSection(ctx, pageID, sectionID); err != nil {
		return toolError(err)
	}
	s.emitPageChanged(ctx, pageID)
	return textResult(fmt.Sprintf("Section %s removed", sectionID)), nil
}

func (s *Server) handleUpdateSection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	pageID, err := requireString(args, "pageId")
	if err != nil {
		return nil, err
	}
	sectionID, err := requireString(args, "sectionId")
	if err != nil {
		return nil, err
	}
	settings, err := settingsArg(args, "settings")
	if err != nil {
		return nil, err
	}

	errs, err := s.pages.UpdateSection(ctx, pageID, sectionID, settings)
	if err != nil {
		return toolError(err)
	}
	s.emitPageChanged(ctx, pageID)
	return jsonResult(map[string]any{"sectionId": sectionID, "errors": errs})
}

func (s *Server) handleReorderSections(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	pageID, err := requireString(args, "pageId")
	if err != nil {
		return nil, err
	}
	ids, err := stringsArg(args, "sectionIds")
	if err != nil {
		return nil, err
	}
	page, err := s.pages.ReorderSections(ctx, pageID, ids)
	if err != nil {
		return toolError(err)
	}
	s.emitPageChanged(ctx, pageID)
	return jsonResult(page.DraftBody)
}

func (s *Server) handleSaveDraft(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	pageID, err := requireString(args, "pageId")
	if err != nil {
		return nil, err
	}
	body, ok, err := sectionListArg(args, "draftBody")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("draftBody is required")
	}
	page, report, err := s.pages.SaveDraft(ctx, pageID, body)
	if err != nil {
		return toolError(err)
	}
	s.emitPageChanged(ctx, pageID)
	return jsonResult(map[string]any{"page": page, "errors": report})
}

func (s *Server) handlePublishPage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pageID, err := requireString(req.GetArguments(), "pageId")
	if err != nil {
		return nil, err
	}
	page, err := s.pages.GetPage(ctx, pageID)
	if err != nil {
		return toolError(err)
	}

	meta := fmt.Sprintf(`{"pageId":%q,"slug":%q}`, page.ID, page.Slug)
	approved, err := s.approval.Request("publish_page",
		fmt.Sprintf("Publish /%s with %d section(s)", page.Slug, len(page.DraftBody)), meta)
	if err != nil || !approved {
		return textResult(fmt.Sprintf("Publish not approved: %v", err)), nil
	}

	page, err = s.pages.Publish(ctx, pageID)
	if err != nil {
		return toolError(err)
	}
	return jsonResult(page)
}

func (s *Server) handleUnpublishPage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pageID, err := requireString(req.GetArguments(), "pageId")
	if err != nil {
		return nil, err
	}
	page, err := s.pages.GetPage(ctx, pageID)
	if err != nil {
		return toolError(err)
	}

	meta := fmt.Sprintf(`{"pageId":%q,"slug":%q}`, page.ID, page.Slug)
	approved, err := s.approval.Request("unpublish_page", fmt.Sprintf("Unpublish /%s", page.Slug), meta)
	if err != nil || !approved {
		return textResult(fmt.Sprintf("Unpublish not approved: %v", err)), nil
	}

	page, err = s.pages.Unpublish(ctx, pageID)
	if err != nil {
		return toolError(err)
	}
	return jsonResult(page)
}

func (s *Server) handleRevertPage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pageID, err := requireString(req.GetArguments(), "pageId")
	if err != nil {
		return nil, err
	}
	page, err := s.pages.Revert(ctx, pageID)
	if err != nil {
		return toolError(err)
	}
	s.emitPageChanged(ctx, pageID)
	return jsonResult(page.DraftBody)
}

func (s *Server) handleRenderPreview(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pageID, err := requireString(req.GetArguments(), "pageId")
	if err != nil {
		return nil, err
	}
	doc, err := s.resolver.Preview(ctx, pageID, datactx.RequestParams{Identifier: req.GetString("identifier", "")})
	if err != nil {
		return toolError(err)
	}
	return jsonResult(previewResult(doc))
}

func previewResult(doc *render.ComposedDocument) map[string]any {
	return map[string]any{
		"header": doc.HeaderSections,
		"body":   doc.BodySections,
		"footer": doc.FooterSections,
		"seo":    doc.SEO.WithDefaults(doc.Page, doc.Theme).Map(),
	}
}
