package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"pagebuilder/internal/domain"
	"pagebuilder/internal/section"
	"pagebuilder/internal/service"
)

func (s *Server) registerThemeTools() {
	// ── list_sections ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_sections",
		mcp.WithDescription("List registered section types with their settings schema"),
		mcp.WithString("contextKey", mcp.Description("Only sections usable on a page with this context")),
		mcp.WithString("category", mcp.Description("Only sections in this category")),
	), s.handleListSections)

	// ── get_theme ──────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("get_theme",
		mcp.WithDescription("Get the active theme with its header and footer drafts"),
	), s.handleGetTheme)

	// ── update_theme_chrome ────────────────────────────
	s.mcp.AddTool(mcp.NewTool("update_theme_chrome",
		mcp.WithDescription("Replace the header and/or footer draft of the active theme"),
		mcp.WithArray("headerDraft", mcp.Description("Ordered [{id,key,settings}] list; omit to keep")),
		mcp.WithArray("footerDraft", mcp.Description("Ordered [{id,key,settings}] list; omit to keep")),
	), s.handleUpdateThemeChrome)

	// ── publish_theme ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("publish_theme",
		mcp.WithDescription("Publish header and footer drafts of the active theme (may require human approval)"),
		mcp.WithDestructiveHintAnnotation(true),
	), s.handlePublishTheme)

	// ── revert_theme_chrome ────────────────────────────
	s.mcp.AddTool(mcp.NewTool("revert_theme_chrome",
		mcp.WithDescription("Discard one chrome draft and restore the published list"),
		mcp.WithString("slot", mcp.Description("Chrome slot"), mcp.Required(), mcp.Enum("header", "footer")),
	), s.handleRevertThemeChrome)
}

type sectionSummary struct {
	Key             string                   `json:"key"`
	Label           string                   `json:"label"`
	Category        string                   `json:"category"`
	Schema          map[string]section.Field `json:"schema"`
	DefaultSettings map[string]any           `json:"defaultSettings,omitempty"`
	AllowedContexts []string                 `json:"allowedContexts,omitempty"`
}

func summarizeSections(defs []section.Definition) []sectionSummary {
	out := make([]sectionSummary, len(defs))
	for i, d := range defs {
		out[i] = sectionSummary{
			Key:             d.Key,
			Label:           d.Label,
			Category:        d.Category,
			Schema:          d.Schema,
			DefaultSettings: d.DefaultSettings,
			AllowedContexts: d.AllowedContexts,
		}
	}
	return out
}

func (s *Server) handleListSections(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var defs []section.Definition
	if contextKey := req.GetString("contextKey", ""); contextKey != "" {
		defs = s.sections.Available(contextKey)
	} else {
		defs = s.sections.All()
	}
	if category := req.GetString("category", ""); category != "" {
		filtered := defs[:0:0]
		for _, d := range defs {
			if d.Category == category {
				filtered = append(filtered, d)
			}
		}
		defs = filtered
	}
	return jsonResult(summarizeSections(defs))
}

func (s *Server) handleGetTheme(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	t, err := s.themes.ActiveTheme(ctx)
	if err != nil {
		return toolError(err)
	}
	return jsonResult(t)
}

func (s *Server) handleUpdateThemeChrome(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	var drafts service.ChromeDrafts
	var err error
	if drafts.Header, _, err = sectionListArg(args, "headerDraft"); err != nil {
		return nil, err
	}
	if drafts.Footer, _, err = sectionListArg(args, "footerDraft"); err != nil {
		return nil, err
	}
	if drafts.Header == nil && drafts.Footer == nil {
		return nil, fmt.Errorf("headerDraft or footerDraft is required")
	}

	t, err := s.themes.ActiveTheme(ctx)
	if err != nil {
		return toolError(err)
	}
	t, report, err := s.themes.SaveChromeDrafts(ctx, t.ID, drafts)
	if err != nil {
		return toolError(err)
	}
	return jsonResult(map[string]any{"header": t.Header.Draft, "footer": t.Footer.Draft, "errors": report})
}

func (s *Server) handlePublishTheme(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	t, err := s.themes.ActiveTheme(ctx)
	if err != nil {
		return toolError(err)
	}

	meta := fmt.Sprintf(`{"themeId":%q,"slug":%q}`, t.ID, t.Slug)
	desc := fmt.Sprintf("Publish chrome of theme %s (%d header, %d footer section(s))",
		t.Slug, len(t.Header.Draft), len(t.Footer.Draft))
	approved, err := s.approval.Request("publish_theme", desc, meta)
	if err != nil || !approved {
		return textResult(fmt.Sprintf("Publish not approved: %v", err)), nil
	}

	t, err = s.themes.PublishChrome(ctx, t.ID)
	if err != nil {
		return toolError(err)
	}
	return textResult(fmt.Sprintf("Theme %s chrome published", t.Slug)), nil
}

func (s *Server) handleRevertThemeChrome(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := requireString(req.GetArguments(), "slot")
	if err != nil {
		return nil, err
	}
	slot, err := domain.ParseChromeSlot(raw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	t, err := s.themes.ActiveTheme(ctx)
	if err != nil {
		return toolError(err)
	}
	t, err = s.themes.RevertChrome(ctx, t.ID, slot)
	if err != nil {
		return toolError(err)
	}
	return jsonResult(t.Chrome(slot).Draft)
}
