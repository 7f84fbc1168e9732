package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

const (
	sectionsURI   = "pagebuilder://sections"
	pagesURI      = "pagebuilder://pages"
	pageURIPrefix = "pagebuilder://page/"
)

func (s *Server) registerResources() {
	// ── pagebuilder://sections ─────────────────────────
	s.mcp.AddResource(mcp.NewResource(
		sectionsURI,
		"Section Catalog",
		mcp.WithResourceDescription("Registered section types grouped by category"),
		mcp.WithMIMEType("application/json"),
	), s.handleSectionsResource)

	// ── pagebuilder://pages ────────────────────────────
	s.mcp.AddResource(mcp.NewResource(
		pagesURI,
		"Pages of the Active Theme",
		mcp.WithMIMEType("application/json"),
	), s.handlePagesResource)

	// ── pagebuilder://page/{pageId} ────────────────────
	s.mcp.AddResourceTemplate(
		mcp.NewResourceTemplate(
			pageURIPrefix+"{pageId}",
			"Page Configuration",
			mcp.WithTemplateMIMEType("application/json"),
		),
		s.handlePageResource,
	)
}

func (s *Server) handleSectionsResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	grouped := make(map[string][]sectionSummary)
	for category, defs := range s.sections.Categories() {
		grouped[category] = summarizeSections(defs)
	}
	return jsonContents(sectionsURI, grouped)
}

func (s *Server) handlePagesResource(ctx context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	t, err := s.themes.ActiveTheme(ctx)
	if err != nil {
		return nil, err
	}
	pages, err := s.pages.ListPages(ctx, t.ID)
	if err != nil {
		return nil, err
	}

	type pageSummary struct {
		ID          string `json:"id"`
		Slug        string `json:"slug"`
		Title       string `json:"title"`
		IsPublished bool   `json:"isPublished"`
	}
	summaries := make([]pageSummary, len(pages))
	for i, p := range pages {
		summaries[i] = pageSummary{ID: p.ID, Slug: p.Slug, Title: p.Title, IsPublished: p.IsPublished}
	}
	return jsonContents(pagesURI, summaries)
}

func (s *Server) handlePageResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	pageID := extractPageIDFromURI(uri)
	if pageID == "" {
		return nil, fmt.Errorf("could not extract pageId from URI: %s", uri)
	}
	page, err := s.pages.GetPage(ctx, pageID)
	if err != nil {
		return nil, err
	}
	return jsonContents(uri, page)
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// extractPageIDFromURI parses "pagebuilder://page/{id}".
func extractPageIDFromURI(uri string) string {
	id, ok := strings.CutPrefix(uri, pageURIPrefix)
	if !ok || strings.Contains(id, "/") {
		return ""
	}
	return id
}
