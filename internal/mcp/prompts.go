package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPrompts() {
	s.mcp.AddPrompt(mcp.NewPrompt("landing_page",
		mcp.WithPromptDescription("Build a landing page from registered sections"),
		mcp.WithArgument("slug",
			mcp.ArgumentDescription("Slug of the page to build"),
			mcp.RequiredArgument(),
		),
		mcp.WithArgument("topic",
			mcp.ArgumentDescription("What the page is about"),
			mcp.RequiredArgument(),
		),
	), s.handleLandingPagePrompt)

	s.mcp.AddPrompt(mcp.NewPrompt("product_template",
		mcp.WithPromptDescription("Lay out the page that renders a catalog context such as product"),
		mcp.WithArgument("contextKey",
			mcp.ArgumentDescription("Context key, e.g. product or collection"),
			mcp.RequiredArgument(),
		),
	), s.handleProductTemplatePrompt)

	s.mcp.AddPrompt(mcp.NewPrompt("site_chrome",
		mcp.WithPromptDescription("Set up the theme header and footer"),
	), s.handleSiteChromePrompt)
}

func userPrompt(description, text string) *mcp.GetPromptResult {
	return &mcp.GetPromptResult{
		Description: description,
		Messages: []mcp.PromptMessage{
			{
				Role:    mcp.RoleUser,
				Content: mcp.TextContent{Type: "text", Text: text},
			},
		},
	}
}

func (s *Server) handleLandingPagePrompt(_ context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	slug := req.Params.Arguments["slug"]
	topic := req.Params.Arguments["topic"]
	return userPrompt(fmt.Sprintf("Build /%s about %s", slug, topic), fmt.Sprintf(`Build a landing page at "/%s" about "%s". Follow these steps:

1. Call list_pages. If no page has slug "%s", create it with create_page.
2. Call list_sections to see which section types exist and what settings they take.
3. Add sections with add_section in reading order, filling every required setting.
4. Check the returned errors map and fix problems with update_section.
5. Call render_preview and review the HTML.
6. Call publish_page only when the preview looks right. A human may need to approve it.`, slug, topic, slug)), nil
}

func (s *Server) handleProductTemplatePrompt(_ context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	contextKey := req.Params.Arguments["contextKey"]
	return userPrompt(fmt.Sprintf("Lay out the %s page", contextKey), fmt.Sprintf(`Lay out the page that renders the "%s" context.

1. Find the page with contextKey "%s" using list_pages, or create one with create_page and contextKey "%s".
2. Call get_page. Its availableSections lists the generic sections plus those that need "%s" data.
3. Compose the draft with save_draft so the order is set in a single call.
4. Preview with render_preview, passing an identifier of a real %s so the sections have data.
5. Publish with publish_page.`, contextKey, contextKey, contextKey, contextKey, contextKey)), nil
}

func (s *Server) handleSiteChromePrompt(_ context.Context, _ mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return userPrompt("Set up header and footer", `Set up the site header and footer of the active theme.

1. Call get_theme to see the current drafts.
2. Call list_sections with category "navigation" and "footer" for candidates. Chrome sections never receive page context.
3. Send both lists with update_theme_chrome.
4. Publish with publish_theme. Every public page picks up the new chrome at once.`), nil
}
