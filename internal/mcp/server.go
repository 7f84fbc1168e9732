package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"pagebuilder/internal/domain"
	"pagebuilder/internal/log"
	"pagebuilder/internal/section"
	"pagebuilder/internal/service"
)

// Server is the MCP server for the page builder.
// It exposes editor operations as tools so agents can compose pages.
type Server struct {
	mcp      *server.MCPServer
	emitter  EventEmitter
	approval *ApprovalQueue

	// Services (injected from app layer)
	pages    *service.PageService
	themes   *service.ThemeService
	sections *section.Registry
	resolver *service.Resolver
}

// Deps holds all dependencies passed from the App layer to the MCP server.
type Deps struct {
	Emitter  EventEmitter
	Pages    *service.PageService
	Themes   *service.ThemeService
	Sections *section.Registry
	Resolver *service.Resolver
	// Approval gates publish tools. Nil publishes without asking.
	Approval *ApprovalQueue
}

// New creates and configures a new MCP server with all tools and resources.
func New(deps Deps) *Server {
	s := &Server{
		emitter:  deps.Emitter,
		approval: deps.Approval,
		pages:    deps.Pages,
		themes:   deps.Themes,
		sections: deps.Sections,
		resolver: deps.Resolver,
	}

	s.mcp = server.NewMCPServer(
		"pagebuilder-mcp",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
		server.WithPromptCapabilities(true),
	)

	s.registerPageTools()
	s.registerThemeTools()
	s.registerResources()
	s.registerPrompts()

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	log.Info(log.CatMCP, "starting stdio server")
	return server.ServeStdio(s.mcp)
}

// HTTPHandler serves MCP over streamable HTTP, for mounting next to the
// editor API.
func (s *Server) HTTPHandler() http.Handler {
	return server.NewStreamableHTTPServer(s.mcp)
}

// ── Helpers ────────────────────────────────────────────────

func (s *Server) emitPageChanged(ctx context.Context, pageID string) {
	if s.emitter != nil {
		s.emitter.Emit(ctx, "mcp:page-changed", map[string]string{"pageId": pageID})
	}
}

// textResult creates a simple text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

// toolError turns expected editor failures into tool results the agent can
// read. Anything else is returned as a protocol error.
func toolError(err error) (*mcp.CallToolResult, error) {
	switch {
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrUnregisteredSection),
		errors.Is(err, domain.ErrNeverPublished):
		return mcp.NewToolResultError(err.Error()), nil
	default:
		return nil, err
	}
}

func requireString(args map[string]any, name string) (string, error) {
	v, _ := args[name].(string)
	if v == "" {
		return "", fmt.Errorf("%s is required", name)
	}
	return v, nil
}
