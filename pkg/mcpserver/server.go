package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mako10k/mcp-copilot-instructions-sub000/pkg/config"
)

// serverName identifies this server to MCP clients; its version is passed
// to NewServer.
const serverName = "copilot-instructions-mcp"

// NewServer builds an MCP server exposing section_store, context, and
// priority_flags as tools backed by a Service built from cfg.
func NewServer(cfg *config.Config, version string) (*mcp.Server, *Service) {
	svc := New(cfg)

	server := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: version}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "section_store",
		Description: "Read, update, insert, delete, or resolve conflicts on sections of the generated instructions file.",
	}, toolHandler(svc.SectionStore))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "context",
		Description: "Read or update the development context, and browse/rollback/clean up its generation history.",
	}, toolHandler(svc.Context))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "priority_flags",
		Description: "Add, remove, or list criticalFeedback/copilotEssential priority flags on corpus fragments.",
	}, toolHandler(svc.PriorityFlags))

	return server, svc
}

// toolHandler adapts a Service method of shape func(In) *Result into the
// generic mcp.ToolHandlerFor signature the SDK's AddTool expects.
func toolHandler[In any](fn func(In) *Result) mcp.ToolHandlerFor[In, *Result] {
	return func(_ context.Context, _ *mcp.CallToolRequest, in In) (*mcp.CallToolResult, *Result, error) {
		return nil, fn(in), nil
	}
}

// Serve runs server over stdio until the client disconnects or ctx is
// canceled.
func Serve(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}
