// Package mcpserver exposes the relay commands as MCP tools so assistants can
// drive the voice session and query the backend.
package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/example/nexiatray/internal/dispatch"
)

const (
	serverName = "nexiatray-mcp"
	statusURI  = "nexiatray://status"
)

// Server wraps the command registry as an MCP server.
type Server struct {
	registry  *dispatch.Registry
	mcpServer *server.MCPServer
}

// New registers one tool per relay command plus the status resource.
func New(registry *dispatch.Registry, version string) *Server {
	s := &Server{
		registry:  registry,
		mcpServer: server.NewMCPServer(serverName, version),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio serves on Stdin/Stdout until the client disconnects.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("start_session",
		mcp.WithDescription("Start the voice session."),
	), s.toolHandler(dispatch.CommandStartSession))

	s.mcpServer.AddTool(mcp.NewTool("stop_session",
		mcp.WithDescription("Stop the voice session."),
	), s.toolHandler(dispatch.CommandStopSession))

	s.mcpServer.AddTool(mcp.NewTool("process_command",
		mcp.WithDescription("Submit a recorded voice command for processing."),
		mcp.WithString("audio", mcp.Description("Base64 encoded audio payload")),
	), s.toolHandler(dispatch.CommandProcessCommand))

	s.mcpServer.AddTool(mcp.NewTool("query_backend",
		mcp.WithDescription("POST data to a backend endpoint and return the raw response body."),
		mcp.WithString("endpoint", mcp.Required(), mcp.Description("Path under the backend base URL, starting with /")),
		mcp.WithString("data", mcp.Required(), mcp.Description("Request body, usually JSON")),
	), s.toolHandler(dispatch.CommandQueryBackend))

	s.mcpServer.AddTool(mcp.NewTool("get_ecosystem_status",
		mcp.WithDescription("Report the services of the ecosystem and their health."),
	), s.toolHandler(dispatch.CommandGetEcosystemStatus))
}

func (s *Server) toolHandler(command string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		res := s.registry.Dispatch(ctx, dispatch.Request{
			Name:   command,
			Source: "mcp",
			Args:   request.GetArguments(),
		})
		if !res.OK() {
			return mcp.NewToolResultError(res.Error), nil
		}
		return mcp.NewToolResultText(res.Value), nil
	}
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(statusURI, "Ecosystem Status",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		res := s.registry.Dispatch(ctx, dispatch.Request{
			Name:   dispatch.CommandGetEcosystemStatus,
			Source: "mcp",
		})
		if !res.OK() {
			return nil, fmt.Errorf("read status: %w", res.Err())
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      statusURI,
				MIMEType: "application/json",
				Text:     res.Value,
			},
		}, nil
	})
}
