package mcpserver

import (
	"context"
	"io"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/panbanda/pyreview/internal/service/analysis"
)

// Server wraps the MCP server and registers the review tools.
type Server struct {
	server *mcp.Server
	svc    *analysis.Service
	logger *slog.Logger
}

// NewServer creates a new MCP server whose tools run through svc.
func NewServer(version string, svc *analysis.Service, logger *slog.Logger) *Server {
	if version == "" {
		version = "dev"
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "pyreview",
			Version: version,
		},
		nil,
	)

	s := &Server{server: server, svc: svc, logger: logger}
	s.registerTools()
	s.registerPrompts()
	return s
}

// Run starts the MCP server over stdio transport.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// registerTools adds the review tools to the server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "analyze_file",
		Description: describeAnalyzeFile(),
	}, s.handleAnalyzeFile)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "format_file",
		Description: describeFormatFile(),
	}, s.handleFormatFile)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_report",
		Description: describeGetReport(),
	}, s.handleGetReport)
}
