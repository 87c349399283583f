package mcp

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/ziadkadry99/sitegrep/internal/search"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server that exposes document search tools.
type Server struct {
	searcher *search.Searcher
	root     string
	log      zerolog.Logger
	mcp      *server.MCPServer
}

// NewServer creates a new MCP server searching documents under root.
func NewServer(searcher *search.Searcher, root string, logger zerolog.Logger) *Server {
	s := &Server{
		searcher: searcher,
		root:     root,
		log:      logger.With().Str("component", "mcp").Logger(),
	}

	s.mcp = server.NewMCPServer(
		"sitegrep",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(searchDocumentsTool, s.handleSearchDocuments)
	s.mcp.AddTool(readDocumentTool, s.handleReadDocument)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
