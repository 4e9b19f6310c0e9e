// Package mcp exposes the receptionist over the Model Context Protocol so
// agent tooling can ask questions, query the corpus, and inspect pending
// escalations.
package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/frontdeskhq/frontdesk/internal/agent"
	"github.com/frontdeskhq/frontdesk/internal/helpdesk"
	"github.com/frontdeskhq/frontdesk/internal/knowledge"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server that exposes receptionist tools.
type Server struct {
	engine    *agent.Engine
	knowledge *knowledge.Store
	helpdesk  *helpdesk.Store
	mcp       *server.MCPServer
}

// NewServer creates a new MCP server with the given dependencies.
func NewServer(engine *agent.Engine, knowledgeStore *knowledge.Store, helpdeskStore *helpdesk.Store) *Server {
	s := &Server{
		engine:    engine,
		knowledge: knowledgeStore,
		helpdesk:  helpdeskStore,
	}

	s.mcp = server.NewMCPServer(
		"frontdesk",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(askQuestionTool, s.handleAskQuestion)
	s.mcp.AddTool(searchKnowledgeTool, s.handleSearchKnowledge)
	s.mcp.AddTool(listPendingTool, s.handleListPending)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
