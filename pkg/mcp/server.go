// Package mcp exposes the medication reference tools over the Model Context
// Protocol.
package mcp

import (
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/zenarog/zenarog-engine/pkg/mcp/tools"
)

// ServerName is reported to MCP clients during initialization.
const ServerName = "zenarog-engine"

// Server wraps the mcp-go MCPServer with the registered tool set.
type Server struct {
	mcp    *server.MCPServer
	logger *zap.Logger
}

// NewServer creates an MCP server with the health tool and the medication
// tools described by deps. deps may be nil for a health-only server.
func NewServer(version string, deps *tools.MedicationToolDeps, logger *zap.Logger) *Server {
	mcpServer := server.NewMCPServer(
		ServerName,
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	tools.RegisterHealthTool(mcpServer, version)
	if deps != nil {
		if deps.Logger == nil {
			deps.Logger = logger
		}
		tools.RegisterMedicationTools(mcpServer, deps)
	}

	return &Server{
		mcp:    mcpServer,
		logger: logger.Named("mcp"),
	}
}

// MCP returns the underlying MCPServer.
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

// NewStreamableHTTPServer creates a stateless HTTP transport for this
// server. The HTTP mux handles routing to /mcp, so no endpoint path is
// configured here.
func (s *Server) NewStreamableHTTPServer() *server.StreamableHTTPServer {
	return server.NewStreamableHTTPServer(
		s.mcp,
		server.WithStateLess(true),
	)
}
