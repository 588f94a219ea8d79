// Package mcp exposes platform and sandbox control as MCP tools over stdio.
package mcp

import (
	"fmt"

	"github.com/mark3labs/mcp-go/server"

	"github.com/verai-labs/verai/pkg/platform"
)

const (
	serverName    = "VerAI Sandbox MCP"
	serverVersion = "0.1.0"
)

// Server hosts the MCP server.
type Server struct {
	mcpServer *server.MCPServer
}

// New creates a configured MCP server over a running platform.
func New(p *platform.Platform) (*Server, error) {
	if p == nil {
		return nil, fmt.Errorf("platform is required")
	}
	mcpServer := server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(false),
	)

	tools := &toolset{platform: p}
	mcpServer.AddTool(controlTool(), tools.handleControl)
	mcpServer.AddTool(statusTool(), tools.handleStatus)
	mcpServer.AddTool(stepTool(), tools.handleStep)
	mcpServer.AddTool(spawnAgentTool(), tools.handleSpawnAgent)
	mcpServer.AddTool(listAgentsTool(), tools.handleListAgents)
	mcpServer.AddTool(createSessionTool(), tools.handleCreateSession)
	mcpServer.AddTool(queryEventsTool(), tools.handleQueryEvents)

	return &Server{mcpServer: mcpServer}, nil
}

// Serve starts the MCP server on stdio.
func (s *Server) Serve() error {
	if s == nil || s.mcpServer == nil {
		return fmt.Errorf("MCP server is not configured")
	}
	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("serve MCP: %w", err)
	}
	return nil
}
