package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/JihedeMedini/rfid-verify/internal/verifier"
)

const (
	// ServerName is the MCP server name
	ServerName = "rfid-verify"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Server exposes the verification engine as MCP tools, so an LLM client can
// inspect orders and drive verification for warehouse insight workflows.
type Server struct {
	mcp    *server.MCPServer
	engine *verifier.Verifier
	log    *zap.SugaredLogger
}

// NewServer creates a new MCP server instance over an existing engine
func NewServer(engine *verifier.Verifier, log *zap.SugaredLogger) *Server {
	s := &Server{
		mcp:    server.NewMCPServer(ServerName, ServerVersion),
		engine: engine,
		log:    log,
	}
	s.registerTools()
	return s
}

// Serve starts the MCP server on stdio and blocks until shutdown.
// Log output must already be routed to stderr; stdout carries the protocol.
func (s *Server) Serve(ctx context.Context) error {
	return server.ServeStdio(s.mcp)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(verifyTagTool(), s.handleVerifyTag)
	s.mcp.AddTool(submitVerificationTool(), s.handleSubmitVerification)
	s.mcp.AddTool(resetVerificationTool(), s.handleResetVerification)
	s.mcp.AddTool(getVerificationSummaryTool(), s.handleGetVerificationSummary)
	s.mcp.AddTool(listOrdersTool(), s.handleListOrders)
}
