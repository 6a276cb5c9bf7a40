package mcpserver

import (
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer creates a configured MCP server with all fraud detection
// tools registered.
func NewMCPServer(cfg Config) *server.MCPServer {
	s := server.NewMCPServer("cardfraud", "1.0.0")
	client := NewFraudClient(cfg)
	h := NewHandlers(client)

	s.AddTool(ToolVerifyCard, h.HandleVerifyCard)
	s.AddTool(ToolGetCardPattern, h.HandleGetCardPattern)
	s.AddTool(ToolListTransactions, h.HandleListTransactions)
	s.AddTool(ToolGetTransaction, h.HandleGetTransaction)
	s.AddTool(ToolGetAnalytics, h.HandleGetAnalytics)
	s.AddTool(ToolGetFraudPatterns, h.HandleGetFraudPatterns)

	return s
}
