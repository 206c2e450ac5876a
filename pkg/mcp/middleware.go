package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"gengraph/pkg/mcplog"
)

// toolHandler is a context-free tool handler; queries answer from indexed
// in-memory state and never block on I/O.
type toolHandler func(req mcp.CallToolRequest) (*mcp.CallToolResult, error)

// withLogging adapts a toolHandler to the server handler signature and
// records every call as a JSONL entry when tool logging is enabled.
func (s *Server) withLogging(toolName string, handler toolHandler) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := mcplog.Now()
		result, err := handler(req)

		if s.toolLog != nil {
			_ = s.toolLog.Write(mcplog.NewEntry(toolName, req.GetArguments(), start, result, err))
		}

		return result, err
	}
}
