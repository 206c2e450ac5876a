// Package mcp exposes dependency-context queries over the Model Context
// Protocol via stdio.
package mcp

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"gengraph/pkg/graph"
	"gengraph/pkg/mcplog"
)

// Server wraps an MCP server answering queries over a built context
// document.
type Server struct {
	mcpServer *server.MCPServer
	query     *graph.QueryService
	toolLog   *mcplog.Logger
	logger    *slog.Logger
}

// Config controls MCP server construction.
type Config struct {
	// Version is reported to MCP clients.
	Version string

	// ToolLogPath enables JSONL tool-call logging when non-empty.
	ToolLogPath string

	Logger *slog.Logger
}

// NewServer creates an MCP server over the given query service.
func NewServer(query *graph.QueryService, config Config) (*Server, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	toolLog, err := mcplog.NewLogger(config.ToolLogPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open tool log: %w", err)
	}

	s := &Server{
		mcpServer: server.NewMCPServer(
			"gengraph",
			config.Version,
			server.WithToolCapabilities(false),
			server.WithRecovery(),
		),
		query:   query,
		toolLog: toolLog,
		logger:  logger,
	}
	s.registerTools()

	return s, nil
}

// Serve runs the server over stdio until the client disconnects.
func (s *Server) Serve() error {
	s.logger.Info("serving MCP over stdio")
	return server.ServeStdio(s.mcpServer)
}

// Close flushes the tool log.
func (s *Server) Close() error {
	if s.toolLog != nil {
		return s.toolLog.Close()
	}
	return nil
}

func (s *Server) registerTools() {
	getContext := mcp.NewTool("get_context",
		mcp.WithDescription("Get the dependency context of a function or component: its callers, its callees, and the files involved."),
		mcp.WithString("function",
			mcp.Required(),
			mcp.Description("Function or component name to query"),
		),
		mcp.WithString("depth",
			mcp.Description("Traversal depth as PARENTS:CHILDREN; * means unbounded (default *:*)"),
		),
		mcp.WithBoolean("include_code",
			mcp.Description("Include each function's source code in the report"),
		),
		mcp.WithBoolean("include_files",
			mcp.Description("Append the full content of every file in the context"),
		),
	)
	s.mcpServer.AddTool(getContext, s.withLogging("get_context", s.handleGetContext))

	listFunctions := mcp.NewTool("list_functions",
		mcp.WithDescription("List every function and component known to the dependency graph."),
	)
	s.mcpServer.AddTool(listFunctions, s.withLogging("list_functions", s.handleListFunctions))

	getRecord := mcp.NewTool("get_record",
		mcp.WithDescription("Get the raw dependency record of one function as JSON: file, dependencies, external dependencies, and source."),
		mcp.WithString("function",
			mcp.Required(),
			mcp.Description("Function or component name to look up"),
		),
	)
	s.mcpServer.AddTool(getRecord, s.withLogging("get_record", s.handleGetRecord))
}

func (s *Server) handleGetContext(req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("function")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	depth, err := graph.ParseDepth(req.GetString("depth", "*:*"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := s.query.Context(name, depth)
	text := graph.Format(result, graph.FormatOptions{
		IncludeCode:  req.GetBool("include_code", false),
		IncludeFiles: req.GetBool("include_files", false),
	})

	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleListFunctions(req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	names := s.query.Functions()

	payload, err := json.MarshalIndent(names, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode function list: %v", err)), nil
	}

	return mcp.NewToolResultText(string(payload)), nil
}

func (s *Server) handleGetRecord(req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("function")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	record, ok := s.query.Record(name)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("function %q not found", name)), nil
	}

	payload, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode record: %v", err)), nil
	}

	return mcp.NewToolResultText(string(payload)), nil
}
