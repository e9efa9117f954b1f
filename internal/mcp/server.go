// Package mcpserver exposes the hosted connector as MCP tools so an agent
// can inspect and query the extract over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	host "samfdw/internal/server"
)

// DefaultRowLimit caps the rows tool when the caller gives no limit.
const DefaultRowLimit = 100

// Server wraps an MCP server around one connector host.
type Server struct {
	mcp  *server.MCPServer
	host *host.Server
}

// New registers the tools against h.
func New(h *host.Server, version string) *Server {
	s := &Server{
		host: h,
		mcp: server.NewMCPServer(
			"samfdw",
			version,
			server.WithToolCapabilities(true),
		),
	}
	s.registerTools()
	return s
}

// ServeStdio serves on stdin/stdout until the client disconnects.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

func (s *Server) registerTools() {
	s.mcp.AddTool(mcp.NewTool("status",
		mcp.WithDescription("Show the current scan session: id, state, fetch count and dataset URL"),
	), s.handleStatus)

	s.mcp.AddTool(mcp.NewTool("headers",
		mcp.WithDescription("Fetch the extract if needed and report its header row: mapped, missing and unmapped columns"),
	), s.handleHeaders)

	s.mcp.AddTool(mcp.NewTool("rows",
		mcp.WithDescription("Scan the extract and return typed rows as JSON objects. Records without a notice id are skipped."),
		mcp.WithString("columns", mcp.Description("Comma separated canonical fields, e.g. notice_id,title (default all)")),
		mcp.WithNumber("limit", mcp.Description(fmt.Sprintf("Maximum rows to return (default %d)", DefaultRowLimit))),
	), s.handleRows)

	s.mcp.AddTool(mcp.NewTool("rescan",
		mcp.WithDescription("Scan the cached extract twice and report the second pass; the fetch count shows no refetch happened"),
	), s.handleRescan)

	s.mcp.AddTool(mcp.NewTool("refresh",
		mcp.WithDescription("Discard the cached extract so the next scan downloads it again"),
	), s.handleRefresh)
}

// jsonResult serializes v into a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleStatus(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.host.Health())
}

func (s *Server) handleHeaders(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rep, err := s.host.Headers(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(rep)
}

func (s *Server) handleRows(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	fields, err := host.ParseColumns(req.GetString("columns", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	limit := req.GetInt("limit", DefaultRowLimit)
	if limit <= 0 {
		return mcp.NewToolResultError(fmt.Sprintf("limit must be positive: %d", limit)), nil
	}
	rows := make([]map[string]any, 0, limit)
	err = s.host.Rows(ctx, fields, limit, func(obj map[string]any) error {
		rows = append(rows, obj)
		return nil
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(rows)
}

func (s *Server) handleRescan(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rep, err := s.host.Rescan(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(rep)
}

func (s *Server) handleRefresh(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.host.Refresh(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(s.host.Health())
}
