package mcpadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/builder-search/internal/core/domain"
	"github.com/kirillkom/builder-search/internal/core/ports"
)

const serverName = "builder-search"

// Tools exposes the search and snapshot use cases as MCP tools.
type Tools struct {
	search    ports.BuilderSearchService
	snapshots ports.SnapshotService
}

func NewTools(search ports.BuilderSearchService, snapshots ports.SnapshotService) *Tools {
	return &Tools{search: search, snapshots: snapshots}
}

func (t *Tools) Server(version string) *server.MCPServer {
	s := server.NewMCPServer(serverName, version, server.WithToolCapabilities(false))

	s.AddTool(mcp.NewTool("search_builders",
		mcp.WithDescription("Find builders in the social graph matching a natural-language query. Returns relevant accounts and casts with the reason each one matched, plus a summary."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("What kind of builder to look for, e.g. \"who is building farcaster frames on base\"."),
		),
	), t.searchBuilders)

	s.AddTool(mcp.NewTool("get_snapshot",
		mcp.WithDescription("Load a previously shared search snapshot by its 8-character id."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Snapshot id, 8 hex characters."),
		),
	), t.getSnapshot)

	return s
}

func (t *Tools) searchBuilders(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	resp, err := t.search.Search(ctx, query)
	if err != nil {
		return toolError("search_builders", err), nil
	}
	return jsonResult(resp)
}

func (t *Tools) getSnapshot(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	view, err := t.snapshots.Get(ctx, id)
	if err != nil {
		return toolError("get_snapshot", err), nil
	}
	return jsonResult(view)
}

// toolError reports failures in the tool result so the client model can see them.
func toolError(tool string, err error) *mcp.CallToolResult {
	label := domain.KindLabel(err)
	if label == "internal_error" {
		slog.Error("mcp_tool_failed", "tool", tool, "error", err)
	} else {
		slog.Warn("mcp_tool_failed", "tool", tool, "kind", label, "error", err)
	}
	return mcp.NewToolResultError(fmt.Sprintf("%s: %v", label, err))
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	body, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode tool result: %w", err)
	}
	return mcp.NewToolResultText(string(body)), nil
}
