package main

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"policyrag/rag"
)

type asker interface {
	Ask(ctx context.Context, query string, k int) (rag.AskResult, error)
	Stats() rag.Stats
}

type corpusSyncer interface {
	Sync(ctx context.Context) (rag.IngestResult, error)
}

// NewRagServer exposes the engine over MCP: an ask tool for cited answers, an
// ingest tool to resync the corpus and a stats tool for the engine counters.
func NewRagServer(engine asker, registry corpusSyncer, log *slog.Logger) *server.MCPServer {
	srv := server.NewMCPServer("policyrag", "0.1.0", server.WithToolCapabilities(false))

	ask := mcp.NewTool("ask",
		mcp.WithDescription("Answer a question over the indexed policy documents with citations"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("The question to answer"),
		),
		mcp.WithNumber("results",
			mcp.Description("How many passages to retrieve"),
		))
	srv.AddTool(ask, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := request.RequireString("query")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		k := int(request.GetFloat("results", 0))

		res, err := engine.Ask(ctx, query, k)
		if err != nil {
			log.Error("ask failed", "query", query, "error", err)
			return mcp.NewToolResultError(err.Error()), nil
		}

		return jsonResult(res)
	})

	ingest := mcp.NewTool("ingest",
		mcp.WithDescription("Re-index the policy document corpus"))
	srv.AddTool(ingest, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		res, err := registry.Sync(ctx)
		if err != nil {
			log.Error("ingest failed", "error", err)
			return mcp.NewToolResultError(err.Error()), nil
		}

		return jsonResult(res)
	})

	stats := mcp.NewTool("stats",
		mcp.WithDescription("Report index size and latency statistics"))
	srv.AddTool(stats, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return jsonResult(engine.Stats())
	})

	return srv
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(string(raw)), nil
}
