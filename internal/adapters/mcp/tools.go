// Package mcp exposes the query cache as Model Context Protocol tools.
package mcp

import (
	"bytes"
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"semcache/internal/adapters/render"
	"semcache/internal/application/commands"
	"semcache/internal/application/querycache"
	"semcache/internal/domain"
	"semcache/internal/ports"
)

// Services are the dependencies the tools run against
type Services struct {
	Cache  *querycache.Cache
	Data   ports.DataStore
	Index  ports.PageIndex
	Logger *zap.Logger
}

// RegisterTools adds the query, facets, stats, invalidate and sync tools
func RegisterTools(s *server.MCPServer, svc Services) {
	if svc.Logger == nil {
		svc.Logger = zap.NewNop()
	}
	s.AddTool(queryTool(), queryHandler(svc))
	s.AddTool(facetsTool(), facetsHandler(svc))
	s.AddTool(statsTool(), statsHandler(svc))
	s.AddTool(invalidateTool(), invalidateHandler(svc))
	s.AddTool(syncTool(), syncHandler(svc))
}

// --- query ---

func queryTool() mcp.Tool {
	return mcp.NewTool("query",
		mcp.WithDescription("Run a semantic query over the wiki. Results are served from the query cache when possible."),
		mcp.WithString("conditions",
			mcp.Description("Conditions in ask syntax, e.g. [[Category:City]] [[Located in::France]]"),
			mcp.Required(),
		),
		mcp.WithArray("printouts",
			mcp.Description("Columns, e.g. ?Has population|+order=desc or ?Located in.Has capital"),
			mcp.WithStringItems(),
		),
		mcp.WithNumber("limit", mcp.Description("Page size (default 50, 0 counts only)")),
		mcp.WithNumber("offset", mcp.Description("Rows to skip")),
		mcp.WithString("sort", mcp.Description("Comma-separated sort properties")),
		mcp.WithString("order", mcp.Description("Comma-separated asc/desc per sort property")),
		mcp.WithString("context", mcp.Description("Page the query is embedded in")),
		mcp.WithBoolean("no_cache", mcp.Description("Bypass the cache")),
		mcp.WithArray("highlight",
			mcp.Description("Tokens to mark in text values"),
			mcp.WithStringItems(),
		),
	)
}

func queryRequest(req mcp.CallToolRequest) commands.QueryRequest {
	return commands.QueryRequest{
		Conditions: req.GetString("conditions", ""),
		Printouts:  req.GetStringSlice("printouts", nil),
		Limit:      req.GetInt("limit", domain.DefaultLimit),
		Offset:     req.GetInt("offset", 0),
		Sort:       req.GetString("sort", ""),
		Order:      req.GetString("order", ""),
		Context:    req.GetString("context", ""),
		NoCache:    req.GetBool("no_cache", false),
		Highlight:  req.GetStringSlice("highlight", nil),
		Source:     domain.ContextMCP,
	}
}

func queryHandler(svc Services) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		r := queryRequest(req)
		r.Journal = true

		res, err := commands.NewQueryCommand(svc.Cache, svc.Data, svc.Logger, r).Execute(ctx)
		if err != nil {
			return toolError(err)
		}

		var buf bytes.Buffer
		if err := render.Result(&buf, res); err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(buf.String()), nil
	}
}

// --- facets ---

func facetsTool() mcp.Tool {
	return mcp.NewTool("facets",
		mcp.WithDescription("Count the properties and categories carried by the subjects a query returns."),
		mcp.WithString("conditions",
			mcp.Description("Conditions in ask syntax"),
			mcp.Required(),
		),
		mcp.WithNumber("limit", mcp.Description("Number of subjects to count over (default 50)")),
		mcp.WithString("context", mcp.Description("Page the query is embedded in")),
	)
}

func facetsHandler(svc Services) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		r := commands.QueryRequest{
			Conditions: req.GetString("conditions", ""),
			Limit:      req.GetInt("limit", domain.DefaultLimit),
			Context:    req.GetString("context", ""),
			Source:     domain.ContextMCP,
			Facets:     true,
		}

		res, err := commands.NewQueryCommand(svc.Cache, svc.Data, svc.Logger, r).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		if len(res.Rows) == 0 {
			return mcp.NewToolResultText("No results."), nil
		}

		var buf bytes.Buffer
		fmt.Fprintf(&buf, "Facets over %d subject(s):\n", len(res.Rows))
		if err := render.Facets(&buf, res.Facets); err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(buf.String()), nil
	}
}

// --- stats ---

func statsTool() mcp.Tool {
	return mcp.NewTool("stats",
		mcp.WithDescription("Show query cache hit, miss, deletion and bypass counters."),
	)
}

func statsHandler(svc Services) server.ToolHandlerFunc {
	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		snap, err := commands.NewStatsCommand(svc.Cache).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		var buf bytes.Buffer
		if err := render.Stats(&buf, snap); err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(buf.String()), nil
	}
}

// --- invalidate ---

func invalidateTool() mcp.Tool {
	return mcp.NewTool("invalidate",
		mcp.WithDescription("Drop every cached result embedded in the given pages."),
		mcp.WithArray("entities",
			mcp.Description("Pages, e.g. France or Category:Town"),
			mcp.WithStringItems(),
			mcp.Required(),
		),
		mcp.WithString("reason", mcp.Description("Recorded in the deletes statistic (default manual)")),
	)
}

func invalidateHandler(svc Services) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		cmd := commands.NewInvalidateCommand(svc.Cache,
			req.GetStringSlice("entities", nil),
			req.GetString("reason", ""))

		result, err := cmd.Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(result.Message), nil
	}
}

// --- sync ---

func syncTool() mcp.Tool {
	return mcp.NewTool("sync",
		mcp.WithDescription("Re-read changed wiki pages into the index and purge cached results embedded in them."),
		mcp.WithBoolean("full", mcp.Description("Rebuild the whole index")),
	)
}

func syncHandler(svc Services) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if svc.Index == nil {
			return toolError(fmt.Errorf("no page index configured"))
		}
		result, err := commands.NewSyncCommand(svc.Index, svc.Cache, svc.Logger, req.GetBool("full", false)).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(result.Message), nil
	}
}

// --- helpers ---

func toolError(err error) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(err.Error()), nil
}
