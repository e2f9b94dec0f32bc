package main

import (
	"context"
	"flag"
	"log"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	mcpadapter "semcache/internal/adapters/mcp"
	"semcache/internal/application/commands"
	"semcache/internal/config"
	"semcache/internal/di"
)

func main() {
	configFlag := flag.String("config", "", "path to a YAML config file")
	wikiFlag := flag.String("wiki", "", "path to the wiki, overrides the config")
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("semcache-mcp: %v", err)
	}
	if *wikiFlag != "" {
		cfg.Wiki.Path = *wikiFlag
	}
	c, err := di.New(cfg)
	if err != nil {
		log.Fatalf("semcache-mcp: %v", err)
	}
	defer c.Close()

	if res, err := commands.NewSyncCommand(c.Index, c.Cache, c.Logger, false).Execute(context.Background()); err != nil {
		c.Logger.Warn("initial sync failed", zap.Error(err))
	} else {
		c.Logger.Info("index ready", zap.String("sync", res.Message))
	}

	mcpServer := server.NewMCPServer(
		"semcache-mcp",
		"0.1.0",
		server.WithToolCapabilities(true),
	)

	mcpServer.AddTool(
		mcp.NewTool("ping",
			mcp.WithDescription("Health check, returns pong"),
		),
		func(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultText("pong"), nil
		},
	)

	mcpadapter.RegisterTools(mcpServer, mcpadapter.Services{
		Cache:  c.Cache,
		Data:   c.Data,
		Index:  c.Index,
		Logger: c.Logger.Named("mcp"),
	})

	if err := server.ServeStdio(mcpServer); err != nil {
		c.Logger.Error("server stopped", zap.Error(err))
		log.Fatalf("semcache-mcp: %v", err)
	}
}
