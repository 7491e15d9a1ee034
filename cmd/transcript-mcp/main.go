// Command transcript-mcp serves YouTube transcripts over MCP.
//
// Exposes three MCP tools: youtube_transcript, youtube_transcript_list,
// youtube_transcript_summary. Runs as HTTP MCP server with a /metrics endpoint.
package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/anatolykoptev/go-mcpserver"
	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/anatolykoptev/go_transcript/internal/engine/sources"
	"github.com/anatolykoptev/go_transcript/internal/transcriptserver"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var version = "dev"

func main() {
	engine.LoadDotEnv()
	mcpPort := env.Str("MCP_PORT", "8892")

	if err := engine.Setup(engine.ConfigFromEnv()); err != nil {
		slog.Error("engine init failed", slog.Any("error", err))
		os.Exit(1)
	}

	slog.Info("starting transcript-mcp",
		slog.String("port", mcpPort),
		slog.Bool("data_api", engine.Cfg.YouTubeAPIKey != ""),
		slog.Bool("llm", engine.Cfg.LLMClient != nil),
	)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "transcript-mcp",
		Version: version,
	}, nil)

	transcriptserver.RegisterTools(server, sources.NewYouTubeClient())
	slog.Info("tools registered", slog.Int("count", 3))

	if err := mcpserver.Run(server, mcpserver.Config{
		Name:         "transcript-mcp",
		Version:      version,
		Port:         mcpPort,
		WriteTimeout: 120 * time.Second,
		Metrics:      engine.FormatMetrics,
	}); err != nil {
		slog.Error("server failed", slog.Any("error", err))
		os.Exit(1)
	}
}
