package cmd

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/agira-hq/agira-context/internal/backend"
	"github.com/agira-hq/agira-context/internal/config"
	"github.com/agira-hq/agira-context/internal/logging"
	"github.com/agira-hq/agira-context/internal/mcp"
	"github.com/agira-hq/agira-context/internal/retrieval"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the MCP server on stdio.

The server exposes the related_context tool to AI clients such as
Claude Code and Cursor. Stdout carries JSON-RPC exclusively; logs go
to ~/.agira-context/logs/server.log.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}

	return cmd
}

// runServe wires config, backend client, and pipeline, then serves MCP
// on stdio. Nothing may touch stdout before the server starts.
func runServe(ctx context.Context) error {
	// MCP-safe logging: file only, never stderr noise on the protocol.
	logCfg := logging.DefaultConfig()
	logCfg.WriteToStderr = false
	if debugMode {
		logCfg.Level = "debug"
	}
	if logger, cleanup, err := logging.Setup(logCfg); err == nil {
		slog.SetDefault(logger)
		defer cleanup()
	}

	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}

	cfg, err := config.Load(wd)
	if err != nil {
		slog.Error("Failed to load configuration", slog.String("error", err.Error()))
		return err
	}

	client := backend.NewClient(backend.ClientConfig{
		Endpoint: cfg.Backend.Endpoint,
		Timeout:  cfg.BackendTimeout(),
	})
	defer client.Close()

	builder, err := retrieval.NewContextBuilder(client, retrieval.Config{
		Collection:          cfg.Backend.Collection,
		DefaultLimit:        cfg.Retrieval.DefaultLimit,
		MaxLimit:            cfg.Retrieval.MaxLimit,
		CandidateMultiplier: cfg.Retrieval.CandidateMultiplier,
		MaxCandidates:       cfg.Retrieval.MaxCandidates,
		Timeout:             cfg.BackendTimeout(),
	})
	if err != nil {
		return err
	}

	server, err := mcp.NewServer(builder)
	if err != nil {
		return err
	}

	return server.Serve(ctx, cfg.Server.Transport)
}
