// Package cmd provides the CLI commands for agira-context.
package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	agerrors "github.com/agira-hq/agira-context/internal/errors"
	"github.com/agira-hq/agira-context/internal/logging"
	"github.com/agira-hq/agira-context/pkg/version"
)

// Debug logging flag
var (
	debugMode      bool
	loggingCleanup func()
)

// NewRootCmd creates the root command for the agira-context CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agira-context",
		Short: "Hybrid retrieval and context assembly for agira",
		Long: `agira-context finds work items, comments, changes, attachments, and
linked GitHub issues/PRs related to a task, and assembles them into a
prompt-ready context block.

It serves AI coding assistants over MCP and doubles as a CLI for
inspecting what the retrieval pipeline returns.

Run 'agira-context' in a project directory to start the MCP server.`,
		Version: version.Version,
		// Errors are printed via FormatForCLI in Execute.
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return cmd.Help()
			}
			// MCP protocol requires stdout to be used exclusively for
			// JSON-RPC messages, so the default action starts the server
			// with no prior stdout output.
			return runServe(cmd.Context())
		},
	}

	cmd.SetVersionTemplate("agira-context version {{.Version}}\n")

	// Debug logging flag
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.agira-context/logs/")

	cmd.PersistentPreRunE = startLogging
	cmd.PersistentPostRunE = stopLogging

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newQueryCmd())
	cmd.AddCommand(newLogsCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// startLogging starts debug logging if the flag is set.
func startLogging(_ *cobra.Command, _ []string) error {
	if !debugMode {
		return nil
	}

	logger, cleanup, err := logging.Setup(logging.DebugConfig())
	if err != nil {
		return fmt.Errorf("failed to setup debug logging: %w", err)
	}
	loggingCleanup = cleanup
	slog.SetDefault(logger)
	slog.Info("Debug logging enabled",
		slog.String("log_file", logging.DefaultLogPath()))

	return nil
}

// stopLogging stops debug logging.
func stopLogging(_ *cobra.Command, _ []string) error {
	if loggingCleanup != nil {
		slog.Info("Debug logging stopped")
		loggingCleanup()
		loggingCleanup = nil
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	err := NewRootCmd().Execute()
	if err != nil {
		var agErr *agerrors.AgiraError
		if errors.As(err, &agErr) {
			fmt.Fprint(os.Stderr, agerrors.FormatForCLI(agErr))
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}
	return err
}
