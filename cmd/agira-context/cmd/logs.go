package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agira-hq/agira-context/internal/logging"
)

// defaultTailLines is how many trailing lines the logs command prints
// when --tail is not set.
const defaultTailLines = 50

func newLogsCmd() *cobra.Command {
	var (
		filePath  string
		tailLines int
		pathOnly  bool
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the server log",
		Long: `Show the tail of the server log file.

The MCP server and the query command log to
~/.agira-context/logs/server.log (JSON lines). Use --path to print the
resolved location for piping into other tools:

  tail -f "$(agira-context logs --path)"`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := logging.FindLogFile(filePath)
			if err != nil {
				return err
			}

			if pathOnly {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), path)
				return err
			}

			return printLogTail(cmd, path, tailLines)
		},
	}

	cmd.Flags().StringVar(&filePath, "file", "", "Log file to read (default: the server log)")
	cmd.Flags().IntVarP(&tailLines, "tail", "n", defaultTailLines, "Number of trailing lines to print")
	cmd.Flags().BoolVar(&pathOnly, "path", false, "Print only the resolved log file path")

	return cmd
}

// printLogTail prints the last n lines of the file at path.
func printLogTail(cmd *cobra.Command, path string, n int) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read log file: %w", err)
	}

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if n > 0 && len(lines) > n {
		lines = lines[len(lines)-n:]
	}

	for _, line := range lines {
		if line == "" {
			continue
		}
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), line); err != nil {
			return err
		}
	}
	return nil
}
