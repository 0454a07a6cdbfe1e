package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agira-hq/agira-context/internal/backend"
	"github.com/agira-hq/agira-context/internal/config"
	"github.com/agira-hq/agira-context/internal/logging"
	"github.com/agira-hq/agira-context/internal/output"
	"github.com/agira-hq/agira-context/internal/retrieval"
)

// queryOptions holds CLI flags for query.
type queryOptions struct {
	projectID string
	itemID    string
	types     []string
	alpha     float64
	limit     int
	format    string // "text", "json"
	debugInfo bool
}

func newQueryCmd() *cobra.Command {
	var opts queryOptions

	cmd := &cobra.Command{
		Use:   "query <text>",
		Short: "Retrieve related objects for a query",
		Long: `Retrieve agira objects related to a free-text query and print the
assembled context block.

Runs the same pipeline the MCP server uses: hybrid search with
keyword/semantic balancing, dedup, type-priority ranking, and context
assembly.

Examples:
  agira-context query "login 500 error after deploy"
  agira-context query "#142" --project proj-9
  agira-context query "payment retries" --type item --type comment --limit 5
  agira-context query "flaky checkout test" --format json --debug-info`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")

			var alpha *float64
			if cmd.Flags().Changed("alpha") {
				alpha = &opts.alpha
			}

			return runQuery(cmd.Context(), cmd, text, alpha, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.projectID, "project", "p", "", "Restrict results to one project")
	cmd.Flags().StringVarP(&opts.itemID, "item", "i", "", "Restrict results to children of one work item")
	cmd.Flags().StringSliceVarP(&opts.types, "type", "t", nil, "Filter by object type (repeatable): item, comment, attachment, project, change, github_issue, github_pr")
	cmd.Flags().Float64VarP(&opts.alpha, "alpha", "a", 0, "Hybrid balance 0 (keyword) to 1 (semantic); omit to use the heuristic")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "Maximum number of results (default 20)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")
	cmd.Flags().BoolVar(&opts.debugInfo, "debug-info", false, "Include retrieval diagnostics in the output")

	return cmd
}

func runQuery(ctx context.Context, cmd *cobra.Command, text string, alpha *float64, opts queryOptions) error {
	// CLI logging goes to file only so output stays pipeable.
	logCfg := logging.DefaultConfig()
	logCfg.WriteToStderr = false
	if _, cleanup, err := logging.Setup(logCfg); err == nil {
		defer cleanup()
	}

	slog.Info("query_started", slog.String("query", text), slog.Int("limit", opts.limit))

	types := make([]retrieval.ObjectType, 0, len(opts.types))
	for _, t := range opts.types {
		parsed, ok := retrieval.ParseObjectType(t)
		if !ok {
			return fmt.Errorf("unknown object type %q (valid: item, comment, attachment, project, change, github_issue, github_pr)", t)
		}
		types = append(types, parsed)
	}

	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}

	cfg, err := config.Load(wd)
	if err != nil {
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

	rc, err := builder.BuildContext(ctx, retrieval.Query{
		Text:         text,
		Alpha:        alpha,
		ProjectID:    opts.projectID,
		ParentID:     opts.itemID,
		Types:        types,
		Limit:        opts.limit,
		IncludeDebug: opts.debugInfo,
	})
	if err != nil {
		return err
	}

	return formatQueryResult(cmd, rc, opts.format)
}

// formatQueryResult prints the assembled context in the requested format.
func formatQueryResult(cmd *cobra.Command, rc *retrieval.Context, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(rc)
	case "text":
		out := output.New(cmd.OutOrStdout())
		out.Plain(rc.Summary)
		if rc.Stats.Error != "" {
			out.Warningf("retrieval degraded: %s", rc.Stats.Error)
		}
		if rc.Debug != nil {
			out.Statusf("", "alpha=%.2f (%s) query_length=%d word_count=%d",
				rc.AlphaUsed, rc.Debug.AlphaSource, rc.Debug.QueryLength, rc.Debug.WordCount)
		}
		out.Newline()
		out.Raw(rc.ContextText())
		return nil
	default:
		return fmt.Errorf("unknown format: %s (supported: text, json)", format)
	}
}
