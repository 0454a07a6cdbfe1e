package mcp

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/agira-hq/agira-context/internal/retrieval"
	"github.com/agira-hq/agira-context/pkg/version"
)

// Server is the MCP server for agira-context.
// It bridges AI clients (Claude Code, Cursor) with the retrieval pipeline.
type Server struct {
	mcp     *mcp.Server
	builder *retrieval.ContextBuilder
	logger  *slog.Logger
}

// ToolInfo contains information about a registered tool.
type ToolInfo struct {
	Name        string
	Description string
}

// ContextInput defines the input schema for the related_context tool.
type ContextInput struct {
	Query        string   `json:"query" jsonschema:"free-text description of the task or question to find related objects for"`
	ProjectID    string   `json:"project_id,omitempty" jsonschema:"restrict results to one project"`
	ItemID       string   `json:"item_id,omitempty" jsonschema:"restrict results to children of one work item"`
	Types        []string `json:"types,omitempty" jsonschema:"restrict results to object types: item, comment, attachment, project, change, github_issue, github_pr"`
	Alpha        *float64 `json:"alpha,omitempty" jsonschema:"hybrid search balance between 0 (keyword) and 1 (semantic); omit to let the heuristic choose"`
	Limit        int      `json:"limit,omitempty" jsonschema:"maximum number of results, default 20"`
	IncludeDebug bool     `json:"include_debug,omitempty" jsonschema:"include retrieval diagnostics in the output"`
}

// ContextOutput defines the output schema for the related_context tool.
type ContextOutput struct {
	Query       string                   `json:"query" jsonschema:"the query as processed, with surrounding whitespace trimmed"`
	Summary     string                   `json:"summary" jsonschema:"one-line description of what was found"`
	AlphaUsed   float64                  `json:"alpha_used" jsonschema:"alpha value the search actually ran with"`
	Results     []retrieval.RankedResult `json:"results" jsonschema:"ranked related objects"`
	Stats       retrieval.Stats          `json:"stats" jsonschema:"dedup counts and degraded-mode error, if any"`
	Debug       *retrieval.Debug         `json:"debug,omitempty" jsonschema:"retrieval diagnostics, present when include_debug is set"`
	ContextText string                   `json:"context_text" jsonschema:"assembled context block ready for prompt injection"`
}

// NewServer creates a new MCP server around the given context builder.
func NewServer(builder *retrieval.ContextBuilder) (*Server, error) {
	if builder == nil {
		return nil, errors.New("context builder is required")
	}

	s := &Server{
		builder: builder,
		logger:  slog.Default(),
	}

	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    "agira-context",
			Version: version.Version,
		},
		nil, // ServerOptions - capabilities are inferred from registered tools
	)

	s.registerTools()

	return s, nil
}

// MCPServer returns the underlying MCP server instance.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// Info returns the server name and version.
func (s *Server) Info() (name, ver string) {
	return "agira-context", version.Version
}

// ListTools returns all registered tools.
func (s *Server) ListTools() []ToolInfo {
	return []ToolInfo{
		{
			Name:        "related_context",
			Description: relatedContextDescription,
		},
	}
}

const relatedContextDescription = "Find agira objects related to a task or question. " +
	"Runs hybrid keyword/semantic search over work items, comments, changes, attachments, " +
	"projects, and linked GitHub issues and PRs, then returns a deduplicated, ranked, " +
	"prompt-ready context block. Scope with project_id, item_id, or types when you already " +
	"know where to look."

// registerTools registers all tools with the MCP server.
func (s *Server) registerTools() {
	s.logger.Debug("Registering MCP tools")

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "related_context",
		Description: relatedContextDescription,
	}, s.mcpRelatedContextHandler)
	s.logger.Debug("Registered tool", slog.String("name", "related_context"))

	s.logger.Info("MCP tools registered", slog.Int("count", 1))
}

// mcpRelatedContextHandler is the MCP SDK handler for the related_context tool.
func (s *Server) mcpRelatedContextHandler(ctx context.Context, _ *mcp.CallToolRequest, input ContextInput) (
	*mcp.CallToolResult,
	ContextOutput,
	error,
) {
	start := time.Now()
	requestID := generateRequestID()

	if input.Query == "" {
		return nil, ContextOutput{}, NewInvalidParamsError("query parameter is required and must be a non-empty string")
	}

	types := make([]retrieval.ObjectType, 0, len(input.Types))
	for _, t := range input.Types {
		parsed, ok := retrieval.ParseObjectType(t)
		if !ok {
			return nil, ContextOutput{}, NewInvalidParamsError(fmt.Sprintf("unknown object type %q", t))
		}
		types = append(types, parsed)
	}

	s.logger.Info("related_context started",
		slog.String("request_id", requestID),
		slog.Int("query_len", len(input.Query)),
		slog.String("project_id", input.ProjectID),
		slog.String("item_id", input.ItemID))

	rc, err := s.builder.BuildContext(ctx, retrieval.Query{
		Text:         input.Query,
		Alpha:        input.Alpha,
		ProjectID:    input.ProjectID,
		ParentID:     input.ItemID,
		Types:        types,
		Limit:        input.Limit,
		IncludeDebug: input.IncludeDebug,
	})
	duration := time.Since(start)

	if err != nil {
		s.logger.Error("related_context failed",
			slog.String("request_id", requestID),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		return nil, ContextOutput{}, MapError(err)
	}

	s.logger.Info("related_context completed",
		slog.String("request_id", requestID),
		slog.Duration("duration", duration),
		slog.Int("result_count", len(rc.Results)),
		slog.Bool("degraded", rc.Stats.Error != ""))

	return nil, ContextOutput{
		Query:       rc.Query,
		Summary:     rc.Summary,
		AlphaUsed:   rc.AlphaUsed,
		Results:     rc.Results,
		Stats:       rc.Stats,
		Debug:       rc.Debug,
		ContextText: rc.ContextText(),
	}, nil
}

// Serve starts the server with the specified transport.
func (s *Server) Serve(ctx context.Context, transport string) error {
	s.logger.Info("Starting MCP server",
		slog.String("transport", transport))

	switch transport {
	case "stdio":
		s.logger.Debug("Using stdio transport for JSON-RPC")
		err := s.mcp.Run(ctx, &mcp.StdioTransport{})
		if err != nil && err != context.Canceled {
			s.logger.Error("MCP server stopped with error",
				slog.String("error", err.Error()))
		} else {
			s.logger.Info("MCP server stopped gracefully")
		}
		return err
	default:
		return fmt.Errorf("unknown transport: %s (supported: stdio)", transport)
	}
}

// generateRequestID creates a short unique request ID for log correlation.
func generateRequestID() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
