package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	agerrors "github.com/agira-hq/agira-context/internal/errors"
)

// Result limits.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Config configures the context builder and its retrieval adapter.
type Config struct {
	// Collection is the backend collection searched.
	Collection string

	// DefaultLimit applies when the query leaves Limit unset.
	DefaultLimit int

	// MaxLimit caps the final result count per call.
	MaxLimit int

	// CandidateMultiplier and MaxCandidates bound the backend over-fetch.
	CandidateMultiplier int
	MaxCandidates       int

	// Timeout bounds the single backend call.
	Timeout time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	rc := DefaultRetrieverConfig()
	return Config{
		Collection:          rc.Collection,
		DefaultLimit:        DefaultLimit,
		MaxLimit:            MaxLimit,
		CandidateMultiplier: rc.CandidateMultiplier,
		MaxCandidates:       rc.MaxCandidates,
		Timeout:             rc.Timeout,
	}
}

// ContextBuilder runs the retrieval pipeline: alpha resolution, filter
// building, backend retrieval, dedup/rank, context assembly. It holds no
// mutable per-call state, so one builder serves concurrent callers.
type ContextBuilder struct {
	retriever *Retriever
	alpha     *AlphaResolver
	config    Config
	logger    *slog.Logger
}

// NewContextBuilder creates a builder around the given search backend.
func NewContextBuilder(backend HybridSearcher, config Config) (*ContextBuilder, error) {
	if config.DefaultLimit <= 0 {
		config.DefaultLimit = DefaultLimit
	}
	if config.MaxLimit <= 0 {
		config.MaxLimit = MaxLimit
	}

	retriever, err := NewRetriever(backend, RetrieverConfig{
		Collection:          config.Collection,
		CandidateMultiplier: config.CandidateMultiplier,
		MaxCandidates:       config.MaxCandidates,
		Timeout:             config.Timeout,
	})
	if err != nil {
		return nil, err
	}

	return &ContextBuilder{
		retriever: retriever,
		alpha:     NewAlphaResolver(),
		config:    config,
		logger:    slog.Default(),
	}, nil
}

// BuildContext executes one retrieval request end to end and returns the
// assembled context. The only error it returns is a validation error on
// bad input; backend failures degrade to an empty, well-formed context
// with Stats.Error set.
func (b *ContextBuilder) BuildContext(ctx context.Context, q Query) (*Context, error) {
	start := time.Now()

	text := strings.TrimSpace(q.Text)
	if err := validate(text, q); err != nil {
		return nil, err
	}

	limit := q.Limit
	if limit == 0 {
		limit = b.config.DefaultLimit
	}
	if limit > b.config.MaxLimit {
		limit = b.config.MaxLimit
	}

	// Explicit alpha bypasses the heuristic entirely, even for
	// keyword-pattern queries.
	alphaUsed := 0.0
	alphaSource := AlphaSourceExplicit
	if q.Alpha != nil {
		alphaUsed = *q.Alpha
	} else {
		alphaUsed = b.alpha.Resolve(text)
		alphaSource = AlphaSourceHeuristic
	}

	filters := BuildFilters(q.ProjectID, q.ParentID, q.Types)

	outcome := b.retriever.Retrieve(ctx, text, alphaUsed, filters, limit)

	results, stats := Rank(outcome.Objects, limit)
	if outcome.Err != nil {
		stats.Error = outcome.Err.Error()
	}

	rc := &Context{
		Query:     text,
		AlphaUsed: alphaUsed,
		Summary:   Summarize(results),
		Results:   results,
		Stats:     stats,
	}

	if q.IncludeDebug {
		rc.Debug = &Debug{
			AlphaSource: alphaSource,
			QueryLength: utf8.RuneCountInString(text),
			WordCount:   len(strings.Fields(text)),
		}
	}

	b.logger.Debug("context_built",
		slog.String("query", truncateForLog(text, 80)),
		slog.Float64("alpha", alphaUsed),
		slog.String("alpha_source", alphaSource),
		slog.Int("raw_hits", stats.TotalBeforeDedup),
		slog.Int("results", len(results)),
		slog.Bool("degraded", stats.Error != ""),
		slog.Duration("duration", time.Since(start)))

	return rc, nil
}

// validate rejects programmer errors at the boundary before any backend
// call is made.
func validate(trimmedText string, q Query) error {
	if trimmedText == "" {
		return agerrors.New(agerrors.ErrCodeQueryEmpty,
			"query text must not be empty", nil).
			WithSuggestion("pass a non-empty free-text query")
	}
	if q.Alpha != nil && (*q.Alpha < 0 || *q.Alpha > 1) {
		return agerrors.New(agerrors.ErrCodeInvalidAlpha,
			fmt.Sprintf("alpha %v outside [0,1]", *q.Alpha), nil).
			WithSuggestion("omit alpha to let the heuristic choose")
	}
	if q.Limit < 0 {
		return agerrors.New(agerrors.ErrCodeInvalidLimit,
			fmt.Sprintf("limit %d must be positive", q.Limit), nil)
	}
	return nil
}

// truncateForLog shortens a query for log lines.
func truncateForLog(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
