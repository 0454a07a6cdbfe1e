package retrieval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Over-fetch defaults. The backend is asked for more candidates than the
// final limit because dedup may discard hits; the multiplier is bounded
// so a large limit cannot turn into an unbounded backend request.
const (
	DefaultCandidateMultiplier = 3
	DefaultMaxCandidates       = 100
	DefaultSearchTimeout       = 5 * time.Second
)

// RetrieverConfig configures the retrieval adapter.
type RetrieverConfig struct {
	// Collection is the logical backend collection searched.
	Collection string

	// CandidateMultiplier is the over-fetch factor applied to the limit.
	CandidateMultiplier int

	// MaxCandidates caps the raw candidate count per call.
	MaxCandidates int

	// Timeout bounds the single backend call. Timeouts degrade exactly
	// like backend-unavailable errors.
	Timeout time.Duration
}

// DefaultRetrieverConfig returns sensible adapter defaults.
func DefaultRetrieverConfig() RetrieverConfig {
	return RetrieverConfig{
		Collection:          "agira_objects",
		CandidateMultiplier: DefaultCandidateMultiplier,
		MaxCandidates:       DefaultMaxCandidates,
		Timeout:             DefaultSearchTimeout,
	}
}

// ErrNilBackend is returned when a retriever is constructed without a
// backend.
var ErrNilBackend = errors.New("nil backend")

// Retriever invokes the external hybrid-search capability and normalizes
// its failure modes. The backend is injected so tests can substitute a
// fake deterministically.
type Retriever struct {
	backend HybridSearcher
	config  RetrieverConfig
	logger  *slog.Logger
}

// NewRetriever creates a retrieval adapter around the given backend.
func NewRetriever(backend HybridSearcher, config RetrieverConfig) (*Retriever, error) {
	if backend == nil {
		return nil, fmt.Errorf("%w: hybrid searcher is required", ErrNilBackend)
	}
	if config.Collection == "" {
		config.Collection = DefaultRetrieverConfig().Collection
	}
	if config.CandidateMultiplier <= 0 {
		config.CandidateMultiplier = DefaultCandidateMultiplier
	}
	if config.MaxCandidates <= 0 {
		config.MaxCandidates = DefaultMaxCandidates
	}
	return &Retriever{
		backend: backend,
		config:  config,
		logger:  slog.Default(),
	}, nil
}

// Outcome is the discriminated result of one retrieval attempt. Err set
// means the backend was unavailable and Objects is empty; retrieval is
// best-effort enrichment, so the failure is recorded, not raised.
type Outcome struct {
	Objects []SearchableObject
	Err     error
}

// Retrieve executes a single hybrid search attempt. It over-fetches
// candidates relative to limit, and recovers from every backend failure:
// the returned outcome carries either objects or a degradation error,
// never both. No retries - retrieval sits on a latency-sensitive request
// path.
func (r *Retriever) Retrieve(ctx context.Context, query string, alpha float64, filters *FilterSpec, limit int) Outcome {
	candidates := limit * r.config.CandidateMultiplier
	if candidates > r.config.MaxCandidates {
		candidates = r.config.MaxCandidates
	}
	if candidates < limit {
		candidates = limit
	}

	if r.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.Timeout)
		defer cancel()
	}

	objects, err := r.backend.HybridSearch(ctx, SearchRequest{
		Collection: r.config.Collection,
		Query:      query,
		Alpha:      alpha,
		Filters:    filters,
		Limit:      candidates,
	})
	if err != nil {
		r.logger.Warn("hybrid search degraded, returning empty result",
			slog.String("collection", r.config.Collection),
			slog.Int("candidates", candidates),
			slog.String("error", err.Error()))
		return Outcome{Err: normalizeBackendError(err)}
	}

	return Outcome{Objects: objects}
}

// normalizeBackendError folds context timeouts into the unavailable
// sentinel so stats carry one vocabulary of degradation causes.
func normalizeBackendError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return err
}
