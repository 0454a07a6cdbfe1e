// Package retrieval implements hybrid retrieval and context assembly for
// Agira objects. Given a free-text query and optional scope filters it
// retrieves semantically and lexically relevant objects from the search
// backend, merges and ranks them, and formats the result as both a
// structured payload and an LLM-ready text block.
package retrieval

import (
	"context"
	"errors"
	"time"
)

// Source is the fixed provenance label attached to every ranked result.
const Source = "agira"

// ObjectType identifies the kind of searchable object. The set is closed:
// priority and label lookups switch exhaustively over these constants, so
// adding a type is a single compile-checked change. Unknown types coming
// from the backend are carried through with priority 0.
type ObjectType string

const (
	TypeItem        ObjectType = "item"
	TypeComment     ObjectType = "comment"
	TypeAttachment  ObjectType = "attachment"
	TypeProject     ObjectType = "project"
	TypeChange      ObjectType = "change"
	TypeGitHubIssue ObjectType = "github_issue"
	TypeGitHubPR    ObjectType = "github_pr"
)

// Priority returns the tie-break ordinal for ranking. Higher wins.
// Work items rank above external trackers, discussion, and files: when
// backend scores tie, an agent wants actionable context first.
func (t ObjectType) Priority() int {
	switch t {
	case TypeItem:
		return 6
	case TypeGitHubIssue, TypeGitHubPR:
		return 5
	case TypeComment:
		return 4
	case TypeChange:
		return 3
	case TypeAttachment:
		return 2
	case TypeProject:
		return 1
	default:
		return 0
	}
}

// Label returns the human-readable singular label used in summaries.
func (t ObjectType) Label() string {
	switch t {
	case TypeItem:
		return "item"
	case TypeComment:
		return "comment"
	case TypeAttachment:
		return "attachment"
	case TypeProject:
		return "project"
	case TypeChange:
		return "change"
	case TypeGitHubIssue:
		return "GitHub issue"
	case TypeGitHubPR:
		return "GitHub PR"
	default:
		return string(t)
	}
}

// ParseObjectType parses s into a known ObjectType. The second return
// is false for strings outside the closed set.
func ParseObjectType(s string) (ObjectType, bool) {
	switch ObjectType(s) {
	case TypeItem, TypeComment, TypeAttachment, TypeProject, TypeChange,
		TypeGitHubIssue, TypeGitHubPR:
		return ObjectType(s), true
	default:
		return "", false
	}
}

// SearchableObject is a single hit returned by the search backend.
// Score is the backend relevance for the current query only; it is never
// persisted and is comparable only within one retrieval call.
type SearchableObject struct {
	Type      ObjectType `json:"object_type"`
	ID        string     `json:"object_id"`
	ProjectID string     `json:"project_id,omitempty"`
	ParentID  string     `json:"parent_object_id,omitempty"`
	Title     string     `json:"title,omitempty"`
	Text      string     `json:"text,omitempty"`
	Status    string     `json:"status,omitempty"`
	URL       string     `json:"url,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
	Score     float64    `json:"score"`
}

// Key returns the dedup key for this object.
func (o SearchableObject) Key() ObjectKey {
	return ObjectKey{Type: o.Type, ID: o.ID}
}

// ObjectKey identifies a unique source object across possibly-duplicated
// retrieval hits.
type ObjectKey struct {
	Type ObjectType
	ID   string
}

// Query describes one retrieval request. Construct it, pass it to
// ContextBuilder.BuildContext; it is not mutated by the pipeline.
type Query struct {
	// Text is the free-text query. Required, non-empty after trimming.
	Text string

	// Alpha pins the lexical/semantic blend weight (0=pure keyword,
	// 1=pure semantic). Nil means the heuristic decides.
	Alpha *float64

	// ProjectID scopes results to one project.
	ProjectID string

	// ParentID scopes results to children of one object (e.g. an item's
	// comments).
	ParentID string

	// Types restricts results to the given object types.
	Types []ObjectType

	// Limit is the maximum number of final results. Zero means the
	// builder default (20); negative values are rejected.
	Limit int

	// IncludeDebug attaches alpha-resolution debug info to the context.
	IncludeDebug bool
}

// RankedResult is a deduplicated, ranked hit with its content snippet.
type RankedResult struct {
	Type      ObjectType `json:"object_type"`
	ID        string     `json:"object_id"`
	Title     string     `json:"title,omitempty"`
	Content   string     `json:"content"`
	Source    string     `json:"source"`
	Score     float64    `json:"relevance_score"`
	Link      string     `json:"link,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// Stats reports retrieval counters and the degradation marker. Callers
// must inspect Error to distinguish "nothing found" from "backend was
// unavailable" - backend failures never surface as Go errors.
type Stats struct {
	TotalBeforeDedup int    `json:"total_before_dedup"`
	TotalAfterDedup  int    `json:"total_after_dedup"`
	Error            string `json:"error,omitempty"`
}

// Debug carries alpha-resolution diagnostics, present only when the query
// set IncludeDebug.
type Debug struct {
	// AlphaSource is "heuristic" or "explicit".
	AlphaSource string `json:"alpha_source"`
	QueryLength int    `json:"query_length"`
	WordCount   int    `json:"word_count"`
}

// Alpha sources reported in Debug.
const (
	AlphaSourceHeuristic = "heuristic"
	AlphaSourceExplicit  = "explicit"
)

// Context is the assembled retrieval result. It is created fresh per call
// and holds no shared state; concurrent BuildContext calls are safe.
type Context struct {
	Query     string         `json:"query"`
	AlphaUsed float64        `json:"alpha_used"`
	Summary   string         `json:"summary"`
	Results   []RankedResult `json:"results"`
	Stats     Stats          `json:"stats"`
	Debug     *Debug         `json:"debug,omitempty"`
}

// SearchRequest is the request this core sends to the hybrid search
// backend.
type SearchRequest struct {
	Collection string
	Query      string
	Alpha      float64
	Filters    *FilterSpec
	Limit      int
}

// HybridSearcher is the capability consumed from the external search
// engine. Implementations combine lexical and vector scoring into one
// ranked list; this core never looks inside.
type HybridSearcher interface {
	HybridSearch(ctx context.Context, req SearchRequest) ([]SearchableObject, error)
}

// Sentinel errors for backend failure modes. The retrieval adapter
// recovers from both; they never propagate out of BuildContext.
var (
	ErrBackendUnavailable   = errors.New("search backend unavailable")
	ErrBackendMisconfigured = errors.New("search backend misconfigured")
)
