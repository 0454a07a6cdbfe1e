package retrieval

import (
	"regexp"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Blend weight constants. 0 is pure keyword search, 1 is pure semantic.
const (
	// AlphaKeyword favors lexical matching for queries that look like
	// code: IDs, identifiers, error names. Embedding similarity mostly
	// adds noise for these.
	AlphaKeyword = 0.2

	// AlphaSemantic favors vector similarity for long natural-language
	// queries.
	AlphaSemantic = 0.7

	// AlphaBalanced is the fallback for short and mixed queries.
	AlphaBalanced = 0.5
)

// semanticWordThreshold is the word count above which a query with no
// keyword signal defaults to semantic-heavy search.
const semanticWordThreshold = 12

// Compiled patterns for the keyword-heavy signals.
// Compiled at package init for performance.
var (
	// Issue/PR references: #142
	issueRefPattern = regexp.MustCompile(`#\d+`)

	// Semantic versions: v1.2.3
	semverPattern = regexp.MustCompile(`v\d+\.\d+\.\d+`)

	// Identifier casing: camelCase or snake_case tokens. The camelCase
	// check runs against the original-cased query; lowering would erase
	// the signal.
	camelCasePattern = regexp.MustCompile(`[a-z]+[A-Z]`)
	snakeCasePattern = regexp.MustCompile(`[a-z]+_[a-z]+`)

	// HTTP status mentions: "http 404" or "500 error".
	httpStatusPattern  = regexp.MustCompile(`http\s?\d{3}`)
	statusErrorPattern = regexp.MustCompile(`\d{3}\s?error`)
)

// errorKeywords are matched as case-insensitive substrings, which also
// catches compound terms like "nullpointerexception" via "exception".
var errorKeywords = []string{
	"exception",
	"error",
	"traceback",
	"stacktrace",
	"panic",
}

// alphaRule is one entry of the ordered decision table. Rules are
// evaluated in priority order and the first match wins; some patterns
// overlap, so order matters.
type alphaRule struct {
	name string
	// match receives the trimmed original query and a lowered copy.
	match func(trimmed, lowered string) bool
	alpha float64
}

var alphaRules = []alphaRule{
	{
		name:  "issue_reference",
		match: func(_, lowered string) bool { return issueRefPattern.MatchString(lowered) },
		alpha: AlphaKeyword,
	},
	{
		name:  "semantic_version",
		match: func(_, lowered string) bool { return semverPattern.MatchString(lowered) },
		alpha: AlphaKeyword,
	},
	{
		name: "identifier_casing",
		match: func(trimmed, lowered string) bool {
			return camelCasePattern.MatchString(trimmed) || snakeCasePattern.MatchString(lowered)
		},
		alpha: AlphaKeyword,
	},
	{
		name: "error_keyword",
		match: func(_, lowered string) bool {
			for _, kw := range errorKeywords {
				if strings.Contains(lowered, kw) {
					return true
				}
			}
			return false
		},
		alpha: AlphaKeyword,
	},
	{
		name: "http_status",
		match: func(_, lowered string) bool {
			return httpStatusPattern.MatchString(lowered) || statusErrorPattern.MatchString(lowered)
		},
		alpha: AlphaKeyword,
	},
	{
		name: "long_natural_language",
		match: func(trimmed, _ string) bool {
			return len(strings.Fields(trimmed)) > semanticWordThreshold
		},
		alpha: AlphaSemantic,
	},
}

// DetermineAlpha infers the lexical/semantic blend weight from the shape
// of the query. Pure and total: same input always yields the same output,
// always in [0,1], never fails. Empty input falls back to the balanced
// constant (the pipeline rejects empty queries before calling this).
func DetermineAlpha(query string) float64 {
	alpha, _ := determineAlpha(query)
	return alpha
}

// determineAlpha also reports the name of the matched rule for logging.
func determineAlpha(query string) (float64, string) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return AlphaBalanced, "default"
	}

	lowered := strings.ToLower(trimmed)
	for _, rule := range alphaRules {
		if rule.match(trimmed, lowered) {
			return rule.alpha, rule.name
		}
	}

	return AlphaBalanced, "default"
}

// DefaultAlphaCacheSize bounds the alpha memo. Entries are tiny; the
// cache only exists to skip regex evaluation for repeated agent queries.
const DefaultAlphaCacheSize = 1024

// AlphaResolver memoizes DetermineAlpha decisions in an LRU cache.
// The underlying function is pure, so cached and fresh results are
// always identical.
type AlphaResolver struct {
	cache *lru.Cache[string, float64]
}

// NewAlphaResolver creates a resolver with the default cache size.
func NewAlphaResolver() *AlphaResolver {
	cache, _ := lru.New[string, float64](DefaultAlphaCacheSize)
	return &AlphaResolver{cache: cache}
}

// Resolve returns the blend weight for the query, from cache when
// available. The key keeps the original casing: the identifier rule is
// case-sensitive, so "getUserData" and "getuserdata" are distinct
// queries with distinct weights.
func (r *AlphaResolver) Resolve(query string) float64 {
	key := strings.TrimSpace(query)
	if key == "" {
		return AlphaBalanced
	}
	if alpha, ok := r.cache.Get(key); ok {
		return alpha
	}
	alpha := DetermineAlpha(query)
	r.cache.Add(key, alpha)
	return alpha
}
