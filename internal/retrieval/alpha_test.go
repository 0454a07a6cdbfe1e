package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetermineAlpha_KeywordSignals(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  float64
	}{
		{name: "issue reference", query: "#142", want: AlphaKeyword},
		{name: "issue reference in sentence", query: "regression reported in #987", want: AlphaKeyword},
		{name: "semantic version", query: "broken since v1.2.3", want: AlphaKeyword},
		{name: "camelCase identifier", query: "getUserProfile returns nil", want: AlphaKeyword},
		{name: "snake_case identifier", query: "parse_config ignores overrides", want: AlphaKeyword},
		{name: "error keyword", query: "NullPointerException on startup", want: AlphaKeyword},
		{name: "panic keyword", query: "panic in worker shutdown", want: AlphaKeyword},
		{name: "traceback keyword", query: "traceback when importing module", want: AlphaKeyword},
		{name: "http status", query: "http 404 from gateway", want: AlphaKeyword},
		{name: "http status no space", query: "http500 from gateway", want: AlphaKeyword},
		{name: "status then error", query: "503 error on checkout", want: AlphaKeyword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetermineAlpha(tt.query)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestDetermineAlpha_LongNaturalLanguage(t *testing.T) {
	// Given a descriptive query with more than 12 words and no keyword signal
	query := "the checkout page keeps loading forever when a customer tries to apply two discounts at once"

	// When the blend weight is inferred
	got := DetermineAlpha(query)

	// Then the query leans semantic
	assert.InDelta(t, AlphaSemantic, got, 1e-9)
}

func TestDetermineAlpha_Balanced(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{name: "short plain query", query: "login bug"},
		{name: "exactly twelve words", query: "one two three four five six seven eight nine ten eleven twelve"},
		{name: "whitespace padded", query: "   deploy checklist   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, AlphaBalanced, DetermineAlpha(tt.query), 1e-9)
		})
	}
}

func TestDetermineAlpha_KeywordBeatsLength(t *testing.T) {
	// A long query that still carries a keyword signal stays keyword-heavy:
	// the decision table is ordered and the first match wins.
	query := "after the last deploy the login endpoint started returning an error for every single user who tries to sign in"

	assert.InDelta(t, AlphaKeyword, DetermineAlpha(query), 1e-9)
}

func TestDetermineAlpha_EmptyQuery(t *testing.T) {
	assert.InDelta(t, AlphaBalanced, DetermineAlpha(""), 1e-9)
	assert.InDelta(t, AlphaBalanced, DetermineAlpha("   "), 1e-9)
}

func TestDetermineAlpha_Deterministic(t *testing.T) {
	// Same input, same output, every time
	query := "flaky checkout integration test"
	first := DetermineAlpha(query)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, DetermineAlpha(query))
	}
	assert.GreaterOrEqual(t, first, 0.0)
	assert.LessOrEqual(t, first, 1.0)
}

func TestAlphaResolver_CachedMatchesFresh(t *testing.T) {
	// Given a resolver and a mix of query shapes
	resolver := NewAlphaResolver()
	queries := []string{
		"#142",
		"login bug",
		"getUserProfile returns nil",
		"the checkout page keeps loading forever when a customer tries to apply two discounts at once",
	}

	// When each query is resolved twice
	for _, q := range queries {
		first := resolver.Resolve(q)
		second := resolver.Resolve(q)

		// Then the cached answer matches both the fresh answer and the
		// pure function
		assert.Equal(t, first, second, "query %q", q)
		assert.Equal(t, DetermineAlpha(q), first, "query %q", q)
	}
}

func TestAlphaResolver_CasingKeptInKey(t *testing.T) {
	resolver := NewAlphaResolver()

	// The identifier rule is case-sensitive, so queries that differ only
	// in casing can have different weights. Caching must keep them apart:
	// resolving the cased form first may not poison the lowered form.
	cased := resolver.Resolve("getUserData")
	lowered := resolver.Resolve("getuserdata")

	assert.InDelta(t, AlphaKeyword, cased, 1e-9)
	assert.InDelta(t, AlphaBalanced, lowered, 1e-9)
	assert.Equal(t, DetermineAlpha("getUserData"), cased)
	assert.Equal(t, DetermineAlpha("getuserdata"), lowered)
}

func TestAlphaResolver_OrderIndependent(t *testing.T) {
	// Given two resolvers fed the same colliding-casing pair in opposite
	// order
	forward := NewAlphaResolver()
	reverse := NewAlphaResolver()

	fCased := forward.Resolve("getUserData")
	fLowered := forward.Resolve("getuserdata")
	rLowered := reverse.Resolve("getuserdata")
	rCased := reverse.Resolve("getUserData")

	// Then resolution history never changes an answer
	assert.Equal(t, fCased, rCased)
	assert.Equal(t, fLowered, rLowered)
}
