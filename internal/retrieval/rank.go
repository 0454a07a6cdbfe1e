package retrieval

import (
	"sort"
	"strings"
	"unicode"
)

// SnippetMaxChars is the content truncation budget in runes.
const SnippetMaxChars = 600

// snippetEllipsis marks truncated content.
const snippetEllipsis = "..."

// Rank collapses duplicate hits, orders the survivors, truncates the list
// to limit, and produces content snippets. The returned stats carry the
// raw and post-dedup counts.
//
// Duplicates share the (object_type, object_id) key; the instance with
// the higher backend score wins. Possible when the backend returns
// overlapping hits for different internal chunks of the same object.
//
// Sort order, descending: backend score, then type priority, then a
// deterministic (type, id) tie-break so identical inputs always yield
// identical ordering.
func Rank(objects []SearchableObject, limit int) ([]RankedResult, Stats) {
	stats := Stats{TotalBeforeDedup: len(objects)}

	best := make(map[ObjectKey]SearchableObject, len(objects))
	for _, o := range objects {
		if kept, ok := best[o.Key()]; !ok || o.Score > kept.Score {
			best[o.Key()] = o
		}
	}
	stats.TotalAfterDedup = len(best)

	merged := make([]SearchableObject, 0, len(best))
	for _, o := range best {
		merged = append(merged, o)
	}

	sort.Slice(merged, func(i, j int) bool {
		a, b := merged[i], merged[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if pa, pb := a.Type.Priority(), b.Type.Priority(); pa != pb {
			return pa > pb
		}
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		return a.ID < b.ID
	})

	if limit > 0 && len(merged) > limit {
		merged = merged[:limit]
	}

	results := make([]RankedResult, len(merged))
	for i, o := range merged {
		results[i] = RankedResult{
			Type:      o.Type,
			ID:        o.ID,
			Title:     o.Title,
			Content:   Snippet(o.Text),
			Source:    Source,
			Score:     o.Score,
			Link:      o.URL,
			UpdatedAt: o.UpdatedAt,
		}
	}

	return results, stats
}

// Snippet truncates text to the snippet budget. Over-long text is cut at
// the budget, backed off to the nearest preceding whitespace so no word is
// split, and suffixed with an ellipsis marker. Empty text stays empty - no
// placeholder. The boundary rule is "nearest preceding whitespace";
// punctuation is not treated specially.
func Snippet(text string) string {
	runes := []rune(text)
	if len(runes) <= SnippetMaxChars {
		return text
	}

	cut := runes[:SnippetMaxChars]
	boundary := -1
	for i := len(cut) - 1; i >= 0; i-- {
		if unicode.IsSpace(cut[i]) {
			boundary = i
			break
		}
	}
	// A single unbroken 600+ rune token has no boundary to back off to;
	// keep the hard cut in that case.
	if boundary > 0 {
		cut = cut[:boundary]
	}

	return strings.TrimRightFunc(string(cut), unicode.IsSpace) + snippetEllipsis
}
