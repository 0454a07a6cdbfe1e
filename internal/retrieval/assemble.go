package retrieval

import (
	"fmt"
	"strings"
)

// emptySummary is the summary for zero results, whether from a clean
// empty match or a degraded backend. Never "Found 0 related objects."
const emptySummary = "No related objects found."

// summaryOrder lists the closed types in tie-break priority order for
// the per-type breakdown. Unknown types are appended in encounter order.
var summaryOrder = []ObjectType{
	TypeItem,
	TypeGitHubIssue,
	TypeGitHubPR,
	TypeComment,
	TypeChange,
	TypeAttachment,
	TypeProject,
}

// Summarize produces the one-line count breakdown for a ranked result
// set, e.g. "Found 3 related objects: 2 items, 1 comment."
func Summarize(results []RankedResult) string {
	if len(results) == 0 {
		return emptySummary
	}

	counts := make(map[ObjectType]int, len(summaryOrder))
	var extras []ObjectType
	known := make(map[ObjectType]bool, len(summaryOrder))
	for _, t := range summaryOrder {
		known[t] = true
	}
	for _, r := range results {
		if counts[r.Type] == 0 && !known[r.Type] {
			extras = append(extras, r.Type)
		}
		counts[r.Type]++
	}

	parts := make([]string, 0, len(counts))
	for _, t := range append(append([]ObjectType{}, summaryOrder...), extras...) {
		if n := counts[t]; n > 0 {
			parts = append(parts, countLabel(t, n))
		}
	}

	noun := "objects"
	if len(results) == 1 {
		noun = "object"
	}
	return fmt.Sprintf("Found %d related %s: %s.", len(results), noun, strings.Join(parts, ", "))
}

// countLabel renders one breakdown entry with a pluralized type label.
func countLabel(t ObjectType, n int) string {
	label := t.Label()
	if n != 1 {
		label += "s"
	}
	return fmt.Sprintf("%d %s", n, label)
}

// ContextText renders the ranked results as the fixed-delimiter block for
// LLM consumption. The [CONTEXT] block carries numbered entries; entries
// without a title or link omit those lines entirely. The [SOURCES] block
// is the provenance manifest: every result once, in rank order, with
// "(no link)" standing in for a missing URL. Both blocks are emitted even
// when empty so a downstream prompt template never breaks.
func (c *Context) ContextText() string {
	var sb strings.Builder

	sb.WriteString("[CONTEXT]\n")
	for i, r := range c.Results {
		fmt.Fprintf(&sb, "%d) (type=%s score=%.2f)", i+1, r.Type, r.Score)
		if r.Title != "" {
			sb.WriteString(" Title: ")
			sb.WriteString(r.Title)
		}
		sb.WriteString("\n")
		if r.Link != "" {
			sb.WriteString("   Link: ")
			sb.WriteString(r.Link)
			sb.WriteString("\n")
		}
		sb.WriteString("   Snippet: ")
		sb.WriteString(r.Content)
		sb.WriteString("\n\n")
	}
	sb.WriteString("[/CONTEXT]\n\n")

	sb.WriteString("[SOURCES]\n")
	for _, r := range c.Results {
		link := r.Link
		if link == "" {
			link = "(no link)"
		}
		fmt.Fprintf(&sb, "- %s:%s -> %s\n", r.Type, r.ID, link)
	}
	sb.WriteString("[/SOURCES]\n")

	return sb.String()
}
