package ollama

import (
	"fmt"
	"strings"

	"github.com/ScriptSmith/hadrian-sub004/internal/core/domain"
)

// maxSnippetRunes bounds how much of each chunk is shown to the model.
// Re-ranking needs enough context to judge relevance, not the full text.
const maxSnippetRunes = 600

func buildRerankPrompt(query string, results []domain.SearchResult) string {
	var b strings.Builder
	b.WriteString("You are a search relevance judge. Score each passage for how well it answers the query.\n\n")
	b.WriteString("Query: ")
	b.WriteString(query)
	b.WriteString("\n\nPassages:\n")

	for i, r := range results {
		fmt.Fprintf(&b, "[%d] %s\n", i, truncateRunes(r.Content, maxSnippetRunes))
	}

	b.WriteString("\nRespond with JSON only, in this exact shape:\n")
	b.WriteString(`{"rankings":[{"index":0,"score":0.95}]}` + "\n")
	b.WriteString("Include every passage index exactly once. Scores are relevance in [0.0, 1.0].\n")
	return b.String()
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
