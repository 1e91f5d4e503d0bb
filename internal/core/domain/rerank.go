package domain

// RerankRequest asks a reranker to re-score candidate results against the
// query. Candidates are the top results of an initial vector or hybrid
// search, in their current order.
type RerankRequest struct {
	Query   string
	Results []SearchResult
	// TopN caps the re-ranked output; zero means return all candidates.
	TopN int
}

// RankedResult pairs a candidate with its model-assigned relevance and
// its position before re-ranking.
type RankedResult struct {
	Result         SearchResult
	RelevanceScore float64
	OriginalIndex  int
}

// RerankUsage reports token consumption of a model-based rerank pass.
type RerankUsage struct {
	PromptTokens     int64
	CompletionTokens int64
	TotalTokens      int64
}

// RerankResponse is the reranker's output, ordered by relevance
// descending.
type RerankResponse struct {
	Results         []RankedResult
	Model           string
	TotalConsidered int
	Usage           *RerankUsage
}
