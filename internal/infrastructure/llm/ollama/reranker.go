package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/ScriptSmith/hadrian-sub004/internal/core/domain"
)

// Reranker re-scores retrieval candidates with the generation model.
// After a failure it reports unavailable for a cooldown window so the
// orchestrator degrades to the original order instead of paying a
// model-call timeout on every request.
type Reranker struct {
	client   *Client
	cooldown time.Duration

	// unix nano until which the reranker reports unavailable
	unavailableUntil atomic.Int64
}

func NewReranker(client *Client, cooldown time.Duration) *Reranker {
	if cooldown <= 0 {
		cooldown = 60 * time.Second
	}
	return &Reranker{client: client, cooldown: cooldown}
}

func (r *Reranker) Name() string {
	return "ollama/" + r.client.genModel
}

func (r *Reranker) IsAvailable() bool {
	return time.Now().UnixNano() >= r.unavailableUntil.Load()
}

func (r *Reranker) Rerank(ctx context.Context, req domain.RerankRequest) (*domain.RerankResponse, error) {
	if len(req.Results) == 0 {
		return &domain.RerankResponse{Results: []domain.RankedResult{}, Model: r.client.genModel}, nil
	}

	generated, err := r.client.generateJSON(ctx, buildRerankPrompt(req.Query, req.Results))
	if err != nil {
		r.markUnavailable()
		return nil, err
	}

	var parsed struct {
		Rankings []struct {
			Index int     `json:"index"`
			Score float64 `json:"score"`
		} `json:"rankings"`
	}
	if err := json.Unmarshal([]byte(extractJSONObject(generated.text)), &parsed); err != nil {
		return nil, fmt.Errorf("parse rerank json: %w", err)
	}
	if len(parsed.Rankings) == 0 {
		return nil, fmt.Errorf("rerank response contains no rankings")
	}

	// The model may return duplicate, missing, or out-of-range indices.
	// Keep the first mention of each valid index and append anything the
	// model forgot at its original position with a zero relevance.
	seen := make(map[int]bool, len(req.Results))
	ranked := make([]domain.RankedResult, 0, len(req.Results))
	for _, entry := range parsed.Rankings {
		if entry.Index < 0 || entry.Index >= len(req.Results) || seen[entry.Index] {
			continue
		}
		seen[entry.Index] = true
		ranked = append(ranked, domain.RankedResult{
			Result:         req.Results[entry.Index],
			RelevanceScore: clampScore(entry.Score),
			OriginalIndex:  entry.Index,
		})
	}
	for i := range req.Results {
		if !seen[i] {
			ranked = append(ranked, domain.RankedResult{
				Result:        req.Results[i],
				OriginalIndex: i,
			})
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].RelevanceScore > ranked[j].RelevanceScore
	})

	topN := req.TopN
	if topN <= 0 || topN > len(ranked) {
		topN = len(ranked)
	}

	var usage *domain.RerankUsage
	if generated.promptEvalCount > 0 || generated.evalCount > 0 {
		usage = &domain.RerankUsage{
			PromptTokens:     generated.promptEvalCount,
			CompletionTokens: generated.evalCount,
			TotalTokens:      generated.promptEvalCount + generated.evalCount,
		}
	}

	return &domain.RerankResponse{
		Results:         ranked[:topN],
		Model:           r.client.genModel,
		TotalConsidered: len(req.Results),
		Usage:           usage,
	}, nil
}

func (r *Reranker) markUnavailable() {
	r.unavailableUntil.Store(time.Now().Add(r.cooldown).UnixNano())
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
