package qdrant

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/ScriptSmith/hadrian-sub004/internal/core/domain"
)

type fusedCandidate struct {
	result domain.SearchResult
	score  float64
}

// fuseWeightedRRF merges a dense and a sparse ranking with weighted
// Reciprocal Rank Fusion. Each list contributes weight/(k+rank) per
// candidate with ranks starting at 1; a chunk present in both rankings
// accumulates both contributions. Ties are broken by file id then chunk
// index so the merged order is deterministic across runs.
func fuseWeightedRRF(dense, sparse []domain.SearchResult, cfg domain.HybridSearchConfig) []domain.SearchResult {
	k := cfg.K
	if k <= 0 {
		k = domain.RRFSmoothingK
	}

	acc := make(map[string]fusedCandidate, len(dense)+len(sparse))
	addRanking := func(results []domain.SearchResult, weight float64) {
		for i, r := range results {
			key := chunkKey(r)
			candidate, seen := acc[key]
			if !seen {
				candidate.result = r
			}
			candidate.score += weight / float64(k+i+1)
			acc[key] = candidate
		}
	}

	addRanking(dense, cfg.EmbeddingWeight)
	addRanking(sparse, cfg.TextWeight)

	out := make([]domain.SearchResult, 0, len(acc))
	for _, c := range acc {
		result := c.result
		result.Score = c.score
		out = append(out, result)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].FileID != out[j].FileID {
			return out[i].FileID.String() < out[j].FileID.String()
		}
		return out[i].ChunkIndex < out[j].ChunkIndex
	})

	return out
}

func chunkKey(r domain.SearchResult) string {
	if r.ChunkID != uuid.Nil {
		return r.ChunkID.String()
	}
	return fmt.Sprintf("%s:%d", r.FileID, r.ChunkIndex)
}
