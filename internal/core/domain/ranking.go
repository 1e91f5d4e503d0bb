package domain

import "encoding/json"

// Ranker selects the scoring strategy for a search request.
type Ranker string

const (
	RankerAuto   Ranker = "auto"
	RankerVector Ranker = "vector"
	RankerHybrid Ranker = "hybrid"
	RankerLLM    Ranker = "llm"
	RankerNone   Ranker = "none"
)

// SupportsHybrid reports whether this ranker allows dense+sparse fusion.
func (r Ranker) SupportsHybrid() bool {
	return r == RankerAuto || r == RankerHybrid
}

// IsLLMRerank reports whether results should be re-scored by a language
// model after the initial retrieval.
func (r Ranker) IsLLMRerank() bool {
	return r == RankerLLM
}

// HybridSearchOptions tunes the balance between semantic and keyword
// matching. Weights are relative multipliers and need not sum to 1;
// 1.0/1.0 is balanced fusion.
type HybridSearchOptions struct {
	EmbeddingWeight float64 `json:"embedding_weight"`
	TextWeight      float64 `json:"text_weight"`
}

// DefaultHybridSearchOptions returns balanced weights.
func DefaultHybridSearchOptions() HybridSearchOptions {
	return HybridSearchOptions{EmbeddingWeight: 1.0, TextWeight: 1.0}
}

// UnmarshalJSON starts from the balanced defaults so an omitted weight
// means 1.0, not 0.0. An explicit zero still disables that modality.
func (o *HybridSearchOptions) UnmarshalJSON(data []byte) error {
	type plain HybridSearchOptions
	opts := plain(DefaultHybridSearchOptions())
	if err := json.Unmarshal(data, &opts); err != nil {
		return err
	}
	*o = HybridSearchOptions(opts)
	return nil
}

// RankingOptions controls result scoring and filtering for a search.
type RankingOptions struct {
	// Ranker defaults to RankerAuto when empty.
	Ranker Ranker `json:"ranker,omitempty"`
	// ScoreThreshold is the vector-similarity floor in [0.0, 1.0]. The
	// top-level request threshold wins when both are set. For hybrid
	// search it gates dense-candidate admission only; a chunk can still
	// enter the fused ranking through a keyword match alone.
	ScoreThreshold float64 `json:"score_threshold"`
	// HybridSearch enables dense+sparse fusion when the effective ranker
	// supports it.
	HybridSearch *HybridSearchOptions `json:"hybrid_search,omitempty"`
}

// EffectiveRanker resolves the default.
func (o *RankingOptions) EffectiveRanker() Ranker {
	if o == nil || o.Ranker == "" {
		return RankerAuto
	}
	return o.Ranker
}

// UseHybridSearch is true iff hybrid sub-options are present and the
// effective ranker supports fusion. An LLM ranker re-orders vector-only
// candidates itself and never fuses.
func (o *RankingOptions) UseHybridSearch() bool {
	if o == nil || o.HybridSearch == nil {
		return false
	}
	return o.EffectiveRanker().SupportsHybrid()
}

// RRFSmoothingK is the smoothing constant in the weighted Reciprocal Rank
// Fusion formula weight/(k+rank). 60 is the standard general-purpose
// value; it is deliberately not tenant-configurable.
const RRFSmoothingK = 60

// HybridSearchConfig is the fully-resolved fusion configuration passed to
// the vector backend.
type HybridSearchConfig struct {
	K               int
	EmbeddingWeight float64
	TextWeight      float64
	// VectorThreshold applies to the dense ranking's candidate admission
	// only, never to the fused score.
	VectorThreshold float64
}

// NewHybridSearchConfig builds a backend fusion config from request
// options and the effective similarity floor.
func NewHybridSearchConfig(opts HybridSearchOptions, vectorThreshold float64) HybridSearchConfig {
	return HybridSearchConfig{
		K:               RRFSmoothingK,
		EmbeddingWeight: opts.EmbeddingWeight,
		TextWeight:      opts.TextWeight,
		VectorThreshold: vectorThreshold,
	}
}
