package domain

import (
	"github.com/google/uuid"
)

// SearchRequest describes one retrieval call across one or more vector
// stores. VectorStoreIDs is ordered and must be non-empty.
type SearchRequest struct {
	Query          string          `json:"query"`
	VectorStoreIDs []uuid.UUID     `json:"vector_store_ids"`
	MaxResults     *int            `json:"max_results,omitempty"`
	Threshold      *float64        `json:"threshold,omitempty"`
	FileIDs        []uuid.UUID     `json:"file_ids,omitempty"`
	Filters        *AttributeFilter `json:"filters,omitempty"`
	RankingOptions *RankingOptions `json:"ranking_options,omitempty"`
}

// SearchResult is one retrieved chunk. Score semantics depend on the
// ranker that produced it: cosine similarity for vector-only search, a
// fused RRF rank score for hybrid search, and a model-assigned relevance
// for LLM re-ranking.
type SearchResult struct {
	ChunkID       uuid.UUID      `json:"chunk_id"`
	VectorStoreID uuid.UUID      `json:"vector_store_id"`
	FileID        uuid.UUID      `json:"file_id"`
	ChunkIndex    int            `json:"chunk_index"`
	Content       string         `json:"content"`
	Score         float64        `json:"score"`
	Filename      string         `json:"filename,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// SearchResponse echoes the query and reports how many stores were
// actually searched alongside the ranked results.
type SearchResponse struct {
	Results             []SearchResult `json:"results"`
	Query               string         `json:"query"`
	VectorStoresSearched int           `json:"vector_stores_searched"`
}

// ChunkFilter combines the request's file-id restriction and attribute
// filter into the single filter object handed to the vector backend.
type ChunkFilter struct {
	FileIDs    []uuid.UUID
	Attributes *AttributeFilter
}

// StoredChunk is a chunk fetched by file rather than by query, used by
// debugging and admin paths.
type StoredChunk struct {
	ChunkID       uuid.UUID      `json:"chunk_id"`
	VectorStoreID uuid.UUID      `json:"vector_store_id"`
	FileID        uuid.UUID      `json:"file_id"`
	ChunkIndex    int            `json:"chunk_index"`
	Content       string         `json:"content"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}
