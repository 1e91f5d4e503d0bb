package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/ScriptSmith/hadrian-sub004/internal/core/domain"
	"github.com/ScriptSmith/hadrian-sub004/internal/core/ports"
)

// SearchConfig carries the service-level defaults and re-ranking policy.
type SearchConfig struct {
	DefaultMaxResults     int
	DefaultThreshold      float64
	RerankEnabled         bool
	RerankFallbackOnError bool
}

// FileSearchUseCase orchestrates retrieval across vector stores:
// access validation, embedding-compatibility validation, query embedding,
// resilient vector-only or hybrid dispatch, filename resolution and
// optional LLM re-ranking.
//
// The collaborators are long-lived and shared across concurrent requests;
// the use case itself holds no per-request state.
type FileSearchUseCase struct {
	stores   ports.VectorStoreRepository
	files    ports.FileRepository
	access   *AccessEvaluator
	embedder ports.Embedder
	backend  ports.VectorBackend
	reranker ports.Reranker
	cfg      SearchConfig

	rerankObserver func(outcome string)
}

func NewFileSearchUseCase(
	stores ports.VectorStoreRepository,
	files ports.FileRepository,
	access *AccessEvaluator,
	embedder ports.Embedder,
	backend ports.VectorBackend,
	reranker ports.Reranker,
	cfg SearchConfig,
) *FileSearchUseCase {
	if cfg.DefaultMaxResults <= 0 {
		cfg.DefaultMaxResults = 10
	}
	if cfg.DefaultThreshold < 0 {
		cfg.DefaultThreshold = 0
	}
	return &FileSearchUseCase{
		stores:   stores,
		files:    files,
		access:   access,
		embedder: embedder,
		backend:  backend,
		reranker: reranker,
		cfg:      cfg,
	}
}

// SetRerankObserver registers a callback reporting each rerank decision:
// applied, fallback, skipped or failed. Used for metrics.
func (uc *FileSearchUseCase) SetRerankObserver(fn func(outcome string)) {
	uc.rerankObserver = fn
}

func (uc *FileSearchUseCase) observeRerank(outcome string) {
	if uc.rerankObserver != nil {
		uc.rerankObserver(outcome)
	}
}

// Search answers a retrieval request or fails with one of the typed
// error kinds in domain/errors.go. A zero-result response is valid.
func (uc *FileSearchUseCase) Search(
	ctx context.Context,
	req domain.SearchRequest,
	auth *domain.SearchAuthContext,
) (*domain.SearchResponse, error) {
	if len(req.VectorStoreIDs) == 0 {
		return nil, domain.ErrNoVectorStores
	}

	stores, err := uc.validateStores(ctx, req.VectorStoreIDs, auth)
	if err != nil {
		return nil, err
	}

	if err := validateEmbeddingCompatibility(stores); err != nil {
		return nil, err
	}

	embedding, err := uc.embedder.EmbedQuery(ctx, req.Query)
	if err != nil {
		return nil, domain.WrapError(domain.ErrEmbedding, "embed query", err)
	}

	maxResults := uc.cfg.DefaultMaxResults
	if req.MaxResults != nil {
		maxResults = *req.MaxResults
	}
	threshold := uc.cfg.DefaultThreshold
	if req.RankingOptions != nil && req.RankingOptions.ScoreThreshold > 0 {
		threshold = req.RankingOptions.ScoreThreshold
	}
	if req.Threshold != nil {
		threshold = *req.Threshold
	}

	filter := buildChunkFilter(req)

	var hits []domain.SearchResult
	if req.RankingOptions.UseHybridSearch() {
		cfg := domain.NewHybridSearchConfig(*req.RankingOptions.HybridSearch, threshold)
		hits, err = uc.backend.HybridSearch(ctx, req.VectorStoreIDs, req.Query, embedding, maxResults, cfg, filter)
	} else {
		hits, err = uc.backend.Search(ctx, req.VectorStoreIDs, embedding, maxResults, threshold, filter)
	}
	if err != nil {
		if domain.IsKind(err, domain.ErrCircuitOpen) {
			return nil, err
		}
		return nil, domain.WrapError(domain.ErrSearch, "search vector stores", err)
	}

	results, err := uc.resolveFilenames(ctx, hits)
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []domain.SearchResult{}
	}

	if req.RankingOptions.EffectiveRanker().IsLLMRerank() {
		results, err = uc.applyReranking(ctx, req.Query, results, maxResults)
		if err != nil {
			return nil, err
		}
	}

	return &domain.SearchResponse{
		Results:              results,
		Query:                req.Query,
		VectorStoresSearched: len(stores),
	}, nil
}

// ChunksByFile returns the stored chunks of one file in chunk-index
// order. Debugging/admin path, not used by Search.
func (uc *FileSearchUseCase) ChunksByFile(ctx context.Context, fileID uuid.UUID) ([]domain.StoredChunk, error) {
	file, err := uc.files.GetByID(ctx, fileID)
	if err != nil {
		return nil, fmt.Errorf("load file %s: %w", fileID, err)
	}
	chunks, err := uc.backend.GetChunksByFile(ctx, file.VectorStoreID, fileID)
	if err != nil {
		return nil, domain.WrapError(domain.ErrSearch, "get chunks by file", err)
	}
	return chunks, nil
}

// validateStores loads each store and evaluates access in request order,
// failing fast on the first missing or denied id. Existence is checked
// before access, so distinguishable errors reveal whether an id exists
// to an unauthorized caller; kept as-is deliberately for debuggability.
func (uc *FileSearchUseCase) validateStores(
	ctx context.Context,
	ids []uuid.UUID,
	auth *domain.SearchAuthContext,
) ([]*domain.VectorStore, error) {
	stores := make([]*domain.VectorStore, 0, len(ids))
	for _, id := range ids {
		store, err := uc.stores.GetByID(ctx, id)
		if err != nil {
			if domain.IsKind(err, domain.ErrVectorStoreNotFound) {
				return nil, fmt.Errorf("%w: %s", domain.ErrVectorStoreNotFound, id)
			}
			return nil, fmt.Errorf("load vector store %s: %w", id, err)
		}

		ok, err := uc.access.CanAccess(ctx, store, auth)
		if err != nil {
			return nil, fmt.Errorf("evaluate access to %s: %w", id, err)
		}
		if !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrAccessDenied, id)
		}
		stores = append(stores, store)
	}
	return stores, nil
}

// validateEmbeddingCompatibility takes the first store as the reference
// and requires exact model and dimensionality matches from the rest.
// Runs before any embedding call so a mismatch costs no external calls.
func validateEmbeddingCompatibility(stores []*domain.VectorStore) error {
	if len(stores) < 2 {
		return nil
	}
	first := stores[0]
	for _, vs := range stores[1:] {
		if vs.EmbeddingModel != first.EmbeddingModel {
			return fmt.Errorf("%w: vector store %q uses embedding model %q, but %q uses %q",
				domain.ErrIncompatibleStores, vs.Name, vs.EmbeddingModel, first.Name, first.EmbeddingModel)
		}
		if vs.EmbeddingDimensions != first.EmbeddingDimensions {
			return fmt.Errorf("%w: vector store %q uses %d dimensions, but %q uses %d",
				domain.ErrIncompatibleStores, vs.Name, vs.EmbeddingDimensions, first.Name, first.EmbeddingDimensions)
		}
	}
	return nil
}

func buildChunkFilter(req domain.SearchRequest) *domain.ChunkFilter {
	if len(req.FileIDs) == 0 && req.Filters == nil {
		return nil
	}
	return &domain.ChunkFilter{
		FileIDs:    req.FileIDs,
		Attributes: req.Filters,
	}
}

// resolveFilenames attaches display filenames from file metadata. A
// lookup miss leaves the filename absent; filenames are cosmetic.
func (uc *FileSearchUseCase) resolveFilenames(
	ctx context.Context,
	hits []domain.SearchResult,
) ([]domain.SearchResult, error) {
	names := make(map[uuid.UUID]string, len(hits))
	for i := range hits {
		name, seen := names[hits[i].FileID]
		if !seen {
			file, err := uc.files.GetByID(ctx, hits[i].FileID)
			switch {
			case err == nil:
				name = file.Filename
			case domain.IsKind(err, domain.ErrFileNotFound):
				name = ""
			default:
				return nil, fmt.Errorf("resolve filename for %s: %w", hits[i].FileID, err)
			}
			names[hits[i].FileID] = name
		}
		hits[i].Filename = name
	}
	return hits, nil
}

// applyReranking runs the LLM re-ranking stage. It degrades to the
// incoming order when re-ranking is disabled, unconfigured, unavailable
// or pointless, and when it fails with fallback enabled.
func (uc *FileSearchUseCase) applyReranking(
	ctx context.Context,
	query string,
	results []domain.SearchResult,
	maxResults int,
) ([]domain.SearchResult, error) {
	if !uc.cfg.RerankEnabled {
		slog.Debug("rerank_skipped", "reason", "disabled")
		uc.observeRerank("skipped")
		return results, nil
	}
	if uc.reranker == nil {
		slog.Warn("rerank_skipped", "reason", "no_reranker")
		uc.observeRerank("skipped")
		return results, nil
	}
	if !uc.reranker.IsAvailable() {
		slog.Warn("rerank_skipped", "reason", "unavailable", "reranker", uc.reranker.Name())
		uc.observeRerank("skipped")
		return results, nil
	}
	if len(results) == 0 {
		slog.Debug("rerank_skipped", "reason", "no_candidates")
		uc.observeRerank("skipped")
		return results, nil
	}

	slog.Debug("rerank_started", "candidates", len(results), "max_results", maxResults)

	resp, err := uc.reranker.Rerank(ctx, domain.RerankRequest{
		Query:   query,
		Results: results,
		TopN:    maxResults,
	})
	if err != nil {
		if uc.cfg.RerankFallbackOnError {
			slog.Warn("rerank_failed", "fallback", true, "error", err)
			uc.observeRerank("fallback")
			return results, nil
		}
		slog.Warn("rerank_failed", "fallback", false, "error", err)
		uc.observeRerank("failed")
		return nil, domain.WrapError(domain.ErrRerank, "rerank results", err)
	}

	uc.observeRerank("applied")
	slog.Info("rerank_completed",
		"reranked", len(resp.Results),
		"total_considered", resp.TotalConsidered,
		"model", resp.Model,
	)

	out := make([]domain.SearchResult, 0, len(resp.Results))
	for _, ranked := range resp.Results {
		result := ranked.Result
		result.Score = ranked.RelevanceScore
		out = append(out, result)
	}
	return out, nil
}
