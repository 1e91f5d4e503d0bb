package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ScriptSmith/hadrian-sub004/internal/core/domain"
	"github.com/ScriptSmith/hadrian-sub004/internal/infrastructure/resilience"
)

const (
	denseVectorName  = "dense"
	sparseVectorName = "sparse"
	backendName      = "qdrant"
	// Sparse candidates are over-fetched relative to the requested limit
	// so fusion has enough keyword-only material to work with.
	candidateMultiplier = 2
)

// Client talks to Qdrant over its REST API. Each vector store maps to
// its own collection so stores with different embedding dimensions can
// coexist. All remote calls run under the shared resilience executor;
// callers receive domain.ErrCircuitOpen once the breaker trips.
type Client struct {
	baseURL    string
	httpClient *http.Client
	exec       *resilience.Executor

	ensureMu sync.Mutex
	ensured  map[string]int
}

func New(baseURL string, exec *resilience.Executor) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 60 * time.Second},
		exec:       exec,
		ensured:    make(map[string]int),
	}
}

func collectionName(storeID uuid.UUID) string {
	return "vs_" + strings.ReplaceAll(storeID.String(), "-", "")
}

// Search runs dense-only retrieval across the given stores and returns
// the top maxResults by cosine similarity.
func (c *Client) Search(
	ctx context.Context,
	storeIDs []uuid.UUID,
	embedding []float32,
	maxResults int,
	scoreThreshold float64,
	filter *domain.ChunkFilter,
) ([]domain.SearchResult, error) {
	qf, err := translateFilter(filter)
	if err != nil {
		return nil, err
	}

	var out []domain.SearchResult
	for _, storeID := range storeIDs {
		hits, err := c.denseSearch(ctx, storeID, embedding, maxResults, scoreThreshold, qf)
		if err != nil {
			return nil, err
		}
		out = append(out, hits...)
	}

	sortResultsByScore(out)
	if len(out) > maxResults {
		out = out[:maxResults]
	}
	return out, nil
}

// HybridSearch runs dense and sparse retrieval across the given stores
// and fuses the two rankings with weighted Reciprocal Rank Fusion. The
// score threshold gates dense-candidate admission only; a chunk can
// still enter the fused ranking through a keyword match alone.
func (c *Client) HybridSearch(
	ctx context.Context,
	storeIDs []uuid.UUID,
	queryText string,
	embedding []float32,
	maxResults int,
	cfg domain.HybridSearchConfig,
	filter *domain.ChunkFilter,
) ([]domain.SearchResult, error) {
	qf, err := translateFilter(filter)
	if err != nil {
		return nil, err
	}

	fetch := maxResults * candidateMultiplier
	if fetch < maxResults {
		fetch = maxResults
	}
	sparseQuery := encodeSparseQuery(queryText)

	var dense, sparse []domain.SearchResult
	for _, storeID := range storeIDs {
		d, err := c.denseSearch(ctx, storeID, embedding, fetch, cfg.VectorThreshold, qf)
		if err != nil {
			return nil, err
		}
		dense = append(dense, d...)

		s, err := c.sparseSearch(ctx, storeID, sparseQuery, fetch, qf)
		if err != nil {
			return nil, err
		}
		sparse = append(sparse, s...)
	}

	sortResultsByScore(dense)
	sortResultsByScore(sparse)

	fused := fuseWeightedRRF(dense, sparse, cfg)
	if len(fused) > maxResults {
		fused = fused[:maxResults]
	}
	return fused, nil
}

// GetChunksByFile returns every chunk of one file in chunk-index order.
func (c *Client) GetChunksByFile(ctx context.Context, vectorStoreID, fileID uuid.UUID) ([]domain.StoredChunk, error) {
	reqBody := map[string]any{
		"filter": map[string]any{
			"must": []map[string]any{
				{"key": "file_id", "match": map[string]any{"value": fileID.String()}},
			},
		},
		"limit":        1024,
		"with_payload": true,
	}

	var scrollResp struct {
		Result struct {
			Points []struct {
				ID      string         `json:"id"`
				Payload map[string]any `json:"payload"`
			} `json:"points"`
		} `json:"result"`
	}

	path := fmt.Sprintf("/collections/%s/points/scroll", collectionName(vectorStoreID))
	if err := c.post(ctx, "scroll", path, reqBody, &scrollResp); err != nil {
		return nil, err
	}

	chunks := make([]domain.StoredChunk, 0, len(scrollResp.Result.Points))
	for _, p := range scrollResp.Result.Points {
		chunks = append(chunks, domain.StoredChunk{
			ChunkID:       parseUUIDPayload(p.ID),
			VectorStoreID: vectorStoreID,
			FileID:        fileID,
			ChunkIndex:    getIntPayload(p.Payload, "chunk_index"),
			Content:       getStringPayload(p.Payload, "content"),
			Metadata:      getMapPayload(p.Payload, "attributes"),
		})
	}
	sort.Slice(chunks, func(i, j int) bool { return chunks[i].ChunkIndex < chunks[j].ChunkIndex })
	return chunks, nil
}

// IndexChunks upserts a file's chunks with both dense and sparse vectors
// into the owning store's collection.
func (c *Client) IndexChunks(ctx context.Context, file *domain.StoredFile, chunks []string, vectors [][]float32) error {
	if len(chunks) == 0 || len(vectors) == 0 {
		return nil
	}
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunks/vectors mismatch: %d/%d", len(chunks), len(vectors))
	}

	collection := collectionName(file.VectorStoreID)
	if err := c.ensureCollection(ctx, collection, len(vectors[0])); err != nil {
		return err
	}

	type point struct {
		ID      string         `json:"id"`
		Vector  map[string]any `json:"vector"`
		Payload map[string]any `json:"payload"`
	}

	points := make([]point, 0, len(chunks))
	for i := range chunks {
		points = append(points, point{
			ID: uuid.NewString(),
			Vector: map[string]any{
				denseVectorName:  vectors[i],
				sparseVectorName: encodeSparseChunk(chunks[i], file.Filename),
			},
			Payload: map[string]any{
				"file_id":         file.ID.String(),
				"vector_store_id": file.VectorStoreID.String(),
				"chunk_index":     i,
				"content":         chunks[i],
				"attributes":      file.Attributes,
			},
		})
	}

	path := fmt.Sprintf("/collections/%s/points?wait=true", collection)
	return c.put(ctx, "upsert", path, map[string]any{"points": points}, nil)
}

func (c *Client) denseSearch(
	ctx context.Context,
	storeID uuid.UUID,
	embedding []float32,
	limit int,
	scoreThreshold float64,
	filter map[string]any,
) ([]domain.SearchResult, error) {
	reqBody := map[string]any{
		"vector": map[string]any{
			"name":   denseVectorName,
			"vector": embedding,
		},
		"limit":        limit,
		"with_payload": true,
	}
	if scoreThreshold > 0 {
		reqBody["score_threshold"] = scoreThreshold
	}
	if filter != nil {
		reqBody["filter"] = filter
	}
	return c.search(ctx, "search", storeID, reqBody)
}

func (c *Client) sparseSearch(
	ctx context.Context,
	storeID uuid.UUID,
	query sparseVector,
	limit int,
	filter map[string]any,
) ([]domain.SearchResult, error) {
	if len(query.Indices) == 0 {
		return nil, nil
	}
	reqBody := map[string]any{
		"vector": map[string]any{
			"name":   sparseVectorName,
			"vector": query,
		},
		"limit":        limit,
		"with_payload": true,
	}
	if filter != nil {
		reqBody["filter"] = filter
	}
	return c.search(ctx, "hybrid_search", storeID, reqBody)
}

func (c *Client) search(ctx context.Context, operation string, storeID uuid.UUID, reqBody map[string]any) ([]domain.SearchResult, error) {
	var searchResp struct {
		Result []struct {
			ID      string         `json:"id"`
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}

	path := fmt.Sprintf("/collections/%s/points/search", collectionName(storeID))
	if err := c.post(ctx, operation, path, reqBody, &searchResp); err != nil {
		return nil, err
	}

	out := make([]domain.SearchResult, 0, len(searchResp.Result))
	for _, r := range searchResp.Result {
		out = append(out, domain.SearchResult{
			ChunkID:       parseUUIDPayload(r.ID),
			VectorStoreID: storeID,
			FileID:        parseUUIDPayload(getStringPayload(r.Payload, "file_id")),
			ChunkIndex:    getIntPayload(r.Payload, "chunk_index"),
			Content:       getStringPayload(r.Payload, "content"),
			Score:         r.Score,
			Metadata:      getMapPayload(r.Payload, "attributes"),
		})
	}
	return out, nil
}

func (c *Client) ensureCollection(ctx context.Context, collection string, vectorSize int) error {
	c.ensureMu.Lock()
	if size, ok := c.ensured[collection]; ok && size == vectorSize {
		c.ensureMu.Unlock()
		return nil
	}
	c.ensureMu.Unlock()

	reqBody := map[string]any{
		"vectors": map[string]any{
			denseVectorName: map[string]any{
				"size":     vectorSize,
				"distance": "Cosine",
			},
		},
		"sparse_vectors": map[string]any{
			sparseVectorName: map[string]any{},
		},
	}

	err := c.put(ctx, "ensure_collection", "/collections/"+collection, reqBody, nil)
	if err != nil {
		// 409 if the collection already exists (depends on version/config).
		var statusErr *HTTPStatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusConflict {
			c.markEnsured(collection, vectorSize)
			return nil
		}
		return err
	}
	c.markEnsured(collection, vectorSize)
	return nil
}

func (c *Client) markEnsured(collection string, vectorSize int) {
	c.ensureMu.Lock()
	defer c.ensureMu.Unlock()
	c.ensured[collection] = vectorSize
}

func (c *Client) post(ctx context.Context, operation, path string, reqBody any, out any) error {
	return c.do(ctx, operation, http.MethodPost, path, reqBody, out)
}

func (c *Client) put(ctx context.Context, operation, path string, reqBody any, out any) error {
	return c.do(ctx, operation, http.MethodPut, path, reqBody, out)
}

// do runs one REST call under the resilience executor. Retries and the
// breaker are handled there; this method only builds the request and
// decodes the response.
func (c *Client) do(ctx context.Context, operation, method, path string, reqBody any, out any) error {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal %s body: %w", operation, err)
	}

	execErr := c.exec.Execute(ctx, backendName, operation, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create %s request: %w", operation, err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("qdrant %s request: %w", operation, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
			return &HTTPStatusError{
				Operation:  operation,
				StatusCode: resp.StatusCode,
				Body:       strings.TrimSpace(string(raw)),
			}
		}
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode %s response: %w", operation, err)
		}
		return nil
	}, classifyQdrantError)

	if execErr != nil {
		if resilience.IsCircuitOpen(execErr) {
			return domain.WrapError(domain.ErrCircuitOpen, "qdrant "+operation, execErr)
		}
		return execErr
	}
	return nil
}

func sortResultsByScore(results []domain.SearchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if results[i].FileID != results[j].FileID {
			return results[i].FileID.String() < results[j].FileID.String()
		}
		return results[i].ChunkIndex < results[j].ChunkIndex
	})
}

func parseUUIDPayload(s string) uuid.UUID {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil
	}
	return id
}

func getStringPayload(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func getIntPayload(payload map[string]any, key string) int {
	switch v := payload[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

func getMapPayload(payload map[string]any, key string) map[string]any {
	if m, ok := payload[key].(map[string]any); ok && len(m) > 0 {
		return m
	}
	return nil
}
