package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/ScriptSmith/hadrian-sub004/internal/core/domain"
	"github.com/ScriptSmith/hadrian-sub004/internal/infrastructure/resilience"
)

func testExecutor() *resilience.Executor {
	return resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts: 1,
		BreakerEnabled:   false,
	})
}

type searchCall struct {
	path string
	body map[string]any
}

func newSearchServer(t *testing.T, calls *[]searchCall, resultsByPath map[string][]map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		*calls = append(*calls, searchCall{path: r.URL.Path, body: body})

		results := resultsByPath[r.URL.Path]
		_ = json.NewEncoder(w).Encode(map[string]any{"result": results})
	}))
}

func hit(chunkID uuid.UUID, fileID uuid.UUID, index int, content string, score float64) map[string]any {
	return map[string]any{
		"id":    chunkID.String(),
		"score": score,
		"payload": map[string]any{
			"file_id":     fileID.String(),
			"chunk_index": index,
			"content":     content,
		},
	}
}

func TestSearchMergesAcrossStores(t *testing.T) {
	storeA, storeB := uuid.New(), uuid.New()
	fileID := uuid.New()
	chunk1, chunk2, chunk3 := uuid.New(), uuid.New(), uuid.New()

	var calls []searchCall
	server := newSearchServer(t, &calls, map[string][]map[string]any{
		"/collections/" + collectionName(storeA) + "/points/search": {
			hit(chunk1, fileID, 0, "alpha", 0.9),
			hit(chunk2, fileID, 1, "beta", 0.5),
		},
		"/collections/" + collectionName(storeB) + "/points/search": {
			hit(chunk3, fileID, 0, "gamma", 0.7),
		},
	})
	defer server.Close()

	client := New(server.URL, testExecutor())
	results, err := client.Search(context.Background(), []uuid.UUID{storeA, storeB}, []float32{0.1}, 2, 0.25, nil)
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	if len(calls) != 2 {
		t.Fatalf("expected one call per store, got %d", len(calls))
	}
	if got := calls[0].body["score_threshold"]; got != 0.25 {
		t.Fatalf("expected score_threshold 0.25 in request, got %v", got)
	}
	if len(results) != 2 {
		t.Fatalf("expected merged results trimmed to limit, got %d", len(results))
	}
	if results[0].ChunkID != chunk1 || results[1].ChunkID != chunk3 {
		t.Fatalf("expected results ordered by score across stores, got %+v", results)
	}
	if results[0].VectorStoreID != storeA || results[1].VectorStoreID != storeB {
		t.Fatal("results must carry their originating store id")
	}
}

func TestHybridSearchQueriesBothModalities(t *testing.T) {
	storeID := uuid.New()
	fileID := uuid.New()
	dense, sparse := uuid.New(), uuid.New()

	var calls []searchCall
	path := "/collections/" + collectionName(storeID) + "/points/search"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		calls = append(calls, searchCall{path: r.URL.Path, body: body})

		vector := body["vector"].(map[string]any)
		var results []map[string]any
		if vector["name"] == denseVectorName {
			results = []map[string]any{hit(dense, fileID, 0, "dense hit", 0.9)}
		} else {
			results = []map[string]any{hit(sparse, fileID, 1, "sparse hit", 4.2)}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"result": results})
	}))
	defer server.Close()

	client := New(server.URL, testExecutor())
	cfg := domain.HybridSearchConfig{K: 60, EmbeddingWeight: 1.0, TextWeight: 1.0, VectorThreshold: 0.3}
	results, err := client.HybridSearch(context.Background(), []uuid.UUID{storeID}, "sparse terms", []float32{0.1}, 5, cfg, nil)
	if err != nil {
		t.Fatalf("hybrid search: %v", err)
	}

	if len(calls) != 2 {
		t.Fatalf("expected a dense and a sparse call, got %d", len(calls))
	}
	for _, call := range calls {
		if call.path != path {
			t.Fatalf("unexpected path %s", call.path)
		}
	}
	// The threshold gates the dense call only.
	if got := calls[0].body["score_threshold"]; got != 0.3 {
		t.Fatalf("expected dense score_threshold 0.3, got %v", got)
	}
	if _, ok := calls[1].body["score_threshold"]; ok {
		t.Fatal("sparse call must not carry the vector threshold")
	}
	if len(results) != 2 {
		t.Fatalf("expected both modalities fused, got %d results", len(results))
	}
}

func TestSearchTranslatesFilters(t *testing.T) {
	storeID := uuid.New()
	fileID := uuid.New()

	var calls []searchCall
	server := newSearchServer(t, &calls, nil)
	defer server.Close()

	client := New(server.URL, testExecutor())
	filter := &domain.ChunkFilter{
		FileIDs:    []uuid.UUID{fileID},
		Attributes: domain.FilterEquals("author", "jane"),
	}
	if _, err := client.Search(context.Background(), []uuid.UUID{storeID}, []float32{0.1}, 5, 0, filter); err != nil {
		t.Fatalf("search: %v", err)
	}

	raw, err := json.Marshal(calls[0].body["filter"])
	if err != nil {
		t.Fatalf("marshal sent filter: %v", err)
	}
	sent := string(raw)
	if !strings.Contains(sent, fileID.String()) {
		t.Fatalf("filter must restrict file ids, got %s", sent)
	}
	if !strings.Contains(sent, "attributes.author") {
		t.Fatalf("filter must address the attributes payload, got %s", sent)
	}
}

func TestSearchRejectsInvalidFilter(t *testing.T) {
	client := New("http://unused", testExecutor())

	filter := &domain.ChunkFilter{
		Attributes: &domain.AttributeFilter{Type: "between", Key: "size"},
	}
	_, err := client.Search(context.Background(), []uuid.UUID{uuid.New()}, []float32{0.1}, 5, 0, filter)
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestGetChunksByFileOrdersByChunkIndex(t *testing.T) {
	storeID := uuid.New()
	fileID := uuid.New()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/points/scroll") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"result": map[string]any{
				"points": []map[string]any{
					{"id": uuid.NewString(), "payload": map[string]any{"chunk_index": 2, "content": "third"}},
					{"id": uuid.NewString(), "payload": map[string]any{"chunk_index": 0, "content": "first"}},
					{"id": uuid.NewString(), "payload": map[string]any{"chunk_index": 1, "content": "second"}},
				},
			},
		})
	}))
	defer server.Close()

	client := New(server.URL, testExecutor())
	chunks, err := client.GetChunksByFile(context.Background(), storeID, fileID)
	if err != nil {
		t.Fatalf("get chunks: %v", err)
	}
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	for i, want := range []string{"first", "second", "third"} {
		if chunks[i].Content != want {
			t.Fatalf("chunk %d = %q, want %q", i, chunks[i].Content, want)
		}
		if chunks[i].ChunkIndex != i {
			t.Fatalf("chunk %d has index %d", i, chunks[i].ChunkIndex)
		}
	}
}

func TestIndexChunksUpsertsNamedVectors(t *testing.T) {
	storeID := uuid.New()
	file := &domain.StoredFile{
		ID:            uuid.New(),
		VectorStoreID: storeID,
		Filename:      "notes.txt",
		Attributes:    map[string]any{"author": "jane"},
	}

	var upsert map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("unexpected method %s", r.Method)
		}
		if strings.HasPrefix(r.URL.Path, "/collections/") && !strings.Contains(r.URL.Path, "/points") {
			w.WriteHeader(http.StatusOK)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&upsert)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := New(server.URL, testExecutor())
	err := client.IndexChunks(context.Background(), file, []string{"chunk one", "chunk two"}, [][]float32{{0.1, 0.2}, {0.3, 0.4}})
	if err != nil {
		t.Fatalf("index chunks: %v", err)
	}

	points := upsert["points"].([]any)
	if len(points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(points))
	}
	first := points[0].(map[string]any)
	vector := first["vector"].(map[string]any)
	if _, ok := vector[denseVectorName]; !ok {
		t.Fatal("point must carry a dense vector")
	}
	if _, ok := vector[sparseVectorName]; !ok {
		t.Fatal("point must carry a sparse vector")
	}
	payload := first["payload"].(map[string]any)
	if payload["file_id"] != file.ID.String() {
		t.Fatalf("unexpected file_id %v", payload["file_id"])
	}
	if payload["chunk_index"] != float64(0) {
		t.Fatalf("unexpected chunk_index %v", payload["chunk_index"])
	}
}

func TestDoMapsCircuitOpen(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	// A breaker that trips on the first failure.
	exec := resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:    1,
		BreakerEnabled:      true,
		BreakerMinRequests:  1,
		BreakerFailureRatio: 0.01,
	})
	client := New(server.URL, exec)
	storeID := uuid.New()

	// First call fails with a server error and trips the breaker.
	if _, err := client.Search(context.Background(), []uuid.UUID{storeID}, []float32{0.1}, 5, 0, nil); err == nil {
		t.Fatal("expected server error")
	}
	// Subsequent calls must surface the typed circuit-open kind.
	_, err := client.Search(context.Background(), []uuid.UUID{storeID}, []float32{0.1}, 5, 0, nil)
	if !domain.IsKind(err, domain.ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
}
