package httpadapter

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ScriptSmith/hadrian-sub004/internal/config"
	"github.com/ScriptSmith/hadrian-sub004/internal/core/domain"
	"github.com/ScriptSmith/hadrian-sub004/internal/core/usecase"
	"github.com/ScriptSmith/hadrian-sub004/internal/observability/metrics"
)

type searchService interface {
	Search(ctx context.Context, req domain.SearchRequest, auth *domain.SearchAuthContext) (*domain.SearchResponse, error)
	ChunksByFile(ctx context.Context, fileID uuid.UUID) ([]domain.StoredChunk, error)
}

type ingestService interface {
	Upload(ctx context.Context, vectorStoreID uuid.UUID, filename, mimeType string, attributes map[string]any, body io.Reader) (*domain.StoredFile, error)
}

type storeService interface {
	Create(ctx context.Context, in usecase.CreateVectorStoreInput) (*domain.VectorStore, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.VectorStore, error)
}

type Router struct {
	cfg     config.Config
	search  searchService
	ingest  ingestService
	stores  storeService
	metrics *metrics.HTTPServerMetrics
}

func NewRouter(
	cfg config.Config,
	search searchService,
	ingest ingestService,
	stores storeService,
	m *metrics.HTTPServerMetrics,
) *Router {
	return &Router{
		cfg:     cfg,
		search:  search,
		ingest:  ingest,
		stores:  stores,
		metrics: m,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/vector_stores/search", rt.searchVectorStores)
	mux.HandleFunc("/v1/vector_stores", rt.createVectorStore)
	mux.HandleFunc("/v1/vector_stores/", rt.getVectorStore)
	mux.HandleFunc("/v1/files", rt.uploadFile)
	mux.HandleFunc("/v1/files/", rt.getFileChunks)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(rt.cfg.ServiceName, handler)
	}
	handler = backpressureMiddleware(handler, rt.cfg.APIMaxInFlight, 50*time.Millisecond)
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) searchVectorStores(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req domain.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query is required"})
		return
	}

	auth, err := authContextFromHeaders(r.Header)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	ranker := string(req.RankingOptions.EffectiveRanker())
	start := time.Now()
	resp, err := rt.search.Search(r.Context(), req, auth)
	if rt.metrics != nil {
		count := 0
		if resp != nil {
			count = len(resp.Results)
		}
		rt.metrics.RecordSearch(rt.cfg.ServiceName, ranker, count, time.Since(start), err)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type createVectorStoreRequest struct {
	Name                string `json:"name"`
	OwnerType           string `json:"owner_type"`
	OwnerID             string `json:"owner_id"`
	EmbeddingModel      string `json:"embedding_model"`
	EmbeddingDimensions int    `json:"embedding_dimensions"`
}

func (rt *Router) createVectorStore(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req createVectorStoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	ownerID, err := uuid.Parse(req.OwnerID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "owner_id must be a uuid"})
		return
	}

	store, err := rt.stores.Create(r.Context(), usecase.CreateVectorStoreInput{
		Name:                req.Name,
		OwnerType:           domain.OwnerType(req.OwnerType),
		OwnerID:             ownerID,
		EmbeddingModel:      req.EmbeddingModel,
		EmbeddingDimensions: req.EmbeddingDimensions,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, store)
}

func (rt *Router) getVectorStore(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	raw := strings.TrimPrefix(r.URL.Path, "/v1/vector_stores/")
	id, err := uuid.Parse(raw)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "vector store id must be a uuid"})
		return
	}

	store, err := rt.stores.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, store)
}

func (rt *Router) uploadFile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	storeID, err := uuid.Parse(r.FormValue("vector_store_id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'vector_store_id' must be a uuid"})
		return
	}

	var attributes map[string]any
	if raw := r.FormValue("attributes"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &attributes); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'attributes' must be a json object"})
			return
		}
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	stored, err := rt.ingest.Upload(
		r.Context(),
		storeID,
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		attributes,
		file,
	)
	if rt.metrics != nil {
		rt.metrics.RecordUpload(rt.cfg.ServiceName, err)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, stored)
}

func (rt *Router) getFileChunks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/v1/files/")
	raw, ok := strings.CutSuffix(rest, "/chunks")
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	fileID, err := uuid.Parse(raw)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "file id must be a uuid"})
		return
	}

	chunks, err := rt.search.ChunksByFile(r.Context(), fileID)
	if err != nil {
		writeError(w, err)
		return
	}
	if chunks == nil {
		chunks = []domain.StoredChunk{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"file_id": fileID,
		"chunks":  chunks,
	})
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
