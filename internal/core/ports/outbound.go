package ports

import (
	"context"
	"io"

	"github.com/google/uuid"

	"github.com/ScriptSmith/hadrian-sub004/internal/core/domain"
)

// VectorStoreRepository reads and writes vector store metadata.
type VectorStoreRepository interface {
	Create(ctx context.Context, store *domain.VectorStore) error
	// GetByID returns the store or an error wrapping
	// domain.ErrVectorStoreNotFound.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.VectorStore, error)
}

// FileRepository persists and reads ingested file metadata.
type FileRepository interface {
	Create(ctx context.Context, file *domain.StoredFile) error
	// GetByID returns the file or an error wrapping domain.ErrFileNotFound.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.StoredFile, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.FileStatus, errMessage string) error
}

// MembershipRepository answers the access evaluator's fallback questions.
// These are the only access checks that cost a database round trip.
type MembershipRepository interface {
	IsOrgMember(ctx context.Context, orgID, userID uuid.UUID) (bool, error)
	IsTeamMember(ctx context.Context, teamID, userID uuid.UUID) (bool, error)
	IsProjectMember(ctx context.Context, projectID, userID uuid.UUID) (bool, error)
}

// Embedder turns text into fixed-dimension vectors. Repeated calls with
// identical text and model configuration must produce comparable vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// VectorBackend executes vector-only or hybrid search across one or more
// stores and fetches stored chunks by file. Hybrid fusion (weighted RRF)
// happens inside the backend; callers only supply the configuration.
type VectorBackend interface {
	Search(ctx context.Context, storeIDs []uuid.UUID, embedding []float32, maxResults int, scoreThreshold float64, filter *domain.ChunkFilter) ([]domain.SearchResult, error)
	HybridSearch(ctx context.Context, storeIDs []uuid.UUID, queryText string, embedding []float32, maxResults int, cfg domain.HybridSearchConfig, filter *domain.ChunkFilter) ([]domain.SearchResult, error)
	GetChunksByFile(ctx context.Context, vectorStoreID, fileID uuid.UUID) ([]domain.StoredChunk, error)
	IndexChunks(ctx context.Context, file *domain.StoredFile, chunks []string, vectors [][]float32) error
}

// Reranker re-scores a candidate result set against the query.
// IsAvailable is a cheap synchronous health check consulted before every
// rerank call.
type Reranker interface {
	Rerank(ctx context.Context, req domain.RerankRequest) (*domain.RerankResponse, error)
	Name() string
	IsAvailable() bool
}

// ObjectStorage stores uploaded source files.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes file ingestion events.
type MessageQueue interface {
	PublishFileIngested(ctx context.Context, fileID uuid.UUID) error
	SubscribeFileIngested(ctx context.Context, handler func(context.Context, domain.FileIngestedEvent) error) error
}

// TextExtractor extracts plain text from a stored file.
type TextExtractor interface {
	Extract(ctx context.Context, file *domain.StoredFile) (string, error)
}

// Chunker splits extracted text into indexable chunks.
type Chunker interface {
	Split(text string) []string
}
