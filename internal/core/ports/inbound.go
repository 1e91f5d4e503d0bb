package ports

import (
	"context"
	"io"

	"github.com/google/uuid"

	"github.com/ScriptSmith/hadrian-sub004/internal/core/domain"
)

// FileSearcher is the inbound contract for retrieval across vector
// stores. A nil auth context identifies a trusted internal caller.
type FileSearcher interface {
	Search(ctx context.Context, req domain.SearchRequest, auth *domain.SearchAuthContext) (*domain.SearchResponse, error)
	ChunksByFile(ctx context.Context, fileID uuid.UUID) ([]domain.StoredChunk, error)
}

// FileIngestor is the inbound contract for file upload into a vector
// store.
type FileIngestor interface {
	Upload(ctx context.Context, vectorStoreID uuid.UUID, filename, mimeType string, attributes map[string]any, body io.Reader) (*domain.StoredFile, error)
}

// FileProcessor is the inbound contract for asynchronous file indexing.
type FileProcessor interface {
	ProcessByID(ctx context.Context, fileID uuid.UUID) error
}

// FileReader is the inbound read model for file metadata.
type FileReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.StoredFile, error)
}
