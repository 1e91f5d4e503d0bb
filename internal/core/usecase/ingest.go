package usecase

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ScriptSmith/hadrian-sub004/internal/core/domain"
	"github.com/ScriptSmith/hadrian-sub004/internal/core/ports"
)

// IngestFileUseCase accepts an uploaded file for a vector store, persists
// the raw bytes and metadata, and hands indexing off to the worker via
// the message queue.
type IngestFileUseCase struct {
	stores  ports.VectorStoreRepository
	files   ports.FileRepository
	storage ports.ObjectStorage
	queue   ports.MessageQueue
}

func NewIngestFileUseCase(
	stores ports.VectorStoreRepository,
	files ports.FileRepository,
	storage ports.ObjectStorage,
	queue ports.MessageQueue,
) *IngestFileUseCase {
	return &IngestFileUseCase{
		stores:  stores,
		files:   files,
		storage: storage,
		queue:   queue,
	}
}

func (uc *IngestFileUseCase) Upload(
	ctx context.Context,
	vectorStoreID uuid.UUID,
	filename, mimeType string,
	attributes map[string]any,
	body io.Reader,
) (*domain.StoredFile, error) {
	if _, err := uc.stores.GetByID(ctx, vectorStoreID); err != nil {
		return nil, fmt.Errorf("load vector store %s: %w", vectorStoreID, err)
	}

	id := uuid.New()
	storageKey := fmt.Sprintf("%s_%s", id, sanitizeFilename(filename))
	now := time.Now().UTC()

	counted := &countingReader{r: body}
	if err := uc.storage.Save(ctx, storageKey, counted); err != nil {
		return nil, fmt.Errorf("save to object storage: %w", err)
	}

	file := &domain.StoredFile{
		ID:            id,
		VectorStoreID: vectorStoreID,
		Filename:      filename,
		MimeType:      mimeType,
		StoragePath:   storageKey,
		SizeBytes:     counted.n,
		Attributes:    attributes,
		Status:        domain.FileStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := uc.files.Create(ctx, file); err != nil {
		return nil, fmt.Errorf("create file metadata: %w", err)
	}

	if err := uc.queue.PublishFileIngested(ctx, file.ID); err != nil {
		return nil, fmt.Errorf("publish ingestion event: %w", err)
	}

	return file, nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." {
		return "file.bin"
	}
	return base
}
