package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ScriptSmith/hadrian-sub004/internal/core/domain"
	"github.com/ScriptSmith/hadrian-sub004/internal/core/ports"
)

// ProcessFileUseCase runs the worker-side indexing pipeline for one
// uploaded file: extract text, chunk, embed, index. Failures leave the
// file in the failed status with the error recorded so the upload can be
// retried or inspected.
type ProcessFileUseCase struct {
	files     ports.FileRepository
	extractor ports.TextExtractor
	chunker   ports.Chunker
	embedder  ports.Embedder
	backend   ports.VectorBackend
}

func NewProcessFileUseCase(
	files ports.FileRepository,
	extractor ports.TextExtractor,
	chunker ports.Chunker,
	embedder ports.Embedder,
	backend ports.VectorBackend,
) *ProcessFileUseCase {
	return &ProcessFileUseCase{
		files:     files,
		extractor: extractor,
		chunker:   chunker,
		embedder:  embedder,
		backend:   backend,
	}
}

func (uc *ProcessFileUseCase) ProcessByID(ctx context.Context, fileID uuid.UUID) error {
	if err := uc.markStatus(ctx, fileID, domain.FileStatusProcessing, ""); err != nil {
		return fmt.Errorf("set status=processing: %w", err)
	}

	if err := uc.processPipeline(ctx, fileID); err != nil {
		if failErr := uc.markStatus(ctx, fileID, domain.FileStatusFailed, err.Error()); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.markStatus(ctx, fileID, domain.FileStatusCompleted, ""); err != nil {
		return fmt.Errorf("set status=completed: %w", err)
	}

	return nil
}

func (uc *ProcessFileUseCase) processPipeline(ctx context.Context, fileID uuid.UUID) error {
	file, err := uc.files.GetByID(ctx, fileID)
	if err != nil {
		return fmt.Errorf("fetch file by id: %w", err)
	}

	text, err := uc.extractText(ctx, file)
	if err != nil {
		return err
	}

	chunks := uc.chunker.Split(text)
	if len(chunks) == 0 {
		return domain.WrapError(domain.ErrInvalidInput, "chunk file", errors.New("chunking produced zero chunks"))
	}

	vectors, err := uc.embed(ctx, chunks)
	if err != nil {
		return err
	}

	if err := uc.backend.IndexChunks(ctx, file, chunks, vectors); err != nil {
		return fmt.Errorf("index chunks: %w", err)
	}

	return nil
}

func (uc *ProcessFileUseCase) extractText(ctx context.Context, file *domain.StoredFile) (string, error) {
	text, err := uc.extractor.Extract(ctx, file)
	if err != nil {
		return "", fmt.Errorf("extract text: %w", err)
	}
	if text == "" {
		return "", domain.WrapError(domain.ErrInvalidInput, "extract text", errors.New("empty extracted text"))
	}
	return text, nil
}

func (uc *ProcessFileUseCase) embed(ctx context.Context, chunks []string) ([][]float32, error) {
	vectors, err := uc.embedder.Embed(ctx, chunks)
	if err != nil {
		return nil, domain.WrapError(domain.ErrEmbedding, "embed chunks", err)
	}
	if len(vectors) != len(chunks) {
		return nil, domain.WrapError(
			domain.ErrEmbedding,
			"embed chunks",
			fmt.Errorf("vectors/chunks mismatch: %d/%d", len(vectors), len(chunks)),
		)
	}
	return vectors, nil
}

func (uc *ProcessFileUseCase) markStatus(ctx context.Context, fileID uuid.UUID, status domain.FileStatus, errMessage string) error {
	return uc.files.UpdateStatus(ctx, fileID, status, errMessage)
}
