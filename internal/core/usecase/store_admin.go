package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ScriptSmith/hadrian-sub004/internal/core/domain"
	"github.com/ScriptSmith/hadrian-sub004/internal/core/ports"
)

// VectorStoreAdminUseCase creates and reads vector store metadata.
type VectorStoreAdminUseCase struct {
	stores ports.VectorStoreRepository
}

func NewVectorStoreAdminUseCase(stores ports.VectorStoreRepository) *VectorStoreAdminUseCase {
	return &VectorStoreAdminUseCase{stores: stores}
}

type CreateVectorStoreInput struct {
	Name                string
	OwnerType           domain.OwnerType
	OwnerID             uuid.UUID
	EmbeddingModel      string
	EmbeddingDimensions int
}

func (uc *VectorStoreAdminUseCase) Create(ctx context.Context, in CreateVectorStoreInput) (*domain.VectorStore, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "create vector store", errors.New("name is required"))
	}
	if !in.OwnerType.Valid() {
		return nil, domain.WrapError(domain.ErrInvalidInput, "create vector store", fmt.Errorf("unknown owner type %q", in.OwnerType))
	}
	if in.OwnerID == uuid.Nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "create vector store", errors.New("owner id is required"))
	}
	if in.EmbeddingModel == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "create vector store", errors.New("embedding model is required"))
	}
	if in.EmbeddingDimensions <= 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "create vector store", fmt.Errorf("embedding dimensions must be positive, got %d", in.EmbeddingDimensions))
	}

	store := &domain.VectorStore{
		ID:                  uuid.New(),
		Name:                strings.TrimSpace(in.Name),
		OwnerType:           in.OwnerType,
		OwnerID:             in.OwnerID,
		EmbeddingModel:      in.EmbeddingModel,
		EmbeddingDimensions: in.EmbeddingDimensions,
		CreatedAt:           time.Now().UTC(),
	}
	if err := uc.stores.Create(ctx, store); err != nil {
		return nil, fmt.Errorf("create vector store: %w", err)
	}
	return store, nil
}

func (uc *VectorStoreAdminUseCase) Get(ctx context.Context, id uuid.UUID) (*domain.VectorStore, error) {
	return uc.stores.GetByID(ctx, id)
}
