package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"

	"github.com/ScriptSmith/hadrian-sub004/internal/core/domain"
)

func newStoreRepoWithMock(t *testing.T) (*VectorStoreRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &VectorStoreRepository{db: db}, mock, func() { _ = db.Close() }
}

func TestVectorStoreGetByIDReturnsDomainNotFound(t *testing.T) {
	repo, mock, done := newStoreRepoWithMock(t)
	defer done()

	id := uuid.New()
	mock.ExpectQuery("SELECT id, name, owner_type, owner_id").
		WithArgs(id).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), id)
	if !domain.IsKind(err, domain.ErrVectorStoreNotFound) {
		t.Fatalf("expected ErrVectorStoreNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestVectorStoreGetByIDScansRow(t *testing.T) {
	repo, mock, done := newStoreRepoWithMock(t)
	defer done()

	id := uuid.New()
	ownerID := uuid.New()
	created := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "name", "owner_type", "owner_id", "embedding_model", "embedding_dimensions", "created_at"}).
		AddRow(id, "docs", "organization", ownerID, "nomic-embed-text", 768, created)

	mock.ExpectQuery("SELECT id, name, owner_type, owner_id").
		WithArgs(id).
		WillReturnRows(rows)

	store, err := repo.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if store.OwnerType != domain.OwnerOrganization || store.EmbeddingDimensions != 768 {
		t.Fatalf("unexpected store %+v", store)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestVectorStoreCreateInsertsRow(t *testing.T) {
	repo, mock, done := newStoreRepoWithMock(t)
	defer done()

	store := &domain.VectorStore{
		ID:                  uuid.New(),
		Name:                "docs",
		OwnerType:           domain.OwnerUser,
		OwnerID:             uuid.New(),
		EmbeddingModel:      "nomic-embed-text",
		EmbeddingDimensions: 768,
		CreatedAt:           time.Now().UTC(),
	}
	mock.ExpectExec("INSERT INTO vector_stores").
		WithArgs(store.ID, store.Name, "user", store.OwnerID, store.EmbeddingModel, store.EmbeddingDimensions, store.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Create(context.Background(), store); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
