package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/ScriptSmith/hadrian-sub004/internal/core/domain"
)

type VectorStoreRepository struct {
	db *sql.DB
}

func NewVectorStoreRepository(db *sql.DB) *VectorStoreRepository {
	return &VectorStoreRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *VectorStoreRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082901)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS vector_stores (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL,
	owner_type TEXT NOT NULL,
	owner_id UUID NOT NULL,
	embedding_model TEXT NOT NULL,
	embedding_dimensions INTEGER NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_vector_stores_owner ON vector_stores(owner_type, owner_id);

CREATE TABLE IF NOT EXISTS files (
	id UUID PRIMARY KEY,
	vector_store_id UUID NOT NULL REFERENCES vector_stores(id),
	filename TEXT NOT NULL,
	mime_type TEXT NOT NULL,
	storage_path TEXT NOT NULL,
	size_bytes BIGINT NOT NULL DEFAULT 0,
	attributes JSONB NOT NULL DEFAULT '{}'::jsonb,
	status TEXT NOT NULL,
	error_message TEXT,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_files_vector_store ON files(vector_store_id);
CREATE INDEX IF NOT EXISTS idx_files_status ON files(status);

CREATE TABLE IF NOT EXISTS org_members (
	org_id UUID NOT NULL,
	user_id UUID NOT NULL,
	PRIMARY KEY (org_id, user_id)
);

CREATE TABLE IF NOT EXISTS team_members (
	team_id UUID NOT NULL,
	user_id UUID NOT NULL,
	PRIMARY KEY (team_id, user_id)
);

CREATE TABLE IF NOT EXISTS project_members (
	project_id UUID NOT NULL,
	user_id UUID NOT NULL,
	PRIMARY KEY (project_id, user_id)
);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *VectorStoreRepository) Create(ctx context.Context, store *domain.VectorStore) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO vector_stores (
	id, name, owner_type, owner_id, embedding_model, embedding_dimensions, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7)
`,
		store.ID, store.Name, string(store.OwnerType), store.OwnerID,
		store.EmbeddingModel, store.EmbeddingDimensions, store.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert vector store: %w", err)
	}
	return nil
}

func (r *VectorStoreRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.VectorStore, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, name, owner_type, owner_id, embedding_model, embedding_dimensions, created_at
FROM vector_stores
WHERE id = $1
`, id)

	var store domain.VectorStore
	var ownerType string

	err := row.Scan(
		&store.ID, &store.Name, &ownerType, &store.OwnerID,
		&store.EmbeddingModel, &store.EmbeddingDimensions, &store.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrVectorStoreNotFound, "get vector store", fmt.Errorf("id %s", id))
		}
		return nil, fmt.Errorf("scan vector store: %w", err)
	}

	store.OwnerType = domain.OwnerType(ownerType)
	return &store, nil
}
