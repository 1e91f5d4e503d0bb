package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ScriptSmith/hadrian-sub004/internal/core/domain"
)

type FileRepository struct {
	db *sql.DB
}

func NewFileRepository(db *sql.DB) *FileRepository {
	return &FileRepository{db: db}
}

func (r *FileRepository) Create(ctx context.Context, file *domain.StoredFile) error {
	attrs := file.Attributes
	if attrs == nil {
		attrs = map[string]any{}
	}
	attrsJSON, err := json.Marshal(attrs)
	if err != nil {
		return fmt.Errorf("marshal attributes: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO files (
	id, vector_store_id, filename, mime_type, storage_path, size_bytes, attributes, status, error_message, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
`,
		file.ID, file.VectorStoreID, file.Filename, file.MimeType, file.StoragePath,
		file.SizeBytes, attrsJSON, string(file.Status), file.Error, file.CreatedAt, file.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert file: %w", err)
	}
	return nil
}

func (r *FileRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.StoredFile, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, vector_store_id, filename, mime_type, storage_path, size_bytes, attributes, status, error_message, created_at, updated_at
FROM files
WHERE id = $1
`, id)

	var file domain.StoredFile
	var attrsRaw []byte
	var status string

	err := row.Scan(
		&file.ID, &file.VectorStoreID, &file.Filename, &file.MimeType, &file.StoragePath,
		&file.SizeBytes, &attrsRaw, &status, &file.Error, &file.CreatedAt, &file.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrFileNotFound, "get file", fmt.Errorf("id %s", id))
		}
		return nil, fmt.Errorf("scan file: %w", err)
	}

	if len(attrsRaw) > 0 {
		if err := json.Unmarshal(attrsRaw, &file.Attributes); err != nil {
			return nil, fmt.Errorf("unmarshal attributes: %w", err)
		}
	}
	file.Status = domain.FileStatus(status)
	return &file, nil
}

func (r *FileRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.FileStatus, errMessage string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE files
SET status = $2, error_message = $3, updated_at = $4
WHERE id = $1
`, id, string(status), errMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update file status: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrFileNotFound, "update file status", fmt.Errorf("id %s", id))
	}
	return nil
}
