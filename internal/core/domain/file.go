package domain

import (
	"time"

	"github.com/google/uuid"
)

type FileStatus string

const (
	FileStatusPending    FileStatus = "pending"
	FileStatusProcessing FileStatus = "processing"
	FileStatusCompleted  FileStatus = "completed"
	FileStatusFailed     FileStatus = "failed"
)

// FileIngestedEvent is the queue message handed from the API to the
// worker. PublishedAt lets the worker report queue lag.
type FileIngestedEvent struct {
	FileID      uuid.UUID `json:"file_id"`
	PublishedAt time.Time `json:"published_at"`
}

// StoredFile is the metadata record for a file ingested into a vector
// store. Attributes are file-level key/value pairs that attribute
// filters match against at search time.
type StoredFile struct {
	ID            uuid.UUID      `json:"id"`
	VectorStoreID uuid.UUID      `json:"vector_store_id"`
	Filename      string         `json:"filename"`
	MimeType      string         `json:"mime_type"`
	StoragePath   string         `json:"storage_path"`
	SizeBytes     int64          `json:"size_bytes"`
	Attributes    map[string]any `json:"attributes,omitempty"`
	Status        FileStatus     `json:"status"`
	Error         string         `json:"error,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}
