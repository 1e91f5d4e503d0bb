package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/ScriptSmith/hadrian-sub004/internal/core/domain"
)

type fakeStorage struct {
	saved   map[string][]byte
	saveErr error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{saved: map[string][]byte{}}
}

func (f *fakeStorage) Save(ctx context.Context, key string, data io.Reader) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	b, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.saved[key] = b
	return nil
}

func (f *fakeStorage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	b, ok := f.saved[key]
	if !ok {
		return nil, errors.New("no such key")
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

type fakeQueue struct {
	published []uuid.UUID
	err       error
}

func (f *fakeQueue) PublishFileIngested(ctx context.Context, fileID uuid.UUID) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, fileID)
	return nil
}

func (f *fakeQueue) SubscribeFileIngested(ctx context.Context, handler func(context.Context, domain.FileIngestedEvent) error) error {
	return f.err
}

type creatingFileRepo struct {
	fakeFileRepo
	created []*domain.StoredFile
}

func (f *creatingFileRepo) Create(ctx context.Context, file *domain.StoredFile) error {
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, file)
	return nil
}

func TestUploadStoresMetadataAndPublishes(t *testing.T) {
	vs := newStore("nomic-embed-text", 768)
	stores := &fakeStoreRepo{stores: map[uuid.UUID]*domain.VectorStore{vs.ID: vs}}
	files := &creatingFileRepo{}
	storage := newFakeStorage()
	queue := &fakeQueue{}
	uc := NewIngestFileUseCase(stores, files, storage, queue)

	attrs := map[string]any{"author": "kv"}
	file, err := uc.Upload(context.Background(), vs.ID, "Q3 report.pdf", "application/pdf", attrs, strings.NewReader("%PDF-1.4"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	if file.VectorStoreID != vs.ID || file.Status != domain.FileStatusPending {
		t.Fatalf("unexpected file record: %+v", file)
	}
	if file.Filename != "Q3 report.pdf" {
		t.Fatalf("original filename must be preserved, got %q", file.Filename)
	}
	if strings.Contains(file.StoragePath, " ") {
		t.Fatalf("storage key must be sanitized, got %q", file.StoragePath)
	}
	if _, ok := storage.saved[file.StoragePath]; !ok {
		t.Fatal("file bytes were not saved under the storage key")
	}
	if len(files.created) != 1 {
		t.Fatalf("expected one metadata insert, got %d", len(files.created))
	}
	if len(queue.published) != 1 || queue.published[0] != file.ID {
		t.Fatalf("expected ingestion event for %s, got %v", file.ID, queue.published)
	}
}

func TestUploadRejectsUnknownVectorStore(t *testing.T) {
	stores := &fakeStoreRepo{stores: map[uuid.UUID]*domain.VectorStore{}}
	storage := newFakeStorage()
	uc := NewIngestFileUseCase(stores, &creatingFileRepo{}, storage, &fakeQueue{})

	_, err := uc.Upload(context.Background(), uuid.New(), "a.txt", "text/plain", nil, strings.NewReader("x"))
	if !domain.IsKind(err, domain.ErrVectorStoreNotFound) {
		t.Fatalf("expected ErrVectorStoreNotFound, got %v", err)
	}
	if len(storage.saved) != 0 {
		t.Fatal("nothing must be written when the store is unknown")
	}
}

func TestUploadPropagatesStorageFailure(t *testing.T) {
	vs := newStore("nomic-embed-text", 768)
	stores := &fakeStoreRepo{stores: map[uuid.UUID]*domain.VectorStore{vs.ID: vs}}
	storage := newFakeStorage()
	storage.saveErr = errors.New("disk full")
	files := &creatingFileRepo{}
	uc := NewIngestFileUseCase(stores, files, storage, &fakeQueue{})

	_, err := uc.Upload(context.Background(), vs.ID, "a.txt", "text/plain", nil, strings.NewReader("x"))
	if err == nil {
		t.Fatal("expected storage error")
	}
	if len(files.created) != 0 {
		t.Fatal("metadata must not be created when the save fails")
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := []struct{ in, want string }{
		{"my report.pdf", "my_report.pdf"},
		{"../../etc/passwd", "passwd"},
		{"résumé.docx", "r_sum_.docx"},
		{"", "file.bin"},
	}
	for _, tc := range cases {
		if got := sanitizeFilename(tc.in); got != tc.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
