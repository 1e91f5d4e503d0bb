package httpadapter

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/ScriptSmith/hadrian-sub004/internal/config"
	"github.com/ScriptSmith/hadrian-sub004/internal/core/domain"
)

func multipartUpload(t *testing.T, storeID, attributes, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if storeID != "" {
		if err := writer.WriteField("vector_store_id", storeID); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if attributes != "" {
		if err := writer.WriteField("attributes", attributes); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("write file part: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func TestUploadFileAccepted(t *testing.T) {
	storeID := uuid.New()
	fx := &routerFixture{search: &searchFake{}, ingest: &ingestFake{}, stores: &storeFake{}}
	handler := newTestRouter(config.Config{}, fx)

	body, contentType := multipartUpload(t, storeID.String(), `{"author":"kim"}`, "notes.txt", "hello chunks")
	req := httptest.NewRequest(http.MethodPost, "/v1/files", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", res.Code, res.Body.String())
	}
	if fx.ingest.gotStoreID != storeID {
		t.Fatalf("store id not forwarded: %s", fx.ingest.gotStoreID)
	}
	if fx.ingest.gotFilename != "notes.txt" {
		t.Fatalf("filename not forwarded: %q", fx.ingest.gotFilename)
	}
	if got := fx.ingest.gotAttributes["author"]; got != "kim" {
		t.Fatalf("attributes not forwarded: %+v", fx.ingest.gotAttributes)
	}
	if string(fx.ingest.gotBody) != "hello chunks" {
		t.Fatalf("file bytes not forwarded: %q", fx.ingest.gotBody)
	}

	var resp domain.StoredFile
	if err := json.Unmarshal(res.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != domain.FileStatusPending {
		t.Fatalf("expected pending status in response, got %q", resp.Status)
	}
}

func TestUploadFileRequiresStoreID(t *testing.T) {
	handler := newTestHandler(config.Config{})
	body, contentType := multipartUpload(t, "", "", "notes.txt", "x")
	req := httptest.NewRequest(http.MethodPost, "/v1/files", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without vector_store_id, got %d", res.Code)
	}
}

func TestUploadFileRejectsMalformedAttributes(t *testing.T) {
	handler := newTestHandler(config.Config{})
	body, contentType := multipartUpload(t, uuid.NewString(), "{not json", "notes.txt", "x")
	req := httptest.NewRequest(http.MethodPost, "/v1/files", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed attributes, got %d", res.Code)
	}
}

func TestUploadFileUnknownStoreReturns404(t *testing.T) {
	fx := &routerFixture{
		search: &searchFake{},
		ingest: &ingestFake{err: domain.WrapError(domain.ErrVectorStoreNotFound, "load", errors.New("missing"))},
		stores: &storeFake{},
	}
	handler := newTestRouter(config.Config{}, fx)

	body, contentType := multipartUpload(t, uuid.NewString(), "", "notes.txt", "x")
	req := httptest.NewRequest(http.MethodPost, "/v1/files", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
}

func TestCreateVectorStore(t *testing.T) {
	ownerID := uuid.New()
	fx := &routerFixture{search: &searchFake{}, ingest: &ingestFake{}, stores: &storeFake{}}
	handler := newTestRouter(config.Config{}, fx)

	payload, _ := json.Marshal(map[string]any{
		"name":                 "kb-main",
		"owner_type":           "organization",
		"owner_id":             ownerID.String(),
		"embedding_model":      "nomic-embed-text",
		"embedding_dimensions": 768,
	})
	req := httptest.NewRequest(http.MethodPost, "/v1/vector_stores", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", res.Code, res.Body.String())
	}
	if fx.stores.gotIn.OwnerType != domain.OwnerOrganization || fx.stores.gotIn.OwnerID != ownerID {
		t.Fatalf("owner not forwarded: %+v", fx.stores.gotIn)
	}
	if fx.stores.gotIn.EmbeddingDimensions != 768 {
		t.Fatalf("dimensions not forwarded: %d", fx.stores.gotIn.EmbeddingDimensions)
	}
}

func TestCreateVectorStoreInvalidInputReturns400(t *testing.T) {
	fx := &routerFixture{
		search: &searchFake{},
		ingest: &ingestFake{},
		stores: &storeFake{err: domain.WrapError(domain.ErrInvalidInput, "create vector store", errors.New("name is required"))},
	}
	handler := newTestRouter(config.Config{}, fx)

	payload, _ := json.Marshal(map[string]any{
		"name":     "",
		"owner_id": uuid.NewString(),
	})
	req := httptest.NewRequest(http.MethodPost, "/v1/vector_stores", bytes.NewReader(payload))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestGetVectorStoreByID(t *testing.T) {
	storeID := uuid.New()
	fx := &routerFixture{
		search: &searchFake{},
		ingest: &ingestFake{},
		stores: &storeFake{store: &domain.VectorStore{ID: storeID, Name: "kb-main"}},
	}
	handler := newTestRouter(config.Config{}, fx)

	req := httptest.NewRequest(http.MethodGet, "/v1/vector_stores/"+storeID.String(), nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if !strings.Contains(res.Body.String(), "kb-main") {
		t.Fatalf("store not in response: %s", res.Body.String())
	}
}

func TestGetVectorStoreRejectsBadID(t *testing.T) {
	handler := newTestHandler(config.Config{})
	req := httptest.NewRequest(http.MethodGet, "/v1/vector_stores/not-a-uuid", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}
