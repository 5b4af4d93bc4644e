package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/loreline-ai/loreline/internal/domain"
	"github.com/loreline-ai/loreline/internal/pagination"
)

type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) AddDocument(ctx context.Context, name, content string, sizeBytes int64) (*domain.Document, error) {
	args := m.Called(ctx, name, content, sizeBytes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}

func (m *MockDocumentService) RemoveDocument(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockDocumentService) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}

func (m *MockDocumentService) ListDocuments(ctx context.Context) ([]*domain.Document, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Document), args.Error(1)
}

func (m *MockDocumentService) ListDocumentsPage(ctx context.Context, limit int, cursor string) (*pagination.PageResult[*domain.Document], error) {
	args := m.Called(ctx, limit, cursor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pagination.PageResult[*domain.Document]), args.Error(1)
}

func (m *MockDocumentService) ArchiveURL(ctx context.Context, id string) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}

func newTestDocument() *domain.Document {
	return &domain.Document{
		ID:         "doc-123",
		Name:       "notes.md",
		SourceType: domain.SourceTypeUpload,
		SizeBytes:  42,
		ChunkCount: 2,
		CreatedAt:  time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func requestWithParam(method, url, param, value string, body []byte) *http.Request {
	req := httptest.NewRequest(method, url, bytes.NewReader(body))
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(param, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestDocumentHandler_Create_Success(t *testing.T) {
	mockSvc := new(MockDocumentService)
	handler := NewDocumentHandler(mockSvc)

	expected := newTestDocument()
	mockSvc.On("AddDocument", mock.Anything, "notes.md", "hello retrieval", int64(len("hello retrieval"))).Return(expected, nil)

	body := `{"name":"notes.md","content":"hello retrieval"}`
	req := httptest.NewRequest(http.MethodPost, "/documents", bytes.NewReader([]byte(body)))
	w := httptest.NewRecorder()

	handler.Create(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Data DocumentResponse `json:"data"`
	}
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "doc-123", resp.Data.ID)
	assert.Equal(t, "upload", resp.Data.SourceType)
	assert.Equal(t, 2, resp.Data.ChunkCount)
	mockSvc.AssertExpectations(t)
}

func TestDocumentHandler_Create_MissingName(t *testing.T) {
	mockSvc := new(MockDocumentService)
	handler := NewDocumentHandler(mockSvc)

	body := `{"content":"hello"}`
	req := httptest.NewRequest(http.MethodPost, "/documents", bytes.NewReader([]byte(body)))
	w := httptest.NewRecorder()

	handler.Create(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "name is required")
	mockSvc.AssertNotCalled(t, "AddDocument")
}

func TestDocumentHandler_Create_MissingContent(t *testing.T) {
	mockSvc := new(MockDocumentService)
	handler := NewDocumentHandler(mockSvc)

	body := `{"name":"notes.md"}`
	req := httptest.NewRequest(http.MethodPost, "/documents", bytes.NewReader([]byte(body)))
	w := httptest.NewRecorder()

	handler.Create(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "content is required")
}

func TestDocumentHandler_Create_EmptyTextFromService(t *testing.T) {
	mockSvc := new(MockDocumentService)
	handler := NewDocumentHandler(mockSvc)

	mockSvc.On("AddDocument", mock.Anything, "blank.md", "   ", int64(3)).Return(nil, domain.ErrEmptyText)

	body := `{"name":"blank.md","content":"   "}`
	req := httptest.NewRequest(http.MethodPost, "/documents", bytes.NewReader([]byte(body)))
	w := httptest.NewRecorder()

	handler.Create(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), domain.ErrCodeValidation)
}

func TestDocumentHandler_Get_Success(t *testing.T) {
	mockSvc := new(MockDocumentService)
	handler := NewDocumentHandler(mockSvc)

	mockSvc.On("GetDocument", mock.Anything, "doc-123").Return(newTestDocument(), nil)

	req := requestWithParam(http.MethodGet, "/documents/doc-123", "id", "doc-123", nil)
	w := httptest.NewRecorder()

	handler.Get(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "notes.md")
}

func TestDocumentHandler_Get_NotFound(t *testing.T) {
	mockSvc := new(MockDocumentService)
	handler := NewDocumentHandler(mockSvc)

	mockSvc.On("GetDocument", mock.Anything, "doc-999").Return(nil, domain.ErrDocumentNotFound)

	req := requestWithParam(http.MethodGet, "/documents/doc-999", "id", "doc-999", nil)
	w := httptest.NewRecorder()

	handler.Get(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDocumentHandler_Delete_Success(t *testing.T) {
	mockSvc := new(MockDocumentService)
	handler := NewDocumentHandler(mockSvc)

	mockSvc.On("RemoveDocument", mock.Anything, "doc-123").Return(nil)

	req := requestWithParam(http.MethodDelete, "/documents/doc-123", "id", "doc-123", nil)
	w := httptest.NewRecorder()

	handler.Delete(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "deleted")
	mockSvc.AssertExpectations(t)
}

func TestDocumentHandler_Archive_Success(t *testing.T) {
	mockSvc := new(MockDocumentService)
	handler := NewDocumentHandler(mockSvc)

	mockSvc.On("ArchiveURL", mock.Anything, "doc-123").Return("https://archive.example.com/uploads/doc-123", nil)

	req := requestWithParam(http.MethodGet, "/documents/doc-123/archive", "id", "doc-123", nil)
	w := httptest.NewRecorder()

	handler.Archive(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "archive.example.com")
}

func TestDocumentHandler_Archive_NotConfigured(t *testing.T) {
	mockSvc := new(MockDocumentService)
	handler := NewDocumentHandler(mockSvc)

	mockSvc.On("ArchiveURL", mock.Anything, "doc-123").
		Return("", domain.NewDomainError(domain.ErrCodeNotFound, "archival is not configured"))

	req := requestWithParam(http.MethodGet, "/documents/doc-123/archive", "id", "doc-123", nil)
	w := httptest.NewRecorder()

	handler.Archive(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDocumentHandler_List_Success(t *testing.T) {
	mockSvc := new(MockDocumentService)
	handler := NewDocumentHandler(mockSvc)

	docs := []*domain.Document{newTestDocument()}
	mockSvc.On("ListDocuments", mock.Anything).Return(docs, nil)

	req := httptest.NewRequest(http.MethodGet, "/documents", nil)
	w := httptest.NewRecorder()

	handler.List(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data DocumentListResponse `json:"data"`
	}
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Data.Count)
	require.Len(t, resp.Data.Items, 1)
	assert.Equal(t, "doc-123", resp.Data.Items[0].ID)
}

func TestDocumentHandler_List_Paginated(t *testing.T) {
	mockSvc := new(MockDocumentService)
	handler := NewDocumentHandler(mockSvc)

	page := &pagination.PageResult[*domain.Document]{
		Items:   []*domain.Document{newTestDocument()},
		Cursor:  "bmV4dA==",
		HasMore: true,
	}
	mockSvc.On("ListDocumentsPage", mock.Anything, 1, "").Return(page, nil)

	req := httptest.NewRequest(http.MethodGet, "/documents?limit=1", nil)
	w := httptest.NewRecorder()

	handler.List(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data DocumentListResponse `json:"data"`
	}
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Data.Count)
	assert.Equal(t, "bmV4dA==", resp.Data.Cursor)
	assert.True(t, resp.Data.HasMore)
}

func TestDocumentHandler_List_InvalidLimit(t *testing.T) {
	mockSvc := new(MockDocumentService)
	handler := NewDocumentHandler(mockSvc)

	req := httptest.NewRequest(http.MethodGet, "/documents?limit=zero", nil)
	w := httptest.NewRecorder()

	handler.List(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDocumentHandler_List_Empty(t *testing.T) {
	mockSvc := new(MockDocumentService)
	handler := NewDocumentHandler(mockSvc)

	mockSvc.On("ListDocuments", mock.Anything).Return([]*domain.Document{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/documents", nil)
	w := httptest.NewRecorder()

	handler.List(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data DocumentListResponse `json:"data"`
	}
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Data.Count)
}
