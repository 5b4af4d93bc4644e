package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/loreline-ai/loreline/internal/domain"
	"github.com/loreline-ai/loreline/internal/service"
)

type MockPageCollector struct {
	mock.Mock
}

func (m *MockPageCollector) CollectPages(ctx context.Context, collectionKey string) ([]*domain.Page, error) {
	args := m.Called(ctx, collectionKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Page), args.Error(1)
}

func (m *MockPageCollector) CollectPagesByID(ctx context.Context, pageIDs []string) ([]*domain.Page, error) {
	args := m.Called(ctx, pageIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Page), args.Error(1)
}

type MockSyncService struct {
	mock.Mock
}

func (m *MockSyncService) SyncCollection(ctx context.Context, collectionKey, collectionName string, pages []*domain.Page, progress service.SyncProgressFunc) (*service.SyncResult, error) {
	args := m.Called(ctx, collectionKey, collectionName, pages, progress)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SyncResult), args.Error(1)
}

func TestSyncHandler_Sync_Success(t *testing.T) {
	collector := new(MockPageCollector)
	syncer := new(MockSyncService)
	handler := NewSyncHandler(collector, syncer)

	pages := []*domain.Page{
		{ID: "p1", Title: "Intro", Content: "welcome"},
		{ID: "p2", Title: "Setup", Content: "install things"},
	}
	collector.On("CollectPages", mock.Anything, "ENG").Return(pages, nil)
	syncer.On("SyncCollection", mock.Anything, "ENG", "Engineering", pages, mock.Anything).
		Return(&service.SyncResult{NewCount: 2, ChunksWritten: 2}, nil)

	body := `{"name":"Engineering"}`
	req := requestWithParam(http.MethodPost, "/collections/ENG/sync", "key", "ENG", []byte(body))
	w := httptest.NewRecorder()

	handler.Sync(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data service.SyncResult `json:"data"`
	}
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Data.NewCount)
	collector.AssertExpectations(t)
	syncer.AssertExpectations(t)
}

func TestSyncHandler_Sync_ScopedToPageIDs(t *testing.T) {
	collector := new(MockPageCollector)
	syncer := new(MockSyncService)
	handler := NewSyncHandler(collector, syncer)

	pages := []*domain.Page{
		{ID: "p2", Title: "Setup", Content: "install things"},
		{ID: "p5", Title: "Rollbacks", Content: "how to roll back"},
	}
	collector.On("CollectPagesByID", mock.Anything, []string{"p2", "p5"}).Return(pages, nil)
	syncer.On("SyncCollection", mock.Anything, "ENG", "ENG", pages, mock.Anything).
		Return(&service.SyncResult{NewCount: 2, ChunksWritten: 2}, nil)

	body := `{"page_ids":["p2","p5"]}`
	req := requestWithParam(http.MethodPost, "/collections/ENG/sync", "key", "ENG", []byte(body))
	w := httptest.NewRecorder()

	handler.Sync(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	collector.AssertNotCalled(t, "CollectPages")
	collector.AssertExpectations(t)
	syncer.AssertExpectations(t)
}

func TestSyncHandler_Sync_EmptyBodyDefaultsNameToKey(t *testing.T) {
	collector := new(MockPageCollector)
	syncer := new(MockSyncService)
	handler := NewSyncHandler(collector, syncer)

	collector.On("CollectPages", mock.Anything, "DOCS").Return([]*domain.Page{}, nil)
	syncer.On("SyncCollection", mock.Anything, "DOCS", "DOCS", mock.Anything, mock.Anything).
		Return(&service.SyncResult{}, nil)

	req := requestWithParam(http.MethodPost, "/collections/DOCS/sync", "key", "DOCS", nil)
	w := httptest.NewRecorder()

	handler.Sync(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	syncer.AssertExpectations(t)
}

func TestSyncHandler_Sync_SourceNotConfigured(t *testing.T) {
	syncer := new(MockSyncService)
	handler := NewSyncHandler(nil, syncer)

	req := requestWithParam(http.MethodPost, "/collections/ENG/sync", "key", "ENG", nil)
	w := httptest.NewRecorder()

	handler.Sync(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "not configured")
	syncer.AssertNotCalled(t, "SyncCollection")
}

func TestSyncHandler_Sync_CollectFails(t *testing.T) {
	collector := new(MockPageCollector)
	syncer := new(MockSyncService)
	handler := NewSyncHandler(collector, syncer)

	collector.On("CollectPages", mock.Anything, "ENG").
		Return(nil, domain.NewUpstreamError("wiki returned 502", nil))

	req := requestWithParam(http.MethodPost, "/collections/ENG/sync", "key", "ENG", nil)
	w := httptest.NewRecorder()

	handler.Sync(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	syncer.AssertNotCalled(t, "SyncCollection")
}

func TestSyncHandler_Sync_InvalidBody(t *testing.T) {
	collector := new(MockPageCollector)
	syncer := new(MockSyncService)
	handler := NewSyncHandler(collector, syncer)

	req := requestWithParam(http.MethodPost, "/collections/ENG/sync", "key", "ENG", []byte("{not json"))
	w := httptest.NewRecorder()

	handler.Sync(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	collector.AssertNotCalled(t, "CollectPages")
}
