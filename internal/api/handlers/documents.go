package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/loreline-ai/loreline/internal/api"
	"github.com/loreline-ai/loreline/internal/domain"
	"github.com/loreline-ai/loreline/internal/pagination"
)

type DocumentService interface {
	AddDocument(ctx context.Context, name, content string, sizeBytes int64) (*domain.Document, error)
	RemoveDocument(ctx context.Context, id string) error
	GetDocument(ctx context.Context, id string) (*domain.Document, error)
	ListDocuments(ctx context.Context) ([]*domain.Document, error)
	ListDocumentsPage(ctx context.Context, limit int, cursor string) (*pagination.PageResult[*domain.Document], error)
	ArchiveURL(ctx context.Context, id string) (string, error)
}

type DocumentHandler struct {
	svc DocumentService
}

func NewDocumentHandler(svc DocumentService) *DocumentHandler {
	return &DocumentHandler{svc: svc}
}

type CreateDocumentRequest struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

type DocumentResponse struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	SourceType     string `json:"source_type"`
	SizeBytes      int64  `json:"size_bytes"`
	ChunkCount     int    `json:"chunk_count"`
	SourceURL      string `json:"source_url,omitempty"`
	ExternalPageID string `json:"external_page_id,omitempty"`
	LastModified   string `json:"last_modified,omitempty"`
	CollectionKey  string `json:"collection_key,omitempty"`
	CollectionName string `json:"collection_name,omitempty"`
	CreatedAt      string `json:"created_at"`
}

func documentToResponse(d *domain.Document) *DocumentResponse {
	return &DocumentResponse{
		ID:             d.ID,
		Name:           d.Name,
		SourceType:     string(d.SourceType),
		SizeBytes:      d.SizeBytes,
		ChunkCount:     d.ChunkCount,
		SourceURL:      d.SourceURL,
		ExternalPageID: d.ExternalPageID,
		LastModified:   d.LastModified,
		CollectionKey:  d.CollectionKey,
		CollectionName: d.CollectionName,
		CreatedAt:      d.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

func (h *DocumentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" {
		api.Error(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.Content == "" {
		api.Error(w, http.StatusBadRequest, "content is required")
		return
	}

	doc, err := h.svc.AddDocument(r.Context(), req.Name, req.Content, int64(len(req.Content)))
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, documentToResponse(doc))
}

func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	doc, err := h.svc.GetDocument(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, documentToResponse(doc))
}

func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	if err := h.svc.RemoveDocument(r.Context(), id); err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})
}

type ArchiveURLResponse struct {
	URL string `json:"url"`
}

// Archive returns a presigned download URL for a document's archived
// original bytes.
func (h *DocumentHandler) Archive(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	url, err := h.svc.ArchiveURL(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, ArchiveURLResponse{URL: url})
}

type DocumentListResponse struct {
	Items   []*DocumentResponse `json:"items"`
	Count   int                 `json:"count"`
	Cursor  string              `json:"cursor,omitempty"`
	HasMore bool                `json:"has_more"`
}

// List returns documents newest first. Without a limit query parameter
// the full set is returned; with one, results are cursor-paginated.
func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	limitParam := r.URL.Query().Get("limit")
	if limitParam != "" {
		limit, err := strconv.Atoi(limitParam)
		if err != nil || limit <= 0 {
			api.Error(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		h.listPage(w, r, limit)
		return
	}

	docs, err := h.svc.ListDocuments(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}

	responses := make([]*DocumentResponse, len(docs))
	for i, d := range docs {
		responses[i] = documentToResponse(d)
	}

	api.Success(w, http.StatusOK, DocumentListResponse{
		Items: responses,
		Count: len(responses),
	})
}

func (h *DocumentHandler) listPage(w http.ResponseWriter, r *http.Request, limit int) {
	page, err := h.svc.ListDocumentsPage(r.Context(), limit, r.URL.Query().Get("cursor"))
	if err != nil {
		api.HandleError(w, err)
		return
	}

	responses := make([]*DocumentResponse, len(page.Items))
	for i, d := range page.Items {
		responses[i] = documentToResponse(d)
	}

	api.Success(w, http.StatusOK, DocumentListResponse{
		Items:   responses,
		Count:   len(responses),
		Cursor:  page.Cursor,
		HasMore: page.HasMore,
	})
}
