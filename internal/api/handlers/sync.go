package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/loreline-ai/loreline/internal/api"
	"github.com/loreline-ai/loreline/internal/domain"
	"github.com/loreline-ai/loreline/internal/service"
)

// PageCollector fetches remote pages for a sync run, satisfied by the
// jobs sync worker. CollectPages walks the full hierarchy;
// CollectPagesByID fetches an explicit selection, typically the ids
// picked through the selection tree.
type PageCollector interface {
	CollectPages(ctx context.Context, collectionKey string) ([]*domain.Page, error)
	CollectPagesByID(ctx context.Context, pageIDs []string) ([]*domain.Page, error)
}

type SyncService interface {
	SyncCollection(ctx context.Context, collectionKey, collectionName string, pages []*domain.Page, progress service.SyncProgressFunc) (*service.SyncResult, error)
}

type SyncHandler struct {
	collector PageCollector
	syncer    SyncService
}

// NewSyncHandler creates a SyncHandler. collector may be nil when no
// remote source is configured; sync requests then fail with 502.
func NewSyncHandler(collector PageCollector, syncer SyncService) *SyncHandler {
	return &SyncHandler{collector: collector, syncer: syncer}
}

// SyncRequest scopes a sync run. A non-empty PageIDs list restricts
// the run to those pages instead of the full hierarchy walk.
type SyncRequest struct {
	Name    string   `json:"name,omitempty"`
	PageIDs []string `json:"page_ids,omitempty"`
}

func (h *SyncHandler) Sync(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if key == "" {
		api.Error(w, http.StatusBadRequest, "collection key is required")
		return
	}

	if h.collector == nil {
		api.HandleError(w, domain.ErrSourceNotConfigured)
		return
	}

	var req SyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	name := req.Name
	if name == "" {
		name = key
	}

	var pages []*domain.Page
	var err error
	if len(req.PageIDs) > 0 {
		pages, err = h.collector.CollectPagesByID(r.Context(), req.PageIDs)
	} else {
		pages, err = h.collector.CollectPages(r.Context(), key)
	}
	if err != nil {
		api.HandleError(w, err)
		return
	}

	result, err := h.syncer.SyncCollection(r.Context(), key, name, pages, nil)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, result)
}
