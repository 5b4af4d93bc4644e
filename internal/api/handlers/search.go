package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/loreline-ai/loreline/internal/api"
	"github.com/loreline-ai/loreline/internal/domain"
	"github.com/loreline-ai/loreline/internal/service"
)

type SearchService interface {
	Search(ctx context.Context, query string) (string, error)
	SearchWithDetails(ctx context.Context, query string) (*service.DetailedSearchResult, error)
	AugmentPrompt(ctx context.Context, messages []domain.Message, query string, opts service.AugmentOptions) ([]domain.Message, []service.SourceDetail, error)
}

type SearchHandler struct {
	svc SearchService
}

func NewSearchHandler(svc SearchService) *SearchHandler {
	return &SearchHandler{svc: svc}
}

type SearchRequest struct {
	Query string `json:"query"`
}

type SearchResponse struct {
	Context string `json:"context"`
}

func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	contextStr, err := h.svc.Search(r.Context(), req.Query)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, SearchResponse{Context: contextStr})
}

func (h *SearchHandler) SearchDetails(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.svc.SearchWithDetails(r.Context(), req.Query)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, result)
}

type AugmentRequest struct {
	Messages      []domain.Message `json:"messages"`
	Query         string           `json:"query,omitempty"`
	ReturnSources bool             `json:"return_sources,omitempty"`
}

type AugmentResponse struct {
	Messages []domain.Message       `json:"messages"`
	Sources  []service.SourceDetail `json:"sources,omitempty"`
}

func (h *SearchHandler) Augment(w http.ResponseWriter, r *http.Request) {
	var req AugmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if len(req.Messages) == 0 {
		api.Error(w, http.StatusBadRequest, "messages are required")
		return
	}

	messages, sources, err := h.svc.AugmentPrompt(r.Context(), req.Messages, req.Query, service.AugmentOptions{
		ReturnSources: req.ReturnSources,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, AugmentResponse{
		Messages: messages,
		Sources:  sources,
	})
}
