package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/loreline-ai/loreline/internal/api"
	"github.com/loreline-ai/loreline/internal/service"
)

type StatsService interface {
	Stats(ctx context.Context) (*service.RetrievalStats, error)
	SetEnabled(ctx context.Context, enabled bool) error
}

// BackendSwitcher is the runtime backend control surface, satisfied by
// the embedding provider.
type BackendSwitcher interface {
	SwitchBackend(ctx context.Context, name string) error
	Name() string
	Dimension() int
}

type SettingsHandler struct {
	svc      StatsService
	switcher BackendSwitcher
}

func NewSettingsHandler(svc StatsService, switcher BackendSwitcher) *SettingsHandler {
	return &SettingsHandler{svc: svc, switcher: switcher}
}

func (h *SettingsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, stats)
}

type SetEnabledRequest struct {
	Enabled bool `json:"enabled"`
}

func (h *SettingsHandler) SetEnabled(w http.ResponseWriter, r *http.Request) {
	var req SetEnabledRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.svc.SetEnabled(r.Context(), req.Enabled); err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, map[string]bool{"enabled": req.Enabled})
}

type SetBackendRequest struct {
	Backend string `json:"backend"`
}

type BackendResponse struct {
	Backend   string `json:"backend"`
	Dimension int    `json:"dimension"`
}

func (h *SettingsHandler) SetBackend(w http.ResponseWriter, r *http.Request) {
	var req SetBackendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Backend == "" {
		api.Error(w, http.StatusBadRequest, "backend is required")
		return
	}

	if err := h.switcher.SwitchBackend(r.Context(), req.Backend); err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, BackendResponse{
		Backend:   h.switcher.Name(),
		Dimension: h.switcher.Dimension(),
	})
}
