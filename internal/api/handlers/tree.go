package handlers

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/loreline-ai/loreline/internal/api"
	"github.com/loreline-ai/loreline/internal/domain"
	"github.com/loreline-ai/loreline/internal/wiki"
)

// TreeHandler exposes the lazy page-picker over HTTP. One PageTree is
// kept per space key; trees are view state, so losing them on restart
// is fine.
type TreeHandler struct {
	source wiki.Source

	mu    sync.Mutex
	trees map[string]*wiki.PageTree
}

// NewTreeHandler creates a TreeHandler. source may be nil when no
// remote source is configured; tree requests then fail with 502.
func NewTreeHandler(source wiki.Source) *TreeHandler {
	return &TreeHandler{
		source: source,
		trees:  make(map[string]*wiki.PageTree),
	}
}

func (h *TreeHandler) ListSpaces(w http.ResponseWriter, r *http.Request) {
	if h.source == nil {
		api.HandleError(w, domain.ErrSourceNotConfigured)
		return
	}

	spaces, err := h.source.ListSpaces(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}

	type spaceView struct {
		Key  string `json:"key"`
		Name string `json:"name"`
	}
	views := make([]spaceView, len(spaces))
	for i, s := range spaces {
		views[i] = spaceView{Key: s.Key, Name: s.Name}
	}

	api.Success(w, http.StatusOK, views)
}

type TreeResponse struct {
	SpaceKey string           `json:"space_key"`
	Roots    []string         `json:"roots"`
	Nodes    []*wiki.NodeView `json:"nodes"`
}

func (h *TreeHandler) Init(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if key == "" {
		api.Error(w, http.StatusBadRequest, "space key is required")
		return
	}
	if h.source == nil {
		api.HandleError(w, domain.ErrSourceNotConfigured)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	tree := wiki.NewPageTree(h.source)
	if err := tree.InitCollection(r.Context(), key); err != nil {
		api.HandleError(w, err)
		return
	}
	h.trees[key] = tree

	api.Success(w, http.StatusOK, TreeResponse{
		SpaceKey: key,
		Roots:    tree.Roots(),
		Nodes:    tree.Nodes(),
	})
}

func (h *TreeHandler) Get(w http.ResponseWriter, r *http.Request) {
	tree, ok := h.lookup(w, r)
	if !ok {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	api.Success(w, http.StatusOK, TreeResponse{
		SpaceKey: tree.SpaceKey(),
		Roots:    tree.Roots(),
		Nodes:    tree.Nodes(),
	})
}

func (h *TreeHandler) Expand(w http.ResponseWriter, r *http.Request) {
	tree, ok := h.lookup(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := tree.Expand(r.Context(), id); err != nil {
		api.HandleError(w, err)
		return
	}

	view, err := tree.Node(id)
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, view)
}

func (h *TreeHandler) Collapse(w http.ResponseWriter, r *http.Request) {
	tree, ok := h.lookup(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	h.mu.Lock()
	defer h.mu.Unlock()

	tree.Collapse(id)

	view, err := tree.Node(id)
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, view)
}

type SelectRequest struct {
	Selected  bool `json:"selected"`
	Propagate bool `json:"propagate"`
}

type SelectionResponse struct {
	ID    string              `json:"id"`
	State wiki.SelectionState `json:"state"`
}

func (h *TreeHandler) Select(w http.ResponseWriter, r *http.Request) {
	tree, ok := h.lookup(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	var req SelectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := tree.SetSelected(id, req.Selected, req.Propagate); err != nil {
		api.HandleError(w, err)
		return
	}

	state, err := tree.SelectionState(id)
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, SelectionResponse{ID: id, State: state})
}

func (h *TreeHandler) State(w http.ResponseWriter, r *http.Request) {
	tree, ok := h.lookup(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	h.mu.Lock()
	defer h.mu.Unlock()

	state, err := tree.SelectionState(id)
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, SelectionResponse{ID: id, State: state})
}

type SelectedPagesResponse struct {
	SpaceKey string   `json:"space_key"`
	PageIDs  []string `json:"page_ids"`
}

func (h *TreeHandler) Selected(w http.ResponseWriter, r *http.Request) {
	tree, ok := h.lookup(w, r)
	if !ok {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	api.Success(w, http.StatusOK, SelectedPagesResponse{
		SpaceKey: tree.SpaceKey(),
		PageIDs:  tree.SelectedPageIDs(),
	})
}

// lookup resolves the tree for the space key in the URL. It writes the
// error response itself when the tree is missing.
func (h *TreeHandler) lookup(w http.ResponseWriter, r *http.Request) (*wiki.PageTree, bool) {
	key := chi.URLParam(r, "key")
	if key == "" {
		api.Error(w, http.StatusBadRequest, "space key is required")
		return nil, false
	}

	h.mu.Lock()
	tree, ok := h.trees[key]
	h.mu.Unlock()
	if !ok {
		api.Error(w, http.StatusNotFound, "tree not initialized for space "+key)
		return nil, false
	}
	return tree, true
}
