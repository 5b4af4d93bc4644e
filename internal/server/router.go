package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/loreline-ai/loreline/internal/api"
	"github.com/loreline-ai/loreline/internal/api/handlers"
	"github.com/loreline-ai/loreline/internal/api/middleware"
)

type RouterConfig struct {
	APIToken        string
	DocumentHandler *handlers.DocumentHandler
	SearchHandler   *handlers.SearchHandler
	SyncHandler     *handlers.SyncHandler
	TreeHandler     *handlers.TreeHandler
	SettingsHandler *handlers.SettingsHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 25 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.BearerAuth(cfg.APIToken))

		r.Route("/documents", func(r chi.Router) {
			r.Post("/", cfg.DocumentHandler.Create)
			r.Get("/", cfg.DocumentHandler.List)
			r.Get("/{id}", cfg.DocumentHandler.Get)
			r.Get("/{id}/archive", cfg.DocumentHandler.Archive)
			r.Delete("/{id}", cfg.DocumentHandler.Delete)
		})

		r.Post("/search", cfg.SearchHandler.Search)
		r.Post("/search/details", cfg.SearchHandler.SearchDetails)
		r.Post("/augment", cfg.SearchHandler.Augment)

		r.Post("/collections/{key}/sync", cfg.SyncHandler.Sync)

		r.Get("/spaces", cfg.TreeHandler.ListSpaces)
		r.Route("/spaces/{key}/tree", func(r chi.Router) {
			r.Post("/", cfg.TreeHandler.Init)
			r.Get("/", cfg.TreeHandler.Get)
			r.Get("/selected", cfg.TreeHandler.Selected)
			r.Post("/{id}/expand", cfg.TreeHandler.Expand)
			r.Post("/{id}/collapse", cfg.TreeHandler.Collapse)
			r.Put("/{id}/selected", cfg.TreeHandler.Select)
			r.Get("/{id}/state", cfg.TreeHandler.State)
		})

		r.Get("/stats", cfg.SettingsHandler.Stats)
		r.Put("/settings/enabled", cfg.SettingsHandler.SetEnabled)
		r.Put("/settings/backend", cfg.SettingsHandler.SetBackend)
	})

	return r
}
