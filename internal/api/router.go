package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/questlog/internal/questservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *questservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Route("/quests", func(r chi.Router) {
		r.Get("/", h.ListQuests)
		r.Post("/", h.CreateQuest)
		r.Get("/{id}", h.GetQuest)
		r.Patch("/{id}", h.UpdateQuest)
		r.Delete("/{id}", h.DeleteQuest)
		r.Post("/{id}/objectives", h.CreateObjective)
		r.Put("/{id}/objectives", h.ReorderObjectives)
	})

	r.Patch("/objectives/{id}", h.UpdateObjective)
	r.Delete("/objectives/{id}", h.DeleteObjective)

	r.Route("/domains", func(r chi.Router) {
		r.Get("/", h.ListDomains)
		r.Post("/", h.CreateDomain)
		r.Put("/", h.ReorderDomains)
		r.Patch("/{id}", h.UpdateDomain)
		r.Delete("/{id}", h.DeleteDomain)
	})

	r.Get("/search", h.Search)

	r.Get("/settings", h.GetSettings)
	r.Put("/settings", h.PutSettings)
	r.Post("/import", h.Import)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
