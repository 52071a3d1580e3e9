package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/othala/internal/assetservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *assetservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Asset commands.
	r.Get("/assets", h.ListAssets)
	r.Post("/assets", h.CreateAsset)
	r.Get("/assets/{id}", h.GetAsset)
	r.Put("/assets/{id}", h.UpdateAsset)
	r.Delete("/assets/{id}", h.DeleteAsset)

	// Derived entities.
	r.Get("/assets/{id}/entities", h.GetEntities)

	// Panel search.
	r.Get("/search", h.Search)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
