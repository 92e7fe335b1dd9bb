package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(h *Handler, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Notes CRUD and per-note operations.
	r.Get("/notes", h.ListNotes)
	r.Post("/notes", h.CreateNote)
	r.Get("/notes/{id}", h.GetNote)
	r.Delete("/notes/{id}", h.DeleteNote)
	r.Put("/notes/{id}/title", h.RenameNote)
	r.Put("/notes/{id}/content", h.UpdateContent)
	r.Post("/notes/{id}/tags", h.AddTag)
	r.Delete("/notes/{id}/tags/{tag}", h.RemoveTag)

	// View state.
	r.Get("/view", h.GetView)
	r.Put("/view", h.UpdateView)

	// Contact-form relay.
	r.Post("/mail", h.SendMail)

	// Web search proxy.
	r.Get("/search", h.WebSearch)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
