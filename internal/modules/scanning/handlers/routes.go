package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all scan routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/scans", func(r chi.Router) {
		r.Post("/", h.HandleStart)
		r.Get("/", h.HandleList)
		r.Get("/{runID}", h.HandleGet)
	})
}
