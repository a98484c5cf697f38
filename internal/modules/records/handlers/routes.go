package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all records routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/records", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Get("/export", h.HandleExport)
	})
}
