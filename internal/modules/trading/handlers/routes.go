package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all trading routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/trading", func(r chi.Router) {
		r.Post("/analyze", h.HandleAnalyze)
		r.Post("/execute", h.HandleExecute)
		r.Get("/history", h.HandleHistory)
	})
}
