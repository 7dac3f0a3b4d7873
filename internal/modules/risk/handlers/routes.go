package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all risk sizing routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/risk", func(r chi.Router) {
		r.Post("/position-size", h.HandlePositionSize)
		r.Post("/stop-loss", h.HandleStopLoss)
	})
}
