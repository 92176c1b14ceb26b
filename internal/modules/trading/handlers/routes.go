package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the trading routes.
func (h *TradingHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/trades", func(r chi.Router) {
		r.Get("/", h.HandleGetTrades)
		r.Post("/decision", h.HandleDecision)
		r.Post("/validate", h.HandleValidate)
	})
}
