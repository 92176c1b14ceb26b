package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the policy routes.
func (h *PolicyHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/policy", func(r chi.Router) {
		r.Get("/", h.HandleGetPolicy)
		r.Get("/{name}", func(w http.ResponseWriter, req *http.Request) {
			h.HandleGetPolicyByName(w, req, chi.URLParam(req, "name"))
		})
	})
}
