// Package handlers provides HTTP handlers for the policy API.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"tradewarden/internal/modules/policy"
)

// PolicyProvider loads policy documents by name.
type PolicyProvider interface {
	Load(name string) (*policy.Document, error)
}

// PolicyHandlers contains HTTP handlers for the policy API.
type PolicyHandlers struct {
	policies   PolicyProvider
	activeName string
	log        zerolog.Logger
}

// NewPolicyHandlers creates a new policy handlers instance. activeName is the
// policy the pipeline currently validates against.
func NewPolicyHandlers(policies PolicyProvider, activeName string, log zerolog.Logger) *PolicyHandlers {
	return &PolicyHandlers{
		policies:   policies,
		activeName: activeName,
		log:        log.With().Str("handler", "policy").Logger(),
	}
}

// HandleGetPolicy returns the active policy document.
// GET /api/policy
func (h *PolicyHandlers) HandleGetPolicy(w http.ResponseWriter, r *http.Request) {
	doc, err := h.policies.Load(h.activeName)
	if err != nil {
		h.log.Error().Err(err).Str("policy", h.activeName).Msg("Failed to load policy")
		http.Error(w, "Failed to load policy", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(doc); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode policy response")
	}
}

// HandleGetPolicyByName returns a specific policy document.
// GET /api/policy/{name}
func (h *PolicyHandlers) HandleGetPolicyByName(w http.ResponseWriter, r *http.Request, name string) {
	doc, err := h.policies.Load(name)
	if err != nil {
		h.log.Warn().Err(err).Str("policy", name).Msg("Policy not found")
		http.Error(w, "Policy not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(doc); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode policy response")
	}
}
