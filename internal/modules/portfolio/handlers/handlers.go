// Package handlers provides HTTP handlers for portfolio valuation.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"tradewarden/internal/modules/portfolio"
)

// Valuator produces portfolio snapshots.
type Valuator interface {
	Valuate(ctx context.Context) (*portfolio.Snapshot, error)
}

// PortfolioHandlers contains HTTP handlers for the portfolio API.
type PortfolioHandlers struct {
	valuator Valuator
	log      zerolog.Logger
}

// NewPortfolioHandlers creates a new portfolio handlers instance.
func NewPortfolioHandlers(valuator Valuator, log zerolog.Logger) *PortfolioHandlers {
	return &PortfolioHandlers{
		valuator: valuator,
		log:      log.With().Str("handler", "portfolio").Logger(),
	}
}

// HandleGetPortfolio returns a fresh portfolio valuation.
// GET /api/portfolio
func (h *PortfolioHandlers) HandleGetPortfolio(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.valuator.Valuate(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to valuate portfolio")
		http.Error(w, "Failed to valuate portfolio", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snapshot); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode portfolio response")
	}
}
