// Package handlers provides HTTP handlers for the trade pipeline API.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"tradewarden/internal/modules/audit"
	"tradewarden/internal/modules/trading"
)

// PipelineService runs the trade decision pipeline.
type PipelineService interface {
	Decide(ctx context.Context, p trading.BuildParams) (*trading.DecisionOutcome, error)
	Validate(ctx context.Context, p trading.BuildParams) (*trading.DecisionOutcome, error)
}

// HistorySource answers trade history queries.
type HistorySource interface {
	History(limit int) (audit.History, error)
}

// TradingHandlers contains HTTP handlers for the trading API.
type TradingHandlers struct {
	service PipelineService
	history HistorySource
	log     zerolog.Logger
}

// NewTradingHandlers creates a new trading handlers instance.
func NewTradingHandlers(service PipelineService, history HistorySource, log zerolog.Logger) *TradingHandlers {
	return &TradingHandlers{
		service: service,
		history: history,
		log:     log.With().Str("handler", "trading").Logger(),
	}
}

// HandleDecision runs the full pipeline: build, validate, execute or record
// the rejection.
// POST /api/trades/decision
func (h *TradingHandlers) HandleDecision(w http.ResponseWriter, r *http.Request) {
	params, ok := h.decodeParams(w, r)
	if !ok {
		return
	}

	outcome, err := h.service.Decide(r.Context(), params)
	if err != nil {
		h.log.Error().Err(err).Msg("Pipeline run failed")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, outcome)
}

// HandleValidate builds and validates a request without executing it.
// POST /api/trades/validate
func (h *TradingHandlers) HandleValidate(w http.ResponseWriter, r *http.Request) {
	params, ok := h.decodeParams(w, r)
	if !ok {
		return
	}

	outcome, err := h.service.Validate(r.Context(), params)
	if err != nil {
		h.log.Error().Err(err).Msg("Validation run failed")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, outcome)
}

// HandleGetTrades returns recent audit records and today's trade count.
// GET /api/trades?limit=20
func (h *TradingHandlers) HandleGetTrades(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
		if parsed, err := strconv.Atoi(limitParam); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	hist, err := h.history.History(limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get trade history")
		http.Error(w, "Failed to get trade history", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, hist)
}

// decodeParams parses the request body, rejecting malformed payloads at the
// boundary rather than deep inside the pipeline.
func (h *TradingHandlers) decodeParams(w http.ResponseWriter, r *http.Request) (trading.BuildParams, bool) {
	var params trading.BuildParams

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&params); err != nil {
		h.log.Warn().Err(err).Msg("Rejected malformed trade payload")
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return trading.BuildParams{}, false
	}

	return params, true
}

func (h *TradingHandlers) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}
