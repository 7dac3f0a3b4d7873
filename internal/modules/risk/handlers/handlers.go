// Package handlers provides HTTP handlers for risk sizing operations.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/compass/internal/modules/risk"
)

// Handler handles risk sizing HTTP requests
type Handler struct {
	manager *risk.Manager
	log     zerolog.Logger
}

// NewHandler creates a new risk handler
func NewHandler(manager *risk.Manager, log zerolog.Logger) *Handler {
	return &Handler{
		manager: manager,
		log:     log.With().Str("handler", "risk").Logger(),
	}
}

type positionSizeRequest struct {
	AccountBalance float64 `json:"account_balance"`
	RiskPerTrade   float64 `json:"risk_per_trade"`
}

// HandlePositionSize handles POST /api/risk/position-size
func (h *Handler) HandlePositionSize(w http.ResponseWriter, r *http.Request) {
	var req positionSizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	size, err := h.manager.PositionSize(req.AccountBalance, req.RiskPerTrade)
	if err != nil {
		if errors.Is(err, risk.ErrInvalidRiskInput) {
			h.writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		h.log.Error().Err(err).Msg("Position sizing failed")
		h.writeError(w, http.StatusInternalServerError, "Position sizing failed")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"position_size":   size,
			"account_balance": req.AccountBalance,
			"risk_per_trade":  effectiveRisk(req.RiskPerTrade),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

type stopLossRequest struct {
	EntryPrice   float64 `json:"entry_price"`
	RiskPerTrade float64 `json:"risk_per_trade"`
}

// HandleStopLoss handles POST /api/risk/stop-loss
func (h *Handler) HandleStopLoss(w http.ResponseWriter, r *http.Request) {
	var req stopLossRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	stop, err := h.manager.StopLossPrice(req.EntryPrice, req.RiskPerTrade)
	if err != nil {
		if errors.Is(err, risk.ErrInvalidRiskInput) {
			h.writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		h.log.Error().Err(err).Msg("Stop loss calculation failed")
		h.writeError(w, http.StatusInternalServerError, "Stop loss calculation failed")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"stop_loss_price": stop,
			"entry_price":     req.EntryPrice,
			"risk_per_trade":  effectiveRisk(req.RiskPerTrade),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

func effectiveRisk(riskPerTrade float64) float64 {
	if riskPerTrade == 0 {
		return risk.DefaultRiskPerTrade
	}
	return riskPerTrade
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
