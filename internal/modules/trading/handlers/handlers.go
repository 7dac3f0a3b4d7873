// Package handlers provides HTTP handlers for signal analysis and
// paper trade execution.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/compass/internal/modules/risk"
	"github.com/aristath/compass/internal/modules/trading"
)

// defaultHistoryLimit caps trade history responses when no limit is given
const defaultHistoryLimit = 50

// TradeStore is the journal read surface the handlers need
type TradeStore interface {
	GetHistory(limit int) ([]trading.Trade, error)
	GetByAsset(asset string, limit int) ([]trading.Trade, error)
	GetAllInRange(startDate, endDate string) ([]trading.Trade, error)
	CountToday() (int, error)
}

// Handler contains HTTP handlers for the trading API
type Handler struct {
	engine *trading.Engine
	trades TradeStore
	log    zerolog.Logger
}

// NewHandler creates a new trading handler
func NewHandler(engine *trading.Engine, trades TradeStore, log zerolog.Logger) *Handler {
	return &Handler{
		engine: engine,
		trades: trades,
		log:    log.With().Str("handler", "trading").Logger(),
	}
}

type analyzeRequest struct {
	Asset  string    `json:"asset"`
	Prices []float64 `json:"prices"`
}

// HandleAnalyze runs both signal strategies over a price history
// POST /api/trading/analyze
func (h *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	opportunity, err := h.engine.AnalyzeOpportunity(req.Asset, req.Prices)
	if err != nil {
		switch {
		case errors.Is(err, trading.ErrInvalidTrade):
			h.writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, trading.ErrInvalidWindow), errors.Is(err, trading.ErrNaNInput):
			h.writeError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			h.log.Error().Err(err).Str("asset", req.Asset).Msg("Failed to analyze opportunity")
			h.writeError(w, http.StatusInternalServerError, "Failed to analyze opportunity")
		}
		return
	}

	h.writeJSON(w, http.StatusOK, opportunity)
}

// HandleExecute records a paper trade
// POST /api/trading/execute
func (h *Handler) HandleExecute(w http.ResponseWriter, r *http.Request) {
	var req trading.ExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.engine.ExecuteTrade(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, trading.ErrInvalidTrade):
			h.writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, trading.ErrPositionTooLarge), errors.Is(err, risk.ErrInvalidRiskInput):
			h.writeError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			h.log.Error().Err(err).Str("asset", req.Asset).Msg("Failed to execute trade")
			h.writeError(w, http.StatusInternalServerError, "Trade execution failed")
		}
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// HandleHistory returns journal rows, most recent first. Supports
// limit, asset, and start_date/end_date query parameters.
// GET /api/trading/history
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
		if parsed, err := strconv.Atoi(limitParam); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	asset := r.URL.Query().Get("asset")
	startDate := r.URL.Query().Get("start_date")
	endDate := r.URL.Query().Get("end_date")

	if (startDate == "") != (endDate == "") {
		h.writeError(w, http.StatusBadRequest, "start_date and end_date must be provided together")
		return
	}
	for _, date := range []string{startDate, endDate} {
		if date == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", date); err != nil {
			h.writeError(w, http.StatusBadRequest, "dates must use the YYYY-MM-DD format")
			return
		}
	}

	var trades []trading.Trade
	var err error
	switch {
	case startDate != "":
		trades, err = h.trades.GetAllInRange(startDate, endDate)
	case asset != "":
		trades, err = h.trades.GetByAsset(asset, limit)
	default:
		trades, err = h.trades.GetHistory(limit)
	}
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get trade history")
		h.writeError(w, http.StatusInternalServerError, "Failed to get trade history")
		return
	}

	tradesToday, err := h.trades.CountToday()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to count today's trades")
		h.writeError(w, http.StatusInternalServerError, "Failed to get trade history")
		return
	}

	if trades == nil {
		trades = []trading.Trade{}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"trades":       trades,
		"count":        len(trades),
		"trades_today": tradesToday,
	})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes an error response
func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
