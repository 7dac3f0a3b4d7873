// Package handlers exposes rebalancing advice for ad-hoc plans that are
// not stored in the repository. Stored plans get their advice through
// the /plans/{id}/recommendations route instead.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/compass/internal/events"
	"github.com/aristath/compass/internal/modules/allocation"
	"github.com/aristath/compass/internal/modules/planning"
)

// Handler handles allocation advice HTTP requests
type Handler struct {
	advisor      *allocation.Advisor
	eventManager *events.Manager
	log          zerolog.Logger
}

// NewHandler creates a new allocation handler
func NewHandler(advisor *allocation.Advisor, eventManager *events.Manager, log zerolog.Logger) *Handler {
	return &Handler{
		advisor:      advisor,
		eventManager: eventManager,
		log:          log.With().Str("handler", "allocation").Logger(),
	}
}

// RegisterRoutes registers allocation routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/recommendations", h.HandleRecommendations)
}

type recommendRequest struct {
	Plan *planning.Plan `json:"plan"`
}

// HandleRecommendations produces drift suggestions and risk warnings
// for an inline plan.
func (h *Handler) HandleRecommendations(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Plan == nil {
		h.writeError(w, http.StatusBadRequest, "plan is required")
		return
	}

	set := h.advisor.Recommend(req.Plan)

	if h.eventManager != nil {
		h.eventManager.EmitTyped(events.RecommendationsReady, "allocation", &events.RecommendationsReadyData{
			PlanID: req.Plan.ID,
			Count:  len(set.AssetAllocation),
		})
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"plan_id":          req.Plan.ID,
		"asset_allocation": set.AssetAllocation,
		"risk_management":  set.RiskManagement,
	})
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
