// Package handlers exposes strategy optimization for ad-hoc plans that
// are not stored in the repository. Stored plans are optimized through
// the /plans/{id}/optimize route instead.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/compass/internal/events"
	"github.com/aristath/compass/internal/modules/optimization"
	"github.com/aristath/compass/internal/modules/planning"
	"github.com/aristath/compass/internal/modules/simulation"
	"github.com/aristath/compass/pkg/formulas"
)

// Handler handles optimization HTTP requests
type Handler struct {
	optimizer    *optimization.Optimizer
	cache        *simulation.Cache
	eventManager *events.Manager
	log          zerolog.Logger
}

// NewHandler creates a new optimization handler
func NewHandler(optimizer *optimization.Optimizer, cache *simulation.Cache, eventManager *events.Manager, log zerolog.Logger) *Handler {
	return &Handler{
		optimizer:    optimizer,
		cache:        cache,
		eventManager: eventManager,
		log:          log.With().Str("handler", "optimization").Logger(),
	}
}

// RegisterRoutes registers optimization routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/optimize", h.HandleOptimize)
}

type optimizeRequest struct {
	Plan     *planning.Plan `json:"plan"`
	Strategy string         `json:"strategy"`
}

// HandleOptimize applies a strategy to an inline plan and returns the
// adjusted copy together with its validation result.
func (h *Handler) HandleOptimize(w http.ResponseWriter, r *http.Request) {
	var req optimizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Plan == nil {
		http.Error(w, "plan is required", http.StatusBadRequest)
		return
	}

	strategy, known := optimization.ParseStrategy(req.Strategy)
	if !known && req.Strategy != "" {
		h.log.Warn().Str("strategy", req.Strategy).Msg("Unknown optimization strategy, using balanced")
	}

	key := simulation.PlanKey(req.Plan, "optimize", string(strategy))
	var result optimization.Result
	if h.cache == nil || !h.cache.Get(key, &result) {
		optimized, err := h.optimizer.Optimize(req.Plan, strategy)
		if err != nil {
			if errors.Is(err, formulas.ErrZeroAllocation) {
				http.Error(w, err.Error(), http.StatusUnprocessableEntity)
				return
			}
			h.log.Error().Err(err).Msg("Optimization failed")
			http.Error(w, "Optimization failed", http.StatusInternalServerError)
			return
		}

		result = optimization.Result{
			Status:        "success",
			Strategy:      strategy,
			OriginalPlan:  req.Plan,
			OptimizedPlan: optimized,
			Validation:    planning.Validate(optimized),
		}
		if h.cache != nil {
			if err := h.cache.Set(key, result); err != nil {
				h.log.Warn().Err(err).Msg("Failed to cache optimization result")
			}
		}
	}

	if h.eventManager != nil {
		h.eventManager.EmitTyped(events.AllocationOptimized, "optimization", &events.AllocationOptimizedData{
			PlanID:   req.Plan.ID,
			Name:     req.Plan.Name,
			Strategy: string(strategy),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}
