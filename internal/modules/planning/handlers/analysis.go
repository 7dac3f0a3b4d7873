package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/aristath/compass/internal/events"
	"github.com/aristath/compass/internal/modules/optimization"
	"github.com/aristath/compass/internal/modules/planning"
	"github.com/aristath/compass/internal/modules/simulation"
	"github.com/aristath/compass/pkg/formulas"
)

// HandleOptimize handles POST /api/plans/{id}/optimize?strategy=
// Rewrites the stored plan's allocation under the named strategy and
// returns both versions plus a validation of the optimized one. Results
// are cached by plan identity and strategy.
func (h *Handler) HandleOptimize(w http.ResponseWriter, r *http.Request) {
	plan, ok := h.loadPlan(w, r)
	if !ok {
		return
	}

	raw := r.URL.Query().Get("strategy")
	strategy, known := optimization.ParseStrategy(raw)
	if !known && raw != "" {
		h.log.Warn().Str("strategy", raw).Msg("Unknown optimization strategy, using balanced")
	}

	key := simulation.PlanKey(plan, "optimize", string(strategy))

	var result optimization.Result
	cached := h.cache != nil && h.cache.Get(key, &result)
	if !cached {
		optimized, err := h.optimizer.Optimize(plan, strategy)
		if err != nil {
			if errors.Is(err, formulas.ErrZeroAllocation) {
				http.Error(w, err.Error(), http.StatusUnprocessableEntity)
				return
			}
			h.log.Error().Err(err).Str("plan_id", plan.ID).Msg("Optimization failed")
			http.Error(w, "Optimization failed", http.StatusInternalServerError)
			return
		}

		result = optimization.Result{
			Status:        "success",
			Strategy:      strategy,
			OriginalPlan:  plan,
			OptimizedPlan: optimized,
			Validation:    planning.Validate(optimized),
		}
		if h.cache != nil {
			if err := h.cache.Set(key, &result); err != nil {
				h.log.Warn().Err(err).Msg("Failed to cache optimization result")
			}
		}
	}

	if h.eventManager != nil {
		h.eventManager.EmitTyped(events.AllocationOptimized, "planning", &events.AllocationOptimizedData{
			PlanID:   plan.ID,
			Name:     plan.Name,
			Strategy: string(strategy),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

type simulateRequest struct {
	Trials            int     `json:"trials"`
	InitialInvestment float64 `json:"initial_investment"`
}

// HandleSimulate handles POST /api/plans/{id}/simulate
// Runs a Monte Carlo projection for the stored plan. An empty body
// means default parameters. The cache key matches the one used by the
// /simulations/run route, so both share entries.
func (h *Handler) HandleSimulate(w http.ResponseWriter, r *http.Request) {
	plan, ok := h.loadPlan(w, r)
	if !ok {
		return
	}

	var req simulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	params, err := simulation.Params{Trials: req.Trials, InitialInvestment: req.InitialInvestment}.WithDefaults()
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	key := simulation.PlanKey(plan, "run",
		fmt.Sprintf("trials=%d", params.Trials),
		fmt.Sprintf("initial=%g", params.InitialInvestment))

	var result simulation.Result
	cached := h.cache != nil && h.cache.Get(key, &result)
	if !cached {
		res, err := h.engine.Run(plan, params)
		if err != nil {
			h.log.Error().Err(err).Str("plan_id", plan.ID).Msg("Simulation failed")
			http.Error(w, "Simulation failed", http.StatusInternalServerError)
			return
		}
		result = *res
		if h.cache != nil {
			if err := h.cache.Set(key, res); err != nil {
				h.log.Warn().Err(err).Msg("Failed to cache simulation result")
			}
		}
	}

	if h.eventManager != nil {
		h.eventManager.EmitTyped(events.SimulationCompleted, "planning", &events.SimulationCompletedData{
			PlanID:             plan.ID,
			Trials:             result.Trials,
			MeanFinalValue:     result.MeanFinalValue,
			SuccessProbability: result.SuccessProbability,
			Cached:             cached,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    "success",
		"plan_id":   plan.ID,
		"plan_name": plan.Name,
		"cached":    cached,
		"result":    result,
	})
}

// HandleRecommendations handles GET /api/plans/{id}/recommendations
// Compares the stored plan against its risk-tier target allocation.
func (h *Handler) HandleRecommendations(w http.ResponseWriter, r *http.Request) {
	plan, ok := h.loadPlan(w, r)
	if !ok {
		return
	}

	set := h.advisor.Recommend(plan)

	if h.eventManager != nil {
		h.eventManager.EmitTyped(events.RecommendationsReady, "planning", &events.RecommendationsReadyData{
			PlanID: plan.ID,
			Count:  len(set.AssetAllocation),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"plan_id":          plan.ID,
		"asset_allocation": set.AssetAllocation,
		"risk_management":  set.RiskManagement,
	})
}
