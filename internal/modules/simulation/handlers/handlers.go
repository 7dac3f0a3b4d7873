// Package handlers provides HTTP handlers for Monte Carlo simulation runs.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/compass/internal/events"
	"github.com/aristath/compass/internal/modules/planning"
	"github.com/aristath/compass/internal/modules/settings"
	"github.com/aristath/compass/internal/modules/simulation"
)

// PlanGetter loads stored plans for requests that reference one by id.
type PlanGetter interface {
	GetByID(id string) (*planning.Plan, error)
}

// Handler provides HTTP handlers for simulation endpoints
type Handler struct {
	engine        *simulation.Engine
	cache         *simulation.Cache
	plans         PlanGetter
	settings      *settings.Repository
	defaultTrials int
	eventManager  *events.Manager
	log           zerolog.Logger
}

// NewHandler creates a new simulation handler. defaultTrials is the trial
// count applied when a request omits it and no simulation_trials_default
// setting is stored; non-positive values fall back to the package default.
func NewHandler(engine *simulation.Engine, cache *simulation.Cache, plans PlanGetter, settingsRepo *settings.Repository, defaultTrials int, eventManager *events.Manager, log zerolog.Logger) *Handler {
	if defaultTrials <= 0 {
		defaultTrials = simulation.DefaultTrials
	}
	return &Handler{
		engine:        engine,
		cache:         cache,
		plans:         plans,
		settings:      settingsRepo,
		defaultTrials: defaultTrials,
		eventManager:  eventManager,
		log:           log.With().Str("handler", "simulations").Logger(),
	}
}

// RegisterRoutes registers all simulation routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/simulations", func(r chi.Router) {
		r.Post("/run", h.HandleRun)
		r.Post("/batch", h.HandleBatch)
	})
}

type runRequest struct {
	PlanID            string         `json:"plan_id"`
	Plan              *planning.Plan `json:"plan"`
	Trials            int            `json:"trials"`
	InitialInvestment float64        `json:"initial_investment"`
}

type batchRequest struct {
	PlanIDs           []string         `json:"plan_ids"`
	Plans             []*planning.Plan `json:"plans"`
	Trials            int              `json:"trials"`
	InitialInvestment float64          `json:"initial_investment"`
	Seed              uint64           `json:"seed"`
}

// HandleRun handles POST /api/simulations/run
// Accepts either an inline plan or a plan_id referencing a stored plan.
// Results are cached by plan identity and parameters.
func (h *Handler) HandleRun(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	plan, ok := h.resolvePlan(w, req.Plan, req.PlanID)
	if !ok {
		return
	}

	params, err := h.requestParams(req.Trials, req.InitialInvestment)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	key := simulation.PlanKey(plan, "run",
		fmt.Sprintf("trials=%d", params.Trials),
		fmt.Sprintf("initial=%g", params.InitialInvestment))

	var result simulation.Result
	cached := h.cache.Get(key, &result)
	if !cached {
		res, err := h.engine.Run(plan, params)
		if err != nil {
			h.writeRunError(w, err)
			return
		}
		result = *res
		if err := h.cache.Set(key, res); err != nil {
			h.log.Warn().Err(err).Msg("Failed to cache simulation result")
		}
	}

	if h.eventManager != nil {
		h.eventManager.EmitTyped(events.SimulationCompleted, "simulation", &events.SimulationCompletedData{
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

// HandleBatch handles POST /api/simulations/batch
// Simulates several plans in one call. A caller-supplied seed makes the
// whole batch reproducible; when omitted a fresh seed is derived and
// echoed back in the response.
func (h *Handler) HandleBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	plans := req.Plans
	for _, id := range req.PlanIDs {
		plan, err := h.plans.GetByID(id)
		if err != nil {
			h.log.Error().Err(err).Str("plan_id", id).Msg("Failed to load plan")
			http.Error(w, "Failed to load plan", http.StatusInternalServerError)
			return
		}
		if plan == nil {
			http.Error(w, fmt.Sprintf("Investment plan %s not found", id), http.StatusNotFound)
			return
		}
		plans = append(plans, plan)
	}
	if len(plans) == 0 {
		http.Error(w, "plans or plan_ids is required", http.StatusBadRequest)
		return
	}

	params, err := h.requestParams(req.Trials, req.InitialInvestment)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	seed := req.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	results, err := h.engine.RunBatch(r.Context(), plans, params, seed)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			h.log.Debug().Msg("Batch simulation cancelled by client")
			return
		}
		h.log.Error().Err(err).Msg("Batch simulation failed")
		http.Error(w, "Batch simulation failed", http.StatusInternalServerError)
		return
	}

	if h.eventManager != nil {
		for _, br := range results {
			if br.Result == nil {
				continue
			}
			h.eventManager.EmitTyped(events.SimulationCompleted, "simulation", &events.SimulationCompletedData{
				PlanID:             br.PlanID,
				Trials:             br.Result.Trials,
				MeanFinalValue:     br.Result.MeanFinalValue,
				SuccessProbability: br.Result.SuccessProbability,
			})
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "success",
		"count":   len(results),
		"seed":    seed,
		"results": results,
	})
}

// requestParams fills omitted request fields from stored settings, then
// from the configured defaults, and validates the result.
func (h *Handler) requestParams(trials int, initial float64) (simulation.Params, error) {
	if trials == 0 {
		trials = h.settingInt("simulation_trials_default", h.defaultTrials)
	}
	if initial == 0 {
		initial = h.settingFloat("simulation_initial_investment", 0)
	}
	return simulation.Params{Trials: trials, InitialInvestment: initial}.WithDefaults()
}

// settingInt reads a stored integer setting, ignoring values that are
// missing, unreadable, or not positive.
func (h *Handler) settingInt(key string, fallback int) int {
	if h.settings == nil {
		return fallback
	}
	value, err := h.settings.GetInt(key, fallback)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

// settingFloat reads a stored float setting with the same fallback rules.
func (h *Handler) settingFloat(key string, fallback float64) float64 {
	if h.settings == nil {
		return fallback
	}
	value, err := h.settings.GetFloat(key, fallback)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

// resolvePlan picks the inline plan or loads the referenced one, writing
// the error response itself when neither works out.
func (h *Handler) resolvePlan(w http.ResponseWriter, inline *planning.Plan, planID string) (*planning.Plan, bool) {
	if inline != nil {
		return inline, true
	}
	if planID == "" {
		http.Error(w, "plan or plan_id is required", http.StatusBadRequest)
		return nil, false
	}

	plan, err := h.plans.GetByID(planID)
	if err != nil {
		h.log.Error().Err(err).Str("plan_id", planID).Msg("Failed to load plan")
		http.Error(w, "Failed to load plan", http.StatusInternalServerError)
		return nil, false
	}
	if plan == nil {
		http.Error(w, fmt.Sprintf("Investment plan %s not found", planID), http.StatusNotFound)
		return nil, false
	}
	return plan, true
}

// writeRunError maps engine errors onto HTTP status codes.
func (h *Handler) writeRunError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, simulation.ErrInvalidTrials),
		errors.Is(err, simulation.ErrInvalidInvestment),
		errors.Is(err, simulation.ErrInvalidAllocation):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		h.log.Error().Err(err).Msg("Simulation failed")
		http.Error(w, "Simulation failed", http.StatusInternalServerError)
	}
}
