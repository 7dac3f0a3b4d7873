// Package handlers provides HTTP handlers for investment plan management:
// CRUD over stored plans, standalone validation, and the plan-scoped
// optimization and recommendation endpoints.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/compass/internal/events"
	"github.com/aristath/compass/internal/modules/allocation"
	"github.com/aristath/compass/internal/modules/optimization"
	"github.com/aristath/compass/internal/modules/planning"
	"github.com/aristath/compass/internal/modules/simulation"
)

// PlanRepository is the storage surface the plan endpoints need.
type PlanRepository interface {
	Create(plan *planning.Plan) error
	GetByID(id string) (*planning.Plan, error)
	List(filter planning.Filter) ([]*planning.Plan, error)
	Update(plan *planning.Plan) error
	Deactivate(id string) error
}

// Handler provides HTTP handlers for plan endpoints
type Handler struct {
	repo         PlanRepository
	optimizer    *optimization.Optimizer
	advisor      *allocation.Advisor
	engine       *simulation.Engine
	cache        *simulation.Cache
	eventManager *events.Manager
	log          zerolog.Logger
}

// NewHandler creates a new plan handler
func NewHandler(repo PlanRepository, optimizer *optimization.Optimizer, advisor *allocation.Advisor, engine *simulation.Engine, cache *simulation.Cache, eventManager *events.Manager, log zerolog.Logger) *Handler {
	return &Handler{
		repo:         repo,
		optimizer:    optimizer,
		advisor:      advisor,
		engine:       engine,
		cache:        cache,
		eventManager: eventManager,
		log:          log.With().Str("handler", "plans").Logger(),
	}
}

// RegisterRoutes registers all plan routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/plans", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Post("/", h.HandleCreate)
		r.Post("/validate", h.HandleValidate)
		r.Get("/{id}", h.HandleGet)
		r.Put("/{id}", h.HandleUpdate)
		r.Delete("/{id}", h.HandleDelete)
		r.Post("/{id}/optimize", h.HandleOptimize)
		r.Post("/{id}/simulate", h.HandleSimulate)
		r.Get("/{id}/recommendations", h.HandleRecommendations)
	})
}

// HandleCreate handles POST /api/plans
// Validates the submitted plan and stores it active. Validation errors
// come back as 422 with the full validation result.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var plan planning.Plan
	if err := json.NewDecoder(r.Body).Decode(&plan); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result := planning.Validate(&plan)
	if !result.IsValid {
		writeValidationFailure(w, result)
		return
	}

	plan.IsActive = true
	if err := h.repo.Create(&plan); err != nil {
		h.log.Error().Err(err).Str("name", plan.Name).Msg("Failed to create plan")
		http.Error(w, "Failed to create plan", http.StatusInternalServerError)
		return
	}

	if h.eventManager != nil {
		h.eventManager.EmitTyped(events.PlanCreated, "planning", &events.PlanCreatedData{
			PlanID:    plan.ID,
			Name:      plan.Name,
			RiskLevel: string(plan.RiskLevel),
		})
	}

	response := map[string]interface{}{
		"id":         plan.ID,
		"name":       plan.Name,
		"status":     "created",
		"created_at": plan.CreatedAt,
	}
	if len(result.Warnings) > 0 {
		response["warnings"] = result.Warnings
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(response)
}

// HandleList handles GET /api/plans
// Supports risk_level, max_investment (affordability) and active_only
// query filters.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	filter := planning.Filter{}

	q := r.URL.Query()
	if rl := q.Get("risk_level"); rl != "" {
		filter.RiskLevel = planning.RiskLevel(rl)
	}
	if budget := q.Get("max_investment"); budget != "" {
		v, err := strconv.ParseFloat(budget, 64)
		if err != nil {
			http.Error(w, "Invalid max_investment", http.StatusBadRequest)
			return
		}
		filter.MinInvestmentLTE = &v
	}
	if active := q.Get("active_only"); active != "" {
		v, err := strconv.ParseBool(active)
		if err != nil {
			http.Error(w, "Invalid active_only", http.StatusBadRequest)
			return
		}
		filter.ActiveOnly = v
	}

	plans, err := h.repo.List(filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list plans")
		http.Error(w, "Failed to list plans", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"plans": plans,
		"count": len(plans),
	})
}

// HandleGet handles GET /api/plans/{id}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	plan, ok := h.loadPlan(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(plan)
}

type updateRequest struct {
	Name                 *string            `json:"name"`
	Description          *string            `json:"description"`
	RiskLevel            *string            `json:"risk_level"`
	MinInvestment        *float64           `json:"min_investment"`
	MaxInvestment        *float64           `json:"max_investment"`
	AssetAllocation      map[string]float64 `json:"asset_allocation"`
	ExpectedReturn       *float64           `json:"expected_return"`
	Volatility           *float64           `json:"volatility"`
	InvestmentDuration   *int               `json:"investment_duration"`
	RebalancingFrequency *string            `json:"rebalancing_frequency"`
}

// HandleUpdate handles PUT /api/plans/{id}
// Only the fields present in the body change; the merged plan must
// validate before anything is written.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	plan, ok := h.loadPlan(w, r)
	if !ok {
		return
	}

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	updated := applyUpdate(plan, req)

	result := planning.Validate(plan)
	if !result.IsValid {
		writeValidationFailure(w, result)
		return
	}

	if err := h.repo.Update(plan); err != nil {
		if errors.Is(err, planning.ErrNotFound) {
			http.Error(w, fmt.Sprintf("Investment plan %s not found", plan.ID), http.StatusNotFound)
			return
		}
		h.log.Error().Err(err).Str("plan_id", plan.ID).Msg("Failed to update plan")
		http.Error(w, "Failed to update plan", http.StatusInternalServerError)
		return
	}

	if h.eventManager != nil {
		h.eventManager.EmitTyped(events.PlanUpdated, "planning", &events.PlanUpdatedData{
			PlanID:        plan.ID,
			Name:          plan.Name,
			RiskLevel:     string(plan.RiskLevel),
			UpdatedFields: updated,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"id":         plan.ID,
		"name":       plan.Name,
		"status":     "updated",
		"updated_at": plan.UpdatedAt,
	})
}

// HandleDelete handles DELETE /api/plans/{id}
// Plans are deactivated, never removed, so history stays intact.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.repo.Deactivate(id); err != nil {
		if errors.Is(err, planning.ErrNotFound) {
			http.Error(w, fmt.Sprintf("Investment plan %s not found", id), http.StatusNotFound)
			return
		}
		h.log.Error().Err(err).Str("plan_id", id).Msg("Failed to deactivate plan")
		http.Error(w, "Failed to deactivate plan", http.StatusInternalServerError)
		return
	}

	if h.eventManager != nil {
		h.eventManager.EmitTyped(events.PlanDeactivated, "planning", &events.PlanDeactivatedData{
			PlanID: id,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"id":     id,
		"status": "deactivated",
	})
}

// HandleValidate handles POST /api/plans/validate
// Always answers 200; the verdict lives in the body.
func (h *Handler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	var plan planning.Plan
	if err := json.NewDecoder(r.Body).Decode(&plan); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result := planning.Validate(&plan)

	if h.eventManager != nil {
		h.eventManager.EmitTyped(events.PlanValidated, "planning", &events.PlanValidatedData{
			PlanID:       plan.ID,
			Name:         plan.Name,
			IsValid:      result.IsValid,
			ErrorCount:   len(result.Errors),
			WarningCount: len(result.Warnings),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// loadPlan fetches the plan named by the {id} URL parameter, writing the
// error response itself when the plan cannot be served.
func (h *Handler) loadPlan(w http.ResponseWriter, r *http.Request) (*planning.Plan, bool) {
	id := chi.URLParam(r, "id")

	plan, err := h.repo.GetByID(id)
	if err != nil {
		h.log.Error().Err(err).Str("plan_id", id).Msg("Failed to load plan")
		http.Error(w, "Failed to load plan", http.StatusInternalServerError)
		return nil, false
	}
	if plan == nil {
		http.Error(w, fmt.Sprintf("Investment plan %s not found", id), http.StatusNotFound)
		return nil, false
	}
	return plan, true
}

// applyUpdate copies the provided fields onto the plan and returns the
// names of the fields that changed.
func applyUpdate(plan *planning.Plan, req updateRequest) []string {
	updated := make([]string, 0, 4)

	if req.Name != nil {
		plan.Name = *req.Name
		updated = append(updated, "name")
	}
	if req.Description != nil {
		plan.Description = *req.Description
		updated = append(updated, "description")
	}
	if req.RiskLevel != nil {
		plan.RiskLevel = planning.RiskLevel(*req.RiskLevel)
		updated = append(updated, "risk_level")
	}
	if req.MinInvestment != nil {
		plan.MinInvestment = *req.MinInvestment
		updated = append(updated, "min_investment")
	}
	if req.MaxInvestment != nil {
		plan.MaxInvestment = req.MaxInvestment
		updated = append(updated, "max_investment")
	}
	if req.AssetAllocation != nil {
		plan.AssetAllocation = req.AssetAllocation
		updated = append(updated, "asset_allocation")
	}
	if req.ExpectedReturn != nil {
		plan.ExpectedReturn = *req.ExpectedReturn
		updated = append(updated, "expected_return")
	}
	if req.Volatility != nil {
		plan.Volatility = *req.Volatility
		updated = append(updated, "volatility")
	}
	if req.InvestmentDuration != nil {
		plan.InvestmentDuration = req.InvestmentDuration
		updated = append(updated, "investment_duration")
	}
	if req.RebalancingFrequency != nil {
		plan.RebalancingFrequency = planning.RebalancingFrequency(*req.RebalancingFrequency)
		updated = append(updated, "rebalancing_frequency")
	}

	return updated
}

// writeValidationFailure answers 422 with the full validation result so
// clients see every error at once.
func writeValidationFailure(w http.ResponseWriter, result planning.ValidationResult) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnprocessableEntity)
	json.NewEncoder(w).Encode(result)
}
