package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/compass/internal/modules/allocation"
	"github.com/aristath/compass/internal/modules/planning"
	"github.com/aristath/compass/internal/modules/simulation"
)

type optimizeResponse struct {
	Status        string                    `json:"status"`
	Strategy      string                    `json:"strategy"`
	OriginalPlan  *planning.Plan            `json:"original_plan"`
	OptimizedPlan *planning.Plan            `json:"optimized_plan"`
	Validation    planning.ValidationResult `json:"validation"`
}

func TestHandleOptimizeBalanced(t *testing.T) {
	router, repo, _ := setupRouter()
	plan := seedPlan(repo)
	plan.AssetAllocation = map[string]float64{"stocks": 0.5, "bonds": 0.3}

	w := doRequest(t, router, "POST", "/plans/plan-1/optimize?strategy=balanced", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp optimizeResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))

	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, "balanced", resp.Strategy)
	assert.InDelta(t, 0.625, resp.OptimizedPlan.AssetAllocation["stocks"], 1e-9)
	assert.InDelta(t, 0.375, resp.OptimizedPlan.AssetAllocation["bonds"], 1e-9)
	assert.InDelta(t, 0.09, resp.OptimizedPlan.Volatility, 1e-9)
	assert.InDelta(t, 0.084, resp.OptimizedPlan.ExpectedReturn, 1e-9)

	// The response carries the untouched original alongside
	assert.Equal(t, 0.5, resp.OriginalPlan.AssetAllocation["stocks"])
	assert.True(t, resp.Validation.IsValid)
}

func TestHandleOptimizeAggressiveReplacesAllocation(t *testing.T) {
	router, repo, _ := setupRouter()
	seedPlan(repo)

	w := doRequest(t, router, "POST", "/plans/plan-1/optimize?strategy=aggressive", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp optimizeResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))

	assert.Equal(t, map[string]float64{
		"stocks":                  0.7,
		"crypto":                  0.2,
		"alternative_investments": 0.1,
	}, resp.OptimizedPlan.AssetAllocation)
	assert.InDelta(t, 0.12, resp.OptimizedPlan.Volatility, 1e-9)
}

func TestHandleOptimizeUnknownStrategyFallsBack(t *testing.T) {
	router, repo, _ := setupRouter()
	seedPlan(repo)

	w := doRequest(t, router, "POST", "/plans/plan-1/optimize?strategy=quantum", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp optimizeResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "balanced", resp.Strategy)
}

func TestHandleOptimizeZeroAllocation(t *testing.T) {
	router, repo, _ := setupRouter()
	plan := seedPlan(repo)
	plan.AssetAllocation = map[string]float64{}

	w := doRequest(t, router, "POST", "/plans/plan-1/optimize", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "allocation weights must sum to a positive value")
}

func TestHandleOptimizeCachesByStrategy(t *testing.T) {
	router, repo, cache := setupRouter()
	seedPlan(repo)

	first := doRequest(t, router, "POST", "/plans/plan-1/optimize?strategy=balanced", nil)
	require.Equal(t, http.StatusOK, first.Code)
	second := doRequest(t, router, "POST", "/plans/plan-1/optimize?strategy=balanced", nil)
	require.Equal(t, http.StatusOK, second.Code)

	assert.JSONEq(t, first.Body.String(), second.Body.String())

	stats := cache.Stats()
	assert.Equal(t, 1, stats.Entries)
	assert.Equal(t, uint64(1), stats.Hits)

	third := doRequest(t, router, "POST", "/plans/plan-1/optimize?strategy=conservative", nil)
	require.Equal(t, http.StatusOK, third.Code)
	assert.Equal(t, 2, cache.Stats().Entries)
}

func TestHandleOptimizeMissingPlan(t *testing.T) {
	router, _, _ := setupRouter()

	w := doRequest(t, router, "POST", "/plans/ghost/optimize", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

type recommendationsResponse struct {
	PlanID          string                           `json:"plan_id"`
	AssetAllocation map[string]allocation.Suggestion `json:"asset_allocation"`
	RiskManagement  []string                         `json:"risk_management"`
}

func TestHandleRecommendationsFlagsDrift(t *testing.T) {
	router, repo, _ := setupRouter()
	plan := seedPlan(repo)
	plan.AssetAllocation = map[string]float64{"stocks": 0.9, "bonds": 0.1}

	w := doRequest(t, router, "GET", "/plans/plan-1/recommendations", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp recommendationsResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))

	assert.Equal(t, "plan-1", resp.PlanID)
	require.Contains(t, resp.AssetAllocation, "stocks")
	assert.Equal(t, 0.9, resp.AssetAllocation["stocks"].CurrentWeight)
	assert.Equal(t, 0.6, resp.AssetAllocation["stocks"].RecommendedWeight)
	assert.Equal(t, "rebalance", resp.AssetAllocation["stocks"].Action)
	require.Contains(t, resp.AssetAllocation, "bonds")
	// cash sits exactly at the threshold, which does not trigger a suggestion
	assert.NotContains(t, resp.AssetAllocation, "cash")
	assert.Empty(t, resp.RiskManagement)
}

func TestHandleRecommendationsOnTargetPlan(t *testing.T) {
	router, repo, _ := setupRouter()
	plan := seedPlan(repo)
	plan.AssetAllocation = map[string]float64{"stocks": 0.6, "bonds": 0.3, "cash": 0.1}

	w := doRequest(t, router, "GET", "/plans/plan-1/recommendations", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp recommendationsResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Empty(t, resp.AssetAllocation)
	assert.Empty(t, resp.RiskManagement)
}

func TestHandleRecommendationsMissingPlan(t *testing.T) {
	router, _, _ := setupRouter()

	w := doRequest(t, router, "GET", "/plans/ghost/recommendations", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

type simulateResponse struct {
	Status   string             `json:"status"`
	PlanID   string             `json:"plan_id"`
	PlanName string             `json:"plan_name"`
	Cached   bool               `json:"cached"`
	Result   *simulation.Result `json:"result"`
}

func TestHandleSimulateEmptyBodyUsesDefaults(t *testing.T) {
	router, repo, _ := setupRouter()
	seedPlan(repo)

	w := doRequest(t, router, "POST", "/plans/plan-1/simulate", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp simulateResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))

	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, "plan-1", resp.PlanID)
	assert.False(t, resp.Cached)
	require.NotNil(t, resp.Result)
	assert.Equal(t, 1000, resp.Result.Trials)
	assert.Equal(t, 10000.0, resp.Result.InitialInvestment)
	assert.Greater(t, resp.Result.MaxFinalValue, resp.Result.MinFinalValue)
}

func TestHandleSimulateServesRepeatRequestsFromCache(t *testing.T) {
	router, repo, _ := setupRouter()
	seedPlan(repo)

	body := map[string]interface{}{"trials": 200}
	first := doRequest(t, router, "POST", "/plans/plan-1/simulate", body)
	require.Equal(t, http.StatusOK, first.Code)
	second := doRequest(t, router, "POST", "/plans/plan-1/simulate", body)
	require.Equal(t, http.StatusOK, second.Code)

	var firstResp, secondResp simulateResponse
	require.NoError(t, json.NewDecoder(first.Body).Decode(&firstResp))
	require.NoError(t, json.NewDecoder(second.Body).Decode(&secondResp))

	assert.False(t, firstResp.Cached)
	assert.True(t, secondResp.Cached)
	assert.Equal(t, firstResp.Result, secondResp.Result)
}

func TestHandleSimulateRejectsBadParams(t *testing.T) {
	router, repo, _ := setupRouter()
	seedPlan(repo)

	w := doRequest(t, router, "POST", "/plans/plan-1/simulate", map[string]interface{}{"trials": -5})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "trial count")
}

func TestHandleSimulateMissingPlan(t *testing.T) {
	router, _, _ := setupRouter()

	w := doRequest(t, router, "POST", "/plans/ghost/simulate", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
