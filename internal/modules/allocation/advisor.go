// Package allocation compares a plan's asset allocation against per-tier
// model portfolios and produces deviation-based rebalance advice.
package allocation

import (
	"math"

	"github.com/aristath/compass/internal/modules/planning"
)

// ActionRebalance marks a suggestion produced by a deviation breach
const ActionRebalance = "rebalance"

// deviationThreshold is the absolute weight gap beyond which an asset is
// flagged. Strictly greater than: a drift of exactly 0.10 passes.
const deviationThreshold = 0.10

// targetAllocations maps each risk tier to its model portfolio
var targetAllocations = map[planning.RiskLevel]map[string]float64{
	planning.RiskLow:    {"stocks": 0.4, "bonds": 0.5, "cash": 0.1},
	planning.RiskMedium: {"stocks": 0.6, "bonds": 0.3, "cash": 0.1},
	planning.RiskHigh:   {"stocks": 0.8, "crypto": 0.15, "cash": 0.05},
}

// Suggestion tells the caller how far one asset drifted from its target
type Suggestion struct {
	CurrentWeight     float64 `json:"current_weight"`
	RecommendedWeight float64 `json:"recommended_weight"`
	Action            string  `json:"action"`
}

// RecommendationSet is the advice produced for one plan
type RecommendationSet struct {
	AssetAllocation map[string]Suggestion `json:"asset_allocation"`
	RiskManagement  []string              `json:"risk_management"`
}

// Advisor produces rebalance advice from plan state alone. It holds no
// state, so the same plan always yields the same advice.
type Advisor struct{}

// NewAdvisor creates a new advisor
func NewAdvisor() *Advisor {
	return &Advisor{}
}

// Recommend compares the plan's allocation with the target table for its
// risk tier and flags every table asset that drifted beyond the
// threshold. Plan assets the table does not know are ignored, and table
// assets the plan does not hold count as weight 0. The plan itself is
// never modified.
func (a *Advisor) Recommend(plan *planning.Plan) RecommendationSet {
	set := RecommendationSet{
		AssetAllocation: map[string]Suggestion{},
		RiskManagement:  []string{},
	}
	if plan == nil {
		return set
	}

	targets, ok := targetAllocations[plan.RiskLevel]
	if !ok {
		// Unknown tiers are advised against the medium model portfolio
		targets = targetAllocations[planning.RiskMedium]
	}

	for asset, target := range targets {
		current := plan.AssetAllocation[asset]
		if math.Abs(current-target) > deviationThreshold {
			set.AssetAllocation[asset] = Suggestion{
				CurrentWeight:     current,
				RecommendedWeight: target,
				Action:            ActionRebalance,
			}
		}
	}

	if plan.Volatility > 0.25 && plan.RiskLevel == planning.RiskLow {
		set.RiskManagement = append(set.RiskManagement, "High volatility detected. Consider reducing risk exposure.")
	}
	if plan.ExpectedReturn < 0.03 && plan.RiskLevel == planning.RiskHigh {
		set.RiskManagement = append(set.RiskManagement, "Low expected return for high-risk plan. Consider adjusting strategy.")
	}

	return set
}
