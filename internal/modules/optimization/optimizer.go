package optimization

import (
	"fmt"

	"github.com/aristath/compass/internal/modules/planning"
	"github.com/aristath/compass/pkg/formulas"
)

// Fixed target allocations for the strategies that replace the existing
// weights outright rather than rescaling them.
var (
	aggressiveAllocation = map[string]float64{
		"stocks":                  0.7,
		"crypto":                  0.2,
		"alternative_investments": 0.1,
	}
	conservativeAllocation = map[string]float64{
		"bonds":       0.6,
		"cash":        0.3,
		"real_estate": 0.1,
	}
)

// Per-strategy adjustment factors applied to volatility and expected
// return. Results are intentionally NOT clamped to the record ranges;
// callers re-validate the optimized plan and surface any drift.
const (
	balancedVolFactor     = 0.9
	balancedReturnFactor  = 1.05
	aggressiveVolFactor   = 1.2
	aggressiveRetFactor   = 1.15
	conservativeVolFactor = 0.7
	conservativeRetFactor = 0.9
)

// Optimizer applies a named strategy to a plan
type Optimizer struct{}

// NewOptimizer creates a new strategy optimizer
func NewOptimizer() *Optimizer {
	return &Optimizer{}
}

// Optimize returns a strategy-adjusted copy of the plan. The input is
// never modified; callers keep the original for comparison. A strategy
// outside the known set gets the balanced treatment.
func (o *Optimizer) Optimize(plan *planning.Plan, strategy Strategy) (*planning.Plan, error) {
	if plan == nil {
		return nil, fmt.Errorf("no plan to optimize")
	}

	optimized := plan.Clone()

	switch strategy {
	case StrategyAggressive:
		optimized.AssetAllocation = copyWeights(aggressiveAllocation)
		optimized.Volatility = plan.Volatility * aggressiveVolFactor
		optimized.ExpectedReturn = plan.ExpectedReturn * aggressiveRetFactor

	case StrategyConservative:
		optimized.AssetAllocation = copyWeights(conservativeAllocation)
		optimized.Volatility = plan.Volatility * conservativeVolFactor
		optimized.ExpectedReturn = plan.ExpectedReturn * conservativeRetFactor

	default:
		// Balanced keeps the plan's own assets, rescaled to sum to 1.0
		normalized, err := formulas.NormalizeAllocation(plan.AssetAllocation)
		if err != nil {
			return nil, fmt.Errorf("balanced optimization: %w", err)
		}
		optimized.AssetAllocation = normalized
		optimized.Volatility = plan.Volatility * balancedVolFactor
		optimized.ExpectedReturn = plan.ExpectedReturn * balancedReturnFactor
	}

	return optimized, nil
}

// Result pairs the untouched input plan with its optimized copy for the
// HTTP surface. Validation reports whether the adjusted numbers still
// satisfy the plan record rules.
type Result struct {
	Status        string                    `json:"status"`
	Strategy      Strategy                  `json:"strategy"`
	OriginalPlan  *planning.Plan            `json:"original_plan"`
	OptimizedPlan *planning.Plan            `json:"optimized_plan"`
	Validation    planning.ValidationResult `json:"validation"`
}

func copyWeights(weights map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(weights))
	for asset, w := range weights {
		out[asset] = w
	}
	return out
}
