package allocation

import (
	"testing"

	"github.com/aristath/compass/internal/modules/planning"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mediumPlan(weights map[string]float64) *planning.Plan {
	return &planning.Plan{
		ID:              "plan-1",
		Name:            "Balanced Growth",
		Description:     "Medium-risk test plan",
		RiskLevel:       planning.RiskMedium,
		AssetAllocation: weights,
		ExpectedReturn:  0.07,
		Volatility:      0.08,
	}
}

func TestRecommendPlanOnTargetProducesNoSuggestions(t *testing.T) {
	advisor := NewAdvisor()
	plan := mediumPlan(map[string]float64{"stocks": 0.6, "bonds": 0.3, "cash": 0.1})

	set := advisor.Recommend(plan)

	assert.Empty(t, set.AssetAllocation)
	assert.Empty(t, set.RiskManagement)
}

func TestRecommendFlagsDriftedAssets(t *testing.T) {
	advisor := NewAdvisor()
	plan := mediumPlan(map[string]float64{"stocks": 0.9, "bonds": 0.1})

	set := advisor.Recommend(plan)

	// stocks drifted 0.3 and bonds 0.2; cash sits exactly at the
	// threshold (0.1 away) and must not be flagged
	require.Len(t, set.AssetAllocation, 2)

	stocks, ok := set.AssetAllocation["stocks"]
	require.True(t, ok)
	assert.Equal(t, 0.9, stocks.CurrentWeight)
	assert.Equal(t, 0.6, stocks.RecommendedWeight)
	assert.Equal(t, ActionRebalance, stocks.Action)

	bonds, ok := set.AssetAllocation["bonds"]
	require.True(t, ok)
	assert.Equal(t, 0.1, bonds.CurrentWeight)
	assert.Equal(t, 0.3, bonds.RecommendedWeight)

	_, flagged := set.AssetAllocation["cash"]
	assert.False(t, flagged)
}

func TestRecommendIgnoresAssetsOutsideTargetTable(t *testing.T) {
	advisor := NewAdvisor()
	plan := mediumPlan(map[string]float64{"stocks": 0.6, "bonds": 0.3, "gold": 0.1})

	set := advisor.Recommend(plan)

	// gold is not in the medium table: ignored, never flagged.
	// cash is in the table at 0.1, held at 0: exactly threshold, passes.
	assert.Empty(t, set.AssetAllocation)
}

func TestRecommendMissingTableAssetsReadAsZero(t *testing.T) {
	advisor := NewAdvisor()
	plan := &planning.Plan{
		Name:            "Aggressive Growth",
		RiskLevel:       planning.RiskHigh,
		AssetAllocation: map[string]float64{"stocks": 1.0},
		ExpectedReturn:  0.15,
		Volatility:      0.20,
	}

	set := advisor.Recommend(plan)

	require.Len(t, set.AssetAllocation, 2)
	assert.Equal(t, Suggestion{CurrentWeight: 1.0, RecommendedWeight: 0.8, Action: ActionRebalance}, set.AssetAllocation["stocks"])
	assert.Equal(t, Suggestion{CurrentWeight: 0, RecommendedWeight: 0.15, Action: ActionRebalance}, set.AssetAllocation["crypto"])
}

func TestRecommendRiskWarnings(t *testing.T) {
	tests := []struct {
		name     string
		risk     planning.RiskLevel
		vol      float64
		ret      float64
		expected []string
	}{
		{
			name:     "volatile low-risk plan",
			risk:     planning.RiskLow,
			vol:      0.30,
			ret:      0.04,
			expected: []string{"High volatility detected. Consider reducing risk exposure."},
		},
		{
			name:     "volatility boundary is exclusive",
			risk:     planning.RiskLow,
			vol:      0.25,
			ret:      0.04,
			expected: []string{},
		},
		{
			name:     "underpowered high-risk plan",
			risk:     planning.RiskHigh,
			vol:      0.20,
			ret:      0.02,
			expected: []string{"Low expected return for high-risk plan. Consider adjusting strategy."},
		},
		{
			name:     "return boundary is exclusive",
			risk:     planning.RiskHigh,
			vol:      0.20,
			ret:      0.03,
			expected: []string{},
		},
		{
			name:     "medium tier never gets either warning",
			risk:     planning.RiskMedium,
			vol:      0.40,
			ret:      0.01,
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := &planning.Plan{
				Name:            "Warning Probe",
				RiskLevel:       tt.risk,
				AssetAllocation: map[string]float64{},
				Volatility:      tt.vol,
				ExpectedReturn:  tt.ret,
			}

			set := NewAdvisor().Recommend(plan)

			assert.Equal(t, tt.expected, set.RiskManagement)
		})
	}
}

func TestRecommendUnknownTierUsesMediumTargets(t *testing.T) {
	advisor := NewAdvisor()
	plan := mediumPlan(map[string]float64{"stocks": 0.6, "bonds": 0.3, "cash": 0.1})
	plan.RiskLevel = "extreme"

	set := advisor.Recommend(plan)

	assert.Empty(t, set.AssetAllocation)
}

func TestRecommendIsIdempotentAndPure(t *testing.T) {
	advisor := NewAdvisor()
	plan := mediumPlan(map[string]float64{"stocks": 0.9, "bonds": 0.1})
	snapshot := plan.Clone()

	first := advisor.Recommend(plan)
	second := advisor.Recommend(plan)

	assert.Equal(t, first, second)
	assert.Equal(t, snapshot, plan)
}

func TestRecommendNilPlan(t *testing.T) {
	set := NewAdvisor().Recommend(nil)

	assert.NotNil(t, set.AssetAllocation)
	assert.Empty(t, set.AssetAllocation)
	assert.Empty(t, set.RiskManagement)
}
