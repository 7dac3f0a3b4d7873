package planning

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validPlan returns a plan that passes every rule with no warnings
func validPlan() *Plan {
	return &Plan{
		Name:          "Balanced Growth",
		Description:   "Medium-risk plan with a classic 60/40 split",
		RiskLevel:     RiskMedium,
		MinInvestment: 5000,
		AssetAllocation: map[string]float64{
			"stocks": 0.60,
			"bonds":  0.40,
		},
		ExpectedReturn:       0.07,
		Volatility:           0.08,
		RebalancingFrequency: RebalanceQuarterly,
	}
}

func TestValidateAcceptsValidPlan(t *testing.T) {
	result := Validate(validPlan())

	assert.True(t, result.IsValid)
	assert.Empty(t, result.Errors)
	assert.Empty(t, result.Warnings)
}

func TestValidateEmptyPlanCollectsEveryViolation(t *testing.T) {
	result := Validate(&Plan{})

	require.False(t, result.IsValid)
	assert.Equal(t, []string{
		"Missing required field: name",
		"Missing required field: description",
		"Missing required field: risk_level",
		"Missing required field: asset_allocation",
		"Plan name must be at least 3 characters long",
		"Invalid risk level. Must be one of: low, medium, high",
		"Asset allocation must total 1.0 (current: 0)",
	}, result.Errors)

	// Zero return sits inside the fallback band, so no consistency warning
	assert.Empty(t, result.Warnings)
}

func TestValidateNameRules(t *testing.T) {
	plan := validPlan()
	plan.Name = "ab"
	result := Validate(plan)
	assert.False(t, result.IsValid)
	assert.Equal(t, []string{"Plan name must be at least 3 characters long"}, result.Errors)

	// An empty name is both missing and too short
	plan.Name = ""
	result = Validate(plan)
	assert.Contains(t, result.Errors, "Missing required field: name")
	assert.Contains(t, result.Errors, "Plan name must be at least 3 characters long")

	// Whitespace counts as characters: present and long enough
	plan.Name = "   "
	result = Validate(plan)
	assert.True(t, result.IsValid)
}

func TestValidateRiskLevel(t *testing.T) {
	plan := validPlan()
	plan.RiskLevel = "extreme"
	result := Validate(plan)
	assert.Equal(t, []string{"Invalid risk level. Must be one of: low, medium, high"}, result.Errors)

	// An empty risk level is both missing and invalid
	plan.RiskLevel = ""
	result = Validate(plan)
	assert.Contains(t, result.Errors, "Missing required field: risk_level")
	assert.Contains(t, result.Errors, "Invalid risk level. Must be one of: low, medium, high")
}

func TestValidateInvestmentBounds(t *testing.T) {
	plan := validPlan()
	plan.MinInvestment = -100
	result := Validate(plan)
	assert.Contains(t, result.Errors, "Minimum investment cannot be negative")

	plan = validPlan()
	plan.MaxInvestment = floatPtr(1000)
	result = Validate(plan)
	assert.Contains(t, result.Errors, "Maximum investment must be greater than minimum investment")

	// Equal bounds are rejected too: max must be strictly greater
	plan.MaxInvestment = floatPtr(5000)
	result = Validate(plan)
	assert.Contains(t, result.Errors, "Maximum investment must be greater than minimum investment")

	plan.MaxInvestment = floatPtr(500000)
	result = Validate(plan)
	assert.True(t, result.IsValid)
}

func TestValidateAllocationSum(t *testing.T) {
	plan := validPlan()
	plan.AssetAllocation = map[string]float64{"stocks": 0.25, "bonds": 0.25}
	result := Validate(plan)
	assert.Equal(t, []string{"Asset allocation must total 1.0 (current: 0.5)"}, result.Errors)

	plan.AssetAllocation = map[string]float64{"stocks": 1.0, "bonds": 0.5}
	result = Validate(plan)
	assert.Equal(t, []string{"Asset allocation must total 1.0 (current: 1.5)"}, result.Errors)

	// Sums inside the tolerance band pass
	plan.AssetAllocation = map[string]float64{"stocks": 1.0, "bonds": 0.005}
	result = Validate(plan)
	assert.True(t, result.IsValid)

	// A present-but-empty allocation is not "missing", just unallocated
	plan.AssetAllocation = map[string]float64{}
	result = Validate(plan)
	assert.Equal(t, []string{"Asset allocation must total 1.0 (current: 0)"}, result.Errors)
}

func TestValidateAllocationWeightBounds(t *testing.T) {
	plan := validPlan()
	plan.AssetAllocation = map[string]float64{"stocks": 1.2, "bonds": -0.2}

	result := Validate(plan)

	// Sum is back near 1.0, so only the two range violations fire,
	// in asset-name order
	assert.Equal(t, []string{
		"Invalid allocation for bonds: -0.2",
		"Invalid allocation for stocks: 1.2",
	}, result.Errors)
}

func TestValidateReturnAndVolatilityRanges(t *testing.T) {
	plan := validPlan()
	plan.ExpectedReturn = 1.5
	result := Validate(plan)
	assert.Contains(t, result.Errors, "Expected return must be between -100% and 100%")

	plan.ExpectedReturn = -1.5
	result = Validate(plan)
	assert.Contains(t, result.Errors, "Expected return must be between -100% and 100%")

	plan = validPlan()
	plan.Volatility = 1.1
	result = Validate(plan)
	assert.Equal(t, []string{"Volatility must be between 0 and 1"}, result.Errors)

	plan.Volatility = -0.1
	result = Validate(plan)
	assert.Equal(t, []string{"Volatility must be between 0 and 1"}, result.Errors)
}

func TestValidateDurationAndFrequency(t *testing.T) {
	plan := validPlan()
	plan.InvestmentDuration = intPtr(0)
	result := Validate(plan)
	assert.Equal(t, []string{"Investment duration must be positive"}, result.Errors)

	plan.InvestmentDuration = intPtr(-12)
	result = Validate(plan)
	assert.Equal(t, []string{"Investment duration must be positive"}, result.Errors)

	plan = validPlan()
	plan.RebalancingFrequency = "weekly"
	result = Validate(plan)
	assert.Equal(t, []string{"Invalid rebalancing frequency. Must be one of: monthly, quarterly, annually"}, result.Errors)

	// Absent optional fields are not validated
	plan = validPlan()
	plan.InvestmentDuration = nil
	plan.RebalancingFrequency = ""
	result = Validate(plan)
	assert.True(t, result.IsValid)
}

func TestValidateRiskConsistencyWarnings(t *testing.T) {
	tests := []struct {
		name    string
		risk    RiskLevel
		ret     float64
		warning string
	}{
		{
			name: "low tier inside band",
			risk: RiskLow,
			ret:  0.04,
		},
		{
			name: "low tier upper bound is inclusive",
			risk: RiskLow,
			ret:  0.05,
		},
		{
			name:    "low tier above band",
			risk:    RiskLow,
			ret:     0.06,
			warning: "Expected return 0.06 seems inconsistent with low risk level (expected range: 0-0.05)",
		},
		{
			name: "medium tier lower bound is inclusive",
			risk: RiskMedium,
			ret:  0.05,
		},
		{
			name:    "high tier below band",
			risk:    RiskHigh,
			ret:     0.08,
			warning: "Expected return 0.08 seems inconsistent with high risk level (expected range: 0.1-0.25)",
		},
		{
			name: "high tier inside band",
			risk: RiskHigh,
			ret:  0.15,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := validPlan()
			plan.RiskLevel = tt.risk
			plan.ExpectedReturn = tt.ret

			result := Validate(plan)

			assert.True(t, result.IsValid, "warnings must not invalidate the plan")
			if tt.warning == "" {
				assert.Empty(t, result.Warnings)
			} else {
				assert.Equal(t, []string{tt.warning}, result.Warnings)
			}
		})
	}
}

func TestValidateUnknownRiskUsesFallbackBand(t *testing.T) {
	plan := validPlan()
	plan.RiskLevel = "extreme"
	plan.ExpectedReturn = 0.2

	result := Validate(plan)

	assert.Contains(t, result.Errors, "Invalid risk level. Must be one of: low, medium, high")
	assert.Equal(t, []string{
		"Expected return 0.2 seems inconsistent with extreme risk level (expected range: 0-0.1)",
	}, result.Warnings)
}

func TestValidateNeverShortCircuits(t *testing.T) {
	plan := &Plan{
		Name:          "x",
		Description:   "broken on purpose",
		RiskLevel:     "extreme",
		MinInvestment: -1,
		AssetAllocation: map[string]float64{
			"stocks": 1.5,
		},
		ExpectedReturn: 2.0,
		Volatility:     -0.5,
	}

	result := Validate(plan)

	// Short name, invalid risk, negative minimum, allocation sum,
	// weight range, return range, volatility range
	assert.False(t, result.IsValid)
	assert.Len(t, result.Errors, 7)
}

func TestValidateNilPlan(t *testing.T) {
	result := Validate(nil)

	assert.False(t, result.IsValid)
	assert.Contains(t, result.Errors, "Missing required field: name")
}

func floatPtr(f float64) *float64 {
	return &f
}

func intPtr(i int) *int {
	return &i
}
