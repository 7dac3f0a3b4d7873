package planning

import (
	"fmt"
	"sort"
	"unicode/utf8"

	"github.com/aristath/compass/pkg/formulas"
)

// ValidationResult carries every rule violation found in a plan. Errors
// make the plan unusable; warnings flag suspicious but legal values.
type ValidationResult struct {
	IsValid  bool     `json:"is_valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// riskReturnBands maps each risk tier to the expected-return range
// considered consistent with it. Bounds are inclusive.
var riskReturnBands = map[RiskLevel][2]float64{
	RiskLow:    {0, 0.05},
	RiskMedium: {0.05, 0.10},
	RiskHigh:   {0.10, 0.25},
}

// defaultReturnBand applies when the risk level is unknown
var defaultReturnBand = [2]float64{0, 0.10}

// Validate checks a plan against every structural and policy rule and
// collects all violations in one pass. It never short-circuits: a plan
// with five problems reports five errors, so callers can render the full
// list at once. Malformed content is data, never a Go error.
func Validate(plan *Plan) ValidationResult {
	result := ValidationResult{
		Errors:   []string{},
		Warnings: []string{},
	}

	if plan == nil {
		plan = &Plan{}
	}

	// Required fields. Only fields that can actually be absent in the
	// record are checked here; numeric zero values are legal content.
	if plan.Name == "" {
		result.Errors = append(result.Errors, "Missing required field: name")
	}
	if plan.Description == "" {
		result.Errors = append(result.Errors, "Missing required field: description")
	}
	if plan.RiskLevel == "" {
		result.Errors = append(result.Errors, "Missing required field: risk_level")
	}
	if plan.AssetAllocation == nil {
		result.Errors = append(result.Errors, "Missing required field: asset_allocation")
	}

	if utf8.RuneCountInString(plan.Name) < 3 {
		result.Errors = append(result.Errors, "Plan name must be at least 3 characters long")
	}

	if !plan.RiskLevel.IsValid() {
		result.Errors = append(result.Errors, "Invalid risk level. Must be one of: low, medium, high")
	}

	if plan.MinInvestment < 0 {
		result.Errors = append(result.Errors, "Minimum investment cannot be negative")
	}
	if plan.MaxInvestment != nil && *plan.MaxInvestment <= plan.MinInvestment {
		result.Errors = append(result.Errors, "Maximum investment must be greater than minimum investment")
	}

	total := formulas.AllocationSum(plan.AssetAllocation)
	if !formulas.AllocationWithinTolerance(total) {
		result.Errors = append(result.Errors, fmt.Sprintf("Asset allocation must total 1.0 (current: %g)", total))
	}

	// Per-asset weight bounds, reported in stable order
	assets := make([]string, 0, len(plan.AssetAllocation))
	for asset := range plan.AssetAllocation {
		assets = append(assets, asset)
	}
	sort.Strings(assets)
	for _, asset := range assets {
		weight := plan.AssetAllocation[asset]
		if weight < 0 || weight > 1 {
			result.Errors = append(result.Errors, fmt.Sprintf("Invalid allocation for %s: %g", asset, weight))
		}
	}

	if plan.ExpectedReturn < -1 || plan.ExpectedReturn > 1 {
		result.Errors = append(result.Errors, "Expected return must be between -100% and 100%")
	}
	if plan.Volatility < 0 || plan.Volatility > 1 {
		result.Errors = append(result.Errors, "Volatility must be between 0 and 1")
	}

	if plan.InvestmentDuration != nil && *plan.InvestmentDuration <= 0 {
		result.Errors = append(result.Errors, "Investment duration must be positive")
	}
	if plan.RebalancingFrequency != "" && !plan.RebalancingFrequency.IsValid() {
		result.Errors = append(result.Errors, "Invalid rebalancing frequency. Must be one of: monthly, quarterly, annually")
	}

	// Consistency between the risk tier and the promised return is a
	// warning, never an error: unusual plans are allowed, just flagged.
	band, ok := riskReturnBands[plan.RiskLevel]
	if !ok {
		band = defaultReturnBand
	}
	if plan.ExpectedReturn < band[0] || plan.ExpectedReturn > band[1] {
		result.Warnings = append(result.Warnings, fmt.Sprintf(
			"Expected return %g seems inconsistent with %s risk level (expected range: %g-%g)",
			plan.ExpectedReturn, plan.RiskLevel, band[0], band[1]))
	}

	result.IsValid = len(result.Errors) == 0
	return result
}
