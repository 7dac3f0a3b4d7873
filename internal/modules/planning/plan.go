// Package planning implements investment plan records, validation and
// persistence. Plans are the central domain object: simulations,
// optimizations and recommendations all operate on a Plan produced here.
package planning

import "time"

// RiskLevel classifies a plan's risk appetite
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// IsValid checks if the risk level is one of the known tiers
func (r RiskLevel) IsValid() bool {
	switch r {
	case RiskLow, RiskMedium, RiskHigh:
		return true
	}
	return false
}

// RebalancingFrequency is how often a plan's allocation should be brought
// back to its targets
type RebalancingFrequency string

const (
	RebalanceMonthly   RebalancingFrequency = "monthly"
	RebalanceQuarterly RebalancingFrequency = "quarterly"
	RebalanceAnnually  RebalancingFrequency = "annually"
)

// IsValid checks if the frequency is one of the known values
func (f RebalancingFrequency) IsValid() bool {
	switch f {
	case RebalanceMonthly, RebalanceQuarterly, RebalanceAnnually:
		return true
	}
	return false
}

// Period returns how long a plan on this frequency can go without a
// rebalance check before it counts as due. Unknown frequencies return 0.
func (f RebalancingFrequency) Period() time.Duration {
	switch f {
	case RebalanceMonthly:
		return 30 * 24 * time.Hour
	case RebalanceQuarterly:
		return 90 * 24 * time.Hour
	case RebalanceAnnually:
		return 365 * 24 * time.Hour
	}
	return 0
}

// Plan is a stored investment plan
type Plan struct {
	ID                   string               `json:"id"`
	Name                 string               `json:"name"`
	Description          string               `json:"description"`
	RiskLevel            RiskLevel            `json:"risk_level"`
	MinInvestment        float64              `json:"min_investment"`
	MaxInvestment        *float64             `json:"max_investment,omitempty"`
	AssetAllocation      map[string]float64   `json:"asset_allocation"`
	ExpectedReturn       float64              `json:"expected_return"`
	Volatility           float64              `json:"volatility"`
	InvestmentDuration   *int                 `json:"investment_duration,omitempty"` // months
	RebalancingFrequency RebalancingFrequency `json:"rebalancing_frequency,omitempty"`
	IsActive             bool                 `json:"is_active"`
	CreatedAt            time.Time            `json:"created_at"`
	UpdatedAt            time.Time            `json:"updated_at"`
}

// Clone returns a deep copy of the plan. Optimization strategies work on
// copies so the stored plan is never mutated in place.
func (p *Plan) Clone() *Plan {
	if p == nil {
		return nil
	}

	clone := *p
	if p.MaxInvestment != nil {
		v := *p.MaxInvestment
		clone.MaxInvestment = &v
	}
	if p.InvestmentDuration != nil {
		v := *p.InvestmentDuration
		clone.InvestmentDuration = &v
	}
	if p.AssetAllocation != nil {
		clone.AssetAllocation = make(map[string]float64, len(p.AssetAllocation))
		for asset, weight := range p.AssetAllocation {
			clone.AssetAllocation[asset] = weight
		}
	}

	return &clone
}

// Filter narrows List results
type Filter struct {
	// RiskLevel keeps only plans with exactly this risk tier when non-empty
	RiskLevel RiskLevel

	// MinInvestmentLTE keeps plans affordable at the given amount
	// (plan minimum investment <= amount)
	MinInvestmentLTE *float64

	// ActiveOnly drops deactivated plans
	ActiveOnly bool
}
