package testing

import (
	"time"

	"github.com/aristath/compass/internal/modules/planning"
	"github.com/aristath/compass/internal/modules/trading"
	"github.com/google/uuid"
)

// NewPlanFixtures returns a set of valid test plans, one per risk tier
func NewPlanFixtures() []*planning.Plan {
	now := time.Now().UTC()

	return []*planning.Plan{
		{
			ID:            uuid.NewString(),
			Name:          "Capital Preservation",
			Description:   "Low-risk plan focused on bonds and cash",
			RiskLevel:     planning.RiskLow,
			MinInvestment: 1000,
			AssetAllocation: map[string]float64{
				"bonds":       0.60,
				"cash":        0.30,
				"real_estate": 0.10,
			},
			ExpectedReturn:       0.04,
			Volatility:           0.03,
			RebalancingFrequency: planning.RebalanceAnnually,
			IsActive:             true,
			CreatedAt:            now,
			UpdatedAt:            now,
		},
		{
			ID:            uuid.NewString(),
			Name:          "Balanced Growth",
			Description:   "Medium-risk plan with a classic 60/40 split",
			RiskLevel:     planning.RiskMedium,
			MinInvestment: 5000,
			MaxInvestment: floatPtr(500000),
			AssetAllocation: map[string]float64{
				"stocks": 0.60,
				"bonds":  0.40,
			},
			ExpectedReturn:       0.07,
			Volatility:           0.08,
			InvestmentDuration:   intPtr(120),
			RebalancingFrequency: planning.RebalanceQuarterly,
			IsActive:             true,
			CreatedAt:            now,
			UpdatedAt:            now,
		},
		{
			ID:            uuid.NewString(),
			Name:          "Aggressive Growth",
			Description:   "High-risk plan with a crypto sleeve",
			RiskLevel:     planning.RiskHigh,
			MinInvestment: 10000,
			AssetAllocation: map[string]float64{
				"stocks": 0.70,
				"crypto": 0.20,
				"cash":   0.10,
			},
			ExpectedReturn:       0.15,
			Volatility:           0.20,
			InvestmentDuration:   intPtr(240),
			RebalancingFrequency: planning.RebalanceMonthly,
			IsActive:             true,
			CreatedAt:            now,
			UpdatedAt:            now,
		},
	}
}

// NewTradeFixtures returns a set of test trades for use in tests
func NewTradeFixtures() []trading.Trade {
	now := time.Now().UTC()
	yesterday := now.AddDate(0, 0, -1)
	lastWeek := now.AddDate(0, 0, -7)

	return []trading.Trade{
		{
			ID:         1,
			OrderID:    uuid.NewString(),
			Asset:      "stocks",
			Side:       trading.TradeSideBuy,
			Quantity:   10.0,
			Price:      150.0,
			Source:     "paper",
			ExecutedAt: lastWeek,
			CreatedAt:  lastWeek,
		},
		{
			ID:         2,
			OrderID:    uuid.NewString(),
			Asset:      "bonds",
			Side:       trading.TradeSideBuy,
			Quantity:   50.0,
			Price:      98.5,
			Source:     "paper",
			ExecutedAt: yesterday,
			CreatedAt:  yesterday,
		},
		{
			ID:         3,
			OrderID:    uuid.NewString(),
			Asset:      "stocks",
			Side:       trading.TradeSideSell,
			Quantity:   4.0,
			Price:      162.25,
			Source:     "paper",
			ExecutedAt: now,
			CreatedAt:  now,
		},
	}
}

// floatPtr returns a pointer to the given float64 value
func floatPtr(f float64) *float64 {
	return &f
}

// intPtr returns a pointer to the given int value
func intPtr(i int) *int {
	return &i
}
