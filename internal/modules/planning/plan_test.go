package planning

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloneIsDeep(t *testing.T) {
	original := validPlan()
	original.MaxInvestment = floatPtr(500000)
	original.InvestmentDuration = intPtr(120)

	clone := original.Clone()
	require.NotNil(t, clone)
	assert.Equal(t, original, clone)

	clone.AssetAllocation["stocks"] = 0.99
	*clone.MaxInvestment = 1
	*clone.InvestmentDuration = 1
	clone.Name = "Changed"

	assert.Equal(t, 0.60, original.AssetAllocation["stocks"])
	assert.Equal(t, 500000.0, *original.MaxInvestment)
	assert.Equal(t, 120, *original.InvestmentDuration)
	assert.Equal(t, "Balanced Growth", original.Name)
}

func TestCloneNil(t *testing.T) {
	var plan *Plan
	assert.Nil(t, plan.Clone())
}

func TestRiskLevelIsValid(t *testing.T) {
	assert.True(t, RiskLow.IsValid())
	assert.True(t, RiskMedium.IsValid())
	assert.True(t, RiskHigh.IsValid())
	assert.False(t, RiskLevel("").IsValid())
	assert.False(t, RiskLevel("extreme").IsValid())
}

func TestRebalancingFrequencyPeriod(t *testing.T) {
	assert.Equal(t, 30*24*time.Hour, RebalanceMonthly.Period())
	assert.Equal(t, 90*24*time.Hour, RebalanceQuarterly.Period())
	assert.Equal(t, 365*24*time.Hour, RebalanceAnnually.Period())
	assert.Equal(t, time.Duration(0), RebalancingFrequency("weekly").Period())
}
