package risk

import (
	"database/sql"
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/aristath/compass/internal/modules/allocation"
	"github.com/aristath/compass/internal/modules/planning"
	"github.com/aristath/compass/internal/modules/settings"
)

func newManager() *Manager {
	return NewManager(allocation.NewAdvisor(), nil, zerolog.Nop())
}

func newSettingsRepo(t *testing.T) *settings.Repository {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			description TEXT,
			updated_at INTEGER NOT NULL DEFAULT 0
		)
	`)
	require.NoError(t, err)

	return settings.NewRepository(db, zerolog.Nop())
}

func TestPositionSizeIsExact(t *testing.T) {
	m := newManager()

	size, err := m.PositionSize(10000, 0.02)
	require.NoError(t, err)

	// 10000 * 0.02 in float64 arithmetic is 200.00000000000003
	assert.True(t, size.Equal(decimal.NewFromInt(200)), "got %s", size)
}

func TestPositionSizeZeroRiskMeansDefault(t *testing.T) {
	m := newManager()

	size, err := m.PositionSize(10000, 0)
	require.NoError(t, err)
	assert.True(t, size.Equal(decimal.NewFromInt(200)), "got %s", size)
}

func TestPositionSizeUsesStoredDefaultRisk(t *testing.T) {
	repo := newSettingsRepo(t)
	require.NoError(t, repo.SetFloat("risk_per_trade_default", 0.05))
	m := NewManager(nil, repo, zerolog.Nop())

	size, err := m.PositionSize(10000, 0)
	require.NoError(t, err)
	assert.True(t, size.Equal(decimal.NewFromInt(500)), "got %s", size)

	// An explicit request risk still wins over the stored default.
	size, err = m.PositionSize(10000, 0.02)
	require.NoError(t, err)
	assert.True(t, size.Equal(decimal.NewFromInt(200)), "got %s", size)
}

func TestStoredDefaultRiskOutOfRangeIsIgnored(t *testing.T) {
	repo := newSettingsRepo(t)
	require.NoError(t, repo.SetFloat("risk_per_trade_default", 1.5))
	m := NewManager(nil, repo, zerolog.Nop())

	size, err := m.PositionSize(10000, 0)
	require.NoError(t, err)
	assert.True(t, size.Equal(decimal.NewFromInt(200)), "got %s", size)
}

func TestPositionSizeNeverExceedsBalance(t *testing.T) {
	m := newManager()

	size, err := m.PositionSize(5000, 1.0)
	require.NoError(t, err)
	assert.True(t, size.Equal(decimal.NewFromInt(5000)), "got %s", size)
}

func TestPositionSizeZeroBalance(t *testing.T) {
	m := newManager()

	size, err := m.PositionSize(0, 0.02)
	require.NoError(t, err)
	assert.True(t, size.IsZero(), "got %s", size)
}

func TestStopLossPriceIsExact(t *testing.T) {
	m := newManager()

	stop, err := m.StopLossPrice(100, 0.02)
	require.NoError(t, err)
	assert.True(t, stop.Equal(decimal.NewFromInt(98)), "got %s", stop)
}

func TestStopLossPriceDefaultRisk(t *testing.T) {
	m := newManager()

	stop, err := m.StopLossPrice(250, 0)
	require.NoError(t, err)
	assert.True(t, stop.Equal(decimal.NewFromInt(245)), "got %s", stop)
}

func TestRejectsInvalidInput(t *testing.T) {
	m := newManager()

	tests := []struct {
		name string
		call func() (decimal.Decimal, error)
	}{
		{"negative balance", func() (decimal.Decimal, error) { return m.PositionSize(-1, 0.02) }},
		{"nan balance", func() (decimal.Decimal, error) { return m.PositionSize(math.NaN(), 0.02) }},
		{"infinite balance", func() (decimal.Decimal, error) { return m.PositionSize(math.Inf(1), 0.02) }},
		{"negative risk", func() (decimal.Decimal, error) { return m.PositionSize(10000, -0.02) }},
		{"risk above one", func() (decimal.Decimal, error) { return m.PositionSize(10000, 1.5) }},
		{"nan risk", func() (decimal.Decimal, error) { return m.PositionSize(10000, math.NaN()) }},
		{"negative entry", func() (decimal.Decimal, error) { return m.StopLossPrice(-100, 0.02) }},
		{"nan entry", func() (decimal.Decimal, error) { return m.StopLossPrice(math.NaN(), 0.02) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.call()
			assert.ErrorIs(t, err, ErrInvalidRiskInput)
		})
	}
}

func TestAssessBundlesSizingAndWarnings(t *testing.T) {
	m := newManager()

	plan := &planning.Plan{
		Name:            "Cautious",
		RiskLevel:       planning.RiskLow,
		AssetAllocation: map[string]float64{"stocks": 0.4, "bonds": 0.5, "cash": 0.1},
		Volatility:      0.30,
	}

	assessment, err := m.Assess(plan, 10000)
	require.NoError(t, err)

	assert.Equal(t, 10000.0, assessment.AccountBalance)
	assert.Equal(t, 0.02, assessment.RiskPerTrade)
	assert.True(t, assessment.PositionSize.Equal(decimal.NewFromInt(200)))
	assert.True(t, assessment.StopLossFactor.Equal(decimal.RequireFromString("0.98")))
	assert.Equal(t, []string{"High volatility detected. Consider reducing risk exposure."}, assessment.Warnings)
}

func TestAssessNilPlan(t *testing.T) {
	m := newManager()

	assessment, err := m.Assess(nil, 10000)
	require.NoError(t, err)
	assert.Empty(t, assessment.Warnings)
	assert.True(t, assessment.PositionSize.Equal(decimal.NewFromInt(200)))
}

func TestAssessRejectsBadBalance(t *testing.T) {
	m := newManager()

	_, err := m.Assess(nil, -50)
	assert.ErrorIs(t, err, ErrInvalidRiskInput)
}
