// Package risk implements fixed-fraction position sizing and stop-loss
// placement. All sizing arithmetic runs on exact decimals so that a 2%
// risk on a 10000 balance is 200, not 199.99999999999997.
package risk

import (
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/aristath/compass/internal/modules/allocation"
	"github.com/aristath/compass/internal/modules/planning"
	"github.com/aristath/compass/internal/modules/settings"
)

// DefaultRiskPerTrade is the fraction of the account risked on a single
// trade when the caller does not specify one and no override is stored
// in settings.
const DefaultRiskPerTrade = 0.02

// ErrInvalidRiskInput is returned for numeric input the sizing rules
// cannot accept: negative balances or prices, risk outside (0, 1], or
// values that are not finite.
var ErrInvalidRiskInput = errors.New("invalid risk input")

// Manager sizes positions against an account balance. It holds no
// mutable state; the advisor is only consulted for plan-level warnings
// and the settings repository for the configured default risk fraction.
type Manager struct {
	advisor  *allocation.Advisor
	settings *settings.Repository
	log      zerolog.Logger
}

// NewManager creates a new risk manager. A nil settings repository
// pins the default risk fraction to DefaultRiskPerTrade.
func NewManager(advisor *allocation.Advisor, settingsRepo *settings.Repository, log zerolog.Logger) *Manager {
	return &Manager{
		advisor:  advisor,
		settings: settingsRepo,
		log:      log.With().Str("component", "risk").Logger(),
	}
}

// PositionSize returns the maximum amount to commit to a single trade:
// balance × riskPerTrade, exact. A riskPerTrade of 0 applies the
// configured default (2% unless risk_per_trade_default overrides it).
// The result never exceeds the balance because risk is capped at 1.
func (m *Manager) PositionSize(balance, riskPerTrade float64) (decimal.Decimal, error) {
	risk, err := m.normalizeRisk(riskPerTrade)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if !isFinite(balance) || balance < 0 {
		return decimal.Decimal{}, fmt.Errorf("%w: account balance %g", ErrInvalidRiskInput, balance)
	}
	return decimal.NewFromFloat(balance).Mul(risk), nil
}

// StopLossPrice returns the exit price at which the position has lost
// riskPerTrade of its entry value: entry × (1 − risk), exact.
func (m *Manager) StopLossPrice(entryPrice, riskPerTrade float64) (decimal.Decimal, error) {
	risk, err := m.normalizeRisk(riskPerTrade)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if !isFinite(entryPrice) || entryPrice < 0 {
		return decimal.Decimal{}, fmt.Errorf("%w: entry price %g", ErrInvalidRiskInput, entryPrice)
	}
	return decimal.NewFromFloat(entryPrice).Mul(decimal.NewFromInt(1).Sub(risk)), nil
}

// Assessment bundles the sizing numbers for one plan and balance with
// the advisor's plan-level warnings.
type Assessment struct {
	AccountBalance float64         `json:"account_balance"`
	RiskPerTrade   float64         `json:"risk_per_trade"`
	PositionSize   decimal.Decimal `json:"position_size"`
	StopLossFactor decimal.Decimal `json:"stop_loss_factor"`
	Warnings       []string        `json:"warnings"`
}

// Assess sizes a position for the plan at the default risk fraction.
// StopLossFactor is the per-unit stop price (entry scale 1.0), so
// callers multiply by their actual entry price.
func (m *Manager) Assess(plan *planning.Plan, balance float64) (*Assessment, error) {
	riskFraction := m.defaultRisk()
	size, err := m.PositionSize(balance, riskFraction)
	if err != nil {
		return nil, err
	}
	stop, err := m.StopLossPrice(1.0, riskFraction)
	if err != nil {
		return nil, err
	}

	warnings := []string{}
	if m.advisor != nil && plan != nil {
		warnings = m.advisor.Recommend(plan).RiskManagement
	}

	return &Assessment{
		AccountBalance: balance,
		RiskPerTrade:   riskFraction,
		PositionSize:   size,
		StopLossFactor: stop,
		Warnings:       warnings,
	}, nil
}

// defaultRisk reads the stored default risk fraction. Stored values
// outside (0, 1] are ignored rather than turned into sizing errors.
func (m *Manager) defaultRisk() float64 {
	if m.settings == nil {
		return DefaultRiskPerTrade
	}
	risk, err := m.settings.GetFloat("risk_per_trade_default", DefaultRiskPerTrade)
	if err != nil || risk <= 0 || risk > 1 {
		return DefaultRiskPerTrade
	}
	return risk
}

func (m *Manager) normalizeRisk(riskPerTrade float64) (decimal.Decimal, error) {
	if riskPerTrade == 0 {
		riskPerTrade = m.defaultRisk()
	}
	if !isFinite(riskPerTrade) || riskPerTrade <= 0 || riskPerTrade > 1 {
		return decimal.Decimal{}, fmt.Errorf("%w: risk per trade %g", ErrInvalidRiskInput, riskPerTrade)
	}
	return decimal.NewFromFloat(riskPerTrade), nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
