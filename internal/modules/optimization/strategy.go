// Package optimization transforms a plan's allocation/return/volatility
// triple according to a named rebalancing strategy.
package optimization

// Strategy names a rebalancing approach
type Strategy string

const (
	StrategyBalanced     Strategy = "balanced"
	StrategyAggressive   Strategy = "aggressive"
	StrategyConservative Strategy = "conservative"
)

// IsValid checks if the strategy is one of the known names
func (s Strategy) IsValid() bool {
	switch s {
	case StrategyBalanced, StrategyAggressive, StrategyConservative:
		return true
	}
	return false
}

// ParseStrategy maps a raw string to a Strategy. Unknown or empty input
// falls back to StrategyBalanced, the documented default; ok reports
// whether the input named a known strategy so callers can warn.
func ParseStrategy(raw string) (strategy Strategy, ok bool) {
	s := Strategy(raw)
	if s.IsValid() {
		return s, true
	}
	return StrategyBalanced, false
}
