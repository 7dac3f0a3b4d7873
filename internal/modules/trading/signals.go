package trading

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aristath/compass/pkg/formulas"
)

// Signal is a trading recommendation produced by a strategy.
type Signal int

const (
	Hold Signal = iota
	Buy
	Sell
)

// Default lookback windows, matching the strategy definitions.
const (
	DefaultMomentumWindow      = 14
	DefaultMeanReversionWindow = 20
)

var (
	// ErrInvalidWindow is returned when a strategy window is not positive.
	ErrInvalidWindow = errors.New("window must be positive")

	// ErrNaNInput is returned when a price history contains NaN values.
	ErrNaNInput = errors.New("price history contains NaN")
)

// String returns the wire form of the signal
func (s Signal) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	}
	return "hold"
}

// MarshalJSON encodes the signal as its string form
func (s Signal) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a signal from its string form
func (s *Signal) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch raw {
	case "buy":
		*s = Buy
	case "sell":
		*s = Sell
	case "hold":
		*s = Hold
	default:
		return fmt.Errorf("unknown signal %q", raw)
	}
	return nil
}

// Momentum signals on the price change across the lookback window: the
// last price against the one window-1 steps before it. Histories
// shorter than the window produce Hold.
func Momentum(prices []float64, window int) (Signal, error) {
	if window <= 0 {
		return Hold, fmt.Errorf("%w: %d", ErrInvalidWindow, window)
	}
	if formulas.ContainsNaN(prices) {
		return Hold, ErrNaNInput
	}
	if len(prices) < window {
		return Hold, nil
	}

	momentum := prices[len(prices)-1] - prices[len(prices)-window]
	switch {
	case momentum > 0:
		return Buy, nil
	case momentum < 0:
		return Sell, nil
	}
	return Hold, nil
}

// MeanReversion signals when the last price leaves the one-sigma band
// around the window mean. Sigma is the population standard deviation,
// and the band is exclusive, so a flat window always holds.
func MeanReversion(prices []float64, window int) (Signal, error) {
	if window <= 0 {
		return Hold, fmt.Errorf("%w: %d", ErrInvalidWindow, window)
	}
	if formulas.ContainsNaN(prices) {
		return Hold, ErrNaNInput
	}
	if len(prices) < window {
		return Hold, nil
	}

	tail := prices[len(prices)-window:]
	mean := formulas.Mean(tail)
	sigma := formulas.PopStdDev(tail)
	current := prices[len(prices)-1]

	switch {
	case current < mean-sigma:
		return Buy, nil
	case current > mean+sigma:
		return Sell, nil
	}
	return Hold, nil
}
