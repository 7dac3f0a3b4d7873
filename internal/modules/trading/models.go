package trading

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// TradeSide represents the trade direction (BUY or SELL)
type TradeSide string

const (
	TradeSideBuy  TradeSide = "BUY"
	TradeSideSell TradeSide = "SELL"
)

// ErrInvalidTrade is returned when a trade fails validation.
var ErrInvalidTrade = errors.New("invalid trade")

// IsValid checks if the trade side is valid
func (ts TradeSide) IsValid() bool {
	return ts == TradeSideBuy || ts == TradeSideSell
}

// IsBuy returns true if this is a BUY trade
func (ts TradeSide) IsBuy() bool {
	return ts == TradeSideBuy
}

// Title returns the side in sentence case ("Buy", "Sell")
func (ts TradeSide) Title() string {
	switch ts {
	case TradeSideBuy:
		return "Buy"
	case TradeSideSell:
		return "Sell"
	}
	return string(ts)
}

// TradeSideFromString creates TradeSide from a string (case-insensitive)
func TradeSideFromString(value string) (TradeSide, error) {
	if value == "" {
		return "", fmt.Errorf("%w: empty trade side", ErrInvalidTrade)
	}

	switch strings.ToUpper(value) {
	case "BUY":
		return TradeSideBuy, nil
	case "SELL":
		return TradeSideSell, nil
	default:
		return "", fmt.Errorf("%w: unknown trade side %q", ErrInvalidTrade, value)
	}
}

// Trade is one journal row: a paper order that was executed and recorded.
type Trade struct {
	ID         int64     `json:"id"`
	OrderID    string    `json:"order_id"`
	Asset      string    `json:"asset"`
	Side       TradeSide `json:"side"`
	Quantity   float64   `json:"quantity"`
	Price      float64   `json:"price"`
	Source     string    `json:"source"`
	ExecutedAt time.Time `json:"executed_at"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
}

// Validate validates trade data and normalizes the asset name
func (t *Trade) Validate() error {
	if strings.TrimSpace(t.Asset) == "" {
		return fmt.Errorf("%w: asset cannot be empty", ErrInvalidTrade)
	}

	if !t.Side.IsValid() {
		return fmt.Errorf("%w: unknown trade side %q", ErrInvalidTrade, string(t.Side))
	}

	if math.IsNaN(t.Quantity) || math.IsInf(t.Quantity, 0) || t.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", ErrInvalidTrade)
	}

	if math.IsNaN(t.Price) || math.IsInf(t.Price, 0) || t.Price <= 0 {
		return fmt.Errorf("%w: price must be positive", ErrInvalidTrade)
	}

	t.Asset = strings.ToUpper(strings.TrimSpace(t.Asset))

	return nil
}

// Notional is the cash value of the trade (quantity × price)
func (t *Trade) Notional() float64 {
	return t.Quantity * t.Price
}
