package trading

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/aristath/compass/internal/events"
	"github.com/aristath/compass/internal/modules/risk"
	"github.com/aristath/compass/internal/modules/settings"
	"github.com/aristath/compass/pkg/formulas"
)

// SourcePaper marks journal rows produced by paper execution.
const SourcePaper = "paper"

// ErrPositionTooLarge is returned when a trade's notional exceeds the
// risk manager's position limit for the account.
var ErrPositionTooLarge = errors.New("position exceeds risk limit")

// TradeJournal is the storage surface the engine records to.
type TradeJournal interface {
	Create(trade Trade) error
}

// Opportunity is the combined strategy view for one asset.
type Opportunity struct {
	Asset          string      `json:"asset"`
	Momentum       Signal      `json:"momentum_strategy"`
	MeanReversion  Signal      `json:"mean_reversion_strategy"`
	Recommendation Signal      `json:"recommendation"`
	Indicators     *Indicators `json:"indicators,omitempty"`
}

// Indicators carries point-in-time technical readings for the asset.
// Fields are nil when the price history is too short to compute them.
type Indicators struct {
	SMA       *float64                 `json:"sma,omitempty"`
	RSI       *float64                 `json:"rsi,omitempty"`
	Bollinger *formulas.BollingerBands `json:"bollinger,omitempty"`
}

// Engine combines the strategies with risk-checked paper execution.
// Signal windows come from the settings repository when one is wired,
// so stored overrides apply without a restart.
type Engine struct {
	journal      TradeJournal
	risk         *risk.Manager
	settings     *settings.Repository
	eventManager *events.Manager
	log          zerolog.Logger
}

// NewEngine creates a new trading engine
func NewEngine(journal TradeJournal, riskManager *risk.Manager, settingsRepo *settings.Repository, eventManager *events.Manager, log zerolog.Logger) *Engine {
	return &Engine{
		journal:      journal,
		risk:         riskManager,
		settings:     settingsRepo,
		eventManager: eventManager,
		log:          log.With().Str("component", "trading").Logger(),
	}
}

// AnalyzeOpportunity runs both strategies over the price history. The
// recommendation is the shared signal when the strategies agree and
// Hold when they disagree.
func (e *Engine) AnalyzeOpportunity(asset string, prices []float64) (*Opportunity, error) {
	if strings.TrimSpace(asset) == "" {
		return nil, fmt.Errorf("%w: asset cannot be empty", ErrInvalidTrade)
	}

	momentum, err := Momentum(prices, e.windowSetting("momentum_window", DefaultMomentumWindow))
	if err != nil {
		return nil, err
	}
	meanRev, err := MeanReversion(prices, e.windowSetting("mean_reversion_window", DefaultMeanReversionWindow))
	if err != nil {
		return nil, err
	}

	recommendation := Hold
	if momentum == meanRev {
		recommendation = momentum
	}

	opp := &Opportunity{
		Asset:          strings.ToUpper(strings.TrimSpace(asset)),
		Momentum:       momentum,
		MeanReversion:  meanRev,
		Recommendation: recommendation,
		Indicators:     snapshotIndicators(prices),
	}

	e.log.Debug().
		Str("asset", opp.Asset).
		Str("recommendation", recommendation.String()).
		Msg("Opportunity analyzed")

	return opp, nil
}

// ExecuteRequest describes a paper order to record.
type ExecuteRequest struct {
	Asset          string  `json:"asset"`
	Side           string  `json:"side"`
	Quantity       float64 `json:"quantity"`
	Price          float64 `json:"price"`
	AccountBalance float64 `json:"account_balance,omitempty"`
}

// ExecuteResult reports a recorded paper trade.
type ExecuteResult struct {
	Status  string `json:"status"`
	OrderID string `json:"order_id"`
	Message string `json:"message"`
	Trade   Trade  `json:"trade"`
}

// ExecuteTrade validates and records a paper trade. When an account
// balance is supplied the trade's notional is checked against the risk
// manager's position limit before anything is written.
func (e *Engine) ExecuteTrade(ctx context.Context, req ExecuteRequest) (*ExecuteResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	side, err := TradeSideFromString(req.Side)
	if err != nil {
		return nil, err
	}

	trade := Trade{
		OrderID:    uuid.New().String(),
		Asset:      req.Asset,
		Side:       side,
		Quantity:   req.Quantity,
		Price:      req.Price,
		Source:     SourcePaper,
		ExecutedAt: time.Now().UTC(),
	}
	if err := trade.Validate(); err != nil {
		return nil, err
	}

	if req.AccountBalance > 0 && e.risk != nil {
		// Risk fraction 0 applies the manager's configured default.
		limit, err := e.risk.PositionSize(req.AccountBalance, 0)
		if err != nil {
			return nil, err
		}
		notional := decimal.NewFromFloat(trade.Quantity).Mul(decimal.NewFromFloat(trade.Price))
		if notional.GreaterThan(limit) {
			return nil, fmt.Errorf("%w: notional %s against a limit of %s", ErrPositionTooLarge, notional, limit)
		}
	}

	if err := e.journal.Create(trade); err != nil {
		return nil, fmt.Errorf("failed to record trade: %w", err)
	}

	if e.eventManager != nil {
		e.eventManager.EmitTyped(events.TradeRecorded, "trading", &events.TradeRecordedData{
			OrderID:  trade.OrderID,
			Asset:    trade.Asset,
			Side:     string(trade.Side),
			Quantity: trade.Quantity,
			Price:    trade.Price,
			Source:   trade.Source,
		})
	}

	e.log.Info().
		Str("order_id", trade.OrderID).
		Str("asset", trade.Asset).
		Str("side", string(trade.Side)).
		Float64("quantity", trade.Quantity).
		Msg("Paper trade executed")

	return &ExecuteResult{
		Status:  "success",
		OrderID: trade.OrderID,
		Message: fmt.Sprintf("%s order executed", side.Title()),
		Trade:   trade,
	}, nil
}

// windowSetting reads a stored lookback window, ignoring values that
// are missing, unreadable, or not positive.
func (e *Engine) windowSetting(key string, fallback int) int {
	if e.settings == nil {
		return fallback
	}
	window, err := e.settings.GetInt(key, fallback)
	if err != nil || window <= 0 {
		return fallback
	}
	return window
}

func snapshotIndicators(prices []float64) *Indicators {
	ind := &Indicators{
		SMA:       formulas.CalculateSMA(prices, 20),
		RSI:       formulas.CalculateRSI(prices, 14),
		Bollinger: formulas.CalculateBollingerBands(prices, 20, 2.0),
	}
	if ind.SMA == nil && ind.RSI == nil && ind.Bollinger == nil {
		return nil
	}
	return ind
}
