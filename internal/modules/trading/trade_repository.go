package trading

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// TradeRepository handles trade journal database operations
type TradeRepository struct {
	ledgerDB *sql.DB // ledger.db - trades table
	log      zerolog.Logger
}

// tradesColumns is the list of columns for the trades table
// Column order must match the scan functions below
const tradesColumns = `id, order_id, asset, side, quantity, price, source, executed_at, created_at`

// NewTradeRepository creates a new trade repository
func NewTradeRepository(ledgerDB *sql.DB, log zerolog.Logger) *TradeRepository {
	return &TradeRepository{
		ledgerDB: ledgerDB,
		log:      log.With().Str("repo", "trade").Logger(),
	}
}

// Create inserts a new journal row. A trade whose order id is already
// recorded is skipped silently; the journal is append-only and the
// first record wins.
func (r *TradeRepository) Create(trade Trade) error {
	if err := trade.Validate(); err != nil {
		return fmt.Errorf("failed to create trade: %w", err)
	}

	if trade.OrderID != "" {
		exists, err := r.Exists(trade.OrderID)
		if err != nil {
			return fmt.Errorf("failed to check for existing trade: %w", err)
		}
		if exists {
			r.log.Debug().
				Str("order_id", trade.OrderID).
				Msg("Trade with order_id already exists, skipping duplicate")
			return nil
		}
	}

	executedAt := trade.ExecutedAt
	if executedAt.IsZero() {
		executedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO trades
		(order_id, asset, side, quantity, price, source, executed_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	source := trade.Source
	if source == "" {
		source = SourcePaper
	}

	_, err := r.ledgerDB.Exec(query,
		trade.OrderID,
		trade.Asset,
		string(trade.Side),
		trade.Quantity,
		trade.Price,
		source,
		executedAt.Unix(),
		time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to create trade: %w", err)
	}

	r.log.Info().
		Str("asset", trade.Asset).
		Str("side", string(trade.Side)).
		Float64("quantity", trade.Quantity).
		Msg("Trade recorded")

	return nil
}

// GetByOrderID retrieves a trade by its order id. Returns nil when no
// trade with that id exists.
func (r *TradeRepository) GetByOrderID(orderID string) (*Trade, error) {
	query := "SELECT " + tradesColumns + " FROM trades WHERE order_id = ?"

	row := r.ledgerDB.QueryRow(query, orderID)
	trade, err := r.scanTrade(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trade by order_id: %w", err)
	}

	return &trade, nil
}

// Exists checks if a trade with the given order_id already exists
func (r *TradeRepository) Exists(orderID string) (bool, error) {
	query := "SELECT 1 FROM trades WHERE order_id = ? LIMIT 1"

	var exists int
	err := r.ledgerDB.QueryRow(query, orderID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check trade existence: %w", err)
	}

	return true, nil
}

// GetHistory retrieves trade history, most recent first
func (r *TradeRepository) GetHistory(limit int) ([]Trade, error) {
	query := `
		SELECT ` + tradesColumns + ` FROM trades
		ORDER BY executed_at DESC, id DESC
		LIMIT ?
	`

	rows, err := r.ledgerDB.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get trade history: %w", err)
	}
	defer rows.Close()

	return r.collectTrades(rows)
}

// GetByAsset retrieves trades for one asset, most recent first
func (r *TradeRepository) GetByAsset(asset string, limit int) ([]Trade, error) {
	query := `
		SELECT ` + tradesColumns + ` FROM trades
		WHERE asset = ?
		ORDER BY executed_at DESC, id DESC
		LIMIT ?
	`

	rows, err := r.ledgerDB.Query(query, strings.ToUpper(strings.TrimSpace(asset)), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get trades by asset: %w", err)
	}
	defer rows.Close()

	return r.collectTrades(rows)
}

// GetAllInRange retrieves all trades within a date range, oldest first.
// startDate and endDate are YYYY-MM-DD; the range covers both days in
// full, in UTC.
func (r *TradeRepository) GetAllInRange(startDate, endDate string) ([]Trade, error) {
	startTime, err := time.Parse("2006-01-02", startDate)
	if err != nil {
		return nil, fmt.Errorf("invalid start_date format (expected YYYY-MM-DD): %w", err)
	}
	startUnix := time.Date(startTime.Year(), startTime.Month(), startTime.Day(), 0, 0, 0, 0, time.UTC).Unix()

	endTime, err := time.Parse("2006-01-02", endDate)
	if err != nil {
		return nil, fmt.Errorf("invalid end_date format (expected YYYY-MM-DD): %w", err)
	}
	endUnix := time.Date(endTime.Year(), endTime.Month(), endTime.Day(), 23, 59, 59, 0, time.UTC).Unix()

	query := `
		SELECT ` + tradesColumns + ` FROM trades
		WHERE executed_at >= ? AND executed_at <= ?
		ORDER BY executed_at ASC, id ASC
	`

	rows, err := r.ledgerDB.Query(query, startUnix, endUnix)
	if err != nil {
		return nil, fmt.Errorf("failed to get trades in range: %w", err)
	}
	defer rows.Close()

	return r.collectTrades(rows)
}

// CountToday counts trades executed today (UTC)
func (r *TradeRepository) CountToday() (int, error) {
	now := time.Now().UTC()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	endOfDay := startOfDay.Add(24 * time.Hour)

	query := `
		SELECT COUNT(*) as cnt
		FROM trades
		WHERE executed_at >= ? AND executed_at < ?
	`

	var count int
	err := r.ledgerDB.QueryRow(query, startOfDay.Unix(), endOfDay.Unix()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count today's trades: %w", err)
	}

	return count, nil
}

// Count returns the total number of journal rows
func (r *TradeRepository) Count() (int, error) {
	var count int
	err := r.ledgerDB.QueryRow("SELECT COUNT(*) FROM trades").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count trades: %w", err)
	}

	return count, nil
}

// Helper methods

func (r *TradeRepository) collectTrades(rows *sql.Rows) ([]Trade, error) {
	var trades []Trade
	for rows.Next() {
		trade, err := r.scanTradeFromRows(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		trades = append(trades, trade)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trades: %w", err)
	}

	return trades, nil
}

func (r *TradeRepository) scanTrade(row *sql.Row) (Trade, error) {
	var trade Trade
	var executedAt, createdAt int64

	err := row.Scan(
		&trade.ID,
		&trade.OrderID,
		&trade.Asset,
		&trade.Side,
		&trade.Quantity,
		&trade.Price,
		&trade.Source,
		&executedAt,
		&createdAt,
	)
	if err != nil {
		return trade, err
	}

	trade.ExecutedAt = time.Unix(executedAt, 0).UTC()
	trade.CreatedAt = time.Unix(createdAt, 0).UTC()

	return trade, nil
}

func (r *TradeRepository) scanTradeFromRows(rows *sql.Rows) (Trade, error) {
	var trade Trade
	var executedAt, createdAt int64

	err := rows.Scan(
		&trade.ID,
		&trade.OrderID,
		&trade.Asset,
		&trade.Side,
		&trade.Quantity,
		&trade.Price,
		&trade.Source,
		&executedAt,
		&createdAt,
	)
	if err != nil {
		return trade, err
	}

	trade.ExecutedAt = time.Unix(executedAt, 0).UTC()
	trade.CreatedAt = time.Unix(createdAt, 0).UTC()

	return trade, nil
}
