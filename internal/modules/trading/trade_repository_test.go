package trading

import (
	"database/sql"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// newTestJournal creates a repository backed by an in-memory trades table
func newTestJournal(t *testing.T) *TradeRepository {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE trades (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			order_id TEXT NOT NULL,
			asset TEXT NOT NULL,
			side TEXT NOT NULL,
			quantity REAL NOT NULL,
			price REAL NOT NULL,
			source TEXT NOT NULL DEFAULT 'paper',
			executed_at INTEGER NOT NULL,
			created_at INTEGER NOT NULL
		);
		CREATE UNIQUE INDEX idx_trades_order_id ON trades(order_id);
	`)
	if err != nil {
		t.Fatalf("Failed to create test table: %v", err)
	}

	log := zerolog.New(nil).Level(zerolog.Disabled)
	return NewTradeRepository(db, log)
}

func testTrade(orderID, asset string, side TradeSide, executedAt time.Time) Trade {
	return Trade{
		OrderID:    orderID,
		Asset:      asset,
		Side:       side,
		Quantity:   2,
		Price:      150,
		Source:     SourcePaper,
		ExecutedAt: executedAt,
	}
}

func TestTradeCreateAndGetByOrderID(t *testing.T) {
	repo := newTestJournal(t)
	executed := time.Unix(1700000000, 0).UTC()

	err := repo.Create(testTrade("ord-1", "btc", TradeSideBuy, executed))
	require.NoError(t, err)

	trade, err := repo.GetByOrderID("ord-1")
	require.NoError(t, err)
	require.NotNil(t, trade)

	assert.Equal(t, "ord-1", trade.OrderID)
	assert.Equal(t, "BTC", trade.Asset, "asset should be stored uppercase")
	assert.Equal(t, TradeSideBuy, trade.Side)
	assert.Equal(t, 2.0, trade.Quantity)
	assert.Equal(t, 150.0, trade.Price)
	assert.Equal(t, SourcePaper, trade.Source)
	assert.Equal(t, executed, trade.ExecutedAt)
	assert.False(t, trade.CreatedAt.IsZero())
	assert.NotZero(t, trade.ID)
}

func TestTradeGetByOrderIDMissing(t *testing.T) {
	repo := newTestJournal(t)

	trade, err := repo.GetByOrderID("no-such-order")
	require.NoError(t, err)
	assert.Nil(t, trade)
}

func TestTradeCreateSkipsDuplicateOrderID(t *testing.T) {
	repo := newTestJournal(t)
	executed := time.Unix(1700000000, 0).UTC()

	first := testTrade("ord-dup", "ETH", TradeSideBuy, executed)
	require.NoError(t, repo.Create(first))

	// Same order id with different numbers: the original row wins.
	second := testTrade("ord-dup", "ETH", TradeSideSell, executed.Add(time.Hour))
	second.Quantity = 99
	require.NoError(t, repo.Create(second))

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	trade, err := repo.GetByOrderID("ord-dup")
	require.NoError(t, err)
	require.NotNil(t, trade)
	assert.Equal(t, TradeSideBuy, trade.Side)
	assert.Equal(t, 2.0, trade.Quantity)
}

func TestTradeCreateValidates(t *testing.T) {
	repo := newTestJournal(t)
	executed := time.Unix(1700000000, 0).UTC()

	testCases := []struct {
		name   string
		mutate func(*Trade)
	}{
		{
			name:   "empty asset",
			mutate: func(tr *Trade) { tr.Asset = "  " },
		},
		{
			name:   "unknown side",
			mutate: func(tr *Trade) { tr.Side = "SHORT" },
		},
		{
			name:   "zero quantity",
			mutate: func(tr *Trade) { tr.Quantity = 0 },
		},
		{
			name:   "negative price",
			mutate: func(tr *Trade) { tr.Price = -10 },
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			trade := testTrade("ord-bad-"+tc.name, "BTC", TradeSideBuy, executed)
			tc.mutate(&trade)

			err := repo.Create(trade)
			assert.Error(t, err)
		})
	}

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, 0, count, "invalid trades must not reach the journal")
}

func TestTradeGetHistoryOrdersAndLimits(t *testing.T) {
	repo := newTestJournal(t)
	base := time.Unix(1700000000, 0).UTC()

	require.NoError(t, repo.Create(testTrade("ord-a", "BTC", TradeSideBuy, base)))
	require.NoError(t, repo.Create(testTrade("ord-b", "ETH", TradeSideSell, base.Add(time.Hour))))
	require.NoError(t, repo.Create(testTrade("ord-c", "BTC", TradeSideBuy, base.Add(2*time.Hour))))

	trades, err := repo.GetHistory(2)
	require.NoError(t, err)
	require.Len(t, trades, 2)

	assert.Equal(t, "ord-c", trades[0].OrderID, "most recent trade comes first")
	assert.Equal(t, "ord-b", trades[1].OrderID)
}

func TestTradeGetByAsset(t *testing.T) {
	repo := newTestJournal(t)
	base := time.Unix(1700000000, 0).UTC()

	require.NoError(t, repo.Create(testTrade("ord-a", "BTC", TradeSideBuy, base)))
	require.NoError(t, repo.Create(testTrade("ord-b", "ETH", TradeSideSell, base.Add(time.Hour))))
	require.NoError(t, repo.Create(testTrade("ord-c", "BTC", TradeSideSell, base.Add(2*time.Hour))))

	trades, err := repo.GetByAsset("btc", 10)
	require.NoError(t, err)
	require.Len(t, trades, 2)

	assert.Equal(t, "ord-c", trades[0].OrderID)
	assert.Equal(t, "ord-a", trades[1].OrderID)
	for _, trade := range trades {
		assert.Equal(t, "BTC", trade.Asset)
	}
}

func TestTradeGetAllInRange(t *testing.T) {
	repo := newTestJournal(t)

	day1 := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 3, 11, 9, 30, 0, 0, time.UTC)
	day3 := time.Date(2026, 3, 12, 23, 59, 59, 0, time.UTC)
	day4 := time.Date(2026, 3, 13, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(testTrade("ord-1", "BTC", TradeSideBuy, day1)))
	require.NoError(t, repo.Create(testTrade("ord-2", "ETH", TradeSideSell, day2)))
	require.NoError(t, repo.Create(testTrade("ord-3", "BTC", TradeSideBuy, day3)))
	require.NoError(t, repo.Create(testTrade("ord-4", "BTC", TradeSideSell, day4)))

	trades, err := repo.GetAllInRange("2026-03-11", "2026-03-12")
	require.NoError(t, err)
	require.Len(t, trades, 2)

	// Oldest first, and the end date covers its whole day.
	assert.Equal(t, "ord-2", trades[0].OrderID)
	assert.Equal(t, "ord-3", trades[1].OrderID)
}

func TestTradeGetAllInRangeBadDates(t *testing.T) {
	repo := newTestJournal(t)

	_, err := repo.GetAllInRange("11-03-2026", "2026-03-12")
	assert.ErrorContains(t, err, "start_date")

	_, err = repo.GetAllInRange("2026-03-11", "not-a-date")
	assert.ErrorContains(t, err, "end_date")
}

func TestTradeCountToday(t *testing.T) {
	repo := newTestJournal(t)
	now := time.Now().UTC()

	require.NoError(t, repo.Create(testTrade("ord-today", "BTC", TradeSideBuy, now)))
	require.NoError(t, repo.Create(testTrade("ord-past", "BTC", TradeSideSell, now.Add(-48*time.Hour))))

	count, err := repo.CountToday()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
