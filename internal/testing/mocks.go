package testing

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aristath/compass/internal/modules/planning"
	"github.com/aristath/compass/internal/modules/trading"
)

// MockPlanRepository is an in-memory plan store for tests
type MockPlanRepository struct {
	mu    sync.RWMutex
	plans []*planning.Plan
	err   error
}

// NewMockPlanRepository creates a new mock plan repository
func NewMockPlanRepository() *MockPlanRepository {
	return &MockPlanRepository{
		plans: make([]*planning.Plan, 0),
	}
}

// SetPlans sets the plans to return
func (m *MockPlanRepository) SetPlans(plans []*planning.Plan) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plans = plans
}

// SetError sets the error to return
func (m *MockPlanRepository) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Create stores a new plan, filling in the id and timestamps the same
// way the real repository does
func (m *MockPlanRepository) Create(plan *planning.Plan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if plan.ID == "" {
		plan.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = now
	}
	if plan.UpdatedAt.IsZero() {
		plan.UpdatedAt = now
	}
	m.plans = append(m.plans, plan)
	return nil
}

// GetByID retrieves a plan by ID, nil when not found. Returns a copy,
// matching the real repository's scan-per-call behavior.
func (m *MockPlanRepository) GetByID(id string) (*planning.Plan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, plan := range m.plans {
		if plan.ID == id {
			return plan.Clone(), nil
		}
	}
	return nil, nil
}

// List returns stored plans matching the filter
func (m *MockPlanRepository) List(filter planning.Filter) ([]*planning.Plan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}

	result := make([]*planning.Plan, 0, len(m.plans))
	for _, plan := range m.plans {
		if filter.ActiveOnly && !plan.IsActive {
			continue
		}
		if filter.RiskLevel != "" && plan.RiskLevel != filter.RiskLevel {
			continue
		}
		if filter.MinInvestmentLTE != nil && plan.MinInvestment > *filter.MinInvestmentLTE {
			continue
		}
		result = append(result, plan.Clone())
	}
	return result, nil
}

// Update replaces the stored plan with the same ID
func (m *MockPlanRepository) Update(plan *planning.Plan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	for i, existing := range m.plans {
		if existing.ID == plan.ID {
			m.plans[i] = plan
			return nil
		}
	}
	return planning.ErrNotFound
}

// Deactivate marks the plan with the given ID inactive
func (m *MockPlanRepository) Deactivate(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	for _, plan := range m.plans {
		if plan.ID == id {
			plan.IsActive = false
			return nil
		}
	}
	return planning.ErrNotFound
}

// MockTradeRepository is an in-memory trade journal for tests
type MockTradeRepository struct {
	mu     sync.RWMutex
	trades []trading.Trade
	err    error
}

// NewMockTradeRepository creates a new mock trade repository
func NewMockTradeRepository() *MockTradeRepository {
	return &MockTradeRepository{
		trades: make([]trading.Trade, 0),
	}
}

// SetTrades sets the trades to return
func (m *MockTradeRepository) SetTrades(trades []trading.Trade) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trades = trades
}

// SetError sets the error to return
func (m *MockTradeRepository) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Create records a new trade
func (m *MockTradeRepository) Create(trade trading.Trade) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	trade.ID = int64(len(m.trades) + 1)
	m.trades = append(m.trades, trade)
	return nil
}

// Exists checks if a trade with the given order_id already exists
func (m *MockTradeRepository) Exists(orderID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return false, m.err
	}
	for _, trade := range m.trades {
		if trade.OrderID == orderID {
			return true, nil
		}
	}
	return false, nil
}

// GetHistory retrieves trade history, most recent first
func (m *MockTradeRepository) GetHistory(limit int) ([]trading.Trade, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	if limit <= 0 || limit > len(m.trades) {
		limit = len(m.trades)
	}

	result := make([]trading.Trade, 0, limit)
	for i := len(m.trades) - 1; i >= 0 && len(result) < limit; i-- {
		result = append(result, m.trades[i])
	}
	return result, nil
}

// GetByAsset retrieves trades for one asset, most recent first
func (m *MockTradeRepository) GetByAsset(asset string, limit int) ([]trading.Trade, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}

	asset = strings.ToUpper(strings.TrimSpace(asset))
	result := make([]trading.Trade, 0)
	for i := len(m.trades) - 1; i >= 0; i-- {
		if limit > 0 && len(result) >= limit {
			break
		}
		if m.trades[i].Asset == asset {
			result = append(result, m.trades[i])
		}
	}
	return result, nil
}

// GetAllInRange retrieves trades within a date range, oldest first
func (m *MockTradeRepository) GetAllInRange(startDate, endDate string) ([]trading.Trade, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}

	start, err := time.Parse("2006-01-02", startDate)
	if err != nil {
		return nil, fmt.Errorf("invalid start_date format (expected YYYY-MM-DD): %w", err)
	}
	end, err := time.Parse("2006-01-02", endDate)
	if err != nil {
		return nil, fmt.Errorf("invalid end_date format (expected YYYY-MM-DD): %w", err)
	}
	end = end.Add(24*time.Hour - time.Second)

	result := make([]trading.Trade, 0)
	for _, trade := range m.trades {
		if !trade.ExecutedAt.Before(start) && !trade.ExecutedAt.After(end) {
			result = append(result, trade)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ExecutedAt.Before(result[j].ExecutedAt)
	})
	return result, nil
}

// CountToday counts trades executed today (UTC)
func (m *MockTradeRepository) CountToday() (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return 0, m.err
	}

	now := time.Now().UTC()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	endOfDay := startOfDay.Add(24 * time.Hour)

	count := 0
	for _, trade := range m.trades {
		executed := trade.ExecutedAt.UTC()
		if !executed.Before(startOfDay) && executed.Before(endOfDay) {
			count++
		}
	}
	return count, nil
}

// Trades returns a copy of all recorded trades in insertion order
func (m *MockTradeRepository) Trades() []trading.Trade {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]trading.Trade, len(m.trades))
	copy(result, m.trades)
	return result
}
