package planning

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrNotFound is returned when an operation targets a plan id that does
// not exist.
var ErrNotFound = errors.New("investment plan not found")

// plansColumns is the list of columns for the plans table.
// Used to avoid SELECT * which can break when schema changes.
// Column order must match scanPlan() and scanPlanFromRows().
const plansColumns = `id, name, description, risk_level, min_investment, max_investment, asset_allocation, expected_return, volatility, investment_duration, rebalancing_frequency, is_active, created_at, updated_at`

// Repository handles plan database operations against plans.db
type Repository struct {
	plansDB *sql.DB
	log     zerolog.Logger
}

// NewRepository creates a new plan repository
func NewRepository(plansDB *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		plansDB: plansDB,
		log:     log.With().Str("repo", "plans").Logger(),
	}
}

// Create inserts a new plan record. A missing id is assigned a fresh uuid
// and zero timestamps are filled with the current time, so callers can
// pass a bare plan straight from a request.
func (r *Repository) Create(plan *Plan) error {
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

	allocationJSON, err := marshalAllocation(plan.AssetAllocation)
	if err != nil {
		return fmt.Errorf("failed to create plan: %w", err)
	}

	query := `
		INSERT INTO plans
		(id, name, description, risk_level, min_investment, max_investment,
		 asset_allocation, expected_return, volatility, investment_duration,
		 rebalancing_frequency, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.plansDB.Exec(query,
		plan.ID,
		strings.TrimSpace(plan.Name),
		plan.Description,
		string(plan.RiskLevel),
		plan.MinInvestment,
		nullFloat64Ptr(plan.MaxInvestment),
		allocationJSON,
		plan.ExpectedReturn,
		plan.Volatility,
		nullIntPtr(plan.InvestmentDuration),
		nullString(string(plan.RebalancingFrequency)),
		plan.IsActive,
		plan.CreatedAt.Unix(),
		plan.UpdatedAt.Unix(),
	)

	if err != nil {
		return fmt.Errorf("failed to create plan: %w", err)
	}

	r.log.Info().
		Str("plan_id", plan.ID).
		Str("name", plan.Name).
		Str("risk_level", string(plan.RiskLevel)).
		Msg("Investment plan created")

	return nil
}

// GetByID retrieves a plan by id, nil when not found
func (r *Repository) GetByID(id string) (*Plan, error) {
	query := "SELECT " + plansColumns + " FROM plans WHERE id = ?"

	row := r.plansDB.QueryRow(query, id)
	plan, err := r.scanPlan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plan by id: %w", err)
	}

	return &plan, nil
}

// List retrieves plans matching the filter, newest first
func (r *Repository) List(filter Filter) ([]*Plan, error) {
	query := "SELECT " + plansColumns + " FROM plans"

	var conds []string
	var args []interface{}
	if filter.ActiveOnly {
		conds = append(conds, "is_active = 1")
	}
	if filter.RiskLevel != "" {
		conds = append(conds, "risk_level = ?")
		args = append(args, string(filter.RiskLevel))
	}
	if filter.MinInvestmentLTE != nil {
		conds = append(conds, "min_investment <= ?")
		args = append(args, *filter.MinInvestmentLTE)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC, name ASC"

	rows, err := r.plansDB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	defer rows.Close()

	var plans []*Plan
	for rows.Next() {
		plan, err := r.scanPlanFromRows(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan plan: %w", err)
		}
		plans = append(plans, &plan)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating plans: %w", err)
	}

	return plans, nil
}

// Update writes every mutable column of the plan and bumps updated_at.
// Callers merge the allowed fields into a loaded plan first, so a partial
// update arrives here as a full record. Returns ErrNotFound when the id
// does not exist.
func (r *Repository) Update(plan *Plan) error {
	plan.UpdatedAt = time.Now().UTC()

	allocationJSON, err := marshalAllocation(plan.AssetAllocation)
	if err != nil {
		return fmt.Errorf("failed to update plan: %w", err)
	}

	query := `
		UPDATE plans
		SET name = ?, description = ?, risk_level = ?, min_investment = ?,
		    max_investment = ?, asset_allocation = ?, expected_return = ?,
		    volatility = ?, investment_duration = ?, rebalancing_frequency = ?,
		    is_active = ?, updated_at = ?
		WHERE id = ?
	`

	res, err := r.plansDB.Exec(query,
		strings.TrimSpace(plan.Name),
		plan.Description,
		string(plan.RiskLevel),
		plan.MinInvestment,
		nullFloat64Ptr(plan.MaxInvestment),
		allocationJSON,
		plan.ExpectedReturn,
		plan.Volatility,
		nullIntPtr(plan.InvestmentDuration),
		nullString(string(plan.RebalancingFrequency)),
		plan.IsActive,
		plan.UpdatedAt.Unix(),
		plan.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update plan: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update plan: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	r.log.Info().
		Str("plan_id", plan.ID).
		Str("name", plan.Name).
		Msg("Investment plan updated")

	return nil
}

// Deactivate soft-deletes a plan. The record stays queryable for history
// but disappears from active listings and the rebalance scan.
func (r *Repository) Deactivate(id string) error {
	now := time.Now().UTC().Unix()

	res, err := r.plansDB.Exec(
		"UPDATE plans SET is_active = 0, updated_at = ? WHERE id = ?",
		now, id,
	)
	if err != nil {
		return fmt.Errorf("failed to deactivate plan: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to deactivate plan: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	r.log.Info().Str("plan_id", id).Msg("Investment plan deactivated")

	return nil
}

// Count returns the total number of plans, active or not
func (r *Repository) Count() (int, error) {
	var count int
	err := r.plansDB.QueryRow("SELECT COUNT(*) FROM plans").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count plans: %w", err)
	}

	return count, nil
}

// Touch bumps updated_at without changing content. The rebalance scan
// uses it to mark a plan as checked so it is not re-examined until the
// next period.
func (r *Repository) Touch(id string) error {
	now := time.Now().UTC().Unix()

	res, err := r.plansDB.Exec("UPDATE plans SET updated_at = ? WHERE id = ?", now, id)
	if err != nil {
		return fmt.Errorf("failed to touch plan: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to touch plan: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

// Helper methods

func (r *Repository) scanPlan(row *sql.Row) (Plan, error) {
	var plan Plan
	var maxInvestment sql.NullFloat64
	var investmentDuration sql.NullInt64
	var rebalancing sql.NullString
	var allocationJSON string
	var createdAt, updatedAt int64

	err := row.Scan(
		&plan.ID,             // 0: id
		&plan.Name,           // 1: name
		&plan.Description,    // 2: description
		&plan.RiskLevel,      // 3: risk_level
		&plan.MinInvestment,  // 4: min_investment
		&maxInvestment,       // 5: max_investment
		&allocationJSON,      // 6: asset_allocation (JSON text)
		&plan.ExpectedReturn, // 7: expected_return
		&plan.Volatility,     // 8: volatility
		&investmentDuration,  // 9: investment_duration
		&rebalancing,         // 10: rebalancing_frequency
		&plan.IsActive,       // 11: is_active
		&createdAt,           // 12: created_at (Unix timestamp)
		&updatedAt,           // 13: updated_at (Unix timestamp)
	)

	if err != nil {
		return plan, err
	}

	if maxInvestment.Valid {
		plan.MaxInvestment = &maxInvestment.Float64
	}
	if investmentDuration.Valid {
		months := int(investmentDuration.Int64)
		plan.InvestmentDuration = &months
	}
	if rebalancing.Valid {
		plan.RebalancingFrequency = RebalancingFrequency(rebalancing.String)
	}

	plan.CreatedAt = time.Unix(createdAt, 0).UTC()
	plan.UpdatedAt = time.Unix(updatedAt, 0).UTC()

	if err := json.Unmarshal([]byte(allocationJSON), &plan.AssetAllocation); err != nil {
		return plan, fmt.Errorf("failed to decode asset allocation: %w", err)
	}

	return plan, nil
}

func (r *Repository) scanPlanFromRows(rows *sql.Rows) (Plan, error) {
	var plan Plan
	var maxInvestment sql.NullFloat64
	var investmentDuration sql.NullInt64
	var rebalancing sql.NullString
	var allocationJSON string
	var createdAt, updatedAt int64

	err := rows.Scan(
		&plan.ID,             // 0: id
		&plan.Name,           // 1: name
		&plan.Description,    // 2: description
		&plan.RiskLevel,      // 3: risk_level
		&plan.MinInvestment,  // 4: min_investment
		&maxInvestment,       // 5: max_investment
		&allocationJSON,      // 6: asset_allocation (JSON text)
		&plan.ExpectedReturn, // 7: expected_return
		&plan.Volatility,     // 8: volatility
		&investmentDuration,  // 9: investment_duration
		&rebalancing,         // 10: rebalancing_frequency
		&plan.IsActive,       // 11: is_active
		&createdAt,           // 12: created_at (Unix timestamp)
		&updatedAt,           // 13: updated_at (Unix timestamp)
	)

	if err != nil {
		return plan, err
	}

	if maxInvestment.Valid {
		plan.MaxInvestment = &maxInvestment.Float64
	}
	if investmentDuration.Valid {
		months := int(investmentDuration.Int64)
		plan.InvestmentDuration = &months
	}
	if rebalancing.Valid {
		plan.RebalancingFrequency = RebalancingFrequency(rebalancing.String)
	}

	plan.CreatedAt = time.Unix(createdAt, 0).UTC()
	plan.UpdatedAt = time.Unix(updatedAt, 0).UTC()

	if err := json.Unmarshal([]byte(allocationJSON), &plan.AssetAllocation); err != nil {
		return plan, fmt.Errorf("failed to decode asset allocation: %w", err)
	}

	return plan, nil
}

// Helper functions

// marshalAllocation encodes the allocation map as JSON text for storage.
// A nil map is stored as an empty object so scans always decode.
func marshalAllocation(allocation map[string]float64) (string, error) {
	if allocation == nil {
		allocation = map[string]float64{}
	}

	raw, err := json.Marshal(allocation)
	if err != nil {
		return "", fmt.Errorf("failed to encode asset allocation: %w", err)
	}
	return string(raw), nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullFloat64Ptr(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{Valid: false}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func nullIntPtr(i *int) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{Valid: false}
	}
	return sql.NullInt64{Int64: int64(*i), Valid: true}
}
