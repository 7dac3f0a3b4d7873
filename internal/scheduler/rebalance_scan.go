package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/compass/internal/events"
	"github.com/aristath/compass/internal/modules/allocation"
	"github.com/aristath/compass/internal/modules/planning"
)

// DefaultRebalanceScanSchedule runs the scan daily at 02:00.
const DefaultRebalanceScanSchedule = "0 0 2 * * *"

// PlanSource is the plan surface the rebalance scan needs
type PlanSource interface {
	List(filter planning.Filter) ([]*planning.Plan, error)
	Touch(id string) error
}

// RebalanceScanJob walks active plans and produces rebalance advice for
// the ones whose review period has elapsed. A plan is due when its
// rebalancing frequency's period has passed since the last update, so
// editing a plan resets its review clock.
type RebalanceScanJob struct {
	log      zerolog.Logger
	plans    PlanSource
	advisor  *allocation.Advisor
	events   *events.Manager
	schedule string
}

// RebalanceScanConfig holds configuration for the rebalance scan job
type RebalanceScanConfig struct {
	Log      zerolog.Logger
	Plans    PlanSource
	Advisor  *allocation.Advisor
	Events   *events.Manager
	Schedule string // cron expression, defaults to daily at 02:00
}

// NewRebalanceScanJob creates a new rebalance scan job
func NewRebalanceScanJob(cfg RebalanceScanConfig) *RebalanceScanJob {
	schedule := cfg.Schedule
	if schedule == "" {
		schedule = DefaultRebalanceScanSchedule
	}
	return &RebalanceScanJob{
		log:      cfg.Log.With().Str("job", "rebalance_scan").Logger(),
		plans:    cfg.Plans,
		advisor:  cfg.Advisor,
		events:   cfg.Events,
		schedule: schedule,
	}
}

// Name returns the job name
func (j *RebalanceScanJob) Name() string { return "rebalance_scan" }

// Schedule returns the job's cron expression
func (j *RebalanceScanJob) Schedule() string { return j.schedule }

// Run executes the scan
func (j *RebalanceScanJob) Run(ctx context.Context) error {
	j.log.Info().Msg("Starting rebalance scan")
	start := time.Now()

	plans, err := j.plans.List(planning.Filter{ActiveOnly: true})
	if err != nil {
		return fmt.Errorf("load active plans: %w", err)
	}

	due := 0
	flagged := 0

	for _, plan := range plans {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		period := plan.RebalancingFrequency.Period()
		if period == 0 {
			// No rebalancing cadence configured, nothing to review
			continue
		}
		if start.Sub(plan.UpdatedAt) < period {
			continue
		}
		due++

		set := j.advisor.Recommend(plan)
		if len(set.AssetAllocation) > 0 {
			flagged++
			j.log.Info().
				Str("plan_id", plan.ID).
				Str("name", plan.Name).
				Int("suggestions", len(set.AssetAllocation)).
				Int("warnings", len(set.RiskManagement)).
				Msg("Plan allocation drifted past review period")

			if j.events != nil {
				j.events.EmitTyped(events.RecommendationsReady, "scheduler", &events.RecommendationsReadyData{
					PlanID: plan.ID,
					Count:  len(set.AssetAllocation),
				})
			}
		}

		// Mark the plan reviewed so the next scan waits a full period
		if err := j.plans.Touch(plan.ID); err != nil {
			j.log.Error().Err(err).Str("plan_id", plan.ID).Msg("Failed to mark plan reviewed")
		}
	}

	j.log.Info().
		Int("plans", len(plans)).
		Int("due", due).
		Int("flagged", flagged).
		Dur("duration", time.Since(start)).
		Msg("Rebalance scan completed")

	return nil
}
