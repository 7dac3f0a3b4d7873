package scheduler

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/aristath/compass/internal/modules/simulation"
)

// DefaultCacheSweepSchedule runs the sweep at the top of every hour.
const DefaultCacheSweepSchedule = "0 0 * * * *"

// CacheSweepJob evicts expired simulation results so the cache does not
// grow without bound between reads.
type CacheSweepJob struct {
	log      zerolog.Logger
	cache    *simulation.Cache
	schedule string
}

// CacheSweepConfig holds configuration for the cache sweep job
type CacheSweepConfig struct {
	Log      zerolog.Logger
	Cache    *simulation.Cache
	Schedule string // cron expression, defaults to hourly
}

// NewCacheSweepJob creates a new cache sweep job
func NewCacheSweepJob(cfg CacheSweepConfig) *CacheSweepJob {
	schedule := cfg.Schedule
	if schedule == "" {
		schedule = DefaultCacheSweepSchedule
	}
	return &CacheSweepJob{
		log:      cfg.Log.With().Str("job", "cache_sweep").Logger(),
		cache:    cfg.Cache,
		schedule: schedule,
	}
}

// Name returns the job name
func (j *CacheSweepJob) Name() string { return "cache_sweep" }

// Schedule returns the job's cron expression
func (j *CacheSweepJob) Schedule() string { return j.schedule }

// Run executes the sweep
func (j *CacheSweepJob) Run(ctx context.Context) error {
	evicted := j.cache.Sweep()
	stats := j.cache.Stats()

	j.log.Info().
		Int("evicted", evicted).
		Int("remaining", stats.Entries).
		Msg("Simulation cache swept")

	return nil
}
