package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/compass/internal/config"
	"github.com/aristath/compass/internal/scheduler"
)

// RegisterJobs creates the scheduler and registers all background jobs.
// Each job has an enablement toggle in the settings database; a toggle
// that cannot be read counts as enabled. The scheduler is stored on the
// container but not started; main starts it once the HTTP server is up.
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container == nil {
		return fmt.Errorf("container cannot be nil")
	}

	sched := scheduler.New(container.EventManager, log)

	// Nightly scan for plans whose rebalancing review period has elapsed
	if jobEnabled(container, "rebalance_scan_enabled", log) {
		rebalanceScan := scheduler.NewRebalanceScanJob(scheduler.RebalanceScanConfig{
			Log:     log,
			Plans:   container.PlanRepo,
			Advisor: container.Advisor,
			Events:  container.EventManager,
		})
		if err := sched.AddJob(rebalanceScan); err != nil {
			return fmt.Errorf("failed to register rebalance scan job: %w", err)
		}
	}

	// Hourly eviction of expired simulation results
	if jobEnabled(container, "cache_sweep_enabled", log) {
		cacheSweep := scheduler.NewCacheSweepJob(scheduler.CacheSweepConfig{
			Log:   log,
			Cache: container.SimCache,
		})
		if err := sched.AddJob(cacheSweep); err != nil {
			return fmt.Errorf("failed to register cache sweep job: %w", err)
		}
	}

	// Nightly S3 upload, only when backups are configured
	if container.BackupService != nil {
		backupJob := scheduler.NewBackupJob(scheduler.BackupConfig{
			Log:           log,
			Service:       container.BackupService,
			RetentionDays: cfg.Backup.RetentionDays,
		})
		if err := sched.AddJob(backupJob); err != nil {
			return fmt.Errorf("failed to register backup job: %w", err)
		}
	}

	container.Scheduler = sched

	return nil
}

// jobEnabled reads a job's settings toggle, defaulting to enabled when
// the toggle is missing or unreadable.
func jobEnabled(container *Container, key string, log zerolog.Logger) bool {
	enabled, err := container.SettingsRepo.GetBool(key, true)
	if err != nil {
		log.Warn().Err(err).Str("setting", key).Msg("Failed to read job toggle, leaving job enabled")
		return true
	}
	if !enabled {
		log.Info().Str("setting", key).Msg("Job disabled by settings")
	}
	return enabled
}
