package scheduler

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/compass/internal/backup"
)

// DefaultBackupSchedule uploads snapshots daily at 03:30, after the
// rebalance scan has finished writing.
const DefaultBackupSchedule = "0 30 3 * * *"

// BackupJob snapshots every database and uploads the copies to object
// storage, then prunes uploads older than the retention window.
type BackupJob struct {
	log           zerolog.Logger
	service       *backup.Service
	retentionDays int
	schedule      string
}

// BackupConfig holds configuration for the backup job
type BackupConfig struct {
	Log           zerolog.Logger
	Service       *backup.Service
	RetentionDays int    // prune uploads older than this many days, 0 keeps everything
	Schedule      string // cron expression, defaults to daily at 03:30
}

// NewBackupJob creates a new backup job
func NewBackupJob(cfg BackupConfig) *BackupJob {
	schedule := cfg.Schedule
	if schedule == "" {
		schedule = DefaultBackupSchedule
	}
	return &BackupJob{
		log:           cfg.Log.With().Str("job", "backup").Logger(),
		service:       cfg.Service,
		retentionDays: cfg.RetentionDays,
		schedule:      schedule,
	}
}

// Name returns the job name
func (j *BackupJob) Name() string { return "backup" }

// Schedule returns the job's cron expression
func (j *BackupJob) Schedule() string { return j.schedule }

// Run executes the backup
func (j *BackupJob) Run(ctx context.Context) error {
	result, err := j.service.Run(ctx)
	if err != nil {
		return fmt.Errorf("backup run: %w", err)
	}

	j.log.Info().
		Int("files", len(result.Keys)).
		Int64("bytes", result.TotalBytes).
		Msg("Database backup uploaded")

	// Rotation failures are logged, not fatal; the snapshots made it up
	if j.retentionDays > 0 {
		if err := j.service.RotateOld(ctx, j.retentionDays); err != nil {
			j.log.Error().Err(err).Msg("Failed to rotate old backups")
		}
	}

	return nil
}
