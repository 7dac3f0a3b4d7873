package backup

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// stampLayout names backup runs; keys look like
// <prefix>/2026-01-08-143022/<dbname>.db
const stampLayout = "2006-01-02-150405"

// minRunsToKeep is the floor rotation never deletes below
const minRunsToKeep = 3

// Snapshotter is the database surface the service snapshots
type Snapshotter interface {
	Name() string
	WALCheckpoint(mode string) error
	BackupTo(destPath string) error
}

// ObjectStore is the storage surface backups are written to.
// *Client implements it.
type ObjectStore interface {
	Upload(ctx context.Context, key string, body io.Reader) error
	List(ctx context.Context, prefix string) ([]Object, error)
	Delete(ctx context.Context, key string) error
}

// Service snapshots every registered database and uploads the copies
// under a shared timestamp key.
type Service struct {
	store     ObjectStore
	databases []Snapshotter
	dataDir   string
	prefix    string
	log       zerolog.Logger
}

// NewService creates a new backup service
func NewService(store ObjectStore, databases []Snapshotter, dataDir, prefix string, log zerolog.Logger) *Service {
	return &Service{
		store:     store,
		databases: databases,
		dataDir:   dataDir,
		prefix:    prefix,
		log:       log.With().Str("service", "backup").Logger(),
	}
}

// Result summarizes one backup run
type Result struct {
	Timestamp  string   `json:"timestamp"`
	Keys       []string `json:"keys"`
	TotalBytes int64    `json:"total_bytes"`
}

// Run snapshots each database into a staging directory and uploads the
// snapshots. All files of one run share a timestamp prefix, so a run
// is restorable as a unit.
func (s *Service) Run(ctx context.Context) (*Result, error) {
	startTime := time.Now()
	timestamp := time.Now().UTC().Format(stampLayout)

	stagingDir := filepath.Join(s.dataDir, "backup-staging")
	if err := os.MkdirAll(stagingDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(stagingDir)

	result := &Result{Timestamp: timestamp}
	for _, db := range s.databases {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// Fold the WAL into the main file so the snapshot is compact
		if err := db.WALCheckpoint("TRUNCATE"); err != nil {
			s.log.Warn().Err(err).Str("database", db.Name()).Msg("WAL checkpoint before snapshot failed")
		}

		snapshotPath := filepath.Join(stagingDir, db.Name()+".db")
		if err := db.BackupTo(snapshotPath); err != nil {
			return nil, fmt.Errorf("failed to snapshot %s: %w", db.Name(), err)
		}

		info, err := os.Stat(snapshotPath)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s snapshot: %w", db.Name(), err)
		}

		file, err := os.Open(snapshotPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s snapshot: %w", db.Name(), err)
		}

		key := path.Join(s.prefix, timestamp, db.Name()+".db")
		uploadErr := s.store.Upload(ctx, key, file)
		file.Close()
		if uploadErr != nil {
			return nil, uploadErr
		}

		result.Keys = append(result.Keys, key)
		result.TotalBytes += info.Size()
	}

	s.log.Info().
		Dur("duration_ms", time.Since(startTime)).
		Str("timestamp", timestamp).
		Int("databases", len(result.Keys)).
		Int64("total_bytes", result.TotalBytes).
		Msg("Backup uploaded")

	return result, nil
}

// Info describes one stored backup run
type Info struct {
	Timestamp time.Time `json:"timestamp"`
	Files     int       `json:"files"`
	SizeBytes int64     `json:"size_bytes"`
	AgeHours  int64     `json:"age_hours"`
}

// ListRecent returns stored runs, newest first. A limit of 0 returns
// everything.
func (s *Service) ListRecent(ctx context.Context, limit int) ([]Info, error) {
	objects, err := s.store.List(ctx, s.prefix+"/")
	if err != nil {
		return nil, fmt.Errorf("failed to list backups: %w", err)
	}

	byStamp := make(map[string]*Info)
	for _, obj := range objects {
		stamp, ok := s.runStamp(obj.Key)
		if !ok {
			continue
		}

		info := byStamp[stamp]
		if info == nil {
			timestamp, err := time.Parse(stampLayout, stamp)
			if err != nil {
				s.log.Warn().Str("key", obj.Key).Msg("Skipping object with unparseable run timestamp")
				continue
			}
			info = &Info{Timestamp: timestamp}
			byStamp[stamp] = info
		}
		info.Files++
		info.SizeBytes += obj.SizeBytes
	}

	now := time.Now().UTC()
	runs := make([]Info, 0, len(byStamp))
	for _, info := range byStamp {
		info.AgeHours = int64(now.Sub(info.Timestamp).Hours())
		runs = append(runs, *info)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})

	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// RotateOld deletes runs older than the retention period, always
// keeping the newest runs regardless of age. A retention of 0 keeps
// everything.
func (s *Service) RotateOld(ctx context.Context, retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}

	runs, err := s.ListRecent(ctx, 0)
	if err != nil {
		return err
	}
	if len(runs) <= minRunsToKeep {
		s.log.Debug().Int("count", len(runs)).Msg("Too few backup runs to rotate")
		return nil
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)
	deleted := 0
	for i, run := range runs {
		if i < minRunsToKeep {
			continue
		}
		if !run.Timestamp.Before(cutoff) {
			continue
		}

		stamp := run.Timestamp.Format(stampLayout)
		objects, err := s.store.List(ctx, path.Join(s.prefix, stamp)+"/")
		if err != nil {
			s.log.Error().Err(err).Str("run", stamp).Msg("Failed to list backup run for rotation")
			continue
		}

		failed := false
		for _, obj := range objects {
			if err := s.store.Delete(ctx, obj.Key); err != nil {
				s.log.Error().Err(err).Str("key", obj.Key).Msg("Failed to delete old backup object")
				failed = true
			}
		}
		if !failed {
			deleted++
		}
	}

	if deleted > 0 {
		s.log.Info().Int("deleted_runs", deleted).Int("retention_days", retentionDays).Msg("Old backups rotated")
	}
	return nil
}

// runStamp extracts the run timestamp component from an object key,
// expecting <prefix>/<stamp>/<file>.
func (s *Service) runStamp(key string) (string, bool) {
	rest := strings.TrimPrefix(key, s.prefix+"/")
	if rest == key {
		return "", false
	}
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", false
	}
	return parts[0], true
}
