// Package server provides the HTTP server and routing for Compass.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/compass/internal/backup"
	"github.com/aristath/compass/internal/database"
	"github.com/aristath/compass/internal/di"
	"github.com/aristath/compass/internal/modules/simulation"
	"github.com/aristath/compass/internal/scheduler"
)

// SystemHandlers handles system-wide monitoring and operations endpoints
type SystemHandlers struct {
	log         zerolog.Logger
	dataDir     string
	startupTime time.Time
	container   *di.Container
}

// NewSystemHandlers creates a new system handlers instance
func NewSystemHandlers(log zerolog.Logger, dataDir string, container *di.Container) *SystemHandlers {
	return &SystemHandlers{
		log:         log.With().Str("component", "system_handlers").Logger(),
		dataDir:     dataDir,
		startupTime: time.Now(),
		container:   container,
	}
}

// SystemStatusResponse represents the system status response
type SystemStatusResponse struct {
	Status      string                `json:"status"` // "healthy" or "degraded"
	UptimeHours float64               `json:"uptime_hours"`
	CPUPercent  float64               `json:"cpu_percent"`
	RAMPercent  float64               `json:"ram_percent"`
	DataDirMB   float64               `json:"data_dir_mb"`
	Databases   map[string]string     `json:"databases"` // name -> "ok" or failure text
	Cache       simulation.CacheStats `json:"cache"`
}

// JobsStatusResponse represents scheduler job status
type JobsStatusResponse struct {
	TotalJobs int                   `json:"total_jobs"`
	Jobs      []scheduler.JobStatus `json:"jobs"`
}

// DatabaseStatsResponse represents database statistics
type DatabaseStatsResponse struct {
	Databases   []DBInfo `json:"databases"`
	TotalSizeMB float64  `json:"total_size_mb"`
	LastChecked string   `json:"last_checked"`
}

// DBInfo represents information about a single database
type DBInfo struct {
	Name          string  `json:"name"`
	Path          string  `json:"path"`
	SizeMB        float64 `json:"size_mb"`
	WALSizeMB     float64 `json:"wal_size_mb"`
	PageCount     int64   `json:"page_count"`
	FreelistCount int64   `json:"freelist_count"`
}

// BackupsResponse represents stored backup runs
type BackupsResponse struct {
	Enabled bool          `json:"enabled"`
	Backups []backup.Info `json:"backups"`
}

// HandleSystemStatus returns comprehensive system status
// GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting system status")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "healthy"
	databases := make(map[string]string, 3)
	for _, db := range h.databases() {
		if err := db.QuickCheck(ctx); err != nil {
			databases[db.Name()] = err.Error()
			status = "degraded"
			continue
		}
		databases[db.Name()] = "ok"
	}

	cpuPercent, ramPercent := h.getSystemStats()

	response := SystemStatusResponse{
		Status:      status,
		UptimeHours: time.Since(h.startupTime).Hours(),
		CPUPercent:  cpuPercent,
		RAMPercent:  ramPercent,
		DataDirMB:   h.getDirSize(h.dataDir),
		Databases:   databases,
		Cache:       h.container.SimCache.Stats(),
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleJobsStatus returns scheduler job status
// GET /api/system/jobs
func (h *SystemHandlers) HandleJobsStatus(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting jobs status")

	jobs := h.container.Scheduler.Jobs()

	h.writeJSON(w, http.StatusOK, JobsStatusResponse{
		TotalJobs: len(jobs),
		Jobs:      jobs,
	})
}

// HandleTriggerJob runs a registered job immediately
// POST /api/system/jobs/{name}
func (h *SystemHandlers) HandleTriggerJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	if err := h.container.Scheduler.RunNow(name); err != nil {
		h.writeError(w, http.StatusNotFound, err.Error())
		return
	}

	h.writeJSON(w, http.StatusAccepted, map[string]string{
		"status": "triggered",
		"job":    name,
	})
}

// HandleDatabaseStats returns database statistics
// GET /api/system/database/stats
func (h *SystemHandlers) HandleDatabaseStats(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting database stats")

	infos := make([]DBInfo, 0, 3)
	totalSizeMB := 0.0

	for _, db := range h.databases() {
		stats, err := db.GetStats()
		if err != nil {
			h.log.Warn().Err(err).Str("database", db.Name()).Msg("Failed to get database stats")
			continue
		}

		sizeMB := float64(stats.SizeBytes) / 1024 / 1024
		totalSizeMB += sizeMB

		infos = append(infos, DBInfo{
			Name:          db.Name(),
			Path:          db.Path(),
			SizeMB:        sizeMB,
			WALSizeMB:     float64(stats.WALSizeBytes) / 1024 / 1024,
			PageCount:     stats.PageCount,
			FreelistCount: stats.FreelistCount,
		})
	}

	h.writeJSON(w, http.StatusOK, DatabaseStatsResponse{
		Databases:   infos,
		TotalSizeMB: totalSizeMB,
		LastChecked: time.Now().Format(time.RFC3339),
	})
}

// HandleListBackups lists recent backup runs from the object store
// GET /api/system/backups
func (h *SystemHandlers) HandleListBackups(w http.ResponseWriter, r *http.Request) {
	if h.container.BackupService == nil {
		h.writeJSON(w, http.StatusOK, BackupsResponse{Enabled: false, Backups: []backup.Info{}})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	backups, err := h.container.BackupService.ListRecent(ctx, 20)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list backups")
		h.writeError(w, http.StatusBadGateway, "Failed to list backups")
		return
	}

	h.writeJSON(w, http.StatusOK, BackupsResponse{Enabled: true, Backups: backups})
}

// databases returns the open database handles in a stable order
func (h *SystemHandlers) databases() []*database.DB {
	return []*database.DB{
		h.container.ConfigDB,
		h.container.PlansDB,
		h.container.LedgerDB,
	}
}

// getDirSize calculates total size of a directory in MB
func (h *SystemHandlers) getDirSize(dirPath string) float64 {
	var totalSize int64

	err := filepath.Walk(dirPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip errors
		}
		if !info.IsDir() {
			totalSize += info.Size()
		}
		return nil
	})

	if err != nil {
		h.log.Warn().Err(err).Str("dir", dirPath).Msg("Failed to calculate directory size")
		return 0
	}

	return float64(totalSize) / 1024 / 1024
}

// getSystemStats calculates CPU and RAM usage percentages
// Uses a short interval (100ms) so the status call stays responsive
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}

// writeJSON writes a JSON response wrapped in the standard envelope
func (h *SystemHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(newEnvelope(data)); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes a JSON error response
func (h *SystemHandlers) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(map[string]string{"error": message}); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON error response")
	}
}
