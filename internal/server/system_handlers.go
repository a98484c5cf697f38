package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/aristath/roadscan/internal/database"
	"github.com/aristath/roadscan/internal/reliability"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

// BackupRunner is the part of the R2 backup service exposed over HTTP
type BackupRunner interface {
	CreateAndUploadBackup(ctx context.Context) (*reliability.BackupInfo, error)
	ListBackups(ctx context.Context) ([]reliability.BackupInfo, error)
}

// SystemHandlers handles system-wide monitoring and operations endpoints
type SystemHandlers struct {
	log         zerolog.Logger
	dataDir     string
	startupTime time.Time
	resultsDB   *database.DB
	backups     BackupRunner

	cpuPercent    func(interval time.Duration, percpu bool) ([]float64, error)
	virtualMemory func() (*mem.VirtualMemoryStat, error)
	diskUsage     func(path string) (*disk.UsageStat, error)
}

// SystemStatsResponse is returned by GET /api/system/stats
type SystemStatsResponse struct {
	CPUPercent      float64 `json:"cpu_percent"`
	MemoryPercent   float64 `json:"memory_percent"`
	MemoryUsedMB    float64 `json:"memory_used_mb"`
	MemoryTotalMB   float64 `json:"memory_total_mb"`
	DiskFreeGB      float64 `json:"disk_free_gb"`
	DiskUsedPercent float64 `json:"disk_used_percent"`
	UptimeSeconds   int64   `json:"uptime_seconds"`
}

// DatabaseStatsResponse is returned by GET /api/system/database
type DatabaseStatsResponse struct {
	Name        string  `json:"name"`
	Path        string  `json:"path"`
	SizeMB      float64 `json:"size_mb"`
	WALSizeMB   float64 `json:"wal_size_mb"`
	PageCount   int64   `json:"page_count"`
	PageSize    int64   `json:"page_size"`
	LastChecked string  `json:"last_checked"`
}

// NewSystemHandlers creates a new system handlers instance. backups may be nil.
func NewSystemHandlers(
	log zerolog.Logger,
	dataDir string,
	resultsDB *database.DB,
	backups BackupRunner,
) *SystemHandlers {
	return &SystemHandlers{
		log:           log.With().Str("handler", "system").Logger(),
		dataDir:       dataDir,
		startupTime:   time.Now(),
		resultsDB:     resultsDB,
		backups:       backups,
		cpuPercent:    cpu.Percent,
		virtualMemory: mem.VirtualMemory,
		diskUsage:     disk.Usage,
	}
}

// HandleSystemStats returns CPU, memory and data-directory disk usage
func (h *SystemHandlers) HandleSystemStats(w http.ResponseWriter, r *http.Request) {
	response := SystemStatsResponse{
		UptimeSeconds: int64(time.Since(h.startupTime).Seconds()),
	}

	// 100ms sample keeps the call responsive while still being meaningful
	if cpuPercent, err := h.cpuPercent(100*time.Millisecond, false); err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
	} else if len(cpuPercent) > 0 {
		response.CPUPercent = cpuPercent[0]
	}

	if memStat, err := h.virtualMemory(); err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
	} else {
		response.MemoryPercent = memStat.UsedPercent
		response.MemoryUsedMB = float64(memStat.Used) / 1024 / 1024
		response.MemoryTotalMB = float64(memStat.Total) / 1024 / 1024
	}

	if usage, err := h.diskUsage(h.dataDir); err != nil {
		h.log.Warn().Err(err).Str("dir", h.dataDir).Msg("Failed to get disk usage")
	} else {
		response.DiskFreeGB = float64(usage.Free) / 1e9
		response.DiskUsedPercent = usage.UsedPercent
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleDatabaseStats returns results database statistics
func (h *SystemHandlers) HandleDatabaseStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.resultsDB.GetStats()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get database stats")
		http.Error(w, "Failed to get database stats", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, DatabaseStatsResponse{
		Name:        h.resultsDB.Name(),
		Path:        h.resultsDB.Path(),
		SizeMB:      float64(stats.SizeBytes) / 1024 / 1024,
		WALSizeMB:   float64(stats.WALSizeBytes) / 1024 / 1024,
		PageCount:   stats.PageCount,
		PageSize:    stats.PageSize,
		LastChecked: time.Now().Format(time.RFC3339),
	})
}

// HandleTriggerBackup uploads a snapshot to R2 immediately
// POST /api/system/backup
func (h *SystemHandlers) HandleTriggerBackup(w http.ResponseWriter, r *http.Request) {
	if h.backups == nil {
		http.Error(w, "R2 backup is not configured", http.StatusServiceUnavailable)
		return
	}

	info, err := h.backups.CreateAndUploadBackup(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Manual backup failed")
		http.Error(w, "Backup failed: "+err.Error(), http.StatusBadGateway)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": info,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleListBackups lists archives stored in R2, newest first
// GET /api/system/backups
func (h *SystemHandlers) HandleListBackups(w http.ResponseWriter, r *http.Request) {
	if h.backups == nil {
		http.Error(w, "R2 backup is not configured", http.StatusServiceUnavailable)
		return
	}

	backups, err := h.backups.ListBackups(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list backups")
		http.Error(w, "Failed to list backups", http.StatusBadGateway)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": backups,
		"metadata": map[string]interface{}{
			"count":     len(backups),
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

func (h *SystemHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
