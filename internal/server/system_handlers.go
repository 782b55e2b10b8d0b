package server

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/Eroleice/Quant-Cat/internal/clientdata"
	"github.com/Eroleice/Quant-Cat/internal/database"
)

// SystemHandlers serves host and service status.
type SystemHandlers struct {
	log         zerolog.Logger
	version     string
	startupTime time.Time
	cacheDB     *database.DB
	cacheRepo   *clientdata.Repository
	runner      ReportRunner
}

// SystemStatusResponse is the body of GET /api/system/status.
type SystemStatusResponse struct {
	Status        string         `json:"status"`
	Version       string         `json:"version"`
	UptimeSeconds int64          `json:"uptime_seconds"`
	CPUPercent    float64        `json:"cpu_percent"`
	RAMPercent    float64        `json:"ram_percent"`
	Report        ReportStatus   `json:"report"`
	CacheDB       *DatabaseStats `json:"cache_db,omitempty"`
}

// ReportStatus summarises the most recent report run.
type ReportStatus struct {
	Running   bool   `json:"running"`
	LastRunID string `json:"last_run_id,omitempty"`
	TradeDate string `json:"last_trade_date,omitempty"`
	Succeeded bool   `json:"last_succeeded"`
	Stage     string `json:"last_failed_stage,omitempty"`
	Error     string `json:"last_error,omitempty"`
	Finished  string `json:"last_finished_at,omitempty"`
}

// DatabaseStats represents the cache database file statistics
type DatabaseStats struct {
	Name          string  `json:"name"`
	Path          string  `json:"path"`
	SizeMB        float64 `json:"size_mb"`
	WALSizeMB     float64 `json:"wal_size_mb"`
	PageCount     int64   `json:"page_count"`
	FreelistCount int64   `json:"freelist_count"`

	Endpoints map[string]clientdata.TableCount `json:"endpoints,omitempty"`
}

// NewSystemHandlers creates a new system handlers instance
func NewSystemHandlers(version string, cacheDB *database.DB, cacheRepo *clientdata.Repository, runner ReportRunner, log zerolog.Logger) *SystemHandlers {
	return &SystemHandlers{
		log:         log.With().Str("component", "system_handlers").Logger(),
		version:     version,
		startupTime: time.Now(),
		cacheDB:     cacheDB,
		cacheRepo:   cacheRepo,
		runner:      runner,
	}
}

// HandleSystemStatus returns comprehensive system status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting system status")

	cpuPercent, ramPercent := h.getSystemStats()
	response := SystemStatusResponse{
		Status:        "healthy",
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.startupTime).Seconds()),
		CPUPercent:    cpuPercent,
		RAMPercent:    ramPercent,
		Report:        h.reportStatus(),
		CacheDB:       h.databaseStats(),
	}
	if response.Report.LastRunID != "" && !response.Report.Succeeded {
		response.Status = "degraded"
	}

	writeJSON(w, http.StatusOK, response)
}

// HandleDatabaseStats returns cache database statistics
func (h *SystemHandlers) HandleDatabaseStats(w http.ResponseWriter, r *http.Request) {
	stats := h.databaseStats()
	if stats == nil {
		writeError(w, http.StatusNotFound, "cache database is disabled")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *SystemHandlers) reportStatus() ReportStatus {
	if h.runner == nil {
		return ReportStatus{}
	}
	status := ReportStatus{Running: h.runner.Running()}
	if last := h.runner.Last(); last != nil {
		status.LastRunID = last.RunID
		status.TradeDate = last.TradeDate
		status.Succeeded = last.Succeeded()
		status.Stage = last.Stage
		status.Error = last.Error
		status.Finished = last.FinishedAt.Format(time.RFC3339)
	}
	return status
}

func (h *SystemHandlers) databaseStats() *DatabaseStats {
	if h.cacheDB == nil {
		return nil
	}
	stats, err := h.cacheDB.GetStats()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get database stats")
		return nil
	}
	result := &DatabaseStats{
		Name:          h.cacheDB.Name(),
		Path:          h.cacheDB.Path(),
		SizeMB:        float64(stats.SizeBytes) / 1024 / 1024,
		WALSizeMB:     float64(stats.WALSizeBytes) / 1024 / 1024,
		PageCount:     stats.PageCount,
		FreelistCount: stats.FreelistCount,
	}
	if h.cacheRepo != nil {
		counts, err := h.cacheRepo.Counts()
		if err != nil {
			h.log.Warn().Err(err).Msg("Failed to count cached responses")
		} else {
			result.Endpoints = counts
		}
	}
	return result
}

// getSystemStats calculates CPU and RAM usage percentages over a short
// 100ms sampling window.
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
