package server

import (
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/stock-scorecard/internal/cache"
	"github.com/aristath/stock-scorecard/internal/database"
	"github.com/aristath/stock-scorecard/internal/scheduler"
)

// SystemHandlers exposes monitoring and maintenance endpoints
type SystemHandlers struct {
	log       zerolog.Logger
	cache     *cache.Store
	db        *database.DB
	scheduler *scheduler.Scheduler
	jobs      map[string]scheduler.Job
	started   time.Time
}

// NewSystemHandlers creates a new system handlers instance
func NewSystemHandlers(log zerolog.Logger, cacheStore *cache.Store, db *database.DB, sched *scheduler.Scheduler) *SystemHandlers {
	return &SystemHandlers{
		log:       log.With().Str("component", "system_handlers").Logger(),
		cache:     cacheStore,
		db:        db,
		scheduler: sched,
		jobs:      make(map[string]scheduler.Job),
		started:   time.Now(),
	}
}

// RegisterJob makes a scheduled job visible to the jobs endpoints.
// Called from main.go after job registration.
func (h *SystemHandlers) RegisterJob(job scheduler.Job) {
	h.jobs[job.Name()] = job
}

// SystemStatusResponse represents the system status response
type SystemStatusResponse struct {
	Status        string  `json:"status"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Goroutines    int     `json:"goroutines"`
	HeapAllocMB   float64 `json:"heap_alloc_mb"`
	CPUPercent    float64 `json:"cpu_percent,omitempty"`
	RAMPercent    float64 `json:"ram_percent,omitempty"`
	DiskPercent   float64 `json:"disk_percent,omitempty"`
}

// CacheStatsResponse represents API cache statistics
type CacheStatsResponse struct {
	TotalEntries int            `json:"total_entries"`
	ByDataType   map[string]int `json:"by_data_type"`
	DatabaseMB   float64        `json:"database_mb"`
	LastChecked  string         `json:"last_checked"`
}

// JobInfo represents information about a single registered job
type JobInfo struct {
	Name string `json:"name"`
}

// HandleStatus returns process and host health metrics
func (h *SystemHandlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := SystemStatusResponse{
		Status:        "running",
		UptimeSeconds: time.Since(h.started).Seconds(),
		Goroutines:    runtime.NumGoroutine(),
		HeapAllocMB:   float64(m.Alloc) / 1024 / 1024,
	}

	// Host metrics are best-effort, a failing probe never fails the endpoint
	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		response.CPUPercent = percents[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		response.RAMPercent = vm.UsedPercent
	}
	if usage, err := disk.Usage("/"); err == nil {
		response.DiskPercent = usage.UsedPercent
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleCacheStats returns API cache entry counts and database size
func (h *SystemHandlers) HandleCacheStats(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		h.writeError(w, http.StatusServiceUnavailable, "cache database not configured")
		return
	}

	response := CacheStatsResponse{
		ByDataType:  make(map[string]int),
		LastChecked: time.Now().UTC().Format(time.RFC3339),
	}

	rows, err := h.db.Query(`SELECT data_type, COUNT(*) FROM api_cache GROUP BY data_type`)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to query cache stats")
		h.writeError(w, http.StatusInternalServerError, "failed to query cache stats")
		return
	}
	defer rows.Close()

	for rows.Next() {
		var dataType string
		var count int
		if err := rows.Scan(&dataType, &count); err != nil {
			continue
		}
		response.ByDataType[dataType] = count
		response.TotalEntries += count
	}

	var sizeBytes int64
	if err := h.db.QueryRow(`SELECT page_count * page_size FROM pragma_page_count(), pragma_page_size()`).Scan(&sizeBytes); err == nil {
		response.DatabaseMB = float64(sizeBytes) / 1024 / 1024
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleCachePrune deletes cache entries older than max_age_hours (default 168)
func (h *SystemHandlers) HandleCachePrune(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, http.StatusServiceUnavailable, "cache not configured")
		return
	}

	maxAge := 168 * time.Hour
	if hours := queryInt(r, "max_age_hours", 0); hours > 0 {
		maxAge = time.Duration(hours) * time.Hour
	}

	removed, err := h.cache.Prune(maxAge)
	if err != nil {
		h.log.Error().Err(err).Msg("Cache prune failed")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.log.Info().Int64("removed", removed).Dur("max_age", maxAge).Msg("Manual cache prune")

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"removed": removed,
	})
}

// HandleJobs lists registered background jobs
func (h *SystemHandlers) HandleJobs(w http.ResponseWriter, r *http.Request) {
	jobs := make([]JobInfo, 0, len(h.jobs))
	for name := range h.jobs {
		jobs = append(jobs, JobInfo{Name: name})
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"total_jobs": len(jobs),
		"jobs":       jobs,
	})
}

// HandleRunJob triggers a registered job immediately
func (h *SystemHandlers) HandleRunJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	job, ok := h.jobs[name]
	if !ok {
		h.writeError(w, http.StatusNotFound, "unknown job: "+name)
		return
	}
	if h.scheduler == nil {
		h.writeError(w, http.StatusServiceUnavailable, "scheduler not configured")
		return
	}

	h.log.Info().Str("job", name).Msg("Manual job trigger")

	if err := h.scheduler.RunNow(job); err != nil {
		h.log.Error().Err(err).Str("job", name).Msg("Manually triggered job failed")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "job " + name + " completed",
	})
}

// writeJSON writes a JSON response
func (h *SystemHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes an error response
func (h *SystemHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
