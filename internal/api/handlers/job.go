package handlers

import (
	"net/http"

	"github.com/wonny/momentum/internal/scheduler"
)

// JobStatsProvider reports scheduled job statistics
type JobStatsProvider interface {
	Stats() []scheduler.JobStats
}

// JobHandler exposes the in-process scheduler's run history
type JobHandler struct {
	jobs JobStatsProvider
}

// NewJobHandler creates a job handler
func NewJobHandler(jobs JobStatsProvider) *JobHandler {
	return &JobHandler{jobs: jobs}
}

// ListJobs returns every scheduled job with its run statistics
// GET /api/jobs
func (h *JobHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	stats := h.jobs.Stats()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  stats,
		"count": len(stats),
	})
}
