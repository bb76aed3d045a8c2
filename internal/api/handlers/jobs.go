package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/alphaselector/internal/scheduler"
)

// JobsHandler exposes scheduler state
type JobsHandler struct {
	scheduler *scheduler.Scheduler
}

// NewJobsHandler creates a jobs handler
func NewJobsHandler(s *scheduler.Scheduler) *JobsHandler {
	return &JobsHandler{scheduler: s}
}

// ListJobs returns per-job statistics
// GET /api/jobs
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.scheduler.GetJobStats())
}

// TriggerJob runs a job in the background
// POST /api/jobs/{name}/run
func (h *JobsHandler) TriggerJob(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if err := h.scheduler.RunJob(name); err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]string{"status": "started", "job": name})
}
