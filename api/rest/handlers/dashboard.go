package handlers

import (
	"encoding/json"
	"net/http"

	"churn-orchestrator/core/models"
	"churn-orchestrator/core/repository"
)

// DashboardHandler handles dashboard API requests
type DashboardHandler struct {
	runRepo *repository.RunRepository
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(runRepo *repository.RunRepository) *DashboardHandler {
	return &DashboardHandler{runRepo: runRepo}
}

// GetPipelineMetrics handles GET /v1/dashboard
func (h *DashboardHandler) GetPipelineMetrics(w http.ResponseWriter, r *http.Request) {
	runs, err := h.runRepo.ListRuns(nil, 1000)
	if err != nil {
		http.Error(w, "Failed to fetch runs: "+err.Error(), http.StatusInternalServerError)
		return
	}

	byStatus := map[models.RunStatus]int{}
	eventsSent := 0
	var recentFailures []map[string]interface{}

	for _, run := range runs {
		byStatus[run.Status]++
		eventsSent += run.EventsSent

		if run.Status == models.RunStatusFailed && len(recentFailures) < 10 {
			recentFailures = append(recentFailures, map[string]interface{}{
				"id":     run.ID,
				"name":   run.Name,
				"stage":  run.FailureStage,
				"reason": run.FailureReason,
			})
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"total_runs":      len(runs),
		"by_status":       byStatus,
		"events_sent":     eventsSent,
		"recent_failures": recentFailures,
	})
}
