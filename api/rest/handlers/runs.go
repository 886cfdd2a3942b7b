package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"churn-orchestrator/core/models"
	"churn-orchestrator/core/pipeline"
	"churn-orchestrator/core/repository"
	"churn-orchestrator/core/spec"

	"github.com/gorilla/mux"
)

// RunHandler handles run-related HTTP requests
type RunHandler struct {
	runRepo           *repository.RunRepository
	eventRepo         *repository.EventRepository
	artifactRepo      *repository.ArtifactRepository
	runner            *pipeline.Runner
	defaultDatasetURI string
}

// NewRunHandler creates a new run handler
func NewRunHandler(
	runRepo *repository.RunRepository,
	eventRepo *repository.EventRepository,
	artifactRepo *repository.ArtifactRepository,
	runner *pipeline.Runner,
	defaultDatasetURI string,
) *RunHandler {
	return &RunHandler{
		runRepo:           runRepo,
		eventRepo:         eventRepo,
		artifactRepo:      artifactRepo,
		runner:            runner,
		defaultDatasetURI: defaultDatasetURI,
	}
}

// StartRunRequest represents the request to start a pipeline run
type StartRunRequest struct {
	Name     string `json:"name"`
	SpecYAML string `json:"spec_yaml"`
}

// StartRunResponse represents the response after starting a run
type StartRunResponse struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// StartRun handles POST /v1/runs
func (h *RunHandler) StartRun(w http.ResponseWriter, r *http.Request) {
	var req StartRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	run, err := spec.ParseRunSpec(req.SpecYAML, h.defaultDatasetURI)
	if err != nil {
		http.Error(w, "Invalid run spec: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Name != "" {
		run.Name = req.Name
	}

	if err := h.runRepo.CreateRun(run); err != nil {
		http.Error(w, "Failed to create run: "+err.Error(), http.StatusInternalServerError)
		return
	}

	h.runner.Enqueue(run)

	resp := StartRunResponse{
		ID:        run.ID,
		Status:    string(run.Status),
		CreatedAt: run.CreatedAt,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(resp)
}

// GetRun handles GET /v1/runs/{id}
func (h *RunHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	runID := vars["id"]

	run, err := h.runRepo.GetRun(runID)
	if err != nil {
		http.Error(w, "Run not found", http.StatusNotFound)
		return
	}

	jobs := make([]map[string]interface{}, len(run.Jobs))
	for i, job := range run.Jobs {
		jobs[i] = map[string]interface{}{
			"stage":        job.Stage,
			"job_id":       job.JobID,
			"submitted_at": job.SubmittedAt,
		}
	}

	response := map[string]interface{}{
		"id":            run.ID,
		"name":          run.Name,
		"status":        run.Status,
		"current_stage": run.CurrentStage,
		"input_uri":     run.InputURI,
		"events_sent":   run.EventsSent,
		"jobs":          jobs,
		"timestamps": map[string]interface{}{
			"created_at":  run.CreatedAt,
			"started_at":  run.StartedAt,
			"finished_at": run.FinishedAt,
		},
	}

	if run.Status == models.RunStatusFailed {
		response["failure"] = map[string]interface{}{
			"stage":  run.FailureStage,
			"reason": run.FailureReason,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// ListRuns handles GET /v1/runs
func (h *RunHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	statusParam := r.URL.Query().Get("status")
	limit := 50
	if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
		fmt.Sscanf(limitParam, "%d", &limit)
	}

	var status *models.RunStatus
	if statusParam != "" {
		s := models.RunStatus(statusParam)
		status = &s
	}

	runs, err := h.runRepo.ListRuns(status, limit)
	if err != nil {
		http.Error(w, "Failed to list runs: "+err.Error(), http.StatusInternalServerError)
		return
	}

	items := make([]map[string]interface{}, len(runs))
	for i, run := range runs {
		items[i] = map[string]interface{}{
			"id":            run.ID,
			"name":          run.Name,
			"status":        run.Status,
			"current_stage": run.CurrentStage,
			"events_sent":   run.EventsSent,
			"created_at":    run.CreatedAt,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"items": items,
	})
}

// GetRunEvents handles GET /v1/runs/{id}/events
func (h *RunHandler) GetRunEvents(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	runID := vars["id"]

	if _, err := h.runRepo.GetRun(runID); err != nil {
		http.Error(w, "Run not found", http.StatusNotFound)
		return
	}

	events, err := h.eventRepo.GetRunEvents(runID, 100)
	if err != nil {
		http.Error(w, "Failed to fetch events: "+err.Error(), http.StatusInternalServerError)
		return
	}

	items := make([]map[string]interface{}, len(events))
	for i, event := range events {
		items[i] = map[string]interface{}{
			"at":          event.At,
			"from_status": event.FromStatus,
			"to_status":   event.ToStatus,
			"stage":       event.Stage,
			"reason":      event.Reason,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"items": items,
	})
}

// GetRunArtifacts handles GET /v1/runs/{id}/artifacts
func (h *RunHandler) GetRunArtifacts(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	runID := vars["id"]

	if _, err := h.runRepo.GetRun(runID); err != nil {
		http.Error(w, "Run not found", http.StatusNotFound)
		return
	}

	artifacts, err := h.artifactRepo.GetRunArtifacts(runID, nil)
	if err != nil {
		http.Error(w, "Failed to fetch artifacts: "+err.Error(), http.StatusInternalServerError)
		return
	}

	items := make([]map[string]interface{}, len(artifacts))
	for i, artifact := range artifacts {
		items[i] = map[string]interface{}{
			"type":       artifact.Type,
			"uri":        artifact.URI,
			"created_at": artifact.CreatedAt,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"items": items,
	})
}
