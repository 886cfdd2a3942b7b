package routes

import (
	"churn-orchestrator/api/rest/handlers"
	"churn-orchestrator/core/notify"
	"churn-orchestrator/core/pipeline"
	"churn-orchestrator/core/repository"

	"github.com/gorilla/mux"
)

// SetupRoutes configures all API routes
func SetupRoutes(r *mux.Router, db *repository.DB, runner *pipeline.Runner, alerter *notify.FailureAlerter, defaultDatasetURI string) {
	runRepo := repository.NewRunRepository(db)
	eventRepo := repository.NewEventRepository(db)
	artifactRepo := repository.NewArtifactRepository(db)

	runHandler := handlers.NewRunHandler(runRepo, eventRepo, artifactRepo, runner, defaultDatasetURI)
	alarmHandler := handlers.NewAlarmHandler(alerter)
	dashboardHandler := handlers.NewDashboardHandler(runRepo)

	api := r.PathPrefix("/v1").Subrouter()

	// Run endpoints
	api.HandleFunc("/runs", runHandler.StartRun).Methods("POST")
	api.HandleFunc("/runs", runHandler.ListRuns).Methods("GET")
	api.HandleFunc("/runs/{id}", runHandler.GetRun).Methods("GET")
	api.HandleFunc("/runs/{id}/events", runHandler.GetRunEvents).Methods("GET")
	api.HandleFunc("/runs/{id}/artifacts", runHandler.GetRunArtifacts).Methods("GET")

	// Inbound alarm webhook
	api.HandleFunc("/alarms", alarmHandler.ReceiveAlarm).Methods("POST")

	// Dashboard
	api.HandleFunc("/dashboard", dashboardHandler.GetPipelineMetrics).Methods("GET")
}
