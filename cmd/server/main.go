package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"churn-orchestrator/api/rest/routes"
	"churn-orchestrator/config"
	"churn-orchestrator/core/monitoring"
	"churn-orchestrator/core/notify"
	"churn-orchestrator/core/pipeline"
	"churn-orchestrator/core/repository"
	"churn-orchestrator/core/stages"
	"churn-orchestrator/providers/aws"
	"churn-orchestrator/storage"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	cfg := config.Load()

	// Initialize database
	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	log.Info().Msg("Database connected successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize AWS clients
	awsClient, err := aws.NewClient(ctx, cfg.AWSRegion)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize AWS client")
	}

	// Initialize repositories
	runRepo := repository.NewRunRepository(db)
	artifactRepo := repository.NewArtifactRepository(db)

	// Initialize stage adapters, in pipeline order
	adapters := []pipeline.StageAdapter{
		stages.NewPreprocessAdapter(awsClient.EMR, cfg.EMRApplicationID, cfg.EMRExecutionRoleARN, cfg.PreprocessEntryPoint, cfg.FeatureTableURI),
		stages.NewTrainAdapter(awsClient.SageMaker, cfg.TrainingImageURI, cfg.SageMakerRoleARN, cfg.ModelOutputURI),
		stages.NewInferAdapter(awsClient.SageMaker, cfg.InferenceImageURI, cfg.SageMakerRoleARN, cfg.ModelName, cfg.HoldoutURI, cfg.PredictionsURI),
	}

	// Initialize notifiers
	artifactStore := storage.NewArtifactStore(awsClient.S3)
	eventSink := notify.NewWebhookSink(cfg.EventWebhookURL)
	notifier := notify.NewResultNotifier(artifactStore, eventSink, cfg.NotifyStrict)
	alerter := notify.NewFailureAlerter(cfg.SlackWebhookURL, cfg.Environment)

	// Initialize orchestrator and runner
	orchestrator := pipeline.NewOrchestrator(
		adapters,
		runRepo,
		artifactRepo,
		notifier,
		cfg.PollInterval,
		cfg.PollMaxAttempts,
		cfg.RunTimeout,
	)
	runner := pipeline.NewRunner(runRepo, orchestrator)
	go runner.Start(ctx)
	defer runner.Stop()

	// Initialize failure alarm
	failureAlarm := monitoring.NewFailureAlarm(runRepo, alerter, cfg.AlarmPeriod, cfg.AlarmThreshold, cfg.AWSRegion)
	go failureAlarm.Start(ctx)

	// Setup routes
	r := mux.NewRouter()
	routes.SetupRoutes(r, db, runner, alerter, cfg.RawDatasetURI)

	// Health check endpoint
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	// Start server
	server := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// Graceful shutdown
	go func() {
		log.Info().Str("port", cfg.ServerPort).Msg("Starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")
	if err := server.Shutdown(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}
