package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the application configuration
type Config struct {
	// Database
	DatabaseURL string

	// Server
	ServerPort string

	// AWS
	AWSRegion string

	// Preprocessing engine (EMR Serverless)
	EMRApplicationID     string
	EMRExecutionRoleARN  string
	PreprocessEntryPoint string

	// Training and batch inference (SageMaker)
	SageMakerRoleARN  string
	TrainingImageURI  string
	InferenceImageURI string
	ModelName         string

	// Artifact locations
	RawDatasetURI   string
	FeatureTableURI string
	ModelOutputURI  string
	HoldoutURI      string
	PredictionsURI  string

	// Polling
	PollInterval    time.Duration
	PollMaxAttempts int
	RunTimeout      time.Duration

	// Notifications
	EventWebhookURL string
	SlackWebhookURL string
	Environment     string
	NotifyStrict    bool

	// Failure alarm
	AlarmPeriod    time.Duration
	AlarmThreshold int
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		DatabaseURL: getEnv("DATABASE_URL", "postgres://localhost/churn_orchestrator?sslmode=disable"),
		ServerPort:  getEnv("SERVER_PORT", "8080"),
		AWSRegion:   getEnv("AWS_REGION", "us-east-1"),

		EMRApplicationID:     getEnv("EMR_APPLICATION_ID", ""),
		EMRExecutionRoleARN:  getEnv("EMR_EXECUTION_ROLE_ARN", ""),
		PreprocessEntryPoint: getEnv("PREPROCESS_ENTRY_POINT", "entry_point.py"),

		SageMakerRoleARN:  getEnv("SAGEMAKER_ROLE_ARN", ""),
		TrainingImageURI:  getEnv("TRAINING_IMAGE_URI", ""),
		InferenceImageURI: getEnv("INFERENCE_IMAGE_URI", ""),
		ModelName:         getEnv("MODEL_NAME", "CustomerChurn"),

		RawDatasetURI:   getEnv("RAW_DATASET_URI", ""),
		FeatureTableURI: getEnv("FEATURE_TABLE_URI", ""),
		ModelOutputURI:  getEnv("MODEL_OUTPUT_URI", ""),
		HoldoutURI:      getEnv("HOLDOUT_URI", ""),
		PredictionsURI:  getEnv("PREDICTIONS_URI", ""),

		PollInterval:    getEnvDuration("POLL_INTERVAL", 30*time.Second),
		PollMaxAttempts: getEnvInt("POLL_MAX_ATTEMPTS", 240),
		RunTimeout:      getEnvDuration("RUN_TIMEOUT", 2*time.Hour),

		EventWebhookURL: getEnv("EVENT_WEBHOOK_URL", ""),
		SlackWebhookURL: getEnv("SLACK_WEBHOOK_URL", ""),
		Environment:     getEnv("ENVIRONMENT", "dev"),
		NotifyStrict:    getEnvBool("NOTIFY_STRICT", false),

		AlarmPeriod:    getEnvDuration("ALARM_PERIOD", 30*time.Second),
		AlarmThreshold: getEnvInt("ALARM_THRESHOLD", 1),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
