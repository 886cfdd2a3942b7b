package models

import "time"

// PipelineRun represents one execution of the churn prediction pipeline
type PipelineRun struct {
	ID            string
	Name          string
	InputURI      string // Initial raw dataset location
	Status        RunStatus
	CurrentStage  Stage
	Jobs          []StageJob // Per-stage job history, in submission order
	FailureStage  Stage
	FailureReason string
	EventsSent    int
	SpecYAML      string // Original spec for replay/debug
	CreatedAt     time.Time
	StartedAt     *time.Time
	FinishedAt    *time.Time
	UpdatedAt     time.Time
}

// RunStatus represents the current status of a pipeline run
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusFailed    RunStatus = "failed"
)

// Terminal reports whether the run status is terminal
func (s RunStatus) Terminal() bool {
	return s == RunStatusSucceeded || s == RunStatusFailed
}

// Stage identifies one of the sequential pipeline stages
type Stage string

const (
	StagePreprocess Stage = "preprocess"
	StageTrain      Stage = "train"
	StageInfer      Stage = "infer"

	// StageTimeout tags a run that exceeded its overall wall-clock budget.
	StageTimeout Stage = "timeout"
)

// JobRef identifies a job submitted to an external engine for a stage.
// It is discarded once the job reaches a terminal state.
type JobRef struct {
	ID    string
	Stage Stage
}

// StageJob records a submitted job for a run's stage history
type StageJob struct {
	RunID       string
	Stage       Stage
	JobID       string
	SubmittedAt time.Time
}

// StageOutput is an opaque location descriptor for a stage's artifact.
// The output of stage n is the sole input to stage n+1.
type StageOutput struct {
	URI string
}

// JobStatus represents the normalized status of an engine job
type JobStatus string

const (
	JobStatusRunning   JobStatus = "running"
	JobStatusSucceeded JobStatus = "succeeded"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// Terminal reports whether the job status is terminal
func (s JobStatus) Terminal() bool {
	return s == JobStatusSucceeded || s == JobStatusFailed || s == JobStatusCancelled
}

// RunEvent represents a state transition event for a run
type RunEvent struct {
	ID         int64
	RunID      string
	At         time.Time
	FromStatus *RunStatus
	ToStatus   RunStatus
	Stage      Stage
	Reason     string
}

// ArtifactType represents the type of a run artifact
type ArtifactType string

const (
	ArtifactTypeFeatureTable ArtifactType = "feature_table"
	ArtifactTypeModel        ArtifactType = "model"
	ArtifactTypePredictions  ArtifactType = "predictions"
)

// ArtifactTypeForStage maps a stage to the artifact type it produces
func ArtifactTypeForStage(stage Stage) ArtifactType {
	switch stage {
	case StagePreprocess:
		return ArtifactTypeFeatureTable
	case StageTrain:
		return ArtifactTypeModel
	default:
		return ArtifactTypePredictions
	}
}

// RunArtifact represents an artifact produced by a run's stage
type RunArtifact struct {
	ID        int64
	RunID     string
	Type      ArtifactType
	URI       string
	CreatedAt time.Time
}
