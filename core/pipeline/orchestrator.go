package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"churn-orchestrator/core/models"
	"churn-orchestrator/core/notify"

	"github.com/rs/zerolog/log"
)

// RunStore persists run state transitions
type RunStore interface {
	UpdateRunStatus(runID string, from, to models.RunStatus, stage models.Stage, reason string) error
	SetCurrentStage(runID string, stage models.Stage) error
	RecordStageJob(runID string, stage models.Stage, jobID string) error
	CompleteRun(runID string, eventsSent int) error
	FailRun(runID string, stage models.Stage, reason string) error
}

// ArtifactStore records stage outputs
type ArtifactStore interface {
	CreateArtifact(runID string, artifactType models.ArtifactType, uri string) error
}

// ResultNotifier dispatches prediction events after the final stage
type ResultNotifier interface {
	Dispatch(ctx context.Context, output models.StageOutput) (notify.Summary, error)
}

// Orchestrator drives a pipeline run through its stages: submit, poll,
// branch on the terminal status, and thread each stage's output into the
// next stage's input. Any stage failure halts the run.
type Orchestrator struct {
	adapters        []StageAdapter
	runs            RunStore
	artifacts       ArtifactStore
	notifier        ResultNotifier
	pollInterval    time.Duration
	pollMaxAttempts int
	runTimeout      time.Duration
}

// NewOrchestrator creates a new orchestrator over an ordered adapter list
func NewOrchestrator(
	adapters []StageAdapter,
	runs RunStore,
	artifacts ArtifactStore,
	notifier ResultNotifier,
	pollInterval time.Duration,
	pollMaxAttempts int,
	runTimeout time.Duration,
) *Orchestrator {
	return &Orchestrator{
		adapters:        adapters,
		runs:            runs,
		artifacts:       artifacts,
		notifier:        notifier,
		pollInterval:    pollInterval,
		pollMaxAttempts: pollMaxAttempts,
		runTimeout:      runTimeout,
	}
}

// Execute runs the pipeline to a terminal outcome. The run's state is
// exclusively owned by this call; concurrent runs share nothing but the
// external engines and storage.
func (o *Orchestrator) Execute(ctx context.Context, run *models.PipelineRun) error {
	ctx, cancel := context.WithTimeout(ctx, o.runTimeout)
	defer cancel()

	if err := o.runs.UpdateRunStatus(run.ID, run.Status, models.RunStatusRunning, "", "run_started"); err != nil {
		return fmt.Errorf("failed to mark run %s running: %w", run.ID, err)
	}
	run.Status = models.RunStatusRunning

	input := models.StageOutput{URI: run.InputURI}

	for _, adapter := range o.adapters {
		stage := adapter.Stage()
		run.CurrentStage = stage
		if err := o.runs.SetCurrentStage(run.ID, stage); err != nil {
			log.Error().Err(err).Str("run_id", run.ID).Msg("Failed to persist current stage")
		}

		log.Info().Str("run_id", run.ID).Str("stage", string(stage)).Str("input", input.URI).Msg("Submitting stage job")

		ref, err := adapter.Submit(ctx, input, stageToken(run.ID, stage))
		if err != nil {
			return o.failRun(run, stage, &SubmitError{Stage: stage, Err: err})
		}

		if err := o.runs.RecordStageJob(run.ID, stage, ref.ID); err != nil {
			log.Error().Err(err).Str("run_id", run.ID).Msg("Failed to record stage job")
		}

		status, err := Poll(ctx, func(ctx context.Context) (models.JobStatus, error) {
			raw, err := adapter.Describe(ctx, ref)
			if err != nil {
				return "", err
			}
			return adapter.InterpretStatus(raw), nil
		}, o.pollInterval, o.pollMaxAttempts)
		if err != nil {
			return o.failRun(run, stage, err)
		}

		if status != models.JobStatusSucceeded {
			return o.failRun(run, stage, &StageFailureError{Stage: stage, Status: status, JobID: ref.ID})
		}

		output := adapter.OutputLocation()
		if err := o.artifacts.CreateArtifact(run.ID, models.ArtifactTypeForStage(stage), output.URI); err != nil {
			log.Error().Err(err).Str("run_id", run.ID).Msg("Failed to record stage artifact")
		}

		log.Info().Str("run_id", run.ID).Str("stage", string(stage)).Str("output", output.URI).Msg("Stage succeeded")
		input = output
	}

	// Compute stages are done; notification delivery is a secondary concern
	// and never reverts the run to failed.
	summary, err := o.notifier.Dispatch(ctx, input)
	if err != nil {
		log.Error().Err(err).Str("run_id", run.ID).Int("sent", summary.Sent).Int("failed", summary.Failed).
			Msg("Result notification dispatch incomplete")
	} else {
		log.Info().Str("run_id", run.ID).Int("sent", summary.Sent).Msg("Result notifications dispatched")
	}
	run.EventsSent = summary.Sent

	if err := o.runs.CompleteRun(run.ID, summary.Sent); err != nil {
		return fmt.Errorf("failed to complete run %s: %w", run.ID, err)
	}
	run.Status = models.RunStatusSucceeded

	return nil
}

// failRun records the terminal failure and returns the causing error. A run
// that blew its overall wall-clock budget is tagged as a timeout regardless
// of the stage it was in.
func (o *Orchestrator) failRun(run *models.PipelineRun, stage models.Stage, cause error) error {
	failureStage := stage
	if errors.Is(cause, context.DeadlineExceeded) {
		failureStage = models.StageTimeout
	}

	log.Error().Err(cause).Str("run_id", run.ID).Str("stage", string(failureStage)).Msg("Pipeline run failed")

	if err := o.runs.FailRun(run.ID, failureStage, cause.Error()); err != nil {
		log.Error().Err(err).Str("run_id", run.ID).Msg("Failed to persist run failure")
	}
	run.Status = models.RunStatusFailed
	run.FailureStage = failureStage
	run.FailureReason = cause.Error()

	return cause
}

// stageToken builds the idempotency token for a run's stage submission.
// It doubles as the job name on engines that key idempotency on names.
func stageToken(runID string, stage models.Stage) string {
	return fmt.Sprintf("churn-%s-%s", stage, runID)
}
