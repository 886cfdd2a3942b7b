package pipeline

import (
	"context"

	"churn-orchestrator/core/models"
)

// StageAdapter knows how to run one pipeline stage on its external engine.
// The orchestrator iterates an ordered list of adapters, feeding each one
// the previous stage's output location.
type StageAdapter interface {
	// Stage returns the stage tag this adapter serves
	Stage() models.Stage

	// Submit starts the stage's job with the given input location. Submission
	// must be idempotent for a given token: resubmitting after a transient
	// failure must not create a duplicate job at the engine.
	Submit(ctx context.Context, input models.StageOutput, token string) (models.JobRef, error)

	// Describe queries the engine for the job's native status string
	Describe(ctx context.Context, ref models.JobRef) (string, error)

	// InterpretStatus maps the engine's native status string to a JobStatus.
	// Unknown strings map to JobStatusRunning so the caller keeps polling.
	InterpretStatus(raw string) models.JobStatus

	// OutputLocation returns the location the stage writes its artifact to
	OutputLocation() models.StageOutput
}
