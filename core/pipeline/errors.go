package pipeline

import (
	"fmt"
	"time"

	"churn-orchestrator/core/models"
)

// SubmitError means the job engine rejected job creation for a stage
type SubmitError struct {
	Stage models.Stage
	Err   error
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("stage %s: submit failed: %v", e.Stage, e.Err)
}

func (e *SubmitError) Unwrap() error {
	return e.Err
}

// PollTimeoutError means a job did not reach a terminal state within the
// poll ceiling. It is terminal for the owning stage, but distinct from an
// engine-reported failure for diagnostic purposes.
type PollTimeoutError struct {
	Attempts int
	Interval time.Duration
}

func (e *PollTimeoutError) Error() string {
	return fmt.Sprintf("job not terminal after %d attempts at %s intervals", e.Attempts, e.Interval)
}

// StageFailureError means the job engine itself reported a terminal failure
type StageFailureError struct {
	Stage  models.Stage
	Status models.JobStatus
	JobID  string
}

func (e *StageFailureError) Error() string {
	return fmt.Sprintf("stage %s: job %s reported %s", e.Stage, e.JobID, e.Status)
}
