package pipeline

import (
	"context"
	"time"

	"churn-orchestrator/core/models"
)

// StatusFunc queries the external engine for the current normalized status
type StatusFunc func(ctx context.Context) (models.JobStatus, error)

// Poll queries statusFn until it returns a terminal status, waiting interval
// between attempts. It makes at most maxAttempts queries; if none returns a
// terminal status the result is a PollTimeoutError. The wait is non-busy and
// aborts early when the context is done, so the total time is bounded by
// maxAttempts * interval.
func Poll(ctx context.Context, statusFn StatusFunc, interval time.Duration, maxAttempts int) (models.JobStatus, error) {
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		status, err := statusFn(ctx)
		if err != nil {
			return "", err
		}
		if status.Terminal() {
			return status, nil
		}

		if attempt == maxAttempts {
			break
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", ctx.Err()
		case <-timer.C:
		}
	}

	return "", &PollTimeoutError{Attempts: maxAttempts, Interval: interval}
}
