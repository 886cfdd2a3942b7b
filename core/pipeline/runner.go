package pipeline

import (
	"context"
	"time"

	"churn-orchestrator/core/models"

	"github.com/rs/zerolog/log"
)

// RunSource reads runs back from the store
type RunSource interface {
	GetRun(id string) (*models.PipelineRun, error)
	ListRuns(status *models.RunStatus, limit int) ([]*models.PipelineRun, error)
}

// Runner picks up pending runs and executes each one on its own goroutine.
// A run's polling loop never blocks other runs.
type Runner struct {
	source       RunSource
	orchestrator *Orchestrator
	queue        *RunQueue
	stopChan     chan struct{}
}

// NewRunner creates a new runner
func NewRunner(source RunSource, orchestrator *Orchestrator) *Runner {
	return &Runner{
		source:       source,
		orchestrator: orchestrator,
		queue:        NewRunQueue(),
		stopChan:     make(chan struct{}),
	}
}

// Start starts the runner worker. It re-enqueues pending runs left over
// from a previous process before entering the dispatch loop.
func (r *Runner) Start(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	r.loadPendingRuns()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopChan:
			return
		case <-ticker.C:
			r.processQueue(ctx)
		}
	}
}

// Stop stops the runner
func (r *Runner) Stop() {
	close(r.stopChan)
}

// Enqueue adds a run to the execution queue
func (r *Runner) Enqueue(run *models.PipelineRun) {
	r.queue.Enqueue(run)
}

// loadPendingRuns loads pending runs from the store
func (r *Runner) loadPendingRuns() {
	status := models.RunStatusPending
	runs, err := r.source.ListRuns(&status, 100)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load pending runs")
		return
	}

	for _, run := range runs {
		r.queue.Enqueue(run)
	}
}

// processQueue drains the queue, starting one goroutine per run
func (r *Runner) processQueue(ctx context.Context) {
	for {
		run := r.queue.Pop()
		if run == nil {
			return
		}

		// Re-fetch to get the latest state; skip runs another path already
		// picked up.
		fresh, err := r.source.GetRun(run.ID)
		if err != nil {
			log.Error().Err(err).Str("run_id", run.ID).Msg("Failed to fetch run")
			continue
		}
		if fresh.Status != models.RunStatusPending {
			continue
		}

		go func(run *models.PipelineRun) {
			if err := r.orchestrator.Execute(ctx, run); err != nil {
				log.Error().Err(err).Str("run_id", run.ID).Msg("Run finished with failure")
			}
		}(fresh)
	}
}
