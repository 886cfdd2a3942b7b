package pipeline

import (
	"sync"

	"churn-orchestrator/core/models"
)

// RunQueue is a FIFO queue of pipeline runs awaiting execution
type RunQueue struct {
	runs []*models.PipelineRun
	mu   sync.Mutex
}

// NewRunQueue creates a new run queue
func NewRunQueue() *RunQueue {
	return &RunQueue{
		runs: make([]*models.PipelineRun, 0),
	}
}

// Enqueue adds a run to the queue
func (q *RunQueue) Enqueue(run *models.PipelineRun) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.runs = append(q.runs, run)
}

// Pop removes and returns the oldest queued run, or nil when empty
func (q *RunQueue) Pop() *models.PipelineRun {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.runs) == 0 {
		return nil
	}

	run := q.runs[0]
	q.runs[0] = nil
	q.runs = q.runs[1:]
	return run
}

// Len returns the number of queued runs
func (q *RunQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.runs)
}
