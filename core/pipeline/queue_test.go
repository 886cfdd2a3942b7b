package pipeline

import (
	"testing"

	"churn-orchestrator/core/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunQueueFIFO(t *testing.T) {
	q := NewRunQueue()
	assert.Equal(t, 0, q.Len())
	assert.Nil(t, q.Pop())

	q.Enqueue(&models.PipelineRun{ID: "run-1"})
	q.Enqueue(&models.PipelineRun{ID: "run-2"})
	q.Enqueue(&models.PipelineRun{ID: "run-3"})
	assert.Equal(t, 3, q.Len())

	for _, want := range []string{"run-1", "run-2", "run-3"} {
		run := q.Pop()
		require.NotNil(t, run)
		assert.Equal(t, want, run.ID)
	}

	assert.Nil(t, q.Pop())
	assert.Equal(t, 0, q.Len())
}
