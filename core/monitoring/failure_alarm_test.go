package monitoring

import (
	"context"
	"errors"
	"testing"
	"time"

	"churn-orchestrator/core/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCounter struct {
	count int
	err   error
}

func (c *fakeCounter) CountFailedSince(t time.Time) (int, error) {
	return c.count, c.err
}

type fakeHandler struct {
	events []models.AlarmStateChangeEvent
	err    error
}

func (h *fakeHandler) HandleAlarm(ctx context.Context, event models.AlarmStateChangeEvent) error {
	h.events = append(h.events, event)
	return h.err
}

func TestEvaluateTransitionsToAlarm(t *testing.T) {
	counter := &fakeCounter{count: 2}
	handler := &fakeHandler{}
	alarm := NewFailureAlarm(counter, handler, 30*time.Second, 1, "us-east-1")

	alarm.Evaluate(context.Background())

	require.Len(t, handler.events, 1)
	event := handler.events[0]
	assert.Equal(t, models.StateAlarm, event.AlarmData.State.Value)
	assert.Equal(t, models.StateOK, event.AlarmData.PreviousState.Value)
	assert.Equal(t, "CustomerChurnPipelineAlarm", event.AlarmData.AlarmName)
	assert.Equal(t, "us-east-1", event.Region)
	assert.Contains(t, event.AlarmData.State.Reason, "2 pipeline runs failed")

	require.Len(t, event.AlarmData.Configuration.Metrics, 1)
	metric := event.AlarmData.Configuration.Metrics[0]
	assert.Equal(t, "RunsFailed", metric.MetricStat.Metric.Name)
	assert.Equal(t, "ChurnOrchestrator", metric.MetricStat.Metric.Namespace)
}

func TestEvaluateDoesNotRepeatSameState(t *testing.T) {
	counter := &fakeCounter{count: 0}
	handler := &fakeHandler{}
	alarm := NewFailureAlarm(counter, handler, 30*time.Second, 1, "us-east-1")

	// Starts in OK and the count stays below threshold: no transition.
	alarm.Evaluate(context.Background())
	alarm.Evaluate(context.Background())
	assert.Empty(t, handler.events)

	counter.count = 3
	alarm.Evaluate(context.Background())
	alarm.Evaluate(context.Background())
	require.Len(t, handler.events, 1)
	assert.Equal(t, models.StateAlarm, handler.events[0].AlarmData.State.Value)
}

func TestEvaluateRecoversToOK(t *testing.T) {
	counter := &fakeCounter{count: 1}
	handler := &fakeHandler{}
	alarm := NewFailureAlarm(counter, handler, 30*time.Second, 1, "us-east-1")

	alarm.Evaluate(context.Background())
	counter.count = 0
	alarm.Evaluate(context.Background())

	require.Len(t, handler.events, 2)
	recovery := handler.events[1]
	assert.Equal(t, models.StateOK, recovery.AlarmData.State.Value)
	assert.Equal(t, models.StateAlarm, recovery.AlarmData.PreviousState.Value)
}

func TestEvaluateCounterErrorYieldsInsufficientData(t *testing.T) {
	counter := &fakeCounter{err: errors.New("connection refused")}
	handler := &fakeHandler{}
	alarm := NewFailureAlarm(counter, handler, 30*time.Second, 1, "us-east-1")

	alarm.Evaluate(context.Background())

	require.Len(t, handler.events, 1)
	event := handler.events[0]
	assert.Equal(t, models.StateInsufficientData, event.AlarmData.State.Value)
	assert.Contains(t, event.AlarmData.State.Reason, "failure count unavailable")
}

func TestEvaluateHandlerErrorStillAdvancesState(t *testing.T) {
	counter := &fakeCounter{count: 5}
	handler := &fakeHandler{err: errors.New("webhook returned status 500")}
	alarm := NewFailureAlarm(counter, handler, 30*time.Second, 1, "us-east-1")

	alarm.Evaluate(context.Background())
	alarm.Evaluate(context.Background())

	// The failed delivery is not retried on the next period.
	assert.Len(t, handler.events, 1)
}
