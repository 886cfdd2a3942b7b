package monitoring

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"churn-orchestrator/core/models"

	"github.com/rs/zerolog/log"
)

// FailureCounter counts failed runs in a time window
type FailureCounter interface {
	CountFailedSince(t time.Time) (int, error)
}

// AlarmHandler receives alarm state-change events
type AlarmHandler interface {
	HandleAlarm(ctx context.Context, event models.AlarmStateChangeEvent) error
}

// FailureAlarm evaluates run failures over a fixed period and drives an
// alarm state machine: at or above the threshold the alarm enters ALARM,
// below it returns to OK, and evaluation errors yield INSUFFICIENT_DATA.
// Every transition is handed to the alarm handler.
type FailureAlarm struct {
	counter     FailureCounter
	handler     AlarmHandler
	period      time.Duration
	threshold   int
	region      string
	alarmName   string
	description string
	state       models.AlarmState
}

// NewFailureAlarm creates a new failure alarm starting in the OK state
func NewFailureAlarm(counter FailureCounter, handler AlarmHandler, period time.Duration, threshold int, region string) *FailureAlarm {
	return &FailureAlarm{
		counter:     counter,
		handler:     handler,
		period:      period,
		threshold:   threshold,
		region:      region,
		alarmName:   "CustomerChurnPipelineAlarm",
		description: "This alarm triggers whenever a customer churn pipeline run fails",
		state: models.AlarmState{
			Value:     models.StateOK,
			Reason:    "initial state",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	}
}

// Start starts the evaluation loop
func (fa *FailureAlarm) Start(ctx context.Context) {
	ticker := time.NewTicker(fa.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fa.Evaluate(ctx)
		}
	}
}

// Evaluate runs one evaluation period and fires the handler on transitions
func (fa *FailureAlarm) Evaluate(ctx context.Context) {
	next := fa.nextState()
	if next.Value == fa.state.Value {
		return
	}

	event := fa.transitionEvent(next)
	fa.state = next

	if err := fa.handler.HandleAlarm(ctx, event); err != nil {
		log.Error().Err(err).Str("alarm", fa.alarmName).Msg("Failed to deliver alarm transition")
	}
}

// nextState evaluates the failure count against the threshold
func (fa *FailureAlarm) nextState() models.AlarmState {
	now := time.Now().UTC()

	count, err := fa.counter.CountFailedSince(now.Add(-fa.period))
	if err != nil {
		return models.AlarmState{
			Value:     models.StateInsufficientData,
			Reason:    fmt.Sprintf("failure count unavailable: %v", err),
			Timestamp: now.Format(time.RFC3339),
		}
	}

	value := models.StateOK
	if count >= fa.threshold {
		value = models.StateAlarm
	}

	reasonData, _ := json.Marshal(map[string]interface{}{
		"failedRuns": count,
		"threshold":  fa.threshold,
		"periodSecs": int(fa.period.Seconds()),
	})

	return models.AlarmState{
		Value:      value,
		Reason:     fmt.Sprintf("%d pipeline runs failed in the last %s (threshold %d)", count, fa.period, fa.threshold),
		ReasonData: string(reasonData),
		Timestamp:  now.Format(time.RFC3339),
	}
}

// transitionEvent builds the alarm state-change event for a transition
func (fa *FailureAlarm) transitionEvent(next models.AlarmState) models.AlarmStateChangeEvent {
	return models.AlarmStateChangeEvent{
		Time:   next.Timestamp,
		Region: fa.region,
		Source: "churn-orchestrator",
		AlarmData: models.AlarmData{
			AlarmName:     fa.alarmName,
			State:         next,
			PreviousState: fa.state,
			Configuration: models.AlarmConfiguration{
				Description: fa.description,
				Metrics: []models.MetricDataQuery{
					{
						ID: "failedRuns",
						MetricStat: &models.MetricStat{
							Metric: models.Metric{
								Name:      "RunsFailed",
								Namespace: "ChurnOrchestrator",
							},
							Period: int(fa.period.Seconds()),
							Stat:   "Sum",
							Unit:   "Count",
						},
						ReturnData: true,
					},
				},
			},
		},
	}
}
