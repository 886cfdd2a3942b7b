package notify

import (
	"context"
	"fmt"
	"time"

	"churn-orchestrator/core/models"

	"github.com/rs/zerolog/log"
)

// PredictionLoader reads the inference output artifact
type PredictionLoader interface {
	LoadPredictions(ctx context.Context, uri string) ([]models.PredictionRecord, error)
}

// EventSink accepts one notification event at a time
type EventSink interface {
	Publish(ctx context.Context, event models.NotificationEvent) error
}

// Summary reports the outcome of a dispatch pass
type Summary struct {
	Total  int
	Sent   int
	Failed int
}

// ResultNotifier turns positive prediction records into churn events and
// pushes them to the event sink one at a time, in the artifact's order.
type ResultNotifier struct {
	loader PredictionLoader
	sink   EventSink
	strict bool
}

// NewResultNotifier creates a new result notifier. With strict set, a
// partial dispatch is reported as an error; otherwise failed events are
// only counted.
func NewResultNotifier(loader PredictionLoader, sink EventSink, strict bool) *ResultNotifier {
	return &ResultNotifier{
		loader: loader,
		sink:   sink,
		strict: strict,
	}
}

// Dispatch loads the prediction artifact and pushes one event per positive
// record. A single delivery failure is recorded and dispatch proceeds with
// the next event; there is no retry and no rollback of sent events.
func (n *ResultNotifier) Dispatch(ctx context.Context, output models.StageOutput) (Summary, error) {
	records, err := n.loader.LoadPredictions(ctx, output.URI)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to load predictions from %s: %w", output.URI, err)
	}

	timestamp := time.Now().UTC().Format(time.RFC3339)

	var summary Summary
	for _, record := range records {
		if !record.Positive() {
			continue
		}
		summary.Total++

		event := models.NewChurnEvent(record, timestamp)
		if err := n.sink.Publish(ctx, event); err != nil {
			summary.Failed++
			log.Error().Err(err).Str("user_id", event.UserID).Msg("Failed to dispatch churn event")
			continue
		}
		summary.Sent++
	}

	if n.strict && summary.Failed > 0 {
		return summary, fmt.Errorf("%d of %d churn events failed to dispatch", summary.Failed, summary.Total)
	}
	return summary, nil
}
