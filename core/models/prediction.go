package models

// PredictionRecord is one entity's row in the inference output artifact
type PredictionRecord struct {
	UserID    string `json:"user_id"`
	WillChurn int    `json:"will_churn"`
}

// Positive reports whether the record carries a positive churn prediction
func (r PredictionRecord) Positive() bool {
	return r.WillChurn == 1
}

// EventTypeChurnPrediction is the fixed event type for outbound churn events
const EventTypeChurnPrediction = "churn_prediction"

// NotificationEvent is the outbound message for one positive prediction
type NotificationEvent struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	EventType string `json:"event_type"`
	UserID    string `json:"user_id"`
}

// NewChurnEvent derives a NotificationEvent from a prediction record. The
// event is keyed by the entity it concerns, so repeated dispatches for the
// same entity are deduplicatable downstream.
func NewChurnEvent(record PredictionRecord, timestamp string) NotificationEvent {
	return NotificationEvent{
		ID:        record.UserID,
		Timestamp: timestamp,
		EventType: EventTypeChurnPrediction,
		UserID:    record.UserID,
	}
}
