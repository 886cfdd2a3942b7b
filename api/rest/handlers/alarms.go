package handlers

import (
	"encoding/json"
	"net/http"

	"churn-orchestrator/core/models"
	"churn-orchestrator/core/notify"
)

// AlarmHandler handles inbound alarm-transition webhooks
type AlarmHandler struct {
	alerter *notify.FailureAlerter
}

// NewAlarmHandler creates a new alarm handler
func NewAlarmHandler(alerter *notify.FailureAlerter) *AlarmHandler {
	return &AlarmHandler{alerter: alerter}
}

// ReceiveAlarm handles POST /v1/alarms
func (h *AlarmHandler) ReceiveAlarm(w http.ResponseWriter, r *http.Request) {
	var event models.AlarmStateChangeEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		http.Error(w, "Invalid alarm event", http.StatusBadRequest)
		return
	}

	if event.AlarmData.AlarmName == "" {
		http.Error(w, "Alarm event has no alarm name", http.StatusBadRequest)
		return
	}

	if err := h.alerter.HandleAlarm(r.Context(), event); err != nil {
		http.Error(w, "Failed to dispatch alert: "+err.Error(), http.StatusBadGateway)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}
