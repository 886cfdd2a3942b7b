package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"churn-orchestrator/core/models"
)

// postJSON pushes a JSON payload to a webhook URL with a single attempt
func postJSON(ctx context.Context, client *http.Client, url string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// WebhookSink pushes notification events to an HTTP event sink
type WebhookSink struct {
	url    string
	client *http.Client
}

// NewWebhookSink creates a new webhook event sink
func NewWebhookSink(url string) *WebhookSink {
	return &WebhookSink{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Publish delivers one event to the sink, fire-and-forget
func (s *WebhookSink) Publish(ctx context.Context, event models.NotificationEvent) error {
	return postJSON(ctx, s.client, s.url, event)
}
