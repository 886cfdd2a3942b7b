package notify

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"churn-orchestrator/core/models"

	"github.com/rs/zerolog/log"
)

// Emoji is the severity marker shown in an alert header
type Emoji string

const (
	EmojiBangBang       Emoji = ":bangbang:"
	EmojiWarning        Emoji = ":warning:"
	EmojiWhiteCheckMark Emoji = ":white_check_mark:"
)

// severityEmoji maps an alarm state to its severity marker
func severityEmoji(state models.StateValue) Emoji {
	switch state {
	case models.StateAlarm:
		return EmojiBangBang
	case models.StateOK:
		return EmojiWhiteCheckMark
	default:
		return EmojiWarning
	}
}

// Image is an optional trailing image block in an alert
type Image struct {
	Title string
	URL   string
	Alt   string
}

// AlertProps is the rendered content of a failure alert
type AlertProps struct {
	Emoji       Emoji
	Title       string
	Description string
	Link        string
	Reason      string
	Environment string
	Image       *Image
}

// Slack Block Kit payload shapes, declared as plain tagged structs.

type slackMessage struct {
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type      string       `json:"type"`
	Text      *slackText   `json:"text,omitempty"`
	Elements  []slackText  `json:"elements,omitempty"`
	Accessory *slackButton `json:"accessory,omitempty"`
	Title     *slackText   `json:"title,omitempty"`
	ImageURL  string       `json:"image_url,omitempty"`
	AltText   string       `json:"alt_text,omitempty"`
}

type slackText struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Emoji bool   `json:"emoji,omitempty"`
}

type slackButton struct {
	Type     string     `json:"type"`
	Text     *slackText `json:"text"`
	Value    string     `json:"value"`
	URL      string     `json:"url"`
	ActionID string     `json:"action_id"`
}

// buildAlertMessage renders the fixed alert structure: header, divider,
// description with a deep link, reason context, divider, environment tag,
// and an optional trailing image.
func buildAlertMessage(props AlertProps) slackMessage {
	message := slackMessage{
		Blocks: []slackBlock{
			{
				Type: "header",
				Text: &slackText{Type: "plain_text", Text: fmt.Sprintf("%s %s", props.Emoji, props.Title), Emoji: true},
			},
			{Type: "divider"},
			{
				Type: "section",
				Text: &slackText{Type: "mrkdwn", Text: props.Description},
				Accessory: &slackButton{
					Type:     "button",
					Text:     &slackText{Type: "plain_text", Text: "See More", Emoji: true},
					Value:    "see-more-call-to-action",
					URL:      props.Link,
					ActionID: "see-more-action",
				},
			},
			{
				Type:     "context",
				Elements: []slackText{{Type: "plain_text", Text: props.Reason, Emoji: true}},
			},
			{Type: "divider"},
			{
				Type:     "context",
				Elements: []slackText{{Type: "plain_text", Text: fmt.Sprintf("Environment: %s", props.Environment), Emoji: true}},
			},
		},
	}

	if props.Image != nil {
		message.Blocks = append(message.Blocks,
			slackBlock{Type: "divider"},
			slackBlock{
				Type:     "image",
				Title:    &slackText{Type: "plain_text", Text: props.Image.Title, Emoji: true},
				ImageURL: props.Image.URL,
				AltText:  props.Image.Alt,
			},
		)
	}

	return message
}

// FailureAlerter renders alarm transitions into chat alerts and pushes
// them to the chat sink. Each invocation is independent: no retry, no
// state retained between alarms.
type FailureAlerter struct {
	webhookURL  string
	environment string
	client      *http.Client
}

// NewFailureAlerter creates a new failure alerter
func NewFailureAlerter(webhookURL, environment string) *FailureAlerter {
	return &FailureAlerter{
		webhookURL:  webhookURL,
		environment: environment,
		client:      &http.Client{Timeout: 10 * time.Second},
	}
}

// HandleAlarm renders one alarm transition and pushes it to the chat sink
func (a *FailureAlerter) HandleAlarm(ctx context.Context, event models.AlarmStateChangeEvent) error {
	props := a.buildProps(event)

	log.Info().
		Str("alarm", event.AlarmData.AlarmName).
		Str("state", string(event.AlarmData.State.Value)).
		Str("previous", string(event.AlarmData.PreviousState.Value)).
		Msg("Dispatching failure alert")

	if err := postJSON(ctx, a.client, a.webhookURL, buildAlertMessage(props)); err != nil {
		return fmt.Errorf("failed to push alert for alarm %s: %w", event.AlarmData.AlarmName, err)
	}
	return nil
}

// buildProps extracts the consumed alarm fields into alert content
func (a *FailureAlerter) buildProps(event models.AlarmStateChangeEvent) AlertProps {
	data := event.AlarmData
	return AlertProps{
		Emoji:       severityEmoji(data.State.Value),
		Title:       data.AlarmName,
		Description: data.Configuration.Description,
		Link: fmt.Sprintf("https://%s.console.aws.amazon.com/cloudwatch/home?region=%s#alarmsV2:alarm/%s",
			event.Region, event.Region, data.AlarmName),
		Reason:      data.State.Reason,
		Environment: a.environment,
	}
}
