package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// SlackConfig configures a SlackSink.
type SlackConfig struct {
	// WebhookURL is the incoming webhook endpoint. Required.
	WebhookURL string

	// Channel optionally overrides the webhook's default channel.
	Channel string

	// HTTPClient overrides the HTTP client. Default: a client with a
	// 10 second timeout.
	HTTPClient *http.Client
}

// SlackSink delivers alerts to a Slack incoming webhook.
type SlackSink struct {
	cfg    SlackConfig
	client *http.Client
}

// slackPayload is the webhook message body.
type slackPayload struct {
	Channel     string            `json:"channel,omitempty"`
	Text        string            `json:"text"`
	Attachments []slackAttachment `json:"attachments,omitempty"`
}

type slackAttachment struct {
	Color  string       `json:"color"`
	Title  string       `json:"title"`
	Text   string       `json:"text"`
	Fields []slackField `json:"fields,omitempty"`
	Ts     int64        `json:"ts"`
}

type slackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

// NewSlackSink creates a SlackSink for the given webhook.
func NewSlackSink(cfg SlackConfig) (*SlackSink, error) {
	if cfg.WebhookURL == "" {
		return nil, fmt.Errorf("slack sink: webhook URL is required")
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &SlackSink{cfg: cfg, client: client}, nil
}

// Name implements Sink.
func (s *SlackSink) Name() string { return "slack" }

// Send implements Sink.
func (s *SlackSink) Send(ctx context.Context, event Event) error {
	color := "warning"
	if event.Severity == SeverityCritical {
		color = "danger"
	}

	payload := slackPayload{
		Channel: s.cfg.Channel,
		Text:    event.Subject(),
		Attachments: []slackAttachment{{
			Color: color,
			Title: event.Subject(),
			Text:  event.Message,
			Fields: []slackField{
				{Title: "Key index", Value: fmt.Sprintf("%d", event.KeyIndex), Short: true},
				{Title: "Usage", Value: fmt.Sprintf("%d / %d", event.Used, event.Limit), Short: true},
				{Title: "Percent", Value: fmt.Sprintf("%.1f%%", event.PercentUsed), Short: true},
				{Title: "Resets at", Value: event.ResetAt.UTC().Format(time.RFC3339), Short: true},
			},
			Ts: event.Timestamp.Unix(),
		}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post slack alert: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("slack webhook returned status %d", resp.StatusCode)
	}
	return nil
}
