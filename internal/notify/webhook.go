package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"sensex-pulse/internal/config"
)

// WebhookChannel posts a JSON summary of the report to an HTTP endpoint.
type WebhookChannel struct {
	url    string
	client *http.Client
}

// NewWebhookChannel creates a webhook channel from the config section.
func NewWebhookChannel(cfg config.WebhookConfig) *WebhookChannel {
	return &WebhookChannel{
		url:    cfg.URL,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Name returns the channel name used in error reports.
func (w *WebhookChannel) Name() string { return "webhook" }

type webhookPayload struct {
	Subject     string   `json:"subject"`
	Body        string   `json:"body"`
	SentAt      string   `json:"sent_at"`
	Attachments []string `json:"attachments,omitempty"`
}

// Send posts the message as JSON. Attachment contents stay local; only
// the filenames travel so the receiver knows what was produced.
func (w *WebhookChannel) Send(ctx context.Context, m Message) error {
	payload := webhookPayload{
		Subject: m.Subject,
		Body:    m.Body,
		SentAt:  time.Now().Format(time.RFC3339),
	}
	for _, att := range m.Attachments {
		payload.Attachments = append(payload.Attachments, att.Filename)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "sensex-pulse/1.0")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
