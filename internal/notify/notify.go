// Package notify delivers finished reports to the configured channels.
package notify

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"sensex-pulse/internal/config"
)

// Message is one outgoing delivery: a subject line, a plain-text body
// and optional file attachments.
type Message struct {
	Subject     string
	Body        string
	Attachments []Attachment
}

// Attachment is a file carried with the message. Channels that cannot
// carry files ignore attachments.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// FileAttachment reads path into an attachment, inferring the content
// type from the extension.
func FileAttachment(path string) (Attachment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Attachment{}, fmt.Errorf("read attachment: %w", err)
	}

	contentType := "application/octet-stream"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		contentType = "text/csv"
	case ".xlsx":
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}

	return Attachment{
		Filename:    filepath.Base(path),
		ContentType: contentType,
		Data:        data,
	}, nil
}

// Channel is a single delivery transport.
type Channel interface {
	Name() string
	Send(ctx context.Context, m Message) error
}

// Notifier is what callers hold: a MultiNotifier or the no-op.
type Notifier interface {
	Send(ctx context.Context, m Message) error
}

// FromConfig assembles a notifier from the delivery sections. With no
// channel enabled it returns the no-op notifier.
func FromConfig(email config.EmailConfig, telegram config.TelegramConfig, webhook config.WebhookConfig) Notifier {
	var channels []Channel
	if email.Enabled {
		channels = append(channels, NewEmailChannel(email))
	}
	if telegram.Enabled {
		channels = append(channels, NewTelegramChannel(telegram))
	}
	if webhook.Enabled {
		channels = append(channels, NewWebhookChannel(webhook))
	}

	if len(channels) == 0 {
		return NoOpNotifier{}
	}
	return NewMultiNotifier(channels...)
}

// MultiNotifier fans a message out to every channel and collects the
// failures; one failing channel never blocks the others.
type MultiNotifier struct {
	channels []Channel
}

// NewMultiNotifier creates a notifier over the given channels.
func NewMultiNotifier(channels ...Channel) *MultiNotifier {
	return &MultiNotifier{channels: channels}
}

// Send delivers m to every channel.
func (mn *MultiNotifier) Send(ctx context.Context, m Message) error {
	var errs []string
	for _, ch := range mn.channels {
		if err := ch.Send(ctx, m); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", ch.Name(), err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("delivery errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// NoOpNotifier drops every message.
type NoOpNotifier struct{}

// Send does nothing.
func (NoOpNotifier) Send(ctx context.Context, m Message) error { return nil }
