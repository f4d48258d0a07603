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

const telegramMessageLimit = 4096

// TelegramChannel posts the report summary to a chat via the bot API.
// Attachments are not forwarded; Telegram gets the text only.
type TelegramChannel struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
}

// NewTelegramChannel creates a Telegram channel from the config section.
func NewTelegramChannel(cfg config.TelegramConfig) *TelegramChannel {
	return &TelegramChannel{
		botToken: cfg.BotToken,
		chatID:   cfg.ChatID,
		baseURL:  "https://api.telegram.org",
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Name returns the channel name used in error reports.
func (t *TelegramChannel) Name() string { return "telegram" }

// Send posts the subject and body as a single plain-text message.
func (t *TelegramChannel) Send(ctx context.Context, m Message) error {
	text := m.Subject
	if m.Body != "" {
		text += "\n\n" + m.Body
	}

	payload := map[string]string{
		"chat_id": t.chatID,
		"text":    truncateRunes(text, telegramMessageLimit),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling telegram payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending telegram message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram API returned status %d", resp.StatusCode)
	}
	return nil
}

// truncateRunes clips s to at most limit runes, marking the cut with an
// ellipsis so a clipped report is visibly incomplete.
func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-3]) + "..."
}
