package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"ContentIngest/internal/ports"
)

const (
	defaultAPIBase = "https://api.telegram.org"
	// maxMessageRunes is the Bot API limit for one text message.
	maxMessageRunes = 4096
)

// ErrNotConfigured is returned when the bot token or chat is missing.
var ErrNotConfigured = errors.New("telegram notifier is not configured")

// Notifier sends run alerts to a Telegram chat via bot API.
type Notifier struct {
	apiBase  string
	botToken string
	chatID   string
	client   *http.Client
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier registers bot token and chat identifier.
func NewNotifier(botToken, chatID string) *Notifier {
	return &Notifier{
		apiBase:  defaultAPIBase,
		botToken: botToken,
		chatID:   chatID,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

// Configured reports whether both token and chat are present.
func (n *Notifier) Configured() bool {
	return n != nil && n.botToken != "" && n.chatID != ""
}

type sendMessage struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

type apiReply struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// PublishAlert posts a plain-text message to the chat. Messages longer than
// the Bot API limit are cut.
func (n *Notifier) PublishAlert(ctx context.Context, message string) error {
	if !n.Configured() {
		return ErrNotConfigured
	}

	body, err := json.Marshal(sendMessage{
		ChatID:                n.chatID,
		Text:                  clip(message),
		DisableWebPagePreview: true,
	})
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", n.apiBase, n.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	defer resp.Body.Close()

	var reply apiReply
	decodeErr := json.NewDecoder(resp.Body).Decode(&reply)
	switch {
	case resp.StatusCode != http.StatusOK && reply.Description != "":
		return fmt.Errorf("telegram error: %s: %s", resp.Status, reply.Description)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("telegram error: %s", resp.Status)
	case decodeErr != nil:
		return fmt.Errorf("decode telegram reply: %w", decodeErr)
	case !reply.OK:
		return fmt.Errorf("telegram rejected message: %s", reply.Description)
	}
	return nil
}

func clip(message string) string {
	runes := []rune(message)
	if len(runes) <= maxMessageRunes {
		return message
	}
	return string(runes[:maxMessageRunes-1]) + "…"
}
