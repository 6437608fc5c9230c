package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tbourn/panopto-checks/internal/domain"
)

// DefaultTelegramAPI is the Bot API root.
const DefaultTelegramAPI = "https://api.telegram.org"

// TelegramAlerter forwards notifications to a Telegram chat through the Bot
// API sendMessage method.
type TelegramAlerter struct {
	token  string
	chatID string
	base   string
	client *http.Client
}

// NewTelegramAlerter returns an alerter posting to chatID as the bot
// identified by token. An empty base uses DefaultTelegramAPI.
func NewTelegramAlerter(token, chatID, base string) *TelegramAlerter {
	if base == "" {
		base = DefaultTelegramAPI
	}
	return &TelegramAlerter{
		token:  token,
		chatID: chatID,
		base:   strings.TrimRight(base, "/"),
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

type sendMessageRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Alert implements Alerter.
func (t *TelegramAlerter) Alert(ctx context.Context, n domain.Notification) error {
	if t.token == "" || t.chatID == "" {
		return errors.New("telegram: token and chat id required")
	}

	body, err := json.Marshal(sendMessageRequest{ChatID: t.chatID, Text: FormatText(n)})
	if err != nil {
		return fmt.Errorf("telegram: marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.base, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		// the URL carries the token
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return fmt.Errorf("telegram: send: %w", err)
	}
	defer resp.Body.Close()

	var out apiResponse
	_ = json.NewDecoder(resp.Body).Decode(&out)
	if resp.StatusCode != http.StatusOK || !out.OK {
		if out.Description != "" {
			return fmt.Errorf("telegram: %s: %s", resp.Status, out.Description)
		}
		return fmt.Errorf("telegram: %s", resp.Status)
	}
	return nil
}

// FormatText renders a notification as plain message text.
func FormatText(n domain.Notification) string {
	var b strings.Builder
	b.WriteString(n.Title)
	if n.Body != "" {
		b.WriteString("\n")
		b.WriteString(n.Body)
	}
	if n.CheckID != "" {
		b.WriteString("\n\ncheck: ")
		b.WriteString(n.CheckID)
	}
	return b.String()
}
