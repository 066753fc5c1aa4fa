// Package telegram implements a Telegram Bot API notifier
package telegram

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/quantpit/pitboss/internal/notify"
)

// Telegram implements the Notifier interface for Telegram Bot API
type Telegram struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
}

// New creates a new Telegram notifier
func New(botToken, chatID string) *Telegram {
	return &Telegram{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  "https://api.telegram.org",
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (t *Telegram) Name() string {
	return "telegram"
}

func (t *Telegram) Init(cfg notify.Config) error {
	if token, ok := cfg.Params["bot_token"].(string); ok {
		t.botToken = token
	}
	if chatID, ok := cfg.Params["chat_id"].(string); ok {
		t.chatID = chatID
	}

	if t.botToken == "" {
		return fmt.Errorf("telegram: bot_token is required")
	}
	if t.chatID == "" {
		return fmt.Errorf("telegram: chat_id is required")
	}
	if t.baseURL == "" {
		t.baseURL = "https://api.telegram.org"
	}

	return nil
}

func (t *Telegram) Send(notice notify.Notice) error {
	return t.sendMessage(t.formatNotice(notice))
}

func (t *Telegram) SendBatch(notices []notify.Notice) error {
	if len(notices) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("*%d updates*\n\n", len(notices)))

	for i, n := range notices {
		sb.WriteString(t.formatNotice(n))
		if i < len(notices)-1 {
			sb.WriteString("\n---\n\n")
		}
	}

	return t.sendMessage(sb.String())
}

func (t *Telegram) formatNotice(notice notify.Notice) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("*%s*\n", notice.Title))
	if notice.Body != "" {
		sb.WriteString(notice.Body)
		sb.WriteString("\n")
	}

	if len(notice.Fields) > 0 {
		keys := make([]string, 0, len(notice.Fields))
		for k := range notice.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			sb.WriteString(fmt.Sprintf("%s: %v\n", k, notice.Fields[k]))
		}
	}

	sb.WriteString(fmt.Sprintf("Time: %s", notice.Time.Format("2006-01-02 15:04:05")))
	return sb.String()
}

func (t *Telegram) sendMessage(text string) error {
	url := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.botToken)

	payload := map[string]any{
		"chat_id":    t.chatID,
		"text":       text,
		"parse_mode": "Markdown",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("telegram: failed to marshal payload: %w", err)
	}

	resp, err := t.client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram: failed to send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var result map[string]any
		json.NewDecoder(resp.Body).Decode(&result)
		return fmt.Errorf("telegram: API error (status %d): %v", resp.StatusCode, result)
	}

	return nil
}
