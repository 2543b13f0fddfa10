package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/wolfrage76/dusk-manager/internal/config"
	"github.com/wolfrage76/dusk-manager/internal/logger"
	"github.com/wolfrage76/dusk-manager/internal/state"
)

// Notifier delivers a message plus a state snapshot to a channel.
// Delivery is bounded by the post timeout; failure is logged by the
// caller, never escalated.
type Notifier interface {
	Notify(ctx context.Context, message string, snap state.Snapshot) error
}

// MultiNotifier fans a notification out to every configured channel.
// A failing channel does not stop the others.
type MultiNotifier struct {
	notifiers []Notifier
}

func (m *MultiNotifier) Notify(ctx context.Context, message string, snap state.Snapshot) error {
	var lastErr error
	for _, n := range m.notifiers {
		if err := n.Notify(ctx, message, snap); err != nil {
			lastErr = err
			logger.Warn("NOTIFY", "Notifier failed: %v", err)
		}
	}
	return lastErr
}

func NewNotifier(cfg config.NotificationsConfig) Notifier {
	var notifiers []Notifier

	if cfg.DiscordWebhook != "" {
		notifiers = append(notifiers, &DiscordNotifier{webhook: cfg.DiscordWebhook})
	}
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != "" {
		notifiers = append(notifiers, &TelegramNotifier{token: cfg.TelegramBotToken, chatID: cfg.TelegramChatID})
	}
	if cfg.PushoverUserKey != "" && cfg.PushoverAppToken != "" {
		notifiers = append(notifiers, &PushoverNotifier{userKey: cfg.PushoverUserKey, appToken: cfg.PushoverAppToken})
	}
	if cfg.WebhookURL != "" {
		notifiers = append(notifiers, &WebhookNotifier{url: cfg.WebhookURL})
	}

	return &MultiNotifier{notifiers: notifiers}
}

type DiscordNotifier struct {
	webhook string
}

func (d *DiscordNotifier) Notify(ctx context.Context, message string, _ state.Snapshot) error {
	payload := map[string]string{"content": message}
	return postJSON(ctx, d.webhook, payload)
}

type TelegramNotifier struct {
	token  string
	chatID string
}

func (t *TelegramNotifier) Notify(ctx context.Context, message string, _ state.Snapshot) error {
	apiURL := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", t.token)
	payload := map[string]string{
		"chat_id": t.chatID,
		"text":    message,
	}
	return postJSON(ctx, apiURL, payload)
}

type PushoverNotifier struct {
	userKey  string
	appToken string
}

func (p *PushoverNotifier) Notify(ctx context.Context, message string, _ state.Snapshot) error {
	form := url.Values{
		"token":   {p.appToken},
		"user":    {p.userKey},
		"message": {message},
	}
	return postForm(ctx, "https://api.pushover.net/1/messages.json", form)
}

// WebhookNotifier posts the message along with the full state snapshot to
// a user-supplied endpoint.
type WebhookNotifier struct {
	url string
}

func (w *WebhookNotifier) Notify(ctx context.Context, message string, snap state.Snapshot) error {
	payload := struct {
		Message string         `json:"message"`
		State   state.Snapshot `json:"state"`
	}{Message: message, State: snap}
	return postJSON(ctx, w.url, payload)
}

const postTimeout = 5 * time.Second

func postJSON(ctx context.Context, endpoint string, body any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	return post(ctx, endpoint, "application/json", bytes.NewReader(data))
}

func postForm(ctx context.Context, endpoint string, form url.Values) error {
	return post(ctx, endpoint, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
}

func post(ctx context.Context, endpoint, contentType string, body io.Reader) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)

	client := &http.Client{Timeout: postTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}
