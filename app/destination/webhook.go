package destination

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const NameWebhook = "webhook"

// webhookContentLimit matches the Discord message content limit, the
// strictest among compatible webhook receivers.
const webhookContentLimit = 2000

type WebhookConfig struct {
	URL string
}

func (c WebhookConfig) configured() bool {
	return c.URL != ""
}

func (c WebhookConfig) validate() error {
	if c.URL == "" {
		return fmt.Errorf("webhook: URL is required")
	}
	return nil
}

// Webhook publishes entries to a Discord-compatible webhook endpoint.
type Webhook struct {
	url        string
	enabled    bool
	httpClient *http.Client
	userAgent  string
	timeout    time.Duration
}

func NewWebhook(config WebhookConfig, enabled bool, httpClient *http.Client, userAgent string, timeout time.Duration) *Webhook {
	return &Webhook{
		url:        config.URL,
		enabled:    enabled,
		httpClient: httpClient,
		userAgent:  userAgent,
		timeout:    timeout,
	}
}

func (w *Webhook) Name() string { return NameWebhook }

func (w *Webhook) Enabled() bool { return w.enabled }

func (w *Webhook) Publish(ctx context.Context, post Post) error {
	timeoutCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	payload := struct {
		Content string `json:"content"`
	}{
		Content: composePost(post, webhookContentLimit),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(timeoutCtx, "POST", w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", w.userAgent)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to deliver webhook: %w", err)
	}
	defer resp.Body.Close()

	// Discord answers 204 on success; other receivers may use 200.
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("HTTP error: %d %s: %s", resp.StatusCode, resp.Status, readErrorBody(resp.Body))
	}

	return nil
}
