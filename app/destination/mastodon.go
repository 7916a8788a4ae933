package destination

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const NameMastodon = "mastodon"

// mastodonStatusLimit matches the default character limit of a Mastodon
// status.
const mastodonStatusLimit = 500

var mastodonVisibilities = map[string]bool{
	"public":   true,
	"unlisted": true,
	"private":  true,
	"direct":   true,
}

type MastodonConfig struct {
	Server      string
	AccessToken string
	Visibility  string
}

func (c MastodonConfig) configured() bool {
	return c.Server != "" || c.AccessToken != ""
}

func (c MastodonConfig) validate() error {
	if c.Server == "" {
		return fmt.Errorf("mastodon: server is required")
	}
	if c.AccessToken == "" {
		return fmt.Errorf("mastodon: access token is required")
	}
	if c.Visibility != "" && !mastodonVisibilities[c.Visibility] {
		return fmt.Errorf("mastodon: invalid visibility: %s", c.Visibility)
	}
	return nil
}

// Mastodon publishes entries as statuses via the Mastodon REST API.
type Mastodon struct {
	server      string
	accessToken string
	visibility  string
	enabled     bool
	httpClient  *http.Client
	userAgent   string
	timeout     time.Duration
}

func NewMastodon(config MastodonConfig, enabled bool, httpClient *http.Client, userAgent string, timeout time.Duration) *Mastodon {
	visibility := config.Visibility
	if visibility == "" {
		visibility = "public"
	}
	return &Mastodon{
		server:      strings.TrimSuffix(config.Server, "/"),
		accessToken: config.AccessToken,
		visibility:  visibility,
		enabled:     enabled,
		httpClient:  httpClient,
		userAgent:   userAgent,
		timeout:     timeout,
	}
}

func (m *Mastodon) Name() string { return NameMastodon }

func (m *Mastodon) Enabled() bool { return m.enabled }

func (m *Mastodon) Publish(ctx context.Context, post Post) error {
	timeoutCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	form := url.Values{}
	form.Set("status", composePost(post, mastodonStatusLimit))
	form.Set("visibility", m.visibility)

	req, err := http.NewRequestWithContext(timeoutCtx, "POST", m.server+"/api/v1/statuses", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+m.accessToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Idempotency-Key", idempotencyKey(post))
	req.Header.Set("User-Agent", m.userAgent)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to publish status: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP error: %d %s: %s", resp.StatusCode, resp.Status, readErrorBody(resp.Body))
	}

	return nil
}

// idempotencyKey derives a stable key from the entry identity, so a retry
// of an entry the server already accepted does not double-post.
func idempotencyKey(post Post) string {
	sum := sha256.Sum256([]byte(post.Feed + "\x00" + post.GUID))
	return hex.EncodeToString(sum[:])
}

func readErrorBody(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
