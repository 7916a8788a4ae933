package destination

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const NameLemmy = "lemmy"

// lemmyTitleLimit and lemmyBodyLimit match the validation limits of the
// Lemmy API.
const (
	lemmyTitleLimit = 200
	lemmyBodyLimit  = 10000
)

type LemmyConfig struct {
	Server    string
	Username  string
	Password  string
	Community string
}

func (c LemmyConfig) configured() bool {
	return c.Server != "" || c.Username != "" || c.Password != "" || c.Community != ""
}

func (c LemmyConfig) validate() error {
	required := map[string]string{
		"server":    c.Server,
		"username":  c.Username,
		"password":  c.Password,
		"community": c.Community,
	}
	for field, value := range required {
		if value == "" {
			return fmt.Errorf("lemmy: %s is required", field)
		}
	}
	return nil
}

// Lemmy publishes entries as posts in a Lemmy community. The session (JWT
// and resolved community ID) is established lazily on the first publish
// and reused afterwards.
type Lemmy struct {
	server     string
	username   string
	password   string
	community  string
	enabled    bool
	httpClient *http.Client
	userAgent  string
	timeout    time.Duration

	mu          sync.Mutex
	jwt         string
	communityID int
}

func NewLemmy(config LemmyConfig, enabled bool, httpClient *http.Client, userAgent string, timeout time.Duration) *Lemmy {
	return &Lemmy{
		server:     strings.TrimSuffix(config.Server, "/"),
		username:   config.Username,
		password:   config.Password,
		community:  config.Community,
		enabled:    enabled,
		httpClient: httpClient,
		userAgent:  userAgent,
		timeout:    timeout,
	}
}

func (l *Lemmy) Name() string { return NameLemmy }

func (l *Lemmy) Enabled() bool { return l.enabled }

func (l *Lemmy) Publish(ctx context.Context, post Post) error {
	timeoutCtx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	jwt, communityID, err := l.session(timeoutCtx)
	if err != nil {
		return err
	}

	// Lemmy rejects posts without a name; fall back like composePost does.
	name := cmp.Or(plainText(post.Title), plainText(post.Summary), post.Link)

	payload := map[string]any{
		"name":         truncate(name, lemmyTitleLimit),
		"community_id": communityID,
	}
	if post.Link != "" {
		payload["url"] = post.Link
	}
	if summary := plainText(post.Summary); summary != "" {
		payload["body"] = truncate(summary, lemmyBodyLimit)
	}

	var response struct {
		PostView struct {
			Post struct {
				ID int `json:"id"`
			} `json:"post"`
		} `json:"post_view"`
	}
	if err := l.postJSON(timeoutCtx, "/api/v3/post", jwt, payload, &response); err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}

	return nil
}

// session logs in and resolves the community ID once, guarded by a mutex
// because feeds publish concurrently.
func (l *Lemmy) session(ctx context.Context) (string, int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.jwt != "" && l.communityID != 0 {
		return l.jwt, l.communityID, nil
	}

	var login struct {
		JWT string `json:"jwt"`
	}
	payload := map[string]any{
		"username_or_email": l.username,
		"password":          l.password,
	}
	if err := l.postJSON(ctx, "/api/v3/user/login", "", payload, &login); err != nil {
		return "", 0, fmt.Errorf("failed to log in: %w", err)
	}
	if login.JWT == "" {
		return "", 0, fmt.Errorf("failed to log in: empty token in response")
	}

	var community struct {
		CommunityView struct {
			Community struct {
				ID int `json:"id"`
			} `json:"community"`
		} `json:"community_view"`
	}
	endpoint := "/api/v3/community?name=" + url.QueryEscape(l.community)
	if err := l.getJSON(ctx, endpoint, login.JWT, &community); err != nil {
		return "", 0, fmt.Errorf("failed to resolve community '%s': %w", l.community, err)
	}
	if community.CommunityView.Community.ID == 0 {
		return "", 0, fmt.Errorf("failed to resolve community '%s': not found", l.community)
	}

	l.jwt = login.JWT
	l.communityID = community.CommunityView.Community.ID
	return l.jwt, l.communityID, nil
}

func (l *Lemmy) postJSON(ctx context.Context, path, jwt string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", l.server+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return l.do(req, jwt, out)
}

func (l *Lemmy) getJSON(ctx context.Context, path, jwt string, out any) error {
	req, err := http.NewRequestWithContext(ctx, "GET", l.server+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return l.do(req, jwt, out)
}

func (l *Lemmy) do(req *http.Request, jwt string, out any) error {
	req.Header.Set("User-Agent", l.userAgent)
	if jwt != "" {
		req.Header.Set("Authorization", "Bearer "+jwt)
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP error: %d %s: %s", resp.StatusCode, resp.Status, readErrorBody(resp.Body))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
