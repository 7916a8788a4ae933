package destination

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"
)

// Post is the destination-independent form of one feed entry ready for
// publishing. Each client renders it to its own wire format.
type Post struct {
	Feed        string
	GUID        string
	Title       string
	Link        string
	Summary     string
	PublishedAt time.Time
}

// Destination is one publishing backend. Publish must be safe for
// concurrent use, feeds are processed in parallel and may publish to the
// same destination at the same time.
type Destination interface {
	Name() string
	Enabled() bool
	Publish(ctx context.Context, post Post) error
}

// BuildOptions carries the credentials and HTTP plumbing for every
// supported destination. A destination counts as configured when any of
// its fields is set; it must then validate completely.
type BuildOptions struct {
	Mastodon MastodonConfig
	Lemmy    LemmyConfig
	Webhook  WebhookConfig

	// Enabled lists destination names to publish to. Empty enables every
	// configured destination.
	Enabled []string

	HTTPClient *http.Client
	UserAgent  string
	Timeout    time.Duration
}

// Build assembles the destination set from the given options. Destinations
// that are configured but not listed in Enabled are included as disabled,
// so runs can report them as skipped.
func Build(opts BuildOptions) ([]Destination, error) {
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	requested := make(map[string]bool, len(opts.Enabled))
	for _, name := range opts.Enabled {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		requested[name] = true
	}

	enabledFor := func(name string) bool {
		return len(requested) == 0 || requested[name]
	}

	var destinations []Destination

	if opts.Mastodon.configured() {
		if err := opts.Mastodon.validate(); err != nil {
			return nil, err
		}
		destinations = append(destinations, NewMastodon(opts.Mastodon, enabledFor(NameMastodon), opts.HTTPClient, opts.UserAgent, opts.Timeout))
	}
	if opts.Lemmy.configured() {
		if err := opts.Lemmy.validate(); err != nil {
			return nil, err
		}
		destinations = append(destinations, NewLemmy(opts.Lemmy, enabledFor(NameLemmy), opts.HTTPClient, opts.UserAgent, opts.Timeout))
	}
	if opts.Webhook.configured() {
		if err := opts.Webhook.validate(); err != nil {
			return nil, err
		}
		destinations = append(destinations, NewWebhook(opts.Webhook, enabledFor(NameWebhook), opts.HTTPClient, opts.UserAgent, opts.Timeout))
	}

	configured := make(map[string]bool, len(destinations))
	enabledCount := 0
	for _, d := range destinations {
		configured[d.Name()] = true
		if d.Enabled() {
			enabledCount++
		}
	}

	var unknown []string
	for name := range requested {
		if !configured[name] {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("destinations enabled but not configured: %s", strings.Join(unknown, ", "))
	}

	if enabledCount == 0 {
		return nil, errors.New("no destinations configured")
	}

	return destinations, nil
}
