package cfg

import (
	"fmt"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"

	"github.com/lysyi3m/rss-relay/app/internal/cmp"
)

// Version is set at build time using ldflags
var Version string

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	FeedsDir     string `long:"feeds-dir" env:"FEEDS_DIR" default:"./feeds" description:"Directory containing feed configuration files"`
	StatePath    string `long:"state-path" env:"STATE_PATH" default:"./state.json" description:"Path to the watermark state file"`
	ArchivePath  string `long:"archive-path" env:"ARCHIVE_PATH" description:"Path to the SQLite publication archive, disabled when empty"`
	Destinations string `long:"destinations" env:"DESTINATIONS" description:"Comma-separated list of destinations to publish to, all configured ones when empty"`
	ForceLatest  bool   `long:"force-latest" env:"FORCE_LATEST" description:"Republish the newest entry of every feed without reading or saving state"`
	DryRun       bool   `long:"dry" env:"DRY_RUN" description:"Log what would be published without posting or saving state"`
	WorkerCount  int    `long:"worker-count" env:"WORKER_COUNT" default:"4" description:"Number of feeds processed concurrently"`
	Timeout      int    `long:"timeout" env:"TIMEOUT" default:"30" description:"Timeout in seconds for destination requests"`

	MastodonServer      string `long:"mastodon-server" env:"MASTODON_SERVER" description:"Mastodon server URL (e.g., https://mastodon.social)"`
	MastodonAccessToken string `long:"mastodon-access-token" env:"MASTODON_ACCESS_TOKEN" description:"Mastodon API access token"`
	MastodonVisibility  string `long:"mastodon-visibility" env:"MASTODON_VISIBILITY" default:"public" description:"Visibility of published Mastodon statuses"`
	LemmyServer         string `long:"lemmy-server" env:"LEMMY_SERVER" description:"Lemmy server URL"`
	LemmyUsername       string `long:"lemmy-username" env:"LEMMY_USERNAME" description:"Lemmy bot account username"`
	LemmyPassword       string `long:"lemmy-password" env:"LEMMY_PASSWORD" description:"Lemmy bot account password"`
	LemmyCommunity      string `long:"lemmy-community" env:"LEMMY_COMMUNITY" description:"Name of the Lemmy community to post into"`
	WebhookURL          string `long:"webhook-url" env:"WEBHOOK_URL" description:"Discord-compatible webhook URL"`

	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"RSS Relay/1.0" description:"User agent used for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone used for logging and time display"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

func Load(args []string) (*Cfg, error) {
	raw := rawCfg{}

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.ParseArgs(args); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		FeedsDir:     raw.FeedsDir,
		StatePath:    raw.StatePath,
		ArchivePath:  raw.ArchivePath,
		Destinations: splitList(raw.Destinations),
		ForceLatest:  raw.ForceLatest,
		DryRun:       raw.DryRun,
		WorkerCount:  raw.WorkerCount,
		Timeout:      raw.Timeout,

		MastodonServer:      raw.MastodonServer,
		MastodonAccessToken: raw.MastodonAccessToken,
		MastodonVisibility:  raw.MastodonVisibility,
		LemmyServer:         raw.LemmyServer,
		LemmyUsername:       raw.LemmyUsername,
		LemmyPassword:       raw.LemmyPassword,
		LemmyCommunity:      raw.LemmyCommunity,
		WebhookURL:          raw.WebhookURL,

		UserAgent: raw.UserAgent,
		Timezone:  raw.Timezone,
		Debug:     raw.Debug,
		Version:   GetVersion(),
	}

	applyTimezone(cfg.Timezone)

	return cfg, nil
}

func splitList(s string) []string {
	items := []string{}

	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}

		items = append(items, item)
	}

	return items
}

func applyTimezone(timezone string) {
	location, err := time.LoadLocation(timezone)
	if err != nil {
		fmt.Printf("Warning: invalid timezone '%s', using system default\n", timezone)
		return
	}

	time.Local = location
}
