package cfg

import (
	"slices"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load([]string{})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.FeedsDir != "./feeds" {
		t.Errorf("Expected feeds dir './feeds', got '%s'", cfg.FeedsDir)
	}

	if cfg.StatePath != "./state.json" {
		t.Errorf("Expected state path './state.json', got '%s'", cfg.StatePath)
	}

	if cfg.ArchivePath != "" {
		t.Errorf("Expected empty archive path, got '%s'", cfg.ArchivePath)
	}

	if len(cfg.Destinations) != 0 {
		t.Errorf("Expected no destinations, got %v", cfg.Destinations)
	}

	if cfg.WorkerCount != 4 {
		t.Errorf("Expected worker count 4, got %d", cfg.WorkerCount)
	}

	if cfg.Timeout != 30 {
		t.Errorf("Expected timeout 30, got %d", cfg.Timeout)
	}

	if cfg.MastodonVisibility != "public" {
		t.Errorf("Expected visibility 'public', got '%s'", cfg.MastodonVisibility)
	}

	if cfg.UserAgent != "RSS Relay/1.0" {
		t.Errorf("Expected user agent 'RSS Relay/1.0', got '%s'", cfg.UserAgent)
	}

	if cfg.ForceLatest || cfg.DryRun || cfg.Debug {
		t.Error("Expected force latest, dry run and debug to default to false")
	}
}

func TestLoadFlags(t *testing.T) {
	cfg, err := Load([]string{
		"--feeds-dir", "/etc/relay/feeds",
		"--state-path", "/var/lib/relay/state.json",
		"--archive-path", "/var/lib/relay/archive.db",
		"--destinations", "mastodon, webhook",
		"--force-latest",
		"--dry",
		"--worker-count", "8",
		"--timeout", "10",
		"--debug",
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.FeedsDir != "/etc/relay/feeds" {
		t.Errorf("Expected feeds dir '/etc/relay/feeds', got '%s'", cfg.FeedsDir)
	}

	if cfg.StatePath != "/var/lib/relay/state.json" {
		t.Errorf("Expected state path '/var/lib/relay/state.json', got '%s'", cfg.StatePath)
	}

	if cfg.ArchivePath != "/var/lib/relay/archive.db" {
		t.Errorf("Expected archive path '/var/lib/relay/archive.db', got '%s'", cfg.ArchivePath)
	}

	expected := []string{"mastodon", "webhook"}
	if !slices.Equal(cfg.Destinations, expected) {
		t.Errorf("Expected destinations %v, got %v", expected, cfg.Destinations)
	}

	if !cfg.ForceLatest {
		t.Error("Expected force latest to be true")
	}

	if !cfg.DryRun {
		t.Error("Expected dry run to be true")
	}

	if cfg.WorkerCount != 8 {
		t.Errorf("Expected worker count 8, got %d", cfg.WorkerCount)
	}

	if cfg.Timeout != 10 {
		t.Errorf("Expected timeout 10, got %d", cfg.Timeout)
	}

	if !cfg.Debug {
		t.Error("Expected debug to be true")
	}
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("MASTODON_SERVER", "https://mastodon.example.com")
	t.Setenv("MASTODON_ACCESS_TOKEN", "token-123")
	t.Setenv("LEMMY_SERVER", "https://lemmy.example.com")
	t.Setenv("LEMMY_USERNAME", "bot")
	t.Setenv("LEMMY_PASSWORD", "secret")
	t.Setenv("LEMMY_COMMUNITY", "news")
	t.Setenv("WEBHOOK_URL", "https://discord.example.com/api/webhooks/1/abc")

	cfg, err := Load([]string{})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.MastodonServer != "https://mastodon.example.com" {
		t.Errorf("Expected mastodon server from env, got '%s'", cfg.MastodonServer)
	}

	if cfg.MastodonAccessToken != "token-123" {
		t.Errorf("Expected mastodon access token from env, got '%s'", cfg.MastodonAccessToken)
	}

	if cfg.LemmyServer != "https://lemmy.example.com" {
		t.Errorf("Expected lemmy server from env, got '%s'", cfg.LemmyServer)
	}

	if cfg.LemmyUsername != "bot" || cfg.LemmyPassword != "secret" || cfg.LemmyCommunity != "news" {
		t.Error("Expected lemmy credentials from env")
	}

	if cfg.WebhookURL != "https://discord.example.com/api/webhooks/1/abc" {
		t.Errorf("Expected webhook URL from env, got '%s'", cfg.WebhookURL)
	}
}

func TestLoadFlagOverridesEnv(t *testing.T) {
	t.Setenv("FEEDS_DIR", "/from/env")

	cfg, err := Load([]string{"--feeds-dir", "/from/flag"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.FeedsDir != "/from/flag" {
		t.Errorf("Expected flag to override env, got '%s'", cfg.FeedsDir)
	}
}

func TestLoadUnknownFlag(t *testing.T) {
	_, err := Load([]string{"--no-such-flag"})
	if err == nil {
		t.Fatal("Expected error for unknown flag, got nil")
	}
}

func TestLoadDestinationList(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected []string
	}{
		{"single", "mastodon", []string{"mastodon"}},
		{"multiple", "mastodon,lemmy,webhook", []string{"mastodon", "lemmy", "webhook"}},
		{"spaces and empties", " mastodon ,, lemmy ,", []string{"mastodon", "lemmy"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load([]string{"--destinations", tt.value})
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}

			if !slices.Equal(cfg.Destinations, tt.expected) {
				t.Errorf("Expected destinations %v, got %v", tt.expected, cfg.Destinations)
			}
		})
	}
}

func TestGetVersion(t *testing.T) {
	original := Version
	defer func() { Version = original }()

	Version = ""
	if got := GetVersion(); got != "unknown" {
		t.Errorf("Expected version 'unknown', got '%s'", got)
	}

	Version = "1.2.3"
	if got := GetVersion(); got != "1.2.3" {
		t.Errorf("Expected version '1.2.3', got '%s'", got)
	}
}
