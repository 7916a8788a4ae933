package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lysyi3m/rss-relay/app/archive"
	"github.com/lysyi3m/rss-relay/app/cfg"
	"github.com/lysyi3m/rss-relay/app/destination"
	"github.com/lysyi3m/rss-relay/app/feed"
	"github.com/lysyi3m/rss-relay/app/relay"
	"github.com/lysyi3m/rss-relay/app/state"
)

func main() {
	appCfg, err := cfg.Load(os.Args[1:])
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting RSS Relay", "version", appCfg.Version)

	configs, err := feed.LoadConfigs(appCfg.FeedsDir)
	if err != nil {
		slog.Error("Failed to load feed configurations", "error", err)
		os.Exit(1)
	}
	if len(configs) == 0 {
		slog.Error("No feed configurations found", "dir", appCfg.FeedsDir)
		os.Exit(1)
	}
	slog.Info("Feed configurations loaded", "count", len(configs), "dir", appCfg.FeedsDir)

	destinations, err := destination.Build(destination.BuildOptions{
		Mastodon: destination.MastodonConfig{
			Server:      appCfg.MastodonServer,
			AccessToken: appCfg.MastodonAccessToken,
			Visibility:  appCfg.MastodonVisibility,
		},
		Lemmy: destination.LemmyConfig{
			Server:    appCfg.LemmyServer,
			Username:  appCfg.LemmyUsername,
			Password:  appCfg.LemmyPassword,
			Community: appCfg.LemmyCommunity,
		},
		Webhook: destination.WebhookConfig{
			URL: appCfg.WebhookURL,
		},
		Enabled:   appCfg.Destinations,
		UserAgent: appCfg.UserAgent,
		Timeout:   time.Duration(appCfg.Timeout) * time.Second,
	})
	if err != nil {
		slog.Error("Failed to configure destinations", "error", err)
		os.Exit(1)
	}
	for _, dest := range destinations {
		slog.Info("Destination configured", "destination", dest.Name(), "enabled", dest.Enabled())
	}

	runner := &relay.Runner{
		Configs:      configs,
		Fetcher:      feed.NewFetcher(&http.Client{}, appCfg.UserAgent),
		Parser:       feed.NewParser(),
		Filterer:     feed.NewFilterer(),
		Selector:     feed.NewSelector(),
		Extractor:    feed.NewContentExtractor(),
		Dispatcher:   relay.NewDispatcher(appCfg.DryRun),
		Destinations: destinations,
		Store:        state.NewStore(appCfg.StatePath),
		WorkerCount:  appCfg.WorkerCount,
		ForceLatest:  appCfg.ForceLatest,
		Dry:          appCfg.DryRun,
	}

	if appCfg.ArchivePath != "" {
		arch, err := archive.Open(appCfg.ArchivePath)
		if err != nil {
			slog.Error("Failed to open publication archive", "error", err)
			os.Exit(1)
		}
		defer arch.Close()

		runner.Recorder = arch
		slog.Info("Publication archive opened", "path", appCfg.ArchivePath)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := runner.Run(ctx)
	if err != nil {
		slog.Error("Run failed", "error", err)
		os.Exit(1)
	}

	for _, report := range summary.Feeds {
		switch {
		case report.Err != nil:
			slog.Error("Feed failed", "feed", report.Feed, "error", report.Err)
		case report.Disabled:
			slog.Debug("Feed disabled", "feed", report.Feed)
		case report.Stopped:
			slog.Warn("Feed stopped early", "feed", report.Feed, "selected", report.Selected, "published", report.Published)
		default:
			slog.Info("Feed completed", "feed", report.Feed, "selected", report.Selected, "published", report.Published)
		}
	}

	slog.Info("Run completed", "run_id", summary.RunID,
		"published", summary.TotalPublished(), "failed_feeds", summary.FailedFeeds(),
		"duration", summary.Duration.Round(time.Millisecond))
}
