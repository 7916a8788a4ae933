package relay

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lysyi3m/rss-relay/app/destination"
)

// Dispatcher fans a single post out to every destination in parallel and
// gathers one outcome per destination. A failure on one destination never
// prevents the attempt on another.
type Dispatcher struct {
	dry bool
}

func NewDispatcher(dry bool) *Dispatcher {
	return &Dispatcher{dry: dry}
}

// Run publishes the post to all enabled destinations and returns outcomes
// in the same order as the destinations slice.
func (d *Dispatcher) Run(ctx context.Context, post destination.Post, destinations []destination.Destination) []Outcome {
	outcomes := make([]Outcome, len(destinations))

	var wg sync.WaitGroup
	for i, dest := range destinations {
		if !dest.Enabled() {
			outcomes[i] = Outcome{Destination: dest.Name(), Status: StatusSkipped}
			continue
		}

		wg.Add(1)
		go func(i int, dest destination.Destination) {
			defer wg.Done()
			outcomes[i] = d.attempt(ctx, dest, post)
		}(i, dest)
	}
	wg.Wait()

	return outcomes
}

func (d *Dispatcher) attempt(ctx context.Context, dest destination.Destination, post destination.Post) (outcome Outcome) {
	outcome = Outcome{Destination: dest.Name(), Status: StatusDelivered}
	start := time.Now()

	// A panicking destination client must not take down the whole run;
	// it counts as a failed delivery for this entry.
	defer func() {
		outcome.Duration = time.Since(start)
		if r := recover(); r != nil {
			outcome.Status = StatusFailed
			outcome.Reason = fmt.Sprintf("panic: %v", r)
			slog.Error("Destination panicked", "destination", dest.Name(), "feed", post.Feed, "reason", outcome.Reason)
		}
	}()

	if d.dry {
		slog.Info("Dry run, would publish", "destination", dest.Name(), "feed", post.Feed, "title", post.Title, "link", post.Link)
		return outcome
	}

	if err := dest.Publish(ctx, post); err != nil {
		outcome.Status = StatusFailed
		outcome.Reason = err.Error()
		slog.Warn("Publish failed", "destination", dest.Name(), "feed", post.Feed, "link", post.Link, "error", err)
		return outcome
	}

	slog.Info("Published", "destination", dest.Name(), "feed", post.Feed, "title", post.Title, "link", post.Link, "duration", time.Since(start))
	return outcome
}
