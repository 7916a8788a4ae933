package relay

import (
	"time"
)

// Status classifies one publish attempt on one destination.
type Status string

const (
	// StatusDelivered means the destination accepted the post.
	StatusDelivered Status = "delivered"
	// StatusFailed means the destination returned an error or panicked.
	StatusFailed Status = "failed"
	// StatusSkipped means the destination is disabled for this run and was
	// never called.
	StatusSkipped Status = "skipped"
)

// Outcome is the result of publishing one entry to one destination.
type Outcome struct {
	Destination string
	Status      Status
	Reason      string
	Duration    time.Duration
}

// anyFailed reports whether any destination failed. Skipped destinations
// do not count, disabling a destination must not hold back watermarks.
func anyFailed(outcomes []Outcome) bool {
	for _, outcome := range outcomes {
		if outcome.Status == StatusFailed {
			return true
		}
	}
	return false
}
