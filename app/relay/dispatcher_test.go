package relay

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lysyi3m/rss-relay/app/destination"
)

// stubDestination records publishes and fails on demand.
type stubDestination struct {
	name    string
	enabled bool
	panicOn string

	mu      sync.Mutex
	failAll bool
	failFor map[string]int
	posts   []destination.Post
}

func newStub(name string) *stubDestination {
	return &stubDestination{name: name, enabled: true, failFor: map[string]int{}}
}

func (s *stubDestination) Name() string  { return s.name }
func (s *stubDestination) Enabled() bool { return s.enabled }

func (s *stubDestination) Publish(ctx context.Context, post destination.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.panicOn != "" && post.GUID == s.panicOn {
		panic("stub exploded")
	}
	if s.failAll {
		return errors.New("destination unavailable")
	}
	if remaining := s.failFor[post.GUID]; remaining > 0 {
		s.failFor[post.GUID] = remaining - 1
		return errors.New("temporary failure")
	}

	s.posts = append(s.posts, post)
	return nil
}

func (s *stubDestination) setFailAll(failAll bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failAll = failAll
}

func (s *stubDestination) guids() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(s.posts))
	for _, post := range s.posts {
		out = append(out, post.GUID)
	}
	return out
}

func dispatchPost() destination.Post {
	return destination.Post{
		Feed:        "news",
		GUID:        "guid-1",
		Title:       "Title",
		Link:        "https://example.com/1",
		PublishedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestDispatcherFanOut(t *testing.T) {
	first := newStub("first")
	second := newStub("second")

	dispatcher := NewDispatcher(false)
	outcomes := dispatcher.Run(context.Background(), dispatchPost(), []destination.Destination{first, second})

	require.Len(t, outcomes, 2)
	assert.Equal(t, "first", outcomes[0].Destination)
	assert.Equal(t, StatusDelivered, outcomes[0].Status)
	assert.Equal(t, "second", outcomes[1].Destination)
	assert.Equal(t, StatusDelivered, outcomes[1].Status)
	assert.Equal(t, []string{"guid-1"}, first.guids())
	assert.Equal(t, []string{"guid-1"}, second.guids())
}

func TestDispatcherFailuresAreIndependent(t *testing.T) {
	broken := newStub("broken")
	broken.setFailAll(true)
	healthy := newStub("healthy")

	dispatcher := NewDispatcher(false)
	outcomes := dispatcher.Run(context.Background(), dispatchPost(), []destination.Destination{broken, healthy})

	require.Len(t, outcomes, 2)
	assert.Equal(t, StatusFailed, outcomes[0].Status)
	assert.NotEmpty(t, outcomes[0].Reason)
	assert.Equal(t, StatusDelivered, outcomes[1].Status)
	assert.Equal(t, []string{"guid-1"}, healthy.guids())
}

func TestDispatcherSkipsDisabled(t *testing.T) {
	disabled := newStub("disabled")
	disabled.enabled = false

	dispatcher := NewDispatcher(false)
	outcomes := dispatcher.Run(context.Background(), dispatchPost(), []destination.Destination{disabled})

	require.Len(t, outcomes, 1)
	assert.Equal(t, StatusSkipped, outcomes[0].Status)
	assert.Empty(t, disabled.guids())
}

func TestDispatcherRecoversPanics(t *testing.T) {
	unstable := newStub("unstable")
	unstable.panicOn = "guid-1"
	healthy := newStub("healthy")

	dispatcher := NewDispatcher(false)
	outcomes := dispatcher.Run(context.Background(), dispatchPost(), []destination.Destination{unstable, healthy})

	require.Len(t, outcomes, 2)
	assert.Equal(t, StatusFailed, outcomes[0].Status)
	assert.Contains(t, outcomes[0].Reason, "panic")
	assert.Equal(t, StatusDelivered, outcomes[1].Status)
}

func TestDispatcherDryRun(t *testing.T) {
	stub := newStub("stub")

	dispatcher := NewDispatcher(true)
	outcomes := dispatcher.Run(context.Background(), dispatchPost(), []destination.Destination{stub})

	require.Len(t, outcomes, 1)
	assert.Equal(t, StatusDelivered, outcomes[0].Status)
	assert.Empty(t, stub.guids())
}

func TestAnyFailed(t *testing.T) {
	assert.False(t, anyFailed(nil))
	assert.False(t, anyFailed([]Outcome{{Status: StatusDelivered}, {Status: StatusSkipped}}))
	assert.True(t, anyFailed([]Outcome{{Status: StatusDelivered}, {Status: StatusFailed}}))
}
