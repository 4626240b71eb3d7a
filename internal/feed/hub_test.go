package feed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHubFanOut(t *testing.T) {
	hub := NewHub(4, zap.NewNop())
	a := hub.Subscribe()
	b := hub.Subscribe()
	assert.Equal(t, 2, hub.Subscribers())

	e := Event{Resource: ResourceBooking, Action: ActionCreated, ID: "b1", At: time.Now()}
	hub.Publish(context.Background(), e)

	assert.Equal(t, e, <-a.C)
	assert.Equal(t, e, <-b.C)
}

func TestHubDropsForSlowSubscriber(t *testing.T) {
	hub := NewHub(1, zap.NewNop())
	s := hub.Subscribe()

	hub.Publish(context.Background(), Event{ID: "first"})
	hub.Publish(context.Background(), Event{ID: "second"})

	got := <-s.C
	assert.Equal(t, "first", got.ID)
	select {
	case e := <-s.C:
		t.Fatalf("unexpected event %q", e.ID)
	default:
	}
}

func TestHubUnsubscribeAndClose(t *testing.T) {
	hub := NewHub(0, zap.NewNop())
	s := hub.Subscribe()
	hub.Unsubscribe(s)
	hub.Unsubscribe(s)

	_, ok := <-s.C
	assert.False(t, ok)
	assert.Zero(t, hub.Subscribers())

	other := hub.Subscribe()
	hub.Close()
	_, ok = <-other.C
	assert.False(t, ok)

	late := hub.Subscribe()
	_, ok = <-late.C
	require.False(t, ok)

	// Publishing after close is a no-op.
	hub.Publish(context.Background(), Event{ID: "x"})
}
