package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func logEvent(msg string) Event {
	return Event{Kind: KindLog, TS: time.Now().UTC(), Message: msg}
}

func TestHubFanOutPreservesOrder(t *testing.T) {
	t.Parallel()

	hub := NewHub(Config{BufferSize: 8})
	defer hub.Close()

	ch1, cancel1 := hub.Subscribe()
	ch2, cancel2 := hub.Subscribe()
	defer cancel1()
	defer cancel2()

	hub.Publish(logEvent("first"))
	hub.Publish(logEvent("second"))

	for _, ch := range []<-chan Event{ch1, ch2} {
		require.Equal(t, "first", (<-ch).Message)
		require.Equal(t, "second", (<-ch).Message)
	}
}

func TestHubPublishNeverBlocks(t *testing.T) {
	t.Parallel()

	hub := NewHub(Config{BufferSize: 1})
	defer hub.Close()

	_, cancel := hub.Subscribe()
	defer cancel()

	start := time.Now()
	for i := 0; i < 100; i++ {
		hub.Publish(logEvent("flood"))
	}
	require.Less(t, time.Since(start), time.Second)
}

func TestHubDropsInvalidEvents(t *testing.T) {
	t.Parallel()

	hub := NewHub(Config{BufferSize: 4})
	defer hub.Close()

	ch, cancel := hub.Subscribe()
	defer cancel()

	hub.Publish(Event{Kind: "bogus"})
	hub.Publish(Event{Kind: KindProgress, Percent: 250})
	hub.Publish(logEvent("valid"))

	require.Equal(t, "valid", (<-ch).Message)
	select {
	case evt := <-ch:
		t.Fatalf("unexpected extra event: %+v", evt)
	default:
	}
}

func TestHubSubscribeCancelIdempotent(t *testing.T) {
	t.Parallel()

	hub := NewHub(Config{})
	defer hub.Close()

	ch, cancel := hub.Subscribe()
	require.Equal(t, 1, hub.Subscribers())

	cancel()
	cancel()
	require.Equal(t, 0, hub.Subscribers())

	_, open := <-ch
	require.False(t, open)
}

func TestHubCloseClosesSubscribers(t *testing.T) {
	t.Parallel()

	hub := NewHub(Config{})
	ch, cancel := hub.Subscribe()
	defer cancel()

	hub.Close()
	_, open := <-ch
	require.False(t, open)

	// Publishing after close must be a silent no-op.
	hub.Publish(logEvent("late"))

	// Subscribing after close yields a closed channel.
	ch2, _ := hub.Subscribe()
	_, open = <-ch2
	require.False(t, open)
}
