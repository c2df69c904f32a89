package progress

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeClock records sleeps without blocking.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(_ context.Context, d time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

func (c *fakeClock) Sleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.sleeps...)
}

func TestEmitterLogPacing(t *testing.T) {
	t.Parallel()

	hub := NewHub(Config{BufferSize: 4})
	defer hub.Close()
	clk := newFakeClock()
	e := NewEmitter(hub, clk, nil)

	ch, cancel := hub.Subscribe()
	defer cancel()

	e.Log(context.Background(), "hello", 250*time.Millisecond)
	e.Log(context.Background(), "no pause", 0)

	require.Equal(t, "hello", (<-ch).Message)
	require.Equal(t, "no pause", (<-ch).Message)
	require.Equal(t, []time.Duration{250 * time.Millisecond}, clk.Sleeps())
}

func TestEmitterProgressClamping(t *testing.T) {
	t.Parallel()

	hub := NewHub(Config{BufferSize: 8})
	defer hub.Close()
	e := NewEmitter(hub, newFakeClock(), nil)

	ch, cancel := hub.Subscribe()
	defer cancel()

	tests := []struct {
		in   float64
		want int
	}{
		{in: -10, want: 0},
		{in: 0, want: 0},
		{in: 45.9, want: 45},
		{in: 100, want: 100},
		{in: 250, want: 100},
	}
	for _, tc := range tests {
		e.Progress(tc.in)
		evt := <-ch
		require.Equal(t, KindProgress, evt.Kind)
		require.Equal(t, tc.want, evt.Percent, "input %v", tc.in)
	}
}

func TestEmitterStatus(t *testing.T) {
	t.Parallel()

	hub := NewHub(Config{BufferSize: 2})
	defer hub.Close()
	e := NewEmitter(hub, newFakeClock(), nil)

	ch, cancel := hub.Subscribe()
	defer cancel()

	e.Status(true)
	e.Status(false)
	require.True(t, (<-ch).Running)
	require.False(t, (<-ch).Running)
}
