package browser

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNoopDriver(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	d := NewNoop()
	require.Error(t, d.Start(ctx))
	require.Error(t, d.Navigate(ctx, "https://example.com"))
	require.Error(t, d.Type(ctx, "textarea", "hi", time.Millisecond))
	require.NoError(t, d.Close(ctx))
}

func TestChromedpRequiresStart(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	d := NewChromedp(Config{Visible: false})
	require.Error(t, d.Navigate(ctx, "https://example.com"))
	require.Error(t, d.Type(ctx, "textarea", "hi", 0))
	require.NoError(t, d.Close(ctx))
}
