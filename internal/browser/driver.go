package browser

import (
	"context"
	"time"
)

// Driver is the automation collaborator consumed by the walk runner. A Driver
// owns exactly one browser window and one tab between Start and Close; it is
// not safe for concurrent use.
type Driver interface {
	// Start launches the browser and opens a blank tab.
	Start(ctx context.Context) error
	// Navigate loads url in the tab and waits for the document body.
	Navigate(ctx context.Context, url string) error
	// Type clicks the element matching selector and types text one rune at a
	// time, pausing pacing between keystrokes.
	Type(ctx context.Context, selector, text string, pacing time.Duration) error
	// Close tears down the tab and the browser process.
	Close(ctx context.Context) error
}
