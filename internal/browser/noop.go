package browser

import (
	"context"
	"errors"
	"time"
)

// Noop implements Driver but always fails, indicating that browser automation
// is disabled in the current build or config.
type Noop struct{}

// NewNoop creates a new Noop driver.
func NewNoop() *Noop {
	return &Noop{}
}

var errNotConfigured = errors.New("browser automation not configured")

// Start returns an error since this is a stub implementation.
func (Noop) Start(context.Context) error {
	return errNotConfigured
}

// Navigate returns an error since this is a stub implementation.
func (Noop) Navigate(context.Context, string) error {
	return errNotConfigured
}

// Type returns an error since this is a stub implementation.
func (Noop) Type(context.Context, string, string, time.Duration) error {
	return errNotConfigured
}

// Close is a no-op.
func (Noop) Close(context.Context) error {
	return nil
}
