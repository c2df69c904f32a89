package progress

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/wmsyafiq/Script-Playwright-Demo/internal/clock"
	"github.com/wmsyafiq/Script-Playwright-Demo/internal/clock/system"
	"github.com/wmsyafiq/Script-Playwright-Demo/internal/walk"
)

// Emitter adapts a Hub to walk.Sink, adding the optional log pacing delay.
// It is the only producer of run events, so subscriber channels see events in
// emission order.
type Emitter struct {
	hub    *Hub
	clk    clock.Clock
	logger *zap.Logger
}

var _ walk.Sink = (*Emitter)(nil)

// NewEmitter wires a Hub and clock to the sink interface.
func NewEmitter(hub *Hub, clk clock.Clock, logger *zap.Logger) *Emitter {
	if clk == nil {
		clk = system.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Emitter{hub: hub, clk: clk, logger: logger}
}

// Log publishes a log line, then yields for delay. The delay exists for
// human-paced visuals; a canceled ctx cuts it short.
func (e *Emitter) Log(ctx context.Context, message string, delay time.Duration) {
	e.logger.Info(message)
	e.hub.Publish(Event{Kind: KindLog, TS: e.clk.Now(), Message: message})
	if delay > 0 {
		_ = e.clk.Sleep(ctx, delay)
	}
}

// Progress clamps percent to an integer in [0,100] and publishes it.
func (e *Emitter) Progress(percent float64) {
	e.hub.Publish(Event{Kind: KindProgress, TS: e.clk.Now(), Percent: walk.ClampPercent(percent)})
}

// Status broadcasts the run-state flag.
func (e *Emitter) Status(running bool) {
	e.hub.Publish(Event{Kind: KindStatus, TS: e.clk.Now(), Running: running})
}
