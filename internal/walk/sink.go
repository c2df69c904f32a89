package walk

import (
	"context"
	"math"
	"time"
)

// Sink receives the runner's observable output. Implementations push to
// connected clients; delivery is best-effort and must preserve call order for
// a single producer.
type Sink interface {
	// Log delivers a human-readable line, then yields for delay. The delay is
	// visual pacing, not a correctness mechanism.
	Log(ctx context.Context, message string, delay time.Duration)
	// Progress delivers a percentage; implementations clamp via ClampPercent.
	Progress(percent float64)
	// Status broadcasts whether a run is active.
	Status(running bool)
}

// ClampPercent clamps percent to [0,100] and truncates to an integer.
func ClampPercent(percent float64) int {
	if math.IsNaN(percent) || percent < 0 {
		return 0
	}
	if percent > 100 {
		return 100
	}
	return int(percent)
}
