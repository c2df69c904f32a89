package progress

import (
	"errors"
	"fmt"
	"time"
)

// Kind denotes the type of observable update carried by an Event.
type Kind string

// Supported event kinds.
const (
	KindLog      Kind = "log"
	KindProgress Kind = "progress"
	KindStatus   Kind = "status"
)

// Event captures a single observable update of a run. Only the fields
// matching Kind are meaningful to consumers.
type Event struct {
	// Kind selects which payload field applies.
	Kind Kind
	// TS is the UTC timestamp recorded by the emitter.
	TS time.Time
	// Message is the log line for KindLog events.
	Message string
	// Percent is the clamped integer percentage for KindProgress events.
	Percent int
	// Running is the run-state broadcast for KindStatus events.
	Running bool
}

// Validate performs coarse validation on Event payloads.
func (e Event) Validate() error {
	switch e.Kind {
	case KindLog:
		if e.Message == "" {
			return errors.New("log event requires a message")
		}
	case KindProgress:
		if e.Percent < 0 || e.Percent > 100 {
			return fmt.Errorf("percent %d out of range", e.Percent)
		}
	case KindStatus:
	default:
		return fmt.Errorf("unknown kind %q", e.Kind)
	}
	return nil
}
