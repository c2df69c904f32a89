package walk

import "sync/atomic"

// Signal is a cooperative cancellation flag. Setting it never interrupts work
// in progress; the runner polls it at checkpoints between steps. Safe for
// concurrent use from handler goroutines and the run goroutine.
type Signal struct {
	set atomic.Bool
}

// NewSignal returns a cleared Signal.
func NewSignal() *Signal {
	return &Signal{}
}

// Set marks cancellation as requested. Idempotent.
func (s *Signal) Set() {
	s.set.Store(true)
}

// Clear resets the flag. Idempotent.
func (s *Signal) Clear() {
	s.set.Store(false)
}

// IsSet reports the current state without blocking.
func (s *Signal) IsSet() bool {
	return s.set.Load()
}
