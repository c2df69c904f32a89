// Package progress provides the event primitives, non-blocking hub, and the
// walk.Sink adapter that pushes runner output to connected observers. Events
// fan out live to every subscriber; slow subscribers drop rather than stall
// the runner.
package progress
