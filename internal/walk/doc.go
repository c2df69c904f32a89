// Package walk implements the scripted browser walk: a fixed step sequence
// executed on a background goroutine, with cooperative cancellation and
// push-based log/progress reporting through a Sink.
package walk
