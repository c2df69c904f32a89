// Package api exposes the HTTP interface for the walker service: the two
// demo pages, the WebSocket event channel, and REST run triggers.
package api
