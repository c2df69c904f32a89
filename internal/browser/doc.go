// Package browser wraps Chrome automation behind a small Driver interface so
// the walk runner stays independent of chromedp.
package browser
