// Package main wires together the site walker service binary.
package main
