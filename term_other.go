//go:build !linux
// +build !linux

package main

// Colour output is only enabled where the termios probe is available.
func isTerminal(fd uintptr) bool {
	return false
}
