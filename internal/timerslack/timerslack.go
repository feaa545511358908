// Package timerslack adjusts how much the OS may delay timer expirations for the calling thread, which bounds how far
// short sleeps overshoot.
package timerslack

import (
	"errors"
	"time"
)

// ErrUnsupported is returned on platforms without adjustable timer slack.
var ErrUnsupported = errors.New("timerslack: not supported on this platform")

// Set sets the timer slack of the calling thread. Callers should hold the thread via runtime.LockOSThread.
func Set(slack time.Duration) error {
	return set(slack)
}

// Get returns the timer slack of the calling thread.
func Get() (time.Duration, error) {
	return get()
}
