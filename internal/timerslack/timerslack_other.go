//go:build !linux

package timerslack

import "time"

func set(time.Duration) error {
	return ErrUnsupported
}

func get() (time.Duration, error) {
	return 0, ErrUnsupported
}
