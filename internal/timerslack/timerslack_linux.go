//go:build linux

package timerslack

import (
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

func set(slack time.Duration) error {
	if slack <= 0 {
		return fmt.Errorf("timerslack: slack must be positive, got %v", slack)
	}
	if err := unix.Prctl(unix.PR_SET_TIMERSLACK, uintptr(slack.Nanoseconds()), 0, 0, 0); err != nil {
		return fmt.Errorf("timerslack: prctl(PR_SET_TIMERSLACK, %v): %w", slack, err)
	}
	return nil
}

func get() (time.Duration, error) {
	slack, err := unix.PrctlRetInt(unix.PR_GET_TIMERSLACK, 0, 0, 0, 0)
	if err != nil {
		return 0, fmt.Errorf("timerslack: prctl(PR_GET_TIMERSLACK): %w", err)
	}
	return time.Duration(slack), nil
}
