// Package affinity pins the calling OS thread to a logical CPU. Platform-specific implementations live in
// affinity_linux.go and affinity_other.go.
package affinity

import (
	"errors"
	"fmt"
)

// ErrUnsupported is returned on platforms without thread affinity support.
var ErrUnsupported = errors.New("affinity: not supported on this platform")

// Pin pins the calling OS thread to the cpu. Callers should hold the thread via runtime.LockOSThread first, otherwise
// the goroutine may migrate off the pinned thread.
func Pin(cpu int) error {
	if cpu < 0 {
		return fmt.Errorf("affinity: invalid cpu %d", cpu)
	}
	return pin(cpu)
}
