//go:build linux

package affinity

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPin(t *testing.T) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		runtime.LockOSThread()
		// The thread is discarded when the goroutine exits without unlocking, so the pin doesn't leak
		cpus, err := Current()
		if !assert.NoError(t, err) || !assert.NotEmpty(t, cpus) {
			return
		}

		target := cpus[len(cpus)-1]
		if !assert.NoError(t, Pin(target)) {
			return
		}

		pinned, err := Current()
		assert.NoError(t, err)
		assert.Equal(t, []int{target}, pinned)
	}()
	<-done
}

func TestPinInvalidCPU(t *testing.T) {
	assert.Error(t, Pin(-1))
}
