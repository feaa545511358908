//go:build linux

package timerslack

import (
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSetAndGet(t *testing.T) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		runtime.LockOSThread()
		if !assert.NoError(t, Set(10*time.Microsecond)) {
			return
		}
		slack, err := Get()
		assert.NoError(t, err)
		assert.Equal(t, 10*time.Microsecond, slack)
	}()
	<-done
}

func TestSetRejectsNonPositive(t *testing.T) {
	assert.Error(t, Set(0))
}
