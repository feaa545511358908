package cannon

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventcannon/eventcannon/internal/testutil"
	"github.com/eventcannon/eventcannon/ratecontroller"
)

func TestCannon(t *testing.T) {
	var events atomic.Int64
	var lastRate atomic.Int64
	c := New(func(rate int, spun int64) {
		events.Add(1)
		lastRate.Store(int64(rate))
	})
	defer c.Dispose()

	assert.Equal(t, 0, c.EventsPerSecond())
	c.SetEventsPerSecond(2000)
	assert.Equal(t, 2000, c.EventsPerSecond())

	require.True(t, testutil.WaitFor(2*time.Second, 10*time.Millisecond, func() bool {
		rate := c.LastRatePerSecond()
		return rate > 1900 && rate < 2100
	}))
	assert.Greater(t, events.Load(), int64(100))
	assert.Greater(t, lastRate.Load(), int64(0))
}

func TestCannonPause(t *testing.T) {
	var events atomic.Int64
	c := NewSimple(func(rate int) {
		events.Add(1)
	})
	defer c.Dispose()

	c.SetEventsPerSecond(500)
	require.True(t, testutil.WaitFor(time.Second, time.Millisecond, func() bool {
		return events.Load() > 10
	}))

	c.SetEventsPerSecond(0)
	require.True(t, testutil.WaitFor(time.Second, time.Millisecond, func() bool {
		return c.LastRatePerSecond() == 0
	}))
	time.Sleep(20 * time.Millisecond)
	before := events.Load()
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, before, events.Load())
}

func TestCannonWithBuilder(t *testing.T) {
	var measured atomic.Bool
	builder := ratecontroller.NewBuilder().
		WithCheckWindow(10 * time.Millisecond).
		OnRateMeasured(func(ratecontroller.RateMeasuredEvent) {
			measured.Store(true)
		})
	c := NewWithBuilder(builder, func(int, int64) {})
	c.SetEventsPerSecond(1000)

	assert.True(t, testutil.WaitFor(time.Second, time.Millisecond, measured.Load))
	c.Dispose()
	c.Dispose()
	select {
	case <-c.Done():
	case <-time.After(time.Second):
		assert.Fail(t, "Expected cannon to stop")
	}
}
