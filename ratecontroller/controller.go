package ratecontroller

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/eventcannon/eventcannon/hybridwait"
	"github.com/eventcannon/eventcannon/internal/affinity"
	"github.com/eventcannon/eventcannon/internal/util"
)

type controller struct {
	*config
	eventFunc EventFunc
	waiter    *hybridwait.Waiter
	stopwatch util.Stopwatch

	// Shared with callers
	targetRate       util.AtomicFloat64
	lastAchievedRate util.AtomicFloat64
	disposed         atomic.Bool
	stop             chan struct{} // Closed on Dispose, interrupting waits
	done             chan struct{}

	// Confined to the run goroutine
	state *controlState
}

func (c *controller) SetTargetRate(rate float64) {
	c.targetRate.Store(rate)
}

func (c *controller) TargetRate() float64 {
	return c.targetRate.Load()
}

func (c *controller) LastAchievedRate() float64 {
	return c.lastAchievedRate.Load()
}

func (c *controller) Dispose() {
	if c.disposed.CompareAndSwap(false, true) {
		close(c.stop)
	}
}

func (c *controller) IsDisposed() bool {
	return c.disposed.Load()
}

func (c *controller) Done() <-chan struct{} {
	return c.done
}

func (c *controller) run() {
	defer close(c.done)
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	if c.cpu >= 0 {
		if err := affinity.Pin(c.cpu); err != nil && c.logger != nil {
			c.logger.Warn("failed to pin controller thread", "cpu", c.cpu, "error", err)
		}
	}

	var lastSpun int64
	for !c.disposed.Load() {
		target := c.targetRate.Load()

		// Negative and NaN targets pause, the same as 0
		if !(target > 0) {
			if c.state.target != 0 {
				c.state.pause()
				c.lastAchievedRate.Store(0)
				c.logDebug("paused")
			}
			lastSpun = 0
			c.idle()
			continue
		}

		if target != c.state.target {
			oldTarget := c.state.target
			c.state.retarget(target, c.stopwatch.ElapsedTime())
			c.lastAchievedRate.Store(0)
			c.logRetarget(oldTarget, target)
		}

		weight := c.eventFunc(c.lastAchievedRate.Load(), lastSpun)
		now := c.stopwatch.ElapsedTime()
		c.state.record(weight, now)
		if c.state.due(now) {
			event := c.state.recalibrate(now)
			c.lastAchievedRate.Store(event.AchievedRate)
			c.logRateMeasured(event)
			if c.onRateMeasured != nil {
				c.onRateMeasured(event)
			}
		}

		lastSpun, _ = c.waiter.WaitWithSignal(c.state.nextWait(), c.stop)
	}
	c.logDebug("stopped")
}

// idle sleeps while paused, waking early if disposed.
func (c *controller) idle() {
	timer := time.NewTimer(c.idleSleep)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-c.stop:
	}
}

func (c *controller) logDebug(msg string, args ...any) {
	if c.logger != nil && c.logger.Enabled(context.Background(), slog.LevelDebug) {
		c.logger.Debug(msg, args...)
	}
}

func (c *controller) logRetarget(oldTarget, newTarget float64) {
	c.logDebug("target changed",
		"oldTarget", fmt.Sprintf("%.2f", oldTarget),
		"newTarget", fmt.Sprintf("%.2f", newTarget),
		"delay", time.Duration(c.state.delay),
		"overhead", time.Duration(math.Round(c.state.overhead)))
}

func (c *controller) logRateMeasured(event RateMeasuredEvent) {
	c.logDebug("rate update",
		"target", fmt.Sprintf("%.2f", event.TargetRate),
		"achieved", fmt.Sprintf("%.2f", event.AchievedRate),
		"events", event.Events,
		"elapsed", event.Elapsed,
		"oldDelay", event.OldDelay,
		"newDelay", event.NewDelay)
}
