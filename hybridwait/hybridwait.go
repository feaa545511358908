/*
Package hybridwait blocks for precise durations by combining a coarse OS sleep with a calibrated busy-spin.

OS sleeps are cheap but coarse, often overshooting by a millisecond or more, while spinning is precise but burns a CPU.
A Waiter sleeps for the bulk of a wait, deliberately stopping short by two sleep resolutions, then spins out the remainder
against a monotonic deadline in bursts sized from calibration.Constants.
*/
package hybridwait

import (
	"math"
	"sync"
	"time"

	"github.com/eventcannon/eventcannon/calibration"
	"github.com/eventcannon/eventcannon/internal/util"
)

// DefaultSpinTimeDivisor splits the remaining wait into bursts of roughly 1/20th each. Smaller divisors use fewer, larger
// spin bursts, at the cost of larger overshoot when the spin cost drifts from its calibrated value.
const DefaultSpinTimeDivisor = 20

// Waiter performs hybrid sleep/spin waits. Durations are measured in ticks, which are nanoseconds.
//
// This type is concurrency safe.
type Waiter struct {
	constants       calibration.Constants
	spinTimeDivisor float64
	stopwatch       util.Stopwatch

	// Performs the coarse sleep, returning whether the signal fired.
	sleep func(d time.Duration, signal <-chan struct{}) bool
}

// New returns a Waiter for the constants and spinTimeDivisor. A spinTimeDivisor <= 0 uses DefaultSpinTimeDivisor.
func New(constants calibration.Constants, spinTimeDivisor float64) *Waiter {
	if spinTimeDivisor <= 0 {
		spinTimeDivisor = DefaultSpinTimeDivisor
	}
	return &Waiter{
		constants:       constants,
		spinTimeDivisor: spinTimeDivisor,
		stopwatch:       util.NewStopwatch(),
		sleep:           sleepOS,
	}
}

var (
	defaultOnce   sync.Once
	defaultWaiter *Waiter
)

// Default returns a shared Waiter for the process-wide calibration.Get constants, calibrating if needed.
func Default() *Waiter {
	defaultOnce.Do(func() {
		defaultWaiter = New(calibration.Get(), DefaultSpinTimeDivisor)
	})
	return defaultWaiter
}

// Sleep waits for d using the Default Waiter, returning the number of spin iterations performed.
func Sleep(d time.Duration) int64 {
	return Default().Wait(d)
}

// WaitSignal waits for d or until the signal fires using the Default Waiter, returning whether the signal fired.
func WaitSignal(signal <-chan struct{}, d time.Duration) bool {
	_, signaled := Default().WaitWithSignal(d, signal)
	return signaled
}

// Constants returns the calibration constants the Waiter was created with.
func (w *Waiter) Constants() calibration.Constants {
	return w.constants
}

// Wait blocks for at least d and returns the number of spin iterations performed.
func (w *Waiter) Wait(d time.Duration) int64 {
	spun, _ := w.WaitWithSignal(d, nil)
	return spun
}

// WaitWithSignal blocks for at least d, or returns early if signal fires during the coarse sleep phase. Returns the
// number of spin iterations performed, and whether signal had fired by the time the wait completed. A nil signal never
// fires.
//
// A value sent on signal is received by the wait that observes it, so signal should either be closed, or owned by the
// caller such that a consumed value needs no replay.
//
// Durations of less than two sleep resolutions are spun entirely, with no OS sleep.
func (w *Waiter) WaitWithSignal(d time.Duration, signal <-chan struct{}) (spun int64, signaled bool) {
	if d > 0 {
		deadline := w.stopwatch.ElapsedTime() + d
		coarseMillis := int(d / time.Millisecond)
		if reserve := 2 * w.constants.SleepResolution; coarseMillis >= reserve {
			if w.sleep(time.Duration(coarseMillis-reserve)*time.Millisecond, signal) {
				return 0, true
			}
		}

		for remaining := deadline - w.stopwatch.ElapsedTime(); remaining > 0; remaining = deadline - w.stopwatch.ElapsedTime() {
			iterations := max(int64(math.Round(w.constants.SpinsPerTick*float64(remaining)/w.spinTimeDivisor)), 1)
			calibration.Spin(int(iterations))
			spun += iterations
		}
	}
	return spun, poll(signal)
}

func sleepOS(d time.Duration, signal <-chan struct{}) bool {
	if d <= 0 {
		return poll(signal)
	}
	if signal == nil {
		time.Sleep(d)
		return false
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return false
	case <-signal:
		return true
	}
}

// poll reports whether signal has fired without blocking, receiving a pending value if there is one.
func poll(signal <-chan struct{}) bool {
	if signal == nil {
		return false
	}
	select {
	case <-signal:
		return true
	default:
		return false
	}
}
