/*
Package calibration measures how this machine spins and sleeps, so that waits can be converted between ticks, busy-spin
iterations, and OS sleep requests without any hardware specific knowledge.

Measurement takes on the order of a few hundred milliseconds, so it is performed once per process via Get and the result
is immutable afterwards. Measure can be used to take a fresh, independent measurement.
*/
package calibration

import (
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/eventcannon/eventcannon/internal/util"
)

// Constants describe the spin and sleep characteristics of the current machine.
type Constants struct {
	// SpinsPerTick is the number of Spin iterations that complete in one tick.
	SpinsPerTick float64

	// SleepResolution is the typical latency, in whole milliseconds, of the smallest possible OS sleep request. It is the
	// assumed worst case overshoot of any OS sleep. Always at least 1.
	SleepResolution int
}

// TicksPerSpin returns the ticks consumed by a single Spin iteration.
func (c Constants) TicksPerSpin() float64 {
	return 1 / c.SpinsPerTick
}

// Options control how many samples are taken by Measure.
type Options struct {
	// SpinTrials is the number of timed Spin calls.
	SpinTrials int

	// SpinIterations is the number of iterations performed by each timed Spin call.
	SpinIterations int

	// SleepTrials is the number of timed minimal sleeps.
	SleepTrials int
}

// DefaultOptions returns the Options used by Get.
func DefaultOptions() Options {
	return Options{
		SpinTrials:     100_000,
		SpinIterations: 100,
		SleepTrials:    100,
	}
}

var (
	once      sync.Once
	constants Constants
)

// Get returns the process-wide Constants, measuring them with DefaultOptions on the first call. Concurrent first callers
// block until the measurement completes.
func Get() Constants {
	once.Do(func() {
		constants = Measure(DefaultOptions())
	})
	return constants
}

// Init eagerly performs the process-wide measurement so that the first Get does not pay for it.
func Init() {
	Get()
}

// Measure takes a fresh measurement of the spin cost and sleep resolution.
func Measure(opts Options) Constants {
	defaults := DefaultOptions()
	if opts.SpinTrials <= 0 {
		opts.SpinTrials = defaults.SpinTrials
	}
	if opts.SpinIterations <= 0 {
		opts.SpinIterations = defaults.SpinIterations
	}
	if opts.SleepTrials <= 0 {
		opts.SleepTrials = defaults.SleepTrials
	}

	return Constants{
		SpinsPerTick:    measureSpinsPerTick(opts.SpinTrials, opts.SpinIterations),
		SleepResolution: measureSleepResolution(opts.SleepTrials),
	}
}

func measureSpinsPerTick(trials int, iterations int) float64 {
	stopwatch := util.NewStopwatch()
	elapsed := make([]time.Duration, trials)
	for i := range elapsed {
		start := stopwatch.ElapsedTime()
		Spin(iterations)
		elapsed[i] = stopwatch.ElapsedTime() - start
	}
	median := max(util.Median(elapsed), 1)
	return float64(iterations) / float64(median)
}

func measureSleepResolution(trials int) int {
	stopwatch := util.NewStopwatch()
	millis := make([]int, trials)
	for i := range millis {
		start := stopwatch.ElapsedTime()
		time.Sleep(time.Nanosecond)
		elapsed := stopwatch.ElapsedTime() - start
		millis[i] = int(math.Ceil(float64(elapsed) / float64(time.Millisecond)))
	}
	return max(util.Median(millis), 1)
}

var spinSink atomic.Uint64

// Spin busy-spins for the given number of iterations without yielding the thread. Each iteration performs a fixed,
// dependent unit of arithmetic so the loop can't be elided.
func Spin(iterations int) {
	x := spinSink.Load()
	for i := 0; i < iterations; i++ {
		x = x*6364136223846793005 + 1442695040888963407
	}
	spinSink.Store(x)
}
