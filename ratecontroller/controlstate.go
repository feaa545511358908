package ratecontroller

import (
	"math"
	"time"

	"github.com/eventcannon/eventcannon/internal/util"
)

// Fixed point units per tick for accumulating the fractional part of the delay.
const remainderScale = 1_000_000_000

// Caps the delay so that it always fits in a time.Duration.
const maxDelay = float64(math.MaxInt64 / 2)

// Floors the elapsed seconds of a checking window so that achieved rates stay finite.
const minElapsedSeconds = 1e-6

// controlState tracks the delay between events and the statistics of the current checking window. The delay is
// corrected at the end of each window by comparing the achieved rate against the target rate.
//
// This type is not concurrency safe, and is confined to the controller's goroutine.
type controlState struct {
	smoothingFactor float64
	checkWindow     time.Duration

	// The target the state is configured for, or 0 while paused
	target float64

	// The delay between events in ticks. Since the delay is generally fractional, it is applied as whole ticks plus a
	// remainder that accumulates across events, adding a tick whenever it reaches a whole tick.
	delay            float64
	delayTicks       time.Duration
	delayRemainder   int64
	remainderCounter int64

	// The current checking window, which starts at the first event after a retarget, and then at each recalibration
	started       bool
	intervalStart time.Duration
	lastEvent     time.Duration
	weightSum     float64
	events        int

	// Estimates from previous windows, used to seed the delay for a new target
	avgWeight float64 // Average weight of an event
	overhead  float64 // Ticks per event spent outside of waits
	measured  bool    // Whether overhead has been measured
}

func newControlState(smoothingFactor float64, checkWindow time.Duration) *controlState {
	return &controlState{
		smoothingFactor: smoothingFactor,
		checkWindow:     checkWindow,
		avgWeight:       1,
	}
}

// retarget configures the state for a new target at the current time, discarding the current window. The delay is seeded
// so that the period between events, including the measured overhead of each event, matches the target. Before any
// overhead is measured, this is simply ticksPerSecond / target.
func (s *controlState) retarget(target float64, now time.Duration) {
	// Learn from a partial window under a previous target
	if s.target > 0 && s.events > 0 {
		s.measure(s.lastEvent - s.intervalStart)
	}

	s.target = target
	s.setDelay(util.TicksPerSecond*s.avgWeight/target - s.overhead)
	s.resetInterval(now)
	s.started = false
}

// pause discards the current window. The next positive target will be treated as a target change.
func (s *controlState) pause() {
	s.target = 0
	s.started = false
	s.weightSum = 0
	s.events = 0
}

// record records an event with the weight at now. The first event after a retarget starts the window instead of being
// counted, so that a window always spans whole periods between events.
func (s *controlState) record(weight float64, now time.Duration) {
	if !s.started {
		s.started = true
		s.resetInterval(now)
		return
	}
	s.weightSum += weight
	s.events++
	s.lastEvent = now
}

// due returns whether the checking window has elapsed as of now.
func (s *controlState) due(now time.Duration) bool {
	return s.started && now-s.intervalStart >= s.checkWindow
}

// recalibrate measures the achieved rate over the current window, corrects the delay, and starts a new window at now.
func (s *controlState) recalibrate(now time.Duration) RateMeasuredEvent {
	elapsed := now - s.intervalStart
	achieved := s.weightSum / max(elapsed.Seconds(), minElapsedSeconds)
	event := RateMeasuredEvent{
		TargetRate:   s.target,
		AchievedRate: achieved,
		Elapsed:      elapsed,
		Events:       s.events,
		OldDelay:     time.Duration(s.delay),
	}

	if s.events > 0 {
		s.measure(elapsed)
	}

	// The delay that would have produced the target rate, had the achieved rate scaled with it. A zero delay can never
	// scale back up, so it's treated as a single tick.
	targetDelay := max(s.delay, 1) * (achieved / s.target)
	s.setDelay(util.Smooth(s.delay, targetDelay, s.smoothingFactor))
	s.resetInterval(now)

	event.NewDelay = time.Duration(s.delay)
	return event
}

// measure updates the average event weight and per-event overhead from a window containing at least one event.
func (s *controlState) measure(elapsed time.Duration) {
	s.avgWeight = s.weightSum / float64(s.events)
	overhead := max(float64(elapsed)/float64(s.events)-s.delay, 0)
	if s.measured {
		overhead = util.Smooth(s.overhead, overhead, s.smoothingFactor)
	}
	s.overhead = overhead
	s.measured = true
}

// nextWait returns the wait before the next event, including a whole tick of accumulated remainder when available.
func (s *controlState) nextWait() time.Duration {
	wait := s.delayTicks
	s.remainderCounter += s.delayRemainder
	if s.remainderCounter >= remainderScale {
		wait++
		s.remainderCounter -= remainderScale
	}
	return wait
}

func (s *controlState) setDelay(delay float64) {
	if !(delay > 0) {
		delay = 0
	}
	delay = min(delay, maxDelay)
	whole := math.Floor(delay)
	s.delay = delay
	s.delayTicks = time.Duration(whole)
	s.delayRemainder = int64((delay - whole) * remainderScale)
	s.remainderCounter = 0
}

func (s *controlState) resetInterval(now time.Duration) {
	s.intervalStart = now
	s.lastEvent = now
	s.weightSum = 0
	s.events = 0
}
