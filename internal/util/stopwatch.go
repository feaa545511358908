package util

import "time"

// Stopwatch reports monotonic ticks elapsed since it was created. A tick is one nanosecond.
type Stopwatch interface {
	ElapsedTime() time.Duration
}

type stopwatch struct {
	startTime time.Time
}

// NewStopwatch returns a Stopwatch backed by the runtime's monotonic clock.
func NewStopwatch() Stopwatch {
	return &stopwatch{startTime: time.Now()}
}

func (s *stopwatch) ElapsedTime() time.Duration {
	return time.Since(s.startTime)
}

// TicksPerSecond is the number of Stopwatch ticks in one second.
const TicksPerSecond = float64(time.Second)
