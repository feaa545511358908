package testutil

import (
	"sync/atomic"
	"time"

	"github.com/eventcannon/eventcannon/internal/util"
)

// EventRecorder is an event callback that records its invocations and returns a fixed weight.
//
// This type is concurrency safe.
type EventRecorder struct {
	Weight float64

	events           atomic.Int64
	spun             atomic.Int64
	lastAchievedRate util.AtomicFloat64
}

func NewEventRecorder(weight float64) *EventRecorder {
	return &EventRecorder{Weight: weight}
}

// Record is the event callback.
func (r *EventRecorder) Record(lastAchievedRate float64, lastSpun int64) float64 {
	r.events.Add(1)
	r.spun.Add(lastSpun)
	r.lastAchievedRate.Store(lastAchievedRate)
	return r.Weight
}

func (r *EventRecorder) Events() int64 {
	return r.events.Load()
}

func (r *EventRecorder) Spun() int64 {
	return r.spun.Load()
}

// LastAchievedRate returns the achieved rate passed to the most recent event.
func (r *EventRecorder) LastAchievedRate() float64 {
	return r.lastAchievedRate.Load()
}

// CountOver returns the number of events recorded while fn runs, along with how long fn took.
func (r *EventRecorder) CountOver(fn func()) (int64, time.Duration) {
	before := r.Events()
	elapsed := Timed(fn)
	return r.Events() - before, elapsed
}
