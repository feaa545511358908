// Package cannon provides a simplified, integer rate interface to a ratecontroller.RateController, where every event
// has a weight of 1.
package cannon

import (
	"github.com/eventcannon/eventcannon/ratecontroller"
)

// Cannon fires events at an integer rate per second.
//
// This type is concurrency safe.
type Cannon struct {
	controller ratecontroller.RateController
}

// New starts and returns a paused Cannon that invokes eventFunc with the last achieved rate, truncated to an int, and the
// number of spin iterations performed while waiting for the event.
func New(eventFunc func(rate int, spun int64)) *Cannon {
	return NewWithBuilder(ratecontroller.NewBuilder(), eventFunc)
}

// NewSimple starts and returns a paused Cannon that invokes eventFunc with the last achieved rate, truncated to an int.
func NewSimple(eventFunc func(rate int)) *Cannon {
	return New(func(rate int, _ int64) {
		eventFunc(rate)
	})
}

// NewWithBuilder starts and returns a paused Cannon whose controller is built by the builder.
func NewWithBuilder(builder ratecontroller.Builder, eventFunc func(rate int, spun int64)) *Cannon {
	return &Cannon{
		controller: builder.Build(func(lastAchievedRate float64, lastSpun int64) float64 {
			eventFunc(int(lastAchievedRate), lastSpun)
			return 1
		}),
	}
}

// EventsPerSecond returns the target rate.
func (c *Cannon) EventsPerSecond() int {
	return int(c.controller.TargetRate())
}

// SetEventsPerSecond sets the target rate. A rate <= 0 pauses the Cannon.
func (c *Cannon) SetEventsPerSecond(rate int) {
	c.controller.SetTargetRate(float64(rate))
}

// LastRatePerSecond returns the last achieved rate, truncated to an int.
func (c *Cannon) LastRatePerSecond() int {
	return int(c.controller.LastAchievedRate())
}

// Dispose stops the Cannon. See ratecontroller.RateController.Dispose.
func (c *Cannon) Dispose() {
	c.controller.Dispose()
}

// Done returns a channel that is closed once the Cannon has stopped.
func (c *Cannon) Done() <-chan struct{} {
	return c.controller.Done()
}
