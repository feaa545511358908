package bench

import (
	"github.com/eventcannon/eventcannon/internal/affinity"
	"github.com/eventcannon/eventcannon/internal/timerslack"
)

// prepareThread applies the configured timer slack and CPU affinity to the calling thread, which must be locked.
// Failures are logged, since they only affect precision.
func prepareThread(opts *RootOptions) {
	if opts.TimerSlack > 0 {
		if err := timerslack.Set(opts.TimerSlack); err != nil {
			opts.Logger.Warn("failed to set timer slack", "error", err)
		} else {
			opts.Logger.Debug("set timer slack", "slack", opts.TimerSlack)
		}
	}
	if opts.CPU >= 0 {
		if err := affinity.Pin(opts.CPU); err != nil {
			opts.Logger.Warn("failed to pin thread", "cpu", opts.CPU, "error", err)
		}
	}
}
