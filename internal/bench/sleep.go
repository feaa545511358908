package bench

import (
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/eventcannon/eventcannon/calibration"
	"github.com/eventcannon/eventcannon/hybridwait"
	"github.com/eventcannon/eventcannon/internal/util"
)

// DefaultSleepDurations are the waits measured by the sleep command.
var DefaultSleepDurations = []time.Duration{
	0,
	time.Microsecond,
	5 * time.Microsecond,
	10 * time.Microsecond,
	50 * time.Microsecond,
	100 * time.Microsecond,
	500 * time.Microsecond,
	time.Millisecond,
	5 * time.Millisecond,
	10 * time.Millisecond,
	50 * time.Millisecond,
	100 * time.Millisecond,
}

// SleepResult summarizes repeated waits for a target duration.
type SleepResult struct {
	Target time.Duration
	Mean   time.Duration
	Min    time.Duration
	Median time.Duration
	Max    time.Duration
	Spun   int64
}

// RelativeError returns how far the mean wait was from the target, relative to the target.
func (r SleepResult) RelativeError() float64 {
	if r.Target == 0 {
		return 0
	}
	return float64(r.Mean-r.Target) / float64(r.Target)
}

// NewSleepCommand creates the sleep command.
func NewSleepCommand(rootOpts *RootOptions) *cobra.Command {
	var repetitions int
	cmd := &cobra.Command{
		Use:   "sleep",
		Short: "Measure hybrid wait precision",
		Long: `Performs repeated hybrid waits for durations from 0 to 100ms and prints
the mean, relative error, min, median, and max of the actual wait times.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if repetitions < 1 {
				return fmt.Errorf("invalid repetitions %d: must be at least 1", repetitions)
			}

			// Waits run on a single locked thread so that timer slack and affinity apply to them
			runtime.LockOSThread()
			defer runtime.UnlockOSThread()
			prepareThread(rootOpts)

			waiter := hybridwait.New(calibration.Get(), rootOpts.Config.SpinTimeDivisor)
			results := MeasureSleeps(waiter, DefaultSleepDurations, repetitions)
			PrintSleepResults(cmd.OutOrStdout(), results)
			return nil
		},
	}
	cmd.Flags().IntVarP(&repetitions, "repetitions", "r", 25, "waits per duration")
	return cmd
}

// MeasureSleeps performs repetitions waits of each duration.
func MeasureSleeps(waiter *hybridwait.Waiter, durations []time.Duration, repetitions int) []SleepResult {
	results := make([]SleepResult, 0, len(durations))
	digest := util.NewDigest()
	for _, d := range durations {
		digest.Reset()
		var spun int64
		for i := 0; i < repetitions; i++ {
			start := time.Now()
			spun += waiter.Wait(d)
			digest.Add(float64(time.Since(start)))
		}
		results = append(results, SleepResult{
			Target: d,
			Mean:   time.Duration(digest.Mean()),
			Min:    time.Duration(digest.Min),
			Median: time.Duration(digest.Median()),
			Max:    time.Duration(digest.Max),
			Spun:   spun,
		})
	}
	return results
}

func PrintSleepResults(w io.Writer, results []SleepResult) {
	fmt.Fprintln(w, "TargetMicros MeanMicros Diff/Target MinMicros MedianMicros MaxMicros Spun")
	for _, r := range results {
		fmt.Fprintf(w, "%d %.1f %.4f %.1f %.1f %.1f %d\n",
			r.Target.Microseconds(),
			micros(r.Mean),
			r.RelativeError(),
			micros(r.Min),
			micros(r.Median),
			micros(r.Max),
			r.Spun)
	}
}

func micros(d time.Duration) float64 {
	return float64(d) / float64(time.Microsecond)
}
