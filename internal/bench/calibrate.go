package bench

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/eventcannon/eventcannon/calibration"
)

// NewCalibrateCommand creates the calibrate command.
func NewCalibrateCommand(rootOpts *RootOptions) *cobra.Command {
	var runs int
	cmd := &cobra.Command{
		Use:   "calibrate",
		Short: "Measure and print calibration constants",
		Long: `Measures the spin cost and OS sleep resolution of this machine.

With --runs greater than 1, independent measurements are taken to show how
repeatable calibration is.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if runs < 1 {
				return fmt.Errorf("invalid runs %d: must be at least 1", runs)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Run SpinsPerTick NanosPerSpin SleepResolutionMs Elapsed")
			for i := 1; i <= runs; i++ {
				start := time.Now()
				c := calibration.Measure(calibration.DefaultOptions())
				elapsed := time.Since(start)
				rootOpts.Logger.Debug("calibrated", "run", i, "spinsPerTick", c.SpinsPerTick, "sleepResolution", c.SleepResolution)
				fmt.Fprintf(out, "%d %.4f %.4f %d %v\n", i, c.SpinsPerTick, c.TicksPerSpin(), c.SleepResolution, elapsed.Round(time.Millisecond))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&runs, "runs", "n", 1, "number of independent measurements")
	return cmd
}
