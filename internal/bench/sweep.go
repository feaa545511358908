package bench

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/eventcannon/eventcannon/internal/timerslack"
	"github.com/eventcannon/eventcannon/internal/util"
	"github.com/eventcannon/eventcannon/ratecontroller"
)

// DefaultSweepRates returns the target rates measured by the sweep command: 1k, 5k, 10k, 50k, 100k and 500k events per
// second.
func DefaultSweepRates() []float64 {
	var rates []float64
	for i := 3; i < 6; i++ {
		for _, j := range []float64{1, 5} {
			rates = append(rates, math.Pow10(i)*j)
		}
	}
	return rates
}

// SweepOptions configures a sweep.
type SweepOptions struct {
	Rates       []float64
	Duration    time.Duration
	Controllers int
	Config      ratecontroller.Config
	TimerSlack  time.Duration
	CPU         int
	Logger      *slog.Logger
}

// SweepResult summarizes the rates achieved by all controllers for one target rate.
type SweepResult struct {
	Target float64
	// TotalMean is the mean achieved rate summed across controllers.
	TotalMean float64
	Min       float64
	Median    float64
	Max       float64
	Samples   uint
	Spun      int64
}

// RelativeError returns how far the total achieved rate was from the total target rate, relative to the total target.
func (r SweepResult) RelativeError(controllers int) float64 {
	total := r.Target * float64(controllers)
	if total == 0 {
		return 0
	}
	return (r.TotalMean - total) / total
}

// NewSweepCommand creates the sweep command.
func NewSweepCommand(rootOpts *RootOptions) *cobra.Command {
	var duration time.Duration
	var controllers int
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Measure rate controller accuracy across target rates",
		Long: `Runs one or more rate controllers at target rates from 1k to 500k events per
second, sampling their achieved rates each checking window. The first round
is a warm-up and is not reported.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if duration <= 0 {
				return fmt.Errorf("invalid duration %v: must be positive", duration)
			}
			if controllers < 1 {
				return fmt.Errorf("invalid controllers %d: must be at least 1", controllers)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			opts := SweepOptions{
				Rates:       DefaultSweepRates(),
				Duration:    duration,
				Controllers: controllers,
				Config:      rootOpts.Config,
				TimerSlack:  rootOpts.TimerSlack,
				CPU:         rootOpts.CPU,
				Logger:      rootOpts.Logger,
			}
			rcs := newSweepControllers(opts)
			defer disposeAll(rcs)

			// Warm up
			if _, err := sweepRate(ctx, rcs, opts, opts.Rates[0]); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printSweepHeader(out)
			for _, rate := range opts.Rates {
				result, err := sweepRate(ctx, rcs, opts, rate)
				if err != nil {
					return err
				}
				printSweepResult(out, result, controllers)
			}
			return nil
		},
	}
	cmd.Flags().DurationVarP(&duration, "duration", "d", 2*time.Second, "how long to run each target rate")
	cmd.Flags().IntVarP(&controllers, "controllers", "n", 1, "number of concurrent rate controllers")
	return cmd
}

type sweepController struct {
	ratecontroller.RateController
	spun atomic.Int64
}

func newSweepControllers(opts SweepOptions) []*sweepController {
	rcs := make([]*sweepController, opts.Controllers)
	for i := range rcs {
		sc := &sweepController{}
		var slackOnce sync.Once
		sc.RateController = ratecontroller.NewBuilder().
			WithConfig(opts.Config).
			WithLogger(opts.Logger).
			WithCPUAffinity(opts.CPU).
			Build(func(_ float64, lastSpun int64) float64 {
				// Events fire on the controller's locked thread, so slack is applied there
				slackOnce.Do(func() {
					if opts.TimerSlack > 0 {
						if err := timerslack.Set(opts.TimerSlack); err != nil {
							opts.Logger.Warn("failed to set timer slack", "error", err)
						}
					}
				})
				sc.spun.Add(lastSpun)
				return 1
			})
		rcs[i] = sc
	}
	return rcs
}

func disposeAll(rcs []*sweepController) {
	for _, rc := range rcs {
		rc.Dispose()
	}
	for _, rc := range rcs {
		<-rc.Done()
	}
}

// sweepRate runs the controllers at the rate for the sweep duration, sampling each controller's achieved rate once per
// checking window.
func sweepRate(ctx context.Context, rcs []*sweepController, opts SweepOptions, rate float64) (SweepResult, error) {
	checkWindow := ratecontroller.DefaultCheckWindow
	if opts.Config.CheckWindowMs > 0 {
		checkWindow = time.Duration(opts.Config.CheckWindowMs) * time.Millisecond
	}

	for _, rc := range rcs {
		rc.spun.Store(0)
		rc.SetTargetRate(rate)
	}
	defer func() {
		for _, rc := range rcs {
			rc.SetTargetRate(0)
		}
	}()

	samples := make([][]float64, len(rcs))
	g, ctx := errgroup.WithContext(ctx)
	for i, rc := range rcs {
		i, rc := i, rc
		g.Go(func() error {
			ticker := time.NewTicker(checkWindow)
			defer ticker.Stop()
			deadline := time.NewTimer(opts.Duration)
			defer deadline.Stop()
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-deadline.C:
					return nil
				case <-ticker.C:
					// No measurement has completed yet under this target
					if achieved := rc.LastAchievedRate(); achieved > 0 {
						samples[i] = append(samples[i], achieved)
					}
				}
			}
		})
	}
	if err := g.Wait(); err != nil {
		return SweepResult{}, err
	}

	digest := util.NewDigest()
	result := SweepResult{Target: rate}
	for i, rc := range rcs {
		for _, s := range samples[i] {
			digest.Add(s)
		}
		result.Spun += rc.spun.Load()
	}
	if digest.Size > 0 {
		result.TotalMean = digest.Mean() * float64(len(rcs))
		result.Min = digest.Min
		result.Median = digest.Median()
		result.Max = digest.Max
	}
	result.Samples = digest.Size
	return result, nil
}

func printSweepHeader(w io.Writer) {
	fmt.Fprintln(w, "Target TotalMean Diff/Target Min Median Max Spun")
}

func printSweepResult(w io.Writer, r SweepResult, controllers int) {
	fmt.Fprintf(w, "%.0f %.1f %.4f %.1f %.1f %.1f %d\n",
		r.Target,
		r.TotalMean,
		r.RelativeError(controllers),
		r.Min,
		r.Median,
		r.Max,
		r.Spun)
}
