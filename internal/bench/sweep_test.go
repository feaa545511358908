package bench

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventcannon/eventcannon/ratecontroller"
)

func TestDefaultSweepRates(t *testing.T) {
	assert.Equal(t, []float64{1000, 5000, 10_000, 50_000, 100_000, 500_000}, DefaultSweepRates())
}

func TestSweepRate(t *testing.T) {
	opts := SweepOptions{
		Duration:    500 * time.Millisecond,
		Controllers: 2,
		Config:      ratecontroller.Config{CheckWindowMs: 20},
		CPU:         -1,
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	rcs := newSweepControllers(opts)
	defer disposeAll(rcs)

	result, err := sweepRate(context.Background(), rcs, opts, 2000)
	require.NoError(t, err)

	assert.Equal(t, 2000.0, result.Target)
	assert.Positive(t, result.Samples)
	assert.InEpsilon(t, 4000, result.TotalMean, .25)
	assert.LessOrEqual(t, result.Min, result.Median)
	assert.LessOrEqual(t, result.Median, result.Max)
	for _, rc := range rcs {
		assert.Zero(t, rc.TargetRate(), "controllers are paused after each rate")
	}
}

func TestSweepRateCanceled(t *testing.T) {
	opts := SweepOptions{
		Duration:    time.Minute,
		Controllers: 1,
		CPU:         -1,
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	rcs := newSweepControllers(opts)
	defer disposeAll(rcs)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := sweepRate(ctx, rcs, opts, 1000)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestSweepResultRelativeError(t *testing.T) {
	r := SweepResult{Target: 1000, TotalMean: 1900}
	assert.InDelta(t, -.05, r.RelativeError(2), 1e-9)
	assert.Zero(t, SweepResult{}.RelativeError(1))
}

func TestSweepCommand(t *testing.T) {
	if testing.Short() {
		t.Skip("sweeps all rates")
	}

	out, err := execute(t, "sweep", "--duration", "200ms")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, len(DefaultSweepRates())+1)
	assert.True(t, strings.HasPrefix(lines[0], "Target TotalMean"))
	assert.True(t, strings.HasPrefix(lines[1], "1000 "))
}

func TestSweepCommandRejectsInvalidFlags(t *testing.T) {
	_, err := execute(t, "sweep", "--duration", "0s")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid duration")

	_, err = execute(t, "sweep", "--controllers", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid controllers")
}
