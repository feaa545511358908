package ratecontroller

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/eventcannon/eventcannon/calibration"
	"github.com/eventcannon/eventcannon/hybridwait"
	"github.com/eventcannon/eventcannon/internal/util"
)

const (
	DefaultSmoothingFactor = 0.7
	DefaultCheckWindow     = 50 * time.Millisecond
	DefaultIdleSleep       = time.Millisecond
)

// EventFunc is invoked once per paced event with the most recently measured achieved rate, and the number of spin
// iterations performed while waiting for this event. It returns the weight the event contributes to the achieved rate,
// which is normally 1.
//
// EventFuncs run on the controller's thread and should return quickly, since time spent in them limits the achievable
// rate.
type EventFunc func(lastAchievedRate float64, lastSpun int64) float64

/*
RateController invokes an EventFunc at a target rate of events per second, as precisely as possible.

Each RateController owns a dedicated goroutine, locked to its own OS thread, which fires events and waits between them
using a hybridwait.Waiter. The delay between events is continuously corrected by comparing the achieved rate against the
target rate over a checking window, so that callback overhead and wait inaccuracy are compensated for.

A target rate <= 0 pauses the controller. Target rates beyond what the machine can sustain degrade to firing events
continuously, and the shortfall is visible via LastAchievedRate.

This type is concurrency safe.
*/
type RateController interface {
	// SetTargetRate sets the target rate in events per second. A rate <= 0 pauses the controller. The change takes effect
	// once the delay before the next event, which was computed for the previous target, has elapsed.
	SetTargetRate(rate float64)

	// TargetRate returns the last target rate that was set, which may not have been acted on yet.
	TargetRate() float64

	// LastAchievedRate returns the most recently measured rate, in weighted events per second. Returns 0 while paused,
	// and after a target change until the first checking window under the new target completes.
	LastAchievedRate() float64

	// Dispose stops the controller. No events fire once the controller's goroutine observes the disposal, which Done can
	// be used to await. Dispose does not block and may be called any number of times.
	Dispose()

	// IsDisposed returns whether Dispose has been called.
	IsDisposed() bool

	// Done returns a channel that is closed once the controller's goroutine has exited.
	Done() <-chan struct{}
}

// RateMeasuredEvent indicates a RateController has measured its achieved rate and adjusted its delay.
type RateMeasuredEvent struct {
	TargetRate   float64
	AchievedRate float64
	// Elapsed is the length of the checking window that was measured.
	Elapsed time.Duration
	// Events is the number of events fired during the checking window.
	Events int
	// OldDelay and NewDelay are the delays between events before and after the adjustment.
	OldDelay time.Duration
	NewDelay time.Duration
}

// Config contains the tunables of a RateController. Zero values are ignored in favor of defaults.
type Config struct {
	// SmoothingFactor controls convergence speed vs noise damping. Must be in (0, 1].
	SmoothingFactor float64 `yaml:"smoothingFactor"`
	// CheckWindowMs controls how often, in milliseconds, the achieved rate is measured.
	CheckWindowMs int `yaml:"checkWindowMs"`
	// SpinTimeDivisor controls spin burst granularity vs accuracy.
	SpinTimeDivisor float64 `yaml:"spinTimeDivisor"`
}

/*
Builder builds RateController instances.

This type is not concurrency safe.
*/
type Builder interface {
	// WithSmoothingFactor configures how strongly each measurement moves the delay toward the delay that would have produced
	// the target rate. Larger values converge faster, smaller values damp noise. Values outside (0, 1] are ignored.
	// The default value is 0.7.
	WithSmoothingFactor(smoothingFactor float64) Builder

	// WithCheckWindow configures how often the achieved rate is measured and the delay corrected.
	// The default value is 50ms.
	WithCheckWindow(checkWindow time.Duration) Builder

	// WithSpinTimeDivisor configures the spin burst granularity of waits. See hybridwait.DefaultSpinTimeDivisor.
	// The default value is 20.
	WithSpinTimeDivisor(spinTimeDivisor float64) Builder

	// WithIdleSleep configures how long the controller sleeps between checks of the target rate while paused.
	// The default value is 1ms.
	WithIdleSleep(idleSleep time.Duration) Builder

	// WithConfig applies the non-zero values of the config.
	WithConfig(config Config) Builder

	// WithCalibration configures the calibration constants used for waits, instead of the process-wide calibration.Get.
	WithCalibration(constants calibration.Constants) Builder

	// WithCPUAffinity pins the controller's thread to the cpu, on platforms that support it. Pinning failures are logged
	// and otherwise ignored.
	WithCPUAffinity(cpu int) Builder

	// WithLogger configures a logger which provides debug logging of target changes and delay adjustments.
	WithLogger(logger *slog.Logger) Builder

	// OnRateMeasured registers the listener to be called, from the controller's goroutine, each time the achieved rate is
	// measured.
	OnRateMeasured(listener func(event RateMeasuredEvent)) Builder

	// Build starts and returns a new RateController that invokes the eventFunc. The controller starts paused.
	Build(eventFunc EventFunc) RateController
}

type config struct {
	logger          *slog.Logger
	smoothingFactor float64
	checkWindow     time.Duration
	spinTimeDivisor float64
	idleSleep       time.Duration
	constants       *calibration.Constants
	cpu             int
	onRateMeasured  func(RateMeasuredEvent)
}

var _ Builder = &config{}

// NewBuilder returns a new Builder with default values.
func NewBuilder() Builder {
	return &config{
		smoothingFactor: DefaultSmoothingFactor,
		checkWindow:     DefaultCheckWindow,
		spinTimeDivisor: hybridwait.DefaultSpinTimeDivisor,
		idleSleep:       DefaultIdleSleep,
		cpu:             -1,
	}
}

// New starts and returns a new RateController with default configuration.
func New(eventFunc EventFunc) RateController {
	return NewBuilder().Build(eventFunc)
}

func (c *config) WithSmoothingFactor(smoothingFactor float64) Builder {
	if smoothingFactor > 0 && smoothingFactor <= 1 {
		c.smoothingFactor = smoothingFactor
	}
	return c
}

func (c *config) WithCheckWindow(checkWindow time.Duration) Builder {
	if checkWindow > 0 {
		c.checkWindow = checkWindow
	}
	return c
}

func (c *config) WithSpinTimeDivisor(spinTimeDivisor float64) Builder {
	if spinTimeDivisor > 0 {
		c.spinTimeDivisor = spinTimeDivisor
	}
	return c
}

func (c *config) WithIdleSleep(idleSleep time.Duration) Builder {
	if idleSleep > 0 {
		c.idleSleep = idleSleep
	}
	return c
}

func (c *config) WithConfig(config Config) Builder {
	c.WithSmoothingFactor(config.SmoothingFactor)
	c.WithCheckWindow(time.Duration(config.CheckWindowMs) * time.Millisecond)
	c.WithSpinTimeDivisor(config.SpinTimeDivisor)
	return c
}

func (c *config) WithCalibration(constants calibration.Constants) Builder {
	c.constants = &constants
	return c
}

func (c *config) WithCPUAffinity(cpu int) Builder {
	c.cpu = cpu
	return c
}

func (c *config) WithLogger(logger *slog.Logger) Builder {
	c.logger = logger
	return c
}

func (c *config) OnRateMeasured(listener func(event RateMeasuredEvent)) Builder {
	c.onRateMeasured = listener
	return c
}

func (c *config) Build(eventFunc EventFunc) RateController {
	// Copy the config so the builder can be reused
	cfg := *c
	if cfg.logger != nil {
		cfg.logger = cfg.logger.With("controller", uuid.NewString())
	}

	// Calibration completes before the controller's goroutine starts, so the first wait never pays for it
	constants := calibration.Get
	if cfg.constants != nil {
		constants = func() calibration.Constants { return *cfg.constants }
	}

	rc := &controller{
		config:    &cfg,
		eventFunc: eventFunc,
		waiter:    hybridwait.New(constants(), cfg.spinTimeDivisor),
		stopwatch: util.NewStopwatch(),
		state:     newControlState(cfg.smoothingFactor, cfg.checkWindow),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	go rc.run()
	return rc
}
