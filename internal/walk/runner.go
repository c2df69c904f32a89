package walk

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wmsyafiq/Script-Playwright-Demo/internal/browser"
	"github.com/wmsyafiq/Script-Playwright-Demo/internal/clock"
	"github.com/wmsyafiq/Script-Playwright-Demo/internal/clock/system"
	"github.com/wmsyafiq/Script-Playwright-Demo/internal/metrics"
)

// ErrRunActive is returned by Start when a walk is already in flight.
var ErrRunActive = errors.New("a run is already active")

// Config controls runner pacing and the special typing action. All delays are
// UX pacing only; tests run with zero values.
type Config struct {
	// StepDelay is the pause between observation ticks.
	StepDelay time.Duration
	// LogDelayUnit scales the per-line delays attached to log emissions; the
	// stock pacing uses a 100ms unit.
	LogDelayUnit time.Duration
	// ObserveTicks is the length of the inner observation loop per step.
	ObserveTicks int
	// TypeMarker designates the special step by URL substring.
	TypeMarker string
	// TypeSelector locates the element the special action types into.
	TypeSelector string
	// TypeText is what gets typed, never submitted.
	TypeText string
	// TypePacing is the per-keystroke delay of the special action.
	TypePacing time.Duration
}

// Result classifies how a run ended.
type Result string

// Run outcomes.
const (
	ResultCompleted Result = "completed"
	ResultCancelled Result = "cancelled"
	ResultFailed    Result = "failed"
)

// Runner executes the step sequence on a background goroutine. At most one
// run is active at a time; Start enforces this with an atomic register.
type Runner struct {
	steps  []Step
	driver browser.Driver
	sink   Sink
	signal *Signal
	clk    clock.Clock
	logger *zap.Logger
	cfg    Config

	running atomic.Bool
	mu      sync.Mutex
	runID   string
}

// New constructs a Runner. A nil clock falls back to the system clock and a
// nil logger to a nop logger.
func New(steps []Step, driver browser.Driver, sink Sink, clk clock.Clock, cfg Config, logger *zap.Logger) *Runner {
	if clk == nil {
		clk = system.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ObserveTicks <= 0 {
		cfg.ObserveTicks = 3
	}
	if cfg.TypeMarker == "" {
		cfg.TypeMarker = "google.com"
	}
	if cfg.TypeSelector == "" {
		cfg.TypeSelector = "textarea[name='q']"
	}
	if cfg.TypeText == "" {
		cfg.TypeText = "this is just a test"
	}
	return &Runner{
		steps:  steps,
		driver: driver,
		sink:   sink,
		signal: NewSignal(),
		clk:    clk,
		logger: logger,
		cfg:    cfg,
	}
}

// Start spawns a run on a background goroutine and returns its ID without
// waiting for completion. A second start while one is active returns
// ErrRunActive.
func (r *Runner) Start(ctx context.Context) (string, error) {
	if !r.running.CompareAndSwap(false, true) {
		return "", ErrRunActive
	}
	runID := uuid.NewString()
	r.setRunID(runID)
	r.signal.Clear()
	r.sink.Status(true)
	go r.run(ctx, runID)
	return runID, nil
}

// Cancel requests cooperative cancellation. The run honors it at its next
// checkpoint; there is no preemption.
func (r *Runner) Cancel() {
	r.signal.Set()
}

// Running reports whether a run is active.
func (r *Runner) Running() bool {
	return r.running.Load()
}

// RunID returns the active run's ID, or "" when idle.
func (r *Runner) RunID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runID
}

func (r *Runner) setRunID(id string) {
	r.mu.Lock()
	r.runID = id
	r.mu.Unlock()
}

func (r *Runner) run(ctx context.Context, runID string) {
	logger := r.logger.With(zap.String("run_id", runID))
	metrics.RunStarted()
	metrics.IncActiveRuns()
	start := r.clk.Now()

	res := ResultCompleted
	defer func() {
		// Terminal broadcast happens once the run truly stops, not when a
		// cancel request arrives.
		r.sink.Status(false)
		r.setRunID("")
		r.running.Store(false)
		metrics.DecActiveRuns()
		metrics.RunFinished(string(res))
		logger.Info("run finished",
			zap.String("result", string(res)),
			zap.Duration("dur", r.clk.Now().Sub(start)),
		)
	}()

	logger.Info("run started", zap.Int("steps", len(r.steps)))

	for _, line := range bootLines {
		r.sink.Log(ctx, line, r.pace(2.5))
		if r.signal.IsSet() {
			r.sink.Log(ctx, "[CANCEL] User aborted before the browser started.", r.pace(2))
			r.progress(0)
			r.signal.Clear()
			res = ResultCancelled
			return
		}
	}

	res = r.walk(ctx, logger)
	if res != ResultCompleted {
		return
	}
	for _, line := range outroLines {
		r.sink.Log(ctx, line, r.pace(2))
	}
}

// walk launches the browser, visits every safe step, and always closes the
// browser before reporting the terminal state.
func (r *Runner) walk(ctx context.Context, logger *zap.Logger) Result {
	steps := FilterSteps(r.steps)
	total := len(steps)

	r.sink.Log(ctx, "[BROWSER] Launching visible Chrome window...", r.pace(5))
	if err := r.driver.Start(ctx); err != nil {
		logger.Error("browser launch failed", zap.Error(err))
		r.sink.Log(ctx, fmt.Sprintf("[ERROR] Browser launch failed: %v", err), r.pace(2))
		return r.finish(ctx, ResultFailed)
	}

	cancelled := false
	var runErr error

steps:
	for i, step := range steps {
		n := i + 1
		if r.signal.IsSet() {
			r.sink.Log(ctx, "[CANCEL] Run aborted by user before visiting next site.", r.pace(2))
			cancelled = true
			break
		}

		stepStart := (n - 1) * 100 / total
		stepEnd := n * 100 / total

		r.sink.Log(ctx, fmt.Sprintf("[STEP %d] Visiting %s ...", n, step.Name), r.pace(2))
		if err := r.driver.Navigate(ctx, step.URL); err != nil {
			logger.Error("navigation failed", zap.String("url", step.URL), zap.Error(err))
			r.sink.Log(ctx, fmt.Sprintf("[ERROR] Navigation to %s failed: %v", step.URL, err), r.pace(2))
			runErr = err
			break
		}
		metrics.StepVisited(step.URL)
		r.sink.Log(ctx, fmt.Sprintf("[OPENED] %s", step.URL), r.pace(1))
		r.progress(clampInt(stepEnd-5, stepStart, 95))

		if strings.Contains(step.URL, r.cfg.TypeMarker) && !r.signal.IsSet() {
			r.typeAction(ctx, logger)
		}

		for t := 0; t < r.cfg.ObserveTicks; t++ {
			if r.signal.IsSet() {
				r.sink.Log(ctx, "[CANCEL] Stopping midway...", r.pace(2))
				cancelled = true
				break steps
			}
			r.sink.Log(ctx, fmt.Sprintf("[WAIT] Observing content... %d/%d", t+1, r.cfg.ObserveTicks), 0)
			r.progress(stepStart + (stepEnd-stepStart)*(t+1)/r.cfg.ObserveTicks)
			if err := r.clk.Sleep(ctx, r.cfg.StepDelay); err != nil {
				cancelled = true
				break steps
			}
		}
	}

	r.sink.Log(ctx, "[CLEANUP] Closing browser window...", r.pace(3))
	if err := r.driver.Close(ctx); err != nil {
		logger.Warn("browser close failed", zap.Error(err))
	}

	switch {
	case cancelled || r.signal.IsSet():
		return r.finish(ctx, ResultCancelled)
	case runErr != nil:
		return r.finish(ctx, ResultFailed)
	default:
		r.progress(100)
		r.sink.Log(ctx, "[DONE] Demo sequence completed.", r.pace(2))
		return ResultCompleted
	}
}

// finish handles the non-completed terminal states: log, progress reset, flag
// clear.
func (r *Runner) finish(ctx context.Context, res Result) Result {
	switch res {
	case ResultCancelled:
		r.sink.Log(ctx, "[SYS] Browser run cancelled.", r.pace(2))
	case ResultFailed:
		r.sink.Log(ctx, "[SYS] Run aborted after an automation error.", r.pace(2))
	}
	r.progress(0)
	r.signal.Clear()
	return res
}

// typeAction performs the designated typing sub-action. Failures are logged
// and the run continues.
func (r *Runner) typeAction(ctx context.Context, logger *zap.Logger) {
	r.sink.Log(ctx, "[ACTION] Typing into the Google search bar...", r.pace(1))
	if err := r.driver.Type(ctx, r.cfg.TypeSelector, r.cfg.TypeText, r.cfg.TypePacing); err != nil {
		logger.Warn("typing action failed", zap.Error(err))
		r.sink.Log(ctx, fmt.Sprintf("[ERROR] Google typing failed: %v", err), 0)
		return
	}
	r.sink.Log(ctx, "[DONE] Typed text without submitting.", r.pace(2))
}

func (r *Runner) progress(percent int) {
	r.sink.Progress(float64(percent))
	metrics.SetRunProgress(percent)
}

// pace scales a delay multiple of the configured log delay unit.
func (r *Runner) pace(mult float64) time.Duration {
	return time.Duration(float64(r.cfg.LogDelayUnit) * mult)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

var bootLines = []string{
	"[INFO] Initializing site walker...",
	"[BOOT] Loading environment variables...",
	"[SYS] Connection established.",
	"[OK] Starting browser page demo...",
}

var outroLines = []string{
	"[SYS] Performing cleanup...",
	"[OK] Demo sequence complete.",
	"[EXIT] All systems normal. Goodbye.",
}
