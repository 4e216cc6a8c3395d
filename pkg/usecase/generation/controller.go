package generation

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/flashfusion/forge/pkg/model"
	"github.com/flashfusion/forge/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

var (
	// ErrCancelled is returned when a generation is cancelled or superseded
	ErrCancelled = goerr.New("generation cancelled")

	errSuperseded = goerr.New("superseded by a newer generation")
	errCancelCall = goerr.New("cancelled by caller")
)

// IsCancelled reports whether err is a cancellation rather than a failure
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}

type State string

const (
	StateIdle       State = "idle"
	StateGenerating State = "generating"
	StateCompleted  State = "completed"
	// StateCancelled marks a run stopped by Cancel, Reset, a newer Generate
	// or the parent context. Cancellation never ends in StateFailed, which is
	// reserved for generator errors.
	StateCancelled State = "cancelled"
	StateFailed    State = "failed"
)

// Step is one reported stage of a generation
type Step struct {
	Label    string
	Progress int
}

// DefaultSteps are the stages reported while a generation runs
var DefaultSteps = []Step{
	{Label: "Analyzing prompt", Progress: 15},
	{Label: "Planning structure", Progress: 35},
	{Label: "Generating content", Progress: 60},
	{Label: "Assembling files", Progress: 85},
	{Label: "Finalizing", Progress: 100},
}

// Status is a point-in-time view of the controller
type Status struct {
	State    State
	Progress int
	Step     string
	Result   *model.GenerationRecord
	Err      error
}

// Generator produces the content of a generation
type Generator interface {
	Generate(ctx context.Context, cfg model.GenerationConfig) (*model.GenerationOutput, error)
}

// Controller drives one generation at a time. Starting a new generation
// cancels the one in flight instead of queueing behind it.
type Controller struct {
	generator Generator
	steps     []Step
	stepDelay time.Duration
	now       func() time.Time
	hook      func(Status)

	mu     sync.Mutex
	run    uint64
	cancel context.CancelCauseFunc
	status Status
}

// ControllerOption is a functional option for Controller
type ControllerOption func(*Controller)

// WithSteps overrides the reported stages. Progress values must increase.
func WithSteps(steps []Step) ControllerOption {
	return func(c *Controller) {
		c.steps = steps
	}
}

// WithStepDelay sets the pause between stages
func WithStepDelay(d time.Duration) ControllerOption {
	return func(c *Controller) {
		c.stepDelay = d
	}
}

// WithProgressHook registers a callback invoked on every state or progress
// change of the current run. It is called without the controller lock held.
func WithProgressHook(hook func(Status)) ControllerOption {
	return func(c *Controller) {
		c.hook = hook
	}
}

// WithClock overrides the time source used for record timestamps
func WithClock(now func() time.Time) ControllerOption {
	return func(c *Controller) {
		c.now = now
	}
}

// NewController creates an idle controller
func NewController(generator Generator, opts ...ControllerOption) *Controller {
	c := &Controller{
		generator: generator,
		steps:     DefaultSteps,
		stepDelay: 400 * time.Millisecond,
		now:       time.Now,
		status:    Status{State: StateIdle},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot returns the current status
func (c *Controller) Snapshot() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Cancel stops the generation in flight, if any
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel(errCancelCall)
	}
}

// Reset cancels any generation in flight and returns to idle
func (c *Controller) Reset() {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel(errCancelCall)
		c.cancel = nil
	}
	c.run++
	c.status = Status{State: StateIdle}
	status := c.status
	c.mu.Unlock()

	c.notify(status)
}

// Generate runs a generation to completion and returns its record. A
// cancelled or superseded run returns an error matching ErrCancelled.
func (c *Controller) Generate(ctx context.Context, cfg model.GenerationConfig) (*model.GenerationRecord, error) {
	runCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	c.mu.Lock()
	if c.cancel != nil {
		c.cancel(errSuperseded)
	}
	c.run++
	run := c.run
	c.cancel = cancel
	c.status = Status{State: StateGenerating}
	c.mu.Unlock()
	c.notify(Status{State: StateGenerating})

	logger := logging.From(ctx).With("type", cfg.Type, "run", run)
	logger.Debug("generation started")

	for _, step := range c.steps {
		if err := c.wait(runCtx); err != nil {
			return nil, c.fail(run, err)
		}
		c.update(run, func(s *Status) {
			s.Progress = step.Progress
			s.Step = step.Label
		})
	}

	out, err := c.generator.Generate(runCtx, cfg)
	if err == nil && runCtx.Err() != nil {
		err = runCtx.Err()
	}
	if err != nil {
		if runCtx.Err() != nil {
			err = context.Cause(runCtx)
		}
		return nil, c.fail(run, err)
	}
	if out == nil {
		return nil, c.fail(run, goerr.New("generator returned no output", goerr.V("type", cfg.Type)))
	}

	rec := &model.GenerationRecord{
		ID:          model.NewGenerationID(),
		Type:        cfg.Type,
		Title:       out.Title,
		Description: out.Description,
		Files:       out.Files,
		Preview:     out.Preview,
		Timestamp:   c.now(),
		Model:       cfg.Model,
		Prompt:      cfg.Prompt,
	}

	if !c.finish(run, Status{State: StateCompleted, Progress: 100, Step: "Completed", Result: rec}) {
		logger.Debug("generation superseded after completion", "id", rec.ID)
		return nil, goerr.Wrap(ErrCancelled, errSuperseded.Error())
	}
	logger.Info("generation completed", "id", rec.ID)
	return rec, nil
}

// wait pauses between steps and returns the cancellation cause if the run is
// cancelled meanwhile
func (c *Controller) wait(ctx context.Context) error {
	if c.stepDelay <= 0 {
		select {
		case <-ctx.Done():
			return context.Cause(ctx)
		default:
			return nil
		}
	}

	timer := time.NewTimer(c.stepDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return context.Cause(ctx)
	case <-timer.C:
		return nil
	}
}

// fail classifies err and records the terminal state of run
func (c *Controller) fail(run uint64, err error) error {
	if errors.Is(err, errSuperseded) || errors.Is(err, errCancelCall) ||
		errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		wrapped := goerr.Wrap(ErrCancelled, err.Error())
		c.finish(run, Status{State: StateCancelled, Err: wrapped})
		return wrapped
	}

	wrapped := goerr.Wrap(err, "generation failed")
	c.finish(run, Status{State: StateFailed, Err: wrapped})
	return wrapped
}

// finish sets a terminal status and reports whether run was still current
func (c *Controller) finish(run uint64, status Status) bool {
	c.mu.Lock()
	if run != c.run {
		c.mu.Unlock()
		return false
	}
	if status.Progress == 0 {
		status.Progress = c.status.Progress
		status.Step = c.status.Step
	}
	c.status = status
	c.cancel = nil
	c.mu.Unlock()

	c.notify(status)
	return true
}

func (c *Controller) update(run uint64, fn func(*Status)) {
	c.mu.Lock()
	if run != c.run {
		c.mu.Unlock()
		return
	}
	fn(&c.status)
	status := c.status
	c.mu.Unlock()

	c.notify(status)
}

func (c *Controller) notify(status Status) {
	if c.hook != nil {
		c.hook(status)
	}
}
