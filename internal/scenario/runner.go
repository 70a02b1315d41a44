package scenario

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ErrUnexpectedState is returned by Run when the script's expectation is not met
var ErrUnexpectedState = errors.New("unexpected final state")

// StepResult is the state the machine settled in after one step
type StepResult struct {
	Event string
	State LoaderState
}

// Result describes a finished run
type Result struct {
	Steps []StepResult
	Final LoaderState
}

// Runner feeds scripts into a loader machine
type Runner struct {
	timeout time.Duration
	logger  *zap.Logger
}

// NewRunner creates a runner giving every event at most timeout to be handled
func NewRunner(timeout time.Duration, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{timeout: timeout, logger: logger}
}

// Run processes every event of script in order. It stops at the first event
// that could not be handed to the machine.
func (r *Runner) Run(ctx context.Context, m *LoaderMachine, script *Script) (*Result, error) {
	result := &Result{Steps: make([]StepResult, 0, len(script.Events))}

	for i, step := range script.Events {
		event, err := step.LoaderEvent()
		if err != nil {
			return result, fmt.Errorf("event %d: %w", i+1, err)
		}

		state, err := r.process(ctx, m, event)
		if err != nil {
			return result, fmt.Errorf("event %d (%s): %w", i+1, event.Name(), err)
		}

		r.logger.Debug("step done",
			zap.Int("step", i+1),
			zap.String("event", event.Name()),
			zap.String("state", state.Name()),
		)
		result.Steps = append(result.Steps, StepResult{Event: event.Name(), State: state})
	}

	result.Final = m.CurrentStateSnapshot()

	if script.Expect != "" && script.Expect != result.Final.Name() {
		return result, fmt.Errorf("%w: got %s, expected %s", ErrUnexpectedState, result.Final.Name(), script.Expect)
	}
	return result, nil
}

func (r *Runner) process(ctx context.Context, m *LoaderMachine, event LoaderEvent) (LoaderState, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	return m.Process(ctx, event)
}
