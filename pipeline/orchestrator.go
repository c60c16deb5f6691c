package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// DefaultMaxRetries is the number of retries the orchestrator grants a
// step after its first attempt, so a step gets up to three tries total.
const DefaultMaxRetries = 2

// stepBackoff is the linear backoff unit: the sleep before retry number
// attempt is attempt * stepBackoff.
const stepBackoff = 200 * time.Millisecond

// Orchestrator sequences a State through its RemainingSteps using a
// handler registry keyed by step name. It never runs two steps of the
// same pipeline concurrently; concurrency, where it exists, lives inside
// individual handlers (see the embedding handler).
type Orchestrator struct {
	handlers   map[string]Handler
	maxRetries int
	logger     *slog.Logger
}

// NewOrchestrator builds an Orchestrator from a set of handlers,
// registered by their StepName. Passing two handlers with the same
// StepName is a programming error and panics rather than silently
// overwriting the first registration.
func NewOrchestrator(logger *slog.Logger, handlers ...Handler) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	registry := make(map[string]Handler, len(handlers))
	for _, h := range handlers {
		name := h.StepName()
		if _, exists := registry[name]; exists {
			panic(fmt.Sprintf("pipeline: duplicate handler registered for step %q", name))
		}
		registry[name] = h
	}
	return &Orchestrator{
		handlers:   registry,
		maxRetries: DefaultMaxRetries,
		logger:     logger,
	}
}

// WithMaxRetries overrides DefaultMaxRetries and returns the receiver
// for chaining.
func (o *Orchestrator) WithMaxRetries(n int) *Orchestrator {
	o.maxRetries = n
	return o
}

// Run drives state through RemainingSteps to completion, or until a step
// exhausts its retries, a FatalError is returned, or ctx is cancelled.
// On success it sets Complete and UploadComplete and returns the final
// state with a nil error.
func (o *Orchestrator) Run(ctx context.Context, state *State) (*State, error) {
	start := time.Now()
	for len(state.RemainingSteps) > 0 {
		if err := ctx.Err(); err != nil {
			state.AppendLog("orchestrator", fmt.Sprintf("cancelled before step %q", state.RemainingSteps[0]))
			return state, err
		}

		stepName := state.RemainingSteps[0]
		handler, ok := o.handlers[stepName]
		if !ok {
			err := fmt.Errorf("no handler registered for step %q", stepName)
			state.AppendLog("orchestrator", err.Error())
			return state, &PipelineStepFailed{StepName: stepName, Outcome: FatalError, Err: err}
		}

		var err error
		state, err = o.runStep(ctx, handler, stepName, state)
		if err != nil {
			return state, err
		}
	}

	state.Complete = true
	state.UploadComplete = true
	state.Touch()
	state.AppendLog("orchestrator", fmt.Sprintf("pipeline complete in %s", time.Since(start)))
	return state, nil
}

// runStep drives one step through its retry loop and returns the state
// once the step succeeds or the orchestrator gives up on it.
func (o *Orchestrator) runStep(ctx context.Context, handler Handler, stepName string, state *State) (*State, error) {
	attempt := 0
	for {
		attempt++
		stepStart := time.Now()
		outcome, next, err := handler.Invoke(ctx, state)
		if next != nil {
			state = next
		}
		elapsed := time.Since(stepStart)

		if err == nil && outcome == Success {
			state.completeStep(stepName)
			state.AppendLog("orchestrator", fmt.Sprintf("step %q succeeded on attempt %d in %s", stepName, attempt, elapsed))
			return state, nil
		}

		// Cancellation is never a retriable transient error.
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			state.AppendLog("orchestrator", fmt.Sprintf("step %q cancelled on attempt %d", stepName, attempt))
			return state, err
		}

		if outcome == FatalError {
			state.AppendLog("orchestrator", fmt.Sprintf("step %q failed fatally on attempt %d: %v", stepName, attempt, err))
			return state, &PipelineStepFailed{StepName: stepName, Outcome: outcome, Err: err}
		}

		// TransientError, or a raised error with a non-fatal outcome:
		// retry up to maxRetries.
		if attempt <= o.maxRetries {
			state.AppendLog("orchestrator", fmt.Sprintf("step %q attempt %d failed, retrying: %v", stepName, attempt, err))
			o.logger.WarnContext(ctx, "pipeline step retrying", "step", stepName, "attempt", attempt, "error", err)
			if waitErr := sleepBackoff(ctx, attempt); waitErr != nil {
				state.AppendLog("orchestrator", fmt.Sprintf("step %q retry wait cancelled", stepName))
				return state, waitErr
			}
			continue
		}

		state.AppendLog("orchestrator", fmt.Sprintf("step %q exhausted retries after attempt %d: %v", stepName, attempt, err))
		return state, &PipelineStepFailed{StepName: stepName, Outcome: outcome, Err: err}
	}
}

// sleepBackoff sleeps attempt*stepBackoff, returning early with ctx's
// error if the context is cancelled during the wait.
func sleepBackoff(ctx context.Context, attempt int) error {
	timer := time.NewTimer(time.Duration(attempt) * stepBackoff)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
