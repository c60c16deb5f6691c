package pipeline

import "context"

// Outcome is the three-way result a Handler reports to the orchestrator.
type Outcome int

const (
	// Success means the step made full progress; the orchestrator
	// advances to the next step.
	Success Outcome = iota
	// TransientError means the step failed for a recoverable reason
	// (network glitch, 5xx from a dependency) and is safe to retry.
	TransientError
	// FatalError means the step hit an unrecoverable condition; retrying
	// will not help and the orchestrator stops the run.
	FatalError
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "Success"
	case TransientError:
		return "TransientError"
	case FatalError:
		return "FatalError"
	default:
		return "Unknown"
	}
}

// Handler is one step of an ingestion pipeline. Implementations must be
// retry-safe: invoking the same step twice against the same input state
// must produce an equivalent output state, since the orchestrator may
// call Invoke more than once for a single logical step on TransientError.
// A Handler may append artifacts and Context entries but must never
// remove ones a prior invocation produced.
type Handler interface {
	StepName() string
	Invoke(ctx context.Context, state *State) (Outcome, *State, error)
}
