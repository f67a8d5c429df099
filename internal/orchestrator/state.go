package orchestrator

import (
	"time"

	"mimino/internal/domain"
)

// Phase enumerates the lifecycle of one user-initiated operation.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseSubmitting
	PhaseAwaitingRemote
	PhaseSucceeded
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseSubmitting:
		return "submitting"
	case PhaseAwaitingRemote:
		return "awaiting_remote"
	case PhaseSucceeded:
		return "succeeded"
	case PhaseFailed:
		return "failed"
	default:
		return "idle"
	}
}

// OperationState is the UI-visible state of a surface. At most one operation
// runs per surface at a time; a surface holds at most one live outcome, and a
// new submission discards the previous one.
type OperationState struct {
	Phase   Phase
	Since   time.Time
	Outcome *domain.GenerationOutcome
	Err     error
}

// InFlight reports whether a submission must be rejected at the gate.
func (s OperationState) InFlight() bool {
	return s.Phase == PhaseSubmitting || s.Phase == PhaseAwaitingRemote
}
