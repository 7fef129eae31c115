package domain

import "fmt"

type Status string

const (
	// This element is created but not allowed to run yet.
	Waiting Status = "waiting"

	// All prerequisites of this element are satisfied and
	// all required children exist. It can be dispatched.
	Ready Status = "ready"

	// This element has been dispatched (leaf) or is processing
	// children (composite). A queue entry monitors it.
	Running Status = "running"

	// All work is done but a manual sign-off is required before
	// the element counts as accepted.
	Reviewable Status = "reviewable"

	// This element finished successfully.
	Accepted Status = "accepted"

	// This element was turned down by a reviewer or cancelled.
	Rejected Status = "rejected"

	// This element stopped with error.
	Failed Status = "failed"

	// Orthogonal hold. Progress is blocked; the pre-pause status is
	// kept aside and restored on resume.
	Paused Status = "paused"
)

func (s Status) String() string {
	return string(s)
}

func AsStatus(s string) (Status, error) {
	switch s {
	case string(Waiting):
		return Waiting, nil
	case string(Ready):
		return Ready, nil
	case string(Running):
		return Running, nil
	case string(Reviewable):
		return Reviewable, nil
	case string(Accepted):
		return Accepted, nil
	case string(Rejected):
		return Rejected, nil
	case string(Failed):
		return Failed, nil
	case string(Paused):
		return Paused, nil
	default:
		return "", fmt.Errorf("'%s' is not Status", s)
	}
}

// Terminal statuses end the current attempt. Failed and rejected
// elements can still be retried, which starts a new attempt.
func (s Status) Terminal() bool {
	switch s {
	case Accepted, Rejected, Failed:
		return true
	default:
		return false
	}
}

// Processing statuses keep a queue entry alive.
func (s Status) Processing() bool {
	switch s {
	case Ready, Running:
		return true
	default:
		return false
	}
}

// Retryable reports whether a new attempt may supersede an element
// in this status.
func (s Status) Retryable() bool {
	return s == Failed || s == Rejected
}

// statuses which may be held by Pause.
func (s Status) Pausable() bool {
	switch s {
	case Waiting, Ready, Running:
		return true
	default:
		return false
	}
}

// CanTransition reports whether from -> to is a legal move of the
// per-element state machine. Pause/resume moves are included since
// paused stores its source status aside.
func CanTransition(from, to Status) bool {
	if from == to {
		return false
	}
	switch from {
	case Waiting:
		return to == Ready || to == Paused
	case Ready:
		return to == Running || to == Paused
	case Running:
		return to == Reviewable || to == Accepted || to == Rejected ||
			to == Failed || to == Paused
	case Reviewable:
		return to == Accepted || to == Rejected
	case Paused:
		return to.Pausable()
	default:
		// accepted, rejected, failed: terminal for this attempt.
		return false
	}
}

var ErrInvalidStatusChanging = fmt.Errorf("cannot change element status")

func NewErrInvalidStatusChanging(from, to Status) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidStatusChanging, from, to)
}
