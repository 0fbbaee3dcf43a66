package timer

import (
	"errors"
	"fmt"
)

// MaxConsecutiveErrors is the number of failures after which the engine
// stops itself.
const MaxConsecutiveErrors = 3

var (
	// ErrListenerPanic wraps a panic raised inside a callback.
	ErrListenerPanic = errors.New("listener panicked")
	// ErrLoopPanic wraps a panic raised inside a countdown iteration.
	ErrLoopPanic = errors.New("countdown iteration panicked")
	// ErrCollaboratorPanic wraps a panic raised by a sound or notification collaborator.
	ErrCollaboratorPanic = errors.New("collaborator panicked")
)

// FailureKind classifies a recovered failure.
type FailureKind int

const (
	FailureListener FailureKind = iota
	FailureLoop
	FailureCollaborator
)

func (kind FailureKind) String() string {
	switch kind {
	case FailureListener:
		return "listener"
	case FailureLoop:
		return "loop"
	case FailureCollaborator:
		return "collaborator"
	default:
		return "unknown"
	}
}

// Outcome is how a failure was resolved.
type Outcome int

const (
	// OutcomeRecovered means the failure was logged and the engine carried on.
	OutcomeRecovered Outcome = iota
	// OutcomeForcedStop means the error budget was spent and the engine stopped.
	OutcomeForcedStop
)

type failure struct {
	kind FailureKind
	op   string
	err  error
}

func (f failure) Error() string {
	return fmt.Sprintf("%s failure in %s: %v", f.kind, f.op, f.err)
}

func (f failure) Unwrap() error {
	return f.err
}

// capture runs fn and turns a panic into an error wrapping sentinel.
func capture(sentinel error, fn func() error) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("%w: %v", sentinel, recovered)
		}
	}()
	return fn()
}
