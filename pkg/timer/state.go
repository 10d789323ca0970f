package timer

import (
	"errors"

	"github.com/hakuna-bridge/hakuna-go/pkg/hakuna"
	"github.com/hakuna-bridge/hakuna-go/pkg/snapshot"
)

// Transition errors surfaced to the caller of an action.
var (
	ErrAlreadyRunning = errors.New("timer already running")
	ErrUnknownTask    = errors.New("unknown task")
	ErrUnknownProject = errors.New("unknown project")
)

// State is the local view of the remote timer.
type State uint8

const (
	// StateIdle means no timer runs.
	StateIdle State = iota

	// StateRunning means a timer runs.
	StateRunning
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateRunning:
		return "RUNNING"
	default:
		return "UNKNOWN"
	}
}

// StateOf derives the state from a snapshot's timer.
func StateOf(t snapshot.TimerInfo) State {
	if t.Running {
		return StateRunning
	}
	return StateIdle
}

// StartOptions are the arguments of Start. Empty fields are resolved or
// omitted, see Catalog.
type StartOptions struct {
	Project string
	Task    string
	Note    string
}

// Result describes a transition.
type Result struct {
	From State
	To   State

	// Timer is the timer after the transition as reported by the remote.
	// Zero when To is Idle.
	Timer snapshot.TimerInfo

	// Entry is the time entry created by Stop.
	Entry *hakuna.TimeEntry

	// Reconciled is set when the remote disagreed with the local state and
	// the machine adopted the remote's view instead of failing.
	Reconciled bool

	// Remote is set when a timer endpoint was called.
	Remote bool
}

// Changed reports whether the transition changed the state.
func (r Result) Changed() bool {
	return r.From != r.To
}
