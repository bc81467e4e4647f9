package session

import (
	"errors"
	"fmt"
)

// State is a Pipeline Controller state.
type State int32

const (
	StateIdle State = iota
	StateSelecting
	StateCapturing
	StateRecognizing
	StateDispatching
	StateDone
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSelecting:
		return "selecting"
	case StateCapturing:
		return "capturing"
	case StateRecognizing:
		return "recognizing"
	case StateDispatching:
		return "dispatching"
	case StateDone:
		return "done"
	case StateAborted:
		return "aborted"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Terminal reports whether s ends a run.
func (s State) Terminal() bool {
	return s == StateDone || s == StateAborted
}

var (
	ErrSelectionCancelled = errors.New("selection cancelled")
	ErrBusy               = errors.New("a search is already running")
)

// StageError records which stage aborted a run.
type StageError struct {
	Stage State
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed: %v", StageName(e.Stage), e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// StageName is the user-facing name of the work done in state s.
func StageName(s State) string {
	switch s {
	case StateSelecting:
		return "Selection"
	case StateCapturing:
		return "Capture"
	case StateRecognizing:
		return "Recognition"
	case StateDispatching:
		return "Search"
	default:
		return s.String()
	}
}
