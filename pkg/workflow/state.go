// Package workflow sequences the capture screen: live preview, region
// selection on a frozen frame, the remote request, and its result.
//
// States and events are closed sum types; only this package can add cases.
// Next is the pure transition function and Machine applies it together with
// the side effects each transition carries.
package workflow

import (
	"github.com/menta2k/viewfinder/pkg/types"
)

// State is one screen of the workflow
type State interface {
	Kind() string
	isState()
}

// Previewing shows the live camera stream. It is the initial state and the
// target of every reset.
type Previewing struct{}

// Selecting shows the frozen frame and waits for a region gesture
type Selecting struct{}

// Loading waits for the remote model
type Loading struct{}

// Success holds the model's description and the actions extracted from it
type Success struct {
	Description string
	Actions     []types.Action
}

// Error holds a human-readable failure message
type Error struct {
	Message string
}

func (Previewing) Kind() string { return "previewing" }
func (Selecting) Kind() string  { return "selecting" }
func (Loading) Kind() string    { return "loading" }
func (Success) Kind() string    { return "success" }
func (Error) Kind() string      { return "error" }

func (Previewing) isState() {}
func (Selecting) isState()  {}
func (Loading) isState()    {}
func (Success) isState()    {}
func (Error) isState()      {}

// Event drives a transition
type Event interface {
	isEvent()
}

// CaptureRequested asks to freeze the live frame
type CaptureRequested struct{}

// GestureCompleted reports that a valid gesture was burnt into the frozen frame
type GestureCompleted struct{}

// GestureDiscarded reports a gesture too short to enclose a region
type GestureDiscarded struct{}

// RemoteSucceeded carries the outcome of the remote sequence
type RemoteSucceeded struct {
	Description string
	Actions     []types.Action
}

// RemoteFailed carries the failure of any step of the remote sequence
type RemoteFailed struct {
	Err error
}

// ResetRequested returns to the live preview
type ResetRequested struct{}

func (CaptureRequested) isEvent() {}
func (GestureCompleted) isEvent() {}
func (GestureDiscarded) isEvent() {}
func (RemoteSucceeded) isEvent()  {}
func (RemoteFailed) isEvent()     {}
func (ResetRequested) isEvent()   {}

// Next returns the state that follows s on e. Pairs without a transition
// leave s unchanged.
func Next(s State, e Event) State {
	switch s.(type) {
	case Previewing:
		if _, ok := e.(CaptureRequested); ok {
			return Selecting{}
		}
	case Selecting:
		switch e.(type) {
		case GestureCompleted:
			return Loading{}
		case GestureDiscarded:
			return s
		}
	case Loading:
		switch ev := e.(type) {
		case RemoteSucceeded:
			actions := make([]types.Action, len(ev.Actions))
			copy(actions, ev.Actions)
			return Success{Description: ev.Description, Actions: actions}
		case RemoteFailed:
			return Error{Message: ErrorMessage(ev.Err)}
		}
	case Success, Error:
		if _, ok := e.(ResetRequested); ok {
			return Previewing{}
		}
	}
	return s
}

// ErrorMessage renders a failure for display
func ErrorMessage(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
