package event

import (
	"errors"
	"fmt"
)

// Sentinel errors for the event hub.
var (
	// ErrListenerLoop is returned when a listener that does not allow loops
	// would be re-triggered within the same outermost publish.
	ErrListenerLoop = errors.New("listener loop detected")

	// ErrHubClosed is returned when subscribing to a closed hub.
	ErrHubClosed = errors.New("event hub is closed")

	// ErrNilHandler is returned when a nil handler is provided.
	ErrNilHandler = errors.New("handler cannot be nil")

	// ErrNilSubject is returned when a nil subject is provided.
	ErrNilSubject = errors.New("subject cannot be nil")
)

// LoopError identifies the listener that tripped loop detection.
type LoopError struct {
	// ListenerID is the id of the listener that would have looped.
	ListenerID string

	// Name is the listener's configured name, possibly empty.
	Name string
}

// Error implements the error interface.
func (e *LoopError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("listener loop detected on %s (%s)", e.Name, e.ListenerID)
	}
	return "listener loop detected on " + e.ListenerID
}

// Is allows errors.Is to match LoopError with ErrListenerLoop.
func (e *LoopError) Is(target error) bool {
	return target == ErrListenerLoop
}

// HandlerError wraps an error returned by a listener handler.
type HandlerError struct {
	// ListenerID is the id of the listener whose handler failed.
	ListenerID string

	// Name is the listener's configured name, possibly empty.
	Name string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *HandlerError) Error() string {
	id := e.ListenerID
	if e.Name != "" {
		id = e.Name + " (" + e.ListenerID + ")"
	}
	return "handler error for listener " + id + ": " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *HandlerError) Unwrap() error {
	return e.Err
}
