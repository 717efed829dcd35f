package script

import (
	"errors"
	"fmt"
)

var (
	// ErrStateClosed is returned when operating on a closed state.
	ErrStateClosed = errors.New("lua state is closed")

	// ErrTimeout is returned when an execution exceeds its timeout.
	ErrTimeout = errors.New("lua execution timeout")

	// ErrInstructionLimit is returned when an execution exceeds its cell API
	// call budget.
	ErrInstructionLimit = errors.New("lua instruction limit exceeded")
)

// ScriptError wraps a failure raised while running Lua code.
type ScriptError struct {
	// Source is the chunk name or listener that failed.
	Source string
	Err    error
}

func (e *ScriptError) Error() string {
	return fmt.Sprintf("script %s: %v", e.Source, e.Err)
}

func (e *ScriptError) Unwrap() error {
	return e.Err
}
