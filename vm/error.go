package vm

import (
	"errors"
	"fmt"

	"github.com/coregx/patc/automaton"
)

// Fault conditions. A fault means the graph is malformed or the run was cut
// short; it is never reported for input that simply does not match.
var (
	// ErrStackUnderflow indicates a pop or seek with an empty stack
	ErrStackUnderflow = errors.New("context stack underflow")

	// ErrStackImbalance indicates the accept state was reached with frames
	// still on the stack
	ErrStackImbalance = errors.New("context stack not empty at accept")

	// ErrUnresolved indicates a state with no transition for the current
	// context and symbol
	ErrUnresolved = errors.New("unresolved transition")

	// ErrNoProgress indicates the step bound was exceeded
	ErrNoProgress = errors.New("step limit exceeded")

	// ErrCursorOverrun indicates an advance past the end of input or a start
	// position outside the input
	ErrCursorOverrun = errors.New("cursor past end of input")

	// ErrInvalidConfig indicates invalid configuration was provided
	ErrInvalidConfig = errors.New("invalid vm configuration")

	// ErrNilGraph indicates a machine was created without a graph
	ErrNilGraph = errors.New("nil graph")
)

// Fault reports where a run stopped on a malformed graph.
type Fault struct {
	State  automaton.StateID
	Cursor int
	Err    error
}

// Error implements the error interface
func (f *Fault) Error() string {
	return fmt.Sprintf("vm: fault at state %d, cursor %d: %v", f.State, f.Cursor, f.Err)
}

// Unwrap returns the underlying sentinel error
func (f *Fault) Unwrap() error {
	return f.Err
}
