// Package automaton compiles pattern trees into state graphs whose states
// carry an entry action (cursor and context-stack effects) and a
// transition table keyed by (context frame, input symbol).
//
// Every pattern node compiles to one unit: a start, a success and a
// failure state. Composite patterns wire their children's units together
// and tag each occurrence with its own context frame, so a shared child
// knows where to resume from the frame on top of the stack rather than
// from its own identity. The resulting graph is executed by package vm
// without recursion.
package automaton

import (
	"errors"
	"fmt"
)

// Common automaton errors
var (
	// ErrInvalidState indicates a state ID outside the arena
	ErrInvalidState = errors.New("invalid state")

	// ErrDuplicateTransition indicates a second registration for the same key
	ErrDuplicateTransition = errors.New("duplicate transition")

	// ErrStackUnderflow indicates a pop reachable with a possibly empty stack
	ErrStackUnderflow = errors.New("stack underflow")

	// ErrNoProgress indicates a self-loop that does not consume input
	ErrNoProgress = errors.New("self-loop without progress")

	// ErrUnknownOp indicates a pattern node with an unsupported Op, or a
	// state with an undefined input or context action
	ErrUnknownOp = errors.New("unknown op")

	// ErrInvalidSymbol indicates a terminator that is neither a byte nor EndOfInput
	ErrInvalidSymbol = errors.New("invalid symbol")

	// ErrTooDeep indicates pattern nesting beyond CompilerConfig.MaxDepth
	ErrTooDeep = errors.New("pattern nested too deeply")

	// ErrNilPattern indicates a nil node in the pattern tree
	ErrNilPattern = errors.New("nil pattern")

	// ErrInvalidConfig indicates invalid configuration was provided
	ErrInvalidConfig = errors.New("invalid automaton configuration")
)

// BuildError reports a structural problem found while building a graph.
type BuildError struct {
	Message string
	StateID StateID
	Err     error
}

// Error implements the error interface
func (e *BuildError) Error() string {
	if e.StateID != InvalidState {
		return fmt.Sprintf("graph build error at state %d: %s", e.StateID, e.Message)
	}
	return fmt.Sprintf("graph build error: %s", e.Message)
}

// Unwrap returns the underlying sentinel error
func (e *BuildError) Unwrap() error {
	return e.Err
}

// CompileError wraps compilation errors with the offending pattern.
type CompileError struct {
	Pattern string
	Err     error
}

// Error implements the error interface
func (e *CompileError) Error() string {
	if e.Pattern != "" {
		return fmt.Sprintf("compilation failed for pattern %s: %v", e.Pattern, e.Err)
	}
	return fmt.Sprintf("compilation failed: %v", e.Err)
}

// Unwrap returns the underlying error
func (e *CompileError) Unwrap() error {
	return e.Err
}

// ConfigError reports an invalid configuration field.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	return fmt.Sprintf("automaton: invalid config %s: %s", e.Field, e.Message)
}

// Unwrap returns ErrInvalidConfig
func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}
