package vm

import (
	"fmt"
	"io"
	"math"
)

// Config controls machine execution.
//
// Example:
//
//	config := vm.DefaultConfig()
//	config.Trace = os.Stderr // log every step
//	m, err := vm.New(g, config)
type Config struct {
	// MaxSteps bounds the number of states entered by one run.
	// Zero derives the bound from the run: the graph's state count times
	// one more than the input bytes left after the start position. Without
	// shared sub-patterns each unit starts at most once per run and only
	// Any steps repeat, so hitting the derived bound means the graph loops
	// without consuming input.
	// Default: 0 (derived)
	MaxSteps int

	// Trace receives one line per step when non-nil.
	// Default: nil (no tracing)
	Trace io.Writer
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{}
}

// Validate checks if the configuration is valid.
//
// Valid ranges:
//   - MaxSteps: >= 0 (0 derives the bound per run)
func (c Config) Validate() error {
	if c.MaxSteps < 0 {
		return &ConfigError{
			Field:   "MaxSteps",
			Message: "must be >= 0",
		}
	}
	return nil
}

// stepLimit returns the step bound for a run over input starting at at.
func (c Config) stepLimit(states int, input string, at int) int {
	if c.MaxSteps > 0 {
		return c.MaxSteps
	}
	left := len(input) - at + 1
	if states > 0 && left > math.MaxInt/states {
		return math.MaxInt
	}
	return max(states*left, 1)
}

// ConfigError represents an invalid configuration parameter.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	return fmt.Sprintf("vm: invalid config %s: %s", e.Field, e.Message)
}

// Unwrap returns ErrInvalidConfig
func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}
