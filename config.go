package patc

import (
	"errors"
	"fmt"

	"github.com/coregx/patc/automaton"
	"github.com/coregx/patc/literal"
	"github.com/coregx/patc/vm"
)

// ErrInvalidConfig is the sentinel wrapped by ConfigError.
var ErrInvalidConfig = errors.New("patc: invalid config")

// Config controls compilation and matching of a Matcher.
//
// Example:
//
//	config := patc.DefaultConfig()
//	config.Compiler.Log = os.Stderr // print compile analysis
//	config.Machine.MaxSteps = 1 << 16
//	m, err := patc.CompileWithConfig(root, config)
type Config struct {
	// Name labels the compiled graphs in dumps and generated code.
	// Default: "" (graphs are dumped as "graph")
	Name string

	// Compiler configures graph construction. Compiler.Log also receives
	// the prefilter selection.
	Compiler automaton.CompilerConfig

	// Machine configures every machine the matcher runs.
	Machine vm.Config

	// EnablePrefilter enables literal prefiltering for Find and FindAll.
	// Default: true
	EnablePrefilter bool

	// MaxLiterals limits the number of prefix literals extracted for the
	// prefilter.
	// Default: 64
	MaxLiterals int

	// MaxLiteralLen limits the length of each extracted prefix literal.
	// Default: 64
	MaxLiteralLen int
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	lits := literal.DefaultConfig()
	return Config{
		Compiler:        automaton.DefaultCompilerConfig(),
		Machine:         vm.DefaultConfig(),
		EnablePrefilter: true,
		MaxLiterals:     lits.MaxLiterals,
		MaxLiteralLen:   lits.MaxLiteralLen,
	}
}

// Validate checks if the configuration is valid.
//
// Valid ranges (checked only when EnablePrefilter is true):
//   - MaxLiterals: 1 to 4096
//   - MaxLiteralLen: 1 to 4096
func (c Config) Validate() error {
	if err := c.Compiler.Validate(); err != nil {
		return err
	}
	if err := c.Machine.Validate(); err != nil {
		return err
	}
	if !c.EnablePrefilter {
		return nil
	}
	if c.MaxLiterals < 1 || c.MaxLiterals > 4096 {
		return &ConfigError{
			Field:   "MaxLiterals",
			Message: "must be between 1 and 4096",
		}
	}
	if c.MaxLiteralLen < 1 || c.MaxLiteralLen > 4096 {
		return &ConfigError{
			Field:   "MaxLiteralLen",
			Message: "must be between 1 and 4096",
		}
	}
	return nil
}

// ConfigError represents an invalid configuration parameter.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	return fmt.Sprintf("patc: invalid config %s: %s", e.Field, e.Message)
}

// Unwrap returns ErrInvalidConfig
func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}
