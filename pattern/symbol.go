package pattern

import (
	"fmt"
	"strconv"
)

// Symbol is one input symbol: a byte value in [0, 255] or EndOfInput.
// Negative values other than EndOfInput are reserved for automaton
// wildcards and are never produced by input.
type Symbol int16

// EndOfInput is the symbol seen when the cursor equals the input length.
const EndOfInput Symbol = -1

// Byte returns the symbol for b.
func Byte(b byte) Symbol {
	return Symbol(b)
}

// IsByte reports whether s is a concrete byte symbol.
func (s Symbol) IsByte() bool {
	return s >= 0 && s <= 0xFF
}

// String returns a human-readable representation of the Symbol
func (s Symbol) String() string {
	switch {
	case s == EndOfInput:
		return "EOI"
	case s.IsByte():
		return strconv.QuoteRune(rune(s))
	default:
		return fmt.Sprintf("Symbol(%d)", int16(s))
	}
}

// At returns the symbol at position i of input, or EndOfInput when
// i == len(input).
func At(input string, i int) Symbol {
	if i >= len(input) {
		return EndOfInput
	}
	return Symbol(input[i])
}
