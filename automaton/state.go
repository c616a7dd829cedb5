package automaton

import (
	"fmt"
	"sort"

	"github.com/coregx/patc/pattern"
)

// StateID uniquely identifies a state. It is an index into the graph's
// state arena.
type StateID uint32

// Special state ids. They never index the arena.
const (
	// InvalidState represents an invalid/uninitialized state ID
	InvalidState StateID = 0xFFFFFFFF

	// AnyContext is the wildcard context key: it matches whatever frame is
	// on top of the stack.
	AnyContext StateID = 0xFFFFFFFE

	// NoContext is the context key seen while the stack is empty.
	NoContext StateID = 0xFFFFFFFD
)

// UnitID identifies a compilation unit (start, success, failure triple).
type UnitID uint32

// InvalidUnit represents an invalid/uninitialized unit ID
const InvalidUnit UnitID = 0xFFFFFFFF

// Symbol is an input symbol or a transition wildcard.
type Symbol = pattern.Symbol

const (
	// EndOfInput is the symbol seen when the cursor is at the input length.
	EndOfInput = pattern.EndOfInput

	// AnySymbol is the wildcard symbol key: it matches every input symbol,
	// EndOfInput included.
	AnySymbol Symbol = -2
)

// InputAction is the cursor effect of entering a state.
// It runs before the context action.
type InputAction uint8

const (
	// InputNone leaves the cursor unchanged.
	InputNone InputAction = iota

	// InputAdvance moves the cursor past the current symbol.
	InputAdvance

	// InputEmitAdvance appends the current byte to the token buffer and
	// moves the cursor past it.
	InputEmitAdvance

	// InputSeek resets the cursor to the top frame's entry position and
	// discards output produced since that frame was pushed.
	InputSeek
)

// String returns a human-readable representation of the InputAction
func (a InputAction) String() string {
	switch a {
	case InputNone:
		return "None"
	case InputAdvance:
		return "Advance"
	case InputEmitAdvance:
		return "EmitAdvance"
	case InputSeek:
		return "Seek"
	default:
		return fmt.Sprintf("InputAction(%d)", uint8(a))
	}
}

// Advances reports whether the action consumes an input symbol.
func (a InputAction) Advances() bool {
	return a == InputAdvance || a == InputEmitAdvance
}

// ContextAction is the stack effect of entering a state.
type ContextAction uint8

const (
	// ContextNone leaves the stack unchanged.
	ContextNone ContextAction = iota

	// ContextPush pushes a frame owned by the entered state.
	ContextPush

	// ContextPop pops and discards the top frame.
	ContextPop

	// ContextPopEmit pops the top frame and emits its span.
	ContextPopEmit

	// ContextPopJumpSuccess pops the top frame and continues from the
	// success exit of the unit that owns the frame.
	ContextPopJumpSuccess

	// ContextPopJumpFailure pops the top frame and continues from the
	// failure exit of the unit that owns the frame.
	ContextPopJumpFailure

	// ContextPopPush emits the top frame's span, pops it and pushes a frame
	// owned by the entered state.
	ContextPopPush
)

// String returns a human-readable representation of the ContextAction
func (a ContextAction) String() string {
	switch a {
	case ContextNone:
		return "None"
	case ContextPush:
		return "Push"
	case ContextPop:
		return "Pop"
	case ContextPopEmit:
		return "PopEmit"
	case ContextPopJumpSuccess:
		return "PopJumpSuccess"
	case ContextPopJumpFailure:
		return "PopJumpFailure"
	case ContextPopPush:
		return "PopPush"
	default:
		return fmt.Sprintf("ContextAction(%d)", uint8(a))
	}
}

// Pops reports whether the action removes the top frame.
func (a ContextAction) Pops() bool {
	switch a {
	case ContextPop, ContextPopEmit, ContextPopJumpSuccess, ContextPopJumpFailure, ContextPopPush:
		return true
	}
	return false
}

// Pushes reports whether the action installs a frame owned by the state.
func (a ContextAction) Pushes() bool {
	return a == ContextPush || a == ContextPopPush
}

// Jumps reports whether the action redirects to the frame owner's exit.
func (a ContextAction) Jumps() bool {
	return a == ContextPopJumpSuccess || a == ContextPopJumpFailure
}

// delta is the change in stack depth caused by the action.
func (a ContextAction) delta() int {
	switch a {
	case ContextPush:
		return 1
	case ContextPop, ContextPopEmit, ContextPopJumpSuccess, ContextPopJumpFailure:
		return -1
	}
	return 0
}

// Action is executed on entry to a state: input first, then context.
type Action struct {
	Input   InputAction
	Context ContextAction
}

// String returns a human-readable representation of the Action
func (a Action) String() string {
	return a.Input.String() + "/" + a.Context.String()
}

// Key selects a transition by the context frame on top of the stack and the
// symbol under the cursor. Either part may be a wildcard.
type Key struct {
	Context StateID
	Symbol  Symbol
}

// On returns the key matching sym under any context.
func On(sym Symbol) Key {
	return Key{Context: AnyContext, Symbol: sym}
}

// OnByte returns the key matching byte b under any context.
func OnByte(b byte) Key {
	return Key{Context: AnyContext, Symbol: pattern.Byte(b)}
}

// Default returns the fully wildcarded key.
func Default() Key {
	return Key{Context: AnyContext, Symbol: AnySymbol}
}

// In returns the key matching any symbol under context ctx.
func In(ctx StateID) Key {
	return Key{Context: ctx, Symbol: AnySymbol}
}

// String returns a human-readable representation of the Key
func (k Key) String() string {
	sym := "*"
	if k.Symbol != AnySymbol {
		sym = k.Symbol.String()
	}
	return "(" + contextString(k.Context) + ", " + sym + ")"
}

func contextString(ctx StateID) string {
	switch ctx {
	case AnyContext:
		return "*"
	case NoContext:
		return "-"
	case InvalidState:
		return "invalid"
	default:
		return fmt.Sprintf("%d", uint32(ctx))
	}
}

// Transition is one entry of a state's transition table.
type Transition struct {
	Key  Key
	Next StateID
}

// State is a node of the compiled graph: an entry action plus a
// transition table. States are owned by the graph's arena.
type State struct {
	id       StateID
	unit     UnitID
	frame    UnitID
	action   Action
	terminal bool
	trans    map[Key]StateID
}

// ID returns the state's unique identifier
func (s *State) ID() StateID {
	return s.id
}

// Unit returns the unit whose compilation allocated the state.
func (s *State) Unit() UnitID {
	return s.unit
}

// Frame returns the unit covered by frames this state pushes.
// Returns InvalidUnit for states that do not push.
func (s *State) Frame() UnitID {
	return s.frame
}

// Action returns the state's entry action.
func (s *State) Action() Action {
	return s.action
}

// IsTerminal returns true for the graph's accept and reject states.
func (s *State) IsTerminal() bool {
	return s.terminal
}

// Next returns the target registered for exactly key, without fallback.
func (s *State) Next(key Key) (StateID, bool) {
	next, ok := s.trans[key]
	return next, ok
}

// Lookup resolves (ctx, sym) with ordered fallback:
// (ctx, sym), (ctx, *), (*, sym), (*, *).
func (s *State) Lookup(ctx StateID, sym Symbol) (StateID, bool) {
	if len(s.trans) == 0 {
		return InvalidState, false
	}
	if next, ok := s.trans[Key{ctx, sym}]; ok {
		return next, true
	}
	if next, ok := s.trans[Key{ctx, AnySymbol}]; ok {
		return next, true
	}
	if next, ok := s.trans[Key{AnyContext, sym}]; ok {
		return next, true
	}
	if next, ok := s.trans[Key{AnyContext, AnySymbol}]; ok {
		return next, true
	}
	return InvalidState, false
}

// NumTransitions returns the size of the transition table.
func (s *State) NumTransitions() int {
	return len(s.trans)
}

// Transitions returns the transition table in a deterministic order:
// concrete contexts before wildcards, then by symbol with wildcards last.
func (s *State) Transitions() []Transition {
	out := make([]Transition, 0, len(s.trans))
	for k, next := range s.trans {
		out = append(out, Transition{Key: k, Next: next})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Key, out[j].Key
		if a.Context != b.Context {
			return a.Context < b.Context
		}
		return symbolOrder(a.Symbol) < symbolOrder(b.Symbol)
	})
	return out
}

// symbolOrder sorts bytes first, then EndOfInput, then AnySymbol.
func symbolOrder(sym Symbol) int {
	switch sym {
	case EndOfInput:
		return 0x100
	case AnySymbol:
		return 0x101
	}
	return int(sym)
}

// String returns a human-readable representation of the state
func (s *State) String() string {
	kind := ""
	if s.terminal {
		kind = ", terminal"
	}
	return fmt.Sprintf("State(%d, unit %d, %s%s, %d transitions)",
		s.id, s.unit, s.action, kind, len(s.trans))
}
