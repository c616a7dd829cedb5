package vm

import "github.com/coregx/patc/automaton"

// Frame is one entry of the context stack: where a sub-pattern occurrence
// started and which state opened it.
type Frame struct {
	Cursor int
	Owner  automaton.StateID

	// Output lengths when the frame was pushed; a Seek truncates back to
	// them.
	spans  int
	tokens int
}

// Span is a matched region attributed to the pattern that produced it.
// Unit is the unit the frame covered (the sub-pattern occurrence), Owner
// the state that opened the frame.
type Span struct {
	Start int
	End   int
	Owner automaton.StateID
	Unit  automaton.UnitID
}

// Len returns the number of bytes covered by the span.
func (s Span) Len() int {
	return s.End - s.Start
}

// stack is the explicit context stack.
type stack []Frame

func (s *stack) push(f Frame) {
	*s = append(*s, f)
}

func (s *stack) pop() (Frame, bool) {
	n := len(*s)
	if n == 0 {
		return Frame{}, false
	}
	f := (*s)[n-1]
	*s = (*s)[:n-1]
	return f, true
}

func (s stack) top() (Frame, bool) {
	if len(s) == 0 {
		return Frame{}, false
	}
	return s[len(s)-1], true
}

// context returns the key context for transitions: the top frame's owner
// or NoContext.
func (s stack) context() automaton.StateID {
	if len(s) == 0 {
		return automaton.NoContext
	}
	return s[len(s)-1].Owner
}
