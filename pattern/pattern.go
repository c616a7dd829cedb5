// Package pattern describes what to recognize as an immutable tree of
// combinators: literals, ordered sequences, ordered choices and
// any-until-terminator runs.
//
// Nodes are values with identity. The same *Node may be referenced from
// several parents; compilers memoize on the pointer so a shared sub-pattern
// is compiled exactly once.
//
// Example:
//
//	greeting := pattern.Choice(
//	    pattern.Literal("hello"),
//	    pattern.Literal("world"),
//	)
//	line := pattern.Sequence(greeting, pattern.Literal("!"))
package pattern

import (
	"fmt"
	"strconv"
	"strings"
)

// Op identifies the variant of a Node.
type Op uint8

const (
	// OpLiteral matches an exact byte string.
	OpLiteral Op = iota + 1

	// OpSequence matches its children one after another.
	OpSequence

	// OpChoice matches the first child that succeeds, in declaration order.
	OpChoice

	// OpAny consumes bytes until one of its terminators is the next symbol.
	OpAny
)

// String returns a human-readable representation of the Op
func (op Op) String() string {
	switch op {
	case OpLiteral:
		return "Literal"
	case OpSequence:
		return "Sequence"
	case OpChoice:
		return "Choice"
	case OpAny:
		return "Any"
	default:
		return fmt.Sprintf("Op(%d)", uint8(op))
	}
}

// Node is one pattern in a pattern tree.
// The zero value is not a valid pattern; use the constructors.
type Node struct {
	op          Op
	value       string
	sub         []*Node
	terminators []Symbol
}

// Literal returns a pattern matching exactly value.
// An empty value matches the empty string.
func Literal(value string) *Node {
	return &Node{op: OpLiteral, value: value}
}

// Sequence returns a pattern matching each element in order.
// The first failing element fails the whole sequence.
func Sequence(elements ...*Node) *Node {
	return &Node{op: OpSequence, sub: cloneNodes(elements)}
}

// Choice returns a pattern trying each alternative in declaration order.
// The first alternative that succeeds wins; later ones are not retried
// once an earlier one has matched.
func Choice(alternatives ...*Node) *Node {
	return &Node{op: OpChoice, sub: cloneNodes(alternatives)}
}

// Any returns a pattern consuming input until the next symbol is one of
// terminators. The terminator itself is not consumed. Include EndOfInput
// to also accept running off the end of the input.
func Any(terminators ...Symbol) *Node {
	terms := make([]Symbol, len(terminators))
	copy(terms, terminators)
	return &Node{op: OpAny, terminators: terms}
}

// AnyUntil is Any with the bytes of delims as terminators.
func AnyUntil(delims string) *Node {
	terms := make([]Symbol, 0, len(delims))
	for i := 0; i < len(delims); i++ {
		terms = append(terms, Byte(delims[i]))
	}
	return &Node{op: OpAny, terminators: terms}
}

func cloneNodes(nodes []*Node) []*Node {
	out := make([]*Node, len(nodes))
	copy(out, nodes)
	return out
}

// Op returns the variant of n.
func (n *Node) Op() Op {
	return n.op
}

// Value returns the literal text of an OpLiteral node and "" otherwise.
func (n *Node) Value() string {
	return n.value
}

// Len returns the number of children of a Sequence or Choice.
func (n *Node) Len() int {
	return len(n.sub)
}

// Sub returns the i-th child of a Sequence or Choice.
func (n *Node) Sub(i int) *Node {
	return n.sub[i]
}

// Children returns a copy of the children of a Sequence or Choice.
func (n *Node) Children() []*Node {
	return cloneNodes(n.sub)
}

// Terminators returns a copy of the terminator symbols of an Any node.
func (n *Node) Terminators() []Symbol {
	out := make([]Symbol, len(n.terminators))
	copy(out, n.terminators)
	return out
}

// IsTerminator reports whether sym terminates an Any node.
func (n *Node) IsTerminator(sym Symbol) bool {
	for _, t := range n.terminators {
		if t == sym {
			return true
		}
	}
	return false
}

// String renders n in constructor syntax. Shared sub-nodes are printed at
// every occurrence.
func (n *Node) String() string {
	var sb strings.Builder
	n.write(&sb)
	return sb.String()
}

func (n *Node) write(sb *strings.Builder) {
	if n == nil {
		sb.WriteString("<nil>")
		return
	}
	switch n.op {
	case OpLiteral:
		sb.WriteString(strconv.Quote(n.value))
	case OpSequence, OpChoice:
		sb.WriteString(n.op.String())
		sb.WriteByte('(')
		for i, sub := range n.sub {
			if i > 0 {
				sb.WriteString(", ")
			}
			sub.write(sb)
		}
		sb.WriteByte(')')
	case OpAny:
		sb.WriteString("Any(")
		for i, t := range n.terminators {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(t.String())
		}
		sb.WriteByte(')')
	default:
		sb.WriteString(n.op.String())
	}
}
