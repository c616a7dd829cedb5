package automaton

import (
	"fmt"

	"github.com/coregx/patc/pattern"
)

// Unit is the canonical (start, success, failure) triple of a compiled
// pattern node, a choice alternative wrapper or the graph root.
type Unit struct {
	id      UnitID
	start   StateID
	success StateID
	failure StateID
	node    *pattern.Node
	label   string
}

// ID returns the unit's identifier
func (u *Unit) ID() UnitID {
	return u.id
}

// Start returns the unit's entry state.
func (u *Unit) Start() StateID {
	return u.start
}

// Success returns the state reached when the unit matched.
func (u *Unit) Success() StateID {
	return u.success
}

// Failure returns the state reached when the unit did not match.
func (u *Unit) Failure() StateID {
	return u.failure
}

// Node returns the pattern compiled into this unit, or nil for wrapper
// units and for graphs loaded from a Table.
func (u *Unit) Node() *pattern.Node {
	return u.node
}

// Label returns a short description of the unit.
func (u *Unit) Label() string {
	return u.label
}

// IsExit reports whether id is the unit's success or failure state.
func (u *Unit) IsExit(id StateID) bool {
	return id == u.success || id == u.failure
}

// Graph is a compiled, read-only state graph.
// It is safe for concurrent use by multiple matchers.
type Graph struct {
	states []State
	units  []Unit
	nodes  map[*pattern.Node]UnitID

	start  StateID
	accept StateID
	reject StateID
	root   UnitID

	partial bool
	name    string
}

// Start returns the state the matcher enters first.
func (g *Graph) Start() StateID {
	return g.start
}

// Accept returns the terminal state signalling a match.
func (g *Graph) Accept() StateID {
	return g.accept
}

// Reject returns the terminal state signalling no match.
func (g *Graph) Reject() StateID {
	return g.reject
}

// Root returns the unit of the root pattern.
func (g *Graph) Root() UnitID {
	return g.root
}

// IsPartial reports whether the graph accepts without consuming the whole
// input (prefix matching).
func (g *Graph) IsPartial() bool {
	return g.partial
}

// Name returns the graph's name, if one was set with WithName.
func (g *Graph) Name() string {
	return g.name
}

// State returns the state with the given ID.
// Returns nil if the ID is invalid.
func (g *Graph) State(id StateID) *State {
	if int(id) >= len(g.states) {
		return nil
	}
	return &g.states[id]
}

// Unit returns the unit with the given ID.
// Returns nil if the ID is invalid.
func (g *Graph) Unit(id UnitID) *Unit {
	if int(id) >= len(g.units) {
		return nil
	}
	return &g.units[id]
}

// UnitOf returns the unit compiled for node.
func (g *Graph) UnitOf(node *pattern.Node) (UnitID, bool) {
	id, ok := g.nodes[node]
	return id, ok
}

// States returns the total number of states in the graph
func (g *Graph) States() int {
	return len(g.states)
}

// Units returns the total number of units in the graph
func (g *Graph) Units() int {
	return len(g.units)
}

// Resolve returns the state following id when ctx is the context on top of
// the stack and sym is under the cursor.
//
// The table is consulted with ordered fallback (see State.Lookup). When no
// entry matches, states that are not exits of their unit fall back to the
// unit's failure state; unit exits and terminal states do not resolve.
func (g *Graph) Resolve(id StateID, ctx StateID, sym Symbol) (StateID, bool) {
	s := g.State(id)
	if s == nil || s.terminal {
		return InvalidState, false
	}
	if next, ok := s.Lookup(ctx, sym); ok {
		return next, true
	}
	u := g.Unit(s.unit)
	if u == nil || u.IsExit(id) {
		return InvalidState, false
	}
	return u.failure, true
}

// JumpTarget returns the state a PopJump action in state id continues from
// when the popped frame is owned by owner.
func (g *Graph) JumpTarget(id StateID, owner StateID) (StateID, bool) {
	s, o := g.State(id), g.State(owner)
	if s == nil || o == nil || !s.action.Context.Jumps() {
		return InvalidState, false
	}
	u := g.Unit(o.unit)
	if u == nil {
		return InvalidState, false
	}
	if s.action.Context == ContextPopJumpSuccess {
		return u.success, true
	}
	return u.failure, true
}

// Iter returns an iterator over all states in the graph
func (g *Graph) Iter() *StateIter {
	return &StateIter{graph: g}
}

// StateIter is an iterator over graph states
type StateIter struct {
	graph *Graph
	pos   int
}

// Next returns the next state in the iteration.
// Returns nil when iteration is complete.
func (it *StateIter) Next() *State {
	if it.pos >= len(it.graph.states) {
		return nil
	}
	s := &it.graph.states[it.pos]
	it.pos++
	return s
}

// HasNext returns true if there are more states to iterate
func (it *StateIter) HasNext() bool {
	return it.pos < len(it.graph.states)
}

// String returns a short summary of the graph
func (g *Graph) String() string {
	return fmt.Sprintf("Graph{states: %d, units: %d, start: %d, accept: %d, reject: %d, partial: %v}",
		len(g.states), len(g.units), g.start, g.accept, g.reject, g.partial)
}

// BuildOption is a functional option for configuring the built graph
type BuildOption func(*Graph)

// WithPartial makes the compiled root accept as soon as the root pattern
// succeeds, without requiring the whole input to be consumed.
func WithPartial(partial bool) BuildOption {
	return func(g *Graph) {
		g.partial = partial
	}
}

// WithName sets the graph's name (used by dumps and code generation).
func WithName(name string) BuildOption {
	return func(g *Graph) {
		g.name = name
	}
}
