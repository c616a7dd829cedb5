package automaton

import (
	"fmt"

	"github.com/coregx/patc/internal/conv"
	"github.com/coregx/patc/pattern"
)

// Builder constructs graphs incrementally using a low-level API.
// It owns the state arena; ids are arena indices, so separate builders can
// run concurrently without coordination. The Compiler drives a Builder;
// tests and table loading use it directly.
//
// A Builder must not be used after Build.
type Builder struct {
	states []State
	units  []Unit
	nodes  map[*pattern.Node]UnitID

	start  StateID
	accept StateID
	reject StateID
	root   UnitID
}

// NewBuilder creates a new graph builder with default capacity
func NewBuilder() *Builder {
	return NewBuilderWithCapacity(16)
}

// NewBuilderWithCapacity creates a new graph builder with specified initial capacity
func NewBuilderWithCapacity(capacity int) *Builder {
	return &Builder{
		states: make([]State, 0, capacity),
		units:  make([]Unit, 0, capacity/3+1),
		nodes:  make(map[*pattern.Node]UnitID),
		start:  InvalidState,
		accept: InvalidState,
		reject: InvalidState,
		root:   InvalidUnit,
	}
}

// AddState adds a state owned by unit with the given entry action and
// returns its ID.
func (b *Builder) AddState(unit UnitID, action Action) StateID {
	id := StateID(conv.IntToUint32(len(b.states)))
	b.states = append(b.states, State{
		id:     id,
		unit:   unit,
		frame:  InvalidUnit,
		action: action,
	})
	return id
}

// AddUnit allocates a unit and its start, success and failure states (all
// with no action). node may be nil for wrapper units; a non-nil node is
// recorded so Graph.UnitOf can find it.
func (b *Builder) AddUnit(node *pattern.Node, label string) UnitID {
	id := UnitID(conv.IntToUint32(len(b.units)))
	b.units = append(b.units, Unit{id: id, node: node, label: label})
	u := &b.units[id]
	u.start = b.AddState(id, Action{})
	u.success = b.AddState(id, Action{})
	u.failure = b.AddState(id, Action{})
	if node != nil {
		b.nodes[node] = id
	}
	return id
}

// DefineUnit registers a unit over states that already exist. It is used
// when reconstructing a graph from a Table, where states come first.
func (b *Builder) DefineUnit(label string, start, success, failure StateID) (UnitID, error) {
	for _, id := range []StateID{start, success, failure} {
		if int(id) >= len(b.states) {
			return InvalidUnit, &BuildError{
				Message: fmt.Sprintf("unit %q refers to missing state", label),
				StateID: id,
				Err:     ErrInvalidState,
			}
		}
	}
	id := UnitID(conv.IntToUint32(len(b.units)))
	b.units = append(b.units, Unit{id: id, start: start, success: success, failure: failure, label: label})
	return id, nil
}

// UnitOf returns the unit already allocated for node.
func (b *Builder) UnitOf(node *pattern.Node) (UnitID, bool) {
	id, ok := b.nodes[node]
	return id, ok
}

// UnitStates returns the start, success and failure states of unit id.
func (b *Builder) UnitStates(id UnitID) (start, success, failure StateID) {
	if int(id) >= len(b.units) {
		return InvalidState, InvalidState, InvalidState
	}
	u := &b.units[id]
	return u.start, u.success, u.failure
}

// SetAction replaces the entry action of a state.
func (b *Builder) SetAction(id StateID, action Action) error {
	s, err := b.state(id)
	if err != nil {
		return err
	}
	s.action = action
	return nil
}

// SetFrame records which unit the frames pushed by state id cover.
// Spans emitted for those frames report this unit.
func (b *Builder) SetFrame(id StateID, frame UnitID) error {
	s, err := b.state(id)
	if err != nil {
		return err
	}
	if int(frame) >= len(b.units) {
		return &BuildError{
			Message: fmt.Sprintf("frame unit %d out of bounds", frame),
			StateID: id,
			Err:     ErrInvalidState,
		}
	}
	s.frame = frame
	return nil
}

// AddTransition registers from --key--> to.
// Registering the same key twice on one state is an error; entries are
// never overwritten.
func (b *Builder) AddTransition(from StateID, key Key, to StateID) error {
	s, err := b.state(from)
	if err != nil {
		return err
	}
	if int(to) >= len(b.states) {
		return &BuildError{
			Message: fmt.Sprintf("invalid target state %d for %s", to, key),
			StateID: from,
			Err:     ErrInvalidState,
		}
	}
	if err := b.checkKey(from, key); err != nil {
		return err
	}
	if s.trans == nil {
		s.trans = make(map[Key]StateID, 2)
	}
	if prev, ok := s.trans[key]; ok {
		return &BuildError{
			Message: fmt.Sprintf("transition %s already targets %d (new target %d)", key, prev, to),
			StateID: from,
			Err:     ErrDuplicateTransition,
		}
	}
	s.trans[key] = to
	return nil
}

func (b *Builder) checkKey(from StateID, key Key) error {
	switch key.Context {
	case AnyContext, NoContext:
	default:
		if int(key.Context) >= len(b.states) {
			return &BuildError{
				Message: fmt.Sprintf("invalid context %d", key.Context),
				StateID: from,
				Err:     ErrInvalidState,
			}
		}
	}
	if key.Symbol != AnySymbol && key.Symbol != EndOfInput && !key.Symbol.IsByte() {
		return &BuildError{
			Message: fmt.Sprintf("invalid key symbol %s", key.Symbol),
			StateID: from,
			Err:     ErrInvalidSymbol,
		}
	}
	return nil
}

// SetRoot designates the root pattern's unit and the graph's start, accept
// and reject states. Accept and reject become terminal.
func (b *Builder) SetRoot(root UnitID, start, accept, reject StateID) {
	b.root = root
	b.start = start
	b.accept = accept
	b.reject = reject
	for _, id := range []StateID{accept, reject} {
		if int(id) < len(b.states) {
			b.states[id].terminal = true
		}
	}
}

// States returns the current number of states
func (b *Builder) States() int {
	return len(b.states)
}

// Units returns the current number of units
func (b *Builder) Units() int {
	return len(b.units)
}

func (b *Builder) state(id StateID) (*State, error) {
	if int(id) >= len(b.states) {
		return nil, &BuildError{
			Message: "state ID out of bounds",
			StateID: id,
			Err:     ErrInvalidState,
		}
	}
	return &b.states[id], nil
}

// Validate checks that the graph is well-formed:
//   - root, start, accept and reject are set and in range
//   - every input and context action is defined
//   - every transition target and context key is in range
//   - terminal states have no transitions
//   - every self-loop consumes input
//   - reachable unit exits can leave (no dangling exits)
//   - no pop or seek is reachable with a possibly empty stack
func (b *Builder) Validate() error {
	if int(b.root) >= len(b.units) {
		return &BuildError{Message: "root unit not set", StateID: InvalidState, Err: ErrInvalidState}
	}
	for _, r := range []struct {
		name string
		id   StateID
	}{{"start", b.start}, {"accept", b.accept}, {"reject", b.reject}} {
		if int(r.id) >= len(b.states) {
			return &BuildError{
				Message: r.name + " state not set or out of bounds",
				StateID: r.id,
				Err:     ErrInvalidState,
			}
		}
	}
	if b.accept == b.reject {
		return &BuildError{Message: "accept and reject must differ", StateID: b.accept, Err: ErrInvalidState}
	}

	for i := range b.states {
		s := &b.states[i]
		if s.terminal && len(s.trans) > 0 {
			return &BuildError{Message: "terminal state has transitions", StateID: s.id, Err: ErrInvalidState}
		}
		if s.action.Input > InputSeek || s.action.Context > ContextPopPush {
			return &BuildError{Message: "undefined action " + s.action.String(), StateID: s.id, Err: ErrUnknownOp}
		}
		if int(s.unit) >= len(b.units) {
			return &BuildError{
				Message: fmt.Sprintf("owner unit %d out of bounds", s.unit),
				StateID: s.id,
				Err:     ErrInvalidState,
			}
		}
		for key, next := range s.trans {
			if err := b.checkKey(s.id, key); err != nil {
				return err
			}
			if int(next) >= len(b.states) {
				return &BuildError{
					Message: fmt.Sprintf("invalid target state %d for %s", next, key),
					StateID: s.id,
					Err:     ErrInvalidState,
				}
			}
			if next == s.id {
				if err := checkSelfLoop(s, key); err != nil {
					return err
				}
			}
		}
	}

	return b.checkReachable()
}

// Build finalizes and returns the constructed graph.
func (b *Builder) Build(opts ...BuildOption) (*Graph, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}

	g := &Graph{
		states: b.states,
		units:  b.units,
		nodes:  b.nodes,
		start:  b.start,
		accept: b.accept,
		reject: b.reject,
		root:   b.root,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}
