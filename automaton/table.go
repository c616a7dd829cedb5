package automaton

import (
	"fmt"
)

// Table is a flat, pointer-free description of a graph. It is what code
// generation emits and what Load turns back into a Graph.
type Table struct {
	Name    string
	Partial bool
	Start   uint32
	Accept  uint32
	Reject  uint32
	Root    uint32
	Units   []TableUnit
	States  []TableState
}

// TableUnit describes one unit of a Table.
type TableUnit struct {
	Start   uint32
	Success uint32
	Failure uint32
	Label   string
}

// TableState describes one state of a Table. Frame is InvalidUnit for
// states that do not push.
type TableState struct {
	Unit        uint32
	Frame       uint32
	Input       InputAction
	Context     ContextAction
	Transitions []TableTransition
}

// TableTransition is one transition entry of a TableState.
type TableTransition struct {
	Context uint32
	Symbol  int16
	Next    uint32
}

// Table returns the graph as a Table. Transitions are listed in the
// deterministic order of State.Transitions.
func (g *Graph) Table() Table {
	t := Table{
		Name:    g.name,
		Partial: g.partial,
		Start:   uint32(g.start),
		Accept:  uint32(g.accept),
		Reject:  uint32(g.reject),
		Root:    uint32(g.root),
		Units:   make([]TableUnit, len(g.units)),
		States:  make([]TableState, len(g.states)),
	}
	for i := range g.units {
		u := &g.units[i]
		t.Units[i] = TableUnit{
			Start:   uint32(u.start),
			Success: uint32(u.success),
			Failure: uint32(u.failure),
			Label:   u.label,
		}
	}
	for i := range g.states {
		s := &g.states[i]
		ts := TableState{
			Unit:    uint32(s.unit),
			Frame:   uint32(s.frame),
			Input:   s.action.Input,
			Context: s.action.Context,
		}
		if len(s.trans) > 0 {
			ts.Transitions = make([]TableTransition, 0, len(s.trans))
			for _, tr := range s.Transitions() {
				ts.Transitions = append(ts.Transitions, TableTransition{
					Context: uint32(tr.Key.Context),
					Symbol:  int16(tr.Key.Symbol),
					Next:    uint32(tr.Next),
				})
			}
		}
		t.States[i] = ts
	}
	return t
}

// Load rebuilds a graph from t and validates it like any other build.
// Units of a loaded graph have no pattern node.
func Load(t Table, opts ...BuildOption) (*Graph, error) {
	b := NewBuilderWithCapacity(len(t.States))
	for _, ts := range t.States {
		b.AddState(UnitID(ts.Unit), Action{Input: ts.Input, Context: ts.Context})
	}
	for _, tu := range t.Units {
		if _, err := b.DefineUnit(tu.Label, StateID(tu.Start), StateID(tu.Success), StateID(tu.Failure)); err != nil {
			return nil, err
		}
	}
	for i, ts := range t.States {
		id := StateID(i)
		if UnitID(ts.Frame) != InvalidUnit {
			if err := b.SetFrame(id, UnitID(ts.Frame)); err != nil {
				return nil, err
			}
		}
		for _, tr := range ts.Transitions {
			key := Key{Context: StateID(tr.Context), Symbol: Symbol(tr.Symbol)}
			if err := b.AddTransition(id, key, StateID(tr.Next)); err != nil {
				return nil, err
			}
		}
	}
	if int(t.Root) >= len(t.Units) {
		return nil, &BuildError{
			Message: fmt.Sprintf("root unit %d out of bounds", t.Root),
			StateID: InvalidState,
			Err:     ErrInvalidState,
		}
	}
	b.SetRoot(UnitID(t.Root), StateID(t.Start), StateID(t.Accept), StateID(t.Reject))

	all := make([]BuildOption, 0, len(opts)+2)
	all = append(all, WithName(t.Name), WithPartial(t.Partial))
	all = append(all, opts...)
	return b.Build(all...)
}
