// Package vm executes compiled graphs with an explicit context stack.
//
// The machine is a flat loop: enter a state, run its input action, run its
// context action, resolve the next state from the (top frame, symbol) pair.
// Sub-pattern nesting lives entirely in the frame stack, so matching never
// recurses and its depth is bounded only by memory.
package vm

import (
	"github.com/coregx/patc/automaton"
	"github.com/coregx/patc/internal/trace"
	"github.com/coregx/patc/pattern"
)

// Result is the outcome of one run.
type Result struct {
	// Matched reports whether the accept state was reached.
	Matched bool

	// Spans lists the emitted spans in completion order, innermost first.
	// Empty when Matched is false.
	Spans []Span

	// Tokens holds the bytes emitted by EmitAdvance actions (Any patterns)
	// that survived rollback.
	Tokens string

	// End is the cursor position when the run stopped.
	End int

	// Steps is the number of states entered.
	Steps int
}

// Machine runs a graph against inputs.
//
// A Machine reuses its stack and output buffers between runs and is not
// safe for concurrent use. The graph it runs may be shared.
type Machine struct {
	graph  *automaton.Graph
	config Config
	log    *trace.Logger

	stack  stack
	spans  []Span
	tokens []byte
}

// New creates a machine for g.
func New(g *automaton.Graph, config Config) (*Machine, error) {
	if g == nil {
		return nil, ErrNilGraph
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Machine{
		graph:  g,
		config: config,
		log:    trace.NewLogger(config.Trace),
		stack:  make(stack, 0, 16),
	}, nil
}

// Match runs g against input with the default configuration.
func Match(g *automaton.Graph, input string) (bool, []Span, error) {
	m, err := New(g, DefaultConfig())
	if err != nil {
		return false, nil, err
	}
	res, err := m.Run(input)
	if err != nil {
		return false, nil, err
	}
	return res.Matched, res.Spans, nil
}

// Graph returns the graph the machine executes.
func (m *Machine) Graph() *automaton.Graph {
	return m.graph
}

// Run matches input from position 0.
func (m *Machine) Run(input string) (Result, error) {
	return m.RunAt(input, 0)
}

// RunAt matches input starting at position at. Span positions are absolute
// offsets into input.
func (m *Machine) RunAt(input string, at int) (Result, error) {
	g := m.graph
	m.reset()

	if at < 0 || at > len(input) {
		return Result{}, &Fault{State: g.Start(), Cursor: at, Err: ErrCursorOverrun}
	}

	tracing := m.log.Enabled()
	if tracing {
		m.log.Section("Run")
		m.log.Log("input: %q, start: %d", input, at)
	}

	cursor := at
	id := g.Start()
	// entered is false right after a PopJump: the jump target is resumed,
	// its action does not run.
	entered := true
	steps := 0
	limit := m.config.stepLimit(g.States(), input, at)

	for {
		steps++
		if steps > limit {
			return Result{}, &Fault{State: id, Cursor: cursor, Err: ErrNoProgress}
		}

		s := g.State(id)
		if s == nil {
			return Result{}, &Fault{State: id, Cursor: cursor, Err: automaton.ErrInvalidState}
		}

		if entered {
			act := s.Action()
			if err := m.input(act.Input, input, &cursor); err != nil {
				return Result{}, &Fault{State: id, Cursor: cursor, Err: err}
			}
			if act.Context.Jumps() {
				f, ok := m.stack.pop()
				if !ok {
					return Result{}, &Fault{State: id, Cursor: cursor, Err: ErrStackUnderflow}
				}
				next, ok := g.JumpTarget(id, f.Owner)
				if !ok {
					return Result{}, &Fault{State: id, Cursor: cursor, Err: ErrUnresolved}
				}
				if tracing {
					m.log.Log("%6d  %4d %-22s @%-4d depth %d -> resume %d", steps, id, act, cursor, len(m.stack), next)
				}
				id = next
				entered = false
				continue
			}
			if err := m.context(act.Context, id, cursor); err != nil {
				return Result{}, &Fault{State: id, Cursor: cursor, Err: err}
			}
			if tracing {
				m.log.Log("%6d  %4d %-22s @%-4d depth %d", steps, id, act, cursor, len(m.stack))
			}
		} else if tracing {
			m.log.Log("%6d  %4d %-22s @%-4d depth %d", steps, id, "(resumed)", cursor, len(m.stack))
		}
		entered = true

		if s.IsTerminal() {
			return m.finish(id, cursor, steps)
		}

		next, ok := g.Resolve(id, m.stack.context(), pattern.At(input, cursor))
		if !ok {
			return Result{}, &Fault{State: id, Cursor: cursor, Err: ErrUnresolved}
		}
		id = next
	}
}

func (m *Machine) reset() {
	m.stack = m.stack[:0]
	m.spans = m.spans[:0]
	m.tokens = m.tokens[:0]
}

// input executes an input action.
func (m *Machine) input(a automaton.InputAction, input string, cursor *int) error {
	switch a {
	case automaton.InputNone:
	case automaton.InputAdvance:
		if *cursor >= len(input) {
			return ErrCursorOverrun
		}
		*cursor++
	case automaton.InputEmitAdvance:
		if *cursor >= len(input) {
			return ErrCursorOverrun
		}
		m.tokens = append(m.tokens, input[*cursor])
		*cursor++
	case automaton.InputSeek:
		f, ok := m.stack.top()
		if !ok {
			return ErrStackUnderflow
		}
		*cursor = f.Cursor
		m.spans = m.spans[:f.spans]
		m.tokens = m.tokens[:f.tokens]
	}
	return nil
}

// context executes a context action other than the PopJump family.
func (m *Machine) context(a automaton.ContextAction, id automaton.StateID, cursor int) error {
	switch a {
	case automaton.ContextNone:
	case automaton.ContextPush:
		m.push(id, cursor)
	case automaton.ContextPop:
		if _, ok := m.stack.pop(); !ok {
			return ErrStackUnderflow
		}
	case automaton.ContextPopEmit:
		f, ok := m.stack.pop()
		if !ok {
			return ErrStackUnderflow
		}
		m.emit(f, cursor)
	case automaton.ContextPopPush:
		f, ok := m.stack.pop()
		if !ok {
			return ErrStackUnderflow
		}
		m.emit(f, cursor)
		m.push(id, cursor)
	}
	return nil
}

func (m *Machine) push(owner automaton.StateID, cursor int) {
	m.stack.push(Frame{
		Cursor: cursor,
		Owner:  owner,
		spans:  len(m.spans),
		tokens: len(m.tokens),
	})
}

func (m *Machine) emit(f Frame, cursor int) {
	unit := automaton.InvalidUnit
	if s := m.graph.State(f.Owner); s != nil {
		unit = s.Frame()
	}
	m.spans = append(m.spans, Span{Start: f.Cursor, End: cursor, Owner: f.Owner, Unit: unit})
}

// finish builds the result for terminal state id.
func (m *Machine) finish(id automaton.StateID, cursor, steps int) (Result, error) {
	if id != m.graph.Accept() {
		if m.log.Enabled() {
			m.log.Log("reject at %d after %d steps", cursor, steps)
		}
		return Result{End: cursor, Steps: steps}, nil
	}
	if len(m.stack) != 0 {
		return Result{}, &Fault{State: id, Cursor: cursor, Err: ErrStackImbalance}
	}
	if m.log.Enabled() {
		m.log.Log("accept at %d after %d steps, %d spans", cursor, steps, len(m.spans))
	}
	spans := make([]Span, len(m.spans))
	copy(spans, m.spans)
	return Result{
		Matched: true,
		Spans:   spans,
		Tokens:  string(m.tokens),
		End:     cursor,
		Steps:   steps,
	}, nil
}
