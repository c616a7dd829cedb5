package automaton

import (
	"fmt"
	"math"

	"github.com/coregx/patc/internal/conv"
	"github.com/coregx/patc/internal/sparse"
)

// checkSelfLoop verifies that taking key from s back to s consumes input
// and cannot fire at end of input.
func checkSelfLoop(s *State, key Key) error {
	if !s.action.Input.Advances() {
		return &BuildError{
			Message: fmt.Sprintf("self-loop on %s with input action %s", key, s.action.Input),
			StateID: s.id,
			Err:     ErrNoProgress,
		}
	}
	if key.Symbol == EndOfInput {
		return &BuildError{
			Message: fmt.Sprintf("self-loop on %s advances past end of input", key),
			StateID: s.id,
			Err:     ErrNoProgress,
		}
	}
	if key.Symbol == AnySymbol {
		_, own := s.trans[Key{key.Context, EndOfInput}]
		_, wild := s.trans[Key{AnyContext, EndOfInput}]
		if !own && !wild {
			return &BuildError{
				Message: fmt.Sprintf("self-loop on %s has no end of input exit", key),
				StateID: s.id,
				Err:     ErrNoProgress,
			}
		}
	}
	return nil
}

const unknownDepth = math.MaxInt

// Reachability modes: a state is either entered normally (its action runs)
// or resumed by a PopJump (its action is skipped).
const (
	modeEntered = 0
	modeJumped  = 1
)

// stackAnalysis computes, for every reachable state, the minimum stack
// depth it can be entered or resumed with.
//
// The edge set is context-insensitive except for one refinement: an edge
// keyed on a concrete context c is only taken while c's frame is on top,
// so the depth after it is the depth c established when it pushed. This is
// what keeps a shared unit (entered at one depth, left through another
// occurrence's context) from being reported as an underflow.
type stackAnalysis struct {
	b     *Builder
	depth [2][]int
	// users[c] lists states with an edge keyed on context c.
	users [][]StateID
	queue []uint32
	inq   *sparse.Set
}

func (b *Builder) newStackAnalysis() *stackAnalysis {
	n := len(b.states)
	a := &stackAnalysis{
		b:     b,
		users: make([][]StateID, n),
		inq:   sparse.New(2 * n),
	}
	for m := range a.depth {
		a.depth[m] = make([]int, n)
		for i := range a.depth[m] {
			a.depth[m][i] = unknownDepth
		}
	}
	for i := range b.states {
		s := &b.states[i]
		for key := range s.trans {
			if key.Context != AnyContext && key.Context != NoContext {
				a.users[key.Context] = append(a.users[key.Context], s.id)
			}
		}
	}
	return a
}

func (a *stackAnalysis) item(id StateID, mode int) uint32 {
	return conv.IntToUint32(int(id)*2 + mode)
}

func (a *stackAnalysis) enqueue(id StateID, mode int) {
	it := a.item(id, mode)
	if a.inq.Insert(it) {
		a.queue = append(a.queue, it)
	}
}

func (a *stackAnalysis) relax(id StateID, mode, depth int) {
	if depth >= a.depth[mode][id] {
		return
	}
	a.depth[mode][id] = depth
	a.enqueue(id, mode)
	for _, u := range a.users[id] {
		for m := range a.depth {
			if a.depth[m][u] != unknownDepth {
				a.enqueue(u, m)
			}
		}
	}
}

// frameDepth returns the stack depth while c's frame is on top.
func (a *stackAnalysis) frameDepth(c StateID) (int, bool) {
	s := &a.b.states[c]
	d := a.depth[modeEntered][c]
	if d == unknownDepth || !s.action.Context.Pushes() {
		return 0, false
	}
	if s.action.Context == ContextPush {
		return d + 1, true
	}
	return d, true
}

func (a *stackAnalysis) run() error {
	a.relax(a.b.start, modeEntered, 0)
	for len(a.queue) > 0 {
		it := a.queue[0]
		a.queue = a.queue[1:]
		a.inq.Remove(it)
		id, mode := StateID(it/2), int(it%2)
		if err := a.visit(id, mode); err != nil {
			return err
		}
	}
	return nil
}

func (a *stackAnalysis) visit(id StateID, mode int) error {
	s := &a.b.states[id]
	after := a.depth[mode][id]
	if mode == modeEntered {
		need := 0
		if s.action.Input == InputSeek || s.action.Context.Pops() {
			need = 1
		}
		if after < need {
			return &BuildError{
				Message: fmt.Sprintf("action %s reachable with an empty stack", s.action),
				StateID: id,
				Err:     ErrStackUnderflow,
			}
		}
		if s.action.Context.Jumps() {
			// Targets are resolved per incoming edge, see edge().
			return nil
		}
		after += s.action.Context.delta()
	}
	if s.terminal {
		return nil
	}
	for key, next := range s.trans {
		if err := a.edge(key, after, next); err != nil {
			return err
		}
	}
	// Without a full wildcard entry, non-exit states fall back to their
	// unit's failure at run time (Graph.Resolve).
	if _, ok := s.trans[Default()]; !ok {
		if u := &a.b.units[s.unit]; !u.IsExit(id) {
			return a.edge(Default(), after, u.failure)
		}
	}
	return nil
}

func (a *stackAnalysis) edge(key Key, after int, next StateID) error {
	depth := after
	switch key.Context {
	case AnyContext:
	case NoContext:
		if after != 0 {
			return nil
		}
	default:
		fd, ok := a.frameDepth(key.Context)
		if !ok {
			return nil
		}
		depth = fd
	}
	a.relax(next, modeEntered, depth)

	target := &a.b.states[next]
	if !target.action.Context.Jumps() {
		return nil
	}
	if depth < 1 {
		return &BuildError{
			Message: fmt.Sprintf("action %s reachable with an empty stack", target.action),
			StateID: next,
			Err:     ErrStackUnderflow,
		}
	}
	success := target.action.Context == ContextPopJumpSuccess
	if key.Context != AnyContext && key.Context != NoContext {
		u := &a.b.units[a.b.states[key.Context].unit]
		a.relax(exitOf(u, success), modeJumped, depth-1)
		return nil
	}
	for i := range a.b.units {
		a.relax(exitOf(&a.b.units[i], success), modeJumped, depth-1)
	}
	return nil
}

func exitOf(u *Unit, success bool) StateID {
	if success {
		return u.success
	}
	return u.failure
}

// checkReachable runs the stack analysis from the start state and then
// rejects reachable unit exits that have no way out.
func (b *Builder) checkReachable() error {
	a := b.newStackAnalysis()
	if err := a.run(); err != nil {
		return err
	}
	for i := range b.states {
		s := &b.states[i]
		if a.depth[modeEntered][i] == unknownDepth && a.depth[modeJumped][i] == unknownDepth {
			continue
		}
		if s.terminal || len(s.trans) > 0 || s.action.Context.Jumps() {
			continue
		}
		if u := &b.units[s.unit]; u.IsExit(s.id) {
			return &BuildError{
				Message: fmt.Sprintf("exit of unit %d (%s) has no transitions", u.id, u.label),
				StateID: s.id,
				Err:     ErrInvalidState,
			}
		}
	}
	return nil
}
