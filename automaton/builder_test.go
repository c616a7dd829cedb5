package automaton

import (
	"errors"
	"strings"
	"testing"
)

// newRootBuilder returns a builder holding the usual root wrapper: state 0
// pushes, state 1 (accept) pops and emits, state 2 (reject) pops.
func newRootBuilder(t *testing.T) *Builder {
	t.Helper()
	b := NewBuilder()
	root := b.AddUnit(nil, "root")
	start, accept, reject := b.UnitStates(root)
	if err := b.SetAction(start, Action{Context: ContextPush}); err != nil {
		t.Fatal(err)
	}
	if err := b.SetAction(accept, Action{Context: ContextPopEmit}); err != nil {
		t.Fatal(err)
	}
	if err := b.SetAction(reject, Action{Context: ContextPop}); err != nil {
		t.Fatal(err)
	}
	b.SetRoot(root, start, accept, reject)
	return b
}

func TestBuilder_Minimal(t *testing.T) {
	b := newRootBuilder(t)
	if err := b.AddTransition(0, Default(), 1); err != nil {
		t.Fatal(err)
	}
	g, err := b.Build(WithName("minimal"))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if g.States() != 3 || g.Units() != 1 {
		t.Errorf("graph has %d states, %d units; want 3, 1", g.States(), g.Units())
	}
	if g.Start() != 0 || g.Accept() != 1 || g.Reject() != 2 || g.Root() != 0 {
		t.Errorf("designated states = %d/%d/%d root %d", g.Start(), g.Accept(), g.Reject(), g.Root())
	}
	if !g.State(1).IsTerminal() || !g.State(2).IsTerminal() || g.State(0).IsTerminal() {
		t.Error("only accept and reject should be terminal")
	}
	if g.Name() != "minimal" || g.IsPartial() {
		t.Errorf("options not applied: name %q, partial %v", g.Name(), g.IsPartial())
	}
}

func TestBuilder_AddTransitionErrors(t *testing.T) {
	tests := []struct {
		name string
		from StateID
		key  Key
		to   StateID
		want error
	}{
		{"duplicate", 0, Default(), 2, ErrDuplicateTransition},
		{"bad source", 99, Default(), 1, ErrInvalidState},
		{"bad target", 0, OnByte('a'), 99, ErrInvalidState},
		{"bad context", 0, Key{Context: 42, Symbol: AnySymbol}, 1, ErrInvalidState},
		{"bad symbol", 0, Key{Context: AnyContext, Symbol: 300}, 1, ErrInvalidSymbol},
		{"reserved symbol", 0, Key{Context: AnyContext, Symbol: -7}, 1, ErrInvalidSymbol},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newRootBuilder(t)
			if err := b.AddTransition(0, Default(), 1); err != nil {
				t.Fatal(err)
			}
			err := b.AddTransition(tt.from, tt.key, tt.to)
			if !errors.Is(err, tt.want) {
				t.Fatalf("AddTransition() error = %v, want %v", err, tt.want)
			}
			var be *BuildError
			if !errors.As(err, &be) {
				t.Fatalf("error %T is not a *BuildError", err)
			}
		})
	}

	// The first registration survives a rejected duplicate.
	b := newRootBuilder(t)
	_ = b.AddTransition(0, Default(), 1)
	_ = b.AddTransition(0, Default(), 2)
	if next, _ := b.states[0].Next(Default()); next != 1 {
		t.Errorf("duplicate overwrote the transition: target %d, want 1", next)
	}
}

func TestBuilder_Validate(t *testing.T) {
	tests := []struct {
		name string
		wire func(t *testing.T, b *Builder)
		want error
	}{
		{
			name: "pop with empty stack",
			wire: func(t *testing.T, b *Builder) {
				mustNil(t, b.SetAction(0, Action{}))
				mustNil(t, b.AddTransition(0, Default(), 1))
			},
			want: ErrStackUnderflow,
		},
		{
			name: "seek with empty stack",
			wire: func(t *testing.T, b *Builder) {
				s := b.AddState(0, Action{Input: InputSeek})
				mustNil(t, b.SetAction(0, Action{}))
				mustNil(t, b.AddTransition(0, Default(), s))
				mustNil(t, b.AddTransition(s, Default(), 2))
			},
			want: ErrStackUnderflow,
		},
		{
			name: "pop past the root frame",
			wire: func(t *testing.T, b *Builder) {
				pop := b.AddState(0, Action{Context: ContextPop})
				mustNil(t, b.AddTransition(0, Default(), pop))
				mustNil(t, b.AddTransition(pop, Default(), 1))
			},
			want: ErrStackUnderflow,
		},
		{
			name: "undefined input action",
			wire: func(t *testing.T, b *Builder) {
				mustNil(t, b.SetAction(0, Action{Input: 9, Context: ContextPush}))
			},
			want: ErrUnknownOp,
		},
		{
			name: "undefined context action",
			wire: func(t *testing.T, b *Builder) {
				mustNil(t, b.SetAction(0, Action{Context: ContextPopPush + 1}))
			},
			want: ErrUnknownOp,
		},
		{
			name: "self-loop without input",
			wire: func(t *testing.T, b *Builder) {
				s := b.AddState(0, Action{})
				mustNil(t, b.AddTransition(0, Default(), s))
				mustNil(t, b.AddTransition(s, OnByte('x'), 1))
				mustNil(t, b.AddTransition(s, Default(), s))
			},
			want: ErrNoProgress,
		},
		{
			name: "self-loop at end of input",
			wire: func(t *testing.T, b *Builder) {
				s := b.AddState(0, Action{Input: InputAdvance})
				mustNil(t, b.AddTransition(0, Default(), s))
				mustNil(t, b.AddTransition(s, On(EndOfInput), s))
				mustNil(t, b.AddTransition(s, Default(), 1))
			},
			want: ErrNoProgress,
		},
		{
			name: "wildcard self-loop without exit",
			wire: func(t *testing.T, b *Builder) {
				s := b.AddState(0, Action{Input: InputAdvance})
				mustNil(t, b.AddTransition(0, Default(), s))
				mustNil(t, b.AddTransition(s, OnByte(';'), 1))
				mustNil(t, b.AddTransition(s, Default(), s))
			},
			want: ErrNoProgress,
		},
		{
			name: "dangling exit",
			wire: func(t *testing.T, b *Builder) {
				u := b.AddUnit(nil, "inner")
				start, success, _ := b.UnitStates(u)
				mustNil(t, b.AddTransition(0, Default(), start))
				mustNil(t, b.AddTransition(start, Default(), success))
			},
			want: ErrInvalidState,
		},
		{
			name: "terminal with transitions",
			wire: func(t *testing.T, b *Builder) {
				mustNil(t, b.AddTransition(0, Default(), 1))
				mustNil(t, b.AddTransition(1, Default(), 2))
			},
			want: ErrInvalidState,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newRootBuilder(t)
			tt.wire(t, b)
			_, err := b.Build()
			if !errors.Is(err, tt.want) {
				t.Fatalf("Build() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestBuilder_ValidateAccepts(t *testing.T) {
	// An advancing wildcard self-loop with an end-of-input exit.
	b := newRootBuilder(t)
	s := b.AddState(0, Action{Input: InputEmitAdvance})
	mustNil(t, b.AddTransition(0, Default(), s))
	mustNil(t, b.AddTransition(s, On(EndOfInput), 1))
	mustNil(t, b.AddTransition(s, Default(), s))
	if _, err := b.Build(); err != nil {
		t.Errorf("Build() error = %v", err)
	}

	// Unreachable states are not checked for stack depth.
	b = newRootBuilder(t)
	orphan := b.AddState(0, Action{Context: ContextPop})
	mustNil(t, b.AddTransition(orphan, Default(), 2))
	mustNil(t, b.AddTransition(0, Default(), 1))
	if _, err := b.Build(); err != nil {
		t.Errorf("Build() error = %v", err)
	}
}

func TestBuilder_RootNotSet(t *testing.T) {
	b := NewBuilder()
	b.AddUnit(nil, "root")
	_, err := b.Build()
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("Build() error = %v, want ErrInvalidState", err)
	}
	if !strings.Contains(err.Error(), "root unit not set") {
		t.Errorf("error %q does not name the problem", err)
	}
}

func TestBuilder_DefineUnit(t *testing.T) {
	b := NewBuilder()
	for i := 0; i < 3; i++ {
		b.AddState(0, Action{})
	}
	id, err := b.DefineUnit("u", 0, 1, 2)
	if err != nil || id != 0 {
		t.Fatalf("DefineUnit() = %d, %v", id, err)
	}
	if _, err := b.DefineUnit("bad", 0, 1, 5); !errors.Is(err, ErrInvalidState) {
		t.Errorf("DefineUnit() with missing state error = %v", err)
	}
	if err := b.SetFrame(0, 3); !errors.Is(err, ErrInvalidState) {
		t.Errorf("SetFrame() with missing unit error = %v", err)
	}
}

func TestBuildError_Error(t *testing.T) {
	tests := []struct {
		err  *BuildError
		want string
	}{
		{&BuildError{Message: "boom", StateID: 3, Err: ErrInvalidState}, "graph build error at state 3: boom"},
		{&BuildError{Message: "boom", StateID: InvalidState, Err: ErrInvalidState}, "graph build error: boom"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}

func mustNil(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}
