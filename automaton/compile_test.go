package automaton

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/coregx/patc/pattern"
)

func TestCompile_StateCounts(t *testing.T) {
	a := pattern.Literal("a")
	tests := []struct {
		name   string
		root   *pattern.Node
		states int
		units  int
	}{
		// root wrapper: 3 states, 1 unit
		{"literal", pattern.Literal("abc"), 3 + 3 + 3, 2},
		{"empty literal", pattern.Literal(""), 3 + 3, 2},
		// sequence: 3 + elements + unwind + continuation + finish
		{"shared element", pattern.Sequence(a, a), 3 + 3 + 4 + 1 + 1 + 1, 3},
		{"distinct elements", pattern.Sequence(pattern.Literal("a"), pattern.Literal("a")), 3 + 3 + 4 + 4 + 1 + 1 + 1, 4},
		{"empty sequence", pattern.Sequence(), 3 + 3, 2},
		// choice: 3 + per alternative (unit + wrapper unit)
		{"choice", pattern.Choice(pattern.Literal("x"), pattern.Literal("y")), 3 + 3 + 2*(4+3), 6},
		{"shared alternative", pattern.Choice(a, a), 3 + 3 + 4 + 2*3, 5},
		{"empty choice", pattern.Choice(), 3 + 3, 2},
		// any: 3 + step
		{"any", pattern.AnyUntil(",;"), 3 + 3 + 1, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := Compile(tt.root)
			if err != nil {
				t.Fatalf("Compile() error = %v", err)
			}
			if g.States() != tt.states || g.Units() != tt.units {
				t.Errorf("got %d states, %d units; want %d, %d", g.States(), g.Units(), tt.states, tt.units)
			}
		})
	}
}

func TestCompile_Idempotent(t *testing.T) {
	shared := pattern.Choice(pattern.Literal("ab"), pattern.AnyUntil(","))
	root := pattern.Sequence(shared, pattern.Literal(","), shared)

	c := NewDefaultCompiler()
	g1, err := c.Compile(root)
	if err != nil {
		t.Fatal(err)
	}
	g2, err := c.Compile(root)
	if err != nil {
		t.Fatal(err)
	}
	if g1 != g2 {
		t.Error("second Compile on the same root built a new graph")
	}

	g3, err := c.Compile(root, WithPartial(true))
	if err != nil {
		t.Fatal(err)
	}
	if g3 == g1 || !g3.IsPartial() {
		t.Error("different build options must not share a cached graph")
	}

	// A fresh compiler produces the same shape.
	g4 := MustCompile(root)
	if !reflect.DeepEqual(g1.Table(), g4.Table()) {
		t.Error("compiling the same tree twice produced different tables")
	}

	// The shared choice compiled once.
	u, ok := g1.UnitOf(shared)
	if !ok {
		t.Fatal("shared node has no unit")
	}
	count := 0
	for i := 0; i < g1.Units(); i++ {
		if g1.Unit(UnitID(i)).Node() == shared {
			count++
		}
	}
	if count != 1 {
		t.Errorf("shared node compiled into %d units, want 1 (unit %d)", count, u)
	}
}

func TestCompile_Layout(t *testing.T) {
	lit := pattern.Literal("hi")
	g := MustCompile(lit)
	u := g.Unit(g.Root())
	if u.Node() != lit || u.Label() != `"hi"` {
		t.Errorf("root unit = %v %q", u.Node(), u.Label())
	}

	start := g.State(g.Start())
	if start.Action().Context != ContextPush || start.Frame() != g.Root() {
		t.Errorf("start state = %s frame %d", start, start.Frame())
	}
	if next, ok := start.Next(Default()); !ok || next != u.Start() {
		t.Errorf("start does not enter the root unit: %d, %v", next, ok)
	}

	succ := g.State(u.Success())
	if next, ok := succ.Next(Key{Context: g.Start(), Symbol: EndOfInput}); !ok || next != g.Accept() {
		t.Error("root success does not accept at end of input")
	}
	if next, ok := succ.Next(In(g.Start())); !ok || next != g.Reject() {
		t.Error("root success does not reject trailing input")
	}

	// Every state of the literal defaults to its failure except the last.
	first, _ := g.State(u.Start()).Next(OnByte('h'))
	if next, _ := g.State(first).Next(Default()); next != u.Failure() {
		t.Errorf("mismatch after 'h' goes to %d, want failure %d", next, u.Failure())
	}
	if g.State(first).Action().Input != InputAdvance {
		t.Errorf("literal byte state action = %s", g.State(first).Action())
	}

	partial := MustCompile(lit, WithPartial(true))
	ps := partial.State(partial.Unit(partial.Root()).Success())
	if next, ok := ps.Next(In(partial.Start())); !ok || next != partial.Accept() {
		t.Error("partial root success does not accept on any symbol")
	}
}

func TestCompile_Errors(t *testing.T) {
	deep := pattern.Literal("x")
	for i := 0; i < 10; i++ {
		deep = pattern.Sequence(deep)
	}

	tests := []struct {
		name   string
		config CompilerConfig
		root   *pattern.Node
		want   error
	}{
		{"nil root", DefaultCompilerConfig(), nil, ErrNilPattern},
		{"nil child", DefaultCompilerConfig(), pattern.Sequence(pattern.Literal("a"), nil), ErrNilPattern},
		{"unknown op", DefaultCompilerConfig(), pattern.Choice(new(pattern.Node)), ErrUnknownOp},
		{"too deep", CompilerConfig{MaxDepth: 5}, deep, ErrTooDeep},
		{"bad terminator", DefaultCompilerConfig(), pattern.Any(pattern.Symbol(-5)), ErrInvalidSymbol},
		{"bad config", CompilerConfig{MaxDepth: -1}, pattern.Literal("a"), ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCompiler(tt.config).Compile(tt.root)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Compile() error = %v, want %v", err, tt.want)
			}
		})
	}

	_, err := Compile(pattern.Sequence(pattern.Literal("ok"), new(pattern.Node)))
	var ce *CompileError
	if !errors.As(err, &ce) {
		t.Fatalf("error %T is not a *CompileError", err)
	}
	if ce.Pattern != `Sequence("ok", Op(0))` {
		t.Errorf("CompileError.Pattern = %q", ce.Pattern)
	}
	if !strings.HasPrefix(err.Error(), "compilation failed for pattern") {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestMustCompile_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustCompile(nil) did not panic")
		}
	}()
	MustCompile(nil)
}

func TestCompile_Log(t *testing.T) {
	var buf bytes.Buffer
	c := NewCompiler(CompilerConfig{Log: &buf})
	a := pattern.Literal("a")
	if _, err := c.Compile(pattern.Sequence(a, a)); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"=== Compile ===", "units: 3", "shared reuses: 1", "mode: full"} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q:\n%s", want, out)
		}
	}
}

func TestCompilerConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  CompilerConfig
		wantErr bool
	}{
		{"default", DefaultCompilerConfig(), false},
		{"min", CompilerConfig{MaxDepth: 1}, false},
		{"zero", CompilerConfig{}, true},
		{"too large", CompilerConfig{MaxDepth: 100_001}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
