package pattern

import "testing"

func TestNode_String(t *testing.T) {
	a := Literal("a")
	tests := []struct {
		name string
		node *Node
		want string
	}{
		{"literal", Literal("hello"), `"hello"`},
		{"empty literal", Literal(""), `""`},
		{"sequence", Sequence(Literal("hi"), Literal("bye")), `Sequence("hi", "bye")`},
		{"choice", Choice(Literal("a"), Literal("ab")), `Choice("a", "ab")`},
		{"shared", Sequence(a, a), `Sequence("a", "a")`},
		{"any", Any(Byte(','), EndOfInput), `Any(',', EOI)`},
		{"any until", AnyUntil(";\n"), `Any(';', '\n')`},
		{"nested", Choice(Sequence(Literal("x")), Any()), `Choice(Sequence("x"), Any())`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.node.String(); got != tt.want {
				t.Errorf("String() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestNode_Immutable(t *testing.T) {
	children := []*Node{Literal("a"), Literal("b")}
	seq := Sequence(children...)
	children[0] = Literal("z")

	if got := seq.Sub(0).Value(); got != "a" {
		t.Errorf("Sub(0).Value() = %q after caller mutation, want %q", got, "a")
	}

	out := seq.Children()
	out[1] = nil
	if seq.Sub(1) == nil {
		t.Error("Children() returned the internal slice")
	}

	terms := []Symbol{Byte(',')}
	anyNode := Any(terms...)
	terms[0] = Byte(';')
	if !anyNode.IsTerminator(Byte(',')) || anyNode.IsTerminator(Byte(';')) {
		t.Error("Any kept a reference to the caller's terminator slice")
	}
}

func TestNode_Accessors(t *testing.T) {
	lit := Literal("abc")
	if lit.Op() != OpLiteral || lit.Value() != "abc" || lit.Len() != 0 {
		t.Errorf("literal accessors = (%v, %q, %d)", lit.Op(), lit.Value(), lit.Len())
	}

	ch := Choice(lit, Literal("d"))
	if ch.Op() != OpChoice || ch.Len() != 2 || ch.Sub(0) != lit {
		t.Errorf("choice accessors = (%v, %d, %p)", ch.Op(), ch.Len(), ch.Sub(0))
	}

	anyNode := AnyUntil(",")
	if got := anyNode.Terminators(); len(got) != 1 || got[0] != Byte(',') {
		t.Errorf("Terminators() = %v", got)
	}
}

func TestOp_String(t *testing.T) {
	tests := []struct {
		op   Op
		want string
	}{
		{OpLiteral, "Literal"},
		{OpSequence, "Sequence"},
		{OpChoice, "Choice"},
		{OpAny, "Any"},
		{Op(0), "Op(0)"},
		{Op(42), "Op(42)"},
	}
	for _, tt := range tests {
		if got := tt.op.String(); got != tt.want {
			t.Errorf("Op(%d).String() = %q, want %q", uint8(tt.op), got, tt.want)
		}
	}
}

func TestSymbol(t *testing.T) {
	if !Byte('a').IsByte() || EndOfInput.IsByte() || Symbol(-2).IsByte() {
		t.Error("IsByte classification is wrong")
	}
	if got := At("ab", 1); got != Byte('b') {
		t.Errorf("At(ab, 1) = %v, want 'b'", got)
	}
	if got := At("ab", 2); got != EndOfInput {
		t.Errorf("At(ab, 2) = %v, want EOI", got)
	}
	if got := Symbol(-7).String(); got != "Symbol(-7)" {
		t.Errorf("String() = %q", got)
	}
}
