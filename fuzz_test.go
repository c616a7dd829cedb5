// Fuzz tests comparing the compiled machine against a recursive matcher.
//
// Run with:
//
//	go test -fuzz=FuzzMatch -fuzztime=30s
package patc

import (
	"strings"
	"testing"

	"github.com/coregx/patc/pattern"
)

// patternDecoder turns fuzz bytes into a small pattern tree over the bytes
// 'a' and 'b'. Exhausted data decodes as empty literals.
type patternDecoder struct {
	data []byte
}

func (d *patternDecoder) next() byte {
	if len(d.data) == 0 {
		return 0
	}
	b := d.data[0]
	d.data = d.data[1:]
	return b
}

func (d *patternDecoder) node(depth int) *pattern.Node {
	b := d.next()
	op := b % 4
	if depth >= 3 {
		op = 0
	}
	switch op {
	case 1, 2:
		subs := make([]*pattern.Node, int(b>>2)%3)
		for i := range subs {
			subs[i] = d.node(depth + 1)
		}
		if op == 1 {
			return pattern.Sequence(subs...)
		}
		return pattern.Choice(subs...)
	case 3:
		var terms []pattern.Symbol
		if b&0x04 != 0 {
			terms = append(terms, pattern.Byte('a'))
		}
		if b&0x08 != 0 {
			terms = append(terms, pattern.Byte('b'))
		}
		if b&0x10 != 0 {
			terms = append(terms, pattern.EndOfInput)
		}
		return pattern.Any(terms...)
	}
	lit := make([]byte, int(b>>2)%4)
	for i := range lit {
		lit[i] = 'a' + (b>>(4+i))&1
	}
	return pattern.Literal(string(lit))
}

// reference matches n at pos by direct recursion: committed choice,
// short-circuit sequence, check-then-advance Any.
func reference(n *pattern.Node, input string, pos int) (int, bool) {
	switch n.Op() {
	case pattern.OpLiteral:
		if strings.HasPrefix(input[pos:], n.Value()) {
			return pos + len(n.Value()), true
		}
	case pattern.OpSequence:
		for _, c := range n.Children() {
			var ok bool
			if pos, ok = reference(c, input, pos); !ok {
				return 0, false
			}
		}
		return pos, true
	case pattern.OpChoice:
		for _, c := range n.Children() {
			if end, ok := reference(c, input, pos); ok {
				return end, true
			}
		}
	case pattern.OpAny:
		for {
			sym := pattern.At(input, pos)
			if n.IsTerminator(sym) {
				return pos, true
			}
			if sym == pattern.EndOfInput {
				return 0, false
			}
			pos++
		}
	}
	return 0, false
}

func referenceFind(n *pattern.Node, input string) (int, int, bool) {
	for pos := 0; pos <= len(input); pos++ {
		if end, ok := reference(n, input, pos); ok {
			return pos, end, true
		}
	}
	return 0, 0, false
}

func FuzzMatch(f *testing.F) {
	f.Add([]byte{0x00}, "")
	f.Add([]byte{0x28}, "ab")                         // Literal("ab")
	f.Add([]byte{0x0A, 0x28, 0x04}, "aab")            // Choice(Literal("ab"), Literal("a"))
	f.Add([]byte{0x09, 0x04, 0x0B}, "aaba")           // Sequence(Literal("a"), Any('b'))
	f.Add([]byte{0x13}, "bab")                        // Any(EndOfInput)
	f.Add([]byte{0x09, 0x16, 0x0B, 0x04}, "babaabab") // nested
	f.Add([]byte{0xFF, 0x3C, 0x81, 0x6E, 0x2A}, "abcabcab")

	f.Fuzz(func(t *testing.T, data []byte, raw string) {
		if len(data) > 32 || len(raw) > 64 {
			t.Skip()
		}
		d := &patternDecoder{data: data}
		root := d.node(0)

		in := make([]byte, len(raw))
		for i := 0; i < len(raw); i++ {
			in[i] = "abc"[raw[i]%3]
		}
		input := string(in)

		m, err := Compile(root)
		if err != nil {
			t.Fatalf("Compile(%s) error = %v", root, err)
		}
		plain, err := CompileWithConfig(root, noPrefilter())
		if err != nil {
			t.Fatalf("CompileWithConfig(%s) error = %v", root, err)
		}

		wantEnd, wantOK := reference(root, input, 0)

		ok, _, err := m.Match(input)
		if err != nil {
			t.Fatalf("%s: Match(%q) error = %v", root, input, err)
		}
		if want := wantOK && wantEnd == len(input); ok != want {
			t.Errorf("%s: Match(%q) = %v, want %v", root, input, ok, want)
		}

		res, err := m.MatchAt(input, 0)
		if err != nil {
			t.Fatalf("%s: MatchAt(%q) error = %v", root, input, err)
		}
		if res.Matched != wantOK || (wantOK && res.End != wantEnd) {
			t.Errorf("%s: MatchAt(%q) = %v, %d; want %v, %d", root, input, res.Matched, res.End, wantOK, wantEnd)
		}

		ws, we, wok := referenceFind(root, input)
		s, e, found := m.Find(input)
		if found != wok || (wok && (s != ws || e != we)) {
			t.Errorf("%s: Find(%q) = %d, %d, %v; want %d, %d, %v (prefilter %v)",
				root, input, s, e, found, ws, we, wok, m.Prefilter())
		}
		ps, pe, pfound := plain.Find(input)
		if pfound != found || ps != s || pe != e {
			t.Errorf("%s: Find(%q) without prefilter = %d, %d, %v; with = %d, %d, %v",
				root, input, ps, pe, pfound, s, e, found)
		}
	})
}
