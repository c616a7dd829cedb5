package prefilter

import (
	"fmt"

	"github.com/coregx/ahocorasick"
	"github.com/coregx/patc/literal"
)

// ahoCorasickPrefilter finds candidates for many literals in one pass.
//
// All patterns are cut to the shortest literal length and deduplicated.
// With equal-length patterns every match semantics reports the leftmost
// starting occurrence first, and a position that starts a full literal
// also starts its cut prefix, so no candidate is lost.
type ahoCorasickPrefilter struct {
	auto     *ahocorasick.Automaton
	patterns int
	width    int
}

func newAhoCorasick(seq *literal.Seq) (Prefilter, error) {
	width := seq.MinLen()
	builder := ahocorasick.NewBuilder()
	seen := make(map[string]struct{}, seq.Len())
	for i := 0; i < seq.Len(); i++ {
		cut := seq.Get(i).Bytes[:width]
		if _, dup := seen[string(cut)]; dup {
			continue
		}
		seen[string(cut)] = struct{}{}
		builder.AddPattern(cut)
	}
	auto, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("prefilter: aho-corasick build: %w", err)
	}
	return &ahoCorasickPrefilter{auto: auto, patterns: len(seen), width: width}, nil
}

// Find implements Prefilter.Find.
func (p *ahoCorasickPrefilter) Find(haystack []byte, start int) int {
	if start < 0 || start >= len(haystack) {
		return -1
	}
	m := p.auto.Find(haystack, start)
	if m == nil {
		return -1
	}
	return m.Start
}

// IsComplete implements Prefilter.IsComplete.
func (p *ahoCorasickPrefilter) IsComplete() bool {
	return false
}

// LiteralLen implements Prefilter.LiteralLen.
func (p *ahoCorasickPrefilter) LiteralLen() int {
	return 0
}

// HeapBytes implements Prefilter.HeapBytes. The automaton does not report
// its size, so this counts the pattern bytes it was built from.
func (p *ahoCorasickPrefilter) HeapBytes() int {
	return p.patterns * p.width
}

func (p *ahoCorasickPrefilter) String() string {
	return fmt.Sprintf("aho-corasick(%d)", p.patterns)
}
