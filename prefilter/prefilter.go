// Package prefilter finds candidate start positions for unanchored pattern
// search from the literal prefixes of a pattern.
//
// A prefilter rejects offsets that cannot start a match, so the matcher
// only runs where one of the prefixes occurs. The strategy depends on the
// extracted literals:
//   - Single byte → memchr (bytes.IndexByte)
//   - Single substring → memmem (bytes.Index)
//   - Several literals, some one byte long → first-byte set
//   - A few literals → per-literal memmem, leftmost wins
//   - Many literals → Aho-Corasick automaton
//
// Example usage:
//
//	prefixes := literal.New(literal.DefaultConfig()).ExtractPrefixes(root)
//	pf := prefilter.NewBuilder(prefixes).Build()
//	if pf != nil {
//	    pos := pf.Find(haystack, 0)
//	}
package prefilter

import (
	"bytes"
	"fmt"

	"github.com/coregx/patc/literal"
)

// Prefilter quickly finds candidate match positions before running the
// matcher.
type Prefilter interface {
	// Find returns the index of the first candidate at or after start, or
	// -1 if there is none. A candidate is not a match; the caller verifies
	// it unless IsComplete is true.
	Find(haystack []byte, start int) int

	// IsComplete returns true if a candidate is a match of exactly
	// LiteralLen bytes.
	IsComplete() bool

	// LiteralLen returns the match length when IsComplete is true, else 0.
	LiteralLen() int

	// HeapBytes returns the number of bytes of heap memory used by this prefilter.
	HeapBytes() int

	// String names the strategy, for stats and logs.
	String() string
}

// ahoCorasickMinLiterals is the literal count from which the Aho-Corasick
// strategy replaces per-literal substring search.
const ahoCorasickMinLiterals = 4

// Builder constructs the prefilter for a set of prefix literals.
type Builder struct {
	prefixes *literal.Seq
}

// NewBuilder creates a new prefilter builder from extracted prefixes.
// prefixes may be nil.
func NewBuilder(prefixes *literal.Seq) *Builder {
	return &Builder{prefixes: prefixes}
}

// Build constructs the best prefilter for the given literals.
//
// Returns nil when no useful prefilter exists: no literals, or a literal
// that is empty (every offset is a candidate).
func (b *Builder) Build() Prefilter {
	if b.prefixes.IsEmpty() || b.prefixes.MinLen() == 0 {
		return nil
	}
	seq := b.prefixes.Clone()
	seq.Minimize()

	if seq.Len() == 1 {
		lit := seq.Get(0)
		if len(lit.Bytes) == 1 {
			return newMemchr(lit.Bytes[0], lit.Complete)
		}
		return newMemmem(lit.Bytes, lit.Complete)
	}

	if seq.MinLen() == 1 {
		return newByteSet(seq)
	}
	if seq.Len() < ahoCorasickMinLiterals {
		return newMultiMemmem(seq)
	}
	if pf, err := newAhoCorasick(seq); err == nil {
		return pf
	}
	return newByteSet(seq)
}

// memchr searches for a single byte.
type memchr struct {
	needle   byte
	complete bool
}

func newMemchr(needle byte, complete bool) Prefilter {
	return &memchr{needle: needle, complete: complete}
}

// Find implements Prefilter.Find using bytes.IndexByte.
func (p *memchr) Find(haystack []byte, start int) int {
	if start < 0 || start >= len(haystack) {
		return -1
	}
	idx := bytes.IndexByte(haystack[start:], p.needle)
	if idx == -1 {
		return -1
	}
	return start + idx
}

// IsComplete implements Prefilter.IsComplete.
func (p *memchr) IsComplete() bool {
	return p.complete
}

// LiteralLen implements Prefilter.LiteralLen.
func (p *memchr) LiteralLen() int {
	if p.complete {
		return 1
	}
	return 0
}

// HeapBytes implements Prefilter.HeapBytes.
func (p *memchr) HeapBytes() int {
	return 0
}

func (p *memchr) String() string {
	return fmt.Sprintf("memchr(%q)", p.needle)
}

// memmem searches for a single substring.
type memmem struct {
	needle   []byte
	complete bool
}

func newMemmem(needle []byte, complete bool) Prefilter {
	n := make([]byte, len(needle))
	copy(n, needle)
	return &memmem{needle: n, complete: complete}
}

// Find implements Prefilter.Find using bytes.Index.
func (p *memmem) Find(haystack []byte, start int) int {
	if start < 0 || start >= len(haystack) {
		return -1
	}
	idx := bytes.Index(haystack[start:], p.needle)
	if idx == -1 {
		return -1
	}
	return start + idx
}

// IsComplete implements Prefilter.IsComplete.
func (p *memmem) IsComplete() bool {
	return p.complete
}

// LiteralLen implements Prefilter.LiteralLen.
func (p *memmem) LiteralLen() int {
	if p.complete {
		return len(p.needle)
	}
	return 0
}

// HeapBytes implements Prefilter.HeapBytes.
func (p *memmem) HeapBytes() int {
	return len(p.needle)
}

func (p *memmem) String() string {
	return fmt.Sprintf("memmem(%q)", p.needle)
}

// byteSet reports every offset whose byte starts one of the literals.
type byteSet struct {
	set   [256]bool
	count int
}

func newByteSet(seq *literal.Seq) Prefilter {
	p := &byteSet{}
	for i := 0; i < seq.Len(); i++ {
		lit := seq.Get(i)
		if lit.Len() == 0 {
			continue
		}
		b := lit.Bytes[0]
		if !p.set[b] {
			p.set[b] = true
			p.count++
		}
	}
	return p
}

// Find implements Prefilter.Find.
func (p *byteSet) Find(haystack []byte, start int) int {
	if start < 0 {
		return -1
	}
	for i := start; i < len(haystack); i++ {
		if p.set[haystack[i]] {
			return i
		}
	}
	return -1
}

// IsComplete implements Prefilter.IsComplete.
func (p *byteSet) IsComplete() bool {
	return false
}

// LiteralLen implements Prefilter.LiteralLen.
func (p *byteSet) LiteralLen() int {
	return 0
}

// HeapBytes implements Prefilter.HeapBytes.
func (p *byteSet) HeapBytes() int {
	return len(p.set)
}

func (p *byteSet) String() string {
	return fmt.Sprintf("byteset(%d)", p.count)
}

// multiMemmem runs one substring search per literal and keeps the
// leftmost hit.
type multiMemmem struct {
	needles [][]byte
	size    int
	longest int
}

func newMultiMemmem(seq *literal.Seq) Prefilter {
	p := &multiMemmem{needles: seq.Clone().Bytes()}
	for _, n := range p.needles {
		p.size += len(n)
		p.longest = max(p.longest, len(n))
	}
	return p
}

// Find implements Prefilter.Find.
func (p *multiMemmem) Find(haystack []byte, start int) int {
	if start < 0 || start >= len(haystack) {
		return -1
	}
	best := -1
	window := haystack[start:]
	for _, n := range p.needles {
		idx := bytes.Index(window, n)
		if idx == -1 {
			continue
		}
		if best == -1 || idx < best {
			best = idx
			// Later needles only need to start before this hit.
			window = haystack[start:min(len(haystack), start+idx-1+p.longest)]
		}
	}
	if best == -1 {
		return -1
	}
	return start + best
}

// IsComplete implements Prefilter.IsComplete.
func (p *multiMemmem) IsComplete() bool {
	return false
}

// LiteralLen implements Prefilter.LiteralLen.
func (p *multiMemmem) LiteralLen() int {
	return 0
}

// HeapBytes implements Prefilter.HeapBytes.
func (p *multiMemmem) HeapBytes() int {
	return p.size
}

func (p *multiMemmem) String() string {
	return fmt.Sprintf("memmem×%d", len(p.needles))
}
