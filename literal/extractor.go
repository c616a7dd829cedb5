package literal

import (
	"github.com/coregx/patc/pattern"
)

// ExtractorConfig configures literal extraction limits.
//
// These limits prevent excessive extraction from large patterns:
//   - MaxLiterals: caps the set built from choices and their combinations
//   - MaxLiteralLen: caps each literal; longer ones are truncated and become
//     incomplete
type ExtractorConfig struct {
	// MaxLiterals limits the maximum number of literals to extract.
	// Default: 64.
	MaxLiterals int

	// MaxLiteralLen limits the maximum length of each extracted literal.
	// Default: 64.
	MaxLiteralLen int
}

// DefaultConfig returns the default extractor configuration.
func DefaultConfig() ExtractorConfig {
	return ExtractorConfig{
		MaxLiterals:   64,
		MaxLiteralLen: 64,
	}
}

// Extractor extracts prefix literals from pattern trees.
//
// Example:
//
//	p := pattern.Sequence(
//	    pattern.Choice(pattern.Literal("GET"), pattern.Literal("PUT")),
//	    pattern.Literal(" /"),
//	)
//	prefixes := literal.New(literal.DefaultConfig()).ExtractPrefixes(p)
//	// prefixes = ["GET /", "PUT /"], all complete
type Extractor struct {
	config ExtractorConfig
}

// New creates a new Extractor with the given configuration.
func New(config ExtractorConfig) *Extractor {
	return &Extractor{config: config}
}

// ExtractPrefixes returns literals one of which every match of n starts
// with. It returns an empty Seq when no such set is known: n starts with an
// Any, a choice grew past MaxLiterals, or some alternative has no
// non-empty prefix.
//
// The set may over-approximate: ordered choice commits to its first
// successful alternative, which can rule out strings the set still lists.
// It never misses a match.
func (e *Extractor) ExtractPrefixes(n *pattern.Node) *Seq {
	seq := e.extractPrefixes(n, 0)
	for _, lit := range seq.literals {
		if len(lit.Bytes) == 0 && !lit.Complete {
			return NewSeq()
		}
	}
	return seq
}

func (e *Extractor) extractPrefixes(n *pattern.Node, depth int) *Seq {
	if n == nil || depth > 100 {
		return NewSeq()
	}

	switch n.Op() {
	case pattern.OpLiteral:
		return NewSeq(e.clip([]byte(n.Value()), true))

	case pattern.OpSequence:
		return e.extractSequence(n, depth)

	case pattern.OpChoice:
		if n.Len() == 0 {
			return NewSeq()
		}
		var all []Literal
		for _, alt := range n.Children() {
			sub := e.extractPrefixes(alt, depth+1)
			if sub.IsEmpty() {
				return NewSeq()
			}
			all = append(all, sub.literals...)
			if len(all) > e.config.MaxLiterals {
				return NewSeq()
			}
		}
		return NewSeq(all...)

	default:
		// Any: the match can start with any byte.
		return NewSeq()
	}
}

// extractSequence concatenates the prefixes of consecutive elements for as
// long as everything before is complete.
func (e *Extractor) extractSequence(n *pattern.Node, depth int) *Seq {
	acc := []Literal{{Bytes: []byte{}, Complete: true}}

	for _, sub := range n.Children() {
		if !NewSeq(acc...).AllComplete() {
			break
		}
		next := e.extractPrefixes(sub, depth+1)
		if next.IsEmpty() || len(acc)*next.Len() > e.config.MaxLiterals {
			markIncomplete(acc)
			break
		}

		cross := make([]Literal, 0, len(acc)*next.Len())
		for _, a := range acc {
			for _, b := range next.literals {
				joined := make([]byte, 0, len(a.Bytes)+len(b.Bytes))
				joined = append(joined, a.Bytes...)
				joined = append(joined, b.Bytes...)
				cross = append(cross, e.clip(joined, b.Complete))
			}
		}
		acc = cross
	}
	return NewSeq(acc...)
}

// clip truncates b to MaxLiteralLen; a truncated literal is incomplete.
func (e *Extractor) clip(b []byte, complete bool) Literal {
	if len(b) > e.config.MaxLiteralLen {
		return NewLiteral(b[:e.config.MaxLiteralLen], false)
	}
	return NewLiteral(b, complete)
}

func markIncomplete(lits []Literal) {
	for i := range lits {
		lits[i].Complete = false
	}
}
